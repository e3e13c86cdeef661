package vtop

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"
)

// AuthData carries the two tokens every authenticated portal request
// needs: the rotating csrf token and the student's registration number.
type AuthData struct {
	CsrfToken    string
	AuthorizedID string
}

// AuthData returns the current tokens, refreshing them from the content
// page when the client has none. Login populates these up front, so the
// refresh path only runs after the portal rotated the token mid-session.
func (c *Client) AuthData(ctx context.Context) (AuthData, error) {
	if data, ok := c.cachedAuthData(); ok {
		return data, nil
	}

	ctx, span := tracer.Start(ctx, "vtop.AuthData")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(c.BaseUrl.JoinPath("/vtop/content").String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return AuthData{}, err
	}

	body := res.Body()
	csrf := extractCsrfFast(body)
	if csrf == "" {
		csrf = extractCsrfDocument(body)
	}
	authorizedID := extractAuthorizedID(body)
	if csrf == "" || authorizedID == "" {
		err := fmt.Errorf("content page is missing auth tokens, session likely expired")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return AuthData{}, err
	}

	c.setAuthData(csrf, authorizedID)
	return AuthData{CsrfToken: csrf, AuthorizedID: authorizedID}, nil
}

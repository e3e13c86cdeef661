package vtop

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/codes"
)

// loginAttempts bounds how many captcha cycles Login runs before it
// reports a timeout.
const loginAttempts = 3

// preloginSetupRetries bounds how many times we re-request the prelogin
// page when the portal serves it without a captcha image.
const preloginSetupRetries = 10

// Credentials identifies a student to the portal.
type Credentials struct {
	Username string
	Password string
}

// LoginError is a terminal login failure: retrying with a new captcha
// cannot fix it.
type LoginError struct {
	Message string
}

func (e *LoginError) Error() string {
	return e.Message
}

// terminalLoginMessages maps the portal's error markers to the message
// surfaced to the user. Anything else on the error page means the
// captcha read was wrong.
var terminalLoginMessages = map[string]string{
	"Invalid Credentials":           "Invalid Credentials",
	"Invalid LoginId/Password":      "Invalid LoginId/Password",
	"Maximum Fail Attempts Reached": "Maximum Fail Attempts Reached. Use Forgot Password",
}

var loginErrorStrongRegex = regexp.MustCompile(`<strong>([^<]+)</strong>`)

// loginFlow carries the intermediate state of one attempt through the
// login machine's stages.
type loginFlow struct {
	csrf    string
	captcha string // data url of the captcha image
	answer  string // solver's reading of the captcha
}

// Login authenticates the client against the portal. Each attempt runs
// the captcha machine: fetch the open page for a csrf token, request
// the prelogin setup page until it carries a captcha image, solve it,
// submit, and classify the outcome by the final redirect URL. Terminal
// failures return *LoginError immediately; transport errors and wrong
// captcha reads consume an attempt, and running out of attempts ends in
// a timeout error.
func (c *Client) Login(ctx context.Context, creds Credentials) error {
	ctx, span := tracer.Start(ctx, "vtop.Login")
	defer span.End()

	fail := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if c.solver == nil {
		return fail(errors.New("client has no captcha solver configured"))
	}

	c.cache.clear()
	c.setAuthData("", "")

	for attempt := 1; attempt <= loginAttempts; attempt++ {
		ok, err := c.attemptLogin(ctx, creds)
		if err != nil {
			var loginErr *LoginError
			if errors.As(err, &loginErr) {
				return fail(err)
			}
			if ctx.Err() != nil {
				return fail(err)
			}
			slog.WarnContext(ctx, "login attempt failed",
				"attempt", attempt, "err", err)
			continue
		}
		if ok {
			return nil
		}
		slog.DebugContext(ctx, "captcha likely wrong, retrying",
			"attempt", attempt)
	}

	return fail(&LoginError{Message: "Login Timeout"})
}

func (c *Client) attemptLogin(ctx context.Context, creds Credentials) (bool, error) {
	flow := &loginFlow{}

	if err := c.loginOpenPage(ctx, flow); err != nil {
		return false, err
	}
	if err := c.loginFetchCaptcha(ctx, flow); err != nil {
		return false, err
	}
	if err := c.loginSolveCaptcha(ctx, flow); err != nil {
		return false, err
	}

	ok, err := c.loginSubmit(ctx, flow, creds)
	if err != nil || !ok {
		return false, err
	}
	if err := c.loginFinalize(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// loginOpenPage fetches the public login page and pulls the csrf token
// out of it.
func (c *Client) loginOpenPage(ctx context.Context, flow *loginFlow) error {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(c.BaseUrl.JoinPath("/vtop/open/page").String())
	if err != nil {
		return err
	}
	body := res.Body()
	flow.csrf = extractCsrfFast(body)
	if flow.csrf == "" {
		flow.csrf = extractCsrfDocument(body)
	}
	if flow.csrf == "" {
		return fmt.Errorf("login page has no csrf token")
	}
	return nil
}

// loginFetchCaptcha posts the prelogin setup form until the response
// carries a captcha image. The portal intermittently serves the page
// without one, so this retries up to preloginSetupRetries times.
func (c *Client) loginFetchCaptcha(ctx context.Context, flow *loginFlow) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewConstantBackOff(200*time.Millisecond),
		preloginSetupRetries,
	), ctx)

	err := backoff.Retry(func() error {
		res, err := c.postForm(ctx, "/vtop/prelogin/setup", map[string]string{
			"_csrf": flow.csrf,
			"flag":  "VTOP",
		})
		if err != nil {
			return backoff.Permanent(err)
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
		if err != nil {
			return backoff.Permanent(err)
		}
		src, ok := doc.Find(`img[src^="data:image"]`).Attr("src")
		if !ok || src == "" {
			// the setup page may rotate the csrf token between tries
			if csrf := extractCsrfDocument(res.Body()); csrf != "" {
				flow.csrf = csrf
			}
			return fmt.Errorf("prelogin page has no captcha image")
		}

		flow.captcha = src
		return nil
	}, policy)
	if err != nil {
		return fmt.Errorf("fetch captcha: %w", err)
	}
	return nil
}

func (c *Client) loginSolveCaptcha(ctx context.Context, flow *loginFlow) error {
	answer, err := c.solver.SolveCaptcha(ctx, flow.captcha)
	if err != nil {
		return fmt.Errorf("solve captcha: %w", err)
	}
	flow.answer = answer
	return nil
}

// loginSubmit posts the credentials and classifies the outcome from the
// URL the portal redirected to. It returns true on success, false when
// the captcha read was wrong and the cycle should restart, and
// *LoginError for terminal failures.
func (c *Client) loginSubmit(ctx context.Context, flow *loginFlow, creds Credentials) (bool, error) {
	res, err := c.postForm(ctx, "/vtop/login", map[string]string{
		"_csrf":      flow.csrf,
		"username":   creds.Username,
		"password":   creds.Password,
		"captchaStr": flow.answer,
	})
	if err != nil {
		return false, err
	}

	finalUrl := res.RawResponse.Request.URL.String()
	switch {
	case strings.Contains(finalUrl, "/vtop/content"),
		strings.Contains(finalUrl, "/vtop/student"):
		return true, nil

	case strings.Contains(finalUrl, "/vtop/login/error"):
		message := ""
		if m := loginErrorStrongRegex.FindSubmatch(res.Body()); m != nil {
			message = strings.TrimSpace(string(m[1]))
		}
		for marker, response := range terminalLoginMessages {
			if strings.Contains(message, marker) {
				return false, &LoginError{Message: response}
			}
		}
		return false, nil

	default:
		return false, fmt.Errorf("login landed on unexpected page %s", finalUrl)
	}
}

// loginFinalize loads the content page and stashes the session tokens.
func (c *Client) loginFinalize(ctx context.Context) error {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(c.BaseUrl.JoinPath("/vtop/content").String())
	if err != nil {
		return err
	}
	body := res.Body()
	csrf := extractCsrfFast(body)
	if csrf == "" {
		csrf = extractCsrfDocument(body)
	}
	authorizedID := extractAuthorizedID(body)
	if csrf == "" || authorizedID == "" {
		return fmt.Errorf("content page is missing auth tokens after login")
	}
	c.setAuthData(csrf, authorizedID)
	return nil
}

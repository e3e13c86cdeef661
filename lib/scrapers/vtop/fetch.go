package vtop

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

// Category names one kind of portal data a client can scrape. Cache
// slots and chat intents are both keyed on these.
type Category string

const (
	CategoryCgpa         Category = "cgpa"
	CategoryAttendance   Category = "attendance"
	CategoryMarks        Category = "marks"
	CategoryTimetable    Category = "timetable"
	CategoryExamSchedule Category = "examSchedule"
	CategoryGrades       Category = "grades"
	CategoryProctor      Category = "proctor"
	CategoryAssignments  Category = "assignments"
)

// postForm issues the ajax form POST every VTOP data endpoint expects.
// The portal rejects requests missing the Referer or the
// X-Requested-With header, and every form carries the request date in
// the "x" field.
func (c *Client) postForm(ctx context.Context, path string, form map[string]string) (*resty.Response, error) {
	data := map[string]string{
		"x": c.now().UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT"),
	}
	for k, v := range form {
		data[k] = v
	}
	return c.Http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetHeader("Referer", c.BaseUrl.JoinPath("/vtop/content").String()).
		SetHeader("X-Requested-With", "XMLHttpRequest").
		SetFormData(data).
		Post(c.BaseUrl.JoinPath(path).String())
}

// postAuthenticated runs postForm with the session's auth tokens merged
// into the form, surfacing failures on the span.
func (c *Client) postAuthenticated(ctx context.Context, spanName, path string, form map[string]string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, spanName)
	defer span.End()

	auth, err := c.AuthData(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	data := map[string]string{
		"_csrf":        auth.CsrfToken,
		"authorizedID": auth.AuthorizedID,
	}
	for k, v := range form {
		data[k] = v
	}

	res, err := c.postForm(ctx, path, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if res.IsError() {
		err := fmt.Errorf("%s returned %s", path, res.Status())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res.Body(), nil
}

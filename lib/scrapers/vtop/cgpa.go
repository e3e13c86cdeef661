package vtop

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Cgpa scrapes the dashboard credit summary: CGPA, credits registered,
// credits earned and so on, keyed by the portal's own labels.
func (c *Client) Cgpa(ctx context.Context) (map[string]string, error) {
	return cached(ctx, c, string(CategoryCgpa), c.fetchCgpa)
}

func (c *Client) fetchCgpa(ctx context.Context) (map[string]string, error) {
	body, err := c.postAuthenticated(ctx, "vtop.Cgpa", "/vtop/get/dashboard/current/cgpa/credits", nil)
	if err != nil {
		return nil, err
	}
	return parseCgpa(body)
}

func parseCgpa(body []byte) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	data := map[string]string{}
	doc.Find("li.list-group-item").Each(func(_ int, item *goquery.Selection) {
		label := strings.TrimSpace(item.Find("span.card-title").Text())
		value := strings.TrimSpace(item.Find("span.fontcolor3 span").Text())
		if label != "" && value != "" {
			data[label] = value
		}
	})
	return data, nil
}

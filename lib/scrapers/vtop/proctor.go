package vtop

import (
	"bytes"
	"context"
	"strings"
	"vtopassist-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Proctor scrapes the assigned faculty advisor's contact card as
// label/value pairs.
func (c *Client) Proctor(ctx context.Context) (map[string]string, error) {
	return cached(ctx, c, string(CategoryProctor), c.fetchProctor)
}

func (c *Client) fetchProctor(ctx context.Context) (map[string]string, error) {
	body, err := c.postAuthenticated(ctx, "vtop.Proctor", "/vtop/proctor/viewProctorDetails", map[string]string{
		"verifyMenu": "true",
	})
	if err != nil {
		return nil, err
	}
	return parseProctor(body)
}

func parseProctor(body []byte) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	details := map[string]string{}
	doc.Find("table.table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		label := htmlutil.FlattenText(cells.Eq(0).Text())
		value := htmlutil.FlattenText(cells.Eq(1).Text())
		// the photo row embeds an image, skip it
		if label == "" || value == "" || strings.Contains(label, "Image") {
			return
		}
		details[label] = value
	})
	return details, nil
}

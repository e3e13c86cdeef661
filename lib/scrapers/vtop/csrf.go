package vtop

import (
	"bytes"
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

var (
	csrfMetaRegex  = regexp.MustCompile(`name="_csrf"\s+content="([^"]+)"`)
	csrfInputRegex = regexp.MustCompile(`name="_csrf"\s+value="([^"]+)"`)

	// registration numbers look like 23BCE1234
	authorizedIDRegex = regexp.MustCompile(`\b\d{2}[A-Z]{3}\d{4}\b`)
)

// extractCsrfFast scans the raw markup for the csrf token without
// building a DOM. Pages here run to hundreds of kilobytes so this is
// worth it on the hot path.
func extractCsrfFast(html []byte) string {
	if m := csrfMetaRegex.FindSubmatch(html); m != nil {
		return string(m[1])
	}
	if m := csrfInputRegex.FindSubmatch(html); m != nil {
		return string(m[1])
	}
	return ""
}

// extractCsrfDocument is the slow fallback used during captcha retries,
// where a missed token costs a whole login attempt.
func extractCsrfDocument(html []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(html))
	if err != nil {
		return ""
	}
	if content, ok := doc.Find(`meta[name="_csrf"]`).Attr("content"); ok && content != "" {
		return content
	}
	if value, ok := doc.Find(`input[name="_csrf"]`).Attr("value"); ok {
		return value
	}
	return ""
}

func extractAuthorizedID(html []byte) string {
	return string(authorizedIDRegex.Find(html))
}

// Package content cleans article bodies before they are stored.
package content

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kennygrant/sanitize"
)

// allowedAttributes is the attribute allow-list for every kept tag.
var allowedAttributes = []string{"href", "title"}

// linkRel is set on every kept anchor.
const linkRel = "nofollow noopener noreferrer"

// Sanitizer strips markup outside an allow-list of tags.
type Sanitizer struct {
	allowedTags []string
}

// NewSanitizer returns a Sanitizer keeping only allowedTags.
func NewSanitizer(allowedTags []string) *Sanitizer {
	tags := make([]string, 0, len(allowedTags))
	for _, t := range allowedTags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			tags = append(tags, t)
		}
	}
	return &Sanitizer{allowedTags: tags}
}

// Sanitize returns raw with disallowed tags removed (their text is kept,
// except for script-like elements whose content is dropped), attributes
// limited to href and title, and anchors restricted to http, https, mailto
// or relative targets. Blank input yields "".
func (s *Sanitizer) Sanitize(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}

	cleaned, err := sanitize.HTMLAllowing(raw, s.allowedTags, allowedAttributes)
	if err != nil {
		return "", fmt.Errorf("sanitize html: %w", err)
	}

	if !strings.Contains(cleaned, "<a") {
		return strings.TrimSpace(cleaned), nil
	}

	return s.fixLinks(cleaned)
}

func (s *Sanitizer) fixLinks(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parse sanitized html: %w", err)
	}

	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || !safeHref(href) {
			a.RemoveAttr("href")
		}
		a.SetAttr("rel", linkRel)
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("render sanitized html: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func safeHref(href string) bool {
	href = strings.TrimSpace(href)
	if href == "" {
		return false
	}

	u, err := url.Parse(href)
	if err != nil {
		return false
	}

	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto":
		return true
	default:
		return false
	}
}

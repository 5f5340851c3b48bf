package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL standardizes a URL so the visited set and the store's unique
// constraint see one spelling per page. Lowercases scheme and host, strips
// default ports and fragments, and sorts query parameters.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" && strings.HasSuffix(u.Host, ":80") {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" && strings.HasSuffix(u.Host, ":443") {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""

	q := u.Query()
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// ResolveRef absolutizes href against base. Returns href unchanged when
// it is already absolute or base is unparsable.
func ResolveRef(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}

// ListingPageURL appends the page parameter for page n to a category URL.
func ListingPageURL(categoryURL string, n int) string {
	u, err := url.Parse(categoryURL)
	if err != nil {
		return fmt.Sprintf("%s?page=%d", categoryURL, n)
	}
	q := u.Query()
	q.Set("page", fmt.Sprintf("%d", n))
	u.RawQuery = q.Encode()
	return u.String()
}

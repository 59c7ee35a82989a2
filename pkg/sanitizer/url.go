package sanitizer

import (
	"net/url"
	"strings"
)

// SanitizeURL normalizes an image or media link. Scheme-less input is read
// as https; plain http is upgraded. Query parameters are kept except utm_*.
func SanitizeURL(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}

	lowered := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lowered, "https://"):
	case strings.HasPrefix(lowered, "http://"):
		s = "https://" + s[len("http://"):]
	case strings.Contains(lowered, "://"):
		return ""
	default:
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}

	u.Scheme = "https"
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		if strings.HasPrefix(strings.ToLower(k), "utm_") {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()

	return u.String()
}

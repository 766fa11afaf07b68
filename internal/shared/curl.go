// Utilities for extracting the music service login cookie from a copied cURL command.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// loginCookieKeys are the cookie names the music service needs to treat a request as logged in.
var loginCookieKeys = []string{"MUSIC_U", "__csrf", "NMTID"}

var (
	headerRegex = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	cookieRegex = regexp.MustCompile(`(?:-b|--cookie)\s+'([^']+)'|(?:-b|--cookie)\s+"([^"]+)"`)
)

// CurlRequest represents headers and cookies parsed from a browser "Copy as cURL" command.
type CurlRequest struct {
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a file containing a cURL command and parses it.
func ParseCurlFile(path string) (*CurlRequest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(content)
}

// ParseCurlCommand parses a cURL command string and extracts headers and the cookie.
//
// A -b/--cookie flag takes precedence over a Cookie header.
func ParseCurlCommand(data []byte) (*CurlRequest, error) {
	curlCmd := string(data)
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "^\r\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	headers := make(map[string]string)
	var headerCookie string

	for _, match := range headerRegex.FindAllStringSubmatch(curlCmd, -1) {
		headerLine := firstNonEmpty(match[1], match[2])

		key, value, ok := strings.Cut(headerLine, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if strings.EqualFold(key, "cookie") {
			if headerCookie == "" {
				headerCookie = value
			}
			continue
		}
		headers[key] = value
	}

	cookie := headerCookie
	if m := cookieRegex.FindStringSubmatch(curlCmd); len(m) > 2 {
		cookie = firstNonEmpty(m[1], m[2])
	}

	if len(headers) == 0 && cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}

	return &CurlRequest{Headers: headers, Cookie: cookie}, nil
}

// CookieValue looks up a single cookie by name.
func (c *CurlRequest) CookieValue(name string) (string, bool) {
	for _, part := range strings.Split(c.Cookie, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && k == name {
			return v, true
		}
	}
	return "", false
}

// LoginCookie returns a cookie string containing only the login-relevant pairs, in a stable order.
//
// Returns [ErrMissingCredentials] if the MUSIC_U session cookie is absent.
func (c *CurlRequest) LoginCookie() (string, error) {
	if _, ok := c.CookieValue("MUSIC_U"); !ok {
		return "", fmt.Errorf("%w: MUSIC_U cookie not present", ErrMissingCredentials)
	}

	var pairs []string
	for _, key := range loginCookieKeys {
		if v, ok := c.CookieValue(key); ok {
			pairs = append(pairs, key+"="+v)
		}
	}
	return strings.Join(pairs, "; "), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Utilities for parsing cURL commands copied from an IPTV panel's admin UI.
package shared

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
)

// PanelCurl represents the connection details extracted from a cURL command:
// the panel base URL plus whatever auth headers the panel expects.
type PanelCurl struct {
	BaseURL string
	Headers map[string]string
	Cookie  string
}

// ParsePanelCurlFile reads a .sh file containing a cURL command and extracts panel details.
func ParsePanelCurlFile(filepath string) (*PanelCurl, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParsePanelCurl(content)
}

var (
	curlURLRegex    = regexp.MustCompile(`curl\s+(?:-[A-Za-z-]+\s+\S+\s+)*'([^']+)'|curl\s+(?:-[A-Za-z-]+\s+\S+\s+)*"([^"]+)"`)
	curlHeaderRegex = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	curlCookieRegex = regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
)

// ParsePanelCurl parses a cURL command string and extracts the panel base URL and headers.
func ParsePanelCurl(data []byte) (*PanelCurl, error) {
	curlCmd := string(data)
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	headers := make(map[string]string)
	var cookie string

	matches := curlHeaderRegex.FindAllStringSubmatch(curlCmd, -1)
	for _, match := range matches {
		headerLine := match[1]
		if headerLine == "" {
			headerLine = match[2]
		}

		parts := strings.SplitN(headerLine, ":", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if strings.ToLower(key) == "cookie" {
			cookie = value
		} else {
			headers[key] = value
		}
	}

	if cookieMatches := curlCookieRegex.FindStringSubmatch(curlCmd); len(cookieMatches) > 1 {
		if cookieMatches[1] != "" {
			cookie = cookieMatches[1]
		} else {
			cookie = cookieMatches[2]
		}
	}

	baseURL := extractBaseURL(curlCmd)

	if baseURL == "" && len(headers) == 0 && cookie == "" {
		return nil, fmt.Errorf("no panel details found in curl command")
	}

	return &PanelCurl{
		BaseURL: baseURL,
		Headers: headers,
		Cookie:  cookie,
	}, nil
}

// extractBaseURL finds the request URL in the command and strips it to scheme://host[:port].
func extractBaseURL(curlCmd string) string {
	match := curlURLRegex.FindStringSubmatch(curlCmd)
	if match == nil {
		return ""
	}

	raw := match[1]
	if raw == "" {
		raw = match[2]
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}

	return u.Scheme + "://" + u.Host
}

// APIKey returns the panel API key if one of the common auth headers is present.
func (p *PanelCurl) APIKey() string {
	for _, name := range []string{"X-Api-Key", "x-api-key", "Authorization", "authorization"} {
		if v, ok := p.Headers[name]; ok {
			return strings.TrimPrefix(v, "Bearer ")
		}
	}
	return ""
}

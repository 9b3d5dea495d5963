package publisher

import (
	"fmt"
	"net/url"
	"strings"
)

// ExternalAPIURL derives the externally reachable API URL from the ingress
// base URL: scheme and host are kept, the path is the normalized API base
// path, and query/fragment are dropped.
func ExternalAPIURL(ingressURL, basePath string) (string, error) {
	u, err := url.Parse(ingressURL)
	if err != nil {
		return "", fmt.Errorf("invalid ingress URL: %w", err)
	}
	path := basePath
	if path == "" {
		path = "/"
	}
	out := url.URL{Scheme: u.Scheme, Host: u.Host, Path: path}
	return out.String(), nil
}

// ExternalUIURL derives the dashboard URL under the API base path
func ExternalUIURL(ingressURL, basePath string) (string, error) {
	u, err := url.Parse(ingressURL)
	if err != nil {
		return "", fmt.Errorf("invalid ingress URL: %w", err)
	}
	out := url.URL{
		Scheme: u.Scheme,
		Host:   u.Host,
		Path:   strings.TrimSuffix(basePath, "/") + "/ui/dashboard",
	}
	return out.String(), nil
}

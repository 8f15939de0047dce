// Package utils provides common utility functions.
package utils

import "net/http"

const defaultUserAgent = "threadrelay/1.0"

// BuildHeaders creates HTTP headers with defaults. An empty userAgent keeps
// the default one; customHeaders are added last and may repeat a key.
func BuildHeaders(userAgent string, customHeaders map[string]string) http.Header {
	headers := http.Header{}

	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	headers.Set("User-Agent", userAgent)
	headers.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")

	for key, value := range customHeaders {
		headers.Add(key, value)
	}

	return headers
}

// HeaderMap flattens headers to the first value per key, the shape resty's SetHeaders takes.
func HeaderMap(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for key, values := range headers {
		if len(values) > 0 {
			out[key] = values[0]
		}
	}

	return out
}

package myhttp

import (
	"fmt"
	"net/http"
	"os"
)

// HostnameWithScheme returns the externally visible base-url of this service, as seen by the caller
func HostnameWithScheme(r *http.Request) string {
	baseURL := os.Getenv("BASE_URL")
	if baseURL != "" {
		return baseURL
	}

	scheme := "https"
	if r.TLS == nil && r.Header.Get("X-Forwarded-Proto") != "https" {
		scheme = "http"
	}

	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

// GuessHostnameWithScheme is used outside of a request, for example to subscribe a push endpoint at startup
func GuessHostnameWithScheme() string {
	baseURL := os.Getenv("BASE_URL")
	if baseURL != "" {
		return baseURL
	}

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID != "" {
		return fmt.Sprintf("https://%s.appspot.com", projectID)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return fmt.Sprintf("http://localhost:%s", port)
}

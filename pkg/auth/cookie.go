package auth

import "net/url"

// CookieSettings contains cookie security settings derived from the base URL.
type CookieSettings struct {
	// Secure indicates whether the cookie should only be sent over HTTPS.
	Secure bool
	// Domain is the cookie domain scope. Empty isolates the cookie to the
	// serving hostname.
	Domain string
}

// DeriveCookieSettings determines cookie security settings from the base
// URL. Localhost deployments allow HTTP; everything else requires HTTPS and
// isolates the cookie to the exact hostname unless configDomain widens it
// (e.g. ".example.com" to share across subdomains).
func DeriveCookieSettings(baseURL string, configDomain string) CookieSettings {
	if configDomain != "" {
		return CookieSettings{
			Secure: isHTTPS(baseURL),
			Domain: configDomain,
		}
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil || baseURL == "" {
		// Safe defaults for invalid URLs
		return CookieSettings{Secure: true, Domain: ""}
	}

	hostname := parsedURL.Hostname()
	if hostname == "localhost" || hostname == "127.0.0.1" {
		return CookieSettings{Secure: false, Domain: ""}
	}

	return CookieSettings{
		Secure: parsedURL.Scheme != "http",
		Domain: "",
	}
}

// isHTTPS determines if the given base URL uses HTTPS. Empty or invalid
// URLs count as HTTPS (safe default).
func isHTTPS(baseURL string) bool {
	if baseURL == "" {
		return true
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return true
	}

	return parsedURL.Scheme != "http"
}

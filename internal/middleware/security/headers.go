// Package security sets the response headers of the JSON API.
package security

import (
	"fmt"
	"net/http"
)

type HeadersConfig struct {
	CSP string

	// HSTS is sent only on TLS requests.
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	CrossOriginResource string

	// CacheControl applies to every response; planner data is per user.
	CacheControl string
}

func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:                   "default-src 'none'; frame-ancestors 'none'",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "no-referrer",
		CrossOriginResource:   "same-origin",
		CacheControl:          "no-store",
	}
}

// Headers returns middleware applying config to every response.
func Headers(config HeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			applyHeaders(w.Header(), r, config)
			next.ServeHTTP(w, r)
		})
	}
}

func applyHeaders(h http.Header, r *http.Request, config HeadersConfig) {
	set := func(name, value string) {
		if value != "" {
			h.Set(name, value)
		}
	}
	set("Content-Security-Policy", config.CSP)
	set("X-Frame-Options", config.XFrameOptions)
	set("X-Content-Type-Options", config.XContentTypeOptions)
	set("Referrer-Policy", config.ReferrerPolicy)
	set("Cross-Origin-Resource-Policy", config.CrossOriginResource)
	set("Cache-Control", config.CacheControl)

	if r.TLS != nil && config.HSTSMaxAge > 0 {
		hsts := fmt.Sprintf("max-age=%d", config.HSTSMaxAge)
		if config.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		h.Set("Strict-Transport-Security", hsts)
	}
}

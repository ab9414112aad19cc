package middleware

import (
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
)

// CORS allows credentialed cross-origin calls from the origins listed in
// allowed and from any origin matching pattern. Other origins receive no
// CORS headers, and their preflight requests are refused with 403.
func CORS(allowed []string, pattern string) (func(http.Handler) http.Handler, error) {
	var re *regexp.Regexp
	if pattern != "" {
		var err error
		re, err = regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile origin pattern: %w", err)
		}
	}
	originAllowed := func(origin string) bool {
		if slices.Contains(allowed, origin) {
			return true
		}
		return re != nil && re.MatchString(origin)
	}

	c := cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return originAllowed(origin)
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           600,
	})

	return func(next http.Handler) http.Handler {
		h := c(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if r.Method == http.MethodOptions && origin != "" &&
				r.Header.Get("Access-Control-Request-Method") != "" && !originAllowed(origin) {
				http.Error(w, "origin not allowed", http.StatusForbidden)
				return
			}
			h.ServeHTTP(w, r)
		})
	}, nil
}

// AuthRateLimit limits each client IP to limit requests per window.
func AuthRateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"statusCode":429,"message":"ThrottlerException: Too Many Requests"}`))
		}),
	)
}

// SecurityHeaders sets the standard hardening headers on every response.
func SecurityHeaders() func(http.Handler) http.Handler {
	s := secure.New(secure.Options{
		FrameDeny:                 true,
		ContentTypeNosniff:        true,
		BrowserXssFilter:          true,
		ReferrerPolicy:            "no-referrer",
		ContentSecurityPolicy:     "default-src 'self'",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "same-site",
		IsDevelopment:             false,
	})
	return s.Handler
}

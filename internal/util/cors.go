package util

import "net/http"

// CORSPolicy lists the headers sent to cross-origin callers.
type CORSPolicy struct {
	AllowOrigin  string
	AllowHeaders string
	AllowMethods string
}

// PhraseAPICORS is the permissive policy used by the browser front-ends.
var PhraseAPICORS = CORSPolicy{
	AllowOrigin:  "*",
	AllowHeaders: "Content-Type,X-Amz-Date",
	AllowMethods: "OPTIONS,POST",
}

// WithCORS answers preflight requests with the policy headers, a 200 status
// and no body. Other requests only receive the allowed origin.
func WithCORS(policy CORSPolicy, next http.Handler) http.Handler {
	origin := policy.AllowOrigin
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		if r.Method == http.MethodOptions {
			if policy.AllowHeaders != "" {
				w.Header().Set("Access-Control-Allow-Headers", policy.AllowHeaders)
			}
			if policy.AllowMethods != "" {
				w.Header().Set("Access-Control-Allow-Methods", policy.AllowMethods)
			}
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

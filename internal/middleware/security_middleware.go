package middleware

import "net/http"

// SecurityHeaders adds response headers suited to a JSON API that is read by a
// map page served from another origin.
//
//   - X-Content-Type-Options: nosniff, so JSON is never sniffed as HTML.
//   - Cache-Control / Pragma: vehicle positions go stale within seconds, so
//     neither browsers nor proxies may keep them.
//   - Cross-Origin-Resource-Policy: cross-origin, which lets the map page
//     fetch the API while CORS decides which origins may read it.
//   - Content-Security-Policy: nothing may be loaded if a response is ever
//     opened directly in a browser.
//   - Referrer-Policy: no-referrer.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Cache-Control", "no-store, no-cache, must-revalidate")
		h.Set("Pragma", "no-cache")
		h.Set("Cross-Origin-Resource-Policy", "cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

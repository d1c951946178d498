// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package middleware

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/tomtom215/aquascape/internal/logging"
	"github.com/tomtom215/aquascape/internal/models"
)

var fallbackPanel = template.Must(template.New("fallback").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Aquascape</title></head>
<body>
<div role="alert" style="max-width:40rem;margin:4rem auto;padding:1.5rem;border:1px solid #e57373;border-radius:8px;font-family:sans-serif">
<h2>Something went wrong.</h2>
<pre style="white-space:pre-wrap">{{.}}</pre>
<p><a href="/">Reload the dashboard</a></p>
</div>
</body>
</html>
`))

// Recoverer turns a handler panic into a fallback panel carrying the panic
// text: HTML for browser navigations, the JSON error envelope otherwise.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			text := fmt.Sprint(rec)
			logging.Ctx(r.Context()).Error().
				Str("panic", text).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")

			// A hijacked websocket connection has no response to write.
			if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
				return
			}
			renderFallback(w, r, text)
		}()
		next.ServeHTTP(w, r)
	})
}

func renderFallback(w http.ResponseWriter, r *http.Request, text string) {
	if wantsHTML(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusInternalServerError)
		if err := fallbackPanel.Execute(w, text); err != nil {
			logging.Error().Err(err).Msg("failed to render fallback panel")
		}
		return
	}
	writeError(w, http.StatusInternalServerError, &models.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Something went wrong.",
		Details: map[string]interface{}{"error": text},
	})
}

func wantsHTML(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

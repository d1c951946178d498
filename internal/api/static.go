// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// staticHandler serves the dashboard build from dir. Paths that are not a
// file fall back to index.html so client-side routes survive a reload.
// Unknown /api/ paths get a JSON 404 instead.
func staticHandler(dir string) http.HandlerFunc {
	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		clean := path.Clean("/" + r.URL.Path)
		if clean == "/api" || strings.HasPrefix(clean, "/api/") {
			respondError(w, http.StatusNotFound, CodeNotFound, "Not found", nil)
			return
		}

		full := filepath.Join(dir, filepath.FromSlash(clean))
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			if strings.HasPrefix(clean, "/assets/") {
				w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
			}
			files.ServeHTTP(w, r)
			return
		}

		// ServeFile refuses paths with ".." and redirects */index.html.
		fallback := r.Clone(r.Context())
		fallback.URL.Path = "/"
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, fallback, index)
	}
}

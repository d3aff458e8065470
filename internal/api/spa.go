package api

import (
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// SPAHandler serves the embedded web page from assets/dist and routes
// /api/ requests to apiHandler. Unknown extensionless paths fall back to
// index.html; unknown assets are 404.
func SPAHandler(apiHandler http.Handler, assets fs.FS) http.Handler {
	distFS, err := fs.Sub(assets, "dist")
	if err != nil {
		return spaFallback(apiHandler)
	}
	if _, err := fs.Stat(distFS, "index.html"); err != nil {
		return spaFallback(apiHandler)
	}

	fileServer := http.FileServer(http.FS(distFS))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			apiHandler.ServeHTTP(w, r)
			return
		}

		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name == "" {
			name = "index.html"
		}
		if _, err := fs.Stat(distFS, name); err == nil {
			fileServer.ServeHTTP(w, r)
			return
		}
		if path.Ext(name) != "" {
			http.NotFound(w, r)
			return
		}

		r.URL.Path = "/"
		fileServer.ServeHTTP(w, r)
	})
}

// spaFallback serves the API and a plain-text notice for everything else.
func spaFallback(apiHandler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			apiHandler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Web UI not embedded in this build; the API is served under /api/.\n"))
	})
}

package http

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// PageHandler serves page assets from dir. Extensionless paths resolve to
// an .html file or a directory index, so "/login" serves login.html.
func PageHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clean := path.Clean("/" + r.URL.Path)
		if clean != "/" && path.Ext(clean) == "" {
			candidate := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(clean, "/")+".html"))
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				w.Header().Set("Cache-Control", "no-store")
				http.ServeFile(w, r, candidate)
				return
			}
		}
		files.ServeHTTP(w, r)
	})
}

package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// spaHandler serves the built web client. Unknown paths get index.html so
// client-side routes such as /login work on reload.
type spaHandler struct {
	dir string
}

func newSPAHandler(dir string) *spaHandler {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &spaHandler{dir: dir}
}

func (h *spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeMessage(w, http.StatusNotFound, "Not found")
		return
	}

	urlPath := r.URL.Path
	if urlPath == "/" {
		urlPath = "/index.html"
	}
	filePath := filepath.Join(h.dir, filepath.Clean("/"+urlPath))

	if info, err := os.Stat(filePath); err != nil || info.IsDir() {
		http.ServeFile(w, r, filepath.Join(h.dir, "index.html"))
		return
	}
	http.ServeFile(w, r, filePath)
}

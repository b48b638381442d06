package handler

import (
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// mimeTypes соответствие расширения файла и Content-Type
var mimeTypes = map[string]string{
	".html":        "text/html",
	".js":          "text/javascript",
	".css":         "text/css",
	".json":        "application/json",
	".png":         "image/png",
	".jpg":         "image/jpg",
	".gif":         "image/gif",
	".svg":         "image/svg+xml",
	".wav":         "audio/wav",
	".mp4":         "video/mp4",
	".woff":        "application/font-woff",
	".ttf":         "application/font-ttf",
	".eot":         "application/vnd.ms-fontobject",
	".otf":         "application/font-otf",
	".wasm":        "application/wasm",
	".webmanifest": "application/manifest+json",
	".ico":         "image/x-icon",
}

const notFoundPage = `<!DOCTYPE html>
<html>
<head>
  <title>404 - Not Found</title>
  <style>
    body { font-family: Arial, sans-serif; text-align: center; padding: 50px; }
    h1 { color: #e74c3c; }
    a { color: #3498db; text-decoration: none; }
  </style>
</head>
<body>
  <h1>404 - File Not Found</h1>
  <p>The requested file <code>%s</code> was not found.</p>
  <p><a href="/app.html">← Go to TaskFlow App</a></p>
</body>
</html>
`

const serverErrorPage = `<!DOCTYPE html>
<html>
<head>
  <title>500 - Server Error</title>
  <style>
    body { font-family: Arial, sans-serif; text-align: center; padding: 50px; }
    h1 { color: #e74c3c; }
  </style>
</head>
<body>
  <h1>500 - Internal Server Error</h1>
  <p>Error reading file.</p>
</body>
</html>
`

// StaticHandler отдает файлы фронтенда без кэширования
type StaticHandler struct {
	root        string
	landingPage string
	logger      *slog.Logger
}

// NewStaticHandler создает новый StaticHandler
func NewStaticHandler(root, landingPage string, logger *slog.Logger) *StaticHandler {
	return &StaticHandler{
		root:        root,
		landingPage: landingPage,
		logger:      logger,
	}
}

// ContentType возвращает MIME тип по расширению файла
func ContentType(name string) string {
	if t, ok := mimeTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return "application/octet-stream"
}

// ServeHTTP обрабатывает все маршруты, не занятые API
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	pathname := r.URL.Path
	if pathname == "/" {
		pathname = "/" + h.landingPage
	}

	// path.Clean от корня убирает все ".." за пределы root
	clean := path.Clean("/" + pathname)
	filePath := filepath.Join(h.root, filepath.FromSlash(clean))

	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, notFoundPage, html.EscapeString(pathname))
		return
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			h.logger.Error("Failed to read static file", "path", filePath, "error", err)
		}
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(serverErrorPage))
		return
	}

	w.Header().Set("Content-Type", ContentType(filePath))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ABOUTME: Static file handling for the development server
// ABOUTME: Sets wasm MIME type and no-cache, falls back to embedded loader assets
package server

import (
	"bytes"
	"embed"
	"html/template"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

//go:embed web
var webFS embed.FS

var indexTemplate = template.Must(template.ParseFS(webFS, "web/index.html"))

// fileHandler serves Dir. index.html, boot.js and wasm_exec.js are
// provided when Dir does not have its own copy.
func (s *Server) fileHandler() http.Handler {
	files := http.FileServer(http.Dir(s.config.Dir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)

		w.Header().Add("Cache-Control", "no-cache")
		if strings.HasSuffix(r.URL.Path, ".wasm") {
			w.Header().Set("Content-Type", "application/wasm")
		}

		name := path.Clean(r.URL.Path)
		if name == "/" {
			name = "/index.html"
		}

		if !s.existsInDir(name) {
			switch name {
			case "/index.html":
				s.serveIndex(w, r)
				return
			case "/boot.js":
				s.serveEmbedded(w, r, "boot.js")
				return
			case "/wasm_exec.js":
				if p := s.wasmExecPath(); p != "" {
					http.ServeFile(w, r, p)
					return
				}
			}
		}

		files.ServeHTTP(w, r)
	})
}

func (s *Server) existsInDir(name string) bool {
	info, err := os.Stat(filepath.Join(s.config.Dir, filepath.FromSlash(name)))
	return err == nil && !info.IsDir()
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	data := struct {
		Name       string
		Module     string
		LiveReload bool
	}{s.config.Name, s.config.Module, s.config.LiveReload}

	if err := indexTemplate.Execute(&buf, data); err != nil {
		log.Printf("Failed to render index: %v", err)
		http.Error(w, "failed to render index", http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, "index.html", s.startTime, bytes.NewReader(buf.Bytes()))
}

func (s *Server) serveEmbedded(w http.ResponseWriter, r *http.Request, name string) {
	data, err := webFS.ReadFile("web/" + name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, name, s.startTime, bytes.NewReader(data))
}

// wasmExecPath locates the Go toolchain's JavaScript support file
func (s *Server) wasmExecPath() string {
	root := s.config.GoRoot
	if root == "" {
		root = os.Getenv("GOROOT")
	}
	if root == "" {
		root = runtime.GOROOT()
	}
	if root == "" {
		return ""
	}

	for _, dir := range []string{"lib/wasm", "misc/wasm"} {
		p := filepath.Join(root, filepath.FromSlash(dir), "wasm_exec.js")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

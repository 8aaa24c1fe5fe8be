// Package site serves the landing page at /.
package site

import (
	"context"
	"embed"
	"errors"
	"net/http"
)

// ErrServe is reported when the embedded page cannot be read.
var ErrServe = errors.New("site serve failed")

//go:embed static/index.html
var staticFS embed.FS

// Register attaches the landing page to mux. Other unmatched paths are 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/", NewRootHandler().HandleRoot)
}

// RootHandler handles root path requests.
type RootHandler struct{}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, ErrServe.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

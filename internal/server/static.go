package server

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*
var staticFS embed.FS

// staticHandler serves the embedded dashboard page.
func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return http.FileServer(http.FS(staticFS))
	}
	return http.FileServer(http.FS(sub))
}

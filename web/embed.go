package web

import (
	"embed"
	"io/fs"
)

//go:embed static/*
var content embed.FS

// StaticFS returns the built-in frontend, served when server.static_dir
// does not exist
func StaticFS() fs.FS {
	staticFS, _ := fs.Sub(content, "static")
	return staticFS
}

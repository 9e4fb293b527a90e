// Package assets embeds the stylesheet, logo and map bootstrap script.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed static/*
var files embed.FS

// Static returns the embedded files rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

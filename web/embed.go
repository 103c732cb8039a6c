// Package web embeds the control panel page and its static assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/index.html
var templates embed.FS

//go:embed css/panel.css js/panel.js
var assets embed.FS

// Templates returns the page templates rooted at templates/.
func Templates() fs.FS {
	return mustSub(templates, "templates")
}

// Assets holds css/ and js/, served under /static/.
func Assets() fs.FS {
	return assets
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

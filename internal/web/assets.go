// Package web embeds the local control page.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var embeddedFS embed.FS

// StaticFS returns the page assets rooted at static/.
func StaticFS() (fs.FS, error) {
	return fs.Sub(embeddedFS, "static")
}

// Package assets embeds the scene pools shipped with the binary.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed scenes/*.json
var scenesFS embed.FS

// Scenes returns the embedded pools rooted so each tier file sits at the top level.
func Scenes() fs.FS {
	sub, err := fs.Sub(scenesFS, "scenes")
	if err != nil {
		panic(err)
	}
	return sub
}

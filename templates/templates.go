// Package templates holds the standard template library bundled with wren.
// It is compiled into the binary via //go:embed and is selected with the
// directory name "standard".
package templates

import (
	"embed"
	"io/fs"
)

//go:embed standard
var files embed.FS

// Standard returns the bundled library rooted at its top directory.
func Standard() fs.FS {
	sub, err := fs.Sub(files, "standard")
	if err != nil {
		panic(err)
	}
	return sub
}

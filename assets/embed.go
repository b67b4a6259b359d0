// Package assets holds images compiled into the binary.
package assets

import _ "embed"

// PlaceholderPNG is shown in the preview before the first pick.
//
//go:embed placeholder.png
var PlaceholderPNG []byte

package theme

import "embed"

// EmbeddedThemes carries the themes shipped inside the binary.
//
//go:embed defaults/*.theme
var EmbeddedThemes embed.FS

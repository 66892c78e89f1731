package theme

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Loader finds theme files by name.
type Loader struct {
	ConfigDir string
	SystemDir string
	// Inline holds themes defined in the config file; they win over files.
	Inline map[string]*Theme
}

// NewLoader returns a loader over the user and system theme directories.
func NewLoader() *Loader {
	home, _ := os.UserHomeDir()
	return &Loader{
		ConfigDir: filepath.Join(home, ".config", "markshot", "themes"),
		SystemDir: "/usr/share/markshot/themes",
	}
}

// Load resolves name, in order, as a config-defined theme, a file path, an
// embedded theme, a file in ConfigDir and a file in SystemDir. An empty name
// is the Default theme.
func (l *Loader) Load(name string) (*Theme, error) {
	if name == "" {
		return Default(), nil
	}
	if t, ok := l.Inline[name]; ok {
		return t, nil
	}
	if _, err := os.Stat(name); err == nil {
		return parseFile(os.DirFS(filepath.Dir(name)), filepath.Base(name))
	}
	file := name
	if !strings.HasSuffix(file, ".theme") {
		file += ".theme"
	}
	sources := []fs.FS{mustSub(EmbeddedThemes, "defaults")}
	for _, dir := range []string{l.ConfigDir, l.SystemDir} {
		if dir != "" {
			sources = append(sources, os.DirFS(dir))
		}
	}
	for _, src := range sources {
		if _, err := fs.Stat(src, file); err == nil {
			return parseFile(src, file)
		}
	}
	return nil, fmt.Errorf("theme %q not found", name)
}

// Names lists the embedded themes.
func Names() []string {
	entries, _ := fs.ReadDir(EmbeddedThemes, "defaults")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".theme"))
	}
	return names
}

func parseFile(fsys fs.FS, name string) (*Theme, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("theme %s: %w", name, err)
	}
	return t, nil
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/theme"
)

// Parse reads configuration from r on top of the defaults. Unknown keys and
// sections are ignored.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var section string
	var current *theme.Theme
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			current = nil
			if name, ok := strings.CutPrefix(section, "theme."); ok {
				current = theme.Default()
				current.Name = name
				cfg.Themes[name] = current
			}
			continue
		}

		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}

		var err error
		switch {
		case current != nil:
			err = current.Set(key, value)
		case section == "":
			setRootField(cfg, key, value)
		case section == "editor":
			err = setEditorField(&cfg.Editor, key, value)
		case section == "export":
			err = setExportField(&cfg.Export, key, value)
		case section == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		}
		if err != nil {
			name := section
			if name == "" {
				name = "root"
			}
			return nil, fmt.Errorf("line %d [%s]: %w", lineNo, name, err)
		}
	}
	return cfg, scanner.Err()
}

// splitKeyValue accepts "key = value" and "key: value".
func splitKeyValue(line string) (string, string, bool) {
	i := strings.IndexAny(line, "=:")
	if i < 0 {
		return "", "", false
	}
	key := strings.TrimSpace(line[:i])
	value := strings.TrimSpace(line[i+1:])
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = value[1 : len(value)-1]
	}
	return key, value, true
}

func setRootField(cfg *Config, key, value string) {
	switch strings.ToLower(key) {
	case "theme":
		cfg.Theme = value
	case "save_dir":
		cfg.SaveDir = value
	}
}

func setEditorField(e *Editor, key, value string) error {
	var err error
	switch strings.ToLower(key) {
	case "stroke":
		e.Stroke, err = geom.ParseColour(value)
	case "fill":
		e.Fill, err = geom.ParseColour(value)
	case "secondary":
		e.Secondary, err = geom.ParseColour(value)
	case "width":
		e.Width, err = positiveFloat(value)
	case "blur_radius":
		e.BlurRadius, err = nonNegativeInt(value)
	case "blur_passes":
		e.BlurPasses, err = nonNegativeInt(value)
	case "pixelate_block":
		e.PixelateBlock, err = nonNegativeInt(value)
	case "hit_tolerance":
		e.HitTolerance, err = nonNegativeFloat(value)
	case "epsilon":
		e.Epsilon, err = nonNegativeFloat(value)
	case "bubble_radius":
		e.BubbleRadius, err = positiveFloat(value)
	case "text_size":
		e.TextSize, err = positiveFloat(value)
	case "freehand_opacity":
		e.FreehandOpacity, err = nonNegativeFloat(value)
		if err == nil && e.FreehandOpacity > 1 {
			err = fmt.Errorf("out of range 0..1")
		}
	case "workers":
		e.Workers, err = nonNegativeInt(value)
	case "window_decorations":
		e.WindowDecorations, err = strconv.ParseBool(value)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func setExportField(x *Export, key, value string) error {
	switch strings.ToLower(key) {
	case "format":
		x.Format = strings.ToLower(strings.TrimPrefix(value, "."))
	case "shadow":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for key %s: %w", key, err)
		}
		x.Shadow = b
	case "archive_dir":
		x.ArchiveDir = value
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch strings.ToLower(key) {
	case "capture":
		n.Capture = b
	case "save":
		n.Save = b
	case "copy":
		n.Copy = b
	case "archive":
		n.Archive = b
	}
	return nil
}

func positiveFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("must be positive, got %g", v)
	}
	return v, nil
}

func nonNegativeFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("must not be negative, got %g", v)
	}
	return v, nil
}

func nonNegativeInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("must not be negative, got %d", v)
	}
	return v, nil
}

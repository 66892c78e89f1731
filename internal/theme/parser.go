package theme

import (
	"bufio"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/example/markshot/internal/geom"
)

var colourType = reflect.TypeOf(geom.Colour{})

// Parse reads a theme file of "Key: colour" lines on top of Default. Unknown
// keys are ignored.
func Parse(r io.Reader) (*Theme, error) {
	t := Default()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if err := t.Set(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return nil, err
		}
	}
	return t, scanner.Err()
}

// Set assigns one field by case-insensitive name. Unknown keys are ignored.
func (t *Theme) Set(key, value string) error {
	if strings.EqualFold(key, "Name") {
		t.Name = value
		return nil
	}
	field := fieldByName(reflect.ValueOf(t).Elem(), key)
	if !field.IsValid() || field.Type() != colourType {
		return nil
	}
	c, err := geom.ParseColour(value)
	if err != nil {
		return fmt.Errorf("invalid colour for key %s: %w", key, err)
	}
	field.Set(reflect.ValueOf(c))
	return nil
}

// Fields calls fn for every colour field in declaration order.
func (t *Theme) Fields(fn func(name string, c geom.Colour)) {
	val := reflect.ValueOf(t).Elem()
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		if typ.Field(i).Type == colourType {
			fn(typ.Field(i).Name, val.Field(i).Interface().(geom.Colour))
		}
	}
}

func fieldByName(val reflect.Value, key string) reflect.Value {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		if strings.EqualFold(typ.Field(i).Name, key) {
			return val.Field(i)
		}
	}
	return reflect.Value{}
}

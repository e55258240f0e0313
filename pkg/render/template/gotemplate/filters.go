package gotemplate

import (
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

var builtinFilters sync.Once

// registerBuiltinFilters installs the filters the bundled templates use:
// trim, and classes which turns a list of class names into one attribute
// value.
func registerBuiltinFilters() {
	for name, fn := range map[string]pongo2.FilterFunction{
		"trim":    filterTrim,
		"classes": filterClasses,
	} {
		if !pongo2.FilterExists(name) {
			_ = pongo2.RegisterFilter(name, fn)
		}
	}
}

func filterTrim(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.IsNil() {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}

func filterClasses(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.IsString() || !in.CanSlice() {
		return pongo2.AsValue(strings.Join(strings.Fields(in.String()), " ")), nil
	}
	var parts []string
	for i := 0; i < in.Len(); i++ {
		parts = append(parts, strings.Fields(in.Index(i).String())...)
	}
	return pongo2.AsValue(strings.Join(parts, " ")), nil
}

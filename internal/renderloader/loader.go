// Package renderloader loads user renderer modules: single Go source
// files interpreted at runtime, so a site's render logic can change
// without recompiling the host binary. The module exports one function
// taking the page boundary map and returning the rendered output.
package renderloader

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/render"
)

// DefaultExport is the function name looked up when none is configured.
const DefaultExport = "Render"

// MissingSourceError reports that the configured renderer module does
// not exist on disk.
type MissingSourceError struct{ Module string }

func (e *MissingSourceError) Error() string { return "renderer module not found: " + e.Module }

var (
	errType = reflect.TypeOf((*error)(nil)).Elem()
	mapType = reflect.TypeOf(map[string]any{})
)

// Load interprets the module at path and adapts its exported function to
// the render.Func contract. The module uses package main; the export
// must take a single map[string]any argument and return a value or
// (value, error).
func Load(path, export string) (render.Func, error) {
	if export == "" {
		export = DefaultExport
	}
	code, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MissingSourceError{Module: path}
		}
		return nil, fmt.Errorf("read renderer module %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(code))) == 0 {
		return nil, fmt.Errorf("renderer module %s is empty", path)
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("prepare interpreter: %w", err)
	}
	if _, err := i.EvalPath(path); err != nil {
		return nil, fmt.Errorf("interpret renderer module %s: %w", path, err)
	}
	fn, err := i.Eval(export)
	if err != nil {
		return nil, fmt.Errorf("renderer module %s defines no %s: %w", path, export, render.ErrInvalidRenderer)
	}
	return adapt(fn, export)
}

// adapt validates the exported value's shape and wraps it as a render.Func.
func adapt(fn reflect.Value, export string) (render.Func, error) {
	if !fn.IsValid() {
		return nil, fmt.Errorf("%w: %s is missing", render.ErrInvalidRenderer, export)
	}
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %s is not a function", render.ErrInvalidRenderer, export)
	}
	t := fn.Type()
	if t.NumIn() != 1 || t.IsVariadic() {
		return nil, fmt.Errorf("%w: %s must take exactly one argument", render.ErrInvalidRenderer, export)
	}
	if !mapType.AssignableTo(t.In(0)) {
		return nil, fmt.Errorf("%w: %s must accept map[string]any", render.ErrInvalidRenderer, export)
	}
	if t.NumOut() < 1 || t.NumOut() > 2 {
		return nil, fmt.Errorf("%w: %s must return a value or (value, error)", render.ErrInvalidRenderer, export)
	}
	if t.NumOut() == 2 && !t.Out(1).Implements(errType) {
		return nil, fmt.Errorf("%w: %s second return value must be an error", render.ErrInvalidRenderer, export)
	}

	return func(_ context.Context, page *render.Page) (any, error) {
		results := fn.Call([]reflect.Value{reflect.ValueOf(page.BoundaryMap())})
		if len(results) == 2 && !results[1].IsNil() {
			if e, ok := results[1].Interface().(error); ok {
				return nil, e
			}
			return nil, fmt.Errorf("%s returned a non-error second value", export)
		}
		out := results[0]
		if !out.IsValid() {
			return nil, nil
		}
		return out.Interface(), nil
	}, nil
}

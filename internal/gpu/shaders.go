//go:build !nogpu

package gpu

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// Embedded WGSL shader sources.

//go:embed shaders/line.wgsl
var lineShaderSource string

//go:embed shaders/line_textured.wgsl
var texturedShaderSource string

// Entry point names shared by both line shaders.
const (
	vertexEntryPoint   = "vs_main"
	fragmentEntryPoint = "fs_main"
)

// ErrShaderInvalid is returned when an embedded shader fails validation.
var ErrShaderInvalid = errors.New("gpu: invalid shader")

// checkShader parses, lowers and validates src, and reports whether it
// defines both line entry points. It runs before a shader module is handed
// to the driver so that errors carry WGSL diagnostics instead of backend
// codes.
func checkShader(label, src string) error {
	if src == "" {
		return fmt.Errorf("%w: %s: empty source", ErrShaderInvalid, label)
	}
	ast, err := naga.Parse(src)
	if err != nil {
		return fmt.Errorf("%w: %s: parse: %w", ErrShaderInvalid, label, err)
	}
	module, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return fmt.Errorf("%w: %s: lower: %w", ErrShaderInvalid, label, err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return fmt.Errorf("%w: %s: validate: %w", ErrShaderInvalid, label, err)
	}
	if len(verrs) > 0 {
		return fmt.Errorf("%w: %s: %s", ErrShaderInvalid, label, verrs[0].Error())
	}

	var hasVertex, hasFragment bool
	for _, ep := range module.EntryPoints {
		switch {
		case ep.Name == vertexEntryPoint && ep.Stage == ir.StageVertex:
			hasVertex = true
		case ep.Name == fragmentEntryPoint && ep.Stage == ir.StageFragment:
			hasFragment = true
		}
	}
	if !hasVertex || !hasFragment {
		return fmt.Errorf("%w: %s: missing %s or %s", ErrShaderInvalid, label, vertexEntryPoint, fragmentEntryPoint)
	}
	return nil
}

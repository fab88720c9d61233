package ggline

import "github.com/gogpu/ggline/render"

// ContextOption configures a Context during creation.
//
// Example:
//
//	ctx := ggline.NewContext(dev,
//	    ggline.WithView(view),
//	    ggline.WithClearColor(ggline.White))
type ContextOption func(*contextOptions)

// contextOptions holds optional configuration for Context creation.
type contextOptions struct {
	view       *View
	clearColor RGBA
}

func defaultContextOptions() contextOptions {
	return contextOptions{clearColor: Transparent}
}

// WithView sets the initial view. Without it the context uses WindowView
// of the device size.
func WithView(v View) ContextOption {
	return func(o *contextOptions) {
		o.view = &v
	}
}

// WithClearColor sets the color used by Context.Clear.
func WithClearColor(c RGBA) ContextOption {
	return func(o *contextOptions) {
		o.clearColor = c
	}
}

// EngineOption configures an Engine during creation.
type EngineOption func(*engineOptions)

type engineOptions struct {
	textureMaxSize   int
	defaultLineWidth float64
	defaultPointSize float64
}

func defaultEngineOptions() engineOptions {
	return engineOptions{
		textureMaxSize:   render.DefaultTextureMaxSize,
		defaultLineWidth: 1,
		defaultPointSize: 1,
	}
}

// WithTextureMaxSize sets the largest texture edge in pixels; larger
// images are scaled down before upload. Non-positive values are ignored.
func WithTextureMaxSize(n int) EngineOption {
	return func(o *engineOptions) {
		if n > 0 {
			o.textureMaxSize = n
		}
	}
}

// WithDefaultLineWidth sets the pixel width of line primitives whose
// LineWidth is zero. Non-positive values are ignored.
func WithDefaultLineWidth(px float64) EngineOption {
	return func(o *engineOptions) {
		if px > 0 {
			o.defaultLineWidth = px
		}
	}
}

// WithDefaultPointSize sets the pixel size of point primitives whose
// PointSize is zero. Non-positive values are ignored.
func WithDefaultPointSize(px float64) EngineOption {
	return func(o *engineOptions) {
		if px > 0 {
			o.defaultPointSize = px
		}
	}
}

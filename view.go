package ggline

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Viewport is a rectangle of the framebuffer in window pixels, origin at
// the bottom-left corner.
type Viewport struct {
	X, Y          int
	Width, Height int
}

// View holds the transforms that take model coordinates to window pixels.
// Projection follows OpenGL conventions (clip z in [-1, 1]); window depth
// is mapped to [0, 1].
type View struct {
	ModelView  mgl64.Mat4
	Projection mgl64.Mat4
	Viewport   Viewport
}

// WindowView returns a view under which model coordinates are window
// coordinates of a width x height framebuffer: Project maps (x, y, z) to
// itself for z in [0, 1].
func WindowView(width, height int) View {
	return View{
		ModelView:  mgl64.Ident4(),
		Projection: windowProjection(width, height),
		Viewport:   Viewport{Width: width, Height: height},
	}
}

// windowProjection maps window pixels and depth in [0, 1] to clip space.
func windowProjection(width, height int) mgl64.Mat4 {
	return mgl64.Ortho(0, float64(width), 0, float64(height), 0, -1)
}

// Project maps a model point to window coordinates with depth in [0, 1].
func (v View) Project(p mgl64.Vec3) mgl64.Vec3 {
	vp := v.Viewport
	return mgl64.Project(p, v.ModelView, v.Projection, vp.X, vp.Y, vp.Width, vp.Height)
}

// Unproject maps window coordinates back to model space. It fails when
// the combined transform is singular.
func (v View) Unproject(win mgl64.Vec3) (mgl64.Vec3, error) {
	vp := v.Viewport
	return mgl64.UnProject(win, v.ModelView, v.Projection, vp.X, vp.Y, vp.Width, vp.Height)
}

func (v View) valid() bool {
	return v.Viewport.Width > 0 && v.Viewport.Height > 0
}

// clipTransform returns the matrix taking model coordinates to clip space
// of a whole fbWidth x fbHeight framebuffer, so that NDC inside the view's
// projection lands in the view's viewport rectangle.
func (v View) clipTransform(fbWidth, fbHeight int) mgl64.Mat4 {
	vp := v.Viewport
	sx := float64(vp.Width) / float64(fbWidth)
	sy := float64(vp.Height) / float64(fbHeight)
	tx := float64(2*vp.X+vp.Width)/float64(fbWidth) - 1
	ty := float64(2*vp.Y+vp.Height)/float64(fbHeight) - 1

	adjust := mgl64.Translate3D(tx, ty, 0).Mul4(mgl64.Scale3D(sx, sy, 1))
	return adjust.Mul4(v.Projection).Mul4(v.ModelView)
}

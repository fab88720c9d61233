// Command linedemo draws thick polylines, points and a model-space mesh
// with the ggline software device, picks the object under a pixel and
// writes the framebuffer to a PNG file.
package main

import (
	"flag"
	"image/png"
	"log"
	"log/slog"
	"math"
	"os"

	"github.com/gogpu/ggline"
	"github.com/gogpu/ggline/render"
)

func main() {
	var (
		width   = flag.Int("width", 800, "image width")
		height  = flag.Int("height", 600, "image height")
		output  = flag.String("output", "lines.png", "output file")
		pickX   = flag.Int("pick-x", 400, "x of the pixel to pick (origin bottom-left)")
		pickY   = flag.Int("pick-y", 300, "y of the pixel to pick (origin bottom-left)")
		verbose = flag.Bool("v", false, "log engine diagnostics")
	)
	flag.Parse()

	if *verbose {
		ggline.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	dev, err := render.NewSoftwareDevice(*width, *height)
	if err != nil {
		log.Fatalf("Failed to create device: %v", err)
	}
	ctx := ggline.NewContext(dev, ggline.WithClearColor(ggline.RGB(0.08, 0.09, 0.12)))
	defer ctx.Close()
	if err := ctx.Clear(); err != nil {
		log.Fatalf("Failed to clear: %v", err)
	}

	engine := ggline.NewEngine(ggline.WithDefaultPointSize(6))
	defer engine.Close()

	var selection ggline.Selection[string]
	objects := []struct {
		name string
		prim *ggline.Primitive
	}{
		{"spiral", spiral(*width, *height)},
		{"hexagon", hexagon(*width, *height)},
		{"stars", stars(*width, *height)},
		{"quad", quad(*width, *height)},
	}
	for _, o := range objects {
		if o.prim == nil {
			continue
		}
		id := selection.Add(o.name)
		o.prim.Groups = make([]int32, o.prim.VertexCount())
		for i := range o.prim.Groups {
			o.prim.Groups[i] = id
		}
		if err := engine.Draw(ctx, o.prim); err != nil {
			log.Fatalf("Failed to draw %s: %v", o.name, err)
		}
	}

	// Picking redraws every object in pick colors; the framebuffer is
	// restored by drawing the scene again afterwards.
	for _, o := range objects {
		if o.prim == nil {
			continue
		}
		res, err := engine.DrawWithSelection(ctx, o.prim, *pickX, *pickY)
		if err != nil {
			log.Fatalf("Failed to pick %s: %v", o.name, err)
		}
		selection.Offer(res)
	}
	if name, res, ok := selection.Best(); ok {
		log.Printf("Pixel (%d, %d) hits %s at depth %.3f", *pickX, *pickY, name, res.Depth)
	} else {
		log.Printf("Pixel (%d, %d) hits nothing", *pickX, *pickY)
	}

	if err := ctx.Clear(); err != nil {
		log.Fatalf("Failed to clear: %v", err)
	}
	for _, o := range objects {
		if o.prim == nil {
			continue
		}
		if err := engine.Draw(ctx, o.prim); err != nil {
			log.Fatalf("Failed to draw %s: %v", o.name, err)
		}
	}

	if err := savePNG(*output, dev); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Demo saved to %s (%dx%d)\n", *output, *width, *height)
}

// spiral is a rainbow strip tessellated to a constant 8 pixel width.
func spiral(w, h int) *ggline.Primitive {
	const turns, steps = 3, 240
	cx, cy := float64(w)*0.3, float64(h)*0.5
	r := math.Min(float64(w), float64(h)) * 0.25

	points := make([]float32, 0, steps*3)
	colors := make(ggline.FloatColors, 0, steps*4)
	for i := 0; i < steps; i++ {
		t := float64(i) / steps
		a := t * turns * 2 * math.Pi
		points = append(points, float32(cx+r*t*math.Cos(a)), float32(cy+r*t*math.Sin(a)), 0.5)
		c := ggline.HSL(t*360, 0.8, 0.6)
		colors = append(colors, float32(c.R), float32(c.G), float32(c.B), 1)
	}
	p, err := ggline.Tessellate(ggline.LineRequest{
		Points:    points,
		Topology:  ggline.LineStrip,
		Coloring:  colors,
		Thickness: ggline.Pixels(8),
	}, nil)
	if err != nil {
		log.Printf("spiral: %v", err)
		return nil
	}
	return p
}

// hexagon is a loop drawn with the engine's own line expansion.
func hexagon(w, h int) *ggline.Primitive {
	cx, cy := float64(w)*0.72, float64(h)*0.7
	r := math.Min(float64(w), float64(h)) * 0.15
	points := make([]float32, 0, 18)
	for i := range 6 {
		a := float64(i) * math.Pi / 3
		points = append(points, float32(cx+r*math.Cos(a)), float32(cy+r*math.Sin(a)), 0.4)
	}
	p := ggline.NewPrimitive(ggline.LineLoop, points, ggline.SolidColor{Color: ggline.Hex("#f5a623")})
	p.LineWidth = 5
	p.MiterLimit = 4
	return p
}

func stars(w, h int) *ggline.Primitive {
	const n = 40
	points := make([]float32, 0, n*3)
	colors := make(ggline.FloatColors, 0, n*4)
	for i := range n {
		// Deterministic scatter in the lower right.
		x := float64(w) * (0.55 + 0.4*math.Mod(float64(i)*0.618034, 1))
		y := float64(h) * (0.05 + 0.35*math.Mod(float64(i)*0.414214, 1))
		points = append(points, float32(x), float32(y), 0.3)
		c := ggline.White.Lerp(ggline.Cyan, float64(i)/(n-1))
		colors = append(colors, float32(c.R), float32(c.G), float32(c.B), float32(c.A))
	}
	return ggline.NewPrimitive(ggline.Points, points, colors)
}

// quad is a translucent window-space square blended over the scene.
func quad(w, h int) *ggline.Primitive {
	s := math.Min(float64(w), float64(h)) * 0.1
	cx, cy := float64(w)*0.5, float64(h)*0.25
	x0, y0, x1, y1 := float32(cx-s), float32(cy-s), float32(cx+s), float32(cy+s)
	p := ggline.NewPrimitive(ggline.TriangleFan, []float32{
		x0, y0, 0.2,
		x1, y0, 0.2,
		x1, y1, 0.2,
		x0, y1, 0.2,
	}, ggline.ByteColors{
		40, 90, 200, 160,
		40, 200, 120, 160,
		200, 60, 90, 160,
		220, 220, 60, 160,
	})
	p.Space = ggline.SpaceWindow
	return p
}

func savePNG(path string, dev *render.SoftwareDevice) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, dev.Image()); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

package ggline

import (
	"math"
	"testing"
)

func TestHex(t *testing.T) {
	tests := []struct {
		in   string
		want RGBA
	}{
		{"#f00", Red},
		{"0f0", Green},
		{"#0000ff", Blue},
		{"ff000080", RGBA{R: 1, A: 128.0 / 255}},
		{"#fff8", RGBA{R: 1, G: 1, B: 1, A: 136.0 / 255}},
		{"nope!", Black},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Hex(tt.in); got != tt.want {
				t.Errorf("Hex(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRGBA_bytes(t *testing.T) {
	tests := []struct {
		c    RGBA
		want [4]uint8
	}{
		{White, [4]uint8{255, 255, 255, 255}},
		{Transparent, [4]uint8{}},
		{RGBA{R: 0.5, G: -1, B: 2, A: 1}, [4]uint8{128, 0, 255, 255}},
	}
	for _, tt := range tests {
		if got := tt.c.bytes(); got != tt.want {
			t.Errorf("%v.bytes() = %v, want %v", tt.c, got, tt.want)
		}
	}
}

func TestRGBA_Lerp(t *testing.T) {
	tests := []struct {
		a, b RGBA
		t    float64
		want RGBA
	}{
		{Black, White, 0.25, RGBA{R: 0.25, G: 0.25, B: 0.25, A: 1}},
		{Red, Blue, 0, Red},
		{Red, Blue, 1, Blue},
		{Transparent, White, 0.5, RGBA{R: 0.5, G: 0.5, B: 0.5, A: 0.5}},
	}
	for _, tt := range tests {
		if got := tt.a.Lerp(tt.b, tt.t); got != tt.want {
			t.Errorf("%v.Lerp(%v, %v) = %v, want %v", tt.a, tt.b, tt.t, got, tt.want)
		}
	}
}

func TestHSL(t *testing.T) {
	tests := []struct {
		h    float64
		want RGBA
	}{
		{0, Red},
		{120, Green},
		{240, Blue},
		{-120, Blue},
	}
	for _, tt := range tests {
		got := HSL(tt.h, 1, 0.5)
		if math.Abs(got.R-tt.want.R) > 1e-9 || math.Abs(got.G-tt.want.G) > 1e-9 || math.Abs(got.B-tt.want.B) > 1e-9 {
			t.Errorf("HSL(%v, 1, 0.5) = %v, want %v", tt.h, got, tt.want)
		}
	}
}

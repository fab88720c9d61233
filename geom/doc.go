// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package geom provides the small set of vector helpers used by the line
// tessellator: normalization that tolerates zero-length input, 2D cross
// products, signed triangle area, line intersection and squared distance.
//
// All functions are pure and operate on mgl64 vector values. Window-space
// conventions are used throughout: x grows to the right and y grows up, so
// a counter-clockwise triangle has positive signed area.
package geom

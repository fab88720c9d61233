// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// Buffer errors.
var (
	// ErrSizeMismatch is returned by Buffer.Write when the new data does not
	// have the buffer's size. The owner rebuilds the buffer instead.
	ErrSizeMismatch = errors.New("render: buffer size mismatch")

	// ErrBufferDestroyed is returned for operations on a destroyed buffer.
	ErrBufferDestroyed = errors.New("render: buffer destroyed")

	// ErrNilDevice is returned when a buffer is created without a device.
	ErrNilDevice = errors.New("render: nil device")

	// ErrEmptyBuffer is returned when a buffer is created without data.
	ErrEmptyBuffer = errors.New("render: empty buffer data")
)

// Buffer is one block of device memory holding a single vertex attribute.
//
// A Buffer belongs to exactly one owner and is not safe for concurrent use.
// After Destroy every operation except Destroy returns ErrBufferDestroyed.
type Buffer struct {
	dev    Device
	id     BufferID
	kind   BufferKind
	format gputypes.VertexFormat
	usage  Usage
	size   int
	valid  bool
}

// NewBuffer allocates a device buffer and uploads desc.Data.
func NewBuffer(dev Device, desc *BufferDescriptor) (*Buffer, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	if desc == nil || len(desc.Data) == 0 {
		return nil, ErrEmptyBuffer
	}
	if es := ElementSize(desc.Format); es == 0 || len(desc.Data)%es != 0 {
		return nil, fmt.Errorf("render: buffer %q: %d bytes is not a whole number of %v elements",
			desc.Label, len(desc.Data), desc.Format)
	}

	id, err := dev.CreateBuffer(desc)
	if err != nil {
		return nil, fmt.Errorf("render: create buffer %q: %w", desc.Label, err)
	}
	return &Buffer{
		dev:    dev,
		id:     id,
		kind:   desc.Kind,
		format: desc.Format,
		usage:  desc.Usage,
		size:   len(desc.Data),
		valid:  true,
	}, nil
}

// ID returns the device handle, or InvalidID after Destroy.
func (b *Buffer) ID() BufferID {
	if b == nil || !b.valid {
		return InvalidID
	}
	return b.id
}

// Kind returns the attribute stored in the buffer.
func (b *Buffer) Kind() BufferKind { return b.kind }

// Format returns the element format.
func (b *Buffer) Format() gputypes.VertexFormat { return b.format }

// Usage returns the usage class the buffer was created with.
func (b *Buffer) Usage() Usage { return b.usage }

// Size returns the buffer size in bytes.
func (b *Buffer) Size() int { return b.size }

// Len returns the number of elements in the buffer.
func (b *Buffer) Len() int {
	es := ElementSize(b.format)
	if es == 0 {
		return 0
	}
	return b.size / es
}

// Valid reports whether the buffer still owns device memory.
func (b *Buffer) Valid() bool { return b != nil && b.valid }

// Write replaces the buffer contents. data must have exactly Size() bytes;
// partial updates are not supported.
func (b *Buffer) Write(data []byte) error {
	if !b.Valid() {
		return ErrBufferDestroyed
	}
	if len(data) != b.size {
		return fmt.Errorf("%w: have %d bytes, got %d", ErrSizeMismatch, b.size, len(data))
	}
	return b.dev.WriteBuffer(b.id, data)
}

// Destroy releases the device memory. It is safe to call more than once.
func (b *Buffer) Destroy() {
	if !b.Valid() {
		return
	}
	b.dev.DestroyBuffer(b.id)
	b.valid = false
	b.id = InvalidID
}

//go:build !nogpu

// Package gpu provides a GPU-backed render.Device for the line engine.
//
// The host application owns the GPU. It passes its device in through a
// render.DeviceHandle whose Device() also exposes the HAL device and queue
// (as *wgpu.Device does). This package never creates a GPU instance.
//
// Usage:
//
//	dev, err := gpu.NewDevice(app, 800, 600)
//	if err != nil {
//		// fall back to render.NewSoftwareDevice
//	}
//	ctx := ggline.NewContext(dev)
//	defer ctx.Close()
//
// Build with -tags nogpu to exclude the GPU backend.
package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ggline/render"

	gpuimpl "github.com/gogpu/ggline/internal/gpu"
)

// ErrNoHAL is returned when a device handle does not expose HAL access.
var ErrNoHAL = errors.New("gpu: device handle does not expose HAL types")

// halAccess is implemented by *wgpu.Device.
type halAccess interface {
	HalDevice() hal.Device
	HalQueue() hal.Queue
}

// NewDevice creates a width x height GPU device on the host's GPU.
// It rejects render.NullDeviceHandle and handles without HAL access.
func NewDevice(handle render.DeviceHandle, width, height int) (render.Device, error) {
	if handle == nil {
		return nil, fmt.Errorf("%w: nil handle", ErrNoHAL)
	}
	if _, ok := handle.(render.NullDeviceHandle); ok {
		return nil, fmt.Errorf("%w: null device", ErrNoHAL)
	}
	ha, ok := handle.Device().(halAccess)
	if !ok {
		return nil, ErrNoHAL
	}
	device, queue := ha.HalDevice(), ha.HalQueue()
	if device == nil || queue == nil {
		return nil, fmt.Errorf("%w: device released", ErrNoHAL)
	}
	return NewDeviceFromHAL(device, queue, width, height)
}

// NewDeviceFromHAL creates a width x height GPU device on a HAL device and
// queue owned by the caller.
func NewDeviceFromHAL(device hal.Device, queue hal.Queue, width, height int) (render.Device, error) {
	d, err := gpuimpl.NewDevice(device, queue, width, height)
	if err != nil {
		return nil, fmt.Errorf("gpu: %w", err)
	}
	return d, nil
}

// Close releases the resources of a device created by this package.
// Other devices are left alone.
func Close(dev render.Device) {
	if d, ok := dev.(*gpuimpl.Device); ok {
		d.Close()
	}
}

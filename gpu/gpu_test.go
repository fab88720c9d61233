//go:build !nogpu

package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/ggline/render"
)

// noopWGPU stands in for *wgpu.Device.
type noopWGPU struct {
	device hal.Device
	queue  hal.Queue
}

func (n noopWGPU) HalDevice() hal.Device { return n.device }
func (n noopWGPU) HalQueue() hal.Queue   { return n.queue }

// hostHandle is a DeviceHandle as a host window would provide it.
type hostHandle struct {
	render.NullDeviceHandle
	dev gpucontext.Device
}

func (h hostHandle) Device() gpucontext.Device { return h.dev }

func openNoop(t *testing.T) noopWGPU {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatal(err)
	}
	open, err := instance.EnumerateAdapters(nil)[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		t.Fatal(err)
	}
	return noopWGPU{device: open.Device, queue: open.Queue}
}

func TestNewDevice(t *testing.T) {
	dev, err := NewDevice(hostHandle{dev: openNoop(t)}, 20, 10)
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	defer Close(dev)
	if w, h := dev.Size(); w != 20 || h != 10 {
		t.Errorf("Size() = %dx%d, want 20x10", w, h)
	}
	if err := dev.Clear([4]float64{1, 1, 1, 1}); err != nil {
		t.Errorf("Clear() = %v", err)
	}
}

func TestNewDevice_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		handle render.DeviceHandle
	}{
		{"nil", nil},
		{"null", render.NullDeviceHandle{}},
		{"no hal", hostHandle{dev: struct{}{}}},
		{"released", hostHandle{dev: noopWGPU{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDevice(tt.handle, 8, 8); !errors.Is(err, ErrNoHAL) {
				t.Errorf("NewDevice() err = %v, want ErrNoHAL", err)
			}
		})
	}
}

func TestNewDeviceFromHAL_InvalidSize(t *testing.T) {
	n := openNoop(t)
	if _, err := NewDeviceFromHAL(n.device, n.queue, 0, 0); err == nil {
		t.Error("NewDeviceFromHAL with zero size should fail")
	}
}

func TestClose_IgnoresOtherDevices(t *testing.T) {
	soft, err := render.NewSoftwareDevice(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	Close(soft)
	if err := soft.Clear([4]float64{}); err != nil {
		t.Errorf("software device unusable after Close: %v", err)
	}
}

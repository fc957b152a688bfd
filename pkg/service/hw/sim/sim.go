//    Copyright 2024 The IOWorker authors
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

// Package sim provides an in-memory register-level model of the
// hardware, implementing the same register windows a real device maps.
// It exists so the full transaction engines can run without hardware,
// both in tests and when the service is started against a simulated
// device.
package sim

import (
	"sync"
)

// windowSize is the register window reserved for one master.
const windowSize = 0x40

// window is one master-sized register region.
type window interface {
	read32(offset uint32) uint32
	write32(offset uint32, value uint32)
}

// Device models the register file of a whole device. Masters are
// attached at their base addresses and claim a fixed-size window each.
// Reads and writes outside any window hit scratch memory, like
// unclaimed addresses on the real device.
type Device struct {
	mu      sync.Mutex
	windows map[uint32]window
	scratch map[uint32]uint32
}

// NewDevice creates an empty device model.
func NewDevice() *Device {
	return &Device{
		windows: make(map[uint32]window),
		scratch: make(map[uint32]uint32),
	}
}

// AddSMBusMaster attaches an SMBus master model at the given base
// address and returns it for target and fault configuration.
func (d *Device) AddSMBusMaster(base uint32) *SMBusMaster {
	m := newSMBusMaster()
	d.mu.Lock()
	d.windows[base] = m
	d.mu.Unlock()
	return m
}

// AddMDIOMaster attaches an MDIO master model at the given base
// address and returns it for device and fault configuration.
func (d *Device) AddMDIOMaster(base uint32) *MDIOMaster {
	m := newMDIOMaster()
	d.mu.Lock()
	d.windows[base] = m
	d.mu.Unlock()
	return m
}

func (d *Device) window(offset uint32) (window, uint32) {
	for base, w := range d.windows {
		if offset >= base && offset < base+windowSize {
			return w, offset - base
		}
	}
	return nil, 0
}

// Read32 implements hw.RegisterIO.
func (d *Device) Read32(offset uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if w, rel := d.window(offset); w != nil {
		return w.read32(rel)
	}
	return d.scratch[offset]
}

// Write32 implements hw.RegisterIO.
func (d *Device) Write32(offset uint32, value uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if w, rel := d.window(offset); w != nil {
		w.write32(rel, value)
		return
	}
	d.scratch[offset] = value
}

// Close implements hw.RegisterIO implementations that hold resources.
// The model holds none.
func (d *Device) Close() error { return nil }

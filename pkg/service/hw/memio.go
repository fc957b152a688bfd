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

package hw

import (
	"os"
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// MemIO maps the register window of a PCI device resource file
// (e.g. /sys/bus/pci/devices/<bdf>/resource0) into memory and serves
// 32-bit register access on top of it.
type MemIO struct {
	file *os.File
	mem  []byte
}

// NewMemIO maps size bytes of the resource file at the given path.
func NewMemIO(path string, size int) (*MemIO, error) {
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s failed", path)
	}
	mem, err := unix.Mmap(int(f.Fd()), 0, size,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "mmap %s failed", path)
	}
	return &MemIO{
		file: f,
		mem:  mem,
	}, nil
}

// Read32 returns the register at the given byte offset.
// Atomic loads keep the compiler from eliding or tearing the access.
func (m *MemIO) Read32(offset uint32) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(&m.mem[offset])))
}

// Write32 stores a value in the register at the given byte offset.
func (m *MemIO) Write32(offset uint32, value uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&m.mem[offset])), value)
}

// Close unmaps the register window.
func (m *MemIO) Close() error {
	if m.mem != nil {
		if err := unix.Munmap(m.mem); err != nil {
			return errors.Wrap(err, "munmap failed")
		}
		m.mem = nil
	}
	return m.file.Close()
}

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

package sim

import (
	"github.com/iomux/IOWorker/pkg/service/smbus"
)

// Register offsets within an SMBus master window.
const (
	smbusRequestOffset    = 0x10
	smbusCtrlStatusOffset = 0x20
	smbusResponseOffset   = 0x30
)

// SMBusMaster models one SMBus master window: a request FIFO that
// collects protocol steps, executes a step sequence against an attached
// target once it is complete, and a response FIFO holding the result
// words.
//
// Configure targets and fault hooks before driving traffic through the
// master; the model does not lock against concurrent reconfiguration.
type SMBusMaster struct {
	// Version is the firmware version reported in the control/status
	// register. Versions below 2 offer no hardware block read.
	Version uint8

	// FIFOEmpty makes the control/status register report an empty
	// response FIFO regardless of content, exercising the drain path
	// that reads past an exhausted poll.
	FIFOEmpty bool

	pending    []smbus.RequestReg
	respQ      []smbus.ResponseReg
	brb        bool
	targets    map[smbusKey]*Target
	violations int
}

type smbusKey struct {
	bus  uint8
	addr uint8
}

// Target models one device on an SMBus segment: a set of command
// registers plus the single byte exchanged by command-less operations.
type Target struct {
	// OnResponse, when set, rewrites each response word before it is
	// queued. The step index counts from the start of the sequence.
	OnResponse func(step int, word uint32) uint32

	// HoldBlockBusy keeps the block-read busy bit asserted so a block
	// read never completes.
	HoldBlockBusy bool

	regs     map[uint8][]byte
	lastByte uint8
}

func newSMBusMaster() *SMBusMaster {
	return &SMBusMaster{
		Version: 2,
		targets: make(map[smbusKey]*Target),
	}
}

// AddTarget attaches a target at the given bus and address.
func (m *SMBusMaster) AddTarget(bus uint8, addr uint8) *Target {
	t := &Target{regs: make(map[uint8][]byte)}
	m.targets[smbusKey{bus: bus, addr: addr}] = t
	return t
}

// Violations counts request steps that arrived while earlier responses
// were still queued, which only happens when two transactions
// interleave on the same master.
func (m *SMBusMaster) Violations() int { return m.violations }

// SetReg stores the content of a command register. Block commands
// store their length byte first, matching what a block write leaves
// behind.
func (t *Target) SetReg(cmd uint8, data []byte) {
	t.regs[cmd] = append([]byte(nil), data...)
}

// Reg returns the content of a command register.
func (t *Target) Reg(cmd uint8) []byte { return t.regs[cmd] }

// SetLastByte sets the byte returned by a command-less receive.
func (t *Target) SetLastByte(b uint8) { t.lastByte = b }

// LastByte returns the byte left behind by a command-less send.
func (t *Target) LastByte() uint8 { return t.lastByte }

func (m *SMBusMaster) read32(offset uint32) uint32 {
	switch offset {
	case smbusCtrlStatusOffset:
		var cs smbus.CtrlStatusReg
		cs.SetVer(m.Version)
		if m.brb {
			cs.SetBrb(1)
		}
		if !m.FIFOEmpty {
			cs.SetFs(uint16(len(m.respQ)))
		}
		return uint32(cs)
	case smbusResponseOffset:
		if len(m.respQ) == 0 {
			return 0
		}
		word := m.respQ[0]
		m.respQ = m.respQ[1:]
		return uint32(word)
	}
	return 0
}

func (m *SMBusMaster) write32(offset uint32, value uint32) {
	switch offset {
	case smbusRequestOffset:
		if len(m.respQ) != 0 {
			m.violations++
		}
		m.pending = append(m.pending, smbus.RequestReg(value))
		last := m.pending[len(m.pending)-1]
		if last.Sp() == 1 {
			m.execute()
		} else if len(m.pending) == 3 && m.pending[2].Br() == 1 {
			m.executeBlockRead()
		}
	case smbusCtrlStatusOffset:
		cs := smbus.CtrlStatusReg(value)
		if cs.Reset() == 1 {
			m.pending = nil
			m.respQ = nil
			m.brb = false
		}
	}
}

func (m *SMBusMaster) target(step smbus.RequestReg) *Target {
	return m.targets[smbusKey{bus: step.Bs(), addr: step.D() >> 1}]
}

// readReg returns count bytes from a command register, zero padded
// beyond its stored content.
func (t *Target) readReg(cmd uint8, count int) []byte {
	data := make([]byte, count)
	copy(data, t.regs[cmd])
	return data
}

// execute runs one complete step sequence against the addressed target
// and fills the response FIFO with one word per step.
func (m *SMBusMaster) execute() {
	steps := m.pending
	m.pending = nil
	target := m.target(steps[0])

	// A restart past the command byte turns the sequence around into a
	// read; everything after it clocks data in from the target.
	restart := -1
	for i := 2; i < len(steps); i++ {
		if steps[i].St() == 1 {
			restart = i
			break
		}
	}

	var incoming []byte
	if target != nil {
		switch {
		case len(steps) == 1:
			// Address and direction only.
		case len(steps) == 2:
			if steps[0].D()&1 == 1 {
				incoming = []byte{target.lastByte}
			} else {
				target.lastByte = steps[1].D()
			}
		case restart >= 0:
			incoming = target.readReg(steps[1].D(), len(steps)-restart-1)
		default:
			payload := make([]byte, 0, len(steps)-2)
			for _, step := range steps[2:] {
				payload = append(payload, step.D())
			}
			target.regs[steps[1].D()] = payload
		}
	}

	for i, step := range steps {
		var resp smbus.ResponseReg
		resp.SetTi(step.Ti())
		resp.SetSs(step.Ss())
		resp.SetD(step.D())
		if target == nil && i == 0 {
			resp.SetAckError(1)
		}
		if restart >= 0 && i > restart && i-restart-1 < len(incoming) {
			resp.SetD(incoming[i-restart-1])
		}
		if len(steps) == 2 && i == 1 && len(incoming) == 1 {
			resp.SetD(incoming[0])
		}
		m.queueResponse(target, i, resp)
	}
}

// executeBlockRead runs a three step block-read header: the response
// FIFO gets the header echoes followed by the length byte and the block
// content of the addressed command register.
func (m *SMBusMaster) executeBlockRead() {
	steps := m.pending
	m.pending = nil
	target := m.target(steps[0])

	if target != nil && target.HoldBlockBusy {
		m.brb = true
		return
	}
	m.brb = false

	for i, step := range steps {
		var resp smbus.ResponseReg
		resp.SetTi(step.Ti())
		resp.SetSs(step.Ss())
		resp.SetD(step.D())
		if target == nil && i == 0 {
			resp.SetAckError(1)
		}
		m.queueResponse(target, i, resp)
	}
	if target == nil {
		return
	}
	block := target.regs[steps[1].D()]
	for j, b := range block {
		var resp smbus.ResponseReg
		resp.SetTi(uint8(len(steps)+j) & 0xf)
		resp.SetD(b)
		m.queueResponse(target, len(steps)+j, resp)
	}
}

func (m *SMBusMaster) queueResponse(target *Target, step int, resp smbus.ResponseReg) {
	if target != nil && target.OnResponse != nil {
		resp = smbus.ResponseReg(target.OnResponse(step, uint32(resp)))
	}
	m.respQ = append(m.respQ, resp)
}

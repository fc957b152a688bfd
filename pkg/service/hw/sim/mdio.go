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
	"github.com/iomux/IOWorker/pkg/service/mdio"
)

// Register offsets within an MDIO master window.
const (
	mdioRequestLoOffset  = 0x00
	mdioRequestHiOffset  = 0x10
	mdioCtrlStatusOffset = 0x20
	mdioResponseOffset   = 0x30
)

// MDIOMaster models one MDIO master window. The low request word is
// latched; writing the high word triggers execution of the request.
//
// Configure phys and fault hooks before driving traffic through the
// master; the model does not lock against concurrent reconfiguration.
type MDIOMaster struct {
	// Stall makes requests never complete, so the response count stays
	// at zero and callers run into their wait budget.
	Stall bool

	// BadResCount, when nonzero, is reported as the response count
	// after a request executes, standing in for a master fault.
	BadResCount uint16

	// OnResponse, when set, rewrites the response word of each request
	// before it becomes readable.
	OnResponse func(word uint32) uint32

	lo        mdio.RequestLoReg
	resp      mdio.ResponseReg
	respReady bool
	phys      map[mdioKey]*Phy
}

type mdioKey struct {
	bus   uint8
	prtad uint8
	devad uint8
}

// Phy models one MDIO device: a register file plus the address latch
// written by the address phase of an access.
type Phy struct {
	regs   map[uint16]uint16
	selReg uint16
}

func newMDIOMaster() *MDIOMaster {
	return &MDIOMaster{
		phys: make(map[mdioKey]*Phy),
	}
}

// AddPhy attaches a device at the given bus, port and device address.
func (m *MDIOMaster) AddPhy(bus, prtad, devad uint8) *Phy {
	p := &Phy{regs: make(map[uint16]uint16)}
	m.phys[mdioKey{bus: bus, prtad: prtad, devad: devad}] = p
	return p
}

// SetReg stores the content of a device register.
func (p *Phy) SetReg(regnum, value uint16) { p.regs[regnum] = value }

// Reg returns the content of a device register.
func (p *Phy) Reg(regnum uint16) uint16 { return p.regs[regnum] }

func (m *MDIOMaster) read32(offset uint32) uint32 {
	switch offset {
	case mdioCtrlStatusOffset:
		var cs mdio.CtrlStatusReg
		if m.respReady {
			count := uint16(1)
			if m.BadResCount != 0 {
				count = m.BadResCount
			}
			cs.SetResCount(count)
		}
		return uint32(cs)
	case mdioResponseOffset:
		return uint32(m.resp)
	}
	return 0
}

func (m *MDIOMaster) write32(offset uint32, value uint32) {
	switch offset {
	case mdioRequestLoOffset:
		m.lo = mdio.RequestLoReg(value)
	case mdioRequestHiOffset:
		m.execute(mdio.RequestHiReg(value).Ri())
	case mdioCtrlStatusOffset:
		cs := mdio.CtrlStatusReg(value)
		if cs.Reset() == 1 {
			m.respReady = false
			m.resp = 0
			return
		}
		if cs.Fe() == 1 {
			// Interrupt clear. The latched response word stays readable
			// so the caller can still collect it.
			m.respReady = false
		}
	}
}

// execute runs the latched request. The address phase latches the
// register number; the read and write phases use the latch.
func (m *MDIOMaster) execute(ri uint8) {
	if m.Stall {
		return
	}

	var resp mdio.ResponseReg
	resp.SetRi(ri)
	phy := m.phys[mdioKey{bus: m.lo.Bs(), prtad: m.lo.Pa(), devad: m.lo.Dt()}]
	if phy == nil {
		resp.SetFe(1)
	} else {
		resp.SetTs(1)
		switch m.lo.Op() {
		case 0:
			phy.selReg = m.lo.D()
		case 1:
			phy.regs[phy.selReg] = m.lo.D()
		case 2:
			resp.SetD(phy.regs[phy.selReg])
		}
	}

	if m.OnResponse != nil {
		resp = mdio.ResponseReg(m.OnResponse(uint32(resp)))
	}
	m.resp = resp
	m.respReady = true
}

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

package mdio

import "fmt"

// Register offsets from the base address of an MDIO master.
const (
	requestLoOffset  = 0x00
	requestHiOffset  = 0x10
	ctrlStatusOffset = 0x20
	responseOffset   = 0x30
)

func getBits(reg uint32, shift, width uint) uint32 {
	return (reg >> shift) & (1<<width - 1)
}

func setBits(reg uint32, shift, width uint, value uint32) uint32 {
	mask := uint32(1<<width-1) << shift
	return (reg &^ mask) | ((value << shift) & mask)
}

// RequestLoReg is the low request register, carrying the addressing and
// payload of one protocol phase.
//
// Layout: d[0:16] pa[16:21] dt[21:26] op[26:28] t[28] bs[29:32].
type RequestLoReg uint32

// D is the 16-bit payload: the register number during the address-set
// phase, the value to write during a write phase.
func (r RequestLoReg) D() uint16 { return uint16(getBits(uint32(r), 0, 16)) }

// Pa is the port address of the target.
func (r RequestLoReg) Pa() uint8 { return uint8(getBits(uint32(r), 16, 5)) }

// Dt is the device address of the target.
func (r RequestLoReg) Dt() uint8 { return uint8(getBits(uint32(r), 21, 5)) }

// Op is the phase operation.
func (r RequestLoReg) Op() uint8 { return uint8(getBits(uint32(r), 26, 2)) }

// T selects the protocol clause.
func (r RequestLoReg) T() uint8 { return uint8(getBits(uint32(r), 28, 1)) }

// Bs selects the bus within the master.
func (r RequestLoReg) Bs() uint8 { return uint8(getBits(uint32(r), 29, 3)) }

func (r *RequestLoReg) SetD(v uint16) { *r = RequestLoReg(setBits(uint32(*r), 0, 16, uint32(v))) }
func (r *RequestLoReg) SetPa(v uint8) { *r = RequestLoReg(setBits(uint32(*r), 16, 5, uint32(v))) }
func (r *RequestLoReg) SetDt(v uint8) { *r = RequestLoReg(setBits(uint32(*r), 21, 5, uint32(v))) }
func (r *RequestLoReg) SetOp(v uint8) { *r = RequestLoReg(setBits(uint32(*r), 26, 2, uint32(v))) }
func (r *RequestLoReg) SetT(v uint8)  { *r = RequestLoReg(setBits(uint32(*r), 28, 1, uint32(v))) }
func (r *RequestLoReg) SetBs(v uint8) { *r = RequestLoReg(setBits(uint32(*r), 29, 3, uint32(v))) }

func (r RequestLoReg) String() string {
	return fmt.Sprintf("{reg=0x%08x bs=%d t=%d op=%d dt=%d pa=%d d=0x%04x}",
		uint32(r), r.Bs(), r.T(), r.Op(), r.Dt(), r.Pa(), r.D())
}

// RequestHiReg is the high request register; writing it triggers
// execution of the request held in the low register.
//
// Layout: ri[0:8].
type RequestHiReg uint32

// Ri is the request id stamped on the exchange.
func (r RequestHiReg) Ri() uint8 { return uint8(getBits(uint32(r), 0, 8)) }

func (r *RequestHiReg) SetRi(v uint8) { *r = RequestHiReg(setBits(uint32(*r), 0, 8, uint32(v))) }

// CtrlStatusReg is the control/status register of an MDIO master.
//
// Layout: resCount[0:10] sp[20:22] fe[30] reset[31].
type CtrlStatusReg uint32

// ResCount is the number of responses pending: 0 while the request is
// in flight, 1 once it completed. Any other value is a fault.
func (r CtrlStatusReg) ResCount() uint16 { return uint16(getBits(uint32(r), 0, 10)) }

// Sp is the configured signaling speed.
func (r CtrlStatusReg) Sp() uint8 { return uint8(getBits(uint32(r), 20, 2)) }

// Fe clears the interrupt flag when written.
func (r CtrlStatusReg) Fe() uint8 { return uint8(getBits(uint32(r), 30, 1)) }

// Reset resets the master state machine while held.
func (r CtrlStatusReg) Reset() uint8 { return uint8(getBits(uint32(r), 31, 1)) }

func (r *CtrlStatusReg) SetResCount(v uint16) { *r = CtrlStatusReg(setBits(uint32(*r), 0, 10, uint32(v))) }
func (r *CtrlStatusReg) SetSp(v uint8)        { *r = CtrlStatusReg(setBits(uint32(*r), 20, 2, uint32(v))) }
func (r *CtrlStatusReg) SetFe(v uint8)        { *r = CtrlStatusReg(setBits(uint32(*r), 30, 1, uint32(v))) }
func (r *CtrlStatusReg) SetReset(v uint8)     { *r = CtrlStatusReg(setBits(uint32(*r), 31, 1, uint32(v))) }

func (r CtrlStatusReg) String() string {
	return fmt.Sprintf("{reg=0x%08x reset=%d fe=%d sp=%d res_count=%d}",
		uint32(r), r.Reset(), r.Fe(), r.Sp(), r.ResCount())
}

// ResponseReg is the response register of an MDIO master.
//
// Layout: d[0:16] ri[16:24] ts[24:27] fe[31].
type ResponseReg uint32

// D is the 16-bit data field returned by a read.
func (r ResponseReg) D() uint16 { return uint16(getBits(uint32(r), 0, 16)) }

// Ri echoes the request id of the exchange.
func (r ResponseReg) Ri() uint8 { return uint8(getBits(uint32(r), 16, 8)) }

// Ts is the transaction status; 1 means success.
func (r ResponseReg) Ts() uint8 { return uint8(getBits(uint32(r), 24, 3)) }

// Fe reports a framing error.
func (r ResponseReg) Fe() uint8 { return uint8(getBits(uint32(r), 31, 1)) }

func (r *ResponseReg) SetD(v uint16) { *r = ResponseReg(setBits(uint32(*r), 0, 16, uint32(v))) }
func (r *ResponseReg) SetRi(v uint8) { *r = ResponseReg(setBits(uint32(*r), 16, 8, uint32(v))) }
func (r *ResponseReg) SetTs(v uint8) { *r = ResponseReg(setBits(uint32(*r), 24, 3, uint32(v))) }
func (r *ResponseReg) SetFe(v uint8) { *r = ResponseReg(setBits(uint32(*r), 31, 1, uint32(v))) }

func (r ResponseReg) String() string {
	return fmt.Sprintf("{reg=0x%08x fe=%d ts=%d ri=%d d=0x%04x}",
		uint32(r), r.Fe(), r.Ts(), r.Ri(), r.D())
}

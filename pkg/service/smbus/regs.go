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

package smbus

import "fmt"

// Register offsets from the base address of an SMBus master.
const (
	requestOffset    = 0x10
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

// RequestReg is one 32-bit word of the master's request FIFO. Each word
// describes a single protocol step of a transaction.
//
// Layout: d[0:8] ss[8:14] ed[14] br[15] dat[16:18] t[18:20] sp[20]
// da[21] dod[22] st[23] bs[24:28] ti[28:32].
type RequestReg uint32

// D is the outgoing data byte of the step.
func (r RequestReg) D() uint8 { return uint8(getBits(uint32(r), 0, 8)) }

// Ss is the step-sequence length, carried on the first step only.
func (r RequestReg) Ss() uint8 { return uint8(getBits(uint32(r), 8, 6)) }

// Ed is the extra-delay flag from the per-address tuning.
func (r RequestReg) Ed() uint8 { return uint8(getBits(uint32(r), 14, 1)) }

// Br marks the step sequence as a hardware block read.
func (r RequestReg) Br() uint8 { return uint8(getBits(uint32(r), 15, 1)) }

// Dat is the data-width code from the per-address tuning.
func (r RequestReg) Dat() uint8 { return uint8(getBits(uint32(r), 16, 2)) }

// T is the timing class from the per-address tuning.
func (r RequestReg) T() uint8 { return uint8(getBits(uint32(r), 18, 2)) }

// Sp is the stop flag, set on the last step.
func (r RequestReg) Sp() uint8 { return uint8(getBits(uint32(r), 20, 1)) }

// Da marks a data step that neither drives data out nor stops the bus.
func (r RequestReg) Da() uint8 { return uint8(getBits(uint32(r), 21, 1)) }

// Dod is the data-out-drive flag.
func (r RequestReg) Dod() uint8 { return uint8(getBits(uint32(r), 22, 1)) }

// St is the start flag.
func (r RequestReg) St() uint8 { return uint8(getBits(uint32(r), 23, 1)) }

// Bs selects the bus within the master.
func (r RequestReg) Bs() uint8 { return uint8(getBits(uint32(r), 24, 4)) }

// Ti is the 4-bit transaction id stamped on the step.
func (r RequestReg) Ti() uint8 { return uint8(getBits(uint32(r), 28, 4)) }

func (r *RequestReg) SetD(v uint8)   { *r = RequestReg(setBits(uint32(*r), 0, 8, uint32(v))) }
func (r *RequestReg) SetSs(v uint8)  { *r = RequestReg(setBits(uint32(*r), 8, 6, uint32(v))) }
func (r *RequestReg) SetEd(v uint8)  { *r = RequestReg(setBits(uint32(*r), 14, 1, uint32(v))) }
func (r *RequestReg) SetBr(v uint8)  { *r = RequestReg(setBits(uint32(*r), 15, 1, uint32(v))) }
func (r *RequestReg) SetDat(v uint8) { *r = RequestReg(setBits(uint32(*r), 16, 2, uint32(v))) }
func (r *RequestReg) SetT(v uint8)   { *r = RequestReg(setBits(uint32(*r), 18, 2, uint32(v))) }
func (r *RequestReg) SetSp(v uint8)  { *r = RequestReg(setBits(uint32(*r), 20, 1, uint32(v))) }
func (r *RequestReg) SetDa(v uint8)  { *r = RequestReg(setBits(uint32(*r), 21, 1, uint32(v))) }
func (r *RequestReg) SetDod(v uint8) { *r = RequestReg(setBits(uint32(*r), 22, 1, uint32(v))) }
func (r *RequestReg) SetSt(v uint8)  { *r = RequestReg(setBits(uint32(*r), 23, 1, uint32(v))) }
func (r *RequestReg) SetBs(v uint8)  { *r = RequestReg(setBits(uint32(*r), 24, 4, uint32(v))) }
func (r *RequestReg) SetTi(v uint8)  { *r = RequestReg(setBits(uint32(*r), 28, 4, uint32(v))) }

func (r RequestReg) String() string {
	return fmt.Sprintf("{reg=0x%08x ti=%02d bs=%#x st=%d dod=%d da=%d sp=%d t=%d dat=%#x br=%d ed=%d ss=%02d d=0x%02x}",
		uint32(r), r.Ti(), r.Bs(), r.St(), r.Dod(), r.Da(), r.Sp(), r.T(), r.Dat(), r.Br(), r.Ed(), r.Ss(), r.D())
}

// CtrlStatusReg is the control/status register of an SMBus master.
//
// Layout: fs[0:10] foe[13] brb[26] ver[28:30] fe[30] reset[31].
type CtrlStatusReg uint32

// Fs is the number of words pending in the response FIFO.
func (r CtrlStatusReg) Fs() uint16 { return uint16(getBits(uint32(r), 0, 10)) }

// Foe is the FIFO-overflow-error clear/latch bit.
func (r CtrlStatusReg) Foe() uint8 { return uint8(getBits(uint32(r), 13, 1)) }

// Brb is set while a hardware block read is still busy.
func (r CtrlStatusReg) Brb() uint8 { return uint8(getBits(uint32(r), 26, 1)) }

// Ver is the firmware version of the master.
func (r CtrlStatusReg) Ver() uint8 { return uint8(getBits(uint32(r), 28, 2)) }

// Fe is the framing-error latch.
func (r CtrlStatusReg) Fe() uint8 { return uint8(getBits(uint32(r), 30, 1)) }

// Reset resets the master state machine while held.
func (r CtrlStatusReg) Reset() uint8 { return uint8(getBits(uint32(r), 31, 1)) }

func (r *CtrlStatusReg) SetFs(v uint16)   { *r = CtrlStatusReg(setBits(uint32(*r), 0, 10, uint32(v))) }
func (r *CtrlStatusReg) SetFoe(v uint8)   { *r = CtrlStatusReg(setBits(uint32(*r), 13, 1, uint32(v))) }
func (r *CtrlStatusReg) SetBrb(v uint8)   { *r = CtrlStatusReg(setBits(uint32(*r), 26, 1, uint32(v))) }
func (r *CtrlStatusReg) SetVer(v uint8)   { *r = CtrlStatusReg(setBits(uint32(*r), 28, 2, uint32(v))) }
func (r *CtrlStatusReg) SetFe(v uint8)    { *r = CtrlStatusReg(setBits(uint32(*r), 30, 1, uint32(v))) }
func (r *CtrlStatusReg) SetReset(v uint8) { *r = CtrlStatusReg(setBits(uint32(*r), 31, 1, uint32(v))) }

func (r CtrlStatusReg) String() string {
	return fmt.Sprintf("{reg=0x%08x reset=%d fe=%d ver=%d brb=%d foe=%d fs=%d}",
		uint32(r), r.Reset(), r.Fe(), r.Ver(), r.Brb(), r.Foe(), r.Fs())
}

// ResponseReg is one 32-bit word of the master's response FIFO,
// matching one request step.
//
// Layout: d[0:8] busConflictError[8] timeoutError[9] ackError[10]
// flushed[11] ti[12:16] ss[16:22] foe[30] fe[31].
type ResponseReg uint32

// D is the returned data byte of the step.
func (r ResponseReg) D() uint8 { return uint8(getBits(uint32(r), 0, 8)) }

// BusConflictError reports arbitration loss on the wire.
func (r ResponseReg) BusConflictError() uint8 { return uint8(getBits(uint32(r), 8, 1)) }

// TimeoutError reports clock stretching beyond the timing budget.
func (r ResponseReg) TimeoutError() uint8 { return uint8(getBits(uint32(r), 9, 1)) }

// AckError reports a missing acknowledge from the target.
func (r ResponseReg) AckError() uint8 { return uint8(getBits(uint32(r), 10, 1)) }

// Flushed reports that the step was discarded by a reset.
func (r ResponseReg) Flushed() uint8 { return uint8(getBits(uint32(r), 11, 1)) }

// Ti echoes the transaction id of the matching request step.
func (r ResponseReg) Ti() uint8 { return uint8(getBits(uint32(r), 12, 4)) }

// Ss echoes the step-sequence length.
func (r ResponseReg) Ss() uint8 { return uint8(getBits(uint32(r), 16, 6)) }

// Foe reports a response FIFO overflow.
func (r ResponseReg) Foe() uint8 { return uint8(getBits(uint32(r), 30, 1)) }

// Fe reports a framing error.
func (r ResponseReg) Fe() uint8 { return uint8(getBits(uint32(r), 31, 1)) }

func (r *ResponseReg) SetD(v uint8)                { *r = ResponseReg(setBits(uint32(*r), 0, 8, uint32(v))) }
func (r *ResponseReg) SetBusConflictError(v uint8) { *r = ResponseReg(setBits(uint32(*r), 8, 1, uint32(v))) }
func (r *ResponseReg) SetTimeoutError(v uint8)     { *r = ResponseReg(setBits(uint32(*r), 9, 1, uint32(v))) }
func (r *ResponseReg) SetAckError(v uint8)         { *r = ResponseReg(setBits(uint32(*r), 10, 1, uint32(v))) }
func (r *ResponseReg) SetFlushed(v uint8)          { *r = ResponseReg(setBits(uint32(*r), 11, 1, uint32(v))) }
func (r *ResponseReg) SetTi(v uint8)               { *r = ResponseReg(setBits(uint32(*r), 12, 4, uint32(v))) }
func (r *ResponseReg) SetSs(v uint8)               { *r = ResponseReg(setBits(uint32(*r), 16, 6, uint32(v))) }
func (r *ResponseReg) SetFoe(v uint8)              { *r = ResponseReg(setBits(uint32(*r), 30, 1, uint32(v))) }
func (r *ResponseReg) SetFe(v uint8)               { *r = ResponseReg(setBits(uint32(*r), 31, 1, uint32(v))) }

func (r ResponseReg) String() string {
	return fmt.Sprintf("{reg=0x%08x fe=%d foe=%d ss=%02d ti=%02d flushed=%d ack=%d timeout=%d conflict=%d d=0x%02x}",
		uint32(r), r.Fe(), r.Foe(), r.Ss(), r.Ti(), r.Flushed(), r.AckError(), r.TimeoutError(), r.BusConflictError(), r.D())
}

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

import (
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iomux/IOWorker/pkg/service/hw"
)

const (
	// Settle time on either edge of a master reset.
	resetDelay = 10 * time.Millisecond
	// Response polling starts at waitInitial and doubles each round
	// until it would exceed waitMax; then the request has timed out.
	waitInitial = 10 * time.Microsecond
	waitMax     = 500 * time.Millisecond
)

// Op is one of the phase operations of an MDIO exchange.
type Op uint8

const (
	// OpSet latches the target register number (address phase).
	OpSet Op = 0
	// OpWrite stores the request payload in the latched register.
	OpWrite Op = 1
	// OpRead returns the content of the latched register.
	OpRead Op = 2
)

// Clause selects the MDIO addressing/protocol variant.
type Clause uint8

const (
	Clause22 Clause = 0
	Clause45 Clause = 1
)

// clause45Flag marks a device id as using extended addressing.
const clause45Flag = 1 << 15

// DeviceID combines a port address and device address into the single
// device id used on the wire, flagging clause-45 addressing.
func DeviceID(prtad, devad uint16, clause Clause) uint16 {
	id := (prtad << 5) | (devad & 0x1f)
	if clause == Clause45 {
		id |= clause45Flag
	}
	return id
}

// Master drives one hardware MDIO master: a pair of request registers,
// a control/status register and a response register at fixed offsets
// from its base address.
type Master struct {
	io    hw.RegisterIO
	id    uint16
	reqLo uint32
	reqHi uint32
	cs    uint32
	resp  uint32

	mutex sync.Mutex
	speed uint16
	reqID uint8

	buses    map[uint8]*Bus
	busOrder []uint8

	log     zerolog.Logger
	idLabel string
}

// NewMaster prepares a master at the given base register address with
// the configured signaling speed. Reset must be called once the buses
// are registered.
func NewMaster(io hw.RegisterIO, base uint32, id uint16, speed uint16, log zerolog.Logger) *Master {
	return &Master{
		io:      io,
		id:      id,
		reqLo:   base + requestLoOffset,
		reqHi:   base + requestHiOffset,
		cs:      base + ctrlStatusOffset,
		resp:    base + responseOffset,
		speed:   speed,
		buses:   make(map[uint8]*Bus),
		log:     log.With().Str("component", "mdio").Uint16("master", id).Logger(),
		idLabel: strconv.FormatUint(uint64(id), 10),
	}
}

// ID returns the master id within its context.
func (m *Master) ID() uint16 { return m.id }

// AddBus registers a bus with the given id on this master.
func (m *Master) AddBus(id uint8) (*Bus, error) {
	if _, found := m.buses[id]; found {
		return nil, maskAny(BusExistsError)
	}
	bus := &Bus{
		master:  m,
		id:      id,
		devices: make(map[uint16]*Device),
	}
	m.buses[id] = bus
	m.busOrder = append(m.busOrder, id)
	return bus, nil
}

// Bus returns the bus with the given id.
// Returns false if not found.
func (m *Master) Bus(id uint8) (*Bus, bool) {
	bus, found := m.buses[id]
	return bus, found
}

// Buses returns all buses of this master in registration order.
func (m *Master) Buses() []*Bus {
	result := make([]*Bus, 0, len(m.busOrder))
	for _, id := range m.busOrder {
		result = append(result, m.buses[id])
	}
	return result
}

// defaultCS is the control word all control writes start from, carrying
// the configured signaling speed.
func (m *Master) defaultCS() CtrlStatusReg {
	var cs CtrlStatusReg
	cs.SetSp(uint8(m.speed))
	return cs
}

func (m *Master) readCS() CtrlStatusReg {
	return CtrlStatusReg(m.io.Read32(m.cs))
}

func (m *Master) writeCS(cs CtrlStatusReg) {
	m.io.Write32(m.cs, uint32(cs))
}

// Reset toggles the reset bit, clearing in-flight state.
func (m *Master) Reset() {
	resetsTotal.WithLabelValues(m.idLabel).Inc()
	cs := m.defaultCS()
	cs.SetReset(1)
	m.writeCS(cs)
	time.Sleep(resetDelay)

	cs.SetReset(0)
	m.writeCS(cs)
	time.Sleep(resetDelay)
}

// Close resets the master hardware state.
func (m *Master) Close() {
	m.Reset()
}

func (m *Master) resetInterrupt() {
	cs := m.defaultCS()
	cs.SetFe(1)
	m.writeCS(cs)
}

func (m *Master) nextReqID() uint8 {
	id := m.reqID
	m.reqID++
	return id
}

// waitResponse polls the response count until the request completed,
// sleeping with exponentially increasing backoff between polls.
// A count other than 0 or 1 is a fault of the master itself.
func (m *Master) waitResponse() error {
	for delay := waitInitial; delay <= waitMax; delay *= 2 {
		cs := m.readCS()
		switch cs.ResCount() {
		case 1:
			return nil
		case 0:
			time.Sleep(delay)
		default:
			m.log.Warn().Uint16("res_count", cs.ResCount()).Msg("mdio wait_resp failed")
			return maskAny(UnsupportedError)
		}
	}

	m.log.Warn().Msg("mdio wait_resp timeout")
	return maskAny(WaitTimeoutError)
}

// request runs one protocol phase: clear the interrupt, write the
// request pair, wait for completion, then read and validate the
// response. Returns the response data field for read phases.
func (m *Master) request(bus uint8, op Op, clause Clause, prtad, devad uint8, data uint16) (uint16, error) {
	m.resetInterrupt()

	var lo RequestLoReg
	lo.SetBs(bus)
	lo.SetT(uint8(clause))
	lo.SetOp(uint8(op))
	lo.SetDt(devad)
	lo.SetPa(prtad)
	lo.SetD(data)
	m.log.Debug().Stringer("req_lo", lo).Msg("wr req_lo")
	m.io.Write32(m.reqLo, uint32(lo))

	var hi RequestHiReg
	hi.SetRi(m.nextReqID())
	m.io.Write32(m.reqHi, uint32(hi))

	if err := m.waitResponse(); err != nil {
		return 0, maskAny(err)
	}

	m.resetInterrupt()

	resp := ResponseReg(m.io.Read32(m.resp))
	m.log.Debug().Stringer("rsp", resp).Msg("rd rsp")
	if resp.Ts() != 1 || resp.Fe() == 1 {
		m.log.Warn().Stringer("rsp", resp).Msg("mdio request failed in reading resp")
		return 0, maskAny(ResponseError)
	}

	if op == OpRead {
		return resp.D(), nil
	}
	return 0, nil
}

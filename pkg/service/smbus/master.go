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

import (
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iomux/IOWorker/pkg/service/hw"
)

const (
	// DefaultMaxRetries bounds the number of transaction attempts made
	// before a protocol failure is surfaced to the caller.
	DefaultMaxRetries = 6

	// Settle time on either edge of a master reset.
	resetSettleDelay = 50 * time.Millisecond
	// Response FIFO polling for ordinary steps.
	responsePollRetries  = 20
	responsePollInterval = 10 * time.Millisecond
)

// Master drives one hardware SMBus master: a request FIFO, a
// control/status register and a response FIFO at fixed offsets from its
// base address. All transactions on a master are serialized by its
// mutex; independent masters run in parallel.
type Master struct {
	io   hw.RegisterIO
	id   uint32
	req  uint32
	cs   uint32
	resp uint32

	mutex      sync.Mutex
	cfg        *sync.Mutex
	maxRetries int

	brSupported bool

	buses    map[uint8]*Bus
	busOrder []uint8

	log     zerolog.Logger
	idLabel string
}

// NewMaster prepares a master at the given base register address. The
// cfg lock guards the tuning tables of all buses and is shared with the
// owning context. Init must be called once the buses are registered.
func NewMaster(io hw.RegisterIO, base uint32, id uint32, maxRetries int, cfg *sync.Mutex, log zerolog.Logger) *Master {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Master{
		io:         io,
		id:         id,
		req:        base + requestOffset,
		cs:         base + ctrlStatusOffset,
		resp:       base + responseOffset,
		cfg:        cfg,
		maxRetries: maxRetries,
		buses:      make(map[uint8]*Bus),
		log:        log.With().Str("component", "smbus").Uint32("master", id).Logger(),
		idLabel:    strconv.FormatUint(uint64(id), 10),
	}
}

// ID returns the master id within its context.
func (m *Master) ID() uint32 { return m.id }

// BlockReadSupported reports whether the firmware offers the hardware
// block-read fast path.
func (m *Master) BlockReadSupported() bool { return m.brSupported }

// AddBus registers a bus with the given id on this master.
func (m *Master) AddBus(id uint8, adapterNr int) (*Bus, error) {
	if _, found := m.buses[id]; found {
		return nil, maskAny(BusExistsError)
	}
	bus := &Bus{
		master:    m,
		id:        id,
		adapterNr: adapterNr,
		params:    make(map[uint16]Params),
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

// Init resets the master and probes the firmware version to decide
// whether the hardware block-read fast path can be used.
func (m *Master) Init() {
	m.reset()
	cs := m.readCS()
	m.brSupported = cs.Ver() >= 2
	m.log.Debug().Uint8("version", cs.Ver()).Bool("block_read", m.brSupported).Msg("master initialized")
}

// Close resets the master hardware state.
func (m *Master) Close() {
	m.reset()
}

func (m *Master) writeReq(req RequestReg) {
	m.log.Debug().Stringer("req", req).Msg("wr req")
	m.io.Write32(m.req, uint32(req))
}

func (m *Master) writeCS(cs CtrlStatusReg) {
	m.log.Debug().Stringer("cs", cs).Msg("wr cs")
	m.io.Write32(m.cs, uint32(cs))
}

func (m *Master) readCS() CtrlStatusReg {
	cs := CtrlStatusReg(m.io.Read32(m.cs))
	m.log.Debug().Stringer("cs", cs).Msg("rd cs")
	return cs
}

func (m *Master) readRespReg() ResponseReg {
	resp := ResponseReg(m.io.Read32(m.resp))
	m.log.Debug().Stringer("rsp", resp).Msg("rd rsp")
	return resp
}

// readResp waits for the response FIFO to fill, then reads one word.
// An exhausted wait is logged but the read is attempted regardless.
func (m *Master) readResp() ResponseReg {
	cs := m.readCS()
	for retries := responsePollRetries; cs.Fs() == 0 && retries > 1; retries-- {
		time.Sleep(responsePollInterval)
		cs = m.readCS()
	}
	if cs.Fs() == 0 {
		m.log.Error().Msg("fifo still empty after retries")
	}
	return m.readRespReg()
}

// reset toggles the reset bit, clearing the FIFOs and any latched
// fault, leaving the master in a known-clean state.
func (m *Master) reset() {
	resetsTotal.WithLabelValues(m.idLabel).Inc()
	cs := m.readCS()
	cs.SetReset(1)
	cs.SetFoe(1)
	m.writeCS(cs)
	time.Sleep(resetSettleDelay)
	cs.SetReset(0)
	m.writeCS(cs)
	time.Sleep(resetSettleDelay)
}

// checkResp validates one response word against the expected
// transaction id and the error flags, in the order the hardware
// prioritizes them.
func checkResp(resp ResponseReg, ti uint8) error {
	reason := ""
	switch {
	case resp.Fe() != 0:
		reason = ReasonFraming
	case resp.AckError() != 0:
		reason = ReasonAck
	case resp.TimeoutError() != 0:
		reason = ReasonTimeout
	case resp.BusConflictError() != 0:
		reason = ReasonBusConflict
	case resp.Flushed() != 0:
		reason = ReasonFlushed
	case resp.Ti() != ti:
		reason = ReasonTi
	case resp.Foe() != 0:
		reason = ReasonOverflow
	default:
		return nil
	}
	return maskAny(&ResponseError{Reason: reason, Reg: uint32(resp)})
}

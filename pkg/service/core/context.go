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

// Package core holds the registry tying masters, buses and devices of
// one device together and offering id-based lookup, tuning and
// teardown.
package core

import (
	"fmt"
	"io"
	"strings"
	"sync"

	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/rs/zerolog"

	"github.com/iomux/IOWorker/pkg/service/hw"
	"github.com/iomux/IOWorker/pkg/service/mdio"
	"github.com/iomux/IOWorker/pkg/service/smbus"
)

const (
	// DefaultSMBusBusCount is used when a master is registered without
	// an explicit bus count.
	DefaultSMBusBusCount = 8

	// Capacity of the bus-select fields in the request words.
	maxSMBusBusCount = 16
	maxMDIOBusCount  = 8
)

// Config holds the tunables of a context.
type Config struct {
	// MaxRetries bounds SMBus transaction attempts. Zero selects the
	// engine default.
	MaxRetries int
}

// Dependencies holds the external resources of a context.
type Dependencies struct {
	Log zerolog.Logger
	// IO is the register substrate of the device. If it implements
	// io.Closer it is closed on teardown.
	IO hw.RegisterIO
}

// Context owns the masters of one device. Registration, lookup and
// teardown are serialized by its mutex, which doubles as the tuning
// lock shared with the SMBus masters. The mutex is never held across a
// bus transaction.
type Context struct {
	Config
	Dependencies

	mu           sync.Mutex
	smbusMasters map[uint32]*smbus.Master
	smbusOrder   []uint32
	mdioMasters  map[uint16]*mdio.Master
	mdioOrder    []uint16
	adapters     map[int]*smbus.Bus
	nextAdapter  int
	closed       bool
}

// NewContext prepares an empty registry on the given register
// substrate.
func NewContext(cfg Config, deps Dependencies) *Context {
	return &Context{
		Config:       cfg,
		Dependencies: deps,
		smbusMasters: make(map[uint32]*smbus.Master),
		mdioMasters:  make(map[uint16]*mdio.Master),
		adapters:     make(map[int]*smbus.Bus),
	}
}

// AddSMBusMaster registers an SMBus master at the given base register
// address, creates buses 0..busCount-1 with consecutive global adapter
// numbers, and initializes the hardware. A busCount of 0 selects the
// default.
func (c *Context) AddSMBusMaster(base uint32, id uint32, busCount int) (*smbus.Master, error) {
	if busCount == 0 {
		busCount = DefaultSMBusBusCount
	}
	if busCount < 0 || busCount > maxSMBusBusCount {
		return nil, maskAny(InvalidParameterError)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, found := c.smbusMasters[id]; found {
		return nil, maskAny(AlreadyExistsError)
	}

	m := smbus.NewMaster(c.IO, base, id, c.MaxRetries, &c.mu, c.Log)
	assigned := make([]int, 0, busCount)
	for i := 0; i < busCount; i++ {
		bus, err := m.AddBus(uint8(i), c.nextAdapter)
		if err != nil {
			// Roll back the adapters handed out to this master.
			for _, nr := range assigned {
				delete(c.adapters, nr)
			}
			c.nextAdapter -= len(assigned)
			return nil, maskAny(err)
		}
		c.adapters[c.nextAdapter] = bus
		assigned = append(assigned, c.nextAdapter)
		c.nextAdapter++
	}
	m.Init()

	c.smbusMasters[id] = m
	c.smbusOrder = append(c.smbusOrder, id)
	mastersCurrent.WithLabelValues("smbus").Inc()
	c.Log.Info().Uint32("master", id).Int("buses", busCount).Msg("smbus master registered")
	return m, nil
}

// AddMDIOMaster registers an MDIO master at the given base register
// address with buses 0..busCount-1 and resets the hardware.
func (c *Context) AddMDIOMaster(base uint32, id uint16, busCount int, speed uint16) (*mdio.Master, error) {
	if busCount <= 0 || busCount > maxMDIOBusCount {
		return nil, maskAny(InvalidParameterError)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, found := c.mdioMasters[id]; found {
		return nil, maskAny(AlreadyExistsError)
	}

	m := mdio.NewMaster(c.IO, base, id, speed, c.Log)
	for i := 0; i < busCount; i++ {
		if _, err := m.AddBus(uint8(i)); err != nil {
			return nil, maskAny(err)
		}
	}
	m.Reset()

	c.mdioMasters[id] = m
	c.mdioOrder = append(c.mdioOrder, id)
	mastersCurrent.WithLabelValues("mdio").Inc()
	c.Log.Info().Uint16("master", id).Int("buses", busCount).Msg("mdio master registered")
	return m, nil
}

// AddMDIODevice registers a device on the given master and bus.
func (c *Context) AddMDIODevice(masterID uint16, busID uint8, devID, prtad, devad uint16, clause mdio.Clause) (*mdio.Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, found := c.mdioMasters[masterID]
	if !found {
		return nil, maskAny(NotFoundError)
	}
	bus, found := m.Bus(busID)
	if !found {
		return nil, maskAny(NotFoundError)
	}
	dev, err := bus.AddDevice(devID, prtad, devad, clause)
	if err != nil {
		if mdio.IsDeviceExists(err) {
			return nil, maskAny(AlreadyExistsError)
		}
		return nil, maskAny(err)
	}
	return dev, nil
}

// SMBus returns the bus with the given master and bus id.
func (c *Context) SMBus(masterID uint32, busID uint8) (*smbus.Bus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, found := c.smbusMasters[masterID]
	if !found {
		return nil, maskAny(NotFoundError)
	}
	bus, found := m.Bus(busID)
	if !found {
		return nil, maskAny(NotFoundError)
	}
	return bus, nil
}

// SMBusByAdapter returns the bus with the given global adapter number.
func (c *Context) SMBusByAdapter(adapterNr int) (*smbus.Bus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bus, found := c.adapters[adapterNr]
	if !found {
		return nil, maskAny(NotFoundError)
	}
	return bus, nil
}

// MDIOBus returns the bus with the given master and bus id.
func (c *Context) MDIOBus(masterID uint16, busID uint8) (*mdio.Bus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, found := c.mdioMasters[masterID]
	if !found {
		return nil, maskAny(NotFoundError)
	}
	bus, found := m.Bus(busID)
	if !found {
		return nil, maskAny(NotFoundError)
	}
	return bus, nil
}

// SetSMBusParams upserts the tuning entry for one target address on
// the given bus.
func (c *Context) SetSMBusParams(masterID uint32, busID uint8, p smbus.Params) error {
	bus, err := c.SMBus(masterID, busID)
	if err != nil {
		return maskAny(err)
	}
	// The bus takes the shared tuning lock itself.
	bus.SetParams(p)
	return nil
}

// SetSMBusParamsByAdapter upserts the tuning entry for one target
// address on the bus with the given global adapter number.
func (c *Context) SetSMBusParamsByAdapter(adapterNr int, p smbus.Params) error {
	bus, err := c.SMBusByAdapter(adapterNr)
	if err != nil {
		return maskAny(err)
	}
	bus.SetParams(p)
	return nil
}

// DumpSMBusTweaks renders all tuning entries, one line per entry, in
// master, bus, insertion order.
func (c *Context) DumpSMBusTweaks() string {
	c.mu.Lock()
	masters := make([]*smbus.Master, 0, len(c.smbusOrder))
	for _, id := range c.smbusOrder {
		masters = append(masters, c.smbusMasters[id])
	}
	c.mu.Unlock()

	var sb strings.Builder
	for _, m := range masters {
		for _, bus := range m.Buses() {
			for _, p := range bus.Tweaks() {
				fmt.Fprintf(&sb, "%d/%d/%02x: adap=%d t=%d datr=%d datw=%d ed=%d\n",
					m.ID(), bus.ID(), p.Addr, bus.AdapterNr(), p.T, p.Datr, p.Datw, p.Ed)
			}
		}
	}
	return sb.String()
}

// Close tears the registry down: devices and buses go with their
// masters, MDIO masters first, then SMBus masters, then the register
// substrate. Idempotent.
func (c *Context) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	mdioMasters := make([]*mdio.Master, 0, len(c.mdioOrder))
	for _, id := range c.mdioOrder {
		mdioMasters = append(mdioMasters, c.mdioMasters[id])
	}
	smbusMasters := make([]*smbus.Master, 0, len(c.smbusOrder))
	for _, id := range c.smbusOrder {
		smbusMasters = append(smbusMasters, c.smbusMasters[id])
	}
	c.mdioMasters = make(map[uint16]*mdio.Master)
	c.mdioOrder = nil
	c.smbusMasters = make(map[uint32]*smbus.Master)
	c.smbusOrder = nil
	c.adapters = make(map[int]*smbus.Bus)
	c.mu.Unlock()

	var ae aerr.AggregateError
	for _, m := range mdioMasters {
		m.Close()
	}
	for _, m := range smbusMasters {
		m.Close()
	}
	mastersCurrent.WithLabelValues("mdio").Sub(float64(len(mdioMasters)))
	mastersCurrent.WithLabelValues("smbus").Sub(float64(len(smbusMasters)))
	if closer, ok := c.IO.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			ae.Add(err)
		}
	}
	return ae.AsError()
}

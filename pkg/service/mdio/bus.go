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

// Bus is one logical MDIO segment multiplexed through a master.
type Bus struct {
	master *Master
	id     uint8

	devices  map[uint16]*Device
	devOrder []uint16
}

// Device is one MDIO device attached to a bus.
type Device struct {
	bus    *Bus
	id     uint16
	prtad  uint16
	devad  uint16
	clause Clause
}

// ID returns the bus id within its master.
func (b *Bus) ID() uint8 { return b.id }

// Master returns the owning master.
func (b *Bus) Master() *Master { return b.master }

// AddDevice registers a device on this bus.
func (b *Bus) AddDevice(id, prtad, devad uint16, clause Clause) (*Device, error) {
	if _, found := b.devices[id]; found {
		return nil, maskAny(DeviceExistsError)
	}
	dev := &Device{
		bus:    b,
		id:     id,
		prtad:  prtad,
		devad:  devad,
		clause: clause,
	}
	b.devices[id] = dev
	b.devOrder = append(b.devOrder, id)
	b.master.log.Debug().
		Uint16("device", id).
		Uint16("prtad", prtad).
		Uint16("devad", devad).
		Uint8("clause", uint8(clause)).
		Uint8("bus", b.id).
		Msg("mdio device added")
	return dev, nil
}

// Device returns the device with the given id.
// Returns false if not found.
func (b *Bus) Device(id uint16) (*Device, bool) {
	dev, found := b.devices[id]
	return dev, found
}

// Devices returns all devices of this bus in registration order.
func (b *Bus) Devices() []*Device {
	result := make([]*Device, 0, len(b.devOrder))
	for _, id := range b.devOrder {
		result = append(result, b.devices[id])
	}
	return result
}

// do performs one logical register access as a two-phase exchange:
// an address-set phase latching the register number, then the read or
// write phase. Both phases run under the master lock so they cannot
// interleave with a concurrent caller's exchange.
func (b *Bus) do(deviceID uint16, op Op, regnum uint16, value uint16) (uint16, error) {
	m := b.master
	prtad := uint8(deviceID >> 5 & 0x1f)
	devad := uint8(deviceID & 0x1f)
	clause := Clause22
	if deviceID&clause45Flag != 0 {
		clause = Clause45
	}

	m.log.Debug().
		Uint8("op", uint8(op)).
		Uint8("bus", b.id).
		Uint8("clause", uint8(clause)).
		Uint8("prtad", prtad).
		Uint8("devad", devad).
		Uint16("regnum", regnum).
		Uint16("value", value).
		Msg("mdio access")
	transactionsTotal.WithLabelValues(m.idLabel).Inc()

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, err := m.request(b.id, OpSet, clause, prtad, devad, regnum); err != nil {
		transactionFailuresTotal.WithLabelValues(m.idLabel).Inc()
		return 0, maskAny(err)
	}
	result, err := m.request(b.id, op, clause, prtad, devad, value)
	if err != nil {
		transactionFailuresTotal.WithLabelValues(m.idLabel).Inc()
		return 0, maskAny(err)
	}
	return result, nil
}

// Read returns the content of the given register of the device
// identified by deviceID (see DeviceID).
func (b *Bus) Read(deviceID uint16, regnum uint16) (uint16, error) {
	return b.do(deviceID, OpRead, regnum, 0)
}

// Write stores a value in the given register of the device identified
// by deviceID (see DeviceID).
func (b *Bus) Write(deviceID uint16, regnum uint16, value uint16) error {
	_, err := b.do(deviceID, OpWrite, regnum, value)
	return err
}

// ID returns the device id within its bus.
func (d *Device) ID() uint16 { return d.id }

// Read returns the content of the given device register.
func (d *Device) Read(regnum uint16) (uint16, error) {
	return d.bus.Read(DeviceID(d.prtad, d.devad, d.clause), regnum)
}

// Write stores a value in the given device register.
func (d *Device) Write(regnum uint16, value uint16) error {
	return d.bus.Write(DeviceID(d.prtad, d.devad, d.clause), regnum, value)
}

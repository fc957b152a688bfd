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

// Bus is one logical SMBus channel multiplexed through a master.
type Bus struct {
	master    *Master
	id        uint8
	adapterNr int

	// Tuning entries, guarded by the master's shared config lock.
	params    map[uint16]Params
	addrOrder []uint16
}

// ID returns the bus id within its master.
func (b *Bus) ID() uint8 { return b.id }

// AdapterNr returns the global adapter index assigned at registration.
func (b *Bus) AdapterNr() int { return b.adapterNr }

// Master returns the owning master.
func (b *Bus) Master() *Master { return b.master }

// SetParams upserts the tuning entry for the address in p. At most one
// entry exists per address; the last write wins.
func (b *Bus) SetParams(p Params) {
	b.master.cfg.Lock()
	defer b.master.cfg.Unlock()

	if _, found := b.params[p.Addr]; !found {
		b.addrOrder = append(b.addrOrder, p.Addr)
	}
	b.params[p.Addr] = p
}

// Tweaks returns the tuning entries of this bus in insertion order.
func (b *Bus) Tweaks() []Params {
	b.master.cfg.Lock()
	defer b.master.cfg.Unlock()

	result := make([]Params, 0, len(b.addrOrder))
	for _, addr := range b.addrOrder {
		result = append(result, b.params[addr])
	}
	return result
}

// activeParams returns the tuning for the given address, or the
// defaults. Evaluated fresh on every transaction.
func (b *Bus) activeParams(addr uint16) Params {
	b.master.cfg.Lock()
	defer b.master.cfg.Unlock()

	if p, found := b.params[addr]; found {
		return p
	}
	return DefaultParams
}

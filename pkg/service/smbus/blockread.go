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

import "time"

// Polling step while waiting for the block-read FIFO to fill.
const blockReadTimeoutStep = time.Millisecond

// blockReadBudget returns the polling budget, in steps, for the given
// timing class.
func blockReadBudget(t uint8) int {
	if t > 3 {
		return 100
	}
	return [...]int{5, 35 + 5, 500 + 5, 1000 + 5}[t]
}

// blockRead performs a hardware-assisted block read: a fixed three-step
// header tagged as a block read, a bounded wait for the device to
// collect the block, then a response walk that learns the block length
// from the device and extends itself accordingly.
//
// Only valid when the master firmware supports block-read mode.
func (b *Bus) blockRead(addr uint16, command uint8, data []byte) error {
	m := b.master
	params := b.activeParams(addr)
	ss := 3

	var req RequestReg
	req.SetBs(b.id)
	req.SetT(params.T)
	req.SetSt(1)
	req.SetSs(uint8(ss))
	req.SetD(uint8(addr) << 1)
	req.SetDod(1)
	for i := 0; i < ss; i++ {
		if i == 1 {
			req.SetSt(0)
			req.SetSs(0)
			req.SetD(command)
		}
		if i == 2 {
			req.SetBr(1)
			req.SetSt(1)
			req.SetD(uint8(addr)<<1 | 1)
		}
		if req.Dod() == 0 && req.Sp() == 0 {
			req.SetDa(1)
		} else {
			req.SetDa(0)
		}
		m.writeReq(req)
		req.SetTi(req.Ti() + 1)
	}

	ss++
	budget := blockReadBudget(params.T)
	elapsed := 0
	cs := m.readCS()
	for cs.Brb() != 0 && elapsed < budget {
		time.Sleep(blockReadTimeoutStep)
		elapsed++
		cs = m.readCS()
	}
	if elapsed == budget {
		m.log.Warn().
			Int("timeout", budget).
			Stringer("cs", cs).
			Uint16("addr", addr).
			Uint8("bus", b.id).
			Msg("smbus response timeout")
		return maskAny(BlockReadTimeoutError)
	}

	ti := uint8(0)
	for i := 0; i < ss; i++ {
		resp := m.readResp()
		if err := checkResp(resp, ti); err != nil {
			return err
		}
		ti = (ti + 1) & 0xf
		if i == 3 {
			// The first data word reports how many more follow.
			ss += int(resp.D())
		}
		if i >= 3 {
			if i-3 >= len(data) {
				m.log.Warn().
					Uint16("addr", addr).
					Uint8("reg", command).
					Int("data_size", len(data)).
					Uint8("bus", b.id).
					Msg("smbus read failed (output too big)")
				return maskAny(BufferTooShortError)
			}
			data[i-3] = resp.D()
		}
	}

	return nil
}

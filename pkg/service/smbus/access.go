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
	"github.com/pkg/errors"
)

// Direction of a transaction, matching the read bit on the wire.
type Direction uint8

const (
	Write Direction = 0
	Read  Direction = 1
)

// Op is the operation size class of a transaction.
type Op uint8

const (
	// Quick sends address and direction only.
	Quick Op = iota
	// Byte exchanges a single byte without a command cycle.
	Byte
	// ByteData exchanges one byte at a command register.
	ByteData
	// WordData exchanges a 16-bit little-endian word at a command register.
	WordData
	// BlockData exchanges a length-prefixed block; on reads the target
	// reports the length.
	BlockData
	// I2CBlockData exchanges a length-prefixed buffer; the length comes
	// from the first buffer byte.
	I2CBlockData
	// I2CBlockDataMsg exchanges a raw block whose length is the buffer
	// length.
	I2CBlockDataMsg
)

func (o Op) String() string {
	switch o {
	case Quick:
		return "quick"
	case Byte:
		return "byte"
	case ByteData:
		return "byte-data"
	case WordData:
		return "word-data"
	case BlockData:
		return "block-data"
	case I2CBlockData:
		return "i2c-block"
	case I2CBlockDataMsg:
		return "i2c-block-msg"
	}
	return "unknown"
}

// stepCount returns the number of protocol steps needed for the given
// operation, plus the offset of the first payload byte in data.
func stepCount(op Op, dir Direction, data []byte) (ss int, dataOffset int, err error) {
	switch op {
	case Quick:
		return 1, 0, nil
	case Byte:
		return 2, 0, nil
	case ByteData:
		if dir == Write {
			return 3, 0, nil
		}
		return 4, 0, nil
	case WordData:
		if dir == Write {
			return 4, 0, nil
		}
		return 5, 0, nil
	case I2CBlockDataMsg:
		if dir == Write {
			return 2 + len(data), 0, nil
		}
		return 3 + len(data), 0, nil
	case I2CBlockData:
		if len(data) == 0 {
			return 0, 0, maskAny(errors.New("missing block length"))
		}
		if dir == Write {
			return 2 + int(data[0]), 1, nil
		}
		return 3 + int(data[0]), 1, nil
	case BlockData:
		if len(data) == 0 {
			return 0, 0, maskAny(errors.New("missing block length"))
		}
		if dir == Write {
			return 3 + int(data[0]), 0, nil
		}
		// Read length is discovered at run time, either by the
		// hardware block-read fast path or by a byte-data probe.
		return 4 + int(data[0]), 0, nil
	}
	return 0, 0, maskAny(errors.Errorf("unsupported operation %d", op))
}

// checkCapacity validates that data can hold the fixed-size payload of
// the operation before any request step is emitted.
func checkCapacity(op Op, dir Direction, data []byte) error {
	need := 0
	switch op {
	case Byte:
		if dir == Read {
			need = 1
		}
	case ByteData:
		need = 1
	case WordData:
		need = 2
	case I2CBlockData:
		if len(data) == 0 {
			return maskAny(errors.New("missing block length"))
		}
		need = 1 + int(data[0])
	case BlockData:
		if dir == Write {
			if len(data) == 0 {
				return maskAny(errors.New("missing block length"))
			}
			need = 1 + int(data[0])
		}
	}
	if len(data) < need {
		return maskAny(BufferTooShortError)
	}
	return nil
}

// Access performs one SMBus transaction on this bus. For reads, the
// result is stored in data; len(data) bounds how much the target may
// return. Protocol failures are retried up to the master's retry bound;
// capacity and block-read-timeout failures are surfaced immediately.
func (b *Bus) Access(addr uint16, dir Direction, command uint8, op Op, data []byte) error {
	m := b.master
	m.log.Debug().
		Uint16("addr", addr).
		Uint8("reg", command).
		Stringer("op", op).
		Int("data_size", len(data)).
		Bool("read", dir == Read).
		Uint8("bus", b.id).
		Msg("smbus access")
	transactionsTotal.WithLabelValues(m.idLabel).Inc()

	attempt := 0
	for {
		err := b.do(addr, dir, command, op, data)
		if err == nil || !IsResponse(err) {
			if err != nil {
				transactionFailuresTotal.WithLabelValues(m.idLabel).Inc()
			}
			return err
		}
		attempt++
		if attempt >= m.maxRetries {
			transactionFailuresTotal.WithLabelValues(m.idLabel).Inc()
			m.log.Warn().
				Err(err).
				Uint16("addr", addr).
				Uint8("reg", command).
				Stringer("op", op).
				Int("attempts", attempt).
				Msg("smbus access failed")
			return err
		}
		transactionRetriesTotal.WithLabelValues(m.idLabel).Inc()
		m.log.Debug().Msgf("smbus retrying... %d/%d", attempt, m.maxRetries)
	}
}

// do runs one attempt of the transaction under the master lock.
func (b *Bus) do(addr uint16, dir Direction, command uint8, op Op, data []byte) error {
	m := b.master
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return b.doImpl(addr, dir, command, op, data)
}

// doImpl performs one attempt. Any failure resets the master so it is
// left in a known-clean state regardless of outcome.
func (b *Bus) doImpl(addr uint16, dir Direction, command uint8, op Op, data []byte) error {
	m := b.master

	if err := checkCapacity(op, dir, data); err != nil {
		return err
	}

	if op == BlockData && dir == Read {
		if m.brSupported {
			if err := b.blockRead(addr, command, data); err != nil {
				m.reset()
				return errors.Wrap(err, "block read failed")
			}
			return nil
		}
		// The firmware offers no block-read mode: probe the length the
		// target reports with a one-byte read, then run the transfer as
		// a fixed-size block of that length.
		var probe [1]byte
		if err := b.exchange(addr, Read, command, ByteData, 4, 0, probe[:]); err != nil {
			m.reset()
			return errors.Wrap(err, "block size")
		}
		if len(data) == 0 {
			m.reset()
			return maskAny(BufferTooShortError)
		}
		data[0] = probe[0]
	}

	ss, dataOffset, err := stepCount(op, dir, data)
	if err != nil {
		return err
	}
	if err := b.exchange(addr, dir, command, op, ss, dataOffset, data); err != nil {
		m.reset()
		return err
	}
	return nil
}

// exchange emits the request steps of one transaction and drains the
// matching response steps, validating each against the expected
// transaction id and error flags.
func (b *Bus) exchange(addr uint16, dir Direction, command uint8, op Op, ss int, dataOffset int, data []byte) error {
	m := b.master
	params := b.activeParams(addr)

	var req RequestReg
	req.SetBs(b.id)
	req.SetT(params.T)

	// Write phase. The first step carries the start flag and the
	// addressed target; the last step carries the stop flag and the
	// tuning-selected data width.
	req.SetSt(1)
	req.SetSs(uint8(ss))
	if ss <= 2 {
		req.SetD(uint8(addr)<<1 | uint8(dir))
	} else {
		req.SetD(uint8(addr) << 1)
	}
	req.SetDod(1)
	for i := 0; i < ss; i++ {
		if i == ss-1 {
			req.SetSp(1)
			req.SetEd(params.Ed)
			if dir == Write {
				req.SetDat(params.Datw)
			} else {
				req.SetDat(params.Datr)
			}
		}
		if i == 1 {
			req.SetSs(0)
			req.SetD(command)
			if ss == 2 && dir == Read {
				req.SetDod(0)
			} else {
				req.SetDod(1)
			}
		}
		if i == 2 && dir == Read {
			req.SetSt(1)
			req.SetD(uint8(addr)<<1 | 1)
		}
		if i >= 2 && dir == Write {
			req.SetD(data[dataOffset+i-2])
		}
		if i == 3 && dir == Read {
			req.SetDod(0)
		}
		if req.Dod() == 0 && req.Sp() == 0 {
			req.SetDa(1)
		} else {
			req.SetDa(0)
		}
		m.writeReq(req)
		req.SetTi(req.Ti() + 1)
		req.SetSt(0)
	}

	// Response phase: one word per step, carrying the same id sequence.
	ti := uint8(0)
	for i := 0; i < ss; i++ {
		resp := m.readResp()
		if err := checkResp(resp, ti); err != nil {
			return err
		}
		ti = (ti + 1) & 0xf
		if dir != Read {
			continue
		}
		switch op {
		case Byte, ByteData:
			if i == ss-1 {
				data[0] = resp.D()
			}
		case WordData:
			if i == ss-2 {
				data[0] = resp.D()
			} else if i == ss-1 {
				data[1] = resp.D()
			}
		default:
			if i >= 3 {
				idx := i - 3
				if op == I2CBlockData {
					idx = i - 2
				}
				if idx >= len(data) {
					return maskAny(BufferTooShortError)
				}
				data[idx] = resp.D()
			}
		}
	}
	return nil
}

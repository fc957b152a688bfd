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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestRegLayout(t *testing.T) {
	var r RequestReg

	r.SetD(0xab)
	assert.Equal(t, uint32(0x000000ab), uint32(r))
	r = 0
	r.SetSs(0x3f)
	assert.Equal(t, uint32(0x3f)<<8, uint32(r))
	r = 0
	r.SetEd(1)
	assert.Equal(t, uint32(1)<<14, uint32(r))
	r = 0
	r.SetBr(1)
	assert.Equal(t, uint32(1)<<15, uint32(r))
	r = 0
	r.SetDat(3)
	assert.Equal(t, uint32(3)<<16, uint32(r))
	r = 0
	r.SetT(3)
	assert.Equal(t, uint32(3)<<18, uint32(r))
	r = 0
	r.SetSp(1)
	assert.Equal(t, uint32(1)<<20, uint32(r))
	r = 0
	r.SetDa(1)
	assert.Equal(t, uint32(1)<<21, uint32(r))
	r = 0
	r.SetDod(1)
	assert.Equal(t, uint32(1)<<22, uint32(r))
	r = 0
	r.SetSt(1)
	assert.Equal(t, uint32(1)<<23, uint32(r))
	r = 0
	r.SetBs(0xf)
	assert.Equal(t, uint32(0xf)<<24, uint32(r))
	r = 0
	r.SetTi(0xf)
	assert.Equal(t, uint32(0xf)<<28, uint32(r))

	// Fields must not clobber their neighbors.
	r = 0
	r.SetD(0xff)
	r.SetSs(0x2a)
	r.SetTi(0x5)
	assert.Equal(t, uint8(0xff), r.D())
	assert.Equal(t, uint8(0x2a), r.Ss())
	assert.Equal(t, uint8(0x5), r.Ti())

	// Setters mask oversized values.
	r = 0
	r.SetTi(0x1f)
	assert.Equal(t, uint8(0xf), r.Ti())
	assert.Equal(t, uint8(0), r.Bs())
}

func TestCtrlStatusRegLayout(t *testing.T) {
	var r CtrlStatusReg

	r.SetFs(0x3ff)
	assert.Equal(t, uint32(0x3ff), uint32(r))
	r = 0
	r.SetFoe(1)
	assert.Equal(t, uint32(1)<<13, uint32(r))
	r = 0
	r.SetBrb(1)
	assert.Equal(t, uint32(1)<<26, uint32(r))
	r = 0
	r.SetVer(3)
	assert.Equal(t, uint32(3)<<28, uint32(r))
	r = 0
	r.SetFe(1)
	assert.Equal(t, uint32(1)<<30, uint32(r))
	r = 0
	r.SetReset(1)
	assert.Equal(t, uint32(1)<<31, uint32(r))

	r = CtrlStatusReg(0x80000000 | 2<<28 | 42)
	assert.Equal(t, uint8(1), r.Reset())
	assert.Equal(t, uint8(2), r.Ver())
	assert.Equal(t, uint16(42), r.Fs())
}

func TestResponseRegLayout(t *testing.T) {
	var r ResponseReg

	r.SetD(0xcd)
	assert.Equal(t, uint32(0x000000cd), uint32(r))
	r = 0
	r.SetBusConflictError(1)
	assert.Equal(t, uint32(1)<<8, uint32(r))
	r = 0
	r.SetTimeoutError(1)
	assert.Equal(t, uint32(1)<<9, uint32(r))
	r = 0
	r.SetAckError(1)
	assert.Equal(t, uint32(1)<<10, uint32(r))
	r = 0
	r.SetFlushed(1)
	assert.Equal(t, uint32(1)<<11, uint32(r))
	r = 0
	r.SetTi(0xf)
	assert.Equal(t, uint32(0xf)<<12, uint32(r))
	r = 0
	r.SetSs(0x3f)
	assert.Equal(t, uint32(0x3f)<<16, uint32(r))
	r = 0
	r.SetFoe(1)
	assert.Equal(t, uint32(1)<<30, uint32(r))
	r = 0
	r.SetFe(1)
	assert.Equal(t, uint32(1)<<31, uint32(r))
}

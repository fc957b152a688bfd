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

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepCount(t *testing.T) {
	tests := []struct {
		op         Op
		dir        Direction
		data       []byte
		ss         int
		dataOffset int
	}{
		{Quick, Write, nil, 1, 0},
		{Quick, Read, nil, 1, 0},
		{Byte, Write, nil, 2, 0},
		{Byte, Read, nil, 2, 0},
		{ByteData, Write, []byte{0}, 3, 0},
		{ByteData, Read, []byte{0}, 4, 0},
		{WordData, Write, []byte{0, 0}, 4, 0},
		{WordData, Read, []byte{0, 0}, 5, 0},
		{I2CBlockDataMsg, Write, make([]byte, 7), 9, 0},
		{I2CBlockDataMsg, Read, make([]byte, 7), 10, 0},
		{I2CBlockDataMsg, Write, nil, 2, 0},
		{I2CBlockData, Write, []byte{3, 1, 2, 3}, 5, 1},
		{I2CBlockData, Read, []byte{3, 0, 0, 0}, 6, 1},
		{BlockData, Write, []byte{3, 1, 2, 3}, 6, 0},
		{BlockData, Read, []byte{3, 0, 0, 0}, 7, 0},
		{BlockData, Write, append([]byte{255}, make([]byte, 255)...), 258, 0},
	}
	for _, test := range tests {
		ss, dataOffset, err := stepCount(test.op, test.dir, test.data)
		require.NoError(t, err, "%s/%d", test.op, test.dir)
		assert.Equal(t, test.ss, ss, "%s/%d", test.op, test.dir)
		assert.Equal(t, test.dataOffset, dataOffset, "%s/%d", test.op, test.dir)
	}

	// Block operations without a length byte cannot be sized.
	_, _, err := stepCount(BlockData, Write, nil)
	assert.Error(t, err)
	_, _, err = stepCount(I2CBlockData, Read, nil)
	assert.Error(t, err)
	_, _, err = stepCount(Op(99), Write, nil)
	assert.Error(t, err)
}

func TestCheckResp(t *testing.T) {
	reason := func(err error) string {
		var respErr *ResponseError
		require.ErrorAs(t, err, &respErr)
		return respErr.Reason
	}

	var r ResponseReg
	assert.NoError(t, checkResp(r, 0))

	// Flags are prioritized: a framing error wins over everything.
	r = 0
	r.SetFe(1)
	r.SetAckError(1)
	r.SetTimeoutError(1)
	assert.Equal(t, ReasonFraming, reason(checkResp(r, 0)))

	r = 0
	r.SetAckError(1)
	r.SetTimeoutError(1)
	assert.Equal(t, ReasonAck, reason(checkResp(r, 0)))

	r = 0
	r.SetTimeoutError(1)
	assert.Equal(t, ReasonTimeout, reason(checkResp(r, 0)))

	r = 0
	r.SetBusConflictError(1)
	assert.Equal(t, ReasonBusConflict, reason(checkResp(r, 0)))

	r = 0
	r.SetFlushed(1)
	assert.Equal(t, ReasonFlushed, reason(checkResp(r, 0)))

	// The id check runs after the error flags.
	r = 0
	r.SetTi(3)
	assert.Equal(t, ReasonTi, reason(checkResp(r, 4)))
	assert.NoError(t, checkResp(r, 3))

	r = 0
	r.SetTi(5)
	r.SetFoe(1)
	assert.Equal(t, ReasonOverflow, reason(checkResp(r, 5)))
}

func TestResponseErrorClass(t *testing.T) {
	err := maskAny(&ResponseError{Reason: ReasonAck, Reg: 0x400})
	assert.True(t, IsResponse(err))
	assert.True(t, IsResponse(errors.Wrap(err, "attempt 1")))
	assert.False(t, IsResponse(BufferTooShortError))
	assert.False(t, IsResponse(BlockReadTimeoutError))
	assert.Contains(t, err.Error(), "ack")
}

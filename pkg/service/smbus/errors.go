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
	"fmt"

	"github.com/pkg/errors"
)

var (
	// BufferTooShortError indicates the caller buffer cannot hold the
	// data the device is returning. Never retried.
	BufferTooShortError = errors.New("buffer too short")
	IsBufferTooShort    = isErrorFunc(BufferTooShortError)
	// BlockReadTimeoutError indicates the hardware block read never
	// signalled data within its timing budget. Never retried.
	BlockReadTimeoutError = errors.New("block read timeout")
	IsBlockReadTimeout    = isErrorFunc(BlockReadTimeoutError)
	// BusExistsError indicates a duplicate bus id on a master.
	BusExistsError = errors.New("bus already exists")
	IsBusExists    = isErrorFunc(BusExistsError)

	maskAny = errors.WithStack
)

func isErrorFunc(typeOfError error) func(err error) bool {
	return func(err error) bool {
		return err == typeOfError || errors.Cause(err) == typeOfError
	}
}

// Reason tags for protocol-level failures, matching the error flags of
// the response word plus the two validation failures.
const (
	ReasonFraming     = "fe"
	ReasonAck         = "ack"
	ReasonTimeout     = "timeout"
	ReasonBusConflict = "conflict"
	ReasonFlushed     = "flush"
	ReasonTi          = "tid"
	ReasonOverflow    = "overflow"
)

// ResponseError is a protocol-level failure reported by (or detected
// on) a response word. The master is reset before it is surfaced, and
// the transaction is eligible for the outer retry bound.
type ResponseError struct {
	// Reason is the short tag identifying the failed check.
	Reason string
	// Reg is the raw response word, kept for diagnostics.
	Reg uint32
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("bad response: %s (reg=0x%08x)", e.Reason, e.Reg)
}

// IsResponse returns true if the given error is a protocol-level
// response failure, the only class subject to transaction retries.
func IsResponse(err error) bool {
	_, ok := errors.Cause(err).(*ResponseError)
	return ok
}

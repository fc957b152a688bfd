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

import "github.com/pkg/errors"

var (
	// WaitTimeoutError indicates the response-count poll never signalled
	// completion within the wait window. Terminal; never retried.
	WaitTimeoutError = errors.New("wait response timeout")
	IsWaitTimeout    = isErrorFunc(WaitTimeoutError)
	// UnsupportedError indicates the master reported a response count it
	// should never produce.
	UnsupportedError = errors.New("unsupported response count")
	IsUnsupported    = isErrorFunc(UnsupportedError)
	// ResponseError indicates a failed response status or framing error.
	ResponseError = errors.New("bad response")
	IsResponse    = isErrorFunc(ResponseError)
	// BusExistsError indicates a duplicate bus id on a master.
	BusExistsError = errors.New("bus already exists")
	IsBusExists    = isErrorFunc(BusExistsError)
	// DeviceExistsError indicates a duplicate device id on a bus.
	DeviceExistsError = errors.New("device already exists")
	IsDeviceExists    = isErrorFunc(DeviceExistsError)

	maskAny = errors.WithStack
)

func isErrorFunc(typeOfError error) func(err error) bool {
	return func(err error) bool {
		return err == typeOfError || errors.Cause(err) == typeOfError
	}
}

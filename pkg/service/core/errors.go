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

package core

import (
	"github.com/pkg/errors"
)

var (
	// AlreadyExistsError indicates a master, bus or device id that is
	// already registered.
	AlreadyExistsError = errors.New("already exists")
	IsAlreadyExists    = isErrorFunc(AlreadyExistsError)
	// NotFoundError indicates a lookup for an id that is not registered.
	NotFoundError = errors.New("not found")
	IsNotFound    = isErrorFunc(NotFoundError)
	// InvalidParameterError indicates a malformed configuration input.
	InvalidParameterError = errors.New("invalid parameter")
	IsInvalidParameter    = isErrorFunc(InvalidParameterError)

	maskAny = errors.WithStack
)

func isErrorFunc(typeOfError error) func(err error) bool {
	return func(err error) bool {
		return err == typeOfError || errors.Cause(err) == typeOfError
	}
}

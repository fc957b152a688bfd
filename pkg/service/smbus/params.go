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

// Params are the per-target-address tuning overrides consulted when
// building request words.
type Params struct {
	// Addr is the target address the override applies to.
	Addr uint16
	// T is the timing class (0-3 select fixed delay tables, above 3
	// means slow/unspecified).
	T uint8
	// Datw is the data-width code applied on the last step of writes.
	Datw uint8
	// Datr is the data-width code applied on the last step of reads.
	Datr uint8
	// Ed is the extra-delay flag.
	Ed uint8
}

// DefaultParams apply to every address without an override.
var DefaultParams = Params{
	T:    1,
	Datw: 3,
	Datr: 3,
	Ed:   0,
}

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

package hw

// RegisterIO provides synchronous access to the 32-bit registers of the
// controller, addressed by byte offset from the start of its register
// window. Accesses are direct device-memory operations; there is no
// buffering, caching or retrying at this level.
type RegisterIO interface {
	// Read32 returns the register at the given byte offset.
	Read32(offset uint32) uint32
	// Write32 stores a value in the register at the given byte offset.
	Write32(offset uint32, value uint32)
}

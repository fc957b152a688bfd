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

package mdio_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iomux/IOWorker/pkg/service/hw/sim"
	"github.com/iomux/IOWorker/pkg/service/mdio"
)

const testBase = 0x9000

type testRig struct {
	device    *sim.Device
	simMaster *sim.MDIOMaster
	master    *mdio.Master
	bus       *mdio.Bus
	phy       *sim.Phy
}

func newTestRig(t *testing.T) *testRig {
	device := sim.NewDevice()
	simMaster := device.AddMDIOMaster(testBase)
	phy := simMaster.AddPhy(0, 3, 5)

	master := mdio.NewMaster(device, testBase, 1, 2, zerolog.Nop())
	bus, err := master.AddBus(0)
	require.NoError(t, err)
	master.Reset()

	return &testRig{
		device:    device,
		simMaster: simMaster,
		master:    master,
		bus:       bus,
		phy:       phy,
	}
}

func TestBusReadWrite(t *testing.T) {
	rig := newTestRig(t)
	id := mdio.DeviceID(3, 5, mdio.Clause45)

	require.NoError(t, rig.bus.Write(id, 0x1000, 0xabcd))
	assert.Equal(t, uint16(0xabcd), rig.phy.Reg(0x1000))

	rig.phy.SetReg(0x1001, 0x55aa)
	value, err := rig.bus.Read(id, 0x1001)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x55aa), value)
}

func TestDeviceReadWrite(t *testing.T) {
	rig := newTestRig(t)
	dev, err := rig.bus.AddDevice(7, 3, 5, mdio.Clause45)
	require.NoError(t, err)

	require.NoError(t, dev.Write(0x2000, 0x0102))
	assert.Equal(t, uint16(0x0102), rig.phy.Reg(0x2000))

	value, err := dev.Read(0x2000)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), value)
}

func TestDuplicateDevice(t *testing.T) {
	rig := newTestRig(t)
	_, err := rig.bus.AddDevice(7, 3, 5, mdio.Clause22)
	require.NoError(t, err)
	_, err = rig.bus.AddDevice(7, 3, 6, mdio.Clause22)
	require.Error(t, err)
	assert.True(t, mdio.IsDeviceExists(err))
}

func TestMissingPhy(t *testing.T) {
	rig := newTestRig(t)

	_, err := rig.bus.Read(mdio.DeviceID(9, 9, mdio.Clause22), 0)
	require.Error(t, err)
	assert.True(t, mdio.IsResponse(err))
}

func TestCorruptedResponse(t *testing.T) {
	rig := newTestRig(t)
	rig.simMaster.OnResponse = func(word uint32) uint32 {
		resp := mdio.ResponseReg(word)
		resp.SetFe(1)
		return uint32(resp)
	}

	err := rig.bus.Write(mdio.DeviceID(3, 5, mdio.Clause22), 0, 1)
	require.Error(t, err)
	assert.True(t, mdio.IsResponse(err))
}

func TestWaitTimeoutIsTerminal(t *testing.T) {
	rig := newTestRig(t)
	rig.simMaster.Stall = true

	_, err := rig.bus.Read(mdio.DeviceID(3, 5, mdio.Clause22), 0)
	require.Error(t, err)
	assert.True(t, mdio.IsWaitTimeout(err))
}

func TestUnexpectedResponseCount(t *testing.T) {
	rig := newTestRig(t)
	rig.simMaster.BadResCount = 7

	_, err := rig.bus.Read(mdio.DeviceID(3, 5, mdio.Clause22), 0)
	require.Error(t, err)
	assert.True(t, mdio.IsUnsupported(err))
}

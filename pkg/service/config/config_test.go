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

package config_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iomux/IOWorker/pkg/service/config"
	"github.com/iomux/IOWorker/pkg/service/core"
	"github.com/iomux/IOWorker/pkg/service/hw/sim"
)

func newTestContext(t *testing.T) *core.Context {
	device := sim.NewDevice()
	device.AddSMBusMaster(0x8000)
	device.AddMDIOMaster(0xa000)
	ctx := core.NewContext(core.Config{}, core.Dependencies{
		Log: zerolog.Nop(),
		IO:  device,
	})
	t.Cleanup(func() { ctx.Close() })
	return ctx
}

func TestParseNewObjects(t *testing.T) {
	ctx := newTestContext(t)

	err := config.ParseNewObjects(ctx, `
# declarations applied in order
smbus_master 0x8000 1 2
mdio_master 0xa000 2 4 1
mdio_device 2 0 7 3 5 45
`)
	require.NoError(t, err)

	bus, err := ctx.SMBus(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, bus.AdapterNr())

	mbus, err := ctx.MDIOBus(2, 0)
	require.NoError(t, err)
	dev, found := mbus.Device(7)
	require.True(t, found)
	assert.Equal(t, uint16(7), dev.ID())
}

func TestParseNewObjectsDefaultBusCount(t *testing.T) {
	ctx := newTestContext(t)

	require.NoError(t, config.ParseNewObjects(ctx, "smbus_master 0x8000 1\n"))
	m, err := ctx.SMBus(1, 7)
	require.NoError(t, err)
	assert.Equal(t, uint8(7), m.ID())
}

func TestParseNewObjectsRejects(t *testing.T) {
	tests := []string{
		"gadget 0x8000 1",
		"smbus_master 0x8000",
		"smbus_master 0x8000 1 2 3 4",
		"smbus_master zzz 1",
		"mdio_master 0xa000 1 4",
		"mdio_device 2 0 7 3 5 17",
		"mdio_device 2 0 7 3 5",
	}
	for _, line := range tests {
		ctx := newTestContext(t)
		err := config.ParseNewObjects(ctx, line)
		require.Error(t, err, line)
		assert.True(t, core.IsInvalidParameter(err), line)
	}
}

func TestParseNewObjectsStopsAtFirstFailure(t *testing.T) {
	ctx := newTestContext(t)

	err := config.ParseNewObjects(ctx, "smbus_master 0x8000 1 2\nbogus line here\n")
	require.Error(t, err)
	// The first line stays applied.
	_, lookupErr := ctx.SMBus(1, 0)
	assert.NoError(t, lookupErr)
}

func TestParseSMBusTweaks(t *testing.T) {
	ctx := newTestContext(t)
	require.NoError(t, config.ParseNewObjects(ctx, "smbus_master 0x8000 1 2\n"))

	err := config.ParseSMBusTweaks(ctx, `
1 0x50 2 1 3 1
0 0x2a 1 3 3 0
`)
	require.NoError(t, err)

	// The dump walks buses in id order, not application order.
	expected := "1/0/2a: adap=0 t=1 datr=3 datw=3 ed=0\n" +
		"1/1/50: adap=1 t=2 datr=1 datw=3 ed=1\n"
	assert.Equal(t, expected, ctx.DumpSMBusTweaks())
}

func TestParseSMBusTweaksRejects(t *testing.T) {
	ctx := newTestContext(t)
	require.NoError(t, config.ParseNewObjects(ctx, "smbus_master 0x8000 1 2\n"))

	for _, line := range []string{
		"1 0x50 2 1",
		"1 0x50 2 1 3 2",
		"x 0x50 2 1 3 1",
	} {
		err := config.ParseSMBusTweaks(ctx, line)
		require.Error(t, err, line)
		assert.True(t, core.IsInvalidParameter(err), line)
	}

	// Unknown adapter numbers are lookup failures.
	err := config.ParseSMBusTweaks(ctx, "9 0x50 2 1 3 1")
	require.Error(t, err)
	assert.True(t, core.IsNotFound(err))
}

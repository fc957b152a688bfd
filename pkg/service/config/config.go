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

// Package config parses the line-oriented object and tuning
// configuration and applies it to a registry.
package config

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/iomux/IOWorker/pkg/service/core"
	"github.com/iomux/IOWorker/pkg/service/mdio"
	"github.com/iomux/IOWorker/pkg/service/smbus"
)

var maskAny = errors.WithStack

// field parses one unsigned field, accepting decimal, 0x hex and 0
// octal prefixes.
func field(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, maskAny(core.InvalidParameterError)
	}
	return v, nil
}

// ParseNewObjects reads object declarations, one per line, and
// registers them in order. Lines are space separated; empty lines and
// lines starting with '#' are skipped. Supported kinds:
//
//	smbus_master <addr> <id> [bus_count]
//	mdio_master <addr> <id> <bus_count> <speed>
//	mdio_device <master> <bus> <id> <prtad> <devad> <clause>
//
// The first failing line aborts the parse; objects registered by
// earlier lines stay registered.
func ParseNewObjects(ctx *core.Context, text string) error {
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := parseObjectLine(ctx, line); err != nil {
			return errors.Wrapf(err, "line %q", line)
		}
		linesAppliedTotal.Inc()
	}
	return maskAny(scanner.Err())
}

func parseObjectLine(ctx *core.Context, line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "smbus_master":
		if len(fields) < 3 || len(fields) > 4 {
			return maskAny(core.InvalidParameterError)
		}
		addr, err := field(fields[1], 32)
		if err != nil {
			return err
		}
		id, err := field(fields[2], 32)
		if err != nil {
			return err
		}
		busCount := uint64(0)
		if len(fields) == 4 {
			if busCount, err = field(fields[3], 8); err != nil {
				return err
			}
		}
		_, err = ctx.AddSMBusMaster(uint32(addr), uint32(id), int(busCount))
		return err

	case "mdio_master":
		if len(fields) != 5 {
			return maskAny(core.InvalidParameterError)
		}
		addr, err := field(fields[1], 32)
		if err != nil {
			return err
		}
		id, err := field(fields[2], 16)
		if err != nil {
			return err
		}
		busCount, err := field(fields[3], 8)
		if err != nil {
			return err
		}
		speed, err := field(fields[4], 16)
		if err != nil {
			return err
		}
		_, err = ctx.AddMDIOMaster(uint32(addr), uint16(id), int(busCount), uint16(speed))
		return err

	case "mdio_device":
		if len(fields) != 7 {
			return maskAny(core.InvalidParameterError)
		}
		v := make([]uint64, 6)
		for i := 0; i < 6; i++ {
			var err error
			if v[i], err = field(fields[i+1], 16); err != nil {
				return err
			}
		}
		clause := mdio.Clause22
		switch v[5] {
		case 22:
			clause = mdio.Clause22
		case 45:
			clause = mdio.Clause45
		default:
			return maskAny(core.InvalidParameterError)
		}
		_, err := ctx.AddMDIODevice(uint16(v[0]), uint8(v[1]), uint16(v[2]), uint16(v[3]), uint16(v[4]), clause)
		return err
	}
	return maskAny(core.InvalidParameterError)
}

// ParseSMBusTweaks reads tuning overrides, one per line:
//
//	<adap> <addr> <t> <datr> <datw> <ed>
//
// resolved through the global adapter number and upserted per address.
func ParseSMBusTweaks(ctx *core.Context, text string) error {
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := parseTweakLine(ctx, line); err != nil {
			return errors.Wrapf(err, "line %q", line)
		}
		linesAppliedTotal.Inc()
	}
	return maskAny(scanner.Err())
}

func parseTweakLine(ctx *core.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) != 6 {
		return maskAny(core.InvalidParameterError)
	}
	adap, err := field(fields[0], 32)
	if err != nil {
		return err
	}
	addr, err := field(fields[1], 16)
	if err != nil {
		return err
	}
	t, err := field(fields[2], 8)
	if err != nil {
		return err
	}
	datr, err := field(fields[3], 2)
	if err != nil {
		return err
	}
	datw, err := field(fields[4], 2)
	if err != nil {
		return err
	}
	ed, err := field(fields[5], 1)
	if err != nil {
		return err
	}
	return ctx.SetSMBusParamsByAdapter(int(adap), smbus.Params{
		Addr: uint16(addr),
		T:    uint8(t),
		Datw: uint8(datw),
		Datr: uint8(datr),
		Ed:   uint8(ed),
	})
}

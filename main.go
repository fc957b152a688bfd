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

package main

import (
	"context"
	"fmt"
	"os"

	terminate "github.com/pulcy/go-terminate"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/iomux/IOWorker/pkg/server"
	"github.com/iomux/IOWorker/pkg/service/config"
	"github.com/iomux/IOWorker/pkg/service/core"
	"github.com/iomux/IOWorker/pkg/service/hw"
	"github.com/iomux/IOWorker/pkg/service/hw/sim"
	"github.com/iomux/IOWorker/pkg/service/smbus"
)

const (
	projectName       = "IOWorker"
	defaultServerPort = 7931
	defaultRegionSize = 1 << 20
)

var (
	projectVersion = "dev"
	projectBuild   = "dev"
)

func main() {
	var levelFlag string
	var device string
	var serverHost string
	var serverPort int
	var objectsFile string
	var tweaksFile string
	var maxRetries int

	pflag.StringVarP(&levelFlag, "level", "l", "debug", "Set log level")
	pflag.StringVarP(&device, "device", "d", "sim", "Register device to drive ('sim' or a PCI resource path)")
	pflag.StringVar(&serverHost, "host", "0.0.0.0", "Host address the HTTP server will listen on")
	pflag.IntVar(&serverPort, "port", defaultServerPort, "Port the HTTP server will listen on")
	pflag.StringVarP(&objectsFile, "config", "c", "", "File with object declarations to register at boot")
	pflag.StringVar(&tweaksFile, "tweaks", "", "File with bus tuning overrides to apply at boot")
	pflag.IntVar(&maxRetries, "max-retries", smbus.DefaultMaxRetries, "Bound on bus transaction attempts")
	pflag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if level, err := zerolog.ParseLevel(levelFlag); err == nil {
		logger = logger.Level(level)
	}

	var io hw.RegisterIO
	if device == "sim" {
		io = sim.NewDevice()
	} else {
		memIO, err := hw.NewMemIO(device, defaultRegionSize)
		if err != nil {
			Exitf("Failed to map device %s: %v\n", device, err)
		}
		io = memIO
	}

	ctx := core.NewContext(core.Config{
		MaxRetries: maxRetries,
	}, core.Dependencies{
		Log: logger,
		IO:  io,
	})

	if objectsFile != "" {
		content, err := os.ReadFile(objectsFile)
		if err != nil {
			Exitf("Failed to read config %s: %v\n", objectsFile, err)
		}
		if err := config.ParseNewObjects(ctx, string(content)); err != nil {
			Exitf("Failed to apply config %s: %v\n", objectsFile, err)
		}
	}
	if tweaksFile != "" {
		content, err := os.ReadFile(tweaksFile)
		if err != nil {
			Exitf("Failed to read tweaks %s: %v\n", tweaksFile, err)
		}
		if err := config.ParseSMBusTweaks(ctx, string(content)); err != nil {
			Exitf("Failed to apply tweaks %s: %v\n", tweaksFile, err)
		}
	}

	httpServer, err := server.New(server.Config{
		Host:     serverHost,
		HTTPPort: serverPort,
	}, logger, ctx)
	if err != nil {
		Exitf("Failed to initialize Server: %v\n", err)
	}

	// Prepare to shutdown in a controlled manor
	runCtx, cancel := context.WithCancel(context.Background())
	t := terminate.NewTerminator(func(template string, args ...interface{}) {
		logger.Info().Msgf(template, args...)
	}, cancel)
	go t.ListenSignals()

	fmt.Printf("Starting %s (version %s build %s)\n", projectName, projectVersion, projectBuild)
	g, runCtx := errgroup.WithContext(runCtx)
	g.Go(func() error { return httpServer.Run(runCtx) })
	err = g.Wait()
	if closeErr := ctx.Close(); closeErr != nil {
		logger.Error().Err(closeErr).Msg("Failed to close device context")
	}
	if err != nil {
		Exitf("Service run failed: %#v", err)
	}
}

// Print the given error message and exit with code 1
func Exitf(message string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, message, args...)
	os.Exit(1)
}

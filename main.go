// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Rotorcore - quadcopter flight core
//
// Bench runner and ground station tools for the live frame protocol.

package main

import (
	"os"

	"github.com/Thermoquad/rotorcore/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Package config assembles the monitor's process configuration from
// environment variables: a plain os.Getenv + strconv read for each
// tunable, falling back to a hardcoded default when unset.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variable names, all under one TRANSIT_MONITOR_ prefix.
const (
	EnvUpstreamHost     = "TRANSIT_MONITOR_UPSTREAM_HOST"
	EnvUpstreamPort     = "TRANSIT_MONITOR_UPSTREAM_PORT"
	EnvUsername         = "TRANSIT_MONITOR_USERNAME"
	EnvPassword         = "TRANSIT_MONITOR_PASSWORD"
	EnvCACertFile       = "TRANSIT_MONITOR_CACERT"
	EnvLayoutFile       = "TRANSIT_MONITOR_LAYOUT_FILE"
	EnvQuietHostname    = "TRANSIT_MONITOR_QUIET_HOSTNAME"
	EnvQuietIP          = "TRANSIT_MONITOR_QUIET_IP"
	EnvQuietPort        = "TRANSIT_MONITOR_QUIET_PORT"
	EnvMaxSlowdownPc  = "TRANSIT_MONITOR_MAX_SLOWDOWN_PC"
	EnvMinQuietnessPc = "TRANSIT_MONITOR_MIN_QUIETNESS_PC"
	EnvMaxNPaths      = "TRANSIT_MONITOR_MAX_N_PATHS"
	EnvRunDuration    = "TRANSIT_MONITOR_RUN_DURATION_SECONDS"
)

// Defaults per the design's external-interfaces section.
const (
	DfltUpstreamPort   = 443
	DfltQuietPort      = 8042
	DfltMaxSlowdownPc  = 0.1
	DfltMinQuietnessPc = 0.1
	DfltMaxNPaths      = 20
)

// Config is every knob the CLI/environment glue layer feeds the
// orchestrator. Fields map directly onto §6's abstract input list.
type Config struct {
	UpstreamHost string
	UpstreamPort int
	Username     string
	Password     string

	CACertFile string
	LayoutFile string // empty means: fetch from upstream

	QuietHostname string
	QuietIP       string
	QuietPort     int

	MaxSlowdownPc  float64
	MinQuietnessPc float64
	MaxNPaths      int

	// RunDuration bounds how long Run drives the I/O context; zero means
	// run until stopped.
	RunDuration time.Duration
}

// FromEnv reads a Config from the process environment, applying the
// defaults above wherever a variable is unset.
func FromEnv() (*Config, error) {
	c := &Config{
		UpstreamHost:   os.Getenv(EnvUpstreamHost),
		UpstreamPort:   DfltUpstreamPort,
		Username:       os.Getenv(EnvUsername),
		Password:       os.Getenv(EnvPassword),
		CACertFile:     os.Getenv(EnvCACertFile),
		LayoutFile:     os.Getenv(EnvLayoutFile),
		QuietHostname:  os.Getenv(EnvQuietHostname),
		QuietIP:        os.Getenv(EnvQuietIP),
		QuietPort:      DfltQuietPort,
		MaxSlowdownPc:  DfltMaxSlowdownPc,
		MinQuietnessPc: DfltMinQuietnessPc,
		MaxNPaths:      DfltMaxNPaths,
	}

	if err := overrideInt(EnvUpstreamPort, &c.UpstreamPort); err != nil {
		return nil, err
	}
	if err := overrideInt(EnvQuietPort, &c.QuietPort); err != nil {
		return nil, err
	}
	if err := overrideInt(EnvMaxNPaths, &c.MaxNPaths); err != nil {
		return nil, err
	}
	if err := overrideFloat(EnvMaxSlowdownPc, &c.MaxSlowdownPc); err != nil {
		return nil, err
	}
	if err := overrideFloat(EnvMinQuietnessPc, &c.MinQuietnessPc); err != nil {
		return nil, err
	}
	if a := os.Getenv(EnvRunDuration); a != "" {
		secs, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("config: %s: %w", EnvRunDuration, err)
		}
		c.RunDuration = time.Duration(secs) * time.Second
	}

	if c.CACertFile == "" {
		return nil, fmt.Errorf("config: %s is required", EnvCACertFile)
	}
	return c, nil
}

func overrideInt(env string, dst *int) error {
	a := os.Getenv(env)
	if a == "" {
		return nil
	}
	v, err := strconv.Atoi(a)
	if err != nil {
		return fmt.Errorf("config: %s: %w", env, err)
	}
	*dst = v
	return nil
}

func overrideFloat(env string, dst *float64) error {
	a := os.Getenv(env)
	if a == "" {
		return nil
	}
	v, err := strconv.ParseFloat(a, 64)
	if err != nil {
		return fmt.Errorf("config: %s: %w", env, err)
	}
	*dst = v
	return nil
}

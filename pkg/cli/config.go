/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import (
	"fmt"
	"time"

	"github.com/carverauto/netreclaim/pkg/config"
	"github.com/carverauto/netreclaim/pkg/logger"
	"github.com/carverauto/netreclaim/pkg/probe"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	defaultProbeConcurrency    = 4
	defaultExecutorConcurrency = 4
	defaultDeviceTimeout       = 15 * time.Second
)

var (
	errUnknownStore      = fmt.Errorf("unknown approval store")
	errPostgresDSN       = fmt.Errorf("postgres store requires a dsn")
	errDeviceIncomplete  = fmt.Errorf("device entry incomplete")
	errDeviceTransport   = fmt.Errorf("unsupported device transport")
	errDeviceCredentials = fmt.Errorf("device missing credentials")
)

// NetboxConfig configures the registry client.
type NetboxConfig struct {
	URL      string          `json:"url"`
	Token    string          `json:"token"`
	Timeout  config.Duration `json:"timeout,omitempty"`
	RetryMax int             `json:"retry_max,omitempty"`
}

// DeviceConfig is one network device to probe for live evidence.
type DeviceConfig struct {
	Name      string          `json:"name"`
	Host      string          `json:"host"`
	Port      int             `json:"port,omitempty"`
	Transport string          `json:"transport"`
	Username  string          `json:"username,omitempty"`
	Password  string          `json:"password,omitempty"`
	Community string          `json:"community,omitempty"`
	Timeout   config.Duration `json:"timeout,omitempty"`
}

// ProbeConfig tunes evidence gathering.
type ProbeConfig struct {
	Concurrency   int             `json:"concurrency,omitempty"`
	DeviceTimeout config.Duration `json:"device_timeout,omitempty"`
}

// ApprovalsConfig selects where approval requests are persisted.
type ApprovalsConfig struct {
	Store       string `json:"store,omitempty"`
	PostgresDSN string `json:"postgres_dsn,omitempty"`
}

// ExecutorConfig tunes registry mutation.
type ExecutorConfig struct {
	Concurrency int `json:"concurrency,omitempty"`
}

// Config is the full application configuration file.
type Config struct {
	Netbox    NetboxConfig    `json:"netbox"`
	Devices   []DeviceConfig  `json:"devices,omitempty"`
	Probe     ProbeConfig     `json:"probe,omitempty"`
	Approvals ApprovalsConfig `json:"approvals,omitempty"`
	Executor  ExecutorConfig  `json:"executor,omitempty"`
	Logging   *logger.Config  `json:"logging,omitempty"`
}

// Validate checks everything that does not depend on the environment.
// The registry URL and token are deliberately not checked here: they
// may arrive through NETBOX_URL / NETBOX_TOKEN instead of the file, and
// the client constructor rejects a missing value either way.
func (c *Config) Validate() error {
	switch c.Approvals.Store {
	case "", StoreMemory:
	case StorePostgres:
		if c.Approvals.PostgresDSN == "" {
			return errPostgresDSN
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownStore, c.Approvals.Store)
	}

	for i := range c.Devices {
		if err := c.Devices[i].validate(); err != nil {
			return fmt.Errorf("devices[%d]: %w", i, err)
		}
	}

	return nil
}

func (d *DeviceConfig) validate() error {
	if d.Name == "" || d.Host == "" {
		return errDeviceIncomplete
	}

	switch probe.Transport(d.Transport) {
	case probe.TransportSSH:
		if d.Username == "" || d.Password == "" {
			return fmt.Errorf("%w: ssh needs username and password", errDeviceCredentials)
		}
	case probe.TransportSNMP:
		if d.Community == "" {
			return fmt.Errorf("%w: snmp needs a community string", errDeviceCredentials)
		}
	default:
		return fmt.Errorf("%w: %q", errDeviceTransport, d.Transport)
	}

	return nil
}

func (c *Config) probeDevices() []probe.Device {
	devices := make([]probe.Device, 0, len(c.Devices))

	for _, d := range c.Devices {
		devices = append(devices, probe.Device{
			Name:      d.Name,
			Host:      d.Host,
			Port:      d.Port,
			Transport: probe.Transport(d.Transport),
			Username:  d.Username,
			Password:  d.Password,
			Community: d.Community,
			Timeout:   d.Timeout.AsDuration(),
		})
	}

	return devices
}

func (c *Config) probeConcurrency() int {
	if c.Probe.Concurrency > 0 {
		return c.Probe.Concurrency
	}

	return defaultProbeConcurrency
}

func (c *Config) deviceTimeout() time.Duration {
	if d := c.Probe.DeviceTimeout.AsDuration(); d > 0 {
		return d
	}

	return defaultDeviceTimeout
}

func (c *Config) executorConcurrency() int {
	if c.Executor.Concurrency > 0 {
		return c.Executor.Concurrency
	}

	return defaultExecutorConcurrency
}

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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/netreclaim/pkg/config"
	"github.com/carverauto/netreclaim/pkg/probe"
)

const sampleConfig = `{
  "netbox": {
    "url": "https://netbox.example.com",
    "token": "abc123",
    "timeout": "20s",
    "retry_max": 5
  },
  "devices": [
    {
      "name": "leaf1",
      "host": "10.0.0.1",
      "transport": "ssh",
      "username": "audit",
      "password": "secret",
      "timeout": "10s"
    },
    {
      "name": "leaf2",
      "host": "10.0.0.2",
      "port": 1161,
      "transport": "snmp",
      "community": "public"
    }
  ],
  "probe": {"concurrency": 8, "device_timeout": "30s"},
  "approvals": {"store": "memory"},
  "executor": {"concurrency": 2},
  "logging": {"level": "debug"}
}`

func loadConfig(t *testing.T, content string) (*Config, error) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "netreclaim.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	var cfg Config

	err := config.LoadAndValidate(path, &cfg)

	return &cfg, err
}

func TestConfigLoad(t *testing.T) {
	cfg, err := loadConfig(t, sampleConfig)
	require.NoError(t, err)

	assert.Equal(t, "https://netbox.example.com", cfg.Netbox.URL)
	assert.Equal(t, 20*time.Second, cfg.Netbox.Timeout.AsDuration())
	assert.Equal(t, 5, cfg.Netbox.RetryMax)
	assert.Equal(t, 8, cfg.probeConcurrency())
	assert.Equal(t, 30*time.Second, cfg.deviceTimeout())
	assert.Equal(t, 2, cfg.executorConcurrency())
	require.NotNil(t, cfg.Logging)
	assert.Equal(t, "debug", cfg.Logging.Level)

	devices := cfg.probeDevices()
	require.Len(t, devices, 2)
	assert.Equal(t, probe.TransportSSH, devices[0].Transport)
	assert.Equal(t, 10*time.Second, devices[0].Timeout)
	assert.Equal(t, probe.TransportSNMP, devices[1].Transport)
	assert.Equal(t, 1161, devices[1].Port)
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(t, `{"netbox": {"url": "https://nb", "token": "t"}}`)
	require.NoError(t, err)

	assert.Equal(t, defaultProbeConcurrency, cfg.probeConcurrency())
	assert.Equal(t, defaultDeviceTimeout, cfg.deviceTimeout())
	assert.Equal(t, defaultExecutorConcurrency, cfg.executorConcurrency())
	assert.Empty(t, cfg.probeDevices())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "postgres store without dsn",
			content: `{"approvals": {"store": "postgres"}}`,
			wantErr: errPostgresDSN,
		},
		{
			name:    "unknown store",
			content: `{"approvals": {"store": "redis"}}`,
			wantErr: errUnknownStore,
		},
		{
			name:    "device without host",
			content: `{"devices": [{"name": "leaf1", "transport": "ssh", "username": "u", "password": "p"}]}`,
			wantErr: errDeviceIncomplete,
		},
		{
			name:    "device unknown transport",
			content: `{"devices": [{"name": "leaf1", "host": "10.0.0.1", "transport": "telnet"}]}`,
			wantErr: errDeviceTransport,
		},
		{
			name:    "ssh device without credentials",
			content: `{"devices": [{"name": "leaf1", "host": "10.0.0.1", "transport": "ssh"}]}`,
			wantErr: errDeviceCredentials,
		},
		{
			name:    "snmp device without community",
			content: `{"devices": [{"name": "leaf1", "host": "10.0.0.1", "transport": "snmp"}]}`,
			wantErr: errDeviceCredentials,
		},
		{
			name:    "postgres store with dsn",
			content: `{"approvals": {"store": "postgres", "postgres_dsn": "postgres://localhost/reclaim"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(t, tt.content)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

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

package probe

import (
	"context"
	"time"

	"github.com/carverauto/netreclaim/pkg/models"
)

// Transport selects how a device is polled.
type Transport string

const (
	TransportSSH  Transport = "ssh"
	TransportSNMP Transport = "snmp"
)

// Device identifies one network device to poll for evidence.
type Device struct {
	Name      string        `json:"name"`
	Host      string        `json:"host"`
	Port      int           `json:"port,omitempty"`
	Transport Transport     `json:"transport"`
	Username  string        `json:"username,omitempty"`
	Password  string        `json:"password,omitempty"`
	Community string        `json:"community,omitempty"`
	Timeout   time.Duration `json:"-"`
}

// Collector produces address observations from one device. A failed
// poll degrades that device's evidence; it never aborts a
// reconciliation run.
type Collector interface {
	PollARP(ctx context.Context, device Device) ([]models.Evidence, error)
	PollInterfaces(ctx context.Context, device Device) ([]models.Evidence, error)
}

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

// Package models defines the shared data types for allocation drift
// detection and gated reclamation.
package models

// AllocationStatus is the lifecycle status of a registry allocation.
type AllocationStatus string

const (
	StatusActive     AllocationStatus = "active"
	StatusDeprecated AllocationStatus = "deprecated"
	StatusReserved   AllocationStatus = "reserved"
	StatusDHCP       AllocationStatus = "dhcp"
)

// Allocation is an address assignment owned by the registry. The
// reconciliation engine only reads allocations; the mutation executor
// is the only writer, and only for Status.
type Allocation struct {
	ID          int64            `json:"id"`
	Address     string           `json:"address"`
	Status      AllocationStatus `json:"status"`
	Description string           `json:"description"`
	DNSName     string           `json:"dns_name"`
}

// EvidenceSource identifies which probe produced an observation.
type EvidenceSource string

const (
	SourceARP       EvidenceSource = "arp"
	SourceInterface EvidenceSource = "interface"
)

// ObservedState is the liveness state attached to an observation.
type ObservedState string

const (
	StateUp      ObservedState = "up"
	StateDown    ObservedState = "down"
	StateStatic  ObservedState = "static"
	StateUnknown ObservedState = "unknown"
)

// Evidence is a single address observation from a network probe. It is
// regenerated on every reconciliation pass and never persisted.
type Evidence struct {
	IP     string         `json:"ip"`
	Source EvidenceSource `json:"source"`
	Device string         `json:"device"`
	State  ObservedState  `json:"state"`
}

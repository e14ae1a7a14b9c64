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

// Package reconcile classifies registry allocations against observed
// evidence and wraps the result into drift reports.
package reconcile

import (
	"net/netip"
	"strings"

	"github.com/carverauto/netreclaim/pkg/models"
)

const (
	reasonNotSeen  = "not found in any evidence source"
	reasonDownOnly = "seen only on a down interface"

	unknownLastSeen = "unknown"
	noDevice        = "none"
)

// EvidenceIndex maps a bare address to every observation of it,
// regardless of source. An address is "seen" iff it has at least one
// entry.
type EvidenceIndex map[string][]models.Evidence

// BuildEvidenceIndex normalizes every observation to its bare address
// and groups by it. Malformed evidence addresses fail loudly.
func BuildEvidenceIndex(evidence []models.Evidence) (EvidenceIndex, error) {
	index := make(EvidenceIndex, len(evidence))

	for _, ev := range evidence {
		bare, err := bareAddress(ev.IP)
		if err != nil {
			return nil, &InvalidAddressError{Address: ev.IP, Origin: "evidence", Err: err}
		}

		index[bare] = append(index[bare], ev)
	}

	return index, nil
}

// Classify merges active allocations with probe evidence and returns one
// entry per allocation judged stale, in allocation input order. It is a
// pure function: no I/O and no mutation of its inputs.
//
// An allocation absent from the index classifies high. One seen only in
// down state classifies medium. Any live observation (up, static, or an
// ambiguous unknown) dominates and the allocation is omitted.
func Classify(allocations []models.Allocation, evidence []models.Evidence) ([]models.ClassifiedEntry, error) {
	index, err := BuildEvidenceIndex(evidence)
	if err != nil {
		return nil, err
	}

	entries := make([]models.ClassifiedEntry, 0, len(allocations))

	for _, alloc := range allocations {
		bare, err := bareAddress(alloc.Address)
		if err != nil {
			return nil, &InvalidAddressError{Address: alloc.Address, Origin: "allocation", Err: err}
		}

		observations, seen := index[bare]
		if !seen {
			entries = append(entries, models.ClassifiedEntry{
				Address:    alloc.Address,
				RegistryID: alloc.ID,
				LastSeen:   unknownLastSeen,
				Device:     noDevice,
				Confidence: models.ConfidenceHigh,
				Reason:     reasonNotSeen,
			})

			continue
		}

		if device, downOnly := allDown(observations); downOnly {
			entries = append(entries, models.ClassifiedEntry{
				Address:    alloc.Address,
				RegistryID: alloc.ID,
				LastSeen:   unknownLastSeen,
				Device:     device,
				Confidence: models.ConfidenceMedium,
				Reason:     reasonDownOnly,
			})
		}
	}

	return entries, nil
}

// allDown reports whether every observation is in down state, returning
// the first observing device. A single non-down observation counts as
// live evidence and dominates.
func allDown(observations []models.Evidence) (device string, downOnly bool) {
	device = noDevice

	for _, ev := range observations {
		if ev.State != models.StateDown {
			return "", false
		}

		if device == noDevice && ev.Device != "" {
			device = ev.Device
		}
	}

	return device, true
}

// bareAddress strips an optional prefix length and normalizes the
// address to its canonical textual form.
func bareAddress(address string) (string, error) {
	trimmed := strings.TrimSpace(address)

	if strings.Contains(trimmed, "/") {
		prefix, err := netip.ParsePrefix(trimmed)
		if err != nil {
			return "", err
		}

		return prefix.Addr().String(), nil
	}

	addr, err := netip.ParseAddr(trimmed)
	if err != nil {
		return "", err
	}

	return addr.String(), nil
}

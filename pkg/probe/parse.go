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
	"net/netip"
	"strings"

	"github.com/carverauto/netreclaim/pkg/models"
)

// parseARPTable parses Arista EOS "show ip arp" output. Every resolved
// neighbor counts as a live observation.
//
//	Address         Age (sec)  Hardware Addr   Interface
//	10.0.1.1        0:00:05    001a.2b3c.4d5e  Ethernet1
func parseARPTable(raw, device string) []models.Evidence {
	var evidence []models.Evidence

	for _, line := range strings.Split(raw, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}

		// Header lines and banners never start with an address.
		addr, err := netip.ParseAddr(fields[0])
		if err != nil {
			continue
		}

		evidence = append(evidence, models.Evidence{
			IP:     addr.String(),
			Source: models.SourceARP,
			Device: device,
			State:  models.StateUp,
		})
	}

	return evidence
}

// parseInterfaceBrief parses Arista EOS "show ip interface brief"
// output, keeping only interfaces with an assigned address.
//
//	Interface       IP Address      Status  Protocol  MTU   Description
//	Ethernet1       10.0.1.1/24     up      up        1500  Uplink to spine
//	Ethernet2       unassigned      up      up        1500
func parseInterfaceBrief(raw, device string) []models.Evidence {
	var evidence []models.Evidence

	for _, line := range strings.Split(raw, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}

		if strings.EqualFold(fields[1], "unassigned") {
			continue
		}

		bare, ok := bareInterfaceAddress(fields[1])
		if !ok {
			continue
		}

		evidence = append(evidence, models.Evidence{
			IP:     bare,
			Source: models.SourceInterface,
			Device: device,
			State:  interfaceState(fields[2]),
		})
	}

	return evidence
}

func bareInterfaceAddress(field string) (string, bool) {
	if strings.Contains(field, "/") {
		prefix, err := netip.ParsePrefix(field)
		if err != nil {
			return "", false
		}

		return prefix.Addr().String(), true
	}

	addr, err := netip.ParseAddr(field)
	if err != nil {
		return "", false
	}

	return addr.String(), true
}

func interfaceState(status string) models.ObservedState {
	switch strings.ToLower(status) {
	case "up":
		return models.StateUp
	case "down", "admin":
		// "admin" covers the two-word "admin down" column.
		return models.StateDown
	default:
		return models.StateUnknown
	}
}

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

package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/netreclaim/pkg/models"
)

// Seed data mirrors the lab topology: six active /24 allocations, three
// of which still answer ARP and one of which sits on a live interface.
func seedAllocations() []models.Allocation {
	return []models.Allocation{
		{ID: 1, Address: "10.0.1.1/24", Status: models.StatusActive, Description: "Gateway - spine1 Ethernet1", DNSName: "gw.lab.local"},
		{ID: 2, Address: "10.0.1.5/24", Status: models.StatusActive, Description: "Web server", DNSName: "web.lab.local"},
		{ID: 3, Address: "10.0.1.10/24", Status: models.StatusActive, Description: "Database server", DNSName: "db.lab.local"},
		{ID: 4, Address: "10.0.1.15/24", Status: models.StatusActive, Description: "Old test server - decommed Q3 2024", DNSName: "test-old.lab.local"},
		{ID: 5, Address: "10.0.1.22/24", Status: models.StatusActive, Description: "Monitoring agent"},
		{ID: 6, Address: "10.0.1.30/24", Status: models.StatusActive, Description: "Dev sandbox - project cancelled"},
	}
}

func seedEvidence() []models.Evidence {
	return []models.Evidence{
		{IP: "10.0.1.1", Source: models.SourceARP, Device: "spine1", State: models.StateUp},
		{IP: "10.0.1.5", Source: models.SourceARP, Device: "spine1", State: models.StateUp},
		{IP: "10.0.1.10", Source: models.SourceARP, Device: "spine1", State: models.StateUp},
		{IP: "10.0.1.1", Source: models.SourceInterface, Device: "spine1", State: models.StateUp},
	}
}

func TestClassifySeedScenario(t *testing.T) {
	entries, err := Classify(seedAllocations(), seedEvidence())
	require.NoError(t, err)
	require.Len(t, entries, 3)

	wantAddresses := []string{"10.0.1.15/24", "10.0.1.22/24", "10.0.1.30/24"}
	wantIDs := []int64{4, 5, 6}

	for i, entry := range entries {
		assert.Equal(t, wantAddresses[i], entry.Address)
		assert.Equal(t, wantIDs[i], entry.RegistryID)
		assert.Equal(t, models.ConfidenceHigh, entry.Confidence)
		assert.Equal(t, "not found in any evidence source", entry.Reason)
		assert.Equal(t, "unknown", entry.LastSeen)
		assert.Equal(t, "none", entry.Device)
	}
}

func TestClassifyAllSeenReturnsEmpty(t *testing.T) {
	allocations := seedAllocations()

	evidence := make([]models.Evidence, 0, len(allocations))
	for _, alloc := range allocations {
		bare, err := bareAddress(alloc.Address)
		require.NoError(t, err)

		evidence = append(evidence, models.Evidence{
			IP:     bare,
			Source: models.SourceARP,
			Device: "spine1",
			State:  models.StateUp,
		})
	}

	entries, err := Classify(allocations, evidence)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClassifyEmptyEvidenceAllHighConfidence(t *testing.T) {
	allocations := seedAllocations()

	entries, err := Classify(allocations, nil)
	require.NoError(t, err)
	require.Len(t, entries, len(allocations))

	for i, entry := range entries {
		assert.Equal(t, allocations[i].Address, entry.Address)
		assert.Equal(t, models.ConfidenceHigh, entry.Confidence)
	}
}

func TestClassifyDownOnlyIsMediumConfidence(t *testing.T) {
	allocations := []models.Allocation{
		{ID: 7, Address: "10.0.2.4/24", Status: models.StatusActive},
	}
	evidence := []models.Evidence{
		{IP: "10.0.2.4", Source: models.SourceInterface, Device: "leaf2", State: models.StateDown},
	}

	entries, err := Classify(allocations, evidence)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, models.ConfidenceMedium, entries[0].Confidence)
	assert.Equal(t, "leaf2", entries[0].Device)
	assert.Equal(t, "seen only on a down interface", entries[0].Reason)
}

func TestClassifyLiveEvidenceDominatesDown(t *testing.T) {
	allocations := []models.Allocation{
		{ID: 8, Address: "10.0.2.9/24", Status: models.StatusActive},
	}

	tests := []struct {
		name  string
		state models.ObservedState
	}{
		{name: "up dominates", state: models.StateUp},
		{name: "static dominates", state: models.StateStatic},
		{name: "unknown dominates", state: models.StateUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evidence := []models.Evidence{
				{IP: "10.0.2.9", Source: models.SourceInterface, Device: "leaf1", State: models.StateDown},
				{IP: "10.0.2.9", Source: models.SourceARP, Device: "spine1", State: tt.state},
			}

			entries, err := Classify(allocations, evidence)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestClassifyPreservesAllocationOrder(t *testing.T) {
	allocations := []models.Allocation{
		{ID: 3, Address: "10.0.3.30/24", Status: models.StatusActive},
		{ID: 1, Address: "10.0.3.10/24", Status: models.StatusActive},
		{ID: 2, Address: "10.0.3.20/24", Status: models.StatusActive},
	}

	entries, err := Classify(allocations, nil)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "10.0.3.30/24", entries[0].Address)
	assert.Equal(t, "10.0.3.10/24", entries[1].Address)
	assert.Equal(t, "10.0.3.20/24", entries[2].Address)
}

func TestClassifyBareAllocationAddress(t *testing.T) {
	// Registry entries are CIDR strings, but lookups by bare address
	// must still match bare evidence.
	allocations := []models.Allocation{
		{ID: 9, Address: "10.0.4.1", Status: models.StatusActive},
	}
	evidence := []models.Evidence{
		{IP: "10.0.4.1", Source: models.SourceARP, Device: "spine1", State: models.StateUp},
	}

	entries, err := Classify(allocations, evidence)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClassifyMalformedAllocationAddressFailsLoudly(t *testing.T) {
	allocations := []models.Allocation{
		{ID: 10, Address: "not-an-address", Status: models.StatusActive},
	}

	entries, err := Classify(allocations, nil)
	require.Error(t, err)
	assert.Nil(t, entries)
	assert.ErrorIs(t, err, ErrInvalidAddress)

	var invalidErr *InvalidAddressError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "not-an-address", invalidErr.Address)
	assert.Equal(t, "allocation", invalidErr.Origin)
}

func TestClassifyMalformedEvidenceAddressFailsLoudly(t *testing.T) {
	allocations := seedAllocations()
	evidence := []models.Evidence{
		{IP: "10.0.1.999", Source: models.SourceARP, Device: "spine1", State: models.StateUp},
	}

	_, err := Classify(allocations, evidence)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAddress)

	var invalidErr *InvalidAddressError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "evidence", invalidErr.Origin)
}

func TestBuildEvidenceIndexGroupsBySource(t *testing.T) {
	evidence := []models.Evidence{
		{IP: "10.0.1.1", Source: models.SourceARP, Device: "spine1", State: models.StateUp},
		{IP: "10.0.1.1/24", Source: models.SourceInterface, Device: "spine1", State: models.StateUp},
		{IP: "10.0.1.5", Source: models.SourceARP, Device: "leaf1", State: models.StateUp},
	}

	index, err := BuildEvidenceIndex(evidence)
	require.NoError(t, err)

	require.Len(t, index, 2)
	assert.Len(t, index["10.0.1.1"], 2)
	assert.Len(t, index["10.0.1.5"], 1)
}

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

package models

import (
	"encoding/json"
	"time"
)

// Confidence is the qualitative certainty of a stale classification.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
)

// ClassifiedEntry is one allocation judged stale by the reconciliation
// engine. LastSeen and Device default to "unknown" and "none" when no
// evidence carries them.
type ClassifiedEntry struct {
	Address    string     `json:"address"`
	RegistryID int64      `json:"netbox_id"`
	LastSeen   string     `json:"last_seen"`
	Device     string     `json:"device"`
	Confidence Confidence `json:"confidence"`
	Reason     string     `json:"reason"`
}

// ReportSummary aggregates the headline numbers of a drift report.
type ReportSummary struct {
	TotalAllocated  int     `json:"total_allocated"`
	TotalStale      int     `json:"total_stale"`
	ReclamationRate float64 `json:"reclamation_rate"`
}

// Report is an immutable drift report. A new reconciliation pass always
// produces a new Report; reports are never mutated in place.
type Report struct {
	ReportID          string            `json:"report_id"`
	GeneratedAt       time.Time         `json:"generated_at"`
	Prefix            string            `json:"prefix"`
	Summary           ReportSummary     `json:"summary"`
	Entries           []ClassifiedEntry `json:"stale_ips"`
	RecommendedAction string            `json:"recommended_action"`
}

// MarshalJSON pins the wire format: generated_at is RFC3339 UTC at
// second precision and stale_ips is always a list, never null.
func (r *Report) MarshalJSON() ([]byte, error) {
	entries := r.Entries
	if entries == nil {
		entries = []ClassifiedEntry{}
	}

	type wireReport struct {
		ReportID          string            `json:"report_id"`
		GeneratedAt       string            `json:"generated_at"`
		Prefix            string            `json:"prefix"`
		Summary           ReportSummary     `json:"summary"`
		Entries           []ClassifiedEntry `json:"stale_ips"`
		RecommendedAction string            `json:"recommended_action"`
	}

	return json.Marshal(&wireReport{
		ReportID:          r.ReportID,
		GeneratedAt:       r.GeneratedAt.UTC().Truncate(time.Second).Format(time.RFC3339),
		Prefix:            r.Prefix,
		Summary:           r.Summary,
		Entries:           entries,
		RecommendedAction: r.RecommendedAction,
	})
}

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
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/carverauto/netreclaim/pkg/models"
)

const (
	reportIDPrefix     = "reclaim"
	reportIDTimeLayout = "20060102-150405"

	actionReview   = "Review stale IPs and execute reclamation"
	actionNoAction = "No action required - no stale addresses detected"
)

// Clock abstracts time for report generation.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Builder produces immutable drift reports with process-lifetime unique
// report IDs. Safe for concurrent use.
type Builder struct {
	mu       sync.Mutex
	clock    Clock
	lastBase string
	seq      int
}

// NewBuilder creates a report builder. A nil clock defaults to the
// system clock.
func NewBuilder(clock Clock) *Builder {
	if clock == nil {
		clock = realClock{}
	}

	return &Builder{clock: clock}
}

// Build wraps classified entries into a report. totalAllocated <= 0
// yields a zero reclamation rate rather than a division fault. Building
// twice from identical inputs yields equal summary and entries; only the
// timestamp-derived report ID differs.
func (b *Builder) Build(entries []models.ClassifiedEntry, prefix string, totalAllocated int) *models.Report {
	now := b.clock.Now().UTC()

	action := actionReview
	if len(entries) == 0 {
		action = actionNoAction
	}

	out := make([]models.ClassifiedEntry, len(entries))
	copy(out, entries)

	return &models.Report{
		ReportID:    b.nextID(now),
		GeneratedAt: now,
		Prefix:      prefix,
		Summary: models.ReportSummary{
			TotalAllocated:  max(totalAllocated, 0),
			TotalStale:      len(entries),
			ReclamationRate: reclamationRate(len(entries), totalAllocated),
		},
		Entries:           out,
		RecommendedAction: action,
	}
}

// nextID derives the report ID from generation time, appending a
// sequence suffix when the same second repeats within the process.
func (b *Builder) nextID(now time.Time) string {
	base := fmt.Sprintf("%s-%s", reportIDPrefix, now.Format(reportIDTimeLayout))

	b.mu.Lock()
	defer b.mu.Unlock()

	if base == b.lastBase {
		b.seq++
		return fmt.Sprintf("%s-%d", base, b.seq)
	}

	b.lastBase = base
	b.seq = 0

	return base
}

// reclamationRate is stale/allocated as a percentage, rounded to two
// decimal places. Zero when nothing is allocated.
func reclamationRate(stale, allocated int) float64 {
	if allocated <= 0 {
		return 0.0
	}

	rate := float64(stale) / float64(allocated) * 100

	return math.Round(rate*100) / 100
}

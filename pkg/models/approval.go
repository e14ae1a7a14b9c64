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

import "time"

// ApprovalState is the lifecycle state of an ApprovalRequest.
//
// PENDING -> {APPROVED, REJECTED}; APPROVED -> EXECUTING -> {EXECUTED, FAILED}
//
// REJECTED, EXECUTED and FAILED are terminal. EXECUTING marks a request
// claimed by exactly one executor; the claim is a conditional store
// transition so concurrent execute calls cannot both apply the batch.
type ApprovalState string

const (
	StatePending   ApprovalState = "PENDING"
	StateApproved  ApprovalState = "APPROVED"
	StateRejected  ApprovalState = "REJECTED"
	StateExecuting ApprovalState = "EXECUTING"
	StateExecuted  ApprovalState = "EXECUTED"
	StateFailed    ApprovalState = "FAILED"
)

// Terminal reports whether the state admits no further transitions.
func (s ApprovalState) Terminal() bool {
	switch s {
	case StateRejected, StateExecuted, StateFailed:
		return true
	default:
		return false
	}
}

// ApprovalRequest tracks one proposed bulk reclamation through the
// approve-before-execute workflow. It is the only core entity whose
// lifecycle spans multiple external calls; the Token makes repeated
// submissions of the same logical request idempotent.
type ApprovalRequest struct {
	Token      string        `json:"token"`
	Addresses  []string      `json:"addresses"`
	State      ApprovalState `json:"state"`
	CreatedAt  time.Time     `json:"created_at"`
	DecidedAt  *time.Time    `json:"decided_at,omitempty"`
	ExecutedAt *time.Time    `json:"executed_at,omitempty"`
}

// Clone returns a deep copy so store implementations never hand out
// aliased mutable state.
func (r *ApprovalRequest) Clone() *ApprovalRequest {
	if r == nil {
		return nil
	}

	out := *r
	out.Addresses = append([]string(nil), r.Addresses...)

	if r.DecidedAt != nil {
		t := *r.DecidedAt
		out.DecidedAt = &t
	}

	if r.ExecutedAt != nil {
		t := *r.ExecutedAt
		out.ExecutedAt = &t
	}

	return &out
}

// MutationResult records the outcome of one address mutation within an
// executed ApprovalRequest. Results are aggregated, never silently
// dropped.
type MutationResult struct {
	Address        string           `json:"address"`
	RegistryID     int64            `json:"netbox_id"`
	PreviousStatus AllocationStatus `json:"previous_status"`
	NewStatus      AllocationStatus `json:"new_status"`
	Success        bool             `json:"success"`
	Error          string           `json:"error,omitempty"`
}

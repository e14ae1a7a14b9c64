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

// Package core wires the reconciliation engine, report builder,
// mutation gate and executor into the service surface consumed by the
// CLI layer.
package core

import (
	"context"
	"fmt"

	"github.com/carverauto/netreclaim/pkg/approval"
	"github.com/carverauto/netreclaim/pkg/logger"
	"github.com/carverauto/netreclaim/pkg/models"
	"github.com/carverauto/netreclaim/pkg/netbox"
	"github.com/carverauto/netreclaim/pkg/probe"
	"github.com/carverauto/netreclaim/pkg/reconcile"
)

// EvidenceGatherer abstracts the probe layer for testability.
type EvidenceGatherer interface {
	Gather(ctx context.Context, devices []probe.Device) []models.Evidence
}

// Service is the drift-detection and reclamation facade. All
// collaborators are injected; the service holds no hidden global state.
type Service struct {
	registry netbox.RegistryClient
	gatherer EvidenceGatherer
	devices  []probe.Device
	gate     *approval.Gate
	executor *Executor
	builder  *reconcile.Builder
	logger   logger.Logger
}

// NewService assembles the core service.
func NewService(
	registry netbox.RegistryClient,
	gatherer EvidenceGatherer,
	devices []probe.Device,
	gate *approval.Gate,
	executor *Executor,
	builder *reconcile.Builder,
	log logger.Logger,
) *Service {
	return &Service{
		registry: registry,
		gatherer: gatherer,
		devices:  devices,
		gate:     gate,
		executor: executor,
		builder:  builder,
		logger:   log,
	}
}

// Reconcile audits one prefix and returns a drift report. Read-only and
// safe to call repeatedly. A registry read failure is fatal to the
// call: without a trustworthy allocation list no classification can be
// produced. Probe failures merely degrade evidence and are logged by
// the gatherer.
func (s *Service) Reconcile(ctx context.Context, prefix string) (*models.Report, error) {
	allocations, err := s.registry.QueryActive(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: prefix %s: %w", errQueryAllocations, prefix, err)
	}

	evidence := s.gatherer.Gather(ctx, s.devices)

	entries, err := reconcile.Classify(allocations, evidence)
	if err != nil {
		return nil, fmt.Errorf("classifying prefix %s: %w", prefix, err)
	}

	report := s.builder.Build(entries, prefix, len(allocations))

	s.logger.Info().
		Str("prefix", prefix).
		Str("report_id", report.ReportID).
		Int("total_allocated", report.Summary.TotalAllocated).
		Int("total_stale", report.Summary.TotalStale).
		Msg("reconciliation complete")

	return report, nil
}

// ProposeReclamation opens (or re-joins) an approval request for the
// given addresses. Idempotent per canonical address set.
func (s *Service) ProposeReclamation(ctx context.Context, addresses []string) (*models.ApprovalRequest, error) {
	return s.gate.Submit(ctx, addresses)
}

// DecideReclamation records the human decision for a pending request.
func (s *Service) DecideReclamation(ctx context.Context, token string, approved bool) (*models.ApprovalRequest, error) {
	return s.gate.Decide(ctx, token, approved)
}

// ExecuteReclamation applies an approved request through the registry.
// The request is first claimed out of APPROVED so concurrent execute
// calls cannot double-apply the batch; it moves to EXECUTED only if
// every item succeeded, and any failure marks it FAILED while the
// per-item results show what actually happened.
func (s *Service) ExecuteReclamation(ctx context.Context, token string) ([]models.MutationResult, error) {
	request, claimed, err := s.gate.Claim(ctx, token)
	if err != nil {
		return nil, err
	}

	if !claimed {
		switch request.State {
		case models.StateExecuting, models.StateExecuted, models.StateFailed:
			return nil, fmt.Errorf("%w: token %s is %s", ErrAlreadyExecuted, token, request.State)
		default:
			return nil, fmt.Errorf("%w: token %s is %s", ErrNotApproved, token, request.State)
		}
	}

	results, err := s.executor.Execute(ctx, request)
	if err != nil {
		return nil, err
	}

	if _, err := s.gate.Complete(ctx, token, allSucceeded(results)); err != nil {
		return results, fmt.Errorf("recording execution outcome: %w", err)
	}

	return results, nil
}

// AbandonReclamation drops a request that has not reached a terminal
// state.
func (s *Service) AbandonReclamation(ctx context.Context, token string) error {
	return s.gate.Abandon(ctx, token)
}

// RegistryVersion reports the registry server version, useful as a
// connectivity probe.
func (s *Service) RegistryVersion(ctx context.Context) (string, error) {
	return s.registry.Version(ctx)
}

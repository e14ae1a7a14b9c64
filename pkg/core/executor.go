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

package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/carverauto/netreclaim/pkg/logger"
	"github.com/carverauto/netreclaim/pkg/models"
	"github.com/carverauto/netreclaim/pkg/netbox"
)

const defaultExecutorConcurrency = 4

// Executor applies an approved batch of status changes through the
// registry client, one result per address, aggregating partial
// failures instead of aborting.
type Executor struct {
	registry    netbox.RegistryClient
	concurrency int
	logger      logger.Logger
}

// NewExecutor creates a mutation executor. Zero concurrency picks a
// default.
func NewExecutor(registry netbox.RegistryClient, concurrency int, log logger.Logger) *Executor {
	if concurrency <= 0 {
		concurrency = defaultExecutorConcurrency
	}

	return &Executor{
		registry:    registry,
		concurrency: concurrency,
		logger:      log,
	}
}

// Execute deprecates every address in a claimed EXECUTING request.
// Results are positional: results[i] corresponds to
// request.Addresses[i]. The request state is never touched here; the
// caller claims the request beforehand and moves it to its terminal
// state once all items have joined.
//
// Calling Execute on an unclaimed request is a contract violation and
// returns before any registry call.
func (e *Executor) Execute(ctx context.Context, request *models.ApprovalRequest) ([]models.MutationResult, error) {
	switch request.State {
	case models.StateExecuting:
		// proceed
	case models.StateExecuted, models.StateFailed:
		return nil, fmt.Errorf("%w: token %s is %s", ErrAlreadyExecuted, request.Token, request.State)
	default:
		return nil, fmt.Errorf("%w: token %s is %s", ErrNotApproved, request.Token, request.State)
	}

	results := make([]models.MutationResult, len(request.Addresses))
	workCh := make(chan int, len(request.Addresses))

	var wg sync.WaitGroup

	workers := min(e.concurrency, len(request.Addresses))

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for idx := range workCh {
				if ctx.Err() != nil {
					results[idx] = models.MutationResult{
						Address: request.Addresses[idx],
						Success: false,
						Error:   fmt.Sprintf("cancelled before processing: %v", ctx.Err()),
					}

					continue
				}

				results[idx] = e.deprecateOne(ctx, request.Addresses[idx])
			}
		}()
	}

	for idx := range request.Addresses {
		workCh <- idx
	}

	close(workCh)

	// All items must join before any terminal state becomes visible.
	wg.Wait()

	succeeded := 0

	for _, result := range results {
		if result.Success {
			succeeded++
		}
	}

	e.logger.Info().
		Str("token", request.Token).
		Int("succeeded", succeeded).
		Int("total", len(results)).
		Msg("reclamation batch executed")

	return results, nil
}

// deprecateOne resolves and deprecates a single address. Failures are
// recorded on the result, never propagated: one address must not abort
// the rest of the batch.
func (e *Executor) deprecateOne(ctx context.Context, address string) models.MutationResult {
	result := models.MutationResult{Address: address}

	allocation, err := e.registry.Lookup(ctx, address)
	if err != nil {
		result.Error = fmt.Sprintf("lookup %s: %v", address, err)

		e.logger.Warn().Str("address", address).Err(err).Msg("lookup failed during reclamation")

		return result
	}

	result.RegistryID = allocation.ID
	result.PreviousStatus = allocation.Status

	updated, err := e.registry.SetStatus(ctx, allocation.ID, models.StatusDeprecated)
	if err != nil {
		result.Error = fmt.Sprintf("deprecate %s: %v", address, err)

		e.logger.Warn().Str("address", address).Err(err).Msg("status update failed during reclamation")

		return result
	}

	result.NewStatus = updated.Status
	result.Success = true

	return result
}

// allSucceeded reports whether a result set is a full success.
func allSucceeded(results []models.MutationResult) bool {
	for _, result := range results {
		if !result.Success {
			return false
		}
	}

	return true
}

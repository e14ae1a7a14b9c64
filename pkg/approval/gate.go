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

// Package approval implements the human-in-the-loop mutation gate: a
// small state machine that tracks approval of proposed registry
// mutations. The gate never touches the registry itself; execution is
// delegated to the caller once a request is APPROVED.
package approval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carverauto/netreclaim/pkg/logger"
	"github.com/carverauto/netreclaim/pkg/models"
)

var (
	// ErrNoAddresses means a proposal contained no usable addresses.
	ErrNoAddresses = errors.New("no addresses in reclamation proposal")

	// ErrRequestNotFound means the token does not match a stored request.
	ErrRequestNotFound = errors.New("approval request not found")

	// ErrInvalidTransition guards the state machine: EXECUTED and FAILED
	// are reachable only through an EXECUTING claim, and terminal
	// requests cannot be abandoned.
	ErrInvalidTransition = errors.New("invalid approval state transition")

	// ErrStaleState means a conditional store update lost a race: the
	// request changed state between the read and the write.
	ErrStaleState = errors.New("approval request state changed concurrently")
)

// Gate enforces approve-before-execute semantics for registry
// mutations. Submit and Decide are idempotent so the workflow is safe
// behind an at-least-once delivery boundary.
type Gate struct {
	store  Store
	clock  func() time.Time
	logger logger.Logger
}

// NewGate creates a mutation gate over the given store.
func NewGate(store Store, log logger.Logger) *Gate {
	return &Gate{
		store:  store,
		clock:  time.Now,
		logger: log,
	}
}

// Submit proposes reclamation of the given addresses. If a PENDING
// request for the same canonical address set already exists, it is
// returned unchanged; a retried proposal never spawns a parallel
// approval prompt.
func (g *Gate) Submit(ctx context.Context, addresses []string) (*models.ApprovalRequest, error) {
	canonical, err := canonicalize(addresses)
	if err != nil {
		return nil, err
	}

	req := &models.ApprovalRequest{
		Token:     uuid.NewString(),
		Addresses: canonical,
		State:     models.StatePending,
		CreatedAt: g.clock().UTC(),
	}

	stored, created, err := g.store.GetOrCreatePending(ctx, canonicalKey(canonical), req)
	if err != nil {
		return nil, fmt.Errorf("submitting approval request: %w", err)
	}

	if created {
		g.logger.Info().
			Str("token", stored.Token).
			Int("addresses", len(stored.Addresses)).
			Msg("created approval request")
	} else {
		g.logger.Debug().
			Str("token", stored.Token).
			Msg("returning existing pending approval request")
	}

	return stored, nil
}

// Decide records the human decision for a PENDING request. Deciding a
// request that is no longer PENDING is a no-op that returns the current
// request: deciding twice never re-triggers execution or flips an
// already-decided outcome.
func (g *Gate) Decide(ctx context.Context, token string, approved bool) (*models.ApprovalRequest, error) {
	req, err := g.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if req.State != models.StatePending {
		g.logger.Debug().
			Str("token", token).
			Str("state", string(req.State)).
			Msg("decide on non-pending request is a no-op")

		return req, nil
	}

	now := g.clock().UTC()
	req.DecidedAt = &now

	if approved {
		req.State = models.StateApproved
	} else {
		req.State = models.StateRejected
	}

	if err := g.store.Update(ctx, req, models.StatePending); err != nil {
		// A concurrent decision won; report the stored outcome instead of
		// telling this caller its own decision took effect.
		if errors.Is(err, ErrStaleState) {
			g.logger.Debug().
				Str("token", token).
				Msg("lost decide race, returning stored decision")

			return g.store.Get(ctx, token)
		}

		return nil, fmt.Errorf("recording decision: %w", err)
	}

	g.logger.Info().
		Str("token", token).
		Bool("approved", approved).
		Msg("approval request decided")

	return req, nil
}

// Get loads a request by token.
func (g *Gate) Get(ctx context.Context, token string) (*models.ApprovalRequest, error) {
	return g.store.Get(ctx, token)
}

// Claim conditionally moves an APPROVED request to EXECUTING so that
// exactly one caller may apply it. The boolean reports whether this
// caller won the claim; when false the returned request shows the
// state that blocked it and the store is untouched.
func (g *Gate) Claim(ctx context.Context, token string) (*models.ApprovalRequest, bool, error) {
	req, err := g.store.Get(ctx, token)
	if err != nil {
		return nil, false, err
	}

	if req.State != models.StateApproved {
		return req, false, nil
	}

	req.State = models.StateExecuting

	if err := g.store.Update(ctx, req, models.StateApproved); err != nil {
		if errors.Is(err, ErrStaleState) {
			current, getErr := g.store.Get(ctx, token)
			if getErr != nil {
				return nil, false, getErr
			}

			return current, false, nil
		}

		return nil, false, fmt.Errorf("claiming request for execution: %w", err)
	}

	g.logger.Debug().Str("token", token).Msg("claimed approval request for execution")

	return req, true, nil
}

// Complete moves a claimed EXECUTING request to its terminal state
// after execution. Any other starting state violates the state machine.
func (g *Gate) Complete(ctx context.Context, token string, success bool) (*models.ApprovalRequest, error) {
	req, err := g.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if req.State != models.StateExecuting {
		return nil, fmt.Errorf("%w: %s -> executed", ErrInvalidTransition, req.State)
	}

	now := g.clock().UTC()
	req.ExecutedAt = &now

	if success {
		req.State = models.StateExecuted
	} else {
		req.State = models.StateFailed
	}

	if err := g.store.Update(ctx, req, models.StateExecuting); err != nil {
		return nil, fmt.Errorf("recording execution outcome: %w", err)
	}

	return req, nil
}

// Abandon drops a PENDING or APPROVED request. Terminal requests stay
// in the store for auditability, and a claimed EXECUTING request
// belongs to its executor; neither can be abandoned.
func (g *Gate) Abandon(ctx context.Context, token string) error {
	req, err := g.store.Get(ctx, token)
	if err != nil {
		return err
	}

	if req.State.Terminal() || req.State == models.StateExecuting {
		return fmt.Errorf("%w: cannot abandon %s request", ErrInvalidTransition, req.State)
	}

	if err := g.store.Delete(ctx, token); err != nil {
		return err
	}

	g.logger.Info().Str("token", token).Msg("approval request abandoned")

	return nil
}

// canonicalize trims, drops empties, sorts and deduplicates so equal
// logical proposals always map to the same key.
func canonicalize(addresses []string) ([]string, error) {
	canonical := make([]string, 0, len(addresses))

	for _, addr := range addresses {
		trimmed := strings.TrimSpace(addr)
		if trimmed == "" {
			continue
		}

		canonical = append(canonical, trimmed)
	}

	if len(canonical) == 0 {
		return nil, ErrNoAddresses
	}

	sort.Strings(canonical)

	deduped := canonical[:1]
	for _, addr := range canonical[1:] {
		if addr != deduped[len(deduped)-1] {
			deduped = append(deduped, addr)
		}
	}

	return deduped, nil
}

// canonicalKey hashes the canonical address set into the idempotency
// key used by the store.
func canonicalKey(canonical []string) string {
	sum := sha256.Sum256([]byte(strings.Join(canonical, "\n")))
	return hex.EncodeToString(sum[:])
}

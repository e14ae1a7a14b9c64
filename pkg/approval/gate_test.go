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

package approval

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/netreclaim/pkg/logger"
	"github.com/carverauto/netreclaim/pkg/models"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	return NewGate(NewMemoryStore(), logger.NewTestLogger())
}

func TestSubmitCreatesPendingRequest(t *testing.T) {
	gate := newTestGate(t)

	req, err := gate.Submit(context.Background(), []string{"10.0.1.15/24", "10.0.1.22/24"})
	require.NoError(t, err)

	assert.NotEmpty(t, req.Token)
	assert.Equal(t, models.StatePending, req.State)
	assert.Equal(t, []string{"10.0.1.15/24", "10.0.1.22/24"}, req.Addresses)
	assert.False(t, req.CreatedAt.IsZero())
}

func TestSubmitIsIdempotentWhilePending(t *testing.T) {
	gate := newTestGate(t)
	ctx := context.Background()

	first, err := gate.Submit(ctx, []string{"10.0.1.15/24", "10.0.1.22/24"})
	require.NoError(t, err)

	// Same logical set: different order, duplicates, stray whitespace.
	second, err := gate.Submit(ctx, []string{" 10.0.1.22/24", "10.0.1.15/24", "10.0.1.15/24"})
	require.NoError(t, err)

	assert.Equal(t, first.Token, second.Token)
}

func TestSubmitDifferentSetsCreateDistinctRequests(t *testing.T) {
	gate := newTestGate(t)
	ctx := context.Background()

	first, err := gate.Submit(ctx, []string{"10.0.1.15/24"})
	require.NoError(t, err)

	second, err := gate.Submit(ctx, []string{"10.0.1.22/24"})
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)
}

func TestSubmitRejectsEmptyProposal(t *testing.T) {
	gate := newTestGate(t)

	_, err := gate.Submit(context.Background(), []string{"", "  "})
	assert.ErrorIs(t, err, ErrNoAddresses)

	_, err = gate.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoAddresses)
}

func TestDecideApproves(t *testing.T) {
	gate := newTestGate(t)
	ctx := context.Background()

	req, err := gate.Submit(ctx, []string{"10.0.1.15/24"})
	require.NoError(t, err)

	decided, err := gate.Decide(ctx, req.Token, true)
	require.NoError(t, err)

	assert.Equal(t, models.StateApproved, decided.State)
	require.NotNil(t, decided.DecidedAt)
}

func TestDecideRejects(t *testing.T) {
	gate := newTestGate(t)
	ctx := context.Background()

	req, err := gate.Submit(ctx, []string{"10.0.1.15/24"})
	require.NoError(t, err)

	decided, err := gate.Decide(ctx, req.Token, false)
	require.NoError(t, err)
	assert.Equal(t, models.StateRejected, decided.State)
}

func TestDecideTwiceIsNoOp(t *testing.T) {
	gate := newTestGate(t)
	ctx := context.Background()

	req, err := gate.Submit(ctx, []string{"10.0.1.15/24"})
	require.NoError(t, err)

	first, err := gate.Decide(ctx, req.Token, false)
	require.NoError(t, err)
	assert.Equal(t, models.StateRejected, first.State)

	// A second decision must not flip the outcome.
	second, err := gate.Decide(ctx, req.Token, true)
	require.NoError(t, err)
	assert.Equal(t, models.StateRejected, second.State)
	assert.Equal(t, first.DecidedAt, second.DecidedAt)
}

func TestDecideUnknownToken(t *testing.T) {
	gate := newTestGate(t)

	_, err := gate.Decide(context.Background(), "no-such-token", true)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestDecidedRequestFreesIdempotencyKey(t *testing.T) {
	gate := newTestGate(t)
	ctx := context.Background()

	first, err := gate.Submit(ctx, []string{"10.0.1.15/24"})
	require.NoError(t, err)

	_, err = gate.Decide(ctx, first.Token, false)
	require.NoError(t, err)

	// Once the first request left PENDING, the same address set may be
	// proposed again.
	second, err := gate.Submit(ctx, []string{"10.0.1.15/24"})
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, models.StatePending, second.State)
}

// barrierStore holds every PENDING snapshot until two callers have
// one, forcing the worst-case decide interleaving: both racers read
// PENDING before either writes.
type barrierStore struct {
	Store

	mu      sync.Mutex
	held    int
	release chan struct{}
}

func (b *barrierStore) Get(ctx context.Context, token string) (*models.ApprovalRequest, error) {
	req, err := b.Store.Get(ctx, token)
	if err != nil || req.State != models.StatePending {
		return req, err
	}

	b.mu.Lock()
	b.held++

	if b.held == 2 {
		close(b.release)
	}
	b.mu.Unlock()

	<-b.release

	return req, err
}

func TestDecideRaceKeepsSingleOutcome(t *testing.T) {
	store := &barrierStore{Store: NewMemoryStore(), release: make(chan struct{})}
	gate := NewGate(store, logger.NewTestLogger())
	ctx := context.Background()

	req, err := gate.Submit(ctx, []string{"10.0.1.15/24"})
	require.NoError(t, err)

	results := make([]*models.ApprovalRequest, 2)
	errs := make([]error, 2)

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()
		results[0], errs[0] = gate.Decide(ctx, req.Token, true)
	}()

	go func() {
		defer wg.Done()
		results[1], errs[1] = gate.Decide(ctx, req.Token, false)
	}()

	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	stored, err := gate.Get(ctx, req.Token)
	require.NoError(t, err)
	assert.Contains(t, []models.ApprovalState{models.StateApproved, models.StateRejected}, stored.State)

	// Exactly one decision won, and both callers were told the stored
	// outcome rather than each being told its own decision took effect.
	assert.Equal(t, stored.State, results[0].State)
	assert.Equal(t, stored.State, results[1].State)
}

func TestClaimApprovedRequest(t *testing.T) {
	gate := newTestGate(t)
	ctx := context.Background()

	req, err := gate.Submit(ctx, []string{"10.0.1.15/24"})
	require.NoError(t, err)

	_, err = gate.Decide(ctx, req.Token, true)
	require.NoError(t, err)

	claimed, won, err := gate.Claim(ctx, req.Token)
	require.NoError(t, err)
	assert.True(t, won)
	assert.Equal(t, models.StateExecuting, claimed.State)

	// Only one claim can win; the loser sees who holds it.
	blocked, won, err := gate.Claim(ctx, req.Token)
	require.NoError(t, err)
	assert.False(t, won)
	assert.Equal(t, models.StateExecuting, blocked.State)
}

func TestClaimRequiresApproval(t *testing.T) {
	gate := newTestGate(t)
	ctx := context.Background()

	req, err := gate.Submit(ctx, []string{"10.0.1.15/24"})
	require.NoError(t, err)

	blocked, won, err := gate.Claim(ctx, req.Token)
	require.NoError(t, err)
	assert.False(t, won)
	assert.Equal(t, models.StatePending, blocked.State)
}

func TestCompleteRequiresClaimedRequest(t *testing.T) {
	gate := newTestGate(t)
	ctx := context.Background()

	req, err := gate.Submit(ctx, []string{"10.0.1.15/24"})
	require.NoError(t, err)

	_, err = gate.Complete(ctx, req.Token, true)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// APPROVED is not enough; the request must be claimed first.
	_, err = gate.Decide(ctx, req.Token, true)
	require.NoError(t, err)

	_, err = gate.Complete(ctx, req.Token, true)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	rejected, err := gate.Submit(ctx, []string{"10.0.2.15/24"})
	require.NoError(t, err)

	_, err = gate.Decide(ctx, rejected.Token, false)
	require.NoError(t, err)

	_, err = gate.Complete(ctx, rejected.Token, true)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCompleteTransitionsToTerminalState(t *testing.T) {
	gate := newTestGate(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		address string
		success bool
		want    models.ApprovalState
	}{
		{name: "all succeeded", address: "10.0.7.1/24", success: true, want: models.StateExecuted},
		{name: "partial failure", address: "10.0.7.2/24", success: false, want: models.StateFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := gate.Submit(ctx, []string{tt.address})
			require.NoError(t, err)

			_, err = gate.Decide(ctx, req.Token, true)
			require.NoError(t, err)

			_, won, err := gate.Claim(ctx, req.Token)
			require.NoError(t, err)
			require.True(t, won)

			done, err := gate.Complete(ctx, req.Token, tt.success)
			require.NoError(t, err)
			assert.Equal(t, tt.want, done.State)
			require.NotNil(t, done.ExecutedAt)

			// Terminal states admit no second completion.
			_, err = gate.Complete(ctx, req.Token, tt.success)
			assert.ErrorIs(t, err, ErrInvalidTransition)
		})
	}
}

func TestAbandonPendingAndApproved(t *testing.T) {
	gate := newTestGate(t)
	ctx := context.Background()

	pending, err := gate.Submit(ctx, []string{"10.0.1.15/24"})
	require.NoError(t, err)
	require.NoError(t, gate.Abandon(ctx, pending.Token))

	_, err = gate.Get(ctx, pending.Token)
	assert.ErrorIs(t, err, ErrRequestNotFound)

	approved, err := gate.Submit(ctx, []string{"10.0.1.22/24"})
	require.NoError(t, err)

	_, err = gate.Decide(ctx, approved.Token, true)
	require.NoError(t, err)

	require.NoError(t, gate.Abandon(ctx, approved.Token))
}

func TestAbandonTerminalRequestRejected(t *testing.T) {
	gate := newTestGate(t)
	ctx := context.Background()

	req, err := gate.Submit(ctx, []string{"10.0.1.15/24"})
	require.NoError(t, err)

	_, err = gate.Decide(ctx, req.Token, false)
	require.NoError(t, err)

	err = gate.Abandon(ctx, req.Token)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAbandonClaimedRequestRejected(t *testing.T) {
	gate := newTestGate(t)
	ctx := context.Background()

	req, err := gate.Submit(ctx, []string{"10.0.1.15/24"})
	require.NoError(t, err)

	_, err = gate.Decide(ctx, req.Token, true)
	require.NoError(t, err)

	_, won, err := gate.Claim(ctx, req.Token)
	require.NoError(t, err)
	require.True(t, won)

	err = gate.Abandon(ctx, req.Token)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

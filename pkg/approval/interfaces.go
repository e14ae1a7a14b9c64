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

	"github.com/carverauto/netreclaim/pkg/models"
)

// Store persists approval requests. Implementations must make
// GetOrCreatePending atomic so at most one PENDING request exists per
// canonical address-set key at any time.
type Store interface {
	// GetOrCreatePending inserts req under the canonical key, or returns
	// the PENDING request already holding that key. The boolean reports
	// whether req was inserted.
	GetOrCreatePending(ctx context.Context, key string, req *models.ApprovalRequest) (*models.ApprovalRequest, bool, error)

	// Get loads a request by token. Returns ErrRequestNotFound when the
	// token is unknown.
	Get(ctx context.Context, token string) (*models.ApprovalRequest, error)

	// Update persists a state change, but only while the stored request
	// is still in the expected state. A lost race returns ErrStaleState
	// with the store unchanged, so every transition is a compare-and-swap
	// and two racing callers can never both win.
	Update(ctx context.Context, req *models.ApprovalRequest, expected models.ApprovalState) error

	// Delete removes a request entirely.
	Delete(ctx context.Context, token string) error

	// Close releases any held resources.
	Close()
}

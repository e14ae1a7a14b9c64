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
	"fmt"
	"sync"

	"github.com/carverauto/netreclaim/pkg/models"
)

// MemoryStore is the in-process Store for single-process deployments.
// All operations are serialized through one lock; the pending index
// guarantees at most one PENDING request per canonical key.
type MemoryStore struct {
	mu         sync.RWMutex
	byToken    map[string]*models.ApprovalRequest
	pending    map[string]string // canonical key -> token
	keyByToken map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory approval store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byToken:    make(map[string]*models.ApprovalRequest),
		pending:    make(map[string]string),
		keyByToken: make(map[string]string),
	}
}

func (s *MemoryStore) GetOrCreatePending(_ context.Context, key string, req *models.ApprovalRequest) (*models.ApprovalRequest, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token, ok := s.pending[key]; ok {
		return s.byToken[token].Clone(), false, nil
	}

	s.byToken[req.Token] = req.Clone()
	s.pending[key] = req.Token
	s.keyByToken[req.Token] = key

	return req.Clone(), true, nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (*models.ApprovalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.byToken[token]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, token)
	}

	return req.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, req *models.ApprovalRequest, expected models.ApprovalState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byToken[req.Token]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRequestNotFound, req.Token)
	}

	if current.State != expected {
		return fmt.Errorf("%w: %s is %s, expected %s", ErrStaleState, req.Token, current.State, expected)
	}

	s.byToken[req.Token] = req.Clone()

	// A request leaving PENDING frees its idempotency key for the next
	// proposal of the same address set.
	if req.State != models.StatePending {
		if key, ok := s.keyByToken[req.Token]; ok {
			if s.pending[key] == req.Token {
				delete(s.pending, key)
			}

			delete(s.keyByToken, req.Token)
		}
	}

	return nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byToken[token]; !ok {
		return fmt.Errorf("%w: %s", ErrRequestNotFound, token)
	}

	delete(s.byToken, token)

	if key, ok := s.keyByToken[token]; ok {
		if s.pending[key] == token {
			delete(s.pending, key)
		}

		delete(s.keyByToken, token)
	}

	return nil
}

func (*MemoryStore) Close() { /* nothing held */ }

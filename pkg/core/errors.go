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

import "errors"

var (
	// ErrNotApproved means execute was called on a request that was
	// never approved. This is a contract violation, not a retryable
	// condition.
	ErrNotApproved = errors.New("approval request is not approved")

	// ErrAlreadyExecuted means execute was called on a request already
	// in a terminal state. Statuses may have changed in the registry
	// since; callers must re-submit through the gate for a fresh
	// request.
	ErrAlreadyExecuted = errors.New("approval request already executed")

	errQueryAllocations = errors.New("failed to query active allocations")
)

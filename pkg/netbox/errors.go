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

package netbox

import "errors"

var (
	// ErrNotFound means the registry has no record for the address.
	ErrNotFound = errors.New("address not found in registry")

	// ErrRequestFailed wraps HTTP, auth and validation failures from the
	// registry.
	ErrRequestFailed = errors.New("registry request failed")

	errMissingURL   = errors.New("netbox URL is required")
	errMissingToken = errors.New("netbox API token is required")
)

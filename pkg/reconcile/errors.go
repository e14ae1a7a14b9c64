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
	"errors"
	"fmt"
)

// ErrInvalidAddress is the sentinel wrapped by every InvalidAddressError.
var ErrInvalidAddress = errors.New("invalid address")

// InvalidAddressError reports an allocation or evidence address that
// could not be parsed. Malformed addresses are a data-integrity error:
// silently skipping one would understate drift, so classification fails
// loudly instead.
type InvalidAddressError struct {
	Address string
	Origin  string
	Err     error
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("%s address %q: %v", e.Origin, e.Address, e.Err)
}

func (e *InvalidAddressError) Unwrap() error {
	return ErrInvalidAddress
}

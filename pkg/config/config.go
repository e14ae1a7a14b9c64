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

// Package config loads and validates JSON configuration files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	errLoadConfigFailed = errors.New("failed to load configuration")
	errInvalidConfig    = errors.New("invalid configuration")
)

// Validator is implemented by config structs that can check their own
// consistency after loading.
type Validator interface {
	Validate() error
}

// LoadAndValidate reads a JSON config file into cfg and validates it if
// the struct implements Validator.
func LoadAndValidate(path string, cfg interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", errLoadConfigFailed, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: parsing %s: %w", errLoadConfigFailed, path, err)
	}

	if v, ok := cfg.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %w", errInvalidConfig, err)
		}
	}

	return nil
}

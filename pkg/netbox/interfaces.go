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

import (
	"context"
	"net/http"

	"github.com/carverauto/netreclaim/pkg/models"
)

//go:generate mockgen -destination=mock_netbox.go -package=netbox github.com/carverauto/netreclaim/pkg/netbox RegistryClient,HTTPClient

// RegistryClient is the allocation registry surface the core consumes.
type RegistryClient interface {
	// QueryActive returns every allocation with status active inside the
	// given prefix.
	QueryActive(ctx context.Context, prefix string) ([]models.Allocation, error)

	// Lookup resolves a single address to its allocation. Returns
	// ErrNotFound when the registry has no record of it.
	Lookup(ctx context.Context, address string) (*models.Allocation, error)

	// SetStatus updates the status of an allocation and returns the
	// updated record.
	SetStatus(ctx context.Context, id int64, status models.AllocationStatus) (*models.Allocation, error)

	// Version reports the registry server version.
	Version(ctx context.Context) (string, error)
}

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

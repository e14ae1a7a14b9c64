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

package probe

import (
	"context"
	"sync"
	"time"

	"github.com/carverauto/netreclaim/pkg/logger"
	"github.com/carverauto/netreclaim/pkg/models"
)

const (
	defaultConcurrency   = 4
	defaultDeviceTimeout = 15 * time.Second
)

// Gatherer polls a set of devices with bounded parallelism and joins
// their evidence. A device that fails or times out contributes no
// evidence; it never fails the run.
type Gatherer struct {
	collectors    map[Transport]Collector
	concurrency   int
	deviceTimeout time.Duration
	logger        logger.Logger
}

// NewGatherer creates a gatherer over the given per-transport
// collectors. Zero concurrency and timeout pick defaults.
func NewGatherer(collectors map[Transport]Collector, concurrency int, deviceTimeout time.Duration, log logger.Logger) *Gatherer {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	if deviceTimeout <= 0 {
		deviceTimeout = defaultDeviceTimeout
	}

	return &Gatherer{
		collectors:    collectors,
		concurrency:   concurrency,
		deviceTimeout: deviceTimeout,
		logger:        log,
	}
}

// NewDefaultGatherer wires the standard SSH and SNMP collectors.
func NewDefaultGatherer(concurrency int, deviceTimeout time.Duration, log logger.Logger) *Gatherer {
	return NewGatherer(map[Transport]Collector{
		TransportSSH:  NewSSHCollector(log),
		TransportSNMP: NewSNMPCollector(log),
	}, concurrency, deviceTimeout, log)
}

// Gather polls every device and returns the combined evidence, ordered
// by device input position so reconciliation runs are reproducible.
func (g *Gatherer) Gather(ctx context.Context, devices []Device) []models.Evidence {
	if len(devices) == 0 {
		return nil
	}

	perDevice := make([][]models.Evidence, len(devices))
	workCh := make(chan int, len(devices))

	var wg sync.WaitGroup

	workers := min(g.concurrency, len(devices))

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for idx := range workCh {
				perDevice[idx] = g.pollDevice(ctx, devices[idx])
			}
		}()
	}

	for idx := range devices {
		workCh <- idx
	}

	close(workCh)
	wg.Wait()

	var combined []models.Evidence
	for _, evidence := range perDevice {
		combined = append(combined, evidence...)
	}

	return combined
}

// pollDevice polls both evidence sources of one device under its own
// timeout. Whatever succeeded is kept; failures are logged and degrade
// that source to empty.
func (g *Gatherer) pollDevice(ctx context.Context, device Device) []models.Evidence {
	collector, ok := g.collectors[device.Transport]
	if !ok {
		g.logger.Error().
			Str("device", device.Name).
			Str("transport", string(device.Transport)).
			Err(errUnsupportedTransport).
			Msg("skipping device")

		return nil
	}

	timeout := device.Timeout
	if timeout == 0 {
		timeout = g.deviceTimeout
	}

	deviceCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var evidence []models.Evidence

	arpEvidence, err := collector.PollARP(deviceCtx, device)
	if err != nil {
		g.logger.Warn().
			Str("device", device.Name).
			Err(err).
			Msg("ARP poll failed, device contributes no ARP evidence")
	} else {
		evidence = append(evidence, arpEvidence...)
	}

	ifaceEvidence, err := collector.PollInterfaces(deviceCtx, device)
	if err != nil {
		g.logger.Warn().
			Str("device", device.Name).
			Err(err).
			Msg("interface poll failed, device contributes no interface evidence")
	} else {
		evidence = append(evidence, ifaceEvidence...)
	}

	return evidence
}

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
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/carverauto/netreclaim/pkg/logger"
	"github.com/carverauto/netreclaim/pkg/models"
)

const (
	// ipNetToMediaNetAddress: the ARP cache as seen over SNMP.
	oidIPNetToMediaNetAddress = ".1.3.6.1.2.1.4.22.1.3"
	// ipAdEntIfIndex maps each local address to its interface index.
	oidIPAdEntIfIndex = ".1.3.6.1.2.1.4.20.1.2"
	// ifOperStatus: 1 = up, 2 = down.
	oidIfOperStatus = ".1.3.6.1.2.1.2.2.1.8"

	defaultSNMPPort    = 161
	defaultSNMPTimeout = 5 * time.Second

	ifOperStatusUp = 1
)

// SNMPCollector polls devices that expose their ARP cache and address
// table over SNMP instead of a scrapeable CLI.
type SNMPCollector struct {
	logger logger.Logger
}

var _ Collector = (*SNMPCollector)(nil)

// NewSNMPCollector creates an SNMP-based evidence collector.
func NewSNMPCollector(log logger.Logger) *SNMPCollector {
	return &SNMPCollector{logger: log}
}

func (c *SNMPCollector) PollARP(ctx context.Context, device Device) ([]models.Evidence, error) {
	client, err := c.connect(ctx, device)
	if err != nil {
		return nil, err
	}
	defer client.Conn.Close()

	var evidence []models.Evidence

	err = client.BulkWalk(oidIPNetToMediaNetAddress, func(pdu gosnmp.SnmpPDU) error {
		if pdu.Type != gosnmp.IPAddress {
			return nil
		}

		ip, ok := pdu.Value.(string)
		if !ok || ip == "" {
			return nil
		}

		evidence = append(evidence, models.Evidence{
			IP:     ip,
			Source: models.SourceARP,
			Device: device.Name,
			State:  models.StateUp,
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDeviceUnreachable, device.Name, err)
	}

	c.logger.Debug().
		Str("device", device.Name).
		Int("entries", len(evidence)).
		Msg("walked SNMP ARP cache")

	return evidence, nil
}

func (c *SNMPCollector) PollInterfaces(ctx context.Context, device Device) ([]models.Evidence, error) {
	client, err := c.connect(ctx, device)
	if err != nil {
		return nil, err
	}
	defer client.Conn.Close()

	operStatus := make(map[int]int)

	err = client.BulkWalk(oidIfOperStatus, func(pdu gosnmp.SnmpPDU) error {
		suffix := strings.TrimPrefix(pdu.Name, oidIfOperStatus+".")

		ifIndex, convErr := strconv.Atoi(suffix)
		if convErr != nil {
			return nil
		}

		if status, ok := pdu.Value.(int); ok {
			operStatus[ifIndex] = status
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDeviceUnreachable, device.Name, err)
	}

	var evidence []models.Evidence

	err = client.BulkWalk(oidIPAdEntIfIndex, func(pdu gosnmp.SnmpPDU) error {
		// The address is the OID suffix of ipAdEntIfIndex rows.
		ip := strings.TrimPrefix(pdu.Name, oidIPAdEntIfIndex+".")

		ifIndex, ok := pdu.Value.(int)
		if !ok {
			return nil
		}

		state := models.StateUnknown
		if status, known := operStatus[ifIndex]; known {
			if status == ifOperStatusUp {
				state = models.StateUp
			} else {
				state = models.StateDown
			}
		}

		evidence = append(evidence, models.Evidence{
			IP:     ip,
			Source: models.SourceInterface,
			Device: device.Name,
			State:  state,
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDeviceUnreachable, device.Name, err)
	}

	c.logger.Debug().
		Str("device", device.Name).
		Int("entries", len(evidence)).
		Msg("walked SNMP address table")

	return evidence, nil
}

func (c *SNMPCollector) connect(ctx context.Context, device Device) (*gosnmp.GoSNMP, error) {
	port := device.Port
	if port == 0 {
		port = defaultSNMPPort
	}

	timeout := device.Timeout
	if timeout == 0 {
		timeout = defaultSNMPTimeout
	}

	client := &gosnmp.GoSNMP{
		Context:            ctx,
		Target:             device.Host,
		Port:               uint16(port),
		Community:          device.Community,
		Version:            gosnmp.Version2c,
		Timeout:            timeout,
		Retries:            1,
		MaxOids:            gosnmp.MaxOids,
		MaxRepetitions:     10,
		ExponentialTimeout: true,
	}

	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDeviceUnreachable, device.Name, err)
	}

	return client, nil
}

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

// Package probe collects address-observation evidence from network
// devices over SSH command scraping or SNMP.
package probe

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/carverauto/netreclaim/pkg/logger"
	"github.com/carverauto/netreclaim/pkg/models"
)

const (
	defaultSSHPort = 22

	cmdShowARP            = "show ip arp"
	cmdShowInterfaceBrief = "show ip interface brief"
)

// SSHCollector scrapes Arista EOS CLI output over SSH.
type SSHCollector struct {
	logger logger.Logger
}

var _ Collector = (*SSHCollector)(nil)

// NewSSHCollector creates an SSH-based evidence collector.
func NewSSHCollector(log logger.Logger) *SSHCollector {
	return &SSHCollector{logger: log}
}

func (c *SSHCollector) PollARP(ctx context.Context, device Device) ([]models.Evidence, error) {
	raw, err := c.runCommand(ctx, device, cmdShowARP)
	if err != nil {
		return nil, err
	}

	evidence := parseARPTable(raw, device.Name)

	c.logger.Debug().
		Str("device", device.Name).
		Int("entries", len(evidence)).
		Msg("collected ARP table")

	return evidence, nil
}

func (c *SSHCollector) PollInterfaces(ctx context.Context, device Device) ([]models.Evidence, error) {
	raw, err := c.runCommand(ctx, device, cmdShowInterfaceBrief)
	if err != nil {
		return nil, err
	}

	evidence := parseInterfaceBrief(raw, device.Name)

	c.logger.Debug().
		Str("device", device.Name).
		Int("entries", len(evidence)).
		Msg("collected interface addresses")

	return evidence, nil
}

// runCommand opens a fresh session per command; EOS closes sessions
// after each exec.
func (c *SSHCollector) runCommand(ctx context.Context, device Device, command string) (string, error) {
	port := device.Port
	if port == 0 {
		port = defaultSSHPort
	}

	addr := net.JoinHostPort(device.Host, fmt.Sprintf("%d", port))

	// An unset device timeout inherits the context deadline so the
	// handshake is never unbounded.
	timeout := device.Timeout
	if timeout == 0 {
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
	}

	config := &ssh.ClientConfig{
		User: device.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(device.Password),
		},
		// Lab devices are reprovisioned often enough that host keys churn.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec
		Timeout:         timeout,
	}

	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrDeviceUnreachable, device.Name, err)
	}

	// The ssh library does not take a context past the dial; closing the
	// transport on cancellation unblocks the handshake and any command
	// still in flight.
	watchdogDone := make(chan struct{})
	defer close(watchdogDone)

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-watchdogDone:
		}
	}()

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		_ = conn.Close()

		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrDeviceUnreachable, device.Name, ctx.Err())
		}

		return "", fmt.Errorf("%w: %s: %w", ErrDeviceUnreachable, device.Name, err)
	}

	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrDeviceUnreachable, device.Name, err)
	}
	defer session.Close()

	output, err := session.Output(command)
	if err != nil {
		return "", fmt.Errorf("running %q on %s: %w", command, device.Name, err)
	}

	return string(output), nil
}

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
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/netreclaim/pkg/logger"
)

// A listener that accepts connections and never speaks SSH: the worst
// case for the collector, since TCP succeeds but the handshake stalls.
func hangingListener(t *testing.T) (host string, port int) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		conns []net.Conn
	)

	t.Cleanup(func() {
		_ = ln.Close()

		mu.Lock()
		defer mu.Unlock()

		for _, conn := range conns {
			_ = conn.Close()
		}
	})

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}

			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	port, err = strconv.Atoi(portStr)
	require.NoError(t, err)

	return host, port
}

func TestSSHCollectorHonorsContextDuringHandshake(t *testing.T) {
	host, port := hangingListener(t)

	collector := NewSSHCollector(logger.NewTestLogger())

	device := Device{
		Name:      "hung1",
		Host:      host,
		Port:      port,
		Transport: TransportSSH,
		Username:  "audit",
		Password:  "secret",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()

	_, err := collector.PollARP(ctx, device)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeviceUnreachable)
	assert.Less(t, time.Since(start), 3*time.Second,
		"a device that accepts TCP but never completes the handshake must not outlive its deadline")
}

/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"fmt"
	"net"
	"time"
)

// GetLocalAddrWithFreeTCPPort returns a 127.0.0.1 address with a TCP port nobody listens on right now.
func GetLocalAddrWithFreeTCPPort() string {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic(err)
	}
	defer func() { _ = listener.Close() }()
	return listener.Addr().String()
}

// WaitListeningServer blocks until a TCP connection to addr succeeds or timeout expires.
func WaitListeningServer(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		conn, err := net.DialTimeout("tcp", addr, time.Second)
		if err == nil {
			return conn.Close()
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("server at %s is not listening after %s: %w", addr, timeout, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

package main

import (
	"fmt"
	"net"
)

const maxPortTries = 100

// listenOnOpenPort binds the first available port at or above the
// requested one, returning the listener and the port actually bound.
func listenOnOpenPort(host string, start int) (net.Listener, int, error) {
	for port := start; port < start+maxPortTries; port++ {
		listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
		if err == nil {
			return listener, port, nil
		}
	}
	return nil, 0, fmt.Errorf("no open port found in range %d-%d", start, start+maxPortTries)
}

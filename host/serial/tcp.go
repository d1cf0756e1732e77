package serial

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// tcpPrefix selects a network connection instead of a device, used to
// reach the simulator.
const tcpPrefix = "tcp://"

// TCPPort is a serial line carried over TCP.
type TCPPort struct {
	net.Conn
}

func isTCP(device string) bool {
	return strings.HasPrefix(device, tcpPrefix)
}

func openTCP(cfg *Config) (Port, error) {
	addr := strings.TrimPrefix(cfg.Device, tcpPrefix)
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return &TCPPort{Conn: conn}, nil
}

// Flush has nothing to discard on a stream socket.
func (p *TCPPort) Flush() error {
	return nil
}

package protocol

import "errors"

var errFifoFull = errors.New("fifo full")

// Link is the byte stream the firmware talks over. Receive calls are
// all-or-nothing: buf is filled completely or nothing is consumed.
type Link interface {
	Send(data []byte)
	Available() int
	Receive(buf []byte) bool
	// ReceiveBlocking waits up to timeout clock ticks for len(buf) bytes.
	ReceiveBlocking(buf []byte, timeout uint32) bool
}

// Port is a Link over a pair of FIFOs. The board's UART receive interrupt
// feeds RX; Flush moves TX to the wire.
type Port struct {
	RX *FifoBuffer
	TX *FifoBuffer

	// Clock returns a free-running tick count used for receive timeouts.
	Clock func() uint32
	// Flush drains TX to the hardware. Called after every Send and when
	// TX fills up. May be nil.
	Flush func()
	// Wait is called while ReceiveBlocking spins (idle, watchdog kick).
	// May be nil.
	Wait func()
}

// NewPort creates a port with rxSize and txSize byte queues.
func NewPort(rxSize, txSize int, clock func() uint32) *Port {
	return &Port{
		RX:    NewFifoBuffer(rxSize),
		TX:    NewFifoBuffer(txSize),
		Clock: clock,
	}
}

// Send queues data for transmission. Bytes that do not fit after a flush
// are dropped.
func (p *Port) Send(data []byte) {
	for len(data) > 0 {
		n := p.TX.Write(data)
		data = data[n:]
		if len(data) > 0 && n == 0 {
			if p.Flush == nil {
				return
			}
			p.Flush()
			if p.TX.Free() == 0 {
				return
			}
		}
	}
	if p.Flush != nil {
		p.Flush()
	}
}

// Available returns the number of received bytes waiting.
func (p *Port) Available() int {
	return p.RX.Available()
}

// Receive copies len(buf) bytes out of RX if that many are waiting.
func (p *Port) Receive(buf []byte) bool {
	if p.RX.Available() < len(buf) {
		return false
	}
	p.RX.Read(buf)
	return true
}

// ReceiveBlocking waits for len(buf) bytes. On timeout nothing is consumed.
func (p *Port) ReceiveBlocking(buf []byte, timeout uint32) bool {
	start := p.Clock()
	for p.RX.Available() < len(buf) {
		if p.Clock()-start >= timeout {
			return false
		}
		if p.Wait != nil {
			p.Wait()
		}
	}
	p.RX.Read(buf)
	return true
}

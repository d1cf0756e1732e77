package sim

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog"
)

// writeTimeout bounds a transmit to a host that is not reading.
const writeTimeout = 100 * time.Millisecond

// serialBridge connects one host stream to the board's UART FIFOs.
type serialBridge struct {
	conn io.ReadWriteCloser
	done chan struct{}
}

// Attach connects conn to the board's UART, replacing any earlier
// connection. Received bytes go to Port.RX the way the receive interrupt
// would put them there.
func (b *Board) Attach(conn io.ReadWriteCloser) {
	bridge := &serialBridge{conn: conn, done: make(chan struct{})}

	b.connMu.Lock()
	old := b.conn
	b.conn = bridge
	b.connMu.Unlock()
	if old != nil {
		old.conn.Close()
		<-old.done
	}

	go func() {
		defer close(bridge.done)
		buf := make([]byte, 64)
		for {
			n, err := conn.Read(buf)
			for _, c := range buf[:n] {
				if err := b.Port.RX.WriteByte(c); err != nil {
					b.log.Warn().Msg("uart overrun")
				}
			}
			if err != nil {
				b.detach(bridge, err)
				return
			}
		}
	}()
}

// Connect returns the host end of a new in-memory serial line.
func (b *Board) Connect() io.ReadWriteCloser {
	host, dev := net.Pipe()
	b.Attach(dev)
	return host
}

// Serve attaches every connection accepted on l in turn.
func (b *Board) Serve(l net.Listener) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			return err
		}
		b.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("serial client connected")
		b.Attach(conn)
	}
}

func (b *Board) detach(bridge *serialBridge, err error) {
	b.connMu.Lock()
	if b.conn == bridge {
		b.conn = nil
	}
	b.connMu.Unlock()

	level := zerolog.WarnLevel
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
		level = zerolog.InfoLevel
	}
	b.log.WithLevel(level).Err(err).Msg("serial client gone")
}

// flushSerial is the transmit side of the UART. Without a connection, or
// when the host stops reading, the bytes are dropped.
func (b *Board) flushSerial() {
	b.connMu.Lock()
	bridge := b.conn
	b.connMu.Unlock()

	for data := b.Port.TX.Data(); len(data) > 0; data = b.Port.TX.Data() {
		if bridge != nil {
			if c, ok := bridge.conn.(net.Conn); ok {
				c.SetWriteDeadline(time.Now().Add(writeTimeout))
			}
			if _, err := bridge.conn.Write(data); err != nil {
				b.log.Debug().Err(err).Msg("serial write failed")
			}
		}
		b.Port.TX.Pop(len(data))
	}
}

package protocol

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

var (
	ErrTimeout       = errors.New("reply timeout")
	ErrClientClosed  = errors.New("client closed")
	ErrUnexpectedAck = errors.New("unexpected reply")
)

// DefaultTimeout matches the read timeout of the serial console.
const DefaultTimeout = 2 * time.Second

// Client is the host side of the configuration protocol. A background
// reader moves reply bytes from the port into a channel so that every
// request can wait with a timeout.
type Client struct {
	port io.ReadWriteCloser

	rx chan byte

	writeMutex sync.Mutex

	// Timeout bounds the wait for each reply byte.
	Timeout time.Duration
	// Quiet is how long Raw waits after the last byte before returning.
	Quiet time.Duration

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

// NewClient creates a client and starts its reader.
func NewClient(port io.ReadWriteCloser) *Client {
	c := &Client{
		port:     port,
		rx:       make(chan byte, 256),
		Timeout:  DefaultTimeout,
		Quiet:    200 * time.Millisecond,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Handshake switches the firmware into configuration mode. Bytes other
// than the acknowledgement are skipped.
func (c *Client) Handshake() error {
	c.drain()
	if err := c.write([]byte{HandshakeByte}); err != nil {
		return err
	}
	deadline := time.After(c.Timeout)
	for {
		select {
		case b := <-c.rx:
			if b == AckByte {
				return nil
			}
		case <-deadline:
			return fmt.Errorf("handshake: %w", ErrTimeout)
		case <-c.stopChan:
			return ErrClientClosed
		}
	}
}

// Read returns the raw value of parameter id.
func (c *Client) Read(id uint8) (int16, error) {
	if err := c.request(OpRead|id&IDMask, nil); err != nil {
		return 0, fmt.Errorf("read %d: %w", id, err)
	}
	var v [2]byte
	for i := range v {
		b, err := c.readByte()
		if err != nil {
			return 0, fmt.Errorf("read %d value: %w", id, err)
		}
		v[i] = b
	}
	return GetInt16(v[:]), nil
}

// Write sets the raw value of parameter id.
func (c *Client) Write(id uint8, value int16) error {
	err := c.request(OpWrite|id&IDMask, func(out OutputBuffer) {
		PutInt16(out, value)
	})
	if err != nil {
		return fmt.Errorf("write %d: %w", id, err)
	}
	return nil
}

// Finish makes the firmware persist its record and restart.
func (c *Client) Finish() error {
	if err := c.request(OpFinish, nil); err != nil {
		return fmt.Errorf("finish: %w", err)
	}
	return nil
}

// Raw sends data unchanged and returns every byte received until the line
// goes quiet.
func (c *Client) Raw(data []byte) ([]byte, error) {
	c.drain()
	if err := c.write(data); err != nil {
		return nil, err
	}
	var reply []byte
	wait := c.Timeout
	for {
		select {
		case b := <-c.rx:
			reply = append(reply, b)
			wait = c.Quiet
		case <-time.After(wait):
			return reply, nil
		case <-c.stopChan:
			return reply, ErrClientClosed
		}
	}
}

// request sends one framed request and waits for the status byte.
func (c *Client) request(op byte, body func(out OutputBuffer)) error {
	scratch := NewScratchOutput()
	EncodeRequest(scratch, op, body)

	c.drain()
	if err := c.write(scratch.Result()); err != nil {
		return err
	}

	b, err := c.readByte()
	if err != nil {
		return err
	}
	switch {
	case b == AckByte:
		return nil
	case IsErrorCode(b):
		return ErrorCode(b)
	}
	return fmt.Errorf("%w 0x%02x", ErrUnexpectedAck, b)
}

func (c *Client) write(data []byte) error {
	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()

	n, err := c.port.Write(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(data))
	}
	return nil
}

func (c *Client) readByte() (byte, error) {
	select {
	case b := <-c.rx:
		return b, nil
	case <-time.After(c.Timeout):
		return 0, ErrTimeout
	case <-c.stopChan:
		return 0, ErrClientClosed
	}
}

// drain discards stale bytes left over from an earlier request.
func (c *Client) drain() {
	for {
		select {
		case <-c.rx:
		default:
			return
		}
	}
}

// readLoop continuously reads from the port
func (c *Client) readLoop() {
	defer close(c.doneChan)

	buffer := make([]byte, 64)
	for {
		n, err := c.port.Read(buffer)
		for _, b := range buffer[:n] {
			select {
			case c.rx <- b:
			case <-c.stopChan:
				return
			}
		}
		if err != nil {
			select {
			case <-c.stopChan:
				return
			default:
			}
			// A serial read timeout also shows up as io.EOF, so only a
			// closed port ends the loop.
			if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// Close stops the reader and closes the port
func (c *Client) Close() error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stopChan)
		if c.port != nil {
			err = c.port.Close()
		}
		<-c.doneChan
	})
	return err
}

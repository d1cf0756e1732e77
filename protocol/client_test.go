package protocol

import (
	"errors"
	"net"
	"testing"
	"time"

	"sanhaco/config"
)

// fakeDevice runs a Session behind one end of a pipe, the way the board
// runs it behind its UART.
type fakeDevice struct {
	conn  net.Conn
	port  *Port
	rec   config.Record
	store *config.Store
	done  chan error
}

func startFakeDevice(t *testing.T, conn net.Conn) *fakeDevice {
	t.Helper()
	start := time.Now()
	d := &fakeDevice{
		conn:  conn,
		rec:   config.Defaults(),
		store: config.NewStore(config.NewMemoryNV(config.StoreSize), 0),
		done:  make(chan error, 1),
	}
	d.port = NewPort(64, 64, func() uint32 {
		return uint32(time.Since(start).Milliseconds())
	})
	d.port.Flush = func() {
		out := d.port.TX.Data()
		n, _ := d.conn.Write(out)
		d.port.TX.Pop(n)
	}
	d.port.Wait = func() { time.Sleep(time.Millisecond) }

	// UART receive interrupt
	go func() {
		buf := make([]byte, 16)
		for {
			n, err := conn.Read(buf)
			for _, b := range buf[:n] {
				d.port.RX.WriteByte(b)
			}
			if err != nil {
				return
			}
		}
	}()

	// Main loop: wait for the handshake, then serve.
	go func() {
		var b [1]byte
		for {
			if d.port.Receive(b[:]) && b[0] == HandshakeByte {
				break
			}
			time.Sleep(time.Millisecond)
		}
		s := NewSession(d.port, &d.rec, d.store, 500)
		s.Begin()
		for {
			done, err := s.Poll()
			if done || err != nil {
				d.done <- err
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()
	return d
}

func TestClientAgainstSession(t *testing.T) {
	hostEnd, devEnd := net.Pipe()
	dev := startFakeDevice(t, devEnd)
	defer devEnd.Close()

	c := NewClient(hostEnd)
	defer c.Close()
	c.Timeout = time.Second

	if err := c.Handshake(); err != nil {
		t.Fatalf("Handshake failed: %v", err)
	}

	if err := c.Write(uint8(config.EncoderFrames), 12); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	v, err := c.Read(uint8(config.EncoderFrames))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if v != 12 {
		t.Errorf("Read returned %d, want 12", v)
	}

	err = c.Write(uint8(config.ReceiverSamples), 6)
	var code ErrorCode
	if !errors.As(err, &code) || code != ErrInvalidValue {
		t.Errorf("even sample count: got %v, want %v", err, ErrInvalidValue)
	}

	reply, err := c.Raw([]byte{0})
	if err != nil {
		t.Fatalf("Raw failed: %v", err)
	}
	if len(reply) != 1 || reply[0] != byte(ErrInvalidCommand) {
		t.Errorf("Raw reply = % X, want E0", reply)
	}

	if err := c.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	select {
	case err := <-dev.done:
		if err != nil {
			t.Errorf("session ended with %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("session did not end after finish")
	}

	loaded, _, _ := dev.store.Load()
	if loaded.EncoderFrames() != 12 {
		t.Errorf("persisted enc frames = %d, want 12", loaded.EncoderFrames())
	}
}

func TestClientTimeout(t *testing.T) {
	hostEnd, devEnd := net.Pipe()
	defer devEnd.Close()

	// Swallow writes without answering.
	go func() {
		buf := make([]byte, 16)
		for {
			if _, err := devEnd.Read(buf); err != nil {
				return
			}
		}
	}()

	c := NewClient(hostEnd)
	defer c.Close()
	c.Timeout = 20 * time.Millisecond

	if err := c.Handshake(); !errors.Is(err, ErrTimeout) {
		t.Errorf("Handshake: got %v, want ErrTimeout", err)
	}
	if _, err := c.Read(0); !errors.Is(err, ErrTimeout) {
		t.Errorf("Read: got %v, want ErrTimeout", err)
	}
}

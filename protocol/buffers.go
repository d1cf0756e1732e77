package protocol

import "sync/atomic"

// OutputBuffer provides an abstraction for writing outgoing protocol data
type OutputBuffer interface {
	// Output writes data to the buffer
	Output(data []byte)

	// CurPosition returns the current write position
	CurPosition() int

	// Update modifies a byte at a specific position
	Update(pos int, val byte)

	// DataSince returns data from a specific position to current
	DataSince(pos int) []byte
}

// ScratchOutput implements OutputBuffer using a fixed-size scratch buffer
// large enough for one request or reply
type ScratchOutput struct {
	buf [MessageMax]byte
	pos int
}

// NewScratchOutput creates a new ScratchOutput
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{pos: 0}
}

func (s *ScratchOutput) Output(data []byte) {
	n := copy(s.buf[s.pos:], data)
	s.pos += n
}

func (s *ScratchOutput) CurPosition() int {
	return s.pos
}

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos < len(s.buf) {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Result returns the accumulated output data
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Reset clears the buffer
func (s *ScratchOutput) Reset() {
	s.pos = 0
}

// FifoBuffer is a circular byte queue between one producer and one
// consumer, typically a UART interrupt and the main loop. Only the producer
// moves write and only the consumer moves read, so neither side needs a
// critical section.
type FifoBuffer struct {
	buf   []byte
	read  uint32
	write uint32
	size  uint32
}

// NewFifoBuffer creates a new FifoBuffer with the specified capacity.
// One slot is kept free to tell full from empty.
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{
		buf:  make([]byte, capacity),
		size: uint32(capacity),
	}
}

// Write appends data to the FIFO buffer and returns how many bytes fit
func (f *FifoBuffer) Write(data []byte) int {
	w := atomic.LoadUint32(&f.write)
	r := atomic.LoadUint32(&f.read)
	written := 0
	for _, b := range data {
		next := (w + 1) % f.size
		if next == r {
			// Buffer full
			break
		}
		f.buf[w] = b
		w = next
		written++
	}
	atomic.StoreUint32(&f.write, w)
	return written
}

// WriteByte appends a single byte; it is what a receive interrupt calls.
// A full buffer drops the byte.
func (f *FifoBuffer) WriteByte(b byte) error {
	w := atomic.LoadUint32(&f.write)
	next := (w + 1) % f.size
	if next == atomic.LoadUint32(&f.read) {
		return errFifoFull
	}
	f.buf[w] = b
	atomic.StoreUint32(&f.write, next)
	return nil
}

// Read reads up to len(data) bytes from the FIFO buffer
func (f *FifoBuffer) Read(data []byte) int {
	r := atomic.LoadUint32(&f.read)
	w := atomic.LoadUint32(&f.write)
	read := 0
	for i := range data {
		if r == w {
			// Buffer empty
			break
		}
		data[i] = f.buf[r]
		r = (r + 1) % f.size
		read++
	}
	atomic.StoreUint32(&f.read, r)
	return read
}

// Available returns the number of bytes available for reading
func (f *FifoBuffer) Available() int {
	r := atomic.LoadUint32(&f.read)
	w := atomic.LoadUint32(&f.write)
	if w >= r {
		return int(w - r)
	}
	return int(f.size - r + w)
}

// Free returns the number of bytes available for writing
func (f *FifoBuffer) Free() int {
	return int(f.size) - f.Available() - 1
}

// Data returns available data as a slice.
// When wrapped, this copies data into a contiguous slice.
func (f *FifoBuffer) Data() []byte {
	r := atomic.LoadUint32(&f.read)
	w := atomic.LoadUint32(&f.write)
	if r <= w {
		return f.buf[r:w]
	}
	result := make([]byte, f.size-r+w)
	firstLen := copy(result, f.buf[r:])
	copy(result[firstLen:], f.buf[:w])
	return result
}

// Pop removes n bytes from the front
func (f *FifoBuffer) Pop(n int) {
	r := atomic.LoadUint32(&f.read)
	w := atomic.LoadUint32(&f.write)
	for i := 0; i < n && r != w; i++ {
		r = (r + 1) % f.size
	}
	atomic.StoreUint32(&f.read, r)
}

// IsEmpty returns true if the buffer is empty
func (f *FifoBuffer) IsEmpty() bool {
	return atomic.LoadUint32(&f.read) == atomic.LoadUint32(&f.write)
}

// Reset clears the buffer. Only call it when neither side is active.
func (f *FifoBuffer) Reset() {
	atomic.StoreUint32(&f.read, 0)
	atomic.StoreUint32(&f.write, 0)
}

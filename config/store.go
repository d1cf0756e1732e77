package config

import (
	"encoding/binary"
	"errors"
	"io"
)

var ErrShortRecord = errors.New("record data too short")

// Copies is the number of redundant record copies kept in storage.
const Copies = 3

// slotSize is one stored copy: the record followed by its checksum.
const slotSize = RecordSize + 2

// StoreSize is the number of bytes a Store occupies in NV memory.
const StoreSize = Copies * slotSize

// NVMemory is byte-addressed non-volatile memory (EEPROM, a flash page
// wrapper, or a RAM fake in tests).
type NVMemory interface {
	io.ReaderAt
	io.WriterAt
}

// Store keeps Copies checksummed copies of the record and votes them back
// together on load.
type Store struct {
	mem  NVMemory
	base int64

	// Kick is called between copies so that long NV loops do not starve
	// the watchdog. May be nil.
	Kick func()
}

// NewStore creates a store at offset base of mem.
func NewStore(mem NVMemory, base int64) *Store {
	return &Store{mem: mem, base: base}
}

func (s *Store) kick() {
	if s.Kick != nil {
		s.Kick()
	}
}

// Load reads the three copies, replaces any copy whose checksum fails with
// the defaults, and votes every field. Fields without a majority, and
// fields that fail validation after voting, take their default. valid is
// the number of copies that passed their checksum.
func (s *Store) Load() (rec Record, valid int, err error) {
	def := Defaults()
	var copies [Copies]Record
	var buf [slotSize]byte

	for i := range copies {
		s.kick()
		if _, err := s.mem.ReadAt(buf[:], s.base+int64(i*slotSize)); err != nil {
			return def, 0, err
		}
		sum := binary.LittleEndian.Uint16(buf[RecordSize:])
		if Checksum(buf[:RecordSize]) != sum {
			copies[i] = def
			continue
		}
		copies[i].decode(buf[:RecordSize])
		valid++
	}

	for id := range rec {
		rec[id] = Vote3(copies[0][id], copies[1][id], copies[2][id], def[id])
	}
	rec.Sanitize()
	return rec, valid, nil
}

// Save writes all copies of rec with their checksums.
func (s *Store) Save(rec Record) error {
	var buf [slotSize]byte
	rec.encode(buf[:RecordSize])
	binary.LittleEndian.PutUint16(buf[RecordSize:], Checksum(buf[:RecordSize]))

	for i := 0; i < Copies; i++ {
		s.kick()
		if _, err := s.mem.WriteAt(buf[:], s.base+int64(i*slotSize)); err != nil {
			return err
		}
	}
	return nil
}

// MemoryNV is NVMemory backed by a byte slice. Fresh memory reads as 0xFF
// like erased EEPROM.
type MemoryNV struct {
	Data []byte
}

// NewMemoryNV allocates size bytes of erased memory.
func NewMemoryNV(size int) *MemoryNV {
	m := &MemoryNV{Data: make([]byte, size)}
	for i := range m.Data {
		m.Data[i] = 0xFF
	}
	return m
}

func (m *MemoryNV) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(m.Data)) {
		return 0, io.EOF
	}
	n := copy(p, m.Data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *MemoryNV) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(m.Data)) {
		return 0, io.ErrShortWrite
	}
	return copy(m.Data[off:], p), nil
}

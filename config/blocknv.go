package config

import "errors"

var ErrBlockRange = errors.New("access outside the configuration blocks")

// BlockDevice is erase-before-write memory such as machine.Flash.
type BlockDevice interface {
	ReadAt(p []byte, off int64) (int, error)
	WriteAt(p []byte, off int64) (int, error)
	EraseBlockSize() int64
	EraseBlocks(start, length int64) error
}

// BlockNV puts each stored copy in its own erase block, starting at block
// first of dev. Writing copy i erases only block i, so an interrupted
// write can damage at most one copy.
type BlockNV struct {
	dev   BlockDevice
	first int64
	block []byte
}

// NewBlockNV uses Copies erase blocks of dev from block index first.
func NewBlockNV(dev BlockDevice, first int64) *BlockNV {
	return &BlockNV{
		dev:   dev,
		first: first,
		block: make([]byte, dev.EraseBlockSize()),
	}
}

// locate maps a store offset to its erase block and the byte address
// inside the device. An access may not cross a slot.
func (b *BlockNV) locate(off int64, n int) (block, addr int64, err error) {
	slot := off / int64(slotSize)
	inner := off % int64(slotSize)
	if off < 0 || slot >= Copies || inner+int64(n) > int64(slotSize) {
		return 0, 0, ErrBlockRange
	}
	block = b.first + slot
	return block, block*int64(len(b.block)) + inner, nil
}

func (b *BlockNV) ReadAt(p []byte, off int64) (int, error) {
	_, addr, err := b.locate(off, len(p))
	if err != nil {
		return 0, err
	}
	return b.dev.ReadAt(p, addr)
}

// WriteAt rewrites the whole erase block holding off.
func (b *BlockNV) WriteAt(p []byte, off int64) (int, error) {
	block, addr, err := b.locate(off, len(p))
	if err != nil {
		return 0, err
	}
	base := block * int64(len(b.block))
	if _, err := b.dev.ReadAt(b.block, base); err != nil {
		return 0, err
	}
	copy(b.block[addr-base:], p)

	if err := b.dev.EraseBlocks(block, 1); err != nil {
		return 0, err
	}
	if _, err := b.dev.WriteAt(b.block, base); err != nil {
		return 0, err
	}
	return len(p), nil
}

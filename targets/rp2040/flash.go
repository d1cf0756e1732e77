//go:build rp2040

package main

import (
	"machine"

	"sanhaco/config"
)

// NewFlashNV keeps the configuration store in the last config.Copies
// erase blocks of the flash data area.
func NewFlashNV() *config.BlockNV {
	blocks := machine.Flash.Size() / machine.Flash.EraseBlockSize()
	return config.NewBlockNV(machine.Flash, blocks-config.Copies)
}

//go:build rp2040

package main

import (
	"machine"
	"time"

	"sanhaco/config"
	"sanhaco/core"
)

// watchdogMillis bounds one main loop pass.
const watchdogMillis = 100

func main() {
	// Disable watchdog on boot to clear any previous state
	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})

	core.SetDebugWriter(func(msg string) { println(msg) })

	board, err := NewBoard()
	if err != nil {
		halt()
	}
	core.SetHardware(board)

	if err := initLink(); err != nil {
		halt()
	}

	boardConfig := core.DefaultBoardConfig()
	// The link clock is the 1 MHz microsecond counter.
	boardConfig.ReceiveTimeout = 500000

	store := config.NewStore(NewFlashNV(), 0)
	fw, err := core.Boot(boardConfig, nil, link, store, edgeClock)
	if err != nil {
		halt()
	}

	if err := wireInterrupts(fw.Loop(), boardConfig); err != nil {
		halt()
	}

	if diag, err := NewDiagnostics(fw.Loop()); err == nil {
		board.diag = diag
	} else {
		core.DebugPrintln("[BOOT] no diagnostics display: " + err.Error())
	}

	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: watchdogMillis})
	machine.Watchdog.Start()

	for {
		// A panic leaves the motors where they were; stop them and let the
		// watchdog reset the board.
		func() {
			defer func() {
				if r := recover(); r != nil {
					core.DebugPrintln("[PANIC] restarting")
					board.Restart()
				}
			}()
			fw.Run()
		}()
	}
}

// halt blinks the LED fast forever. Boot failures never reach the motors.
func halt() {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		led.High()
		time.Sleep(100 * time.Millisecond)
		led.Low()
		time.Sleep(100 * time.Millisecond)
	}
}

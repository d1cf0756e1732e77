//go:build rp2040

package main

import (
	"machine"

	"tinygo.org/x/drivers/hd44780"
	"tinygo.org/x/drivers/ina260"

	"sanhaco/config"
	"sanhaco/core"
)

// diagPeriod is how often the LCD page is redrawn, in microseconds.
const diagPeriod = 250000

// Diagnostics shows the loop state and the motor supply current on a
// 16x2 character LCD.
//
//	L+120 R-040 LOST
//	1.25A 7.40V  812
type Diagnostics struct {
	lcd    hd44780.Device
	ina    ina260.Device
	hasINA bool
	loop   *core.Loop
	last   uint32
	line   [16]byte
}

// NewDiagnostics configures the LCD and, when it answers, the current
// sensor. Without an LCD there is nothing to show.
func NewDiagnostics(loop *core.Loop) (*Diagnostics, error) {
	data := []machine.Pin{pinLCDD4, pinLCDD4 + 1, pinLCDD4 + 2, pinLCDD4 + 3}
	lcd, err := hd44780.NewGPIO4Bit(data, pinLCDE, pinLCDRS, machine.NoPin)
	if err != nil {
		return nil, err
	}
	if err := lcd.Configure(hd44780.Config{Width: 16, Height: 2}); err != nil {
		return nil, err
	}

	d := &Diagnostics{lcd: lcd, loop: loop}

	bus := machine.I2C1
	err = bus.Configure(machine.I2CConfig{SDA: pinINASDA, SCL: pinINASCL, Frequency: 400 * machine.KHz})
	if err == nil {
		d.ina = ina260.New(bus)
		if d.ina.Connected() {
			d.ina.Configure(ina260.Config{
				AverageMode:     ina260.AVGMODE_16,
				VoltConvTime:    ina260.CONVTIME_1100USEC,
				CurrentConvTime: ina260.CONVTIME_1100USEC,
				Mode:            ina260.MODE_CONTINUOUS | ina260.MODE_VOLTAGE | ina260.MODE_CURRENT,
			})
			d.hasINA = true
		}
	}
	return d, nil
}

// Poll redraws the page when diagPeriod has passed.
func (d *Diagnostics) Poll() {
	now := GetHardwareTime()
	if now-d.last < diagPeriod {
		return
	}
	d.last = now

	s := d.loop.Status()

	d.clear()
	d.put(0, 'L')
	d.signed(1, s.Power[config.Left])
	d.put(6, 'R')
	d.signed(7, s.Power[config.Right])
	if s.Lost {
		copy(d.line[12:], "LOST")
	}
	d.show(0)

	d.clear()
	if d.hasINA {
		d.fixed(0, d.ina.Current()/10000, 'A')
		d.fixed(6, d.ina.Voltage()/10000, 'V')
	}
	d.unsigned(12, s.Frames%10000)
	d.show(1)
}

func (d *Diagnostics) clear() {
	for i := range d.line {
		d.line[i] = ' '
	}
}

func (d *Diagnostics) put(at int, c byte) {
	d.line[at] = c
}

// signed writes a sign and three digits.
func (d *Diagnostics) signed(at int, v int16) {
	sign := byte('+')
	if v < 0 {
		sign = '-'
		v = -v
	}
	d.line[at] = sign
	for i := 3; i > 0; i-- {
		d.line[at+i] = byte('0' + v%10)
		v /= 10
	}
}

// fixed writes v hundredths as d.dd followed by unit.
func (d *Diagnostics) fixed(at int, v int32, unit byte) {
	if v < 0 {
		v = -v
	}
	if v > 999 {
		v = 999
	}
	d.line[at] = byte('0' + v/100)
	d.line[at+1] = '.'
	d.line[at+2] = byte('0' + v/10%10)
	d.line[at+3] = byte('0' + v%10)
	d.line[at+4] = unit
}

// unsigned writes v right aligned in four columns.
func (d *Diagnostics) unsigned(at int, v uint32) {
	for i := 3; i >= 0; i-- {
		d.line[at+i] = byte('0' + v%10)
		v /= 10
		if v == 0 {
			break
		}
	}
}

func (d *Diagnostics) show(row uint8) {
	d.lcd.SetCursor(0, row)
	d.lcd.Write(d.line[:])
	d.lcd.Display()
}

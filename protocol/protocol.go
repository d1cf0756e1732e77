// Package protocol implements the byte-level configuration protocol spoken
// over the serial link, from both the firmware and the host side.
package protocol

// Version is the firmware version reported by the host tools
const Version = "0.3.0"

// Link bytes
const (
	HandshakeByte = 0x55 // host -> firmware, enters configuration mode
	AckByte       = 0xAC // firmware -> host, request accepted
)

// Request layout: [len][op][value LE int16]. len counts the bytes after it.
const (
	MaxRequestLength = 8
	MessageMax       = MaxRequestLength + 1

	OpMask   = 0xF0
	IDMask   = 0x0F
	OpRead   = 0x00
	OpWrite  = 0x30
	OpFinish = 0xFF

	writeLength = 3 // op + int16
)

// ErrorCode is a single-byte error reply. It doubles as a Go error on the
// host side.
type ErrorCode uint8

const (
	ErrInvalidCommand ErrorCode = 0xE0
	ErrInvalidParam   ErrorCode = 0xE1
	ErrBadLength      ErrorCode = 0xE2
	ErrInvalidValue   ErrorCode = 0xE3
	ErrTooLong        ErrorCode = 0xE4
	ErrRxTimeout      ErrorCode = 0xE5
)

// IsErrorCode reports whether b is one of the error replies.
func IsErrorCode(b byte) bool {
	return b >= byte(ErrInvalidCommand) && b <= byte(ErrRxTimeout)
}

func (e ErrorCode) Error() string {
	switch e {
	case ErrInvalidCommand:
		return "invalid command"
	case ErrInvalidParam:
		return "invalid parameter id"
	case ErrBadLength:
		return "malformed write length"
	case ErrInvalidValue:
		return "value out of range"
	case ErrTooLong:
		return "request too long"
	case ErrRxTimeout:
		return "receive timeout"
	}
	return "unknown error 0x" + hex8(uint8(e))
}

func hex8(v uint8) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{digits[v>>4], digits[v&0x0F]})
}

// EncodeRequest writes one framed request to out. The length byte is
// patched in once the body is written.
func EncodeRequest(out OutputBuffer, op byte, body func(out OutputBuffer)) {
	cursor := out.CurPosition()
	out.Output([]byte{0, op})
	if body != nil {
		body(out)
	}
	out.Update(cursor, uint8(len(out.DataSince(cursor))-1))
}

// PutInt16 appends v little-endian.
func PutInt16(out OutputBuffer, v int16) {
	out.Output([]byte{uint8(v), uint8(uint16(v) >> 8)})
}

// GetInt16 decodes a little-endian int16 from the first two bytes of b.
func GetInt16(b []byte) int16 {
	return int16(uint16(b[0]) | uint16(b[1])<<8)
}

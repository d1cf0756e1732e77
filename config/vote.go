package config

// Vote3 returns the value shared by at least two of a, b and c, or def when
// all three disagree.
func Vote3[T comparable](a, b, c, def T) T {
	switch {
	case a == b || a == c:
		return a
	case b == c:
		return b
	}
	return def
}

// Checksum is the weighted parity checksum stored after every record copy.
// The low byte is a position-weighted sum, the high byte the XOR of all
// bytes, so both swapped and flipped bytes are caught.
func Checksum(data []byte) uint16 {
	var sum uint8
	var parity uint8
	for i, b := range data {
		sum += b * uint8(i+1)
		parity ^= b
	}
	return uint16(parity)<<8 | uint16(sum)
}

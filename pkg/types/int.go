package types

// UintBytes returns the canonical atom encoding of a non-negative integer:
// the shortest big-endian two's complement form. Zero encodes as the empty
// string, and a 0x00 byte is prepended whenever the top bit of the
// leading byte would otherwise read as a sign bit.
func UintBytes(v uint64) []byte {
	if v == 0 {
		return []byte{}
	}
	var buf [9]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte(v)
		v >>= 8
	}
	if buf[i]&0x80 != 0 {
		i--
		buf[i] = 0
	}
	out := make([]byte, len(buf)-i)
	copy(out, buf[i:])
	return out
}

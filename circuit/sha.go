package circuit

import "encoding/binary"

// The circuit verifies the RS256 signature over SHA2-padded input, so the
// service must reproduce SHA-256 message padding exactly: append 0x80, zero
// bytes up to 56 mod 64, then the message bit length as a 64-bit big-endian
// integer.

// WithShaPadding returns msg extended with full SHA-256 padding. The result
// length is always a multiple of 64 bytes.
func WithShaPadding(msg []byte) []byte {
	out := make([]byte, 0, len(msg)+72)
	out = append(out, msg...)
	out = append(out, ShaPaddingWithoutLen(msg)...)
	out = append(out, ShaBitLen(msg)...)
	return out
}

// ShaPaddingWithoutLen returns only the 0x80-and-zeros portion of the
// padding, which the circuit consumes as its own input signal.
func ShaPaddingWithoutLen(msg []byte) []byte {
	// Bit count after the mandatory '1' bit, before the 64-bit length. Never
	// zero: the message is whole bytes, so the running total is always odd.
	padBits := 512 - (len(msg)*8+1+64)%512
	// padBits+1 is always a multiple of 8 because msg is whole bytes.
	pad := make([]byte, (padBits+1)/8)
	pad[0] = 0x80
	return pad
}

// ShaBitLen returns the message bit length as 8 big-endian bytes.
func ShaBitLen(msg []byte) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, uint64(len(msg))*8)
	return out
}

// ShaNumBlocks returns how many 512-bit blocks the padded message occupies.
func ShaNumBlocks(padded []byte) int {
	return len(padded) * 8 / 512
}

// PayloadWithPadding slices the SHA2-padded unsigned JWT after its first '.'
// separator, yielding the payload segment with the padding still attached.
func PayloadWithPadding(paddedUnsignedJwt []byte) ([]byte, bool) {
	for i, c := range paddedUnsignedJwt {
		if c == '.' {
			return paddedUnsignedJwt[i+1:], true
		}
	}
	return nil, false
}

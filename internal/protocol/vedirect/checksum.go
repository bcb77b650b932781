package vedirect

// Checksum returns the modulo-256 byte sum of b.
func Checksum(b []byte) byte {
	var sum byte
	for _, c := range b {
		sum += c
	}
	return sum
}

// ValidChecksum 验证完整文本帧的字节和是否为 0 (mod 256)。
// The range covers everything from the opening CRLF up to and including the
// checksum byte.
func ValidChecksum(frame []byte) bool {
	return Checksum(frame) == 0
}

// ChecksumByte returns the byte that makes prefix sum to zero once appended.
func ChecksumByte(prefix []byte) byte {
	return 0 - Checksum(prefix)
}

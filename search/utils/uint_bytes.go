package utils

import "encoding/binary"

// Uint64ToBytes encodes val big-endian, so that byte order matches numeric
// order in the term dictionary.
func Uint64ToBytes(val uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, val)
	return b
}

func BytesToUint64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

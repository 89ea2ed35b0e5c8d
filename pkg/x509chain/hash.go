// Copyright 2025 Certen Protocol

package x509chain

import (
	"crypto/sha256"
	"crypto/sha512"
)

func sha256Sum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

func sha384Sum(data []byte) [48]byte {
	return sha512.Sum384(data)
}

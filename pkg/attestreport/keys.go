// Copyright 2025 Certen Protocol

package attestreport

import (
	"crypto/ecdsa"
	"crypto/sha512"
	"fmt"

	"github.com/certen/nitro-attestation-zk/pkg/nitroverifier"
	"github.com/certen/nitro-attestation-zk/pkg/x509chain"
)

func leafECDSAPublicKey(leaf *x509chain.Cert) (*ecdsa.PublicKey, error) {
	pub, ok := leaf.Raw().PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("attestreport: %w: leaf key is not ECDSA", nitroverifier.ErrUnsupportedAlgorithm)
	}
	return pub, nil
}

func sha384Sum(data []byte) []byte {
	sum := sha512.Sum384(data)
	return sum[:]
}

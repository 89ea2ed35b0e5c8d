// Copyright 2025 Certen Protocol
//
// Package cose decodes COSE_Sign1 envelopes (RFC 8152) and verifies their
// signature against an arbitrary leaf public key and declared algorithm.
// It is deliberately narrower than a general COSE library: AWS Nitro
// attestation documents are the only payload shape this package needs to
// carry.
package cose

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"

	"github.com/certen/nitro-attestation-zk/pkg/nitroverifier"
)

// Algorithm is a COSE signature algorithm identifier (RFC 8152 section
// 8.1), restricted here to the ECDSA variants Nitro attestation uses.
type Algorithm int64

const (
	AlgorithmES256 Algorithm = -7
	AlgorithmES384 Algorithm = -35
	AlgorithmES512 Algorithm = -36
)

// Sign1 is a decoded COSE_Sign1 4-tuple: protected header bytes,
// unprotected header (opaque, unused downstream), payload, signature.
type Sign1 struct {
	Protected   []byte
	Unprotected cbor.RawMessage
	Payload     []byte
	Signature   []byte
}

type protectedHeader struct {
	Algorithm *int64 `cbor:"1,keyasint"`
}

// decodeProtectedAlgorithm decodes the protected header into a map so it
// can distinguish an absent key 1 (present == false) from a present one;
// decoding into protectedHeader would leave Algorithm nil for both an
// absent and a non-integer entry, which isn't enough on its own.
func decodeProtectedAlgorithm(protected []byte) (int64, bool, error) {
	var hdr map[int]interface{}
	if err := cbor.Unmarshal(protected, &hdr); err != nil {
		return 0, false, fmt.Errorf("cose: %w: decode protected header: %v", nitroverifier.ErrCoseParseError, err)
	}
	raw, ok := hdr[1]
	if !ok {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case int64:
		return v, true, nil
	case uint64:
		return int64(v), true, nil
	default:
		return 0, false, fmt.Errorf("cose: %w: protected header algorithm is not an integer", nitroverifier.ErrCoseParseError)
	}
}

// Decode parses a CBOR-encoded COSE_Sign1 structure, accepting either the
// CBOR tag-18 wrapped form or an untagged 4-element array.
func Decode(data []byte) (*Sign1, error) {
	var raw cbor.RawTag
	var arr []cbor.RawMessage

	if err := cbor.Unmarshal(data, &raw); err == nil && raw.Number == 18 {
		if err := cbor.Unmarshal(raw.Content, &arr); err != nil {
			return nil, fmt.Errorf("cose: %w: %v", nitroverifier.ErrCoseParseError, err)
		}
	} else if err := cbor.Unmarshal(data, &arr); err != nil {
		return nil, fmt.Errorf("cose: %w: %v", nitroverifier.ErrCoseParseError, err)
	}

	if len(arr) != 4 {
		return nil, fmt.Errorf("cose: %w: expected 4-element Sign1 array, got %d", nitroverifier.ErrCoseParseError, len(arr))
	}

	var protected, payload, signature []byte
	if err := cbor.Unmarshal(arr[0], &protected); err != nil {
		return nil, fmt.Errorf("cose: %w: protected: %v", nitroverifier.ErrCoseParseError, err)
	}
	if err := cbor.Unmarshal(arr[2], &payload); err != nil {
		return nil, fmt.Errorf("cose: %w: payload: %v", nitroverifier.ErrCoseParseError, err)
	}
	if err := cbor.Unmarshal(arr[3], &signature); err != nil {
		return nil, fmt.Errorf("cose: %w: signature: %v", nitroverifier.ErrCoseParseError, err)
	}

	return &Sign1{
		Protected:   protected,
		Unprotected: arr[1],
		Payload:     payload,
		Signature:   signature,
	}, nil
}

// sigStructure builds the RFC 8152 section 4.4 Sig_structure for a
// COSE_Sign1: ["Signature1", body_protected, external_aad, payload].
func sigStructure(protected, payload []byte) ([]byte, error) {
	elems := []interface{}{
		"Signature1",
		protected,
		[]byte{},
		payload,
	}
	out, err := cbor.Marshal(elems)
	if err != nil {
		return nil, fmt.Errorf("cose: build Sig_structure: %w", err)
	}
	return out, nil
}

func curveByteLen(pub *ecdsa.PublicKey) int {
	return (pub.Curve.Params().BitSize + 7) / 8
}

// VerifySignature checks the envelope's signature against pubKey using
// expectedAlgo. It returns false (not an error) when the protected
// header's declared algorithm disagrees with expectedAlgo, per the
// COSE verification contract; it errors if the header omits the
// algorithm entirely or the CBOR/signature data is malformed.
func (s *Sign1) VerifySignature(pubKey *ecdsa.PublicKey, expectedAlgo Algorithm, hash func([]byte) []byte) (bool, error) {
	declared, present, err := decodeProtectedAlgorithm(s.Protected)
	if err != nil {
		return false, err
	}
	if !present {
		return false, fmt.Errorf("cose: %w: protected header missing algorithm", nitroverifier.ErrCoseParseError)
	}
	if declared != int64(expectedAlgo) {
		return false, nil
	}

	tbs, err := sigStructure(s.Protected, s.Payload)
	if err != nil {
		return false, err
	}
	digest := hash(tbs)

	n := curveByteLen(pubKey)
	if len(s.Signature) != 2*n {
		return false, fmt.Errorf("cose: %w: signature length %d, want %d for curve", nitroverifier.ErrCoseSignatureInvalid, len(s.Signature), 2*n)
	}
	r := new(big.Int).SetBytes(s.Signature[:n])
	sVal := new(big.Int).SetBytes(s.Signature[n:])

	return ecdsa.Verify(pubKey, digest, r, sVal), nil
}

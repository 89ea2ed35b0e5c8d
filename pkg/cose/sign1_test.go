// Copyright 2025 Certen Protocol

package cose

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha512"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func sha384(data []byte) []byte {
	sum := sha512.Sum384(data)
	return sum[:]
}

func buildSign1(t *testing.T, key *ecdsa.PrivateKey, protected map[int]interface{}, payload []byte) []byte {
	t.Helper()

	protectedBytes, err := cbor.Marshal(protected)
	if err != nil {
		t.Fatalf("marshal protected header: %v", err)
	}

	tbs, err := sigStructure(protectedBytes, payload)
	if err != nil {
		t.Fatalf("build Sig_structure: %v", err)
	}
	digest := sha384(tbs)

	r, s, err := ecdsa.Sign(rand.Reader, key, digest)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	n := curveByteLen(&key.PublicKey)
	sig := make([]byte, 2*n)
	rBytes := r.Bytes()
	sBytes := s.Bytes()
	copy(sig[n-len(rBytes):n], rBytes)
	copy(sig[2*n-len(sBytes):], sBytes)

	elems := []interface{}{protectedBytes, map[int]interface{}{}, payload, sig}
	encoded, err := cbor.Marshal(elems)
	if err != nil {
		t.Fatalf("marshal Sign1 array: %v", err)
	}
	return encoded
}

func buildSign1Tagged(t *testing.T, key *ecdsa.PrivateKey, protected map[int]interface{}, payload []byte) []byte {
	t.Helper()
	untagged := buildSign1(t, key, protected, payload)
	var arr []cbor.RawMessage
	if err := cbor.Unmarshal(untagged, &arr); err != nil {
		t.Fatalf("unmarshal for re-tagging: %v", err)
	}
	tagged := cbor.Tag{Number: 18, Content: arr}
	encoded, err := cbor.Marshal(tagged)
	if err != nil {
		t.Fatalf("marshal tagged Sign1: %v", err)
	}
	return encoded
}

func TestDecodeAndVerifyUntagged(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	payload := []byte("attestation payload")
	encoded := buildSign1(t, key, map[int]interface{}{1: int64(AlgorithmES384)}, payload)

	s1, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	ok, err := s1.VerifySignature(&key.PublicKey, AlgorithmES384, sha384)
	if err != nil {
		t.Fatalf("VerifySignature: %v", err)
	}
	if !ok {
		t.Fatalf("expected signature to verify")
	}
}

func TestDecodeAndVerifyTagged(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	payload := []byte("attestation payload")
	encoded := buildSign1Tagged(t, key, map[int]interface{}{1: int64(AlgorithmES384)}, payload)

	s1, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	ok, err := s1.VerifySignature(&key.PublicKey, AlgorithmES384, sha384)
	if err != nil {
		t.Fatalf("VerifySignature: %v", err)
	}
	if !ok {
		t.Fatalf("expected tagged signature to verify")
	}
}

func TestVerifySignatureAlgorithmMismatchReturnsFalse(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	payload := []byte("attestation payload")
	// Protected header declares ES256 while the caller expects ES384.
	encoded := buildSign1(t, key, map[int]interface{}{1: int64(AlgorithmES256)}, payload)

	s1, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	ok, err := s1.VerifySignature(&key.PublicKey, AlgorithmES384, sha384)
	if err != nil {
		t.Fatalf("VerifySignature unexpectedly errored: %v", err)
	}
	if ok {
		t.Fatalf("expected algorithm mismatch to fail verification, not error")
	}
}

func TestVerifySignatureMissingAlgorithmErrors(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	payload := []byte("attestation payload")
	encoded := buildSign1(t, key, map[int]interface{}{}, payload)

	s1, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, err := s1.VerifySignature(&key.PublicKey, AlgorithmES384, sha384); err == nil {
		t.Fatalf("expected error for missing protected algorithm")
	}
}

func TestVerifySignatureTamperedPayloadFails(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	payload := []byte("attestation payload")
	encoded := buildSign1(t, key, map[int]interface{}{1: int64(AlgorithmES384)}, payload)

	s1, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	s1.Payload = append(s1.Payload, 0xff)

	ok, err := s1.VerifySignature(&key.PublicKey, AlgorithmES384, sha384)
	if err != nil {
		t.Fatalf("VerifySignature: %v", err)
	}
	if ok {
		t.Fatalf("expected tampered payload to fail verification")
	}
}

func TestDecodeRejectsWrongArrayLength(t *testing.T) {
	encoded, err := cbor.Marshal([]interface{}{[]byte{}, map[int]interface{}{}, []byte{}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := Decode(encoded); err == nil {
		t.Fatalf("expected error for a 3-element array")
	}
}

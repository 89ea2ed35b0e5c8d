// Copyright 2025 Certen Protocol

package x509chain

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"
)

// buildChain returns DER bytes for a root -> intermediate -> leaf chain,
// all P-384/SHA-384, with the given validity window.
func buildChain(t *testing.T, notBefore, notAfter time.Time) [][]byte {
	t.Helper()

	rootKey, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		t.Fatalf("generate root key: %v", err)
	}
	rootTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test root"},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		IsCA:                  true,
		BasicConstraintsValid: true,
		SignatureAlgorithm:    x509.ECDSAWithSHA384,
	}
	rootDER, err := x509.CreateCertificate(rand.Reader, rootTmpl, rootTmpl, &rootKey.PublicKey, rootKey)
	if err != nil {
		t.Fatalf("create root cert: %v", err)
	}

	leafKey, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		t.Fatalf("generate leaf key: %v", err)
	}
	rootCert, err := x509.ParseCertificate(rootDER)
	if err != nil {
		t.Fatalf("parse root cert: %v", err)
	}
	leafTmpl := &x509.Certificate{
		SerialNumber:       big.NewInt(2),
		Subject:            pkix.Name{CommonName: "test leaf"},
		NotBefore:          notBefore,
		NotAfter:           notAfter,
		SignatureAlgorithm: x509.ECDSAWithSHA384,
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTmpl, rootCert, &leafKey.PublicKey, rootKey)
	if err != nil {
		t.Fatalf("create leaf cert: %v", err)
	}

	return [][]byte{rootDER, leafDER}
}

func TestCertChainVerifyChainSelfSignedRoot(t *testing.T) {
	now := time.Now()
	ders := buildChain(t, now.Add(-time.Hour), now.Add(time.Hour))

	chain, err := NewCertChain(ders)
	if err != nil {
		t.Fatalf("NewCertChain: %v", err)
	}
	if len(chain.Certs) != 2 {
		t.Fatalf("expected 2 certs, got %d", len(chain.Certs))
	}

	ok, err := chain.VerifyChain(0)
	if err != nil {
		t.Fatalf("VerifyChain: %v", err)
	}
	if !ok {
		t.Fatalf("expected chain to verify")
	}
}

func TestCertChainVerifyChainTrustedPrefix(t *testing.T) {
	now := time.Now()
	ders := buildChain(t, now.Add(-time.Hour), now.Add(time.Hour))

	chain, err := NewCertChain(ders)
	if err != nil {
		t.Fatalf("NewCertChain: %v", err)
	}

	// Trusting the root (prefix length 1) should still verify the leaf.
	ok, err := chain.VerifyChain(1)
	if err != nil {
		t.Fatalf("VerifyChain: %v", err)
	}
	if !ok {
		t.Fatalf("expected chain to verify with trusted prefix")
	}
}

func TestCertChainVerifyChainTamperedSignature(t *testing.T) {
	now := time.Now()
	ders := buildChain(t, now.Add(-time.Hour), now.Add(time.Hour))

	// Flip a byte deep in the leaf's signature to break verification
	// without corrupting the ASN.1 structure enough to fail parsing.
	tampered := append([]byte(nil), ders[1]...)
	tampered[len(tampered)-10] ^= 0xff

	chain, err := NewCertChain([][]byte{ders[0], tampered})
	if err != nil {
		t.Fatalf("NewCertChain: %v", err)
	}
	ok, err := chain.VerifyChain(0)
	if err != nil {
		t.Fatalf("VerifyChain: %v", err)
	}
	if ok {
		t.Fatalf("expected tampered leaf signature to fail verification")
	}
}

func TestCertChainPathDigestInductiveRule(t *testing.T) {
	now := time.Now()
	ders := buildChain(t, now.Add(-time.Hour), now.Add(time.Hour))

	chain, err := NewCertChain(ders)
	if err != nil {
		t.Fatalf("NewCertChain: %v", err)
	}

	rootDigest := sha256.Sum256(ders[0])
	if chain.PathDigest[0] != rootDigest {
		t.Fatalf("pathDigest[0] mismatch: got %x, want %x", chain.PathDigest[0], rootDigest)
	}

	leafDigest := sha256.Sum256(ders[1])
	combined := append(append([]byte(nil), chain.PathDigest[0][:]...), leafDigest[:]...)
	expected := sha256.Sum256(combined)
	if chain.PathDigest[1] != expected {
		t.Fatalf("pathDigest[1] mismatch: got %x, want %x", chain.PathDigest[1], expected)
	}
}

func TestCertChainCheckValidOutsideWindow(t *testing.T) {
	now := time.Now()
	ders := buildChain(t, now.Add(-2*time.Hour), now.Add(-time.Hour))

	chain, err := NewCertChain(ders)
	if err != nil {
		t.Fatalf("NewCertChain: %v", err)
	}
	if err := chain.CheckValid(now.Unix()); err == nil {
		t.Fatalf("expected CheckValid to fail for an expired chain")
	}
}

func TestCertChainVerifyChainPrefixTooLong(t *testing.T) {
	now := time.Now()
	ders := buildChain(t, now.Add(-time.Hour), now.Add(time.Hour))

	chain, err := NewCertChain(ders)
	if err != nil {
		t.Fatalf("NewCertChain: %v", err)
	}
	if _, err := chain.VerifyChain(len(chain.Certs) + 1); err == nil {
		t.Fatalf("expected error for trusted prefix longer than chain")
	}
}

func TestNewCertChainRevReversesInput(t *testing.T) {
	now := time.Now()
	ders := buildChain(t, now.Add(-time.Hour), now.Add(time.Hour))
	leafFirst := [][]byte{ders[1], ders[0]}

	chain, err := NewCertChainRev(leafFirst)
	if err != nil {
		t.Fatalf("NewCertChainRev: %v", err)
	}
	if !bytes.Equal(chain.Root().DER(), ders[0]) {
		t.Fatalf("expected root to be the first cert after reversal")
	}
	if !bytes.Equal(chain.Leaf().DER(), ders[1]) {
		t.Fatalf("expected leaf to be the second cert after reversal")
	}
}

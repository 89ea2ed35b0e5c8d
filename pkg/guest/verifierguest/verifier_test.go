// Copyright 2025 Certen Protocol

package verifierguest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha512"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/certen/nitro-attestation-zk/pkg/attestreport"
	"github.com/certen/nitro-attestation-zk/pkg/nitroverifier"
)

func buildReportBytes(t *testing.T, doc attestreport.AttestationDocument, leafKey *ecdsa.PrivateKey) []byte {
	t.Helper()

	payload, err := cbor.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal document: %v", err)
	}
	protected, err := cbor.Marshal(map[int]interface{}{1: int64(-35)})
	if err != nil {
		t.Fatalf("marshal protected header: %v", err)
	}
	sigStruct, err := cbor.Marshal([]interface{}{"Signature1", protected, []byte{}, payload})
	if err != nil {
		t.Fatalf("marshal Sig_structure: %v", err)
	}
	digest := sha512.Sum384(sigStruct)

	r, s, err := ecdsa.Sign(rand.Reader, leafKey, digest[:])
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	n := 48
	sig := make([]byte, 2*n)
	rBytes := r.Bytes()
	sBytes := s.Bytes()
	copy(sig[n-len(rBytes):n], rBytes)
	copy(sig[2*n-len(sBytes):], sBytes)

	encoded, err := cbor.Marshal([]interface{}{protected, map[int]interface{}{}, payload, sig})
	if err != nil {
		t.Fatalf("marshal Sign1 array: %v", err)
	}
	return encoded
}

func buildChainAndDoc(t *testing.T) ([]byte, *ecdsa.PrivateKey, []byte, []byte) {
	t.Helper()
	now := time.Now()

	rootKey, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		t.Fatalf("generate root key: %v", err)
	}
	rootTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test root"},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		SignatureAlgorithm:    x509.ECDSAWithSHA384,
	}
	rootDER, err := x509.CreateCertificate(rand.Reader, rootTmpl, rootTmpl, &rootKey.PublicKey, rootKey)
	if err != nil {
		t.Fatalf("create root cert: %v", err)
	}
	rootCert, err := x509.ParseCertificate(rootDER)
	if err != nil {
		t.Fatalf("parse root cert: %v", err)
	}

	leafKey, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		t.Fatalf("generate leaf key: %v", err)
	}
	leafTmpl := &x509.Certificate{
		SerialNumber:       big.NewInt(2),
		Subject:            pkix.Name{CommonName: "test leaf"},
		NotBefore:          now.Add(-time.Hour),
		NotAfter:           now.Add(time.Hour),
		SignatureAlgorithm: x509.ECDSAWithSHA384,
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTmpl, rootCert, &leafKey.PublicKey, rootKey)
	if err != nil {
		t.Fatalf("create leaf cert: %v", err)
	}

	return rootDER, leafKey, leafDER, rootDER
}

func TestRunProducesSuccessJournalAndFiltersZeroPcrs(t *testing.T) {
	now := time.Now()
	_, leafKey, leafDER, rootDER := buildChainAndDoc(t)

	doc := attestreport.AttestationDocument{
		ModuleID:  "i-0123456789abcdef0-enc0123456789abcdef",
		Timestamp: uint64(now.UnixMilli()),
		Digest:    "SHA384",
		Pcrs: map[uint64][48]byte{
			0: {},      // all-zero, must be filtered out
			4: {1: 0xaa},
		},
		Certificate: leafDER,
		CABundle:    [][]byte{rootDER},
	}
	raw := buildReportBytes(t, doc, leafKey)

	journal, err := Run(nitroverifier.VerifierInput{
		TrustedCertsPrefixLen: 0,
		AttestationReport:     raw,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if journal.Result != nitroverifier.ResultSuccess {
		t.Fatalf("expected Success, got %v", journal.Result)
	}
	if len(journal.Pcrs) != 1 || journal.Pcrs[0].Index != 4 {
		t.Fatalf("expected only index-4 PCR to survive, got %+v", journal.Pcrs)
	}
	if journal.ModuleID != doc.ModuleID {
		t.Fatalf("module id mismatch: got %q, want %q", journal.ModuleID, doc.ModuleID)
	}
	if journal.UserData == nil || journal.Nonce == nil || journal.PublicKey == nil {
		t.Fatalf("expected optional fields to be empty slices, not nil")
	}
}

func TestRunFailsOnTamperedChain(t *testing.T) {
	now := time.Now()
	_, leafKey, leafDER, rootDER := buildChainAndDoc(t)
	tamperedRoot := append([]byte(nil), rootDER...)
	tamperedRoot[10] ^= 0xff

	doc := attestreport.AttestationDocument{
		ModuleID:    "i-0123456789abcdef0-enc0123456789abcdef",
		Timestamp:   uint64(now.UnixMilli()),
		Digest:      "SHA384",
		Certificate: leafDER,
		CABundle:    [][]byte{tamperedRoot},
	}
	raw := buildReportBytes(t, doc, leafKey)

	if _, err := Run(nitroverifier.VerifierInput{AttestationReport: raw}); err == nil {
		t.Fatalf("expected Run to fail for a corrupted chain")
	}
}

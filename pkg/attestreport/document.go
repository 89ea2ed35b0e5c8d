// Copyright 2025 Certen Protocol
//
// Package attestreport parses AWS Nitro Enclave attestation documents and
// drives the authentication pipeline that binds a COSE_Sign1 envelope to
// its certificate chain. Following the steps at
// https://docs.aws.amazon.com/enclaves/latest/user/verify-root.html
package attestreport

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/certen/nitro-attestation-zk/pkg/cose"
	"github.com/certen/nitro-attestation-zk/pkg/nitroverifier"
	"github.com/certen/nitro-attestation-zk/pkg/x509chain"
)

// AttestationDocument is the inner CBOR payload of the COSE_Sign1 envelope.
type AttestationDocument struct {
	ModuleID    string              `cbor:"module_id"`
	Timestamp   uint64              `cbor:"timestamp"`
	Digest      string              `cbor:"digest"`
	Pcrs        map[uint64][48]byte `cbor:"pcrs"`
	Certificate []byte              `cbor:"certificate"`
	CABundle    [][]byte            `cbor:"cabundle"`
	PublicKey   []byte              `cbor:"public_key"`
	UserData    []byte              `cbor:"user_data"`
	Nonce       []byte              `cbor:"nonce"`
}

// AttestationReport is a parsed, immutable COSE_Sign1 envelope plus its
// decoded attestation document.
type AttestationReport struct {
	doc      AttestationDocument
	coseSign *cose.Sign1
}

// Parse decodes the COSE_Sign1 envelope and, from its payload, the inner
// attestation document.
func Parse(documentData []byte) (*AttestationReport, error) {
	coseSign, err := cose.Decode(documentData)
	if err != nil {
		return nil, fmt.Errorf("attestreport: parse: %w", err)
	}
	var doc AttestationDocument
	if err := cbor.Unmarshal(coseSign.Payload, &doc); err != nil {
		return nil, fmt.Errorf("attestreport: document parse failed: %v", err)
	}
	return &AttestationReport{doc: doc, coseSign: coseSign}, nil
}

// Document returns the parsed inner attestation document.
func (r *AttestationReport) Document() AttestationDocument {
	return r.doc
}

// CertChain builds the certificate chain from the document's cabundle
// (already root-first) followed by the leaf certificate.
func (r *AttestationReport) CertChain() (*x509chain.CertChain, error) {
	ders := make([][]byte, 0, len(r.doc.CABundle)+1)
	ders = append(ders, r.doc.CABundle...)
	ders = append(ders, r.doc.Certificate)
	chain, err := x509chain.NewCertChain(ders)
	if err != nil {
		return nil, fmt.Errorf("attestreport: build cert chain: %w", err)
	}
	return chain, nil
}

// Authenticate runs the five-step verification pipeline: build the chain,
// verify it from trustedPrefixLen onward, check the whole chain's time
// validity at tUnixSec, and verify the COSE signature with the leaf key
// under the Nitro-fixed ES384 algorithm. It returns the built chain so
// callers can read its path digests.
func (r *AttestationReport) Authenticate(trustedPrefixLen int, tUnixSec int64) (*x509chain.CertChain, error) {
	chain, err := r.CertChain()
	if err != nil {
		return nil, err
	}

	ok, err := chain.VerifyChain(trustedPrefixLen)
	if err != nil {
		return nil, fmt.Errorf("attestreport: verify chain: %w", err)
	}
	if !ok {
		failed := trustedPrefixLen
		for i := trustedPrefixLen; i < len(chain.Certs); i++ {
			var issuer *x509chain.Cert
			if i != 0 {
				issuer = chain.Certs[i-1]
			}
			if valid, _ := chain.Certs[i].Verify(issuer); !valid {
				failed = i
				break
			}
		}
		return nil, x509chain.ChainVerificationFailed(failed)
	}

	if err := chain.CheckValid(tUnixSec); err != nil {
		certIndex := -1
		for i, cert := range chain.Certs {
			if cert.CheckValid(tUnixSec) != nil {
				certIndex = i
				break
			}
		}
		return nil, &nitroverifier.TimeValidityError{CertIndex: certIndex}
	}

	pub, err := leafECDSAPublicKey(chain.Leaf())
	if err != nil {
		return nil, err
	}

	valid, err := r.coseSign.VerifySignature(pub, cose.AlgorithmES384, sha384Sum)
	if err != nil {
		return nil, fmt.Errorf("attestreport: %w: %v", nitroverifier.ErrCoseSignatureInvalid, err)
	}
	if !valid {
		return nil, fmt.Errorf("attestreport: %w: invalid COSE signature for leaf key", nitroverifier.ErrCoseSignatureInvalid)
	}

	return chain, nil
}

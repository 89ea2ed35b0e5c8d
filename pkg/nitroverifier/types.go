// Copyright 2025 Certen Protocol
//
// Package nitroverifier defines the wire schema shared by the attestation
// guest programs, the host-side prover orchestrator, and the on-chain
// verifier contract. Every exported type here must stay byte-exact with
// the Solidity struct layout in INitroEnclaveVerifier: guest, host and
// chain all decode the same ABI bytes.
package nitroverifier

import (
	"crypto/sha256"
	"fmt"
)

// VerificationResult is the outcome a guest run commits to its journal.
type VerificationResult uint8

const (
	ResultSuccess VerificationResult = iota
	ResultRootCertNotTrusted
	ResultIntermediateCertsNotTrusted
	ResultInvalidTimestamp
)

func (r VerificationResult) String() string {
	switch r {
	case ResultSuccess:
		return "Success"
	case ResultRootCertNotTrusted:
		return "RootCertNotTrusted"
	case ResultIntermediateCertsNotTrusted:
		return "IntermediateCertsNotTrusted"
	case ResultInvalidTimestamp:
		return "InvalidTimestamp"
	default:
		return fmt.Sprintf("VerificationResult(%d)", uint8(r))
	}
}

// ZkCoProcessorType selects which zkVM backend produced (or must verify) a proof.
type ZkCoProcessorType uint8

const (
	ZkRiscZero ZkCoProcessorType = iota
	ZkSuccinct
)

func (z ZkCoProcessorType) String() string {
	switch z {
	case ZkRiscZero:
		return "RiscZero"
	case ZkSuccinct:
		return "Succinct"
	default:
		return fmt.Sprintf("ZkCoProcessorType(%d)", uint8(z))
	}
}

// ProofType tells the contract client which entrypoint an OnchainProof targets.
type ProofType uint8

const (
	ProofTypeVerifier ProofType = iota
	ProofTypeAggregator
)

func (p ProofType) String() string {
	switch p {
	case ProofTypeVerifier:
		return "Verifier"
	case ProofTypeAggregator:
		return "Aggregator"
	default:
		return fmt.Sprintf("ProofType(%d)", uint8(p))
	}
}

// Bytes48 packs a 48-byte PCR measurement as a (bytes32, bytes16) ABI tuple.
// The split is purely a packing choice so the value fits Solidity's
// fixed-size byte types; callers should treat it as one 48-byte string.
type Bytes48 struct {
	First  [32]byte
	Second [16]byte
}

// IsZero reports whether both halves are all-zero, i.e. an unset PCR slot.
func (b Bytes48) IsZero() bool {
	return b.First == [32]byte{} && b.Second == [16]byte{}
}

// Bytes returns the 48 raw bytes in order.
func (b Bytes48) Bytes() []byte {
	out := make([]byte, 48)
	copy(out[:32], b.First[:])
	copy(out[32:], b.Second[:])
	return out
}

// NewBytes48 splits a 48-byte slice into its ABI halves.
func NewBytes48(raw []byte) (Bytes48, error) {
	var b Bytes48
	if len(raw) != 48 {
		return b, fmt.Errorf("nitroverifier: bytes48 requires 48 bytes, got %d", len(raw))
	}
	copy(b.First[:], raw[:32])
	copy(b.Second[:], raw[32:])
	return b, nil
}

// Pcr is a single Platform Configuration Register entry, index plus value.
type Pcr struct {
	Index uint64
	Value Bytes48
}

// VerifierInput is the ABI-decoded input to the Verifier guest program.
type VerifierInput struct {
	TrustedCertsPrefixLen uint8
	AttestationReport     []byte
}

// VerifierJournal is the public output the Verifier guest commits.
type VerifierJournal struct {
	Result                VerificationResult
	Certs                 [][32]byte
	TrustedCertsPrefixLen uint8
	UserData              []byte
	Nonce                 []byte
	PublicKey             []byte
	Pcrs                  []Pcr
	ModuleID              string `abi:"moduleId"`
	Timestamp             uint64
}

// Digest returns SHA-256(abiEncode(journal)), the value the Aggregator guest
// binds each inner proof's verifying key to.
func (j VerifierJournal) Digest() ([32]byte, error) {
	encoded, err := EncodeVerifierJournal(j)
	if err != nil {
		return [32]byte{}, fmt.Errorf("nitroverifier: digest journal: %w", err)
	}
	return sha256.Sum256(encoded), nil
}

// ProgramID identifies the exact guest images a proof is bound to.
type ProgramID struct {
	VerifierID      [32]byte
	VerifierProofID [32]byte
	AggregatorID    [32]byte
}

// BatchVerifierInput is the input to the Aggregator guest program.
type BatchVerifierInput struct {
	VerifierVk [32]byte
	Outputs    []VerifierJournal
}

// BatchVerifierJournal is the public output the Aggregator guest commits;
// it re-emits the same outputs it verified, verbatim, in input order.
type BatchVerifierJournal struct {
	VerifierVk [32]byte
	Outputs    []VerifierJournal
}

// RawProof is the backend-opaque receipt plus its ABI-encoded journal.
// It is only meaningful together with the Program that produced it.
type RawProof struct {
	EncodedProof []byte
	Journal      []byte
}

// OnchainProof is the final envelope handed to the contract client (or
// persisted to disk as pretty-printed JSON).
type OnchainProof struct {
	ZkType       ZkCoProcessorType
	ZkvmVersion  string
	ProgramID    ProgramID
	RawProof     RawProof
	OnchainProof []byte
	ProofType    ProofType
}

// Copyright 2025 Certen Protocol
//
// Package zkprogram adapts the two supported zkVM backends (RISC Zero and
// Succinct SP1) behind one interface so the prover orchestrator never
// branches on backend identity. Input and output bytes crossing the
// Program boundary are always ABI-encoded wire values; the generic
// wrapper types only exist to keep the typed Encode/Decode pair next to
// the program that uses them, standing in for the Rust
// Program<Input, Output> trait's associated types.
package zkprogram

import (
	"context"
	"fmt"

	"github.com/certen/nitro-attestation-zk/pkg/nitroverifier"
)

// RawProofType selects the shape of proof a GenProof call produces.
type RawProofType int

const (
	// RawProofComposite is the succinct inner form suitable for later
	// aggregation by the Aggregator guest.
	RawProofComposite RawProofType = iota
	// RawProofGroth16 is the final, on-chain-checkable form.
	RawProofGroth16
)

func (t RawProofType) String() string {
	switch t {
	case RawProofComposite:
		return "Composite"
	case RawProofGroth16:
		return "Groth16"
	default:
		return "Unknown"
	}
}

// RemoteProverConfig carries the credentials a Program needs to register
// its image with, and submit proof jobs to, a backend's remote proving
// service (Bonsai for RISC Zero, the SP1 prover network for Succinct).
type RemoteProverConfig struct {
	APIURL string
	APIKey string
}

// Program is the uniform capability set every zkVM backend adapter
// implements; the orchestrator only ever holds a Program value.
type Program interface {
	Version() string
	ZkType() nitroverifier.ZkCoProcessorType
	ProgramID() [32]byte
	VerifyProofID() [32]byte
	GenProof(ctx context.Context, input []byte, shape RawProofType, assumptions [][]byte) (nitroverifier.RawProof, error)
	OnchainProof(proof nitroverifier.RawProof) ([]byte, error)
	UploadImage(ctx context.Context, cfg RemoteProverConfig) error
}

// EncodeFunc and DecodeFunc give the typed wrapper types below a way to
// move between a program's Input/Output Go structs and the ABI bytes the
// Program interface actually carries.
type EncodeFunc[T any] func(T) ([]byte, error)
type DecodeFunc[T any] func([]byte) (T, error)

var devMode = false

// SetDevMode toggles dev mode process-wide: GenProof calls that would
// otherwise dial a remote proving service instead synthesize a locally
// computed, structurally valid proof. Intended for local testing only.
func SetDevMode(on bool) {
	devMode = on
}

// DevMode reports whether dev mode is currently enabled.
func DevMode() bool {
	return devMode
}

var (
	// ErrMissingRemoteConfig is returned when an UploadImage call lacks
	// the API URL/key it needs to reach the backend's remote proving
	// service. GenProof takes no RemoteProverConfig and never returns it.
	ErrMissingRemoteConfig = fmt.Errorf("zkprogram: missing remote prover api url/key")
)

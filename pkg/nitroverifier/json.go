// Copyright 2025 Certen Protocol

package nitroverifier

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// onchainProofJSON is the on-disk shape of OnchainProof: byte fields as
// "0x"-prefixed hex strings, pretty-printed. Kept separate from
// OnchainProof itself so the in-memory type stays plain []byte/[N]byte,
// matching the ABI structs it is encoded against.
type onchainProofJSON struct {
	ZkType      ZkCoProcessorType `json:"zk_type"`
	ZkvmVersion string            `json:"zkvm_version"`
	ProgramID   struct {
		VerifierID      string `json:"verifier_id"`
		VerifierProofID string `json:"verifier_proof_id"`
		AggregatorID    string `json:"aggregator_id"`
	} `json:"program_id"`
	RawProof struct {
		EncodedProof string `json:"encoded_proof"`
		Journal      string `json:"journal"`
	} `json:"raw_proof"`
	OnchainProof string    `json:"onchain_proof"`
	ProofType    ProofType `json:"proof_type"`
}

func hexEncode(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

func hexDecode(s string) ([]byte, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	return hex.DecodeString(s)
}

func hexDecode32(s string) ([32]byte, error) {
	var out [32]byte
	raw, err := hexDecode(s)
	if err != nil {
		return out, err
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// ToJSON renders the proof envelope as pretty-printed JSON with hex-encoded
// byte fields, the on-disk format described in the external interfaces.
func (p OnchainProof) ToJSON() ([]byte, error) {
	w := onchainProofJSON{
		ZkType:       p.ZkType,
		ZkvmVersion:  p.ZkvmVersion,
		OnchainProof: hexEncode(p.OnchainProof),
		ProofType:    p.ProofType,
	}
	w.ProgramID.VerifierID = hexEncode(p.ProgramID.VerifierID[:])
	w.ProgramID.VerifierProofID = hexEncode(p.ProgramID.VerifierProofID[:])
	w.ProgramID.AggregatorID = hexEncode(p.ProgramID.AggregatorID[:])
	w.RawProof.EncodedProof = hexEncode(p.RawProof.EncodedProof)
	w.RawProof.Journal = hexEncode(p.RawProof.Journal)
	return json.MarshalIndent(w, "", "  ")
}

// OnchainProofFromJSON is the inverse of OnchainProof.ToJSON. Round-trip:
// OnchainProofFromJSON(x.ToJSON()) == x.
func OnchainProofFromJSON(data []byte) (OnchainProof, error) {
	var w onchainProofJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return OnchainProof{}, fmt.Errorf("nitroverifier: decode OnchainProof json: %w", err)
	}
	p := OnchainProof{
		ZkType:      w.ZkType,
		ZkvmVersion: w.ZkvmVersion,
		ProofType:   w.ProofType,
	}
	var err error
	if p.ProgramID.VerifierID, err = hexDecode32(w.ProgramID.VerifierID); err != nil {
		return OnchainProof{}, fmt.Errorf("nitroverifier: decode OnchainProof json: verifier_id: %w", err)
	}
	if p.ProgramID.VerifierProofID, err = hexDecode32(w.ProgramID.VerifierProofID); err != nil {
		return OnchainProof{}, fmt.Errorf("nitroverifier: decode OnchainProof json: verifier_proof_id: %w", err)
	}
	if p.ProgramID.AggregatorID, err = hexDecode32(w.ProgramID.AggregatorID); err != nil {
		return OnchainProof{}, fmt.Errorf("nitroverifier: decode OnchainProof json: aggregator_id: %w", err)
	}
	if p.RawProof.EncodedProof, err = hexDecode(w.RawProof.EncodedProof); err != nil {
		return OnchainProof{}, fmt.Errorf("nitroverifier: decode OnchainProof json: encoded_proof: %w", err)
	}
	if p.RawProof.Journal, err = hexDecode(w.RawProof.Journal); err != nil {
		return OnchainProof{}, fmt.Errorf("nitroverifier: decode OnchainProof json: journal: %w", err)
	}
	if p.OnchainProof, err = hexDecode(w.OnchainProof); err != nil {
		return OnchainProof{}, fmt.Errorf("nitroverifier: decode OnchainProof json: onchain_proof: %w", err)
	}
	return p, nil
}

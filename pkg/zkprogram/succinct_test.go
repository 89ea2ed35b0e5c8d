// Copyright 2025 Certen Protocol

package zkprogram

import (
	"context"
	"testing"

	"github.com/certen/nitro-attestation-zk/pkg/nitroverifier"
)

func TestSuccinctProgramIdentifiers(t *testing.T) {
	vkBytes := [32]byte{0xaa, 0xbb}
	vkWords := [8]uint32{1, 2, 3, 4, 5, 6, 7, 8}
	p := NewSuccinctProgram[int, int]("verifier.elf", "v4.0.0", vkBytes, vkWords, nil, nil, nil, nil)

	if p.ProgramID() != vkBytes {
		t.Fatalf("ProgramID() must equal the raw verifying key bytes")
	}
	vp := p.VerifyProofID()
	if vp == p.ProgramID() {
		t.Fatalf("VerifyProofID should be derived from the word-hash, distinct from ProgramID here")
	}
	if p.Version() != "v4.0.0" {
		t.Fatalf("Version() = %q", p.Version())
	}
	if p.ZkType() != nitroverifier.ZkSuccinct {
		t.Fatalf("ZkType() = %v, want ZkSuccinct", p.ZkType())
	}
}

func TestSuccinctProgramOnchainProofPrependsVkeyHashPrefix(t *testing.T) {
	vkWords := [8]uint32{0x01020304, 0, 0, 0, 0, 0, 0, 0}
	p := NewSuccinctProgram[int, int]("verifier.elf", "v4.0.0", [32]byte{}, vkWords, nil, nil, nil, nil)

	proof := nitroverifier.RawProof{EncodedProof: []byte{0xde, 0xad, 0xbe, 0xef}}
	out, err := p.OnchainProof(proof)
	if err != nil {
		t.Fatalf("OnchainProof: %v", err)
	}
	want := []byte{0x01, 0x02, 0x03, 0x04, 0xde, 0xad, 0xbe, 0xef}
	if len(out) != len(want) {
		t.Fatalf("OnchainProof length = %d, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("OnchainProof[%d] = %#x, want %#x", i, out[i], want[i])
		}
	}
}

func TestSuccinctProgramOnchainProofEmptyForNoEncodedProof(t *testing.T) {
	p := NewSuccinctProgram[int, int]("verifier.elf", "v4.0.0", [32]byte{}, [8]uint32{}, nil, nil, nil, nil)
	out, err := p.OnchainProof(nitroverifier.RawProof{})
	if err != nil {
		t.Fatalf("OnchainProof: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty on-chain proof for a Composite/empty RawProof")
	}
}

func TestSuccinctProgramGenProofDevCompositeEchoesJournal(t *testing.T) {
	SetDevMode(true)
	defer SetDevMode(false)

	p := NewSuccinctProgram[int, int]("verifier.elf", "v4.0.0", [32]byte{}, [8]uint32{}, nil, nil, nil, nil)
	journal := []byte("journal bytes")
	proof, err := p.GenProof(context.Background(), journal, RawProofComposite, nil)
	if err != nil {
		t.Fatalf("GenProof: %v", err)
	}
	if string(proof.Journal) != string(journal) || len(proof.EncodedProof) != 0 {
		t.Fatalf("Composite dev proof should echo the journal with no encoded proof, got %+v", proof)
	}
}

func TestSuccinctProgramGenProofDevGroth16RoundTrips(t *testing.T) {
	pk, vk, err := CompileDevCircuit()
	if err != nil {
		t.Fatalf("CompileDevCircuit: %v", err)
	}

	SetDevMode(true)
	defer SetDevMode(false)

	p := NewSuccinctProgram[int, int]("verifier.elf", "v4.0.0", [32]byte{}, [8]uint32{}, nil, nil, pk, vk)
	journal := []byte("sp1 journal content")
	proof, err := p.GenProof(context.Background(), journal, RawProofGroth16, nil)
	if err != nil {
		t.Fatalf("GenProof: %v", err)
	}
	if err := verifyDevJournal(vk, proof.EncodedProof, journal); err != nil {
		t.Fatalf("verifyDevJournal: %v", err)
	}
}

func TestSuccinctProgramUploadImageRequiresConfig(t *testing.T) {
	p := NewSuccinctProgram[int, int]("verifier.elf", "v4.0.0", [32]byte{}, [8]uint32{}, nil, nil, nil, nil)
	if err := p.UploadImage(context.Background(), RemoteProverConfig{}); err != ErrMissingRemoteConfig {
		t.Fatalf("UploadImage() = %v, want ErrMissingRemoteConfig", err)
	}
}

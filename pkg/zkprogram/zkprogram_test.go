// Copyright 2025 Certen Protocol

package zkprogram

import (
	"context"
	"testing"

	"github.com/certen/nitro-attestation-zk/pkg/nitroverifier"
)

func TestRawProofTypeString(t *testing.T) {
	cases := map[RawProofType]string{
		RawProofComposite: "Composite",
		RawProofGroth16:   "Groth16",
		RawProofType(99):  "Unknown",
	}
	for in, want := range cases {
		if got := in.String(); got != want {
			t.Errorf("RawProofType(%d).String() = %q, want %q", in, got, want)
		}
	}
}

func TestRiscZeroProgramIDPacking(t *testing.T) {
	imageID := [8]uint32{0x00010203, 0x04050607, 0x08090a0b, 0x0c0d0e0f, 0, 0, 0, 0xffffffff}
	p := NewRiscZeroProgram[int, int]("demo.elf", imageID, nil, nil, nil, nil)

	id := p.ProgramID()
	want := []byte{
		0x00, 0x01, 0x02, 0x03,
		0x04, 0x05, 0x06, 0x07,
		0x08, 0x09, 0x0a, 0x0b,
		0x0c, 0x0d, 0x0e, 0x0f,
		0, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
		0xff, 0xff, 0xff, 0xff,
	}
	for i := range want {
		if id[i] != want[i] {
			t.Fatalf("ProgramID()[%d] = %#x, want %#x", i, id[i], want[i])
		}
	}
	if p.VerifyProofID() != p.ProgramID() {
		t.Fatalf("VerifyProofID must equal ProgramID for the risc0 backend")
	}
	if p.Version() != "risc0-demo.elf" {
		t.Fatalf("Version() = %q", p.Version())
	}
	if p.ZkType() != nitroverifier.ZkRiscZero {
		t.Fatalf("ZkType() = %v, want ZkRiscZero", p.ZkType())
	}
}

func TestRiscZeroProgramGenProofCompositeSkipsDevKeys(t *testing.T) {
	SetDevMode(true)
	defer SetDevMode(false)

	p := NewRiscZeroProgram[int, int]("demo.elf", [8]uint32{}, nil, nil, nil, nil)
	journal := []byte("a sample journal payload")

	proof, err := p.GenProof(context.Background(), journal, RawProofComposite, nil)
	if err != nil {
		t.Fatalf("GenProof(Composite): %v", err)
	}
	if string(proof.Journal) != string(journal) {
		t.Fatalf("Composite proof must echo the journal unchanged")
	}
	if len(proof.EncodedProof) != 0 {
		t.Fatalf("Composite proof must carry no on-chain encoding")
	}

	onchain, err := p.OnchainProof(proof)
	if err != nil {
		t.Fatalf("OnchainProof: %v", err)
	}
	if len(onchain) != 0 {
		t.Fatalf("OnchainProof for a Composite proof must be empty")
	}
}

func TestRiscZeroProgramGenProofGroth16DevModeRoundTrips(t *testing.T) {
	pk, vk, err := CompileDevCircuit()
	if err != nil {
		t.Fatalf("CompileDevCircuit: %v", err)
	}

	SetDevMode(true)
	defer SetDevMode(false)

	p := NewRiscZeroProgram[int, int]("demo.elf", [8]uint32{1}, nil, nil, pk, vk)
	journal := []byte("attestation journal bytes used as the bound preimage")

	proof, err := p.GenProof(context.Background(), journal, RawProofGroth16, nil)
	if err != nil {
		t.Fatalf("GenProof(Groth16): %v", err)
	}
	if len(proof.EncodedProof) == 0 {
		t.Fatalf("Groth16 proof must carry a non-empty encoded proof")
	}
	if string(proof.Journal) != string(journal) {
		t.Fatalf("Groth16 proof must still carry the original journal")
	}

	if err := verifyDevJournal(vk, proof.EncodedProof, journal); err != nil {
		t.Fatalf("verifyDevJournal: %v", err)
	}

	onchain, err := p.OnchainProof(proof)
	if err != nil {
		t.Fatalf("OnchainProof: %v", err)
	}
	if string(onchain) != string(proof.EncodedProof) {
		t.Fatalf("OnchainProof for a Groth16 proof should pass the encoded proof through")
	}

	if err := verifyDevJournal(vk, proof.EncodedProof, []byte("tampered journal")); err == nil {
		t.Fatalf("expected verification to fail against a different journal")
	}
}

func TestRiscZeroProgramGenProofGroth16DevModeRequiresKeys(t *testing.T) {
	SetDevMode(true)
	defer SetDevMode(false)

	p := NewRiscZeroProgram[int, int]("demo.elf", [8]uint32{}, nil, nil, nil, nil)
	if _, err := p.GenProof(context.Background(), []byte("x"), RawProofGroth16, nil); err == nil {
		t.Fatalf("expected an error when no dev proving key is configured")
	}
}

func TestRiscZeroProgramUploadImageRequiresConfig(t *testing.T) {
	p := NewRiscZeroProgram[int, int]("demo.elf", [8]uint32{}, nil, nil, nil, nil)
	if err := p.UploadImage(context.Background(), RemoteProverConfig{}); err != ErrMissingRemoteConfig {
		t.Fatalf("UploadImage() = %v, want ErrMissingRemoteConfig", err)
	}
}

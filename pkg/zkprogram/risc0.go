// Copyright 2025 Certen Protocol

package zkprogram

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/consensys/gnark/backend/groth16"

	"github.com/certen/nitro-attestation-zk/pkg/nitroverifier"
)

// RiscZeroProgram adapts a RISC Zero guest image to the Program
// interface. ImageID is the image's 8 x 32-bit word digest, the same
// shape risc0_zkvm::Digest uses; ProgramID packs those words big-endian
// into 32 bytes. VerifyProofID equals ProgramID for this backend.
type RiscZeroProgram[Input any, Output any] struct {
	ElfName      string
	ImageID      [8]uint32
	EncodeInput  EncodeFunc[Input]
	DecodeOutput DecodeFunc[Output]

	// devProvingKey/devVerifyingKey back GenProof/OnchainProof in dev
	// mode with a real, locally computed Groth16 proof rather than a
	// network call to Bonsai.
	devProvingKey   groth16.ProvingKey
	devVerifyingKey groth16.VerifyingKey
	httpClient      *http.Client
}

// NewRiscZeroProgram builds a RiscZeroProgram. devPK/devVK may be nil if
// the caller never runs this program in dev mode.
func NewRiscZeroProgram[Input any, Output any](
	elfName string,
	imageID [8]uint32,
	encode EncodeFunc[Input],
	decode DecodeFunc[Output],
	devPK groth16.ProvingKey,
	devVK groth16.VerifyingKey,
) *RiscZeroProgram[Input, Output] {
	return &RiscZeroProgram[Input, Output]{
		ElfName:         elfName,
		ImageID:         imageID,
		EncodeInput:     encode,
		DecodeOutput:    decode,
		devProvingKey:   devPK,
		devVerifyingKey: devVK,
		httpClient:      &http.Client{},
	}
}

func (p *RiscZeroProgram[Input, Output]) Version() string {
	return "risc0-" + p.ElfName
}

func (p *RiscZeroProgram[Input, Output]) ZkType() nitroverifier.ZkCoProcessorType {
	return nitroverifier.ZkRiscZero
}

func (p *RiscZeroProgram[Input, Output]) ProgramID() [32]byte {
	var out [32]byte
	for i, w := range p.ImageID {
		binary.BigEndian.PutUint32(out[i*4:i*4+4], w)
	}
	return out
}

func (p *RiscZeroProgram[Input, Output]) VerifyProofID() [32]byte {
	return p.ProgramID()
}

// bonsaiJobRequest/bonsaiJobResponse model the minimal Bonsai proving-job
// shape this adapter needs: submit an ELF id plus input bytes, get back
// an encoded receipt.
type bonsaiJobRequest struct {
	ImageID string `json:"image_id"`
	Input   []byte `json:"input"`
	Shape   string `json:"shape"`
}

type bonsaiJobResponse struct {
	Journal      []byte `json:"journal"`
	EncodedProof []byte `json:"encoded_proof"`
}

func (p *RiscZeroProgram[Input, Output]) GenProof(ctx context.Context, input []byte, shape RawProofType, assumptions [][]byte) (nitroverifier.RawProof, error) {
	if devMode {
		return p.genProofDev(input, shape, assumptions)
	}
	return p.genProofRemote(ctx, input, shape)
}

func (p *RiscZeroProgram[Input, Output]) genProofRemote(ctx context.Context, input []byte, shape RawProofType) (nitroverifier.RawProof, error) {
	reqBody, err := json.Marshal(bonsaiJobRequest{
		ImageID: fmt.Sprintf("%x", p.ProgramID()),
		Input:   input,
		Shape:   shape.String(),
	})
	if err != nil {
		return nitroverifier.RawProof{}, fmt.Errorf("zkprogram: marshal bonsai job request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, bonsaiJobURL, bytes.NewReader(reqBody))
	if err != nil {
		return nitroverifier.RawProof{}, fmt.Errorf("zkprogram: build bonsai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nitroverifier.RawProof{}, fmt.Errorf("zkprogram: bonsai request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nitroverifier.RawProof{}, fmt.Errorf("zkprogram: bonsai returned status %d", resp.StatusCode)
	}

	var job bonsaiJobResponse
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nitroverifier.RawProof{}, fmt.Errorf("zkprogram: decode bonsai response: %w", err)
	}
	return nitroverifier.RawProof{EncodedProof: job.EncodedProof, Journal: job.Journal}, nil
}

func (p *RiscZeroProgram[Input, Output]) OnchainProof(proof nitroverifier.RawProof) ([]byte, error) {
	if len(proof.EncodedProof) == 0 {
		// An empty encoded proof (what dev-mode Composite proofs carry)
		// has no on-chain encoding. A non-empty proof is passed through
		// whatever its shape.
		return []byte{}, nil
	}
	return proof.EncodedProof, nil
}

func (p *RiscZeroProgram[Input, Output]) UploadImage(ctx context.Context, cfg RemoteProverConfig) error {
	if cfg.APIURL == "" || cfg.APIKey == "" {
		return ErrMissingRemoteConfig
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIURL+"/images/"+fmt.Sprintf("%x", p.ProgramID()), nil)
	if err != nil {
		return fmt.Errorf("zkprogram: build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("zkprogram: upload image failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("zkprogram: upload image returned status %d", resp.StatusCode)
	}
	return nil
}

// genProofDev uses the adapter's compiled-in Groth16 keys to produce a
// real proof over a tiny circuit binding the journal digest, so dev-mode
// callers exercise the whole RawProof/OnchainProof pipeline without a
// network dependency. It never runs the guest program itself; `journal`
// is whatever the caller's pure guest function already computed.
func (p *RiscZeroProgram[Input, Output]) genProofDev(journal []byte, shape RawProofType, assumptions [][]byte) (nitroverifier.RawProof, error) {
	if shape == RawProofComposite {
		return nitroverifier.RawProof{Journal: journal, EncodedProof: []byte{}}, nil
	}
	if p.devProvingKey == nil {
		return nitroverifier.RawProof{}, fmt.Errorf("zkprogram: dev mode enabled but no dev proving key configured for %s", p.ElfName)
	}
	proofBytes, _, err := proveDevJournal(p.devProvingKey, journal)
	if err != nil {
		return nitroverifier.RawProof{}, fmt.Errorf("zkprogram: %s: %w", p.ElfName, err)
	}
	return nitroverifier.RawProof{Journal: journal, EncodedProof: proofBytes}, nil
}

// bonsaiJobURL is the Bonsai job-submission endpoint genProofRemote
// posts to. It is fixed; RemoteProverConfig does not change it.
const bonsaiJobURL = "https://api.bonsai.xyz/jobs"

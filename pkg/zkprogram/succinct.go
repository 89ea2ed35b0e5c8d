// Copyright 2025 Certen Protocol

package zkprogram

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/consensys/gnark/backend/groth16"

	"github.com/certen/nitro-attestation-zk/pkg/nitroverifier"
)

// SuccinctProgram adapts a Succinct SP1 guest ELF to the Program
// interface. Unlike RISC Zero, SP1's program and verify-proof
// identifiers are both derived from its verifying key rather than the
// compiled guest image directly: ProgramID is the verifying key's raw
// 32-byte digest (vk.bytes32_raw() in the Rust SDK), while
// VerifyProofID packs the key's 8 x 32-bit word hash (vk.hash_u32())
// big-endian, the value the aggregator guest checks a composite proof
// against. Both are supplied at construction time since this module
// has no SP1 SDK binding to derive them from an ELF itself.
type SuccinctProgram[Input any, Output any] struct {
	ElfName      string
	CircuitVer   string
	VkBytes32Raw [32]byte
	VkHashWords  [8]uint32
	EncodeInput  EncodeFunc[Input]
	DecodeOutput DecodeFunc[Output]

	devProvingKey   groth16.ProvingKey
	devVerifyingKey groth16.VerifyingKey
	httpClient      *http.Client
}

// NewSuccinctProgram builds a SuccinctProgram. devPK/devVK may be nil if
// the caller never runs this program in dev mode.
func NewSuccinctProgram[Input any, Output any](
	elfName string,
	circuitVer string,
	vkBytes32Raw [32]byte,
	vkHashWords [8]uint32,
	encode EncodeFunc[Input],
	decode DecodeFunc[Output],
	devPK groth16.ProvingKey,
	devVK groth16.VerifyingKey,
) *SuccinctProgram[Input, Output] {
	return &SuccinctProgram[Input, Output]{
		ElfName:         elfName,
		CircuitVer:      circuitVer,
		VkBytes32Raw:    vkBytes32Raw,
		VkHashWords:     vkHashWords,
		EncodeInput:     encode,
		DecodeOutput:    decode,
		devProvingKey:   devPK,
		devVerifyingKey: devVK,
		httpClient:      &http.Client{},
	}
}

func (p *SuccinctProgram[Input, Output]) Version() string {
	return p.CircuitVer
}

func (p *SuccinctProgram[Input, Output]) ZkType() nitroverifier.ZkCoProcessorType {
	return nitroverifier.ZkSuccinct
}

func (p *SuccinctProgram[Input, Output]) ProgramID() [32]byte {
	return p.VkBytes32Raw
}

func (p *SuccinctProgram[Input, Output]) VerifyProofID() [32]byte {
	var out [32]byte
	for i, w := range p.VkHashWords {
		binary.BigEndian.PutUint32(out[i*4:i*4+4], w)
	}
	return out
}

// networkProveRequest/networkProveResponse model the minimal shape this
// adapter needs from an SP1 prover-network-style service: submit the
// ABI-encoded input plus any composite proofs to aggregate over, get
// back a bincode-equivalent encoded proof and its public values.
type networkProveRequest struct {
	VkHash          string   `json:"vk_hash"`
	Input           []byte   `json:"input"`
	Shape           string   `json:"shape"`
	CompositeProofs [][]byte `json:"composite_proofs,omitempty"`
}

type networkProveResponse struct {
	PublicValues []byte `json:"public_values"`
	EncodedProof []byte `json:"encoded_proof"`
	VkeyHash     []byte `json:"vkey_hash"`
}

func (p *SuccinctProgram[Input, Output]) GenProof(ctx context.Context, input []byte, shape RawProofType, assumptions [][]byte) (nitroverifier.RawProof, error) {
	if devMode {
		return p.genProofDev(input, shape)
	}
	return p.genProofRemote(ctx, input, shape, assumptions)
}

func (p *SuccinctProgram[Input, Output]) genProofRemote(ctx context.Context, input []byte, shape RawProofType, assumptions [][]byte) (nitroverifier.RawProof, error) {
	reqBody, err := json.Marshal(networkProveRequest{
		VkHash:          hex.EncodeToString(p.VkBytes32Raw[:]),
		Input:           input,
		Shape:           shape.String(),
		CompositeProofs: assumptions,
	})
	if err != nil {
		return nitroverifier.RawProof{}, fmt.Errorf("zkprogram: marshal sp1 network prove request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sp1NetworkProveURL, bytes.NewReader(reqBody))
	if err != nil {
		return nitroverifier.RawProof{}, fmt.Errorf("zkprogram: build sp1 network request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nitroverifier.RawProof{}, fmt.Errorf("zkprogram: sp1 network request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nitroverifier.RawProof{}, fmt.Errorf("zkprogram: sp1 network returned status %d", resp.StatusCode)
	}

	var job networkProveResponse
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nitroverifier.RawProof{}, fmt.Errorf("zkprogram: decode sp1 network response: %w", err)
	}
	return nitroverifier.RawProof{Journal: job.PublicValues, EncodedProof: job.EncodedProof}, nil
}

// genProofDev mirrors RiscZeroProgram's dev-mode behavior: Composite
// shapes skip proving entirely and just echo the journal, Groth16
// shapes exercise the same local MiMC-binding circuit so this adapter's
// RawProof/OnchainProof pipeline is exercised without a network
// dependency on the SP1 prover network.
func (p *SuccinctProgram[Input, Output]) genProofDev(journal []byte, shape RawProofType) (nitroverifier.RawProof, error) {
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

// OnchainProof prepends the first 4 bytes of VerifyProofID to any
// non-empty encoded proof; an empty encoded proof (what dev-mode
// Composite proofs carry) has no on-chain encoding. The proof's shape is
// not inspected, so a non-empty Composite proof from the remote service
// is prefixed the same way as a Groth16 one.
func (p *SuccinctProgram[Input, Output]) OnchainProof(proof nitroverifier.RawProof) ([]byte, error) {
	if len(proof.EncodedProof) == 0 {
		return []byte{}, nil
	}
	vkeyHash := p.VerifyProofID()
	out := make([]byte, 0, 4+len(proof.EncodedProof))
	out = append(out, vkeyHash[:4]...)
	out = append(out, proof.EncodedProof...)
	return out, nil
}

func (p *SuccinctProgram[Input, Output]) UploadImage(ctx context.Context, cfg RemoteProverConfig) error {
	if cfg.APIURL == "" || cfg.APIKey == "" {
		return ErrMissingRemoteConfig
	}
	reqBody, err := json.Marshal(struct {
		VkHash string `json:"vk_hash"`
	}{VkHash: hex.EncodeToString(p.VkBytes32Raw[:])})
	if err != nil {
		return fmt.Errorf("zkprogram: marshal sp1 register request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIURL+"/register", bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("zkprogram: build sp1 register request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("zkprogram: register program failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("zkprogram: register program returned status %d", resp.StatusCode)
	}
	return nil
}

// sp1NetworkProveURL is the SP1 prover network proving endpoint
// genProofRemote posts to. It is fixed; RemoteProverConfig does not
// change it.
const sp1NetworkProveURL = "https://rpc.succinct.xyz/prove"

// Copyright 2025 Certen Protocol
//
// Package prover is the host-side orchestrator binding the attestation
// parsing, guest programs, zkVM backend adapter, and on-chain verifier
// contract together into the prove-a-report / prove-a-batch workflows.
//
// # Basic single-report proof
//
//	zkprogram.SetDevMode(true)
//	p := prover.New(prover.Deps{Verifier: verifierProgram, Aggregator: aggregatorProgram}, prover.Config{})
//	report, err := os.ReadFile("samples/attestation_1.report")
//	proof, err := p.ProveAttestationReport(ctx, report)
//	data, err := proof.ToJSON()
//
// # Batch proving with aggregation
//
//	reports := [][]byte{report1, report2}
//	proof, err := p.ProveMultipleReports(ctx, reports)
package prover

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/certen/nitro-attestation-zk/pkg/attestreport"
	"github.com/certen/nitro-attestation-zk/pkg/nitroverifier"
	"github.com/certen/nitro-attestation-zk/pkg/verifiercontract"
	"github.com/certen/nitro-attestation-zk/pkg/zkprogram"
)

// VerifierContract is the subset of verifiercontract.Client the prover
// needs; an interface so tests can substitute a fake.
type VerifierContract interface {
	ZkConfig(ctx context.Context, zkType nitroverifier.ZkCoProcessorType) (nitroverifier.ProgramID, error)
	MaxTimeDiff(ctx context.Context) (uint64, error)
	CheckTrustedIntermediateCerts(ctx context.Context, certDigests [][][32]byte) ([]uint8, error)
	Verify(ctx context.Context, zk nitroverifier.ZkCoProcessorType, proofBytes []byte, output []byte) (nitroverifier.VerifierJournal, error)
	BatchVerify(ctx context.Context, zk nitroverifier.ZkCoProcessorType, proofBytes []byte, output []byte) ([]nitroverifier.VerifierJournal, error)
}

var _ VerifierContract = (*verifiercontract.Client)(nil)

// Deps are the programs and optional contract a Prover coordinates.
type Deps struct {
	Verifier   zkprogram.Program
	Aggregator zkprogram.Program
	Contract   VerifierContract // nil when running without a deployed contract
}

// Prover is the AWS Nitro Enclave attestation prover: it turns raw
// attestation report bytes into zero-knowledge proofs a smart contract
// can check cheaply on-chain.
type Prover struct {
	verifier   zkprogram.Program
	aggregator zkprogram.Program
	contract   VerifierContract
	cfg        Config
	metrics    *metrics
}

// New builds a Prover from its dependencies and policy configuration.
func New(deps Deps, cfg Config) *Prover {
	return &Prover{
		verifier:   deps.Verifier,
		aggregator: deps.Aggregator,
		contract:   deps.Contract,
		cfg:        cfg,
		metrics:    newMetrics(),
	}
}

// ZkType reports which zkVM backend this Prover's programs target.
func (p *Prover) ZkType() nitroverifier.ZkCoProcessorType {
	return p.verifier.ZkType()
}

// ProgramID returns the local guest image identifiers for both
// programs this Prover holds.
func (p *Prover) ProgramID() nitroverifier.ProgramID {
	return nitroverifier.ProgramID{
		VerifierID:      p.verifier.ProgramID(),
		VerifierProofID: p.verifier.VerifyProofID(),
		AggregatorID:    p.aggregator.ProgramID(),
	}
}

// EncodeProofForOnchain converts a zkVM-opaque RawProof into the bytes
// the verifier contract's ABI expects.
func (p *Prover) EncodeProofForOnchain(proof nitroverifier.RawProof) ([]byte, error) {
	return p.verifier.OnchainProof(proof)
}

// UploadProgramImages registers both guest programs with their
// backend's remote proving service.
func (p *Prover) UploadProgramImages(ctx context.Context, cfg zkprogram.RemoteProverConfig) (nitroverifier.ProgramID, error) {
	if err := p.verifier.UploadImage(ctx, cfg); err != nil {
		return nitroverifier.ProgramID{}, fmt.Errorf("prover: upload verifier image: %w", err)
	}
	if err := p.aggregator.UploadImage(ctx, cfg); err != nil {
		return nitroverifier.ProgramID{}, fmt.Errorf("prover: upload aggregator image: %w", err)
	}
	return p.ProgramID(), nil
}

// PrepareVerifierInputs gates proving by policy: it parses every
// report, consults the verifier contract (when configured) for trusted
// certificate prefixes and the allowed staleness window, and otherwise
// falls back to cfg.DefaultTrustedCertsPrefixLen and a 3-hour window.
func (p *Prover) PrepareVerifierInputs(ctx context.Context, rawReports [][]byte) ([]nitroverifier.VerifierInput, error) {
	reports := make([]*attestreport.AttestationReport, len(rawReports))
	certDigests := make([][][32]byte, len(rawReports))
	for i, raw := range rawReports {
		report, err := attestreport.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("prover: parse report %d: %w", i, err)
		}
		chain, err := report.CertChain()
		if err != nil {
			return nil, fmt.Errorf("prover: cert chain for report %d: %w", i, err)
		}
		reports[i] = report
		certDigests[i] = chain.PathDigest
	}

	var maxTimeDiff uint64
	var prefixLens []uint8

	if p.contract != nil {
		if err := p.checkContractProgramID(ctx); err != nil {
			return nil, err
		}
		diff, err := p.contract.MaxTimeDiff(ctx)
		if err != nil {
			return nil, fmt.Errorf("prover: fetch maxTimeDiff: %w", err)
		}
		maxTimeDiff = diff

		p.metrics.certCacheQueries.Inc()
		lengths, err := p.contract.CheckTrustedIntermediateCerts(ctx, certDigests)
		if err != nil {
			return nil, fmt.Errorf("prover: check trusted intermediate certs: %w", err)
		}
		for _, l := range lengths {
			if l > 0 {
				p.metrics.certCacheHits.Inc()
			}
		}
		prefixLens = lengths
	} else {
		log.Printf("prover: no contract configured, using default trusted prefix %d; not recommended for production", p.cfg.DefaultTrustedCertsPrefixLen)
		maxTimeDiff = defaultMaxTimeDiffSeconds
		prefixLens = make([]uint8, len(rawReports))
		for i := range prefixLens {
			prefixLens[i] = p.cfg.DefaultTrustedCertsPrefixLen
		}
	}

	if len(prefixLens) != len(rawReports) {
		return nil, fmt.Errorf("prover: trusted certificate lengths count mismatch: got %d, want %d", len(prefixLens), len(rawReports))
	}

	now := time.Now().Unix()
	inputs := make([]nitroverifier.VerifierInput, len(rawReports))
	for i, report := range reports {
		reportTime := int64(report.Document().Timestamp / 1000)
		if reportTime+int64(maxTimeDiff) < now {
			if !p.cfg.SkipTimeValidityCheck {
				return nil, fmt.Errorf("prover: report %d: %w", i, &nitroverifier.TimeValidityError{CertIndex: -1})
			}
			log.Printf("prover: report %d signed %d seconds ago, exceeds maxTimeDiff %d; continuing because SkipTimeValidityCheck is set", i, now-reportTime, maxTimeDiff)
		}
		inputs[i] = nitroverifier.VerifierInput{
			TrustedCertsPrefixLen: prefixLens[i],
			AttestationReport:     rawReports[i],
		}
	}
	return inputs, nil
}

func (p *Prover) checkContractProgramID(ctx context.Context) error {
	onchain, err := p.contract.ZkConfig(ctx, p.ZkType())
	if err != nil {
		return fmt.Errorf("prover: fetch zkConfig: %w", err)
	}
	local := p.ProgramID()
	if onchain != local {
		mismatch := &nitroverifier.ContractMismatchError{Local: local, OnChain: onchain}
		if !p.cfg.SkipContractProgramIDCheck {
			return mismatch
		}
		log.Printf("prover: %v; continuing because SkipContractProgramIDCheck is set", mismatch)
	}
	return nil
}

// ProveAttestationReport proves a single attestation report in its
// final, on-chain-checkable (Groth16) form.
func (p *Prover) ProveAttestationReport(ctx context.Context, rawReport []byte) (nitroverifier.OnchainProof, error) {
	inputs, err := p.PrepareVerifierInputs(ctx, [][]byte{rawReport})
	if err != nil {
		return nitroverifier.OnchainProof{}, err
	}
	encoded, err := nitroverifier.EncodeVerifierInput(inputs[0])
	if err != nil {
		return nitroverifier.OnchainProof{}, fmt.Errorf("prover: encode verifier input: %w", err)
	}

	start := time.Now()
	proof, err := p.verifier.GenProof(ctx, encoded, zkprogram.RawProofGroth16, nil)
	p.metrics.proveLatency.WithLabelValues("groth16").Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.proveFailures.WithLabelValues("groth16").Inc()
		return nitroverifier.OnchainProof{}, fmt.Errorf("prover: generate verifier proof: %w", err)
	}
	return p.createOnchainProof(proof, nitroverifier.ProofTypeVerifier)
}

// ProveMultipleReports proves a batch of attestation reports, fanning
// out partial composite proofs and aggregating them into one final
// proof a contract's batchVerify can check.
func (p *Prover) ProveMultipleReports(ctx context.Context, rawReports [][]byte) (nitroverifier.OnchainProof, error) {
	inputs, err := p.PrepareVerifierInputs(ctx, rawReports)
	if err != nil {
		return nitroverifier.OnchainProof{}, err
	}
	proofs, err := p.genMultiCompositeProofs(ctx, inputs)
	if err != nil {
		return nitroverifier.OnchainProof{}, err
	}
	result, err := p.aggregateProofs(ctx, proofs)
	if err != nil {
		return nitroverifier.OnchainProof{}, err
	}
	return p.createOnchainProof(result, nitroverifier.ProofTypeAggregator)
}

// genMultiCompositeProofs generates one composite (non-final) proof per
// input, fanning out across a worker pool bounded by
// Config.MaxConcurrency / PROVE_MAX_CONCURRENCY. Any single failure
// fails the whole batch; results preserve input order.
func (p *Prover) genMultiCompositeProofs(ctx context.Context, inputs []nitroverifier.VerifierInput) ([]nitroverifier.RawProof, error) {
	maxConcurrency := resolveMaxConcurrency(p.cfg)

	results, errs := runBounded(len(inputs), maxConcurrency, func(i int) (interface{}, error) {
		encoded, err := nitroverifier.EncodeVerifierInput(inputs[i])
		if err != nil {
			return nil, fmt.Errorf("encode verifier input %d: %w", i, err)
		}
		start := time.Now()
		proof, err := p.verifier.GenProof(ctx, encoded, zkprogram.RawProofComposite, nil)
		p.metrics.proveLatency.WithLabelValues("composite").Observe(time.Since(start).Seconds())
		if err != nil {
			p.metrics.proveFailures.WithLabelValues("composite").Inc()
			return nil, fmt.Errorf("generate composite proof %d: %w", i, err)
		}
		return proof, nil
	})

	proofs := make([]nitroverifier.RawProof, len(inputs))
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("prover: %w", err)
		}
		proofs[i] = results[i].(nitroverifier.RawProof)
	}
	return proofs, nil
}

// aggregateProofs decodes each partial proof's journal, gathers the
// partial proofs' raw bytes as assumptions, and proves the aggregator
// guest over the resulting batch, in Groth16 (final) form.
func (p *Prover) aggregateProofs(ctx context.Context, proofs []nitroverifier.RawProof) (nitroverifier.RawProof, error) {
	journals := make([]nitroverifier.VerifierJournal, len(proofs))
	assumptions := make([][]byte, len(proofs))
	for i, proof := range proofs {
		journal, err := nitroverifier.DecodeVerifierJournal(proof.Journal)
		if err != nil {
			return nitroverifier.RawProof{}, fmt.Errorf("prover: decode journal %d: %w", i, err)
		}
		journals[i] = journal
		assumptions[i] = proof.EncodedProof
	}

	batchInput := nitroverifier.BatchVerifierInput{
		VerifierVk: p.verifier.VerifyProofID(),
		Outputs:    journals,
	}
	encoded, err := nitroverifier.EncodeBatchVerifierInput(batchInput)
	if err != nil {
		return nitroverifier.RawProof{}, fmt.Errorf("prover: encode batch verifier input: %w", err)
	}

	start := time.Now()
	result, err := p.aggregator.GenProof(ctx, encoded, zkprogram.RawProofGroth16, assumptions)
	p.metrics.proveLatency.WithLabelValues("aggregate").Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.proveFailures.WithLabelValues("aggregate").Inc()
		return nitroverifier.RawProof{}, fmt.Errorf("prover: aggregate proofs: %w", err)
	}
	return result, nil
}

// createOnchainProof packages a RawProof with the metadata the
// verifier contract (or a JSON file on disk) needs to interpret it.
func (p *Prover) createOnchainProof(raw nitroverifier.RawProof, proofType nitroverifier.ProofType) (nitroverifier.OnchainProof, error) {
	onchainBytes, err := p.verifier.OnchainProof(raw)
	if err != nil {
		return nitroverifier.OnchainProof{}, fmt.Errorf("prover: encode onchain proof: %w", err)
	}
	return nitroverifier.OnchainProof{
		ZkType:       p.verifier.ZkType(),
		ZkvmVersion:  p.verifier.Version(),
		ProgramID:    p.ProgramID(),
		RawProof:     raw,
		OnchainProof: onchainBytes,
		ProofType:    proofType,
	}, nil
}

// OnchainVerifyResult is the decoded result of a VerifyOnChain call:
// exactly one of Single or Batch is set, matching the proof's ProofType.
type OnchainVerifyResult struct {
	Single *nitroverifier.VerifierJournal
	Batch  []nitroverifier.VerifierJournal
}

// VerifyOnChain routes an OnchainProof to the contract's verify (single
// report) or batchVerify (aggregated batch) view call, and returns the
// journal(s) it decodes.
func (p *Prover) VerifyOnChain(ctx context.Context, proof nitroverifier.OnchainProof) (OnchainVerifyResult, error) {
	if p.contract == nil {
		return OnchainVerifyResult{}, fmt.Errorf("prover: no contract configured, cannot verify on-chain")
	}
	if len(proof.OnchainProof) == 0 {
		return OnchainVerifyResult{}, fmt.Errorf("prover: proof has no on-chain encoding, cannot verify on-chain")
	}

	switch proof.ProofType {
	case nitroverifier.ProofTypeVerifier:
		journal, err := p.contract.Verify(ctx, proof.ZkType, proof.OnchainProof, proof.RawProof.Journal)
		if err != nil {
			return OnchainVerifyResult{}, fmt.Errorf("prover: verify on-chain: %w", err)
		}
		return OnchainVerifyResult{Single: &journal}, nil
	case nitroverifier.ProofTypeAggregator:
		journals, err := p.contract.BatchVerify(ctx, proof.ZkType, proof.OnchainProof, proof.RawProof.Journal)
		if err != nil {
			return OnchainVerifyResult{}, fmt.Errorf("prover: batch verify on-chain: %w", err)
		}
		return OnchainVerifyResult{Batch: journals}, nil
	default:
		return OnchainVerifyResult{}, fmt.Errorf("prover: unknown proof type %v", proof.ProofType)
	}
}

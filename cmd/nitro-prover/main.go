// Nitro Attestation ZK Prover CLI
// Turns an AWS Nitro Enclave attestation report into a zero-knowledge
// proof an on-chain verifier contract can check.

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/certen/nitro-attestation-zk/pkg/config"
	"github.com/certen/nitro-attestation-zk/pkg/nitroverifier"
	"github.com/certen/nitro-attestation-zk/pkg/prover"
	"github.com/certen/nitro-attestation-zk/pkg/verifiercontract"
	"github.com/certen/nitro-attestation-zk/pkg/zkprogram"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "prove":
		err = runProve(os.Args[2:])
	case "prove-batch":
		err = runProveBatch(os.Args[2:])
	case "verify":
		err = runVerify(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "nitro-prover: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: nitro-prover <prove|prove-batch|verify> [flags]")
}

// buildProver wires a dev-mode Prover: both guest programs backed by a
// locally compiled Groth16 circuit rather than a real RISC0/SP1 backend,
// since no Go SDK exists for either. A --contract flag additionally
// wires a read-only verifiercontract.Client for on-chain gating/checks.
func buildProver(ctx context.Context, cfg *config.ProverConfig, contractAddr string) (*prover.Prover, error) {
	zkprogram.SetDevMode(true)

	pk, vk, err := zkprogram.CompileDevCircuit()
	if err != nil {
		return nil, fmt.Errorf("compile dev circuit: %w", err)
	}

	verifier := zkprogram.NewRiscZeroProgram[nitroverifier.VerifierInput, nitroverifier.VerifierJournal](
		"verifier", [8]uint32{1, 2, 3, 4, 5, 6, 7, 8},
		nitroverifier.EncodeVerifierInput, nitroverifier.DecodeVerifierJournal,
		pk, vk,
	)
	aggregator := zkprogram.NewRiscZeroProgram[nitroverifier.BatchVerifierInput, nitroverifier.BatchVerifierJournal](
		"aggregator", [8]uint32{9, 10, 11, 12, 13, 14, 15, 16},
		nitroverifier.EncodeBatchVerifierInput, nitroverifier.DecodeBatchVerifierJournal,
		pk, vk,
	)

	deps := prover.Deps{Verifier: verifier, Aggregator: aggregator}
	if contractAddr != "" {
		client, err := verifiercontract.Dial(ctx, cfg.EthereumRPCURL, common.HexToAddress(contractAddr))
		if err != nil {
			return nil, fmt.Errorf("dial contract: %w", err)
		}
		deps.Contract = client
	}

	return prover.New(deps, cfg.ToProverConfig()), nil
}

func runProve(args []string) error {
	fs := flag.NewFlagSet("prove", flag.ExitOnError)
	reportPath := fs.String("report", "", "path to an attestation report (COSE_Sign1 bytes)")
	configPath := fs.String("config", "", "path to a ProverConfig YAML file (optional)")
	contractAddr := fs.String("contract", "", "verifier contract address (optional; omit to run without a contract)")
	out := fs.String("out", "", "path to write the OnchainProof JSON (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *reportPath == "" {
		return fmt.Errorf("prove: -report is required")
	}

	cfg, err := config.LoadProverConfig(*configPath)
	if err != nil {
		return err
	}

	report, err := os.ReadFile(*reportPath)
	if err != nil {
		return fmt.Errorf("prove: read report: %w", err)
	}

	ctx := context.Background()
	p, err := buildProver(ctx, cfg, *contractAddr)
	if err != nil {
		return err
	}

	proof, err := p.ProveAttestationReport(ctx, report)
	if err != nil {
		return fmt.Errorf("prove: %w", err)
	}
	return writeProof(proof, *out)
}

func runProveBatch(args []string) error {
	fs := flag.NewFlagSet("prove-batch", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a ProverConfig YAML file (optional)")
	contractAddr := fs.String("contract", "", "verifier contract address (optional; omit to run without a contract)")
	out := fs.String("out", "", "path to write the OnchainProof JSON (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	reportPaths := fs.Args()
	if len(reportPaths) == 0 {
		return fmt.Errorf("prove-batch: at least one report path is required")
	}

	cfg, err := config.LoadProverConfig(*configPath)
	if err != nil {
		return err
	}

	reports := make([][]byte, len(reportPaths))
	for i, path := range reportPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("prove-batch: read %s: %w", path, err)
		}
		reports[i] = data
	}

	ctx := context.Background()
	p, err := buildProver(ctx, cfg, *contractAddr)
	if err != nil {
		return err
	}

	batchID := uuid.New()
	fmt.Fprintf(os.Stderr, "nitro-prover: batch %s: proving %d reports\n", batchID, len(reports))

	proof, err := p.ProveMultipleReports(ctx, reports)
	if err != nil {
		return fmt.Errorf("prove-batch: %w", err)
	}
	return writeProof(proof, *out)
}

func runVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	proofPath := fs.String("proof", "", "path to an OnchainProof JSON file")
	configPath := fs.String("config", "", "path to a ProverConfig YAML file (optional)")
	contractAddr := fs.String("contract", "", "verifier contract address (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *proofPath == "" || *contractAddr == "" {
		return fmt.Errorf("verify: -proof and -contract are required")
	}

	cfg, err := config.LoadProverConfig(*configPath)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(*proofPath)
	if err != nil {
		return fmt.Errorf("verify: read proof: %w", err)
	}
	proof, err := nitroverifier.OnchainProofFromJSON(data)
	if err != nil {
		return fmt.Errorf("verify: decode proof: %w", err)
	}

	ctx := context.Background()
	p, err := buildProver(ctx, cfg, *contractAddr)
	if err != nil {
		return err
	}

	result, err := p.VerifyOnChain(ctx, proof)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	enc, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("verify: encode result: %w", err)
	}
	fmt.Println(string(enc))
	return nil
}

func writeProof(proof nitroverifier.OnchainProof, outPath string) error {
	enc, err := proof.ToJSON()
	if err != nil {
		return fmt.Errorf("encode proof: %w", err)
	}
	if outPath == "" {
		fmt.Println(string(enc))
		return nil
	}
	if err := os.WriteFile(outPath, enc, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	fmt.Fprintf(os.Stderr, "nitro-prover: wrote %s\n", outPath)
	return nil
}

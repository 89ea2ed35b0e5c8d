// Copyright 2025 Certen Protocol
//
// Package aggregatorguest implements the pure BatchVerifierInput ->
// BatchVerifierJournal step. The real "a proof exists binding verifierVk
// to this journal digest" check is backend-specific (RISC0's
// env.add_assumption, SP1's stdin.write_proof); here it is an injected
// function value so this package stays pure and backend-agnostic.
// pkg/zkprogram does not implement that check: its SP1 adapter forwards
// the inner proofs to the remote proving service, while its RISC Zero
// remote path and both dev-mode paths ignore them.
package aggregatorguest

import (
	"fmt"

	"github.com/certen/nitro-attestation-zk/pkg/nitroverifier"
)

// AssumptionVerifier asserts that a valid inner proof exists binding vk
// to journalDigest. It should abort the guest run (return a non-nil
// error) rather than return false; callers substitute the real
// proof-composition primitive for this.
type AssumptionVerifier func(vk [32]byte, journalDigest [32]byte) error

// Run asserts, via verify, that every output in input.Outputs was
// produced under input.VerifierVk, then re-emits the outputs verbatim so
// the contract can act on each.
func Run(input nitroverifier.BatchVerifierInput, verify AssumptionVerifier) (nitroverifier.BatchVerifierJournal, error) {
	for i, output := range input.Outputs {
		digest, err := output.Digest()
		if err != nil {
			return nitroverifier.BatchVerifierJournal{}, fmt.Errorf("aggregatorguest: digest output %d: %w", i, err)
		}
		if err := verify(input.VerifierVk, digest); err != nil {
			return nitroverifier.BatchVerifierJournal{}, fmt.Errorf("aggregatorguest: assumption failed for output %d: %w", i, err)
		}
	}

	return nitroverifier.BatchVerifierJournal{
		VerifierVk: input.VerifierVk,
		Outputs:    input.Outputs,
	}, nil
}

// Copyright 2025 Certen Protocol

package aggregatorguest

import (
	"errors"
	"testing"

	"github.com/certen/nitro-attestation-zk/pkg/nitroverifier"
)

func sampleJournal(timestamp uint64) nitroverifier.VerifierJournal {
	return nitroverifier.VerifierJournal{
		Result:    nitroverifier.ResultSuccess,
		Certs:     [][32]byte{{1}},
		Timestamp: timestamp,
		ModuleID:  "m",
		UserData:  []byte{},
		Nonce:     []byte{},
		PublicKey: []byte{},
	}
}

func TestRunVerifiesEachOutputAndEchoesThemBack(t *testing.T) {
	vk := [32]byte{9}
	outputs := []nitroverifier.VerifierJournal{sampleJournal(1), sampleJournal(2)}
	input := nitroverifier.BatchVerifierInput{VerifierVk: vk, Outputs: outputs}

	var seen []struct {
		vk     [32]byte
		digest [32]byte
	}
	verify := func(v [32]byte, d [32]byte) error {
		seen = append(seen, struct {
			vk     [32]byte
			digest [32]byte
		}{v, d})
		return nil
	}

	journal, err := Run(input, verify)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if journal.VerifierVk != vk {
		t.Fatalf("verifierVk mismatch")
	}
	if len(journal.Outputs) != len(outputs) {
		t.Fatalf("expected %d outputs echoed back, got %d", len(outputs), len(journal.Outputs))
	}
	for i, out := range journal.Outputs {
		if out.Timestamp != outputs[i].Timestamp {
			t.Fatalf("output %d not echoed verbatim: got %+v, want %+v", i, out, outputs[i])
		}
	}
	if len(seen) != len(outputs) {
		t.Fatalf("expected verify called once per output, got %d calls", len(seen))
	}
	for _, s := range seen {
		if s.vk != vk {
			t.Fatalf("verify called with wrong vk: %x", s.vk)
		}
	}
}

func TestRunAbortsWhenAssumptionFails(t *testing.T) {
	input := nitroverifier.BatchVerifierInput{
		VerifierVk: [32]byte{1},
		Outputs:    []nitroverifier.VerifierJournal{sampleJournal(1), sampleJournal(2)},
	}
	calls := 0
	verify := func(v [32]byte, d [32]byte) error {
		calls++
		if calls == 2 {
			return errors.New("no such inner proof")
		}
		return nil
	}

	if _, err := Run(input, verify); err == nil {
		t.Fatalf("expected Run to abort when an assumption check fails")
	}
	if calls != 2 {
		t.Fatalf("expected Run to stop at the failing output, got %d calls", calls)
	}
}

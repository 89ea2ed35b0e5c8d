// Copyright 2025 Certen Protocol
//
// Package verifierguest implements the pure VerifierInput -> VerifierJournal
// step that runs inside the zkVM guest. It has no knowledge of which
// backend hosts it; it only depends on attestreport, x509chain, cose and
// the shared wire schema.
package verifierguest

import (
	"fmt"
	"sort"

	"github.com/certen/nitro-attestation-zk/pkg/attestreport"
	"github.com/certen/nitro-attestation-zk/pkg/nitroverifier"
)

// Run executes the §4.3 authentication pipeline against input and builds
// the public journal. Any failure aborts the run instead of returning a
// non-Success journal: only a full pass produces output, matching the
// guest's all-or-nothing commit semantics.
func Run(input nitroverifier.VerifierInput) (nitroverifier.VerifierJournal, error) {
	report, err := attestreport.Parse(input.AttestationReport)
	if err != nil {
		return nitroverifier.VerifierJournal{}, fmt.Errorf("verifierguest: %w", err)
	}

	doc := report.Document()
	chain, err := report.Authenticate(int(input.TrustedCertsPrefixLen), int64(doc.Timestamp/1000))
	if err != nil {
		return nitroverifier.VerifierJournal{}, fmt.Errorf("verifierguest: %w", err)
	}

	return nitroverifier.VerifierJournal{
		Result:                nitroverifier.ResultSuccess,
		Certs:                 chain.PathDigest,
		TrustedCertsPrefixLen: input.TrustedCertsPrefixLen,
		UserData:              orEmpty(doc.UserData),
		Nonce:                 orEmpty(doc.Nonce),
		PublicKey:             orEmpty(doc.PublicKey),
		Pcrs:                  nonZeroPcrs(doc.Pcrs),
		ModuleID:              doc.ModuleID,
		Timestamp:             doc.Timestamp,
	}, nil
}

// orEmpty turns an absent optional field into an empty (not nil) byte
// slice, matching the ABI-encoded wire shape where the field is always
// present, just possibly zero-length.
func orEmpty(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

// nonZeroPcrs drops all-zero PCR slots and returns the rest sorted by
// index, since Go map iteration order is randomized and the Rust source
// iterates a BTreeMap (sorted).
func nonZeroPcrs(pcrs map[uint64][48]byte) []nitroverifier.Pcr {
	indexes := make([]uint64, 0, len(pcrs))
	for idx := range pcrs {
		indexes = append(indexes, idx)
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })

	out := make([]nitroverifier.Pcr, 0, len(indexes))
	for _, idx := range indexes {
		raw := pcrs[idx]
		b48 := nitroverifier.Bytes48{}
		copy(b48.First[:], raw[:32])
		copy(b48.Second[:], raw[32:])
		if b48.IsZero() {
			continue
		}
		out = append(out, nitroverifier.Pcr{Index: idx, Value: b48})
	}
	return out
}

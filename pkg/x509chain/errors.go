// Copyright 2025 Certen Protocol

package x509chain

import "github.com/certen/nitro-attestation-zk/pkg/nitroverifier"

// Re-exported so callers that only import x509chain don't also need to
// import nitroverifier for error-kind checks; these are the same sentinel
// values used across the pipeline.
var (
	ErrCertParseError       = nitroverifier.ErrCertParseError
	ErrUnsupportedAlgorithm = nitroverifier.ErrUnsupportedAlgorithm
)

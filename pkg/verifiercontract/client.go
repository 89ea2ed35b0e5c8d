// Copyright 2025 Certen Protocol
//
// Package verifiercontract is a typed, read-only client over the
// on-chain INitroEnclaveVerifier interface: certificate-cache lookups,
// the per-backend zk program configuration, the report staleness
// bound, and the verify/batchVerify view calls the prover uses to
// confirm a generated proof is accepted on-chain before it is ever
// submitted in a real transaction.
package verifiercontract

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/certen/nitro-attestation-zk/pkg/nitroverifier"
)

// Client is a read-only binding to a deployed INitroEnclaveVerifier
// contract.
type Client struct {
	address common.Address
	bound   *bind.BoundContract
	raw     *ethclient.Client
}

// Dial connects to an Ethereum JSON-RPC endpoint and binds it to the
// verifier contract at address.
func Dial(ctx context.Context, rpcURL string, address common.Address) (*Client, error) {
	raw, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("verifiercontract: dial %s: %w", rpcURL, err)
	}
	return &Client{
		address: address,
		bound:   bind.NewBoundContract(address, verifierABI, raw, nil, nil),
		raw:     raw,
	}, nil
}

// Address returns the bound contract address.
func (c *Client) Address() common.Address {
	return c.address
}

func (c *Client) call(ctx context.Context, method string, params ...interface{}) ([]interface{}, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx}
	if err := c.bound.Call(opts, &out, method, params...); err != nil {
		return nil, fmt.Errorf("verifiercontract: call %s: %w", method, err)
	}
	return out, nil
}

// RootCert returns the configured AWS Nitro root certificate digest.
func (c *Client) RootCert(ctx context.Context) ([32]byte, error) {
	out, err := c.call(ctx, "rootCert")
	if err != nil {
		return [32]byte{}, err
	}
	root, ok := out[0].([32]byte)
	if !ok {
		return [32]byte{}, fmt.Errorf("verifiercontract: rootCert: unexpected return type %T", out[0])
	}
	return root, nil
}

// TrustedIntermediateCerts performs a single-cert cache lookup.
func (c *Client) TrustedIntermediateCerts(ctx context.Context, certDigest [32]byte) (bool, error) {
	out, err := c.call(ctx, "trustedIntermediateCerts", certDigest)
	if err != nil {
		return false, err
	}
	trusted, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("verifiercontract: trustedIntermediateCerts: unexpected return type %T", out[0])
	}
	return trusted, nil
}

// CheckTrustedIntermediateCerts pre-validates each report's certificate
// chain client-side (non-empty, at most 8 certs, position 0 matching
// the configured root) before spending a round trip on a batched
// cache lookup, then returns one trusted-prefix length per report.
func (c *Client) CheckTrustedIntermediateCerts(ctx context.Context, certDigests [][][32]byte) ([]uint8, error) {
	if len(certDigests) == 0 {
		return nil, nil
	}

	root, err := c.RootCert(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateCertDigests(certDigests, root); err != nil {
		return nil, err
	}

	out, err := c.call(ctx, "checkTrustedIntermediateCerts", certDigests)
	if err != nil {
		return nil, err
	}
	raw, ok := out[0].([][1]byte)
	if !ok {
		return nil, fmt.Errorf("verifiercontract: checkTrustedIntermediateCerts: unexpected return type %T", out[0])
	}
	lengths := make([]uint8, len(raw))
	for i, b := range raw {
		lengths[i] = b[0]
	}
	return lengths, nil
}

// validateCertDigests is the client-side pre-validation CheckTrustedIntermediateCerts
// applies before spending a round trip on a call the contract would
// reject anyway: every chain must be non-empty, at most 8 certs long,
// and rooted at the contract's configured root digest.
func validateCertDigests(certDigests [][][32]byte, root [32]byte) error {
	for i, chain := range certDigests {
		if len(chain) == 0 {
			return &nitroverifier.ContractInvariantError{Reason: fmt.Sprintf("report %d has an empty certificate chain", i)}
		}
		if len(chain) > 8 {
			return &nitroverifier.ContractInvariantError{Reason: fmt.Sprintf("report %d has %d certs, maximum is 8", i, len(chain))}
		}
		if chain[0] != root {
			return &nitroverifier.ContractInvariantError{Reason: fmt.Sprintf("report %d's root digest does not match the contract's rootCert", i)}
		}
	}
	return nil
}

// ZkConfig fetches the contract's registered program identifiers for a
// given zkVM backend.
func (c *Client) ZkConfig(ctx context.Context, zkType nitroverifier.ZkCoProcessorType) (nitroverifier.ProgramID, error) {
	out, err := c.call(ctx, "zkConfig", uint8(zkType))
	if err != nil {
		return nitroverifier.ProgramID{}, err
	}
	return decodeProgramIDTuple(out[0])
}

// MaxTimeDiff returns the contract's allowed staleness window, in
// seconds, between an attestation document's timestamp and now.
func (c *Client) MaxTimeDiff(ctx context.Context) (uint64, error) {
	out, err := c.call(ctx, "maxTimeDiff")
	if err != nil {
		return 0, err
	}
	diff, ok := out[0].(uint64)
	if !ok {
		return 0, fmt.Errorf("verifiercontract: maxTimeDiff: unexpected return type %T", out[0])
	}
	return diff, nil
}

// Verify decodes and checks a single verifier proof, as a view call.
func (c *Client) Verify(ctx context.Context, zk nitroverifier.ZkCoProcessorType, proofBytes []byte, output []byte) (nitroverifier.VerifierJournal, error) {
	out, err := c.call(ctx, "verify", output, uint8(zk), proofBytes)
	if err != nil {
		return nitroverifier.VerifierJournal{}, err
	}
	return decodeVerifierJournalTuple(out[0])
}

// BatchVerify decodes and checks an aggregator proof, returning the
// per-report journals it attests to.
func (c *Client) BatchVerify(ctx context.Context, zk nitroverifier.ZkCoProcessorType, proofBytes []byte, output []byte) ([]nitroverifier.VerifierJournal, error) {
	out, err := c.call(ctx, "batchVerify", output, uint8(zk), proofBytes)
	if err != nil {
		return nil, err
	}
	return decodeVerifierJournalSlice(out[0])
}

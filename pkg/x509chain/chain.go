// Copyright 2025 Certen Protocol

package x509chain

import (
	"crypto/sha256"
	"fmt"

	"github.com/certen/nitro-attestation-zk/pkg/nitroverifier"
)

// CertChain is an ordered root-to-leaf certificate chain plus the
// inductive path digest computed alongside it.
type CertChain struct {
	Certs      []*Cert
	PathDigest [][32]byte
}

// NewCertChain parses each DER entry in order (root first, leaf last) and
// builds the path digest as it goes.
func NewCertChain(ders [][]byte) (*CertChain, error) {
	c := &CertChain{}
	for _, der := range ders {
		if err := c.addCertByDER(der); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// NewCertChainRev is NewCertChain for DER entries given leaf-first: it
// reverses the input before parsing so the resulting chain is still
// root-to-leaf. (A Nitro attestation document's cabundle is already
// root-first and goes through NewCertChain.)
func NewCertChainRev(dersLeafFirst [][]byte) (*CertChain, error) {
	reversed := make([][]byte, len(dersLeafFirst))
	for i, d := range dersLeafFirst {
		reversed[len(dersLeafFirst)-1-i] = d
	}
	return NewCertChain(reversed)
}

func (c *CertChain) addCertByDER(der []byte) error {
	cert, err := ParseDER(der)
	if err != nil {
		return err
	}
	digest := cert.Digest()
	if len(c.PathDigest) > 0 {
		parent := c.PathDigest[len(c.PathDigest)-1]
		digest = sha256.Sum256(append(append([]byte(nil), parent[:]...), digest[:]...))
	}
	c.Certs = append(c.Certs, cert)
	c.PathDigest = append(c.PathDigest, digest)
	return nil
}

// Leaf returns the last certificate in the chain.
func (c *CertChain) Leaf() *Cert {
	return c.Certs[len(c.Certs)-1]
}

// Root returns the first certificate in the chain.
func (c *CertChain) Root() *Cert {
	return c.Certs[0]
}

// CheckValid requires the chain to be non-empty and every certificate in
// it to be valid at unixSecs.
func (c *CertChain) CheckValid(unixSecs int64) error {
	if len(c.Certs) == 0 {
		return fmt.Errorf("x509chain: cert chain is empty")
	}
	for idx, cert := range c.Certs {
		if err := cert.CheckValid(unixSecs); err != nil {
			return fmt.Errorf("x509chain: cert [%d/%d] not valid: %w", idx+1, len(c.Certs), err)
		}
	}
	return nil
}

// VerifyChain verifies certs[trustedPrefixLen:] against their issuers,
// treating certs[0] as self-signed when trustedPrefixLen is 0. It returns
// false (not an error) on a signature mismatch; errors are reserved for
// malformed input.
func (c *CertChain) VerifyChain(trustedPrefixLen int) (bool, error) {
	if trustedPrefixLen > len(c.Certs) {
		return false, fmt.Errorf("x509chain: trusted certs length %d greater than chain length %d", trustedPrefixLen, len(c.Certs))
	}
	for i := trustedPrefixLen; i < len(c.Certs); i++ {
		subject := c.Certs[i]
		var issuer *Cert
		if i != 0 {
			issuer = c.Certs[i-1]
		}
		ok, err := subject.Verify(issuer)
		if err != nil {
			return false, fmt.Errorf("x509chain: verify cert sig failed at %d: %w", i, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// ChainVerificationFailed builds the shared ChainVerificationFailedError
// for index i, for callers that need to surface a guest-style error once
// VerifyChain returns false.
func ChainVerificationFailed(i int) error {
	return &nitroverifier.ChainVerificationFailedError{Index: i}
}

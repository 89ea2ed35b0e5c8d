// Copyright 2025 Certen Protocol
//
// Dev-mode proof backend: a tiny MiMC-binding circuit that lets
// RiscZeroProgram.GenProof produce and later verify a real Groth16 proof
// without a network call to Bonsai. It binds the journal bytes' digest
// as a public input so round-trip tests exercise the same proof/verify
// machinery pkg/crypto/bls_zkp uses for its circuits, just over a
// trivial statement.
package zkprogram

import (
	"bytes"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	bn254fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	gnarkmimc "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/std/hash/mimc"
)

type devCircuit struct {
	Preimage frontend.Variable
	Hash     frontend.Variable `gnark:",public"`
}

func (c *devCircuit) Define(api frontend.API) error {
	hasher, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	hasher.Write(c.Preimage)
	api.AssertIsEqual(c.Hash, hasher.Sum())
	return nil
}

// CompileDevCircuit compiles the dev-mode circuit and runs its Groth16
// trusted setup, returning keys a RiscZeroProgram can use in dev mode.
// Intended for tests and local development only; production programs
// carry real guest-image verifying keys instead.
func CompileDevCircuit() (groth16.ProvingKey, groth16.VerifyingKey, error) {
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &devCircuit{})
	if err != nil {
		return nil, nil, fmt.Errorf("zkprogram: compile dev circuit: %w", err)
	}
	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return nil, nil, fmt.Errorf("zkprogram: dev circuit setup: %w", err)
	}
	return pk, vk, nil
}

// devFieldDigest reduces arbitrary bytes into the BN254 scalar field by
// MiMC-hashing them natively, matching the circuit's gadget.
func devFieldDigest(data []byte) *bn254fr.Element {
	h := gnarkmimc.NewMiMC()
	h.Write(data)
	sum := h.Sum(nil)
	var e bn254fr.Element
	e.SetBytes(sum)
	return &e
}

// proveDevJournal proves knowledge of the journal's MiMC field digest
// (the circuit's preimage) committing to that digest's own MiMC hash as
// the public input, and returns the serialized Groth16 proof alongside
// that public hash.
func proveDevJournal(pk groth16.ProvingKey, journal []byte) (proofBytes []byte, publicDigest []byte, err error) {
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &devCircuit{})
	if err != nil {
		return nil, nil, fmt.Errorf("zkprogram: compile dev circuit: %w", err)
	}

	preimage := devFieldDigest(journal)
	hasher := gnarkmimc.NewMiMC()
	preimageBytes := preimage.Bytes()
	hasher.Write(preimageBytes[:])
	digest := hasher.Sum(nil)
	var digestElem bn254fr.Element
	digestElem.SetBytes(digest)

	assignment := &devCircuit{Preimage: preimage, Hash: &digestElem}
	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, nil, fmt.Errorf("zkprogram: build dev witness: %w", err)
	}

	proof, err := groth16.Prove(cs, pk, witness)
	if err != nil {
		return nil, nil, fmt.Errorf("zkprogram: dev groth16 prove: %w", err)
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, nil, fmt.Errorf("zkprogram: serialize dev proof: %w", err)
	}
	return buf.Bytes(), digest, nil
}

// verifyDevJournal is the inverse of proveDevJournal, used by tests to
// confirm the dev-mode proof pipeline round-trips.
func verifyDevJournal(vk groth16.VerifyingKey, proofBytes []byte, journal []byte) error {
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		return fmt.Errorf("zkprogram: deserialize dev proof: %w", err)
	}

	preimage := devFieldDigest(journal)
	hasher := gnarkmimc.NewMiMC()
	preimageBytes := preimage.Bytes()
	hasher.Write(preimageBytes[:])
	digest := hasher.Sum(nil)
	var digestElem bn254fr.Element
	digestElem.SetBytes(digest)

	publicAssignment := &devCircuit{Hash: &digestElem}
	publicWitness, err := frontend.NewWitness(publicAssignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("zkprogram: build dev public witness: %w", err)
	}

	if err := groth16.Verify(proof, vk, publicWitness); err != nil {
		return fmt.Errorf("zkprogram: dev groth16 verify: %w", err)
	}
	return nil
}

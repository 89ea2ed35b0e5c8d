// Copyright 2025 Certen Protocol

package verifiercontract

import (
	"fmt"
	"reflect"

	"github.com/certen/nitro-attestation-zk/pkg/nitroverifier"
)

// decodeProgramIDTuple reads go-ethereum's anonymous reflect.StructOf
// value for the zkConfig tuple back into a ProgramID, the same pattern
// pkg/nitroverifier/abi.go uses for nested ABI tuples.
func decodeProgramIDTuple(v interface{}) (nitroverifier.ProgramID, error) {
	rv := reflect.ValueOf(v)
	verifierID := rv.FieldByName("VerifierId")
	verifierProofID := rv.FieldByName("VerifierProofId")
	aggregatorID := rv.FieldByName("AggregatorId")
	if !verifierID.IsValid() || !verifierProofID.IsValid() || !aggregatorID.IsValid() {
		return nitroverifier.ProgramID{}, fmt.Errorf("verifiercontract: malformed zkConfig tuple")
	}
	vID, ok := verifierID.Interface().([32]byte)
	if !ok {
		return nitroverifier.ProgramID{}, fmt.Errorf("verifiercontract: zkConfig: bad verifierId type %T", verifierID.Interface())
	}
	vpID, ok := verifierProofID.Interface().([32]byte)
	if !ok {
		return nitroverifier.ProgramID{}, fmt.Errorf("verifiercontract: zkConfig: bad verifierProofId type %T", verifierProofID.Interface())
	}
	aID, ok := aggregatorID.Interface().([32]byte)
	if !ok {
		return nitroverifier.ProgramID{}, fmt.Errorf("verifiercontract: zkConfig: bad aggregatorId type %T", aggregatorID.Interface())
	}
	return nitroverifier.ProgramID{VerifierID: vID, VerifierProofID: vpID, AggregatorID: aID}, nil
}

// decodeVerifierJournalTuple reads one ABI-decoded VerifierJournal
// tuple as returned directly from a contract call (as opposed to
// pkg/nitroverifier's byte-level ABI decode, which decodes from a
// packed []byte rather than a go-ethereum Unpack result).
func decodeVerifierJournalTuple(v interface{}) (nitroverifier.VerifierJournal, error) {
	rv := reflect.ValueOf(v)
	fields := []string{"Result", "Certs", "TrustedCertsPrefixLen", "UserData", "Nonce", "PublicKey", "Pcrs", "ModuleId", "Timestamp"}
	for _, name := range fields {
		if !rv.FieldByName(name).IsValid() {
			return nitroverifier.VerifierJournal{}, fmt.Errorf("verifiercontract: malformed journal tuple: missing field %q", name)
		}
	}

	result, ok := rv.FieldByName("Result").Interface().(uint8)
	if !ok {
		return nitroverifier.VerifierJournal{}, fmt.Errorf("verifiercontract: bad result type %T", rv.FieldByName("Result").Interface())
	}
	certs, ok := rv.FieldByName("Certs").Interface().([][32]byte)
	if !ok {
		return nitroverifier.VerifierJournal{}, fmt.Errorf("verifiercontract: bad certs type %T", rv.FieldByName("Certs").Interface())
	}
	prefixLen, ok := rv.FieldByName("TrustedCertsPrefixLen").Interface().(uint8)
	if !ok {
		return nitroverifier.VerifierJournal{}, fmt.Errorf("verifiercontract: bad trustedCertsPrefixLen type %T", rv.FieldByName("TrustedCertsPrefixLen").Interface())
	}
	userData, ok := rv.FieldByName("UserData").Interface().([]byte)
	if !ok {
		return nitroverifier.VerifierJournal{}, fmt.Errorf("verifiercontract: bad userData type %T", rv.FieldByName("UserData").Interface())
	}
	nonce, ok := rv.FieldByName("Nonce").Interface().([]byte)
	if !ok {
		return nitroverifier.VerifierJournal{}, fmt.Errorf("verifiercontract: bad nonce type %T", rv.FieldByName("Nonce").Interface())
	}
	publicKey, ok := rv.FieldByName("PublicKey").Interface().([]byte)
	if !ok {
		return nitroverifier.VerifierJournal{}, fmt.Errorf("verifiercontract: bad publicKey type %T", rv.FieldByName("PublicKey").Interface())
	}
	pcrs, err := decodePcrsField(rv.FieldByName("Pcrs"))
	if err != nil {
		return nitroverifier.VerifierJournal{}, err
	}
	moduleID, ok := rv.FieldByName("ModuleId").Interface().(string)
	if !ok {
		return nitroverifier.VerifierJournal{}, fmt.Errorf("verifiercontract: bad moduleId type %T", rv.FieldByName("ModuleId").Interface())
	}
	timestamp, ok := rv.FieldByName("Timestamp").Interface().(uint64)
	if !ok {
		return nitroverifier.VerifierJournal{}, fmt.Errorf("verifiercontract: bad timestamp type %T", rv.FieldByName("Timestamp").Interface())
	}

	return nitroverifier.VerifierJournal{
		Result:                nitroverifier.VerificationResult(result),
		Certs:                 certs,
		TrustedCertsPrefixLen: prefixLen,
		UserData:              userData,
		Nonce:                 nonce,
		PublicKey:             publicKey,
		Pcrs:                  pcrs,
		ModuleID:              moduleID,
		Timestamp:             timestamp,
	}, nil
}

func decodePcrsField(rv reflect.Value) ([]nitroverifier.Pcr, error) {
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("verifiercontract: unexpected pcrs type %v", rv.Kind())
	}
	out := make([]nitroverifier.Pcr, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i)
		idxField := elem.FieldByName("Index")
		valField := elem.FieldByName("Value")
		if !idxField.IsValid() || !valField.IsValid() {
			return nil, fmt.Errorf("verifiercontract: malformed pcr tuple")
		}
		idx, ok := idxField.Interface().(uint64)
		if !ok {
			return nil, fmt.Errorf("verifiercontract: bad pcr index type %T", idxField.Interface())
		}
		first := valField.FieldByName("First")
		second := valField.FieldByName("Second")
		if !first.IsValid() || !second.IsValid() {
			return nil, fmt.Errorf("verifiercontract: malformed pcr value tuple")
		}
		firstBytes, ok := first.Interface().([32]byte)
		if !ok {
			return nil, fmt.Errorf("verifiercontract: bad pcr value.first type %T", first.Interface())
		}
		secondBytes, ok := second.Interface().([16]byte)
		if !ok {
			return nil, fmt.Errorf("verifiercontract: bad pcr value.second type %T", second.Interface())
		}
		out[i] = nitroverifier.Pcr{Index: idx, Value: nitroverifier.Bytes48{First: firstBytes, Second: secondBytes}}
	}
	return out, nil
}

func decodeVerifierJournalSlice(v interface{}) ([]nitroverifier.VerifierJournal, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("verifiercontract: unexpected journal slice type %v", rv.Kind())
	}
	out := make([]nitroverifier.VerifierJournal, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		journal, err := decodeVerifierJournalTuple(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("verifiercontract: journal[%d]: %w", i, err)
		}
		out[i] = journal
	}
	return out, nil
}

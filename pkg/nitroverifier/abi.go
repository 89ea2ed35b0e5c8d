// Copyright 2025 Certen Protocol

package nitroverifier

import (
	"fmt"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// mustABIType builds an abi.Type from its Solidity-style name and (for
// tuples) component list. Panics on error: these type definitions are
// static and any failure here is a programming error, never a runtime one.
func mustABIType(kind string, components []abi.ArgumentMarshaling) abi.Type {
	t, err := abi.NewType(kind, "", components)
	if err != nil {
		panic(fmt.Sprintf("nitroverifier: invalid abi type %q: %v", kind, err))
	}
	return t
}

var bytes48Components = []abi.ArgumentMarshaling{
	{Name: "first", Type: "bytes32"},
	{Name: "second", Type: "bytes16"},
}

var pcrComponents = []abi.ArgumentMarshaling{
	{Name: "index", Type: "uint64"},
	{Name: "value", Type: "tuple", Components: bytes48Components},
}

var verifierJournalComponents = []abi.ArgumentMarshaling{
	{Name: "result", Type: "uint8"},
	{Name: "certs", Type: "bytes32[]"},
	{Name: "trustedCertsPrefixLen", Type: "uint8"},
	{Name: "userData", Type: "bytes"},
	{Name: "nonce", Type: "bytes"},
	{Name: "publicKey", Type: "bytes"},
	{Name: "pcrs", Type: "tuple[]", Components: pcrComponents},
	{Name: "moduleId", Type: "string"},
	{Name: "timestamp", Type: "uint64"},
}

var verifierInputArguments = abi.Arguments{
	{Name: "trustedCertsPrefixLen", Type: mustABIType("uint8", nil)},
	{Name: "attestationReport", Type: mustABIType("bytes", nil)},
}

var verifierJournalArguments = abi.Arguments{
	{Name: "result", Type: mustABIType("uint8", nil)},
	{Name: "certs", Type: mustABIType("bytes32[]", nil)},
	{Name: "trustedCertsPrefixLen", Type: mustABIType("uint8", nil)},
	{Name: "userData", Type: mustABIType("bytes", nil)},
	{Name: "nonce", Type: mustABIType("bytes", nil)},
	{Name: "publicKey", Type: mustABIType("bytes", nil)},
	{Name: "pcrs", Type: mustABIType("tuple[]", pcrComponents)},
	{Name: "moduleId", Type: mustABIType("string", nil)},
	{Name: "timestamp", Type: mustABIType("uint64", nil)},
}

var batchVerifierArguments = abi.Arguments{
	{Name: "verifierVk", Type: mustABIType("bytes32", nil)},
	{Name: "outputs", Type: mustABIType("tuple[]", verifierJournalComponents)},
}

// EncodeVerifierInput ABI-encodes a VerifierInput exactly as the guest
// program and the contract expect it.
func EncodeVerifierInput(in VerifierInput) ([]byte, error) {
	return verifierInputArguments.Pack(in.TrustedCertsPrefixLen, in.AttestationReport)
}

// DecodeVerifierInput is the inverse of EncodeVerifierInput.
func DecodeVerifierInput(data []byte) (VerifierInput, error) {
	values, err := verifierInputArguments.Unpack(data)
	if err != nil {
		return VerifierInput{}, fmt.Errorf("nitroverifier: decode VerifierInput: %w", err)
	}
	if len(values) != 2 {
		return VerifierInput{}, fmt.Errorf("nitroverifier: decode VerifierInput: expected 2 values, got %d", len(values))
	}
	prefixLen, ok := values[0].(uint8)
	if !ok {
		return VerifierInput{}, fmt.Errorf("nitroverifier: decode VerifierInput: bad trustedCertsPrefixLen type %T", values[0])
	}
	report, ok := values[1].([]byte)
	if !ok {
		return VerifierInput{}, fmt.Errorf("nitroverifier: decode VerifierInput: bad attestationReport type %T", values[1])
	}
	return VerifierInput{TrustedCertsPrefixLen: prefixLen, AttestationReport: report}, nil
}

// EncodeVerifierJournal ABI-encodes a VerifierJournal.
func EncodeVerifierJournal(j VerifierJournal) ([]byte, error) {
	return verifierJournalArguments.Pack(
		uint8(j.Result),
		j.Certs,
		j.TrustedCertsPrefixLen,
		j.UserData,
		j.Nonce,
		j.PublicKey,
		j.Pcrs,
		j.ModuleID,
		j.Timestamp,
	)
}

// DecodeVerifierJournal is the inverse of EncodeVerifierJournal.
func DecodeVerifierJournal(data []byte) (VerifierJournal, error) {
	values, err := verifierJournalArguments.Unpack(data)
	if err != nil {
		return VerifierJournal{}, fmt.Errorf("nitroverifier: decode VerifierJournal: %w", err)
	}
	return decodeJournalValues(values)
}

func decodeJournalValues(values []interface{}) (VerifierJournal, error) {
	if len(values) != 9 {
		return VerifierJournal{}, fmt.Errorf("nitroverifier: decode VerifierJournal: expected 9 values, got %d", len(values))
	}
	result, ok := values[0].(uint8)
	if !ok {
		return VerifierJournal{}, fmt.Errorf("nitroverifier: decode VerifierJournal: bad result type %T", values[0])
	}
	certs, ok := values[1].([][32]byte)
	if !ok {
		return VerifierJournal{}, fmt.Errorf("nitroverifier: decode VerifierJournal: bad certs type %T", values[1])
	}
	prefixLen, ok := values[2].(uint8)
	if !ok {
		return VerifierJournal{}, fmt.Errorf("nitroverifier: decode VerifierJournal: bad trustedCertsPrefixLen type %T", values[2])
	}
	userData, ok := values[3].([]byte)
	if !ok {
		return VerifierJournal{}, fmt.Errorf("nitroverifier: decode VerifierJournal: bad userData type %T", values[3])
	}
	nonce, ok := values[4].([]byte)
	if !ok {
		return VerifierJournal{}, fmt.Errorf("nitroverifier: decode VerifierJournal: bad nonce type %T", values[4])
	}
	publicKey, ok := values[5].([]byte)
	if !ok {
		return VerifierJournal{}, fmt.Errorf("nitroverifier: decode VerifierJournal: bad publicKey type %T", values[5])
	}
	pcrs, err := decodePcrSlice(values[6])
	if err != nil {
		return VerifierJournal{}, fmt.Errorf("nitroverifier: decode VerifierJournal: %w", err)
	}
	moduleID, ok := values[7].(string)
	if !ok {
		return VerifierJournal{}, fmt.Errorf("nitroverifier: decode VerifierJournal: bad moduleId type %T", values[7])
	}
	timestamp, ok := values[8].(uint64)
	if !ok {
		return VerifierJournal{}, fmt.Errorf("nitroverifier: decode VerifierJournal: bad timestamp type %T", values[8])
	}
	return VerifierJournal{
		Result:                VerificationResult(result),
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

// decodePcrSlice converts the dynamically-typed tuple[] go-ethereum hands
// back from Unpack into our own []Pcr. The abi package builds an anonymous
// struct type per call (via reflect.StructOf) for each distinct tuple shape,
// so we walk it by field name rather than asserting a concrete Go type.
func decodePcrSlice(v interface{}) ([]Pcr, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("unexpected pcrs decode type %T", v)
	}
	out := make([]Pcr, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		pcr, err := decodePcrElem(rv.Index(i))
		if err != nil {
			return nil, fmt.Errorf("pcr[%d]: %w", i, err)
		}
		out[i] = pcr
	}
	return out, nil
}

func decodePcrElem(elem reflect.Value) (Pcr, error) {
	idxField := elem.FieldByName("Index")
	valField := elem.FieldByName("Value")
	if !idxField.IsValid() || !valField.IsValid() {
		return Pcr{}, fmt.Errorf("malformed pcr tuple")
	}
	idx, ok := idxField.Interface().(uint64)
	if !ok {
		return Pcr{}, fmt.Errorf("bad pcr index type %T", idxField.Interface())
	}
	bytes48, err := decodeBytes48Elem(valField)
	if err != nil {
		return Pcr{}, err
	}
	return Pcr{Index: idx, Value: bytes48}, nil
}

func decodeBytes48Elem(elem reflect.Value) (Bytes48, error) {
	firstField := elem.FieldByName("First")
	secondField := elem.FieldByName("Second")
	if !firstField.IsValid() || !secondField.IsValid() {
		return Bytes48{}, fmt.Errorf("malformed bytes48 tuple")
	}
	first, ok := firstField.Interface().([32]byte)
	if !ok {
		return Bytes48{}, fmt.Errorf("bad bytes48 first type %T", firstField.Interface())
	}
	second, ok := secondField.Interface().([16]byte)
	if !ok {
		return Bytes48{}, fmt.Errorf("bad bytes48 second type %T", secondField.Interface())
	}
	return Bytes48{First: first, Second: second}, nil
}

// decodeJournalElem reads one VerifierJournal back out of an Outputs[i]
// element of a decoded BatchVerifierInput/BatchVerifierJournal tuple.
func decodeJournalElem(elem reflect.Value) (VerifierJournal, error) {
	fields := []string{"Result", "Certs", "TrustedCertsPrefixLen", "UserData", "Nonce", "PublicKey", "Pcrs", "ModuleId", "Timestamp"}
	values := make([]interface{}, len(fields))
	for i, name := range fields {
		f := elem.FieldByName(name)
		if !f.IsValid() {
			return VerifierJournal{}, fmt.Errorf("malformed verifier journal tuple: missing field %q", name)
		}
		values[i] = f.Interface()
	}
	return decodeJournalValues(values)
}

func decodeOutputsSlice(v interface{}) ([]VerifierJournal, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("unexpected outputs decode type %T", v)
	}
	out := make([]VerifierJournal, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		journal, err := decodeJournalElem(rv.Index(i))
		if err != nil {
			return nil, fmt.Errorf("outputs[%d]: %w", i, err)
		}
		out[i] = journal
	}
	return out, nil
}

// EncodeBatchVerifierInput ABI-encodes a BatchVerifierInput.
func EncodeBatchVerifierInput(in BatchVerifierInput) ([]byte, error) {
	return batchVerifierArguments.Pack(in.VerifierVk, in.Outputs)
}

// DecodeBatchVerifierInput is the inverse of EncodeBatchVerifierInput.
func DecodeBatchVerifierInput(data []byte) (BatchVerifierInput, error) {
	values, err := batchVerifierArguments.Unpack(data)
	if err != nil {
		return BatchVerifierInput{}, fmt.Errorf("nitroverifier: decode BatchVerifierInput: %w", err)
	}
	if len(values) != 2 {
		return BatchVerifierInput{}, fmt.Errorf("nitroverifier: decode BatchVerifierInput: expected 2 values, got %d", len(values))
	}
	vk, ok := values[0].([32]byte)
	if !ok {
		return BatchVerifierInput{}, fmt.Errorf("nitroverifier: decode BatchVerifierInput: bad verifierVk type %T", values[0])
	}
	outputs, err := decodeOutputsSlice(values[1])
	if err != nil {
		return BatchVerifierInput{}, fmt.Errorf("nitroverifier: decode BatchVerifierInput: %w", err)
	}
	return BatchVerifierInput{VerifierVk: vk, Outputs: outputs}, nil
}

// EncodeBatchVerifierJournal ABI-encodes a BatchVerifierJournal. Shape is
// identical to BatchVerifierInput; kept as a distinct Go type because the
// two mean different things (request vs. committed output).
func EncodeBatchVerifierJournal(j BatchVerifierJournal) ([]byte, error) {
	return batchVerifierArguments.Pack(j.VerifierVk, j.Outputs)
}

// DecodeBatchVerifierJournal is the inverse of EncodeBatchVerifierJournal.
func DecodeBatchVerifierJournal(data []byte) (BatchVerifierJournal, error) {
	in, err := DecodeBatchVerifierInput(data)
	if err != nil {
		return BatchVerifierJournal{}, err
	}
	return BatchVerifierJournal{VerifierVk: in.VerifierVk, Outputs: in.Outputs}, nil
}

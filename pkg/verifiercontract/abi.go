// Copyright 2025 Certen Protocol

package verifiercontract

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// verifierABI declares only the subset of INitroEnclaveVerifier this
// client needs, the same "hand-write the minimal ABI" idiom as the
// teacher's BLS proof contract client.
var verifierABI = mustParseABI(`[
	{
		"name": "rootCert",
		"type": "function",
		"stateMutability": "view",
		"inputs": [],
		"outputs": [{"name": "", "type": "bytes32"}]
	},
	{
		"name": "trustedIntermediateCerts",
		"type": "function",
		"stateMutability": "view",
		"inputs": [{"name": "", "type": "bytes32"}],
		"outputs": [{"name": "", "type": "bool"}]
	},
	{
		"name": "checkTrustedIntermediateCerts",
		"type": "function",
		"stateMutability": "view",
		"inputs": [{"name": "reportCerts", "type": "bytes32[][]"}],
		"outputs": [{"name": "", "type": "bytes1[]"}]
	},
	{
		"name": "zkConfig",
		"type": "function",
		"stateMutability": "view",
		"inputs": [{"name": "zkType", "type": "uint8"}],
		"outputs": [{
			"name": "",
			"type": "tuple",
			"components": [
				{"name": "verifierId", "type": "bytes32"},
				{"name": "verifierProofId", "type": "bytes32"},
				{"name": "aggregatorId", "type": "bytes32"}
			]
		}]
	},
	{
		"name": "maxTimeDiff",
		"type": "function",
		"stateMutability": "view",
		"inputs": [],
		"outputs": [{"name": "", "type": "uint64"}]
	},
	{
		"name": "verify",
		"type": "function",
		"stateMutability": "view",
		"inputs": [
			{"name": "output", "type": "bytes"},
			{"name": "zkCoprocessor", "type": "uint8"},
			{"name": "proofBytes", "type": "bytes"}
		],
		"outputs": [{
			"name": "",
			"type": "tuple",
			"components": [
				{"name": "result", "type": "uint8"},
				{"name": "certs", "type": "bytes32[]"},
				{"name": "trustedCertsPrefixLen", "type": "uint8"},
				{"name": "userData", "type": "bytes"},
				{"name": "nonce", "type": "bytes"},
				{"name": "publicKey", "type": "bytes"},
				{"name": "pcrs", "type": "tuple[]", "components": [
					{"name": "index", "type": "uint64"},
					{"name": "value", "type": "tuple", "components": [
						{"name": "first", "type": "bytes32"},
						{"name": "second", "type": "bytes16"}
					]}
				]},
				{"name": "moduleId", "type": "string"},
				{"name": "timestamp", "type": "uint64"}
			]
		}]
	},
	{
		"name": "batchVerify",
		"type": "function",
		"stateMutability": "view",
		"inputs": [
			{"name": "output", "type": "bytes"},
			{"name": "zkCoprocessor", "type": "uint8"},
			{"name": "proofBytes", "type": "bytes"}
		],
		"outputs": [{
			"name": "",
			"type": "tuple[]",
			"components": [
				{"name": "result", "type": "uint8"},
				{"name": "certs", "type": "bytes32[]"},
				{"name": "trustedCertsPrefixLen", "type": "uint8"},
				{"name": "userData", "type": "bytes"},
				{"name": "nonce", "type": "bytes"},
				{"name": "publicKey", "type": "bytes"},
				{"name": "pcrs", "type": "tuple[]", "components": [
					{"name": "index", "type": "uint64"},
					{"name": "value", "type": "tuple", "components": [
						{"name": "first", "type": "bytes32"},
						{"name": "second", "type": "bytes16"}
					]}
				]},
				{"name": "moduleId", "type": "string"},
				{"name": "timestamp", "type": "uint64"}
			]
		}]
	}
]`)

// mustParseABI parses an ABI JSON string, panicking on error: this
// definition is static and any failure here is a programming error.
func mustParseABI(abiJSON string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic("verifiercontract: invalid abi json: " + err.Error())
	}
	return parsed
}

// Package runtime implements the step-driven execution loop and
// system-opcode dispatch layer of an EVM interpreter: it drives a
// runtime/machine.Machine through bytecode, mediates every
// environment-touching opcode through a pluggable Handler, and suspends on
// CALL*/CREATE* so an outer driver can recurse and later resume it with a
// child frame's outcome.
package runtime

import (
	"github.com/ethgo-labs/evmruntime/common"
	"github.com/holiman/uint256"
)

// Context is the immutable identity of one execution frame: the address
// whose code is running, the caller that invoked it, and the value visible
// to CALLVALUE. It never changes for the lifetime of its Runtime.
type Context struct {
	Address       common.Address
	Caller        common.Address
	ApparentValue uint256.Int
}

// CreateSchemeKind discriminates the three ways a new contract's address can
// be derived.
type CreateSchemeKind int

const (
	// CreateLegacy derives the address from caller and nonce (CREATE).
	CreateLegacy CreateSchemeKind = iota
	// CreateWithSalt derives the address from caller, code hash, and salt (CREATE2).
	CreateWithSalt
	// CreateFixed uses a pre-determined address, bypassing derivation.
	CreateFixed
)

// CreateScheme tags which flavor of contract-creation is in progress.
type CreateScheme struct {
	Kind CreateSchemeKind

	Caller   common.Address // CreateLegacy, CreateWithSalt
	CodeHash common.Hash    // CreateWithSalt
	Salt     common.Hash    // CreateWithSalt
	Fixed    common.Address // CreateFixed
}

// LegacyCreate builds a CreateScheme for the CREATE opcode.
func LegacyCreate(caller common.Address) CreateScheme {
	return CreateScheme{Kind: CreateLegacy, Caller: caller}
}

// Create2Scheme builds a CreateScheme for the CREATE2 opcode.
func Create2Scheme(caller common.Address, codeHash, salt common.Hash) CreateScheme {
	return CreateScheme{Kind: CreateWithSalt, Caller: caller, CodeHash: codeHash, Salt: salt}
}

// FixedCreate builds a CreateScheme that bypasses address derivation
// entirely, used by embedders replaying a known deployment.
func FixedCreate(addr common.Address) CreateScheme {
	return CreateScheme{Kind: CreateFixed, Fixed: addr}
}

// CallScheme tags which CALL-family opcode produced a nested execution.
type CallScheme int

const (
	Call CallScheme = iota
	CallCode
	DelegateCall
	StaticCall
)

func (s CallScheme) String() string {
	switch s {
	case Call:
		return "CALL"
	case CallCode:
		return "CALLCODE"
	case DelegateCall:
		return "DELEGATECALL"
	case StaticCall:
		return "STATICCALL"
	default:
		return "UNKNOWN"
	}
}

// Transfer describes a value movement accompanying a CALL/CALLCODE.
type Transfer struct {
	Source common.Address
	Target common.Address
	Value  uint256.Int
}

// Package trace defines the EVM runtime's trace-event stream: a tagged
// union of everything an observer can see happen inside a frame, in both a
// zero-copy borrowed form (the Event type itself — its slice fields
// reference the live runtime's buffers and must not be retained past the
// call that produced them) and an owned, RLP-serializable form (Owned) for
// shipping to an external observer.
package trace

import (
	"github.com/ethgo-labs/evmruntime/common"
	"github.com/holiman/uint256"
)

// Kind discriminates the Event tagged union.
type Kind int

const (
	KindCall Kind = iota
	KindCreate
	KindSuicide
	KindExit
	KindTransactCall
	KindTransactCreate
	KindTransactCreate2
	KindStep
	KindStepResult
	KindSLoad
	KindSStore
	KindTransfer
	KindWithdraw
	KindSetStorage
	KindIncrementNonce
	KindSetCode
	KindSelfDestruct
)

func (k Kind) String() string {
	switch k {
	case KindCall:
		return "Call"
	case KindCreate:
		return "Create"
	case KindSuicide:
		return "Suicide"
	case KindExit:
		return "Exit"
	case KindTransactCall:
		return "TransactCall"
	case KindTransactCreate:
		return "TransactCreate"
	case KindTransactCreate2:
		return "TransactCreate2"
	case KindStep:
		return "Step"
	case KindStepResult:
		return "StepResult"
	case KindSLoad:
		return "SLoad"
	case KindSStore:
		return "SStore"
	case KindTransfer:
		return "Transfer"
	case KindWithdraw:
		return "Withdraw"
	case KindSetStorage:
		return "SetStorage"
	case KindIncrementNonce:
		return "IncrementNonce"
	case KindSetCode:
		return "SetCode"
	case KindSelfDestruct:
		return "SelfDestruct"
	default:
		return "Unknown"
	}
}

// ContextInfo mirrors runtime.Context without importing the runtime
// package, which would otherwise create an import cycle (runtime imports
// trace to emit events).
type ContextInfo struct {
	Address       common.Address
	Caller        common.Address
	ApparentValue uint256.Int
}

// TransferInfo mirrors runtime.Transfer.
type TransferInfo struct {
	Source common.Address
	Target common.Address
	Value  uint256.Int
}

// CreateSchemeKind mirrors runtime.CreateSchemeKind.
type CreateSchemeKind int

const (
	CreateLegacy CreateSchemeKind = iota
	CreateWithSalt
	CreateFixed
)

// CreateSchemeInfo mirrors runtime.CreateScheme.
type CreateSchemeInfo struct {
	Kind     CreateSchemeKind
	Caller   common.Address
	CodeHash common.Hash
	Salt     common.Hash
	Fixed    common.Address
}

// ExitKind discriminates the ExitInfo tagged union, mirroring
// runtime.ExitReason's five shapes.
type ExitKind int

const (
	ExitSucceed ExitKind = iota
	ExitRevert
	ExitError
	ExitFatal
	ExitStepLimitReached
)

// ExitInfo mirrors runtime.ExitReason in a form trace can serialize without
// importing runtime. SucceedKind is only meaningful when Kind ==
// ExitSucceed (0=Stopped, 1=Returned, 2=Suicided); Message carries the
// error text for ExitError/ExitFatal/ExitRevert.
type ExitInfo struct {
	Kind        ExitKind
	SucceedKind int
	Message     string
}

// CaptureKind discriminates CaptureInfo.
type CaptureKind int

const (
	CaptureExit CaptureKind = iota
	CaptureTrap
)

// TrapKind discriminates which opcode family produced a Trap.
type TrapKind int

const (
	TrapCall TrapKind = iota
	TrapCreate
)

// CaptureInfo mirrors runtime.Capture.
type CaptureInfo struct {
	Kind     CaptureKind
	Exit     ExitInfo
	TrapKind TrapKind
}

// PositionKind discriminates whether a Step's position is a valid program
// counter or the terminal ExitReason that prevented one from existing.
type PositionKind int

const (
	PositionOK PositionKind = iota
	PositionErr
)

// PositionInfo mirrors the Rust `Result<usize, ExitReason>` position field.
type PositionInfo struct {
	Kind   PositionKind
	PC     uint64
	Reason ExitInfo
}

// StepResultInfo mirrors the Rust `Result<(), Capture<ExitReason, Trap>>`
// result field of a StepResult event.
type StepResultInfo struct {
	OK      bool
	Capture *CaptureInfo
}

// Event is the borrowed, zero-copy trace event: an observer receives one of
// these at each emission point and must not retain its slice fields past
// the call, since they may alias the runtime's live stack/memory buffers.
type Event struct {
	Kind Kind

	// Call
	CodeAddress common.Address
	Transfer    *TransferInfo
	Input       []byte
	TargetGas   *uint64
	IsStatic    bool
	Context     ContextInfo

	// Create / TransactCreate / TransactCreate2; Address doubles as the
	// subject of Suicide/SLoad/SStore/SetStorage/IncrementNonce/SetCode/
	// SelfDestruct, and Value as Withdraw's amount.
	Caller   common.Address
	Address  common.Address
	Scheme   CreateSchemeInfo
	Value    uint256.Int
	InitCode []byte
	Salt     common.Hash

	// Suicide; Source also serves Transfer and Withdraw
	Target  common.Address
	Balance uint256.Int
	Source  common.Address

	// Exit
	Reason      ExitInfo
	ReturnValue []byte

	// TransactCall / TransactCreate / TransactCreate2
	GasLimit uint256.Int
	Data     []byte

	// Step
	Opcode   byte
	Position PositionInfo
	Stack    []uint256.Int
	Memory   []byte

	// StepResult
	Result StepResultInfo

	// SLoad / SStore / SetStorage
	Key common.Hash

	// SetCode
	Code []byte
}

// ToOwned produces a fully self-contained copy of e, detached from any live
// runtime buffers, suitable for retaining past the emitting call or for
// wire transport via Owned's RLP encoding.
func (e Event) ToOwned() Owned {
	o := Owned{
		Kind:        e.Kind,
		CodeAddress: e.CodeAddress,
		Input:       append([]byte(nil), e.Input...),
		TargetGas:   e.TargetGas,
		IsStatic:    e.IsStatic,
		Context:     e.Context,
		Caller:      e.Caller,
		Address:     e.Address,
		Scheme:      e.Scheme,
		Value:       e.Value,
		InitCode:    append([]byte(nil), e.InitCode...),
		Salt:        e.Salt,
		Target:      e.Target,
		Balance:     e.Balance,
		Source:      e.Source,
		Reason:      e.Reason,
		ReturnValue: append([]byte(nil), e.ReturnValue...),
		GasLimit:    e.GasLimit,
		Data:        append([]byte(nil), e.Data...),
		Opcode:      e.Opcode,
		Position:    e.Position,
		Stack:       append([]uint256.Int(nil), e.Stack...),
		Memory:      append([]byte(nil), e.Memory...),
		Result:      e.Result,
		Key:         e.Key,
		Code:        append([]byte(nil), e.Code...),
	}
	if e.Transfer != nil {
		t := *e.Transfer
		o.Transfer = &t
	}
	return o
}

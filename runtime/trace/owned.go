package trace

import (
	"github.com/ethgo-labs/evmruntime/rlp"
	"github.com/holiman/uint256"
)

// Owned is the serializable counterpart to Event: every slice field is a
// private copy rather than a reference into a live runtime, so it is safe
// to retain, queue, or ship to an external observer. Its fields follow
// Event's order, with addresses held as plain byte arrays; Event.ToOwned
// copies every field across.
type Owned struct {
	Kind Kind

	CodeAddress [20]byte
	Transfer    *TransferInfo
	Input       []byte
	TargetGas   *uint64
	IsStatic    bool
	Context     ContextInfo

	Caller   [20]byte
	Address  [20]byte
	Scheme   CreateSchemeInfo
	Value    uint256.Int
	InitCode []byte
	Salt     [32]byte

	Target  [20]byte
	Balance uint256.Int
	Source  [20]byte

	Reason      ExitInfo
	ReturnValue []byte

	GasLimit uint256.Int
	Data     []byte

	Opcode   byte
	Position PositionInfo
	Stack    []uint256.Int
	Memory   []byte

	Result StepResultInfo

	Key [32]byte

	Code []byte
}

var (
	_ rlp.Encoder = Owned{}
	_ rlp.Decoder = (*Owned)(nil)
)

// EncodeRLP satisfies rlp.Encoder: the length-prefixing spec.md asks for
// falls out of RLP's own string/list encoding rules, so this just wraps
// the generic struct encoder rather than hand-rolling a wire format.
func (o Owned) EncodeRLP() ([]byte, error) {
	return rlp.EncodeToBytes(struct {
		Kind        Kind
		CodeAddress [20]byte
		Transfer    *TransferInfo
		Input       []byte
		TargetGas   *uint64
		IsStatic    bool
		Context     ContextInfo
		Caller      [20]byte
		Address     [20]byte
		Scheme      CreateSchemeInfo
		Value       uint256.Int
		InitCode    []byte
		Salt        [32]byte
		Target      [20]byte
		Balance     uint256.Int
		Source      [20]byte
		Reason      ExitInfo
		ReturnValue []byte
		GasLimit    uint256.Int
		Data        []byte
		Opcode      byte
		Position    PositionInfo
		Stack       []uint256.Int
		Memory      []byte
		Result      StepResultInfo
		Key         [32]byte
		Code        []byte
	}{
		o.Kind, o.CodeAddress, o.Transfer, o.Input, o.TargetGas, o.IsStatic, o.Context,
		o.Caller, o.Address, o.Scheme, o.Value, o.InitCode, o.Salt,
		o.Target, o.Balance, o.Source,
		o.Reason, o.ReturnValue,
		o.GasLimit, o.Data,
		o.Opcode, o.Position, o.Stack, o.Memory,
		o.Result,
		o.Key,
		o.Code,
	})
}

// DecodeRLP satisfies rlp.Decoder, the inverse of EncodeRLP.
func (o *Owned) DecodeRLP(s *rlp.Stream) error {
	var shadow struct {
		Kind        Kind
		CodeAddress [20]byte
		Transfer    *TransferInfo
		Input       []byte
		TargetGas   *uint64
		IsStatic    bool
		Context     ContextInfo
		Caller      [20]byte
		Address     [20]byte
		Scheme      CreateSchemeInfo
		Value       uint256.Int
		InitCode    []byte
		Salt        [32]byte
		Target      [20]byte
		Balance     uint256.Int
		Source      [20]byte
		Reason      ExitInfo
		ReturnValue []byte
		GasLimit    uint256.Int
		Data        []byte
		Opcode      byte
		Position    PositionInfo
		Stack       []uint256.Int
		Memory      []byte
		Result      StepResultInfo
		Key         [32]byte
		Code        []byte
	}
	if err := s.Decode(&shadow); err != nil {
		return err
	}
	*o = Owned{
		Kind: shadow.Kind, CodeAddress: shadow.CodeAddress, Transfer: shadow.Transfer,
		Input: shadow.Input, TargetGas: shadow.TargetGas, IsStatic: shadow.IsStatic, Context: shadow.Context,
		Caller: shadow.Caller, Address: shadow.Address, Scheme: shadow.Scheme, Value: shadow.Value,
		InitCode: shadow.InitCode, Salt: shadow.Salt,
		Target: shadow.Target, Balance: shadow.Balance, Source: shadow.Source,
		Reason: shadow.Reason, ReturnValue: shadow.ReturnValue,
		GasLimit: shadow.GasLimit, Data: shadow.Data,
		Opcode: shadow.Opcode, Position: shadow.Position, Stack: shadow.Stack, Memory: shadow.Memory,
		Result: shadow.Result,
		Key:    shadow.Key,
		Code:   shadow.Code,
	}
	return nil
}

package runtimetest

import "github.com/ethgo-labs/evmruntime/multigas"

// GasLedger accumulates a Handler's per-dimension gas spend across a
// frame's PreValidate calls. It exists so a runtimetest.Handler can
// demonstrate how an embedder would meter SYSTEM opcodes by resource
// dimension, a concern this module's dispatch layer deliberately leaves
// unmetered (see DESIGN.md's "gas metering for system opcodes" note).
type GasLedger struct {
	*multigas.MultiGas
}

// NewGasLedger returns a GasLedger with every dimension at zero.
func NewGasLedger() *GasLedger {
	return &GasLedger{MultiGas: multigas.ZeroGas()}
}

// Record adds amount to kind's running total, saturating rather than
// overflowing.
func (l *GasLedger) Record(kind multigas.ResourceKind, amount uint64) {
	if l.SafeIncrement(kind, amount) {
		l.Set(kind, ^uint64(0))
	}
}

package runtimetest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethgo-labs/evmruntime/multigas"
)

func TestGasLedgerRecordAccumulates(t *testing.T) {
	l := NewGasLedger()
	l.Record(multigas.ResourceKindComputation, 10)
	l.Record(multigas.ResourceKindComputation, 5)
	require.Equal(t, uint64(15), l.Get(multigas.ResourceKindComputation))
}

func TestGasLedgerRecordSaturatesOnOverflow(t *testing.T) {
	l := NewGasLedger()
	l.Record(multigas.ResourceKindStorageAccess, ^uint64(0))
	l.Record(multigas.ResourceKindStorageAccess, 1)
	require.Equal(t, ^uint64(0), l.Get(multigas.ResourceKindStorageAccess))
}

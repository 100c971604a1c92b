package runtime

// Config parameterizes gas schedule data and opcode feature gates for one
// hard-fork's worth of rules. It carries no behavior: the dispatch layer
// reads only the has_* feature gates to decide whether an opcode is
// available; actual gas accounting happens in the embedding Handler's
// PreValidate, per the open question in the original design notes about
// where gas metering for system opcodes belongs.
type Config struct {
	GasExtCode                uint64
	GasExtCodeHash            uint64
	GasSStoreSet              uint64
	GasSStoreReset            uint64
	RefundSStoreClears        int64
	GasBalance                uint64
	GasSLoad                  uint64
	GasSuicide                uint64
	GasSuicideNewAccount      uint64
	GasCall                   uint64
	GasExpByte                uint64
	GasTransactionCreate      uint64
	GasTransactionCall        uint64
	GasTransactionZeroData    uint64
	GasTransactionNonZeroData uint64

	SStoreGasMetering        bool
	SStoreRevertUnderStipend bool
	ErrOnCallWithMoreGas     bool
	CallL64AfterGas          bool
	EmptyConsideredExists    bool
	CreateIncreaseNonce      bool

	StackLimit          int
	MemoryLimit         uint64
	CallStackLimit      int
	CreateContractLimit *int

	CallStipend uint64

	HasDelegateCall    bool
	HasCreate2         bool
	HasRevert          bool
	HasReturnData      bool
	HasBitwiseShifting bool
	HasChainID         bool
	HasSelfBalance     bool
	HasExtCodeHash     bool

	Estimate bool
}

// Frontier returns the Frontier hard-fork configuration.
func Frontier() *Config {
	return &Config{
		GasExtCode:                20,
		GasExtCodeHash:            20,
		GasBalance:                20,
		GasSLoad:                  50,
		GasSStoreSet:              20000,
		GasSStoreReset:            5000,
		RefundSStoreClears:        15000,
		GasSuicide:                0,
		GasSuicideNewAccount:      0,
		GasCall:                   40,
		GasExpByte:                10,
		GasTransactionCreate:      21000,
		GasTransactionCall:        21000,
		GasTransactionZeroData:    4,
		GasTransactionNonZeroData: 68,
		SStoreGasMetering:         false,
		SStoreRevertUnderStipend:  false,
		ErrOnCallWithMoreGas:      true,
		EmptyConsideredExists:     true,
		CreateIncreaseNonce:       false,
		CallL64AfterGas:           false,
		StackLimit:                1024,
		MemoryLimit:               ^uint64(0),
		CallStackLimit:            1024,
		CreateContractLimit:       nil,
		CallStipend:               2300,
		HasDelegateCall:           false,
		HasCreate2:                false,
		HasRevert:                 false,
		HasReturnData:             false,
		HasBitwiseShifting:        false,
		HasChainID:                false,
		HasSelfBalance:            false,
		HasExtCodeHash:            false,
		Estimate:                  false,
	}
}

// Istanbul returns the Istanbul hard-fork configuration. This is the
// default used when a Runtime is constructed with a nil Config.
func Istanbul() *Config {
	createLimit := 0x6000
	return &Config{
		GasExtCode:                700,
		GasExtCodeHash:            700,
		GasBalance:                700,
		GasSLoad:                  800,
		GasSStoreSet:              20000,
		GasSStoreReset:            5000,
		RefundSStoreClears:        15000,
		GasSuicide:                5000,
		GasSuicideNewAccount:      25000,
		GasCall:                   700,
		GasExpByte:                50,
		GasTransactionCreate:      53000,
		GasTransactionCall:        21000,
		GasTransactionZeroData:    4,
		GasTransactionNonZeroData: 16,
		SStoreGasMetering:         true,
		SStoreRevertUnderStipend:  true,
		ErrOnCallWithMoreGas:      false,
		EmptyConsideredExists:     false,
		CreateIncreaseNonce:       true,
		CallL64AfterGas:           true,
		StackLimit:                1024,
		MemoryLimit:               ^uint64(0),
		CallStackLimit:            1024,
		CreateContractLimit:       &createLimit,
		CallStipend:               2300,
		HasDelegateCall:           true,
		HasCreate2:                true,
		HasRevert:                 true,
		HasReturnData:             true,
		HasBitwiseShifting:        true,
		HasChainID:                true,
		HasSelfBalance:            true,
		HasExtCodeHash:            true,
		Estimate:                  false,
	}
}

func defaultConfig() *Config { return Istanbul() }

package runtime

import (
	"github.com/ethgo-labs/evmruntime/runtime/machine"
	"github.com/ethgo-labs/evmruntime/runtime/trace"
)

// Runtime drives a machine.Machine through one frame's bytecode, routing
// every system opcode through a Handler and suspending on CALL*/CREATE*
// so an outer driver can recurse into a child Runtime and resume this one
// with the child's outcome. A Runtime is not thread-safe: exactly one
// logical executor drives it, and it must not be stepped again between a
// Trap capture and the matching Resolve call.
type Runtime struct {
	machine *machine.Machine
	context Context
	config  *Config
	sink    trace.Sink
	tracing bool

	returnData []byte
	terminated bool
	exitReason ExitReason
	steps      uint64
}

// NewRuntime constructs a Runtime over code with precomputed jump-valid
// bitmap valids and calldata input, executing under context. A nil cfg
// defaults to Istanbul. Tracing starts disabled (trace.Discard); call
// SetSink to attach an observer.
func NewRuntime(code []byte, valids machine.Valids, input []byte, context Context, cfg *Config) *Runtime {
	if cfg == nil {
		cfg = defaultConfig()
	}
	return &Runtime{
		machine: machine.New(code, valids, input, cfg.MemoryLimit),
		context: context,
		config:  cfg,
		sink:    trace.Discard,
	}
}

// SetSink attaches a trace observer. Pass trace.Discard to disable tracing.
func (r *Runtime) SetSink(s trace.Sink) {
	if s == nil {
		s = trace.Discard
	}
	r.sink = s
	r.tracing = s != trace.Discard
}

// emit hands e to the attached sink. With tracing disabled this is a single
// branch, so the hot step loop never pays for event construction; callers
// building a nontrivial Event should check tracing themselves first.
func (r *Runtime) emit(e trace.Event) {
	if !r.tracing {
		return
	}
	r.sink.OnEvent(e)
}

// Context returns the frame's immutable identity.
func (r *Runtime) Context() Context { return r.context }

// Config returns the parameterization this Runtime was constructed with.
func (r *Runtime) Config() *Config { return r.config }

// ReturnData returns the most recent child call/create's return bytes.
// Empty before any CALL*/CREATE* completes, and immediately after a
// CALL*/CREATE* dispatch yields a suspension but before it is resolved.
func (r *Runtime) ReturnData() []byte { return r.returnData }

// Steps returns the cumulative count of opcodes this Runtime has executed
// across every Step/Run call, including the one that produced its terminal
// exit, an addition over the original design for embedders that want a
// running step count without re-deriving it from repeated Run results.
func (r *Runtime) Steps() uint64 { return r.steps }

// Terminated reports whether the frame has reached a terminal ExitReason.
func (r *Runtime) Terminated() bool { return r.terminated }

// ExitReason returns the frame's terminal disposition. ok is false while
// the frame is still running.
func (r *Runtime) ExitReason() (reason ExitReason, ok bool) {
	return r.exitReason, r.terminated
}

// terminate transitions the Runtime to a terminal state and emits the
// frame's single Exit trace event. Idempotent: only the first call (per
// Runtime) has an effect, since every caller either already checked
// r.terminated or is the unique code path permitted to finalize a
// suspended frame (a ResolveCall/ResolveCreate, invoked at most once).
func (r *Runtime) terminate(reason ExitReason) {
	if r.terminated {
		return
	}
	r.terminated = true
	r.exitReason = reason
	if !r.tracing {
		return
	}
	r.sink.OnEvent(trace.Event{
		Kind:        trace.KindExit,
		Reason:      toExitInfo(reason),
		ReturnValue: append([]byte(nil), r.machine.HaltResult().ReturnValue...),
	})
}

// stepCaptureKind discriminates the four shapes Step can return.
type stepCaptureKind int

const (
	stepContinue stepCaptureKind = iota
	stepExited
	stepCallTrap
	stepCreateTrap
)

// StepCapture is the outcome of one Step call: the frame advanced normally
// (IsContinue), reached a terminal ExitReason (IsExit), or suspended
// pending a nested CALL* (IsCallTrap) or CREATE* (IsCreateTrap).
type StepCapture struct {
	kind          stepCaptureKind
	exit          ExitReason
	callResolve   *ResolveCall
	createResolve *ResolveCreate
}

func stepCaptureContinue() StepCapture { return StepCapture{kind: stepContinue} }

func stepCaptureExit(reason ExitReason) StepCapture {
	return StepCapture{kind: stepExited, exit: reason}
}

func stepCaptureCallTrap(h *ResolveCall) StepCapture {
	return StepCapture{kind: stepCallTrap, callResolve: h}
}

func stepCaptureCreateTrap(h *ResolveCreate) StepCapture {
	return StepCapture{kind: stepCreateTrap, createResolve: h}
}

func (c StepCapture) IsContinue() bool   { return c.kind == stepContinue }
func (c StepCapture) IsExit() bool       { return c.kind == stepExited }
func (c StepCapture) IsCallTrap() bool   { return c.kind == stepCallTrap }
func (c StepCapture) IsCreateTrap() bool { return c.kind == stepCreateTrap }

// Exit returns the terminal ExitReason; valid only when IsExit.
func (c StepCapture) Exit() ExitReason { return c.exit }

// CallResolve returns the suspension handle for a CALL* trap; valid only
// when IsCallTrap.
func (c StepCapture) CallResolve() *ResolveCall { return c.callResolve }

// CreateResolve returns the suspension handle for a CREATE* trap; valid
// only when IsCreateTrap.
func (c StepCapture) CreateResolve() *ResolveCreate { return c.createResolve }

// Step advances the frame by exactly one opcode. Calling Step on an
// already-terminated Runtime is a no-op that replays the same exit,
// matching the idempotence invariant that repeated step() calls after a
// terminal exit return the same Exit(reason) without advancing.
func (r *Runtime) Step(handler Handler) StepCapture {
	if r.terminated {
		return stepCaptureExit(r.exitReason)
	}

	op, stack, ok := r.machine.Inspect()
	if !ok {
		reason := haltToExit(r.machine.HaltResult())
		r.terminate(reason)
		return stepCaptureExit(reason)
	}

	r.emitStep(op, stack)

	if errReason := handler.PreValidate(r.context, byte(op), stack.Data()); errReason != nil {
		// No StepResult follows a pre_validate failure: the opcode never
		// ran, so the Step/StepResult sandwich invariant doesn't apply.
		r.machine.Exit(machine.Halt{Kind: machine.HaltExternal})
		r.terminate(*errReason)
		return stepCaptureExit(*errReason)
	}

	r.steps++
	outcome := r.machine.Step()

	switch outcome.Kind {
	case machine.StepContinue:
		r.emitStepResultContinue()
		return stepCaptureContinue()

	case machine.StepHalt:
		reason := haltToExit(outcome.Halt)
		r.terminate(reason)
		r.emitStepResultExit(reason)
		return stepCaptureExit(reason)

	case machine.StepTrap:
		ctrl := dispatchSystem(r, outcome.Trap, handler)
		switch {
		case ctrl.IsContinue():
			r.emitStepResultContinue()
			return stepCaptureContinue()

		case ctrl.IsExit():
			reason := ctrl.ExitReason()
			r.machine.Exit(machine.Halt{Kind: machine.HaltExternal})
			r.terminate(reason)
			r.emitStepResultExit(reason)
			return stepCaptureExit(reason)

		case ctrl.IsCallInterrupt():
			resolve := newResolveCall(r, ctrl.CallTrap())
			r.emitStepResultTrap(trace.TrapCall)
			return stepCaptureCallTrap(resolve)

		default:
			resolve := newResolveCreate(r, ctrl.CreateTrap())
			r.emitStepResultTrap(trace.TrapCreate)
			return stepCaptureCreateTrap(resolve)
		}
	}

	panic("runtime: unreachable machine step outcome")
}

// Run steps the frame up to maxSteps times, stopping early on Exit or
// Trap. If the budget is exhausted with the frame still running, it
// returns StepLimitReached without terminating the Runtime — the frame
// remains resumable by a later Run/Step call, per the step-budget
// cancellation model. Calling Run on an already-terminated Runtime
// returns (0, Exit(previous reason)).
func (r *Runtime) Run(maxSteps uint64, handler Handler) (uint64, StepCapture) {
	if r.terminated {
		return 0, stepCaptureExit(r.exitReason)
	}
	for i := uint64(0); i < maxSteps; i++ {
		c := r.Step(handler)
		if !c.IsContinue() {
			return i + 1, c
		}
	}
	return maxSteps, stepCaptureExit(StepLimitReached())
}

func (r *Runtime) toContextInfo() trace.ContextInfo {
	return trace.ContextInfo{
		Address:       r.context.Address,
		Caller:        r.context.Caller,
		ApparentValue: r.context.ApparentValue,
	}
}

func toExitInfo(reason ExitReason) trace.ExitInfo {
	switch {
	case reason.IsSucceed():
		return trace.ExitInfo{Kind: trace.ExitSucceed, SucceedKind: int(reason.Succeeded())}
	case reason.IsRevert():
		return trace.ExitInfo{Kind: trace.ExitRevert, Message: reason.Error()}
	case reason.IsError():
		return trace.ExitInfo{Kind: trace.ExitError, Message: reason.Error()}
	case reason.IsFatal():
		return trace.ExitInfo{Kind: trace.ExitFatal, Message: reason.Error()}
	default:
		return trace.ExitInfo{Kind: trace.ExitStepLimitReached}
	}
}

func (r *Runtime) emitStep(op machine.OpCode, stack *machine.Stack) {
	if !r.tracing {
		return
	}
	pc, _ := r.machine.Position()
	r.sink.OnEvent(trace.Event{
		Kind:     trace.KindStep,
		Context:  r.toContextInfo(),
		Opcode:   byte(op),
		Position: trace.PositionInfo{Kind: trace.PositionOK, PC: pc},
		Stack:    stack.Data(),
		Memory:   r.machine.Memory().Data(),
	})
}

func (r *Runtime) emitStepResultContinue() {
	if !r.tracing {
		return
	}
	r.sink.OnEvent(trace.Event{
		Kind:   trace.KindStepResult,
		Result: trace.StepResultInfo{OK: true},
		Stack:  r.machine.Stack().Data(),
		Memory: r.machine.Memory().Data(),
	})
}

func (r *Runtime) emitStepResultExit(reason ExitReason) {
	if !r.tracing {
		return
	}
	info := toExitInfo(reason)
	r.sink.OnEvent(trace.Event{
		Kind: trace.KindStepResult,
		Result: trace.StepResultInfo{
			OK:      false,
			Capture: &trace.CaptureInfo{Kind: trace.CaptureExit, Exit: info},
		},
		ReturnValue: r.machine.HaltResult().ReturnValue,
		Stack:       r.machine.Stack().Data(),
		Memory:      r.machine.Memory().Data(),
	})
}

func (r *Runtime) emitStepResultTrap(kind trace.TrapKind) {
	if !r.tracing {
		return
	}
	r.sink.OnEvent(trace.Event{
		Kind: trace.KindStepResult,
		Result: trace.StepResultInfo{
			OK:      false,
			Capture: &trace.CaptureInfo{Kind: trace.CaptureTrap, TrapKind: kind},
		},
		Stack:  r.machine.Stack().Data(),
		Memory: r.machine.Memory().Data(),
	})
}

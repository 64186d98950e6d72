package emu

import "github.com/sarchlab/mipssim/insts"

// Interpreter is the non-pipelined reference execution path used when a
// Core has pipelining disabled: one instruction retires per cycle, with
// ALU, branch resolution, and memory access all performed within that
// single cycle and no hazard logic at all.
type Interpreter struct {
	regs    *RegisterFile
	mem     *Memory
	decoder *insts.Decoder
}

// NewInterpreter creates an Interpreter operating on the given register
// file and memory, which it shares with its owning Core.
func NewInterpreter(regs *RegisterFile, mem *Memory) *Interpreter {
	return &Interpreter{
		regs:    regs,
		mem:     mem,
		decoder: insts.NewDecoder(),
	}
}

// StepResult reports what a single Interpreter.Step did, for the Core's
// retirement and anomaly counters.
type StepResult struct {
	Instruction *insts.Instruction
	NextPC      uint32
	Anomaly     bool
}

// Step fetches and fully executes the instruction at pc, returning the
// next PC and the decoded instruction for counter bookkeeping. It never
// errors: an UNKNOWN opcode executes as a NOP and is reported via
// Anomaly.
func (in *Interpreter) Step(pc uint32) StepResult {
	word := in.mem.ReadWord(pc)
	inst := in.decoder.Decode(word, pc)

	result := StepResult{Instruction: inst, NextPC: pc + 4, Anomaly: inst.IsUnknown}

	rsVal := in.regs.Read(inst.Rs)
	rtVal := in.regs.Read(inst.Rt)

	switch inst.Type {
	case insts.TypeR:
		in.executeR(inst, rsVal, rtVal, &result)
	case insts.TypeI:
		in.executeI(inst, rsVal, rtVal, &result)
	case insts.TypeJ:
		in.executeJ(inst, pc, &result)
	}

	return result
}

func (in *Interpreter) executeR(inst *insts.Instruction, rsVal, rtVal uint32, result *StepResult) {
	switch inst.Op {
	case insts.OpJR:
		result.NextPC = rsVal
	case insts.OpJALR:
		in.regs.Write(inst.Rd, inst.Addr+8)
		result.NextPC = rsVal
	case insts.OpNOP, insts.OpUNKNOWN:
		// no-op
	default:
		alu := Eval(inst.Op, rsVal, rtVal, inst.Shamt)
		if inst.WritesRd {
			in.regs.Write(inst.Rd, alu.Value)
		}
	}
}

func (in *Interpreter) executeI(inst *insts.Instruction, rsVal, rtVal uint32, result *StepResult) {
	switch {
	case inst.IsBranch:
		outcome := ResolveBranch(inst, rsVal, rtVal)
		if outcome.Taken {
			result.NextPC = outcome.Target
		}
	case inst.IsLoad:
		addr := rsVal + uint32(inst.ImmS())
		in.regs.Write(inst.Rt, LoadValue(in.mem, inst.Op, addr))
	case inst.IsStore:
		addr := rsVal + uint32(inst.ImmS())
		StoreValue(in.mem, inst.Op, addr, rtVal)
	case inst.Op == insts.OpLUI:
		in.regs.Write(inst.Rt, uint32(inst.ImmU)<<16)
	case inst.WritesRt:
		var b uint32
		switch inst.Op {
		case insts.OpANDI, insts.OpORI, insts.OpXORI:
			b = uint32(inst.ImmU)
		default:
			b = uint32(inst.ImmS())
		}
		alu := Eval(inst.Op, rsVal, b, 0)
		in.regs.Write(inst.Rt, alu.Value)
	}
}

func (in *Interpreter) executeJ(inst *insts.Instruction, pc uint32, result *StepResult) {
	result.NextPC = ResolveJumpTarget(inst)
	if inst.Op == insts.OpJAL {
		in.regs.Write(RegRA, pc+8)
	}
}

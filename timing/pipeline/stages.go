package pipeline

import (
	"github.com/sarchlab/mipssim/emu"
	"github.com/sarchlab/mipssim/insts"
)

// FetchStage reads the instruction word at a given PC.
type FetchStage struct {
	memory *emu.Memory
}

// NewFetchStage creates a new fetch stage.
func NewFetchStage(memory *emu.Memory) *FetchStage {
	return &FetchStage{memory: memory}
}

// Fetch reads the 32-bit word at pc.
func (s *FetchStage) Fetch(pc uint32) uint32 {
	return s.memory.ReadWord(pc)
}

// DecodeStage decodes a fetched word and reads the register file.
type DecodeStage struct {
	regs    *emu.RegisterFile
	decoder *insts.Decoder
}

// NewDecodeStage creates a new decode stage.
func NewDecodeStage(regs *emu.RegisterFile) *DecodeStage {
	return &DecodeStage{regs: regs, decoder: insts.NewDecoder()}
}

// DecodeResult holds the outputs of decode: the instruction, its operand
// values observed this cycle, and the control signals derived from it.
type DecodeResult struct {
	Inst *insts.Instruction

	RsValue uint32
	RtValue uint32
	ImmS    int32

	WriteReg uint8

	RegWrite bool
	MemRead  bool
	MemWrite bool
	MemToReg bool
	IsBranch bool
	IsJump   bool
}

// Decode decodes word (fetched at pc) and reads its source operands from
// the register file, observing any same-cycle writeback already applied.
func (s *DecodeStage) Decode(word uint32, pc uint32) DecodeResult {
	inst := s.decoder.Decode(word, pc)

	result := DecodeResult{
		Inst:     inst,
		RsValue:  s.regs.Read(inst.Rs),
		RtValue:  s.regs.Read(inst.Rt),
		ImmS:     inst.ImmS(),
		RegWrite: inst.WritesRd || inst.WritesRt || inst.Op == insts.OpJAL,
		MemRead:  inst.IsLoad,
		MemWrite: inst.IsStore,
		MemToReg: inst.IsLoad,
		IsBranch: inst.IsBranch,
		IsJump:   inst.Op == insts.OpJ || inst.Op == insts.OpJAL,
	}

	switch {
	case inst.WritesRd:
		result.WriteReg = inst.Rd
	case inst.WritesRt:
		result.WriteReg = inst.Rt
	case inst.Op == insts.OpJAL:
		result.WriteReg = emu.RegRA
	}

	return result
}

// ExecuteStage performs the ALU operation (with forwarded operands) and
// resolves branch/jump outcomes.
type ExecuteStage struct{}

// NewExecuteStage creates a new execute stage.
func NewExecuteStage() *ExecuteStage {
	return &ExecuteStage{}
}

// ExecuteResult holds what the EX stage produced for this cycle.
type ExecuteResult struct {
	ALUResult  uint32
	StoreValue uint32
	Zero       bool

	IsBranch      bool
	BranchTaken   bool
	BranchTarget  uint32

	IsJumpReg    bool // JR/JALR: target known only at EX
	JumpRegTarget uint32
}

// Execute computes the ALU result for idex's instruction using already
// forwarded rs/rt values, and, for branches and JR/JALR, resolves the
// actual outcome and target.
func (s *ExecuteStage) Execute(idex *IDEXRegister, rsVal, rtVal uint32) ExecuteResult {
	result := ExecuteResult{}
	inst := idex.Inst
	if inst == nil {
		return result
	}

	switch {
	case inst.IsBranch:
		outcome := emu.ResolveBranch(inst, rsVal, rtVal)
		result.IsBranch = true
		result.BranchTaken = outcome.Taken
		result.BranchTarget = outcome.Target
		return result

	case inst.Op == insts.OpJR || inst.Op == insts.OpJALR:
		result.IsJumpReg = true
		result.JumpRegTarget = rsVal
		if inst.Op == insts.OpJALR {
			result.ALUResult = inst.Addr + 8
		}
		return result

	case inst.Op == insts.OpJAL:
		result.ALUResult = inst.Addr + 8
		return result

	case inst.IsLoad || inst.IsStore:
		result.ALUResult = rsVal + uint32(idex.ImmS)
		result.StoreValue = rtVal
		return result

	case inst.Op == insts.OpLUI:
		alu := emu.Eval(inst.Op, rsVal, uint32(inst.ImmU), 0)
		result.ALUResult = alu.Value
		result.Zero = alu.Zero
		return result

	case inst.Type == insts.TypeR:
		alu := emu.Eval(inst.Op, rsVal, rtVal, inst.Shamt)
		result.ALUResult = alu.Value
		result.Zero = alu.Zero
		return result

	case inst.Type == insts.TypeI:
		imm := uint32(idex.ImmS)
		switch inst.Op {
		case insts.OpANDI, insts.OpORI, insts.OpXORI:
			imm = uint32(inst.ImmU)
		}
		alu := emu.Eval(inst.Op, rsVal, imm, 0)
		result.ALUResult = alu.Value
		result.Zero = alu.Zero
		return result
	}

	return result
}

// MemoryStage performs the load/store memory access.
type MemoryStage struct {
	memory *emu.Memory
}

// NewMemoryStage creates a new memory stage.
func NewMemoryStage(memory *emu.Memory) *MemoryStage {
	return &MemoryStage{memory: memory}
}

// MemoryResult holds what the MEM stage produced for this cycle.
type MemoryResult struct {
	MemData uint32
}

// Access performs the load or store described by exmem, a no-op for
// anything else.
func (s *MemoryStage) Access(exmem *EXMEMRegister) MemoryResult {
	result := MemoryResult{}
	if !exmem.Valid || exmem.Inst == nil {
		return result
	}

	if exmem.MemRead {
		result.MemData = emu.LoadValue(s.memory, exmem.Inst.Op, exmem.ALUResult)
	} else if exmem.MemWrite {
		emu.StoreValue(s.memory, exmem.Inst.Op, exmem.ALUResult, exmem.StoreValue)
	}

	return result
}

// WritebackStage commits the final value to the register file.
type WritebackStage struct {
	regs *emu.RegisterFile
}

// NewWritebackStage creates a new writeback stage.
func NewWritebackStage(regs *emu.RegisterFile) *WritebackStage {
	return &WritebackStage{regs: regs}
}

// Writeback writes memwb's result to its destination register, skipping
// invalid latches, non-register-writing instructions, and writes to $zero.
func (s *WritebackStage) Writeback(memwb *MEMWBRegister) {
	if !memwb.Valid || !memwb.RegWrite || memwb.WriteReg == 0 {
		return
	}

	value := memwb.ALUResult
	if memwb.MemToReg {
		value = memwb.MemData
	}
	s.regs.Write(memwb.WriteReg, value)
}

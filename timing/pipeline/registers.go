// Package pipeline provides the classic 5-stage in-order MIPS-I pipeline:
// IF, ID, EX, MEM, WB, with hazard detection, operand forwarding, load-use
// stalling, and branch/jump flush-and-redirect.
package pipeline

import (
	"github.com/sarchlab/mipssim/insts"
)

// IFIDRegister holds state latched between Fetch and Decode.
type IFIDRegister struct {
	Valid bool

	PC              uint32
	InstructionWord uint32
}

// IDEXRegister holds state latched between Decode and Execute.
type IDEXRegister struct {
	Valid bool

	PC   uint32
	Inst *insts.Instruction

	// Register values read during ID, observing write-before-read.
	RsValue uint32
	RtValue uint32

	// Sign-extended immediate, pre-computed at decode time.
	ImmS int32

	// Source registers, for hazard/forwarding detection against this
	// latch once it becomes the EX-stage instruction.
	Rs uint8
	Rt uint8

	// WriteReg is the architectural destination this instruction will
	// write, already resolved per spec §4.7 ID step: rd for R-type,
	// rt for loads/immediates, $ra (31) for JAL, 0 (no-op write) otherwise.
	WriteReg uint8

	// Control signals.
	RegWrite bool
	MemRead  bool
	MemWrite bool
	MemToReg bool
	IsBranch bool
	IsJump   bool
}

// EXMEMRegister holds state latched between Execute and Memory.
type EXMEMRegister struct {
	Valid bool

	PC   uint32
	Inst *insts.Instruction

	ALUResult  uint32
	StoreValue uint32
	WriteReg   uint8
	Zero       bool

	RegWrite bool
	MemRead  bool
	MemWrite bool
	MemToReg bool
}

// MEMWBRegister holds state latched between Memory and Writeback.
type MEMWBRegister struct {
	Valid bool

	PC   uint32
	Inst *insts.Instruction

	ALUResult uint32
	MemData   uint32
	WriteReg  uint8

	RegWrite bool
	MemToReg bool
}

// Clear invalidates the latch, turning it into a bubble.
func (r *IFIDRegister) Clear() {
	r.Valid = false
	r.PC = 0
	r.InstructionWord = 0
}

// Clear invalidates the latch, turning it into a bubble.
func (r *IDEXRegister) Clear() {
	r.Valid = false
	r.PC = 0
	r.Inst = nil
	r.RsValue = 0
	r.RtValue = 0
	r.ImmS = 0
	r.Rs = 0
	r.Rt = 0
	r.WriteReg = 0
	r.RegWrite = false
	r.MemRead = false
	r.MemWrite = false
	r.MemToReg = false
	r.IsBranch = false
	r.IsJump = false
}

// Clear invalidates the latch, turning it into a bubble.
func (r *EXMEMRegister) Clear() {
	r.Valid = false
	r.PC = 0
	r.Inst = nil
	r.ALUResult = 0
	r.StoreValue = 0
	r.WriteReg = 0
	r.Zero = false
	r.RegWrite = false
	r.MemRead = false
	r.MemWrite = false
	r.MemToReg = false
}

// Clear invalidates the latch, turning it into a bubble.
func (r *MEMWBRegister) Clear() {
	r.Valid = false
	r.PC = 0
	r.Inst = nil
	r.ALUResult = 0
	r.MemData = 0
	r.WriteReg = 0
	r.RegWrite = false
	r.MemToReg = false
}

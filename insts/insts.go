// Package insts provides MIPS-I instruction definitions and decoding.
//
// This package decodes 32-bit big-endian MIPS-I machine words into a
// structured Instruction. It supports the integer subset used by the
// simulator core: R-type ALU and shift ops, I-type immediate/load/store/
// branch ops, and the two J-type ops (J, JAL).
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x20020005, 0x00400000) // addi $v0, $zero, 5
//	fmt.Printf("Op: %v, Rt: %d, Imm: %d\n", inst.Op, inst.Rt, inst.ImmS())
package insts

// Op identifies the decoded operation.
type Op uint8

// Supported operations.
const (
	OpUNKNOWN Op = iota
	OpNOP

	// R-type ALU.
	OpADD
	OpSUB
	OpAND
	OpOR
	OpNOR
	OpXOR
	OpSLT
	OpSLTU

	// R-type shifts.
	OpSLL
	OpSRL
	OpSRA

	// R-type jumps.
	OpJR
	OpJALR

	// I-type ALU immediate.
	OpADDI
	OpADDIU
	OpANDI
	OpORI
	OpXORI
	OpSLTI
	OpSLTIU
	OpLUI

	// I-type loads.
	OpLW
	OpLH
	OpLB
	OpLBU
	OpLHU

	// I-type stores.
	OpSW
	OpSH
	OpSB

	// I-type branches.
	OpBEQ
	OpBNE
	OpBLEZ
	OpBGTZ
	OpBLTZ
	OpBGEZ

	// J-type.
	OpJ
	OpJAL
)

// Type classifies the encoding format of a decoded instruction.
type Type uint8

// Instruction encoding types.
const (
	TypeR Type = iota
	TypeI
	TypeJ
)

// RegisterNames holds the MIPS register ABI names, indexed 0-31.
var RegisterNames = [32]string{
	"$zero", "$at", "$v0", "$v1", "$a0", "$a1", "$a2", "$a3",
	"$t0", "$t1", "$t2", "$t3", "$t4", "$t5", "$t6", "$t7",
	"$s0", "$s1", "$s2", "$s3", "$s4", "$s5", "$s6", "$s7",
	"$t8", "$t9", "$k0", "$k1", "$gp", "$sp", "$fp", "$ra",
}

// Instruction is the immutable, decoded representation of one 32-bit word.
type Instruction struct {
	Raw  uint32
	Addr uint32

	Type Type
	Op   Op

	Rs, Rt, Rd uint8
	Shamt      uint8
	Funct      uint8
	Opcode     uint8

	ImmU    uint16 // zero-extended immediate, bits [15:0] of Raw
	JTarget uint32 // bits [25:0] of Raw, J-type only

	// Capability flags, derived once at decode time.
	ReadsRs   bool
	ReadsRt   bool
	WritesRd  bool
	WritesRt  bool
	IsBranch  bool
	IsJump    bool
	IsLoad    bool
	IsStore   bool
	IsUnknown bool
}

// ImmS returns the sign-extended 16-bit immediate as a 32-bit value.
func (i *Instruction) ImmS() int32 {
	return int32(int16(i.ImmU))
}

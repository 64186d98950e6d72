package emu

import "github.com/sarchlab/mipssim/insts"

// BranchOutcome is the actual (non-speculative) resolution of a branch or
// jump: whether control transfers, and to where.
type BranchOutcome struct {
	Taken  bool
	Target uint32
}

// ResolveBranch evaluates a decoded branch instruction against the two
// operand values already read from the register file, returning whether
// it is actually taken and its target address. pc is the branch's own
// address; the target for taken branches is pc+4+(imm_s<<2) per the MIPS
// delay-free model this simulator uses (no branch-delay slot).
func ResolveBranch(inst *insts.Instruction, rsVal, rtVal uint32) BranchOutcome {
	target := uint32(int32(inst.Addr) + 4 + (inst.ImmS() << 2))

	var taken bool
	switch inst.Op {
	case insts.OpBEQ:
		taken = rsVal == rtVal
	case insts.OpBNE:
		taken = rsVal != rtVal
	case insts.OpBLEZ:
		taken = int32(rsVal) <= 0
	case insts.OpBGTZ:
		taken = int32(rsVal) > 0
	case insts.OpBLTZ:
		taken = int32(rsVal) < 0
	case insts.OpBGEZ:
		taken = int32(rsVal) >= 0
	}

	return BranchOutcome{Taken: taken, Target: target}
}

// ResolveJumpTarget computes the absolute target of a direct jump (J,
// JAL): the high 4 bits of pc+4 combined with jtarget<<2.
func ResolveJumpTarget(inst *insts.Instruction) uint32 {
	return (inst.Addr+4)&0xF0000000 | (inst.JTarget << 2)
}

// Package insts provides MIPS-I instruction definitions and decoding.
package insts

// Decoder decodes 32-bit MIPS-I machine words into Instructions.
type Decoder struct{}

// NewDecoder creates a new MIPS-I instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// funct codes for R-type instructions (opcode == 0).
const (
	functADD  = 0x20
	functADDU = 0x21
	functSUB  = 0x22
	functSUBU = 0x23
	functAND  = 0x24
	functOR   = 0x25
	functXOR  = 0x26
	functNOR  = 0x27
	functSLT  = 0x2A
	functSLTU = 0x2B
	functSLL  = 0x00
	functSRL  = 0x02
	functSRA  = 0x03
	functJR   = 0x08
	functJALR = 0x09
)

// primary opcodes for I-type and J-type instructions.
const (
	opR     = 0x00
	opADDI  = 0x08
	opADDIU = 0x09
	opANDI  = 0x0C
	opORI   = 0x0D
	opXORI  = 0x0E
	opSLTI  = 0x0A
	opSLTIU = 0x0B
	opLUI   = 0x0F
	opLW    = 0x23
	opLH    = 0x21
	opLB    = 0x20
	opLBU   = 0x24
	opLHU   = 0x25
	opSW    = 0x2B
	opSH    = 0x29
	opSB    = 0x28
	opBEQ   = 0x04
	opBNE   = 0x05
	opBLEZ  = 0x06
	opBGTZ  = 0x07
	opREGIMM = 0x01 // BLTZ/BGEZ share this opcode, distinguished by rt
	opJ     = 0x02
	opJAL   = 0x03
)

// rt sub-codes under the REGIMM (0x01) opcode.
const (
	regimmBLTZ = 0x00
	regimmBGEZ = 0x01
)

// Decode decodes a single 32-bit big-endian MIPS-I word fetched from the
// given address. A word of 0x00000000 always decodes as NOP. Unmapped
// opcode/funct pairs decode to UNKNOWN and are treated as NOP for forward
// progress by the execution units, but are never reported as reading or
// writing any register.
func (d *Decoder) Decode(word uint32, addr uint32) *Instruction {
	inst := &Instruction{Raw: word, Addr: addr}

	inst.Opcode = uint8((word >> 26) & 0x3F)
	inst.Rs = uint8((word >> 21) & 0x1F)
	inst.Rt = uint8((word >> 16) & 0x1F)
	inst.Rd = uint8((word >> 11) & 0x1F)
	inst.Shamt = uint8((word >> 6) & 0x1F)
	inst.Funct = uint8(word & 0x3F)
	inst.ImmU = uint16(word & 0xFFFF)
	inst.JTarget = word & 0x3FFFFFF

	if word == 0 {
		inst.Type = TypeR
		inst.Op = OpNOP
		return inst
	}

	if inst.Opcode == opR {
		inst.Type = TypeR
		d.decodeR(inst)
	} else if inst.Opcode == opJ || inst.Opcode == opJAL {
		inst.Type = TypeJ
		d.decodeJ(inst)
	} else {
		inst.Type = TypeI
		d.decodeI(inst)
	}

	d.deriveFlags(inst)
	return inst
}

func (d *Decoder) decodeR(inst *Instruction) {
	switch inst.Funct {
	case functADD, functADDU:
		inst.Op = OpADD
	case functSUB, functSUBU:
		inst.Op = OpSUB
	case functAND:
		inst.Op = OpAND
	case functOR:
		inst.Op = OpOR
	case functXOR:
		inst.Op = OpXOR
	case functNOR:
		inst.Op = OpNOR
	case functSLT:
		inst.Op = OpSLT
	case functSLTU:
		inst.Op = OpSLTU
	case functSLL:
		if inst.Rd == 0 && inst.Rt == 0 && inst.Shamt == 0 {
			inst.Op = OpNOP
		} else {
			inst.Op = OpSLL
		}
	case functSRL:
		inst.Op = OpSRL
	case functSRA:
		inst.Op = OpSRA
	case functJR:
		inst.Op = OpJR
	case functJALR:
		inst.Op = OpJALR
	default:
		inst.Op = OpUNKNOWN
		inst.IsUnknown = true
	}
}

func (d *Decoder) decodeJ(inst *Instruction) {
	switch inst.Opcode {
	case opJ:
		inst.Op = OpJ
	case opJAL:
		inst.Op = OpJAL
	}
}

func (d *Decoder) decodeI(inst *Instruction) {
	switch inst.Opcode {
	case opADDI:
		inst.Op = OpADDI
	case opADDIU:
		inst.Op = OpADDIU
	case opANDI:
		inst.Op = OpANDI
	case opORI:
		inst.Op = OpORI
	case opXORI:
		inst.Op = OpXORI
	case opSLTI:
		inst.Op = OpSLTI
	case opSLTIU:
		inst.Op = OpSLTIU
	case opLUI:
		inst.Op = OpLUI
	case opLW:
		inst.Op = OpLW
	case opLH:
		inst.Op = OpLH
	case opLB:
		inst.Op = OpLB
	case opLBU:
		inst.Op = OpLBU
	case opLHU:
		inst.Op = OpLHU
	case opSW:
		inst.Op = OpSW
	case opSH:
		inst.Op = OpSH
	case opSB:
		inst.Op = OpSB
	case opBEQ:
		inst.Op = OpBEQ
	case opBNE:
		inst.Op = OpBNE
	case opBLEZ:
		inst.Op = OpBLEZ
	case opBGTZ:
		inst.Op = OpBGTZ
	case opREGIMM:
		switch inst.Rt {
		case regimmBLTZ:
			inst.Op = OpBLTZ
		case regimmBGEZ:
			inst.Op = OpBGEZ
		default:
			inst.Op = OpUNKNOWN
			inst.IsUnknown = true
		}
	default:
		inst.Op = OpUNKNOWN
		inst.IsUnknown = true
	}
}

// deriveFlags computes the read/write/branch/jump/load/store capability
// flags once, at decode time, per spec §4.1.
func (d *Decoder) deriveFlags(inst *Instruction) {
	if inst.Op == OpUNKNOWN || inst.Op == OpNOP {
		return
	}

	switch inst.Op {
	case OpADD, OpSUB, OpAND, OpOR, OpNOR, OpXOR, OpSLT, OpSLTU:
		inst.ReadsRs = true
		inst.ReadsRt = true
		inst.WritesRd = true
	case OpSLL, OpSRL, OpSRA:
		inst.ReadsRt = true
		inst.WritesRd = true
	case OpJR:
		inst.ReadsRs = true
		inst.IsJump = true
	case OpJALR:
		inst.ReadsRs = true
		inst.WritesRd = true
		inst.IsJump = true
	case OpADDI, OpADDIU, OpANDI, OpORI, OpXORI, OpSLTI, OpSLTIU:
		inst.ReadsRs = true
		inst.WritesRt = true
	case OpLUI:
		inst.WritesRt = true
	case OpLW, OpLH, OpLB, OpLBU, OpLHU:
		inst.ReadsRs = true
		inst.WritesRt = true
		inst.IsLoad = true
	case OpSW, OpSH, OpSB:
		inst.ReadsRs = true
		inst.ReadsRt = true
		inst.IsStore = true
	case OpBEQ, OpBNE:
		inst.ReadsRs = true
		inst.ReadsRt = true
		inst.IsBranch = true
	case OpBLEZ, OpBGTZ, OpBLTZ, OpBGEZ:
		inst.ReadsRs = true
		inst.IsBranch = true
	case OpJ:
		inst.IsJump = true
	case OpJAL:
		inst.IsJump = true
		// JAL writes $ra (register 31); callers that need the
		// destination register index for JAL use the constant
		// directly rather than WritesRd/Rd, since JAL has no Rd
		// field in its J-type encoding.
	}
}

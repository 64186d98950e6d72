package insts

import "fmt"

// mnemonics maps each Op to its lower-case assembly mnemonic.
var mnemonics = map[Op]string{
	OpNOP:    "nop",
	OpADD:    "add",
	OpSUB:    "sub",
	OpAND:    "and",
	OpOR:     "or",
	OpNOR:    "nor",
	OpXOR:    "xor",
	OpSLT:    "slt",
	OpSLTU:   "sltu",
	OpSLL:    "sll",
	OpSRL:    "srl",
	OpSRA:    "sra",
	OpJR:     "jr",
	OpJALR:   "jalr",
	OpADDI:   "addi",
	OpADDIU:  "addiu",
	OpANDI:   "andi",
	OpORI:    "ori",
	OpXORI:   "xori",
	OpSLTI:   "slti",
	OpSLTIU:  "sltiu",
	OpLUI:    "lui",
	OpLW:     "lw",
	OpLH:     "lh",
	OpLB:     "lb",
	OpLBU:    "lbu",
	OpLHU:    "lhu",
	OpSW:     "sw",
	OpSH:     "sh",
	OpSB:     "sb",
	OpBEQ:    "beq",
	OpBNE:    "bne",
	OpBLEZ:   "blez",
	OpBGTZ:   "bgtz",
	OpBLTZ:   "bltz",
	OpBGEZ:   "bgez",
	OpJ:      "j",
	OpJAL:    "jal",
}

func regName(r uint8) string {
	if int(r) >= len(RegisterNames) {
		return fmt.Sprintf("$%d", r)
	}
	return RegisterNames[r]
}

// Disassemble decodes word and renders it in the normative textual form
// from spec §6: lower-case mnemonic, `$zero`-style register names,
// R-type `op $rd, $rs, $rt`, immediate arithmetic `op $rt, $rs, imm`
// (decimal, signed where applicable), loads/stores `op $rt, imm($rs)`,
// branches `op $rs, $rt, offset`, jumps `op 0xHEX`.
func Disassemble(word uint32) string {
	return (&Decoder{}).Decode(word, 0).Disassemble()
}

// Disassemble renders the already-decoded instruction in the spec's
// normative textual form.
func (i *Instruction) Disassemble() string {
	if i.Op == OpUNKNOWN {
		return fmt.Sprintf("unknown 0x%08X", i.Raw)
	}

	mnemonic := mnemonics[i.Op]

	switch i.Op {
	case OpNOP:
		return "nop"

	case OpADD, OpSUB, OpAND, OpOR, OpNOR, OpXOR, OpSLT, OpSLTU:
		return fmt.Sprintf("%s %s, %s, %s", mnemonic, regName(i.Rd), regName(i.Rs), regName(i.Rt))

	case OpSLL, OpSRL, OpSRA:
		return fmt.Sprintf("%s %s, %s, %d", mnemonic, regName(i.Rd), regName(i.Rt), i.Shamt)

	case OpJR:
		return fmt.Sprintf("jr %s", regName(i.Rs))
	case OpJALR:
		return fmt.Sprintf("jalr %s, %s", regName(i.Rd), regName(i.Rs))

	case OpADDI, OpADDIU, OpSLTI, OpSLTIU:
		return fmt.Sprintf("%s %s, %s, %d", mnemonic, regName(i.Rt), regName(i.Rs), i.ImmS())
	case OpANDI, OpORI, OpXORI:
		return fmt.Sprintf("%s %s, %s, %d", mnemonic, regName(i.Rt), regName(i.Rs), i.ImmU)
	case OpLUI:
		return fmt.Sprintf("lui %s, %d", regName(i.Rt), i.ImmU)

	case OpLW, OpLH, OpLB, OpLBU, OpLHU, OpSW, OpSH, OpSB:
		return fmt.Sprintf("%s %s, %d(%s)", mnemonic, regName(i.Rt), i.ImmS(), regName(i.Rs))

	case OpBEQ, OpBNE:
		return fmt.Sprintf("%s %s, %s, %d", mnemonic, regName(i.Rs), regName(i.Rt), i.ImmS())
	case OpBLEZ, OpBGTZ, OpBLTZ, OpBGEZ:
		return fmt.Sprintf("%s %s, %d", mnemonic, regName(i.Rs), i.ImmS())

	case OpJ, OpJAL:
		return fmt.Sprintf("%s 0x%X", mnemonic, i.JTarget<<2)
	}

	return fmt.Sprintf("unknown 0x%08X", i.Raw)
}

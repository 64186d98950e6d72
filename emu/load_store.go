package emu

import "github.com/sarchlab/mipssim/insts"

// LoadValue reads from memory according to a decoded load op, returning
// the 32-bit value to write into rt (sign- or zero-extended as the op
// requires).
func LoadValue(mem *Memory, op insts.Op, addr uint32) uint32 {
	switch op {
	case insts.OpLW:
		return mem.ReadWord(addr)
	case insts.OpLH:
		return uint32(int32(int16(mem.ReadHalf(addr))))
	case insts.OpLHU:
		return uint32(mem.ReadHalf(addr))
	case insts.OpLB:
		return uint32(int32(int8(mem.ReadByte(addr))))
	case insts.OpLBU:
		return uint32(mem.ReadByte(addr))
	default:
		return 0
	}
}

// StoreValue writes value to memory according to a decoded store op.
func StoreValue(mem *Memory, op insts.Op, addr uint32, value uint32) {
	switch op {
	case insts.OpSW:
		mem.WriteWord(addr, value)
	case insts.OpSH:
		mem.WriteHalf(addr, uint16(value))
	case insts.OpSB:
		mem.WriteByte(addr, uint8(value))
	}
}

// Package emu provides the functional MIPS-I register file, memory, ALU,
// and a non-pipelined reference interpreter.
package emu

// Register index constants for the special registers used by RegisterFile
// ($zero hard-wiring, $sp/$gp default-value reset) and by the execution
// paths ($ra as JAL's link register).
const (
	RegZero = 0
	RegGP   = 28
	RegSP   = 29
	RegRA   = 31
)

// Default values special registers are reloaded to on reset, following the
// conventional MIPS runtime layout: the stack grows down from just under
// the top of a 2^31-byte user address space, and $gp points into a
// nominal static-data segment.
const (
	DefaultStackPointer uint32 = 0x7FFFEFFC
	DefaultGlobalPointer uint32 = 0x10008000
)

// RegisterFile holds the 32 MIPS-I general-purpose registers. Register 0
// ($zero) is hard-wired: reads always return 0 and writes are silently
// discarded.
type RegisterFile struct {
	regs [32]uint32
}

// NewRegisterFile creates a register file with $sp and $gp loaded to their
// conventional default values, per spec.
func NewRegisterFile() *RegisterFile {
	r := &RegisterFile{}
	r.Reset()
	return r
}

// Read returns the value at index idx. Index 0 always reads as 0.
func (r *RegisterFile) Read(idx uint8) uint32 {
	if idx == RegZero {
		return 0
	}
	return r.regs[idx&0x1F]
}

// Write stores value at index idx. Writes to index 0 are no-ops.
func (r *RegisterFile) Write(idx uint8, value uint32) {
	if idx == RegZero {
		return
	}
	r.regs[idx&0x1F] = value
}

// Snapshot returns a copy of all 32 register values for inspection.
func (r *RegisterFile) Snapshot() [32]uint32 {
	return r.regs
}

// Reset zeroes all registers, then reloads $sp and $gp to their defaults.
func (r *RegisterFile) Reset() {
	r.regs = [32]uint32{}
	r.regs[RegSP] = DefaultStackPointer
	r.regs[RegGP] = DefaultGlobalPointer
}

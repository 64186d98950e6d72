// Package core provides the top-level cycle-accurate CPU model. It owns
// the register file, memory, and pipeline, and exposes step/run/reset and
// debug state inspection over both execution paths: the timed 5-stage
// pipeline and a direct single-cycle-per-instruction interpreter.
package core

import (
	"github.com/sarchlab/mipssim/emu"
	"github.com/sarchlab/mipssim/insts"
	"github.com/sarchlab/mipssim/timing/pipeline"
)

// DefaultSafetyCap bounds Run when the caller passes maxCycles == 0.
const DefaultSafetyCap uint64 = 1_000_000

// DefaultBaseAddress is the program load address used when Config doesn't
// specify one.
const DefaultBaseAddress uint32 = 0x00400000

// Config configures a new Core.
type Config struct {
	// MemoryBytes is the size of the addressable region starting at
	// BaseAddress: the program image and any data it touches must fit
	// within [BaseAddress, BaseAddress+MemoryBytes). The underlying
	// Memory is allocated large enough to hold that whole range.
	MemoryBytes     uint32
	BaseAddress     uint32
	PipelineEnabled bool
	Predictor       pipeline.PredictorConfig
}

// capacityBytes returns the total byte capacity Memory must allocate so
// that BaseAddress itself, and MemoryBytes beyond it, are both addressable.
func (c Config) capacityBytes() uint32 {
	return c.BaseAddress + c.MemoryBytes
}

// DefaultConfig returns the engine's default configuration: a 1 MiB
// addressable region starting at program base 0x00400000, pipeline
// enabled, 2-bit bimodal prediction.
func DefaultConfig() Config {
	return Config{
		MemoryBytes:     emu.DefaultMemoryBytes,
		BaseAddress:     DefaultBaseAddress,
		PipelineEnabled: true,
		Predictor:       pipeline.PredictorConfig{Tag: pipeline.TagBimodal2Bit},
	}
}

// Stats reports aggregate performance counters for the active execution
// path.
type Stats struct {
	Cycles       uint64
	Instructions uint64
	CPI          float64
	Anomalies    uint64

	Hazards   pipeline.Stats
	Predictor pipeline.PredictorStats
}

// Core is the top-level simulated machine.
type Core struct {
	cfg Config

	regs *emu.RegisterFile
	mem  *emu.Memory

	interp *emu.Interpreter
	pipe   *pipeline.Pipeline

	pipelineEnabled bool

	pc           uint32
	programWords int

	cycleCount       uint64
	instructionCount uint64
	anomalyCount     uint64

	halted bool
}

// NewCore creates a Core with the given configuration, freshly loaded
// with no program.
func NewCore(cfg Config) *Core {
	regs := emu.NewRegisterFile()
	mem := emu.NewMemory(emu.WithMemoryBytes(cfg.capacityBytes()))

	c := &Core{
		cfg:             cfg,
		regs:            regs,
		mem:             mem,
		interp:          emu.NewInterpreter(regs, mem),
		pipelineEnabled: cfg.PipelineEnabled,
		pc:              cfg.BaseAddress,
	}
	c.newPipeline()

	return c
}

func (c *Core) newPipeline() {
	c.pipe = pipeline.NewPipeline(c.regs, c.mem,
		pipeline.WithPredictor(pipeline.NewBranchPredictor(c.cfg.Predictor)))
	c.pipe.SetPC(c.pc)
	c.pipe.SetProgramBounds(c.cfg.BaseAddress, c.programWords)
}

// Load clears all state, writes words into memory at the configured base
// address, and resets PC to that base.
func (c *Core) Load(words []uint32) {
	c.regs.Reset()
	c.mem.Reset()
	c.mem.LoadWords(c.cfg.BaseAddress, words)

	c.programWords = len(words)
	c.pc = c.cfg.BaseAddress
	c.cycleCount = 0
	c.instructionCount = 0
	c.anomalyCount = 0
	c.halted = false

	c.newPipeline()
}

// Step advances exactly one cycle and reports whether the core is still
// running (false once halted).
func (c *Core) Step() bool {
	if c.halted {
		return false
	}

	if c.pipelineEnabled {
		progressed := c.pipe.Tick()
		c.halted = c.pipe.Halted()
		return progressed && !c.halted
	}

	if c.pc >= c.cfg.BaseAddress+uint32(c.programWords)*4 {
		c.halted = true
		return false
	}

	result := c.interp.Step(c.pc)
	c.pc = result.NextPC
	c.cycleCount++
	c.instructionCount++
	if result.Anomaly {
		c.anomalyCount++
	}
	return true
}

// Run steps until halted or maxCycles cycles have elapsed. maxCycles == 0
// uses DefaultSafetyCap.
func (c *Core) Run(maxCycles uint64) {
	if maxCycles == 0 {
		maxCycles = DefaultSafetyCap
	}

	for i := uint64(0); i < maxCycles; i++ {
		if !c.Step() {
			return
		}
	}
}

// Reset returns the core to its initial state (registers, memory, PC,
// counters, pipeline latches and predictor), preserving configuration.
func (c *Core) Reset() {
	c.regs.Reset()
	c.mem.Reset()
	c.pc = c.cfg.BaseAddress
	c.cycleCount = 0
	c.instructionCount = 0
	c.anomalyCount = 0
	c.halted = false
	c.newPipeline()
}

// SetRegister pokes a register value directly, for debugging and tests.
func (c *Core) SetRegister(idx uint8, value uint32) {
	c.regs.Write(idx, value)
}

// GetRegister reads a register value directly.
func (c *Core) GetRegister(idx uint8) uint32 {
	return c.regs.Read(idx)
}

// SetMemoryWord pokes a memory word directly, for debugging and tests.
func (c *Core) SetMemoryWord(addr, value uint32) {
	c.mem.WriteWord(addr, value)
}

// GetMemoryWord reads a memory word directly.
func (c *Core) GetMemoryWord(addr uint32) uint32 {
	return c.mem.ReadWord(addr)
}

// PC returns the current program counter.
func (c *Core) PC() uint32 {
	if c.pipelineEnabled {
		return c.pipe.PC()
	}
	return c.pc
}

// Halted reports whether the core has finished executing the program.
func (c *Core) Halted() bool {
	return c.halted
}

// EnablePipeline switches between the timed pipeline and the direct
// interpreter. Both paths execute against the same register file and
// memory and must reach the same final state for hazard-free programs.
func (c *Core) EnablePipeline(enabled bool) {
	c.pipelineEnabled = enabled
	if enabled {
		c.newPipeline()
	}
}

// PipelineEnabled reports which execution path is active.
func (c *Core) PipelineEnabled() bool {
	return c.pipelineEnabled
}

// Stats returns aggregate performance counters for the active execution
// path. The interpreter path reports CPI of 1 and empty hazard/predictor
// stats, since it has no pipeline or predictor to measure.
func (c *Core) Stats() Stats {
	if c.pipelineEnabled {
		ps := c.pipe.Stats()
		return Stats{
			Cycles:       ps.Cycles,
			Instructions: ps.Instructions,
			CPI:          ps.CPI,
			Anomalies:    ps.Anomalies,
			Hazards:      ps.Hazards,
			Predictor:    ps.Predictor,
		}
	}

	cpi := 0.0
	if c.instructionCount > 0 {
		cpi = float64(c.cycleCount) / float64(c.instructionCount)
	}
	return Stats{Cycles: c.cycleCount, Instructions: c.instructionCount, CPI: cpi, Anomalies: c.anomalyCount}
}

// Disassemble renders word in the engine's normative textual form.
func (c *Core) Disassemble(word uint32) string {
	return insts.Disassemble(word)
}

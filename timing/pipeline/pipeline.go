// Package pipeline provides the classic 5-stage in-order MIPS-I pipeline:
// IF, ID, EX, MEM, WB, with hazard detection, operand forwarding, load-use
// stalling, and branch/jump flush-and-redirect.
package pipeline

import (
	"github.com/sarchlab/mipssim/emu"
)

// Pipeline is a 5-stage in-order MIPS-I pipeline.
type Pipeline struct {
	fetchStage     *FetchStage
	decodeStage    *DecodeStage
	executeStage   *ExecuteStage
	memoryStage    *MemoryStage
	writebackStage *WritebackStage

	hazardUnit *HazardUnit
	predictor  BranchPredictor

	regs *emu.RegisterFile
	mem  *emu.Memory

	ifid  IFIDRegister
	idex  IDEXRegister
	exmem EXMEMRegister
	memwb MEMWBRegister

	nextIfid  IFIDRegister
	nextIdex  IDEXRegister
	nextExmem EXMEMRegister
	nextMemwb MEMWBRegister

	pc uint32

	baseAddress  uint32
	programWords int

	cycleCount       uint64
	instructionCount uint64
	anomalyCount     uint64

	halted   bool
	exitCode int
}

// PipelineOption configures a Pipeline at construction time.
type PipelineOption func(*Pipeline)

// WithPredictor overrides the default branch predictor.
func WithPredictor(predictor BranchPredictor) PipelineOption {
	return func(p *Pipeline) {
		p.predictor = predictor
	}
}

// NewPipeline creates a new 5-stage pipeline over the given register file
// and memory. The default predictor is a 2-bit bimodal counter table.
func NewPipeline(regs *emu.RegisterFile, mem *emu.Memory, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		fetchStage:     NewFetchStage(mem),
		decodeStage:    NewDecodeStage(regs),
		executeStage:   NewExecuteStage(),
		memoryStage:    NewMemoryStage(mem),
		writebackStage: NewWritebackStage(regs),
		hazardUnit:     NewHazardUnit(),
		predictor:      NewBranchPredictor(PredictorConfig{Tag: TagBimodal2Bit}),
		regs:           regs,
		mem:            mem,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// SetPC sets the program counter (fetch address for the next Tick).
func (p *Pipeline) SetPC(pc uint32) {
	p.pc = pc
}

// PC returns the current program counter.
func (p *Pipeline) PC() uint32 {
	return p.pc
}

// SetProgramBounds records the loaded program's address range, used to
// decide when the pipeline has run off the end of the image.
func (p *Pipeline) SetProgramBounds(base uint32, words int) {
	p.baseAddress = base
	p.programWords = words
}

// Halted reports whether the pipeline has reached the end of the program
// and fully drained.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// ExitCode returns 0; MIPS-I as modeled here has no syscall exit path, so
// completion is always clean.
func (p *Pipeline) ExitCode() int {
	return p.exitCode
}

// PipelineStats reports pipeline-level performance counters.
type PipelineStats struct {
	Cycles       uint64
	Instructions uint64
	CPI          float64
	Anomalies    uint64

	Hazards   Stats
	Predictor PredictorStats
}

// Stats returns a snapshot of the pipeline's performance counters.
func (p *Pipeline) Stats() PipelineStats {
	s := PipelineStats{
		Cycles:       p.cycleCount,
		Instructions: p.instructionCount,
		Anomalies:    p.anomalyCount,
		Hazards:      p.hazardUnit.Stats(),
		Predictor:    p.predictor.Stats(),
	}
	if s.Instructions > 0 {
		s.CPI = float64(s.Cycles) / float64(s.Instructions)
	}
	return s
}

func (p *Pipeline) programEnd() uint32 {
	return p.baseAddress + uint32(p.programWords)*4
}

func (p *Pipeline) latchesDrained() bool {
	return !p.ifid.Valid && !p.idex.Valid && !p.exmem.Valid && !p.memwb.Valid
}

// Tick advances the pipeline by one cycle, running WB, MEM, EX, ID, then IF
// in that order so that a same-cycle register write is visible to a
// same-cycle read, then resolves stalls and flushes, then commits the
// next-cycle latches.
func (p *Pipeline) Tick() bool {
	if p.halted {
		return false
	}

	if p.pc >= p.programEnd() && p.latchesDrained() {
		p.halted = true
		return false
	}

	p.cycleCount++

	p.doWriteback()
	p.doMemory()
	exFlush := p.doExecute()
	decFlush := p.doDecode(exFlush.ControlFlush)
	p.doFetch(decFlush, exFlush)

	stalls := p.hazardUnit.ComputeStalls(decFlush.LoadUseHazard, exFlush.ControlFlush || decFlush.JumpFlush, exFlush.TwoBubble)

	if stalls.StallIF {
		p.nextIfid = p.ifid
	}
	if stalls.StallID || stalls.InsertBubbleEX {
		p.nextIdex.Clear()
	}
	if stalls.FlushIF {
		p.nextIfid.Clear()
	}
	if stalls.FlushID {
		p.nextIdex.Clear()
	}

	p.ifid = p.nextIfid
	p.idex = p.nextIdex
	p.exmem = p.nextExmem
	p.memwb = p.nextMemwb

	switch {
	case exFlush.ControlFlush:
		p.pc = exFlush.RedirectPC
	case decFlush.JumpFlush:
		p.pc = decFlush.RedirectPC
	case decFlush.LoadUseHazard:
		// PC holds; the same word is refetched next cycle.
	default:
		p.pc = decFlush.SpeculativeNextPC
	}

	return true
}

// executeFlush describes a control-flow correction resolved in EX: a
// mispredicted branch, or a JR/JALR target (never predicted, always
// a 2-bubble redirect once the register value is known).
type executeFlush struct {
	ControlFlush bool
	TwoBubble    bool
	RedirectPC   uint32
}

// doExecute runs the EX stage: applies forwarding, computes the ALU
// result, and resolves branch/JR/JALR outcomes against the predictor.
func (p *Pipeline) doExecute() executeFlush {
	if !p.idex.Valid {
		p.nextExmem.Clear()
		return executeFlush{}
	}

	forwarding := p.hazardUnit.DetectForwarding(&p.idex, &p.exmem, &p.memwb)
	rsVal := p.hazardUnit.GetForwardedValue(forwarding.ForwardRs, p.idex.RsValue, &p.exmem, &p.memwb)
	rtVal := p.hazardUnit.GetForwardedValue(forwarding.ForwardRt, p.idex.RtValue, &p.exmem, &p.memwb)

	result := p.executeStage.Execute(&p.idex, rsVal, rtVal)

	p.nextExmem = EXMEMRegister{
		Valid:      true,
		PC:         p.idex.PC,
		Inst:       p.idex.Inst,
		ALUResult:  result.ALUResult,
		StoreValue: result.StoreValue,
		WriteReg:   p.idex.WriteReg,
		Zero:       result.Zero,
		RegWrite:   p.idex.RegWrite,
		MemRead:    p.idex.MemRead,
		MemWrite:   p.idex.MemWrite,
		MemToReg:   p.idex.MemToReg,
	}

	flush := executeFlush{}

	switch {
	case result.IsBranch:
		predictedTaken := p.predictor.Predict(p.idex.PC, result.BranchTarget)
		p.predictor.Update(p.idex.PC, result.BranchTaken, result.BranchTarget)

		actualNext := p.idex.PC + 4
		if result.BranchTaken {
			actualNext = result.BranchTarget
		}

		if predictedTaken != result.BranchTaken {
			flush.ControlFlush = true
			flush.TwoBubble = true
			flush.RedirectPC = actualNext
		}

	case result.IsJumpReg:
		flush.ControlFlush = true
		flush.TwoBubble = true
		flush.RedirectPC = result.JumpRegTarget
	}

	return flush
}

// decodeFlush describes what ID produced this cycle: the load-use stall
// decision, the speculative next-fetch PC (branch-predicted or sequential),
// and the one-bubble redirect for a directly-resolved J/JAL.
type decodeFlush struct {
	LoadUseHazard     bool
	JumpFlush         bool
	RedirectPC        uint32
	SpeculativeNextPC uint32
}

// doDecode runs the ID stage: decodes IF/ID's word, reads source operands,
// detects load-use hazards against the instruction currently in ID/EX, and
// resolves unconditional jumps (whose target needs no register read).
// exControlFlush suppresses all of this when EX is about to flush IF/ID
// out from under it.
func (p *Pipeline) doDecode(exControlFlush bool) decodeFlush {
	result := decodeFlush{SpeculativeNextPC: p.pc + 4}

	if !p.ifid.Valid || exControlFlush {
		p.nextIdex.Clear()
		return result
	}

	dec := p.decodeStage.Decode(p.ifid.InstructionWord, p.ifid.PC)
	if dec.Inst.IsUnknown {
		p.anomalyCount++
	}

	if p.idex.Valid && p.idex.MemRead {
		result.LoadUseHazard = p.hazardUnit.DetectLoadUseHazardDecoded(
			p.idex.WriteReg, dec.Inst.Rs, dec.Inst.Rt, dec.Inst.ReadsRs, dec.Inst.ReadsRt)
	}

	if result.LoadUseHazard {
		return result
	}

	p.nextIdex = IDEXRegister{
		Valid:    true,
		PC:       p.ifid.PC,
		Inst:     dec.Inst,
		RsValue:  dec.RsValue,
		RtValue:  dec.RtValue,
		ImmS:     dec.ImmS,
		Rs:       dec.Inst.Rs,
		Rt:       dec.Inst.Rt,
		WriteReg: dec.WriteReg,
		RegWrite: dec.RegWrite,
		MemRead:  dec.MemRead,
		MemWrite: dec.MemWrite,
		MemToReg: dec.MemToReg,
		IsBranch: dec.IsBranch,
		IsJump:   dec.IsJump,
	}

	switch {
	case dec.IsJump:
		result.JumpFlush = true
		result.RedirectPC = emu.ResolveJumpTarget(dec.Inst)

	case dec.IsBranch:
		target := uint32(int32(p.ifid.PC) + 4 + (dec.ImmS << 2))
		if p.predictor.Predict(p.ifid.PC, target) {
			result.SpeculativeNextPC = target
		}
	}

	return result
}

// doFetch runs the IF stage: fetches the word at pc unless the program
// image has been exhausted, then discards the fetch if this cycle turned
// out to redirect control flow (the fetched word was on the wrong path).
func (p *Pipeline) doFetch(dec decodeFlush, ex executeFlush) {
	p.nextIfid = IFIDRegister{}

	if dec.LoadUseHazard {
		return
	}

	if p.pc < p.programEnd() {
		word := p.fetchStage.Fetch(p.pc)
		p.nextIfid = IFIDRegister{Valid: true, PC: p.pc, InstructionWord: word}
	}

	if ex.ControlFlush || dec.JumpFlush {
		p.nextIfid = IFIDRegister{}
	}
}

// doMemory runs the MEM stage: performs the load or store EX/MEM
// describes.
func (p *Pipeline) doMemory() {
	if !p.exmem.Valid {
		p.nextMemwb.Clear()
		return
	}

	result := p.memoryStage.Access(&p.exmem)

	p.nextMemwb = MEMWBRegister{
		Valid:     true,
		PC:        p.exmem.PC,
		Inst:      p.exmem.Inst,
		ALUResult: p.exmem.ALUResult,
		MemData:   result.MemData,
		WriteReg:  p.exmem.WriteReg,
		RegWrite:  p.exmem.RegWrite,
		MemToReg:  p.exmem.MemToReg,
	}
}

// doWriteback runs the WB stage: commits MEM/WB's result to the register
// file and counts the retiring instruction.
func (p *Pipeline) doWriteback() {
	if !p.memwb.Valid {
		return
	}

	p.writebackStage.Writeback(&p.memwb)
	p.instructionCount++
}

// Run ticks the pipeline until it halts, or until maxCycles cycles have
// elapsed if maxCycles is nonzero.
func (p *Pipeline) Run(maxCycles uint64) {
	for !p.halted {
		if maxCycles != 0 && p.cycleCount >= maxCycles {
			return
		}
		p.Tick()
	}
}

// RunCycles ticks the pipeline n times or until it halts, whichever comes
// first, and reports whether it is still running.
func (p *Pipeline) RunCycles(n uint64) bool {
	for i := uint64(0); i < n && !p.halted; i++ {
		p.Tick()
	}
	return !p.halted
}

// GetIFID returns the current IF/ID latch for inspection.
func (p *Pipeline) GetIFID() IFIDRegister { return p.ifid }

// GetIDEX returns the current ID/EX latch for inspection.
func (p *Pipeline) GetIDEX() IDEXRegister { return p.idex }

// GetEXMEM returns the current EX/MEM latch for inspection.
func (p *Pipeline) GetEXMEM() EXMEMRegister { return p.exmem }

// GetMEMWB returns the current MEM/WB latch for inspection.
func (p *Pipeline) GetMEMWB() MEMWBRegister { return p.memwb }

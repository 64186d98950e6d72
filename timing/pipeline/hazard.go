package pipeline

// HazardUnit detects data and control hazards and decides forwarding,
// stalling, and flushing for one cycle.
type HazardUnit struct {
	dataHazards      uint64
	controlHazards   uint64
	forwardingEvents uint64
	stallsInserted   uint64
	flushesPerformed uint64
}

// NewHazardUnit creates a new hazard detection unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// ForwardingSource indicates where to source an ALU operand from.
type ForwardingSource uint8

const (
	// ForwardNone means no forwarding; use the register-file value.
	ForwardNone ForwardingSource = iota
	// ForwardFromEXMEM forwards from the EX/MEM latch.
	ForwardFromEXMEM
	// ForwardFromMEMWB forwards from the MEM/WB latch.
	ForwardFromMEMWB
)

// ForwardingResult is the forwarding decision for both ALU source operands.
type ForwardingResult struct {
	ForwardRs ForwardingSource
	ForwardRt ForwardingSource
}

// DetectForwarding determines, for the instruction currently in ID/EX,
// whether either of its two source operands should be forwarded from
// EX/MEM or MEM/WB instead of read from the register file. Priority is
// EX/MEM (most recent) over MEM/WB. Register $zero (0) is never forwarded.
func (h *HazardUnit) DetectForwarding(idex *IDEXRegister, exmem *EXMEMRegister, memwb *MEMWBRegister) ForwardingResult {
	result := ForwardingResult{}

	if !idex.Valid {
		return result
	}

	if idex.Rs != 0 {
		if exmem.Valid && exmem.RegWrite && exmem.WriteReg == idex.Rs {
			result.ForwardRs = ForwardFromEXMEM
		} else if memwb.Valid && memwb.RegWrite && memwb.WriteReg == idex.Rs {
			result.ForwardRs = ForwardFromMEMWB
		}
	}

	if idex.Rt != 0 {
		if exmem.Valid && exmem.RegWrite && exmem.WriteReg == idex.Rt {
			result.ForwardRt = ForwardFromEXMEM
		} else if memwb.Valid && memwb.RegWrite && memwb.WriteReg == idex.Rt {
			result.ForwardRt = ForwardFromMEMWB
		}
	}

	if result.ForwardRs != ForwardNone {
		h.forwardingEvents++
	}
	if result.ForwardRt != ForwardNone {
		h.forwardingEvents++
	}

	return result
}

// DetectLoadUseHazardDecoded reports whether the load currently in ID/EX
// (destination loadRd) feeds either source operand of the instruction
// currently in IF/ID, which forwarding alone cannot resolve because the
// loaded value isn't available until MEM.
func (h *HazardUnit) DetectLoadUseHazardDecoded(loadRd, nextRs, nextRt uint8, nextUsesRs, nextUsesRt bool) bool {
	if loadRd == 0 {
		return false
	}

	hazard := (nextUsesRs && nextRs == loadRd) || (nextUsesRt && nextRt == loadRd)
	if hazard {
		h.dataHazards++
	}
	return hazard
}

// GetForwardedValue resolves a ForwardingSource decision to a concrete
// operand value.
func (h *HazardUnit) GetForwardedValue(source ForwardingSource, originalValue uint32, exmem *EXMEMRegister, memwb *MEMWBRegister) uint32 {
	switch source {
	case ForwardFromEXMEM:
		return exmem.ALUResult
	case ForwardFromMEMWB:
		if memwb.MemToReg {
			return memwb.MemData
		}
		return memwb.ALUResult
	default:
		return originalValue
	}
}

// StallResult indicates what pipeline control actions a cycle must take.
type StallResult struct {
	StallIF        bool
	StallID        bool
	InsertBubbleEX bool

	// FlushIF and FlushID invalidate IF/ID and ID/EX respectively. Both
	// are set for a two-bubble misprediction (branches, JR/JALR); only
	// FlushIF is set for a one-bubble direct jump (J/JAL), which resolves
	// at ID before ID/EX is latched.
	FlushIF bool
	FlushID bool
}

// ComputeStalls turns the load-use and control-hazard booleans into the
// concrete stall/flush actions for this cycle.
func (h *HazardUnit) ComputeStalls(loadUseHazard bool, controlFlush bool, twoBubble bool) StallResult {
	result := StallResult{}

	if loadUseHazard {
		result.StallIF = true
		result.StallID = true
		result.InsertBubbleEX = true
		h.stallsInserted++
	}

	if controlFlush {
		h.controlHazards++
		h.flushesPerformed++
		result.FlushIF = true
		if twoBubble {
			result.FlushID = true
		}
	}

	return result
}

// Stats reports hazard-unit counters for inspection via Core.Stats.
type Stats struct {
	DataHazards      uint64
	ControlHazards   uint64
	ForwardingEvents uint64
	StallsInserted   uint64
	FlushesPerformed uint64
}

// Stats returns a snapshot of this HazardUnit's counters.
func (h *HazardUnit) Stats() Stats {
	return Stats{
		DataHazards:      h.dataHazards,
		ControlHazards:   h.controlHazards,
		ForwardingEvents: h.forwardingEvents,
		StallsInserted:   h.stallsInserted,
		FlushesPerformed: h.flushesPerformed,
	}
}

// Reset zeroes all counters.
func (h *HazardUnit) Reset() {
	*h = HazardUnit{}
}

package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipssim/insts"
	"github.com/sarchlab/mipssim/timing/pipeline"
)

var _ = Describe("HazardUnit", func() {
	var hazardUnit *pipeline.HazardUnit

	BeforeEach(func() {
		hazardUnit = pipeline.NewHazardUnit()
	})

	Describe("DetectForwarding", func() {
		var idex *pipeline.IDEXRegister
		var exmem *pipeline.EXMEMRegister
		var memwb *pipeline.MEMWBRegister

		BeforeEach(func() {
			idex = &pipeline.IDEXRegister{Valid: true, Rs: 1, Rt: 2}
			exmem = &pipeline.EXMEMRegister{}
			memwb = &pipeline.MEMWBRegister{}
		})

		Context("when no forwarding is needed", func() {
			It("returns ForwardNone for both operands", func() {
				result := hazardUnit.DetectForwarding(idex, exmem, memwb)

				Expect(result.ForwardRs).To(Equal(pipeline.ForwardNone))
				Expect(result.ForwardRt).To(Equal(pipeline.ForwardNone))
			})
		})

		Context("when forwarding from EX/MEM is needed", func() {
			It("forwards Rs from EX/MEM", func() {
				exmem.Valid = true
				exmem.RegWrite = true
				exmem.WriteReg = 1

				result := hazardUnit.DetectForwarding(idex, exmem, memwb)

				Expect(result.ForwardRs).To(Equal(pipeline.ForwardFromEXMEM))
				Expect(result.ForwardRt).To(Equal(pipeline.ForwardNone))
			})

			It("forwards Rt from EX/MEM", func() {
				exmem.Valid = true
				exmem.RegWrite = true
				exmem.WriteReg = 2

				result := hazardUnit.DetectForwarding(idex, exmem, memwb)

				Expect(result.ForwardRs).To(Equal(pipeline.ForwardNone))
				Expect(result.ForwardRt).To(Equal(pipeline.ForwardFromEXMEM))
			})

			It("forwards both operands from EX/MEM when they match the same register", func() {
				idex.Rs = 3
				idex.Rt = 3
				exmem.Valid = true
				exmem.RegWrite = true
				exmem.WriteReg = 3

				result := hazardUnit.DetectForwarding(idex, exmem, memwb)

				Expect(result.ForwardRs).To(Equal(pipeline.ForwardFromEXMEM))
				Expect(result.ForwardRt).To(Equal(pipeline.ForwardFromEXMEM))
			})
		})

		Context("when forwarding from MEM/WB is needed", func() {
			It("forwards Rs from MEM/WB", func() {
				memwb.Valid = true
				memwb.RegWrite = true
				memwb.WriteReg = 1

				result := hazardUnit.DetectForwarding(idex, exmem, memwb)

				Expect(result.ForwardRs).To(Equal(pipeline.ForwardFromMEMWB))
			})

			It("forwards Rt from MEM/WB", func() {
				memwb.Valid = true
				memwb.RegWrite = true
				memwb.WriteReg = 2

				result := hazardUnit.DetectForwarding(idex, exmem, memwb)

				Expect(result.ForwardRt).To(Equal(pipeline.ForwardFromMEMWB))
			})
		})

		Context("priority: EX/MEM over MEM/WB", func() {
			It("prioritizes EX/MEM when both match", func() {
				exmem.Valid = true
				exmem.RegWrite = true
				exmem.WriteReg = 1

				memwb.Valid = true
				memwb.RegWrite = true
				memwb.WriteReg = 1

				result := hazardUnit.DetectForwarding(idex, exmem, memwb)

				Expect(result.ForwardRs).To(Equal(pipeline.ForwardFromEXMEM))
			})
		})

		Context("$zero handling", func() {
			It("never forwards when the source register is $zero", func() {
				idex.Rs = 0
				exmem.Valid = true
				exmem.RegWrite = true
				exmem.WriteReg = 0

				result := hazardUnit.DetectForwarding(idex, exmem, memwb)

				Expect(result.ForwardRs).To(Equal(pipeline.ForwardNone))
			})

			It("never forwards when the destination is $zero", func() {
				idex.Rs = 5
				exmem.Valid = true
				exmem.RegWrite = true
				exmem.WriteReg = 0

				result := hazardUnit.DetectForwarding(idex, exmem, memwb)

				Expect(result.ForwardRs).To(Equal(pipeline.ForwardNone))
			})
		})

		Context("invalid pipeline registers", func() {
			It("does not forward when ID/EX is invalid", func() {
				idex.Valid = false
				exmem.Valid = true
				exmem.RegWrite = true
				exmem.WriteReg = 1

				result := hazardUnit.DetectForwarding(idex, exmem, memwb)

				Expect(result.ForwardRs).To(Equal(pipeline.ForwardNone))
			})

			It("does not forward when EX/MEM is invalid", func() {
				exmem.Valid = false
				exmem.RegWrite = true
				exmem.WriteReg = 1

				result := hazardUnit.DetectForwarding(idex, exmem, memwb)

				Expect(result.ForwardRs).To(Equal(pipeline.ForwardNone))
			})

			It("does not forward when EX/MEM RegWrite is false", func() {
				exmem.Valid = true
				exmem.RegWrite = false
				exmem.WriteReg = 1

				result := hazardUnit.DetectForwarding(idex, exmem, memwb)

				Expect(result.ForwardRs).To(Equal(pipeline.ForwardNone))
			})
		})
	})

	Describe("DetectLoadUseHazardDecoded", func() {
		Context("when there is no load-use hazard", func() {
			It("returns false when the load destination is $zero", func() {
				result := hazardUnit.DetectLoadUseHazardDecoded(0, 1, 2, true, true)
				Expect(result).To(BeFalse())
			})

			It("returns false when no registers match", func() {
				result := hazardUnit.DetectLoadUseHazardDecoded(5, 1, 2, true, true)
				Expect(result).To(BeFalse())
			})

			It("returns false when the next instruction doesn't read rs", func() {
				result := hazardUnit.DetectLoadUseHazardDecoded(1, 1, 2, false, true)
				Expect(result).To(BeFalse())
			})
		})

		Context("when there is a load-use hazard", func() {
			It("detects a hazard when rs matches the load destination", func() {
				result := hazardUnit.DetectLoadUseHazardDecoded(5, 5, 2, true, true)
				Expect(result).To(BeTrue())
			})

			It("detects a hazard when rt matches the load destination", func() {
				result := hazardUnit.DetectLoadUseHazardDecoded(5, 1, 5, true, true)
				Expect(result).To(BeTrue())
			})

			It("detects a hazard when both rs and rt match", func() {
				result := hazardUnit.DetectLoadUseHazardDecoded(5, 5, 5, true, true)
				Expect(result).To(BeTrue())
			})
		})
	})

	Describe("GetForwardedValue", func() {
		var exmem *pipeline.EXMEMRegister
		var memwb *pipeline.MEMWBRegister

		BeforeEach(func() {
			exmem = &pipeline.EXMEMRegister{Valid: true, ALUResult: 100}
			memwb = &pipeline.MEMWBRegister{Valid: true, ALUResult: 200, MemData: 300, MemToReg: false}
		})

		It("returns the original value for ForwardNone", func() {
			result := hazardUnit.GetForwardedValue(pipeline.ForwardNone, 42, exmem, memwb)
			Expect(result).To(Equal(uint32(42)))
		})

		It("returns the ALU result for ForwardFromEXMEM", func() {
			result := hazardUnit.GetForwardedValue(pipeline.ForwardFromEXMEM, 42, exmem, memwb)
			Expect(result).To(Equal(uint32(100)))
		})

		It("returns the ALU result for ForwardFromMEMWB when not loading", func() {
			result := hazardUnit.GetForwardedValue(pipeline.ForwardFromMEMWB, 42, exmem, memwb)
			Expect(result).To(Equal(uint32(200)))
		})

		It("returns MemData for ForwardFromMEMWB when MemToReg is set", func() {
			memwb.MemToReg = true
			result := hazardUnit.GetForwardedValue(pipeline.ForwardFromMEMWB, 42, exmem, memwb)
			Expect(result).To(Equal(uint32(300)))
		})
	})

	Describe("ComputeStalls", func() {
		Context("with no hazards", func() {
			It("neither stalls nor flushes", func() {
				result := hazardUnit.ComputeStalls(false, false, false)

				Expect(result.StallIF).To(BeFalse())
				Expect(result.StallID).To(BeFalse())
				Expect(result.InsertBubbleEX).To(BeFalse())
				Expect(result.FlushIF).To(BeFalse())
				Expect(result.FlushID).To(BeFalse())
			})
		})

		Context("with a load-use hazard", func() {
			It("stalls IF and ID and inserts a bubble into EX", func() {
				result := hazardUnit.ComputeStalls(true, false, false)

				Expect(result.StallIF).To(BeTrue())
				Expect(result.StallID).To(BeTrue())
				Expect(result.InsertBubbleEX).To(BeTrue())
			})
		})

		Context("with a one-bubble control flush (J/JAL)", func() {
			It("flushes only IF/ID", func() {
				result := hazardUnit.ComputeStalls(false, true, false)

				Expect(result.FlushIF).To(BeTrue())
				Expect(result.FlushID).To(BeFalse())
			})
		})

		Context("with a two-bubble control flush (branch or JR/JALR)", func() {
			It("flushes both IF/ID and ID/EX", func() {
				result := hazardUnit.ComputeStalls(false, true, true)

				Expect(result.FlushIF).To(BeTrue())
				Expect(result.FlushID).To(BeTrue())
			})
		})

		Context("with both a load-use hazard and a control flush", func() {
			It("handles both at once", func() {
				result := hazardUnit.ComputeStalls(true, true, true)

				Expect(result.StallIF).To(BeTrue())
				Expect(result.StallID).To(BeTrue())
				Expect(result.InsertBubbleEX).To(BeTrue())
				Expect(result.FlushIF).To(BeTrue())
				Expect(result.FlushID).To(BeTrue())
			})
		})
	})

	Describe("ForwardingSource constants", func() {
		It("has distinct values", func() {
			Expect(pipeline.ForwardNone).To(Equal(pipeline.ForwardingSource(0)))
			Expect(pipeline.ForwardFromEXMEM).To(Equal(pipeline.ForwardingSource(1)))
			Expect(pipeline.ForwardFromMEMWB).To(Equal(pipeline.ForwardingSource(2)))
		})
	})

	Describe("Stats and Reset", func() {
		It("accumulates counters across calls and zeroes them on Reset", func() {
			idex := &pipeline.IDEXRegister{Valid: true, Rs: 1}
			exmem := &pipeline.EXMEMRegister{Valid: true, RegWrite: true, WriteReg: 1}
			memwb := &pipeline.MEMWBRegister{}

			hazardUnit.DetectForwarding(idex, exmem, memwb)
			hazardUnit.DetectLoadUseHazardDecoded(5, 5, 0, true, false)
			hazardUnit.ComputeStalls(true, true, true)

			stats := hazardUnit.Stats()
			Expect(stats.ForwardingEvents).To(Equal(uint64(1)))
			Expect(stats.DataHazards).To(Equal(uint64(1)))
			Expect(stats.ControlHazards).To(Equal(uint64(1)))
			Expect(stats.StallsInserted).To(Equal(uint64(1)))
			Expect(stats.FlushesPerformed).To(Equal(uint64(1)))

			hazardUnit.Reset()
			Expect(hazardUnit.Stats()).To(Equal(pipeline.Stats{}))
		})
	})
})

var _ = Describe("Hazard Detection Integration", func() {
	var hazardUnit *pipeline.HazardUnit

	BeforeEach(func() {
		hazardUnit = pipeline.NewHazardUnit()
	})

	Context("RAW hazard scenarios", func() {
		It("detects add $t1,... followed by sub $t2,$t1,... using add's result", func() {
			idex := &pipeline.IDEXRegister{
				Valid: true,
				Inst:  &insts.Instruction{Op: insts.OpSUB},
				Rs:    1,
				Rt:    5,
			}

			exmem := &pipeline.EXMEMRegister{
				Valid:     true,
				Inst:      &insts.Instruction{Op: insts.OpADD},
				WriteReg:  1,
				RegWrite:  true,
				ALUResult: 100,
			}

			memwb := &pipeline.MEMWBRegister{}

			result := hazardUnit.DetectForwarding(idex, exmem, memwb)
			Expect(result.ForwardRs).To(Equal(pipeline.ForwardFromEXMEM))
		})

		It("detects lw followed by an instruction using the loaded register", func() {
			idex := &pipeline.IDEXRegister{Valid: true, MemRead: true, WriteReg: 1}

			hazard := hazardUnit.DetectLoadUseHazardDecoded(idex.WriteReg, 1, 4, true, true)

			Expect(hazard).To(BeTrue())
		})
	})

	Context("no-hazard scenarios", func() {
		It("does not detect a hazard between independent instructions", func() {
			idex := &pipeline.IDEXRegister{Valid: true, Rs: 6, Rt: 7}
			exmem := &pipeline.EXMEMRegister{Valid: true, WriteReg: 1, RegWrite: true}
			memwb := &pipeline.MEMWBRegister{}

			result := hazardUnit.DetectForwarding(idex, exmem, memwb)
			Expect(result.ForwardRs).To(Equal(pipeline.ForwardNone))
			Expect(result.ForwardRt).To(Equal(pipeline.ForwardNone))
		})
	})

	Context("store-data forwarding scenarios", func() {
		It("forwards rt from EX/MEM into a store in ID/EX", func() {
			idex := &pipeline.IDEXRegister{
				Valid:    true,
				Inst:     &insts.Instruction{Op: insts.OpSW},
				Rt:       1, // store data
				Rs:       4, // base address
				MemWrite: true,
			}

			exmem := &pipeline.EXMEMRegister{
				Valid:     true,
				Inst:      &insts.Instruction{Op: insts.OpADD},
				WriteReg:  1,
				RegWrite:  true,
				ALUResult: 42,
			}

			memwb := &pipeline.MEMWBRegister{}

			result := hazardUnit.DetectForwarding(idex, exmem, memwb)
			Expect(result.ForwardRt).To(Equal(pipeline.ForwardFromEXMEM))

			forwarded := hazardUnit.GetForwardedValue(result.ForwardRt, 0, exmem, memwb)
			Expect(forwarded).To(Equal(uint32(42)))
		})

		It("forwards rt from MEM/WB into a store in ID/EX", func() {
			idex := &pipeline.IDEXRegister{
				Valid:    true,
				Inst:     &insts.Instruction{Op: insts.OpSW},
				Rt:       1,
				Rs:       3,
				MemWrite: true,
			}

			exmem := &pipeline.EXMEMRegister{}

			memwb := &pipeline.MEMWBRegister{
				Valid:    true,
				Inst:     &insts.Instruction{Op: insts.OpLW},
				WriteReg: 1,
				RegWrite: true,
				MemToReg: true,
				MemData:  100,
			}

			result := hazardUnit.DetectForwarding(idex, exmem, memwb)
			Expect(result.ForwardRt).To(Equal(pipeline.ForwardFromMEMWB))

			forwarded := hazardUnit.GetForwardedValue(result.ForwardRt, 0, exmem, memwb)
			Expect(forwarded).To(Equal(uint32(100)))
		})
	})
})

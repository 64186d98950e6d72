package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipssim/emu"
	"github.com/sarchlab/mipssim/timing/pipeline"
)

const base = uint32(0x400000)

var _ = Describe("Pipeline", func() {
	var (
		regs *emu.RegisterFile
		mem  *emu.Memory
	)

	BeforeEach(func() {
		regs = emu.NewRegisterFile()
		mem = emu.NewMemory()
	})

	load := func(words []uint32, opts ...pipeline.PipelineOption) *pipeline.Pipeline {
		mem.LoadWords(base, words)
		p := pipeline.NewPipeline(regs, mem, opts...)
		p.SetPC(base)
		p.SetProgramBounds(base, len(words))
		return p
	}

	Describe("a hazard-free straight-line program", func() {
		It("retires every instruction and exposes Get* latch accessors while running", func() {
			words := []uint32{0x20020001, 0x20030002, 0x20040003} // addi $v0,1 ; addi $v1,2 ; addi $a0,3
			p := load(words)

			Expect(p.GetIFID().Valid).To(BeFalse())
			p.RunCycles(1)
			Expect(p.GetIFID().Valid).To(BeTrue())

			p.Run(0)

			Expect(p.Halted()).To(BeTrue())
			Expect(regs.Read(2)).To(Equal(uint32(1)))
			Expect(regs.Read(3)).To(Equal(uint32(2)))
			Expect(regs.Read(4)).To(Equal(uint32(3)))

			stats := p.Stats()
			Expect(stats.Instructions).To(Equal(uint64(3)))
			Expect(stats.Hazards.StallsInserted).To(Equal(uint64(0)))
			Expect(stats.Hazards.FlushesPerformed).To(Equal(uint64(0)))
			Expect(stats.Cycles).To(Equal(uint64(7))) // 5 stages + (3-1) with no bubbles
			Expect(stats.CPI).To(BeNumerically("~", 7.0/3.0, 1e-9))
		})
	})

	Describe("a load-use hazard", func() {
		It("stalls exactly one cycle and forwards the loaded value", func() {
			mem.WriteWord(0, 42)
			words := []uint32{0x8C080000, 0x01084820} // lw $t0,0($zero) ; add $t1,$t0,$t0
			p := load(words)

			p.Run(0)

			Expect(p.Halted()).To(BeTrue())
			Expect(regs.Read(9)).To(Equal(uint32(84)))
			Expect(p.Stats().Hazards.StallsInserted).To(Equal(uint64(1)))
			Expect(p.Stats().Hazards.DataHazards).To(Equal(uint64(1)))
		})
	})

	Describe("a mispredicted branch", func() {
		It("flushes two bubbles and redirects to the actual target", func() {
			words := []uint32{
				0x10000001, // beq $zero, $zero, 1   (always taken; default predictor starts not-taken)
				0x20020063, // addi $v0, $zero, 99   (must be skipped)
				0x20020001, // addi $v0, $zero, 1    (branch target)
			}
			p := load(words)

			p.Run(0)

			Expect(p.Halted()).To(BeTrue())
			Expect(regs.Read(2)).To(Equal(uint32(1)))

			stats := p.Stats()
			Expect(stats.Hazards.ControlHazards).To(Equal(uint64(1)))
			Expect(stats.Hazards.FlushesPerformed).To(Equal(uint64(1)))
			Expect(stats.Predictor.Mispredicted).To(Equal(uint64(1)))
		})
	})

	Describe("JAL", func() {
		It("resolves at ID with exactly one bubble and links the return address", func() {
			words := []uint32{
				0x0C100004, // jal 0x400010
				0x20020063, // addi $v0, $zero, 99  (must never execute: discarded bubble)
				0x20020062, // addi $v0, $zero, 98  (unreachable: jumped over)
				0x20020061, // addi $v0, $zero, 97  (unreachable: jumped over)
				0x200A0007, // addi $t2, $zero, 7   (jump target)
			}
			p := load(words)

			p.Run(0)

			Expect(p.Halted()).To(BeTrue())
			Expect(regs.Read(2)).To(Equal(uint32(0))) // $v0 untouched
			Expect(regs.Read(emu.RegRA)).To(Equal(base + 8))
			Expect(regs.Read(10)).To(Equal(uint32(7))) // $t2

			stats := p.Stats()
			Expect(stats.Hazards.ControlHazards).To(Equal(uint64(1)))
			Expect(stats.Hazards.FlushesPerformed).To(Equal(uint64(1)))
		})
	})

	Describe("JR", func() {
		It("resolves at EX with a two-bubble flush to the register target", func() {
			regs.Write(8, base+0x10) // $t0 holds the jump target
			words := []uint32{
				0x01000008, // jr $t0
				0x20020063, // addi $v0, $zero, 99 (bubble 1: discarded)
				0x20020062, // addi $v0, $zero, 98 (bubble 2: discarded)
				0x20020061, // addi $v0, $zero, 97 (unreachable)
				0x200B0005, // addi $t3, $zero, 5  (jump target)
			}
			p := load(words)

			p.Run(0)

			Expect(p.Halted()).To(BeTrue())
			Expect(regs.Read(2)).To(Equal(uint32(0)))
			Expect(regs.Read(11)).To(Equal(uint32(5))) // $t3

			stats := p.Stats()
			Expect(stats.Hazards.ControlHazards).To(Equal(uint64(1)))
		})
	})

	Describe("an unknown opcode", func() {
		It("is treated as a NOP and counted as an anomaly", func() {
			words := []uint32{0x0000003F, 0x20020005} // unknown R-type funct ; addi $v0, 5
			p := load(words)

			p.Run(0)

			Expect(p.Halted()).To(BeTrue())
			Expect(regs.Read(2)).To(Equal(uint32(5)))
			Expect(p.Stats().Anomalies).To(Equal(uint64(1)))
		})
	})

	Describe("Run with a cycle cap", func() {
		It("stops after the requested number of cycles on a self-jump", func() {
			p := load([]uint32{0x08100000}) // j 0x400000 (self)

			p.Run(20)

			Expect(p.Halted()).To(BeFalse())
			Expect(p.Stats().Cycles).To(Equal(uint64(20)))
		})
	})

	Describe("RunCycles", func() {
		It("reports whether the pipeline is still running", func() {
			words := []uint32{0x20020001}
			p := load(words)

			for p.RunCycles(1) {
			}

			Expect(p.Halted()).To(BeTrue())
		})
	})
})

// Command mipssim runs and inspects programs on the simulated machine.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/mipssim/insts"
	"github.com/sarchlab/mipssim/loader"
	"github.com/sarchlab/mipssim/timing/core"
	"github.com/sarchlab/mipssim/timing/pipeline"
)

var predictorTags = map[string]pipeline.PredictorTag{
	"static":     pipeline.TagStaticNT,
	"1bit":       pipeline.TagBimodal1Bit,
	"2bit":       pipeline.TagBimodal2Bit,
	"gshare":     pipeline.TagGshare,
	"local":      pipeline.TagLocal,
	"tournament": pipeline.TagTournament,
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "mipssim",
		Short: "mipssim — a cycle-accurate MIPS-I pipeline simulator",
	}

	var (
		usePipeline bool
		branchPred  bool
		predType    string
		maxCycles   uint64
	)

	addCoreFlags := func(cmd *cobra.Command) {
		cmd.Flags().BoolVar(&usePipeline, "pipeline", true, "execute on the timed 5-stage pipeline instead of the direct interpreter")
		cmd.Flags().BoolVar(&branchPred, "branch-pred", true, "enable dynamic branch prediction (static not-taken when disabled)")
		cmd.Flags().StringVar(&predType, "pred-type", "2bit", "predictor: static|1bit|2bit|gshare|local|tournament")
		cmd.Flags().Uint64Var(&maxCycles, "max-cycles", 0, "safety cap on cycles (0 = engine default)")
	}

	buildCore := func(path string) (*core.Core, error) {
		prog, err := loader.Load(path)
		if err != nil {
			return nil, err
		}

		cfg := core.DefaultConfig()
		cfg.PipelineEnabled = usePipeline
		if branchPred {
			tag, ok := predictorTags[predType]
			if !ok {
				return nil, fmt.Errorf("unknown --pred-type %q", predType)
			}
			cfg.Predictor = pipeline.PredictorConfig{Tag: tag}
		} else {
			cfg.Predictor = pipeline.PredictorConfig{Tag: pipeline.TagStaticNT}
		}

		c := core.NewCore(cfg)
		c.Load(prog.Words)
		return c, nil
	}

	runCmd := &cobra.Command{
		Use:   "run <program>",
		Short: "load and run a program to completion or the cycle cap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildCore(args[0])
			if err != nil {
				return err
			}

			c.Run(maxCycles)

			stats := c.Stats()
			fmt.Printf("halted: %v\n", c.Halted())
			fmt.Printf("cycles: %d\n", stats.Cycles)
			fmt.Printf("instructions: %d\n", stats.Instructions)
			fmt.Printf("cpi: %.3f\n", stats.CPI)
			if stats.Anomalies > 0 {
				fmt.Printf("decode anomalies: %d\n", stats.Anomalies)
			}
			if usePipeline {
				fmt.Printf("hazards: data=%d control=%d stalls=%d flushes=%d forwards=%d\n",
					stats.Hazards.DataHazards, stats.Hazards.ControlHazards,
					stats.Hazards.StallsInserted, stats.Hazards.FlushesPerformed,
					stats.Hazards.ForwardingEvents)
				fmt.Printf("branch predictor: total=%d correct=%d mispredicted=%d accuracy=%.3f\n",
					stats.Predictor.Total, stats.Predictor.Correct, stats.Predictor.Mispredicted,
					stats.Predictor.Accuracy())
			}
			if !c.Halted() {
				return fmt.Errorf("did not halt within the cycle cap")
			}
			return nil
		},
	}
	addCoreFlags(runCmd)

	stepCmd := &cobra.Command{
		Use:   "step <program>",
		Short: "single-step a program, printing PC and register state each cycle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildCore(args[0])
			if err != nil {
				return err
			}

			cycle := uint64(0)
			for {
				pc := c.PC()
				running := c.Step()
				cycle++
				fmt.Printf("cycle %d: pc=0x%08x v0=0x%08x v1=0x%08x\n",
					cycle, pc, c.GetRegister(2), c.GetRegister(3))
				if !running {
					break
				}
				if maxCycles > 0 && cycle >= maxCycles {
					break
				}
			}
			return nil
		},
	}
	addCoreFlags(stepCmd)

	disasmCmd := &cobra.Command{
		Use:   "disasm <program>",
		Short: "disassemble a program image without executing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := loader.Load(args[0])
			if err != nil {
				return err
			}

			base := core.DefaultBaseAddress
			for i, word := range prog.Words {
				addr := base + uint32(i)*4
				fmt.Printf("0x%08x:\t%08x\t%s\n", addr, word, insts.Disassemble(word))
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, stepCmd, disasmCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

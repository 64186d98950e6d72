// Package main provides a pointer to the real entry point.
// mipssim is a cycle-accurate MIPS-I pipeline simulator.
//
// For the full CLI, use: go run ./cmd/mipssim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("mipssim - MIPS-I pipeline simulator")
	fmt.Println("")
	fmt.Println("Usage: mipssim <run|step|disasm> [flags] <program>")
	fmt.Println("")
	fmt.Println("Flags:")
	fmt.Println("  --pipeline       Execute on the timed 5-stage pipeline (default true)")
	fmt.Println("  --branch-pred    Enable dynamic branch prediction (default true)")
	fmt.Println("  --pred-type      static|1bit|2bit|gshare|local|tournament (default 2bit)")
	fmt.Println("  --max-cycles     Safety cap on cycles")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/mipssim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/mipssim' instead.")
	}
}

// Command gbacpu is the host CLI around the ARM7TDMI core: load a ROM,
// wire it into the GBA memory map, and either trace its execution or
// disassemble it without running it.
//
// Grounded on oisee-z80-optimizer/cmd/z80opt/main.go's cobra root-with-
// subcommands shape (persistent root command, one RunE-bearing
// cobra.Command per operation, os.Exit(1) on a failed Execute); this
// module has no assembly parser or JSON report to mirror, so only that
// structural skeleton carries over.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gbacpu/internal/bus"
	"gbacpu/internal/cartridge"
	"gbacpu/internal/cpu"
	"gbacpu/internal/io"
	"gbacpu/internal/irq"
	"gbacpu/internal/memory"
	"gbacpu/internal/ppu"
	"gbacpu/rom"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gbacpu",
		Short: "ARM7TDMI core for the GBA memory map — trace or disassemble a ROM",
	}

	rootCmd.AddCommand(newRunCmd(), newDisasmCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var romPath, biosPath string
	var steps int
	var trace bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Tick the core for a fixed number of cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			if romPath == "" {
				return fmt.Errorf("--rom is required")
			}
			c, err := newMachine(romPath, biosPath)
			if err != nil {
				return err
			}
			for i := 0; i < steps; i++ {
				pc := c.Registers().PC()
				if trace {
					word, rerr := c.Bus().Read32(pc)
					if rerr == nil {
						if instr, derr := cpu.DecodeArm(word); derr == nil {
							fmt.Printf("%#08x: %s\n", pc, cpu.Disassemble(instr))
						}
					}
				}
				if err := c.Tick(); err != nil {
					return fmt.Errorf("halted after %d steps: %w", i, err)
				}
			}
			fmt.Printf("%s\n", c.Registers())
			return nil
		},
	}
	cmd.Flags().StringVar(&romPath, "rom", "", "Path to a GBA ROM image (required)")
	cmd.Flags().StringVar(&biosPath, "bios", "", "Path to a BIOS image (defaults to zero-filled)")
	cmd.Flags().IntVar(&steps, "steps", 1000, "Number of ticks to run")
	cmd.Flags().BoolVar(&trace, "trace", false, "Print each executed instruction before running it")
	return cmd
}

func newDisasmCmd() *cobra.Command {
	var romPath string
	var base uint32
	var count int

	cmd := &cobra.Command{
		Use:   "disasm",
		Short: "Decode and print instructions from a ROM without executing them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if romPath == "" {
				return fmt.Errorf("--rom is required")
			}
			image, err := rom.Load(romPath)
			if err != nil {
				return err
			}
			for i := 0; i < count; i++ {
				offset := int(base) + i*4
				if offset+4 > len(image.Data) {
					break
				}
				word := uint32(image.Data[offset]) | uint32(image.Data[offset+1])<<8 |
					uint32(image.Data[offset+2])<<16 | uint32(image.Data[offset+3])<<24
				addr := uint32(offset)
				instr, err := cpu.DecodeArm(word)
				if err != nil {
					fmt.Printf("%#08x: <%s>\n", addr, err)
					continue
				}
				fmt.Printf("%#08x: %s\n", addr, cpu.Disassemble(instr))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&romPath, "rom", "", "Path to a GBA ROM image (required)")
	cmd.Flags().Uint32Var(&base, "offset", 0, "Byte offset into the ROM file to start decoding at")
	cmd.Flags().IntVar(&count, "count", 32, "Number of instructions to decode")
	return cmd
}

// newMachine wires one CPU core over a full GBA memory map: BIOS, work
// RAM, I/O registers, the interrupt controller, the inert PPU stand-in,
// and the cartridge built from romPath (spec §6).
func newMachine(romPath, biosPath string) (*cpu.CPU, error) {
	image, err := rom.Load(romPath)
	if err != nil {
		return nil, err
	}

	biosData := make([]byte, memory.BIOSSize)
	if biosPath != "" {
		b, err := rom.Load(biosPath)
		if err != nil {
			return nil, err
		}
		copy(biosData, b.Data)
	}

	mmap := bus.New(
		memory.NewBIOS(biosData),
		memory.NewEWRAM(),
		memory.NewIWRAM(),
		ppu.New(),
		cartridge.NewCartridge(image.Data),
		io.NewIORegs(),
		irq.New(),
	)
	return cpu.New(mmap, mmap.IRQController()), nil
}

package main

import (
	"flag"
	"log"

	"github.com/Elliot971/ZYNQ/solver"
)

// gensnap writes a zero-weight snapshot matching the engine architecture.
// With all weights zero the engine degrades to the pure closed-form
// solve, which is enough for wiring and smoke tests.
func main() {
	outPath := flag.String("out", "solver.snap", "Output snapshot path")
	tags := flag.Int("tags", solver.DefaultTags, "Number of backscatter tags")
	rx := flag.Int("rx", solver.DefaultRxAntennas, "Number of receive antennas")
	samples := flag.Int("samples", solver.DefaultSamplesPerSlot, "Samples per slot")
	flag.Parse()

	cfg := solver.DefaultConfig()
	cfg.Tags = *tags
	cfg.RxAntennas = *rx
	cfg.SamplesPerSlot = *samples
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	snap := solver.BlankSnapshot(cfg)
	if err := solver.WriteSnapshot(*outPath, snap); err != nil {
		log.Fatalf("Write snapshot: %v", err)
	}
	log.Printf("Wrote %d tensors to %s", len(snap), *outPath)
}

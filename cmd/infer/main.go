package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/Elliot971/ZYNQ/capture"
	"github.com/Elliot971/ZYNQ/server"
	"github.com/Elliot971/ZYNQ/solver"
)

func main() {
	capPath := flag.String("capture", "", "Input capture file")
	snapshotPath := flag.String("snapshot", "solver.snap", "Path to weight snapshot")
	outPath := flag.String("out", "temps.csv", "Output CSV path")
	refPath := flag.String("ref", "", "Optional reference CSV for RMSE")
	maxShift := flag.Int("max-shift", 200, "Max frame shift for RMSE alignment")
	tags := flag.Int("tags", solver.DefaultTags, "Number of backscatter tags")
	rx := flag.Int("rx", solver.DefaultRxAntennas, "Number of receive antennas")
	samples := flag.Int("samples", solver.DefaultSamplesPerSlot, "Samples per slot")
	noDeltaH := flag.Bool("no-delta-h", false, "Disable the channel correction head")
	flag.Parse()

	if *capPath == "" {
		fmt.Println("--capture required")
		os.Exit(1)
	}

	cfg := solver.DefaultConfig()
	cfg.Tags = *tags
	cfg.RxAntennas = *rx
	cfg.SamplesPerSlot = *samples
	cfg.EnableDeltaH = !*noDeltaH

	engine, err := solver.NewEngine(cfg)
	if err != nil {
		fmt.Printf("invalid config: %v\n", err)
		os.Exit(1)
	}
	if err := engine.LoadSnapshotFile(*snapshotPath); err != nil {
		fmt.Printf("load snapshot failed: %v\n", err)
		os.Exit(1)
	}

	records, err := capture.ReadFile(*capPath)
	if err != nil {
		fmt.Printf("read capture failed: %v\n", err)
		os.Exit(1)
	}

	var frames []*solver.Frame
	var seqs []uint16
	for _, rec := range records {
		if rec.Flag != capture.FlagIQFrame {
			continue
		}
		hdr, err := server.ParseHeader(rec.Payload)
		if err != nil || hdr.Type != server.TypeIQFrame {
			continue
		}
		frame, err := server.DecodeFrame(hdr, rec.Payload[server.FrameHdrLen:])
		if err != nil {
			fmt.Printf("frame seq=%d skipped: %v\n", hdr.Seq, err)
			continue
		}
		frames = append(frames, frame)
		seqs = append(seqs, hdr.Seq)
	}
	if len(frames) == 0 {
		fmt.Println("no frames in capture")
		os.Exit(1)
	}

	results, err := engine.InferBatch(frames)
	if err != nil {
		fmt.Printf("inference failed: %v\n", err)
		os.Exit(1)
	}

	header := []string{"seq"}
	for i := 0; i < cfg.Tags; i++ {
		header = append(header, fmt.Sprintf("temp%d_c", i), fmt.Sprintf("valid%d", i), fmt.Sprintf("gamma%d", i))
	}
	rows := [][]string{header}
	for i, res := range results {
		if res == nil {
			continue
		}
		row := []string{strconv.Itoa(int(seqs[i]))}
		for t := 0; t < cfg.Tags; t++ {
			row = append(row,
				fmt.Sprintf("%.3f", res.Temperatures[t]),
				strconv.FormatBool(res.Valid[t]),
				fmt.Sprintf("%.6f", res.Gamma[t]))
		}
		rows = append(rows, row)
	}

	if err := writeCSV(*outPath, rows); err != nil {
		fmt.Printf("write csv failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Written %d rows to %s\n", len(rows)-1, *outPath)

	if *refPath != "" {
		rmse, shift, err := compareWithRef(*outPath, *refPath, cfg.Tags, *maxShift)
		if err != nil {
			fmt.Printf("rmse compare failed: %v\n", err)
		} else {
			fmt.Printf("ref shift %d frames, RMSE %.3f C\n", shift, rmse)
		}
	}
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// compareWithRef aligns the predicted temperature series against a
// reference by trying frame shifts and reports the best RMSE over valid
// entries.
func compareWithRef(predPath, refPath string, tags, maxShift int) (float64, int, error) {
	pred, err := readTemps(predPath, tags)
	if err != nil {
		return 0, 0, err
	}
	ref, err := readTemps(refPath, tags)
	if err != nil {
		return 0, 0, err
	}

	bestShift := 0
	bestRmse := math.MaxFloat64
	for shift := -maxShift; shift <= maxShift; shift++ {
		var n int
		var sum float64
		for i := range pred {
			j := i + shift
			if j < 0 || j >= len(ref) {
				continue
			}
			for t := 0; t < tags; t++ {
				if math.IsNaN(pred[i][t]) || math.IsNaN(ref[j][t]) {
					continue
				}
				d := pred[i][t] - ref[j][t]
				sum += d * d
				n++
			}
		}
		if n == 0 {
			continue
		}
		rmse := math.Sqrt(sum / float64(n))
		if rmse < bestRmse {
			bestRmse = rmse
			bestShift = shift
		}
	}
	if bestRmse == math.MaxFloat64 {
		return 0, 0, fmt.Errorf("no overlapping valid rows")
	}
	return bestRmse, bestShift, nil
}

func readTemps(path string, tags int) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) <= 1 {
		return nil, fmt.Errorf("no rows")
	}

	header := recs[0]
	idx := make([]int, tags)
	for t := 0; t < tags; t++ {
		idx[t] = -1
		want := fmt.Sprintf("temp%d_c", t)
		for i, col := range header {
			if col == want {
				idx[t] = i
				break
			}
		}
		if idx[t] < 0 {
			return nil, fmt.Errorf("column %s not found", want)
		}
	}

	out := make([][]float64, 0, len(recs)-1)
	for _, row := range recs[1:] {
		temps := make([]float64, tags)
		for t := 0; t < tags; t++ {
			if idx[t] >= len(row) {
				temps[t] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(row[idx[t]], 64)
			if err != nil {
				v = math.NaN()
			}
			temps[t] = v
		}
		out = append(out, temps)
	}
	return out, nil
}

package grid

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

var csvHeader = []string{
	"run_id", "calls", "fail_prob", "corrupt_prob", "belief_decay", "rep", "seed",
	"best_score", "first_valid_step", "max_stagnation", "termination", "total_steps",
}

// WriteCSV writes grid results as CSV with a fixed column order. Optional
// metrics (best score, first valid step) are left empty when absent.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("grid: write csv header: %w", err)
	}

	for _, r := range results {
		bestScore := ""
		if r.BestScore != nil {
			bestScore = strconv.FormatFloat(*r.BestScore, 'g', -1, 64)
		}
		firstValid := ""
		if r.FirstValidStep != nil {
			firstValid = strconv.Itoa(*r.FirstValidStep)
		}

		row := []string{
			r.RunID,
			strconv.Itoa(r.Calls),
			strconv.FormatFloat(r.FailProb, 'g', -1, 64),
			strconv.FormatFloat(r.CorruptProb, 'g', -1, 64),
			strconv.FormatFloat(r.BeliefDecay, 'g', -1, 64),
			strconv.Itoa(r.Rep),
			strconv.FormatInt(r.Seed, 10),
			bestScore,
			firstValid,
			strconv.Itoa(r.MaxStagnation),
			r.Termination,
			strconv.Itoa(r.TotalSteps),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("grid: write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("grid: flush csv: %w", err)
	}
	return nil
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kartoza/plasma-dashboard/internal/engine"
	"github.com/kartoza/plasma-dashboard/internal/models"
)

func newPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run one prediction and print the result",
		Example: `  plasma-dashboard predict --rf-power 1900 --pressure 5 --chamber-hours 480
  plasma-dashboard predict --pulse --duty-cycle 40 --format json --seed 7
  plasma-dashboard predict --save --store sqlite --data-dir ./history`,
		RunE: runPredict,
	}

	d := models.DefaultParameters()
	f := cmd.Flags()
	f.Float64("rf-power", d.RFPower, "RF power (W)")
	f.Float64("pressure", d.Pressure, "chamber pressure (mTorr)")
	f.Float64("cf4", d.GasFlowCF4, "CF4 flow (sccm)")
	f.Float64("o2", d.GasFlowO2, "O2 flow (sccm)")
	f.Float64("ar", d.GasFlowAr, "Ar flow (sccm)")
	f.Bool("pulse", d.PulseEnabled, "enable pulsed RF")
	f.Float64("duty-cycle", d.PulseDutyCycle, "pulse duty cycle (%)")
	f.Float64("frequency", d.PulseFrequency, "pulse frequency (Hz)")
	f.Float64("process-time", d.ProcessTime, "process time (s)")
	f.Float64("chamber-hours", d.ChamberRFHours, "RF hours since the last chamber clean")

	f.Uint64("seed", 0, "seed the noise source for a reproducible result")
	f.Bool("save", false, "store the result in the history backend")
	f.StringP("format", "f", "text", "output format: text or json")

	return cmd
}

func parametersFromFlags(cmd *cobra.Command) models.ProcessParameters {
	f := cmd.Flags()
	var p models.ProcessParameters
	p.RFPower, _ = f.GetFloat64("rf-power")
	p.Pressure, _ = f.GetFloat64("pressure")
	p.GasFlowCF4, _ = f.GetFloat64("cf4")
	p.GasFlowO2, _ = f.GetFloat64("o2")
	p.GasFlowAr, _ = f.GetFloat64("ar")
	p.PulseEnabled, _ = f.GetBool("pulse")
	p.PulseDutyCycle, _ = f.GetFloat64("duty-cycle")
	p.PulseFrequency, _ = f.GetFloat64("frequency")
	p.ProcessTime, _ = f.GetFloat64("process-time")
	p.ChamberRFHours, _ = f.GetFloat64("chamber-hours")
	return p
}

func runPredict(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}

	cfg := engine.DefaultConfig()
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetUint64("seed")
		cfg.NewSource = func() engine.Source { return engine.NewSeededSource(seed) }
	}

	result, err := engine.New(cfg).Predict(parametersFromFlags(cmd))
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			for _, fe := range verr.Fields {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", fe)
			}
		}
		return err
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		repo, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer repo.Close()
		if err := repo.Put(cmd.Context(), result); err != nil {
			return fmt.Errorf("failed to save prediction: %w", err)
		}
	}

	if format == "json" {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	return writeResultText(cmd.OutOrStdout(), result)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeResultText(w io.Writer, r *models.PredictionResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	q := r.QualityMetrics
	d := r.RadicalDistribution

	fmt.Fprintf(tw, "ID:\t%s\n", r.ID)
	fmt.Fprintf(tw, "Status:\t%s\n", r.Status)
	fmt.Fprintf(tw, "Etch uniformity:\t%.2f %%\n", q.EtchUniformity)
	fmt.Fprintf(tw, "CD shift:\t%.2f nm\n", q.CDShift)
	fmt.Fprintf(tw, "Defect risk:\t%s (%.2f)\n", q.DefectRisk, q.DefectRiskScore)
	fmt.Fprintf(tw, "Center/edge ratio:\t%.3f\n", d.CenterEdgeRatio)
	fmt.Fprintf(tw, "Top/bottom gradient:\t%.3f\n", d.TopBottomGradient)
	if roi := r.RoiMetrics; roi != nil {
		fmt.Fprintf(tw, "Yield:\t%.2f %%\n", roi.YieldRate)
		fmt.Fprintf(tw, "Batch profit:\t%.2f USD\n", roi.EstimatedBatchProfit)
		fmt.Fprintf(tw, "Recoverable loss:\t%.2f USD\n", roi.PotentialLossReduction)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Recommendations) > 0 {
		fmt.Fprintln(w, "Recommendations:")
		for i, rec := range r.Recommendations {
			fmt.Fprintf(w, "  %d. [%s] %s %g -> %g: %s\n",
				i+1, rec.Priority, rec.Parameter, rec.CurrentValue, rec.RecommendedValue, rec.Reason)
		}
	}
	return nil
}

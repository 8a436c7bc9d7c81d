// Command linkbudget prints both directions of a hop's link budget for
// given pointing errors.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/signalsfoundry/dish-aligner/core"
	"github.com/signalsfoundry/dish-aligner/internal/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("linkbudget", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", "", "path to a YAML scenario file; its link and geometry sections are used")
	thetaA := fs.Float64("theta-a", 0, "terminal A off-axis error in degrees")
	thetaB := fs.Float64("theta-b", 0, "terminal B off-axis error in degrees")
	distance := fs.Float64("distance", 0, "hop length in metres; 0 uses the scenario geometry")
	rain := fs.Float64("rain", -1, "rain rate in mm/h; negative uses the scenario link")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sc := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		sc = loaded
	}

	d := *distance
	if d <= 0 {
		d = sc.Geometry.Distance()
	}
	r := *rain
	if r < 0 {
		r = sc.Link.RainRateMmPerHour
	}

	model := core.NewLinkModel(sc.Link)
	report := model.BidirectionalLink(*thetaA, *thetaB, d, r)

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return printReport(out, model, report)
}

func printReport(out io.Writer, model core.LinkModel, report core.LinkReport) error {
	fmt.Fprintf(out, "distance %.1f m, peak gain %.2f dBi, HPBW %.2f deg\n\n",
		report.DistanceM, core.PeakGain(model.A), core.HalfPowerBeamwidthDeg(model.A))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "direction\trx dBm\ttx dBi\trx dBi\tfspl dB\train dB\tsnr dB\tmcs\tMbps")
	for _, row := range []struct {
		name string
		r    core.DirectionReport
	}{{"A->B", report.AtoB}, {"B->A", report.BtoA}} {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%s\t%.1f\n",
			row.name,
			row.r.ReceivedPowerDBm,
			row.r.TxGainDBi,
			row.r.RxGainDBi,
			row.r.PathLossDB,
			row.r.RainLossDB,
			row.r.SNRdB,
			row.r.MCS.Name,
			row.r.MCS.EstimatedThroughputMbps,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	b := report.Bottleneck()
	_, err := fmt.Fprintf(out, "\nbottleneck: %s (%s)\n", b.MCS.Name, b.MCS.Comment)
	return err
}

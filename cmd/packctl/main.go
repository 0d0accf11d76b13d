// Command packctl packs items offline and writes the result as JSON or as an
// export file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/box-packer/internal/export"
	"github.com/eugenenazirov/box-packer/internal/importer"
	"github.com/eugenenazirov/box-packer/internal/logging"
	"github.com/eugenenazirov/box-packer/internal/packing"
	"github.com/eugenenazirov/box-packer/internal/solver"
)

const formatJSON = "json"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "packctl:", err)
		os.Exit(1)
	}
}

type packFlags struct {
	manifest    string
	items       string
	preset      string
	strategy    string
	maxAttempts int
	format      string
	output      string
	timeout     time.Duration
	maxItems    int
	noRotation  bool
	noFragile   bool
	orientation bool
}

func run(args []string, stdout io.Writer) error {
	app := kingpin.New("packctl", "Pack items into a container from the command line")
	logLevel := app.Flag("log-level", "Log level (debug, info, warn, error)").Default("warn").String()

	packCmd := app.Command("pack", "Pack a manifest or an item list")
	var pf packFlags
	packCmd.Flag("manifest", "YAML manifest with container, strategy and items").Short('m').StringVar(&pf.manifest)
	packCmd.Flag("items", "Item list (.csv, .xlsx or .yaml)").Short('i').StringVar(&pf.items)
	packCmd.Flag("preset", "Container preset used with --items").Default("Medium").StringVar(&pf.preset)
	packCmd.Flag("strategy", "Packing strategy").StringVar(&pf.strategy)
	packCmd.Flag("max-attempts", "Orderings to try").Default("5").IntVar(&pf.maxAttempts)
	packCmd.Flag("max-items", "Refuse to pack more items than this (0 for no limit)").Default("200").IntVar(&pf.maxItems)
	packCmd.Flag("no-rotation", "Keep items in their declared orientation").BoolVar(&pf.noRotation)
	packCmd.Flag("no-fragile-priority", "Do not inflate the weight of fragile items").BoolVar(&pf.noFragile)
	packCmd.Flag("try-orientations", "Also try rotated container orientations").BoolVar(&pf.orientation)
	packCmd.Flag("format", "Output format").Short('f').Default(formatJSON).
		EnumVar(&pf.format, formatJSON, "csv", "xlsx", "pdf", "dxf")
	packCmd.Flag("output", "Output file (stdout when empty)").Short('o').StringVar(&pf.output)
	packCmd.Flag("timeout", "Abort packing after this long").Default("30s").DurationVar(&pf.timeout)

	strategiesCmd := app.Command("strategies", "List packing strategies and their orderings")
	presetsCmd := app.Command("presets", "List container presets")

	command, err := app.Parse(args)
	if err != nil {
		return err
	}

	logger, err := logging.New(*logLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case packCmd.FullCommand():
		return runPack(pf, stdout, logger)
	case strategiesCmd.FullCommand():
		return listStrategies(stdout)
	case presetsCmd.FullCommand():
		return listPresets(stdout)
	}
	return fmt.Errorf("unknown command %q", command)
}

func runPack(pf packFlags, stdout io.Writer, logger *zap.Logger) error {
	req, err := loadRequest(pf, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pf.timeout)
	defer cancel()

	packer := packing.New(solver.NewPivotSolver(), logger)
	result, err := packer.Pack(ctx, req)
	if err != nil {
		return err
	}
	if !result.Feasible() {
		return fmt.Errorf("none of the %d items fit in %s", len(req.Items), req.Container.Name)
	}

	w := stdout
	if pf.output != "" {
		f, err := os.Create(pf.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	if pf.format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			packing.Result
			Analytics packing.Analytics `json:"analytics"`
		}{result, packing.Analyze(result, len(req.Items))})
	}

	format, err := export.ParseFormat(pf.format)
	if err != nil {
		return err
	}
	return export.Write(w, format, result)
}

// loadRequest builds the packing request from a manifest or from an item
// list plus a preset. Flags override manifest settings.
func loadRequest(pf packFlags, logger *zap.Logger) (packing.Request, error) {
	var req packing.Request
	switch {
	case pf.manifest != "" && pf.items != "":
		return req, errors.New("use either --manifest or --items, not both")
	case pf.manifest != "":
		f, err := os.Open(pf.manifest)
		if err != nil {
			return req, err
		}
		defer f.Close()
		m, err := importer.LoadManifest(f)
		if err != nil {
			return req, err
		}
		req = m.Request(pf.maxAttempts)
	case pf.items != "":
		items, err := readItems(pf.items, logger)
		if err != nil {
			return req, err
		}
		container, ok := packing.PresetByName(pf.preset)
		if !ok {
			return req, fmt.Errorf("%w: %q", importer.ErrUnknownPreset, pf.preset)
		}
		req = packing.Request{
			Container:   container,
			Items:       items,
			MaxAttempts: pf.maxAttempts,
			Options:     packing.DefaultOptions(),
		}
	default:
		return req, errors.New("one of --manifest or --items is required")
	}

	if pf.maxItems > 0 && len(req.Items) > pf.maxItems {
		return req, fmt.Errorf("%w: %d submitted, at most %d allowed", packing.ErrTooManyItems, len(req.Items), pf.maxItems)
	}
	if pf.strategy != "" {
		req.Strategy = packing.Strategy(pf.strategy)
	}
	if pf.noRotation {
		req.Options.AllowRotation = false
	}
	if pf.noFragile {
		req.Options.PrioritizeFragile = false
	}
	if pf.orientation {
		req.Options.TryContainerOrientations = true
	}
	return req, nil
}

func readItems(path string, logger *zap.Logger) ([]packing.ItemSpec, error) {
	format, err := importer.ParseFormat(filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res, err := importer.Import(format, f)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		logger.Warn("import warning", zap.String("detail", w))
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("invalid rows in %s:\n  %s", path, strings.Join(res.Errors, "\n  "))
	}
	return res.Items, nil
}

func listStrategies(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, s := range packing.Strategies() {
		fmt.Fprintf(tw, "%s\t%s\n", s, strings.Join(packing.OrderingNames(s), " | "))
	}
	return tw.Flush()
}

func listPresets(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range packing.Presets() {
		fmt.Fprintf(tw, "%s\t%gx%gx%g cm\n", p.Name, p.Width, p.Height, p.Depth)
	}
	return tw.Flush()
}

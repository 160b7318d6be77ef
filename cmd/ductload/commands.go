package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/piwi3910/DuctLoad/internal/config"
	"github.com/piwi3910/DuctLoad/internal/engine"
	"github.com/piwi3910/DuctLoad/internal/export"
	"github.com/piwi3910/DuctLoad/internal/importer"
	"github.com/piwi3910/DuctLoad/internal/metrics"
	"github.com/piwi3910/DuctLoad/internal/model"
	"github.com/piwi3910/DuctLoad/internal/project"
	"github.com/piwi3910/DuctLoad/internal/registry"
	"github.com/piwi3910/DuctLoad/internal/rules"
	"github.com/piwi3910/DuctLoad/internal/stability"
)

// estimateFillFactor is the body share a packing realistically reaches.
const estimateFillFactor = 0.85

// common holds the flags shared by pack and scenarios.
type common struct {
	configPath string
	fleetPath  string
	itemsPath  string
	vehicleRef string
	algorithm  string
	pdfPath    string
	labelsPath string
	dxfPath    string
	outPath    string
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "config file (default ~/.ductload/config.yaml if present)")
	fs.StringVar(&c.fleetPath, "fleet", "", "fleet catalog (default ~/.ductload/fleet.yaml)")
	fs.StringVar(&c.itemsPath, "items", "", "cargo list, .csv or .xlsx (required)")
	fs.StringVar(&c.vehicleRef, "vehicle", "", "fleet preset id or name, or WxHxL[@payload] in mm/kg (required)")
	fs.StringVar(&c.algorithm, "algorithm", "", "override pack.algorithm: greedy, beam or multistart")
	fs.StringVar(&c.pdfPath, "pdf", "", "write the load plan PDF here")
	fs.StringVar(&c.labelsPath, "labels", "", "write QR labels PDF here")
	fs.StringVar(&c.dxfPath, "dxf", "", "write the plan drawing DXF here")
	fs.StringVar(&c.outPath, "out", "", "write the project JSON here")
}

// env is everything a command needs after flag parsing.
type env struct {
	cfg      *config.Config
	settings model.PackSettings
	logger   *slog.Logger
	vehicle  model.Vehicle
	items    []model.CargoItem
}

func (c *common) load(stderr io.Writer) (*env, int) {
	if c.itemsPath == "" || c.vehicleRef == "" {
		fmt.Fprintln(stderr, "--items and --vehicle are required")
		return nil, ExitUsage
	}

	cfgPath := c.configPath
	if cfgPath == "" {
		if _, err := os.Stat(project.DefaultConfigPath()); err == nil {
			cfgPath = project.DefaultConfigPath()
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return nil, ExitConfigError
	}
	if c.algorithm != "" {
		cfg.Pack.Algorithm = c.algorithm
	}
	settings, err := cfg.Pack.Settings()
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return nil, ExitConfigError
	}
	logger := config.NewLogger(cfg.Log, stderr)

	vehicle, err := resolveVehicle(c.vehicleRef, c.fleetPath)
	if err != nil {
		fmt.Fprintf(stderr, "vehicle: %v\n", err)
		return nil, ExitInputError
	}

	imp := importer.ImportFile(c.itemsPath)
	for _, w := range imp.Warnings {
		logger.Warn("import", "file", c.itemsPath, "detail", w)
	}
	for _, e := range imp.Errors {
		logger.Error("import", "file", c.itemsPath, "detail", e)
	}
	if len(imp.Errors) > 0 || len(imp.Items) == 0 {
		fmt.Fprintf(stderr, "cargo list %s: %d errors, %d items\n", c.itemsPath, len(imp.Errors), len(imp.Items))
		return nil, ExitInputError
	}

	return &env{cfg: cfg, settings: settings, logger: logger, vehicle: vehicle, items: imp.Items}, ExitSuccess
}

// resolveVehicle accepts a literal body "WxHxL" with optional "@payload",
// otherwise looks the reference up in the fleet catalog.
func resolveVehicle(ref, fleetPath string) (model.Vehicle, error) {
	if v, ok, err := parseVehicle(ref); ok || err != nil {
		return v, err
	}
	if fleetPath == "" {
		fleetPath = project.DefaultFleetPath()
	}
	fleet, err := project.LoadFleet(fleetPath)
	if err != nil {
		return model.Vehicle{}, err
	}
	return project.ResolveVehicle(fleet, ref)
}

func parseVehicle(ref string) (model.Vehicle, bool, error) {
	body, payload, hasPayload := strings.Cut(ref, "@")
	parts := strings.Split(strings.ToLower(body), "x")
	if len(parts) != 3 {
		return model.Vehicle{}, false, nil
	}
	var dims [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return model.Vehicle{}, false, nil
		}
		dims[i] = f
	}
	v := model.NewVehicle(ref, dims[0], dims[1], dims[2], 0)
	if hasPayload {
		kg, err := strconv.ParseFloat(payload, 64)
		if err != nil {
			return model.Vehicle{}, true, fmt.Errorf("invalid payload %q", payload)
		}
		v.MaxPayload = kg
	}
	if !v.Valid() {
		return model.Vehicle{}, true, fmt.Errorf("%w: %s", engine.ErrInvalidVehicle, ref)
	}
	return v, true, nil
}

func (e *env) context() (context.Context, context.CancelFunc) {
	if e.cfg.Pack.Timeout > 0 {
		return context.WithTimeout(context.Background(), e.cfg.Pack.Timeout)
	}
	return context.WithCancel(context.Background())
}

func printEstimate(w io.Writer, e *env) {
	est := model.CalculateVehicleEstimate(e.items, e.vehicle, estimateFillFactor, registry.ItemWeight)
	fmt.Fprintf(w, "Cargo: %d sections, %.2f m3, %.1f kg\n", est.UnitCount, est.TotalVolume/1e9, est.TotalWeight)
	fmt.Fprintf(w, "Vehicle: %s %.0fx%.0fx%.0f mm, at least %d needed (volume %d, payload %d)\n",
		e.vehicle.Name, e.vehicle.Width, e.vehicle.Height, e.vehicle.Length,
		est.VehiclesNeededMin, est.ByVolume, est.ByWeight)
	if !est.LargestItemFits {
		fmt.Fprintln(w, "Warning: the largest section does not fit an empty vehicle")
	}
}

// writeOutputs exports whatever the flags ask for.
func (c *common) writeOutputs(e *env, plan export.Plan) error {
	var errs []error
	if c.pdfPath != "" {
		errs = append(errs, wrap("pdf", export.ExportPDF(c.pdfPath, plan)))
	}
	if c.labelsPath != "" {
		errs = append(errs, wrap("labels", export.ExportLabels(c.labelsPath, plan)))
	}
	if c.dxfPath != "" {
		errs = append(errs, wrap("dxf", export.ExportDXF(c.dxfPath, plan)))
	}
	if c.outPath != "" {
		p := model.NewProject()
		p.Name = plan.Title
		p.Vehicle = e.vehicle
		p.Items = e.items
		p.Settings = e.settings
		res := plan.Result
		p.Result = &res
		errs = append(errs, wrap("project", project.SaveProject(c.outPath, p)))
	}
	return errors.Join(errs...)
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", what, err)
}

func analyse(e *env, res model.PackingResult) export.Plan {
	reg := engine.UnitRegistry(e.items, e.logger)
	reg.RegisterPlacements(res.Placements)
	report := stability.NewAnalyzer(e.cfg.Stability.AdjacencyTolerance, e.logger).Analyze(e.vehicle, res, reg)
	clearance := rules.Validate(reg, res.Placements)
	return export.Plan{
		Vehicle:   e.vehicle,
		Result:    res,
		Registry:  reg,
		Stability: &report,
		Clearance: &clearance,
	}
}

func printResult(w io.Writer, plan export.Plan) {
	res := plan.Result
	fmt.Fprintf(w, "Result (%s): %d vehicles, %d placements, fill %.1f%%, %.1f kg, stability %.2f\n",
		res.Algorithm, res.BinsUsed, len(res.Placements), res.Metrics.VolumeFill*100, res.Metrics.TotalWeight, res.Metrics.StabilityScore)
	if plan.Registry != nil {
		ev := engine.EvaluateWith(plan.Registry, res)
		fmt.Fprintf(w, "Efficiency: %.3f (weight balance %.2f, flange compliance %.2f)\n",
			ev.Efficiency, ev.WeightBalance, ev.FlangeCompliance)
	}
	if len(res.Unplaced) > 0 {
		fmt.Fprintf(w, "Unplaced: %s\n", strings.Join(res.Unplaced, ", "))
	}
	if c := plan.Clearance; c != nil {
		fmt.Fprintf(w, "Flange clearance: %d errors, %d warnings\n", len(c.Errors), len(c.Warnings))
	}
	if r := plan.Stability; r != nil {
		fmt.Fprintf(w, "Safety: %s (%.0f/100), tipping %s\n", r.Overall, r.SafetyScore, r.Tipping.Level)
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}
}

func cmdPack(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pack", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var c common
	c.register(fs)
	title := fs.String("title", "Load Plan", "plan title")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	e, code := c.load(stderr)
	if e == nil {
		return code
	}
	printEstimate(stdout, e)

	rec := metrics.NewRecorder()
	opt := engine.New(e.settings, e.logger)
	opt.Observer = rec

	ctx, cancel := e.context()
	defer cancel()
	res, err := opt.Pack(ctx, e.vehicle, e.items)
	if path := e.cfg.Metrics.Textfile; path != "" {
		if mErr := rec.WriteTextfile(path); mErr != nil {
			e.logger.Warn("metrics textfile not written", "path", path, "error", mErr)
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "packing failed: %v\n", err)
		return ExitFailure
	}

	plan := analyse(e, res)
	plan.Title = *title
	printResult(stdout, plan)

	if err := c.writeOutputs(e, plan); err != nil {
		fmt.Fprintf(stderr, "export failed: %v\n", err)
		return ExitFailure
	}
	if len(res.Unplaced) > 0 {
		return ExitFailure
	}
	return ExitSuccess
}

func cmdScenarios(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("scenarios", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var c common
	c.register(fs)
	profilesPath := fs.String("profiles", "", "custom scenario profiles YAML (default: built-in profiles)")
	maxVehicles := fs.Int("max-vehicles", 0, "prefer scenarios using at most this many vehicles")
	priority := fs.String("priority", "", "re-rank by: vehicles, safety, fragile, unloading, utilization")
	asJSON := fs.Bool("json", false, "print the ranked results as JSON")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	e, code := c.load(stderr)
	if e == nil {
		return code
	}

	scenarios := engine.DefaultScenarios()
	if *profilesPath != "" {
		var err error
		if scenarios, err = project.LoadScenarios(*profilesPath); err != nil {
			fmt.Fprintf(stderr, "profiles: %v\n", err)
			return ExitInputError
		}
	}

	ctx, cancel := e.context()
	defer cancel()
	results, err := engine.RunScenarios(ctx, e.vehicle, e.items, e.settings, scenarios, e.logger)
	if err != nil {
		fmt.Fprintf(stderr, "scenarios failed: %v\n", err)
		return ExitFailure
	}

	best, ok := engine.SelectBestScenario(results, engine.SelectionCriteria{
		MaxVehicles: *maxVehicles,
		Priority:    engine.Priority(*priority),
	})

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			fmt.Fprintf(stderr, "encode: %v\n", err)
			return ExitFailure
		}
	} else {
		printEstimate(stdout, e)
		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tPROFILE\tSCORE\tVEHICLES\tUTIL%\tCOG%\tSTABILITY\tFRAGILE\tUNLOADING")
		for i, r := range results {
			m := r.Metrics
			fmt.Fprintf(tw, "%d\t%s\t%.3f\t%d\t%.1f\t%.1f\t%.0f\t%.0f\t%.0f\n",
				i+1, r.Name(), r.Score, m.VehiclesUsed, m.AvgUtilization, m.COGHeightPct,
				m.StabilityScore, m.FragileProtection, m.UnloadingEfficiency)
		}
		tw.Flush()
		if ok {
			fmt.Fprintf(stdout, "Selected: %s\n", best.Name())
			if second, found := runnerUp(results, best); found {
				fmt.Fprintf(stdout, "Efficiency vs %s: %+.3f\n", second.Name(),
					engine.CompareResults(best.Result, second.Result, e.items))
			}
		}
	}

	if !ok {
		return ExitFailure
	}
	plan := analyse(e, best.Result)
	plan.Title = "Load Plan (" + best.Name() + ")"
	if err := c.writeOutputs(e, plan); err != nil {
		fmt.Fprintf(stderr, "export failed: %v\n", err)
		return ExitFailure
	}
	return ExitSuccess
}

// runnerUp returns the best ranked result other than selected.
func runnerUp(results []engine.ScenarioResult, selected engine.ScenarioResult) (engine.ScenarioResult, bool) {
	for _, r := range results {
		if r.Config.Profile != selected.Config.Profile {
			return r, true
		}
	}
	return engine.ScenarioResult{}, false
}

func cmdValidate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	projectPath := fs.String("project", "", "project JSON written by pack --out (required)")
	configPath := fs.String("config", "", "config file")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if *projectPath == "" {
		fmt.Fprintln(stderr, "--project is required")
		return ExitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return ExitConfigError
	}
	logger := config.NewLogger(cfg.Log, stderr)

	p, err := project.LoadProject(*projectPath)
	if err != nil {
		fmt.Fprintf(stderr, "project: %v\n", err)
		return ExitInputError
	}
	if p.Result == nil {
		fmt.Fprintln(stderr, "project has no packing result")
		return ExitInputError
	}

	e := &env{cfg: cfg, settings: p.Settings, logger: logger, vehicle: p.Vehicle, items: p.Items}
	plan := analyse(e, *p.Result)
	layers := rules.ValidatePackingConfiguration(rules.GroupIntoVentilationLayers(model.ExpandItems(p.Items)), p.Vehicle)

	printResult(stdout, plan)
	for _, v := range plan.Clearance.Errors {
		fmt.Fprintf(stdout, "clearance error: %s\n", v.Message)
	}
	for _, msg := range layers.Errors {
		fmt.Fprintf(stdout, "stacking error: %s\n", msg)
	}
	for _, msg := range layers.Warnings {
		fmt.Fprintf(stdout, "stacking warning: %s\n", msg)
	}
	for _, pl := range rules.UnsupportedRounds(plan.Registry, plan.Result.Placements, cfg.Stability.AdjacencyTolerance) {
		fmt.Fprintf(stdout, "support warning: round duct %s in vehicle %d at %.0f mm has no lateral support\n", pl.ItemID, pl.Bin+1, pl.Y)
	}

	if !plan.Clearance.Valid || !layers.IsValid || plan.Stability.Overall == stability.RatingDangerous {
		return ExitFailure
	}
	fmt.Fprintln(stdout, "OK")
	return ExitSuccess
}

func cmdFleet(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fleet", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fleetPath := fs.String("fleet", project.DefaultFleetPath(), "fleet catalog")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	fleet, err := project.LoadFleet(*fleetPath)
	if err != nil {
		fmt.Fprintf(stderr, "fleet: %v\n", err)
		return ExitInputError
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tW x H x L (mm)\tPAYLOAD (kg)")
	for _, v := range fleet.Vehicles {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f x %.0f x %.0f\t%.0f\n", v.ID, v.Name, v.Type, v.Width, v.Height, v.Length, v.MaxPayload)
	}
	tw.Flush()
	return ExitSuccess
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"spfnn/internal/storage"
	spfapi "spfnn/pkg/spfnn"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:], stdout)
	case "models":
		return runModels(ctx, args[1:], stdout)
	case "generate":
		return runGenerate(ctx, args[1:], stdout)
	case "import":
		return runImport(ctx, args[1:], stdout)
	case "export":
		return runExport(ctx, args[1:], stdout)
	case "inspect":
		return runInspect(ctx, args[1:], stdout)
	case "run":
		return runRun(ctx, args[1:], stdout)
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type storeFlags struct {
	kind *string
	path *string
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		kind: fs.String("store", storage.DefaultStoreKind(), "store backend: memory|dir|sqlite"),
		path: fs.String("path", "", "sqlite database file or dir-store root (default spfnn.db / models)"),
	}
}

func (f storeFlags) open() (*spfapi.Client, error) {
	return spfapi.New(spfapi.Options{StoreKind: *f.kind, Path: *f.path})
}

func runInit(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := store.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "initialized store=%s\n", *store.kind)
	return nil
}

func runModels(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := store.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	manifests, err := client.Models(ctx)
	if err != nil {
		return err
	}
	for _, m := range manifests {
		d := m.Config.Dims
		fmt.Fprintf(stdout, "model=%s xdim=%d hdim=%d ydim=%d sdim=%d phase_index=%d\n",
			m.ModelID, d.XDim, d.HDim, d.YDim, d.SDim, m.Config.PhaseIndex)
	}
	return nil
}

func runGenerate(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	store := addStoreFlags(fs)
	configPath := fs.String("config", "", "network config json")
	modelID := fs.String("model-id", "", "model id (generated when empty)")
	seed := fs.Int64("seed", 1, "random seed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		return errors.New("--config is required")
	}
	cfg, err := loadEngineConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	client, err := store.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Generate(ctx, spfapi.GenerateRequest{ModelID: *modelID, Config: cfg, Seed: *seed})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "generated model=%s slots=%d seed=%d\n", summary.ModelID, summary.Slots, *seed)
	return nil
}

func runImport(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	store := addStoreFlags(fs)
	configPath := fs.String("config", "", "network config json")
	dir := fs.String("dir", "", "directory of .bin parameter files")
	modelID := fs.String("model-id", "", "model id (generated when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" || *dir == "" {
		return errors.New("--config and --dir are required")
	}
	cfg, err := loadEngineConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	client, err := store.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Import(ctx, spfapi.ImportRequest{ModelID: *modelID, Dir: *dir, Config: cfg})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "imported model=%s slots=%d from=%s\n", summary.ModelID, summary.Slots, *dir)
	return nil
}

func runExport(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	store := addStoreFlags(fs)
	modelID := fs.String("model-id", "", "model id")
	outDir := fs.String("out", "", "output directory (default exports/<model-id>)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *modelID == "" {
		return errors.New("--model-id is required")
	}

	client, err := store.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Export(ctx, spfapi.ExportRequest{ModelID: *modelID, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "exported model=%s files=%d dir=%s\n", summary.ModelID, summary.Files, summary.Directory)
	return nil
}

func runInspect(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	store := addStoreFlags(fs)
	modelID := fs.String("model-id", "", "model id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *modelID == "" {
		return errors.New("--model-id is required")
	}

	client, err := store.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Inspect(ctx, *modelID)
	if err != nil {
		return err
	}
	return writeInspect(stdout, summary, isTerminal(stdout))
}

func writeInspect(w io.Writer, summary spfapi.InspectSummary, human bool) error {
	size := func(n uint64) string {
		if human {
			return humanize.IBytes(n)
		}
		return fmt.Sprintf("%d", n)
	}
	cfg := summary.Manifest.Config
	fmt.Fprintf(w, "model=%s xdim=%d hdim=%d ydim=%d sdim=%d style_neurons=%v phase_index=%d total=%s\n",
		summary.Manifest.ModelID, cfg.XDim, cfg.HDim, cfg.YDim, cfg.SDim, cfg.StyleNeurons, cfg.PhaseIndex, size(summary.TotalBytes))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "slot\tname\tshape\tsize")
	for _, slot := range summary.Slots {
		stored := size(slot.Bytes)
		if slot.Bytes == 0 {
			stored = "missing"
		}
		fmt.Fprintf(tw, "%d\t%s\t%dx%d\t%s\n", slot.Index, slot.Name, slot.Rows, slot.Cols, stored)
	}
	return tw.Flush()
}

func runRun(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	store := addStoreFlags(fs)
	modelID := fs.String("model-id", "", "model id")
	inputsPath := fs.String("inputs", "", "csv file, one input vector per row")
	outPath := fs.String("out", "", "output csv (default stdout)")
	damping := fs.Float64("damping", 0, "phase damping in [0,1]")
	phase := fs.Float64("phase", 0, "initial phase in radians")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *modelID == "" || *inputsPath == "" {
		return errors.New("--model-id and --inputs are required")
	}

	f, err := os.Open(*inputsPath)
	if err != nil {
		return err
	}
	rows, err := readInputRows(f)
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("read inputs: %w", err)
	}

	client, err := store.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	steps, err := client.Replay(ctx, spfapi.ReplayRequest{
		ModelID:      *modelID,
		Inputs:       rows,
		Damping:      *damping,
		InitialPhase: *phase,
	})
	if err != nil {
		return err
	}

	if *outPath == "" {
		return writeReplayCSV(stdout, steps)
	}
	out, err := os.Create(*outPath)
	if err != nil {
		return err
	}
	if err := writeReplayCSV(out, steps); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "ran model=%s ticks=%d out=%s\n", *modelID, len(steps), *outPath)
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: spfnnctl <init|models|generate|import|export|inspect|run> [flags]", msg)
}

// sdgen is a batch image-generation orchestrator for a Stable Diffusion
// synthesis backend: it resolves a prompt document's inheritance chain,
// imports, and theme, enumerates the combination space, submits each
// resolved prompt sequentially to the backend, and tracks the session in
// an append-only manifest.
//
// Usage:
//
//	sdgen generate -t <path> [-n <max>] [--dry-run] [--session-name <s>] [--theme <t>] [--theme-file <p>] [--style <s>]
//	sdgen list
//	sdgen validate <path>
//	sdgen init
//	sdgen api <samplers|models|upscalers|adetailer-models>
//	sdgen rebuild <manifest.json> [--output-dir <d>]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"go.opentelemetry.io/otel"
	"gopkg.in/yaml.v3"

	"gitlab.com/tinyland/lab/sdgen/pkg/annotate"
	"gitlab.com/tinyland/lab/sdgen/pkg/docmodel"
	"gitlab.com/tinyland/lab/sdgen/pkg/executor"
	"gitlab.com/tinyland/lab/sdgen/pkg/generator"
	"gitlab.com/tinyland/lab/sdgen/pkg/imports"
	"gitlab.com/tinyland/lab/sdgen/pkg/inherit"
	"gitlab.com/tinyland/lab/sdgen/pkg/manifest"
	"gitlab.com/tinyland/lab/sdgen/pkg/normalize"
	"gitlab.com/tinyland/lab/sdgen/pkg/sdapi"
	"gitlab.com/tinyland/lab/sdgen/pkg/sdgenconfig"
	"gitlab.com/tinyland/lab/sdgen/pkg/sdmetrics"
	"gitlab.com/tinyland/lab/sdgen/pkg/sdtelemetry"
	"gitlab.com/tinyland/lab/sdgen/pkg/sdyaml"
	"gitlab.com/tinyland/lab/sdgen/pkg/session"
	"gitlab.com/tinyland/lab/sdgen/pkg/template"
	"gitlab.com/tinyland/lab/sdgen/pkg/theme"
	"gitlab.com/tinyland/lab/sdgen/pkg/validate"
)

// Exit codes per the CLI surface's documented contract.
const (
	exitOK         = 0
	exitValidation = 1
	exitIO         = 2
	exitAPI        = 3
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitValidation)
	}

	cmd, args := os.Args[1], os.Args[2:]
	var code int
	switch cmd {
	case "generate":
		code = runGenerate(args)
	case "list":
		code = runList(args)
	case "validate":
		code = runValidate(args)
	case "init":
		code = runInit(args)
	case "api":
		code = runAPI(args)
	case "rebuild":
		code = runRebuild(args)
	case "-h", "--help", "help":
		printUsage()
		code = exitOK
	default:
		fmt.Fprintf(os.Stderr, "sdgen: unknown command %q\n", cmd)
		printUsage()
		code = exitValidation
	}
	os.Exit(code)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: sdgen <command> [flags]

commands:
  generate -t <path> [-n <max>] [--dry-run] [--session-name <s>] [--theme <t>] [--theme-file <p>] [--style <s>]
  list
  validate <path>
  init
  api <samplers|models|upscalers|adetailer-models>
  rebuild <manifest.json> [--output-dir <d>]`)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig(path string) (*sdgenconfig.Config, error) {
	if path != "" {
		return sdgenconfig.LoadFromFile(path)
	}
	return sdgenconfig.Load()
}

func loadRawYAML(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM, mirroring
// the executor's cooperative-cancellation contract (§5).
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()
	return ctx, cancel
}

// styler holds the lipgloss styles used for progress output, degrading to
// unstyled rendering when stdout is not a terminal.
type styler struct {
	ok   lipgloss.Style
	fail lipgloss.Style
}

func newStyler() styler {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		plain := lipgloss.NewStyle()
		return styler{ok: plain, fail: plain}
	}
	return styler{
		ok:   lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")),
		fail: lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
	}
}

func progressReporter(total int, st styler) executor.ProgressReporter {
	return func(p executor.Progress) {
		switch {
		case p.DryRun:
			fmt.Println(st.ok.Render(fmt.Sprintf("[%d/%d] dry-run", p.Index+1, total)))
		case p.Success:
			fmt.Println(st.ok.Render(fmt.Sprintf("[%d/%d] %s (seed %d)", p.Index+1, total, p.Filename, p.Seed)))
		default:
			fmt.Println(st.fail.Render(fmt.Sprintf("[%d/%d] failed (%s): %s", p.Index+1, total, p.FailureKind, p.Message)))
		}
	}
}

func printSummary(summary executor.Summary) int {
	fmt.Printf("session: %s\n", summary.SessionDir)
	fmt.Printf("succeeded: %d  failed: %d  cancelled: %v\n", summary.Succeeded, summary.Failed, summary.Cancelled)
	if summary.Succeeded == 0 && summary.Failed > 0 {
		return exitAPI
	}
	return exitOK
}

// stubAnnotationRenderer is a placeholder annotate.Renderer: the actual
// rendering logic is an external collaborator, specified only by the
// worker's queue contract. This implementation exists so the worker has
// something to drive in a running binary.
type stubAnnotationRenderer struct {
	logger *slog.Logger
}

func (r *stubAnnotationRenderer) Annotate(path string, variations map[string]string) error {
	r.logger.Debug("annotate", "path", path, "variations", variations)
	return nil
}

// explicitImports returns the imports declared directly on doc, as opposed
// to ones that arrived via an `implements` chain.
func explicitImports(doc *docmodel.Document) map[string]docmodel.ImportEntry {
	if doc.Imports == nil {
		return map[string]docmodel.ImportEntry{}
	}
	return doc.Imports
}

func totalCombinations(rc *docmodel.ResolvedContext) int {
	total := 1
	for _, name := range rc.PlaceholderOrder {
		if vm := rc.Variations[name]; vm != nil && vm.Len() > 0 {
			total *= vm.Len()
		}
	}
	return total
}

func variationEntries(full map[string]*docmodel.VariationMap) map[string]*manifest.VariationEntry {
	out := make(map[string]*manifest.VariationEntry, len(full))
	for name, vm := range full {
		out[name] = &manifest.VariationEntry{
			Available: append([]string(nil), vm.Keys()...),
			Used:      []string{},
			Count:     vm.Len(),
		}
	}
	return out
}

func runGenerate(args []string) int {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	templatePath := fs.String("t", "", "path to the prompt or template document")
	maxImages := fs.Int("n", 0, "override the document's generation.max_images (0 = use document value)")
	dryRun := fs.Bool("dry-run", false, "resolve and enumerate without calling the synthesis API")
	sessionName := fs.String("session-name", "", "override the session's output directory label")
	themeName := fs.String("theme", "", "activate a named theme")
	themeFile := fs.String("theme-file", "", "load a theme.yaml directly, bypassing autodiscovery")
	style := fs.String("style", "", "style suffix used to pick among a theme's style variants")
	configPath := fs.String("config", "", "path to sdgen_config.json (default: search path)")
	perCallTimeout := fs.Duration("timeout", 120*time.Second, "per-call timeout against the synthesis API")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics at this address (empty disables)")
	otlpEndpoint := fs.String("otlp-endpoint", "", "OTLP/HTTP traces endpoint (empty disables tracing)")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return exitValidation
	}
	if *templatePath == "" {
		fmt.Fprintln(os.Stderr, "generate: -t is required")
		return exitValidation
	}

	logger := newLogger(*verbose)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("config load failed", "err", err)
		return exitIO
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	if *otlpEndpoint != "" {
		tp, err := sdtelemetry.NewTracerProvider(ctx, *otlpEndpoint, "sdgen")
		if err != nil {
			logger.Warn("tracer provider init failed", "err", err)
		} else {
			otel.SetTracerProvider(tp)
			sdtelemetry.SetupPropagation()
			defer tp.Shutdown(context.Background())
		}
	}

	if *metricsAddr != "" {
		exporter := sdmetrics.NewExporter(*metricsAddr)
		go func() {
			if err := exporter.Start(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics server error", "err", err)
			}
		}()
		defer exporter.Shutdown(context.Background())
	}

	loader := sdyaml.NewLoader()
	leaf, err := loader.LoadDocument(*templatePath)
	if err != nil {
		logger.Error("load failed", "err", err)
		return exitIO
	}

	raw, rawErr := loadRawYAML(*templatePath)
	if rawErr != nil {
		logger.Warn("schema validation skipped", "err", rawErr)
	}
	if errs := validate.Validate(leaf, raw); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		return exitValidation
	}

	merged, err := inherit.Resolve(loader, leaf, logger)
	if err != nil {
		logger.Error("inheritance resolution failed", "err", err)
		return exitValidation
	}

	baseDir := filepath.Dir(merged.SourcePath)

	finalImports := merged.Imports
	var provenance map[string]string
	var activeThemeName, activeStyle *string
	switch {
	case *themeFile != "":
		name := *themeName
		if name == "" {
			name = "_file"
		}
		block := &docmodel.ThemesBlock{Themes: map[string]string{name: *themeFile}}
		finalImports, provenance, err = theme.Resolve(loader, block, baseDir, name, *style, merged.Imports, explicitImports(leaf))
		activeThemeName = &name
	case *themeName != "":
		finalImports, provenance, err = theme.Resolve(loader, merged.Themes, baseDir, *themeName, *style, merged.Imports, explicitImports(leaf))
		activeThemeName = themeName
	}
	if err != nil {
		logger.Error("theme resolution failed", "err", err)
		return exitValidation
	}
	if activeThemeName != nil && *style != "" {
		activeStyle = style
	}

	resolvedImports, err := imports.ResolveAll(loader, finalImports, baseDir)
	if err != nil {
		logger.Error("import resolution failed", "err", err)
		return exitValidation
	}

	variationsFull := make(map[string]*docmodel.VariationMap)
	chunkDocs := make(map[string]*docmodel.Document, len(merged.Chunks))
	for k, v := range merged.Chunks {
		chunkDocs[k] = v
	}
	params := merged.EffectiveParameters()
	for name, r := range resolvedImports {
		switch {
		case r.Variation != nil:
			variationsFull[name] = r.Variation
		case r.Chunk != nil:
			chunkDocs[name] = r.Chunk
		case r.ADetailer != nil:
			params["adetailer"] = r.ADetailer
		case r.ControlNet != nil:
			params["controlnet"] = r.ControlNet
		}
	}

	injectedBody, chunkDefaults, err := template.InjectChunks(merged.Body, chunkDocs, merged.Defaults)
	if err != nil {
		logger.Error("chunk injection failed", "err", err)
		return exitValidation
	}

	if *maxImages > 0 {
		merged.Generation.MaxImages = *maxImages
	}

	rng := generator.NewSelectionRNG(merged.Generation.BaseSeed)
	rc, err := template.BuildContext(injectedBody, merged.NegativePrompt, variationsFull, chunkDefaults, rng)
	if err != nil {
		logger.Error("context resolution failed", "err", err)
		return exitValidation
	}
	rc.Parameters = params
	rc.Chunks = make(map[string]string, len(chunkDocs))
	for k, d := range chunkDocs {
		rc.Chunks[k] = d.Body
	}
	rc.Provenance = provenance
	rc.ThemeName = activeThemeName
	rc.Style = activeStyle

	prompts, err := generator.Generate(rc, merged.Generation, rng)
	if err != nil {
		logger.Error("generation failed", "err", err)
		return exitValidation
	}
	for i := range prompts {
		prompts[i].Prompt = normalize.Apply(prompts[i].Prompt)
		prompts[i].NegativePrompt = normalize.Apply(prompts[i].NegativePrompt)
	}

	var outputSessionName string
	var filenameKeys []string
	var annotationCfg *docmodel.AnnotationConfig
	if merged.Output != nil {
		outputSessionName = merged.Output.SessionName
		filenameKeys = merged.Output.FilenameKeys
		annotationCfg = merged.Output.Annotation
	}
	filenameStem := strings.TrimSuffix(filepath.Base(*templatePath), filepath.Ext(*templatePath))
	name := session.ResolveName(*sessionName, outputSessionName, merged.Name, filenameStem)

	sess, err := session.New(cfg.OutputDir, name, time.Now())
	if err != nil {
		logger.Error("session init failed", "err", err)
		return exitIO
	}

	api := sdapi.NewClient(cfg.APIURL, *perCallTimeout)

	snapshot := manifest.Snapshot{
		Version:          merged.Version,
		Timestamp:        manifest.NowTimestamp(),
		RuntimeInfo:      map[string]string{"sd_model_checkpoint": api.FetchCheckpoint(ctx)},
		ResolvedTemplate: manifest.ResolvedTemplate{Prompt: injectedBody, Negative: merged.NegativePrompt},
		GenerationParams: manifest.GenerationParams{
			Mode:              string(merged.Generation.Mode),
			SeedMode:          string(merged.Generation.SeedMode),
			BaseSeed:          merged.Generation.BaseSeed,
			NumImages:         len(prompts),
			TotalCombinations: totalCombinations(rc),
		},
		APIParams:  params,
		Variations: variationEntries(variationsFull),
		ThemeName:  activeThemeName,
		Style:      activeStyle,
	}

	manifestPath := sess.ManifestPath()
	if *dryRun {
		dryDir := filepath.Join(sess.Dir(), "dryrun")
		if err := os.MkdirAll(dryDir, 0o755); err != nil {
			logger.Error("dry-run directory init failed", "err", err)
			return exitIO
		}
		manifestPath = filepath.Join(dryDir, "manifest.json")
	}
	mf, err := manifest.New(manifestPath, snapshot)
	if err != nil {
		logger.Error("manifest init failed", "err", err)
		return exitIO
	}

	var worker *annotate.Worker
	if annotationCfg != nil && annotationCfg.Enabled {
		worker = annotate.New(&stubAnnotationRenderer{logger: logger}, annotate.Config{
			Position:          annotationCfg.Position,
			FontSize:          annotationCfg.FontSize,
			BackgroundOpacity: annotationCfg.BackgroundOpacity,
			TextColor:         annotationCfg.TextColor,
			Keys:              annotationCfg.Keys,
		}, logger)
	}

	execCfg := executor.Config{
		DryRun:         *dryRun,
		PerCallTimeout: *perCallTimeout,
		FilenamePrefix: name,
		FilenameKeys:   filenameKeys,
	}
	st := newStyler()
	exec := executor.New(api, sess, mf, worker, execCfg, logger, progressReporter(len(prompts), st))
	summary := exec.Run(ctx, prompts)

	return printSummary(summary)
}

func runList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to sdgen_config.json")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return exitValidation
	}

	logger := newLogger(*verbose)
	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("config load failed", "err", err)
		return exitIO
	}

	loader := sdyaml.NewLoader()
	var found []string
	walkErr := filepath.WalkDir(cfg.ConfigsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".yaml") {
			return nil
		}
		doc, loadErr := loader.LoadDocument(path)
		if loadErr != nil {
			return nil
		}
		if doc.Kind == docmodel.KindPrompt || doc.Kind == docmodel.KindTemplate {
			found = append(found, fmt.Sprintf("%s\t%s\t%s", doc.Name, doc.Kind, path))
		}
		return nil
	})
	if walkErr != nil {
		logger.Error("list failed", "err", walkErr)
		return exitIO
	}

	sort.Strings(found)
	for _, f := range found {
		fmt.Println(f)
	}
	return exitOK
}

func runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return exitValidation
	}
	rest := fs.Args()
	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "validate: expected exactly one path argument")
		return exitValidation
	}
	path := rest[0]
	logger := newLogger(*verbose)

	loader := sdyaml.NewLoader()
	leaf, err := loader.LoadDocument(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitIO
	}

	raw, rawErr := loadRawYAML(path)
	if rawErr != nil {
		logger.Warn("schema validation skipped", "err", rawErr)
	}

	errs := validate.Validate(leaf, raw)
	if len(errs) == 0 {
		merged, err := inherit.Resolve(loader, leaf, logger)
		if err != nil {
			errs = append(errs, err)
		} else if _, err := imports.ResolveAll(loader, merged.Imports, filepath.Dir(merged.SourcePath)); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		return exitValidation
	}
	fmt.Println("OK")
	return exitOK
}

const starterPromptDoc = `version: "1.0.0"
name: starter
imports:
  subject: starter.subject.yaml
generation:
  mode: combinatorial
  seed_mode: fixed
  base_seed: 1
  max_images: 0
output:
  filename_keys: ["Subject"]
prompt: "a photo of {Subject}, masterpiece, best quality"
negative_prompt: "lowres, blurry"
parameters:
  steps: 20
  cfg_scale: 7
  width: 512
  height: 512
  sampler_name: "Euler a"
`

const starterVariationDoc = `cat: cat
dog: dog
robot: robot
`

func runInit(args []string) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to sdgen_config.json")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return exitValidation
	}

	logger := newLogger(*verbose)
	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("config load failed", "err", err)
		return exitIO
	}

	if err := os.MkdirAll(cfg.ConfigsDir, 0o755); err != nil {
		logger.Error("configs_dir init failed", "err", err)
		return exitIO
	}

	promptPath := filepath.Join(cfg.ConfigsDir, "starter.prompt.yaml")
	variationPath := filepath.Join(cfg.ConfigsDir, "starter.subject.yaml")
	if err := os.WriteFile(promptPath, []byte(starterPromptDoc), 0o644); err != nil {
		logger.Error("write starter prompt failed", "err", err)
		return exitIO
	}
	if err := os.WriteFile(variationPath, []byte(starterVariationDoc), 0o644); err != nil {
		logger.Error("write starter variation failed", "err", err)
		return exitIO
	}

	fmt.Printf("wrote %s\n", promptPath)
	fmt.Printf("wrote %s\n", variationPath)
	return exitOK
}

func runAPI(args []string) int {
	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to sdgen_config.json")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return exitValidation
	}
	rest := fs.Args()
	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "api: expected exactly one of samplers|models|upscalers|adetailer-models")
		return exitValidation
	}

	logger := newLogger(*verbose)
	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("config load failed", "err", err)
		return exitIO
	}

	client := sdapi.NewClient(cfg.APIURL, 30*time.Second)
	ctx := context.Background()

	var names []string
	switch rest[0] {
	case "samplers":
		names, err = client.Samplers(ctx)
	case "models":
		names, err = client.Models(ctx)
	case "upscalers":
		names, err = client.Upscalers(ctx)
	case "adetailer-models":
		names, err = client.ADetailerModels(ctx)
	default:
		fmt.Fprintf(os.Stderr, "api: unknown subcommand %q\n", rest[0])
		return exitValidation
	}
	if err != nil {
		logger.Error("api call failed", "err", err)
		return exitAPI
	}

	for _, n := range names {
		fmt.Println(n)
	}
	return exitOK
}

func runRebuild(args []string) int {
	fs := flag.NewFlagSet("rebuild", flag.ContinueOnError)
	outputDir := fs.String("output-dir", "", "override the configured output directory")
	configPath := fs.String("config", "", "path to sdgen_config.json")
	perCallTimeout := fs.Duration("timeout", 120*time.Second, "per-call timeout against the synthesis API")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return exitValidation
	}
	rest := fs.Args()
	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "rebuild: expected exactly one manifest.json path argument")
		return exitValidation
	}

	logger := newLogger(*verbose)
	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("config load failed", "err", err)
		return exitIO
	}
	dir := cfg.OutputDir
	if *outputDir != "" {
		dir = *outputDir
	}

	data, err := os.ReadFile(rest[0])
	if err != nil {
		logger.Error("read manifest failed", "err", err)
		return exitIO
	}
	var stored struct {
		Snapshot manifest.Snapshot     `json:"snapshot"`
		Images   []manifest.ImageEntry `json:"images"`
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		logger.Error("parse manifest failed", "err", err)
		return exitIO
	}
	snapshot := stored.Snapshot

	variationsFull := make(map[string]*docmodel.VariationMap, len(snapshot.Variations))
	for name, ve := range snapshot.Variations {
		vals := make(map[string]string, len(ve.Available))
		for _, v := range ve.Available {
			vals[v] = v
		}
		variationsFull[name] = docmodel.NewVariationMap(ve.Available, vals)
	}

	rng := generator.NewSelectionRNG(snapshot.GenerationParams.BaseSeed)
	rc, err := template.BuildContext(snapshot.ResolvedTemplate.Prompt, snapshot.ResolvedTemplate.Negative, variationsFull, map[string]string{}, rng)
	if err != nil {
		logger.Error("rebuild resolution failed", "err", err)
		return exitValidation
	}
	// Extension configs (ADetailer/ControlNet) decode from JSON as plain
	// maps rather than the typed structs BuildRequest expects, so a
	// rebuilt session reproduces prompts and seeds but not alwayson_scripts
	// args; the round-trip law only promises the former.
	rc.Parameters = snapshot.APIParams

	gen := docmodel.GenerationConfig{
		Mode:      docmodel.Mode(snapshot.GenerationParams.Mode),
		SeedMode:  docmodel.SeedMode(snapshot.GenerationParams.SeedMode),
		BaseSeed:  snapshot.GenerationParams.BaseSeed,
		MaxImages: snapshot.GenerationParams.NumImages,
	}
	prompts, err := generator.Generate(rc, gen, rng)
	if err != nil {
		logger.Error("rebuild generation failed", "err", err)
		return exitValidation
	}
	for i := range prompts {
		prompts[i].Prompt = normalize.Apply(prompts[i].Prompt)
		prompts[i].NegativePrompt = normalize.Apply(prompts[i].NegativePrompt)
	}

	stem := strings.TrimSuffix(filepath.Base(rest[0]), filepath.Ext(rest[0]))
	sess, err := session.New(dir, "rebuild_"+stem, time.Now())
	if err != nil {
		logger.Error("session init failed", "err", err)
		return exitIO
	}

	rebuiltSnapshot := snapshot
	rebuiltSnapshot.Timestamp = manifest.NowTimestamp()
	mf, err := manifest.New(sess.ManifestPath(), rebuiltSnapshot)
	if err != nil {
		logger.Error("manifest init failed", "err", err)
		return exitIO
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	api := sdapi.NewClient(cfg.APIURL, *perCallTimeout)
	st := newStyler()
	execCfg := executor.Config{PerCallTimeout: *perCallTimeout, FilenamePrefix: "rebuild"}
	exec := executor.New(api, sess, mf, nil, execCfg, logger, progressReporter(len(prompts), st))
	summary := exec.Run(ctx, prompts)

	return printSummary(summary)
}

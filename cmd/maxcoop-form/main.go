package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/maxcoop/subscription-form/internal/config"
	"github.com/maxcoop/subscription-form/internal/delivery"
	"github.com/maxcoop/subscription-form/internal/form"
	"github.com/maxcoop/subscription-form/internal/inspect"
	"github.com/maxcoop/subscription-form/internal/render"
	"github.com/maxcoop/subscription-form/internal/server"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// intakeFile is the render-mode input: the flat field values, the checked
// identification types, and paths (relative to the file itself) to the
// uploads.
type intakeFile struct {
	Fields        map[string]string `json:"fields"`
	IDTypes       []string          `json:"id_types"`
	PassportPhoto string            `json:"passport_photo"`
	Documents     map[string]string `json:"documents"`
}

// setupLogging configures logging based on the invocation mode
func setupLogging(cfg *config.Config) {
	if cfg.IsRenderMode() {
		// Render mode writes results to stdout; keep logs on stderr
		log.SetOutput(os.Stderr)
	} else {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, srv *server.Server) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		log.Printf("Received signal: %s", sig)
		log.Println("Initiating graceful shutdown...")
		cancel()

		if err := <-serverErrCh; err != nil {
			log.Printf("Server shutdown with error: %v", err)
			os.Exit(1)
		}

	case err := <-serverErrCh:
		if err != nil {
			log.Printf("Server error: %v", err)
			os.Exit(1)
		}
	}

	log.Println("Server stopped successfully")
}

// runRenderMode performs a one-shot submission from an intake file
func runRenderMode(ctx context.Context, cfg *config.Config, renderer form.Renderer) error {
	intakePath := pflag.Arg(0)
	if intakePath == "" {
		return fmt.Errorf("render mode requires a submission file argument")
	}

	intake, err := loadIntakeFile(intakePath)
	if err != nil {
		return err
	}

	deliv, err := delivery.Wire(cfg.OutputDirectory, cfg.RecipientEmail, cfg.FollowupDelay)
	if err != nil {
		return err
	}

	ctrl := form.NewController(renderer,
		form.WithMaxUploadSize(cfg.MaxUploadSize),
		form.WithDelivery(deliv),
		form.WithBusyIndicator(func(busy bool) {
			if busy {
				log.Println("Generating PDF...")
			}
		}),
	)

	if err := populateController(ctrl, intake, filepath.Dir(intakePath)); err != nil {
		return err
	}

	result, err := ctrl.Submit(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Saved: %s\n", result.DownloadPath)
	if pages, err := inspect.PageCount(result.Artifact.PDF); err == nil {
		fmt.Printf("Pages: %d\n", pages)
	}
	if result.ComposeURL != "" {
		fmt.Printf("Compose: %s\n", result.ComposeURL)
	}
	if result.Instructions != "" {
		fmt.Printf("\n%s\n", result.Instructions)
	}
	return nil
}

func loadIntakeFile(path string) (*intakeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading submission file: %w", err)
	}
	var intake intakeFile
	if err := json.Unmarshal(data, &intake); err != nil {
		return nil, fmt.Errorf("parsing submission file: %w", err)
	}
	return &intake, nil
}

// populateController replays the intake file through the same operations
// the interactive form uses: field writes, slot toggles, file ingestion.
func populateController(ctrl *form.Controller, intake *intakeFile, baseDir string) error {
	for name, value := range intake.Fields {
		if err := ctrl.State().ApplyField(name, value); err != nil {
			return err
		}
	}

	for _, key := range intake.IDTypes {
		kind, ok := form.ParseIDKind(key)
		if !ok {
			return fmt.Errorf("unknown identification type: %s", key)
		}
		ctrl.ToggleIDSlot(kind, true)
	}

	if intake.PassportPhoto != "" {
		if err := ingestFile(intake.PassportPhoto, baseDir, func(name string, f *os.File) error {
			return ctrl.IngestPassportPhoto(name, f)
		}); err != nil {
			return err
		}
	}

	for key, path := range intake.Documents {
		kind, ok := form.ParseIDKind(key)
		if !ok {
			return fmt.Errorf("unknown identification type: %s", key)
		}
		if err := ingestFile(path, baseDir, func(name string, f *os.File) error {
			_, err := ctrl.IngestIDDocument(kind, name, f)
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

func ingestFile(path, baseDir string, fn func(string, *os.File) error) error {
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening upload %s: %w", path, err)
	}
	defer f.Close()
	return fn(filepath.Base(path), f)
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	if err := godotenv.Load(); err != nil {
		// No .env file is the normal case outside development
		log.Println("No .env file loaded")
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg)

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	renderer := render.New(render.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.IsServerMode() {
		srv := server.New(cfg, renderer)
		runServerMode(ctx, cancel, srv)
	} else {
		if err := runRenderMode(ctx, cfg, renderer); err != nil {
			log.Fatalf("Submission failed: %v", err)
		}
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("MAXCOOP Subscription Form\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}

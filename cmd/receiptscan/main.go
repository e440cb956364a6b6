package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/keiri-app/receiptscan/internal/classify"
	"github.com/keiri-app/receiptscan/internal/preprocess"
	"github.com/keiri-app/receiptscan/internal/receipt"
	"github.com/keiri-app/receiptscan/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// Local .env is optional
	godotenv.Load()

	fs := ff.NewFlagSet("receiptscan")
	var (
		port         = fs.IntLong("port", 8080, "HTTP server port")
		dbPath       = fs.StringLong("db", "receiptscan.db", "Database file path")
		storagePath  = fs.StringLong("storage", "./receipts", "Storage directory path")
		engineNames  = fs.StringLong("engines", "gemini", "Comma-separated OCR engines: 'gemini', 'ollama'")
		geminiKey    = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel  = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL    = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel  = fs.StringLong("ollama-model", "llava", "Ollama vision model name")
		taxonomyPath = fs.StringLong("taxonomy", "", "YAML file overriding the built-in expense taxonomy")
		authUser     = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass     = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		noDeskew     = fs.BoolLong("no-deskew", "Disable the deskew preprocessing stage")
		noBinarize   = fs.BoolLong("no-binarize", "Disable the binarize preprocessing stage")
		noContrast   = fs.BoolLong("no-contrast", "Disable the contrast enhancement stage")
		noDenoise    = fs.BoolLong("no-denoise", "Disable the noise removal stage")
		noSharpen    = fs.BoolLong("no-sharpen", "Disable the sharpen stage")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPTSCAN"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	slog.Info("Initializing database...")
	db, err := receipt.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	engines := buildEngines(*engineNames, *geminiKey, *geminiModel, *ollamaURL, *ollamaModel)
	if len(engines) == 0 {
		slog.Error("No OCR engines configured", "engines", *engineNames)
		os.Exit(1)
	}
	defer func() {
		for _, e := range engines {
			e.Close()
		}
	}()

	taxonomy := classify.DefaultTaxonomy()
	if *taxonomyPath != "" {
		taxonomy, err = classify.LoadTaxonomy(*taxonomyPath)
		if err != nil {
			slog.Error("Failed to load taxonomy", "path", *taxonomyPath, "error", err)
			os.Exit(1)
		}
		slog.Info("Loaded taxonomy override", "path", *taxonomyPath, "categories", len(taxonomy))
	}

	slog.Info("Initializing storage...")
	store, err := receipt.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	opts := preprocess.Options{
		Deskew:          !*noDeskew,
		Binarize:        !*noBinarize,
		EnhanceContrast: !*noContrast,
		RemoveNoise:     !*noDenoise,
		Sharpen:         !*noSharpen,
	}
	pre := preprocess.New(preprocess.NewStdCodec())

	service := receipt.NewService(db, store, pre, engines, classify.New(taxonomy), opts)
	server := receipt.NewServer(service, receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	})

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}

// buildEngines constructs the requested OCR engines, skipping any that fail
// to initialize.
func buildEngines(names, geminiKey, geminiModel, ollamaURL, ollamaModel string) []scanning.Engine {
	var engines []scanning.Engine
	for _, name := range strings.Split(names, ",") {
		switch strings.TrimSpace(name) {
		case "gemini":
			apiKey := geminiKey
			if apiKey == "" {
				apiKey = os.Getenv("GEMINI_API_KEY")
			}
			if apiKey == "" {
				slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
				continue
			}
			slog.Info("Initializing Gemini engine...", "model", geminiModel)
			engine, err := scanning.NewGemini(apiKey, geminiModel)
			if err != nil {
				slog.Error("Failed to initialize Gemini", "error", err)
				continue
			}
			engines = append(engines, engine)
		case "ollama":
			slog.Info("Initializing Ollama engine...", "url", ollamaURL, "model", ollamaModel)
			engine, err := scanning.NewOllama(ollamaURL, ollamaModel)
			if err != nil {
				slog.Error("Failed to initialize Ollama", "error", err)
				continue
			}
			engines = append(engines, engine)
		case "":
		default:
			slog.Error("Unknown OCR engine", "engine", name, "valid", "gemini, ollama")
		}
	}
	return engines
}

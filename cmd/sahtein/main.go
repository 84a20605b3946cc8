// Package main is the Sahtein CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sahtein/sahtein/internal/compose"
	"github.com/sahtein/sahtein/internal/config"
	"github.com/sahtein/sahtein/internal/guard"
	"github.com/sahtein/sahtein/internal/index"
	"github.com/sahtein/sahtein/internal/linkresolve"
	"github.com/sahtein/sahtein/internal/llm"
	"github.com/sahtein/sahtein/internal/loader"
	"github.com/sahtein/sahtein/internal/models"
	"github.com/sahtein/sahtein/internal/normalize"
	"github.com/sahtein/sahtein/internal/pipeline"
	"github.com/sahtein/sahtein/internal/query"
	"github.com/sahtein/sahtein/internal/ranking"
	"github.com/sahtein/sahtein/internal/retrieval"
	"github.com/sahtein/sahtein/internal/server"
	"github.com/sahtein/sahtein/internal/storage"
	"github.com/sahtein/sahtein/internal/watcher"
	"github.com/sahtein/sahtein/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/sahtein/config.yaml"

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory takes precedence, so running from the project
// directory picks up the project's config.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("sahtein version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds initialized services for one corpus snapshot.
type Components struct {
	Corpus   *loader.Corpus
	Content  *index.ContentIndex
	Links    *index.LinkIndex
	Pipeline *pipeline.Pipeline
	LoadedAt time.Time
}

func (c *Components) Close() {
	if c.Content != nil {
		_ = c.Content.Close()
	}
}

// snapshotDrainDelay is how long a replaced snapshot stays open after a corpus
// reload. In-flight requests hold the old pipeline; its index must outlive the
// server's request timeout.
const snapshotDrainDelay = time.Minute

// snapshotRef hands the current snapshot to request goroutines while corpus
// reloads swap it underneath.
type snapshotRef struct {
	mu  sync.RWMutex
	cur *Components
}

func newSnapshotRef(c *Components) *snapshotRef { return &snapshotRef{cur: c} }

func (r *snapshotRef) get() *Components {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cur
}

// swap installs next and returns the replaced snapshot.
func (r *snapshotRef) swap(next *Components) *Components {
	r.mu.Lock()
	old := r.cur
	r.cur = next
	r.mu.Unlock()
	return old
}

// newGenerator builds the configured prose generator, always bounded by the
// configured timeout. An unreachable Ollama degrades to the mock generator.
func newGenerator(cfg *config.Config, logger *zap.Logger) llm.Generator {
	timeout := time.Duration(cfg.Generator.TimeoutMS) * time.Millisecond

	var inner llm.Generator
	switch cfg.Generator.Provider {
	case "ollama":
		g, err := llm.NewOllamaGenerator("", cfg.Generator.Model)
		if err != nil {
			logger.Warn("ollama unavailable, using deterministic templates", zap.Error(err))
			inner = llm.NewMockGenerator()
		} else {
			inner = g
		}
	default:
		inner = llm.NewMockGenerator()
	}
	return llm.NewWithTimeout(inner, timeout)
}

func initializeComponents(cfg *config.Config, audit pipeline.Auditor, logger *zap.Logger) (*Components, error) {
	corpus, err := loader.Load(cfg.Corpus.ArticlesPath, cfg.Corpus.RecipesPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}

	content, err := index.NewContentIndex(corpus.Documents)
	if err != nil {
		return nil, fmt.Errorf("failed to build content index: %w", err)
	}
	links := index.NewLinkIndex(corpus.Articles)

	graph := normalize.NewCulinaryGraph()
	table := normalize.NewIngredientTable()

	pipe := pipeline.New(pipeline.Options{
		Classifier: query.NewClassifier(graph),
		Planner:    query.NewPlanner(graph),
		Retriever:  retrieval.NewRetriever(content, table, cfg.Retrieval.TopK, logger),
		Reranker:   ranking.NewReranker(cfg, table, logger),
		Resolver: linkresolve.NewResolver(links,
			cfg.Link.SimilarityThreshold, cfg.Link.SuggestedCount, logger),
		Composer: compose.NewComposer(newGenerator(cfg, logger), graph, corpus.RecipesByDocID, logger),
		Guard: guard.NewGuard(cfg.Link.AllowedDomain,
			cfg.Guard.MaxEmojis, cfg.Guard.MaxWords, cfg.Guard.MaxWordsRecipe, logger),
		Audit:         audit,
		Logger:        logger,
		MaxMessageLen: cfg.Retrieval.MaxMessageLen,
	})

	logger.Info("pipeline ready",
		zap.Int("documents", content.DocCount()),
		zap.Int("link_eligible", links.Len()))

	return &Components{
		Corpus:   corpus,
		Content:  content,
		Links:    links,
		Pipeline: pipe,
		LoadedAt: time.Now(),
	}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode))

	var audit *storage.AuditStore
	if cfg.Storage.AuditDBPath != "" {
		audit, err = storage.NewAuditStore(cfg.Storage.AuditDBPath, logger)
		if err != nil {
			logger.Fatal("Failed to open audit store", zap.Error(err))
		}
		defer audit.Close()
	}
	var auditor pipeline.Auditor
	if audit != nil {
		auditor = audit
	}

	components, err := initializeComponents(cfg, auditor, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	snapshots := newSnapshotRef(components)

	statusFn := func(ctx context.Context) server.Status {
		snap := snapshots.get()
		st := server.Status{
			Documents:      snap.Content.DocCount(),
			Articles:       len(snap.Corpus.Articles),
			Recipes:        len(snap.Corpus.Recipes),
			CorpusLoadedAt: snap.LoadedAt,
		}
		if audit != nil {
			if counts, countErr := audit.ScenarioCounts(ctx); countErr == nil {
				st.Scenarios = counts
			}
		}
		return st
	}

	srv := server.New(components.Pipeline, statusFn, logger)

	var watchSvc *watcher.Watcher
	if cfg.Corpus.Watch {
		watchSvc, err = watcher.New(
			[]string{cfg.Corpus.ArticlesPath, cfg.Corpus.RecipesPath},
			func() {
				rebuilt, rebuildErr := initializeComponents(cfg, auditor, logger)
				if rebuildErr != nil {
					logger.Warn("corpus rebuild failed, keeping current indexes", zap.Error(rebuildErr))
					return
				}
				srv.SetChatter(rebuilt.Pipeline)
				old := snapshots.swap(rebuilt)
				// Requests started before the swap still search the old
				// index; close it only after they have drained.
				time.AfterFunc(snapshotDrainDelay, old.Close)
				logger.Info("corpus reloaded",
					zap.Int("documents", rebuilt.Content.DocCount()))
			},
			logger,
		)
		if err != nil {
			logger.Fatal("Failed to start corpus watcher", zap.Error(err))
		}
		watchSvc.Start()
		defer watchSvc.Close()
	}
	defer func() { snapshots.get().Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", `server URL (empty = run the pipeline in-process)`)
	debug := fs.Bool("debug", false, "print the per-stage debug trace")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: sahtein ask [flags] <question>")
		os.Exit(1)
	}
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fmt.Println("Usage: sahtein ask [flags] <question>")
		os.Exit(1)
	}

	req := &models.ChatRequest{Message: question, Debug: *debug}

	var resp *models.ChatResponse
	if *serverURL != "" {
		r, err := askViaHTTP(*serverURL, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
		resp = r
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()

		components, err := initializeComponents(cfg, nil, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		resp = components.Pipeline.Process(context.Background(), req)
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Println(resp.HTML)
		fmt.Printf("\n# scenario: %d", resp.ScenarioID)
		if resp.PrimaryURL != "" {
			fmt.Printf("   link: %s", resp.PrimaryURL)
		}
		fmt.Println()
		if resp.Debug != nil {
			fmt.Printf("# intent: %s   language: %s   link_strategy: %s (%.2f)\n",
				resp.Debug.Classification.Intent, resp.Debug.Classification.Language,
				resp.Debug.LinkStrategy, resp.Debug.LinkConfidence)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func askViaHTTP(serverURL string, req *models.ChatRequest) (*models.ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out models.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", `server URL (empty = load the corpus in-process)`)
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status server.Status
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, nil, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		status = server.Status{
			Documents:      components.Content.DocCount(),
			Articles:       len(components.Corpus.Articles),
			Recipes:        len(components.Corpus.Recipes),
			CorpusLoadedAt: components.LoadedAt,
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("documents:        %d   # retrievable documents (articles + recipes)\n", status.Documents)
		fmt.Printf("articles:         %d   # link-eligible publication articles\n", status.Articles)
		fmt.Printf("recipes:          %d   # structured recipes\n", status.Recipes)
		fmt.Printf("corpus_loaded_at: %s\n", status.CorpusLoadedAt.Format(time.RFC3339))
		if len(status.Scenarios) > 0 {
			fmt.Println()
			fmt.Println("# responses served per scenario")
			for id := 1; id <= 8; id++ {
				if n, ok := status.Scenarios[id]; ok {
					fmt.Printf("scenario_%d:       %d\n", id, n)
				}
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*server.Status, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s server.Status
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func printUsage() {
	fmt.Println(`sahtein - Lebanese culinary assistant for L'Orient-Le Jour

Usage:
  sahtein server [flags]          Start the HTTP server
  sahtein ask [flags] <question>  Ask a question in French
  sahtein status [flags]          Show corpus and serving status
  sahtein version                 Show version
  sahtein help                    Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/sahtein/config.yaml)
  --debug            Enable debug logging

Ask Flags:
  --config string    Config file path (for in-process mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to run the pipeline in-process.
  --debug            Print the per-stage debug trace
  --output string    Output format: text or json (default: text)

Status Flags:
  --config string    Config file path (for in-process mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for in-process.
  --output string    Output format: text or json (default: text)

Examples:
  sahtein server
  sahtein ask "Recette du taboulé libanais"
  sahtein ask --debug "J'ai des pois chiches et du tahine"
  sahtein ask --output json "Bonjour"
  sahtein status
  sahtein status --output json`)
}

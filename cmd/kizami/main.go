// Package main is the Kizami CLI entry point.
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
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/minato/kizami/internal/cache"
	"github.com/minato/kizami/internal/chunker"
	"github.com/minato/kizami/internal/config"
	"github.com/minato/kizami/internal/embedding"
	"github.com/minato/kizami/internal/inference"
	"github.com/minato/kizami/internal/keyword"
	"github.com/minato/kizami/internal/kvstore"
	"github.com/minato/kizami/internal/pipeline"
	"github.com/minato/kizami/internal/segment"
	"github.com/minato/kizami/internal/server"
	"github.com/minato/kizami/internal/storage"
	"github.com/minato/kizami/internal/vector"
	"github.com/minato/kizami/internal/watcher"
	"github.com/minato/kizami/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kizami/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so "kizami serve" from the project dir picks up the project's
// config. Returns the config and the path that was actually loaded.
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
	case "serve":
		runServe()
	case "process":
		runProcess()
	case "query":
		runQuery()
	case "stats":
		runStats()
	case "version", "--version", "-v":
		fmt.Printf("kizami version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
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
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watchSvc *watcher.Watcher
	if len(cfg.Watch.Directories) > 0 {
		watchSvc = watcher.NewWatcher(
			cfg.Watch.Directories,
			cfg.Watch.Extensions,
			func(path string) {
				bundle, err := segment.LoadBundle(path)
				if err != nil {
					logger.Warn("load bundle failed", zap.String("path", path), zap.Error(err))
					return
				}
				if _, err := components.Pipeline.Process(context.Background(), bundle); err != nil {
					logger.Warn("process bundle failed", zap.String("path", path), zap.Error(err))
				}
			},
			logger,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		watchSvc.SyncExisting()
	}

	srv := server.NewServer(
		components.Pipeline,
		components.Cache,
		components.Storage,
		&cfg.Server,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchSvc != nil {
		watchSvc.Stop()
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runProcess() {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	queryStr := fs.String("query", "", "optional question to ask about each chunk")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kizami process [flags] <bundle.json>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	bundle, err := segment.LoadBundle(path)
	if err != nil {
		fmt.Printf("Failed to load bundle: %v\n", err)
		os.Exit(1)
	}
	if *queryStr != "" {
		bundle.Query = *queryStr
	}

	result, err := components.Pipeline.Process(context.Background(), bundle)
	if err != nil {
		fmt.Printf("Processing failed: %v\n", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8090", "server URL (empty = use local storage)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kizami query [flags] <question>")
		os.Exit(1)
	}
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fmt.Println("Usage: kizami query [flags] <question>")
		os.Exit(1)
	}

	if *serverURL != "" {
		// Use the HTTP API when the server is running (avoids Bleve/SQLite
		// lock conflicts).
		answer, err := queryViaHTTP(*serverURL, question)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
			os.Exit(1)
		}
		printAnswer(answer)
		return
	}

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

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	answer, err := components.Pipeline.FollowUp(context.Background(), question)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	printAnswer(answer)
}

func printAnswer(answer *pipeline.Answer) {
	fmt.Println(answer.Text)
	if answer.CacheHit {
		fmt.Printf("\n(cache hit, tier %d)\n", answer.CacheTier)
	} else if answer.TokensUsed > 0 {
		fmt.Printf("\n(%d tokens, $%.6f)\n", answer.TokensUsed, answer.Cost)
	}
}

func queryViaHTTP(serverURL, question string) (*pipeline.Answer, error) {
	body, err := json.Marshal(map[string]string{"query": question})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/query", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var answer pipeline.Answer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &answer, nil
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8090", "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/stats")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Stats failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

// Components holds initialized services.
type Components struct {
	Store      kvstore.Store
	Embedder   embedding.Embedder
	Index      vector.Index
	Cache      *cache.TieredCache
	Client     inference.Client
	Storage    storage.Storage
	ChunkIndex keyword.ChunkIndex
	Pipeline   *pipeline.Pipeline
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.ChunkIndex != nil {
		_ = c.ChunkIndex.Close()
	}
	if c.Client != nil {
		_ = c.Client.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := kvstore.New(&cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize key-value store: %w", err)
	}

	embedder, err := embedding.NewEmbedder(&cfg.Embedding, cfg.Inference.APIKey, cfg.Inference.BaseURL)
	if err != nil {
		logger.Warn("embedder unavailable, falling back to mock",
			zap.String("provider", cfg.Embedding.Provider),
			zap.Error(err))
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	}

	index, err := vector.NewMemoryIndex(embedder.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}

	tiered := cache.NewTieredCache(store, embedder, index, &cfg.Cache, logger)

	client, err := inference.New(&cfg.Inference)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize inference client: %w", err)
	}

	sqlStore, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	chunkIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chunk index: %w", err)
	}

	scorer := chunker.NewEmbeddingScorer(embedder)
	var strategy chunker.Strategy
	if cfg.Chunking.Strategy == "policy" {
		strategy = chunker.NewStepPolicy(&cfg.Chunking, nil)
	} else {
		strategy = chunker.NewRuleBased(&cfg.Chunking)
	}
	builder := chunker.NewBuilder(&cfg.Chunking, strategy, scorer, logger)

	p := pipeline.New(cfg, builder, tiered, client, sqlStore, chunkIndex, logger)

	return &Components{
		Store:      store,
		Embedder:   embedder,
		Index:      index,
		Cache:      tiered,
		Client:     client,
		Storage:    sqlStore,
		ChunkIndex: chunkIndex,
		Pipeline:   p,
	}, nil
}

func printUsage() {
	fmt.Println(`kizami - Transcript segmentation and cached inference engine

Usage:
  kizami serve [flags]              Start the HTTP server
  kizami process [flags] <bundle>   Process a signal bundle file
  kizami query [flags] <question>   Ask about already-processed content
  kizami stats [flags]              Show cache and run statistics
  kizami version                    Show version
  kizami help                       Show this help

Serve Flags:
  --config string    Config file path (default: /usr/local/etc/kizami/config.yaml)
  --debug            Enable debug logging

Process Flags:
  --config string    Config file path
  --query string     Optional question to ask about each chunk

Query Flags:
  --config string    Config file path (for local mode)
  --server string    Server URL (default: http://localhost:8090). Use empty (--server "") for local storage.

Stats Flags:
  --server string    Server URL (default: http://localhost:8090)

Examples:
  kizami serve
  kizami process lecture.json
  kizami process --query "What is discussed?" lecture.json
  kizami query "When is the deadline mentioned?"
  kizami stats`)
}

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"factle"

	"github.com/joho/godotenv"
)

func main() {
	var (
		dryRun        = flag.Bool("dry-run", false, "Run the full pipeline without saving to files")
		verbose       = flag.Bool("verbose", false, "Enable verbose debugging output")
		simple        = flag.Bool("simple", false, "Single-pass verification (no retries)")
		questionsFile = flag.String("questions", "factle/questions.json", "Path to the question history file")
		backupFile    = flag.String("backup", "factle/backup_questions.json", "Path to the backup question bank")
		logFile       = flag.String("log", "factle/generation_log.json", "Path to the generation log file")
		model         = flag.String("model", "", "Model identifier (default from config)")
	)

	flag.Parse()

	factle.SetVerbose(*verbose)

	// Best-effort: a missing .env just means the environment is already set.
	_ = godotenv.Load()

	searchKey := os.Getenv("TAVILY_API_KEY")
	if searchKey == "" {
		log.Fatal("TAVILY_API_KEY environment variable is required")
	}

	// Prefer a direct OpenAI key; fall back to a GitHub token against the
	// GitHub Models endpoint.
	token := os.Getenv("OPENAI_API_KEY")
	baseURL := ""
	if token == "" {
		token = os.Getenv("GH_PAT")
		if token == "" {
			token = os.Getenv("GITHUB_TOKEN")
		}
		baseURL = factle.GitHubModelsEndpoint
	}
	if token == "" {
		log.Fatal("OPENAI_API_KEY, GH_PAT, or GITHUB_TOKEN environment variable is required")
	}

	cfg := factle.DefaultConfig()
	cfg.QuestionsFile = *questionsFile
	cfg.BackupFile = *backupFile
	cfg.LogFile = *logFile
	if *model != "" {
		cfg.Model = *model
	}
	if *simple {
		cfg.MaxVerifyRetries = 1
		cfg.RetryOnUnverifiable = false
	}

	llm := factle.NewModelClient(token, baseURL)
	search := factle.NewTavilyClient(searchKey)
	store := factle.NewFileStore(cfg.QuestionsFile, cfg.BackupFile, cfg.LogFile)
	generator := factle.NewGenerator(llm, search, store, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	entry, err := generator.Run(ctx, *dryRun)
	if err != nil {
		if errors.Is(err, factle.ErrNoBackup) {
			log.Printf("Generation failed with no usable backup: %v", err)
			os.Exit(1)
		}
		log.Fatalf("Generation run failed: %v", err)
	}

	if entry != nil {
		log.Printf("Done. Question: %s", entry.Question)
	}
}

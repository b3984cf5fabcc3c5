package factle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
)

// ErrNoBackup is returned when generation failed and the backup bank had no
// unused question left. It is the only error that should end the process
// abnormally.
var ErrNoBackup = errors.New("no question generated and no backup available")

// Generator drives the daily pipeline: discover topics, attempt each one
// through similarity check, generation, verification and validation, fall
// back to the backup bank when everything fails, and persist the result.
type Generator struct {
	cfg        Config
	store      *FileStore
	discoverer *TopicDiscoverer
	similarity *SimilarityChecker
	maker      *QuestionMaker
	verifier   *Verifier
}

// NewGenerator wires the pipeline components around the given clients.
func NewGenerator(llm ChatCompleter, search Searcher, store *FileStore, cfg Config) *Generator {
	return &Generator{
		cfg:        cfg,
		store:      store,
		discoverer: NewTopicDiscoverer(llm, search, cfg),
		similarity: NewSimilarityChecker(llm, cfg.Model),
		maker:      NewQuestionMaker(llm, cfg.Model),
		verifier:   NewVerifier(llm, search, cfg),
	}
}

// Run executes one generation run for today. It is idempotent per calendar
// day: when today already has an entry it does nothing and returns nil. In
// dry-run mode the full pipeline executes but neither file is written and
// the would-be entry is printed instead. The returned entry is the one that
// was (or would have been) persisted.
func (g *Generator) Run(ctx context.Context, dryRun bool) (*QuestionEntry, error) {
	questions, err := g.store.LoadQuestions()
	if err != nil {
		return nil, err
	}
	runLog, err := g.store.LoadRunLog()
	if err != nil {
		return nil, err
	}

	now := g.cfg.now().In(g.cfg.Location)
	date := now.Format("2006-01-02")

	for _, q := range questions {
		if q.Date == date {
			log.Printf("Question for %s already exists. Skipping.", date)
			return nil, nil
		}
	}

	nextID := 1
	for _, q := range questions {
		if q.ID >= nextID {
			nextID = q.ID + 1
		}
	}

	rec := &RunRecord{Date: date, Result: "pending"}
	log.Printf("Generating question for %s (next id %d, %d previous questions)", date, nextID, len(questions))

	log.Printf("Step 1: discovering current topics")
	topics := g.discoverer.Discover(ctx, now, rec)
	if len(topics) == 0 {
		log.Printf("No topics discovered. Falling back to backup.")
		return g.fallback(rec, runLog, questions, date, nextID, ResultBackupNoTopics, dryRun)
	}
	rec.Topics = topics
	log.Printf("Found %d candidate topics", len(topics))

	previousSummary := QuestionSummary(questions)
	maxAttempts := g.cfg.MaxTopicAttempts
	if len(topics) < maxAttempts {
		maxAttempts = len(topics)
	}

	var final *QuestionEntry
	for i := 0; i < maxAttempts; i++ {
		candidate := topics[i]
		attempt := &AttemptRecord{
			Topic:             candidate.Topic,
			SuggestedQuestion: candidate.SuggestedQuestion,
			Connection:        candidate.Connection,
			Status:            AttemptPending,
		}
		rec.Attempts = append(rec.Attempts, attempt)
		log.Printf("Attempt %d/%d: [%s] %s", i+1, maxAttempts, candidate.Topic, candidate.SuggestedQuestion)

		if !IsTopicAppropriate(g.cfg.BlockedTopics, candidate.Topic+" "+candidate.SuggestedQuestion) {
			attempt.Status = AttemptSkippedInappropriate
			attempt.Reason = "topic matches blocked terms"
			continue
		}

		if g.similarity.TooSimilar(ctx, candidate.Topic, candidate.SuggestedQuestion, previousSummary, attempt) {
			log.Printf("Too similar to a previous question. Skipping.")
			attempt.Status = AttemptSkippedSimilar
			attempt.Reason = "too similar to previous question"
			continue
		}

		draft, err := g.maker.Generate(ctx, candidate.Topic, candidate.SuggestedQuestion)
		if err != nil {
			log.Printf("Failed to generate valid question: %v", err)
			attempt.Status = AttemptGenerationFailed
			attempt.Reason = err.Error()
			continue
		}

		result := g.verifier.Verify(ctx, draft, attempt)
		if !result.Verified {
			log.Printf("Failed to verify after %d iterations. Moving to next topic.", result.Iterations)
			attempt.Status = AttemptVerifyExhausted
			attempt.Reason = fmt.Sprintf("could not verify after %d iterations", result.Iterations)
			continue
		}

		entry := AssembleEntry(date, draft, result.Answers, result.Source, nextID)
		if reasons := ValidateEntry(entry); len(reasons) > 0 {
			log.Printf("Validation failed: %v", reasons)
			attempt.Status = AttemptValidationFailed
			attempt.Reason = strings.Join(reasons, "; ")
			continue
		}

		log.Printf("Question validated: %s", entry.Question)
		attempt.Status = AttemptSuccess
		attempt.QuestionID = nextID
		attempt.FinalAnswers = result.Answers
		attempt.FinalSource = result.Source
		final = &entry
		break
	}

	if final == nil {
		log.Printf("All attempts failed. Falling back to backup.")
		return g.fallback(rec, runLog, questions, date, nextID, ResultBackup, dryRun)
	}

	rec.Result = ResultSuccess
	rec.QuestionID = nextID
	return final, g.persist(final, rec, runLog, questions, dryRun)
}

// fallback tries the backup bank, logging the run either way. resultTag is
// the run result to record when a backup is found.
func (g *Generator) fallback(rec *RunRecord, runLog *RunLog, questions []QuestionEntry, date string, nextID int, resultTag string, dryRun bool) (*QuestionEntry, error) {
	backups, err := g.store.LoadBackups()
	if err != nil {
		VerboseLog("Failed to load backups: %v", err)
	}

	entry := SelectBackup(backups, questions, date, nextID)
	if entry == nil {
		log.Printf("CRITICAL: no backup questions available")
		if resultTag == ResultBackupNoTopics {
			rec.Result = ResultFailedNoBackup
		} else {
			rec.Result = ResultFailed
		}
		runLog.Runs = append(runLog.Runs, rec)
		if !dryRun {
			if err := g.store.SaveRunLog(runLog); err != nil {
				log.Printf("Failed to save run log: %v", err)
			}
		}
		return nil, ErrNoBackup
	}

	log.Printf("Backup question selected: %s", entry.Question)
	rec.Result = resultTag
	rec.QuestionID = entry.ID
	return entry, g.persist(entry, rec, runLog, questions, dryRun)
}

// persist appends the entry and the run record and rewrites both files,
// unless running in dry-run mode, where the entry is printed instead.
func (g *Generator) persist(entry *QuestionEntry, rec *RunRecord, runLog *RunLog, questions []QuestionEntry, dryRun bool) error {
	runLog.Runs = append(runLog.Runs, rec)

	if dryRun {
		out, err := json.MarshalIndent(entry, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal entry: %w", err)
		}
		log.Printf("Dry run — not saving. Would persist:\n%s", out)
		return nil
	}

	questions = append(questions, *entry)
	if err := g.store.SaveQuestions(questions); err != nil {
		return err
	}
	if err := g.store.SaveRunLog(runLog); err != nil {
		return err
	}
	log.Printf("Saved question %d for %s", entry.ID, entry.Date)
	return nil
}

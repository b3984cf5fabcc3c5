package factle

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type generatorEnv struct {
	chat   *fakeChat
	search *fakeSearch
	store  *FileStore
	cfg    Config
	gen    *Generator
	dir    string
}

func newGeneratorEnv(t *testing.T, chat *fakeChat) *generatorEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := testConfig()
	cfg.QuestionsFile = filepath.Join(dir, "questions.json")
	cfg.BackupFile = filepath.Join(dir, "backup_questions.json")
	cfg.LogFile = filepath.Join(dir, "generation_log.json")
	cfg.Now = func() time.Time {
		return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	}
	search := withSources(&fakeSearch{})
	store := NewFileStore(cfg.QuestionsFile, cfg.BackupFile, cfg.LogFile)
	return &generatorEnv{
		chat:   chat,
		search: search,
		store:  store,
		cfg:    cfg,
		gen:    NewGenerator(chat, search, store, cfg),
		dir:    dir,
	}
}

const testDate = "2026-03-15"

func discoveryResponse(t *testing.T, topics ...TopicCandidate) string {
	return mustJSON(t, map[string][]TopicCandidate{"topics": topics})
}

func oneTopic() TopicCandidate {
	return TopicCandidate{
		Topic:             "Winter Olympics",
		SuggestedQuestion: "Top 5 countries by Winter Olympics all-time gold medals?",
		Connection:        "Games underway",
	}
}

// Full success script against an empty history: discovery, generation (the
// similarity check short-circuits with no history), then one VERIFIED
// cross-check.
func successScript(t *testing.T) []string {
	return []string{
		discoveryResponse(t, oneTopic()),
		mustJSON(t, testDraft()),
		`{"status": "VERIFIED", "reason": "matches"}`,
	}
}

func TestRunSuccessPersistsEntry(t *testing.T) {
	env := newGeneratorEnv(t, &fakeChat{responses: successScript(t)})

	entry, err := env.gen.Run(context.Background(), false)
	require.NoError(t, err)
	require.NotNil(t, entry)

	questions, err := env.store.LoadQuestions()
	require.NoError(t, err)
	require.Len(t, questions, 1)
	saved := questions[0]

	assert.Equal(t, 1, saved.ID)
	assert.Equal(t, testDate, saved.Date)
	assert.Len(t, saved.Options, 20)
	assert.Len(t, saved.Answers, 5)
	// Answers occupy the first five option slots in order.
	assert.Equal(t, saved.Answers, saved.Options[:5])

	runLog, err := env.store.LoadRunLog()
	require.NoError(t, err)
	require.Len(t, runLog.Runs, 1)
	assert.Equal(t, ResultSuccess, runLog.Runs[0].Result)
	require.Len(t, runLog.Runs[0].Attempts, 1)
	assert.Equal(t, AttemptSuccess, runLog.Runs[0].Attempts[0].Status)
}

func TestRunIDIsMaxPlusOne(t *testing.T) {
	env := newGeneratorEnv(t, &fakeChat{responses: []string{
		discoveryResponse(t, oneTopic()),
		`{"too_similar": false, "reason": "new ground"}`,
		mustJSON(t, testDraft()),
		`{"status": "VERIFIED", "reason": "matches"}`,
	}})
	require.NoError(t, env.store.SaveQuestions([]QuestionEntry{
		{ID: 3, Date: "2026-03-01", Question: "Old one"},
		{ID: 7, Date: "2026-03-02", Question: "Older one"},
	}))

	entry, err := env.gen.Run(context.Background(), false)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 8, entry.ID)
}

func TestRunIdempotentPerDay(t *testing.T) {
	env := newGeneratorEnv(t, &fakeChat{})
	require.NoError(t, env.store.SaveQuestions([]QuestionEntry{
		{ID: 1, Date: testDate, Question: "Already done"},
	}))

	entry, err := env.gen.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.Empty(t, env.chat.calls, "no model calls on a no-op run")
	assert.Empty(t, env.search.queries)

	questions, err := env.store.LoadQuestions()
	require.NoError(t, err)
	assert.Len(t, questions, 1)
}

func TestRunFirstSuccessStopsEarly(t *testing.T) {
	second := TopicCandidate{Topic: "Oscars", SuggestedQuestion: "Top 5 films with most Oscar wins?"}
	env := newGeneratorEnv(t, &fakeChat{responses: []string{
		discoveryResponse(t, oneTopic(), second),
		mustJSON(t, testDraft()),
		`{"status": "VERIFIED", "reason": "matches"}`,
	}})

	entry, err := env.gen.Run(context.Background(), false)
	require.NoError(t, err)
	require.NotNil(t, entry)

	runLog, err := env.store.LoadRunLog()
	require.NoError(t, err)
	require.Len(t, runLog.Runs[0].Attempts, 1, "second topic never attempted")
	assert.Len(t, env.chat.calls, 3)
}

func TestRunBlockedTopicNeverReachesGenerator(t *testing.T) {
	blocked := TopicCandidate{
		Topic:             "Award Scandal Rocks Ceremony",
		SuggestedQuestion: "Top 5 biggest award scandals?",
	}
	env := newGeneratorEnv(t, &fakeChat{responses: []string{
		discoveryResponse(t, blocked, oneTopic()),
		mustJSON(t, testDraft()),
		`{"status": "VERIFIED", "reason": "matches"}`,
	}})

	entry, err := env.gen.Run(context.Background(), false)
	require.NoError(t, err)
	require.NotNil(t, entry)

	for _, call := range env.chat.calls {
		for _, m := range call.Messages {
			assert.NotContains(t, m.Content, "Scandal Rocks")
		}
	}

	runLog, err := env.store.LoadRunLog()
	require.NoError(t, err)
	assert.Equal(t, 1, runLog.Runs[0].Discovery.FilteredCount)
}

func TestRunSkipsSimilarTopic(t *testing.T) {
	second := TopicCandidate{Topic: "Oscars", SuggestedQuestion: "Top 5 films with most Oscar wins?"}
	env := newGeneratorEnv(t, &fakeChat{responses: []string{
		discoveryResponse(t, oneTopic(), second),
		`{"too_similar": true, "reason": "same medal table question"}`,
		`{"too_similar": false, "reason": "different"}`,
		mustJSON(t, testDraft()),
		`{"status": "VERIFIED", "reason": "matches"}`,
	}})
	require.NoError(t, env.store.SaveQuestions([]QuestionEntry{
		{ID: 1, Date: "2026-03-01", Question: "Top 5 gold medal countries?"},
	}))

	entry, err := env.gen.Run(context.Background(), false)
	require.NoError(t, err)
	require.NotNil(t, entry)

	runLog, err := env.store.LoadRunLog()
	require.NoError(t, err)
	attempts := runLog.Runs[0].Attempts
	require.Len(t, attempts, 2)
	assert.Equal(t, AttemptSkippedSimilar, attempts[0].Status)
	assert.Equal(t, AttemptSuccess, attempts[1].Status)
}

func TestRunSimilarityFailOpen(t *testing.T) {
	env := newGeneratorEnv(t, &fakeChat{responses: []string{
		discoveryResponse(t, oneTopic()),
		"not parseable at all",
		mustJSON(t, testDraft()),
		`{"status": "VERIFIED", "reason": "matches"}`,
	}})
	require.NoError(t, env.store.SaveQuestions([]QuestionEntry{
		{ID: 1, Date: "2026-03-01", Question: "Something else"},
	}))

	entry, err := env.gen.Run(context.Background(), false)
	require.NoError(t, err)
	require.NotNil(t, entry, "unparsable similarity response must not skip the topic")
}

func TestRunFallsBackToBackupWhenNoTopics(t *testing.T) {
	// Discovery response is not parseable, so no topics are found.
	env := newGeneratorEnv(t, &fakeChat{responses: []string{"garbage"}})
	require.NoError(t, env.store.SaveQuestions([]QuestionEntry{
		{ID: 4, Date: "2026-03-01", Question: "Q1"},
	}))
	writeBackupFile(t, env.cfg.BackupFile, []QuestionEntry{
		backupEntry("Q1"),
		backupEntry("Q2"),
	})

	entry, err := env.gen.Run(context.Background(), false)
	require.NoError(t, err)
	require.NotNil(t, entry)

	// Q1 is already in history; the selector must pick Q2.
	assert.Equal(t, "Q2", entry.Question)
	assert.Equal(t, 5, entry.ID)
	assert.Equal(t, testDate, entry.Date)

	runLog, err := env.store.LoadRunLog()
	require.NoError(t, err)
	assert.Equal(t, ResultBackupNoTopics, runLog.Runs[0].Result)
}

func TestRunAllTopicsFailFallsBackToBackup(t *testing.T) {
	env := newGeneratorEnv(t, &fakeChat{responses: []string{
		discoveryResponse(t, oneTopic()),
		mustJSON(t, testDraft()),
		`{"status": "UNVERIFIABLE", "reason": "nothing"}`,
		`{"status": "UNVERIFIABLE", "reason": "nothing"}`,
		`{"status": "UNVERIFIABLE", "reason": "nothing"}`,
	}})
	writeBackupFile(t, env.cfg.BackupFile, []QuestionEntry{backupEntry("Q2")})

	entry, err := env.gen.Run(context.Background(), false)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Q2", entry.Question)

	runLog, err := env.store.LoadRunLog()
	require.NoError(t, err)
	assert.Equal(t, ResultBackup, runLog.Runs[0].Result)
	require.Len(t, runLog.Runs[0].Attempts, 1)
	assert.Equal(t, AttemptVerifyExhausted, runLog.Runs[0].Attempts[0].Status)
}

func TestRunNoBackupIsFatal(t *testing.T) {
	env := newGeneratorEnv(t, &fakeChat{responses: []string{"garbage"}})

	entry, err := env.gen.Run(context.Background(), false)
	require.ErrorIs(t, err, ErrNoBackup)
	assert.Nil(t, entry)

	// The failed run is still logged.
	runLog, err := env.store.LoadRunLog()
	require.NoError(t, err)
	require.Len(t, runLog.Runs, 1)
	assert.Equal(t, ResultFailedNoBackup, runLog.Runs[0].Result)
}

func TestRunValidationFailureAbortsAttempt(t *testing.T) {
	bad := testDraft()
	bad.Distractors[0] = bad.Answers[0] // duplicate option
	env := newGeneratorEnv(t, &fakeChat{responses: []string{
		discoveryResponse(t, oneTopic()),
		mustJSON(t, bad),
		`{"status": "VERIFIED", "reason": "matches"}`,
	}})

	_, err := env.gen.Run(context.Background(), false)
	require.ErrorIs(t, err, ErrNoBackup)

	runLog, err := env.store.LoadRunLog()
	require.NoError(t, err)
	require.Len(t, runLog.Runs[0].Attempts, 1)
	attempt := runLog.Runs[0].Attempts[0]
	assert.Equal(t, AttemptValidationFailed, attempt.Status)
	assert.Contains(t, attempt.Reason, "duplicate options")
}

func TestRunDryRunWritesNothing(t *testing.T) {
	env := newGeneratorEnv(t, &fakeChat{responses: successScript(t)})

	entry, err := env.gen.Run(context.Background(), true)
	require.NoError(t, err)
	require.NotNil(t, entry)

	_, err = os.Stat(env.cfg.QuestionsFile)
	assert.True(t, os.IsNotExist(err), "questions file must not be written in dry-run")
	_, err = os.Stat(env.cfg.LogFile)
	assert.True(t, os.IsNotExist(err), "log file must not be written in dry-run")
}

func TestRunSecondRunSameDayIsNoOp(t *testing.T) {
	env := newGeneratorEnv(t, &fakeChat{responses: successScript(t)})

	first, err := env.gen.Run(context.Background(), false)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := env.gen.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Nil(t, second)

	questions, err := env.store.LoadQuestions()
	require.NoError(t, err)
	assert.Len(t, questions, 1, "never two entries for the same date")
}

func backupEntry(question string) QuestionEntry {
	options := make([]string, 20)
	answers := make([]string, 5)
	for i := range options {
		options[i] = question + "-opt-" + string(rune('a'+i))
	}
	copy(answers, options[:5])
	return QuestionEntry{
		ID:       99,
		Date:     "2020-01-01",
		Question: question,
		Options:  options,
		Answers:  answers,
		Source:   "https://example.com/backup",
	}
}

func writeBackupFile(t *testing.T, path string, entries []QuestionEntry) {
	t.Helper()
	// Backups share the questions document shape; reuse the store writer via
	// the questions path.
	qs := NewFileStore(path, "", "")
	require.NoError(t, qs.SaveQuestions(entries))
}

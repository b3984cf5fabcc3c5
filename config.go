package factle

import "time"

// Topics to filter out — sensitive, violent, or inappropriate
var defaultBlockedTopics = []string{
	"shooting", "murder", "killing", "terrorism", "terrorist",
	"epstein", "abuse", "assault", "scandal", "death toll",
	"massacre", "genocide", "suicide", "rape", "trafficking",
	"war crime", "hate crime", "extremism", "conspiracy",
}

// Config carries all pipeline tunables. It is built once at startup and
// passed by value; nothing mutates it after construction.
type Config struct {
	Model string

	MaxTopicAttempts int
	// MaxVerifyRetries is the inner verification iteration cap per topic.
	// 1 gives the single-pass behavior, 3 the retrying behavior.
	MaxVerifyRetries int
	// RetryOnUnverifiable keeps the verification loop going after an
	// UNVERIFIABLE cross-check or a failed search. When false the attempt
	// is abandoned at the first dead end.
	RetryOnUnverifiable bool

	SearchMaxResults  int
	SnippetMaxLen     int // per-source content cap in cross-check prompts
	ContextSnippetLen int // per-source content cap in discovery context

	BlockedTopics []string

	QuestionsFile string
	BackupFile    string
	LogFile       string

	// Location anchors "today". The front-end rolls questions over on CET.
	Location *time.Location

	// Now is overridable in tests; nil means time.Now.
	Now func() time.Time
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		Model:               "gpt-5",
		MaxTopicAttempts:    5,
		MaxVerifyRetries:    3,
		RetryOnUnverifiable: true,
		SearchMaxResults:    5,
		SnippetMaxLen:       500,
		ContextSnippetLen:   200,
		BlockedTopics:       defaultBlockedTopics,
		QuestionsFile:       "factle/questions.json",
		BackupFile:          "factle/backup_questions.json",
		LogFile:             "factle/generation_log.json",
		Location:            time.FixedZone("CET", 60*60),
	}
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

package factle

// TopicCandidate is a question idea proposed by topic discovery, tied to a
// current event or seasonal theme.
type TopicCandidate struct {
	Topic             string `json:"topic"`
	SuggestedQuestion string `json:"suggested_question"`
	Connection        string `json:"connection,omitempty"`
}

// QuestionDraft is an unverified question produced by the question maker.
// Answers is replaced wholesale when the verifier accepts a correction.
type QuestionDraft struct {
	Question    string   `json:"question"`
	Answers     []string `json:"answers"` // exactly 5, rank order
	Distractors []string `json:"distractors"`
	Source      string   `json:"source"`
	SearchQuery string   `json:"search_query"`
}

// SourceSnippet is one web search result used as verification evidence.
type SourceSnippet struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// QuestionEntry is the persisted form of a question, as consumed by the
// front-end. Options holds the 5 answers followed by the 15 distractors.
type QuestionEntry struct {
	ID       int      `json:"id"`
	Date     string   `json:"date"` // YYYY-MM-DD, unique across history
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answers  []string `json:"answers"`
	Source   string   `json:"source"`
}

// CrossCheckStatus is the verdict of a cross-check against source data.
type CrossCheckStatus string

const (
	CheckVerified     CrossCheckStatus = "VERIFIED"
	CheckCorrected    CrossCheckStatus = "CORRECTED"
	CheckUnverifiable CrossCheckStatus = "UNVERIFIABLE"
)

// CrossCheckResult is the parsed outcome of one cross-check call.
// CorrectedAnswers and CorrectedSource are set only for CheckCorrected.
type CrossCheckResult struct {
	Status           CrossCheckStatus `json:"status"`
	CorrectedAnswers []string         `json:"corrected_answers,omitempty"`
	CorrectedSource  string           `json:"corrected_source,omitempty"`
	Reason           string           `json:"reason"`
}

// ReVerifyStatus is the verdict of the second verification pass on a
// corrected answer order.
type ReVerifyStatus string

const (
	ReVerifyConfirmed ReVerifyStatus = "CONFIRMED"
	ReVerifyRejected  ReVerifyStatus = "REJECTED"
)

// ReVerifyResult is the parsed outcome of one re-verification call.
type ReVerifyResult struct {
	Status     ReVerifyStatus `json:"status"`
	Reason     string         `json:"reason"`
	BestSource string         `json:"best_source,omitempty"`
}

// AttemptStatus records how a single topic attempt ended.
type AttemptStatus string

const (
	AttemptPending              AttemptStatus = "pending"
	AttemptSkippedInappropriate AttemptStatus = "skipped_inappropriate"
	AttemptSkippedSimilar       AttemptStatus = "skipped_similar"
	AttemptGenerationFailed     AttemptStatus = "generation_failed"
	AttemptVerifyExhausted      AttemptStatus = "verification_exhausted"
	AttemptValidationFailed     AttemptStatus = "validation_failed"
	AttemptSuccess              AttemptStatus = "success"
)

// Run result tags.
const (
	ResultSuccess        = "success"
	ResultBackup         = "backup"
	ResultBackupNoTopics = "backup_no_topics"
	ResultFailed         = "failed"
	ResultFailedNoBackup = "failed_no_backup"
)

// RunLog is the persisted generation log, one record per invocation.
type RunLog struct {
	Runs []*RunRecord `json:"runs"`
}

// RunRecord is the durable audit trail of one generation run.
type RunRecord struct {
	Date       string           `json:"date"`
	Discovery  *DiscoveryRecord `json:"topic_discovery,omitempty"`
	Topics     []TopicCandidate `json:"topics_discovered"`
	Attempts   []*AttemptRecord `json:"attempts"`
	Result     string           `json:"result"`
	QuestionID int              `json:"question_id,omitempty"`
}

// DiscoveryRecord logs the context searches and filtering of topic discovery.
type DiscoveryRecord struct {
	Searches      []SearchRecord `json:"searches"`
	FilteredCount int            `json:"filtered_count"`
	Error         string         `json:"error,omitempty"`
}

// SearchRecord logs one context-gathering search query and its results.
type SearchRecord struct {
	Query   string      `json:"query"`
	Results []SourceRef `json:"results,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SourceRef identifies a search result without its content.
type SourceRef struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// AttemptRecord logs one topic attempt, including every verification
// iteration, for later audit.
type AttemptRecord struct {
	Topic             string             `json:"topic"`
	SuggestedQuestion string             `json:"suggested_question"`
	Connection        string             `json:"connection,omitempty"`
	Status            AttemptStatus      `json:"status"`
	Reason            string             `json:"reason,omitempty"`
	SimilarityReason  string             `json:"similarity_reason,omitempty"`
	VerifyIterations  int                `json:"verify_iterations"`
	Iterations        []*IterationRecord `json:"iterations,omitempty"`
	QuestionID        int                `json:"question_id,omitempty"`
	FinalAnswers      []string           `json:"final_answers,omitempty"`
	FinalSource       string             `json:"final_source,omitempty"`
}

// IterationRecord logs one pass of the verification loop.
type IterationRecord struct {
	SearchQuery      string          `json:"search_query"`
	Sources          []SourceRef     `json:"sources_found,omitempty"`
	CrossCheckStatus string          `json:"cross_check_status,omitempty"`
	CrossCheckReason string          `json:"cross_check_reason,omitempty"`
	CorrectedAnswers []string        `json:"corrected_answers,omitempty"`
	ReVerify         *ReVerifyRecord `json:"re_verify,omitempty"`
}

// ReVerifyRecord logs the targeted second verification of a correction.
type ReVerifyRecord struct {
	Query      string      `json:"search_query"`
	Sources    []SourceRef `json:"sources_found,omitempty"`
	Status     string      `json:"status"`
	Reason     string      `json:"reason,omitempty"`
	BestSource string      `json:"best_source,omitempty"`
}

func sourceRefs(snippets []SourceSnippet) []SourceRef {
	refs := make([]SourceRef, 0, len(snippets))
	for _, s := range snippets {
		refs = append(refs, SourceRef{Title: s.Title, URL: s.URL})
	}
	return refs
}

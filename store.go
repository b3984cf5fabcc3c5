package factle

import (
	"encoding/json"
	"fmt"
	"os"
)

// FileStore reads and writes the three JSON documents the pipeline touches:
// the question history, the read-only backup bank, and the run log. Each
// file is read fully at the start of a run and rewritten fully at the end;
// there is at most one run per day, so no locking.
type FileStore struct {
	questionsPath string
	backupPath    string
	logPath       string
}

// NewFileStore creates a store over the given file paths.
func NewFileStore(questionsPath, backupPath, logPath string) *FileStore {
	return &FileStore{
		questionsPath: questionsPath,
		backupPath:    backupPath,
		logPath:       logPath,
	}
}

type questionsDoc struct {
	Questions []QuestionEntry `json:"questions"`
}

// LoadQuestions loads the question history. A missing file is an empty
// history, not an error.
func (fs *FileStore) LoadQuestions() ([]QuestionEntry, error) {
	data, err := os.ReadFile(fs.questionsPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read questions file: %w", err)
	}
	var doc questionsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse questions file: %w", err)
	}
	return doc.Questions, nil
}

// SaveQuestions rewrites the question history in full. Entries are only ever
// appended by callers; existing entries are never mutated.
func (fs *FileStore) SaveQuestions(questions []QuestionEntry) error {
	data, err := json.MarshalIndent(questionsDoc{Questions: questions}, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal questions: %w", err)
	}
	if err := os.WriteFile(fs.questionsPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write questions file: %w", err)
	}
	return nil
}

// LoadBackups loads the backup question bank. A missing file means no
// backups are available.
func (fs *FileStore) LoadBackups() ([]QuestionEntry, error) {
	data, err := os.ReadFile(fs.backupPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup file: %w", err)
	}
	var doc questionsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse backup file: %w", err)
	}
	return doc.Questions, nil
}

// LoadRunLog loads the generation log, starting a fresh one if the file does
// not exist yet.
func (fs *FileStore) LoadRunLog() (*RunLog, error) {
	data, err := os.ReadFile(fs.logPath)
	if os.IsNotExist(err) {
		return &RunLog{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}
	var runLog RunLog
	if err := json.Unmarshal(data, &runLog); err != nil {
		return nil, fmt.Errorf("failed to parse log file: %w", err)
	}
	return &runLog, nil
}

// SaveRunLog rewrites the generation log in full.
func (fs *FileStore) SaveRunLog(runLog *RunLog) error {
	data, err := json.MarshalIndent(runLog, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal run log: %w", err)
	}
	if err := os.WriteFile(fs.logPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write log file: %w", err)
	}
	return nil
}

package factle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectBackupSkipsUsedQuestions(t *testing.T) {
	history := []QuestionEntry{{ID: 1, Date: "2026-03-01", Question: "Q1"}}
	backups := []QuestionEntry{backupEntry("Q1"), backupEntry("Q2")}

	entry := SelectBackup(backups, history, "2026-03-15", 2)

	require.NotNil(t, entry)
	assert.Equal(t, "Q2", entry.Question)
	assert.Equal(t, 2, entry.ID)
	assert.Equal(t, "2026-03-15", entry.Date)
	assert.Equal(t, "https://example.com/backup", entry.Source)
}

func TestSelectBackupPrefersBankOrder(t *testing.T) {
	backups := []QuestionEntry{backupEntry("Q1"), backupEntry("Q2")}

	entry := SelectBackup(backups, nil, "2026-03-15", 1)

	require.NotNil(t, entry)
	assert.Equal(t, "Q1", entry.Question)
}

func TestSelectBackupExhausted(t *testing.T) {
	history := []QuestionEntry{
		{ID: 1, Question: "Q1"},
		{ID: 2, Question: "Q2"},
	}
	backups := []QuestionEntry{backupEntry("Q1"), backupEntry("Q2")}

	assert.Nil(t, SelectBackup(backups, history, "2026-03-15", 3))
	assert.Nil(t, SelectBackup(nil, history, "2026-03-15", 3))
}

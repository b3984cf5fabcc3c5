package factle

// SelectBackup picks the first backup question whose text has not already
// been used, rebased onto today's date and the next id. Returns nil when the
// bank is exhausted or absent — the caller treats that as total failure.
func SelectBackup(backups, history []QuestionEntry, date string, nextID int) *QuestionEntry {
	used := make(map[string]bool, len(history))
	for _, q := range history {
		used[q.Question] = true
	}

	for _, b := range backups {
		if used[b.Question] {
			continue
		}
		return &QuestionEntry{
			ID:       nextID,
			Date:     date,
			Question: b.Question,
			Options:  b.Options,
			Answers:  b.Answers,
			Source:   b.Source,
		}
	}
	return nil
}

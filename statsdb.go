package factle

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// StatsDB records play outcomes for the web front-end. The question data
// itself lives in the JSON files; only gameplay statistics go here.
type StatsDB struct {
	db *sql.DB
}

// Play is one finished game of the daily question.
type Play struct {
	QuestionID int       `json:"question_id"`
	Date       string    `json:"date"`
	Guesses    int       `json:"guesses"`
	Solved     bool      `json:"solved"`
	PlayedAt   time.Time `json:"played_at"`
}

// PlayStats aggregates the plays of one question.
type PlayStats struct {
	QuestionID int     `json:"question_id"`
	Plays      int     `json:"plays"`
	Solves     int     `json:"solves"`
	AvgGuesses float64 `json:"avg_guesses"`
}

// OpenStatsDB opens the play statistics database.
func OpenStatsDB(dbPath string) (*StatsDB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping stats database: %w", err)
	}
	return &StatsDB{db: db}, nil
}

// Close closes the database connection.
func (s *StatsDB) Close() error {
	return s.db.Close()
}

// CreateTables creates the plays table if it does not exist.
func (s *StatsDB) CreateTables() error {
	query := `CREATE TABLE IF NOT EXISTS plays (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		question_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		guesses INTEGER NOT NULL,
		solved INTEGER NOT NULL,
		played_at DATETIME NOT NULL
	)`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create plays table: %w", err)
	}
	return nil
}

// RecordPlay stores one finished game.
func (s *StatsDB) RecordPlay(play Play) error {
	_, err := s.db.Exec(
		"INSERT INTO plays (question_id, date, guesses, solved, played_at) VALUES (?, ?, ?, ?, ?)",
		play.QuestionID, play.Date, play.Guesses, play.Solved, play.PlayedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record play: %w", err)
	}
	return nil
}

// QuestionStats aggregates play counts, solve counts, and the average guess
// count for one question.
func (s *StatsDB) QuestionStats(questionID int) (*PlayStats, error) {
	stats := &PlayStats{QuestionID: questionID}
	var avg sql.NullFloat64
	err := s.db.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(solved), 0), AVG(guesses) FROM plays WHERE question_id = ?",
		questionID,
	).Scan(&stats.Plays, &stats.Solves, &avg)
	if err != nil {
		return nil, fmt.Errorf("failed to get question stats: %w", err)
	}
	if avg.Valid {
		stats.AvgGuesses = avg.Float64
	}
	return stats, nil
}

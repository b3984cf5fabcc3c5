package main

import (
	"encoding/gob"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"factle"

	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
)

const maxGuesses = 5

// Feedback per guess slot.
const (
	feedbackGreen  = "green"  // right option, right rank
	feedbackYellow = "yellow" // an answer, wrong rank
	feedbackGrey   = "grey"   // not an answer
)

// GameState is the per-player progress on today's question, kept in the
// cookie session.
type GameState struct {
	QuestionID int        `json:"question_id"`
	Date       string     `json:"date"`
	Guesses    [][]string `json:"guesses"`
	Solved     bool       `json:"solved"`
	Recorded   bool       `json:"recorded"`
}

type Server struct {
	store     *sessions.CookieStore
	questions *factle.FileStore
	stats     *factle.StatsDB
	loc       *time.Location
}

func init() {
	gob.Register(GameState{})
}

func main() {
	var (
		addr          = flag.String("addr", ":8180", "Listen address")
		questionsFile = flag.String("questions", "factle/questions.json", "Path to the question history file")
		dbPath        = flag.String("db", "./factle_stats.db", "Path to the play statistics database")
	)
	flag.Parse()

	_ = godotenv.Load()

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = "factle-dev-secret"
		log.Printf("SESSION_SECRET not set, using development secret")
	}

	stats, err := factle.OpenStatsDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open stats database: %v", err)
	}
	defer stats.Close()

	if err := stats.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	server := &Server{
		store:     sessions.NewCookieStore([]byte(secret)),
		questions: factle.NewFileStore(*questionsFile, "", ""),
		stats:     stats,
		loc:       time.FixedZone("CET", 60*60),
	}

	http.HandleFunc("/api/question", server.handleQuestion)
	http.HandleFunc("/api/guess", server.handleGuess)
	http.HandleFunc("/api/stats", server.handleStats)

	log.Printf("Factle server listening on %s", *addr)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// todaysQuestion re-reads the question file on every request; the file only
// changes once a day and is small.
func (s *Server) todaysQuestion() (*factle.QuestionEntry, error) {
	questions, err := s.questions.LoadQuestions()
	if err != nil {
		return nil, err
	}
	date := time.Now().In(s.loc).Format("2006-01-02")
	for i := range questions {
		if questions[i].Date == date {
			return &questions[i], nil
		}
	}
	return nil, nil
}

// handleQuestion returns today's question without the answers.
func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entry, err := s.todaysQuestion()
	if err != nil {
		log.Printf("Failed to load questions: %v", err)
		http.Error(w, "failed to load questions", http.StatusInternalServerError)
		return
	}
	if entry == nil {
		http.Error(w, "no question for today", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]interface{}{
		"id":       entry.ID,
		"date":     entry.Date,
		"question": entry.Question,
		"options":  entry.Options,
	})
}

type guessRequest struct {
	Guess []string `json:"guess"`
}

type guessResponse struct {
	Feedback  []string `json:"feedback"`
	Solved    bool     `json:"solved"`
	GameOver  bool     `json:"game_over"`
	Remaining int      `json:"remaining"`
	Source    string   `json:"source,omitempty"` // revealed once the game ends
}

// handleGuess scores an ordered 5-option guess against today's answers and
// tracks the player's game in the session.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entry, err := s.todaysQuestion()
	if err != nil || entry == nil {
		http.Error(w, "no question for today", http.StatusNotFound)
		return
	}

	var req guessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Guess) != len(entry.Answers) {
		http.Error(w, "guess must contain exactly 5 options", http.StatusBadRequest)
		return
	}

	session, _ := s.store.Get(r, "factle-game")
	state := currentState(session, entry)

	if state.Solved || len(state.Guesses) >= maxGuesses {
		http.Error(w, "game already over", http.StatusConflict)
		return
	}

	feedback := scoreGuess(req.Guess, entry.Answers)
	state.Guesses = append(state.Guesses, req.Guess)
	state.Solved = allGreen(feedback)
	gameOver := state.Solved || len(state.Guesses) >= maxGuesses

	if gameOver && !state.Recorded {
		play := factle.Play{
			QuestionID: entry.ID,
			Date:       entry.Date,
			Guesses:    len(state.Guesses),
			Solved:     state.Solved,
			PlayedAt:   time.Now(),
		}
		if err := s.stats.RecordPlay(play); err != nil {
			log.Printf("Failed to record play: %v", err)
		} else {
			state.Recorded = true
		}
	}

	session.Values["state"] = state
	if err := session.Save(r, w); err != nil {
		log.Printf("Failed to save session: %v", err)
	}

	resp := guessResponse{
		Feedback:  feedback,
		Solved:    state.Solved,
		GameOver:  gameOver,
		Remaining: maxGuesses - len(state.Guesses),
	}
	if gameOver {
		resp.Source = entry.Source
	}
	writeJSON(w, resp)
}

// handleStats returns aggregate play statistics for today's question.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entry, err := s.todaysQuestion()
	if err != nil || entry == nil {
		http.Error(w, "no question for today", http.StatusNotFound)
		return
	}

	stats, err := s.stats.QuestionStats(entry.ID)
	if err != nil {
		log.Printf("Failed to load stats: %v", err)
		http.Error(w, "failed to load stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

// currentState returns the session's game state, resetting it when the day
// (and therefore the question) has rolled over.
func currentState(session *sessions.Session, entry *factle.QuestionEntry) GameState {
	if raw, ok := session.Values["state"]; ok {
		if state, ok := raw.(GameState); ok && state.Date == entry.Date {
			return state
		}
	}
	return GameState{QuestionID: entry.ID, Date: entry.Date}
}

// scoreGuess gives Wordle-style feedback per slot: green for the right
// option at the right rank, yellow for an answer at the wrong rank, grey
// otherwise.
func scoreGuess(guess, answers []string) []string {
	answerSet := make(map[string]bool, len(answers))
	for _, a := range answers {
		answerSet[a] = true
	}

	feedback := make([]string, len(guess))
	for i, option := range guess {
		switch {
		case option == answers[i]:
			feedback[i] = feedbackGreen
		case answerSet[option]:
			feedback[i] = feedbackYellow
		default:
			feedback[i] = feedbackGrey
		}
	}
	return feedback
}

func allGreen(feedback []string) bool {
	for _, f := range feedback {
		if f != feedbackGreen {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

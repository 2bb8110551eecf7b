package domain

import (
	"strings"
	"time"
)

const (
	// FlagsInQuiz is the number of flags shown in one quiz.
	FlagsInQuiz = 10
	// MinChoices and MaxChoices bound the number of answer buttons.
	MinChoices = 2
	MaxChoices = 8
	// ChoiceColumns is the number of answer buttons per row.
	ChoiceColumns = 2
)

// FlagID identifies one flag asset as "region-countryName".
type FlagID string

// ParseFlagID validates raw and returns it as a FlagID.
func ParseFlagID(raw string) (FlagID, error) {
	region, country, ok := strings.Cut(raw, "-")
	if !ok || region == "" || country == "" {
		return "", ErrInvalidFlagID
	}
	return FlagID(raw), nil
}

// Region returns the part before the first separator.
func (f FlagID) Region() string {
	region, _, _ := strings.Cut(string(f), "-")
	return region
}

// DisplayName returns the country name shown on an answer button:
// the text after the first "-" with every "_" replaced by a space.
func (f FlagID) DisplayName() string {
	return DisplayName(string(f))
}

// DisplayName applies the display-name rule to a raw identifier.
func DisplayName(id string) string {
	name := id
	if _, country, ok := strings.Cut(id, "-"); ok {
		name = country
	}
	return strings.ReplaceAll(name, "_", " ")
}

// ValidChoiceCount reports whether n is an even number within [MinChoices, MaxChoices].
func ValidChoiceCount(n int) bool {
	return n >= MinChoices && n <= MaxChoices && n%2 == 0
}

// Preferences are the per-player quiz settings.
type Preferences struct {
	Choices int      `json:"choices"`
	Regions []string `json:"regions"`
}

// Statistics tracks the guesses of the running quiz.
type Statistics struct {
	TotalGuesses   int `json:"totalGuesses"`
	CorrectAnswers int `json:"correctAnswers"`
	QuizLength     int `json:"quizLength"`
}

// Score is the result figure of the finished quiz: 1000 / TotalGuesses.
func (s Statistics) Score() float64 {
	if s.TotalGuesses == 0 {
		return 0
	}
	return 1000 / float64(s.TotalGuesses)
}

// Accuracy is the percentage of guesses that were correct.
func (s Statistics) Accuracy() float64 {
	if s.TotalGuesses == 0 {
		return 0
	}
	return float64(s.CorrectAnswers) * 100 / float64(s.TotalGuesses)
}

// Complete reports whether every flag has been answered correctly.
func (s Statistics) Complete() bool {
	return s.QuizLength > 0 && s.CorrectAnswers >= s.QuizLength
}

// AnswerChoices holds the names offered for the current flag.
type AnswerChoices struct {
	Names   []string `json:"names"`
	Correct int      `json:"-"`
}

// Rows splits the names into rows of ChoiceColumns buttons.
func (c AnswerChoices) Rows() [][]string {
	rows := make([][]string, 0, (len(c.Names)+ChoiceColumns-1)/ChoiceColumns)
	for i := 0; i < len(c.Names); i += ChoiceColumns {
		end := i + ChoiceColumns
		if end > len(c.Names) {
			end = len(c.Names)
		}
		rows = append(rows, c.Names[i:end])
	}
	return rows
}

// GuessOutcome is the controller's verdict on one guess.
type GuessOutcome int

const (
	GuessIncorrect GuessOutcome = iota
	GuessCorrect
	GuessCorrectQuizComplete
)

func (o GuessOutcome) String() string {
	switch o {
	case GuessCorrect:
		return "correct"
	case GuessCorrectQuizComplete:
		return "complete"
	default:
		return "incorrect"
	}
}

// Correct reports whether the guess matched the current flag.
func (o GuessOutcome) Correct() bool {
	return o == GuessCorrect || o == GuessCorrectQuizComplete
}

// GuessResult summarizes a guess for the presentation layer.
type GuessResult struct {
	Guess      string     `json:"guess"`
	Outcome    string     `json:"outcome"`
	Correct    bool       `json:"correct"`
	Complete   bool       `json:"complete"`
	Answer     string     `json:"answer,omitempty"`
	Generation uint64     `json:"generation"`
	Stats      Statistics `json:"stats"`
	Score      float64    `json:"score,omitempty"`
}

// Snapshot is the renderable state of a quiz session.
type Snapshot struct {
	SessionID      string     `json:"sessionId"`
	PlayerID       string     `json:"playerId"`
	Generation     uint64     `json:"generation"`
	QuestionNumber int        `json:"questionNumber"`
	QuizLength     int        `json:"quizLength"`
	FlagID         FlagID     `json:"flagId"`
	Region         string     `json:"region"`
	ImagePath      string     `json:"imagePath"`
	Choices        [][]string `json:"choices"`
	Disabled       []string   `json:"disabled"`
	Stats          Statistics `json:"stats"`
	Complete       bool       `json:"complete"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// QuizResult is a finished quiz kept in the player's history.
type QuizResult struct {
	ID             string    `json:"id"`
	PlayerID       string    `json:"playerId"`
	TotalGuesses   int       `json:"totalGuesses"`
	CorrectAnswers int       `json:"correctAnswers"`
	Score          float64   `json:"score"`
	Choices        int       `json:"choices"`
	Regions        []string  `json:"regions"`
	CompletedAt    time.Time `json:"completedAt"`
}

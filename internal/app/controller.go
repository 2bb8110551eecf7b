package app

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"flag-quiz-service/internal/domain"
	"go.uber.org/zap"
)

// FlagLister enumerates the flags available in one region.
type FlagLister interface {
	ListFlags(ctx context.Context, region string) ([]domain.FlagID, error)
}

// Controller runs one player's quiz. It is not safe for concurrent use;
// Session serializes access to it.
type Controller struct {
	quizLength int
	rnd        *rand.Rand
	logger     *zap.Logger

	choices int
	regions []string

	pool       []domain.FlagID
	sequence   []domain.FlagID
	current    domain.FlagID
	answered   bool
	disabled   []string
	stats      domain.Statistics
	generation uint64
}

// ControllerOption customizes a Controller.
type ControllerOption func(*Controller)

// WithRand makes the controller draw from rnd, for deterministic tests.
func WithRand(rnd *rand.Rand) ControllerOption {
	return func(c *Controller) { c.rnd = rnd }
}

// WithQuizLength overrides the number of flags per quiz.
func WithQuizLength(n int) ControllerOption {
	return func(c *Controller) {
		if n > 0 {
			c.quizLength = n
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		quizLength: domain.FlagsInQuiz,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configure stores the choice count and enabled regions. It does not start a quiz,
// but any quiz in flight is invalidated.
func (c *Controller) Configure(choiceCount int, regions []string) error {
	if !domain.ValidChoiceCount(choiceCount) {
		return domain.ErrInvalidChoiceCount
	}
	unique := dedupeRegions(regions)
	if len(unique) == 0 {
		return domain.ErrNoRegions
	}
	c.choices = choiceCount
	c.regions = unique
	c.invalidate()
	return nil
}

// RebuildCandidatePool replaces the pool with the flags of every enabled region.
// Regions the lister cannot enumerate are skipped; their *domain.AssetLookupError
// values are returned joined once the remaining regions have been listed.
func (c *Controller) RebuildCandidatePool(ctx context.Context, lister FlagLister) error {
	pool := make([]domain.FlagID, 0, len(c.pool))
	var errs []error
	for _, region := range c.regions {
		flags, err := lister.ListFlags(ctx, region)
		if err != nil {
			lookupErr := &domain.AssetLookupError{Region: region, Err: err}
			c.logger.Warn("skipping region", zap.String("region", region), zap.Error(err))
			errs = append(errs, lookupErr)
			continue
		}
		pool = append(pool, flags...)
	}
	c.pool = pool
	c.invalidate()
	return errors.Join(errs...)
}

// StartQuiz draws a new sequence of distinct flags, resets the statistics and
// makes the first flag current.
func (c *Controller) StartQuiz() error {
	distinct := distinctFlags(c.pool)
	if len(distinct) < c.quizLength {
		return &domain.InsufficientCandidatesError{Have: len(distinct), Need: c.quizLength}
	}

	c.rnd.Shuffle(len(distinct), func(i, j int) {
		distinct[i], distinct[j] = distinct[j], distinct[i]
	})
	c.sequence = distinct[:c.quizLength]
	c.stats = domain.Statistics{QuizLength: c.quizLength}
	c.current = ""
	c.generation++

	_, err := c.AdvanceFlag(c.generation)
	return err
}

// AdvanceFlag removes the head of the sequence and makes it the current flag.
func (c *Controller) AdvanceFlag(generation uint64) (domain.FlagID, error) {
	if generation != c.generation {
		return "", domain.ErrStaleSession
	}
	if len(c.sequence) == 0 {
		return "", domain.ErrQuizExhausted
	}
	next := c.sequence[0]
	c.sequence = c.sequence[1:]
	c.current = next
	c.answered = false
	c.disabled = nil
	c.logger.Debug("correct answer for this question", zap.String("flag", string(next)))
	return next, nil
}

// BuildAnswerChoices shuffles the pool and offers the current flag's name among
// choiceCount-1 distractors with distinct display names.
func (c *Controller) BuildAnswerChoices(generation uint64) (domain.AnswerChoices, error) {
	if generation != c.generation {
		return domain.AnswerChoices{}, domain.ErrStaleSession
	}
	if c.current == "" {
		return domain.AnswerChoices{}, domain.ErrNoCurrentFlag
	}

	c.rnd.Shuffle(len(c.pool), func(i, j int) {
		c.pool[i], c.pool[j] = c.pool[j], c.pool[i]
	})

	answer := c.current.DisplayName()
	seen := map[string]struct{}{answer: {}}
	distractors := make([]string, 0, c.choices-1)
	for _, id := range c.pool {
		if len(distractors) == c.choices-1 {
			break
		}
		if id == c.current {
			continue
		}
		name := id.DisplayName()
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		distractors = append(distractors, name)
	}
	if len(distractors) < c.choices-1 {
		return domain.AnswerChoices{}, &domain.InsufficientCandidatesError{Have: len(distractors) + 1, Need: c.choices}
	}

	row := c.rnd.Intn(c.choices / domain.ChoiceColumns)
	column := c.rnd.Intn(domain.ChoiceColumns)
	slot := row*domain.ChoiceColumns + column

	names := make([]string, 0, c.choices)
	names = append(names, distractors[:slot]...)
	names = append(names, answer)
	names = append(names, distractors[slot:]...)
	return domain.AnswerChoices{Names: names, Correct: slot}, nil
}

// SubmitGuess counts a guess against the current flag.
func (c *Controller) SubmitGuess(generation uint64, name string) (domain.GuessOutcome, error) {
	if generation != c.generation {
		return domain.GuessIncorrect, domain.ErrStaleSession
	}
	if c.current == "" {
		return domain.GuessIncorrect, domain.ErrNoCurrentFlag
	}
	if c.answered {
		return domain.GuessCorrect, domain.ErrAlreadyAnswered
	}

	c.stats.TotalGuesses++
	if name != c.current.DisplayName() {
		c.disabled = append(c.disabled, name)
		return domain.GuessIncorrect, nil
	}

	c.answered = true
	c.stats.CorrectAnswers++
	if c.stats.CorrectAnswers == c.quizLength {
		return domain.GuessCorrectQuizComplete, nil
	}
	return domain.GuessCorrect, nil
}

// Generation identifies the running quiz; it changes on every reset or reconfiguration.
func (c *Controller) Generation() uint64 { return c.generation }

// Current returns the flag being asked.
func (c *Controller) Current() domain.FlagID { return c.current }

// Stats returns the statistics of the running quiz.
func (c *Controller) Stats() domain.Statistics { return c.stats }

// Remaining is the number of flags left after the current one.
func (c *Controller) Remaining() int { return len(c.sequence) }

// QuizLength is the number of flags per quiz.
func (c *Controller) QuizLength() int { return c.quizLength }

// QuestionNumber is the 1-based position of the current flag.
func (c *Controller) QuestionNumber() int {
	if c.current == "" {
		return 0
	}
	return c.quizLength - len(c.sequence)
}

// Disabled lists the names guessed incorrectly for the current flag.
func (c *Controller) Disabled() []string {
	return append([]string(nil), c.disabled...)
}

// Answered reports whether the current flag has been guessed correctly.
func (c *Controller) Answered() bool { return c.answered }

// PoolSize is the number of identifiers in the candidate pool.
func (c *Controller) PoolSize() int { return len(c.pool) }

// Choices returns the configured number of answer choices.
func (c *Controller) Choices() int { return c.choices }

// Regions returns the configured regions.
func (c *Controller) Regions() []string {
	return append([]string(nil), c.regions...)
}

// invalidate ends the running quiz so delayed calls made against it are rejected.
func (c *Controller) invalidate() {
	c.generation++
	c.sequence = nil
	c.current = ""
	c.answered = false
	c.disabled = nil
}

func dedupeRegions(regions []string) []string {
	seen := make(map[string]struct{}, len(regions))
	out := make([]string, 0, len(regions))
	for _, r := range regions {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

func distinctFlags(pool []domain.FlagID) []domain.FlagID {
	seen := make(map[domain.FlagID]struct{}, len(pool))
	out := make([]domain.FlagID, 0, len(pool))
	for _, id := range pool {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

package app

import (
	"context"
	"sync"
	"time"

	"flag-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// Session is one player's quiz: a controller plus the snapshot subscribers.
type Session struct {
	id        string
	playerID  string
	createdAt time.Time
	now       func() time.Time

	mu          sync.Mutex
	ctrl        *Controller
	choices     domain.AnswerChoices
	imagePath   func(domain.FlagID) string
	subscribers map[chan domain.Snapshot]struct{}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(playerID string) *Session {
	return NewSessionWithClock(playerID, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(playerID string, now func() time.Time) *Session {
	return &Session{
		id:          uuid.NewString(),
		playerID:    playerID,
		createdAt:   now(),
		now:         now,
		subscribers: make(map[chan domain.Snapshot]struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// PlayerID returns the owner of the session.
func (s *Session) PlayerID() string { return s.playerID }

// IsEmpty reports whether nobody is subscribed to the session.
func (s *Session) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers) == 0
}

func (s *Session) reset(ctx context.Context, prefs domain.Preferences, lister FlagLister, imagePath func(domain.FlagID) string, opts []ControllerOption) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl == nil {
		s.ctrl = NewController(opts...)
	}
	s.imagePath = imagePath
	s.choices = domain.AnswerChoices{}

	if err := s.ctrl.Configure(prefs.Choices, prefs.Regions); err != nil {
		return domain.Snapshot{}, err
	}
	// Lookup failures are logged by the controller; the quiz runs on the regions that listed.
	_ = s.ctrl.RebuildCandidatePool(ctx, lister)
	if err := s.ctrl.StartQuiz(); err != nil {
		return domain.Snapshot{}, err
	}
	if err := s.rebuildChoicesLocked(); err != nil {
		return domain.Snapshot{}, err
	}
	return s.broadcastLocked(), nil
}

func (s *Session) advance(generation uint64) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl == nil {
		return domain.Snapshot{}, domain.ErrNoCurrentFlag
	}
	if generation == 0 {
		generation = s.ctrl.Generation()
	}
	if generation != s.ctrl.Generation() {
		return domain.Snapshot{}, domain.ErrStaleSession
	}
	// One advance per correct answer: a manual next and the delayed advance
	// scheduled for the same answer must not both pop a flag.
	if s.ctrl.Current() != "" && !s.ctrl.Answered() {
		return domain.Snapshot{}, domain.ErrNotAnswered
	}
	if _, err := s.ctrl.AdvanceFlag(generation); err != nil {
		return domain.Snapshot{}, err
	}
	if err := s.rebuildChoicesLocked(); err != nil {
		return domain.Snapshot{}, err
	}
	return s.broadcastLocked(), nil
}

func (s *Session) guess(generation uint64, name string) (domain.GuessResult, domain.QuizResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl == nil {
		return domain.GuessResult{}, domain.QuizResult{}, domain.ErrNoCurrentFlag
	}
	if generation == 0 {
		generation = s.ctrl.Generation()
	}
	outcome, err := s.ctrl.SubmitGuess(generation, name)
	if err != nil {
		return domain.GuessResult{}, domain.QuizResult{}, err
	}

	stats := s.ctrl.Stats()
	result := domain.GuessResult{
		Guess:      name,
		Outcome:    outcome.String(),
		Correct:    outcome.Correct(),
		Complete:   outcome == domain.GuessCorrectQuizComplete,
		Generation: generation,
		Stats:      stats,
	}
	var record domain.QuizResult
	if result.Correct {
		result.Answer = s.ctrl.Current().DisplayName()
	}
	if result.Complete {
		result.Score = stats.Score()
		record = domain.QuizResult{
			PlayerID:       s.playerID,
			TotalGuesses:   stats.TotalGuesses,
			CorrectAnswers: stats.CorrectAnswers,
			Score:          stats.Score(),
			Choices:        s.ctrl.Choices(),
			Regions:        s.ctrl.Regions(),
		}
	}
	s.broadcastLocked()
	return result, record, nil
}

func (s *Session) snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) rebuildChoicesLocked() error {
	choices, err := s.ctrl.BuildAnswerChoices(s.ctrl.Generation())
	if err != nil {
		return err
	}
	s.choices = choices
	return nil
}

func (s *Session) subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	// The channel is still empty, so this send cannot block while the lock is held.
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() domain.Snapshot {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Slow subscriber: replace its oldest pending snapshot.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

func (s *Session) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		SessionID: s.id,
		PlayerID:  s.playerID,
		UpdatedAt: s.now(),
	}
	if s.ctrl == nil {
		return snap
	}

	stats := s.ctrl.Stats()
	snap.Generation = s.ctrl.Generation()
	snap.QuestionNumber = s.ctrl.QuestionNumber()
	snap.QuizLength = s.ctrl.QuizLength()
	snap.Stats = stats
	snap.Complete = stats.Complete()
	snap.Disabled = s.ctrl.Disabled()

	if current := s.ctrl.Current(); current != "" {
		snap.FlagID = current
		snap.Region = current.Region()
		if s.imagePath != nil {
			snap.ImagePath = s.imagePath(current)
		}
		snap.Choices = s.choices.Rows()
	}
	return snap
}

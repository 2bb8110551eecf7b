package app

import (
	"context"
	"errors"
	"time"

	"flag-quiz-service/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionRepository abstracts how quiz sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(playerID string) *Session
	Get(playerID string) (*Session, bool)
	DeleteIfEmpty(playerID string)
}

// Catalog is the asset catalog: the regions and the flags in each of them.
type Catalog interface {
	FlagLister
	Regions(ctx context.Context) ([]string, error)
}

// PreferenceStore persists per-player quiz settings.
type PreferenceStore interface {
	GetPreferences(ctx context.Context, playerID string) (domain.Preferences, error)
	SavePreferences(ctx context.Context, playerID string, prefs domain.Preferences) error
}

// ResultStore keeps the history of finished quizzes.
type ResultStore interface {
	SaveResult(ctx context.Context, result domain.QuizResult) error
	ListResults(ctx context.Context, playerID string, limit int) ([]domain.QuizResult, error)
}

// Defaults are applied to players without stored preferences.
type Defaults struct {
	Choices       int
	Regions       []string
	DefaultRegion string
}

// QuizService contains the quiz use cases.
type QuizService struct {
	sessions SessionRepository
	prefs    PreferenceStore
	results  ResultStore
	catalog  Catalog
	defaults Defaults
	logger   *zap.Logger
	now      func() time.Time

	imagePath   func(domain.FlagID) string
	controllers []ControllerOption
}

// ServiceOption customizes a QuizService.
type ServiceOption func(*QuizService)

func WithDefaults(d Defaults) ServiceOption {
	return func(s *QuizService) { s.defaults = d }
}

func WithServiceLogger(logger *zap.Logger) ServiceOption {
	return func(s *QuizService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithImagePath sets how snapshots locate the image of a flag.
func WithImagePath(fn func(domain.FlagID) string) ServiceOption {
	return func(s *QuizService) { s.imagePath = fn }
}

// WithControllerOptions is applied to every controller the service creates.
func WithControllerOptions(opts ...ControllerOption) ServiceOption {
	return func(s *QuizService) { s.controllers = append(s.controllers, opts...) }
}

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *QuizService) { s.now = now }
}

func NewQuizService(store SessionRepository, prefs PreferenceStore, results ResultStore, catalog Catalog, opts ...ServiceOption) *QuizService {
	s := &QuizService{
		sessions: store,
		prefs:    prefs,
		results:  results,
		catalog:  catalog,
		defaults: Defaults{Choices: 4, DefaultRegion: "North_America", Regions: []string{"North_America"}},
		logger:   zap.NewNop(),
		now:      time.Now,
		imagePath: func(id domain.FlagID) string {
			return "/flags/" + id.Region() + "/" + string(id) + ".png"
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins a new quiz for the player with their stored preferences.
func (s *QuizService) Start(ctx context.Context, playerID string) (domain.Snapshot, error) {
	prefs, err := s.Preferences(ctx, playerID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	session := s.sessions.GetOrCreate(playerID)
	return s.reset(ctx, session, prefs)
}

// Current returns the renderable state of the player's quiz.
func (s *QuizService) Current(_ context.Context, playerID string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return session.snapshot(), nil
}

// Advance moves the quiz identified by generation to its next flag; zero targets
// the running quiz. The current flag must have been answered correctly, otherwise
// ErrNotAnswered is returned. ErrQuizExhausted means the last flag has already been shown.
func (s *QuizService) Advance(_ context.Context, playerID string, generation uint64) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return session.advance(generation)
}

// Guess submits a country name for the current flag. A zero generation targets
// the running quiz. Finished quizzes are recorded in the result store.
func (s *QuizService) Guess(ctx context.Context, playerID string, generation uint64, name string) (domain.GuessResult, error) {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return domain.GuessResult{}, domain.ErrSessionNotFound
	}
	result, record, err := session.guess(generation, name)
	if err != nil {
		return result, err
	}
	if result.Complete {
		record.ID = uuid.NewString()
		record.CompletedAt = s.now()
		if err := s.results.SaveResult(ctx, record); err != nil {
			s.logger.Error("save quiz result", zap.String("player", playerID), zap.Error(err))
		}
	}
	return result, nil
}

// Preferences returns the stored preferences or the defaults.
func (s *QuizService) Preferences(ctx context.Context, playerID string) (domain.Preferences, error) {
	prefs, err := s.prefs.GetPreferences(ctx, playerID)
	if errors.Is(err, domain.ErrPreferencesNotFound) {
		return s.defaultPreferences(), nil
	}
	if err != nil {
		return domain.Preferences{}, err
	}
	if !domain.ValidChoiceCount(prefs.Choices) {
		prefs.Choices = s.defaults.Choices
	}
	if len(prefs.Regions) == 0 {
		prefs.Regions = []string{s.defaults.DefaultRegion}
	}
	return prefs, nil
}

// UpdatePreferences validates and stores new preferences and restarts a running
// quiz with them. The boolean reports whether the default region was substituted
// for an empty region set.
func (s *QuizService) UpdatePreferences(ctx context.Context, playerID string, prefs domain.Preferences) (domain.Preferences, bool, error) {
	if !domain.ValidChoiceCount(prefs.Choices) {
		return domain.Preferences{}, false, domain.ErrInvalidChoiceCount
	}
	prefs.Regions = dedupeRegions(prefs.Regions)
	substituted := false
	if len(prefs.Regions) == 0 {
		prefs.Regions = []string{s.defaults.DefaultRegion}
		substituted = true
	}
	if err := s.prefs.SavePreferences(ctx, playerID, prefs); err != nil {
		return domain.Preferences{}, false, err
	}

	if session, ok := s.sessions.Get(playerID); ok {
		if _, err := s.reset(ctx, session, prefs); err != nil {
			return prefs, substituted, err
		}
	}
	return prefs, substituted, nil
}

// Subscribe returns a channel that receives snapshots of the player's quiz.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, playerID string) (<-chan domain.Snapshot, func(), error) {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Leave drops the player's session once nobody is subscribed to it.
func (s *QuizService) Leave(_ context.Context, playerID string) {
	s.sessions.DeleteIfEmpty(playerID)
}

// Results lists the player's finished quizzes, newest first.
func (s *QuizService) Results(ctx context.Context, playerID string, limit int) ([]domain.QuizResult, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.results.ListResults(ctx, playerID, limit)
}

// Regions lists the regions a player can enable.
func (s *QuizService) Regions(ctx context.Context) ([]string, error) {
	return s.catalog.Regions(ctx)
}

func (s *QuizService) reset(ctx context.Context, session *Session, prefs domain.Preferences) (domain.Snapshot, error) {
	opts := append([]ControllerOption{WithLogger(s.logger.With(zap.String("player", session.playerID)))}, s.controllers...)
	snap, err := session.reset(ctx, prefs, s.catalog, s.imagePath, opts)
	if err != nil {
		s.logger.Warn("cannot start quiz", zap.String("player", session.playerID), zap.Error(err))
	}
	return snap, err
}

func (s *QuizService) defaultPreferences() domain.Preferences {
	regions := append([]string(nil), s.defaults.Regions...)
	if len(regions) == 0 {
		regions = []string{s.defaults.DefaultRegion}
	}
	return domain.Preferences{Choices: s.defaults.Choices, Regions: regions}
}

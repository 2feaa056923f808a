package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"sail-quiz-service/internal/config"
	"sail-quiz-service/internal/domain"
)

// SessionRepository abstracts how live sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *LiveSession)
	Get(sessionID string) (*LiveSession, bool)
	Delete(sessionID string)
}

// BankRepository loads question banks (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}

// Options tunes a QuizService.
type Options struct {
	// QuestionCount overrides the bank's total_questions when positive.
	QuestionCount int
	// WarningSeconds is the low-time threshold reported in snapshots.
	WarningSeconds int
	// TickInterval drives the countdown; zero disables it and callers tick manually.
	TickInterval time.Duration
	Randomizer   *Randomizer
}

// QuizService contains the quiz use cases around the session state machine.
type QuizService struct {
	sessions SessionRepository
	banks    BankRepository
	loader   *QuizLoader
	opts     Options
	newID    func() string
}

func NewQuizService(store SessionRepository, banks BankRepository, opts Options) *QuizService {
	if opts.WarningSeconds <= 0 {
		opts.WarningSeconds = config.DefaultWarningSeconds
	}
	return &QuizService{
		sessions: store,
		banks:    banks,
		loader:   NewQuizLoader(opts.Randomizer),
		opts:     opts,
		newID:    uuid.NewString,
	}
}

// LiveSession pairs a state machine with its countdown and subscribers.
type LiveSession struct {
	id     string
	bankID string
	count  int

	mu          sync.Mutex
	session     *Session
	countdown   *Countdown
	subscribers map[chan domain.Snapshot]struct{}
}

// NewLiveSession is exported for infrastructure layers and tests that need
// a session handle; QuizService.Start is the normal way to create one.
func NewLiveSession(id, bankID string, count int) *LiveSession {
	return &LiveSession{
		id:          id,
		bankID:      bankID,
		count:       count,
		subscribers: make(map[chan domain.Snapshot]struct{}),
	}
}

// ID returns the session identifier.
func (l *LiveSession) ID() string { return l.id }

// BankID returns the bank the session draws from.
func (l *LiveSession) BankID() string { return l.bankID }

// Start loads a fresh quiz from bankID and begins a session.
// count <= 0 falls back to the configured count, then the bank's total_questions.
func (s *QuizService) Start(ctx context.Context, bankID string, count int) (domain.Snapshot, error) {
	if count <= 0 {
		count = s.opts.QuestionCount
	}
	live := NewLiveSession(s.newID(), bankID, count)
	ctx = config.ContextWithFields(ctx, logrus.Fields{"session_id": live.id, "bank_id": bankID})

	live.mu.Lock()
	defer live.mu.Unlock()
	if err := s.beginLocked(ctx, live); err != nil {
		return domain.Snapshot{}, err
	}
	s.sessions.Put(live)
	config.WithContext(ctx).WithField("questions", live.session.Quiz().TotalQuestions()).Info("quiz session started")
	return s.snapshotLocked(live), nil
}

// Restart replaces the session's quiz with a newly randomized one.
func (s *QuizService) Restart(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	live, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	ctx = config.ContextWithFields(ctx, logrus.Fields{"session_id": live.id, "bank_id": live.bankID})

	live.mu.Lock()
	defer live.mu.Unlock()
	if err := s.beginLocked(ctx, live); err != nil {
		return domain.Snapshot{}, err
	}
	config.WithContext(ctx).Info("quiz session restarted")
	return s.broadcastLocked(live), nil
}

func (s *QuizService) beginLocked(ctx context.Context, live *LiveSession) error {
	bank, err := s.banks.GetBank(ctx, live.bankID)
	if err != nil {
		config.WithContext(ctx).WithError(err).Warn("failed to load question bank")
		return err
	}
	count := live.count
	if count <= 0 {
		count = bank.TotalQuestions
	}
	quiz, err := s.loader.Load(bank, count)
	if err != nil {
		config.WithContext(ctx).WithError(err).Warn("question bank rejected")
		return err
	}

	session := NewSession()
	if err := session.Start(quiz); err != nil {
		return err
	}
	// the previous countdown must not tick into the replacement
	live.countdown.Stop()
	live.countdown = nil
	live.session = session

	if s.opts.TickInterval > 0 {
		live.countdown = StartCountdown(context.Background(), s.opts.TickInterval, func() bool {
			return s.tickFromCountdown(live, session)
		})
	}
	return nil
}

// tickFromCountdown ignores ticks aimed at a session that was replaced by a restart.
func (s *QuizService) tickFromCountdown(live *LiveSession, session *Session) bool {
	live.mu.Lock()
	defer live.mu.Unlock()
	if live.session != session {
		return false
	}
	if _, err := s.tickLocked(live); err != nil {
		return false
	}
	return session.State() == domain.InProgress
}

// SelectAnswer records option for the session's current question.
func (s *QuizService) SelectAnswer(_ context.Context, sessionID string, option int) (domain.Snapshot, error) {
	return s.apply(sessionID, func(session *Session) error {
		return session.SelectAnswer(option)
	})
}

// Previous moves the session back one question.
func (s *QuizService) Previous(_ context.Context, sessionID string) (domain.Snapshot, error) {
	return s.apply(sessionID, (*Session).GoToPrevious)
}

// Next moves the session forward one question.
func (s *QuizService) Next(_ context.Context, sessionID string) (domain.Snapshot, error) {
	return s.apply(sessionID, (*Session).GoToNext)
}

// Tick advances the countdown by one second.
func (s *QuizService) Tick(_ context.Context, sessionID string) (domain.Snapshot, error) {
	live, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	return s.tickLocked(live)
}

func (s *QuizService) tickLocked(live *LiveSession) (domain.Snapshot, error) {
	if _, err := live.session.Tick(); err != nil {
		return domain.Snapshot{}, err
	}
	if live.session.State() == domain.Ended {
		live.countdown.Stop()
		config.WithContext(context.Background()).WithField("session_id", live.id).Info("quiz time expired")
	}
	return s.broadcastLocked(live), nil
}

// Submit ends the session and returns its score report.
func (s *QuizService) Submit(ctx context.Context, sessionID string) (domain.ScoreReport, error) {
	live, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ScoreReport{}, domain.ErrSessionNotFound
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	if err := live.session.Submit(); err != nil {
		return domain.ScoreReport{}, err
	}
	live.countdown.Stop()
	s.broadcastLocked(live)

	report, err := live.session.Report()
	if err != nil {
		return domain.ScoreReport{}, err
	}
	config.WithContext(ctx).WithFields(logrus.Fields{
		"session_id": live.id,
		"correct":    report.CorrectCount,
		"total":      report.TotalCount,
		"passed":     report.Passed,
	}).Info("quiz submitted")
	return report, nil
}

// Report returns the score report of an ended session.
func (s *QuizService) Report(_ context.Context, sessionID string) (domain.ScoreReport, error) {
	live, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ScoreReport{}, domain.ErrSessionNotFound
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	return live.session.Report()
}

// Snapshot returns the current view of a session.
func (s *QuizService) Snapshot(_ context.Context, sessionID string) (domain.Snapshot, error) {
	live, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	return s.snapshotLocked(live), nil
}

// Unanswered reports how many questions still have no answer.
func (s *QuizService) Unanswered(_ context.Context, sessionID string) (int, error) {
	live, ok := s.sessions.Get(sessionID)
	if !ok {
		return 0, domain.ErrSessionNotFound
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	return live.session.UnansweredCount(), nil
}

// Subscribe returns a channel that receives snapshots after every change.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, sessionID string) (<-chan domain.Snapshot, func(), error) {
	live, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch := make(chan domain.Snapshot, 8)

	// the initial snapshot goes out under the lock so no broadcast can
	// overtake it; the buffer is empty, so the send never blocks
	live.mu.Lock()
	live.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked(live)
	live.mu.Unlock()

	cancel := func() {
		live.mu.Lock()
		if _, ok := live.subscribers[ch]; ok {
			delete(live.subscribers, ch)
			close(ch)
		}
		live.mu.Unlock()
	}
	return ch, cancel, nil
}

// Close stops the countdown and forgets the session.
func (s *QuizService) Close(ctx context.Context, sessionID string) {
	live, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	live.mu.Lock()
	live.countdown.Stop()
	for ch := range live.subscribers {
		delete(live.subscribers, ch)
		close(ch)
	}
	live.mu.Unlock()
	s.sessions.Delete(sessionID)
	config.WithContext(ctx).WithField("session_id", sessionID).Debug("quiz session closed")
}

func (s *QuizService) apply(sessionID string, cmd func(*Session) error) (domain.Snapshot, error) {
	live, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	if err := cmd(live.session); err != nil {
		return domain.Snapshot{}, err
	}
	return s.broadcastLocked(live), nil
}

func (s *QuizService) snapshotLocked(live *LiveSession) domain.Snapshot {
	snap := live.session.Snapshot(s.opts.WarningSeconds)
	snap.SessionID = live.id
	return snap
}

func (s *QuizService) broadcastLocked(live *LiveSession) domain.Snapshot {
	snap := s.snapshotLocked(live)
	for ch := range live.subscribers {
		select {
		case ch <- snap:
		default:
			// drop the oldest update so slow readers never block a command
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

// IsClientError reports whether err stems from a bad command rather than a fault.
func IsClientError(err error) bool {
	return errors.Is(err, domain.ErrInvalidState) ||
		errors.Is(err, domain.ErrInvalidOption) ||
		errors.Is(err, domain.ErrSessionNotFound) ||
		errors.Is(err, domain.ErrConfiguration)
}

// DescribeError renders err for a user-facing message.
func DescribeError(err error) string {
	switch {
	case errors.Is(err, domain.ErrBankNotFound):
		return "question bank not available"
	case errors.Is(err, domain.ErrSessionNotFound):
		return "quiz session not found"
	default:
		return fmt.Sprint(err)
	}
}

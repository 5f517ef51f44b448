package confirmation

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"copper-intel-workers/internal/common/logger"
	"copper-intel-workers/internal/common/metrics"
	"copper-intel-workers/internal/models"

	"github.com/google/uuid"
)

// TransitionKind names what a reply did to the conversation.
type TransitionKind string

const (
	// TransitionNone means no confirmation was pending; the reply is a fresh message.
	TransitionNone          TransitionKind = "none"
	TransitionStarted       TransitionKind = "started"
	TransitionCancelled     TransitionKind = "cancelled"
	TransitionResolved      TransitionKind = "resolved"
	TransitionOutOfRange    TransitionKind = "out_of_range"
	TransitionInvalidFormat TransitionKind = "invalid_format"
	TransitionError         TransitionKind = "error"
)

const maxClearAttempts = 3

var cancelWords = map[string]bool{
	"cancel": true,
	"abort":  true,
	"quit":   true,
	"exit":   true,
}

// ErrContended is returned when the pending entry kept changing underneath a reply.
var ErrContended = errors.New("confirmation changed concurrently")

// Transition is the result of handling one reply.
type Transition struct {
	Kind     TransitionKind
	Pending  *models.PendingConfirmation
	Selected *models.MatchCandidate
	Analysis models.QueryAnalysis
}

// Machine drives IDLE -> AWAITING_SELECTION -> RESOLVED | CANCELLED | ERROR. Every
// terminal transition deletes the stored entry.
type Machine struct {
	store         Store
	maxCandidates int
	logger        logger.Logger
	now           func() time.Time
}

func NewMachine(store Store, maxCandidates int, log logger.Logger) *Machine {
	if maxCandidates <= 0 {
		maxCandidates = 5
	}
	return &Machine{store: store, maxCandidates: maxCandidates, logger: log, now: time.Now}
}

// Begin stores a new confirmation for key, replacing any existing one.
func (m *Machine) Begin(ctx context.Context, key models.ConfirmationKey, candidates []models.MatchCandidate, analysis models.QueryAnalysis) (*models.PendingConfirmation, error) {
	if len(candidates) > m.maxCandidates {
		candidates = candidates[:m.maxCandidates]
	}
	p := &models.PendingConfirmation{
		ID:         uuid.New(),
		Key:        key,
		Candidates: append([]models.MatchCandidate(nil), candidates...),
		Analysis:   analysis,
		CreatedAt:  m.now().UTC(),
	}
	if err := m.store.Put(ctx, p); err != nil {
		return nil, err
	}
	m.record(TransitionStarted, key)
	return p, nil
}

// Pending returns the stored confirmation for key, or nil when the conversation is idle.
func (m *Machine) Pending(ctx context.Context, key models.ConfirmationKey) (*models.PendingConfirmation, error) {
	return m.store.Get(ctx, key)
}

// Handle interprets text as a reply to the pending confirmation for key.
func (m *Machine) Handle(ctx context.Context, key models.ConfirmationKey, text string) (*Transition, error) {
	for attempt := 0; attempt < maxClearAttempts; attempt++ {
		p, err := m.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return &Transition{Kind: TransitionNone}, nil
		}

		reply := strings.TrimSpace(text)

		if IsCancel(reply) {
			ok, err := m.store.ClearIf(ctx, key, p.ID)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			m.record(TransitionCancelled, key)
			return &Transition{Kind: TransitionCancelled, Pending: p, Analysis: p.Analysis}, nil
		}

		n, ok := ParseSelection(reply)
		if !ok {
			m.record(TransitionInvalidFormat, key)
			return &Transition{Kind: TransitionInvalidFormat, Pending: p, Analysis: p.Analysis}, nil
		}
		if n < 1 || n > len(p.Candidates) {
			m.record(TransitionOutOfRange, key)
			return &Transition{Kind: TransitionOutOfRange, Pending: p, Analysis: p.Analysis}, nil
		}

		cleared, err := m.store.ClearIf(ctx, key, p.ID)
		if err != nil {
			return nil, err
		}
		if !cleared {
			m.logger.Debug("confirmation replaced while handling reply, retrying", map[string]interface{}{
				"key":     key.String(),
				"attempt": attempt + 1,
			})
			continue
		}
		selected := p.Candidates[n-1]
		m.record(TransitionResolved, key)
		return &Transition{Kind: TransitionResolved, Pending: p, Selected: &selected, Analysis: p.Analysis}, nil
	}
	return nil, ErrContended
}

// Abort clears any pending confirmation for key after a failure.
func (m *Machine) Abort(ctx context.Context, key models.ConfirmationKey) error {
	m.record(TransitionError, key)
	return m.store.Clear(ctx, key)
}

func (m *Machine) record(kind TransitionKind, key models.ConfirmationKey) {
	metrics.ConfirmationTransitions.WithLabelValues(string(kind)).Inc()
	m.logger.Debug("confirmation transition", map[string]interface{}{
		"transition": string(kind),
		"key":        key.String(),
	})
}

// IsCancel reports whether text is one of the cancellation keywords, ignoring case.
func IsCancel(text string) bool {
	return cancelWords[strings.ToLower(strings.TrimSpace(text))]
}

// ParseSelection accepts a bare run of ASCII digits. Runs too long to be an index
// parse as math.MaxInt so they read as out of range.
func ParseSelection(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	for i := 0; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return 0, false
		}
	}
	if len(strings.TrimLeft(text, "0")) > 9 {
		return math.MaxInt, true
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return math.MaxInt, true
	}
	return n, true
}

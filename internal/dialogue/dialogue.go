// Package dialogue tracks the per-user appeal submission conversation. A
// session exists only between the entry command and the moment text is
// submitted or the flow is cancelled; nothing here survives a restart.
package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"appealbot/internal/appeal"
	"appealbot/internal/domain"
)

// State of an in-progress session. The idle state is represented by the
// absence of a session.
type State int

const (
	AwaitingKind State = iota
	AwaitingText
)

type Session struct {
	UserID    int64
	Kind      appeal.Kind
	State     State
	UpdatedOn time.Time
}

// Submitter consumes a completed submission.
type Submitter interface {
	Submit(ctx context.Context, userID int64, username string, kind appeal.Kind, text string) (int64, error)
}

// Dialogue holds all live sessions, keyed by submitter id. Two users never
// collide; a user restarting the flow overwrites their own session in place.
type Dialogue struct {
	mu        sync.Mutex
	sessions  map[int64]*Session
	timeout   time.Duration
	submitter Submitter
}

func New(submitter Submitter, timeout time.Duration) *Dialogue {
	return &Dialogue{
		sessions:  map[int64]*Session{},
		timeout:   timeout,
		submitter: submitter,
	}
}

// Start opens (or restarts) the appeal flow for a user.
func (d *Dialogue) Start(userID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.sessions[userID] = &Session{UserID: userID, State: AwaitingKind, UpdatedOn: time.Now()}
}

// SelectKind records the chosen appeal kind and returns the kind-specific
// guidance template. An unknown kind terminates the session rather than
// leaving it stuck waiting for text.
func (d *Dialogue) SelectKind(userID int64, rawKind string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	session, ok := d.sessions[userID]
	if !ok || session.State != AwaitingKind {
		return "", domain.ErrNoSession
	}

	kind, errKind := appeal.ParseKind(rawKind)
	if errKind != nil {
		delete(d.sessions, userID)

		return "", errKind
	}

	session.Kind = kind
	session.State = AwaitingText
	session.UpdatedOn = time.Now()

	return guidance(kind), nil
}

// SubmitText consumes the session and hands the completed appeal off for
// persistence. The session is gone afterwards even if persistence fails; the
// user restarts the flow in that case.
func (d *Dialogue) SubmitText(ctx context.Context, userID int64, username string, text string) (int64, error) {
	d.mu.Lock()

	session, ok := d.sessions[userID]
	if !ok || session.State != AwaitingText {
		d.mu.Unlock()

		return 0, domain.ErrNoSession
	}

	kind := session.Kind
	delete(d.sessions, userID)
	d.mu.Unlock()

	return d.submitter.Submit(ctx, userID, username, kind, text)
}

// Cancel discards any session for the user, reporting whether one existed.
func (d *Dialogue) Cancel(userID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.sessions[userID]
	delete(d.sessions, userID)

	return ok
}

// Active reports the state of a user's session, if any.
func (d *Dialogue) Active(userID int64) (State, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	session, ok := d.sessions[userID]
	if !ok {
		return 0, false
	}

	return session.State, true
}

// Sweep evicts sessions idle past the timeout, returning how many were
// dropped. Bounds memory growth from abandoned dialogues.
func (d *Dialogue) Sweep() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := time.Now().Add(-d.timeout)

	var evicted int

	for userID, session := range d.sessions {
		if session.UpdatedOn.Before(cutoff) {
			delete(d.sessions, userID)

			evicted++
		}
	}

	return evicted
}

// StartSweeper runs the eviction sweep once a minute until ctx is done.
func (d *Dialogue) StartSweeper(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if evicted := d.Sweep(); evicted > 0 {
				slog.Debug("Evicted abandoned dialogue sessions", slog.Int("count", evicted))
			}
		case <-ctx.Done():
			return
		}
	}
}

func guidance(kind appeal.Kind) string {
	var points string

	if kind == appeal.Unban {
		points = "1. Why were you banned?\n" +
			"2. What have you learned from this experience?\n" +
			"3. Why should we unban you?\n" +
			"4. Any additional information?"
	} else {
		points = "1. Why do you want to be an admin?\n" +
			"2. What experience do you have?\n" +
			"3. How will you help the community?\n" +
			"4. Any additional information?"
	}

	return fmt.Sprintf("✍️ Please write and submit your %s appeal.\n\n📝 Please write your appeal in detail. Example:\n%s\n\nType your appeal now:",
		kind.Label(), points)
}

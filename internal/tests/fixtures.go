// Package tests provides in-memory doubles for the storage and transport
// layers. They honor the same contracts as the real implementations, in
// particular the atomic conditional appeal transition, so the concurrency
// properties of the usecases can be exercised without a database.
package tests

import (
	"context"
	"sort"
	"sync"
	"time"

	"appealbot/internal/admin"
	"appealbot/internal/appeal"
	"appealbot/internal/database"
	"appealbot/internal/domain"
)

type MemStore struct {
	mu      sync.Mutex
	nextID  int64
	appeals map[int64]appeal.Appeal

	// SaveErr, when set, fails every Save to simulate storage outage.
	SaveErr error
}

func NewMemStore() *MemStore {
	return &MemStore{appeals: map[int64]appeal.Appeal{}}
}

func (m *MemStore) Save(_ context.Context, entry *appeal.Appeal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return m.SaveErr
	}

	m.nextID++
	entry.AppealID = m.nextID
	entry.Status = appeal.Pending
	m.appeals[entry.AppealID] = *entry

	return nil
}

func (m *MemStore) GetByID(_ context.Context, appealID int64) (appeal.Appeal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.appeals[appealID]
	if !ok {
		return appeal.Appeal{}, database.ErrNoResult
	}

	return entry, nil
}

func (m *MemStore) Pending(_ context.Context) ([]appeal.Appeal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pending []appeal.Appeal

	for _, entry := range m.appeals {
		if entry.Status == appeal.Pending {
			pending = append(pending, entry)
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].AppealID > pending[j].AppealID
	})

	return pending, nil
}

// Transition mirrors the single conditional UPDATE of the postgres store:
// the pending check and the write happen under one lock.
func (m *MemStore) Transition(_ context.Context, appealID int64, status appeal.Status) (appeal.Appeal, bool, error) {
	if !status.Terminal() {
		return appeal.Appeal{}, false, domain.ErrInvalidParameter
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.appeals[appealID]
	if !ok || entry.Status != appeal.Pending {
		return appeal.Appeal{}, false, nil
	}

	entry.Status = status
	m.appeals[appealID] = entry

	return entry, true, nil
}

func (m *MemStore) Stats(_ context.Context) (appeal.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := appeal.Stats{ByKind: map[appeal.Kind]int64{}}
	dayAgo := time.Now().AddDate(0, 0, -1)
	weekAgo := time.Now().AddDate(0, 0, -7)

	for _, entry := range m.appeals {
		stats.Total++
		stats.ByKind[entry.Kind]++

		switch entry.Status {
		case appeal.Pending:
			stats.Pending++
		case appeal.Approved:
			stats.Approved++
		case appeal.Rejected:
			stats.Rejected++
		}

		if entry.CreatedOn.After(dayAgo) {
			stats.Last24h++
		}

		if entry.CreatedOn.After(weekAgo) {
			stats.Last7d++
		}
	}

	return stats, nil
}

type MemRoster struct {
	mu      sync.Mutex
	entries map[int64]admin.Admin
}

func NewMemRoster() *MemRoster {
	return &MemRoster{entries: map[int64]admin.Admin{}}
}

func (m *MemRoster) SeedIfEmpty(_ context.Context, userIDs []int64, seededBy int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) > 0 || len(userIDs) == 0 {
		return nil
	}

	for _, userID := range userIDs {
		m.entries[userID] = admin.Admin{UserID: userID, AddedBy: seededBy, AddedOn: time.Now()}
	}

	return nil
}

func (m *MemRoster) Add(_ context.Context, entry admin.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[entry.UserID]; exists {
		return database.ErrDuplicate
	}

	m.entries[entry.UserID] = entry

	return nil
}

func (m *MemRoster) Remove(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[userID]; !exists {
		return domain.ErrNotAdmin
	}

	delete(m.entries, userID)

	return nil
}

func (m *MemRoster) Exists(_ context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, exists := m.entries[userID]

	return exists, nil
}

func (m *MemRoster) List(_ context.Context) ([]admin.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	admins := make([]admin.Admin, 0, len(m.entries))
	for _, entry := range m.entries {
		admins = append(admins, entry)
	}

	sort.Slice(admins, func(i, j int) bool {
		return admins[i].UserID < admins[j].UserID
	})

	return admins, nil
}

type SentMessage struct {
	ChatID int64
	Text   string
}

// RecordingSender captures outbound messages and can be told to fail for
// specific recipients.
type RecordingSender struct {
	mu      sync.Mutex
	sent    []SentMessage
	FailFor map[int64]error
}

func NewRecordingSender() *RecordingSender {
	return &RecordingSender{FailFor: map[int64]error{}}
}

func (s *RecordingSender) SendMessage(_ context.Context, chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, failing := s.FailFor[chatID]; failing {
		return err
	}

	s.sent = append(s.sent, SentMessage{ChatID: chatID, Text: text})

	return nil
}

// Sent returns a copy of everything delivered so far.
func (s *RecordingSender) Sent() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SentMessage(nil), s.sent...)
}

// SentTo filters deliveries for one recipient.
func (s *RecordingSender) SentTo(chatID int64) []SentMessage {
	var matches []SentMessage

	for _, message := range s.Sent() {
		if message.ChatID == chatID {
			matches = append(matches, message)
		}
	}

	return matches
}

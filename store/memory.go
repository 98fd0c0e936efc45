package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"wordgame-economy/models"
)

// MemoryStore keeps accounts in process. Transactions run on deep copies and
// commit with a version check, so concurrent writers behave like a real
// optimistic store.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]*models.UserAccount
	watchers map[string]map[chan *models.UserAccount]struct{}
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*models.UserAccount),
		watchers: make(map[string]map[chan *models.UserAccount]struct{}),
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (*models.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[userID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", userID, models.ErrNotFound)
	}
	return acct.Clone(), nil
}

func (s *MemoryStore) Create(_ context.Context, acct *models.UserAccount) (*models.UserAccount, bool, error) {
	if acct == nil || acct.ID == "" {
		return nil, false, fmt.Errorf("%w: account id is required", models.ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.accounts[acct.ID]; ok {
		return existing.Clone(), false, nil
	}
	stored := acct.Clone()
	stored.Normalize()
	now := s.now()
	stored.CreatedAt, stored.UpdatedAt = now, now
	s.accounts[acct.ID] = stored
	s.notifyLocked(stored)
	return stored.Clone(), true, nil
}

func (s *MemoryStore) Update(_ context.Context, userID string, upd models.ProfileUpdate) (*models.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[userID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", userID, models.ErrNotFound)
	}
	next := acct.Clone()
	if upd.ActiveTheme != nil {
		next.ActiveTheme = *upd.ActiveTheme
	}
	if upd.ActiveAvatar != nil {
		next.ActiveAvatar = *upd.ActiveAvatar
	}
	next.Version++
	next.UpdatedAt = s.now()
	s.accounts[userID] = next
	s.notifyLocked(next)
	return next.Clone(), nil
}

func (s *MemoryStore) RunTransaction(_ context.Context, userID string, fn TxFunc) (*models.UserAccount, error) {
	s.mu.Lock()
	current, ok := s.accounts[userID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("account %s: %w", userID, models.ErrNotFound)
	}
	working := current.Clone()
	s.mu.Unlock()

	readVersion := working.Version
	working.Normalize()
	if err := fn(working); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accounts[userID].Version != readVersion {
		return nil, fmt.Errorf("account %s at version %d: %w", userID, readVersion, models.ErrTransactionConflict)
	}
	working.Version = readVersion + 1
	working.UpdatedAt = s.now()
	s.accounts[userID] = working
	s.notifyLocked(working)
	return working.Clone(), nil
}

func (s *MemoryStore) Watch(ctx context.Context, userID string, fn func(*models.UserAccount)) error {
	ch := make(chan *models.UserAccount, 1)

	s.mu.Lock()
	if s.watchers[userID] == nil {
		s.watchers[userID] = make(map[chan *models.UserAccount]struct{})
	}
	s.watchers[userID][ch] = struct{}{}
	if acct, ok := s.accounts[userID]; ok {
		ch <- acct.Clone()
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.watchers[userID], ch)
		if len(s.watchers[userID]) == 0 {
			delete(s.watchers, userID)
		}
		s.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case acct := <-ch:
			fn(acct)
		}
	}
}

func (s *MemoryStore) ListPowerUpOwners(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, acct := range s.accounts {
		if len(acct.PowerUps) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// notifyLocked hands the newest version to each watcher, replacing any
// version the watcher has not consumed yet.
func (s *MemoryStore) notifyLocked(acct *models.UserAccount) {
	for ch := range s.watchers[acct.ID] {
		select {
		case <-ch:
		default:
		}
		ch <- acct.Clone()
	}
}

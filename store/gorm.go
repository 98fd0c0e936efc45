package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"wordgame-economy/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgreSQL error codes that mean "try again".
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// GormStore keeps accounts in PostgreSQL, one row per user. Transactions lock
// the row with SELECT ... FOR UPDATE.
type GormStore struct {
	DB            *gorm.DB
	Clock         clockwork.Clock
	LockTimeout   time.Duration
	WatchInterval time.Duration
}

func NewGormStore(db *gorm.DB, clock clockwork.Clock, lockTimeout, watchInterval time.Duration) *GormStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &GormStore{DB: db, Clock: clock, LockTimeout: lockTimeout, WatchInterval: watchInterval}
}

// Migrate creates or updates the accounts table.
func (s *GormStore) Migrate() error {
	return s.DB.AutoMigrate(&models.UserAccount{})
}

func (s *GormStore) Get(ctx context.Context, userID string) (*models.UserAccount, error) {
	var acct models.UserAccount
	if err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("account %s: %w", userID, models.ErrNotFound)
		}
		return nil, err
	}
	acct.Normalize()
	return &acct, nil
}

func (s *GormStore) Create(ctx context.Context, acct *models.UserAccount) (*models.UserAccount, bool, error) {
	if acct == nil || acct.ID == "" {
		return nil, false, fmt.Errorf("%w: account id is required", models.ErrInvalidArgument)
	}
	row := acct.Clone()
	row.Normalize()

	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return row, true, nil
	}
	existing, err := s.Get(ctx, acct.ID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (s *GormStore) Update(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.UserAccount, error) {
	fields := map[string]interface{}{"version": gorm.Expr("version + 1")}
	if upd.ActiveTheme != nil {
		fields["active_theme"] = *upd.ActiveTheme
	}
	if upd.ActiveAvatar != nil {
		fields["active_avatar"] = *upd.ActiveAvatar
	}
	res := s.DB.WithContext(ctx).Model(&models.UserAccount{}).Where("id = ?", userID).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("account %s: %w", userID, models.ErrNotFound)
	}
	return s.Get(ctx, userID)
}

func (s *GormStore) RunTransaction(ctx context.Context, userID string, fn TxFunc) (*models.UserAccount, error) {
	var out *models.UserAccount

	// Once started, an attempt runs to commit or rollback regardless of the caller.
	txCtx := context.WithoutCancel(ctx)
	err := s.DB.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		if s.LockTimeout > 0 {
			if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.LockTimeout.Milliseconds())).Error; err != nil {
				return err
			}
		}

		var acct models.UserAccount
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", userID).
			First(&acct).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("account %s: %w", userID, models.ErrNotFound)
			}
			return err
		}
		acct.Normalize()

		if err := fn(&acct); err != nil {
			return err
		}

		acct.Version++
		if err := tx.Save(&acct).Error; err != nil {
			return err
		}
		out = &acct
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// Watch polls the row version and reports every change it observes.
func (s *GormStore) Watch(ctx context.Context, userID string, fn func(*models.UserAccount)) error {
	var lastVersion int64 = -1

	check := func() {
		acct, err := s.Get(ctx, userID)
		if err != nil {
			if !errors.Is(err, models.ErrNotFound) && ctx.Err() == nil {
				log.Printf("[STORE_WATCH] read error for %s: %v", userID, err)
			}
			return
		}
		if acct.Version != lastVersion {
			lastVersion = acct.Version
			fn(acct)
		}
	}

	check()
	ticker := s.Clock.NewTicker(s.WatchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			check()
		}
	}
}

func (s *GormStore) ListPowerUpOwners(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.DB.WithContext(ctx).Model(&models.UserAccount{}).
		Where("CASE WHEN jsonb_typeof(power_ups) = 'array' THEN jsonb_array_length(power_ups) ELSE 0 END > 0").
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

// classify maps PostgreSQL contention failures to ErrTransactionConflict.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return fmt.Errorf("%w: %s (%s)", models.ErrTransactionConflict, pgErr.Message, pgErr.Code)
		}
	}
	return err
}

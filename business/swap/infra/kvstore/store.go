// Package kvstore persists swap desk state in LevelDB.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/fd1az/swapdesk/business/swap/app"
	"github.com/fd1az/swapdesk/business/swap/domain"
	"github.com/fd1az/swapdesk/internal/apperror"
)

const (
	keyPrimary    = "swap:primary"
	keyPreference = "swap:preference"
	keyRoute      = "swap:route"
	slippagePfx   = "swap:slippage:"
)

var _ app.Store = (*Store)(nil)

type primaryRecord struct {
	Side      domain.Side `json:"side"`
	Quantity  string      `json:"quantity"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type preferenceRecord struct {
	WithdrawFromExchange  bool      `json:"withdrawFromExchange"`
	SaveAsExchangeSurplus bool      `json:"saveAsExchangeSurplus"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

type slippageRecord struct {
	Pct       decimal.Decimal `json:"pct"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type routeRecord struct {
	Slug      string    `json:"slug"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store keeps the primary field, the withdrawal toggles, per-pool slippage
// and the last visited route.
type Store struct {
	db  *leveldb.DB
	now func() time.Time
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("store path required"))
	}
	db, err := leveldb.OpenFile(filepath.Clean(trimmed), nil)
	if err != nil {
		return nil, apperror.Internal(apperror.CodePreferenceStoreError, "open "+trimmed, err)
	}
	return New(db), nil
}

// New wraps an open database. The store owns db from here on.
func New(db *leveldb.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Primary(_ context.Context) (app.PrimaryRecord, bool, error) {
	var rec primaryRecord
	ok, err := s.get(keyPrimary, &rec)
	if err != nil || !ok {
		return app.PrimaryRecord{}, false, err
	}
	if rec.Side != domain.SideA && rec.Side != domain.SideB {
		return app.PrimaryRecord{}, false, nil
	}
	return app.PrimaryRecord{Side: rec.Side, Quantity: rec.Quantity}, true, nil
}

func (s *Store) SavePrimary(_ context.Context, rec app.PrimaryRecord) error {
	return s.put(keyPrimary, primaryRecord{Side: rec.Side, Quantity: rec.Quantity, UpdatedAt: s.now()})
}

func (s *Store) Preference(_ context.Context) (domain.Preference, bool, error) {
	var rec preferenceRecord
	ok, err := s.get(keyPreference, &rec)
	if err != nil || !ok {
		return domain.Preference{}, false, err
	}
	return domain.Preference{
		WithdrawFromExchange:  rec.WithdrawFromExchange,
		SaveAsExchangeSurplus: rec.SaveAsExchangeSurplus,
	}, true, nil
}

func (s *Store) SavePreference(_ context.Context, p domain.Preference) error {
	return s.put(keyPreference, preferenceRecord{
		WithdrawFromExchange:  p.WithdrawFromExchange,
		SaveAsExchangeSurplus: p.SaveAsExchangeSurplus,
		UpdatedAt:             s.now(),
	})
}

// Slippage is stored per pool, so a pair and its reverse share it.
func (s *Store) Slippage(_ context.Context, pair domain.Pair) (decimal.Decimal, bool, error) {
	var rec slippageRecord
	ok, err := s.get(slippageKey(pair), &rec)
	if err != nil || !ok {
		return decimal.Zero, false, err
	}
	return rec.Pct, true, nil
}

func (s *Store) SaveSlippage(_ context.Context, pair domain.Pair, pct decimal.Decimal) error {
	return s.put(slippageKey(pair), slippageRecord{Pct: pct, UpdatedAt: s.now()})
}

// LastRoute returns the last route navigated to.
func (s *Store) LastRoute(_ context.Context) (domain.Route, bool, error) {
	var rec routeRecord
	ok, err := s.get(keyRoute, &rec)
	if err != nil || !ok {
		return domain.Route{}, false, err
	}
	r, err := domain.ParseRoute(rec.Slug)
	if err != nil {
		// unreadable slug from an older build
		return domain.Route{}, false, nil
	}
	return r, true, nil
}

// SaveRoute records r as the last route.
func (s *Store) SaveRoute(_ context.Context, r domain.Route) error {
	return s.put(keyRoute, routeRecord{Slug: r.Slug(), UpdatedAt: s.now()})
}

func slippageKey(pair domain.Pair) string {
	base, quote := pair.SortBaseQuote()
	return fmt.Sprintf("%s%d:%s:%s", slippagePfx, pair.ChainID(),
		strings.ToLower(base.Address().Hex()), strings.ToLower(quote.Address().Hex()))
}

func (s *Store) get(key string, into any) (bool, error) {
	raw, err := s.db.Get([]byte(key), nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return false, nil
	case err != nil:
		return false, apperror.Internal(apperror.CodePreferenceStoreError, "get "+key, err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return false, apperror.Internal(apperror.CodePreferenceStoreError, "decode "+key, err)
	}
	return true, nil
}

func (s *Store) put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return apperror.Internal(apperror.CodePreferenceStoreError, "encode "+key, err)
	}
	if err := s.db.Put([]byte(key), raw, &opt.WriteOptions{Sync: true}); err != nil {
		return apperror.Internal(apperror.CodePreferenceStoreError, "put "+key, err)
	}
	return nil
}

// Package dataset loads facilities and accounts, ranks them and caches the
// ranked snapshot for a fixed time-to-live.
package dataset

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/facility-match/internal/match"
	"github.com/sells-group/facility-match/internal/model"
	"github.com/sells-group/facility-match/internal/resilience"
)

// FacilitySource supplies the facility registry.
type FacilitySource interface {
	FetchFacilities(ctx context.Context) ([]model.FacilityRecord, error)
}

// AccountSource supplies CRM accounts whose name contains nameFilter.
type AccountSource interface {
	FetchAccounts(ctx context.Context, nameFilter string) ([]model.AccountRecord, error)
}

// Options configures a Service.
type Options struct {
	// NameFilter narrows the account set before matching. Default "Sheriff".
	NameFilter string
	// TTL is how long a snapshot is served before reloading. Zero disables
	// caching.
	TTL   time.Duration
	Retry resilience.RetryConfig
	Match match.Options
}

// DefaultNameFilter is the account name substring used when none is set.
const DefaultNameFilter = "Sheriff"

// Snapshot is one ranked join of the facility registry against the account set.
type Snapshot struct {
	ID          string             `json:"id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Facilities  int                `json:"facilities"`
	Accounts    int                `json:"accounts"`
	Rows        []model.MatchedRow `json:"-"`
}

// Service serves ranked snapshots, reloading them when they expire.
type Service struct {
	facilities FacilitySource
	accounts   AccountSource
	opts       Options
	now        func() time.Time

	mu       sync.Mutex
	snapshot *Snapshot
}

// New creates a Service over the given sources.
func New(facilities FacilitySource, accounts AccountSource, opts Options) *Service {
	if opts.NameFilter == "" {
		opts.NameFilter = DefaultNameFilter
	}
	return &Service{
		facilities: facilities,
		accounts:   accounts,
		opts:       opts,
		now:        time.Now,
	}
}

// Snapshot returns the cached snapshot, loading a new one if there is none or
// it has expired. Concurrent callers during a load wait for that load.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot != nil && s.now().Sub(s.snapshot.GeneratedAt) < s.opts.TTL {
		return s.snapshot, nil
	}
	return s.reload(ctx)
}

// Refresh discards the cached snapshot and loads a new one.
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.reload(ctx)
}

// reload must be called with mu held. A failed load keeps the previous
// snapshot in place for the next caller to retry against.
func (s *Service) reload(ctx context.Context) (*Snapshot, error) {
	start := s.now()

	var (
		facilities []model.FacilityRecord
		accounts   []model.AccountRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cfg := s.opts.Retry
		cfg.OnRetry = resilience.RetryLogger("warehouse", "fetch_facilities")
		var err error
		facilities, err = resilience.DoVal(gctx, cfg, s.facilities.FetchFacilities)
		return eris.Wrap(err, "dataset: fetch facilities")
	})
	g.Go(func() error {
		cfg := s.opts.Retry
		cfg.OnRetry = resilience.RetryLogger("accounts", "fetch_accounts")
		var err error
		accounts, err = resilience.DoVal(gctx, cfg, func(ctx context.Context) ([]model.AccountRecord, error) {
			return s.accounts.FetchAccounts(ctx, s.opts.NameFilter)
		})
		return eris.Wrap(err, "dataset: fetch accounts")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	eligible := match.EligibleAccounts(accounts, s.opts.NameFilter)
	snap := &Snapshot{
		ID:          uuid.NewString(),
		GeneratedAt: s.now(),
		Facilities:  len(facilities),
		Accounts:    len(eligible),
		Rows:        match.Rank(facilities, eligible, s.opts.Match),
	}
	s.snapshot = snap

	zap.L().Info("dataset loaded",
		zap.String("snapshot_id", snap.ID),
		zap.Int("facilities", snap.Facilities),
		zap.Int("accounts", snap.Accounts),
		zap.Int("rows", len(snap.Rows)),
		zap.Duration("elapsed", s.now().Sub(start)),
	)
	return snap, nil
}

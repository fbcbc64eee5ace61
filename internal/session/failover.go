package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"roomrenting/internal/logging"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

type pendingOp int

const (
	pendingSave pendingOp = iota + 1
	pendingDelete
)

// FailoverStore uses primary until it errors, then serves from fallback and
// probes primary again once per recoveryInterval. Writes made while primary
// is down are replayed onto it before it serves reads again, so a logout
// during an outage is not undone by the recovery.
type FailoverStore struct {
	primary   Store
	fallback  Store
	logger    zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64

	mu      sync.Mutex
	pending map[string]pendingOp
}

func NewFailoverStore(primary, fallback Store, logger *zerolog.Logger) *FailoverStore {
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   logging.Component(logger, "session-failover"),
		pending:  make(map[string]pendingOp),
	}
}

func (f *FailoverStore) markDown(err error) {
	f.logger.Error().Err(err).Msg("primary session store failed, falling back to memory")
	f.isDown.Store(true)
	f.lastCheck.Store(time.Now().UnixNano())
}

func (f *FailoverStore) shouldProbe() bool {
	return time.Since(time.Unix(0, f.lastCheck.Load())) > recoveryInterval
}

func (f *FailoverStore) remember(profile string, op pendingOp) {
	f.mu.Lock()
	f.pending[profile] = op
	f.mu.Unlock()
}

// resync replays writes recorded while primary was down. Entries are dropped
// only once primary has accepted them.
func (f *FailoverStore) resync(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for profile, op := range f.pending {
		var err error
		switch op {
		case pendingDelete:
			err = f.primary.Delete(ctx, profile)
		case pendingSave:
			var s *Session
			s, err = f.fallback.Get(ctx, profile)
			if err == nil && s != nil {
				err = f.primary.Save(ctx, profile, s)
			}
		}
		if err != nil {
			return fmt.Errorf("replay %q: %w", profile, err)
		}
		delete(f.pending, profile)
	}
	return nil
}

func (f *FailoverStore) Get(ctx context.Context, profile string) (*Session, error) {
	if !f.isDown.Load() {
		s, err := f.primary.Get(ctx, profile)
		if err == nil {
			return s, nil
		}
		f.markDown(err)
	}

	if f.isDown.Load() && f.shouldProbe() {
		s, err := f.probe(ctx, profile)
		if err == nil {
			f.isDown.Store(false)
			f.logger.Info().Msg("primary session store recovered")
			return s, nil
		}
		f.lastCheck.Store(time.Now().UnixNano())
	}

	return f.fallback.Get(ctx, profile)
}

func (f *FailoverStore) probe(ctx context.Context, profile string) (*Session, error) {
	if err := f.resync(ctx); err != nil {
		return nil, err
	}
	return f.primary.Get(ctx, profile)
}

func (f *FailoverStore) Save(ctx context.Context, profile string, s *Session) error {
	if !f.isDown.Load() {
		err := f.primary.Save(ctx, profile, s)
		if err == nil {
			return nil
		}
		f.markDown(err)
	}

	f.remember(profile, pendingSave)
	return f.fallback.Save(ctx, profile, s)
}

func (f *FailoverStore) Delete(ctx context.Context, profile string) error {
	if !f.isDown.Load() {
		err := f.primary.Delete(ctx, profile)
		if err == nil {
			return nil
		}
		f.markDown(err)
	}

	f.remember(profile, pendingDelete)
	return f.fallback.Delete(ctx, profile)
}

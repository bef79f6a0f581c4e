package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"vibequiz/internal/domain"

	"golang.org/x/sync/singleflight"
)

// IndexLoader fetches the contract's quiz-id list (e.g., via getAllQuizzes).
type IndexLoader interface {
	LoadIndex(ctx context.Context) ([]string, error)
}

// IndexRepository caches the on-chain quiz-id list with TTL to avoid an
// eth_call per lookup.
type IndexRepository struct {
	loader IndexLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu     sync.RWMutex
	cached *cachedIndex
}

type cachedIndex struct {
	index     domain.ChainIndex
	expiresAt time.Time
}

func NewIndexRepository(loader IndexLoader, ttl time.Duration) *IndexRepository {
	return &IndexRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Resolve returns the contract index of quizID. A miss on a cached list
// forces one refetch before giving up with domain.ErrQuizNotOnChain.
func (r *IndexRepository) Resolve(ctx context.Context, quizID string) (int64, error) {
	index, fresh, err := r.get(ctx)
	if err != nil {
		return 0, err
	}
	if pos, ok := index.Position(quizID); ok {
		return pos, nil
	}
	if !fresh {
		if index, err = r.Refresh(ctx); err != nil {
			return 0, err
		}
		if pos, ok := index.Position(quizID); ok {
			return pos, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", domain.ErrQuizNotOnChain, quizID)
}

// Refresh replaces the cached list with a fresh fetch.
func (r *IndexRepository) Refresh(ctx context.Context) (domain.ChainIndex, error) {
	result, err, _ := r.sf.Do("index", func() (interface{}, error) {
		qids, err := r.loader.LoadIndex(ctx)
		if err != nil {
			return domain.ChainIndex(nil), err
		}
		index := domain.ChainIndex(qids)

		r.mu.Lock()
		r.cached = &cachedIndex{
			index:     index,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return index, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load quiz index: %w", err)
	}
	return result.(domain.ChainIndex), nil
}

func (r *IndexRepository) get(ctx context.Context) (domain.ChainIndex, bool, error) {
	now := r.clock()

	r.mu.RLock()
	if r.cached != nil && r.cached.expiresAt.After(now) {
		index := r.cached.index
		r.mu.RUnlock()
		return index, false, nil
	}
	r.mu.RUnlock()

	index, err := r.Refresh(ctx)
	return index, true, err
}

func (r *IndexRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticIndexLoader serves a fixed list (useful for tests/demos).
type StaticIndexLoader struct {
	mu   sync.Mutex
	qids []string
}

func NewStaticIndexLoader(qids ...string) *StaticIndexLoader {
	return &StaticIndexLoader{qids: qids}
}

func (l *StaticIndexLoader) LoadIndex(context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.qids...), nil
}

// Append adds ids as if new quizzes had been created on chain.
func (l *StaticIndexLoader) Append(qids ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.qids = append(l.qids, qids...)
}

package redis

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"vibequiz/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// IndexLoader fetches the contract's quiz-id list (e.g., via getAllQuizzes).
type IndexLoader interface {
	LoadIndex(ctx context.Context) ([]string, error)
}

// loadedField marks a populated hash so an empty on-chain list still caches.
const loadedField = "_loaded"

// IndexRepository caches the on-chain index in a Redis hash per contract:
// HSET quiz:index:{contract} {quizID} {position}
// Only the first position of a quiz id is stored.
type IndexRepository struct {
	client *redis.Client
	loader IndexLoader
	key    string
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewIndexRepository(client *redis.Client, loader IndexLoader, contract string, ttl time.Duration) *IndexRepository {
	return &IndexRepository{
		client: client,
		loader: loader,
		key:    "quiz:index:" + strings.ToLower(contract),
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Resolve returns the contract index of quizID. A miss, whether the hash is
// absent or lacks the id, triggers exactly one refetch.
func (r *IndexRepository) Resolve(ctx context.Context, quizID string) (int64, error) {
	values, err := r.client.HMGet(ctx, r.key, quizID).Result()
	if err == nil && len(values) == 1 && values[0] != nil {
		if raw, ok := values[0].(string); ok {
			if pos, err := strconv.ParseInt(raw, 10, 64); err == nil && pos > 0 {
				return pos, nil
			}
		}
	}

	index, err := r.Refresh(ctx)
	if err != nil {
		return 0, err
	}
	if pos, ok := index.Position(quizID); ok {
		return pos, nil
	}
	return 0, fmt.Errorf("%w: %s", domain.ErrQuizNotOnChain, quizID)
}

// Refresh replaces the cached hash with a fresh fetch.
func (r *IndexRepository) Refresh(ctx context.Context) (domain.ChainIndex, error) {
	result, err, _ := r.sf.Do(r.key, func() (interface{}, error) {
		qids, err := r.loader.LoadIndex(ctx)
		if err != nil {
			return domain.ChainIndex(nil), err
		}
		index := domain.ChainIndex(qids)

		fields := map[string]interface{}{loadedField: "1"}
		for i := len(index) - 1; i >= 0; i-- {
			// walk backwards so the first occurrence wins
			fields[index[i]] = strconv.Itoa(i + 1)
		}

		pipe := r.client.TxPipeline()
		pipe.Del(ctx, r.key)
		pipe.HSet(ctx, r.key, fields)
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, r.key, ttl)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return domain.ChainIndex(nil), fmt.Errorf("cache quiz index: %w", err)
		}

		return index, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load quiz index: %w", err)
	}
	return result.(domain.ChainIndex), nil
}

func (r *IndexRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

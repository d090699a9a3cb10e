package user

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	types "github.com/yungbote/pillars-backend/internal/domain"
	"github.com/yungbote/pillars-backend/internal/platform/dbctx"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

// cachedUserRepo keeps profile lookups off the database for a short TTL.
// Reads inside a transaction always go to the inner repo; writes invalidate.
type cachedUserRepo struct {
	inner UserRepo
	cache *expirable.LRU[string, types.User]
	log   *logger.Logger
}

func NewCachedUserRepo(inner UserRepo, size int, ttl time.Duration, baseLog *logger.Logger) UserRepo {
	if size <= 0 {
		size = 4096
	}
	if ttl <= 0 {
		return inner
	}
	return &cachedUserRepo{
		inner: inner,
		cache: expirable.NewLRU[string, types.User](size, nil, ttl),
		log:   baseLog.With("repo", "CachedUserRepo"),
	}
}

func (r *cachedUserRepo) GetByID(dbc dbctx.Context, userID string) (*types.User, error) {
	if dbc.Tx == nil {
		if u, ok := r.cache.Get(userID); ok {
			return &u, nil
		}
	}
	u, err := r.inner.GetByID(dbc, userID)
	if err != nil || u == nil {
		return u, err
	}
	if dbc.Tx == nil {
		r.cache.Add(userID, *u)
	}
	return u, nil
}

func (r *cachedUserRepo) Upsert(dbc dbctx.Context, u *types.User) error {
	if u != nil {
		r.cache.Remove(u.ID)
	}
	return r.inner.Upsert(dbc, u)
}

func (r *cachedUserRepo) UpdateFields(dbc dbctx.Context, userID string, updates map[string]interface{}) error {
	r.cache.Remove(userID)
	return r.inner.UpdateFields(dbc, userID, updates)
}

package utils

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/bsm/redislock"
	"github.com/merohisab/retail_backend/config"
)

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

/* Closing-balance cache.
   The full-fold balance calculator stays the source of truth; this cache only
   serves statement reads and is invalidated whenever a posting touches the
   account. */

func ClosingBalanceCacheKey(companyId string, fiscalYearId int, accountId int) string {
	return fmt.Sprintf("ClosingBalance:%s:%d:%d", companyId, fiscalYearId, accountId)
}

func GetCachedClosingBalance(companyId string, fiscalYearId int, accountId int) (string, bool) {
	var value string
	found, err := config.GetRedisObject(ClosingBalanceCacheKey(companyId, fiscalYearId, accountId), &value)
	if err != nil || !found {
		return "", false
	}
	return value, true
}

func SetCachedClosingBalance(companyId string, fiscalYearId int, accountId int, balance string) error {
	return config.SetRedisObject(ClosingBalanceCacheKey(companyId, fiscalYearId, accountId), balance, GetCacheLifespan())
}

func InvalidateClosingBalances(companyId string, fiscalYearId int, accountIds []int) error {
	if len(accountIds) == 0 {
		return nil
	}
	keys := make([]string, 0, len(accountIds))
	for _, id := range accountIds {
		keys = append(keys, ClosingBalanceCacheKey(companyId, fiscalYearId, id))
	}
	return config.RemoveRedisKey(keys...)
}

// WithBalanceRebuildLock serializes cache rebuilds for one account across
// instances so a hot statement endpoint does not stampede the fold.
// Falls back to running fn unguarded when redis is not configured.
func WithBalanceRebuildLock(ctx context.Context, companyId string, fiscalYearId int, accountId int, fn func() error) error {
	locker := config.GetRedisLock()
	if locker == nil {
		return fn()
	}
	lockKey := "lock:" + ClosingBalanceCacheKey(companyId, fiscalYearId, accountId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 10),
	})
	if err != nil {
		if err == redislock.ErrNotObtained {
			// Another instance is rebuilding; let the caller fall through to the fold.
			return fn()
		}
		return err
	}
	defer lock.Release(ctx)
	return fn()
}

package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/iho/bankcore/internal/domain"
)

// transferCacheTTL bounds how long a cached terminal record lives. Terminal
// records are immutable, so the TTL only caps cache size, not staleness.
const transferCacheTTL = time.Hour

// TransferQueryUseCase serves read-only transfer record lookups. Terminal
// records are cached; pending records are always read from the log.
type TransferQueryUseCase struct {
	log   TransferLog
	cache Cache
}

// NewTransferQueryUseCase creates a new TransferQueryUseCase. cache may be
// nil to disable caching.
func NewTransferQueryUseCase(log TransferLog, cache Cache) *TransferQueryUseCase {
	return &TransferQueryUseCase{
		log:   log,
		cache: cache,
	}
}

// GetTransfer retrieves a transfer record by ID.
func (uc *TransferQueryUseCase) GetTransfer(ctx context.Context, id string) (*domain.TransferRecord, error) {
	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, cacheKey(id)); err == nil {
			var rec domain.TransferRecord
			if jsonErr := json.Unmarshal([]byte(cached), &rec); jsonErr == nil {
				return &rec, nil
			}
		}
	}

	rec, err := uc.log.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil && rec.Terminal() {
		if data, err := json.Marshal(rec); err == nil {
			_ = uc.cache.Set(ctx, cacheKey(id), string(data), transferCacheTTL)
		}
	}

	return rec, nil
}

func cacheKey(id string) string {
	return "transfer:" + id
}

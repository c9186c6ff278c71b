package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	id "hostelcore/pkg/domain"

	"hostelcore/internal/billing/models"
	"hostelcore/internal/platform/redis"
)

// feeReader is the slice of the fee store the cache fronts.
type feeReader interface {
	CreateFeeStructure(ctx context.Context, fee *models.FeeStructure) error
	ListFeesByHostel(ctx context.Context, hostelID id.HostelID) ([]*models.FeeStructure, error)
}

// FeeCache fronts the fee time-series with a short-lived Redis cache. Fee
// rows change rarely and are read on every payment, so stale reads within the
// TTL are acceptable; writes invalidate the hostel's key immediately. Cache
// failures degrade to the underlying store, never to an error.
type FeeCache struct {
	next   feeReader
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewFeeCache(next feeReader, client *redis.Client, ttl time.Duration, logger *slog.Logger) *FeeCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeeCache{next: next, client: client, ttl: ttl, logger: logger}
}

func (c *FeeCache) CreateFeeStructure(ctx context.Context, fee *models.FeeStructure) error {
	if err := c.next.CreateFeeStructure(ctx, fee); err != nil {
		return err
	}
	if err := c.client.Del(ctx, c.key(fee.HostelID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "fee cache invalidation failed",
			slog.String("hostel_id", fee.HostelID.String()), slog.Any("error", err))
	}
	return nil
}

func (c *FeeCache) ListFeesByHostel(ctx context.Context, hostelID id.HostelID) ([]*models.FeeStructure, error) {
	key := c.key(hostelID)
	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var fees []*models.FeeStructure
		if err := json.Unmarshal(raw, &fees); err == nil {
			return fees, nil
		}
		// Unreadable entry; fall through and rewrite it.
	}

	fees, err := c.next.ListFeesByHostel(ctx, hostelID)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(fees); err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "fee cache write failed",
				slog.String("hostel_id", hostelID.String()), slog.Any("error", err))
		}
	}
	return fees, nil
}

func (c *FeeCache) key(hostelID id.HostelID) string {
	return "hostelcore:fees:" + hostelID.String()
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/domain"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context, email string) (*domain.LoyaltyMember, error) {
	data, err := r.client.Get(ctx, cacheKey(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var member domain.LoyaltyMember
	if err2 := json.Unmarshal(data, &member); err2 != nil {
		return nil, fmt.Errorf("unmarshal member failed: %w", err2)
	}
	return &member, nil
}

func (r *RedisCache) Set(ctx context.Context, email string, member *domain.LoyaltyMember) error {
	data, err := json.Marshal(member)
	if err != nil {
		return fmt.Errorf("marshal member failed: %w", err)
	}

	// jitter spreads expirations so a burst of lookups does not refill at once
	ttl := r.baseTTL + time.Duration(rand.Intn(5))*time.Minute
	if err := r.client.Set(ctx, cacheKey(email), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, cacheKey(email)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(email string) string {
	return fmt.Sprintf("member:%s", email)
}

package cache

import (
	"context"
	"errors"

	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/domain"
)

// MemberCache caches member lookups by normalized email.
type MemberCache interface {
	Get(ctx context.Context, email string) (*domain.LoyaltyMember, error)
	Set(ctx context.Context, email string, member *domain.LoyaltyMember) error
	Delete(ctx context.Context, email string) error
}

var ErrCacheMiss = errors.New("cache miss")

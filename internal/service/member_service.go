package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/cache"
	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/domain"
	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/repository"
)

// MemberService handles member lookup and registration. Lookups go through a
// cache-aside Redis layer; singleflight keeps a burst of misses for the same
// email from stampeding the database.
type MemberService struct {
	store repository.Store
	cache cache.MemberCache
	sfg   singleflight.Group
}

func NewMemberService(store repository.Store, memberCache cache.MemberCache) *MemberService {
	return &MemberService{
		store: store,
		cache: memberCache,
	}
}

// CheckMember looks up an active member by email. A missing member is not an
// error: the checkout flow offers registration instead.
func (s *MemberService) CheckMember(ctx context.Context, email string) (*domain.LoyaltyMember, bool, error) {
	email = domain.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, false, err
	}

	v, err, _ := s.sfg.Do(email, func() (interface{}, error) {
		member, err := s.cache.Get(ctx, email)
		if err == nil {
			return member, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("member cache get error: %v", err)
		}

		member, errGet := s.store.GetMemberByEmail(ctx, email)
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), email, member); errSet != nil {
				log.Printf("member cache set error: %v", errSet)
			}
		}()
		return member, nil
	})
	if errors.Is(err, repository.ErrMemberNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup member by email: %w", err)
	}
	return v.(*domain.LoyaltyMember), true, nil
}

// RegisterMember creates a member with a zero balance. A duplicate email is a
// conflict, reported with a message the checkout UI shows inline.
func (s *MemberService) RegisterMember(ctx context.Context, name, email string) (*domain.LoyaltyMember, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Message: "Name is required"}
	}
	email = domain.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	member, err := s.store.CreateMember(ctx, name, email)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, &ConflictError{Message: "This email is already registered. Please use the member lookup instead."}
	}
	if err != nil {
		return nil, fmt.Errorf("register member: %w", err)
	}

	s.invalidate(email)
	return member, nil
}

func validateEmail(email string) error {
	if email == "" {
		return &ValidationError{Message: "Valid email is required"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return &ValidationError{Message: "Invalid email address"}
	}
	return nil
}

func (s *MemberService) invalidate(email string) {
	if err := s.cache.Delete(context.Background(), email); err != nil {
		log.Printf("member cache invalidate error: %v", err)
	}
}

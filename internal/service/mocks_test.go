package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/cache"
	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/catalog"
	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/domain"
	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/repository"
)

var errInjected = errors.New("injected persistence failure")

// fakeState is the in-memory database behind fakeStore.
type fakeState struct {
	members      map[int64]*domain.LoyaltyMember
	emails       map[string]int64
	orders       map[int64]*domain.Order
	orderItems   map[int64]*domain.OrderItem
	transactions []*domain.LoyaltyTransaction
	links        map[int64]*domain.RatingLink
	linkCodes    map[string]int64
	ratings      map[string]*domain.ProductRating
	outbox       []*domain.OutboxEvent
	nextID       int64
}

func newFakeState() *fakeState {
	return &fakeState{
		members:    make(map[int64]*domain.LoyaltyMember),
		emails:     make(map[string]int64),
		orders:     make(map[int64]*domain.Order),
		orderItems: make(map[int64]*domain.OrderItem),
		links:      make(map[int64]*domain.RatingLink),
		linkCodes:  make(map[string]int64),
		ratings:    make(map[string]*domain.ProductRating),
	}
}

func (st *fakeState) clone() *fakeState {
	next := newFakeState()
	next.nextID = st.nextID
	for id, m := range st.members {
		c := *m
		next.members[id] = &c
	}
	for e, id := range st.emails {
		next.emails[e] = id
	}
	for id, o := range st.orders {
		c := *o
		next.orders[id] = &c
	}
	for id, it := range st.orderItems {
		c := *it
		next.orderItems[id] = &c
	}
	for _, t := range st.transactions {
		c := *t
		next.transactions = append(next.transactions, &c)
	}
	for id, l := range st.links {
		c := *l
		next.links[id] = &c
	}
	for code, id := range st.linkCodes {
		next.linkCodes[code] = id
	}
	for k, r := range st.ratings {
		c := *r
		next.ratings[k] = &c
	}
	for _, e := range st.outbox {
		c := *e
		next.outbox = append(next.outbox, &c)
	}
	return next
}

func (st *fakeState) next() int64 {
	st.nextID++
	return st.nextID
}

func ratingKey(orderItemID, memberID int64) string {
	return fmt.Sprintf("%d:%d", orderItemID, memberID)
}

// fakeStore implements repository.Store. WithinTx stages mutations on a copy
// and only publishes them when fn succeeds, mirroring transaction rollback.
type fakeStore struct {
	state  *fakeState
	failOn map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{state: newFakeState(), failOn: make(map[string]bool)}
}

func (s *fakeStore) addMember(m domain.LoyaltyMember) *domain.LoyaltyMember {
	if m.ID == 0 {
		m.ID = s.state.next()
	}
	m.IsActive = true
	s.state.members[m.ID] = &m
	s.state.emails[m.Email] = m.ID
	return &m
}

func (s *fakeStore) WithinTx(_ context.Context, fn func(repository.OrderTx) error) error {
	staged := s.state.clone()
	if err := fn(&fakeTx{state: staged, failOn: s.failOn}); err != nil {
		return err
	}
	s.state = staged
	return nil
}

func (s *fakeStore) GetMemberByID(_ context.Context, id int64) (*domain.LoyaltyMember, error) {
	m, ok := s.state.members[id]
	if !ok {
		return nil, repository.ErrMemberNotFound
	}
	c := *m
	return &c, nil
}

func (s *fakeStore) GetMemberByEmail(_ context.Context, email string) (*domain.LoyaltyMember, error) {
	id, ok := s.state.emails[email]
	if !ok {
		return nil, repository.ErrMemberNotFound
	}
	m := s.state.members[id]
	if !m.IsActive {
		return nil, repository.ErrMemberNotFound
	}
	c := *m
	return &c, nil
}

func (s *fakeStore) CreateMember(_ context.Context, name, email string) (*domain.LoyaltyMember, error) {
	if s.failOn["CreateMember"] {
		return nil, errInjected
	}
	if _, dup := s.state.emails[email]; dup {
		return nil, repository.ErrDuplicateEmail
	}
	m := &domain.LoyaltyMember{
		ID:        s.state.next(),
		Name:      name,
		Email:     email,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	s.state.members[m.ID] = m
	s.state.emails[email] = m.ID
	c := *m
	return &c, nil
}

func (s *fakeStore) GetRatingLinkByCode(_ context.Context, code string) (*domain.RatingLink, error) {
	id, ok := s.state.linkCodes[code]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	c := *s.state.links[id]
	return &c, nil
}

func (s *fakeStore) GetOrderItems(_ context.Context, orderID int64) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	for id := int64(1); id <= s.state.nextID; id++ {
		if it, ok := s.state.orderItems[id]; ok && it.OrderID == orderID {
			items = append(items, *it)
		}
	}
	return items, nil
}

func (s *fakeStore) GetMemberRatings(_ context.Context, orderID, memberID int64) (map[int64]int, error) {
	out := make(map[int64]int)
	for _, r := range s.state.ratings {
		if r.OrderID == orderID && r.MemberID == memberID {
			out[r.OrderItemID] = r.Rating
		}
	}
	return out, nil
}

func (s *fakeStore) ExpireRatingLink(_ context.Context, linkID int64) error {
	link, ok := s.state.links[linkID]
	if !ok {
		return repository.ErrLinkNotFound
	}
	if link.Status == domain.RatingLinkPending {
		link.Status = domain.RatingLinkExpired
	}
	return nil
}

// fakeTx implements repository.OrderTx against the staged state.
type fakeTx struct {
	state  *fakeState
	failOn map[string]bool
}

func (t *fakeTx) InsertOrder(_ context.Context, order *domain.Order) (int64, error) {
	if t.failOn["InsertOrder"] {
		return 0, errInjected
	}
	c := *order
	c.ID = t.state.next()
	c.CreatedAt = time.Now()
	t.state.orders[c.ID] = &c
	return c.ID, nil
}

func (t *fakeTx) InsertOrderItem(_ context.Context, item *domain.OrderItem) (int64, error) {
	if t.failOn["InsertOrderItem"] {
		return 0, errInjected
	}
	c := *item
	c.ID = t.state.next()
	t.state.orderItems[c.ID] = &c
	return c.ID, nil
}

func (t *fakeTx) GetMemberForUpdate(_ context.Context, id int64) (*domain.LoyaltyMember, error) {
	m, ok := t.state.members[id]
	if !ok {
		return nil, repository.ErrMemberNotFound
	}
	c := *m
	return &c, nil
}

func (t *fakeTx) UpdateMemberOnPurchase(_ context.Context, memberID int64, newPoints int, purchase float64, at time.Time) error {
	if t.failOn["UpdateMemberOnPurchase"] {
		return errInjected
	}
	m, ok := t.state.members[memberID]
	if !ok {
		return repository.ErrMemberNotFound
	}
	m.Points = newPoints
	m.TotalPurchases += purchase
	m.TotalOrders++
	m.LastPurchase = &at
	return nil
}

func (t *fakeTx) UpdateMemberPoints(_ context.Context, memberID int64, newPoints int) error {
	if t.failOn["UpdateMemberPoints"] {
		return errInjected
	}
	m, ok := t.state.members[memberID]
	if !ok {
		return repository.ErrMemberNotFound
	}
	m.Points = newPoints
	return nil
}

func (t *fakeTx) InsertLoyaltyTransaction(_ context.Context, lt *domain.LoyaltyTransaction) error {
	if t.failOn["InsertLoyaltyTransaction"] {
		return errInjected
	}
	c := *lt
	c.ID = t.state.next()
	c.CreatedAt = time.Now()
	t.state.transactions = append(t.state.transactions, &c)
	return nil
}

func (t *fakeTx) InsertRatingLink(_ context.Context, link *domain.RatingLink) (int64, error) {
	if t.failOn["InsertRatingLink"] {
		return 0, errInjected
	}
	c := *link
	c.ID = t.state.next()
	t.state.links[c.ID] = &c
	t.state.linkCodes[c.Code] = c.ID
	return c.ID, nil
}

func (t *fakeTx) InsertOutboxEvent(_ context.Context, event *domain.OutboxEvent) error {
	if t.failOn["InsertOutboxEvent"] {
		return errInjected
	}
	c := *event
	c.CreatedAt = time.Now()
	t.state.outbox = append(t.state.outbox, &c)
	return nil
}

func (t *fakeTx) GetRatingLinkForUpdate(_ context.Context, code string) (*domain.RatingLink, error) {
	id, ok := t.state.linkCodes[code]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	c := *t.state.links[id]
	return &c, nil
}

func (t *fakeTx) OrderItemProduct(_ context.Context, orderItemID, orderID int64) (int64, bool, error) {
	it, ok := t.state.orderItems[orderItemID]
	if !ok || it.OrderID != orderID {
		return 0, false, nil
	}
	return it.ProductID, true, nil
}

func (t *fakeTx) UpsertProductRating(_ context.Context, rating *domain.ProductRating) error {
	if t.failOn["UpsertProductRating"] {
		return errInjected
	}
	c := *rating
	if existing, ok := t.state.ratings[ratingKey(c.OrderItemID, c.MemberID)]; ok {
		existing.Rating = c.Rating
		return nil
	}
	c.ID = t.state.next()
	c.CreatedAt = time.Now()
	t.state.ratings[ratingKey(c.OrderItemID, c.MemberID)] = &c
	return nil
}

func (t *fakeTx) CompleteRatingLink(_ context.Context, linkID int64, at time.Time) error {
	if t.failOn["CompleteRatingLink"] {
		return errInjected
	}
	link, ok := t.state.links[linkID]
	if !ok || link.Status != domain.RatingLinkPending {
		return repository.ErrLinkNotFound
	}
	link.Status = domain.RatingLinkCompleted
	link.CompletedAt = &at
	return nil
}

func (t *fakeTx) ExpireRatingLink(_ context.Context, linkID int64) error {
	link, ok := t.state.links[linkID]
	if !ok {
		return repository.ErrLinkNotFound
	}
	if link.Status == domain.RatingLinkPending {
		link.Status = domain.RatingLinkExpired
	}
	return nil
}

// fakeCache is an in-memory cache.MemberCache.
type fakeCache struct {
	entries map[string]*domain.LoyaltyMember
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*domain.LoyaltyMember)}
}

func (c *fakeCache) Get(_ context.Context, email string) (*domain.LoyaltyMember, error) {
	m, ok := c.entries[email]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	cp := *m
	return &cp, nil
}

func (c *fakeCache) Set(_ context.Context, email string, member *domain.LoyaltyMember) error {
	cp := *member
	c.entries[email] = &cp
	return nil
}

func (c *fakeCache) Delete(_ context.Context, email string) error {
	delete(c.entries, email)
	return nil
}

const testMenu = `
categories:
  - name: Coffee
    products:
      - id: 1
        name: Latte
        price: 100
        points: 10
  - name: Pastries
    products:
      - id: 2
        name: Muffin
        price: 75
        points: 8
      - id: 3
        name: Croissant
        price: 90
        points: 9
`

func testCatalog() *catalog.Catalog {
	c, err := catalog.Parse([]byte(testMenu))
	if err != nil {
		panic(err)
	}
	return c
}

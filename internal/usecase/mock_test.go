//go:build !integration

package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/adapter"
	"course-settlement/internal/domain/ports/repository"
)

// -----------------------------
// In-memory store shared by the repository mocks
// -----------------------------

// memStore keeps every table as a map of values so a transaction can be
// rolled back by restoring a copy.
type memStore struct {
	mu sync.Mutex

	payments    map[string]model.Payment
	courses     map[string]model.Course
	coupons     map[string]model.Coupon
	usages      map[string]model.CouponUsage // couponID|userID
	subs        map[string]model.Subscription
	enrollments map[string]model.Enrollment // userID|courseID
	refunds     map[string]model.RefundRequest
	settings    map[string]model.PlatformSetting
	balance     map[string]model.BalanceEntry // paymentID|kind
	outbox      map[string]model.OutboxEvent
	inbox       map[string]model.WebhookOutcome // provider|key
}

func newMemStore() *memStore {
	return &memStore{
		payments:    map[string]model.Payment{},
		courses:     map[string]model.Course{},
		coupons:     map[string]model.Coupon{},
		usages:      map[string]model.CouponUsage{},
		subs:        map[string]model.Subscription{},
		enrollments: map[string]model.Enrollment{},
		refunds:     map[string]model.RefundRequest{},
		settings:    map[string]model.PlatformSetting{},
		balance:     map[string]model.BalanceEntry{},
		outbox:      map[string]model.OutboxEvent{},
		inbox:       map[string]model.WebhookOutcome{},
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() *memStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &memStore{
		payments:    copyMap(s.payments),
		courses:     copyMap(s.courses),
		coupons:     copyMap(s.coupons),
		usages:      copyMap(s.usages),
		subs:        copyMap(s.subs),
		enrollments: copyMap(s.enrollments),
		refunds:     copyMap(s.refunds),
		settings:    copyMap(s.settings),
		balance:     copyMap(s.balance),
		outbox:      copyMap(s.outbox),
		inbox:       copyMap(s.inbox),
	}
}

func (s *memStore) restore(from *memStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments, s.courses, s.coupons, s.usages = from.payments, from.courses, from.coupons, from.usages
	s.subs, s.enrollments, s.refunds, s.settings = from.subs, from.enrollments, from.refunds, from.settings
	s.balance, s.outbox, s.inbox = from.balance, from.outbox, from.inbox
}

func pairKey(a, b string) string { return a + "|" + b }

// -----------------------------
// Transactions
// -----------------------------

// mockTx is the handle passed to repositories inside MockTxManager.WithTx.
type mockTx struct{ id string }

type MockTxManager struct {
	txMu  sync.Mutex
	store *memStore

	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
	Commits    int
	Rollbacks  int
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager(store *memStore) *MockTxManager {
	return &MockTxManager{store: store}
}

// WithTx serialises transactions and restores the store when fn fails.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	m.txMu.Lock()
	defer m.txMu.Unlock()

	before := m.store.snapshot()
	if err := fn(ctx, &mockTx{id: uuid.NewString()}); err != nil {
		m.store.restore(before)
		m.Rollbacks++
		return err
	}
	m.Commits++
	return nil
}

// -----------------------------
// Repositories
// -----------------------------

// ---- Mock PaymentRepository ----

type MockPaymentRepo struct {
	s *memStore

	UpdateStatusIfFunc func(ctx context.Context, tx repository.Tx, id string, from, to model.PaymentStatus, at time.Time) (bool, error)
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if p.ExternalPaymentID != nil {
		for _, other := range m.s.payments {
			if other.ID != p.ID && other.ExternalPaymentID != nil && *other.ExternalPaymentID == *p.ExternalPaymentID {
				return domain.ErrAlreadyExists
			}
		}
	}
	m.s.payments[p.ID] = *p
	return nil
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *MockPaymentRepo) FindByExternalID(ctx context.Context, tx repository.Tx, ext string) (*model.Payment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, p := range m.s.payments {
		if p.ExternalPaymentID != nil && *p.ExternalPaymentID == ext {
			cp := p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPaymentRepo) UpdateStatusIf(ctx context.Context, tx repository.Tx, id string, from, to model.PaymentStatus, at time.Time) (bool, error) {
	if m.UpdateStatusIfFunc != nil {
		return m.UpdateStatusIfFunc(ctx, tx, id, from, to, at)
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.payments[id]
	if !ok || p.Status != from {
		return false, nil
	}
	m.s.payments[id] = p.WithStatus(to, at)
	return true, nil
}

func (m *MockPaymentRepo) AttachExternalID(ctx context.Context, tx repository.Tx, id, ext string, at time.Time) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.payments[id]
	if !ok {
		return false, nil
	}
	if p.ExternalPaymentID != nil {
		return *p.ExternalPaymentID == ext, nil
	}
	m.s.payments[id] = p.WithExternalID(ext, at)
	return true, nil
}

func (m *MockPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.s.payments {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			cp := p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- Mock CourseCatalog ----

type MockCourseCatalog struct{ s *memStore }

var _ repository.CourseCatalog = (*MockCourseCatalog)(nil)

func (m *MockCourseCatalog) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.courses[id]
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	return &c, nil
}

// ---- Mock CouponRepository ----

type MockCouponRepo struct {
	s *memStore

	IncrementUsageFunc func(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error)
}

var _ repository.CouponRepository = (*MockCouponRepo)(nil)

func (m *MockCouponRepo) Create(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, other := range m.s.coupons {
		if other.Code == c.Code {
			return domain.ErrCouponCodeTaken
		}
	}
	m.s.coupons[c.ID] = *c
	return nil
}

func (m *MockCouponRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Coupon, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.coupons[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (m *MockCouponRepo) FindActiveByCode(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, c := range m.s.coupons {
		if c.Code == code && c.IsActive {
			cp := c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockCouponRepo) List(ctx context.Context, tx repository.Tx, createdBy *string, offset, limit int) ([]*model.Coupon, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*model.Coupon
	for _, c := range m.s.coupons {
		if createdBy == nil || c.CreatedByID == *createdBy {
			cp := c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *MockCouponRepo) Deactivate(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.coupons[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.s.coupons[id] = c.Deactivated(at)
	return nil
}

func (m *MockCouponRepo) IncrementUsage(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	if m.IncrementUsageFunc != nil {
		return m.IncrementUsageFunc(ctx, tx, id, at)
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.coupons[id]
	if !ok || !c.IsActive || c.Exhausted() {
		return false, nil
	}
	c.UsedCount++
	c.UpdatedAt = at
	m.s.coupons[id] = c
	return true, nil
}

// ---- Mock CouponUsageRepository ----

type MockCouponUsageRepo struct{ s *memStore }

var _ repository.CouponUsageRepository = (*MockCouponUsageRepo)(nil)

func (m *MockCouponUsageRepo) Save(ctx context.Context, tx repository.Tx, u *model.CouponUsage) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	k := pairKey(u.CouponID, u.UserID)
	if _, dup := m.s.usages[k]; dup {
		return domain.ErrCouponAlreadyUsed
	}
	m.s.usages[k] = *u
	return nil
}

func (m *MockCouponUsageRepo) Exists(ctx context.Context, tx repository.Tx, couponID, userID string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	_, ok := m.s.usages[pairKey(couponID, userID)]
	return ok, nil
}

// ---- Mock SubscriptionRepository ----

type MockSubscriptionRepo struct{ s *memStore }

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func (m *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, sub *model.Subscription) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.subs[sub.ID] = *sub
	return nil
}

func (m *MockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	sub, ok := m.s.subs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &sub, nil
}

func (m *MockSubscriptionRepo) FindByPaymentID(ctx context.Context, tx repository.Tx, paymentID string) (*model.Subscription, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, sub := range m.s.subs {
		if sub.PaymentID == paymentID {
			cp := sub
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) FindByExternalID(ctx context.Context, tx repository.Tx, ext string) (*model.Subscription, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, sub := range m.s.subs {
		if sub.ExternalSubscriptionID != nil && *sub.ExternalSubscriptionID == ext {
			cp := sub
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) Update(ctx context.Context, tx repository.Tx, sub *model.Subscription) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cur, ok := m.s.subs[sub.ID]
	if !ok || cur.Status == model.SubscriptionStatusCancelled {
		return false, nil
	}
	m.s.subs[sub.ID] = *sub
	return true, nil
}

// ---- Mock EnrollmentRepository ----

type MockEnrollmentRepo struct{ s *memStore }

var _ repository.EnrollmentRepository = (*MockEnrollmentRepo)(nil)

func (m *MockEnrollmentRepo) InsertIfAbsent(ctx context.Context, tx repository.Tx, e *model.Enrollment) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	k := pairKey(e.UserID, e.CourseID)
	if _, ok := m.s.enrollments[k]; ok {
		return false, nil
	}
	m.s.enrollments[k] = *e
	return true, nil
}

func (m *MockEnrollmentRepo) FindByUserAndCourse(ctx context.Context, tx repository.Tx, userID, courseID string) (*model.Enrollment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	e, ok := m.s.enrollments[pairKey(userID, courseID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (m *MockEnrollmentRepo) SetActive(ctx context.Context, tx repository.Tx, userID, courseID string, active bool) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	k := pairKey(userID, courseID)
	e, ok := m.s.enrollments[k]
	if !ok || e.IsActive == active {
		return false, nil
	}
	e.IsActive = active
	m.s.enrollments[k] = e
	return true, nil
}

// ---- Mock RefundRepository ----

type MockRefundRepo struct{ s *memStore }

var _ repository.RefundRepository = (*MockRefundRepo)(nil)

func (m *MockRefundRepo) Create(ctx context.Context, tx repository.Tx, r *model.RefundRequest) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, other := range m.s.refunds {
		if other.PaymentID == r.PaymentID && other.Status.Active() {
			return domain.ErrRefundAlreadyRequested
		}
	}
	m.s.refunds[r.ID] = *r
	return nil
}

func (m *MockRefundRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.RefundRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.refunds[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (m *MockRefundRepo) FindActiveByPayment(ctx context.Context, tx repository.Tx, paymentID string) (*model.RefundRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, r := range m.s.refunds {
		if r.PaymentID == paymentID && r.Status.Active() {
			cp := r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockRefundRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.RefundRequest, error) {
	return m.filter(func(r model.RefundRequest) bool { return r.UserID == userID }), nil
}

func (m *MockRefundRepo) ListByStatus(ctx context.Context, tx repository.Tx, status model.RefundStatus, offset, limit int) ([]*model.RefundRequest, error) {
	return m.filter(func(r model.RefundRequest) bool { return r.Status == status }), nil
}

func (m *MockRefundRepo) filter(keep func(model.RefundRequest) bool) []*model.RefundRequest {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*model.RefundRequest
	for _, r := range m.s.refunds {
		if keep(r) {
			cp := r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *MockRefundRepo) UpdateIfStatus(ctx context.Context, tx repository.Tx, r *model.RefundRequest, expected model.RefundStatus) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cur, ok := m.s.refunds[r.ID]
	if !ok || cur.Status != expected {
		return false, nil
	}
	m.s.refunds[r.ID] = *r
	return true, nil
}

// ---- Mock SettingsRepository ----

type MockSettingsRepo struct {
	s *memStore

	FindByKeyFunc func(ctx context.Context, key string) (*model.PlatformSetting, error)
}

var _ repository.SettingsRepository = (*MockSettingsRepo)(nil)

func (m *MockSettingsRepo) FindByKey(ctx context.Context, key string) (*model.PlatformSetting, error) {
	if m.FindByKeyFunc != nil {
		return m.FindByKeyFunc(ctx, key)
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	v, ok := m.s.settings[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &v, nil
}

func (m *MockSettingsRepo) Upsert(ctx context.Context, st *model.PlatformSetting) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.settings[st.Key] = *st
	return nil
}

// ---- Mock BalanceRepository ----

type MockBalanceRepo struct{ s *memStore }

var _ repository.BalanceRepository = (*MockBalanceRepo)(nil)

func (m *MockBalanceRepo) AddEntry(ctx context.Context, tx repository.Tx, e *model.BalanceEntry) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	k := pairKey(e.PaymentID, string(e.Kind))
	if _, ok := m.s.balance[k]; ok {
		return false, nil
	}
	m.s.balance[k] = *e
	return true, nil
}

func (m *MockBalanceRepo) Balance(ctx context.Context, tx repository.Tx, instructorID string) (decimal.Decimal, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	sum := decimal.Zero
	for _, e := range m.s.balance {
		if e.InstructorID == instructorID {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

// ---- Mock OutboxRepository ----

type MockOutboxRepo struct{ s *memStore }

var _ repository.OutboxRepository = (*MockOutboxRepo)(nil)

func (m *MockOutboxRepo) Enqueue(ctx context.Context, tx repository.Tx, e *model.OutboxEvent) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.outbox[e.ID] = *e
	return nil
}

func (m *MockOutboxRepo) ListPending(ctx context.Context, tx repository.Tx, limit int) ([]*model.OutboxEvent, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*model.OutboxEvent
	for _, e := range m.s.outbox {
		if e.Status == model.OutboxStatusPending {
			cp := e
			out = append(out, &cp)
		}
	}
	// ULIDs sort by creation time.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockOutboxRepo) MarkSent(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	e, ok := m.s.outbox[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Status = model.OutboxStatusSent
	e.SentAt = &at
	m.s.outbox[id] = e
	return nil
}

func (m *MockOutboxRepo) byType(t model.EventType) []model.OutboxEvent {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.OutboxEvent
	for _, e := range m.s.outbox {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// ---- Mock WebhookInboxRepository ----

type MockInboxRepo struct{ s *memStore }

var _ repository.WebhookInboxRepository = (*MockInboxRepo)(nil)

func (m *MockInboxRepo) Record(ctx context.Context, tx repository.Tx, provider, key string, at time.Time) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	k := pairKey(provider, key)
	if _, ok := m.s.inbox[k]; ok {
		return false, nil
	}
	m.s.inbox[k] = ""
	return true, nil
}

func (m *MockInboxRepo) SetOutcome(ctx context.Context, tx repository.Tx, provider, key string, outcome model.WebhookOutcome) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.inbox[pairKey(provider, key)] = outcome
	return nil
}

// =============================
// Adapters
// =============================

// ---- In-memory Locker ----

type MockLocker struct {
	mu    sync.Mutex
	held  map[string]string
	ErrOn map[string]error
}

var _ adapter.Locker = (*MockLocker)(nil)

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}, ErrOn: map[string]error{}}
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err, bad := l.ErrOn[key]; bad {
		return "", err
	}
	if tok, ok := l.held[key]; ok && tok != "" {
		return "", errors.New("locked")
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
		return nil
	}
	return errors.New("unlock token mismatch")
}

// ---- Mock EventPublisher ----

type published struct {
	Key, Type string
	Payload   []byte
}

type MockPublisher struct {
	mu   sync.Mutex
	Sent []published

	PublishFunc func(ctx context.Context, key, eventType string, payload []byte) error
}

var _ adapter.EventPublisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(ctx context.Context, key, eventType string, payload []byte) error {
	if m.PublishFunc != nil {
		if err := m.PublishFunc(ctx, key, eventType, payload); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, published{Key: key, Type: eventType, Payload: payload})
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// ---- Mock WebhookParser ----

// MockParser decodes bodies that are JSON encoded model.WebhookEvent values.
type MockParser struct {
	Name string

	VerifyFunc func(h http.Header, body []byte) error
}

var _ adapter.WebhookParser = (*MockParser)(nil)

func (m *MockParser) Provider() string { return m.Name }

func (m *MockParser) Verify(h http.Header, body []byte) error {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(h, body)
	}
	return nil
}

func (m *MockParser) Parse(ctx context.Context, body []byte) (*model.WebhookEvent, error) {
	var ev model.WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, domain.ErrWebhookPayload
	}
	ev.Provider = m.Name
	if ev.Scope == "" {
		ev.Scope = model.WebhookScopePayment
	}
	return &ev, nil
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
// It writes to io.Discard to prevent logs from cluttering test output.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

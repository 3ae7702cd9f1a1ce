package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/folio-labs/portfolio-api/internal/contact"
	"github.com/folio-labs/portfolio-api/internal/contact/repository"
	"github.com/folio-labs/portfolio-api/pkg/logger"
	"github.com/folio-labs/portfolio-api/pkg/metrics"
	"github.com/folio-labs/portfolio-api/pkg/ratelimit"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Service defines the contact operations used by the handler layer and the CLI.
type Service interface {
	Submit(ctx context.Context, p contact.Payload, meta contact.RequestMeta) (*contact.Receipt, error)
	List(ctx context.Context, f contact.ListFilter, page, pageSize int) (*contact.Page, error)
	MarkRead(ctx context.Context, id string) (*contact.Submission, error)
}

// Dispatcher receives every stored submission. Implementations must not block.
type Dispatcher interface {
	Dispatch(s contact.Submission)
}

type Option func(*service)

// WithClock replaces the time source used for createdAt.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithNotifier hands stored submissions to d.
func WithNotifier(d Dispatcher) Option {
	return func(s *service) { s.notifier = d }
}

// New returns a Service persisting into store. A nil limiter disables
// per-address rate limiting.
func New(store repository.Store, limiter *ratelimit.Limiter, opts ...Option) Service {
	s := &service{
		store:     store,
		limiter:   limiter,
		validator: contact.NewValidator(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type service struct {
	store     repository.Store
	limiter   *ratelimit.Limiter
	validator *contact.Validator
	notifier  Dispatcher
	now       func() time.Time

	mu   sync.Mutex
	last time.Time
}

func (s *service) Submit(ctx context.Context, p contact.Payload, meta contact.RequestMeta) (*contact.Receipt, error) {
	if s.limiter != nil {
		d, err := s.limiter.Allow(ctx, meta.IPAddress)
		if err != nil {
			metrics.Submissions.WithLabelValues("error").Inc()
			logger.Errorf("contact: rate limit check for %q failed: %v", meta.IPAddress, err)
			return nil, &contact.PersistenceError{Op: "rate limit", Err: err}
		}
		if !d.Allowed {
			metrics.Submissions.WithLabelValues("rate_limited").Inc()
			logger.Warnf("contact: rate limit exceeded for %q", meta.IPAddress)
			return nil, &contact.RateLimitError{
				Limit:      d.Limit,
				RetryAfter: d.RetryAfter(s.limiter.Now()),
				ResetAt:    d.ResetAt,
			}
		}
	}

	clean, fields := s.validator.Check(p)
	if len(fields) > 0 {
		metrics.Submissions.WithLabelValues("invalid").Inc()
		return nil, &contact.ValidationError{Fields: fields}
	}

	ua := strings.TrimSpace(meta.UserAgent)
	if ua == "" {
		ua = "Unknown"
	}
	rec := &contact.Submission{
		Name:      clean.Name,
		Email:     clean.Email,
		Message:   clean.Message,
		IPAddress: meta.IPAddress,
		UserAgent: ua,
		CreatedAt: s.stamp(),
	}
	id, err := s.store.Insert(ctx, rec)
	if err != nil {
		metrics.Submissions.WithLabelValues("error").Inc()
		logger.Errorf("contact: insert failed: %v", err)
		return nil, &contact.PersistenceError{Op: "insert", Err: err}
	}
	rec.ID = id
	metrics.Submissions.WithLabelValues("created").Inc()
	logger.Infof("contact: stored submission %s", id)

	if s.notifier != nil {
		s.notifier.Dispatch(*rec)
	}
	return &contact.Receipt{ID: id, SubmittedAt: rec.CreatedAt}, nil
}

// stamp returns a millisecond-precision UTC time that never goes backwards
// within this process.
func (s *service) stamp() time.Time {
	now := s.now().UTC().Truncate(time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Before(s.last) {
		now = s.last
	}
	s.last = now
	return now
}

func (s *service) List(ctx context.Context, f contact.ListFilter, page, pageSize int) (*contact.Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	total, err := s.store.Count(ctx, f)
	if err != nil {
		logger.Errorf("contact: count failed: %v", err)
		return nil, &contact.PersistenceError{Op: "count", Err: err}
	}
	// a page whose offset does not fit in an int is past the end
	var recs []*contact.Submission
	if page-1 <= math.MaxInt/pageSize {
		recs, err = s.store.Query(ctx, f, repository.NewestFirst, (page-1)*pageSize, pageSize)
		if err != nil {
			logger.Errorf("contact: query failed: %v", err)
			return nil, &contact.PersistenceError{Op: "query", Err: err}
		}
	}
	items := make([]contact.Listing, 0, len(recs))
	for _, r := range recs {
		items = append(items, r.Listing())
	}
	return &contact.Page{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Pages:    int((total + int64(pageSize) - 1) / int64(pageSize)),
	}, nil
}

func (s *service) MarkRead(ctx context.Context, id string) (*contact.Submission, error) {
	rec, err := s.store.UpdateField(ctx, id, repository.FieldIsRead, true)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, contact.ErrNotFound
	}
	if err != nil {
		logger.Errorf("contact: mark %s read failed: %v", id, err)
		return nil, &contact.PersistenceError{Op: "update", Err: err}
	}
	return rec, nil
}

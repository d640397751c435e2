package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emzola/biblioteca/config"
	"github.com/emzola/biblioteca/data"
	"github.com/emzola/biblioteca/internal/jsonlog"
	"github.com/emzola/biblioteca/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/emzola/biblioteca/service"

type Service interface {
	books
	covers
	seeds
	GetStats(ctx context.Context) (data.Stats, error)
}

// service defines the app's service layer.
type service struct {
	config  config.Config
	logger  *jsonlog.Logger
	repo    repository.Repository
	covers  CoverStore
	tracer  trace.Tracer
	loans   metric.Int64Counter
	returns metric.Int64Counter
	now     func() time.Time
}

// New creates a new instance of Service. covers may be nil when no object store is
// configured; cover uploads then fail with ErrCoverStorageDisabled.
func New(cfg config.Config, logger *jsonlog.Logger, repo repository.Repository, covers CoverStore) (*service, error) {
	meter := otel.Meter(instrumentationName)
	loans, err := meter.Int64Counter("biblioteca.books.loans",
		metric.WithDescription("Number of books loaned."))
	if err != nil {
		return nil, fmt.Errorf("create loans counter: %w", err)
	}
	returns, err := meter.Int64Counter("biblioteca.books.returns",
		metric.WithDescription("Number of books returned."))
	if err != nil {
		return nil, fmt.Errorf("create returns counter: %w", err)
	}
	return &service{
		config:  cfg,
		logger:  logger,
		repo:    repo,
		covers:  covers,
		tracer:  otel.Tracer(instrumentationName),
		loans:   loans,
		returns: returns,
		now:     time.Now,
	}, nil
}

// finishSpan ends span, marking it failed for errors that are not client mistakes.
func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		if !isClientError(err) {
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}

func isClientError(err error) bool {
	for _, target := range []error{
		ErrFailedValidation,
		ErrRecordNotFound,
		ErrEditConflict,
		ErrConflict,
		ErrUnsupportedMediaType,
		ErrContentTooLarge,
		ErrBadRequest,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// GetStats service aggregates the catalog by status and publisher.
func (s *service) GetStats(ctx context.Context) (stats data.Stats, err error) {
	ctx, span := s.tracer.Start(ctx, "books.stats")
	defer func() { finishSpan(span, err) }()
	err = s.repo.Transact(ctx, func(tx repository.Repository) error {
		stats, err = tx.GetBookStats(ctx)
		return err
	})
	if err != nil {
		return data.Stats{}, err
	}
	return stats, nil
}

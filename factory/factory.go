package factory

import (
	"context"
	"fmt"

	dynform "github.com/MaansiBisht/dynamic-form-app"
	"github.com/MaansiBisht/dynamic-form-app/internal"
	"go.uber.org/zap"
)

// Service bundles a SubmissionManager with the resources it holds open.
type Service struct {
	Manager dynform.SubmissionManager

	// Ping checks the storage backend; nil when there is nothing to check.
	Ping func(ctx context.Context) error

	closers []func()
}

// Close releases the storage resources.
func (s *Service) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// NewRepository opens the submission repository selected by config.Storage.
// The returned close function must be called when the repository is no
// longer needed.
//
// Usage:
//
//	config := dynform.DefaultConfig()
//	config.Storage.Driver = dynform.StorageDriverPostgres
//	repo, ping, closeFn, err := factory.NewRepository(ctx, config)
func NewRepository(ctx context.Context, config *dynform.Config) (dynform.SubmissionRepository, func(context.Context) error, func(), error) {
	switch config.Storage.Driver {
	case dynform.StorageDriverFile, "":
		repo, err := internal.NewFileSubmissionRepository(config.Storage.DataFile)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open data file: %w", err)
		}
		zap.S().Infow("using file storage", "path", config.Storage.DataFile)
		return repo, nil, func() {}, nil
	case dynform.StorageDriverPostgres:
		pool, err := internal.NewPostgresPool(ctx, config.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		pgRepo, err := internal.NewPostgresSubmissionRepository(pool, config.Database.Table)
		if err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		if err := pgRepo.EnsureTable(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		zap.S().Infow("using postgres storage",
			"host", config.Database.Host,
			"database", config.Database.Database,
			"table", config.Database.Table,
		)
		var repo dynform.SubmissionRepository = pgRepo
		if s := config.Storage; s.BreakerThreshold > 0 {
			repo = internal.NewBreakerRepository(pgRepo, internal.NewCircuitBreaker(s.BreakerThreshold, s.BreakerWindow, s.BreakerOpenDuration))
		}
		return repo, pool.Ping, pool.Close, nil
	default:
		return nil, nil, nil, &dynform.ConfigError{Field: "storage.driver", Message: fmt.Sprintf("unknown driver %q", config.Storage.Driver)}
	}
}

// NewService loads the form schema, opens the repository and builds the
// submission manager described by config.
func NewService(ctx context.Context, config *dynform.Config) (*Service, error) {
	if config == nil {
		config = dynform.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	provider, err := internal.NewFileSchemaProvider(config.Form.SchemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load form schema: %w", err)
	}

	repo, ping, closeFn, err := NewRepository(ctx, config)
	if err != nil {
		return nil, err
	}

	return &Service{
		Manager: internal.NewSubmissionManager(provider, repo, config),
		Ping:    ping,
		closers: []func(){closeFn},
	}, nil
}

package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/douglasshinzato/price-tagger/internal/domain"
	"github.com/douglasshinzato/price-tagger/internal/identity"
	"github.com/douglasshinzato/price-tagger/internal/storage/memory"
	"github.com/douglasshinzato/price-tagger/internal/storage/postgres"
)

// storageSet bundles the repositories of the selected backend. Store is nil
// with the in-memory driver.
type storageSet struct {
	Orders    domain.OrderRepository
	Directory domain.EmployeeDirectory
	Outbox    domain.OutboxRepository
	Store     *postgres.Store
}

func (s *storageSet) Close() error {
	if s.Store == nil {
		return nil
	}
	return s.Store.Close()
}

// initStorage opens the configured backend and, for postgres, applies the
// schema when auto-migrate is enabled.
func initStorage(ctx context.Context, cfg Config, logger *log.Entry) (*storageSet, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory:
		directory := memory.NewEmployeeRepository()
		if err := seedAdmin(cfg, directory, logger); err != nil {
			return nil, err
		}
		logger.Info("using in-memory storage")
		return &storageSet{
			Orders:    memory.NewOrderRepository(),
			Directory: directory,
			Outbox:    memory.NewOutboxRepository(),
		}, nil

	case StorageDriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres storage: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
			logger.Info("postgres schema is up to date")
		}
		logger.Info("using postgres storage")
		return &storageSet{
			Orders:    postgres.NewOrderRepository(store),
			Directory: postgres.NewEmployeeRepository(store),
			Outbox:    postgres.NewOutboxRepository(store),
			Store:     store,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
	}
}

// seedAdmin provisions the bootstrap admin account for in-memory runs.
func seedAdmin(cfg Config, directory *memory.EmployeeRepository, logger *log.Entry) error {
	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
		return nil
	}

	hash, err := identity.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		return fmt.Errorf("hash seed admin password: %w", err)
	}

	directory.Put(domain.Employee{
		ID:           "admin-seed",
		Name:         "Administrador",
		Email:        cfg.SeedAdminEmail,
		Role:         domain.RoleAdmin,
		PasswordHash: hash,
	})
	logger.WithField("email", cfg.SeedAdminEmail).Info("seeded bootstrap admin account")

	return nil
}

package postgres

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"homeservices/config"
	"homeservices/pkg/logger"
	"homeservices/storage"
)

var _ storage.IStorage = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	log  logger.ILogger
	hub  *storage.Hub

	mu        sync.RWMutex
	publisher storage.IChangePublisher
}

func New(ctx context.Context, cfg config.Config, log logger.ILogger) (*Store, error) {
	url := cfg.PostgresURL()

	// 🔹 Connection pool
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		log.Error("error while parsing Postgres config", logger.Error(err))
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Error("failed to connect Postgres", logger.Error(err))
		return nil, err
	}

	if err = pool.Ping(ctx); err != nil {
		log.Error("failed to ping Postgres", logger.Error(err))
		pool.Close()
		return nil, err
	}

	if err = runMigrations(cfg.MigrationsPath, url, log); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info("Postgres connected")

	s := &Store{
		pool: pool,
		log:  log,
	}
	s.hub = storage.NewHub(NewBookingRepo(pool, log, nil).List, cfg.FeedResyncInterval, log)
	s.publisher = s.hub
	return s, nil
}

// 🔹 Migrations
func runMigrations(path, url string, log logger.ILogger) error {
	mPath := path
	if !filepath.IsAbs(mPath) {
		cwd, _ := os.Getwd()
		mPath = filepath.Join(cwd, mPath)
	}

	m, err := migrate.New("file://"+mPath, url)
	if err != nil {
		log.Error("migration init error or no migrations found", logger.String("path", mPath), logger.Error(err))
		return err
	}
	defer m.Close()

	if err = m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no migrations to apply")
			return nil
		}
		log.Error("migration up error", logger.Error(err))
		return err
	}
	return nil
}

func (s *Store) Close() {
	s.hub.Close()
	s.pool.Close()
}

func (s *Store) GetPool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) SetPublisher(p storage.IChangePublisher) {
	s.mu.Lock()
	s.publisher = p
	s.mu.Unlock()
}

func (s *Store) currentPublisher() storage.IChangePublisher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.publisher
}

func (s *Store) Booking() storage.IBookingStorage {
	return NewBookingRepo(s.pool, s.log, s.currentPublisher())
}
func (s *Store) Service() storage.IServiceStorage { return NewServiceRepo(s.pool, s.log) }
func (s *Store) User() storage.IUserStorage       { return NewUserRepo(s.pool, s.log) }
func (s *Store) Feed() storage.IBookingFeed       { return s.hub }

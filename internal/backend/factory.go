package backend

import (
	"context"
	"fmt"

	"catat/internal/cache"
	applog "catat/internal/log"
	"catat/internal/records"
	gsheet "catat/internal/records/google"
	"catat/internal/records/memory"
	"catat/internal/records/notion"
	"catat/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
	caches *cache.Manager
}

// NewFactory creates a new backend factory. Category caches it creates are
// registered with caches when non-nil.
func NewFactory(logger *applog.Logger, caches *cache.Manager) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
		caches: caches,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case NotionBackend:
		res, err = f.createNotionBackend(config)
	case SheetsBackend:
		res, err = f.createSheetsBackend(ctx)
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case MemoryBackend:
		res, err = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}
	if res.Cleanup == nil {
		res.Cleanup = func() error { return nil }
	}

	if config.CategoryCacheTTL > 0 {
		c := cache.NewLRUCache[[]string](1, config.CategoryCacheTTL)
		if f.caches != nil {
			f.caches.Register(c)
		}
		res.Store = records.NewCachedStore(res.Store, c)
		f.logger.Info("Category options cached", "ttl", config.CategoryCacheTTL.String())
	}
	return res, nil
}

func (f *DefaultFactory) createNotionBackend(config Config) (*BackendResult, error) {
	props := notion.Properties{
		Title:    config.NotionProperties.Title,
		Date:     config.NotionProperties.Date,
		Category: config.NotionProperties.Category,
		Amount:   config.NotionProperties.Amount,
	}
	cli, err := notion.New(config.NotionToken, config.NotionDatabaseID, props)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Notion client: %w", err)
	}

	f.logger.Info("Initialized Notion backend", "database_id", config.NotionDatabaseID)
	return &BackendResult{Store: cli}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context) (*BackendResult, error) {
	cli, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend")
	return &BackendResult{Store: cli}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}
	store := memory.NewFromFiles(dataDir)

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)
	return &BackendResult{Store: store}, nil
}

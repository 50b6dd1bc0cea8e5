package database

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm/logger"

	"project-planner/backend/internal/config"
	"project-planner/backend/internal/models"
)

func newMemoryPool(t *testing.T) *DatabasePool {
	t.Helper()

	pool, err := NewDatabasePool(&PoolConfig{
		Driver:   DriverSQLite,
		DSN:      "file::memory:",
		LogLevel: logger.Silent,
	})
	if err != nil {
		t.Fatalf("Failed to open sqlite pool: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

func TestDefaultPoolConfig(t *testing.T) {
	config := DefaultPoolConfig()

	if config.Driver != DriverPostgres {
		t.Errorf("Expected Driver to be postgres, got %s", config.Driver)
	}

	if config.MaxOpenConns != 25 {
		t.Errorf("Expected MaxOpenConns to be 25, got %d", config.MaxOpenConns)
	}

	if config.MaxIdleConns != 10 {
		t.Errorf("Expected MaxIdleConns to be 10, got %d", config.MaxIdleConns)
	}

	if config.ConnMaxLifetime != time.Hour {
		t.Errorf("Expected ConnMaxLifetime to be 1 hour, got %v", config.ConnMaxLifetime)
	}

	if config.ConnMaxIdleTime != time.Minute*30 {
		t.Errorf("Expected ConnMaxIdleTime to be 30 minutes, got %v", config.ConnMaxIdleTime)
	}

	if config.LogLevel != logger.Info {
		t.Errorf("Expected LogLevel to be Info, got %v", config.LogLevel)
	}
}

func TestPoolConfigFrom(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Driver:       "sqlite",
			SQLitePath:   "planner.db",
			MaxOpenConns: 4,
			LogLevel:     "error",
		},
	}

	pc := PoolConfigFrom(cfg)

	if pc.DSN != "planner.db" {
		t.Errorf("Expected DSN planner.db, got %s", pc.DSN)
	}
	if pc.MaxOpenConns != 4 {
		t.Errorf("Expected MaxOpenConns 4, got %d", pc.MaxOpenConns)
	}
	if pc.LogLevel != logger.Error {
		t.Errorf("Expected LogLevel Error, got %v", pc.LogLevel)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"silent":  logger.Silent,
		"ERROR":   logger.Error,
		"info":    logger.Info,
		"warn":    logger.Warn,
		"verbose": logger.Warn,
	}

	for input, expected := range tests {
		if got := ParseLogLevel(input); got != expected {
			t.Errorf("ParseLogLevel(%q) = %v, expected %v", input, got, expected)
		}
	}
}

func TestNewDatabasePool_WithNilConfig(t *testing.T) {
	_, err := NewDatabasePool(nil)

	if err == nil {
		t.Error("Expected error due to empty DSN, got nil")
	}
}

func TestPoolConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		config  *PoolConfig
		wantErr bool
	}{
		{
			name: "Valid sqlite configuration",
			config: &PoolConfig{
				Driver:   DriverSQLite,
				DSN:      "file::memory:",
				LogLevel: logger.Silent,
			},
			wantErr: false,
		},
		{
			name: "Zero values configuration",
			config: &PoolConfig{
				LogLevel: logger.Silent,
			},
			wantErr: true,
		},
		{
			name: "Negative values configuration",
			config: &PoolConfig{
				Driver:          DriverSQLite,
				DSN:             "file::memory:",
				MaxOpenConns:    -1,
				MaxIdleConns:    -1,
				ConnMaxLifetime: -time.Hour,
				LogLevel:        logger.Silent,
			},
			wantErr: true,
		},
		{
			name: "Unknown driver",
			config: &PoolConfig{
				Driver: "mysql",
				DSN:    "user:pass@/db",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := NewDatabasePool(tt.config)

			if tt.wantErr && err == nil {
				t.Error("Expected error but pool creation succeeded")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected successful pool creation, got: %v", err)
			}
			if pool != nil {
				_ = pool.Close()
			}
		})
	}
}

func TestDatabasePool_MigrateAndHealth(t *testing.T) {
	pool := newMemoryPool(t)

	if err := pool.Migrate(); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	for _, model := range []interface{}{&models.Task{}, &models.Project{}, &models.SubTask{}} {
		if !pool.DB.Migrator().HasTable(model) {
			t.Errorf("Expected table for %T to exist", model)
		}
	}

	if err := pool.Health(context.Background()); err != nil {
		t.Errorf("Expected healthy pool, got: %v", err)
	}

	stats := pool.Stats()
	if stats["max_open_connections"] != 1 {
		t.Errorf("Expected in-memory pool pinned to 1 connection, got %v", stats["max_open_connections"])
	}
}

func TestDatabasePool_Stats_WithoutConnection(t *testing.T) {
	pool := &DatabasePool{
		DB: nil,
		config: &PoolConfig{
			MaxOpenConns: 10,
		},
	}

	stats := pool.Stats()

	if _, hasError := stats["error"]; !hasError {
		t.Error("Expected error in stats when DB is nil")
	}
}

func TestDatabasePool_Health_WithoutConnection(t *testing.T) {
	pool := &DatabasePool{
		DB: nil,
	}

	if err := pool.Health(context.Background()); err == nil {
		t.Error("Expected error when checking health with nil DB")
	}

	if err := pool.Migrate(); err == nil {
		t.Error("Expected error when migrating with nil DB")
	}
}

func TestDatabasePool_Close_WithoutConnection(t *testing.T) {
	pool := &DatabasePool{
		DB: nil,
	}

	if err := pool.Close(); err != nil {
		t.Errorf("Expected no error when closing nil DB, got: %v", err)
	}
}

func BenchmarkDefaultPoolConfig(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = DefaultPoolConfig()
	}
}

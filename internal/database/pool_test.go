package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BaSui01/agenthub/config"
)

// =============================================================================
// 🧪 PoolManager 测试
// =============================================================================

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *gorm.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)

	return mockDB, mock, gormDB
}

func testPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

type recordingStats struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingStats) RecordDBConnections(database string, open, idle int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, database)
}

func (r *recordingStats) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestNewPoolManager(t *testing.T) {
	mockDB, _, gormDB := setupTestDB(t)
	defer mockDB.Close()

	cfg := testPoolConfig()
	manager, err := NewPoolManager(gormDB, cfg, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, gormDB, manager.DB())
	assert.Equal(t, cfg, manager.config)
	assert.Equal(t, "postgres", manager.name)
	assert.Equal(t, 10, manager.GetStats().MaxOpenConnections)
}

func TestNewPoolManager_Errors(t *testing.T) {
	_, err := NewPoolManager(nil, testPoolConfig(), zap.NewNop())
	assert.ErrorContains(t, err, "db cannot be nil")

	mockDB, _, gormDB := setupTestDB(t)
	defer mockDB.Close()
	_, err = NewPoolManager(gormDB, PoolConfig{MaxOpenConns: 1, MaxIdleConns: 2}, zap.NewNop())
	assert.ErrorContains(t, err, "invalid pool config")
}

func TestPoolManager_Ping(t *testing.T) {
	mockDB, mock, gormDB := setupTestDB(t)
	defer mockDB.Close()

	manager, err := NewPoolManager(gormDB, testPoolConfig(), zap.NewNop())
	require.NoError(t, err)

	assert.NoError(t, manager.Ping(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, manager.Ping(ctx))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolManager_Close(t *testing.T) {
	_, mock, gormDB := setupTestDB(t)

	manager, err := NewPoolManager(gormDB, testPoolConfig(), zap.NewNop())
	require.NoError(t, err)

	mock.ExpectClose()
	require.NoError(t, manager.Close())
	// 再次关闭无副作用
	require.NoError(t, manager.Close())
	assert.ErrorContains(t, manager.Ping(context.Background()), "pool is closed")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolManager_HealthCheckReportsStats(t *testing.T) {
	_, mock, gormDB := setupTestDB(t)

	cfg := testPoolConfig()
	cfg.HealthCheckInterval = 20 * time.Millisecond

	recorder := &recordingStats{}
	manager, err := NewPoolManager(gormDB, cfg, zap.NewNop(), WithStatsRecorder("assets", recorder))
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return recorder.count() >= 2 }, 2*time.Second, 10*time.Millisecond)

	mock.ExpectClose()
	require.NoError(t, manager.Close())

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	for _, name := range recorder.calls {
		assert.Equal(t, "assets", name)
	}
}

func TestPoolConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  PoolConfig
		wantErr bool
	}{
		{"valid config", testPoolConfig(), false},
		{"invalid max open conns", PoolConfig{MaxOpenConns: 0, MaxIdleConns: 5}, true},
		{"invalid max idle conns", PoolConfig{MaxOpenConns: 10, MaxIdleConns: 0}, true},
		{"idle > open", PoolConfig{MaxOpenConns: 5, MaxIdleConns: 10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPoolConfigFrom(t *testing.T) {
	pc := PoolConfigFrom(config.DatabaseConfig{MaxOpenConns: 40, ConnMaxLifetime: time.Hour})
	assert.Equal(t, 40, pc.MaxOpenConns)
	assert.Equal(t, DefaultPoolConfig().MaxIdleConns, pc.MaxIdleConns)
	assert.Equal(t, time.Hour, pc.ConnMaxLifetime)
	assert.NoError(t, pc.Validate())
}

// =============================================================================
// 🧪 Open 测试
// =============================================================================

func TestOpen_SQLiteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "assets.db")

	db, err := Open(config.DatabaseConfig{Driver: "sqlite", Name: path}, zap.NewNop())
	require.NoError(t, err)

	pm, err := NewPoolManager(db, PoolConfigFrom(config.DefaultDatabaseConfig()), zap.NewNop())
	require.NoError(t, err)
	defer pm.Close()

	require.NoError(t, pm.Ping(context.Background()))
	assert.FileExists(t, path)
}

func TestDialector(t *testing.T) {
	for _, driver := range []string{"postgres", "mysql"} {
		d, err := Dialector(config.DatabaseConfig{Driver: driver, Host: "localhost", Port: 1, Name: "x"})
		require.NoError(t, err, driver)
		assert.Equal(t, driver, d.Name())
	}

	d, err := Dialector(config.DatabaseConfig{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	_, err = Dialector(config.DatabaseConfig{Driver: "sqlite"})
	assert.Error(t, err)

	_, err = Dialector(config.DatabaseConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

// =============================================================================
// 🧪 Instrument 测试
// =============================================================================

type recordingQueries struct {
	mu  sync.Mutex
	ops map[string]int
}

func (r *recordingQueries) RecordDBQuery(database, operation string, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ops == nil {
		r.ops = make(map[string]int)
	}
	r.ops[database+"/"+operation]++
}

type probe struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestInstrument_RecordsEachOperation(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", Name: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	rec := &recordingQueries{}
	require.NoError(t, Instrument(db, "assets", rec))
	require.NoError(t, db.AutoMigrate(&probe{}))

	require.NoError(t, db.Create(&probe{Name: "a"}).Error)
	var got probe
	require.NoError(t, db.Take(&got).Error)
	require.NoError(t, db.Model(&got).Update("name", "b").Error)
	require.NoError(t, db.Delete(&got).Error)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, op := range []string{"create", "query", "update", "delete"} {
		assert.GreaterOrEqual(t, rec.ops["assets/"+op], 1, op)
	}
}

func TestInstrument_RequiresArguments(t *testing.T) {
	assert.Error(t, Instrument(nil, "assets", &recordingQueries{}))
}

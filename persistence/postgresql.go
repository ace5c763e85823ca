// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL 驱动

	"github.com/wfunc/dicebox/config"
	"github.com/wfunc/dicebox/logger"
	"github.com/wfunc/dicebox/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const queryTimeout = 5 * time.Second

// PostgreSQL 基于 sqlx 的数据库实现
type PostgreSQL struct {
	db *sqlx.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接并执行迁移
func NewPostgreSQL(cfg config.PostgresConfig) (*PostgreSQL, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, err
	}
	logger.Log.Infof("Connected to postgres %s:%d/%s", cfg.Host, cfg.Port, cfg.DBName)

	return &PostgreSQL{db: db}, nil
}

// runMigrations applies the embedded up migrations.
func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations source: %w", err)
	}
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("migrations driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}

	from, _, _ := m.Version()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration execution failed: %w", err)
	}
	to, _, _ := m.Version()
	logger.Log.Infof("Migrations applied: version %d -> %d", from, to)
	return nil
}

func (p *PostgreSQL) SavePress(record models.PressRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	query := `
        INSERT INTO press_records (record_id, owner, from_state, to_state, number, message, created_at)
        VALUES (:record_id, :owner, :from_state, :to_state, :number, :message, :created_at)
    `
	_, err := p.db.NamedExecContext(ctx, query, record)
	return err
}

func (p *PostgreSQL) LoadHistory(owner string, limit int) ([]models.PressRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = math.MaxInt32
	}
	query := `
        SELECT record_id, owner, from_state, to_state, number, message, created_at
        FROM press_records
        WHERE owner = $1
        ORDER BY id DESC
        LIMIT $2
    `
	var records []models.PressRecord
	if err := p.db.SelectContext(ctx, &records, query, owner, limit); err != nil {
		return nil, err
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (p *PostgreSQL) LastPress(owner string) (models.PressRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var record models.PressRecord
	query := `
        SELECT record_id, owner, from_state, to_state, number, message, created_at
        FROM press_records
        WHERE owner = $1
        ORDER BY id DESC
        LIMIT 1
    `
	if err := p.db.GetContext(ctx, &record, query, owner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PressRecord{}, ErrRecordNotFound
		}
		return models.PressRecord{}, err
	}
	return record, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}

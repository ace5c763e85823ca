// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/dicebox/config"
	"github.com/wfunc/dicebox/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(cfg config.PostgresConfig) (*GormPostgreSQL, error) {
	return openGorm(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: newGormLogger(),
	})
}

func newGormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stderr, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)
}

// openGorm opens the journal and closes the pool again if schema setup fails.
func openGorm(dialector gorm.Dialector, gormCfg *gorm.Config) (*GormPostgreSQL, error) {
	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("gorm open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm pool: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.GormPressRecord{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("gorm auto migrate: %w", err)
	}

	return &GormPostgreSQL{db: db}, nil
}

func (p *GormPostgreSQL) SavePress(record models.PressRecord) error {
	row := models.FromRecord(record)
	return p.db.Create(&row).Error
}

func (p *GormPostgreSQL) LoadHistory(owner string, limit int) ([]models.PressRecord, error) {
	var rows []models.GormPressRecord
	q := p.db.Where("owner = ?", owner).Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	// 查询是倒序的，返回时恢复时间顺序
	records := make([]models.PressRecord, len(rows))
	for i, row := range rows {
		records[len(rows)-1-i] = row.ToRecord()
	}
	return records, nil
}

func (p *GormPostgreSQL) LastPress(owner string) (models.PressRecord, error) {
	var row models.GormPressRecord
	if err := p.db.Where("owner = ?", owner).Order("id desc").First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.PressRecord{}, ErrRecordNotFound
		}
		return models.PressRecord{}, err
	}
	return row.ToRecord(), nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

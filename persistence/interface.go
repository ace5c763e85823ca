package persistence

import (
	"fmt"

	"github.com/wfunc/dicebox/config"
	"github.com/wfunc/dicebox/models"
)

// Journal 按键记录存储接口
type Journal interface {
	SavePress(record models.PressRecord) error
	// LoadHistory returns up to limit records for owner, oldest first.
	LoadHistory(owner string, limit int) ([]models.PressRecord, error)
	LastPress(owner string) (models.PressRecord, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)

// Open picks the journal implementation named by the database driver.
func Open(cfg config.DatabaseConfig) (Journal, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		return NewMemoryJournal(), nil
	case config.DriverGorm:
		return NewGormPostgreSQL(cfg.Postgres)
	case config.DriverPostgres:
		return NewPostgreSQL(cfg.Postgres)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

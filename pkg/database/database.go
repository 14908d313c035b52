package database

import (
	"fmt"
	"os"
	"path/filepath"

	"practice_backend/internal/config"
	"practice_backend/internal/model"
	"practice_backend/pkg/logger"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// InitDB 打开本地持久化存储。设备上默认使用 sqlite 文件，家庭服务器部署可以切换到 mysql
func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=UTC",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		dialector = mysql.Open(dsn)
	default:
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
				return nil, err
			}
		}
		dialector = sqlite.Open(cfg.Path)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if cfg.Driver != "mysql" && cfg.Path == ":memory:" {
		// 每个连接都是独立的内存库，只能保留一个连接
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	logger.Log.Info("Database connection established", zap.String("driver", cfg.Driver))

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logger.Log.Info("Database migration completed")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.KVEntry{})
}

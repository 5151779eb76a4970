package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Joellzt/movie-cards/internal/config"
	"github.com/Joellzt/movie-cards/internal/model"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB 初始化 Postgres 连接（lib/pq 连接池交给 gorm 使用）
func InitDB(databaseURL string) (*gorm.DB, error) {
	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	// 测试连接
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("gorm 初始化失败: %w", err)
	}
	return db, nil
}

// InitSQLite 初始化 SQLite（本地开发与测试）
func InitSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("无法打开 sqlite: %w", err)
	}
	return db, nil
}

// AutoMigrate 建表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.SavedMovieRecord{},
		&model.ReviewRecord{},
	)
}

// Repositories 仓库集合
type Repositories struct {
	SavedMovie SavedMovieStore
	Review     ReviewStore
	User       UserStore

	close func(ctx context.Context) error
}

// NewRepositories 基于 gorm 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		SavedMovie: NewSavedMovieRepository(db),
		Review:     NewReviewRepository(db),
		User:       NewUserRepository(db),
		close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

// Close 释放底层连接
func (r *Repositories) Close(ctx context.Context) error {
	if r.close == nil {
		return nil
	}
	return r.close(ctx)
}

// Open 按配置选择存储后端并建表
func Open(ctx context.Context, cfg config.StoreConfig) (*Repositories, error) {
	switch cfg.Driver {
	case "mongo":
		return NewMongoRepositories(ctx, cfg.MongoURI, cfg.MongoDB)
	case "sqlite", "postgres", "":
		var (
			db  *gorm.DB
			err error
		)
		if cfg.Driver == "sqlite" {
			db, err = InitSQLite(cfg.SQLitePath)
		} else {
			db, err = InitDB(cfg.DatabaseURL)
		}
		if err != nil {
			return nil, err
		}
		if err := AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("建表失败: %w", err)
		}
		return NewRepositories(db), nil
	default:
		return nil, fmt.Errorf("未知的存储驱动: %s", cfg.Driver)
	}
}

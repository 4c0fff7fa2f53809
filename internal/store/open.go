package store

import (
	"database/sql"
	"fmt"

	"geotruth/internal/config"
	"geotruth/internal/logger"
	"geotruth/internal/migrate"
	"geotruth/internal/utils"
)

// 文档注释：按配置打开存储并建表
// 背景：sqlite 为默认驱动；postgres 使用连接池参数并在建表前 Ping，连接失败直接返回。
func Open(cfg *config.Config) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Store.Driver {
	case migrate.Postgres:
		db, err = utils.OpenPostgres(cfg.Postgres.DSN(), cfg.Postgres.MaxOpenConns, cfg.Postgres.MaxIdleConns)
		if err == nil {
			if perr := db.Ping(); perr != nil {
				_ = db.Close()
				err = fmt.Errorf("ping postgres: %w", perr)
			}
		}
	case migrate.SQLite:
		db, err = utils.OpenSQLite(cfg.Store.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	st := AttachDB(db, cfg.Store.Driver)
	if err := st.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.L().Info("store_open_ok", "driver", cfg.Store.Driver)
	return st, nil
}

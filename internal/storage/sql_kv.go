package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Dialect — диалект SQL для SQLKV
type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite"
)

// SQLKV хранит записи мира в таблице world_records.
// Поддерживает MariaDB/MySQL и встроенный SQLite.
type SQLKV struct {
	db      *sql.DB
	dialect Dialect
}

// NewMySQLKV подключается к MariaDB/MySQL.
// dsn - строка подключения к базе данных (user:pass@tcp(host:port)/dbname)
func NewMySQLKV(ctx context.Context, dsn string) (*SQLKV, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}
	return newSQLKV(ctx, db, DialectMySQL)
}

// NewSQLiteKV открывает файл базы SQLite, создавая каталог при необходимости
func NewSQLiteKV(ctx context.Context, path string) (*SQLKV, error) {
	if path == "" {
		return nil, errors.New("не задан путь к базе SQLite")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию для %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть SQLite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("ошибка настройки SQLite: %w", err)
		}
	}
	return newSQLKV(ctx, db, DialectSQLite)
}

func newSQLKV(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLKV, error) {
	kv := &SQLKV{db: db, dialect: dialect}
	if err := kv.createTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу: %w", err)
	}
	return kv, nil
}

// createTable создает таблицу world_records, если она не существует.
func (s *SQLKV) createTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS world_records (
			record_key VARCHAR(191) PRIMARY KEY,
			value      LONGBLOB     NOT NULL,
			updated_at TIMESTAMP    DEFAULT CURRENT_TIMESTAMP
		)`
	if s.dialect == DialectSQLite {
		query = `
		CREATE TABLE IF NOT EXISTS world_records (
			record_key TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`
	}
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ошибка создания таблицы world_records: %w", err)
	}
	return nil
}

// Get читает запись
func (s *SQLKV) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM world_records WHERE record_key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения записи %s: %w", key, err)
	}
	return data, nil
}

// Set записывает запись.
// MySQL использует INSERT ... ON DUPLICATE KEY UPDATE, SQLite — ON CONFLICT.
func (s *SQLKV) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO world_records (record_key, value)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE
			value = VALUES(value),
			updated_at = CURRENT_TIMESTAMP`
	if s.dialect == DialectSQLite {
		query = `
		INSERT INTO world_records (record_key, value)
		VALUES (?, ?)
		ON CONFLICT(record_key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP`
	}
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("ошибка сохранения записи %s: %w", key, err)
	}
	return nil
}

// Dialect возвращает диалект базы
func (s *SQLKV) Dialect() Dialect {
	return s.dialect
}

func (s *SQLKV) Close() error {
	return s.db.Close()
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SettingLastImportJob 最近一次持久化的任务 ID
const SettingLastImportJob = "last_import_job"

// ErrSettingNotFound 设置项不存在
var ErrSettingNotFound = errors.New("setting not found")

// GetSetting 获取设置项
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrSettingNotFound, key)
		}
		return "", err
	}
	return value, nil
}

// SetSetting 设置设置项
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	return setSetting(ctx, s.db, key, value)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func setSetting(ctx context.Context, db execer, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// LastImportJob 最近一次持久化的任务 ID；没有时返回空串
func (s *Store) LastImportJob(ctx context.Context) (string, error) {
	v, err := s.GetSetting(ctx, SettingLastImportJob)
	if errors.Is(err, ErrSettingNotFound) {
		return "", nil
	}
	return v, err
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/lucksec/cloudarchitect/internal/domain"
	"github.com/lucksec/cloudarchitect/internal/logger"
)

var sessionSchema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		phase      TEXT NOT NULL,
		data       TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at)`,
}

// sortableTime 定长时间格式，保证按字符串排序即按时间排序
const sortableTime = "2006-01-02T15:04:05.000000000Z"

// sqliteSessionRepository 基于 SQLite 的会话仓库，每个会话保存为一行 JSON
type sqliteSessionRepository struct {
	db *sql.DB
}

// NewSQLiteSessionRepository 打开（或创建）会话数据库
func NewSQLiteSessionRepository(dbPath string) (SessionRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("创建数据库目录失败: %w", err)
		}
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath))
	if err != nil {
		return nil, fmt.Errorf("打开会话数据库失败: %w", err)
	}
	// SQLite 只支持单写者
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("连接会话数据库失败: %w", err)
	}
	for _, stmt := range sessionSchema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("初始化会话表失败: %w", err)
		}
	}

	logger.GetLogger().Debug("会话数据库已打开: %s", dbPath)
	return &sqliteSessionRepository{db: db}, nil
}

// Get 读取会话
func (r *sqliteSessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("查询会话失败: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("解析会话 %s 失败: %w", id, err)
	}
	return &session, nil
}

// Save 写入会话
func (r *sqliteSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("序列化会话失败: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, phase, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			phase = excluded.phase,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		session.ID,
		string(session.ProjectState.Phase),
		string(data),
		session.CreatedAt.UTC().Format(sortableTime),
		session.UpdatedAt.UTC().Format(sortableTime),
	)
	if err != nil {
		return fmt.Errorf("保存会话失败: %w", err)
	}
	return nil
}

// Delete 删除会话
func (r *sqliteSessionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("删除会话失败: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("删除会话失败: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// List 列出会话摘要
func (r *sqliteSessionRepository) List(ctx context.Context) ([]domain.SessionSummary, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT data FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("查询会话列表失败: %w", err)
	}
	defer rows.Close()

	summaries := []domain.SessionSummary{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("读取会话失败: %w", err)
		}
		var session domain.Session
		if err := json.Unmarshal([]byte(data), &session); err != nil {
			return nil, fmt.Errorf("解析会话失败: %w", err)
		}
		summaries = append(summaries, session.Summary())
	}
	return summaries, rows.Err()
}

// Close 关闭数据库
func (r *sqliteSessionRepository) Close() error {
	return r.db.Close()
}

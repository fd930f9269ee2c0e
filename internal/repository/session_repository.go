package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lucksec/cloudarchitect/internal/config"
	"github.com/lucksec/cloudarchitect/internal/domain"
)

// ErrSessionNotFound 会话不存在
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository 会话存储接口，实现需支持并发调用
type SessionRepository interface {
	// Get 读取会话，不存在时返回 ErrSessionNotFound
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Save 整体写入会话（新建或覆盖）
	Save(ctx context.Context, session *domain.Session) error

	// Delete 删除会话，不存在时返回 ErrSessionNotFound
	Delete(ctx context.Context, id string) error

	// List 按更新时间倒序列出会话摘要
	List(ctx context.Context) ([]domain.SessionSummary, error)

	// Close 释放底层资源
	Close() error
}

// NewSessionRepository 按配置创建会话仓库
func NewSessionRepository(cfg *config.Config) (SessionRepository, error) {
	switch cfg.Session.Store {
	case "memory":
		return NewMemorySessionRepository(cfg.Session.MaxSessions)
	case "sqlite", "":
		return NewSQLiteSessionRepository(cfg.Session.DBPath)
	default:
		return nil, fmt.Errorf("不支持的会话存储类型: %s", cfg.Session.Store)
	}
}

// cloneSession 通过 JSON 深拷贝，避免调用方修改仓库内的数据
func cloneSession(s *domain.Session) (*domain.Session, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("序列化会话失败: %w", err)
	}
	var out domain.Session
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("解析会话失败: %w", err)
	}
	return &out, nil
}

package repository

import (
	"context"
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lucksec/cloudarchitect/internal/domain"
	"github.com/lucksec/cloudarchitect/internal/logger"
)

// memorySessionRepository 进程内会话仓库，超过容量时淘汰最久未使用的会话
type memorySessionRepository struct {
	cache *lru.Cache[string, *domain.Session]
}

// NewMemorySessionRepository 创建容量为 size 的内存仓库
func NewMemorySessionRepository(size int) (SessionRepository, error) {
	cache, err := lru.NewWithEvict[string, *domain.Session](size, func(id string, _ *domain.Session) {
		logger.GetLogger().Debug("会话被淘汰: %s", id)
	})
	if err != nil {
		return nil, fmt.Errorf("创建会话缓存失败: %w", err)
	}
	return &memorySessionRepository{cache: cache}, nil
}

// Get 读取会话
func (r *memorySessionRepository) Get(_ context.Context, id string) (*domain.Session, error) {
	s, ok := r.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return cloneSession(s)
}

// Save 写入会话
func (r *memorySessionRepository) Save(_ context.Context, session *domain.Session) error {
	s, err := cloneSession(session)
	if err != nil {
		return err
	}
	r.cache.Add(session.ID, s)
	return nil
}

// Delete 删除会话
func (r *memorySessionRepository) Delete(_ context.Context, id string) error {
	if !r.cache.Remove(id) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// List 列出会话摘要
func (r *memorySessionRepository) List(_ context.Context) ([]domain.SessionSummary, error) {
	summaries := []domain.SessionSummary{}
	for _, s := range r.cache.Values() {
		summaries = append(summaries, s.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

// Close 清空缓存
func (r *memorySessionRepository) Close() error {
	r.cache.Purge()
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lucksec/cloudarchitect/internal/domain"
	"github.com/lucksec/cloudarchitect/internal/logger"
	"github.com/lucksec/cloudarchitect/internal/repository"
)

// SessionDefaults 新会话的初始值
type SessionDefaults struct {
	PreferredCloudProvider domain.ProviderName
	DefaultWorkload        domain.WorkloadRequirements
	Model                  domain.ModelRef
}

// SessionService 会话的创建、读取、持久化，并串行化同一会话上的操作
type SessionService struct {
	repo     repository.SessionRepository
	defaults SessionDefaults
	tools    *ToolService
	log      logger.Logger
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock 会话锁，refs 为持有和等待者的数量，归零时才从表中移除
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewSessionService 创建会话服务
func NewSessionService(repo repository.SessionRepository, defaults SessionDefaults, tools *ToolService, log logger.Logger) *SessionService {
	if log == nil {
		log = logger.GetLogger()
	}
	return &SessionService{
		repo:     repo,
		defaults: defaults,
		tools:    tools,
		log:      log,
		now:      time.Now,
		locks:    make(map[string]*sessionLock),
	}
}

// Tools 返回工具服务
func (s *SessionService) Tools() *ToolService {
	return s.tools
}

// New 构造一个未保存的新会话，id 为空时自动生成
func (s *SessionService) New(id string) *domain.Session {
	if id == "" {
		id = uuid.NewString()
	}
	now := s.now()
	return &domain.Session{
		ID:                     id,
		PreferredCloudProvider: s.defaults.PreferredCloudProvider,
		DefaultWorkload:        s.defaults.DefaultWorkload,
		ProjectState:           domain.NewProjectState(),
		Model:                  s.defaults.Model,
		Messages:               []domain.Message{},
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// Create 创建并保存新会话
func (s *SessionService) Create(ctx context.Context) (*domain.Session, error) {
	sess := s.New("")
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.log.Info("创建会话: %s", sess.ID)
	return sess, nil
}

// Get 读取会话
func (s *SessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.repo.Get(ctx, id)
}

// GetOrCreate 读取会话，不存在时用指定 id 创建（未保存）
func (s *SessionService) GetOrCreate(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrSessionNotFound) {
		s.log.Debug("会话 %s 不存在，新建", id)
		return s.New(id), nil
	}
	return sess, err
}

// Save 更新时间戳并保存
func (s *SessionService) Save(ctx context.Context, sess *domain.Session) error {
	sess.UpdatedAt = s.now()
	return s.repo.Save(ctx, sess)
}

// List 列出会话
func (s *SessionService) List(ctx context.Context) ([]domain.SessionSummary, error) {
	return s.repo.List(ctx)
}

// Delete 删除会话
func (s *SessionService) Delete(ctx context.Context, id string) error {
	unlock := s.Lock(id)
	defer unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("删除会话: %s", id)
	return nil
}

// Reset 把会话恢复为初始状态，保留 id 和创建时间
func (s *SessionService) Reset(ctx context.Context, id string) (*domain.Session, error) {
	unlock := s.Lock(id)
	defer unlock()

	old, err := s.GetOrCreate(ctx, id)
	if err != nil {
		return nil, err
	}
	sess := s.New(id)
	sess.CreatedAt = old.CreatedAt
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.log.Info("重置会话: %s", id)
	return sess, nil
}

// Lock 获取会话锁，返回解锁函数；同一会话同时只有一个操作
func (s *SessionService) Lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// InvokeTool 在指定会话上执行工具并保存结果；失败时会话不变
func (s *SessionService) InvokeTool(ctx context.Context, id, name string, args json.RawMessage) (any, error) {
	if id == "" {
		return nil, ErrNoContext
	}

	unlock := s.Lock(id)
	defer unlock()

	sess, err := s.GetOrCreate(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := s.tools.Invoke(ctx, sess, name, args)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("保存会话失败: %w", err)
	}
	return result, nil
}

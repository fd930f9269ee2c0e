package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/lucksec/cloudarchitect/internal/config"
	"github.com/lucksec/cloudarchitect/internal/credentials"
	"github.com/lucksec/cloudarchitect/internal/llm"
	"github.com/lucksec/cloudarchitect/internal/logger"
	"github.com/lucksec/cloudarchitect/internal/metrics"
	"github.com/lucksec/cloudarchitect/internal/repository"
	"github.com/lucksec/cloudarchitect/internal/service"
)

// app 命令共享的服务，第一次使用时创建
//
// credential、completion 等命令不需要打开会话存储。
type app struct {
	cfg *config.Config
	log logger.Logger

	once     sync.Once
	initErr  error
	creds    credentials.CredentialManager
	repo     repository.SessionRepository
	recorder *metrics.PrometheusRecorder
	sessions *service.SessionService
	chat     *service.ChatService
}

func newApp(cfg *config.Config, log logger.Logger) *app {
	return &app{cfg: cfg, log: log}
}

// services 初始化并返回会话服务
func (a *app) services() (*service.SessionService, error) {
	a.once.Do(func() {
		a.initErr = a.init()
	})
	return a.sessions, a.initErr
}

// chatService 返回对话服务
func (a *app) chatService() (*service.ChatService, error) {
	if _, err := a.services(); err != nil {
		return nil, err
	}
	return a.chat, nil
}

func (a *app) init() error {
	cfg := a.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}

	repo, err := repository.NewSessionRepository(cfg)
	if err != nil {
		return fmt.Errorf("打开会话存储失败: %w", err)
	}
	a.repo = repo
	a.creds = credentials.GetDefaultManager()
	a.recorder = metrics.NewPrometheusRecorder()

	models := llm.NewRegistry(a.creds)
	generator := service.NewArchitectureGenerator(cfg.LLM.MaxTokens, a.recorder, a.log)
	phases := service.NewPhaseTracker(cfg.Session.EnforcePhaseOrder, a.recorder, a.log)
	tools := service.NewToolService(cfg.Workload, generator, models, phases, a.recorder, a.log)

	a.sessions = service.NewSessionService(repo, service.SessionDefaults{
		PreferredCloudProvider: cfg.Architect.PreferredCloudProvider,
		DefaultWorkload:        cfg.Workload,
		Model:                  llm.DefaultModelRef(cfg.LLM.Provider, cfg.LLM.Model),
	}, tools, a.log)
	a.chat = service.NewChatService(a.sessions, models, cfg.LLM.MaxSteps, cfg.LLM.MaxTokens, a.recorder, a.log)

	a.log.Debug("服务初始化完成: model=%s/%s enforce_phase_order=%v",
		cfg.LLM.Provider, cfg.LLM.Model, cfg.Session.EnforcePhaseOrder)
	return nil
}

// invoke 在会话上执行工具
func (a *app) invoke(ctx context.Context, sessionID, tool string, args any) (any, error) {
	sessions, err := a.services()
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if args != nil {
		if raw, err = json.Marshal(args); err != nil {
			return nil, err
		}
	}
	return sessions.InvokeTool(ctx, sessionID, tool, raw)
}

// Close 关闭会话存储并刷新日志，可重复调用
func (a *app) Close() {
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.log.Warn("关闭会话存储失败: %v", err)
		}
		a.repo = nil
	}
	_ = a.log.Sync()
}

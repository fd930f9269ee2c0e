package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lucksec/cloudarchitect/internal/domain"
	"github.com/lucksec/cloudarchitect/internal/llm"
	"github.com/lucksec/cloudarchitect/internal/logger"
	"github.com/lucksec/cloudarchitect/internal/metrics"
)

// Reply 一轮对话的结果
type Reply struct {
	Content   string            // 模型最终回复
	ToolCalls []domain.ToolCall // 本轮执行过的工具调用
	Steps     int               // 调用模型的次数
}

// ChatService 对话编排：把用户消息交给模型，执行模型请求的工具，直到模型给出最终回复
type ChatService struct {
	sessions  *SessionService
	tools     *ToolService
	models    llm.Resolver
	maxSteps  int
	maxTokens int
	recorder  metrics.Recorder
	log       logger.Logger
}

// NewChatService 创建对话服务
func NewChatService(sessions *SessionService, models llm.Resolver, maxSteps, maxTokens int, recorder metrics.Recorder, log logger.Logger) *ChatService {
	if maxSteps <= 0 {
		maxSteps = 15
	}
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &ChatService{
		sessions:  sessions,
		tools:     sessions.Tools(),
		models:    models,
		maxSteps:  maxSteps,
		maxTokens: maxTokens,
		recorder:  recorder,
		log:       log,
	}
}

// Send 发送一条用户消息并运行工具循环
//
// 工具错误以错误结果回传给模型，由模型向用户解释；模型调用失败则直接返回。
func (c *ChatService) Send(ctx context.Context, sessionID, text string) (_ *Reply, err error) {
	if sessionID == "" {
		return nil, ErrNoContext
	}

	unlock := c.sessions.Lock(sessionID)
	defer unlock()

	sess, err := c.sessions.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	model, err := c.models.Resolve(ctx, sess.Model)
	if err != nil {
		return nil, err
	}

	turn := &Reply{}
	defer func() {
		c.recorder.ObserveChatTurn(turn.Steps, err)
	}()

	sess.Messages = domain.CleanupMessages(append(sess.Messages, domain.Message{
		Role:    domain.RoleUser,
		Content: text,
	}))

	for turn.Steps < c.maxSteps {
		turn.Steps++

		resp, err := model.Chat(ctx, llm.ChatRequest{
			System:    SystemPrompt(sess.PreferredCloudProvider),
			Messages:  sess.Messages,
			Tools:     c.tools.Definitions(),
			MaxTokens: c.maxTokens,
		})
		if err != nil {
			// 保留用户消息，下次可以继续
			if saveErr := c.sessions.Save(ctx, sess); saveErr != nil {
				c.log.Error("保存会话失败: %v", saveErr)
			}
			return nil, fmt.Errorf("model %s: %w", model.Name(), err)
		}

		sess.Messages = append(sess.Messages, domain.Message{
			Role:      domain.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		if len(resp.ToolCalls) == 0 {
			turn.Content = resp.Content
			if err := c.sessions.Save(ctx, sess); err != nil {
				return nil, err
			}
			return turn, nil
		}

		results := make([]domain.ToolResult, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			turn.ToolCalls = append(turn.ToolCalls, call)
			results = append(results, c.execute(ctx, sess, call))
		}
		sess.Messages = append(sess.Messages, domain.Message{
			Role:        domain.RoleTool,
			ToolResults: results,
		})

		if err := c.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
	}

	c.log.Warn("会话 %s 达到最大步数 %d", sess.ID, c.maxSteps)
	return nil, ErrMaxSteps
}

// execute 执行一个工具调用，错误转换为错误结果
func (c *ChatService) execute(ctx context.Context, sess *domain.Session, call domain.ToolCall) domain.ToolResult {
	result := domain.ToolResult{ToolCallID: call.ID, Name: call.Name}

	out, err := c.tools.Invoke(ctx, sess, call.Name, call.Arguments)
	if err != nil {
		data, _ := json.Marshal(map[string]string{"error": err.Error()})
		result.Content = string(data)
		result.IsError = true
		return result
	}

	data, err := json.Marshal(out)
	if err != nil {
		data, _ = json.Marshal(map[string]string{"error": err.Error()})
		result.IsError = true
	}
	result.Content = string(data)
	return result
}

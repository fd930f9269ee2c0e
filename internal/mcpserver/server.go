// Package mcpserver 通过 MCP 协议暴露架构助手的三个工具
//
// 每个 MCP 会话对应一个助手会话；stdio 传输没有会话 ID，统一使用 DefaultSession。
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lucksec/cloudarchitect/internal/logger"
	"github.com/lucksec/cloudarchitect/internal/service"
)

// Config MCP 服务配置
type Config struct {
	Name           string // 实现名
	Version        string // 实现版本
	DefaultSession string // 无会话 ID 时使用的助手会话
	SessionPrefix  string // MCP 会话 ID 映射为助手会话 ID 时加的前缀
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Name:           "cloudarchitect",
		Version:        "1.0.0",
		DefaultSession: "mcp-default",
		SessionPrefix:  "mcp-",
	}
}

// Server MCP 服务
type Server struct {
	mcp      *mcp.Server
	sessions *service.SessionService
	cfg      *Config
	log      logger.Logger
}

// NewServer 创建 MCP 服务并注册工具
func NewServer(cfg *Config, sessions *service.SessionService, log logger.Logger) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if sessions == nil {
		return nil, fmt.Errorf("session service is required")
	}
	if log == nil {
		log = logger.GetLogger()
	}

	s := &Server{
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		sessions: sessions,
		cfg:      cfg,
		log:      log,
	}

	for _, def := range sessions.Tools().Definitions() {
		s.mcp.AddTool(&mcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, s.handler(def.Name))
	}
	return s, nil
}

// Run 在 stdio 上运行，直到 ctx 取消或连接关闭
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("MCP 服务运行于 stdio")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server run failed: %w", err)
	}
	return nil
}

// Handler 返回 streamable HTTP 处理器
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)
}

// sessionID 把 MCP 会话映射为助手会话
func (s *Server) sessionID(req *mcp.CallToolRequest) string {
	if req == nil || req.Session == nil || req.Session.ID() == "" {
		return s.cfg.DefaultSession
	}
	return s.cfg.SessionPrefix + req.Session.ID()
}

// handler 工具处理函数，错误以 IsError 结果返回给客户端
func (s *Server) handler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args json.RawMessage
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		id := s.sessionID(req)

		result, err := s.sessions.InvokeTool(ctx, id, name, args)
		if err != nil {
			s.log.Warn("MCP 工具 %s 失败 (会话 %s): %v", name, id, err)
			return errorResult(err), nil
		}

		data, err := json.Marshal(result)
		if err != nil {
			return errorResult(fmt.Errorf("encode result: %w", err)), nil
		}
		return &mcp.CallToolResult{
			Content:           []mcp.Content{&mcp.TextContent{Text: string(data)}},
			StructuredContent: result,
		}, nil
	}
}

func errorResult(err error) *mcp.CallToolResult {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}

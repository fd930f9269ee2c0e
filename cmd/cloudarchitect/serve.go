package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lucksec/cloudarchitect/internal/credentials"
	"github.com/lucksec/cloudarchitect/internal/mcpserver"
)

// serveCmd 以 MCP 服务方式运行
func serveCmd(a *app) *cobra.Command {
	var (
		httpAddr string
		useHTTP  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "作为 MCP 服务运行",
		Long: `以 MCP 服务方式暴露 showDefaultWorkloadForConfirmation、updateWorkloadRequirements、
generateArchitecturePlans 三个工具。

默认使用 stdio 传输；--http 时启动 HTTP 服务:
  /mcp            streamable HTTP MCP 端点
  /metrics        Prometheus 指标
  /check-api-key  检查当前模型提供方是否已配置凭据`,
		Example: `  # 供本地智能体通过 stdio 调用
  cloudarchitect serve

  # HTTP 服务
  cloudarchitect serve --http --addr 127.0.0.1:8787`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := a.services()
			if err != nil {
				return err
			}
			srv, err := mcpserver.NewServer(nil, sessions, a.log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if !useHTTP {
				return srv.Run(ctx)
			}
			return a.serveHTTP(ctx, httpAddr, srv)
		},
	}
	cmd.Flags().BoolVar(&useHTTP, "http", false, "使用 streamable HTTP 传输")
	cmd.Flags().StringVar(&httpAddr, "addr", a.cfg.Server.HTTPAddr, "HTTP 监听地址")
	return cmd
}

// serveHTTP 运行 HTTP 服务直到 ctx 取消
func (a *app) serveHTTP(ctx context.Context, addr string, srv *mcpserver.Server) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", srv.Handler())
	mux.Handle("/metrics", a.recorder.Handler())
	mux.HandleFunc("/check-api-key", a.checkAPIKey)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("HTTP 服务监听于 %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("正在关闭 HTTP 服务")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// checkAPIKey 返回 {"success": bool}，表示当前模型提供方的凭据是否可用
func (a *app) checkAPIKey(w http.ResponseWriter, r *http.Request) {
	provider := credentials.Provider(a.cfg.LLM.Provider)
	ok := provider.IsValid() && credentials.GetDefaultManager().HasCredentials(provider)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"success": ok})
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lucksec/cloudarchitect/internal/config"
	"github.com/lucksec/cloudarchitect/internal/logger"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志系统
	log, err := logger.InitLogger(&logger.Config{
		Level:         logger.ParseLevel(cfg.Log.Level),
		EnableConsole: cfg.Log.EnableConsole,
		EnableFile:    cfg.Log.EnableFile,
		LogDir:        cfg.Log.LogDir,
		LogFile:       cfg.Log.LogFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志系统失败: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Debug("配置加载成功: ConfigPath=%q, DataDir=%s, LLM=%s/%s, Store=%s",
		cfg.ConfigPath, cfg.DataDir, cfg.LLM.Provider, cfg.LLM.Model, cfg.Session.Store)

	a := newApp(cfg, log)
	defer a.Close()

	rootCmd := newRootCmd(a)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "执行命令失败: %v\n", err)
		a.Close()
		os.Exit(1)
	}
}

// newRootCmd 组装命令树
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cloudarchitect",
		Short: "cloudarchitect 是一个多云架构设计助手",
		Long: `cloudarchitect 通过对话收集工作负载需求，并用大模型生成候选云架构方案。

可以在交互式对话中使用，也可以作为 MCP 服务接入其他智能体。`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&a.cfg.LLM.Provider, "provider", a.cfg.LLM.Provider, "模型提供方 (gemini, openai, anthropic, ollama)")
	rootCmd.PersistentFlags().StringVar(&a.cfg.LLM.Model, "model", a.cfg.LLM.Model, "模型名称，为空时使用提供方默认模型")

	rootCmd.AddCommand(newChatCmd(a))
	rootCmd.AddCommand(workloadCmd(a))
	rootCmd.AddCommand(architectureCmd(a))
	rootCmd.AddCommand(sessionCmd(a))
	rootCmd.AddCommand(credentialCmd())
	rootCmd.AddCommand(serveCmd(a))

	// 设置自动补全
	setupCompletion(rootCmd)
	setupDynamicCompletion(rootCmd, a)

	return rootCmd
}

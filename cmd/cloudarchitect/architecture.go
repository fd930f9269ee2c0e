package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lucksec/cloudarchitect/internal/service"
)

// architectureCmd 架构方案命令组
func architectureCmd(a *app) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:     "architecture",
		Aliases: []string{"arch"},
		Short:   "架构方案生成与查看",
	}
	cmd.PersistentFlags().StringVarP(&sessionID, "session", "s", defaultCLISession, "会话 ID")

	cmd.AddCommand(generateArchitectureCmd(a, &sessionID))
	cmd.AddCommand(showArchitectureCmd(a, &sessionID))
	return cmd
}

// generateArchitectureCmd 生成架构方案
func generateArchitectureCmd(a *app, sessionID *string) *cobra.Command {
	var (
		custom bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "生成候选架构方案",
		Long: `调用模型生成 2-3 个候选架构方案。

默认使用默认工作负载；--custom 使用 'workload update' 保存的需求。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(os.Stderr, "正在生成架构方案...")
			res, err := a.invoke(cmd.Context(), *sessionID, service.ToolGeneratePlans, service.GeneratePlansInput{
				UseDefaultWorkload: boolPtr(!custom),
			})
			if err != nil {
				return err
			}
			out := res.(*service.GeneratePlansResult)
			if output != outputText {
				return printValue(os.Stdout, output, out)
			}

			fmt.Printf("生成了 %d 个架构方案:\n\n", out.Count)
			printArchitectures(os.Stdout, out.Architectures)
			return nil
		},
	}
	cmd.Flags().BoolVar(&custom, "custom", false, "使用会话中保存的自定义需求")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "输出格式 (text, json, yaml)")
	return cmd
}

// showArchitectureCmd 查看最近一次生成的方案
func showArchitectureCmd(a *app, sessionID *string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "查看会话中最近一次生成的架构方案",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := a.services()
			if err != nil {
				return err
			}
			sess, err := sessions.Get(cmd.Context(), *sessionID)
			if err != nil {
				return err
			}
			if output != outputText {
				return printValue(os.Stdout, output, sess.ProjectState.Architectures)
			}

			fmt.Printf("会话 %s (阶段: %s)\n\n", sess.ID, sess.ProjectState.Phase)
			printArchitectures(os.Stdout, sess.ProjectState.Architectures)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "输出格式 (text, json, yaml)")
	return cmd
}

func boolPtr(b bool) *bool { return &b }

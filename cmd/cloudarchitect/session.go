package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// sessionCmd 会话管理命令组
func sessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "会话管理命令",
	}
	cmd.AddCommand(listSessionsCmd(a))
	cmd.AddCommand(showSessionCmd(a))
	cmd.AddCommand(resetSessionCmd(a))
	cmd.AddCommand(deleteSessionCmd(a))
	return cmd
}

// listSessionsCmd 列出会话
func listSessionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "列出所有会话",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := a.services()
			if err != nil {
				return err
			}
			list, err := sessions.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("没有找到会话")
				return nil
			}

			fmt.Println("会话列表:")
			for _, s := range list {
				fmt.Printf("  - %-38s %-26s %d 个方案, %d 条消息, 更新于 %s\n",
					s.ID, s.Phase, s.Architectures, s.Messages, s.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

// showSessionCmd 查看会话状态
func showSessionCmd(a *app) *cobra.Command {
	var (
		output   string
		messages bool
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "查看会话状态",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := a.services()
			if err != nil {
				return err
			}
			sess, err := sessions.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !messages {
				sess.Messages = nil
			}
			if output == outputText {
				output = outputYAML
			}
			return printValue(os.Stdout, output, sess)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputYAML, "输出格式 (json, yaml)")
	cmd.Flags().BoolVar(&messages, "messages", false, "包含对话记录")
	return cmd
}

// resetSessionCmd 重置会话
func resetSessionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <id>",
		Short: "把会话恢复为初始状态",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := a.services()
			if err != nil {
				return err
			}
			if _, err := sessions.Reset(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("会话 %s 已重置\n", args[0])
			return nil
		},
	}
}

// deleteSessionCmd 删除会话
func deleteSessionCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "删除会话",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := a.services()
			if err != nil {
				return err
			}

			if !yes {
				fmt.Printf("确认删除会话 %s? (yes/no): ", args[0])
				var confirm string
				fmt.Scanln(&confirm)
				confirm = strings.ToLower(confirm)
				if confirm != "yes" && confirm != "y" {
					fmt.Println("已取消")
					return nil
				}
			}

			if err := sessions.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("会话 %s 已删除\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "不再确认")
	return cmd
}

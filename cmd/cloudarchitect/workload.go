package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lucksec/cloudarchitect/internal/service"
)

// defaultCLISession 命令行未指定会话时使用的会话
const defaultCLISession = "cli"

// workloadCmd 工作负载命令组
func workloadCmd(a *app) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "workload",
		Short: "工作负载需求管理",
	}
	cmd.PersistentFlags().StringVarP(&sessionID, "session", "s", defaultCLISession, "会话 ID")

	cmd.AddCommand(showWorkloadCmd(a, &sessionID))
	cmd.AddCommand(updateWorkloadCmd(a, &sessionID))
	return cmd
}

// showWorkloadCmd 显示默认工作负载
func showWorkloadCmd(a *app, sessionID *string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "显示会话的默认工作负载",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.invoke(cmd.Context(), *sessionID, service.ToolShowDefaultWorkload, nil)
			if err != nil {
				return err
			}
			out := res.(*service.ShowDefaultWorkloadResult)
			if output != outputText {
				return printValue(os.Stdout, output, out)
			}

			fmt.Print(out.Message)
			printWorkload(os.Stdout, out.Workload)
			fmt.Println()
			fmt.Println(out.Question)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "输出格式 (text, json, yaml)")
	return cmd
}

// updateWorkloadCmd 更新工作负载需求
func updateWorkloadCmd(a *app, sessionID *string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "update <field=value>...",
		Short: "更新工作负载需求",
		Long: `更新会话的工作负载需求。未提供的字段使用默认工作负载的值。

字段: title, description, monthlyRequests, dataPerRequestKB, latencySensitivity,
      dataResidency, sensitivity, complexity, style`,
		Example: `  # 每月 500 万请求，数据驻留在欧盟
  cloudarchitect workload update monthlyRequests=5000000 dataResidency=eu`,
		RunE: func(cmd *cobra.Command, args []string) error {
			update, err := parseAssignments(args)
			if err != nil {
				return err
			}
			res, err := a.invoke(cmd.Context(), *sessionID, service.ToolUpdateWorkload, update)
			if err != nil {
				return err
			}
			out := res.(*service.UpdateWorkloadResult)
			if output != outputText {
				return printValue(os.Stdout, output, out)
			}

			fmt.Println("工作负载需求已更新:")
			printWorkload(os.Stdout, out.Requirements)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "输出格式 (text, json, yaml)")
	return cmd
}

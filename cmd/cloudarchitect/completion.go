package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lucksec/cloudarchitect/internal/credentials"
	"github.com/lucksec/cloudarchitect/internal/domain"
)

// 动态补全函数

// completeSessions 补全会话 ID
func completeSessions(a *app) func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		sessions, err := a.services()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		list, err := sessions.List(context.Background())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		var completions []string
		for _, s := range list {
			if strings.HasPrefix(s.ID, toComplete) {
				// 显示格式：ID\t[阶段] N 个方案
				completions = append(completions, fmt.Sprintf("%s\t[%s] %d 个方案", s.ID, s.Phase, s.Architectures))
			}
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeProviders 补全模型提供方
func completeProviders(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var completions []string
	for _, p := range credentials.AllProviders {
		if strings.HasPrefix(string(p), toComplete) {
			completions = append(completions, fmt.Sprintf("%s\t%s", p, p.DisplayName()))
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeWorkloadFields 补全 field=value 参数
func completeWorkloadFields(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	key, _, hasValue := strings.Cut(toComplete, "=")
	if !hasValue {
		var completions []string
		for _, name := range domain.WorkloadFieldNames {
			if strings.HasPrefix(strings.ToLower(name), strings.ToLower(toComplete)) {
				completions = append(completions, name+"=")
			}
		}
		return completions, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
	}

	var values []string
	switch workloadFields[strings.ToLower(key)] {
	case "latencySensitivity":
		values = enumStrings(domain.LatencySensitivities)
	case "dataResidency":
		values = enumStrings(domain.DataResidencies)
	case "sensitivity":
		values = enumStrings(domain.Sensitivities)
	case "complexity":
		values = enumStrings(domain.Complexities)
	case "style":
		values = enumStrings(domain.ArchitectureStyles)
	}

	var completions []string
	for _, v := range values {
		if c := key + "=" + v; strings.HasPrefix(c, toComplete) {
			completions = append(completions, c)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeOutputFormats 补全 --output
func completeOutputFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return outputFormats, cobra.ShellCompDirectiveNoFileComp
}

// setupDynamicCompletion 设置动态补全
func setupDynamicCompletion(rootCmd *cobra.Command, a *app) {
	for _, path := range [][]string{
		{"session", "show"},
		{"session", "reset"},
		{"session", "delete"},
	} {
		if cmd := findCommand(rootCmd, path...); cmd != nil {
			cmd.ValidArgsFunction = completeSessions(a)
		}
	}

	for _, path := range [][]string{
		{"credential", "set"},
		{"credential", "get"},
		{"credential", "remove"},
	} {
		if cmd := findCommand(rootCmd, path...); cmd != nil {
			cmd.ValidArgsFunction = completeProviders
		}
	}

	if cmd := findCommand(rootCmd, "workload", "update"); cmd != nil {
		cmd.ValidArgsFunction = completeWorkloadFields
	}

	_ = rootCmd.RegisterFlagCompletionFunc("provider", completeProviders)

	// --session 和 --output 标志
	var walk func(cmd *cobra.Command)
	walk = func(cmd *cobra.Command) {
		if cmd.Flags().Lookup("output") != nil {
			_ = cmd.RegisterFlagCompletionFunc("output", completeOutputFormats)
		}
		if cmd.PersistentFlags().Lookup("session") != nil || cmd.LocalNonPersistentFlags().Lookup("session") != nil {
			_ = cmd.RegisterFlagCompletionFunc("session", completeSessions(a))
		}
		for _, sub := range cmd.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}

// findCommand 按路径查找子命令
func findCommand(root *cobra.Command, path ...string) *cobra.Command {
	cmd := root
	for _, name := range path {
		var next *cobra.Command
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				next = sub
				break
			}
		}
		if next == nil {
			return nil
		}
		cmd = next
	}
	return cmd
}

// setupCompletion 设置自动补全命令
func setupCompletion(rootCmd *cobra.Command) {
	completionCmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "生成自动补全脚本",
		Long: `生成指定 shell 的自动补全脚本。

支持的 shell: bash, zsh, fish, powershell

安装方法:

Bash:
  $ source <(cloudarchitect completion bash)

Zsh:
  $ source <(cloudarchitect completion zsh)

Fish:
  $ cloudarchitect completion fish | source

PowerShell:
  $ cloudarchitect completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(os.Stdout)
			case "zsh":
				return rootCmd.GenZshCompletion(os.Stdout)
			case "fish":
				return rootCmd.GenFishCompletion(os.Stdout, true)
			case "powershell":
				return rootCmd.GenPowerShellCompletion(os.Stdout)
			}
			return nil
		},
	}

	rootCmd.AddCommand(completionCmd)
}

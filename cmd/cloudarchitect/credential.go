package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lucksec/cloudarchitect/internal/credentials"
)

// credentialCmd 凭据管理命令组
func credentialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "模型服务凭据管理",
		Long: `管理模型服务的 API Key 和服务地址。

支持以下提供方:
  - gemini: Google Gemini
  - openai: OpenAI
  - anthropic: Anthropic
  - ollama: Ollama（本地服务，只需要服务地址）

凭据可以存储在配置文件中，也可以从环境变量读取
（GEMINI_API_KEY、OPENAI_API_KEY、ANTHROPIC_API_KEY、OLLAMA_HOST 等）。
环境变量优先级低于配置文件。`,
	}

	cmd.AddCommand(listCredentialsCmd())
	cmd.AddCommand(setCredentialCmd())
	cmd.AddCommand(getCredentialCmd())
	cmd.AddCommand(removeCredentialCmd())

	return cmd
}

// parseProvider 校验提供方名称
func parseProvider(s string) (credentials.Provider, error) {
	provider := credentials.Provider(strings.ToLower(s))
	if !provider.IsValid() {
		names := make([]string, 0, len(credentials.AllProviders))
		for _, p := range credentials.AllProviders {
			names = append(names, string(p))
		}
		return "", fmt.Errorf("无效的提供方: %s。支持的提供方: %s", s, strings.Join(names, ", "))
	}
	return provider, nil
}

// printCredentials 打印凭据，API Key 只显示首尾
func printCredentials(indent string, creds *credentials.Credentials) {
	if creds.APIKey != "" {
		fmt.Printf("%sAPI Key: %s\n", indent, maskSecretForCLI(creds.APIKey))
	}
	if creds.BaseURL != "" {
		fmt.Printf("%sBase URL: %s\n", indent, creds.BaseURL)
	}
}

// listCredentialsCmd 列出所有已配置的凭据
func listCredentialsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "列出所有已配置的凭据",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := credentials.GetDefaultManager()
			providers := manager.ListProviders()

			if len(providers) == 0 {
				fmt.Println("未配置任何凭据")
				fmt.Println("\n提示: 使用 'cloudarchitect credential set <provider>' 配置凭据")
				return nil
			}

			fmt.Println("已配置的模型服务凭据:")
			fmt.Println()
			for _, provider := range providers {
				creds, err := manager.GetCredentials(provider)
				if err != nil {
					fmt.Printf("  %s (%s): 获取失败 - %v\n", provider.DisplayName(), provider, err)
					continue
				}
				fmt.Printf("  %s (%s):\n", provider.DisplayName(), provider)
				printCredentials("    ", creds)
				fmt.Println()
			}
			return nil
		},
	}
}

// setCredentialCmd 设置凭据
func setCredentialCmd() *cobra.Command {
	var apiKey, baseURL string

	cmd := &cobra.Command{
		Use:   "set <provider>",
		Short: "设置模型服务凭据",
		Example: `  # 交互式设置（会提示输入）
  cloudarchitect credential set gemini

  # 通过参数设置
  cloudarchitect credential set openai --api-key sk-... --base-url https://api.openai.com/v1

  # 本地 Ollama
  cloudarchitect credential set ollama --base-url http://localhost:11434`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := parseProvider(args[0])
			if err != nil {
				return err
			}

			if apiKey == "" && provider.RequiresAPIKey() {
				fmt.Printf("请输入 %s 的 API Key: ", provider.DisplayName())
				fmt.Scanln(&apiKey)
			}
			if provider.RequiresAPIKey() && apiKey == "" {
				return fmt.Errorf("API Key 不能为空")
			}
			if !provider.RequiresAPIKey() && apiKey == "" && baseURL == "" {
				baseURL = credentials.DefaultOllamaURL
			}

			manager := credentials.GetDefaultManager()
			if err := manager.SetCredentials(provider, &credentials.Credentials{
				APIKey:  apiKey,
				BaseURL: baseURL,
			}); err != nil {
				return fmt.Errorf("设置凭据失败: %w", err)
			}

			fmt.Printf("%s 凭据设置成功\n", provider.DisplayName())
			return nil
		},
	}

	cmd.Flags().StringVarP(&apiKey, "api-key", "k", "", "API Key")
	cmd.Flags().StringVarP(&baseURL, "base-url", "u", "", "自定义服务地址（可选）")
	return cmd
}

// getCredentialCmd 获取凭据
func getCredentialCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <provider>",
		Short: "获取模型服务凭据",
		Long:  "显示指定提供方的凭据信息（API Key 会被隐藏）。",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := parseProvider(args[0])
			if err != nil {
				return err
			}

			manager := credentials.GetDefaultManager()
			if !manager.HasCredentials(provider) {
				return fmt.Errorf("未配置 %s 的凭据", provider.DisplayName())
			}
			creds, err := manager.GetCredentials(provider)
			if err != nil {
				return fmt.Errorf("获取凭据失败: %w", err)
			}

			fmt.Printf("%s 凭据信息:\n", provider.DisplayName())
			printCredentials("  ", creds)
			return nil
		},
	}
}

// removeCredentialCmd 删除凭据
func removeCredentialCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove <provider>",
		Short: "删除模型服务凭据",
		Long:  "从配置文件中删除指定提供方的凭据，环境变量不受影响。",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := parseProvider(args[0])
			if err != nil {
				return err
			}

			if !yes {
				fmt.Printf("确认删除 %s 的凭据? (yes/no): ", provider.DisplayName())
				var confirm string
				fmt.Scanln(&confirm)
				confirm = strings.ToLower(confirm)
				if confirm != "yes" && confirm != "y" {
					fmt.Println("已取消")
					return nil
				}
			}

			manager := credentials.GetDefaultManager()
			if err := manager.RemoveCredentials(provider); err != nil {
				return fmt.Errorf("删除凭据失败: %w", err)
			}
			fmt.Printf("%s 凭据已删除\n", provider.DisplayName())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "不再确认")
	return cmd
}

// maskSecretForCLI 隐藏密钥（只显示前4位和后4位）
func maskSecretForCLI(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****" + secret[len(secret)-4:]
}

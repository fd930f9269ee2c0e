package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"

	"github.com/lucksec/cloudarchitect/internal/domain"
	"github.com/lucksec/cloudarchitect/internal/service"
)

// console 交互式对话控制台
// 普通输入发送给模型，以 / 开头的输入是本地命令
type console struct {
	app       *app
	ctx       context.Context
	sessionID string
}

// newChatCmd 创建对话命令
func newChatCmd(a *app) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "进入交互式对话",
		Long: `与架构助手对话：描述你的工作负载，助手会确认需求并生成候选架构方案。

进入对话后，可使用本地命令:
  /default                 显示默认工作负载
  /update <field=value>... 更新工作负载需求
  /generate [--custom]     生成架构方案
  /state [json|yaml]       查看会话状态
  /reset                   重置会话
  /help                    显示帮助
  /exit                    退出`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := a.services()
			if err != nil {
				return err
			}
			if sessionID == "" {
				sess, err := sessions.Create(cmd.Context())
				if err != nil {
					return err
				}
				sessionID = sess.ID
			}

			c := &console{app: a, ctx: cmd.Context(), sessionID: sessionID}
			return c.run()
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "继续已有会话，为空时新建")
	return cmd
}

// run 启动对话主循环（带 Tab 补全）
func (c *console) run() error {
	c.printWelcome()

	p := prompt.New(
		c.executor,
		c.completer,
		prompt.OptionPrefix("architect> "),
		prompt.OptionTitle("cloudarchitect chat"),
		prompt.OptionSuggestionBGColor(prompt.DarkGray),
		prompt.OptionSuggestionTextColor(prompt.White),
		prompt.OptionSelectedSuggestionBGColor(prompt.Blue),
		prompt.OptionSelectedSuggestionTextColor(prompt.White),
	)

	// Run 会阻塞，直到用户退出（Ctrl+D）
	p.Run()
	fmt.Println("\n已退出对话。")
	return nil
}

// executor 执行单行输入
func (c *console) executor(in string) {
	line := strings.TrimSpace(in)
	if line == "" {
		return
	}

	var err error
	if strings.HasPrefix(line, "/") {
		err = c.handleCommand(line)
	} else {
		err = c.send(line)
	}
	if err != nil {
		fmt.Printf("错误: %v\n", err)
	}
}

// send 把用户消息交给模型
func (c *console) send(text string) error {
	chat, err := c.app.chatService()
	if err != nil {
		return err
	}

	fmt.Println("思考中...")
	reply, err := chat.Send(c.ctx, c.sessionID, text)
	if errors.Is(err, service.ErrMaxSteps) {
		return fmt.Errorf("模型连续调用工具次数过多，请换个说法再试")
	}
	if err != nil {
		return err
	}

	for _, call := range reply.ToolCalls {
		fmt.Printf("  [工具] %s\n", call.Name)
	}
	fmt.Println()
	fmt.Println(reply.Content)
	fmt.Println()
	return nil
}

// completer 提供 Tab 补全
func (c *console) completer(d prompt.Document) []prompt.Suggest {
	text := d.TextBeforeCursor()
	if !strings.HasPrefix(text, "/") {
		return nil
	}
	parts := strings.Fields(text)

	current := ""
	if !strings.HasSuffix(text, " ") && len(parts) > 0 {
		current = parts[len(parts)-1]
	}

	if len(parts) <= 1 && current != "" {
		return filterSuggestions(commandSuggestions, current)
	}

	switch parts[0] {
	case "/update":
		return c.completeUpdate(current)
	case "/generate":
		return filterSuggestions([]prompt.Suggest{{Text: "--custom", Description: "使用已保存的自定义需求"}}, current)
	case "/state":
		return filterSuggestions([]prompt.Suggest{
			{Text: outputYAML, Description: "YAML 格式"},
			{Text: outputJSON, Description: "JSON 格式"},
		}, current)
	}
	return nil
}

var commandSuggestions = []prompt.Suggest{
	{Text: "/default", Description: "显示默认工作负载"},
	{Text: "/update", Description: "更新工作负载需求 field=value ..."},
	{Text: "/generate", Description: "生成架构方案"},
	{Text: "/state", Description: "查看会话状态"},
	{Text: "/reset", Description: "重置会话"},
	{Text: "/help", Description: "显示帮助"},
	{Text: "/exit", Description: "退出对话"},
}

// completeUpdate 补全字段名和枚举取值
func (c *console) completeUpdate(current string) []prompt.Suggest {
	key, _, hasValue := strings.Cut(current, "=")
	if !hasValue {
		suggestions := make([]prompt.Suggest, 0, len(domain.WorkloadFieldNames))
		for _, name := range domain.WorkloadFieldNames {
			suggestions = append(suggestions, prompt.Suggest{Text: name + "="})
		}
		return filterSuggestions(suggestions, current)
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

	suggestions := make([]prompt.Suggest, 0, len(values))
	for _, v := range values {
		suggestions = append(suggestions, prompt.Suggest{Text: key + "=" + v})
	}
	return filterSuggestions(suggestions, current)
}

func enumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func filterSuggestions(suggestions []prompt.Suggest, current string) []prompt.Suggest {
	var res []prompt.Suggest
	for _, s := range suggestions {
		if strings.HasPrefix(strings.ToLower(s.Text), strings.ToLower(current)) {
			res = append(res, s)
		}
	}
	return res
}

// printWelcome 打印欢迎信息
func (c *console) printWelcome() {
	fmt.Println("╔═════════════════════════════════════════════════════════╗")
	fmt.Println("║            cloudarchitect 架构助手                      ║")
	fmt.Println("╚═════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("会话: %s\n", c.sessionID)
	fmt.Println("提示: 直接输入你的需求开始对话，输入 '/help' 查看本地命令，'/exit' 退出")
	fmt.Println()
}

// handleCommand 处理本地命令
func (c *console) handleCommand(line string) error {
	parts := strings.Fields(line)

	switch parts[0] {
	case "/help", "/h", "/?":
		c.printHelp()
		return nil
	case "/exit", "/quit", "/q":
		fmt.Println("退出对话。")
		c.app.Close()
		os.Exit(0)
	case "/default":
		return c.cmdDefault()
	case "/update":
		return c.cmdUpdate(parts[1:])
	case "/generate":
		custom := len(parts) > 1 && parts[1] == "--custom"
		return c.cmdGenerate(custom)
	case "/state":
		format := outputYAML
		if len(parts) > 1 {
			format = parts[1]
		}
		return c.cmdState(format)
	case "/reset":
		return c.cmdReset()
	default:
		fmt.Println("未知命令。输入 '/help' 查看支持的命令。")
	}
	return nil
}

func (c *console) cmdDefault() error {
	res, err := c.app.invoke(c.ctx, c.sessionID, service.ToolShowDefaultWorkload, nil)
	if err != nil {
		return err
	}
	out := res.(*service.ShowDefaultWorkloadResult)
	fmt.Print(out.Message)
	printWorkload(os.Stdout, out.Workload)
	fmt.Println()
	fmt.Println(out.Question)
	return nil
}

func (c *console) cmdUpdate(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("用法: /update <field=value>...")
	}
	update, err := parseAssignments(args)
	if err != nil {
		return err
	}
	res, err := c.app.invoke(c.ctx, c.sessionID, service.ToolUpdateWorkload, update)
	if err != nil {
		return err
	}
	fmt.Println("工作负载需求已更新:")
	printWorkload(os.Stdout, res.(*service.UpdateWorkloadResult).Requirements)
	return nil
}

func (c *console) cmdGenerate(custom bool) error {
	fmt.Println("正在生成架构方案...")
	res, err := c.app.invoke(c.ctx, c.sessionID, service.ToolGeneratePlans, service.GeneratePlansInput{
		UseDefaultWorkload: boolPtr(!custom),
	})
	if err != nil {
		return err
	}
	out := res.(*service.GeneratePlansResult)
	fmt.Printf("生成了 %d 个架构方案:\n\n", out.Count)
	printArchitectures(os.Stdout, out.Architectures)
	return nil
}

func (c *console) cmdState(format string) error {
	sessions, err := c.app.services()
	if err != nil {
		return err
	}
	sess, err := sessions.GetOrCreate(c.ctx, c.sessionID)
	if err != nil {
		return err
	}
	return printValue(os.Stdout, format, sess.ProjectState)
}

func (c *console) cmdReset() error {
	sessions, err := c.app.services()
	if err != nil {
		return err
	}
	if _, err := sessions.Reset(c.ctx, c.sessionID); err != nil {
		return err
	}
	fmt.Println("会话已重置")
	return nil
}

// printHelp 打印帮助
func (c *console) printHelp() {
	fmt.Println("可用命令:")
	fmt.Println("  /help                         显示本帮助")
	fmt.Println("  /exit | /quit                 退出对话")
	fmt.Println()
	fmt.Println("  /default                      显示默认工作负载")
	fmt.Println("  /update <field=value>...      更新工作负载需求，未提供的字段使用默认值")
	fmt.Println("  /generate [--custom]          生成架构方案（--custom 使用已保存的需求）")
	fmt.Println("  /state [json|yaml]            查看会话状态")
	fmt.Println("  /reset                        重置会话")
	fmt.Println()
	fmt.Printf("字段: %s\n", strings.Join(domain.WorkloadFieldNames, ", "))
	fmt.Println()
	fmt.Println("提示: 其它输入会发送给助手，例如 \"我要做一个面向欧洲用户的聊天应用\"。")
}

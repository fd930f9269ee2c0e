package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lucksec/cloudarchitect/internal/domain"
)

// 输出格式
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

var outputFormats = []string{outputText, outputJSON, outputYAML}

// printValue 以 json 或 yaml 输出任意值
func printValue(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML, outputText, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("不支持的输出格式: %s (可选: %s)", format, strings.Join(outputFormats, ", "))
	}
}

// printWorkload 打印工作负载需求
func printWorkload(w io.Writer, req domain.WorkloadRequirements) {
	fmt.Fprintf(w, "  标题:         %s\n", req.Title)
	fmt.Fprintf(w, "  描述:         %s\n", req.Description)
	fmt.Fprintf(w, "  每月请求数:   %d\n", req.MonthlyRequests)
	fmt.Fprintf(w, "  单次数据量:   %g KB\n", req.DataPerRequestKB)
	fmt.Fprintf(w, "  延迟敏感度:   %s\n", req.LatencySensitivity)
	fmt.Fprintf(w, "  数据驻留:     %s\n", req.DataResidency)
	fmt.Fprintf(w, "  优化侧重:     %s\n", req.Sensitivity)
	fmt.Fprintf(w, "  复杂度:       %s\n", req.Complexity)
	fmt.Fprintf(w, "  架构风格:     %s\n", req.Style)
}

// printArchitectures 打印架构方案
func printArchitectures(w io.Writer, options []domain.ArchitectureOption) {
	if len(options) == 0 {
		fmt.Fprintln(w, "还没有生成架构方案")
		return
	}
	for i, opt := range options {
		fmt.Fprintf(w, "[%d] %s (%s)\n", i+1, opt.Name, opt.ID)
		if opt.Summary != "" {
			fmt.Fprintf(w, "    %s\n", opt.Summary)
		}
		for _, c := range opt.Components {
			fmt.Fprintf(w, "    - %-16s %-14s %-11s %s\n", c.ID, c.Kind, c.Provider, c.Name)
			if len(c.Config) > 0 {
				fmt.Fprintf(w, "      %s\n", formatConfig(c.Config))
			}
		}
		fmt.Fprintln(w)
	}
}

// formatConfig 按键排序输出组件配置
func formatConfig(cfg map[string]any) string {
	keys := make([]string, 0, len(cfg))
	for k := range cfg {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, err := json.Marshal(cfg[k])
		if err != nil {
			v = []byte(fmt.Sprint(cfg[k]))
		}
		parts = append(parts, fmt.Sprintf("%s=%s", k, v))
	}
	return strings.Join(parts, " ")
}

// workloadFields 小写字段名到 JSON 字段名
var workloadFields = func() map[string]string {
	m := make(map[string]string, len(domain.WorkloadFieldNames))
	for _, name := range domain.WorkloadFieldNames {
		m[strings.ToLower(name)] = name
	}
	return m
}()

// parseAssignments 把 key=value 参数转换为 updateWorkloadRequirements 的参数
//
// 字段名不区分大小写，数值字段按数字解析，其余按字符串传递，枚举值由工具校验。
func parseAssignments(args []string) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("参数格式应为 key=value: %s", arg)
		}
		field, known := workloadFields[strings.ToLower(strings.TrimSpace(key))]
		if !known {
			return nil, fmt.Errorf("未知字段 %q (可选: %s)", key, strings.Join(domain.WorkloadFieldNames, ", "))
		}
		value = strings.TrimSpace(value)

		switch field {
		case "monthlyRequests":
			n, err := strconv.ParseInt(strings.ReplaceAll(value, "_", ""), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%s 必须是整数: %s", field, value)
			}
			out[field] = n
		case "dataPerRequestKB":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("%s 必须是数字: %s", field, value)
			}
			out[field] = f
		default:
			out[field] = value
		}
	}
	return out, nil
}

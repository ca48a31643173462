package plugin

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/samber/lo"
)

// FormatHelpText 为所有注册的生成器生成帮助文本
// 参数列按显示宽度对齐，描述中可以包含中文
func FormatHelpText(registry *Registry) string {
	generators := registry.Generators()
	if len(generators) == 0 {
		return "  (暂无已注册的生成器)\n"
	}

	var sb strings.Builder
	for _, gen := range generators {
		annotations := gen.Annotations()
		if len(annotations) == 0 {
			continue
		}
		mainAnnotation := annotations[0]

		fmt.Fprintf(&sb, "  @%s - %s\n", mainAnnotation, gen.Name())
		sb.WriteString("    参数:\n")

		params := gen.ParamDefs()
		if !lo.ContainsBy(params, func(p ParamDef) bool { return p.Name == "output" }) {
			params = append([]ParamDef{{Name: "output", Description: "输出文件路径（支持 $FILE、$PACKAGE）"}}, params...)
		}

		heads := lo.Map(params, func(p ParamDef, _ int) string { return paramHead(p) })
		width := lo.Max(lo.Map(heads, func(h string, _ int) int { return runewidth.StringWidth(h) }))
		for i, p := range params {
			fmt.Fprintf(&sb, "      %s  %s\n", runewidth.FillRight(heads[i], width), p.Description)
		}

		sb.WriteString("    示例:\n")
		fmt.Fprintf(&sb, "      @%s\n", mainAnnotation)
		fmt.Fprintf(&sb, "      @%s(output=$FILE_fixture)\n", mainAnnotation)
		for _, p := range lo.Slice(gen.ParamDefs(), 0, 2) {
			if p.Default != "" {
				fmt.Fprintf(&sb, "      @%s(%s=%s)\n", mainAnnotation, p.Name, p.Default)
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func paramHead(p ParamDef) string {
	head := p.Name
	if p.Required {
		head += " (必填)"
	}
	if p.Default != "" {
		head += fmt.Sprintf(" [默认: %s]", p.Default)
	}
	return head
}

// FormatParamDef 格式化单个参数定义
func FormatParamDef(param ParamDef) string {
	parts := []string{param.Name}

	if param.Required {
		parts = append(parts, "required")
	} else {
		parts = append(parts, "optional")
	}
	if param.Default != "" {
		parts = append(parts, "default="+param.Default)
	}
	if param.Description != "" {
		parts = append(parts, param.Description)
	}

	return strings.Join(parts, ", ")
}

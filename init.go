package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/donutnomad/gofixture/plugin"
)

// configTemplate gofixture.yaml 模板
const configTemplate = `# gofixture 配置，由 gofixture init 生成于 {{ now | date "2006-01-02" }}
# 命令行参数 > 环境变量 GOFIXTURE_* > 本文件

# 默认输出路径，支持 $FILE、$PACKAGE；为空时每个包输出到 fixture_gen.go
output: {{ .Output | quote }}
verbose: {{ .Verbose }}
async: {{ .Async }}
# dev 模式的防抖动时间
debounce: {{ .Debounce | quote }}
# 统计信息格式: text|json
stats: {{ .Stats | default "text" }}
{{- if .Generators }}

# 已注册的生成器:
{{- range .Generators }}
#   @{{ .Annotation }} ({{ .Name }}){{ if .Params }} 参数: {{ .Params | join ", " }}{{ end }}
{{- end }}
{{- end }}
`

type generatorView struct {
	Name       string
	Annotation string
	Params     []string
}

type configView struct {
	Output     string
	Verbose    bool
	Async      bool
	Debounce   string
	Stats      string
	Generators []generatorView
}

// renderConfig 按当前配置渲染 gofixture.yaml
func renderConfig(cfg *Config, registry *plugin.Registry) ([]byte, error) {
	tmpl, err := template.New(configName).Funcs(sprig.TxtFuncMap()).Parse(configTemplate)
	if err != nil {
		return nil, fmt.Errorf("解析配置模板失败: %w", err)
	}

	view := configView{
		Output:   cfg.Output,
		Verbose:  cfg.Verbose,
		Async:    cfg.Async,
		Debounce: cfg.Debounce.String(),
		Stats:    cfg.Stats,
	}
	for _, gen := range registry.Generators() {
		anns := gen.Annotations()
		if len(anns) == 0 {
			continue
		}
		view.Generators = append(view.Generators, generatorView{
			Name:       gen.Name(),
			Annotation: anns[0],
			Params:     lo.Map(gen.ParamDefs(), func(p plugin.ParamDef, _ int) string { return p.Name }),
		})
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("渲染配置模板失败: %w", err)
	}
	return buf.Bytes(), nil
}

func newInitCmd(registry *plugin.Registry) *cobra.Command {
	var (
		dir   string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "在当前目录生成 gofixture.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(dir, configName+".yaml")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s 已存在，使用 --force 覆盖", path)
			}

			// 已有的配置文件不参与，只取命令行参数和环境变量
			cfg, err := loadConfig(cmd.Flags(), "")
			if err != nil {
				return err
			}
			data, err := renderConfig(cfg, registry)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0644); err != nil {
				return fmt.Errorf("写入 %s 失败: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已生成 %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "配置文件所在目录")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "覆盖已存在的配置文件")
	cmd.Flags().Duration("debounce", time.Second, "写入配置的防抖动时间")
	return cmd
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/donutnomad/gofixture/buildergen"
	"github.com/donutnomad/gofixture/membergen"
	"github.com/donutnomad/gofixture/plugin"
)

func init() {
	// 集中注册所有生成器
	plugin.MustRegister(membergen.NewMemberGenerator())
	plugin.MustRegister(buildergen.NewBuilderGenerator())
}

// Config 命令行配置
// 优先级：命令行参数 > 环境变量 GOFIXTURE_* > gofixture.yaml > 默认值
type Config struct {
	Output   string
	Verbose  bool
	Async    bool
	Debounce time.Duration
	Stats    string // text|json
}

const configName = "gofixture"

// loadConfig 从 dir 下的 gofixture.yaml、环境变量和命令行参数加载配置
// dir 为空时不读取配置文件
func loadConfig(flags *pflag.FlagSet, dir string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GOFIXTURE")
	v.AutomaticEnv()

	v.SetDefault("async", true)
	v.SetDefault("debounce", time.Second)
	v.SetDefault("stats", "text")

	if dir != "" {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("读取 %s.yaml 失败: %w", configName, err)
			}
		}
	}
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("绑定命令行参数失败: %w", err)
		}
	}

	cfg := &Config{
		Output:   v.GetString("output"),
		Verbose:  v.GetBool("verbose"),
		Async:    v.GetBool("async"),
		Debounce: v.GetDuration("debounce"),
		Stats:    strings.ToLower(v.GetString("stats")),
	}
	if cfg.Stats != "text" && cfg.Stats != "json" {
		return nil, fmt.Errorf("stats 只支持 text|json, 得到: %s", cfg.Stats)
	}
	if cfg.Debounce <= 0 {
		return nil, fmt.Errorf("debounce 必须大于 0, 得到: %v", cfg.Debounce)
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd(plugin.Global()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(registry *plugin.Registry) *cobra.Command {
	root := &cobra.Command{
		Use:   "gofixture [路径...]",
		Short: "测试数据构建器的代码生成工具",
		Long:  rootLong(registry),
		// 不带子命令时等同于 gen
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(cmd, registry, args)
		},
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.BoolP("verbose", "v", false, "详细输出")
	flags.StringP("output", "o", "", "默认输出路径（支持模板变量 $FILE, $PACKAGE）")
	flags.Bool("async", true, "并发执行生成器")
	flags.String("stats", "text", "统计信息格式: text|json")

	root.AddCommand(newGenCmd(registry))
	root.AddCommand(newDevCmd(registry))
	root.AddCommand(newInitCmd(registry))
	return root
}

func newGenCmd(registry *plugin.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "gen [路径...]",
		Short: "执行代码生成（默认）",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(cmd, registry, args)
		},
	}
}

func runGen(cmd *cobra.Command, registry *plugin.Registry, args []string) error {
	cfg, err := loadConfig(cmd.Flags(), ".")
	if err != nil {
		return err
	}

	patterns := args
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	if len(registry.Generators()) == 0 {
		return fmt.Errorf("没有已注册的生成器")
	}

	out := cmd.OutOrStdout()
	if cfg.Verbose {
		fmt.Fprintf(out, "已注册 %d 个生成器:\n", len(registry.Generators()))
		for _, gen := range registry.Generators() {
			anns := lo.Map(gen.Annotations(), func(item string, _ int) string {
				return "@" + item
			})
			fmt.Fprintf(out, "  - %s (%s)\n", gen.Name(), strings.Join(anns, ","))
		}
		fmt.Fprintln(out)
	}

	stats, err := plugin.RunWithOptions(cmd.Context(), &plugin.RunOptions{
		Registry: registry,
		Patterns: patterns,
		Verbose:  cfg.Verbose,
		Output:   cfg.Output,
		Async:    cfg.Async,
	})
	if stats != nil && (stats.FileCount > 0 || cfg.Verbose || cfg.Stats == "json") {
		if perr := printStats(out, stats, cfg.Stats); perr != nil {
			return perr
		}
	}
	return err
}

// printStats 按格式输出统计信息
func printStats(w io.Writer, stats *plugin.RunStats, format string) error {
	if format == "json" {
		data, err := sonic.ConfigStd.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("序列化统计信息失败: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	fmt.Fprintf(w, "\n统计: 扫描 %d 个目标, 生成 %d 个文件\n", stats.TargetCount, stats.FileCount)
	_, err := fmt.Fprintf(w, "耗时: 扫描 %v, 生成 %v, 总计 %v\n", stats.ScanDuration, stats.GenerateDuration, stats.TotalDuration)
	return err
}

func rootLong(registry *plugin.Registry) string {
	var sb strings.Builder
	sb.WriteString(`gofixture - 测试数据构建器的代码生成工具

为带注解的结构体生成成员选择器（@Fixture）和类型化构建器（@FixtureBuilder）。

路径:
  支持 Go 包路径模式，如:
    ./...          递归扫描当前目录及子目录（默认）
    ./models/...   递归扫描 models 目录

配置:
  命令行参数 > 环境变量 GOFIXTURE_* > 当前目录的 gofixture.yaml
`)
	if len(registry.Generators()) > 0 {
		sb.WriteString("\n支持的注解:\n")
		sb.WriteString(plugin.FormatHelpText(registry))
	}
	sb.WriteString(`模板变量:
  $FILE     - 源文件名（不含 .go 后缀）
  $PACKAGE  - 包名

示例:
  gofixture                          扫描当前目录（默认 ./...）
  gofixture -v ./models/...          详细模式扫描 models 目录
  gofixture -o '$FILE_fixture' ./... 指定输出文件名
  gofixture --stats json ./...       以 JSON 输出统计信息
  gofixture dev ./...                开发模式，监听文件变动
  gofixture init                     生成 gofixture.yaml`)
	return sb.String()
}

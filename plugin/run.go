package plugin

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/donutnomad/gg"
	"golang.org/x/exp/maps"

	"github.com/donutnomad/gofixture/internal/utils"
)

// GeneratedHeader 生成文件的头部注释
const GeneratedHeader = "Code generated by gofixture. DO NOT EDIT."

// Run 运行代码生成
// 1. 扫描指定路径的注解
// 2. 将目标分发给对应的生成器
// 3. 执行生成器
// 4. 合并同一文件的 gg 定义并写入文件
func Run(ctx context.Context, registry *Registry, patterns ...string) error {
	_, err := RunWithOptions(ctx, &RunOptions{
		Registry: registry,
		Patterns: patterns,
	})
	return err
}

// RunOptions 运行选项
type RunOptions struct {
	Registry *Registry
	Patterns []string
	Verbose  bool
	Output   string // 命令行指定的默认输出路径（最低优先级）
	Async    bool   // 是否并发执行生成器
}

// RunStats 运行统计信息
type RunStats struct {
	ScanDuration     time.Duration `json:"scan_duration"`     // 扫描耗时
	GenerateDuration time.Duration `json:"generate_duration"` // 生成耗时
	TotalDuration    time.Duration `json:"total_duration"`    // 总耗时
	TargetCount      int           `json:"target_count"`      // 目标数量
	FileCount        int           `json:"file_count"`        // 生成文件数量
	Files            []string      `json:"files"`             // 生成的文件
	ErrorCount       int           `json:"error_count"`       // 错误数量
}

// genResultItem 单个生成器的执行结果
type genResultItem struct {
	genName string
	result  *GenerateResult
	err     error
}

// RunWithOptions 带选项运行并返回统计信息
// 出错时仍然返回已收集的统计信息
func RunWithOptions(ctx context.Context, opts *RunOptions) (*RunStats, error) {
	totalStart := time.Now()
	stats := &RunStats{}

	registry := opts.Registry
	if registry == nil {
		registry = globalRegistry
	}

	annotations := registry.Annotations()
	if len(annotations) == 0 {
		return nil, fmt.Errorf("没有已注册的生成器")
	}

	// 扫描
	scanStart := time.Now()
	scanner := NewScanner(
		WithAnnotationFilter(annotations...),
		WithScannerVerbose(opts.Verbose),
	)
	result, err := scanner.Scan(ctx, opts.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("扫描失败: %w", err)
	}
	stats.ScanDuration = time.Since(scanStart)

	stats.TargetCount = len(result.All())
	if stats.TargetCount == 0 {
		if opts.Verbose {
			fmt.Println("没有找到任何带注解的目标")
		}
		stats.TotalDuration = time.Since(totalStart)
		return stats, nil
	}
	if opts.Verbose {
		fmt.Printf("找到 %d 个带注解的目标 (扫描耗时: %v)\n", stats.TargetCount, stats.ScanDuration)
	}

	generateStart := time.Now()
	dispatch := registry.DispatchTargets(result)

	// 按优先级排序生成器名称，同优先级按名称
	genNames := maps.Keys(dispatch)
	slices.SortFunc(genNames, func(a, b string) int {
		genA, _ := registry.GetByName(a)
		genB, _ := registry.GetByName(b)
		return cmp.Or(cmp.Compare(genA.Priority(), genB.Priority()), strings.Compare(a, b))
	})

	// 先串行解析所有目标的参数，生成器并发执行时只读
	// 参数无效的目标不交给生成器
	var allErrors []error
	for _, genName := range genNames {
		gen, _ := registry.GetByName(genName)
		valid, errs := parseTargetParams(gen, dispatch[genName])
		dispatch[genName] = valid
		allErrors = append(allErrors, errs...)
	}

	executeGenerator := func(genName string) genResultItem {
		gen, ok := registry.GetByName(genName)
		if !ok {
			return genResultItem{genName: genName}
		}
		targets := dispatch[genName]
		if len(targets) == 0 {
			return genResultItem{genName: genName}
		}
		if opts.Verbose {
			fmt.Printf("执行生成器: %s (开始处理 %d 个目标)\n", genName, len(targets))
		}

		start := time.Now()
		genResult, err := gen.Generate(&GenerateContext{
			Targets:        targets,
			PackageConfigs: result.PackageConfigs,
			DefaultOutput:  opts.Output,
			Verbose:        opts.Verbose,
		})
		if opts.Verbose {
			fmt.Printf("执行生成器: %s (耗时: %v)\n", genName, time.Since(start))
		}
		return genResultItem{genName: genName, result: genResult, err: err}
	}

	var items []genResultItem
	if opts.Async {
		ch := make(chan genResultItem, len(genNames))
		var wg sync.WaitGroup
		for _, genName := range genNames {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ch <- executeGenerator(genName)
			}()
		}
		wg.Wait()
		close(ch)
		for item := range ch {
			items = append(items, item)
		}
	} else {
		for _, genName := range genNames {
			items = append(items, executeGenerator(genName))
		}
	}

	genResults := make(map[string]*GenerateResult)
	for _, item := range items {
		if item.err != nil {
			allErrors = append(allErrors, fmt.Errorf("生成器 %s 执行失败: %w", item.genName, item.err))
			continue
		}
		if item.result != nil {
			genResults[item.genName] = item.result
		}
	}

	// 按优先级顺序收集 gg 定义，按输出文件分组
	fileDefinitions := make(map[string][]*gg.Generator)
	fileGenNames := make(map[string][]string)
	for _, genName := range genNames {
		genResult, ok := genResults[genName]
		if !ok {
			continue
		}

		for _, path := range sortedKeys(genResult.Definitions) {
			fileDefinitions[path] = append(fileDefinitions[path], genResult.Definitions[path])
			fileGenNames[path] = append(fileGenNames[path], genName)
		}

		// 原始源码先转换为 gg.Generator，再与其他定义合并
		for _, path := range sortedKeys(genResult.RawOutputs) {
			parsed, err := ParseSourceToGG(genResult.RawOutputs[path])
			if err != nil {
				allErrors = append(allErrors, fmt.Errorf("解析原始输出 %s 失败: %w", path, err))
				continue
			}
			fileDefinitions[path] = append(fileDefinitions[path], parsed)
			fileGenNames[path] = append(fileGenNames[path], genName)
		}

		allErrors = append(allErrors, genResult.Errors...)
	}

	// 合并同一文件的定义并写入
	for _, path := range sortedKeys(fileDefinitions) {
		merged, err := mergeDefinitions(fileDefinitions[path], fileGenNames[path])
		if err != nil {
			allErrors = append(allErrors, fmt.Errorf("合并文件 %s 的定义失败: %w", path, err))
			continue
		}
		if err := writeGGFile(path, merged); err != nil {
			allErrors = append(allErrors, fmt.Errorf("写入文件 %s 失败: %w", path, err))
			continue
		}
		stats.FileCount++
		stats.Files = append(stats.Files, path)
		fmt.Printf("生成文件: %s\n", path)
	}

	stats.GenerateDuration = time.Since(generateStart)
	stats.TotalDuration = time.Since(totalStart)
	stats.ErrorCount = len(allErrors)

	if len(allErrors) > 0 {
		for _, e := range allErrors {
			fmt.Fprintf(os.Stderr, "错误: %v\n", e)
		}
		return stats, fmt.Errorf("生成过程中出现 %d 个错误", len(allErrors))
	}

	return stats, nil
}

// parseTargetParams 把目标上属于 gen 的注解参数解析到 ParsedParams，返回参数有效的目标
// 同一个目标可能分发给多个生成器，每个生成器拿到各自的副本
func parseTargetParams(gen Generator, targets []*AnnotatedTarget) ([]*AnnotatedTarget, []error) {
	var (
		valid []*AnnotatedTarget
		errs  []error
	)
	for _, shared := range targets {
		target := new(AnnotatedTarget)
		*target = *shared
		params := gen.NewParams()
		if params == nil {
			valid = append(valid, target)
			continue
		}

		var ann *Annotation
		for _, name := range gen.Annotations() {
			if ann = GetAnnotation(target.Annotations, name); ann != nil {
				break
			}
		}
		if ann == nil {
			valid = append(valid, target)
			continue
		}

		if err := ParseAnnotationParams(ann, params, gen.ParamDefs()); err != nil {
			errs = append(errs, fmt.Errorf("%s: 解析参数失败: %w", target.Target.Name, err))
			continue
		}
		val := reflect.ValueOf(params)
		if val.Kind() != reflect.Ptr {
			errs = append(errs, fmt.Errorf("NewParams() 必须返回指针类型, 得到: %T", params))
			continue
		}
		target.ParsedParams = val.Elem().Interface()
		valid = append(valid, target)
	}
	return valid, errs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

// mergeDefinitions 合并多个 gg.Generator 定义到一个文件，每段前添加生成器分隔符
func mergeDefinitions(definitions []*gg.Generator, genNames []string) (*gg.Generator, error) {
	if len(definitions) == 0 {
		return nil, fmt.Errorf("没有定义需要合并")
	}

	merged := gg.New()
	merged.SetHeader(GeneratedHeader)

	var pkgName string
	for _, def := range definitions {
		name := def.PackageName()
		if name == "" {
			continue
		}
		if pkgName == "" {
			pkgName = name
		} else if pkgName != name {
			return nil, fmt.Errorf("包名不一致: %s vs %s", pkgName, name)
		}
	}
	if pkgName != "" {
		merged.SetPackage(pkgName)
	}

	// Merge 会连同 import 别名一起合并，不需要手动收集 imports
	for i, def := range definitions {
		genName := "unknown"
		if i < len(genNames) {
			genName = genNames[i]
		}
		merged.Body().AddLine()
		merged.Body().AddString(fmt.Sprintf("// ================ %s ================", genName))
		merged.Body().AddLine()
		merged.Merge(def)
	}

	return merged, nil
}

// writeGGFile 将 gg 定义写入文件
func writeGGFile(path string, gen *gg.Generator) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	return utils.WriteFormat(path, gen.Bytes())
}

// GetOutputPath 根据注解参数和默认规则计算输出路径
// 优先级：注解参数 > 包级插件配置 > 包级默认配置 > 命令行参数 > 默认文件名
// 模板变量：
//   - $FILE: 源文件名（不含 .go 后缀）
//   - $PACKAGE: 包名
func GetOutputPath(target *Target, ann *Annotation, defaultFileName string, pkgConfig *PackageConfig, pluginName string, cmdOutput string) string {
	var output string
	if ann != nil {
		output = ann.GetParam("output")
	}
	if output == "" {
		output = pkgConfig.GetPluginOutput(strings.ToLower(pluginName))
	}
	if output == "" {
		output = cmdOutput
	}
	if output == "" {
		return GetDefaultOutputPath(target, defaultFileName)
	}

	output = replaceTemplateVars(output, target)
	if !strings.HasSuffix(output, ".go") {
		output += ".go"
	}
	if filepath.IsAbs(output) {
		return output
	}
	// 相对于源文件目录
	return filepath.Join(filepath.Dir(target.FilePath), output)
}

// replaceTemplateVars 替换模板变量 $FILE 和 $PACKAGE
func replaceTemplateVars(template string, target *Target) string {
	fileName := strings.TrimSuffix(filepath.Base(target.FilePath), ".go")
	template = strings.ReplaceAll(template, "$FILE", fileName)
	template = strings.ReplaceAll(template, "$PACKAGE", target.PackageName)
	return template
}

// GetDefaultOutputPath 获取包级别的默认输出路径
// 同一个包内的所有注解默认输出到同一个文件
func GetDefaultOutputPath(target *Target, defaultFileName string) string {
	if defaultFileName == "" {
		defaultFileName = "fixture_gen.go"
	}
	defaultFileName = replaceTemplateVars(defaultFileName, target)
	return filepath.Join(filepath.Dir(target.FilePath), defaultFileName)
}

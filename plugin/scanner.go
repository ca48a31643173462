package plugin

import (
	"bufio"
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// DirectivePrefix 包级配置指令
const DirectivePrefix = "go:gofixture:"

// generatedSuffixes 生成文件的后缀，扫描时跳过
var generatedSuffixes = []string{"_test.go", "_gen.go", "_fixture.go"}

// Scanner 两阶段并行注解扫描器
// 第一阶段：快速文本匹配，找出可能包含注解的文件
// 第二阶段：对匹配的文件进行 AST 解析
type Scanner struct {
	workers int
	verbose bool

	// 注解过滤器（可选）
	annotationFilter []string
}

// ScannerOption 扫描器选项
type ScannerOption func(*Scanner)

func WithWorkers(n int) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithScannerVerbose(v bool) ScannerOption {
	return func(s *Scanner) {
		s.verbose = v
	}
}

func WithAnnotationFilter(annotations ...string) ScannerOption {
	return func(s *Scanner) {
		s.annotationFilter = annotations
	}
}

func NewScanner(opts ...ScannerOption) *Scanner {
	s := &Scanner{
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// quickMatchRegex 快速匹配注解的正则
var quickMatchRegex = annotationRegex

// Scan 扫描指定路径
// 支持: ./... ./pkg/... ./pkg /abs/path/... file.go
func (s *Scanner) Scan(ctx context.Context, patterns ...string) (*ScanResult, error) {
	allFiles, err := s.collectFiles(patterns)
	if err != nil {
		return nil, err
	}
	if len(allFiles) == 0 {
		return &ScanResult{}, nil
	}

	// ========== 第一阶段：快速匹配 ==========
	matchedFiles := parallel(ctx, s.workers, allFiles, func(file string) (string, bool) {
		matched, err := s.QuickMatchFile(file)
		return file, err == nil && matched
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(matchedFiles) == 0 {
		return &ScanResult{}, nil
	}
	if s.verbose {
		fmt.Printf("快速匹配: %d/%d 个文件\n", len(matchedFiles), len(allFiles))
	}

	// ========== 第二阶段：AST 解析 ==========
	parsed := parallel(ctx, s.workers, matchedFiles, func(file string) (*fileResult, bool) {
		r, err := s.parseFile(file)
		if err != nil {
			if s.verbose {
				fmt.Printf("警告: 解析 %s 失败: %v\n", file, err)
			}
			return nil, false
		}
		return r, true
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return mergeFileResults(parsed), nil
}

// parallel 用 workers 个 goroutine 处理 items，保留 fn 返回 true 的结果
// ctx 取消后不再派发新任务
func parallel[T, R any](ctx context.Context, workers int, items []T, fn func(T) (R, bool)) []R {
	type item struct {
		value R
		ok    bool
	}

	inCh := make(chan T)
	outCh := make(chan item, len(items))

	var wg sync.WaitGroup
	for i := 0; i < max(workers, 1); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for in := range inCh {
				v, ok := fn(in)
				outCh <- item{value: v, ok: ok}
			}
		}()
	}

	go func() {
		defer close(inCh)
		for _, in := range items {
			select {
			case <-ctx.Done():
				return
			case inCh <- in:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outCh)
	}()

	var out []R
	for r := range outCh {
		if r.ok {
			out = append(out, r.value)
		}
	}
	return out
}

// QuickMatchFile 快速检查文件是否包含注解或 go:gofixture: 配置
// 也用于 dev 模式判断文件变更是否需要触发代码生成
func (s *Scanner) QuickMatchFile(filePath string) (bool, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		trimmed := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(trimmed, "//") && !strings.HasPrefix(trimmed, "/*") {
			continue
		}

		if strings.Contains(trimmed, DirectivePrefix) {
			return true, nil
		}

		text := strings.TrimLeft(trimmed, "/*")
		for _, match := range quickMatchRegex.FindAllStringSubmatch(text, -1) {
			if len(s.annotationFilter) == 0 || lo.Contains(s.annotationFilter, match[1]) {
				return true, nil
			}
		}
	}

	return false, scanner.Err()
}

// fileResult 单个文件的解析结果
type fileResult struct {
	structs   []*AnnotatedTarget
	pkgConfig *PackageConfig
}

func mergeFileResults(results []*fileResult) *ScanResult {
	result := &ScanResult{
		PackageConfigs: make(map[string]*PackageConfig),
	}

	for _, r := range results {
		result.Structs = append(result.Structs, r.structs...)
		if r.pkgConfig == nil {
			continue
		}

		pkgDir := r.pkgConfig.PackageDir
		existing, ok := result.PackageConfigs[pkgDir]
		if !ok {
			result.PackageConfigs[pkgDir] = r.pkgConfig
			continue
		}

		// 同一个包的多个文件都有配置时，后发现的覆盖先发现的
		if r.pkgConfig.DefaultOutput != "" {
			if existing.DefaultOutput != "" && existing.DefaultOutput != r.pkgConfig.DefaultOutput {
				fmt.Printf("警告: 包 %s 中存在多个不同的 %s 默认输出配置，使用后发现的配置\n", pkgDir, DirectivePrefix)
			}
			existing.DefaultOutput = r.pkgConfig.DefaultOutput
		}
		for k, v := range r.pkgConfig.PluginOutputs {
			if old, ok := existing.PluginOutputs[k]; ok && old != v {
				fmt.Printf("警告: 包 %s 中插件 %s 存在多个不同的输出配置，使用后发现的配置\n", pkgDir, k)
			}
			existing.PluginOutputs[k] = v
		}
	}

	// 并行解析的结果无序，按文件和位置排序保证输出稳定
	slices.SortFunc(result.Structs, func(a, b *AnnotatedTarget) int {
		if c := strings.Compare(a.Target.FilePath, b.Target.FilePath); c != 0 {
			return c
		}
		return int(a.Target.Position) - int(b.Target.Position)
	})

	return result
}

// parseFile AST 解析单个文件
func (s *Scanner) parseFile(filePath string) (*fileResult, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, nil, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	result := &fileResult{
		pkgConfig: s.parsePackageConfig(file, filePath),
	}

	for _, decl := range file.Decls {
		d, ok := decl.(*ast.GenDecl)
		if !ok || d.Tok != token.TYPE {
			continue
		}
		result.structs = append(result.structs, s.parseTypeDecl(filePath, file.Name.Name, d)...)
	}

	return result, nil
}

// parseTypeDecl 解析类型声明
// 注解可以写在 type 关键字上方（对整个分组生效）或分组内单个类型的上方
func (s *Scanner) parseTypeDecl(filePath, packageName string, decl *ast.GenDecl) []*AnnotatedTarget {
	var declDoc string
	if decl.Doc != nil {
		declDoc = decl.Doc.Text()
	}

	var targets []*AnnotatedTarget
	for _, spec := range decl.Specs {
		typeSpec, ok := spec.(*ast.TypeSpec)
		if !ok {
			continue
		}
		if _, ok := typeSpec.Type.(*ast.StructType); !ok {
			continue
		}

		doc := declDoc
		if typeSpec.Doc != nil {
			doc = typeSpec.Doc.Text()
		}
		annotations := ParseAnnotations(doc)
		if len(s.annotationFilter) > 0 {
			annotations = FilterByNames(annotations, s.annotationFilter...)
		}
		if len(annotations) == 0 {
			continue
		}

		target := &Target{
			Kind:        TargetStruct,
			Name:        typeSpec.Name.Name,
			PackageName: packageName,
			FilePath:    filePath,
			Position:    typeSpec.Pos(),
			Node:        typeSpec,
		}
		if typeSpec.TypeParams != nil {
			for _, field := range typeSpec.TypeParams.List {
				for _, name := range field.Names {
					target.TypeParams = append(target.TypeParams, name.Name)
				}
			}
		}

		targets = append(targets, &AnnotatedTarget{
			Target:      target,
			Annotations: annotations,
		})
	}
	return targets
}

// collectFiles 收集所有需要扫描的文件
func (s *Scanner) collectFiles(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, pattern := range patterns {
		recursive := strings.HasSuffix(pattern, "/...")
		pattern = strings.TrimSuffix(pattern, "/...")

		absPath, err := filepath.Abs(pattern)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if strings.HasSuffix(absPath, ".go") {
				add(absPath)
			}
			continue
		}

		err = filepath.WalkDir(absPath, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if path != absPath && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata") {
					return filepath.SkipDir
				}
				if !recursive && path != absPath {
					return filepath.SkipDir
				}
				return nil
			}
			if IsSourceFile(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

// IsSourceFile 是否为需要扫描的 Go 源文件（排除测试文件和生成文件）
func IsSourceFile(path string) bool {
	if !strings.HasSuffix(path, ".go") {
		return false
	}
	return !lo.SomeBy(generatedSuffixes, func(suffix string) bool {
		return strings.HasSuffix(path, suffix)
	})
}

// 默认扫描器
var defaultScanner = NewScanner()

func Scan(ctx context.Context, patterns ...string) (*ScanResult, error) {
	return defaultScanner.Scan(ctx, patterns...)
}

func ScanWithFilter(ctx context.Context, annotations []string, patterns ...string) (*ScanResult, error) {
	return NewScanner(WithAnnotationFilter(annotations...)).Scan(ctx, patterns...)
}

// directiveRegex 匹配 go:gofixture: 指令
// 支持 //go:gofixture: 和 // go:gofixture: 两种写法
var directiveRegex = regexp.MustCompile(regexp.QuoteMeta(DirectivePrefix) + `\s*(.*)`)

// parsePackageConfig 解析包级 go:gofixture: 配置
// 支持格式:
//
//	//go:gofixture: -output `$FILE_fixture`
//	//go:gofixture: plugin:membergen -output `members_gen` plugin:buildergen -output `builders_gen`
func (s *Scanner) parsePackageConfig(file *ast.File, filePath string) *PackageConfig {
	var lines []string
	for _, cg := range file.Comments {
		for _, c := range cg.List {
			text := strings.TrimPrefix(c.Text, "//")
			text = strings.TrimPrefix(text, "/*")
			text = strings.TrimSuffix(text, "*/")
			text = strings.TrimSpace(text)

			if matches := directiveRegex.FindStringSubmatch(text); len(matches) > 1 {
				lines = append(lines, matches[1])
			}
		}
	}

	switch len(lines) {
	case 0:
		return nil
	case 1:
		return parseDirectiveLine(lines[0], filePath)
	default:
		fmt.Printf("警告: 文件 %s 定义了多个 %s 指令，将被忽略\n", filePath, DirectivePrefix)
		return nil
	}
}

// parseDirectiveLine 解析单行 go:gofixture: 配置
// 格式:
//
//	-output `xxx`                                              // 默认输出
//	plugin:membergen -output `xxx` plugin:buildergen -output `yyy`  // 插件特定输出
func parseDirectiveLine(line string, filePath string) *PackageConfig {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	config := &PackageConfig{
		PackageDir:    filepath.Dir(filePath),
		PluginOutputs: make(map[string]string),
	}

	parts := splitDirectiveArgs(line)
	var currentPlugin string
	for i := 0; i < len(parts); i++ {
		part := parts[i]
		switch {
		case strings.HasPrefix(part, "plugin:"):
			currentPlugin = strings.ToLower(strings.TrimPrefix(part, "plugin:"))
		case part == "-output" && i+1 < len(parts):
			i++
			output := trimQuotes(parts[i])
			if currentPlugin == "" {
				config.DefaultOutput = output
			} else {
				config.PluginOutputs[currentPlugin] = output
			}
		}
	}

	if config.DefaultOutput == "" && len(config.PluginOutputs) == 0 {
		return nil
	}
	return config
}

// splitDirectiveArgs 按空白分割参数，引号内的空白保留
func splitDirectiveArgs(line string) []string {
	var parts []string
	var current strings.Builder
	var quote byte

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote == 0 && (c == '`' || c == '"' || c == '\''):
			quote = c
			current.WriteByte(c)
		case quote != 0 && c == quote:
			quote = 0
			current.WriteByte(c)
		case quote == 0 && (c == ' ' || c == '\t'):
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

// trimQuotes 去除引号
func trimQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '`' || first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

package structparse

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ParseContext 解析上下文，按包目录缓存 AST
// 可以被多个 goroutine 共享
type ParseContext struct {
	mu   sync.Mutex
	pkgs map[string]*packageIndex
}

// NewParseContext 创建解析上下文
func NewParseContext() *ParseContext {
	return &ParseContext{pkgs: make(map[string]*packageIndex)}
}

var defaultContext = NewParseContext()

// ParseStruct 使用默认上下文解析结构体
func ParseStruct(filename, structName string) (*StructInfo, error) {
	return defaultContext.ParseStruct(filename, structName)
}

// Invalidate 丢弃目录的缓存，文件变更后调用
func (c *ParseContext) Invalidate(dir string) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return
	}
	c.mu.Lock()
	delete(c.pkgs, abs)
	c.mu.Unlock()
}

// packageIndex 一个包目录的解析结果
type packageIndex struct {
	dir     string
	name    string
	types   map[string]*typeDecl
	methods map[string][]*methodDecl // key: 接收器类型名
}

type typeDecl struct {
	spec    *ast.TypeSpec
	file    string
	imports FileImports
}

type methodDecl struct {
	decl    *ast.FuncDecl
	file    string
	imports FileImports
}

// load 返回目录的包索引，首次访问时解析
func (c *ParseContext) load(dir string) (*packageIndex, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if idx, ok := c.pkgs[abs]; ok {
		return idx, nil
	}

	idx, err := parsePackageDir(abs)
	if err != nil {
		return nil, err
	}
	c.pkgs[abs] = idx
	return idx, nil
}

func parsePackageDir(dir string) (*packageIndex, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("读取目录 %s 失败: %w", dir, err)
	}

	idx := &packageIndex{
		dir:     dir,
		types:   make(map[string]*typeDecl),
		methods: make(map[string][]*methodDecl),
	}

	fset := token.NewFileSet()
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		path := filepath.Join(dir, name)
		file, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
		if err != nil {
			return nil, fmt.Errorf("解析文件失败: %w", err)
		}
		if idx.name == "" {
			idx.name = file.Name.Name
		} else if idx.name != file.Name.Name {
			// 同目录下的 main 包工具文件等，忽略
			continue
		}
		idx.addFile(path, file)
	}

	return idx, nil
}

func (idx *packageIndex) addFile(path string, file *ast.File) {
	imports := extractImports(file)
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				if ts, ok := spec.(*ast.TypeSpec); ok {
					idx.types[ts.Name.Name] = &typeDecl{spec: ts, file: path, imports: imports}
				}
			}
		case *ast.FuncDecl:
			if recv := receiverTypeName(d); recv != "" {
				idx.methods[recv] = append(idx.methods[recv], &methodDecl{decl: d, file: path, imports: imports})
			}
		}
	}
}

// InvalidateDir 丢弃默认上下文中目录的缓存
func InvalidateDir(dir string) {
	defaultContext.Invalidate(dir)
}

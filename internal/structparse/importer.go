package structparse

import (
	"go/ast"
	"path"
	"regexp"
	"strconv"
	"strings"
)

// extractImports 提取文件的导入表
func extractImports(file *ast.File) FileImports {
	imports := make(FileImports, len(file.Imports))
	for _, imp := range file.Imports {
		importPath, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		info := ImportInfo{Path: importPath}
		if imp.Name != nil {
			if imp.Name.Name == "_" || imp.Name.Name == "." {
				continue
			}
			info.Name = imp.Name.Name
			info.Alias = true
		} else {
			info.Name = GuessPackageName(importPath)
		}
		imports[info.Name] = info
	}
	return imports
}

var versionSuffix = regexp.MustCompile(`^v[0-9]+$`)

// GuessPackageName 按导入路径推断包名
//
//	github.com/mattn/go-runewidth -> runewidth
//	github.com/brianvoe/gofakeit/v7 -> gofakeit
//	gopkg.in/yaml.v3 -> yaml
func GuessPackageName(importPath string) string {
	base := path.Base(importPath)
	if versionSuffix.MatchString(base) {
		if dir := path.Dir(importPath); dir != "." {
			base = path.Base(dir)
		}
	}
	if i := strings.Index(base, ".v"); i > 0 {
		base = base[:i]
	}
	base = strings.TrimSuffix(base, ".go")
	base = strings.TrimPrefix(base, "go-")
	return strings.ReplaceAll(base, "-", "_")
}

// Qualifiers 返回类型表达式中引用的包限定符，按出现顺序去重
func Qualifiers(expr ast.Expr) []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	ast.Inspect(expr, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if id, ok := sel.X.(*ast.Ident); ok && !seen[id.Name] {
			seen[id.Name] = true
			out = append(out, id.Name)
		}
		return false
	})
	return out
}

// UsedImports 返回字段类型实际引用的导入，未能解析的限定符被忽略
func (f FieldInfo) UsedImports() []ImportInfo {
	var out []ImportInfo
	for _, q := range Qualifiers(f.TypeExpr) {
		if info, ok := f.Imports[q]; ok {
			out = append(out, info)
		}
	}
	return out
}

package plugin

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"strconv"

	"github.com/donutnomad/gg"
)

// ParseSourceToGG 将 Go 源代码解析为 gg.Generator
// 不使用 gg 构建代码的生成器（例如基于 jennifer 的）通过它与其他输出合并到同一文件
func ParseSourceToGG(source []byte) (*gg.Generator, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", source, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("解析源代码失败: %w", err)
	}

	gen := gg.New()
	gen.SetPackage(file.Name.Name)

	for _, imp := range file.Imports {
		importPath, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			return nil, fmt.Errorf("import 路径 %s 无效: %w", imp.Path.Value, err)
		}
		switch {
		case imp.Name == nil:
			gen.P(importPath)
		case imp.Name.Name == "." || imp.Name.Name == "_":
			return nil, fmt.Errorf("不支持的 import 形式: %s %s", imp.Name.Name, imp.Path.Value)
		default:
			gen.PAlias(importPath, imp.Name.Name)
		}
	}

	body, err := extractBody(fset, file)
	if err != nil {
		return nil, fmt.Errorf("提取代码体失败: %w", err)
	}
	if len(body) > 0 {
		gen.Body().Append(gg.String("%s", body))
	}

	return gen, nil
}

// extractBody 打印 import 之外的所有声明，保留声明上的文档注释
func extractBody(fset *token.FileSet, file *ast.File) ([]byte, error) {
	var buf bytes.Buffer
	for _, decl := range file.Decls {
		if genDecl, ok := decl.(*ast.GenDecl); ok && genDecl.Tok == token.IMPORT {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		node := &printer.CommentedNode{Node: decl, Comments: declComments(file, decl)}
		if err := printer.Fprint(&buf, fset, node); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// declComments 返回落在声明范围内（含文档注释）的注释组
func declComments(file *ast.File, decl ast.Decl) []*ast.CommentGroup {
	start := decl.Pos()
	switch d := decl.(type) {
	case *ast.FuncDecl:
		if d.Doc != nil {
			start = d.Doc.Pos()
		}
	case *ast.GenDecl:
		if d.Doc != nil {
			start = d.Doc.Pos()
		}
	}

	var groups []*ast.CommentGroup
	for _, cg := range file.Comments {
		if cg.Pos() >= start && cg.End() <= decl.End() {
			groups = append(groups, cg)
		}
	}
	return groups
}

// MustParseSourceToGG 是 ParseSourceToGG 的 panic 版本
func MustParseSourceToGG(source []byte) *gg.Generator {
	gen, err := ParseSourceToGG(source)
	if err != nil {
		panic(err)
	}
	return gen
}

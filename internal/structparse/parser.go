package structparse

import (
	"fmt"
	"go/ast"
	"go/types"
	"path/filepath"
	"reflect"
	"strconv"
)

// ParseStruct 解析指定文件所在包中的结构体
func (c *ParseContext) ParseStruct(filename, structName string) (*StructInfo, error) {
	idx, err := c.load(filepath.Dir(filename))
	if err != nil {
		return nil, err
	}

	decl, ok := idx.types[structName]
	if !ok {
		return nil, fmt.Errorf("未找到结构体 %s", structName)
	}
	st, ok := decl.spec.Type.(*ast.StructType)
	if !ok {
		return nil, fmt.Errorf("%s 不是结构体", structName)
	}

	info := &StructInfo{
		Name:        structName,
		PackageName: idx.name,
		FilePath:    decl.file,
		Imports:     decl.imports,
	}
	if decl.spec.TypeParams != nil {
		for _, field := range decl.spec.TypeParams.List {
			for _, name := range field.Names {
				info.TypeParams = append(info.TypeParams, name.Name)
			}
		}
	}

	p := &structParser{idx: idx, stack: map[string]bool{structName: true}}
	fields, err := p.fields(st, decl.imports, "", 0)
	if err != nil {
		return nil, err
	}
	info.Fields = dedupePromoted(fields, func(f FieldInfo) (string, int) { return f.Name, f.Depth })
	info.Methods = dedupePromoted(p.methods(structName, "", 0), func(m MethodInfo) (string, int) { return m.Name, m.Depth })

	return info, nil
}

// structParser 带栈的递归解析，避免嵌入的循环引用
type structParser struct {
	idx   *packageIndex
	stack map[string]bool
}

func (p *structParser) fields(st *ast.StructType, imports FileImports, source string, depth int) ([]FieldInfo, error) {
	if depth > maxEmbeddingDepth {
		return nil, fmt.Errorf("嵌入字段深度超过限制 %d: %s", maxEmbeddingDepth, source)
	}

	var fields []FieldInfo
	for _, field := range st.Fields.List {
		var tag string
		if field.Tag != nil {
			tag, _ = strconv.Unquote(field.Tag.Value)
		}
		base := FieldInfo{
			Type:       types.ExprString(field.Type),
			TypeExpr:   field.Type,
			Tag:        tag,
			SourceType: source,
			Depth:      depth,
			Imports:    imports,
		}

		if len(field.Names) > 0 {
			for _, name := range field.Names {
				f := base
				f.Name = name.Name
				f.Exported = ast.IsExported(name.Name)
				fields = append(fields, f)
			}
			continue
		}

		// 嵌入字段
		typeName := embeddedTypeName(field.Type)
		f := base
		f.Name = typeName
		f.Exported = ast.IsExported(typeName)
		f.Embedded = true
		fields = append(fields, f)

		promoted, err := p.expand(field.Type, depth+1)
		if err != nil {
			return nil, err
		}
		fields = append(fields, promoted...)
	}
	return fields, nil
}

// expand 展开同包的嵌入结构体
func (p *structParser) expand(expr ast.Expr, depth int) ([]FieldInfo, error) {
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	id, ok := expr.(*ast.Ident)
	if !ok {
		// 其他包的类型或泛型实例化，不展开
		return nil, nil
	}
	decl, ok := p.idx.types[id.Name]
	if !ok {
		return nil, nil
	}
	st, ok := decl.spec.Type.(*ast.StructType)
	if !ok || p.stack[id.Name] {
		return nil, nil
	}

	p.stack[id.Name] = true
	defer delete(p.stack, id.Name)

	return p.fields(st, decl.imports, id.Name, depth)
}

// methods 收集类型自身及同包嵌入结构体提升的方法
func (p *structParser) methods(typeName, source string, depth int) []MethodInfo {
	if depth > maxEmbeddingDepth {
		return nil
	}

	var out []MethodInfo
	for _, m := range p.idx.methods[typeName] {
		info := methodInfo(m)
		info.SourceType = source
		info.Depth = depth
		out = append(out, info)
	}

	decl, ok := p.idx.types[typeName]
	if !ok {
		return out
	}
	st, ok := decl.spec.Type.(*ast.StructType)
	if !ok {
		return out
	}
	for _, field := range st.Fields.List {
		if len(field.Names) > 0 {
			continue
		}
		name := embeddedTypeName(field.Type)
		if _, local := p.idx.types[name]; !local || p.stack[name] || isQualified(field.Type) {
			continue
		}
		p.stack[name] = true
		out = append(out, p.methods(name, name, depth+1)...)
		delete(p.stack, name)
	}
	return out
}

// dedupePromoted 同名成员只保留最浅的一个，同一深度重名时全部丢弃
func dedupePromoted[T any](items []T, key func(T) (string, int)) []T {
	minDepth := make(map[string]int)
	count := make(map[string]int)
	for _, it := range items {
		name, depth := key(it)
		if d, ok := minDepth[name]; !ok || depth < d {
			minDepth[name] = depth
			count[name] = 0
		}
		if depth == minDepth[name] {
			count[name]++
		}
	}

	out := items[:0:0]
	for _, it := range items {
		name, depth := key(it)
		if depth == minDepth[name] && count[name] == 1 {
			out = append(out, it)
		}
	}
	return out
}

// isQualified 是否为其他包的类型
func isQualified(expr ast.Expr) bool {
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	_, ok := expr.(*ast.SelectorExpr)
	return ok
}

// embeddedTypeName 嵌入字段的字段名：去掉指针、包限定符和类型实参
func embeddedTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return embeddedTypeName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.IndexExpr:
		return embeddedTypeName(t.X)
	case *ast.IndexListExpr:
		return embeddedTypeName(t.X)
	case *ast.Ident:
		return t.Name
	}
	return types.ExprString(expr)
}

// LookupTag 读取字段标签中的值
func (f FieldInfo) LookupTag(key string) (string, bool) {
	return reflect.StructTag(f.Tag).Lookup(key)
}

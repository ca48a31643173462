package structparse

import (
	"go/ast"
	"go/types"
)

// receiverTypeName 返回方法接收器的类型名，函数返回空字符串
// 泛型接收器 (r *List[T]) 返回 List
func receiverTypeName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return ""
	}
	expr := fn.Recv.List[0].Type
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	switch t := expr.(type) {
	case *ast.IndexExpr:
		expr = t.X
	case *ast.IndexListExpr:
		expr = t.X
	}
	if id, ok := expr.(*ast.Ident); ok {
		return id.Name
	}
	return ""
}

func methodInfo(m *methodDecl) MethodInfo {
	recv := m.decl.Recv.List[0]
	info := MethodInfo{
		Name:     m.decl.Name.Name,
		FilePath: m.file,
		Imports:  m.imports,
	}
	if len(recv.Names) > 0 {
		info.ReceiverName = recv.Names[0].Name
	}
	_, info.Pointer = recv.Type.(*ast.StarExpr)

	info.Params = fieldListTypes(m.decl.Type.Params)
	info.Results = fieldListTypes(m.decl.Type.Results)
	if results := m.decl.Type.Results; results != nil {
		for _, f := range results.List {
			for range max(len(f.Names), 1) {
				info.ResultExprs = append(info.ResultExprs, f.Type)
			}
		}
	}
	return info
}

// fieldListTypes 展开参数列表，(a, b int) 返回两个 int
func fieldListTypes(list *ast.FieldList) []string {
	if list == nil {
		return nil
	}
	var out []string
	for _, f := range list.List {
		typ := types.ExprString(f.Type)
		n := max(len(f.Names), 1)
		for range n {
			out = append(out, typ)
		}
	}
	return out
}

// Method 按名称查找方法
func (s *StructInfo) Method(name string) (MethodInfo, bool) {
	for _, m := range s.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return MethodInfo{}, false
}

// Field 按名称查找字段
func (s *StructInfo) Field(name string) (FieldInfo, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldInfo{}, false
}

// IsGetter 无参数且只有一个返回值的方法
func (m MethodInfo) IsGetter() bool {
	return len(m.Params) == 0 && len(m.Results) == 1
}

// IsSetterFor 只有一个参数 typ，且无返回值或只返回 error 的方法
func (m MethodInfo) IsSetterFor(typ string) bool {
	if len(m.Params) != 1 || m.Params[0] != typ {
		return false
	}
	return len(m.Results) == 0 || len(m.Results) == 1 && m.Results[0] == "error"
}

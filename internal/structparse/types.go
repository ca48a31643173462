package structparse

import "go/ast"

// ImportInfo 导入信息
type ImportInfo struct {
	Name  string // 源码中使用的限定符（显式别名或推断的包名）
	Path  string // 完整导入路径
	Alias bool   // 是否为显式别名
}

// FileImports 单个文件的导入表，key 为限定符
type FileImports map[string]ImportInfo

// FieldInfo 结构体字段信息
type FieldInfo struct {
	Name     string   // 字段名，嵌入字段为类型名
	Type     string   // 字段类型的源码形式
	TypeExpr ast.Expr // 字段类型的 AST
	Tag      string   // 字段标签（不含反引号）
	Exported bool     // 是否导出
	Embedded bool     // 是否为嵌入字段

	// SourceType 字段来源，为空表示来自结构体本身，否则为提升该字段的嵌入类型
	SourceType string
	// Depth 提升深度，自身字段为 0
	Depth int

	// Imports 字段所在文件的导入表，用于解析类型中的包限定符
	Imports FileImports
}

// MethodInfo 方法信息
type MethodInfo struct {
	Name         string   // 方法名
	ReceiverName string   // 接收器名称
	Pointer      bool     // 是否为指针接收器
	Params       []string // 参数类型
	Results      []string // 返回类型
	FilePath     string   // 方法所在文件的绝对路径

	// ResultExprs 返回类型的 AST，与 Results 一一对应
	ResultExprs []ast.Expr
	// Imports 方法所在文件的导入表
	Imports FileImports

	// SourceType 方法来源，为空表示定义在结构体本身
	SourceType string
	Depth      int
}

// StructInfo 结构体信息
type StructInfo struct {
	Name        string       // 结构体名称
	PackageName string       // 包名
	FilePath    string       // 结构体所在文件路径
	TypeParams  []string     // 泛型类型参数
	Fields      []FieldInfo  // 字段列表，包含从同包嵌入结构体提升的字段
	Methods     []MethodInfo // 方法列表，包含提升的方法
	Imports     FileImports  // 结构体所在文件的导入表
}

// maxEmbeddingDepth 最大嵌套深度限制
const maxEmbeddingDepth = 10

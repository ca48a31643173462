package buildergen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/types"
	"slices"

	"github.com/dave/jennifer/jen"
	"github.com/samber/lo"

	"github.com/donutnomad/gofixture/internal/structparse"
	"github.com/donutnomad/gofixture/internal/utils"
)

const fixturePath = "github.com/donutnomad/gofixture/fixture"

// render 为同一输出文件的结构体生成构建器源码
func render(targets []*targetInfo) ([]byte, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("没有目标需要生成")
	}

	f := jen.NewFile(targets[0].info.PackageName)
	f.ImportName(fixturePath, "fixture")

	imports, err := structparse.MemberImports(lo.FlatMap(targets, func(t *targetInfo, _ int) []structparse.Member {
		return t.members
	}))
	if err != nil {
		return nil, err
	}
	if imp, ok := imports["fixture"]; ok && imp.Path != fixturePath {
		return nil, fmt.Errorf("限定符 fixture 已被 %s 占用", imp.Path)
	}
	names := lo.Keys(imports)
	slices.Sort(names)
	for _, name := range names {
		imp := imports[name]
		if imp.NeedsAlias() {
			f.ImportAlias(imp.Path, imp.Name)
		} else {
			f.ImportName(imp.Path, imp.Name)
		}
	}

	// 包级标识符 -> 来源结构体
	declared := make(map[string]string)
	for _, t := range targets {
		if err := builderDecls(f, t, declared); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("渲染代码失败: %w", err)
	}
	return buf.Bytes(), nil
}

func builderDecls(f *jen.File, t *targetInfo, declared map[string]string) error {
	ctor := t.constructorName()
	for _, name := range []string{t.typeName, ctor} {
		if prev, ok := declared[name]; ok {
			return fmt.Errorf("%s 重复声明: %s 与 %s", name, prev, t.info.Name)
		}
		declared[name] = t.info.Name
	}

	// 固定的方法名
	methods := map[string]string{"Create": "", "MustCreate": "", "Err": "", "Builder": ""}
	for _, m := range t.members {
		suffix := utils.UpperCamelCase(m.Key)
		for _, name := range []string{"With" + suffix, "With" + suffix + "Func", "Without" + suffix} {
			if prev, ok := methods[name]; ok {
				return fmt.Errorf("%s.%s 重名: 成员 %s 与 %q", t.typeName, name, m.Key, prev)
			}
			methods[name] = m.Key
		}
	}

	model := t.info.Name
	builderOf := func() *jen.Statement {
		return jen.Qual(fixturePath, "Builder").Types(jen.Id(model))
	}
	recv := func() *jen.Statement {
		return jen.Id("b").Op("*").Id(t.typeName)
	}
	self := func() *jen.Statement {
		return jen.Op("*").Id(t.typeName)
	}

	f.Commentf("%s 是 %s 的类型化构建器", t.typeName, model)
	f.Type().Id(t.typeName).Struct(
		jen.Id("inner").Op("*").Add(builderOf()),
	)
	f.Line()

	f.Commentf("%s 创建 %s 的构建器，fns 依次作用于模板", ctor, model)
	f.Func().Id(ctor).Params(
		jen.Id("backend").Qual(fixturePath, "Backend"),
		jen.Id("fns").Op("...").Qual(fixturePath, "TemplateFunc").Types(jen.Id(model)),
	).Add(self()).Block(
		jen.Return(jen.Op("&").Id(t.typeName).Values(jen.Dict{
			jen.Id("inner"): jen.Qual(fixturePath, "New").Types(jen.Id(model)).Call(jen.Id("backend"), jen.Id("fns").Op("...")),
		})),
	)
	f.Line()

	for _, m := range t.members {
		suffix := utils.UpperCamelCase(m.Key)
		typ := typeCode(m.TypeExpr, m.Imports)
		selector := func() *jen.Statement {
			return jen.Qual(fixturePath, "Field").Types(jen.Id(model), typ).Call(jen.Lit(m.Key))
		}

		f.Commentf("With%s 设置当前实例的 %s", suffix, m.Key)
		f.Func().Params(recv()).Id("With"+suffix).Params(jen.Id("v").Add(typ)).Add(self()).Block(
			jen.Id("b").Dot("inner").Dot("With").Call(selector().Dot("Set").Call(jen.Id("v"))),
			jen.Return(jen.Id("b")),
		)
		f.Line()

		f.Commentf("With%sFunc 用 fn 的返回值设置当前实例的 %s", suffix, m.Key)
		f.Func().Params(recv()).Id("With"+suffix+"Func").Params(jen.Id("fn").Func().Params().Add(typ)).Add(self()).Block(
			jen.Id("b").Dot("inner").Dot("With").Call(selector().Dot("SetFunc").Call(jen.Id("fn"))),
			jen.Return(jen.Id("b")),
		)
		f.Line()

		f.Commentf("Without%s 将当前实例的 %s 清空为零值", suffix, m.Key)
		f.Func().Params(recv()).Id("Without"+suffix).Params().Add(self()).Block(
			jen.Id("b").Dot("inner").Dot("Without").Call(selector()),
			jen.Return(jen.Id("b")),
		)
		f.Line()
	}

	f.Comment("Create 返回当前实例并准备下一个")
	f.Func().Params(recv()).Id("Create").Params().Params(jen.Op("*").Id(model), jen.Error()).Block(
		jen.Return(jen.Id("b").Dot("inner").Dot("Create").Call()),
	)
	f.Line()

	f.Comment("MustCreate 与 Create 相同，出错时 panic")
	f.Func().Params(recv()).Id("MustCreate").Params().Op("*").Id(model).Block(
		jen.Return(jen.Id("b").Dot("inner").Dot("MustCreate").Call()),
	)
	f.Line()

	f.Comment("Err 返回当前这一轮的错误")
	f.Func().Params(recv()).Id("Err").Params().Error().Block(
		jen.Return(jen.Id("b").Dot("inner").Dot("Err").Call()),
	)
	f.Line()

	f.Comment("Builder 返回底层的通用构建器")
	f.Func().Params(recv()).Id("Builder").Params().Op("*").Add(builderOf()).Block(
		jen.Return(jen.Id("b").Dot("inner")),
	)
	f.Line()

	return nil
}

// typeCode 将类型表达式转换为 jennifer 代码，包限定符按 imports 转换为导入路径
func typeCode(expr ast.Expr, imports structparse.FileImports) *jen.Statement {
	switch t := expr.(type) {
	case *ast.Ident:
		return jen.Id(t.Name)
	case *ast.SelectorExpr:
		if x, ok := t.X.(*ast.Ident); ok {
			if imp, ok := imports[x.Name]; ok {
				return jen.Qual(imp.Path, t.Sel.Name)
			}
		}
	case *ast.StarExpr:
		return jen.Op("*").Add(typeCode(t.X, imports))
	case *ast.ParenExpr:
		return jen.Parens(typeCode(t.X, imports))
	case *ast.ArrayType:
		elem := typeCode(t.Elt, imports)
		switch n := t.Len.(type) {
		case nil:
			return jen.Index().Add(elem)
		case *ast.Ellipsis:
			return jen.Index(jen.Op("...")).Add(elem)
		default:
			return jen.Index(jen.Id(types.ExprString(n))).Add(elem)
		}
	case *ast.MapType:
		return jen.Map(typeCode(t.Key, imports)).Add(typeCode(t.Value, imports))
	case *ast.ChanType:
		elem := typeCode(t.Value, imports)
		switch t.Dir {
		case ast.SEND:
			return jen.Chan().Op("<-").Add(elem)
		case ast.RECV:
			return jen.Op("<-").Chan().Add(elem)
		default:
			return jen.Chan().Add(elem)
		}
	case *ast.Ellipsis:
		return jen.Op("...").Add(typeCode(t.Elt, imports))
	case *ast.FuncType:
		fn := jen.Func().Params(fieldListCode(t.Params, imports)...)
		results := fieldListCode(t.Results, imports)
		switch {
		case len(results) == 1 && len(t.Results.List[0].Names) == 0:
			return fn.Add(results[0])
		case len(results) > 0:
			return fn.Params(results...)
		}
		return fn
	case *ast.IndexExpr:
		return typeCode(t.X, imports).Types(typeCode(t.Index, imports))
	case *ast.IndexListExpr:
		return typeCode(t.X, imports).Types(lo.Map(t.Indices, func(e ast.Expr, _ int) jen.Code {
			return typeCode(e, imports)
		})...)
	case *ast.InterfaceType:
		if t.Methods == nil || len(t.Methods.List) == 0 {
			return jen.Interface()
		}
	case *ast.StructType:
		if t.Fields == nil || len(t.Fields.List) == 0 {
			return jen.Struct()
		}
	}
	// 带方法的匿名接口、匿名结构体等按源码原样输出
	return jen.Op(types.ExprString(expr))
}

// fieldListCode 参数列表只保留类型，(a, b int) 展开为 int, int
func fieldListCode(list *ast.FieldList, imports structparse.FileImports) []jen.Code {
	if list == nil {
		return nil
	}
	var out []jen.Code
	for _, field := range list.List {
		typ := typeCode(field.Type, imports)
		for range max(len(field.Names), 1) {
			out = append(out, typ)
		}
	}
	return out
}

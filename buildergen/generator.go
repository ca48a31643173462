package buildergen

import (
	"cmp"
	"fmt"
	"go/ast"
	"go/token"
	"slices"

	"github.com/davecgh/go-spew/spew"

	"github.com/donutnomad/gofixture/internal/structparse"
	"github.com/donutnomad/gofixture/internal/utils"
	"github.com/donutnomad/gofixture/plugin"
)

const (
	generatorName  = "buildergen"
	annotationName = "FixtureBuilder"
)

// BuilderParams 定义 FixtureBuilder 注解支持的参数
type BuilderParams struct {
	Name       string `param:"name=name,required=false,default=,description=构建器类型名，默认为 <结构体名>Builder"`
	Unexported bool   `param:"name=unexported,required=false,default=true,description=是否为未导出字段生成方法"`
}

// BuilderGenerator 为结构体生成类型化的构建器
// 每个可写成员对应 With<M>、With<M>Func、Without<M> 三个方法
type BuilderGenerator struct {
	plugin.BaseGenerator
}

func NewBuilderGenerator() *BuilderGenerator {
	gen := &BuilderGenerator{
		BaseGenerator: *plugin.NewBaseGeneratorWithParamsStruct(
			generatorName,
			[]string{annotationName},
			[]plugin.TargetKind{plugin.TargetStruct},
			BuilderParams{},
		),
	}
	gen.SetPriority(20)
	return gen
}

// targetInfo 单个结构体的生成信息
type targetInfo struct {
	info     *structparse.StructInfo
	typeName string // 构建器类型名
	members  []structparse.Member
}

// constructorName WidgetBuilder -> NewWidgetBuilder，未导出的类型使用 new 前缀
func (t *targetInfo) constructorName() string {
	if ast.IsExported(t.typeName) {
		return "New" + t.typeName
	}
	return "new" + utils.UpperCamelCase(t.typeName)
}

// Generate 执行代码生成
func (g *BuilderGenerator) Generate(ctx *plugin.GenerateContext) (*plugin.GenerateResult, error) {
	result := plugin.NewGenerateResult()

	if len(ctx.Targets) == 0 {
		return result, nil
	}

	fileTargets := make(map[string][]*targetInfo)

	for _, at := range ctx.Targets {
		ann := plugin.GetAnnotation(at.Annotations, annotationName)
		if ann == nil {
			continue
		}

		params := BuilderParams{Unexported: true}
		if at.ParsedParams != nil {
			var ok bool
			params, ok = at.ParsedParams.(BuilderParams)
			if !ok {
				result.AddError(fmt.Errorf("ParsedParams 类型断言失败: %T", at.ParsedParams))
				continue
			}
		}

		if len(at.Target.TypeParams) > 0 {
			if ctx.Verbose {
				fmt.Printf("[buildergen] 跳过泛型结构体 %s\n", at.Target.Name)
			}
			result.Skipped++
			continue
		}

		info, err := structparse.ParseStruct(at.Target.FilePath, at.Target.Name)
		if err != nil {
			result.AddError(fmt.Errorf("解析结构体 %s 失败: %w", at.Target.Name, err))
			continue
		}

		typeName := cmp.Or(params.Name, at.Target.Name+"Builder")
		if !token.IsIdentifier(typeName) {
			result.AddError(fmt.Errorf("%s: 构建器类型名 %q 不是合法标识符", at.Target.Name, typeName))
			continue
		}

		outputPath := plugin.GetOutputPath(at.Target, ann, "fixture_gen.go", ctx.GetPackageConfig(at.Target.FilePath), g.Name(), ctx.DefaultOutput)
		fileTargets[outputPath] = append(fileTargets[outputPath], &targetInfo{
			info:     info,
			typeName: typeName,
			members:  info.SettableMembers(params.Unexported),
		})

		if ctx.Verbose {
			fmt.Printf("[buildergen] 处理结构体 %s -> %s\n", at.Target.Name, outputPath)
			fmt.Printf("[buildergen] %s", spew.Sdump(params))
		}
	}

	outputPaths := make([]string, 0, len(fileTargets))
	for outputPath := range fileTargets {
		outputPaths = append(outputPaths, outputPath)
	}
	slices.Sort(outputPaths)

	for _, outputPath := range outputPaths {
		targets := fileTargets[outputPath]
		slices.SortFunc(targets, func(a, b *targetInfo) int {
			return cmp.Compare(a.info.Name, b.info.Name)
		})

		src, err := render(targets)
		if err != nil {
			result.AddError(fmt.Errorf("生成 %s 失败: %w", outputPath, err))
			continue
		}
		result.AddRawOutput(outputPath, src)
	}

	return result, nil
}

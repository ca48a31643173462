package membergen

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/davecgh/go-spew/spew"

	"github.com/donutnomad/gofixture/internal/structparse"
	"github.com/donutnomad/gofixture/internal/utils"
	"github.com/donutnomad/gofixture/plugin"
)

const (
	generatorName  = "membergen"
	annotationName = "Fixture"
)

// MemberParams 定义 Fixture 注解支持的参数
type MemberParams struct {
	Prefix     string `param:"name=prefix,required=false,default=,description=选择器变量名前缀，默认为结构体名"`
	Unexported bool   `param:"name=unexported,required=false,default=true,description=是否包含未导出字段"`
}

// MemberGenerator 为结构体生成成员选择器变量
//
//	// @Fixture
//	type Widget struct { Name string }
//
// 生成
//
//	var (
//		WidgetName = fixture.Field[Widget, string]("Name")
//	)
type MemberGenerator struct {
	plugin.BaseGenerator
}

func NewMemberGenerator() *MemberGenerator {
	gen := &MemberGenerator{
		BaseGenerator: *plugin.NewBaseGeneratorWithParamsStruct(
			generatorName,
			[]string{annotationName},
			[]plugin.TargetKind{plugin.TargetStruct},
			MemberParams{},
		),
	}
	gen.SetPriority(10)
	return gen
}

// targetInfo 单个结构体的生成信息
type targetInfo struct {
	info    *structparse.StructInfo
	prefix  string
	members []structparse.Member
}

// Generate 执行代码生成
func (g *MemberGenerator) Generate(ctx *plugin.GenerateContext) (*plugin.GenerateResult, error) {
	result := plugin.NewGenerateResult()

	if len(ctx.Targets) == 0 {
		return result, nil
	}

	// key: 输出路径
	fileTargets := make(map[string][]*targetInfo)

	for _, at := range ctx.Targets {
		ann := plugin.GetAnnotation(at.Annotations, annotationName)
		if ann == nil {
			continue
		}

		params := MemberParams{Unexported: true}
		if at.ParsedParams != nil {
			var ok bool
			params, ok = at.ParsedParams.(MemberParams)
			if !ok {
				result.AddError(fmt.Errorf("ParsedParams 类型断言失败: %T", at.ParsedParams))
				continue
			}
		}

		// 泛型结构体无法写出具体的 Field[T, V]
		if len(at.Target.TypeParams) > 0 {
			if ctx.Verbose {
				fmt.Printf("[membergen] 跳过泛型结构体 %s\n", at.Target.Name)
			}
			result.Skipped++
			continue
		}

		info, err := structparse.ParseStruct(at.Target.FilePath, at.Target.Name)
		if err != nil {
			result.AddError(fmt.Errorf("解析结构体 %s 失败: %w", at.Target.Name, err))
			continue
		}

		members := info.SettableMembers(params.Unexported)
		if len(members) == 0 {
			if ctx.Verbose {
				fmt.Printf("[membergen] 结构体 %s 没有可写成员\n", at.Target.Name)
			}
			result.Skipped++
			continue
		}

		prefix := at.Target.Name
		if ann.HasParam("prefix") {
			prefix = params.Prefix
		}

		outputPath := plugin.GetOutputPath(at.Target, ann, "fixture_gen.go", ctx.GetPackageConfig(at.Target.FilePath), g.Name(), ctx.DefaultOutput)
		fileTargets[outputPath] = append(fileTargets[outputPath], &targetInfo{
			info:    info,
			prefix:  prefix,
			members: members,
		})

		if ctx.Verbose {
			fmt.Printf("[membergen] 处理结构体 %s -> %s\n", at.Target.Name, outputPath)
			fmt.Printf("[membergen] %s", spew.Sdump(params))
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

		gen, err := generateDefinition(targets)
		if err != nil {
			result.AddError(fmt.Errorf("生成 %s 失败: %w", outputPath, err))
			continue
		}
		result.AddDefinition(outputPath, gen)
	}

	return result, nil
}

// tokenName 选择器变量名
//
//	(Widget, email) -> WidgetEmail
func tokenName(prefix, key string) string {
	return prefix + utils.UpperCamelCase(key)
}

package plugin

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
)

type helpParams struct {
	Prefix     string `param:"name=prefix,required=false,default=,description=生成的变量名前缀"`
	Unexported bool   `param:"name=unexported,required=false,default=true,description=是否包含未导出字段"`
	Name       string `param:"name=name,required=true,description=构造器类型名"`
}

func TestFormatHelpText(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(&testGenerator{
		BaseGenerator: *NewBaseGeneratorWithParamsStruct("membergen", []string{"Fixture"}, []TargetKind{TargetStruct}, helpParams{}),
	})

	help := FormatHelpText(registry)
	for _, want := range []string{
		"@Fixture - membergen",
		"output",
		"输出文件路径",
		"name (必填)",
		"unexported [默认: true]",
		"是否包含未导出字段",
		"示例:",
		"@Fixture(output=$FILE_fixture)",
		"@Fixture(unexported=true)",
	} {
		assert.Contains(t, help, want)
	}
	assert.NotContains(t, help, "@Fixture(prefix=")

	// 描述列按显示宽度对齐
	lines := strings.Split(help, "\n")
	var cols []int
	for _, line := range lines {
		for _, desc := range []string{"生成的变量名前缀", "是否包含未导出字段", "构造器类型名"} {
			if i := strings.Index(line, desc); i >= 0 {
				cols = append(cols, runewidth.StringWidth(line[:i]))
			}
		}
	}
	if assert.Len(t, cols, 3) {
		assert.Equal(t, cols[0], cols[1])
		assert.Equal(t, cols[1], cols[2])
	}
}

func TestFormatHelpText_Multiple(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(&testGenerator{BaseGenerator: *NewBaseGenerator("membergen", []string{"Fixture"}, []TargetKind{TargetStruct})})
	registry.MustRegister(&testGenerator{BaseGenerator: *NewBaseGenerator("buildergen", []string{"FixtureBuilder"}, []TargetKind{TargetStruct})})

	help := FormatHelpText(registry)
	assert.Contains(t, help, "@Fixture - membergen")
	assert.Contains(t, help, "@FixtureBuilder - buildergen")
	assert.Less(t, strings.Index(help, "buildergen"), strings.Index(help, "membergen"))
}

func TestFormatHelpText_Empty(t *testing.T) {
	assert.Contains(t, FormatHelpText(NewRegistry()), "(暂无已注册的生成器)")
}

func TestFormatParamDef(t *testing.T) {
	assert.Equal(t, "name, required, 构造器类型名",
		FormatParamDef(ParamDef{Name: "name", Required: true, Description: "构造器类型名"}))
	assert.Equal(t, "unexported, optional, default=true",
		FormatParamDef(ParamDef{Name: "unexported", Default: "true"}))
}

package plugin

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/donutnomad/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSourceToGG(t *testing.T) {
	source := []byte(`package models

import (
	"context"
	fx "github.com/donutnomad/gofixture/fixture"
)

// AccountBuilder 账户构造器
type AccountBuilder struct {
	b *fx.Builder[Account]
}

// Create 创建实例
func (b *AccountBuilder) Create(ctx context.Context) (*Account, error) {
	// 忽略 ctx
	return b.b.Create()
}
`)

	gen, err := ParseSourceToGG(source)
	require.NoError(t, err)
	assert.Equal(t, "models", gen.PackageName())

	output := string(gen.Bytes())
	assert.Contains(t, output, `"context"`)
	assert.Contains(t, output, `fx "github.com/donutnomad/gofixture/fixture"`)
	assert.Contains(t, output, "type AccountBuilder struct")
	assert.Contains(t, output, "// AccountBuilder 账户构造器")
	assert.Contains(t, output, "// Create 创建实例")
	assert.Contains(t, output, "// 忽略 ctx")
}

func TestParseSourceToGG_UnsupportedImports(t *testing.T) {
	for _, imp := range []string{`. "fmt"`, `_ "embed"`} {
		_, err := ParseSourceToGG([]byte("package a\n\nimport " + imp + "\n"))
		assert.Error(t, err, imp)
	}

	_, err := ParseSourceToGG([]byte("package a\n\nfunc {"))
	assert.Error(t, err)
	assert.Panics(t, func() { MustParseSourceToGG([]byte("not go")) })
}

func TestParseSourceToGG_NoImports(t *testing.T) {
	gen := MustParseSourceToGG([]byte(`package models

type Simple struct {
	Value int
}

var _ = Simple{}
`))

	output := string(gen.Bytes())
	assert.Contains(t, output, "type Simple struct")
	assert.Contains(t, output, "var _ = Simple{}")
	assert.NotContains(t, output, "import")
}

// rawOutputGenerator 返回原始源码的生成器
type rawOutputGenerator struct {
	BaseGenerator
	source []byte
}

func (g *rawOutputGenerator) Generate(ctx *GenerateContext) (*GenerateResult, error) {
	result := NewGenerateResult()
	for _, target := range ctx.Targets {
		result.AddRawOutput(filepath.Join(filepath.Dir(target.Target.FilePath), "fixture_gen.go"), g.source)
	}
	return result, nil
}

// importGenerator 通过 gg 引用指定包
type importGenerator struct {
	BaseGenerator
	importPath string
}

func (g *importGenerator) Generate(ctx *GenerateContext) (*GenerateResult, error) {
	result := NewGenerateResult()
	for _, target := range ctx.Targets {
		gen := gg.New()
		gen.SetPackage(target.Target.PackageName)
		pkg := gen.P(g.importPath)
		gen.Body().NewFunction("Helper"+target.Target.Name).
			AddResult("", "string").
			AddBody(gg.Return(pkg.Call("Helper")))
		result.AddDefinition(filepath.Join(filepath.Dir(target.Target.FilePath), "fixture_gen.go"), gen)
	}
	return result, nil
}

func TestRun_MergeRawAndGG(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "model.go"), "package models\n\n// @Raw\n// @GG\ntype User struct {\n\tID int64\n}\n")

	registry := NewRegistry()
	raw := &rawOutputGenerator{
		BaseGenerator: *NewBaseGenerator("raw", []string{"Raw"}, []TargetKind{TargetStruct}),
		source: []byte(`package models

import "github.com/foo/utils"

func FromFoo() string {
	return utils.Helper()
}
`),
	}
	raw.SetPriority(10)
	registry.MustRegister(raw)
	registry.MustRegister(&importGenerator{
		BaseGenerator: *NewBaseGenerator("gg", []string{"GG"}, []TargetKind{TargetStruct}),
		importPath:    "github.com/bar/utils",
	})

	require.NoError(t, Run(context.Background(), registry, dir))

	content, err := os.ReadFile(filepath.Join(dir, "fixture_gen.go"))
	require.NoError(t, err)
	output := string(content)

	assert.Equal(t, 1, strings.Count(output, "github.com/foo/utils"))
	assert.Equal(t, 1, strings.Count(output, "github.com/bar/utils"))
	assert.Contains(t, output, "FromFoo")
	assert.Contains(t, output, "HelperUser")

	// 优先级高的生成器输出在前
	assert.Less(t, strings.Index(output, "FromFoo"), strings.Index(output, "HelperUser"))
}

func TestRun_MergeDeduplicatesImports(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "model.go"), "package models\n\n// @Gen1 @Gen2\ntype User struct{}\n")

	registry := NewRegistry()
	registry.MustRegister(&rawOutputGenerator{
		BaseGenerator: *NewBaseGenerator("gen1", []string{"Gen1"}, []TargetKind{TargetStruct}),
		source:        []byte("package models\n\nimport (\n\t\"context\"\n\t\"fmt\"\n)\n\nfunc Func1(ctx context.Context) {\n\tfmt.Println(ctx)\n}\n"),
	})
	registry.MustRegister(&rawOutputGenerator{
		BaseGenerator: *NewBaseGenerator("gen2", []string{"Gen2"}, []TargetKind{TargetStruct}),
		source:        []byte("package models\n\nimport (\n\t\"context\"\n\t\"errors\"\n)\n\nfunc Func2(ctx context.Context) error {\n\treturn errors.New(\"func2\")\n}\n"),
	})

	require.NoError(t, Run(context.Background(), registry, dir))

	content, err := os.ReadFile(filepath.Join(dir, "fixture_gen.go"))
	require.NoError(t, err)
	output := string(content)

	assert.Equal(t, 1, strings.Count(output, `"context"`))
	assert.Contains(t, output, `"fmt"`)
	assert.Contains(t, output, `"errors"`)
	assert.Contains(t, output, "func Func1")
	assert.Contains(t, output, "func Func2")
}

func TestMergeDefinitions_PackageMismatch(t *testing.T) {
	a := gg.New()
	a.SetPackage("a")
	b := gg.New()
	b.SetPackage("b")

	_, err := mergeDefinitions([]*gg.Generator{a, b}, []string{"x", "y"})
	assert.Error(t, err)

	_, err = mergeDefinitions(nil, nil)
	assert.Error(t, err)
}

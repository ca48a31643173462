package membergen

import (
	"fmt"
	"slices"

	"github.com/donutnomad/gg"
	"github.com/samber/lo"

	"github.com/donutnomad/gofixture/internal/structparse"
)

const fixtureImportPath = "github.com/donutnomad/gofixture/fixture"

// generateDefinition 为同一输出文件的结构体生成选择器变量
func generateDefinition(targets []*targetInfo) (*gg.Generator, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("没有目标需要生成")
	}

	gen := gg.New()
	gen.SetPackage(targets[0].info.PackageName)

	imports, err := structparse.MemberImports(lo.FlatMap(targets, func(t *targetInfo, _ int) []structparse.Member {
		return t.members
	}))
	if err != nil {
		return nil, err
	}
	if imp, ok := imports["fixture"]; ok && imp.Path != fixtureImportPath {
		return nil, fmt.Errorf("限定符 fixture 已被 %s 占用", imp.Path)
	}
	fixturePkg := gen.P(fixtureImportPath)
	names := lo.Keys(imports)
	slices.Sort(names)
	for _, name := range names {
		imp := imports[name]
		if imp.NeedsAlias() {
			gen.PAlias(imp.Path, imp.Name)
		} else {
			gen.P(imp.Path)
		}
	}

	// 变量名 -> 来源，检测冲突
	declared := make(map[string]string)
	group := gen.Body()
	for i, t := range targets {
		if i > 0 {
			group.AddLine()
		}
		group.Append(gg.LineComment("%s 的成员选择器", t.info.Name))

		vars := gg.Var()
		for _, m := range t.members {
			name := tokenName(t.prefix, m.Key)
			owner := t.info.Name + "." + m.Key
			if prev, ok := declared[name]; ok {
				return nil, fmt.Errorf("选择器 %s 重名: %s 与 %s", name, prev, owner)
			}
			declared[name] = owner

			vars.AddField(name, gg.NewInlineGroup().Append(
				fixturePkg.Type("Field"),
				gg.S("[%s, %s](%s)", t.info.Name, m.Type, gg.Lit(m.Key)),
			))
		}
		group.Append(vars)
	}

	return gen, nil
}

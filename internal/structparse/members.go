package structparse

import (
	"fmt"
	"go/ast"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"
)

// MemberVia 成员的写入方式
type MemberVia int

const (
	ViaField        MemberVia = iota + 1 // 直接写字段
	ViaBackingField                      // getter 对应的私有字段
	ViaSetter                            // getter 对应的 Set 方法
)

func (v MemberVia) String() string {
	switch v {
	case ViaField:
		return "field"
	case ViaBackingField:
		return "backing-field"
	case ViaSetter:
		return "setter"
	default:
		return "unknown"
	}
}

// Member 可以按名称写入的成员
// Key 与运行期的成员定位规则一致：有 getter 时使用 getter 名，否则使用字段名
type Member struct {
	Key      string
	Type     string
	TypeExpr ast.Expr
	Imports  FileImports
	Via      MemberVia
	Exported bool
}

// UsedImports 返回成员类型实际引用的导入
func (m Member) UsedImports() []ImportInfo {
	return FieldInfo{TypeExpr: m.TypeExpr, Imports: m.Imports}.UsedImports()
}

// SettableMembers 返回结构体可写的成员
//   - 导出的 getter 有匹配的 Set 方法或同类型 backing field 时，以 getter 名作为成员，backing field 不再单独出现
//   - 只有 getter 的计算属性被忽略
//   - includeUnexported 为 false 时忽略未导出的字段
//
// 顺序按字段声明顺序，只有 Set 方法的 getter 排在最后
func (s *StructInfo) SettableMembers(includeUnexported bool) []Member {
	// backing field 名 -> getter 成员
	byBacking := make(map[string]Member)
	var setterOnly []Member
	shadowed := make(map[string]bool)

	for _, m := range s.Methods {
		if !ast.IsExported(m.Name) || !m.IsGetter() {
			continue
		}
		shadowed[m.Name] = true
		typ := m.Results[0]
		member := Member{
			Key:      m.Name,
			Type:     typ,
			TypeExpr: m.ResultExprs[0],
			Imports:  m.Imports,
			Exported: true,
		}

		backing, hasBacking := s.backingField(m.Name, typ)

		if setter, ok := s.Method("Set" + m.Name); ok && setter.IsSetterFor(typ) {
			member.Via = ViaSetter
			if hasBacking {
				byBacking[backing.Name] = member
			} else {
				setterOnly = append(setterOnly, member)
			}
			continue
		}
		if hasBacking {
			member.Via = ViaBackingField
			byBacking[backing.Name] = member
		}
	}

	var out []Member
	for _, f := range s.Fields {
		if m, ok := byBacking[f.Name]; ok {
			out = append(out, m)
			continue
		}
		if f.Name == "_" || shadowed[f.Name] {
			continue
		}
		if !f.Exported && !includeUnexported {
			continue
		}
		out = append(out, Member{
			Key:      f.Name,
			Type:     f.Type,
			TypeExpr: f.TypeExpr,
			Imports:  f.Imports,
			Via:      ViaField,
			Exported: f.Exported,
		})
	}
	return append(out, setterOnly...)
}

// backingField 按 name、小写 name、_name 的顺序查找类型为 typ 的存储字段
// 类型不一致的同名字段跳过
func (s *StructInfo) backingField(getter, typ string) (FieldInfo, bool) {
	for _, name := range BackingFieldNames(getter) {
		if f, ok := s.Field(name); ok && f.Type == typ {
			return f, true
		}
	}
	return FieldInfo{}, false
}

// BackingFieldNames Email -> email, _email；ID -> iD, id, _iD
func BackingFieldNames(getter string) []string {
	lower := lowerFirst(getter)
	return lo.Uniq([]string{lower, strings.ToLower(getter), "_" + lower})
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// MemberImports 汇总成员类型引用的导入，key 为限定符
// 同一限定符指向不同路径时返回错误（例如两个文件用同一别名导入了不同的包）
func MemberImports(members []Member) (map[string]ImportInfo, error) {
	out := make(map[string]ImportInfo)
	for _, m := range members {
		for _, imp := range m.UsedImports() {
			if prev, ok := out[imp.Name]; ok && prev.Path != imp.Path {
				return nil, fmt.Errorf("导入限定符 %s 冲突: %s 与 %s", imp.Name, prev.Path, imp.Path)
			}
			out[imp.Name] = imp
		}
	}
	return out, nil
}

// NeedsAlias 源码中的限定符与导入路径的默认包名不同时需要显式别名
func (i ImportInfo) NeedsAlias() bool {
	return i.Alias || i.Name != path.Base(i.Path)
}

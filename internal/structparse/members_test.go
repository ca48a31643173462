package structparse

import (
	"go/ast"
	"path/filepath"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memberKeys(members []Member) []string {
	return lo.Map(members, func(m Member, _ int) string { return m.Key })
}

func TestSettableMembers(t *testing.T) {
	info, err := ParseStruct(filepath.Join("testdata", "accessors", "account.go"), "Account")
	require.NoError(t, err)

	members := info.SettableMembers(true)
	// Display 只有 getter，不出现；email、balance、createdAt 由 getter 代替
	assert.Equal(t, []string{
		"ID", "Email", "Balance", "Tags", "Faker",
		"Audit", "CreatedBy", "CreatedAt",
		"Left", "Right", "Location",
	}, memberKeys(members))

	byKey := lo.KeyBy(members, func(m Member) string { return m.Key })
	assert.Equal(t, ViaSetter, byKey["Email"].Via)
	assert.Equal(t, ViaBackingField, byKey["Balance"].Via)
	assert.Equal(t, "decimal.Decimal", byKey["Balance"].Type)
	assert.Equal(t, []ImportInfo{{Name: "decimal", Path: "github.com/shopspring/decimal"}}, byKey["Balance"].UsedImports())
	assert.Equal(t, ViaBackingField, byKey["CreatedAt"].Via)
	assert.Equal(t, "time.Time", byKey["CreatedAt"].Type)
	assert.Equal(t, ViaField, byKey["Left"].Via)
	assert.Equal(t, "*Left", byKey["Left"].Type)
}

func TestSettableMembers_ExportedOnly(t *testing.T) {
	info, err := ParseStruct(filepath.Join("testdata", "accessors", "account.go"), "Account")
	require.NoError(t, err)

	// getter 导出，即使 backing field 未导出也保留
	keys := memberKeys(info.SettableMembers(false))
	assert.Contains(t, keys, "Email")
	assert.Contains(t, keys, "CreatedAt")
	assert.NotContains(t, keys, "email")
	assert.NotContains(t, keys, "createdAt")
}

func TestSettableMembers_SetterWithoutBackingField(t *testing.T) {
	info := &StructInfo{
		Name: "Profile",
		Fields: []FieldInfo{
			{Name: "data", Type: "map[string]string"},
			{Name: "_", Type: "struct{}"},
		},
		Methods: []MethodInfo{
			{Name: "Nickname", Results: []string{"string"}, ResultExprs: []ast.Expr{ast.NewIdent("string")}},
			{Name: "SetNickname", Params: []string{"string"}},
			{Name: "Age", Results: []string{"int"}, ResultExprs: []ast.Expr{ast.NewIdent("int")}},
			{Name: "SetAge", Params: []string{"int64"}},
		},
	}

	members := info.SettableMembers(true)
	assert.Equal(t, []string{"data", "Nickname"}, memberKeys(members))
	assert.Equal(t, ViaSetter, members[1].Via)
}

func TestSettableMembers_BackingFieldTypeMismatch(t *testing.T) {
	info := &StructInfo{
		Name: "Ticket",
		Fields: []FieldInfo{
			{Name: "iD", Type: "int"},
			{Name: "id", Type: "string"},
			{Name: "code", Type: "int"},
		},
		Methods: []MethodInfo{
			{Name: "ID", Results: []string{"string"}, ResultExprs: []ast.Expr{ast.NewIdent("string")}},
			{Name: "Code", Results: []string{"string"}, ResultExprs: []ast.Expr{ast.NewIdent("string")}},
		},
	}

	// iD 类型不一致被跳过，id 是 ID 的 backing field；Code 没有同类型的字段，是计算属性
	members := info.SettableMembers(true)
	assert.Equal(t, []string{"iD", "ID", "code"}, memberKeys(members))
	assert.Equal(t, ViaField, members[0].Via)
	assert.Equal(t, ViaBackingField, members[1].Via)
}

func TestBackingFieldNames(t *testing.T) {
	assert.Equal(t, []string{"email", "_email"}, BackingFieldNames("Email"))
	assert.Equal(t, []string{"iD", "id", "_iD"}, BackingFieldNames("ID"))
	assert.Equal(t, "backing-field", ViaBackingField.String())
}

func TestMemberImports(t *testing.T) {
	decimalImports := FileImports{"decimal": {Name: "decimal", Path: "github.com/shopspring/decimal"}}
	otherImports := FileImports{"decimal": {Name: "decimal", Path: "example.com/decimal", Alias: true}}
	sel := &ast.SelectorExpr{X: ast.NewIdent("decimal"), Sel: ast.NewIdent("Decimal")}

	got, err := MemberImports([]Member{
		{Key: "A", TypeExpr: sel, Imports: decimalImports},
		{Key: "B", TypeExpr: &ast.StarExpr{X: sel}, Imports: decimalImports},
		{Key: "C", TypeExpr: ast.NewIdent("int")},
	})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.False(t, got["decimal"].NeedsAlias())

	_, err = MemberImports([]Member{
		{Key: "A", TypeExpr: sel, Imports: decimalImports},
		{Key: "B", TypeExpr: sel, Imports: otherImports},
	})
	assert.ErrorContains(t, err, "冲突")

	assert.True(t, ImportInfo{Name: "gofakeit", Path: "github.com/brianvoe/gofakeit/v7"}.NeedsAlias())
}

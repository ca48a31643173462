package fixture_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donutnomad/gofixture/fixture"
)

func TestTemplate_Add(t *testing.T) {
	tmpl := fixture.NewTemplate[Account]().
		Add(AccountOwner.Set("alice"), nil, accountBalance.Set(1)).
		Add(AccountOwner.Zero())

	require.NoError(t, tmpl.Err())
	assert.Equal(t, 3, tmpl.Len())
	assert.Equal(t, []string{"Owner", "balance", "Owner"}, tmpl.Members())
}

func TestTemplate_AddRecordsFirstError(t *testing.T) {
	tmpl := fixture.NewTemplate[Account]().Add(
		AccountOwner.Set("ok"),
		fixture.Field[Account, string]("a.b").Set("x"),
		AccountDisplay.Set("x"),
	)

	require.ErrorIs(t, tmpl.Err(), fixture.ErrInvalidSelector)
	assert.NotErrorIs(t, tmpl.Err(), fixture.ErrTargetNotSettable)
	assert.Equal(t, 3, tmpl.Len())
}

func TestTemplate_FrozenAfterNew(t *testing.T) {
	var kept *fixture.Template[Account]
	b := fixture.New[Account](sequenceBackend(newAccount), func(t *fixture.Template[Account]) *fixture.Template[Account] {
		kept = t
		return t.Add(AccountOwner.Set("alice"))
	})

	// 构造之后再修改模板不影响 Builder
	kept.Add(AccountOwner.Set("mallory"))
	assert.Equal(t, "alice", b.MustCreate().Owner)
	assert.Equal(t, 1, b.Len())
}

func TestSetter_ApplyNil(t *testing.T) {
	require.ErrorIs(t, AccountOwner.Set("x").Apply(nil), fixture.ErrNilInstance)
	require.ErrorIs(t, AccountOwner.Zero().Apply(nil), fixture.ErrNilInstance)
}

func TestSetter_ApplyDirect(t *testing.T) {
	a := newAccount(1)
	require.NoError(t, AccountEmail.Set("X@Y.Z").Apply(&a))
	require.NoError(t, AccountCreatedBy.Set("direct").Apply(&a))
	assert.Equal(t, "x@y.z", a.Email())
	assert.Equal(t, "direct", a.createdBy)
	assert.Equal(t, "Email", AccountEmail.Set("").Member())
}

func TestSetter_NilFactory(t *testing.T) {
	tmpl := fixture.NewTemplate[Account]().Add(AccountOwner.SetFunc(nil))
	require.ErrorIs(t, tmpl.Err(), fixture.ErrInvalidSelector)
	assert.Contains(t, tmpl.Err().Error(), "nil value factory")

	a := newAccount(1)
	require.ErrorIs(t, accountBalance.SetFunc(nil).Apply(&a), fixture.ErrInvalidSelector)

	b := fixture.New[Account](sequenceBackend(newAccount)).With(AccountOwner.SetFunc(nil))
	var me *fixture.MemberError
	require.ErrorAs(t, b.Err(), &me)
	assert.Equal(t, "Owner", me.Member)
}

func TestResolveKinds(t *testing.T) {
	tests := []struct {
		name    string
		member  fixture.Member[Account]
		want    fixture.TargetKind
		wantErr error
	}{
		{"setter", AccountEmail, fixture.TargetSetter, nil},
		{"backing field", AccountBalance, fixture.TargetBackingField, nil},
		{"field", AccountOwner, fixture.TargetField, nil},
		{"指针选择器", accountVersion, fixture.TargetField, nil},
		{"计算属性", AccountDisplay, 0, fixture.ErrTargetNotSettable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fixture.Resolve[Account](tt.member)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerate(t *testing.T) {
	v, err := fixture.Generate[Account](sequenceBackend(newAccount))
	require.NoError(t, err)
	assert.Equal(t, 1, v.ID)

	_, err = fixture.Generate[Widget](sequenceBackend(newAccount))
	require.Error(t, err)
	assert.NotErrorIs(t, err, fixture.ErrBackendType)

	_, err = fixture.Generate[Widget](fixture.BackendFunc(func(reflect.Type) (reflect.Value, error) {
		return reflect.Value{}, nil
	}))
	require.ErrorIs(t, err, fixture.ErrBackendType)
}

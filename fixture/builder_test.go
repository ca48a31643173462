package fixture_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/donutnomad/gofixture/fixture"
	"github.com/donutnomad/gofixture/internal/mocks"
)

func TestBuilder_ReadOnlyMembers(t *testing.T) {
	backend := sequenceBackend(newWidget)
	withName := func(t *fixture.Template[Widget]) *fixture.Template[Widget] {
		return t.Add(WidgetName.Set("W1"))
	}

	t.Run("backing field 可写", func(t *testing.T) {
		w, err := fixture.New[Widget](backend, withName).Create()
		require.NoError(t, err)
		assert.Equal(t, "W1", w.Name())
	})

	t.Run("计算属性不可写", func(t *testing.T) {
		b := fixture.New[Widget](backend, withName).With(WidgetTag.Set("X"))
		require.ErrorIs(t, b.Err(), fixture.ErrTargetNotSettable)

		_, err := b.Create()
		require.ErrorIs(t, err, fixture.ErrTargetNotSettable)

		var me *fixture.MemberError
		require.ErrorAs(t, err, &me)
		assert.Equal(t, "fixture_test.Widget", me.Type)
		assert.Equal(t, "Tag", me.Member)
		assert.Equal(t, "fixture: target not settable: fixture_test.Widget.Tag (computed accessor without setter or backing field)", err.Error())
	})
}

func TestBuilder_IndependentInstances(t *testing.T) {
	b := fixture.New[Account](sequenceBackend(newAccount))

	a1 := b.MustCreate()
	a2 := b.MustCreate()

	assert.NotSame(t, a1, a2)
	assert.NotEqual(t, a1.ID, a2.ID)

	a1.Owner = "changed"
	a1.Tags[0] = "changed"
	assert.Equal(t, "owner-2", a2.Owner)
	assert.Equal(t, "tag-2", a2.Tags[0])
}

func TestBuilder_TemplateIsStable(t *testing.T) {
	b := fixture.New[Account](sequenceBackend(newAccount), func(t *fixture.Template[Account]) *fixture.Template[Account] {
		return t.Add(AccountOwner.Set("alice"), AccountBalance.Set(42))
	})
	require.NoError(t, b.Err())
	assert.Equal(t, 2, b.Len())

	for i := 0; i < 3; i++ {
		a := b.MustCreate()
		assert.Equal(t, "alice", a.Owner)
		assert.Equal(t, int64(42), a.Balance())
		assert.Equal(t, i+1, a.ID)
	}
}

func TestBuilder_OneOffOverrides(t *testing.T) {
	b := fixture.New[Account](sequenceBackend(newAccount), func(t *fixture.Template[Account]) *fixture.Template[Account] {
		return t.Add(AccountOwner.Set("alice"))
	})

	bob := b.With(AccountOwner.Set("bob")).MustCreate()
	assert.Equal(t, "bob", bob.Owner)

	next := b.MustCreate()
	assert.Equal(t, "alice", next.Owner)

	cleared := b.Without(AccountOwner).MustCreate()
	assert.Empty(t, cleared.Owner)
	assert.Equal(t, "alice", b.MustCreate().Owner)
}

func TestBuilder_OverrideOrder(t *testing.T) {
	tests := []struct {
		name  string
		fns   []fixture.TemplateFunc[Account]
		with  []fixture.Setter[Account]
		owner string
	}{
		{
			name: "模板内后加入的生效",
			fns: []fixture.TemplateFunc[Account]{func(t *fixture.Template[Account]) *fixture.Template[Account] {
				return t.Add(AccountOwner.Set("a"), AccountOwner.Set("b"))
			}},
			owner: "b",
		},
		{
			name: "多个模板函数按顺序",
			fns: []fixture.TemplateFunc[Account]{
				func(t *fixture.Template[Account]) *fixture.Template[Account] { return t.Add(AccountOwner.Set("a")) },
				func(t *fixture.Template[Account]) *fixture.Template[Account] { return t.Add(AccountOwner.Set("b")) },
			},
			owner: "b",
		},
		{
			name: "一次性覆盖优先于模板",
			fns: []fixture.TemplateFunc[Account]{func(t *fixture.Template[Account]) *fixture.Template[Account] {
				return t.Add(AccountOwner.Set("a"))
			}},
			with:  []fixture.Setter[Account]{AccountOwner.Set("b"), AccountOwner.Set("c")},
			owner: "c",
		},
		{
			name: "模板函数返回 nil",
			fns: []fixture.TemplateFunc[Account]{
				func(t *fixture.Template[Account]) *fixture.Template[Account] { t.Add(AccountOwner.Set("a")); return nil },
				nil,
			},
			owner: "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := fixture.New[Account](sequenceBackend(newAccount), tt.fns...).With(tt.with...).Create()
			require.NoError(t, err)
			assert.Equal(t, tt.owner, a.Owner)
		})
	}
}

func TestBuilder_ClearToZero(t *testing.T) {
	b := fixture.New[Account](sequenceBackend(newAccount))

	a := b.Without(AccountOwner, AccountBalance, AccountTags, accountVersion).MustCreate()
	assert.Empty(t, a.Owner)
	assert.Zero(t, a.Balance())
	assert.Nil(t, a.Tags)
	assert.Zero(t, a.Version)

	a = b.With(AccountOwner.Zero()).MustCreate()
	assert.Empty(t, a.Owner)
}

func TestBuilder_SetterMethod(t *testing.T) {
	b := fixture.New[Account](sequenceBackend(newAccount))

	a := b.With(AccountEmail.Set("Bob@Example.COM")).MustCreate()
	assert.Equal(t, "bob@example.com", a.Email())

	// 清空同样经过 setter
	_, err := b.Without(AccountEmail).Create()
	require.ErrorIs(t, err, errInvalidEmail)

	_, err = b.With(AccountEmail.Set("nope")).Create()
	require.ErrorIs(t, err, errInvalidEmail)
	var me *fixture.MemberError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "Email", me.Member)
	assert.Equal(t, "setter failed", me.Reason)
}

func TestBuilder_PromotedAndUnexported(t *testing.T) {
	a := fixture.New[Account](sequenceBackend(newAccount)).
		With(
			AccountUpdatedBy.Set("ops"),
			AccountCreatedBy.Set("importer"),
			accountBalance.Set(7),
		).
		MustCreate()

	require.NotNil(t, a.Audit)
	assert.Equal(t, "ops", a.UpdatedBy)
	assert.Equal(t, "importer", a.createdBy)
	assert.Equal(t, int64(7), a.Balance())
}

func TestBuilder_InvalidSelector(t *testing.T) {
	tests := []struct {
		name   string
		setter fixture.Setter[Account]
		want   error
	}{
		{"不存在的成员", fixture.Field[Account, string]("Nickname").Set("x"), fixture.ErrInvalidSelector},
		{"多跳路径", fixture.Field[Account, string]("Audit.UpdatedBy").Set("x"), fixture.ErrInvalidSelector},
		{"类型不一致", fixture.Field[Account, int]("Owner").Set(1), fixture.ErrInvalidSelector},
		{"getter 类型不一致", fixture.Field[Account, int]("Balance").Set(1), fixture.ErrInvalidSelector},
		{"不是 accessor 的方法", fixture.Field[Account, int64]("Deposit").Set(1), fixture.ErrInvalidSelector},
		{"计算属性", AccountDisplay.Set("x"), fixture.ErrTargetNotSettable},
		{"指针选择器解引用 nil 嵌入指针", fixture.Ptr(func(a *Account) *string { return &a.UpdatedBy }).Set("x"), fixture.ErrInvalidSelector},
		{"指针选择器返回外部地址", fixture.Ptr(func(a *Account) *int { return new(int) }).Set(1), fixture.ErrInvalidSelector},
		{"指针选择器返回 nil", fixture.Ptr(func(a *Account) *int { return nil }).Set(1), fixture.ErrInvalidSelector},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fixture.New[Account](sequenceBackend(newAccount)).With(tt.setter).Create()
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBuilder_NonStructOwner(t *testing.T) {
	b := fixture.New[int](sequenceBackend(func(n int) int { return n }))
	_, err := b.With(fixture.Field[int, int]("X").Set(1)).Create()
	require.ErrorIs(t, err, fixture.ErrInvalidSelector)

	v, err := b.Create()
	require.NoError(t, err)
	assert.Equal(t, 2, *v)
}

func TestBuilder_InvalidTemplate(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl) // 模板无效时不会调用后端

	b := fixture.New[Account](backend, func(t *fixture.Template[Account]) *fixture.Template[Account] {
		return t.Add(AccountOwner.Set("ok"), AccountDisplay.Set("x"))
	})
	require.ErrorIs(t, b.Err(), fixture.ErrTargetNotSettable)

	for i := 0; i < 2; i++ {
		_, err := b.Create()
		require.ErrorIs(t, err, fixture.ErrTargetNotSettable)
	}
	assert.Panics(t, func() { b.With(AccountOwner.Set("x")).Without(AccountOwner).MustCreate() })
}

func TestBuilder_FailFast(t *testing.T) {
	calls := 0
	late := AccountOwner.SetFunc(func() string {
		calls++
		return "late"
	})

	b := fixture.New[Account](sequenceBackend(newAccount)).
		With(AccountDisplay.Set("x"), late).
		With(late).
		Without(AccountOwner)
	require.ErrorIs(t, b.Err(), fixture.ErrTargetNotSettable)
	assert.Zero(t, calls)

	_, err := b.Create()
	require.ErrorIs(t, err, fixture.ErrTargetNotSettable)

	// 新的一轮恢复正常
	require.NoError(t, b.Err())
	a := b.With(late).MustCreate()
	assert.Equal(t, "late", a.Owner)
	assert.Equal(t, 1, calls)
}

func TestBuilder_FactoryReinvoked(t *testing.T) {
	next := 0
	b := fixture.New[Account](sequenceBackend(newAccount), func(t *fixture.Template[Account]) *fixture.Template[Account] {
		return t.Add(AccountBalance.SetFunc(func() int64 {
			next++
			return int64(next * 10)
		}))
	})

	assert.Equal(t, int64(10), b.MustCreate().Balance())
	assert.Equal(t, int64(20), b.MustCreate().Balance())
	assert.Equal(t, int64(30), b.MustCreate().Balance())
}

func TestBuilder_GenerateOncePerPriming(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)

	n := 0
	backend.EXPECT().
		Generate(reflect.TypeFor[Account]()).
		DoAndReturn(func(reflect.Type) (reflect.Value, error) {
			n++
			a := newAccount(n)
			return reflect.ValueOf(&a).Elem(), nil
		}).
		Times(3)

	b := fixture.New[Account](backend)
	b.With(AccountOwner.Set("x")).Without(AccountTags).MustCreate()
	b.MustCreate()
}

func TestBuilder_NestedBuilder(t *testing.T) {
	accounts := fixture.New[Account](sequenceBackend(newAccount), func(t *fixture.Template[Account]) *fixture.Template[Account] {
		return t.Add(AccountOwner.Set("buyer"))
	})
	orders := fixture.New[Order](sequenceBackend(func(n int) Order { return Order{ID: n} }), func(t *fixture.Template[Order]) *fixture.Template[Order] {
		return t.Add(
			OrderBuyer.SetFunc(accounts.MustCreate),
			OrderItems.Set([]string{"book"}),
		)
	})

	o1 := orders.MustCreate()
	o2 := orders.MustCreate()

	require.NotNil(t, o1.Buyer)
	require.NotNil(t, o2.Buyer)
	assert.NotSame(t, o1.Buyer, o2.Buyer)
	assert.Equal(t, "buyer", o1.Buyer.Owner)
	assert.NotEqual(t, o1.Buyer.ID, o2.Buyer.ID)

	o3 := orders.Without(OrderBuyer).MustCreate()
	assert.Nil(t, o3.Buyer)
}

func TestBuilder_BackendErrors(t *testing.T) {
	errBoom := errors.New("boom")

	t.Run("原样透传", func(t *testing.T) {
		b := fixture.New[Account](fixture.BackendFunc(func(reflect.Type) (reflect.Value, error) {
			return reflect.Value{}, errBoom
		}))
		assert.Same(t, errBoom, b.Err())

		_, err := b.Create()
		assert.Same(t, errBoom, err)
	})

	t.Run("类型不一致", func(t *testing.T) {
		b := fixture.New[Account](fixture.BackendFunc(func(reflect.Type) (reflect.Value, error) {
			return reflect.ValueOf(42), nil
		}))
		_, err := b.Create()
		require.ErrorIs(t, err, fixture.ErrBackendType)
	})

	t.Run("nil 后端", func(t *testing.T) {
		_, err := fixture.New[Account](nil).Create()
		require.ErrorIs(t, err, fixture.ErrNilBackend)
	})
}

func TestBuilder_MustCreatePanics(t *testing.T) {
	b := fixture.New[Widget](sequenceBackend(newWidget)).With(WidgetTag.Set("X"))
	assert.Panics(t, func() { b.MustCreate() })
}

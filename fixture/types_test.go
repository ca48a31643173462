package fixture_test

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/donutnomad/gofixture/fixture"
)

// Widget name 只有 getter，Tag 是计算属性
type Widget struct {
	name string
}

func (w *Widget) Name() string { return w.name }
func (w *Widget) Tag() string  { return "tag:" + w.name }

var (
	WidgetName = fixture.Field[Widget, string]("Name")
	WidgetTag  = fixture.Field[Widget, string]("Tag")
)

var errInvalidEmail = errors.New("invalid email")

type Base struct {
	createdBy string
	Version   int
}

type Audit struct {
	UpdatedBy string
}

type Account struct {
	ID      int
	Owner   string
	Tags    []string
	email   string
	balance int64

	Base
	*Audit
}

func (a *Account) Email() string { return a.email }

func (a *Account) SetEmail(v string) error {
	if !strings.Contains(v, "@") {
		return errInvalidEmail
	}
	a.email = strings.ToLower(v)
	return nil
}

func (a *Account) Balance() int64 { return a.balance }

func (a *Account) Display() string { return a.Owner + " <" + a.email + ">" }

func (a *Account) Deposit(n int64) { a.balance += n }

var (
	AccountID        = fixture.Field[Account, int]("ID")
	AccountOwner     = fixture.Field[Account, string]("Owner")
	AccountTags      = fixture.Field[Account, []string]("Tags")
	AccountEmail     = fixture.Field[Account, string]("Email")
	AccountBalance   = fixture.Field[Account, int64]("Balance")
	AccountDisplay   = fixture.Field[Account, string]("Display")
	AccountUpdatedBy = fixture.Field[Account, string]("UpdatedBy")
	AccountCreatedBy = fixture.Field[Account, string]("createdBy")

	accountBalance = fixture.Ptr(func(a *Account) *int64 { return &a.balance })
	accountVersion = fixture.Ptr(func(a *Account) *int { return &a.Version })
)

type Order struct {
	ID    int
	Buyer *Account
	Items []string
}

var (
	OrderBuyer = fixture.Field[Order, *Account]("Buyer")
	OrderItems = fixture.Field[Order, []string]("Items")
)

// sequenceBackend 每次调用 fn(n) 生成新值，n 从 1 开始
func sequenceBackend[T any](fn func(n int) T) fixture.Backend {
	var n int
	return fixture.BackendFunc(func(typ reflect.Type) (reflect.Value, error) {
		if typ != reflect.TypeFor[T]() {
			return reflect.Value{}, fmt.Errorf("unexpected type %s", typ)
		}
		n++
		v := fn(n)
		return reflect.ValueOf(&v).Elem(), nil
	})
}

func newAccount(n int) Account {
	return Account{
		ID:      n,
		Owner:   fmt.Sprintf("owner-%d", n),
		Tags:    []string{fmt.Sprintf("tag-%d", n)},
		email:   fmt.Sprintf("user%d@example.com", n),
		balance: int64(n * 100),
		Base:    Base{createdBy: "seed", Version: n},
	}
}

func newWidget(n int) Widget {
	return Widget{name: fmt.Sprintf("generated-%d", n)}
}

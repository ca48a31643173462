package accessors

import (
	"time"

	fake "github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
)

// Audit 审计信息
type Audit struct {
	CreatedBy string
	createdAt time.Time
}

func (a *Audit) CreatedAt() time.Time { return a.createdAt }

// Left Right 在同一深度都有 Label 字段
type Left struct{ Label string }
type Right struct{ Label string }

// Account 带访问器的账户
type Account struct {
	ID      int64
	email   string
	balance decimal.Decimal
	Tags    []string `fake:"{word}" json:"tags"`
	Faker   *fake.Faker
	Audit
	*Left
	Right
	time.Location
}

func (a *Account) Email() string { return a.email }

func (a *Account) SetEmail(v string) error {
	a.email = v
	return nil
}

func (a Account) Balance() decimal.Decimal { return a.balance }

// Display 计算属性
func (a Account) Display() string { return a.email }

func (a *Account) Deposit(n decimal.Decimal, note, by string) {}

// Pair 泛型结构体
type Pair[K comparable, V any] struct {
	Key K
	Val V
}

func (p *Pair[K, V]) Swap() {}

// Loop 自引用嵌入
type Loop struct {
	*Loop
	N int
}

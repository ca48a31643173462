package example

import "time"

//go:gofixture: plugin:buildergen -output `builders_gen`
//go:generate go run github.com/donutnomad/gofixture gen .

// 示例 1: 生成 AccountBuilder 与 NewAccountBuilder
//
//	acc := NewAccountBuilder(fakeit.New(fakeit.WithSeed(1))).
//		WithEmail("a@b.c").
//		WithoutNickname().
//		MustCreate()
//
// @FixtureBuilder
type Account struct {
	ID        int64
	email     string
	Nickname  string
	CreatedAt time.Time
}

func (a *Account) Email() string { return a.email }

func (a *Account) SetEmail(v string) error {
	a.email = v
	return nil
}

// 示例 2: 自定义类型名，只为导出字段生成方法
// @FixtureBuilder(name=`invoiceFactory`, unexported=false)
type Invoice struct {
	Number string
	Lines  []string
	total  int64
}

package example

import "time"

//go:generate go run github.com/donutnomad/gofixture gen .

// 示例 1: 默认参数，生成 OrderID、OrderAmount 等选择器，包含未导出字段
// @Fixture
type Order struct {
	ID        int64
	Amount    int64
	status    string
	CreatedAt time.Time
}

// Status 有 backing field，选择器使用 getter 名
func (o *Order) Status() string { return o.status }

// Paid 计算属性，不生成选择器
func (o *Order) Paid() bool { return o.status == "paid" }

// 示例 2: 自定义前缀，只包含导出成员
// @Fixture(prefix=`Cust`, unexported=false)
type Customer struct {
	Name  string
	Email string
	notes []string
}

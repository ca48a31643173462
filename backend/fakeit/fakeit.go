// Package fakeit 是基于 gofakeit 的 fixture.Backend 实现
//
// 默认行为交给 gofakeit：导出字段按类型或 `fake:"..."` 标签填充随机值，
// 未导出字段保持零值。在此之上可以按类型注册定制（Customize），
// 定制对顶层类型和嵌套在导出字段中的类型同样生效。
//
//	backend := fakeit.New(fakeit.WithSeed(42))
//	fakeit.Customize(backend, func(f *gofakeit.Faker) Money {
//	    return Money{Amount: f.IntRange(1, 100), Currency: "USD"}
//	})
package fakeit

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/exp/maps"
)

// maxDepth 定制替换时的最大递归深度
const maxDepth = 10

type factory func(f *gofakeit.Faker) reflect.Value

// Backend 实现 fixture.Backend，同一个 Backend 可以被多个 Builder 共享
//
// 定制工厂在不持有任何锁的情况下调用，工厂内部可以再用同一个 Backend
// 构建其它实例（例如嵌套的 Builder）。每次调用工厂都会得到一个从共享
// faker 派生的独立 faker，设置了种子时结果仍然可以复现。
type Backend struct {
	// mu 保护 customs 的替换；customs 写时复制，取到的 map 不会再被修改
	mu      sync.Mutex
	customs map[reflect.Type]factory

	// fakerMu 只保护 faker（WithFaker 传入的 Faker 可能未加锁）
	fakerMu sync.Mutex
	faker   *gofakeit.Faker
}

// Option 后端选项
type Option func(*Backend)

// WithSeed 使用固定种子，便于复现
func WithSeed(seed uint64) Option {
	return func(b *Backend) {
		b.faker = gofakeit.New(seed)
	}
}

// WithFaker 使用调用方提供的 Faker
func WithFaker(f *gofakeit.Faker) Option {
	return func(b *Backend) {
		if f != nil {
			b.faker = f
		}
	}
}

// New 创建后端，默认使用随机种子
func New(opts ...Option) *Backend {
	b := &Backend{
		customs: make(map[reflect.Type]factory),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.faker == nil {
		b.faker = gofakeit.New(0)
	}
	return b
}

// Customize 为类型 V 注册工厂，后注册的覆盖先注册的，fn 为 nil 时移除
func Customize[V any](b *Backend, fn func(f *gofakeit.Faker) V) *Backend {
	typ := reflect.TypeFor[V]()

	b.mu.Lock()
	defer b.mu.Unlock()

	next := maps.Clone(b.customs)
	if fn == nil {
		delete(next, typ)
	} else {
		next[typ] = func(f *gofakeit.Faker) reflect.Value {
			v := fn(f)
			return reflect.ValueOf(&v).Elem()
		}
	}
	b.customs = next
	return b
}

// Customization 一组定制的打包，可以整体应用到多个 Backend
type Customization interface {
	Customize(b *Backend)
}

// CustomizationFunc 将函数适配为 Customization
type CustomizationFunc func(b *Backend)

// Customize implements Customization.
func (f CustomizationFunc) Customize(b *Backend) { f(b) }

// Apply 依次应用定制
func (b *Backend) Apply(cs ...Customization) *Backend {
	for _, c := range cs {
		if c != nil {
			c.Customize(b)
		}
	}
	return b
}

// Generate implements fixture.Backend.
func (b *Backend) Generate(typ reflect.Type) (reflect.Value, error) {
	customs := b.snapshot()
	if fn, ok := customs[typ]; ok {
		return fn(b.child()), nil
	}

	ptr := reflect.New(typ)
	b.fakerMu.Lock()
	err := b.faker.Struct(ptr.Interface())
	b.fakerMu.Unlock()
	if err != nil {
		return reflect.Value{}, fmt.Errorf("fakeit: generate %s: %w", typ, err)
	}
	if len(customs) > 0 {
		b.customizeValue(customs, ptr.Elem(), 0)
	}
	return ptr.Elem(), nil
}

func (b *Backend) snapshot() map[reflect.Type]factory {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.customs
}

// child 从共享 faker 取一个种子，派生出只给一次工厂调用使用的 faker
func (b *Backend) child() *gofakeit.Faker {
	b.fakerMu.Lock()
	seed := b.faker.Uint64()
	b.fakerMu.Unlock()
	return gofakeit.New(seed)
}

// customizeValue 递归替换已注册定制的类型，只处理可写（导出）的位置
// 顶层类型在 Generate 中已经处理过，这里从 depth 1 开始匹配
func (b *Backend) customizeValue(customs map[reflect.Type]factory, v reflect.Value, depth int) {
	if depth > maxDepth || !v.CanSet() {
		return
	}
	if depth > 0 {
		if fn, ok := customs[v.Type()]; ok {
			v.Set(fn(b.child()))
			return
		}
	}

	switch v.Kind() {
	case reflect.Pointer:
		if !v.IsNil() {
			b.customizeValue(customs, v.Elem(), depth+1)
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			b.customizeValue(customs, v.Field(i), depth+1)
		}
	}
}

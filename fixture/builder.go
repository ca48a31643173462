package fixture

import (
	"fmt"
)

// Builder 测试数据构建器
//
// 状态机：
//
//	New ──> 准备(generate + template) ──> 就绪 ──With/Without──> 就绪
//	                  ^                     │
//	                  └──────── Create ─────┘
//
// 准备阶段自动执行，不对外暴露。Builder 不是并发安全的。
type Builder[T any] struct {
	backend  Backend
	template []Setter[T] // 构造后不再改变
	pending  *T

	// fatal 模板错误，永久性
	fatal error
	// err 当前这一轮的第一个错误，Create 时清除
	err error
}

// New 创建 Builder 并立即准备第一个实例
//
// fns 按顺序作用于同一个模板，每个函数返回的模板作为下一个函数的输入；
// 返回 nil 等同于返回传入的模板。
func New[T any](backend Backend, fns ...TemplateFunc[T]) *Builder[T] {
	b := &Builder[T]{backend: backend}
	if backend == nil {
		b.fatal = ErrNilBackend
		return b
	}

	tmpl := NewTemplate[T]()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		if next := fn(tmpl); next != nil {
			tmpl = next
		}
	}
	if err := tmpl.Err(); err != nil {
		b.fatal = fmt.Errorf("fixture: invalid template: %w", err)
		return b
	}

	b.template = tmpl.snapshot()
	b.prime()
	return b
}

// prime 生成新的实例并应用模板
func (b *Builder[T]) prime() {
	v, err := Generate[T](b.backend)
	if err != nil {
		b.pending, b.err = nil, err
		return
	}
	b.pending = &v
	b.err = applySetters(b.pending, b.template)
}

// With 对当前实例立即应用一次性覆盖，不影响之后的实例
func (b *Builder[T]) With(setters ...Setter[T]) *Builder[T] {
	for _, s := range setters {
		if b.Err() != nil {
			break
		}
		if s == nil {
			continue
		}
		b.err = s.Apply(b.pending)
	}
	return b
}

// Without 把当前实例的成员清空为零值，不影响之后的实例
func (b *Builder[T]) Without(members ...Member[T]) *Builder[T] {
	for _, m := range members {
		if b.Err() != nil {
			break
		}
		if m == nil {
			continue
		}
		b.err = (&zeroSetter[T]{member: m}).Apply(b.pending)
	}
	return b
}

// Create 返回当前实例，并准备下一个
//
// 如果这一轮出现过错误，返回该错误（实例为 nil），Builder 仍会准备下一轮。
func (b *Builder[T]) Create() (*T, error) {
	if b.fatal != nil {
		return nil, b.fatal
	}

	result, err := b.pending, b.err
	b.err = nil
	b.prime()

	if err != nil {
		return nil, err
	}
	return result, nil
}

// MustCreate 与 Create 相同，出错时 panic
func (b *Builder[T]) MustCreate() *T {
	v, err := b.Create()
	if err != nil {
		panic(err)
	}
	return v
}

// Err 返回当前这一轮的错误（模板错误优先）
func (b *Builder[T]) Err() error {
	if b.fatal != nil {
		return b.fatal
	}
	return b.err
}

// Len 返回模板中的 Setter 数量
func (b *Builder[T]) Len() int { return len(b.template) }

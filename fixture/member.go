package fixture

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

// Member 标识类型 T 的一个成员
//
// Member 不关心值类型，Without 只需要它。
type Member[T any] interface {
	// Name 返回成员名，用于诊断信息
	Name() string

	resolve() (target, error)
}

// Selector 带值类型的成员选择器，可以产生 Setter
type Selector[T, V any] interface {
	Member[T]

	// Set 固定值：v 在创建 Setter 时被捕获
	Set(v V) Setter[T]

	// SetFunc 工厂：每次应用 Setter 时都会重新调用 fn
	SetFunc(fn func() V) Setter[T]

	// Zero 清空为 V 的零值
	Zero() Setter[T]
}

// FieldSelector 以成员名（key）标识成员
//
// key 可以是字段名（导出或未导出），也可以是 getter 方法名。
// 解析规则见包文档；解析结果按类型缓存，首次使用时才解析。
type FieldSelector[T, V any] struct {
	key string
}

var _ Selector[struct{}, int] = FieldSelector[struct{}, int]{}

// Field 创建一个按名称解析的选择器
//
//	var WidgetName = fixture.Field[Widget, string]("Name")
func Field[T, V any](key string) FieldSelector[T, V] {
	return FieldSelector[T, V]{key: key}
}

// Name implements Member.
func (s FieldSelector[T, V]) Name() string { return s.key }

func (s FieldSelector[T, V]) resolve() (target, error) {
	return members.resolveKey(reflect.TypeFor[T](), s.key, reflect.TypeFor[V]())
}

// Set implements Selector.
func (s FieldSelector[T, V]) Set(v V) Setter[T] {
	return &memberSetter[T, V]{member: s, source: func() V { return v }}
}

// SetFunc implements Selector.
func (s FieldSelector[T, V]) SetFunc(fn func() V) Setter[T] {
	return &memberSetter[T, V]{member: s, source: fn}
}

// Zero implements Selector.
func (s FieldSelector[T, V]) Zero() Setter[T] {
	return &zeroSetter[T]{member: s}
}

// PtrSelector 以取址函数标识成员，只能在能访问该字段的包内使用
//
// fn 只会在一个零值探针上调用一次，用来计算字段偏移，不会读取字段的值。
// fn 必须直接返回参数某个字段的地址，例如 &w.name；
// 返回其它地址（全局变量、嵌套结构体的字段等）视为 ErrInvalidSelector。
type PtrSelector[T, V any] struct {
	state *ptrState[T, V]
}

type ptrState[T, V any] struct {
	fn   func(*T) *V
	once sync.Once
	name string
	t    target
	err  error
}

var _ Selector[struct{}, int] = PtrSelector[struct{}, int]{}

// Ptr 创建一个指针选择器
//
//	var widgetName = fixture.Ptr(func(w *Widget) *string { return &w.name })
func Ptr[T, V any](fn func(*T) *V) PtrSelector[T, V] {
	return PtrSelector[T, V]{state: &ptrState[T, V]{fn: fn}}
}

// Name implements Member. 解析失败时返回 "?"
func (s PtrSelector[T, V]) Name() string {
	if _, err := s.resolve(); err != nil {
		return "?"
	}
	return s.state.name
}

func (s PtrSelector[T, V]) resolve() (target, error) {
	st := s.state
	if st == nil {
		return nil, invalidSelector(reflect.TypeFor[T]().String(), "?", "zero PtrSelector")
	}
	st.once.Do(func() {
		if st.fn == nil {
			st.err = invalidSelector(reflect.TypeFor[T]().String(), "?", "nil selector func")
			return
		}
		st.t, st.name, st.err = resolvePointer(reflect.TypeFor[T](), reflect.TypeFor[V](), st.address)
	})
	return st.t, st.err
}

// address 在探针上调用 fn，选择器内部 panic（如解引用 nil 嵌入指针）转为错误
func (st *ptrState[T, V]) address(probe reflect.Value) (addr uintptr, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("selector panicked: %v", rec)
		}
	}()

	p := st.fn(probe.Interface().(*T))
	if p == nil {
		return 0, errors.New("selector returned nil")
	}
	return uintptr(unsafe.Pointer(p)), nil
}

// Set implements Selector.
func (s PtrSelector[T, V]) Set(v V) Setter[T] {
	return &memberSetter[T, V]{member: s, source: func() V { return v }}
}

// SetFunc implements Selector.
func (s PtrSelector[T, V]) SetFunc(fn func() V) Setter[T] {
	return &memberSetter[T, V]{member: s, source: fn}
}

// Zero implements Selector.
func (s PtrSelector[T, V]) Zero() Setter[T] {
	return &zeroSetter[T]{member: s}
}

// Resolve 解析成员并返回其存储类型，可用来提前校验选择器
func Resolve[T any](m Member[T]) (TargetKind, error) {
	if m == nil {
		return 0, invalidSelector(reflect.TypeFor[T]().String(), "?", "nil member")
	}
	t, err := m.resolve()
	if err != nil {
		return 0, err
	}
	return t.kind(), nil
}

package fixture

import (
	"fmt"
	"reflect"
)

// Backend 是外部生成后端的最小契约
//
// Generate 必须返回类型恰好为 typ 的值。后端如何生成（随机、递归深度、
// 按类型定制）与本包无关；每一轮准备实例时只调用一次。
// 同一个 Backend 可以被多个 Builder 共享，本包不会修改它。
type Backend interface {
	Generate(typ reflect.Type) (reflect.Value, error)
}

// BackendFunc 将普通函数适配为 Backend
type BackendFunc func(typ reflect.Type) (reflect.Value, error)

// Generate implements Backend.
func (f BackendFunc) Generate(typ reflect.Type) (reflect.Value, error) {
	return f(typ)
}

// Generate 通过后端生成一个 T
//
// 后端返回的错误原样透传；返回值类型不符时返回 ErrBackendType。
func Generate[T any](b Backend) (T, error) {
	var zero T
	if b == nil {
		return zero, ErrNilBackend
	}

	typ := reflect.TypeFor[T]()
	v, err := b.Generate(typ)
	if err != nil {
		return zero, err
	}
	if !v.IsValid() {
		return zero, fmt.Errorf("%w: want %s, got invalid value", ErrBackendType, typ)
	}
	if v.Type() != typ {
		return zero, fmt.Errorf("%w: want %s, got %s", ErrBackendType, typ, v.Type())
	}
	return v.Interface().(T), nil
}

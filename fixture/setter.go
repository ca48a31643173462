package fixture

import (
	"reflect"
)

// Setter 一次延迟的写入：把某个值写入 T 实例的某个成员
type Setter[T any] interface {
	// Member 返回目标成员名
	Member() string

	// Apply 原地修改 obj
	Apply(obj *T) error
}

// validator 由本包的 Setter 实现，在加入模板时提前解析选择器
type validator interface {
	validate() error
}

// memberSetter 由 Selector.Set / SetFunc 创建
type memberSetter[T, V any] struct {
	member Member[T]
	source func() V
}

func (s *memberSetter[T, V]) Member() string { return s.member.Name() }

func (s *memberSetter[T, V]) validate() error {
	if s.source == nil {
		return invalidSelector(reflect.TypeFor[T]().String(), s.member.Name(), "nil value factory")
	}
	_, err := s.member.resolve()
	return err
}

// Apply implements Setter. source 在选择器解析成功之后才调用
func (s *memberSetter[T, V]) Apply(obj *T) error {
	if obj == nil {
		return ErrNilInstance
	}
	if s.source == nil {
		return s.validate()
	}
	t, err := s.member.resolve()
	if err != nil {
		return err
	}
	v := s.source()
	return write(t, obj, s.member.Name(), reflect.ValueOf(&v).Elem())
}

// zeroSetter 把成员重置为零值，由 Selector.Zero 和 Builder.Without 创建
type zeroSetter[T any] struct {
	member Member[T]
}

func (s *zeroSetter[T]) Member() string { return s.member.Name() }

func (s *zeroSetter[T]) validate() error {
	_, err := s.member.resolve()
	return err
}

// Apply implements Setter.
func (s *zeroSetter[T]) Apply(obj *T) error {
	if obj == nil {
		return ErrNilInstance
	}
	t, err := s.member.resolve()
	if err != nil {
		return err
	}
	return write(t, obj, s.member.Name(), reflect.Zero(t.valueType()))
}

func write[T any](t target, obj *T, member string, val reflect.Value) error {
	if err := t.write(reflect.ValueOf(obj).Elem(), val); err != nil {
		return &MemberError{Type: reflect.TypeFor[T]().String(), Member: member, Reason: "setter failed", Err: err}
	}
	return nil
}

package fixture

import (
	"slices"

	"github.com/samber/lo"
)

// Template 有序的默认 Setter 序列
//
// 只声明，不应用：应用永远由 Builder 负责。
// 顺序有意义，同一成员被多次设置时后加入的生效。
type Template[T any] struct {
	setters []Setter[T]
	err     error
}

// TemplateFunc 接收一个可追加的模板并返回最终的模板
type TemplateFunc[T any] func(t *Template[T]) *Template[T]

// NewTemplate 创建空模板
func NewTemplate[T any]() *Template[T] {
	return &Template[T]{}
}

// Add 追加 Setter，nil 会被忽略
//
// 本包创建的 Setter 在加入时即解析选择器，第一个错误会被记录，
// 之后由 Builder 在构造时返回。
func (t *Template[T]) Add(setters ...Setter[T]) *Template[T] {
	for _, s := range setters {
		if s == nil {
			continue
		}
		if v, ok := s.(validator); ok && t.err == nil {
			t.err = v.validate()
		}
		t.setters = append(t.setters, s)
	}
	return t
}

// Len 返回 Setter 数量
func (t *Template[T]) Len() int { return len(t.setters) }

// Members 按顺序返回每个 Setter 的目标成员名
func (t *Template[T]) Members() []string {
	return lo.Map(t.setters, func(s Setter[T], _ int) string { return s.Member() })
}

// Err 返回加入 Setter 时遇到的第一个错误
func (t *Template[T]) Err() error { return t.err }

func (t *Template[T]) snapshot() []Setter[T] {
	return slices.Clip(slices.Clone(t.setters))
}

// applySetters 按顺序应用，遇到错误立即返回，已应用的不回滚
func applySetters[T any](obj *T, setters []Setter[T]) error {
	for _, s := range setters {
		if err := s.Apply(obj); err != nil {
			return err
		}
	}
	return nil
}

package fixture

import (
	"errors"
	"strconv"
)

var (
	// ErrTargetNotSettable 成员没有可写的存储（没有 setter，也没有 backing field）
	ErrTargetNotSettable = errors.New("fixture: target not settable")

	// ErrInvalidSelector 选择器不是对单个成员的引用，或值类型与成员类型不一致
	ErrInvalidSelector = errors.New("fixture: invalid selector")

	// ErrBackendType 生成后端返回的值与请求的类型不一致
	ErrBackendType = errors.New("fixture: backend returned unexpected type")

	// ErrNilBackend 构造 Builder 时没有提供生成后端
	ErrNilBackend = errors.New("fixture: nil backend")

	// ErrNilInstance setter 被应用到 nil 实例上
	ErrNilInstance = errors.New("fixture: nil instance")
)

// MemberError 描述某个类型的某个成员解析或写入失败
//
// errors.Is(err, ErrTargetNotSettable) 等判断可以穿透 MemberError。
type MemberError struct {
	// Type 所属类型，如 "pkg.Widget"
	Type string

	// Member 成员名（选择器的 key 或解析出的字段名）
	Member string

	// Reason 补充说明，可为空
	Reason string

	// Err 底层错误，通常是本包的哨兵错误或 setter 方法返回的错误
	Err error
}

// Error implements the error interface.
func (e *MemberError) Error() string {
	// 例: fixture: target not settable: pkg.Widget.Tag (computed accessor without backing field)
	msg := e.Err.Error() + ": " + e.Type + "." + e.Member
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

// Unwrap 返回底层错误
func (e *MemberError) Unwrap() error { return e.Err }

func invalidSelector(owner, member, reason string) error {
	return &MemberError{Type: owner, Member: member, Reason: reason, Err: ErrInvalidSelector}
}

func notSettable(owner, member, reason string) error {
	return &MemberError{Type: owner, Member: member, Reason: reason, Err: ErrTargetNotSettable}
}

func typeMismatch(owner, member, want, got string) error {
	return invalidSelector(owner, member, "member type is "+strconv.Quote(want)+", selector value type is "+strconv.Quote(got))
}

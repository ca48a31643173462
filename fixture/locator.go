package fixture

import (
	"fmt"
	"go/token"
	"reflect"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
	"unsafe"

	"github.com/samber/lo"
)

// TargetKind 表示成员最终被解析成的存储类型
type TargetKind int

const (
	TargetSetter       TargetKind = iota + 1 // 通过 Set<Name> 方法写入
	TargetBackingField                       // 只有 getter 的属性，写入其 backing field
	TargetField                              // 普通字段
)

func (k TargetKind) String() string {
	switch k {
	case TargetSetter:
		return "setter"
	case TargetBackingField:
		return "backing-field"
	case TargetField:
		return "field"
	default:
		return "unknown"
	}
}

var errorType = reflect.TypeFor[error]()

// target 是解析完成的可写目标
// obj 必须是可寻址的结构体值（*T 的 Elem）
type target interface {
	kind() TargetKind
	valueType() reflect.Type
	write(obj reflect.Value, val reflect.Value) error
}

// setterTarget 通过 Set<Name>(v) 方法写入
// embed 是提升方法所在嵌入字段的索引路径，方法直接声明在 T 上时为空
type setterTarget struct {
	method     reflect.Method
	typ        reflect.Type
	returnsErr bool
	embed      []int
}

func (t *setterTarget) kind() TargetKind        { return TargetSetter }
func (t *setterTarget) valueType() reflect.Type { return t.typ }

func (t *setterTarget) write(obj reflect.Value, val reflect.Value) error {
	if err := allocEmbedded(obj, t.embed); err != nil {
		return err
	}
	out := t.method.Func.Call([]reflect.Value{obj.Addr(), val})
	if t.returnsErr && !out[0].IsNil() {
		return out[0].Interface().(error)
	}
	return nil
}

// fieldTarget 直接写入字段存储，未导出字段同样适用
type fieldTarget struct {
	index   []int
	typ     reflect.Type
	backing bool
}

func (t *fieldTarget) kind() TargetKind {
	if t.backing {
		return TargetBackingField
	}
	return TargetField
}

func (t *fieldTarget) valueType() reflect.Type { return t.typ }

func (t *fieldTarget) write(obj reflect.Value, val reflect.Value) error {
	settable(fieldByIndexAlloc(obj, t.index)).Set(val)
	return nil
}

// settable 绕过未导出字段的只读标记
func settable(v reflect.Value) reflect.Value {
	if v.CanSet() {
		return v
	}
	return reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem()
}

// fieldByIndexAlloc 与 reflect.Value.FieldByIndex 相同，
// 但遇到 nil 的嵌入指针时先分配再继续
func fieldByIndexAlloc(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				settable(v).Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}

// allocEmbedded 沿嵌入路径分配 nil 的嵌入指针，提升方法的接收者因此不为 nil
func allocEmbedded(v reflect.Value, path []int) error {
	for _, x := range path {
		v = v.Field(x)
		switch v.Kind() {
		case reflect.Pointer:
			if v.IsNil() {
				settable(v).Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		case reflect.Interface:
			if v.IsNil() {
				return fmt.Errorf("embedded interface %s is nil", v.Type())
			}
			return nil
		}
	}
	return nil
}

// promotedPath 返回方法 name 所在嵌入字段的索引路径
// 同一层有多个嵌入字段带有该方法时，方法只能声明在当前类型上，路径到此为止。
// 当前类型自己声明了同名方法时仍会沿嵌入字段下探，多分配的嵌入指针不影响写入。
func promotedPath(owner reflect.Type, name string) []int {
	var path []int
	seen := make(map[reflect.Type]bool)
	for t := owner; t.Kind() == reflect.Struct && !seen[t]; {
		seen[t] = true
		next := -1
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.Anonymous || !hasMethod(f.Type, name) {
				continue
			}
			if next >= 0 {
				return path
			}
			next = i
		}
		if next < 0 {
			return path
		}
		path = append(path, next)
		t = t.Field(next).Type
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
	}
	return path
}

func hasMethod(t reflect.Type, name string) bool {
	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface {
		t = reflect.PointerTo(t)
	}
	_, ok := t.MethodByName(name)
	return ok
}

// locator 将成员选择器解析为可写目标，结果按 (类型, 成员, 值类型) 缓存
type locator struct {
	cache sync.Map // cacheKey -> *cacheEntry
}

type cacheKey struct {
	owner  reflect.Type
	member string
	value  reflect.Type
}

type cacheEntry struct {
	target target
	err    error
}

// members 进程级共享的解析器
var members = &locator{}

// resolveKey 按名称解析成员，失败结果同样会被缓存
func (l *locator) resolveKey(owner reflect.Type, member string, value reflect.Type) (target, error) {
	key := cacheKey{owner: owner, member: member, value: value}
	if e, ok := l.cache.Load(key); ok {
		entry := e.(*cacheEntry)
		return entry.target, entry.err
	}

	t, err := resolveMember(owner, member, value)
	e, _ := l.cache.LoadOrStore(key, &cacheEntry{target: t, err: err})
	entry := e.(*cacheEntry)
	return entry.target, entry.err
}

// resolveMember 解析顺序：
//  1. getter + Set<Name> 方法
//  2. getter + backing field（name / _name）
//  3. 同名字段
//  4. 只有 getter：ErrTargetNotSettable
func resolveMember(owner reflect.Type, member string, value reflect.Type) (target, error) {
	ownerName := owner.String()
	if owner.Kind() != reflect.Struct {
		return nil, invalidSelector(ownerName, member, "owner type is not a struct")
	}
	if strings.Contains(member, ".") {
		return nil, invalidSelector(ownerName, member, "nested member paths are not supported, use a nested builder")
	}
	if !token.IsIdentifier(member) {
		return nil, invalidSelector(ownerName, member, "member key must be an identifier")
	}

	ptr := reflect.PointerTo(owner)
	if getter, ok := ptr.MethodByName(member); ok {
		return resolveProperty(owner, ptr, getter, value)
	}

	if f, ok := owner.FieldByName(member); ok {
		if f.Type != value {
			return nil, typeMismatch(ownerName, member, f.Type.String(), value.String())
		}
		return &fieldTarget{index: f.Index, typ: f.Type}, nil
	}

	return nil, invalidSelector(ownerName, member, "no such field or accessor")
}

func resolveProperty(owner, ptr reflect.Type, getter reflect.Method, value reflect.Type) (target, error) {
	ownerName := owner.String()
	member := getter.Name

	// 方法类型的第一个参数是接收者
	if getter.Type.NumIn() != 1 || getter.Type.NumOut() != 1 {
		return nil, invalidSelector(ownerName, member, "method is not an accessor")
	}
	if out := getter.Type.Out(0); out != value {
		return nil, typeMismatch(ownerName, member, out.String(), value.String())
	}

	if setter, ok := ptr.MethodByName("Set" + member); ok {
		if t, ok := newSetterTarget(setter, value); ok {
			t.embed = promotedPath(owner, setter.Name)
			return t, nil
		}
	}

	// 类型不一致的同名字段不是 backing field，继续尝试下一个候选
	for _, name := range backingFieldNames(member) {
		if f, ok := owner.FieldByName(name); ok && f.Type == value {
			return &fieldTarget{index: f.Index, typ: f.Type, backing: true}, nil
		}
	}

	return nil, notSettable(ownerName, member, "computed accessor without setter or backing field")
}

// newSetterTarget 只接受 func(V) 或 func(V) error 形式的 setter
func newSetterTarget(m reflect.Method, value reflect.Type) (*setterTarget, bool) {
	mt := m.Type
	if mt.NumIn() != 2 || mt.In(1) != value {
		return nil, false
	}
	switch {
	case mt.NumOut() == 0:
		return &setterTarget{method: m, typ: value}, true
	case mt.NumOut() == 1 && mt.Out(0) == errorType:
		return &setterTarget{method: m, typ: value, returnsErr: true}, true
	default:
		return nil, false
	}
}

// backingFieldNames Name -> name, _name；ID -> iD, id, _iD
func backingFieldNames(accessor string) []string {
	lower := lowerFirst(accessor)
	return lo.Uniq([]string{lower, strings.ToLower(accessor), "_" + lower})
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// resolvePointer 根据指针选择器返回的地址定位字段
// probe 是一个全新的零值 *T，fn 只被用来计算地址，不读取任何值
func resolvePointer(owner reflect.Type, value reflect.Type, addr func(probe reflect.Value) (uintptr, error)) (target, string, error) {
	ownerName := owner.String()
	if owner.Kind() != reflect.Struct {
		return nil, "", invalidSelector(ownerName, "?", "owner type is not a struct")
	}

	probe := reflect.New(owner)
	p, err := addr(probe)
	if err != nil {
		return nil, "", invalidSelector(ownerName, "?", err.Error())
	}

	base := probe.Pointer()
	if p < base || p >= base+owner.Size() {
		return nil, "", invalidSelector(ownerName, "?", "selector must return the address of a field of its argument")
	}

	f, ok := fieldAtOffset(owner, p-base, value)
	if !ok {
		return nil, "", invalidSelector(ownerName, "?", "no field of type "+value.String()+" at the selected address")
	}
	return &fieldTarget{index: f.Index, typ: f.Type}, f.Name, nil
}

// fieldAtOffset 查找位于 offset、类型为 typ 的字段
// 只展开匿名的值类型嵌入字段；具名的嵌套结构体属于多跳路径，不支持
func fieldAtOffset(owner reflect.Type, offset uintptr, typ reflect.Type) (reflect.StructField, bool) {
	for i := 0; i < owner.NumField(); i++ {
		f := owner.Field(i)
		if f.Offset == offset && f.Type == typ {
			return f, true
		}
	}
	for i := 0; i < owner.NumField(); i++ {
		f := owner.Field(i)
		if !f.Anonymous || f.Type.Kind() != reflect.Struct {
			continue
		}
		if offset < f.Offset || offset >= f.Offset+f.Type.Size() {
			continue
		}
		if inner, ok := fieldAtOffset(f.Type, offset-f.Offset, typ); ok {
			inner.Index = append([]int{i}, inner.Index...)
			inner.Offset += f.Offset
			return inner, true
		}
	}
	return reflect.StructField{}, false
}

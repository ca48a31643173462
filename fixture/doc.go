// Package fixture 提供基于可插拔生成后端的测试数据构建器。
//
// 生成后端（Backend）负责为任意类型制造一个"看起来合理"的默认实例，
// 本包只负责在其之上做定向覆盖：把某个成员改成指定值、由工厂函数产生的值，
// 或者清空为零值。覆盖同样适用于外部代码无法直接写入的成员：
//
//  1. 有 setter 方法的属性（Name() + SetName(v)）：通过 setter 写入
//  2. 只有 getter 的属性（Name() + 未导出字段 name）：直接写入 backing field
//  3. 普通字段（导出或未导出，包括嵌入结构体的提升字段）：直接写入
//  4. 纯计算属性（只有 getter，没有存储）：返回 ErrTargetNotSettable
//
// # 基本用法
//
//	var (
//	    WidgetName = fixture.Field[Widget, string]("Name")
//	    WidgetTag  = fixture.Field[Widget, string]("Tag")
//	)
//
//	b := fixture.New[Widget](fakeit.New(), func(t *fixture.Template[Widget]) *fixture.Template[Widget] {
//	    return t.Add(WidgetName.Set("W1"))
//	})
//
//	w, err := b.With(WidgetTag.Set("X")).Create() // Tag 是计算属性: ErrTargetNotSettable
//	w, err = b.Without(WidgetName).Create()       // Name 被清空为 ""
//
// 同一个包内也可以用指针选择器，编译期检查成员和类型：
//
//	var widgetName = fixture.Ptr(func(w *Widget) *string { return &w.name })
//
// # 模板与一次性覆盖
//
// Builder 同时持有两份状态：
//
//   - pending:  下一次 Create 要返回的实例，With/Without 原地修改它
//   - template: 构造时确定的默认覆盖序列，每次重新生成实例后按顺序应用
//
// Create 返回当前 pending，然后重新调用后端生成新实例并应用模板。
// 一次性覆盖只影响当前这一轮，不会泄漏到之后的实例中。
//
// # 错误
//
// Builder 的链式调用采用"粘性错误"：第一次失败被记录下来，同一轮后续的
// With/Without 不再执行，Create 返回该错误并开始新的一轮。
// 模板本身的错误（选择器无效等）是永久性的，每次 Create 都会返回。
// 后端返回的错误原样透传，不做包装和重试。
//
// Builder 不是并发安全的；成员解析缓存是进程级共享且并发安全的。
package fixture

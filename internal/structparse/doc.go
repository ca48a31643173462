// Package structparse 对单个包做静态分析，提取结构体的字段、方法和导入信息。
//
// 解析以包目录为单位进行：同一目录下所有非测试文件只解析一次并缓存在
// ParseContext 中，方法可以定义在包内任意文件。
//
//	info, err := structparse.ParseStruct("models/account.go", "Account")
//	for _, f := range info.Fields {
//	    fmt.Println(f.Name, f.Type, f.SourceType)
//	}
//
// # 嵌入字段
//
// 同包内的匿名嵌入结构体（值或指针）会被展开，提升的字段和方法记录
// SourceType 与 Depth；同一深度出现重名成员时按 Go 的规则视为有歧义并丢弃。
// 嵌入其他包的结构体只保留嵌入字段本身，不展开。
//
// # 包名推断
//
// 没有显式别名的导入按路径推断包名：取最后一段，去掉版本后缀 /vN、
// go- 前缀以及 .go 后缀。推断失败的限定符交给 goimports 在写文件时修正。
package structparse

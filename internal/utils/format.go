package utils

import (
	"fmt"
	"os"

	"golang.org/x/tools/imports"
)

// FormatSource 用 goimports 格式化源码，补齐缺失的 import 并删除未使用的
func FormatSource(filename string, src []byte) ([]byte, error) {
	out, err := imports.Process(filename, src, &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, fmt.Errorf("格式化 %s 失败: %w", filename, err)
	}
	return out, nil
}

// WriteFormat 格式化后写入文件
// 格式化失败时仍写入原始内容，便于定位生成代码的问题
func WriteFormat(filename string, src []byte) error {
	out, err := FormatSource(filename, src)
	if err != nil {
		if werr := os.WriteFile(filename, src, 0644); werr != nil {
			return werr
		}
		return err
	}
	return os.WriteFile(filename, out, 0644)
}

// CheckSyntax 只检查语法，不修改 import
func CheckSyntax(filename string) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	_, err = imports.Process(filename, content, &imports.Options{
		Fragment:   true,
		AllErrors:  true,
		Comments:   true,
		FormatOnly: true,
	})
	return err
}

package utils

import (
	"go/token"
	"strings"
	"unicode"
	"unicode/utf8"
)

// commonInitialisms 常见首字母缩略词，转换大小写时整体处理
var commonInitialisms = map[string]bool{
	"API": true, "ASCII": true, "CPU": true, "CSS": true, "DNS": true, "EOF": true,
	"GUID": true, "HTML": true, "HTTP": true, "HTTPS": true, "ID": true, "IP": true,
	"JSON": true, "QPS": true, "RAM": true, "RPC": true, "SKU": true, "SMTP": true,
	"SQL": true, "SSH": true, "TLS": true, "TTL": true, "UID": true, "UI": true,
	"UUID": true, "URI": true, "URL": true, "UTF8": true, "VM": true, "XML": true,
}

// UpperCamelCase 首字母大写，缩略词整体大写
//
//	email -> Email, id -> ID, url_path -> URLPath, _id -> ID
func UpperCamelCase(name string) string {
	var sb strings.Builder
	for _, word := range splitWords(name) {
		if upper := strings.ToUpper(word); commonInitialisms[upper] {
			sb.WriteString(upper)
			continue
		}
		r, size := utf8.DecodeRuneInString(word)
		sb.WriteRune(unicode.ToUpper(r))
		sb.WriteString(word[size:])
	}
	return sb.String()
}

// LowerCamelCase 首个单词小写，用作参数名和局部变量名
//
//	Email -> email, ID -> id, URLPath -> urlPath, HTTPServer -> httpServer
func LowerCamelCase(name string) string {
	words := splitWords(name)
	if len(words) == 0 {
		return ""
	}
	upper := UpperCamelCase(strings.Join(words[1:], "_"))
	first := words[0]
	if commonInitialisms[strings.ToUpper(first)] {
		return strings.ToLower(first) + upper
	}
	r, size := utf8.DecodeRuneInString(first)
	return string(unicode.ToLower(r)) + first[size:] + upper
}

// SafeIdent 关键字和预声明标识符后追加下划线
func SafeIdent(name string) string {
	if token.IsKeyword(name) || predeclared[name] {
		return name + "_"
	}
	return name
}

var predeclared = map[string]bool{
	"any": true, "bool": true, "byte": true, "error": true, "string": true, "rune": true,
	"int": true, "len": true, "cap": true, "new": true, "make": true, "nil": true,
	"true": true, "false": true, "copy": true, "append": true, "panic": true,
}

// splitWords 按下划线和大小写边界切分单词，连续大写视为一个缩略词
//
//	HTTPServerID -> [HTTP Server ID], user_name -> [user name]
func splitWords(name string) []string {
	var (
		words []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
			continue
		case unicode.IsUpper(r) && len(cur) > 0:
			prev := cur[len(cur)-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if !unicode.IsUpper(prev) || nextLower {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

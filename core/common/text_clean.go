package common

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	// 多个空格/制表符合并为一个空格
	spaceRe = regexp.MustCompile(`[ \t\f\v]+`)
	// 多个换行符（3个或以上）合并为两个换行
	newlineRe = regexp.MustCompile(`\n{3,}`)
)

// 零宽字符集合
var zeroWidthRunes = map[rune]bool{
	'​': true, // Zero Width Space
	'‌': true, // Zero Width Non-Joiner
	'‍': true, // Zero Width Joiner
	'\uFEFF': true, // Zero Width No-Break Space (BOM)
	'⁠': true, // Word Joiner
	'᠎': true, // Mongolian Vowel Separator
}

// 非标准空格字符映射（转换为普通空格）
var nonStandardSpaces = map[rune]bool{
	' ': true, // Non-breaking space
	' ': true, // Ogham Space Mark
	' ': true, // En Quad
	' ': true, // Em Quad
	' ': true, // En Space
	' ': true, // Em Space
	' ': true, // Three-Per-Em Space
	' ': true, // Four-Per-Em Space
	' ': true, // Six-Per-Em Space
	' ': true, // Figure Space
	' ': true, // Punctuation Space
	' ': true, // Thin Space
	' ': true, // Hair Space
	' ': true, // Narrow No-Break Space
	' ': true, // Medium Mathematical Space
	'　': true, // Ideographic Space (全角空格)
}

// CleanForEmbedding 入库前的文本清洗，使内容对向量化友好：
// 校验 UTF-8，清理 NULL/控制字符/零宽字符，NFC 归一化，
// 标准化空格与换行
func CleanForEmbedding(input string) (string, error) {
	if !utf8.ValidString(input) {
		return "", errors.New("invalid UTF-8 sequence")
	}

	s := strings.ReplaceAll(input, "\u0000", "")
	s = removeControlChars(s)
	s = removeZeroWidthChars(s)
	s = norm.NFC.String(s)
	s = normalizeWhitespace(s)
	s = normalizeNonStandardSpaces(s)
	return s, nil
}

// removeControlChars 清理控制字符（保留 \n, \t, \r）
func removeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		if r == '\n' || r == '\t' || r == '\r' {
			b.WriteRune(r)
			continue
		}
		if r < 0x20 || r == 0x7F {
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// removeZeroWidthChars 清理零宽字符
func removeZeroWidthChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		if zeroWidthRunes[r] {
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// normalizeNonStandardSpaces 将非标准空格转换为普通空格
func normalizeNonStandardSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		if nonStandardSpaces[r] {
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// normalizeWhitespace 标准化空格和换行符
func normalizeWhitespace(s string) string {
	// 统一换行符
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	// 合并多个空格为一个
	s = spaceRe.ReplaceAllString(s, " ")

	// 合并多个换行为两个（保留段落分隔）
	s = newlineRe.ReplaceAllString(s, "\n\n")

	// 清理首尾空白
	return strings.TrimSpace(s)
}

package lsp

import (
	"bytes"
	"unicode/utf16"
	"unicode/utf8"
)

// LSP counts characters in UTF-16 code units, the engine counts bytes.

// lineText returns the 0-based line of text without its line ending.
func lineText(text []byte, line int) []byte {
	for i := 0; i < line; i++ {
		nl := bytes.IndexByte(text, '\n')
		if nl < 0 {
			return nil
		}
		text = text[nl+1:]
	}
	if nl := bytes.IndexByte(text, '\n'); nl >= 0 {
		text = text[:nl]
	}
	return bytes.TrimSuffix(text, []byte("\r"))
}

// byteOffset converts a UTF-16 offset within line into a byte offset.
// Offsets past the end of the line are carried over unchanged.
func byteOffset(line []byte, units int) int {
	offset := 0
	for units > 0 && offset < len(line) {
		r, size := utf8.DecodeRune(line[offset:])
		units -= utf16.RuneLen(r)
		offset += size
	}
	return offset + max(units, 0)
}

// unitOffset converts a byte offset within line into a UTF-16 offset.
func unitOffset(line []byte, offset int) int {
	units := 0
	i := 0
	for i < offset && i < len(line) {
		r, size := utf8.DecodeRune(line[i:])
		units += utf16.RuneLen(r)
		i += size
	}
	return units + max(offset-i, 0)
}

package ir

import (
	"fmt"
	"strconv"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"

	"scopealloc/internal/diag"
	"scopealloc/internal/source"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokSymbol // @name
	tokString
	tokLBrace
	tokRBrace
	tokInvalid
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of file"
	case tokIdent:
		return "identifier"
	case tokSymbol:
		return "symbol"
	case tokString:
		return "string"
	case tokLBrace:
		return "'{'"
	case tokRBrace:
		return "'}'"
	}
	return "invalid token"
}

type token struct {
	Kind tokenKind
	Span source.Span
	Text string // identifier, symbol name without '@', or decoded string
}

type lexer struct {
	file     *source.File
	off      uint32
	limit    uint32
	reporter diag.Reporter
}

func newLexer(file *source.File, r diag.Reporter) *lexer {
	limit, err := safecast.Conv[uint32](len(file.Content))
	if err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	return &lexer{file: file, limit: limit, reporter: r}
}

func (lx *lexer) eof() bool {
	return lx.off >= lx.limit
}

func (lx *lexer) peek() byte {
	if lx.eof() {
		return 0
	}
	return lx.file.Content[lx.off]
}

func (lx *lexer) span(start uint32) source.Span {
	return source.Span{File: lx.file.ID, Start: start, End: lx.off}
}

func (lx *lexer) skipTrivia() {
	for !lx.eof() {
		ch := lx.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == ';':
			lx.off++
		case ch == '/' && lx.off+1 < lx.limit && lx.file.Content[lx.off+1] == '/':
			for !lx.eof() && lx.peek() != '\n' {
				lx.off++
			}
		default:
			return
		}
	}
}

// next returns the next significant token; after EOF it keeps returning EOF.
func (lx *lexer) next() token {
	lx.skipTrivia()
	start := lx.off
	if lx.eof() {
		return token{Kind: tokEOF, Span: lx.span(start)}
	}

	ch := lx.peek()
	switch {
	case ch == '{':
		lx.off++
		return token{Kind: tokLBrace, Span: lx.span(start), Text: "{"}
	case ch == '}':
		lx.off++
		return token{Kind: tokRBrace, Span: lx.span(start), Text: "}"}
	case ch == '"':
		return lx.scanString()
	case ch == '@':
		lx.off++
		for !lx.eof() && isSymbolByte(lx.peek()) {
			lx.off++
		}
		name := string(lx.file.Content[start+1 : lx.off])
		return token{Kind: tokSymbol, Span: lx.span(start), Text: name}
	case isIdentStart(ch):
		for !lx.eof() && isIdentContinue(lx.peek()) {
			lx.off++
		}
		return token{Kind: tokIdent, Span: lx.span(start), Text: string(lx.file.Content[start:lx.off])}
	}

	lx.off++
	sp := lx.span(start)
	diag.ReportError(lx.reporter, diag.LexUnknownChar, sp, fmt.Sprintf("unexpected character %q", ch)).Emit()
	return token{Kind: tokInvalid, Span: sp}
}

// scanString reads a double-quoted literal with Go escapes and returns the
// NFC-normalized value, so composed and decomposed spellings of a scope name
// are the same name.
func (lx *lexer) scanString() token {
	start := lx.off
	lx.off++ // opening quote
	for {
		if lx.eof() || lx.peek() == '\n' {
			sp := lx.span(start)
			diag.ReportError(lx.reporter, diag.LexUnterminatedString, sp, "unterminated string literal").Emit()
			return token{Kind: tokString, Span: sp, Text: string(lx.file.Content[start+1 : lx.off])}
		}
		ch := lx.peek()
		lx.off++
		if ch == '\\' && !lx.eof() {
			lx.off++
			continue
		}
		if ch == '"' {
			break
		}
	}
	sp := lx.span(start)
	raw := string(lx.file.Content[start:lx.off])
	value, err := strconv.Unquote(raw)
	if err != nil {
		diag.ReportError(lx.reporter, diag.LexBadEscape, sp, fmt.Sprintf("invalid string literal %s", raw)).Emit()
		value = raw[1 : len(raw)-1]
	}
	return token{Kind: tokString, Span: sp, Text: norm.NFC.String(value)}
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentContinue(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

func isSymbolByte(b byte) bool {
	return isIdentContinue(b) || b == '.' || b == '$' || b == '-'
}

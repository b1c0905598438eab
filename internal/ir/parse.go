package ir

import (
	"fmt"

	"scopealloc/internal/diag"
	"scopealloc/internal/source"
)

// Parse reads one .pir file into a Module. Problems are reported to r and
// parsing continues, so the module holds everything that could be read.
//
//	func @name {
//	  record start "scope"
//	  call @other
//	  region "loop" { ... }
//	  nop
//	  record end "scope"
//	}
func Parse(fs *source.FileSet, file source.FileID, r diag.Reporter) *Module {
	if r == nil {
		r = diag.NopReporter{}
	}
	f := fs.Get(file)
	if f == nil {
		return NewBuilder().Build()
	}
	p := &parser{
		lx:       newLexer(f, r),
		b:        NewBuilder(),
		reporter: r,
		defined:  make(map[string]source.Span),
	}
	p.advance()
	p.parseModule()
	m := p.b.Build()
	p.checkCalls(m)
	return m
}

type parser struct {
	lx       *lexer
	tok      token
	b        *Builder
	reporter diag.Reporter
	defined  map[string]source.Span
}

func (p *parser) advance() token {
	prev := p.tok
	p.tok = p.lx.next()
	return prev
}

func (p *parser) atIdent(text string) bool {
	return p.tok.Kind == tokIdent && p.tok.Text == text
}

func (p *parser) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	diag.ReportError(p.reporter, code, sp, fmt.Sprintf(format, args...)).Emit()
}

func (p *parser) parseModule() {
	for p.tok.Kind != tokEOF {
		if p.atIdent("func") {
			p.parseFunc()
			continue
		}
		p.errorf(diag.SynUnexpectedToken, p.tok.Span, "expected 'func', found %s", describe(p.tok))
		p.advance()
	}
}

func (p *parser) parseFunc() {
	kw := p.advance()
	if p.tok.Kind != tokSymbol || p.tok.Text == "" {
		p.errorf(diag.SynExpectFuncName, p.tok.Span, "expected function name like @main, found %s", describe(p.tok))
		p.skipToFunc()
		return
	}
	nameTok := p.advance()
	header := kw.Span.Cover(nameTok.Span)

	if prev, dup := p.defined[nameTok.Text]; dup {
		diag.ReportError(p.reporter, diag.IRDuplicateFunc, header,
			fmt.Sprintf("function @%s is already defined", nameTok.Text)).
			WithNote(prev, "previous definition here").
			Emit()
	} else {
		p.defined[nameTok.Text] = header
	}
	fb := p.b.Func(nameTok.Text, header)

	if p.tok.Kind != tokLBrace {
		p.errorf(diag.SynExpectLBrace, p.tok.Span, "expected '{' after function @%s, found %s", nameTok.Text, describe(p.tok))
		return
	}
	open := p.advance()
	p.parseBody(fb, open.Span)
}

// parseBody consumes instructions up to and including the closing brace.
func (p *parser) parseBody(fb *FuncBuilder, open source.Span) {
	for {
		switch {
		case p.tok.Kind == tokRBrace:
			p.advance()
			return
		case p.tok.Kind == tokEOF:
			p.errorf(diag.SynUnclosedBrace, open, "unclosed '{'")
			return
		case p.atIdent("func"):
			// a missing '}' before the next function
			p.errorf(diag.SynUnclosedBrace, open, "unclosed '{' before next function")
			return
		}
		p.parseInstr(fb)
	}
}

func (p *parser) parseInstr(fb *FuncBuilder) {
	if p.tok.Kind != tokIdent {
		p.errorf(diag.SynUnexpectedToken, p.tok.Span, "expected instruction, found %s", describe(p.tok))
		p.advance()
		return
	}
	switch p.tok.Text {
	case "record":
		p.parseRecord(fb)
	case "call":
		kw := p.advance()
		if p.tok.Kind != tokSymbol || p.tok.Text == "" {
			p.errorf(diag.SynExpectCalleeName, p.tok.Span, "expected callee like @name, found %s", describe(p.tok))
			return
		}
		callee := p.advance()
		fb.Call(callee.Text, kw.Span.Cover(callee.Span))
	case "region":
		kw := p.advance()
		label := ""
		sp := kw.Span
		if p.tok.Kind == tokString {
			labelTok := p.advance()
			label = labelTok.Text
			sp = sp.Cover(labelTok.Span)
		}
		if p.tok.Kind != tokLBrace {
			p.errorf(diag.SynExpectLBrace, p.tok.Span, "expected '{' after region, found %s", describe(p.tok))
			return
		}
		open := p.advance()
		fb.BeginRegion(label, sp)
		p.parseBody(fb, open.Span)
		fb.EndRegion()
	case "nop":
		kw := p.advance()
		fb.Nop(kw.Span)
	default:
		p.errorf(diag.SynUnknownOpcode, p.tok.Span, "unknown instruction %q", p.tok.Text)
		p.advance()
	}
}

func (p *parser) parseRecord(fb *FuncBuilder) {
	kw := p.advance()
	if p.tok.Kind != tokIdent || (p.tok.Text != "start" && p.tok.Text != "end") {
		p.errorf(diag.SynBadRecordKind, p.tok.Span, "expected 'start' or 'end' after record, found %s", describe(p.tok))
		if p.tok.Kind == tokIdent && !isOpcode(p.tok.Text) {
			p.advance()
		}
		return
	}
	isStart := p.advance().Text == "start"
	if p.tok.Kind != tokString {
		p.errorf(diag.SynExpectScopeName, p.tok.Span, "expected scope name string, found %s", describe(p.tok))
		return
	}
	nameTok := p.advance()
	sp := kw.Span.Cover(nameTok.Span)
	if nameTok.Text == "" {
		p.errorf(diag.IREmptyScope, sp, "scope name must not be empty")
		return
	}
	fb.Record(nameTok.Text, isStart, sp)
}

func (p *parser) skipToFunc() {
	for p.tok.Kind != tokEOF && !p.atIdent("func") {
		p.advance()
	}
}

func (p *parser) checkCalls(m *Module) {
	for _, f := range m.Funcs {
		for _, in := range Calls(f) {
			if in.Call.Callee == NoFuncID {
				p.errorf(diag.IRUnknownCallee, in.Span, "call to undefined function @%s", in.Call.Name)
			}
		}
	}
}

func isOpcode(text string) bool {
	switch text {
	case "func", "record", "call", "region", "nop":
		return true
	}
	return false
}

func describe(tok token) string {
	switch tok.Kind {
	case tokIdent:
		return fmt.Sprintf("%q", tok.Text)
	case tokSymbol:
		return "@" + tok.Text
	case tokString:
		return fmt.Sprintf("string %q", tok.Text)
	}
	return tok.Kind.String()
}

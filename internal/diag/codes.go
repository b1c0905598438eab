package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// .pir lexical
	LexInfo               Code = 1000
	LexUnknownChar        Code = 1001
	LexUnterminatedString Code = 1002
	LexBadEscape          Code = 1003

	// .pir syntax
	SynInfo             Code = 2000
	SynUnexpectedToken  Code = 2001
	SynExpectFuncName   Code = 2002
	SynExpectLBrace     Code = 2003
	SynUnclosedBrace    Code = 2004
	SynUnknownOpcode    Code = 2005
	SynBadRecordKind    Code = 2006
	SynExpectScopeName  Code = 2007
	SynExpectCalleeName Code = 2008

	// IR structure
	IRInfo          Code = 3000
	IRDuplicateFunc Code = 3001
	IRUnknownCallee Code = 3002
	IREmptyScope    Code = 3003
	IRUnknownRoot   Code = 3004

	// scope marker validation
	ScopeInfo        Code = 4000
	ScopeAlreadyOpen Code = 4001
	ScopeNotOpened   Code = 4002
	ScopeNeverClosed Code = 4003

	IOLoadFileError Code = 5001

	// Observability
	ObsInfo     Code = 6000
	ObsTimings  Code = 6001
	ObsCacheHit Code = 6002
)

var codeDescription = map[Code]string{
	UnknownCode:           "Unknown error",
	LexInfo:               "Lexical information",
	LexUnknownChar:        "Unknown character",
	LexUnterminatedString: "Unterminated string literal",
	LexBadEscape:          "Invalid escape sequence",
	SynInfo:               "Syntax information",
	SynUnexpectedToken:    "Unexpected token",
	SynExpectFuncName:     "Expected function name",
	SynExpectLBrace:       "Expected '{'",
	SynUnclosedBrace:      "Unclosed '{'",
	SynUnknownOpcode:      "Unknown instruction",
	SynBadRecordKind:      "Record kind must be start or end",
	SynExpectScopeName:    "Expected scope name string",
	SynExpectCalleeName:   "Expected callee name",
	IRInfo:                "IR information",
	IRDuplicateFunc:       "Duplicate function definition",
	IRUnknownCallee:       "Call to undefined function",
	IREmptyScope:          "Empty scope name",
	IRUnknownRoot:         "Configured root function not defined",
	ScopeInfo:             "Scope information",
	ScopeAlreadyOpen:      "Scope already open",
	ScopeNotOpened:        "Scope not opened or already closed",
	ScopeNeverClosed:      "Scope opened but never closed",
	IOLoadFileError:       "I/O load file error",
	ObsInfo:               "Observability information",
	ObsTimings:            "Pipeline timings",
	ObsCacheHit:           "Result served from cache",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("IRM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("SCP%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// lexer.go: tokenizer for the script expression language.

package script

import (
	"fmt"
	"strconv"
)

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota
	ILLEGAL
	SEP // newline or ';'

	// Punctuation
	LROUND  // "("
	RROUND  // ")"
	LSQUARE // "["
	RSQUARE // "]"
	LCURLY  // "{"
	RCURLY  // "}"
	COLON   // ":"
	COMMA   // ","
	PERIOD  // "."
	AT      // "@"

	// Operators
	PLUS
	MINUS
	MULT
	DIV
	ASSIGN // ":="
	EQ     // "=="
	NEQ    // "!="
	LESS
	LESS_EQ
	GREATER
	GREATER_EQ

	// Literals & identifiers
	ID
	STRING
	INTEGER
	DOUBLE
	BOOLEAN
	NIL

	// Keywords
	AND
	OR
	XOR
	NOT
	MOD
	IF
	THEN
	ELSE
	FOR
	EACH
	IN
	FROM
	TO
	DO
)

// Token is a lexical token with optional literal value. Line is 1-based,
// Col is 0-based.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal any
	Line    int
	Col     int
}

var keywords = map[string]TokenType{
	"nil":   NIL,
	"true":  BOOLEAN,
	"false": BOOLEAN,
	"and":   AND,
	"or":    OR,
	"xor":   XOR,
	"not":   NOT,
	"mod":   MOD,
	"if":    IF,
	"then":  THEN,
	"else":  ELSE,
	"for":   FOR,
	"each":  EACH,
	"in":    IN,
	"from":  FROM,
	"to":    TO,
	"do":    DO,
}

// Lexer scans a source string into tokens. Scan errors are collected, not
// fatal: an ILLEGAL token is emitted and scanning continues, so the parser
// can report every problem in one pass.
type Lexer struct {
	src    string
	start  int
	cur    int
	line   int
	col    int
	tokens []Token
	errs   []*ScriptParseError

	tokStartLine int
	tokStartCol  int
}

func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1}
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	return l.src[l.cur], true
}

func (l *Lexer) peekN(n int) (byte, bool) {
	idx := l.cur + n
	if idx >= len(l.src) {
		return 0, false
	}
	return l.src[idx], true
}

func (l *Lexer) advance() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	ch := l.src[l.cur]
	l.cur++
	if ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return ch, true
}

func (l *Lexer) addToken(tt TokenType, lit any) {
	l.tokens = append(l.tokens, Token{
		Type:    tt,
		Lexeme:  l.src[l.start:l.cur],
		Literal: lit,
		Line:    l.tokStartLine,
		Col:     l.tokStartCol,
	})
	l.start = l.cur
}

func (l *Lexer) err(msg string) {
	l.errs = append(l.errs, &ScriptParseError{Line: l.tokStartLine, Col: l.tokStartCol + 1, Msg: msg})
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' }
func isAlphaNum(b byte) bool {
	return isAlpha(b) || isDigit(b)
}

// Scan tokenizes the whole source. The token slice always ends with EOF;
// scan problems are reported alongside.
func (l *Lexer) Scan() ([]Token, []*ScriptParseError) {
	for !l.isAtEnd() {
		l.skipBlanks()
		if l.isAtEnd() {
			break
		}
		l.start = l.cur
		l.tokStartLine = l.line
		l.tokStartCol = l.col
		l.scanToken()
	}
	l.tokStartLine = l.line
	l.tokStartCol = l.col
	l.start = l.cur
	l.addToken(EOF, nil)
	return l.tokens, l.errs
}

// skipBlanks consumes spaces, tabs, carriage returns and '#' comments.
// Newlines are significant: they become SEP tokens.
func (l *Lexer) skipBlanks() {
	for !l.isAtEnd() {
		ch, _ := l.peek()
		switch ch {
		case ' ', '\t', '\r':
			l.advance()
		case '#':
			for !l.isAtEnd() {
				if c, _ := l.peek(); c == '\n' {
					break
				}
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) scanToken() {
	ch, _ := l.advance()
	switch ch {
	case '\n', ';':
		// collapse runs of separators into a single SEP
		if len(l.tokens) == 0 || l.tokens[len(l.tokens)-1].Type == SEP {
			l.start = l.cur
			return
		}
		l.addToken(SEP, nil)
	case '(':
		l.addToken(LROUND, nil)
	case ')':
		l.addToken(RROUND, nil)
	case '[':
		l.addToken(LSQUARE, nil)
	case ']':
		l.addToken(RSQUARE, nil)
	case '{':
		l.addToken(LCURLY, nil)
	case '}':
		l.addToken(RCURLY, nil)
	case ',':
		l.addToken(COMMA, nil)
	case '.':
		l.addToken(PERIOD, nil)
	case '@':
		l.addToken(AT, nil)
	case '+':
		l.addToken(PLUS, nil)
	case '-':
		l.addToken(MINUS, nil)
	case '*':
		l.addToken(MULT, nil)
	case '/':
		l.addToken(DIV, nil)
	case ':':
		if c, ok := l.peek(); ok && c == '=' {
			l.advance()
			l.addToken(ASSIGN, nil)
		} else {
			l.addToken(COLON, nil)
		}
	case '=':
		if c, ok := l.peek(); ok && c == '=' {
			l.advance()
			l.addToken(EQ, nil)
		} else {
			l.err("unexpected '=', assignment is ':='")
			l.addToken(ILLEGAL, nil)
		}
	case '!':
		if c, ok := l.peek(); ok && c == '=' {
			l.advance()
			l.addToken(NEQ, nil)
		} else {
			l.err("unexpected '!'")
			l.addToken(ILLEGAL, nil)
		}
	case '<':
		if c, ok := l.peek(); ok && c == '=' {
			l.advance()
			l.addToken(LESS_EQ, nil)
		} else {
			l.addToken(LESS, nil)
		}
	case '>':
		if c, ok := l.peek(); ok && c == '=' {
			l.advance()
			l.addToken(GREATER_EQ, nil)
		} else {
			l.addToken(GREATER, nil)
		}
	case '"':
		l.scanString()
	default:
		switch {
		case isDigit(ch):
			l.scanNumber()
		case isAlpha(ch):
			l.scanIdent()
		default:
			l.err(fmt.Sprintf("unexpected character %q", string(ch)))
			l.addToken(ILLEGAL, nil)
		}
	}
}

func (l *Lexer) scanString() {
	var out []byte
	for {
		ch, ok := l.advance()
		if !ok {
			l.err("unterminated string")
			l.addToken(ILLEGAL, nil)
			return
		}
		if ch == '"' {
			l.addToken(STRING, string(out))
			return
		}
		if ch == '\\' {
			esc, ok := l.advance()
			if !ok {
				l.err("unfinished escape sequence")
				l.addToken(ILLEGAL, nil)
				return
			}
			switch esc {
			case '"':
				out = append(out, '"')
			case '\\':
				out = append(out, '\\')
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			default:
				l.err(fmt.Sprintf("unknown escape sequence '\\%s'", string(esc)))
				out = append(out, esc)
			}
			continue
		}
		out = append(out, ch)
	}
}

func (l *Lexer) scanNumber() {
	for {
		c, ok := l.peek()
		if !ok || !isDigit(c) {
			break
		}
		l.advance()
	}
	isDouble := false
	if c, ok := l.peek(); ok && c == '.' {
		// a digit must follow, otherwise '.' is member access
		if d, ok := l.peekN(1); ok && isDigit(d) {
			isDouble = true
			l.advance()
			for {
				c, ok := l.peek()
				if !ok || !isDigit(c) {
					break
				}
				l.advance()
			}
		}
	}
	text := l.src[l.start:l.cur]
	if isDouble {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			l.err("malformed number " + text)
			l.addToken(ILLEGAL, nil)
			return
		}
		l.addToken(DOUBLE, f)
		return
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		l.err("malformed number " + text)
		l.addToken(ILLEGAL, nil)
		return
	}
	l.addToken(INTEGER, n)
}

func (l *Lexer) scanIdent() {
	for {
		c, ok := l.peek()
		if !ok || !isAlphaNum(c) {
			break
		}
		l.advance()
	}
	text := l.src[l.start:l.cur]
	if tt, ok := keywords[text]; ok {
		switch tt {
		case BOOLEAN:
			l.addToken(BOOLEAN, text == "true")
		default:
			l.addToken(tt, nil)
		}
		return
	}
	l.addToken(ID, text)
}

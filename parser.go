// parser.go: Pratt parser producing S-expression nodes.
//
// Node inventory (first element is the tag):
//
//	("nil") ("bool", b) ("int", i64) ("double", f64) ("str", s)
//	("id", name)
//	("block", stmt...)
//	("assign", ("id", name), expr)
//	("array", expr...)
//	("map", ("pair", ("str", key), expr)...)
//	("get", obj, ("str", name))
//	("idx", obj, index)
//	("unop", op, expr)
//	("binop", op, lhs, rhs)
//	("if", cond, then, else)
//	("fun", body)
//	("call", callee, ("arg", name, expr)...)     name "" = positional
//	("closure", callee, ("arg", name, expr)...)
//	("foreach", ("str", var), ("str", keyOr""), coll, body)
//	("forrange", ("str", var), from, to, body)

package script

// Script is a parsed script ready for evaluation.
type Script struct {
	Name   string
	Source string
	Body   S
}

// Binding powers, low to high.
const (
	precNone    = iota
	precAssign  // :=
	precOr      // or, xor
	precAnd     // and
	precNot     // not
	precCompare // == != < <= > >=
	precTerm    // + -
	precFactor  // * / mod
	precUnary   // unary -
	precPostfix // call, @(), [], .
)

type parser struct {
	tokens []Token
	cur    int
	errs   []*ScriptParseError
}

// bail unwinds to the nearest statement boundary after a parse error.
type bail struct{}

// Parse parses src into a script. All parse errors are collected; the parser
// resynchronizes at statement boundaries so one mistake does not hide the
// rest.
func Parse(name, src string) (*Script, []*ScriptParseError) {
	lx := NewLexer(src)
	tokens, errs := lx.Scan()
	p := &parser{tokens: tokens, errs: errs}
	body := p.parseProgram()
	if len(p.errs) > 0 {
		return nil, p.errs
	}
	return &Script{Name: name, Source: src, Body: body}, nil
}

func (p *parser) peek() Token     { return p.tokens[p.cur] }
func (p *parser) previous() Token { return p.tokens[p.cur-1] }

func (p *parser) advance() Token {
	t := p.tokens[p.cur]
	if t.Type != EOF {
		p.cur++
	}
	return t
}

func (p *parser) check(tt TokenType) bool { return p.peek().Type == tt }

func (p *parser) match(tt TokenType) bool {
	if p.check(tt) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(tt TokenType, what string) Token {
	if p.check(tt) {
		return p.advance()
	}
	p.errAt(p.peek(), "expected "+what)
	panic(bail{})
}

func (p *parser) errAt(t Token, msg string) {
	p.errs = append(p.errs, &ScriptParseError{Line: t.Line, Col: t.Col + 1, Msg: msg})
}

// skipSeps consumes separators, used where newlines are not significant
// (inside brackets, between statements).
func (p *parser) skipSeps() {
	for p.match(SEP) {
	}
}

// synchronize skips tokens until a statement boundary.
func (p *parser) synchronize() {
	for !p.check(EOF) {
		if p.match(SEP) {
			return
		}
		p.advance()
	}
}

func (p *parser) parseProgram() S {
	block := S{"block"}
	p.skipSeps()
	for !p.check(EOF) {
		if stmt, ok := p.parseStatement(); ok {
			block = append(block, stmt)
		}
		p.skipSeps()
	}
	return block
}

// parseStatement parses one expression statement, recovering from errors so
// parsing can continue at the next boundary.
func (p *parser) parseStatement() (stmt S, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, isBail := r.(bail); !isBail {
				panic(r)
			}
			p.synchronize()
			ok = false
		}
	}()
	return p.parseExpr(precAssign), true
}

func (p *parser) parseExpr(minPrec int) S {
	lhs := p.parsePrefix()
	for {
		prec, ok := infixPrec(p.peek().Type)
		if !ok || prec < minPrec {
			return lhs
		}
		lhs = p.parseInfix(lhs, prec)
	}
}

func infixPrec(tt TokenType) (int, bool) {
	switch tt {
	case ASSIGN:
		return precAssign, true
	case OR, XOR:
		return precOr, true
	case AND:
		return precAnd, true
	case EQ, NEQ, LESS, LESS_EQ, GREATER, GREATER_EQ:
		return precCompare, true
	case PLUS, MINUS:
		return precTerm, true
	case MULT, DIV, MOD:
		return precFactor, true
	case LROUND, AT, LSQUARE, PERIOD:
		return precPostfix, true
	}
	return precNone, false
}

func (p *parser) parseInfix(lhs S, prec int) S {
	op := p.advance()
	switch op.Type {
	case ASSIGN:
		if len(lhs) == 0 || lhs[0] != "id" {
			p.errAt(op, "left side of ':=' must be a variable")
			panic(bail{})
		}
		// right-associative
		rhs := p.parseExpr(precAssign)
		return S{"assign", lhs, rhs}
	case LROUND:
		return p.parseCallArgs("call", lhs)
	case AT:
		p.expect(LROUND, "'(' after '@'")
		return p.parseCallArgs("closure", lhs)
	case LSQUARE:
		p.skipSeps()
		idx := p.parseExpr(precAssign)
		p.skipSeps()
		p.expect(RSQUARE, "']' after index")
		return S{"idx", lhs, idx}
	case PERIOD:
		name := p.expect(ID, "member name after '.'")
		return S{"get", lhs, S{"str", name.Lexeme}}
	default:
		rhs := p.parseExpr(prec + 1)
		return S{"binop", opName(op.Type), lhs, rhs}
	}
}

func opName(tt TokenType) string {
	switch tt {
	case PLUS:
		return "+"
	case MINUS:
		return "-"
	case MULT:
		return "*"
	case DIV:
		return "/"
	case MOD:
		return "mod"
	case EQ:
		return "=="
	case NEQ:
		return "!="
	case LESS:
		return "<"
	case LESS_EQ:
		return "<="
	case GREATER:
		return ">"
	case GREATER_EQ:
		return ">="
	case AND:
		return "and"
	case OR:
		return "or"
	case XOR:
		return "xor"
	}
	return "?"
}

// parseCallArgs parses "name: expr" or positional "expr" arguments up to the
// closing paren. The opening paren is already consumed.
func (p *parser) parseCallArgs(tag string, callee S) S {
	node := S{tag, callee}
	p.skipSeps()
	for !p.check(RROUND) {
		name := ""
		// "id :" introduces a named argument; lone ':' would otherwise be
		// an error anyway
		if p.check(ID) && p.tokens[p.cur+1].Type == COLON {
			name = p.advance().Lexeme
			p.advance() // ':'
		}
		expr := p.parseExpr(precAssign)
		node = append(node, S{"arg", name, expr})
		p.skipSeps()
		if !p.match(COMMA) {
			break
		}
		p.skipSeps()
	}
	p.expect(RROUND, "')' after arguments")
	return node
}

func (p *parser) parsePrefix() S {
	t := p.advance()
	switch t.Type {
	case NIL:
		return S{"nil"}
	case BOOLEAN:
		return S{"bool", t.Literal.(bool)}
	case INTEGER:
		return S{"int", t.Literal.(int64)}
	case DOUBLE:
		return S{"double", t.Literal.(float64)}
	case STRING:
		return S{"str", t.Literal.(string)}
	case ID:
		return S{"id", t.Lexeme}
	case MINUS:
		return S{"unop", "-", p.parseExpr(precUnary)}
	case NOT:
		return S{"unop", "not", p.parseExpr(precNot)}
	case LROUND:
		p.skipSeps()
		e := p.parseExpr(precAssign)
		p.skipSeps()
		p.expect(RROUND, "')'")
		return e
	case LSQUARE:
		return p.parseBracket()
	case LCURLY:
		return p.parseFun()
	case IF:
		return p.parseIf()
	case FOR:
		return p.parseFor()
	default:
		p.errAt(t, "expected an expression, found '"+t.Lexeme+"'")
		panic(bail{})
	}
}

// parseBracket parses a list "[a, b]" or a keyed map "[k: v, ...]". The
// opening bracket is already consumed; "[]" is the empty list.
func (p *parser) parseBracket() S {
	p.skipSeps()
	if p.match(RSQUARE) {
		return S{"array"}
	}
	isMap := (p.check(ID) || p.check(STRING)) && p.tokens[p.cur+1].Type == COLON
	if isMap {
		node := S{"map"}
		for {
			keyTok := p.advance()
			key := keyTok.Lexeme
			if keyTok.Type == STRING {
				key = keyTok.Literal.(string)
			}
			p.expect(COLON, "':' after map key")
			node = append(node, S{"pair", S{"str", key}, p.parseExpr(precAssign)})
			p.skipSeps()
			if !p.match(COMMA) {
				break
			}
			p.skipSeps()
		}
		p.expect(RSQUARE, "']' after map entries")
		return node
	}
	node := S{"array"}
	for {
		node = append(node, p.parseExpr(precAssign))
		p.skipSeps()
		if !p.match(COMMA) {
			break
		}
		p.skipSeps()
	}
	p.expect(RSQUARE, "']' after list items")
	return node
}

// parseFun parses a function literal "{ statements }". Parameters are not
// declared: calls bind named arguments into the function's scope.
func (p *parser) parseFun() S {
	body := S{"block"}
	p.skipSeps()
	for !p.check(RCURLY) && !p.check(EOF) {
		body = append(body, p.parseExpr(precAssign))
		p.skipSeps()
	}
	p.expect(RCURLY, "'}' to close function body")
	return S{"fun", body}
}

func (p *parser) parseIf() S {
	cond := p.parseExpr(precAssign)
	p.expect(THEN, "'then' after condition")
	thenE := p.parseExpr(precAssign)
	elseE := S{"nil"}
	if p.match(ELSE) {
		elseE = p.parseExpr(precAssign)
	}
	return S{"if", cond, thenE, elseE}
}

// parseFor parses "for each [key:] x in coll do body" and
// "for x from a to b do body". The 'for' keyword is already consumed.
func (p *parser) parseFor() S {
	if p.match(EACH) {
		first := p.expect(ID, "loop variable after 'each'")
		varName, keyName := first.Lexeme, ""
		if p.match(COLON) {
			keyName = varName
			varName = p.expect(ID, "loop variable after ':'").Lexeme
		}
		p.expect(IN, "'in'")
		coll := p.parseExpr(precAssign)
		p.expect(DO, "'do'")
		body := p.parseExpr(precAssign)
		return S{"foreach", S{"str", varName}, S{"str", keyName}, coll, body}
	}
	name := p.expect(ID, "loop variable after 'for'")
	p.expect(FROM, "'from'")
	from := p.parseExpr(precAssign)
	p.expect(TO, "'to'")
	to := p.parseExpr(precAssign)
	p.expect(DO, "'do'")
	body := p.parseExpr(precAssign)
	return S{"forrange", S{"str", name.Lexeme}, from, to, body}
}

package expr

import (
	"go.trai.ch/zerr"
	"go.zr.dev/zr/internal/core/domain"
)

// parser implements recursive descent over the token stream with the
// precedence (loosest first): || , && , ==/!=  , unary ! , primary.
type parser struct {
	lex *lexer
	cur token
}

// Parse parses a single expression from src (without the surrounding ${…}).
func Parse(src string) (Node, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, zerr.With(domain.ErrExpressionSyntax, "reason", "unexpected trailing input")
	}
	return node, nil
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokOr {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = BinOp{Op: "||", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokAnd {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = BinOp{Op: "&&", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseEquality() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokEq || p.cur.kind == tokNeq {
		op := "=="
		if p.cur.kind == tokNeq {
			op = "!="
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = BinOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.cur.kind == tokNot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return UnOp{Op: "!", Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	switch p.cur.kind {
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.cur.kind != tokRParen {
			return nil, zerr.With(domain.ErrExpressionSyntax, "reason", "expected closing parenthesis")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return inner, nil

	case tokString:
		v := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Literal{Value: v}, nil

	case tokInt:
		v := p.cur.ival
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Literal{Value: v}, nil

	case tokBool:
		v := p.cur.bval
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Literal{Value: v}, nil

	case tokIdent:
		return p.parseIdentOrCall()

	default:
		return nil, zerr.With(domain.ErrExpressionSyntax, "reason", "expected expression")
	}
}

func (p *parser) parseIdentOrCall() (Node, error) {
	parts := []string{p.cur.text}
	if err := p.advance(); err != nil {
		return nil, err
	}
	for p.cur.kind == tokDot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind != tokIdent {
			return nil, zerr.With(domain.ErrExpressionSyntax, "reason", "expected identifier after '.'")
		}
		parts = append(parts, p.cur.text)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	if p.cur.kind == tokLParen {
		if err := p.advance(); err != nil {
			return nil, err
		}
		var args []Node
		for p.cur.kind != tokRParen {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.cur.kind == tokComma {
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
		}
		if err := p.advance(); err != nil { // consume ')'
			return nil, err
		}
		return Call{Target: parts, Args: args}, nil
	}

	return Ident{Parts: parts}, nil
}

package expr

import "math"

type parser struct {
	toks []token
	i    int
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) isOp(ops string) (byte, bool) {
	t := p.peek()
	if t.kind != tokOp {
		return 0, false
	}
	for i := 0; i < len(ops); i++ {
		if t.text[0] == ops[i] {
			return ops[i], true
		}
	}
	return 0, false
}

// expr := term (('+'|'-') term)*
func (p *parser) expr() (node, error) {
	l, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.isOp("+-")
		if !ok {
			return l, nil
		}
		p.next()
		r, err := p.term()
		if err != nil {
			return nil, err
		}
		l = binary{op: op, l: l, r: r}
	}
}

// term := unary (('*'|'/') unary)*
func (p *parser) term() (node, error) {
	l, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.isOp("*/")
		if !ok {
			return l, nil
		}
		p.next()
		r, err := p.unary()
		if err != nil {
			return nil, err
		}
		l = binary{op: op, l: l, r: r}
	}
}

// unary := ('-'|'+') unary | power
func (p *parser) unary() (node, error) {
	if op, ok := p.isOp("+-"); ok {
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		if op == '-' {
			return unary{x: x}, nil
		}
		return x, nil
	}
	return p.power()
}

// power := primary ('^' unary)?, right associative
func (p *parser) power() (node, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if _, ok := p.isOp("^"); !ok {
		return base, nil
	}
	p.next()
	exp, err := p.unary()
	if err != nil {
		return nil, err
	}
	return binary{op: '^', l: base, r: exp}, nil
}

func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return number(t.num), nil
	case tokLabel:
		return ref(t.text), nil
	case tokLParen:
		x, err := p.expr()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, syntaxErrorf("missing ) at %d", c.pos)
		}
		return x, nil
	case tokIdent:
		if p.peek().kind != tokLParen {
			if t.text == "pi" {
				return number(math.Pi), nil
			}
			return nil, syntaxErrorf("unknown name %q at %d", t.text, t.pos)
		}
		return p.call(t)
	case tokEOF:
		return nil, syntaxErrorf("unexpected end of formula")
	}
	return nil, syntaxErrorf("unexpected %q at %d", t.text, t.pos)
}

func (p *parser) call(name token) (node, error) {
	arity := 0
	if _, ok := funcs1[name.text]; ok {
		arity = 1
	} else if _, ok := funcs2[name.text]; ok {
		arity = 2
	} else {
		return nil, syntaxErrorf("unknown function %q at %d", name.text, name.pos)
	}
	p.next() // (
	var args []node
	for {
		a, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		t := p.next()
		if t.kind == tokRParen {
			break
		}
		if t.kind != tokComma {
			return nil, syntaxErrorf("expected , or ) at %d", t.pos)
		}
	}
	if len(args) != arity {
		return nil, syntaxErrorf("%s takes %d arguments, got %d", name.text, arity, len(args))
	}
	return call{name: name.text, args: args}, nil
}

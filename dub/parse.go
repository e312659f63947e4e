package dub

import (
	"fmt"
	"strconv"
	"strings"
)

type Node interface {
	isNode()
}

func (Identifier) isNode() {}
func (Int) isNode()        {}
func (Float) isNode()      {}
func (String) isNode()     {}
func (Pattern) isNode()    {}

type Command struct {
	Name Identifier
	Args []Node
}

func (c Command) String() string {
	var b strings.Builder
	b.WriteString(string(c.Name))
	for _, arg := range c.Args {
		b.WriteByte(' ')
		switch a := arg.(type) {
		case String:
			b.WriteString(strconv.Quote(string(a)))
		default:
			fmt.Fprint(&b, a)
		}
	}
	return b.String()
}

type Identifier string
type Int int
type Float float64
type String string

// Number returns the value of an Int or Float node.
func Number(n Node) (float64, bool) {
	switch v := n.(type) {
	case Int:
		return float64(v), true
	case Float:
		return float64(v), true
	}
	return 0, false
}

// Parse parses a single command.
func Parse(input string) (Command, error) {
	cmds, err := ParseAll(input)
	if err != nil {
		return Command{}, err
	}
	if len(cmds) != 1 {
		return Command{}, fmt.Errorf("expected one command, got %d", len(cmds))
	}
	return cmds[0], nil
}

// ParseAll parses a list of commands separated by semicolons. Empty commands are
// skipped.
func ParseAll(input string) ([]Command, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := parser{tokens: tokens}
	return p.parseAll()
}

type parser struct {
	pos    int
	tokens []token
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) peek() token {
	t := p.next()
	p.pos--
	return t
}

func (p *parser) parseAll() ([]Command, error) {
	var cmds []Command
	for {
		switch p.peek().typ {
		case typeEOF:
			return cmds, nil
		case typeSemicolon:
			p.next()
			continue
		}
		cmd, err := p.parse()
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
}

func (p *parser) parse() (Command, error) {
	var cmd Command
	token := p.next()
	if token.typ != typeIdentifier {
		return cmd, unexpected(token)
	}
	cmd.Name = Identifier(token.text)
	for {
		token := p.next()
		var arg Node
		switch token.typ {
		case typeEOF:
			p.pos--
			return cmd, nil
		case typeSemicolon:
			return cmd, nil
		case typeIdentifier:
			arg = Identifier(token.text)
		case typePattern:
			arg = Pattern(token.text)
		case typeString:
			arg = String(token.text[1 : len(token.text)-1])
		case typeFloat:
			f, err := strconv.ParseFloat(token.text, 64)
			if err != nil {
				return cmd, err
			}
			arg = Float(f)
		case typeInt:
			n, err := strconv.Atoi(token.text)
			if err != nil {
				return cmd, err
			}
			arg = Int(n)
		default:
			return cmd, unexpected(token)
		}
		cmd.Args = append(cmd.Args, arg)
	}
}

func unexpected(t token) error {
	if t.typ == typeEOF {
		return fmt.Errorf("unexpected end of input")
	}
	return fmt.Errorf("unexpected token %q at position %d", t.text, t.pos)
}

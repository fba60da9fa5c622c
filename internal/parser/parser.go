package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// Parser builds PDF objects (arrays, dictionaries, streams, indirect
// objects) from the tokens produced by a Lexer.
//
// The parser keeps one token of lookahead in current, and occasionally a
// second one in peek to recognise "N G R" references.
//
// Reference: PDF 1.7 specification, Section 7.3 (Objects).
type Parser struct {
	lexer   *Lexer
	current Token
	peek    Token
	hasPeek bool
	err     error
}

// NewParser creates a parser reading from r.
func NewParser(r io.Reader) *Parser {
	return NewParserFromLexer(NewLexer(r))
}

// NewParserFromBytes creates a parser over an in-memory buffer.
func NewParserFromBytes(data []byte) *Parser {
	return NewParser(bytes.NewReader(data))
}

// NewParserFromLexer creates a parser from an existing lexer.
func NewParserFromLexer(lexer *Lexer) *Parser {
	p := &Parser{lexer: lexer}
	p.advance()
	return p
}

// advance moves to the next token. A lexical error is kept in p.err and
// surfaces the next time a caller inspects the current token.
func (p *Parser) advance() {
	if p.hasPeek {
		p.current = p.peek
		p.hasPeek = false
		return
	}
	tok, err := p.lexer.NextToken()
	if err != nil && err != io.EOF && p.err == nil {
		p.err = err
	}
	p.current = tok
}

func (p *Parser) peekToken() Token {
	if !p.hasPeek {
		tok, err := p.lexer.NextToken()
		if err != nil && err != io.EOF && p.err == nil {
			p.err = err
		}
		p.peek = tok
		p.hasPeek = true
	}
	return p.peek
}

func (p *Parser) match(t TokenType) bool {
	return p.current.Type == t
}

func (p *Parser) matchKeyword(kw string) bool {
	return p.current.Type == TokenKeyword && p.current.Value == kw
}

func (p *Parser) expect(t TokenType) error {
	if err := p.lexErr(); err != nil {
		return err
	}
	if p.current.Type != t {
		return p.unexpected(t.String())
	}
	p.advance()
	return nil
}

func (p *Parser) lexErr() error {
	if p.err != nil {
		return fmt.Errorf("lexical error: %w", p.err)
	}
	return nil
}

func (p *Parser) unexpected(want string) error {
	return fmt.Errorf("expected %s, got %s(%q) at %d:%d",
		want, p.current.Type, p.current.Value, p.current.Line, p.current.Column)
}

// ParseObject parses one direct object or indirect reference.
//
//nolint:cyclop // one case per object type.
func (p *Parser) ParseObject() (PdfObject, error) {
	if err := p.lexErr(); err != nil {
		return nil, err
	}

	tok := p.current
	switch tok.Type {
	case TokenInteger:
		first, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q at %d:%d: %w", tok.Value, tok.Line, tok.Column, err)
		}
		p.advance()

		if p.match(TokenInteger) {
			if next := p.peekToken(); next.Type == TokenKeyword && next.Value == "R" {
				gen, err := strconv.Atoi(p.current.Value)
				if err != nil {
					return nil, fmt.Errorf("invalid generation %q at %d:%d: %w",
						p.current.Value, p.current.Line, p.current.Column, err)
				}
				p.advance() // to R
				p.advance() // past R
				return NewIndirectReference(int(first), gen), nil
			}
		}
		return NewInteger(first), nil

	case TokenReal:
		v, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real %q at %d:%d: %w", tok.Value, tok.Line, tok.Column, err)
		}
		p.advance()
		return NewReal(v), nil

	case TokenString:
		p.advance()
		return NewString(tok.Value), nil

	case TokenHexString:
		p.advance()
		return NewHexString(tok.Value), nil

	case TokenName:
		p.advance()
		return NewName(tok.Value), nil

	case TokenBoolean:
		p.advance()
		return NewBoolean(tok.Value == "true"), nil

	case TokenNull:
		p.advance()
		return NewNull(), nil

	case TokenArrayStart:
		return p.parseArray()

	case TokenDictStart:
		return p.parseDictionary()

	case TokenEOF:
		return nil, io.EOF

	default:
		return nil, fmt.Errorf("unexpected token %s(%q) at %d:%d", tok.Type, tok.Value, tok.Line, tok.Column)
	}
}

// parseArray parses [ obj1 obj2 ... ].
func (p *Parser) parseArray() (*Array, error) {
	if err := p.expect(TokenArrayStart); err != nil {
		return nil, err
	}

	arr := NewArray()
	for !p.match(TokenArrayEnd) {
		if p.match(TokenEOF) {
			if err := p.lexErr(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("unexpected EOF in array")
		}
		obj, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("array element %d: %w", arr.Len(), err)
		}
		arr.Append(obj)
	}

	if err := p.expect(TokenArrayEnd); err != nil {
		return nil, err
	}
	return arr, nil
}

// parseDictionary parses << /Key value ... >>.
func (p *Parser) parseDictionary() (*Dictionary, error) {
	if err := p.expect(TokenDictStart); err != nil {
		return nil, err
	}

	dict := NewDictionary()
	for !p.match(TokenDictEnd) {
		if p.match(TokenEOF) {
			if err := p.lexErr(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("unexpected EOF in dictionary")
		}
		if !p.match(TokenName) {
			return nil, p.unexpected("dictionary key")
		}
		key := p.current.Value
		p.advance()

		value, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("dictionary value for /%s: %w", key, err)
		}
		dict.Set(key, value)
	}

	if err := p.expect(TokenDictEnd); err != nil {
		return nil, err
	}
	return dict, nil
}

// ParseIndirectObject parses "N G obj <object> endobj", including a stream
// body when the object is a dictionary followed by "stream".
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	num, err := p.parseHeaderInt("object number")
	if err != nil {
		return nil, err
	}
	gen, err := p.parseHeaderInt("generation number")
	if err != nil {
		return nil, err
	}
	if !p.matchKeyword(KeywordObj) {
		return nil, p.unexpected("'obj'")
	}
	p.advance()

	obj, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("object %d %d: %w", num, gen, err)
	}

	if p.matchKeyword(KeywordStream) {
		dict, ok := obj.(*Dictionary)
		if !ok {
			return nil, fmt.Errorf("object %d %d: stream must follow a dictionary, got %T", num, gen, obj)
		}
		stream, err := p.parseStreamContent(dict)
		if err != nil {
			return nil, fmt.Errorf("object %d %d: %w", num, gen, err)
		}
		obj = stream
	}

	if !p.matchKeyword(KeywordEndobj) {
		return nil, p.unexpected("'endobj'")
	}
	p.advance()

	return NewIndirectObject(num, gen, obj), nil
}

func (p *Parser) parseHeaderInt(what string) (int, error) {
	if err := p.lexErr(); err != nil {
		return 0, err
	}
	if !p.match(TokenInteger) {
		return 0, p.unexpected(what)
	}
	v, err := strconv.Atoi(p.current.Value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", what, p.current.Value, err)
	}
	p.advance()
	return v, nil
}

// parseStreamContent reads the bytes between "stream" and "endstream".
// The current token must be the "stream" keyword.
//
// A direct /Length is trusted. Anything else (missing, indirect, or
// non-positive) falls back to scanning for "endstream".
func (p *Parser) parseStreamContent(dict *Dictionary) (*Stream, error) {
	r := p.lexer.reader

	// The EOL after "stream" is CRLF or LF.
	b, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read after 'stream': %w", err)
	}
	if b == '\r' {
		if next, err := r.ReadByte(); err == nil && next != '\n' {
			_ = r.UnreadByte()
		}
	} else if b != '\n' {
		_ = r.UnreadByte()
	}

	length := dict.GetInteger("Length")
	if length <= 0 {
		return p.scanToEndstream(r, dict)
	}

	content := make([]byte, length)
	if _, err := io.ReadFull(r, content); err != nil {
		return nil, fmt.Errorf("read %d stream bytes: %w", length, err)
	}

	p.hasPeek = false
	p.advance()
	if !p.matchKeyword(KeywordEndstream) {
		return nil, p.unexpected("'endstream'")
	}
	p.advance()

	return NewStream(dict, content), nil
}

// scanToEndstream reads raw bytes up to the "endstream" keyword and trims
// the EOL marker that precedes it.
func (p *Parser) scanToEndstream(r *bufio.Reader, dict *Dictionary) (*Stream, error) {
	marker := []byte(KeywordEndstream)
	var content []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("unterminated stream: %w", err)
		}
		content = append(content, b)
		if bytes.HasSuffix(content, marker) {
			content = content[:len(content)-len(marker)]
			break
		}
	}
	content = bytes.TrimSuffix(content, []byte("\n"))
	content = bytes.TrimSuffix(content, []byte("\r"))

	p.hasPeek = false
	p.advance()
	return NewStream(dict, content), nil
}

// Position returns the line and column of the current token.
func (p *Parser) Position() (line, column int) {
	return p.current.Line, p.current.Column
}

// Reset makes the parser read from r.
func (p *Parser) Reset(r io.Reader) {
	p.lexer.Reset(r)
	p.hasPeek = false
	p.err = nil
	p.advance()
}

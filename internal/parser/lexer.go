package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// TokenType identifies the kind of a lexical token.
type TokenType int

// Token types produced by the Lexer.
const (
	TokenEOF TokenType = iota
	TokenInteger
	TokenReal
	TokenString
	TokenHexString
	TokenName
	TokenBoolean
	TokenNull
	TokenArrayStart
	TokenArrayEnd
	TokenDictStart
	TokenDictEnd
	TokenKeyword
)

// Keywords the Parser looks for.
const (
	KeywordObj       = "obj"
	KeywordEndobj    = "endobj"
	KeywordStream    = "stream"
	KeywordEndstream = "endstream"
)

// String returns the token type name.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenInteger:
		return "Integer"
	case TokenReal:
		return "Real"
	case TokenString:
		return "String"
	case TokenHexString:
		return "HexString"
	case TokenName:
		return "Name"
	case TokenBoolean:
		return "Boolean"
	case TokenNull:
		return "Null"
	case TokenArrayStart:
		return "ArrayStart"
	case TokenArrayEnd:
		return "ArrayEnd"
	case TokenDictStart:
		return "DictStart"
	case TokenDictEnd:
		return "DictEnd"
	case TokenKeyword:
		return "Keyword"
	default:
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
}

// Token is a single lexical token with its source position.
type Token struct {
	Type   TokenType
	Value  string
	Line   int
	Column int
}

// Lexer splits PDF syntax into tokens.
//
// Reference: PDF 1.7 specification, Section 7.2 (Lexical Conventions).
type Lexer struct {
	reader *bufio.Reader
	line   int
	column int
	// prevColumn lets unreadByte restore the column after a newline.
	prevColumn int
}

// NewLexer creates a lexer reading from r.
func NewLexer(r io.Reader) *Lexer {
	return &Lexer{
		reader: bufio.NewReader(r),
		line:   1,
		column: 0,
	}
}

// Reset makes the lexer read from r, discarding any buffered input.
func (l *Lexer) Reset(r io.Reader) {
	l.reader.Reset(r)
	l.line = 1
	l.column = 0
	l.prevColumn = 0
}

func isWhitespace(b byte) bool {
	switch b {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (l *Lexer) readByte() (byte, error) {
	b, err := l.reader.ReadByte()
	if err != nil {
		return 0, err
	}
	if b == '\n' {
		l.line++
		l.prevColumn = l.column
		l.column = 0
	} else {
		l.column++
	}
	return b, nil
}

func (l *Lexer) unreadByte(b byte) {
	if err := l.reader.UnreadByte(); err != nil {
		return
	}
	if b == '\n' {
		l.line--
		l.column = l.prevColumn
	} else {
		l.column--
	}
}

// skipWhitespace skips whitespace and comments.
func (l *Lexer) skipWhitespace() {
	for {
		b, err := l.readByte()
		if err != nil {
			return
		}
		if b == '%' {
			for {
				c, err := l.readByte()
				if err != nil {
					return
				}
				if c == '\n' || c == '\r' {
					break
				}
			}
			continue
		}
		if !isWhitespace(b) {
			l.unreadByte(b)
			return
		}
	}
}

// NextToken returns the next token. At end of input it returns a TokenEOF
// token together with io.EOF.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()

	line, column := l.line, l.column+1
	tok := func(t TokenType, v string) Token {
		return Token{Type: t, Value: v, Line: line, Column: column}
	}

	b, err := l.readByte()
	if err != nil {
		return tok(TokenEOF, ""), io.EOF
	}

	switch b {
	case '[':
		return tok(TokenArrayStart, "["), nil
	case ']':
		return tok(TokenArrayEnd, "]"), nil
	case '{', '}':
		return tok(TokenKeyword, string(b)), nil
	case '(':
		s, err := l.readLiteralString()
		if err != nil {
			return tok(TokenEOF, ""), fmt.Errorf("literal string at %d:%d: %w", line, column, err)
		}
		return tok(TokenString, s), nil
	case '<':
		next, err := l.readByte()
		if err != nil {
			return tok(TokenEOF, ""), fmt.Errorf("unexpected EOF after '<' at %d:%d", line, column)
		}
		if next == '<' {
			return tok(TokenDictStart, "<<"), nil
		}
		l.unreadByte(next)
		s, err := l.readHexString()
		if err != nil {
			return tok(TokenEOF, ""), fmt.Errorf("hex string at %d:%d: %w", line, column, err)
		}
		return tok(TokenHexString, s), nil
	case '>':
		next, err := l.readByte()
		if err != nil || next != '>' {
			return tok(TokenEOF, ""), fmt.Errorf("unexpected '>' at %d:%d", line, column)
		}
		return tok(TokenDictEnd, ">>"), nil
	case '/':
		name, err := l.readName()
		if err != nil {
			return tok(TokenEOF, ""), fmt.Errorf("name at %d:%d: %w", line, column, err)
		}
		return tok(TokenName, name), nil
	case ')':
		return tok(TokenEOF, ""), fmt.Errorf("unbalanced ')' at %d:%d", line, column)
	}

	l.unreadByte(b)
	word := l.readRegular()

	switch word {
	case "true", "false":
		return tok(TokenBoolean, word), nil
	case "null":
		return tok(TokenNull, word), nil
	}

	if t, ok := classifyNumber(word); ok {
		return tok(t, word), nil
	}
	return tok(TokenKeyword, word), nil
}

// readRegular reads a run of regular characters.
func (l *Lexer) readRegular() string {
	var buf bytes.Buffer
	for {
		b, err := l.readByte()
		if err != nil {
			break
		}
		if isWhitespace(b) || isDelimiter(b) {
			l.unreadByte(b)
			break
		}
		buf.WriteByte(b)
	}
	return buf.String()
}

// classifyNumber reports whether word is an integer or real number.
func classifyNumber(word string) (TokenType, bool) {
	if word == "" {
		return TokenEOF, false
	}
	if _, err := strconv.ParseInt(word, 10, 64); err == nil {
		return TokenInteger, true
	}
	for i := 0; i < len(word); i++ {
		c := word[i]
		if (c < '0' || c > '9') && c != '.' && c != '+' && c != '-' {
			return TokenEOF, false
		}
	}
	if _, err := strconv.ParseFloat(word, 64); err == nil {
		return TokenReal, true
	}
	return TokenEOF, false
}

// readName reads a name after the leading slash, resolving #xx escapes.
func (l *Lexer) readName() (string, error) {
	raw := l.readRegular()
	var buf bytes.Buffer
	for i := 0; i < len(raw); i++ {
		if raw[i] == '#' && i+2 < len(raw) {
			v, err := strconv.ParseUint(raw[i+1:i+3], 16, 8)
			if err != nil {
				return "", fmt.Errorf("invalid escape %q", raw[i:i+3])
			}
			buf.WriteByte(byte(v))
			i += 2
			continue
		}
		buf.WriteByte(raw[i])
	}
	return buf.String(), nil
}

// readLiteralString reads a literal string after the opening parenthesis.
func (l *Lexer) readLiteralString() (string, error) {
	var buf bytes.Buffer
	depth := 1
	for {
		b, err := l.readByte()
		if err != nil {
			return "", fmt.Errorf("unterminated literal string")
		}
		switch b {
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth == 0 {
				return buf.String(), nil
			}
			buf.WriteByte(b)
		case '\\':
			if err := l.readEscape(&buf); err != nil {
				return "", err
			}
		case '\r':
			// End-of-line markers inside strings read as a single LF.
			next, err := l.readByte()
			if err == nil && next != '\n' {
				l.unreadByte(next)
			}
			buf.WriteByte('\n')
		default:
			buf.WriteByte(b)
		}
	}
}

// readEscape handles the character(s) after a backslash in a literal string.
func (l *Lexer) readEscape(buf *bytes.Buffer) error {
	b, err := l.readByte()
	if err != nil {
		return fmt.Errorf("unterminated escape")
	}
	switch b {
	case 'n':
		buf.WriteByte('\n')
	case 'r':
		buf.WriteByte('\r')
	case 't':
		buf.WriteByte('\t')
	case 'b':
		buf.WriteByte('\b')
	case 'f':
		buf.WriteByte('\f')
	case '(', ')', '\\':
		buf.WriteByte(b)
	case '\r':
		// Line continuation.
		next, err := l.readByte()
		if err == nil && next != '\n' {
			l.unreadByte(next)
		}
	case '\n':
		// Line continuation.
	default:
		if b >= '0' && b <= '7' {
			v := int(b - '0')
			for i := 0; i < 2; i++ {
				c, err := l.readByte()
				if err != nil {
					break
				}
				if c < '0' || c > '7' {
					l.unreadByte(c)
					break
				}
				v = v*8 + int(c-'0')
			}
			buf.WriteByte(byte(v & 0xFF))
			return nil
		}
		// Unknown escapes drop the backslash.
		buf.WriteByte(b)
	}
	return nil
}

// readHexString reads a hexadecimal string after the opening '<'.
func (l *Lexer) readHexString() (string, error) {
	var digits []byte
	for {
		b, err := l.readByte()
		if err != nil {
			return "", fmt.Errorf("unterminated hex string")
		}
		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}
		digits = append(digits, b)
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}

	out := make([]byte, len(digits)/2)
	for i := range out {
		v, err := strconv.ParseUint(string(digits[2*i:2*i+2]), 16, 8)
		if err != nil {
			return "", fmt.Errorf("invalid hex digits %q", digits[2*i:2*i+2])
		}
		out[i] = byte(v)
	}
	return string(out), nil
}

package parser

import (
	"bytes"
	"compress/zlib"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_ParseObject_Direct(t *testing.T) {
	tests := []struct {
		input    string
		expected PdfObject
	}{
		{"42", NewInteger(42)},
		{"-1.5", NewReal(-1.5)},
		{"true", NewBoolean(true)},
		{"null", NewNull()},
		{"/UsedFontState", NewName("UsedFontState")},
		{"(Arial)", NewString("Arial")},
		{"<00FF>", NewHexString("\x00\xff")},
		{"12 0 R", NewIndirectReference(12, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			obj, err := NewParser(strings.NewReader(tt.input)).ParseObject()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, obj)
		})
	}
}

func TestParser_ParseObject_Array(t *testing.T) {
	obj, err := NewParser(strings.NewReader("[(a) 1 0 R 2 (b) 3 4 R]")).ParseObject()
	require.NoError(t, err)

	arr, ok := obj.(*Array)
	require.True(t, ok)
	require.Equal(t, 5, arr.Len())
	assert.Equal(t, NewString("a"), arr.Get(0))
	assert.Equal(t, NewIndirectReference(1, 0), arr.Get(1))
	assert.Equal(t, NewInteger(2), arr.Get(2))
	assert.Equal(t, NewString("b"), arr.Get(3))
	assert.Equal(t, NewIndirectReference(3, 4), arr.Get(4))
	assert.Nil(t, arr.Get(5))
}

func TestParser_ParseObject_Dictionary(t *testing.T) {
	input := "<< /Type /ResourceRepository /Overrides [(m.ttf)] /Entries [(a.ttf) 7 0 R] /Nested << /N 1 >> >>"
	obj, err := NewParser(strings.NewReader(input)).ParseObject()
	require.NoError(t, err)

	dict, ok := obj.(*Dictionary)
	require.True(t, ok)
	assert.Equal(t, []string{"Type", "Overrides", "Entries", "Nested"}, dict.Keys())
	assert.Equal(t, "ResourceRepository", dict.GetName("Type"))

	entries, ok := dict.Get("Entries").(*Array)
	require.True(t, ok)
	assert.Equal(t, 2, entries.Len())

	nested, ok := dict.Get("Nested").(*Dictionary)
	require.True(t, ok)
	assert.Equal(t, int64(1), nested.GetInteger("N"))
}

func TestParser_ParseObject_Errors(t *testing.T) {
	for _, input := range []string{"", "[1 2", "<< /A >>", "<< 1 2 >>", "]", "(open"} {
		t.Run(input, func(t *testing.T) {
			_, err := NewParser(strings.NewReader(input)).ParseObject()
			assert.Error(t, err)
		})
	}

	_, err := NewParser(strings.NewReader("")).ParseObject()
	assert.ErrorIs(t, err, io.EOF)
}

func TestParser_ParseIndirectObject(t *testing.T) {
	p := NewParser(strings.NewReader("7 0 obj\n<< /PostScriptName (Arial) /Chars 8 0 R >>\nendobj\n"))
	obj, err := p.ParseIndirectObject()
	require.NoError(t, err)

	assert.Equal(t, 7, obj.Number)
	assert.Equal(t, 0, obj.Generation)
	dict, ok := obj.Object.(*Dictionary)
	require.True(t, ok)
	assert.Equal(t, NewIndirectReference(8, 0), dict.Get("Chars"))
}

func TestParser_ParseIndirectObject_Stream(t *testing.T) {
	input := "3 0 obj\n<< /Length 11 >>\nstream\r\nhello\nworld\nendstream\nendobj"
	obj, err := NewParser(strings.NewReader(input)).ParseIndirectObject()
	require.NoError(t, err)

	stream, ok := obj.Object.(*Stream)
	require.True(t, ok)
	assert.Equal(t, []byte("hello\nworld"), stream.Content)
}

func TestParser_ParseIndirectObject_StreamWithoutLength(t *testing.T) {
	input := "3 0 obj\n<< /Length 9 0 R >>\nstream\nabc endstream\nendobj"
	obj, err := NewParser(strings.NewReader(input)).ParseIndirectObject()
	require.NoError(t, err)

	stream, ok := obj.Object.(*Stream)
	require.True(t, ok)
	assert.Equal(t, []byte("abc "), stream.Content)
}

func TestParser_ParseIndirectObject_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing obj", "1 0 << >> endobj"},
		{"missing endobj", "1 0 obj << >>"},
		{"stream after array", "1 0 obj [1] stream\nx\nendstream endobj"},
		{"short stream", "1 0 obj << /Length 100 >> stream\nabc\nendstream endobj"},
		{"not a number", "x 0 obj null endobj"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(strings.NewReader(tt.input)).ParseIndirectObject()
			assert.Error(t, err)
		})
	}
}

func TestStream_Decode(t *testing.T) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write([]byte("65 66 67"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	dict := NewDictionary()
	dict.Set("Filter", NewName("FlateDecode"))
	data, err := NewStream(dict, buf.Bytes()).Decode()
	require.NoError(t, err)
	assert.Equal(t, "65 66 67", string(data))

	arr := NewArray()
	arr.Append(NewName("FlateDecode"))
	dict.Set("Filter", arr)
	data, err = NewStream(dict, buf.Bytes()).Decode()
	require.NoError(t, err)
	assert.Equal(t, "65 66 67", string(data))

	plain, err := NewStream(NewDictionary(), []byte("raw")).Decode()
	require.NoError(t, err)
	assert.Equal(t, "raw", string(plain))

	other := NewDictionary()
	other.Set("Filter", NewName("LZWDecode"))
	_, err = NewStream(other, []byte("x")).Decode()
	assert.Error(t, err)
}

func TestString_Text(t *testing.T) {
	s, err := NewString("\xfe\xff\x04\x1f").Text()
	require.NoError(t, err)
	assert.Equal(t, "П", s)
}

func TestObjects_String(t *testing.T) {
	dict := NewDictionary()
	dict.Set("Type", NewName("UsedFontState"))
	dict.Set("FontObjectID", NewInteger(12))
	assert.Equal(t, "<< /Type /UsedFontState /FontObjectID 12 >>", dict.String())

	assert.Equal(t, `(a\(b)`, NewString("a(b").String())
	assert.Equal(t, "<00FF>", NewHexString("\x00\xff").String())
	assert.Equal(t, "5 0 R", NewIndirectReference(5, 0).String())
	assert.Equal(t, "1 0 obj null endobj", NewIndirectObject(1, 0, NewNull()).String())
}

func TestParser_Reset(t *testing.T) {
	p := NewParserFromBytes([]byte("1"))
	obj, err := p.ParseObject()
	require.NoError(t, err)
	assert.Equal(t, NewInteger(1), obj)

	p.Reset(strings.NewReader("/Two"))
	obj, err = p.ParseObject()
	require.NoError(t, err)
	assert.Equal(t, NewName("Two"), obj)
}

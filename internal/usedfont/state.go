package usedfont

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/coregx/gxstate/internal/fonts"
	"github.com/coregx/gxstate/internal/parser"
	"github.com/coregx/gxstate/internal/resources"
	"github.com/coregx/gxstate/internal/writer"
)

// TypeUsedFontState is the /Type of a checkpointed font.
const TypeUsedFontState = "UsedFontState"

// StateInfo is the content of a checkpointed font object.
type StateInfo struct {
	FilePath       string
	MetricsPath    string
	PostScriptName string
	FontObjectID   int
	Chars          []rune
}

// Checkpoint writes the font state at objectID:
//
//	<< /Type /UsedFontState /FilePath (..) /MetricsPath (..)
//	   /PostScriptName (..) /FontObjectID n /Chars C 0 R >>
//
// and the used characters as a stream of decimal code points at a newly
// allocated ID.
func (u *UsedFont) Checkpoint(w resources.StateWriter, objectID int) error {
	charsID := w.AllocateObjectID()

	w.StartIndirectObject(objectID)
	w.StartDictionary()
	w.WriteKey("Type")
	w.WriteName(TypeUsedFontState)
	w.WriteKey("FilePath")
	w.WriteLiteralString(u.filePath)
	w.WriteKey("MetricsPath")
	w.WriteLiteralString(u.metricsPath)
	w.WriteKey("PostScriptName")
	w.WriteLiteralString(u.PostScriptName())
	w.WriteKey("FontObjectID")
	w.WriteInteger(int64(u.objectID))
	w.WriteKey("Chars")
	w.WriteIndirectReference(charsID)
	w.EndDictionary()
	if err := w.EndIndirectObject(); err != nil {
		return fmt.Errorf("write font state %d: %w", objectID, err)
	}

	data, err := u.encodeChars()
	if err != nil {
		return err
	}
	w.StartIndirectObject(charsID)
	w.StartDictionary()
	w.EndDictionaryWithStream(data, u.cfg.CompressState)
	if err := w.EndIndirectObject(); err != nil {
		return fmt.Errorf("write used chars %d: %w", charsID, err)
	}
	return nil
}

func (u *UsedFont) encodeChars() ([]byte, error) {
	var buf bytes.Buffer
	fs := writer.NewFlateStream(&buf, u.cfg.Level)
	if u.cfg.CompressState {
		if err := fs.TurnOnEncoding(); err != nil {
			return nil, err
		}
	}
	for i, ch := range u.subset.Chars() {
		if i > 0 {
			if _, err := fs.Write([]byte{' '}); err != nil {
				return nil, err
			}
		}
		if _, err := fs.Write(strconv.AppendInt(nil, int64(ch), 10)); err != nil {
			return nil, err
		}
	}
	if err := fs.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Restore reads the state written by Checkpoint. The checkpointed
// PostScript name must match the font this state was resolved with.
func (u *UsedFont) Restore(r resources.StateReader, objectID int) error {
	info, err := ReadStateInfo(r, objectID)
	if err != nil {
		return err
	}
	if want := fonts.FontName(u.font); info.PostScriptName != want {
		return fmt.Errorf("font state %d: %w: PostScript name %q, font is %q",
			objectID, resources.ErrMalformedState, info.PostScriptName, want)
	}

	u.objectID = info.FontObjectID
	for _, ch := range info.Chars {
		u.subset.UseChar(ch)
	}
	return nil
}

// ReadStateInfo parses a checkpointed font without loading the font.
func ReadStateInfo(r resources.StateReader, objectID int) (*StateInfo, error) {
	obj, err := r.ParseObject(objectID)
	if err != nil {
		return nil, fmt.Errorf("font state %d: %w: %w", objectID, resources.ErrReferenceUnresolved, err)
	}
	dict, ok := obj.(*parser.Dictionary)
	if !ok {
		return nil, fmt.Errorf("font state %d: %w: %T is not a dictionary", objectID, resources.ErrMalformedState, obj)
	}
	if typ := dict.GetName("Type"); typ != TypeUsedFontState {
		return nil, fmt.Errorf("font state %d: %w: /Type /%s", objectID, resources.ErrMalformedState, typ)
	}

	info := &StateInfo{}
	for key, dst := range map[string]*string{
		"FilePath":       &info.FilePath,
		"MetricsPath":    &info.MetricsPath,
		"PostScriptName": &info.PostScriptName,
	} {
		if *dst, err = textEntry(dict, key); err != nil {
			return nil, fmt.Errorf("font state %d: %w", objectID, err)
		}
	}

	id, ok := dict.Get("FontObjectID").(*parser.Integer)
	if !ok || id.Value() < 0 {
		return nil, fmt.Errorf("font state %d: %w: bad /FontObjectID", objectID, resources.ErrMalformedState)
	}
	info.FontObjectID = id.Int()

	ref, ok := dict.Get("Chars").(*parser.IndirectReference)
	if !ok {
		return nil, fmt.Errorf("font state %d: %w: /Chars is not a reference", objectID, resources.ErrMalformedState)
	}
	info.Chars, err = readChars(r, ref)
	if err != nil {
		return nil, fmt.Errorf("font state %d: %w", objectID, err)
	}
	return info, nil
}

func textEntry(dict *parser.Dictionary, key string) (string, error) {
	s, ok := dict.Get(key).(*parser.String)
	if !ok {
		return "", fmt.Errorf("%w: /%s is not a string", resources.ErrMalformedState, key)
	}
	t, err := s.Text()
	if err != nil {
		return "", fmt.Errorf("%w: /%s: %w", resources.ErrMalformedState, key, err)
	}
	return t, nil
}

func readChars(r resources.StateReader, ref *parser.IndirectReference) ([]rune, error) {
	obj, err := r.Resolve(ref)
	if err != nil {
		return nil, fmt.Errorf("/Chars: %w: %w", resources.ErrReferenceUnresolved, err)
	}
	stream, ok := obj.(*parser.Stream)
	if !ok {
		return nil, fmt.Errorf("/Chars: %w: not a stream", resources.ErrMalformedState)
	}
	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("/Chars: %w: %w", resources.ErrMalformedState, err)
	}

	fields := strings.Fields(string(data))
	chars := make([]rune, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseInt(f, 10, 32)
		if err != nil || v < 0 || v > 0x10FFFF {
			return nil, fmt.Errorf("/Chars: %w: bad code point %q", resources.ErrMalformedState, f)
		}
		chars = append(chars, rune(v))
	}
	return chars, nil
}

// Package codec reads and writes annotation documents as JSON.
//
// Each operation is an object tagged by "type". Numbers are float64, colours
// are [r, g, b, a] arrays of bytes and text bitmaps are base64 encoded PNG.
// Malformed operations are skipped on load and reported together in a
// *SkippedError next to the operations that did decode.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/example/markshot/internal/ops"
)

// FormatVersion is written to every document.
const FormatVersion = 1

var (
	// ErrUnknownKind marks an operation whose type tag is not recognised.
	ErrUnknownKind = errors.New("unknown operation type")
	// ErrInvalid marks an operation whose fields are out of range.
	ErrInvalid = errors.New("invalid operation")
	// ErrFormat is returned for documents written by a newer version.
	ErrFormat = errors.New("unsupported document format")
)

// Document is a persisted editing session. Operations holds the full list
// including the redo tail; Cursor is how many of them are active.
type Document struct {
	Format     int
	Session    string
	Width      int
	Height     int
	Cursor     int
	Operations []ops.Operation
}

// Active returns the operations below the cursor.
func (d Document) Active() []ops.Operation {
	k := min(max(d.Cursor, 0), len(d.Operations))
	return d.Operations[:k]
}

// OpError describes one skipped operation.
type OpError struct {
	Index int
	Type  string
	Err   error
}

func (e *OpError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("operation %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("operation %d (%s): %v", e.Index, e.Type, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// SkippedError lists the operations Decode dropped. It is recoverable: the
// document returned alongside it holds every operation that decoded.
type SkippedError struct {
	Errs []error
}

func (e *SkippedError) Error() string {
	return fmt.Sprintf("skipped %d malformed operation(s): %v", len(e.Errs), errors.Join(e.Errs...))
}

func (e *SkippedError) Unwrap() []error { return e.Errs }

type wireDoc struct {
	Format     int               `json:"format"`
	Session    string            `json:"session,omitempty"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	Cursor     int               `json:"cursor"`
	Operations []json.RawMessage `json:"operations"`
}

// Marshal encodes doc. Format is always set to FormatVersion.
func Marshal(doc Document) ([]byte, error) {
	w := wireDoc{
		Format:     FormatVersion,
		Session:    doc.Session,
		Width:      doc.Width,
		Height:     doc.Height,
		Cursor:     min(max(doc.Cursor, 0), len(doc.Operations)),
		Operations: make([]json.RawMessage, 0, len(doc.Operations)),
	}
	for i, op := range doc.Operations {
		wo, err := encodeOp(op)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		raw, err := json.Marshal(wo)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		w.Operations = append(w.Operations, raw)
	}
	return json.MarshalIndent(w, "", "  ")
}

// Encode writes doc to w.
func Encode(w io.Writer, doc Document) error {
	b, err := Marshal(doc)
	if err != nil {
		return err
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// Unmarshal decodes a document. Data that is not a JSON document is a hard
// error. Operations that fail to decode are dropped and reported in a
// *SkippedError; the cursor is adjusted so it still counts the same
// surviving operations.
func Unmarshal(data []byte) (Document, error) {
	var w wireDoc
	if err := json.Unmarshal(data, &w); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	if w.Format > FormatVersion {
		return Document{}, fmt.Errorf("%w: %d", ErrFormat, w.Format)
	}
	doc := Document{
		Format:  FormatVersion,
		Session: w.Session,
		Width:   w.Width,
		Height:  w.Height,
	}
	cursor := min(max(w.Cursor, 0), len(w.Operations))
	var skipped []error
	for i, raw := range w.Operations {
		op, tag, err := decodeOp(raw)
		if err != nil {
			skipped = append(skipped, &OpError{Index: i, Type: tag, Err: err})
			continue
		}
		doc.Operations = append(doc.Operations, op)
		if i < cursor {
			doc.Cursor++
		}
	}
	if len(skipped) > 0 {
		return doc, &SkippedError{Errs: skipped}
	}
	return doc, nil
}

// Decode reads a whole document from r.
func Decode(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read document: %w", err)
	}
	return Unmarshal(data)
}

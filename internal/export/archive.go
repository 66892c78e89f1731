package export

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/example/markshot/internal/codec"
	"github.com/example/markshot/internal/editor"
)

// Archive stores sessions for later editing. Each session id owns three
// files: <id>.png (the rendered frame), <id>.base.png (the unannotated
// base) and <id>.json (the operation document).
type Archive struct {
	Dir string
}

// Entry paths for one archived session.
type Entry struct {
	ID       uuid.UUID
	Frame    string
	Base     string
	Document string
}

// Entry returns the file paths used for id.
func (a Archive) Entry(id uuid.UUID) Entry {
	stem := filepath.Join(a.Dir, id.String())
	return Entry{ID: id, Frame: stem + ".png", Base: stem + ".base.png", Document: stem + ".json"}
}

// Save writes s to the archive and returns its entry.
func (a Archive) Save(s *editor.Session) (Entry, error) {
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return Entry{}, fmt.Errorf("archive dir: %w", err)
	}
	e := a.Entry(s.ID())
	if err := Write(e.Base, s.Base()); err != nil {
		return Entry{}, err
	}
	if err := Write(e.Frame, s.Flatten()); err != nil {
		return Entry{}, err
	}
	var buf bytes.Buffer
	if err := codec.Encode(&buf, s.Document()); err != nil {
		return Entry{}, err
	}
	if err := os.WriteFile(e.Document, buf.Bytes(), 0o644); err != nil {
		return Entry{}, fmt.Errorf("write %s: %w", e.Document, err)
	}
	return e, nil
}

// Open rebuilds the session stored under id. Operations that fail to decode
// are dropped; the returned error then wraps a *codec.SkippedError while the
// session is still usable.
func (a Archive) Open(id string, opts ...editor.Option) (*editor.Session, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("archive id %q: %w", id, err)
	}
	e := a.Entry(uid)
	base, err := Load(e.Base)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(e.Document)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.Document, err)
	}
	doc, derr := codec.Unmarshal(data)
	var skipped *codec.SkippedError
	if derr != nil && !errors.As(derr, &skipped) {
		return nil, fmt.Errorf("%s: %w", e.Document, derr)
	}
	s, err := editor.Open(base, doc, opts...)
	if err != nil {
		return nil, err
	}
	if derr != nil {
		return s, fmt.Errorf("%s: %w", e.Document, derr)
	}
	return s, nil
}

// List returns the ids of archived sessions, newest first.
func (a Archive) List() ([]uuid.UUID, error) {
	entries, err := os.ReadDir(a.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	type item struct {
		id  uuid.UUID
		mod int64
	}
	var items []item
	for _, ent := range entries {
		name, ok := strings.CutSuffix(ent.Name(), ".json")
		if !ok || ent.IsDir() {
			continue
		}
		id, err := uuid.Parse(name)
		if err != nil {
			continue
		}
		info, err := ent.Info()
		if err != nil {
			continue
		}
		items = append(items, item{id, info.ModTime().UnixNano()})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].mod > items[j].mod })
	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		ids[i] = it.id
	}
	return ids, nil
}

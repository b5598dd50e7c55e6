package worldfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"soloquest/internal/store"
)

func TestParse(t *testing.T) {
	t.Run("full frontmatter", func(t *testing.T) {
		doc, err := Parse([]byte(`---
title: The Sunken Market
type: Location
tags:
  - market
  - harbor
related_locations:
  - The Canal Mouth
related_npcs: Ferryman Odo
---
A bazaar half-claimed by the tide.
`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Title != "The Sunken Market" || doc.EntryType != "Location" {
			t.Fatalf("unexpected header fields: %+v", doc)
		}
		if !reflect.DeepEqual(doc.Tags, []string{"market", "harbor"}) {
			t.Fatalf("unexpected tags: %#v", doc.Tags)
		}
		if !reflect.DeepEqual(doc.RelatedNPCs, []string{"Ferryman Odo"}) {
			t.Fatalf("unexpected npcs: %#v", doc.RelatedNPCs)
		}
		if doc.Body != "A bazaar half-claimed by the tide." {
			t.Fatalf("unexpected body: %q", doc.Body)
		}
	})

	t.Run("no frontmatter", func(t *testing.T) {
		if _, err := Parse([]byte("just a note\n")); !errors.Is(err, ErrNoFrontmatter) {
			t.Fatalf("expected ErrNoFrontmatter, got %v", err)
		}
	})

	t.Run("unterminated frontmatter", func(t *testing.T) {
		if _, err := Parse([]byte("---\ntitle: x\n")); !errors.Is(err, ErrNoFrontmatter) {
			t.Fatalf("expected ErrNoFrontmatter, got %v", err)
		}
	})

	t.Run("missing title", func(t *testing.T) {
		if _, err := Parse([]byte("---\ntype: NPC\n---\nbody\n")); !errors.Is(err, ErrMissingTitle) {
			t.Fatalf("expected ErrMissingTitle, got %v", err)
		}
	})

	t.Run("missing type", func(t *testing.T) {
		if _, err := Parse([]byte("---\ntitle: x\n---\nbody\n")); !errors.Is(err, ErrMissingType) {
			t.Fatalf("expected ErrMissingType, got %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		if _, err := Parse([]byte("---\ntitle: [\n---\nbody\n")); !errors.Is(err, ErrInvalidYAML) {
			t.Fatalf("expected ErrInvalidYAML, got %v", err)
		}
	})

	t.Run("non-string tags", func(t *testing.T) {
		if _, err := Parse([]byte("---\ntitle: x\ntype: NPC\ntags:\n  - 1\n---\n")); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("bom tolerated", func(t *testing.T) {
		doc, err := Parse([]byte("\ufeff---\ntitle: x\ntype: NPC\n---\nbody\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Title != "x" {
			t.Fatalf("unexpected title: %q", doc.Title)
		}
	})
}

func TestEntryInput(t *testing.T) {
	doc := &Document{
		Title:            "Odo",
		EntryType:        "NPC",
		Tags:             []string{"harbor", "guide"},
		RelatedLocations: []string{"The Canal Mouth"},
		Body:             "Knows every canal.",
	}
	in := doc.EntryInput(7)
	if in.CampaignID != 7 || in.Tags != "harbor,guide" || in.RelatedLocations != "The Canal Mouth" {
		t.Fatalf("unexpected input: %+v", in)
	}
}

type fakeUpserter struct {
	inputs []store.WorldBibleEntryInput
	err    error
}

func (f *fakeUpserter) UpsertWorldBibleEntry(ctx context.Context, in store.WorldBibleEntryInput) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.inputs = append(f.inputs, in)
	return int64(len(f.inputs)), nil
}

func TestImport(t *testing.T) {
	writeFile := func(t *testing.T, dir, name, contents string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o600); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	t.Run("mixed directory", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "market.md", "---\ntitle: The Sunken Market\ntype: Location\n---\nFlooded bazaar.\n")
		writeFile(t, dir, "notes.md", "plain session notes, no frontmatter\n")
		writeFile(t, dir, "broken.md", "---\ntitle: [\n---\n")
		writeFile(t, dir, "readme.txt", "not markdown\n")

		up := &fakeUpserter{}
		result, err := Import(context.Background(), up, 1, []string{dir})
		if err != nil {
			t.Fatalf("import: %v", err)
		}
		if result.EntriesUpserted != 1 || result.FilesSkipped != 1 || len(result.Errors) != 1 {
			t.Fatalf("unexpected result: %+v", result)
		}
		if up.inputs[0].Title != "The Sunken Market" {
			t.Fatalf("unexpected upsert: %+v", up.inputs[0])
		}
	})

	t.Run("store failure collected per file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "a.md", "---\ntitle: A\ntype: NPC\n---\nx\n")
		writeFile(t, dir, "b.md", "---\ntitle: B\ntype: NPC\n---\nx\n")

		up := &fakeUpserter{err: errors.New("db down")}
		result, err := Import(context.Background(), up, 1, []string{dir})
		if err != nil {
			t.Fatalf("import: %v", err)
		}
		if result.EntriesUpserted != 0 || len(result.Errors) != 2 {
			t.Fatalf("unexpected result: %+v", result)
		}
	})

	t.Run("missing root", func(t *testing.T) {
		if _, err := Import(context.Background(), &fakeUpserter{}, 1, []string{filepath.Join(t.TempDir(), "nope")}); err == nil {
			t.Fatalf("expected error")
		}
	})
}

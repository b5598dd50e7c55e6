// Package worldfile loads world bible entries from markdown files with YAML
// frontmatter. Each file becomes one entry; the body is the entry content and
// the frontmatter carries title, type, tags, and cross-references.
package worldfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"soloquest/internal/store"
)

type Document struct {
	Title            string
	EntryType        string
	Tags             []string
	RelatedLocations []string
	RelatedNPCs      []string
	Body             string
	SourceFile       string
}

var (
	ErrNoFrontmatter = errors.New("no frontmatter found")
	ErrInvalidYAML   = errors.New("invalid YAML in frontmatter")
	ErrMissingTitle  = errors.New("frontmatter missing required 'title' field")
	ErrMissingType   = errors.New("frontmatter missing required 'type' field")
)

func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc.SourceFile = path
	return doc, nil
}

func Parse(content []byte) (*Document, error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	if !bytes.HasPrefix(trimmed, []byte("---\n")) {
		return nil, ErrNoFrontmatter
	}

	rest := trimmed[len("---\n"):]
	end := bytes.Index(rest, []byte("---\n"))
	if end == -1 {
		return nil, ErrNoFrontmatter
	}

	yamlBytes := rest[:end]
	body := string(rest[end+len("---\n"):])

	var frontmatter map[string]any
	if err := yaml.Unmarshal(yamlBytes, &frontmatter); err != nil {
		return nil, ErrInvalidYAML
	}

	title, ok := frontmatter["title"].(string)
	if !ok || strings.TrimSpace(title) == "" {
		return nil, ErrMissingTitle
	}

	entryType, ok := frontmatter["type"].(string)
	if !ok || strings.TrimSpace(entryType) == "" {
		return nil, ErrMissingType
	}

	tags, err := stringList(frontmatter["tags"])
	if err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	locations, err := stringList(frontmatter["related_locations"])
	if err != nil {
		return nil, fmt.Errorf("related_locations: %w", err)
	}
	npcs, err := stringList(frontmatter["related_npcs"])
	if err != nil {
		return nil, fmt.Errorf("related_npcs: %w", err)
	}

	return &Document{
		Title:            title,
		EntryType:        entryType,
		Tags:             tags,
		RelatedLocations: locations,
		RelatedNPCs:      npcs,
		Body:             strings.TrimSpace(body),
	}, nil
}

func stringList(value any) ([]string, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []any:
		values := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("must be strings")
			}
			if strings.TrimSpace(s) == "" {
				continue
			}
			values = append(values, s)
		}
		if len(values) == 0 {
			return nil, nil
		}
		return values, nil
	default:
		return nil, fmt.Errorf("must be string or list of strings")
	}
}

// EntryInput converts a parsed document into the store's upsert shape.
func (d *Document) EntryInput(campaignID int64) store.WorldBibleEntryInput {
	return store.WorldBibleEntryInput{
		CampaignID:       campaignID,
		EntryType:        d.EntryType,
		Title:            d.Title,
		Content:          d.Body,
		Tags:             strings.Join(d.Tags, ","),
		RelatedLocations: strings.Join(d.RelatedLocations, ","),
		RelatedNPCs:      strings.Join(d.RelatedNPCs, ","),
	}
}

// Result reports one import pass.
type Result struct {
	EntriesUpserted int
	FilesSkipped    int
	Errors          []error
}

// Upserter is the single write the import needs from the store.
type Upserter interface {
	UpsertWorldBibleEntry(ctx context.Context, in store.WorldBibleEntryInput) (int64, error)
}

// Import walks the given roots for markdown files and upserts each parseable
// one as a world bible entry. Files without frontmatter or a type are skipped
// quietly (plain notes are allowed to live next to world files); anything
// else broken is collected as an error without stopping the walk.
func Import(ctx context.Context, q Upserter, campaignID int64, roots []string) (*Result, error) {
	files, err := walkMarkdownFiles(roots)
	if err != nil {
		return nil, fmt.Errorf("importing world files: %w", err)
	}

	result := &Result{}
	for _, path := range files {
		doc, err := ParseFile(path)
		if err != nil {
			if errors.Is(err, ErrNoFrontmatter) || errors.Is(err, ErrMissingType) {
				result.FilesSkipped++
				continue
			}
			result.Errors = append(result.Errors, fmt.Errorf("parsing %s: %w", path, err))
			continue
		}
		if _, err := q.UpsertWorldBibleEntry(ctx, doc.EntryInput(campaignID)); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("upserting %s: %w", path, err))
			continue
		}
		result.EntriesUpserted++
	}
	return result, nil
}

func walkMarkdownFiles(roots []string) ([]string, error) {
	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

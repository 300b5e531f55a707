package rules

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/rgehrsitz/taxengine/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed data
var builtin embed.FS

// Source supplies raw rule documents. It is the narrow boundary to whatever keeps
// rule data up to date (a forms/rules download component, a directory, the binary).
// Fetch returns an error wrapping domain.ErrUnsupportedRuleSet when it has no data.
type Source interface {
	Fetch(ctx context.Context, year int, j domain.Jurisdiction) (*domain.RuleSetData, error)
}

// Lister is implemented by sources that can enumerate what they hold.
type Lister interface {
	List(ctx context.Context) ([]Key, error)
}

// FSSource reads YAML documents laid out as <root>/<year>/<jurisdiction>.yaml.
type FSSource struct {
	FS   fs.FS
	Root string
	Name string
}

// EmbeddedSource serves the rule tables compiled into the binary.
func EmbeddedSource() *FSSource {
	return &FSSource{FS: builtin, Root: "data", Name: "embedded"}
}

// DirSource serves rule documents from a directory on disk.
func DirSource(dir string) *FSSource {
	return &FSSource{FS: os.DirFS(dir), Root: ".", Name: dir}
}

func (s *FSSource) String() string { return s.Name }

// Fetch implements Source.
func (s *FSSource) Fetch(ctx context.Context, year int, j domain.Jurisdiction) (*domain.RuleSetData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := path.Join(s.Root, strconv.Itoa(year), string(j)+".yaml")
	raw, err := fs.ReadFile(s.FS, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.Unsupported(year, j)
		}
		return nil, fmt.Errorf("failed to read rule set %s: %w", p, err)
	}
	return decodeRuleSet(year, j, raw)
}

// List implements Lister.
func (s *FSSource) List(ctx context.Context) ([]Key, error) {
	years, err := fs.ReadDir(s.FS, s.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to list rule years in %s: %w", s.Name, err)
	}
	var keys []Key
	for _, y := range years {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !y.IsDir() {
			continue
		}
		year, err := strconv.Atoi(y.Name())
		if err != nil {
			continue
		}
		files, err := fs.ReadDir(s.FS, path.Join(s.Root, y.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to list rule sets for %d: %w", year, err)
		}
		for _, f := range files {
			name := f.Name()
			if f.IsDir() || !strings.HasSuffix(name, ".yaml") {
				continue
			}
			keys = append(keys, Key{Year: year, Jurisdiction: domain.Jurisdiction(strings.TrimSuffix(name, ".yaml"))})
		}
	}
	sortKeys(keys)
	return keys, nil
}

func decodeRuleSet(year int, j domain.Jurisdiction, raw []byte) (*domain.RuleSetData, error) {
	var data domain.RuleSetData
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&data); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.Malformed(year, j, "", "empty rule document")
		}
		return nil, domain.Malformed(year, j, "", "failed to parse YAML: %v", err)
	}
	return &data, nil
}

// ChainSource asks each source in turn and returns the first document found.
type ChainSource []Source

// Fetch implements Source.
func (c ChainSource) Fetch(ctx context.Context, year int, j domain.Jurisdiction) (*domain.RuleSetData, error) {
	for _, src := range c {
		data, err := src.Fetch(ctx, year, j)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, domain.ErrUnsupportedRuleSet) {
			return nil, err
		}
	}
	return nil, domain.Unsupported(year, j)
}

// List implements Lister over every listing source, without duplicates.
func (c ChainSource) List(ctx context.Context) ([]Key, error) {
	seen := map[Key]bool{}
	var keys []Key
	for _, src := range c {
		l, ok := src.(Lister)
		if !ok {
			continue
		}
		ks, err := l.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, k := range ks {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sortKeys(keys)
	return keys, nil
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(a, b int) bool {
		if keys[a].Year != keys[b].Year {
			return keys[a].Year < keys[b].Year
		}
		if keys[a].Jurisdiction == domain.Federal || keys[b].Jurisdiction == domain.Federal {
			return keys[a].Jurisdiction == domain.Federal && keys[b].Jurisdiction != domain.Federal
		}
		return keys[a].Jurisdiction < keys[b].Jurisdiction
	})
}

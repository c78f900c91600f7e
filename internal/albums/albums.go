package albums

import (
	"context"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"

	"github.com/shuttermill/shuttermill/internal/logging"
	"github.com/shuttermill/shuttermill/internal/model"
)

// Table maps a short key (a folder keyword, city, state or location
// name) to one or more base album paths. A base path ending in "/"
// asks for the asset's title to be appended as the leaf album name.
type Table map[string][]string

// Loader reads the mapping document. Every Load hits the file again;
// edits to the document take effect on the next resolution without a
// restart.
type Loader struct {
	path string
}

// NewLoader creates a Loader for the given mapping document path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load parses the mapping document. A missing or malformed document is
// logged and yields an empty table, so resolution quietly produces no
// placements instead of failing the caller's transfer.
//
// The document is decoded directly from provider bytes rather than
// through a koanf instance: keyed path flattening would split mapping
// keys containing dots ("St. Moritz") into nested tables.
func (l *Loader) Load(ctx context.Context) Table {
	raw, err := file.Provider(l.path).ReadBytes()
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("mapping", l.path).Msg("album mapping unreadable, resolving no albums")
		return Table{}
	}

	doc, err := yaml.Parser().Unmarshal(raw)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("mapping", l.path).Msg("album mapping malformed, resolving no albums")
		return Table{}
	}

	table := make(Table)
	for key, value := range doc {
		switch v := value.(type) {
		case string:
			if v != "" {
				table[key] = append(table[key], v)
			}
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					table[key] = append(table[key], s)
				}
			}
		default:
			logging.Ctx(ctx).Warn().Str("mapping", l.path).Str("key", key).Msg("album mapping value is neither string nor list, skipping")
		}
	}
	return table
}

// Resolver computes the album placements for one asset from its
// keywords, title and place names.
type Resolver struct {
	loader *Loader
	prefix string
}

// NewResolver creates a Resolver. prefix is the fixed top folder for
// colon-category placements.
func NewResolver(loader *Loader, prefix string) *Resolver {
	return &Resolver{loader: loader, prefix: prefix}
}

// Resolve returns the deduplicated album paths for the asset, in rule
// order: keyword rules first, then city, state and location lookups,
// then the title's own colon-category check. Every matching rule
// contributes; none is exclusive.
//
// Keyword rules:
//
//  1. "Category: Details" keywords synthesize <prefix>/Category/full
//     text directly, without consulting the mapping table. A keyword
//     ending in a bare colon is ignored.
//  2. "Folder/Album" keywords look Folder up in the table; the mapped
//     base is joined with Album, or with the title when Album is empty.
//  3. Bare keywords that exactly match a table key are joined with the
//     title.
//
// City, state and location are each looked up independently; a mapped
// value ending in "/" has the title appended, any other value is used
// verbatim.
func (r *Resolver) Resolve(ctx context.Context, meta model.MediaMetadata) []string {
	table := r.loader.Load(ctx)

	var paths []string
	seen := make(map[string]struct{})
	add := func(path string) {
		if path == "" {
			return
		}
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}

	for _, kw := range meta.Keywords {
		switch {
		case isColonCategory(kw):
			add(r.categoryPath(kw))
		case strings.Contains(kw, ":"):
			// A colon without the "Category: Details" shape matches no
			// rule; "Wedding:" is ignored entirely.
		case strings.Contains(kw, "/"):
			folder, leaf, _ := strings.Cut(kw, "/")
			for _, base := range table[folder] {
				if leaf != "" {
					add(joinLeaf(base, leaf))
				} else if meta.Title != "" {
					add(joinLeaf(base, meta.Title))
				}
			}
		default:
			for _, base := range table[kw] {
				if meta.Title != "" {
					add(joinLeaf(base, meta.Title))
				}
			}
		}
	}

	for _, place := range []string{meta.Location.City, meta.Location.State, meta.Location.Location} {
		if place == "" {
			continue
		}
		for _, base := range table[place] {
			if strings.HasSuffix(base, "/") {
				if meta.Title != "" {
					add(joinLeaf(base, meta.Title))
				}
			} else {
				add(base)
			}
		}
	}

	if isColonCategory(meta.Title) {
		add(r.categoryPath(meta.Title))
	}

	if len(paths) > 0 {
		logging.Ctx(ctx).Debug().Strs("albums", paths).Msg("album paths resolved")
	}
	return paths
}

// isColonCategory reports whether text has the "Category: Details"
// shape: exactly one colon, directly followed by a space.
func isColonCategory(text string) bool {
	return strings.Count(text, ":") == 1 && strings.Contains(text, ": ")
}

// categoryPath synthesizes <prefix>/<category>/<full text> for a
// colon-category value. The full text, colon included, becomes the
// leaf album name.
func (r *Resolver) categoryPath(text string) string {
	category := strings.TrimSpace(text[:strings.Index(text, ":")])
	if category == "" {
		return ""
	}
	return r.prefix + "/" + category + "/" + text
}

// joinLeaf joins a mapped base path with a leaf album name, tolerating
// bases written with or without a trailing separator.
func joinLeaf(base, leaf string) string {
	return strings.TrimRight(base, "/") + "/" + leaf
}

package sidecar

import (
	"context"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shuttermill/shuttermill/internal/logging"
	"github.com/shuttermill/shuttermill/internal/model"
)

// Namespace URIs consumed from sidecar documents. Elements resolve to these
// full URIs during decoding; the xml:lang attribute keeps its reserved "xml"
// prefix because the namespace is never declared in the document itself.
const (
	nsRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsDC   = "http://purl.org/dc/elements/1.1/"
	nsLR   = "http://ns.adobe.com/lightroom/1.0/"
	nsIPTC = "http://iptc.org/std/Iptc4xmpCore/1.0/xmlns/"
	nsPS   = "http://ns.adobe.com/photoshop/1.0/"
	nsXML  = "http://www.w3.org/XML/1998/namespace"
)

// Extension is the sidecar file extension, including the dot.
const Extension = ".xmp"

// Fields holds everything a sidecar document can contribute to a media
// file's metadata. Absent values stay zero; callers treat the zero value
// as "no sidecar data".
type Fields struct {
	// Title is the asset title, if any of the title strategies matched.
	Title string

	// Keywords are flat leaf keywords in first-seen order with duplicates
	// removed. Hierarchical entries are split on "|" before collection.
	Keywords []string

	// Caption is the long-form description, if present.
	Caption string

	// Location carries whichever named place components the document
	// provided. Different documents populate different components, so
	// callers must read the named fields rather than assume a fixed set.
	Location model.Location
}

// IsZero reports whether no field was extracted at all.
func (f Fields) IsZero() bool {
	return f.Title == "" && len(f.Keywords) == 0 && f.Caption == "" && f.Location.IsZero()
}

// Locate returns the path of the sidecar document accompanying mediaPath.
// Two candidates are tried in order: the media filename with its extension
// replaced by .xmp, then the full media filename with .xmp appended. The
// second form shows up when export tools keep the media extension in the
// sidecar name (clip.mov.xmp next to clip.mov).
func Locate(mediaPath string) (string, bool) {
	stem := strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath))
	for _, candidate := range []string{stem + Extension, mediaPath + Extension} {
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}
	}
	return "", false
}

// Read parses the sidecar document at path. A missing or malformed document
// yields the zero Fields and a log entry; it is never an error the caller
// has to handle, because a media file without usable sidecar data still
// moves through the rest of the pipeline.
func Read(ctx context.Context, path string) Fields {
	f, err := os.Open(path)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("sidecar", path).Msg("sidecar unreadable")
		return Fields{}
	}
	defer f.Close()

	fields, err := Decode(f)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("sidecar", path).Msg("sidecar parse failed")
		return Fields{}
	}
	return fields
}

// Decode extracts Fields from a sidecar document read from r.
func Decode(r io.Reader) (Fields, error) {
	var root node
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return Fields{}, err
	}

	var fields Fields
	for _, strategy := range titleStrategies {
		if title, ok := strategy(&root); ok {
			fields.Title = title
			break
		}
	}
	fields.Keywords = extractKeywords(&root)
	fields.Caption = extractCaption(&root)
	fields.Location = extractLocation(&root)
	return fields, nil
}

// node is a generic element tree. Decoding into it keeps the full document
// shape available so each strategy can probe its own path without a schema
// per vendor dialect.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []node     `xml:",any"`
	Text     string     `xml:",chardata"`
}

func (n *node) is(space, local string) bool {
	return n.XMLName.Space == space && n.XMLName.Local == local
}

// attr returns the trimmed value of the named attribute, or "".
func (n *node) attr(space, local string) string {
	for _, a := range n.Attrs {
		if a.Name.Space == space && a.Name.Local == local {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

// lang returns the xml:lang tag of a list item. The decoder leaves the
// reserved xml prefix unexpanded, so both spellings are accepted.
func (n *node) lang() string {
	for _, a := range n.Attrs {
		if a.Name.Local != "lang" {
			continue
		}
		if a.Name.Space == "xml" || a.Name.Space == nsXML {
			return a.Value
		}
	}
	return ""
}

func (n *node) text() string {
	return strings.TrimSpace(n.Text)
}

// findFirst returns the first element matching space/local in document
// order, searching n and its descendants.
func findFirst(n *node, space, local string) *node {
	if n.is(space, local) {
		return n
	}
	for i := range n.Children {
		if m := findFirst(&n.Children[i], space, local); m != nil {
			return m
		}
	}
	return nil
}

// collect appends every element matching space/local in document order.
func collect(n *node, space, local string, out []*node) []*node {
	if n.is(space, local) {
		out = append(out, n)
	}
	for i := range n.Children {
		out = collect(&n.Children[i], space, local, out)
	}
	return out
}

// items returns the rdf:li descendants of the first container element
// matching space/local under parent, or nil when the container is absent.
func items(parent *node, space, local string) []*node {
	container := findFirst(parent, space, local)
	if container == nil {
		return nil
	}
	return collect(container, nsRDF, "li", nil)
}

// A titleStrategy probes one known serialization of the asset title.
// Strategies run in order; the first hit wins and later ones are skipped.
type titleStrategy func(root *node) (string, bool)

var titleStrategies = []titleStrategy{
	titleFromAltDefault,
	titleFromAltAny,
	titleFromItemDefault,
	titleFromItemAny,
	titleFromAttributes,
}

// titleFromAltDefault matches dc:title/rdf:Alt/rdf:li with the x-default
// language tag, the canonical alternative-text serialization.
func titleFromAltDefault(root *node) (string, bool) {
	title := findFirst(root, nsDC, "title")
	if title == nil {
		return "", false
	}
	for _, li := range items(title, nsRDF, "Alt") {
		if li.lang() == "x-default" && li.text() != "" {
			return li.text(), true
		}
	}
	return "", false
}

// titleFromAltAny matches any non-empty dc:title/rdf:Alt/rdf:li regardless
// of language tag.
func titleFromAltAny(root *node) (string, bool) {
	title := findFirst(root, nsDC, "title")
	if title == nil {
		return "", false
	}
	for _, li := range items(title, nsRDF, "Alt") {
		if li.text() != "" {
			return li.text(), true
		}
	}
	return "", false
}

// titleFromItemDefault matches an x-default list item under dc:title in any
// container. Some writers emit rdf:Seq or rdf:Bag where rdf:Alt belongs.
func titleFromItemDefault(root *node) (string, bool) {
	title := findFirst(root, nsDC, "title")
	if title == nil {
		return "", false
	}
	for _, li := range collect(title, nsRDF, "li", nil) {
		if li.lang() == "x-default" && li.text() != "" {
			return li.text(), true
		}
	}
	return "", false
}

// titleFromItemAny matches any non-empty list item under dc:title.
func titleFromItemAny(root *node) (string, bool) {
	title := findFirst(root, nsDC, "title")
	if title == nil {
		return "", false
	}
	for _, li := range collect(title, nsRDF, "li", nil) {
		if li.text() != "" {
			return li.text(), true
		}
	}
	return "", false
}

// titleFromAttributes is the last resort: a photoshop:Headline attribute,
// or failing that an Iptc4xmpCore:Location attribute, on a description
// node stands in as a pseudo-title.
func titleFromAttributes(root *node) (string, bool) {
	for _, desc := range collect(root, nsRDF, "Description", nil) {
		if v := desc.attr(nsPS, "Headline"); v != "" {
			return v, true
		}
	}
	for _, desc := range collect(root, nsRDF, "Description", nil) {
		if v := desc.attr(nsIPTC, "Location"); v != "" {
			return v, true
		}
	}
	return "", false
}

// extractKeywords prefers the hierarchical subject bag, splitting each
// entry on "|" into flat leaf keywords. Entries without text are skipped.
// Only when the hierarchical bag yields nothing is the flat subject bag
// consulted.
func extractKeywords(root *node) []string {
	if keywords := splitBag(items(root, nsLR, "hierarchicalSubject"), "|"); len(keywords) > 0 {
		return keywords
	}
	return splitBag(items(root, nsDC, "subject"), "")
}

// splitBag flattens bag items into deduplicated keywords, splitting each
// item on sep when sep is non-empty.
func splitBag(lis []*node, sep string) []string {
	var keywords []string
	seen := make(map[string]struct{})
	add := func(keyword string) {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			return
		}
		if _, dup := seen[keyword]; dup {
			return
		}
		seen[keyword] = struct{}{}
		keywords = append(keywords, keyword)
	}
	for _, li := range lis {
		text := li.text()
		if text == "" {
			continue
		}
		if sep == "" {
			add(text)
			continue
		}
		for _, leaf := range strings.Split(text, sep) {
			add(leaf)
		}
	}
	return keywords
}

// extractCaption returns the first non-empty description list item.
func extractCaption(root *node) string {
	desc := findFirst(root, nsDC, "description")
	if desc == nil {
		return ""
	}
	for _, li := range collect(desc, nsRDF, "li", nil) {
		if li.text() != "" {
			return li.text()
		}
	}
	return ""
}

// extractLocation tries the IPTC Core child elements first and falls back
// to attributes on a description node. The element form carries Location,
// City and CountryName; the attribute form carries City, State and Country
// plus an optional IPTC Location attribute. The two forms populate
// different components of the result, which is why Location is a struct of
// named fields rather than a positional tuple.
func extractLocation(root *node) model.Location {
	loc := model.Location{
		Location: elementText(root, nsIPTC, "Location"),
		City:     elementText(root, nsIPTC, "City"),
		Country:  elementText(root, nsIPTC, "CountryName"),
	}
	if !loc.IsZero() {
		return loc
	}

	for _, desc := range collect(root, nsRDF, "Description", nil) {
		loc = model.Location{
			Location: desc.attr(nsIPTC, "Location"),
			City:     desc.attr(nsPS, "City"),
			State:    desc.attr(nsPS, "State"),
			Country:  desc.attr(nsPS, "Country"),
		}
		if !loc.IsZero() {
			return loc
		}
	}
	return model.Location{}
}

func elementText(root *node, space, local string) string {
	if n := findFirst(root, space, local); n != nil {
		return n.text()
	}
	return ""
}

// Package albums turns asset metadata into album placement paths.
//
// Placement is driven by a small YAML mapping document whose keys are
// folder keywords, city, state or location names and whose values are
// base album paths:
//
//	Family: 02/Relatives/
//	Stuttgart:
//	  - 02/DE/Stuttgart/
//	  - 01/Travel/Germany
//
// A value ending in "/" asks for the asset's title as the leaf album
// name; any other value is used verbatim. The document is re-read on
// every resolution, so edits apply immediately, and an unreadable
// document fails closed: the resolver logs and returns no placements
// rather than surfacing an error to the transfer loop.
//
// "Category: Details" keywords and titles bypass the table entirely
// and synthesize <prefix>/Category/full text, which files one-off
// events under a stable top folder without a mapping entry each time:
//
//	resolver := albums.NewResolver(albums.NewLoader("album.yaml"), "02")
//	paths := resolver.Resolve(ctx, meta)
//	// "Travel: Rome 2024" -> "02/Travel/Travel: Rome 2024"
package albums

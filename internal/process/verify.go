package process

import (
	"sort"
	"strings"

	"github.com/shuttermill/shuttermill/internal/dates"
)

// mismatch records one field whose re-read values did not confirm the
// written value.
type mismatch struct {
	Op       writeOp
	Observed []string
}

// verifyTags re-checks every write op against the tags re-read from
// the file. A field passes when any candidate tag compares equal under
// the field's own rule: exact equality for text fields, normalized
// comparison for dates, set equality for keywords, and component
// matching for the location string.
//
// Keyword mismatches come back as warnings, not failures. Keyword
// storage varies across tag names and containers, and a keyword set
// that reads back differently has not historically meant the write was
// lost. Every other field is required.
func verifyTags(ops []writeOp, reread map[string]string) (failures, warnings []mismatch) {
	for _, op := range ops {
		observed := observedValues(reread, op.Tags)
		if fieldConfirmed(op, observed) {
			continue
		}
		m := mismatch{Op: op, Observed: observed}
		if op.Field == fieldKeywords {
			warnings = append(warnings, m)
		} else {
			failures = append(failures, m)
		}
	}
	return failures, warnings
}

func fieldConfirmed(op writeOp, observed []string) bool {
	for _, value := range observed {
		switch op.Field {
		case fieldDate:
			if dates.Equal(op.Value, value) {
				return true
			}
		case fieldKeywords:
			if keywordSetsEqual(op.Value, value) {
				return true
			}
		case fieldLocation:
			if value == op.Value || containsListEntry(value, op.Value) {
				return true
			}
		default:
			if value == op.Value {
				return true
			}
		}
	}
	return false
}

// observedValues collects the distinct re-read values for any tag
// matching one of the written tag names, in either its exact group or
// any other group carrying the same bare name. Keys are visited in
// sorted order for stable output.
func observedValues(reread map[string]string, tags []string) []string {
	keys := make([]string, 0, len(reread))
	for k := range reread {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var values []string
	seen := make(map[string]struct{})
	for _, tag := range tags {
		bare := bareTag(tag)
		for _, key := range keys {
			if key != tag && bareTag(key) != bare {
				continue
			}
			value := strings.TrimSpace(reread[key])
			if value == "" {
				continue
			}
			if _, dup := seen[value]; dup {
				continue
			}
			seen[value] = struct{}{}
			values = append(values, value)
		}
	}
	return values
}

// bareTag strips the group prefix: "QuickTime:CreateDate" yields
// "CreateDate", a bare name passes through unchanged.
func bareTag(tag string) string {
	if i := strings.LastIndex(tag, ":"); i >= 0 {
		return tag[i+1:]
	}
	return tag
}

// keywordSetsEqual compares two comma-joined keyword lists as sets,
// case-sensitively, ignoring empty entries and entry order.
func keywordSetsEqual(a, b string) bool {
	return setOf(splitList(a)) == setOf(splitList(b))
}

func setOf(entries []string) string {
	unique := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		unique[e] = struct{}{}
	}
	sorted := make([]string, 0, len(unique))
	for e := range unique {
		sorted = append(sorted, e)
	}
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

// containsListEntry reports whether want appears as one comma-separated
// component of a combined value such as "Old Town, Dubrovnik, Croatia".
func containsListEntry(combined, want string) bool {
	for _, part := range strings.Split(combined, ",") {
		if strings.TrimSpace(part) == want {
			return true
		}
	}
	return false
}

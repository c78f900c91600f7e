package model

import (
	"reflect"
	"testing"
)

func TestMediaMetadataIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		meta MediaMetadata
		want bool
	}{
		{"zero value", MediaMetadata{}, true},
		{"title only", MediaMetadata{Title: "x"}, false},
		{"keywords only", MediaMetadata{Keywords: []string{"k"}}, false},
		{"date only", MediaMetadata{Date: "2025_03_27"}, false},
		{"caption only", MediaMetadata{Caption: "c"}, false},
		{"city only", MediaMetadata{Location: Location{City: "Rome"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.meta.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddKeywordsDeduplicates(t *testing.T) {
	var meta MediaMetadata
	meta.AddKeywords("alpha", "beta", "alpha", "", "gamma", "beta")

	want := []string{"alpha", "beta", "gamma"}
	if !reflect.DeepEqual(meta.Keywords, want) {
		t.Errorf("Keywords = %v, want %v", meta.Keywords, want)
	}
}

func TestAddKeywordsPreservesOrder(t *testing.T) {
	var meta MediaMetadata
	meta.AddKeywords("zebra")
	meta.AddKeywords("apple", "zebra", "mango")

	want := []string{"zebra", "apple", "mango"}
	if !reflect.DeepEqual(meta.Keywords, want) {
		t.Errorf("Keywords = %v, want %v", meta.Keywords, want)
	}
}

func TestLocationDisplayName(t *testing.T) {
	tests := []struct {
		name string
		loc  Location
		want string
	}{
		{"all parts", Location{"Pier 39", "San Francisco", "CA", "USA"}, "Pier 39 San Francisco CA USA"},
		{"city country", Location{City: "Stuttgart", Country: "Germany"}, "Stuttgart Germany"},
		{"empty", Location{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

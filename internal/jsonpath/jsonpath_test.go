package jsonpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	doc := map[string]any{
		"data": map[string]any{
			"items": []any{"a", "b"},
			"next":  nil,
		},
	}

	tests := []struct {
		name  string
		path  []string
		want  any
		found bool
	}{
		{"empty path", nil, doc, true},
		{"nested array", []string{"data", "items"}, []any{"a", "b"}, true},
		{"array index", []string{"data", "items", "1"}, "b", true},
		{"index out of range", []string{"data", "items", "5"}, nil, false},
		{"missing key", []string{"data", "cursor"}, nil, false},
		{"null value", []string{"data", "next"}, nil, false},
		{"through null", []string{"data", "next", "id"}, nil, false},
		{"through scalar", []string{"data", "items", "0", "x"}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := Lookup(doc, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookupStruct(t *testing.T) {
	type meta struct {
		NextCursor *string `json:"next_cursor"`
	}
	type page struct {
		Items []int `json:"items"`
		Meta  meta  `json:"meta"`
	}
	cursor := "abc"

	got, found, err := Lookup(page{Items: []int{1, 2}, Meta: meta{NextCursor: &cursor}}, []string{"meta", "next_cursor"})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "abc", got)

	_, found, err = Lookup(page{}, []string{"meta", "next_cursor"})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLookupUnmarshalable(t *testing.T) {
	_, _, err := Lookup(struct{ Ch chan int }{make(chan int)}, []string{"Ch"})
	assert.Error(t, err)
}

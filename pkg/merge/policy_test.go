package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/favmerge/pkg/favorites"
)

func TestMergeFields(t *testing.T) {
	const key = "https://example.com/thread/1"

	tests := []struct {
		name      string
		base      favorites.Record
		incoming  favorites.Record
		kind      favorites.SourceKind
		want      favorites.Record
		conflicts FieldSet
	}{
		{
			name:     "authoritative title overrides",
			base:     favorites.Record{Key: key, Title: "Old"},
			incoming: favorites.Record{Key: key, Title: "New"},
			kind:     favorites.Authoritative,
			want:     favorites.Record{Key: key, Title: "New", Tags: []string{}},
		},
		{
			name:     "authoritative empty title still overrides",
			base:     favorites.Record{Key: key, Title: "Old"},
			incoming: favorites.Record{Key: key},
			kind:     favorites.Authoritative,
			want:     favorites.Record{Key: key, Tags: []string{}},
		},
		{
			name:     "advisory title fills empty base",
			base:     favorites.Record{Key: key},
			incoming: favorites.Record{Key: key, Title: "X"},
			kind:     favorites.Advisory,
			want:     favorites.Record{Key: key, Title: "X", Tags: []string{}},
		},
		{
			name:     "advisory empty title keeps base",
			base:     favorites.Record{Key: key, Title: "X"},
			incoming: favorites.Record{Key: key},
			kind:     favorites.Advisory,
			want:     favorites.Record{Key: key, Title: "X", Tags: []string{}},
		},
		{
			name:      "advisory title conflict keeps base tentatively",
			base:      favorites.Record{Key: key, Title: "A"},
			incoming:  favorites.Record{Key: key, Title: "B"},
			kind:      favorites.Advisory,
			want:      favorites.Record{Key: key, Title: "A", Tags: []string{}},
			conflicts: FieldSet{FieldTitle},
		},
		{
			name:      "description conflicts even from authoritative source",
			base:      favorites.Record{Key: key, Title: "A", Description: "one"},
			incoming:  favorites.Record{Key: key, Title: "B", Description: "two"},
			kind:      favorites.Authoritative,
			want:      favorites.Record{Key: key, Title: "B", Description: "one", Tags: []string{}},
			conflicts: FieldSet{FieldDescription},
		},
		{
			name:      "both fields disputed",
			base:      favorites.Record{Key: key, Title: "A", Description: "one"},
			incoming:  favorites.Record{Key: key, Title: "B", Description: "two"},
			kind:      favorites.Advisory,
			want:      favorites.Record{Key: key, Title: "A", Description: "one", Tags: []string{}},
			conflicts: FieldSet{FieldTitle, FieldDescription},
		},
		{
			name:     "description fills empty base",
			base:     favorites.Record{Key: key},
			incoming: favorites.Record{Key: key, Description: "d"},
			kind:     favorites.Advisory,
			want:     favorites.Record{Key: key, Description: "d", Tags: []string{}},
		},
		{
			name:     "tags union never conflicts",
			base:     favorites.Record{Key: key, Tags: []string{"news", "go"}},
			incoming: favorites.Record{Key: key, Tags: []string{"rust", "go"}},
			kind:     favorites.Advisory,
			want:     favorites.Record{Key: key, Tags: []string{"go", "news", "rust"}},
		},
		{
			name:     "timestamps prefer base",
			base:     favorites.Record{Key: key, UserTimestamp: "2024-01-01 00:00:00"},
			incoming: favorites.Record{Key: key, UserTimestamp: "2025-01-01 00:00:00", AddTimestamp: "2025-02-02 00:00:00"},
			kind:     favorites.Advisory,
			want: favorites.Record{
				Key:           key,
				Tags:          []string{},
				UserTimestamp: "2024-01-01 00:00:00",
				AddTimestamp:  "2025-02-02 00:00:00",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			baseCopy := tc.base.Clone()
			incomingCopy := tc.incoming.Clone()

			got := MergeFields(tc.base, tc.incoming, tc.kind)

			assert.Equal(t, tc.want, got.Merged)
			assert.Equal(t, tc.conflicts, got.Conflicts)
			assert.Equal(t, len(tc.conflicts) > 0, got.HasConflicts())
			assert.Equal(t, baseCopy, tc.base, "base must not be modified")
			assert.Equal(t, incomingCopy, tc.incoming, "incoming must not be modified")
		})
	}
}

func TestFieldRulesCoverEveryMutableField(t *testing.T) {
	names := make([]string, 0, len(fieldRules))
	for _, rule := range fieldRules {
		names = append(names, rule.name)
	}
	assert.ElementsMatch(t, []string{"title", "description", "tags", "user_timestamp", "add_timestamp"}, names)
}

func TestTagUnionIsCommutative(t *testing.T) {
	a := favorites.Record{Key: "k", Tags: []string{"x", "y"}}
	b := favorites.Record{Key: "k", Tags: []string{"z", "x"}}

	ab := MergeFields(a, b, favorites.Advisory).Merged.Tags
	ba := MergeFields(b, a, favorites.Advisory).Merged.Tags
	assert.Equal(t, ab, ba)
	assert.Equal(t, []string{"x", "y", "z"}, ab)
}

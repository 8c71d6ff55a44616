package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    FilterRule
		wantErr error
	}{
		{
			name:  "equals shorthand",
			input: "status=open",
			want:  FilterRule{Field: "status", Operator: OpEquals, Value: "open"},
		},
		{
			name:  "explicit contains",
			input: "email:contains:@example.com",
			want:  FilterRule{Field: "email", Operator: OpContains, Value: "@example.com"},
		},
		{
			name:  "value keeps colons",
			input: "hired_at:before:2024-01-01T00:00:00Z",
			want:  FilterRule{Field: "hired_at", Operator: OpBefore, Value: "2024-01-01T00:00:00Z"},
		},
		{
			name:  "in splits on commas",
			input: "status:in:open,draft",
			want:  FilterRule{Field: "status", Operator: OpIn, Value: []string{"open", "draft"}},
		},
		{
			name:    "unknown operator rejected",
			input:   "status:like:open",
			wantErr: ErrInvalidFilter,
		},
		{
			name:    "missing value rejected",
			input:   "status:equals",
			wantErr: ErrInvalidFilter,
		},
		{
			name:    "empty field rejected",
			input:   "=open",
			wantErr: ErrInvalidFilter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterRuleValidateInNeedsList(t *testing.T) {
	err := FilterRule{Field: "status", Operator: OpIn, Value: "open"}.Validate()
	assert.ErrorIs(t, err, ErrInvalidFilter)

	err = FilterRule{Field: "status", Operator: OpIn, Value: []any{"open"}}.Validate()
	assert.NoError(t, err)
}

func TestParseSort(t *testing.T) {
	r, err := ParseSort("last_name")
	require.NoError(t, err)
	assert.Equal(t, SortRule{Field: "last_name", Direction: Asc}, r)

	r, err = ParseSort("hired_at:DESC")
	require.NoError(t, err)
	assert.Equal(t, SortRule{Field: "hired_at", Direction: Desc}, r)

	_, err = ParseSort("hired_at:sideways")
	assert.ErrorIs(t, err, ErrInvalidSort)

	_, err = ParseSort(":asc")
	assert.ErrorIs(t, err, ErrInvalidSort)
}

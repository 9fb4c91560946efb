package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractScriptArray(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		wantIDs []string
		wantErr error
	}{
		{
			name:    "assignment",
			script:  `var classes = [{"id": "a"}, {"id": "b"}];`,
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "object property",
			script:  `init({ events: [{"id": "e1"}] , other: 1 })`,
			wantIDs: []string{"e1"},
		},
		{
			name:    "quoted key",
			script:  `{"events" : [{"id": "q1"}]}`,
			wantIDs: []string{"q1"},
		},
		{
			name:    "nested arrays and brackets in strings",
			script:  `var classes=[{"id":"n1","tags":["a","b"],"name":"Boxe ] [ \"pro\""}];`,
			wantIDs: []string{"n1"},
		},
		{
			name:    "skips identifier that only contains the token",
			script:  `var subclasses = [1]; var classes = [{"id": "x"}];`,
			wantIDs: []string{"x"},
		},
		{
			name:    "skips occurrence without literal then uses the next",
			script:  `if (classes.length) {}; classes = [{"id": "later"}];`,
			wantIDs: []string{"later"},
		},
		{
			name:    "no token",
			script:  `console.log("hello")`,
			wantErr: ErrNoDataToken,
		},
		{
			name:    "token without array",
			script:  `var classes = loadClasses();`,
			wantErr: ErrNoArrayLiteral,
		},
		{
			name:    "unterminated",
			script:  `var events = [{"id": 1}, {"id": 2}`,
			wantErr: ErrUnbalancedArray,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := ExtractScriptArray(tt.script)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			ids := make([]string, 0, len(items))
			for _, item := range items {
				ids = append(ids, stringField(item, "id"))
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestExtractScriptArrayRejectsNonJSONLiteral(t *testing.T) {
	_, err := ExtractScriptArray(`var classes = [{id: 'single-quoted'}];`)
	assert.Error(t, err)
}

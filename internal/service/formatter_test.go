package service

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-info-bot/internal/domain/vehicle"
)

func TestFormatText(t *testing.T) {
	tests := []struct {
		name     string
		record   vehicle.Record
		expected string
	}{
		{
			name:     "single mapped field",
			record:   vehicle.Record{"tozeret_nm": "Toyota"},
			expected: "יצרן: Toyota",
		},
		{
			name:     "unmapped fields are ignored",
			record:   vehicle.Record{"tozeret_nm": "Toyota", "_id": json.Number("17"), "rank": 0.5},
			expected: "יצרן: Toyota",
		},
		{
			name: "table order, not record order",
			record: vehicle.Record{
				"tzeva_rechev":  " לבן ",
				"mispar_rechev": json.Number("1234567"),
				"shnat_yitzur":  json.Number("2015"),
			},
			expected: "מספר רישוי: 1234567\nשנת ייצור: 2015\nצבע: לבן",
		},
		{
			name: "all placeholders",
			record: vehicle.Record{
				"mispar_rechev": "",
				"tozeret_nm":    "null",
				"degem_nm":      "None",
				"tzeva_rechev":  "  ",
				"baalut":        nil,
			},
			expected: NoDetailsText,
		},
		{
			name:     "empty record",
			record:   vehicle.Record{},
			expected: NoDetailsText,
		},
		{
			name:     "nested value is malformed",
			record:   vehicle.Record{"tozeret_nm": map[string]any{"he": "טויוטה"}},
			expected: FormatErrorText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.expected, FormatText(tt.record)); diff != "" {
				t.Errorf("FormatText() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormat_Lines(t *testing.T) {
	reply, err := Format(vehicle.Record{
		"zmig_ahori": "205/55R16",
		"tozeret_nm": "Toyota",
	})
	require.NoError(t, err)

	want := []vehicle.Line{
		{Label: "יצרן", Key: "tozeret_nm", Value: "Toyota"},
		{Label: "צמיגים אחוריים", Key: "zmig_ahori", Value: "205/55R16"},
	}
	if diff := cmp.Diff(want, reply.Lines); diff != "" {
		t.Errorf("Format() lines mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "*יצרן:* Toyota\n*צמיגים אחוריים:* 205/55R16", reply.Markdown(func(s string) string { return s }))
}

func TestFormat_Malformed(t *testing.T) {
	_, err := Format(vehicle.Record{"degem_nm": []any{"a", "b"}})
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestFieldsTable(t *testing.T) {
	require.Len(t, Fields, 14)

	seen := map[string]bool{}
	for _, f := range Fields {
		assert.NotEmpty(t, f.Label)
		assert.False(t, seen[f.Key], "duplicate key %s", f.Key)
		seen[f.Key] = true
	}
	assert.Equal(t, "mispar_rechev", Fields[0].Key)
}

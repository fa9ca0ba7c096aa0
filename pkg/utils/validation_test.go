package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Label string   `validate:"required,max=5"`
	Dt    float64  `validate:"ne=0"`
	Rows  []string `validate:"omitempty,dive,uuid"`
	Flag  string   `validate:"omitempty,oneof=add toggle"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name string
		in   sample
		want string
	}{
		{"valid", sample{Label: "Read", Dt: 1, Rows: []string{"8f2d7a52-6f7e-4f44-9a59-2d1c7d4c2e10"}}, ""},
		{"required", sample{Dt: 1}, "label is required"},
		{"max", sample{Label: "Reader", Dt: 1}, "label must be at most 5"},
		{"ne", sample{Label: "Read"}, "dt must not be 0"},
		{"uuid", sample{Label: "Read", Dt: 1, Rows: []string{"row"}}, "rows[0] must be a row id"},
		{"oneof", sample{Label: "Read", Dt: 1, Flag: "grab"}, "flag must be one of: add toggle"},
		{"joined", sample{}, "label is required; dt must not be 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.in)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.want)
		})
	}
}

package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelected(t *testing.T) {
	tests := []struct {
		name string
		grep []string
		tags []string
		want bool
	}{
		{"no grep runs everything", nil, []string{TagAPI}, true},
		{"untagged runs without grep", nil, nil, true},
		{"include match", []string{"@smoke"}, []string{TagSmoke, TagUI}, true},
		{"include miss", []string{"@smoke"}, []string{TagAuth}, false},
		{"any include matches", []string{"@smoke", "@api"}, []string{TagAPI}, true},
		{"exclude wins", []string{"@api", "-@slow"}, []string{TagAPI, TagSlow}, false},
		{"exclude only", []string{"-@slow"}, []string{TagAuth}, true},
		{"exclude only hits", []string{"-@slow"}, []string{TagSlow}, false},
		{"missing at sign and case", []string{"Smoke"}, []string{"@smoke"}, true},
		{"blank entries ignored", []string{" ", ""}, []string{TagAuth}, true},
		{"untagged with include", []string{"@smoke"}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Selected(tt.grep, tt.tags))
		})
	}
}

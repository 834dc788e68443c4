package narrative

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombine(t *testing.T) {
	tests := []struct {
		name      string
		flag      bool
		text      string
		want      string
		connector string
	}{
		{name: "nothing", flag: false, text: "", want: "", connector: "however"},
		{name: "flag only", flag: true, text: "", want: "default.", connector: "however"},
		{name: "text only", flag: false, text: "bruise to forearm", want: "bruise to forearm", connector: "however"},
		{name: "qualifier but", flag: true, text: "but low", want: "default but low", connector: "however"},
		{name: "qualifier except", flag: true, text: "except a small abrasion", want: "default except a small abrasion", connector: "however"},
		{name: "qualifier case insensitive", flag: true, text: "However tachycardic", want: "default However tachycardic", connector: "with"},
		{name: "connector join", flag: true, text: "BP 120/80", want: "default, with the following readings BP 120/80", connector: "with the following readings"},
		{name: "whitespace text", flag: true, text: "   ", want: "default.", connector: "however"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Combine(tt.flag, tt.text, "default.", tt.connector))
		})
	}
}

package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageHasBody(t *testing.T) {
	url := "https://cdn.example.com/pic.png"
	empty := ""

	tests := []struct {
		name    string
		message Message
		want    bool
	}{
		{"text only", Message{Content: "hi"}, true},
		{"media only", Message{MediaURL: &url}, true},
		{"text and media", Message{Content: "hi", MediaURL: &url}, true},
		{"neither", Message{}, false},
		{"empty media url", Message{MediaURL: &empty}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.message.HasBody())
		})
	}
}

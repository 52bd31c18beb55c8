package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil input", nil, nil},
		{"empty input", []string{}, nil},
		{"already unique", []string{"go", "web"}, []string{"go", "web"}},
		{"duplicates keep first occurrence order", []string{"go", "web", "go", "web"}, []string{"go", "web"}},
		{"whitespace trimmed", []string{" go ", "web"}, []string{"go", "web"}},
		{"empty tags dropped", []string{"", "go", "  "}, []string{"go"}},
		{"trim then dedupe", []string{"go", " go"}, []string{"go"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTags(tt.in))
		})
	}
}

func TestCreatePostInput_Normalize(t *testing.T) {
	in := &CreatePostInput{
		Content: "hello",
		Tags:    []string{"Go", "Go", "Web"},
	}
	in.Normalize()

	assert.Equal(t, DefaultCategory, in.Category)
	assert.Equal(t, []string{"Go", "Web"}, in.Tags)
}

func TestCreatePostInput_Normalize_KeepsExplicitCategory(t *testing.T) {
	in := &CreatePostInput{Content: "hello", Category: "golang"}
	in.Normalize()

	assert.Equal(t, "golang", in.Category)
}

func TestParticipant_IsGuest(t *testing.T) {
	assert.True(t, Guest().IsGuest())
	assert.False(t, Participant{ID: "user-1", DisplayName: "Sam"}.IsGuest())
}

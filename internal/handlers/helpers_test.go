package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractHashtags(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{"simple", "hello #world", []string{"world"}},
		{"multiple", "#go and #backend stuff", []string{"go", "backend"}},
		{"lowercased", "big #News today", []string{"news"}},
		{"trailing punctuation", "love #golang!", []string{"golang"}},
		{"deduplicated", "#go #go #go", []string{"go"}},
		{"bare hash ignored", "just a # sign", nil},
		{"non-alphanumeric ignored", "#-nope #yes_ok", []string{"yes_ok"}},
		{"none", "no tags here", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractHashtags(tt.content))
		})
	}
}

func TestExtractMentions(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{"simple", "hey @alice", []string{"alice"}},
		{"multiple", "@alice meet @bob", []string{"alice", "bob"}},
		{"punctuation stripped", "thanks @alice!", []string{"alice"}},
		{"lowercased", "cc @Alice", []string{"alice"}},
		{"deduplicated", "@bob @bob", []string{"bob"}},
		{"too short", "hi @ab", nil},
		{"bare at ignored", "look @ this", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractMentions(tt.content))
		})
	}
}

func TestIsValidImageFile(t *testing.T) {
	assert.True(t, isValidImageFile("photo.jpg"))
	assert.True(t, isValidImageFile("photo.JPEG"))
	assert.True(t, isValidImageFile("anim.gif"))
	assert.True(t, isValidImageFile("pic.webp"))
	assert.False(t, isValidImageFile("track.mp3"))
	assert.False(t, isValidImageFile("noextension"))
	assert.False(t, isValidImageFile("script.exe"))
}

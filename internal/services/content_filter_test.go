package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentFilter_CheckComment(t *testing.T) {
	f := NewContentFilter()

	tests := []struct {
		name   string
		text   string
		ok     bool
		reason string
	}{
		{"clean", "Loved the lighting in the second scene.", true, ""},
		{"empty", "", true, ""},
		{"banned word", "This is bullshit", false, ReasonInappropriate},
		{"banned word any case", "total BITCH move", false, ReasonInappropriate},
		{"nudity stays out of comments", "more nude scenes please", false, ReasonInappropriate},
		{"abuse word", "what a scammer", false, ReasonInappropriate},
		{"substring is fine", "The class assignment was great", true, ""},
		{"url", "see www.example.com/x for more", false, ReasonURL},
		{"email", "mail me at me@example.com", false, ReasonContactInfo},
		{"phone", "call +90 555 111 22 33", false, ReasonContactInfo},
		{"repeated letters", "sooooooo good", false, ReasonSpam},
		{"repeated punctuation", "wow!!!!", false, ReasonSpam},
		{"shouting", "THIS VIDEO WAS AMAZING TOTALLY", false, ReasonCaps},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := f.CheckComment(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestContentFilter_CheckContact(t *testing.T) {
	f := NewContentFilter()

	ok, _ := f.CheckContact("Hi, I'd like to book Ana. My portfolio: https://a.io and https://b.io. Call +90 555 111 22 33.")
	assert.True(t, ok)

	ok, reason := f.CheckContact("https://a.io https://b.io https://c.io")
	assert.False(t, ok)
	assert.Equal(t, ReasonTooManyLinks, reason)

	ok, reason = f.CheckContact("cheap viagra here")
	assert.False(t, ok)
	assert.Equal(t, ReasonInappropriate, reason)

	ok, _ = f.CheckContact("I don't do nude shoots, but the swimwear campaign sounds great.")
	assert.True(t, ok)

	ok, reason = f.CheckContact("you absolute retard")
	assert.False(t, ok)
	assert.Equal(t, ReasonInappropriate, reason)

	ok, reason = f.CheckContact(strings.Repeat("?", 6))
	assert.False(t, ok)
	assert.Equal(t, ReasonSpam, reason)
}

func TestRejected_WrapsSentinel(t *testing.T) {
	err := rejected(ReasonURL)
	assert.ErrorIs(t, err, ErrContentRejected)
	assert.Contains(t, err.Error(), "URLs and web links are not allowed.")
	assert.Equal(t, "Your message does not meet our content guidelines.", RejectionMessage("other"))
}

// Package emotion_test tests the emotion label normalization.
package emotion_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maum-on/boost-service/internal/emotion"
)

func TestNormalizeForTransport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		label string
		want  string
	}{
		{name: "mapped joy label", label: "행복", want: "happy"},
		{name: "adjacent joy label collapses to same token", label: "기쁨", want: "happy"},
		{name: "mapped anger label", label: "분노", want: "angry"},
		{name: "adjacent anger label collapses to same token", label: "짜증", want: "angry"},
		{name: "absent input", label: "", want: ""},
		{name: "whitespace only", label: "   ", want: ""},
		{name: "unmapped non-ascii label is dropped", label: "화가남", want: ""},
		{name: "ascii label passes through", label: "happy", want: "happy"},
		{name: "unmapped ascii label passes through", label: "melancholy", want: "melancholy"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, emotion.NormalizeForTransport(tc.label))
		})
	}
}

// Package emotion maps free-text emotion labels onto transport-safe tokens.
//
// The journal backend reports emotions as localized Korean labels. HTTP
// headers cannot safely carry non-ASCII values, so before an emotion is
// propagated as response metadata it is collapsed through a fixed lookup
// table into a small closed set of ASCII tokens.
package emotion

import (
	"strings"
	"unicode"
)

// transportTokens collapses localized emotion labels into transport tokens.
// Several adjacent labels intentionally map to the same token.
var transportTokens = map[string]string{
	"행복":  "happy",
	"기쁨":  "happy",
	"즐거움": "happy",
	"설렘":  "happy",
	"분노":  "angry",
	"화남":  "angry",
	"짜증":  "angry",
	"슬픔":  "sad",
	"우울":  "sad",
	"불안":  "anxious",
	"긴장":  "anxious",
	"걱정":  "anxious",
	"평온":  "calm",
	"차분":  "calm",
	"피곤":  "tired",
	"지침":  "tired",
}

// NormalizeForTransport maps an emotion label to a header-safe token.
//
// Empty input yields empty output. Labels found in the lookup table are
// replaced by their token; unmapped labels pass through unchanged. If the
// result still contains any non-ASCII character it is dropped entirely,
// because the metadata channel cannot carry it.
func NormalizeForTransport(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return ""
	}

	if token, ok := transportTokens[label]; ok {
		label = token
	}

	for _, r := range label {
		if r > unicode.MaxASCII {
			return ""
		}
	}

	return label
}

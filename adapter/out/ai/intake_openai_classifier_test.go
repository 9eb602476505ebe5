package ai

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"intake_server/core/port/out"
)

func TestMapLabel(t *testing.T) {
	tests := []struct {
		answer string
		want   out.AILabel
	}{
		{"new-customer-inquiry", out.LabelNewInquiry},
		{"  New-Customer-Inquiry \n", out.LabelNewInquiry},
		{"marketing/spam", out.LabelMarketing},
		{"spam", out.LabelMarketing},
		{"internal", out.LabelInternal},
		{"unknown", out.LabelUnknown},
		{"I think this is a customer inquiry", out.LabelUnknown},
		{"", out.LabelUnknown},
	}
	for _, tt := range tests {
		if got := mapLabel(tt.answer); got != tt.want {
			t.Errorf("mapLabel(%q) = %q, want %q", tt.answer, got, tt.want)
		}
	}
}

func TestTruncateBodyKeepsRunesIntact(t *testing.T) {
	tests := []struct {
		name string
		body string
		max  int
	}{
		{"ascii under limit", "hello", 10},
		{"ascii at limit", "hello", 5},
		{"ascii over limit", "hello world", 5},
		{"multibyte at boundary", "café latte", 5},
		{"cut lands inside rune", strings.Repeat("a", 4) + "é", 5},
		{"emoji sequence", "roof \U0001F3E0 damage", 8},
		{"all multibyte", strings.Repeat("日", 10), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateBody(tt.body, tt.max)
			if len(got) > tt.max {
				t.Errorf("len = %d, want <= %d", len(got), tt.max)
			}
			if !utf8.ValidString(got) {
				t.Errorf("result is not valid UTF-8: %q", got)
			}
			if !strings.HasPrefix(tt.body, got) {
				t.Errorf("result %q is not a prefix of input", got)
			}
		})
	}
}

func TestClassifyWithoutCredentialReturnsUnknown(t *testing.T) {
	c := NewOpenAIClassifier(ClassifierConfig{})
	label, err := c.Classify(context.Background(), &out.ClassifyInput{Subject: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != out.LabelUnknown {
		t.Errorf("label = %q, want %q", label, out.LabelUnknown)
	}
}

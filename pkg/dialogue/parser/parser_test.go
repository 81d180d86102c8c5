package parser

import (
	"testing"
)

func TestSplitTitle(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantTitle   string
		wantContent string
		wantFound   bool
	}{
		{
			name:        "title with blank separator",
			raw:         "TITLE: Foo Bar\n\nWhat's your first thought?",
			wantTitle:   "Foo Bar",
			wantContent: "What's your first thought?",
			wantFound:   true,
		},
		{
			name:        "title with dash separator",
			raw:         "TITLE: Nested Loop Complexity\n---\nWhy do you think the inner loop runs n times?",
			wantTitle:   "Nested Loop Complexity",
			wantContent: "Why do you think the inner loop runs n times?",
			wantFound:   true,
		},
		{
			name:        "title directly followed by content",
			raw:         "TITLE: Quick One\nFirst question here.",
			wantTitle:   "Quick One",
			wantContent: "First question here.",
			wantFound:   true,
		},
		{
			name:        "no title line",
			raw:         "Why do you think that happens?",
			wantTitle:   "",
			wantContent: "Why do you think that happens?",
			wantFound:   false,
		},
		{
			name:        "lowercase prefix is not a title",
			raw:         "title: nope\nBody.",
			wantTitle:   "",
			wantContent: "title: nope\nBody.",
			wantFound:   false,
		},
		{
			name:        "title mid-text is ignored",
			raw:         "Consider this.\nTITLE: Not A Title",
			wantTitle:   "",
			wantContent: "Consider this.\nTITLE: Not A Title",
			wantFound:   false,
		},
		{
			name:        "title only",
			raw:         "TITLE: Lonely",
			wantTitle:   "Lonely",
			wantContent: "",
			wantFound:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitTitle(tt.raw)

			if got.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", got.Title, tt.wantTitle)
			}
			if got.Content != tt.wantContent {
				t.Errorf("Content = %q, want %q", got.Content, tt.wantContent)
			}
			if got.Found != tt.wantFound {
				t.Errorf("Found = %v, want %v", got.Found, tt.wantFound)
			}
		})
	}
}

func TestStripAnswerFound(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantContent string
		wantTagged  bool
	}{
		{
			name:        "tag prefix",
			raw:         "[ANSWER_FOUND] Great insight, you got there yourself.",
			wantContent: "Great insight, you got there yourself.",
			wantTagged:  true,
		},
		{
			name:        "no tag",
			raw:         "Keep going, what about the base case?",
			wantContent: "Keep going, what about the base case?",
			wantTagged:  false,
		},
		{
			name:        "tag mid-text does not count",
			raw:         "As noted, [ANSWER_FOUND] is just text here.",
			wantContent: "As noted, [ANSWER_FOUND] is just text here.",
			wantTagged:  false,
		},
		{
			name:        "lowercase tag does not count",
			raw:         "[answer_found] nope",
			wantContent: "[answer_found] nope",
			wantTagged:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, tagged := StripAnswerFound(tt.raw)

			if content != tt.wantContent {
				t.Errorf("content = %q, want %q", content, tt.wantContent)
			}
			if tagged != tt.wantTagged {
				t.Errorf("tagged = %v, want %v", tagged, tt.wantTagged)
			}
		})
	}
}

func TestNeedsVerification(t *testing.T) {
	if !NeedsVerification("Here is what I see.\n[VERIFICATION_NEEDED]\nIs this the right problem?") {
		t.Error("expected verification tag to be detected mid-content")
	}
	if NeedsVerification("No tags at all here.") {
		t.Error("did not expect verification tag")
	}
	if NeedsVerification("[verification_needed] lowercase") {
		t.Error("tag matching must be case-sensitive")
	}
}

package tts

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "collapses whitespace", in: "  Hello   world.  ", want: "Hello world."},
		{name: "newlines fold to spaces", in: "line one\n\nline two", want: "line one line two"},
		{name: "space after terminator", in: "Hello.World", want: "Hello. World"},
		{name: "terminator run stays together", in: "Wait?!Yes", want: "Wait?! Yes"},
		{name: "japanese terminator", in: "こんにちは。Hello.", want: "こんにちは。 Hello."},
		{name: "decimal survives", in: "Pi is 3.14 today", want: "Pi is 3.14 today"},
		{name: "ideographic space", in: "a　　b", want: "a b"},
		{name: "whitespace only", in: " \t\n ", want: ""},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Hello.World!How are you?Fine",
		"  こんにちは。元気？  はい！ ",
		"Version 1.2.3 released.Next",
		"1.a",
		"x.5 and 5.x",
		"...!?",
		"mixed 日本語 and English.改行\nあり",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "simple sentences",
			in:   "This is one. This is two! Three?",
			want: []string{"This is one.", "This is two!", "Three?"},
		},
		{
			name: "terminator run is one boundary",
			in:   "Really?! Yes.",
			want: []string{"Really?!", "Yes."},
		},
		{
			name: "japanese",
			in:   "こんにちは。元気ですか？",
			want: []string{"こんにちは。", "元気ですか？"},
		},
		{
			name: "newline is a boundary",
			in:   "line one\nline two",
			want: []string{"line one", "line two"},
		},
		{
			name: "no terminator",
			in:   "no terminator",
			want: []string{"no terminator"},
		},
		{
			name: "decimal number",
			in:   "Pi is 3.14. Done",
			want: []string{"Pi is 3.14.", "Done"},
		},
		{
			name: "only terminators",
			in:   "...",
			want: []string{"..."},
		},
		{
			name: "whitespace falls back to input",
			in:   "   ",
			want: []string{"   "},
		},
		{
			name: "empty",
			in:   "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitSentences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitSentences_Coverage(t *testing.T) {
	inputs := []string{
		"Hello world. How are you? Fine!",
		"こんにちは。Hello. 元気？",
		"a\nb\n\nc",
		"Version 2.5 is out. Update now!!",
	}

	strip := func(s string) string {
		return strings.Join(strings.Fields(s), "")
	}

	for _, in := range inputs {
		sentences := SplitSentences(Normalize(in))
		for _, s := range sentences {
			if strings.TrimSpace(s) == "" {
				t.Errorf("SplitSentences(%q) produced an empty sentence", in)
			}
		}
		if got, want := strip(strings.Join(sentences, "")), strip(in); got != want {
			t.Errorf("sentences of %q lose characters: %q vs %q", in, got, want)
		}
	}
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		want     []string
	}{
		{
			name:     "headers end a sentence",
			markdown: "# Title\n\nThis is a paragraph. It has two sentences.",
			want:     []string{"Title.", "This is a paragraph.", "It has two sentences."},
		},
		{
			name:     "code blocks are skipped",
			markdown: "Here is some text.\n\n```go\nx := 1\n```\n\nMore text here.",
			want:     []string{"Here is some text.", "More text here."},
		},
		{
			name:     "links keep their text",
			markdown: "Visit [Google](https://google.com) for more info.",
			want:     []string{"Visit Google for more info."},
		},
		{
			name:     "emphasis is dropped",
			markdown: "This is **bold** and *italic* text.",
			want:     []string{"This is bold and italic text."},
		},
		{
			name:     "list items",
			markdown: "- First item\n- Second item",
			want:     []string{"First item.", "Second item."},
		},
		{
			name:     "japanese heading gets a japanese terminator",
			markdown: "# 見出し\n\n本文です",
			want:     []string{"見出し。", "本文です。"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(Normalize(StripMarkdown(tt.markdown)))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

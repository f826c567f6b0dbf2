package tts

import (
	"reflect"
	"testing"

	"github.com/dgnsrekt/speakblock/internal/ttypes"
)

func TestBuildUnits(t *testing.T) {
	ja, en := ttypes.LanguageJapanese, ttypes.LanguageEnglishUS

	tests := []struct {
		name string
		text string
		mode ttypes.LanguageTag
		rate float64
		want []ttypes.SpeechUnit
	}{
		{
			name: "single english sentence",
			text: "Hello world.",
			mode: en,
			rate: 1,
			want: []ttypes.SpeechUnit{{Text: "Hello world.", Language: en, Rate: 1}},
		},
		{
			name: "auto splits by sentence then language",
			text: "こんにちは。Hello.",
			mode: ttypes.LanguageAuto,
			rate: 1,
			want: []ttypes.SpeechUnit{
				{Text: "こんにちは。", Language: ja, Rate: 1},
				{Text: "Hello.", Language: en, Rate: 1},
			},
		},
		{
			name: "concrete mode keeps the mode for every sentence",
			text: "こんにちは。Hello.",
			mode: ja,
			rate: 1.5,
			want: []ttypes.SpeechUnit{
				{Text: "こんにちは。", Language: ja, Rate: 1.5},
				{Text: "Hello.", Language: ja, Rate: 1.5},
			},
		},
		{
			name: "auto with embedded words",
			text: "今日はGoの日です。Nice!",
			mode: ttypes.LanguageAuto,
			rate: 1,
			want: []ttypes.SpeechUnit{
				{Text: "今日は", Language: ja, Rate: 1},
				{Text: "Go", Language: en, Rate: 1},
				{Text: "の日です。", Language: ja, Rate: 1},
				{Text: "Nice!", Language: en, Rate: 1},
			},
		},
		{
			name: "rate is not clamped here",
			text: "Fast.",
			mode: en,
			rate: 5,
			want: []ttypes.SpeechUnit{{Text: "Fast.", Language: en, Rate: 5}},
		},
		{
			name: "whitespace only",
			text: "  \n\t ",
			mode: ttypes.LanguageAuto,
			rate: 1,
			want: nil,
		},
		{
			name: "empty",
			text: "",
			mode: en,
			rate: 1,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildUnits(tt.text, tt.mode, tt.rate)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildUnits(%q, %s) = %+v, want %+v", tt.text, tt.mode, got, tt.want)
			}
		})
	}
}

func TestBuildQueue(t *testing.T) {
	q := BuildQueue("One. Two. Three.", ttypes.LanguageEnglishUS, 1)
	if q.Size() != 3 {
		t.Fatalf("queue size = %d, want 3", q.Size())
	}

	for _, want := range []string{"One.", "Two.", "Three."} {
		u, err := q.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue failed: %v", err)
		}
		if u.Text != want {
			t.Errorf("unit = %q, want %q", u.Text, want)
		}
	}

	if !BuildQueue("   ", ttypes.LanguageAuto, 1).IsEmpty() {
		t.Error("whitespace input should build an empty queue")
	}
}

package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/speakblock/internal/blocks"
	"github.com/dgnsrekt/speakblock/internal/tts"
	"github.com/dgnsrekt/speakblock/internal/ttypes"
)

func TestResolveBlock(t *testing.T) {
	ctx := context.Background()
	store, err := blocks.OpenFile(filepath.Join(t.TempDir(), "blocks.yml"))
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer store.Close() //nolint:errcheck

	a, err := store.Add(ctx, "こんにちは。", blocks.Props{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Add(ctx, "Hello.", blocks.Props{}); err != nil {
		t.Fatal(err)
	}

	if b, err := resolveBlock(ctx, store, a.ID); err != nil || b.ID != a.ID {
		t.Errorf("full id: got %q, %v", b.ID, err)
	}
	if b, err := resolveBlock(ctx, store, a.ID[:8]); err != nil || b.ID != a.ID {
		t.Errorf("prefix: got %q, %v", b.ID, err)
	}
	if _, err := resolveBlock(ctx, store, "zzzz"); !errors.Is(err, blocks.ErrBlockNotFound) {
		t.Errorf("missing: expected ErrBlockNotFound, got %v", err)
	}
	if _, err := resolveBlock(ctx, store, ""); err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("empty ref: expected ambiguous error, got %v", err)
	}
}

func TestPrintBlocks(t *testing.T) {
	var buf bytes.Buffer
	if err := printBlocks(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No blocks yet") {
		t.Errorf("expected empty hint, got %q", buf.String())
	}

	buf.Reset()
	list := []blocks.Block{{ID: "0123456789abcdef", Content: "Hello.", Props: blocks.Props{Lang: "en-US", Rate: 1.5}}}
	if err := printBlocks(&buf, list); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"01234567", "Hello.", "en-US", "1.5x"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q is missing %q", out, want)
		}
	}
	if strings.Contains(out, "89abcdef") {
		t.Errorf("expected a short id, got %q", out)
	}
}

func TestFilterVoices(t *testing.T) {
	roster := []ttypes.Voice{
		{Name: "Samantha", Language: "en-US"},
		{Name: "Kyoko", Language: "ja-JP"},
		{Name: "Otoya", Language: "ja-JP"},
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"kyo", []string{"Kyoko"}},
		{"ja-JP", []string{"Kyoko", "Otoya"}},
		{"xyz", nil},
	}
	for _, tt := range tests {
		got := filterVoices(roster, tt.query)
		var names []string
		for _, v := range got {
			names = append(names, v.Name)
		}
		if len(names) != len(tt.want) {
			t.Errorf("%q: got %v, want %v", tt.query, names, tt.want)
			continue
		}
		for _, w := range tt.want {
			found := false
			for _, n := range names {
				found = found || n == w
			}
			if !found {
				t.Errorf("%q: got %v, want %v", tt.query, names, tt.want)
			}
		}
	}
}

func TestPrintVoices(t *testing.T) {
	roster := []ttypes.Voice{
		{Name: "Samantha", Language: "en-US", IsLocal: true},
		{Name: "Kyoko", Language: "ja-JP", IsLocal: true},
	}

	var buf bytes.Buffer
	if err := printVoices(&buf, roster, roster, ttypes.LanguageJapanese, tts.NewVoiceSelector()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Kyoko") || !strings.Contains(buf.String(), "selected for ja-JP") {
		t.Errorf("unexpected output %q", buf.String())
	}

	buf.Reset()
	if err := printVoices(&buf, roster, roster, ttypes.LanguageAuto, tts.NewVoiceSelector()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "picked per language run") {
		t.Errorf("unexpected auto output %q", buf.String())
	}
}

func TestPropsFromFlags_Rate(t *testing.T) {
	tests := []struct {
		rate string
		want float64
	}{
		{"1.3", 1.3},
		{"3", tts.MaxRate},
		{"0.1", tts.MinRate},
		{"0", tts.DefaultRate},
		{"abc", tts.DefaultRate},
		{"1.2x", 1.2},
	}

	for _, tt := range tests {
		t.Run(tt.rate, func(t *testing.T) {
			cmd := &cobra.Command{}
			cmd.Flags().StringVarP(&blockLang, "lang", "l", "", "")
			cmd.Flags().StringVarP(&blockRate, "rate", "r", "", "")
			if err := cmd.Flags().Set("rate", tt.rate); err != nil {
				t.Fatal(err)
			}

			props, err := propsFromFlags(cmd, blocks.Props{Lang: "en-US"})
			if err != nil {
				t.Fatalf("propsFromFlags failed: %v", err)
			}
			if props.Rate != tt.want {
				t.Errorf("rate = %v, want %v", props.Rate, tt.want)
			}
			if props.Lang != "en-US" {
				t.Errorf("lang = %q, untouched flag should keep en-US", props.Lang)
			}
		})
	}
}

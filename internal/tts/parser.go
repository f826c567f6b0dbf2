package tts

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgnsrekt/speakblock/internal/ttypes"
)

func isBoundaryAt(runes []rune, i int) bool {
	return runes[i] == '\n' || isTerminatorAt(runes, i)
}

// SplitSentences splits text into sentences on runs of terminators and
// newlines. The terminators stay attached to the sentence before them and a
// run of them is one boundary. Sentences that are empty after trimming are
// dropped; if nothing is left, non-empty input comes back whole.
func SplitSentences(text string) []string {
	runes := []rune(text)

	var (
		sentences []string
		buf       strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			sentences = append(sentences, s)
		}
		buf.Reset()
	}

	for i := 0; i < len(runes); i++ {
		if !isBoundaryAt(runes, i) {
			buf.WriteRune(runes[i])
			continue
		}
		for i < len(runes) && isBoundaryAt(runes, i) {
			buf.WriteRune(runes[i])
			i++
		}
		i--
		flush()
	}
	flush()

	if len(sentences) == 0 && text != "" {
		return []string{text}
	}
	return sentences
}

// StripMarkdown extracts speakable text from markdown using goldmark.
// Code blocks and raw HTML are skipped, and every heading, paragraph and
// list entry ends in a terminator so it becomes its own sentence.
func StripMarkdown(markdown string) string {
	reader := text.NewReader([]byte(markdown))
	doc := goldmark.New().Parser().Parse(reader)

	var buf strings.Builder
	walkNode(doc, reader.Source(), &buf)
	return strings.TrimSpace(buf.String())
}

func walkNode(node ast.Node, source []byte, buf *strings.Builder) {
	switch n := node.(type) {
	case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock, *ast.RawHTML:
		return

	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		if n.SoftLineBreak() || n.HardLineBreak() {
			buf.WriteByte(' ')
		}
		return

	case *ast.String:
		buf.Write(n.Value)
		return

	case *ast.AutoLink:
		buf.Write(n.Label(source))
		return
	}

	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		walkNode(c, source, buf)
	}

	switch node.Kind() {
	case ast.KindHeading, ast.KindParagraph, ast.KindTextBlock:
		closeSentence(buf)
	}
}

// closeSentence terminates the text written so far, picking a terminator
// that matches the language of the text.
func closeSentence(buf *strings.Builder) {
	s := strings.TrimRight(buf.String(), " ")
	if s == "" {
		return
	}
	last, _ := utf8.DecodeLastRuneInString(s)
	if !sentenceTerminators[last] && last != ':' && last != '：' {
		if Classify(lastLine(s)) == ttypes.LanguageJapanese {
			buf.WriteString("。")
		} else {
			buf.WriteString(".")
		}
	}
	buf.WriteByte('\n')
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

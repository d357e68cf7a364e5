// Package source loads code buffers from files, standard input, Markdown
// documents and share links.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/arran4/codeshot/share"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

var ErrNoCodeBlock = errors.New("no fenced code block")

// Buffer is a loaded code buffer. Language is empty when unknown.
type Buffer struct {
	Text     string
	Language string
	Origin   string
}

// Block is one fenced code block of a Markdown document.
type Block struct {
	Language string
	Text     string
}

// Read loads a buffer from r. CRLF line endings are normalized.
func Read(r io.Reader, name string) (Buffer, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Buffer{}, fmt.Errorf("read %s: %w", name, err)
	}
	return Buffer{
		Text:     normalize(string(b)),
		Language: LanguageForFile(name),
		Origin:   name,
	}, nil
}

// Open loads path, or stdin when path is "-".
func Open(path string, stdin io.Reader) (Buffer, error) {
	if path == Stdin || path == "" {
		return Read(stdin, Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return Buffer{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, path)
}

// LanguageForFile guesses a language from a file name.
func LanguageForFile(name string) string {
	if name == "" || name == Stdin {
		return ""
	}
	lx := lexers.Match(filepath.Base(name))
	if lx == nil {
		return ""
	}
	return strings.ToLower(lx.Config().Name)
}

// IsMarkdown reports whether name looks like a Markdown document.
func IsMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".mdown", ".mkd":
		return true
	}
	return false
}

// CodeBlocks returns the fenced and indented code blocks of a Markdown
// document in document order.
func CodeBlocks(md []byte) []Block {
	mdParser := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := mdParser.Parser().Parse(text.NewReader(md))

	var blocks []Block
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch nd := n.(type) {
		case *ast.FencedCodeBlock:
			blocks = append(blocks, Block{
				Language: strings.ToLower(string(nd.Language(md))),
				Text:     blockText(nd, md),
			})
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			blocks = append(blocks, Block{Text: blockText(nd, md)})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return blocks
}

func blockText(n ast.Node, src []byte) string {
	var b bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return strings.TrimRight(normalize(b.String()), "\n")
}

// FromMarkdown picks block index (0-based) of a Markdown buffer.
func FromMarkdown(md Buffer, index int) (Buffer, error) {
	blocks := CodeBlocks([]byte(md.Text))
	if index < 0 || index >= len(blocks) {
		return Buffer{}, fmt.Errorf("%w: block %d of %d in %s", ErrNoCodeBlock, index, len(blocks), md.Origin)
	}
	blk := blocks[index]
	return Buffer{Text: blk.Text, Language: blk.Language, Origin: md.Origin}, nil
}

// FromShare decodes a share token or a link carrying one.
func FromShare(tokenOrURL string) (Buffer, error) {
	s := strings.TrimSpace(tokenOrURL)
	if strings.Contains(s, "://") || strings.Contains(s, "?") {
		const missing = "\x00"
		t := share.FromURL(s, missing)
		if t == missing {
			return Buffer{}, fmt.Errorf("%w: no %q parameter in %s", share.ErrMalformed, share.Param, s)
		}
		return Buffer{Text: t, Origin: "share"}, nil
	}
	t, err := share.Decode(s)
	if err != nil {
		return Buffer{}, err
	}
	return Buffer{Text: t, Origin: "share"}, nil
}

// FromShareOr is FromShare that falls back to a buffer holding fallback
// when tokenOrURL cannot be decoded.
func FromShareOr(tokenOrURL, fallback string) Buffer {
	b, err := FromShare(tokenOrURL)
	if err != nil {
		return Buffer{Text: fallback, Origin: "share"}
	}
	return b
}

func normalize(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

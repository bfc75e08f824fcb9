package docindex

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

// ErrUnsupportedFormat is returned for files the loader cannot read.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// ErrEmptyDocument is returned when a document has no readable text.
var ErrEmptyDocument = errors.New("document contains no text")

// ErrUnreadableDocument wraps parser failures for a supported format.
var ErrUnreadableDocument = errors.New("document could not be parsed")

const metaSource = "source"

// SupportedExtensions lists the file extensions Load understands.
var SupportedExtensions = []string{".pdf", ".txt", ".md", ".markdown", ".html", ".htm"}

// Load reads name's content from r into a single document.
func Load(name string, r io.Reader) (*schema.Document, error) {
	ext := strings.ToLower(filepath.Ext(name))

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	var text string
	switch ext {
	case ".txt", ".md", ".markdown":
		text = string(raw)
	case ".html", ".htm":
		text, err = htmlText(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w: %w", name, ErrUnreadableDocument, err)
		}
	case ".pdf":
		text, err = pdfText(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w: %w", name, ErrUnreadableDocument, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	return &schema.Document{
		ID:       filepath.Base(name),
		Content:  text,
		MetaData: map[string]any{metaSource: filepath.Base(name)},
	}, nil
}

// LoadFile is Load for a path on disk.
func LoadFile(path string) (*schema.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(path, f)
}

// htmlText extracts visible text, one block element per paragraph.
// pdfText extracts the plain text of every page, one paragraph per page.
func pdfText(raw []byte) (text string, err error) {
	// ledongthuc/pdf panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", err
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if content = strings.TrimSpace(content); content != "" {
			pages = append(pages, content)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

func htmlText(raw []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return "", err
	}

	var (
		paragraphs []string
		current    strings.Builder
	)
	flush := func() {
		if p := strings.Join(strings.Fields(current.String()), " "); p != "" {
			paragraphs = append(paragraphs, p)
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head", "template":
				return
			}
		}
		if n.Type == html.TextNode {
			current.WriteString(n.Data)
			current.WriteString(" ")
		}

		block := n.Type == html.ElementNode && isBlock(n.Data)
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
	}
	walk(root)
	flush()

	return strings.Join(paragraphs, "\n\n"), nil
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "section", "article", "li", "ul", "ol", "table", "tr",
		"h1", "h2", "h3", "h4", "h5", "h6", "pre", "blockquote", "br", "header", "footer":
		return true
	}
	return false
}

// Package document extracts plain text from uploaded PDF documents.
package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/cloudwego/eino-ext/components/document/loader/file"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
)

// Extractor loads a document from disk and returns its text.
type Extractor struct {
	loader document.Loader
}

func NewExtractor(ctx context.Context) (*Extractor, error) {
	pdfP := newPDFParser()
	extParser, err := parser.NewExtParser(ctx, &parser.ExtParserConfig{
		Parsers:        map[string]parser.Parser{".pdf": pdfP},
		FallbackParser: pdfP,
	})
	if err != nil {
		return nil, fmt.Errorf("init document parser: %w", err)
	}
	loader, err := file.NewFileLoader(ctx, &file.FileLoaderConfig{
		UseNameAsID: false,
		Parser:      extParser,
	})
	if err != nil {
		return nil, fmt.Errorf("init document loader: %w", err)
	}
	return &Extractor{loader: loader}, nil
}

// ExtractText returns every page's text joined with newlines, in page order.
// A document without pages yields an empty string.
func (e *Extractor) ExtractText(ctx context.Context, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("file path is required")
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("open document: %w", err)
	}
	docs, err := e.loader.Load(ctx, document.Source{URI: path})
	if err != nil {
		return "", fmt.Errorf("load document: %w", err)
	}
	return joinPages(docs), nil
}

func joinPages(docs []*schema.Document) string {
	ordered := make([]*schema.Document, 0, len(docs))
	for _, d := range docs {
		if d != nil {
			ordered = append(ordered, d)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return pageNumber(ordered[i]) < pageNumber(ordered[j])
	})
	texts := make([]string, len(ordered))
	for i, d := range ordered {
		texts[i] = d.Content
	}
	return strings.Join(texts, "\n")
}

func pageNumber(d *schema.Document) int {
	if n, ok := d.MetaData[MetaPage].(int); ok {
		return n
	}
	return 0
}

package document

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	MetaPage      = "page"
	MetaPageCount = "page_count"
)

func init() {
	// pdfcpu would otherwise write its config directory into $HOME.
	api.DisableConfigDir()
}

// pageSource is the per-page view the parser needs from a PDF reader.
type pageSource interface {
	NumPage() int
	PageText(n int) (string, error)
}

type ledongthucSource struct {
	r *pdf.Reader
}

func (s ledongthucSource) NumPage() int {
	return s.r.NumPage()
}

func (s ledongthucSource) PageText(n int) (string, error) {
	page := s.r.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// pdfParser turns a PDF into one schema.Document per page, in page order.
type pdfParser struct {
	conf *model.Configuration
}

func newPDFParser() *pdfParser {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &pdfParser{conf: conf}
}

func (p *pdfParser) Parse(ctx context.Context, reader io.Reader, opts ...parser.Option) ([]*schema.Document, error) {
	options := parser.GetCommonOptions(&parser.Options{}, opts...)

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	// pdfcpu only validates the structure; text comes from the pdf reader below.
	if _, err := api.PageCount(bytes.NewReader(data), p.conf); err != nil {
		return nil, fmt.Errorf("invalid pdf %s: %w", options.URI, err)
	}
	rdr, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", options.URI, err)
	}
	pages, err := readPages(ctx, ledongthucSource{r: rdr})
	if err != nil {
		return nil, fmt.Errorf("extract pdf %s: %w", options.URI, err)
	}

	docs := make([]*schema.Document, 0, len(pages))
	for i, text := range pages {
		meta := make(map[string]any, len(options.ExtraMeta)+2)
		for k, v := range options.ExtraMeta {
			meta[k] = v
		}
		meta[MetaPage] = i + 1
		meta[MetaPageCount] = len(pages)
		docs = append(docs, &schema.Document{
			ID:       fmt.Sprintf("%s#%d", options.URI, i+1),
			Content:  text,
			MetaData: meta,
		})
	}
	return docs, nil
}

func readPages(ctx context.Context, src pageSource) ([]string, error) {
	n := src.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := src.PageText(i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// Package notes publishes summaries to the Notion notes service.
package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jomei/notionapi"

	"docnotes/internal/config"
)

// maxRichTextRunes is Notion's per rich-text segment content limit.
const maxRichTextRunes = 2000

// PageCreator is the subset of notionapi.PageService the uploader needs.
type PageCreator interface {
	Create(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

// Uploader creates summary pages under a fixed parent page.
type Uploader struct {
	pages  PageCreator
	parent notionapi.PageID
}

// NewUploader builds an Uploader backed by the Notion API.
func NewUploader(cfg config.NotesConfig) (*Uploader, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("notion token required")
	}
	client := notionapi.NewClient(notionapi.Token(cfg.Token))
	return NewUploaderWithPages(client.Page, cfg.ParentPageID)
}

func NewUploaderWithPages(pages PageCreator, parentPageID string) (*Uploader, error) {
	if pages == nil {
		return nil, errors.New("page service required")
	}
	if strings.TrimSpace(parentPageID) == "" {
		return nil, errors.New("parent page id required")
	}
	return &Uploader{pages: pages, parent: notionapi.PageID(parentPageID)}, nil
}

// UploadSummary creates one page titled title holding a single paragraph
// block with summary verbatim. No retry is attempted.
func (u *Uploader) UploadSummary(ctx context.Context, title, summary string) (string, error) {
	page, err := u.pages.Create(ctx, buildPageRequest(u.parent, title, summary))
	if err != nil {
		return "", fmt.Errorf("create notion page: %w", err)
	}
	if page == nil || page.ID == "" {
		return fmt.Sprintf("Uploaded %q to Notion.", title), nil
	}
	return fmt.Sprintf("Uploaded %q to Notion (page %s).", title, page.ID), nil
}

func buildPageRequest(parent notionapi.PageID, title, summary string) *notionapi.PageCreateRequest {
	return &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:   notionapi.ParentTypePageID,
			PageID: parent,
		},
		Properties: notionapi.Properties{
			"title": notionapi.TitleProperty{
				Title: []notionapi.RichText{
					{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: title}},
				},
			},
		},
		Children: []notionapi.Block{
			notionapi.ParagraphBlock{
				BasicBlock: notionapi.BasicBlock{
					Object: notionapi.ObjectTypeBlock,
					Type:   notionapi.BlockTypeParagraph,
				},
				Paragraph: notionapi.Paragraph{
					RichText: splitRichText(summary),
				},
			},
		},
	}
}

// splitRichText cuts text into segments the API accepts; concatenated they
// equal text exactly.
func splitRichText(text string) []notionapi.RichText {
	runes := []rune(text)
	if len(runes) <= maxRichTextRunes {
		return []notionapi.RichText{
			{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: text}},
		}
	}
	segments := make([]notionapi.RichText, 0, len(runes)/maxRichTextRunes+1)
	for start := 0; start < len(runes); start += maxRichTextRunes {
		end := start + maxRichTextRunes
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, notionapi.RichText{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: string(runes[start:end])},
		})
	}
	return segments
}

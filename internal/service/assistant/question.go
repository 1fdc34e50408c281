package assistant

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"docnotes/internal/models"
	"docnotes/internal/toolserver"
)

// ComposeQuestion points the agent at the uploaded document. When there is
// no document, or its file is gone, the question is returned unchanged.
func ComposeQuestion(question string, doc *models.DocumentRef) string {
	if doc == nil || doc.Path == "" {
		return question
	}
	abs, err := filepath.Abs(doc.Path)
	if err != nil {
		log.Printf("resolve document path %s: %v", doc.Path, err)
		return question
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		log.Printf("document %s not found, sending question without it", abs)
		return question
	}
	return fmt.Sprintf("%s\n\nNote: the PDF file is located at '%s'.\nIf needed, use the %s tool to read its contents.",
		question, abs, toolserver.ToolExtractText)
}

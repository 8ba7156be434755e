package library

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/qcm-trainer/backend/internal/completion"
	"github.com/qcm-trainer/backend/internal/models"
)

const (
	// metadataExcerptLen caps how much of the document the model sees when
	// guessing author, title and chapter. The opening is where that
	// information lives.
	metadataExcerptLen = 3000
	metadataMaxTokens  = 500
)

// MetadataExtractor asks the model to identify author, work title, chapter
// and key notions for an imported document. Failures fall back to defaults
// derived from the filename so an import never blocks on the model.
type MetadataExtractor struct {
	client completion.Client
}

func NewMetadataExtractor(client completion.Client) *MetadataExtractor {
	return &MetadataExtractor{client: client}
}

func buildMetadataPrompt(excerpt, chapterHint string) string {
	var sb strings.Builder
	sb.WriteString("You are cataloguing a text for a study library. ")
	sb.WriteString("Identify the author, the title of the work, the chapter or theme it belongs to, ")
	sb.WriteString("and 3 to 6 key notions it covers.\n")
	if chapterHint != "" {
		fmt.Fprintf(&sb, "If unsure about the chapter, use %q.\n", chapterHint)
	}
	sb.WriteString("Respond ONLY with a JSON object: ")
	sb.WriteString(`{"author": "...", "workTitle": "...", "chapter": "...", "notions": ["..."]}`)
	sb.WriteString("\nUse empty strings for fields you cannot determine.\n\nText:\n")
	sb.WriteString(excerpt)
	return sb.String()
}

// Extract returns the model's best guess at the document's metadata, or
// filename-derived defaults when the model cannot be reached or replies
// with something unusable.
func (e *MetadataExtractor) Extract(ctx context.Context, filename, content, chapterHint string) (models.TextMetadata, models.ImportStatus) {
	excerpt := content
	if len(excerpt) > metadataExcerptLen {
		excerpt = excerpt[:metadataExcerptLen]
	}

	messages := []completion.Message{
		{Role: "user", Content: buildMetadataPrompt(excerpt, chapterHint)},
	}

	reply, err := e.client.Complete(ctx, messages, metadataMaxTokens)
	if err != nil {
		log.Printf("WARN: metadata extraction failed for %s: %v", filename, err)
		return fallbackMetadata(filename, chapterHint), models.ImportError
	}

	meta, err := parseMetadata(reply)
	if err != nil {
		log.Printf("WARN: unusable metadata reply for %s: %v", filename, err)
		return fallbackMetadata(filename, chapterHint), models.ImportError
	}

	if meta.Chapter == "" {
		meta.Chapter = defaultChapter(chapterHint)
	}
	if meta.WorkTitle == "" {
		meta.WorkTitle = titleFromFilename(filename)
	}
	return meta, models.ImportDone
}

func parseMetadata(reply string) (models.TextMetadata, error) {
	var meta models.TextMetadata
	payload, err := completion.ExtractJSON(reply)
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal([]byte(payload), &meta); err != nil {
		return meta, fmt.Errorf("unmarshal metadata: %w", err)
	}
	meta.Author = strings.TrimSpace(meta.Author)
	meta.WorkTitle = strings.TrimSpace(meta.WorkTitle)
	meta.Chapter = strings.TrimSpace(meta.Chapter)
	meta.Notions = cleanNotions(meta.Notions)
	return meta, nil
}

func fallbackMetadata(filename, chapterHint string) models.TextMetadata {
	return models.TextMetadata{
		WorkTitle: titleFromFilename(filename),
		Chapter:   defaultChapter(chapterHint),
		Notions:   []string{},
	}
}

// titleFromFilename turns "la_boetie-servitude.txt" into "la boetie servitude".
func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return strings.TrimSpace(base)
}

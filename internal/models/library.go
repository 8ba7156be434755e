package models

import "time"

// DefaultChapter groups texts whose chapter was never set.
const DefaultChapter = "Uncategorized"

// TextEntry is one curated source text in the shared library.
type TextEntry struct {
	ID        string    `json:"id"`
	Chapter   string    `json:"chapter"`
	Author    string    `json:"author"`
	WorkTitle string    `json:"work_title"`
	Notions   []string  `json:"notions"`
	Content   string    `json:"content"`
	WordCount int       `json:"word_count"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName renders "Author — Title" the way the library list shows it.
func (e *TextEntry) DisplayName() string {
	switch {
	case e.Author != "" && e.WorkTitle != "":
		return e.Author + " — " + e.WorkTitle
	case e.WorkTitle != "":
		return e.WorkTitle
	default:
		return "Untitled"
	}
}

type ChapterCount struct {
	Chapter string `json:"chapter"`
	Count   int    `json:"count"`
}

// TextMetadata is what the completion collaborator extracts from an
// imported document.
type TextMetadata struct {
	Author    string   `json:"author"`
	WorkTitle string   `json:"workTitle"`
	Chapter   string   `json:"chapter"`
	Notions   []string `json:"notions"`
}

type ImportStatus string

const (
	ImportDone  ImportStatus = "done"
	ImportError ImportStatus = "error"
)

// ── Library Request/Response Types ──────────────────────

type CreateTextRequest struct {
	Chapter   string   `json:"chapter"`
	Author    string   `json:"author"`
	WorkTitle string   `json:"work_title"`
	Notions   []string `json:"notions"`
	Content   string   `json:"content"`
}

type UpdateTextRequest struct {
	Chapter   *string   `json:"chapter,omitempty"`
	Author    *string   `json:"author,omitempty"`
	WorkTitle *string   `json:"work_title,omitempty"`
	Notions   *[]string `json:"notions,omitempty"`
	Content   *string   `json:"content,omitempty"`
}

type ImportTextRequest struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	ChapterHint string `json:"chapter_hint,omitempty"`
}

// ImportTextResponse is a pending entry for teacher validation: metadata is
// pre-filled by the completion collaborator when possible, from the filename
// otherwise.
type ImportTextResponse struct {
	Filename  string       `json:"filename"`
	Status    ImportStatus `json:"status"`
	Chapter   string       `json:"chapter"`
	Author    string       `json:"author"`
	WorkTitle string       `json:"work_title"`
	Notions   []string     `json:"notions"`
	Content   string       `json:"content"`
	WordCount int          `json:"word_count"`
}

type TextListResponse struct {
	Texts []TextEntry `json:"texts"`
	Total int         `json:"total"`
}

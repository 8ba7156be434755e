package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qcm-trainer/backend/internal/models"
)

// Store persists the shared text library. It speaks plain database/sql and
// works against both configured backends.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// WordCount counts whitespace-separated words, the figure the library list
// displays next to each text.
func WordCount(content string) int {
	return len(strings.Fields(content))
}

func (s *Store) Create(ctx context.Context, req models.CreateTextRequest) (*models.TextEntry, error) {
	entry := models.TextEntry{
		ID:        uuid.NewString(),
		Chapter:   defaultChapter(req.Chapter),
		Author:    strings.TrimSpace(req.Author),
		WorkTitle: strings.TrimSpace(req.WorkTitle),
		Notions:   cleanNotions(req.Notions),
		Content:   req.Content,
		WordCount: WordCount(req.Content),
		CreatedAt: time.Now().UTC(),
	}

	notions, err := json.Marshal(entry.Notions)
	if err != nil {
		return nil, fmt.Errorf("marshal notions: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO texts (id, chapter, author, work_title, notions, content, word_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.Chapter, entry.Author, entry.WorkTitle, string(notions),
		entry.Content, entry.WordCount, entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create text: %w", err)
	}
	return &entry, nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.TextEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, chapter, author, work_title, notions, content, word_count, created_at
		 FROM texts WHERE id = $1`, id)
	return scanText(row)
}

// GetMany fetches the selected texts in the order they were requested.
// Unknown IDs are silently skipped.
func (s *Store) GetMany(ctx context.Context, ids []string) ([]models.TextEntry, error) {
	entries := make([]models.TextEntry, 0, len(ids))
	for _, id := range ids {
		entry, err := s.Get(ctx, id)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func (s *Store) Update(ctx context.Context, id string, req models.UpdateTextRequest) (*models.TextEntry, error) {
	entry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Chapter != nil {
		entry.Chapter = defaultChapter(*req.Chapter)
	}
	if req.Author != nil {
		entry.Author = strings.TrimSpace(*req.Author)
	}
	if req.WorkTitle != nil {
		entry.WorkTitle = strings.TrimSpace(*req.WorkTitle)
	}
	if req.Notions != nil {
		entry.Notions = cleanNotions(*req.Notions)
	}
	if req.Content != nil {
		entry.Content = *req.Content
		entry.WordCount = WordCount(*req.Content)
	}

	notions, err := json.Marshal(entry.Notions)
	if err != nil {
		return nil, fmt.Errorf("marshal notions: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE texts SET chapter = $1, author = $2, work_title = $3, notions = $4,
		        content = $5, word_count = $6
		 WHERE id = $7`,
		entry.Chapter, entry.Author, entry.WorkTitle, string(notions),
		entry.Content, entry.WordCount, id)
	if err != nil {
		return nil, fmt.Errorf("update text: %w", err)
	}
	return entry, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM texts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete text: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns library entries, optionally filtered by chapter and by a
// case-insensitive search over display name and content.
func (s *Store) List(ctx context.Context, search, chapter string) ([]models.TextEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chapter, author, work_title, notions, content, word_count, created_at
		 FROM texts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list texts: %w", err)
	}
	defer rows.Close()

	term := strings.ToLower(strings.TrimSpace(search))
	var entries []models.TextEntry
	for rows.Next() {
		entry, err := scanText(rows)
		if err != nil {
			return nil, err
		}
		if chapter != "" && entry.Chapter != chapter {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(entry.DisplayName()), term) &&
			!strings.Contains(strings.ToLower(entry.Content), term) {
			continue
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// Chapters lists every chapter with its text count, sorted by name. This
// backs the student's chapter picker.
func (s *Store) Chapters(ctx context.Context) ([]models.ChapterCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chapter, COUNT(*) FROM texts GROUP BY chapter`)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer rows.Close()

	var chapters []models.ChapterCount
	for rows.Next() {
		var c models.ChapterCount
		if err := rows.Scan(&c.Chapter, &c.Count); err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		chapters = append(chapters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(chapters, func(i, j int) bool { return chapters[i].Chapter < chapters[j].Chapter })
	return chapters, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanText(row rowScanner) (*models.TextEntry, error) {
	var entry models.TextEntry
	var notions string
	err := row.Scan(&entry.ID, &entry.Chapter, &entry.Author, &entry.WorkTitle,
		&notions, &entry.Content, &entry.WordCount, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	if notions != "" {
		if err := json.Unmarshal([]byte(notions), &entry.Notions); err != nil {
			return nil, fmt.Errorf("unmarshal notions: %w", err)
		}
	}
	if entry.Notions == nil {
		entry.Notions = []string{}
	}
	return &entry, nil
}

func defaultChapter(chapter string) string {
	chapter = strings.TrimSpace(chapter)
	if chapter == "" {
		return models.DefaultChapter
	}
	return chapter
}

func cleanNotions(notions []string) []string {
	cleaned := make([]string, 0, len(notions))
	for _, n := range notions {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	return cleaned
}

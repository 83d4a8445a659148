package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookshelf/internal/domain"
	"bookshelf/internal/policy"
	"bookshelf/internal/storage"
)

// ExportOptions conveys the export destination.
type ExportOptions struct {
	Bucket    string
	KeyPrefix string
}

// Export describes one catalog snapshot written to object storage.
type Export struct {
	Key       string
	Location  string
	Books     int
	Comments  int
	CreatedAt time.Time
}

// ExportService writes JSON snapshots of the whole catalog to object storage.
type ExportService interface {
	Export(ctx context.Context, p domain.Principal) (*Export, error)
	List(ctx context.Context, p domain.Principal) ([]storage.ObjectInfo, error)
}

type exportService struct {
	books   BookService
	storage storage.Service
	opts    ExportOptions
	now     func() time.Time
}

// NewExportService returns an export service. A nil store or an empty bucket
// yields a service whose calls fail with ErrExportDisabled.
func NewExportService(books BookService, store storage.Service, opts ExportOptions) ExportService {
	opts.KeyPrefix = strings.Trim(opts.KeyPrefix, "/")
	return &exportService{
		books:   books,
		storage: store,
		opts:    opts,
		now:     time.Now,
	}
}

type snapshot struct {
	GeneratedAt string         `json:"generated_at"`
	Books       []snapshotBook `json:"books"`
}

type snapshotBook struct {
	ID            int64             `json:"id"`
	Name          string            `json:"name"`
	Author        string            `json:"author"`
	Description   *string           `json:"description"`
	PublishedDate string            `json:"published_date"`
	AverageRating *float64          `json:"average_rating"`
	Comments      []snapshotComment `json:"comments"`
}

type snapshotComment struct {
	ID      int64  `json:"id"`
	User    string `json:"user"`
	Comment string `json:"comment"`
	Rating  int    `json:"rating"`
}

func (s *exportService) Export(ctx context.Context, p domain.Principal) (*Export, error) {
	if err := policy.RequireAdmin(p); err != nil {
		return nil, err
	}
	if !s.enabled() {
		return nil, ErrExportDisabled
	}

	books, err := s.books.ListBooks(ctx, p)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	snap := snapshot{
		GeneratedAt: now.Format(time.RFC3339),
		Books:       make([]snapshotBook, len(books)),
	}
	comments := 0
	for i, b := range books {
		sb := snapshotBook{
			ID:            b.ID,
			Name:          b.Name,
			Author:        b.Author,
			Description:   b.Description,
			PublishedDate: b.PublishedDate.Format(domain.DateLayout),
			AverageRating: averageRating(b.Comments),
			Comments:      make([]snapshotComment, len(b.Comments)),
		}
		for j, c := range b.Comments {
			sb.Comments[j] = snapshotComment{ID: c.ID, User: c.Username, Comment: c.Body, Rating: c.Rating}
		}
		comments += len(b.Comments)
		snap.Books[i] = sb
	}

	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	name := fmt.Sprintf("catalog-%s-%s.json", now.Format("20060102T150405Z"), uuid.NewString()[:8])
	key := name
	if s.opts.KeyPrefix != "" {
		key = path.Join(s.opts.KeyPrefix, name)
	}

	location, err := s.storage.PutObject(ctx, s.opts.Bucket, key, bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}

	return &Export{
		Key:       key,
		Location:  location,
		Books:     len(books),
		Comments:  comments,
		CreatedAt: now,
	}, nil
}

// List returns the stored snapshots, newest first.
func (s *exportService) List(ctx context.Context, p domain.Principal) ([]storage.ObjectInfo, error) {
	if err := policy.RequireAdmin(p); err != nil {
		return nil, err
	}
	if !s.enabled() {
		return nil, ErrExportDisabled
	}

	prefix := s.opts.KeyPrefix
	if prefix != "" {
		prefix += "/"
	}
	objects, err := s.storage.ListObjects(ctx, s.opts.Bucket, prefix)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].Key > objects[j].Key
	})
	return objects, nil
}

func (s *exportService) enabled() bool {
	return s.storage != nil && s.opts.Bucket != ""
}

func averageRating(comments []domain.Comment) *float64 {
	if len(comments) == 0 {
		return nil
	}
	total := 0
	for _, c := range comments {
		total += c.Rating
	}
	avg := float64(total) / float64(len(comments))
	return &avg
}

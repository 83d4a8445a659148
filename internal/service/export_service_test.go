package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/domain"
	"bookshelf/internal/policy"
	"bookshelf/internal/storage"
)

type memoryStorage struct {
	objects      map[string][]byte
	contentTypes map[string]string
	err          error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (m *memoryStorage) PutObject(_ context.Context, bucket, key string, body io.Reader, contentType string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.objects[key] = data
	m.contentTypes[key] = contentType
	return fmt.Sprintf("s3://%s/%s", bucket, key), nil
}

func (m *memoryStorage) ListObjects(_ context.Context, _, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for key, data := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	return out, nil
}

func TestExportService_Export(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	books := NewBookService(store.Books, store.Comments)
	comments := NewCommentService(store.Books, store.Comments, policy.EditOwner)

	book, err := books.CreateBook(ctx, admin, duneInput())
	require.NoError(t, err)
	_, err = comments.CreateComment(ctx, reader, book.ID, CommentInput{Body: "great", Rating: 5})
	require.NoError(t, err)
	_, err = comments.CreateComment(ctx, critic, book.ID, CommentInput{Body: "fine", Rating: 2})
	require.NoError(t, err)

	mem := newMemoryStorage()
	svc := NewExportService(books, mem, ExportOptions{Bucket: "catalog", KeyPrefix: "/exports/"})
	svc.(*exportService).now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	export, err := svc.Export(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, export.Books)
	assert.Equal(t, 2, export.Comments)
	assert.True(t, strings.HasPrefix(export.Key, "exports/catalog-20240501T120000Z-"), export.Key)
	assert.Equal(t, "s3://catalog/"+export.Key, export.Location)
	assert.Equal(t, "application/json", mem.contentTypes[export.Key])

	var snap struct {
		Books []struct {
			Name          string   `json:"name"`
			PublishedDate string   `json:"published_date"`
			AverageRating *float64 `json:"average_rating"`
			Comments      []struct {
				User   string `json:"user"`
				Rating int    `json:"rating"`
			} `json:"comments"`
		} `json:"books"`
	}
	require.NoError(t, json.Unmarshal(mem.objects[export.Key], &snap))
	require.Len(t, snap.Books, 1)
	assert.Equal(t, "Dune", snap.Books[0].Name)
	assert.Equal(t, "1965-08-01", snap.Books[0].PublishedDate)
	require.NotNil(t, snap.Books[0].AverageRating)
	assert.InDelta(t, 3.5, *snap.Books[0].AverageRating, 0.001)
	require.Len(t, snap.Books[0].Comments, 2)
	assert.Equal(t, "reader", snap.Books[0].Comments[0].User)

	objects, err := svc.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, export.Key, objects[0].Key)
}

func TestExportService_ListNewestFirst(t *testing.T) {
	mem := newMemoryStorage()
	mem.objects["exports/catalog-20240101T000000Z-a.json"] = []byte("{}")
	mem.objects["exports/catalog-20240301T000000Z-b.json"] = []byte("{}")
	mem.objects["other/catalog-20250101T000000Z-c.json"] = []byte("{}")

	svc := NewExportService(nil, mem, ExportOptions{Bucket: "catalog", KeyPrefix: "exports"})
	objects, err := svc.List(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "exports/catalog-20240301T000000Z-b.json", objects[0].Key)
}

func TestExportService_AccessAndAvailability(t *testing.T) {
	ctx := context.Background()
	mem := newMemoryStorage()

	svc := NewExportService(nil, mem, ExportOptions{Bucket: "catalog"})
	_, err := svc.Export(ctx, reader)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.List(ctx, domain.Anonymous)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	disabled := NewExportService(nil, nil, ExportOptions{Bucket: "catalog"})
	_, err = disabled.Export(ctx, admin)
	assert.ErrorIs(t, err, ErrExportDisabled)
	noBucket := NewExportService(nil, mem, ExportOptions{})
	_, err = noBucket.List(ctx, admin)
	assert.ErrorIs(t, err, ErrExportDisabled)
}

func TestExportService_PropagatesStorageError(t *testing.T) {
	store := newTestStore(t)
	books := NewBookService(store.Books, store.Comments)
	mem := newMemoryStorage()
	mem.err = errors.New("bucket gone")

	svc := NewExportService(books, mem, ExportOptions{Bucket: "catalog"})
	_, err := svc.Export(context.Background(), admin)
	assert.EqualError(t, err, "bucket gone")
}

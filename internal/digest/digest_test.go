package digest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/WeiboTrending/internal/collector"
	"github.com/LJTian/WeiboTrending/internal/storage"
)

const testDate = "2024-01-03"

func setup(t *testing.T) (*Renderer, *storage.DailyStore, string) {
	t.Helper()
	dir := t.TempDir()
	blobs, err := storage.NewFileStore(dir)
	require.NoError(t, err)
	daily := storage.NewDailyStore(blobs, nil)
	return NewRenderer(daily, blobs, nil), daily, dir
}

func TestRenderWritesHeaderThenBody(t *testing.T) {
	r, daily, dir := setup(t)
	ctx := context.Background()
	_, err := daily.MergeAndPersist(ctx, testDate, []collector.TrendingItem{
		{Title: "话题A", URL: "sinaweibo://a", Category: " 社会 "},
		{Title: "话题B", URL: "sinaweibo://b"},
	})
	require.NoError(t, err)

	out, err := r.Render(ctx, testDate)
	require.NoError(t, err)

	want := "# 2024-01-03 微博热搜 \n" +
		"1. [话题A](sinaweibo://a) `社会` \n" +
		"\n" +
		"2. [话题B](sinaweibo://b)  \n"
	assert.Equal(t, want, out)

	onDisk, err := os.ReadFile(filepath.Join(dir, "archives", testDate+".md"))
	require.NoError(t, err)
	assert.Equal(t, want, string(onDisk))
}

func TestRenderIsDeterministic(t *testing.T) {
	r, daily, dir := setup(t)
	ctx := context.Background()
	_, err := daily.MergeAndPersist(ctx, testDate, []collector.TrendingItem{{Title: "A", URL: "u", Category: "c"}})
	require.NoError(t, err)

	path := filepath.Join(dir, "archives", testDate+".md")
	_, err = r.Render(ctx, testDate)
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = r.Render(ctx, testDate)
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRenderMissingRecord(t *testing.T) {
	r, _, dir := setup(t)
	_, err := r.Render(context.Background(), testDate)
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)

	_, statErr := os.Stat(filepath.Join(dir, "archives", testDate+".md"))
	assert.True(t, os.IsNotExist(statErr))
}

// recordingStore 记录写入顺序
type recordingStore struct {
	storage.BlobStore
	ops []string
}

func (s *recordingStore) Write(ctx context.Context, key, ct string, data []byte) error {
	s.ops = append(s.ops, "write:"+string(data))
	return s.BlobStore.Write(ctx, key, ct, data)
}

func (s *recordingStore) Append(ctx context.Context, key string, data []byte) error {
	s.ops = append(s.ops, "append:"+string(data))
	return s.BlobStore.Append(ctx, key, data)
}

func TestRenderUsesTwoSequentialWrites(t *testing.T) {
	blobs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	daily := storage.NewDailyStore(blobs, nil)
	_, err = daily.MergeAndPersist(context.Background(), testDate, []collector.TrendingItem{{Title: "A", URL: "u"}})
	require.NoError(t, err)

	rec := &recordingStore{BlobStore: blobs}
	_, err = NewRenderer(daily, rec, nil).Render(context.Background(), testDate)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"write:# 2024-01-03 微博热搜 \n",
		"append:1. [A](u)  \n",
	}, rec.ops)
}

func TestBodyEmptyRecord(t *testing.T) {
	assert.Equal(t, "", Body(nil))
}

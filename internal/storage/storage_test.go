package storage

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlRecorder 记录实际执行的 SQL，按正则匹配预期
type sqlRecorder struct {
	mu   sync.Mutex
	seen []string
}

func (r *sqlRecorder) Match(expected, actual string) error {
	r.mu.Lock()
	r.seen = append(r.seen, actual)
	r.mu.Unlock()
	return sqlmock.QueryMatcherRegexp.Match(expected, actual)
}

func (r *sqlRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock, *sqlRecorder) {
	t.Helper()
	rec := &sqlRecorder{}
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(rec))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return &Store{DB: db}, mock, rec
}

var (
	selectBlob = regexp.QuoteMeta(`SELECT * FROM "blobs" WHERE path = $1`)
	upsertBlob = regexp.QuoteMeta(`INSERT INTO "blobs"`) + `.*` +
		regexp.QuoteMeta(`ON CONFLICT ("path") DO UPDATE SET "data"="excluded"."data","meta"="excluded"."meta","updated_at"="excluded"."updated_at"`)
	appendBlob = regexp.QuoteMeta(`UPDATE "blobs" SET "data"=data || $1,"meta"=jsonb_set(`) + `.*` +
		regexp.QuoteMeta(`octet_length(data) + $2)),"updated_at"=$3 WHERE path = $4`)
	insertBlob = regexp.QuoteMeta(`INSERT INTO "blobs" ("path","data","meta","created_at","updated_at") VALUES ($1,$2,$3,$4,$5)`)
)

var blobColumns = []string{"path", "data", "meta", "created_at", "updated_at"}

func TestStoreReadFound(t *testing.T) {
	s, mock, _ := newMockStore(t)
	now := time.Now()
	mock.ExpectQuery(selectBlob).
		WillReturnRows(sqlmock.NewRows(blobColumns).
			AddRow("api/2024-01-03.json", []byte(`[{"title":"A"}]`), []byte(`{"bytes":15}`), now, now))

	data, err := s.Read(context.Background(), "api/2024-01-03.json")
	require.NoError(t, err)
	assert.Equal(t, `[{"title":"A"}]`, string(data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreReadNotFound(t *testing.T) {
	s, mock, _ := newMockStore(t)
	mock.ExpectQuery(selectBlob).WillReturnRows(sqlmock.NewRows(blobColumns))

	_, err := s.Read(context.Background(), "api/2024-01-03.json")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreReadError(t *testing.T) {
	s, mock, _ := newMockStore(t)
	mock.ExpectQuery(selectBlob).WillReturnError(errors.New("conn reset"))

	_, err := s.Read(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorContains(t, err, "conn reset")
}

func TestStoreWriteUpsertKeepsCreatedAt(t *testing.T) {
	s, mock, rec := newMockStore(t)
	mock.ExpectExec(upsertBlob).
		WithArgs("archives/2024-01-03.md", []byte("# header\n"), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Write(context.Background(), "archives/2024-01-03.md", "text/markdown", []byte("# header\n")))
	assert.NoError(t, mock.ExpectationsWereMet())

	seen := rec.all()
	require.Len(t, seen, 1)
	assert.NotContains(t, seen[0], `"created_at"="excluded"`)
}

func TestStoreAppendUpdatesInPlace(t *testing.T) {
	s, mock, _ := newMockStore(t)
	body := []byte("1. [A](u)  \n")
	mock.ExpectExec(appendBlob).
		WithArgs(body, len(body), sqlmock.AnyArg(), "archives/2024-01-03.md").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Append(context.Background(), "archives/2024-01-03.md", body))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreAppendCreatesWhenMissing(t *testing.T) {
	s, mock, rec := newMockStore(t)
	body := []byte("line\n")
	mock.ExpectExec(appendBlob).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(insertBlob).
		WithArgs("archives/2024-01-03.md", body, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Append(context.Background(), "archives/2024-01-03.md", body))
	assert.NoError(t, mock.ExpectationsWereMet())

	seen := rec.all()
	require.Len(t, seen, 2)
	assert.NotContains(t, seen[1], "ON CONFLICT")
}

func TestStoreAppendError(t *testing.T) {
	s, mock, _ := newMockStore(t)
	mock.ExpectExec(appendBlob).WillReturnError(errors.New("deadlock"))

	err := s.Append(context.Background(), "k", []byte("x"))
	assert.ErrorContains(t, err, "append k")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// 归档是先整体写表头、再追加正文，两条语句必须按这个顺序落库
func TestStoreDigestWriteThenAppend(t *testing.T) {
	s, mock, _ := newMockStore(t)
	ctx := context.Background()
	key := "archives/2024-01-03.md"

	mock.ExpectExec(upsertBlob).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(appendBlob).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Write(ctx, key, "text/markdown", []byte("# 2024-01-03 微博热搜 \n")))
	require.NoError(t, s.Append(ctx, key, []byte("1. [A](u)  \n")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlobMeta(t *testing.T) {
	assert.Equal(t, "application/json", blobMeta("application/json", 2)["content_type"])
	_, ok := blobMeta("", 0)["content_type"]
	assert.False(t, ok)
	assert.Equal(t, 7, blobMeta("", 7)["bytes"])
}

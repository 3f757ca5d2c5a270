package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Blob 存在 Postgres 里的一段内容，Path 与文件存储的相对路径一致
type Blob struct {
	Path string            `gorm:"primaryKey;size:255" json:"path"`
	Data []byte            `json:"-"`
	Meta datatypes.JSONMap `gorm:"type:jsonb" json:"meta"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store 基于 gorm 的 BlobStore，实现多实例共享同一份日榜
type Store struct {
	DB *gorm.DB
}

func NewStore(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewStoreWithDB(db)
}

func NewStoreWithDB(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Blob{}); err != nil {
		return nil, fmt.Errorf("migrate blobs: %w", err)
	}
	return &Store{DB: db}, nil
}

func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	var b Blob
	// 不存在是常见情况，不打 record not found 日志
	silent := s.DB.Session(&gorm.Session{Logger: s.DB.Logger.LogMode(logger.Silent)})
	err := silent.WithContext(ctx).Where("path = ?", key).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return b.Data, nil
}

// Write 整体覆盖；已存在时只更新 data / meta / updated_at，保留 created_at
func (s *Store) Write(ctx context.Context, key, contentType string, data []byte) error {
	b := Blob{
		Path: key,
		Data: data,
		Meta: blobMeta(contentType, len(data)),
	}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "meta", "updated_at"}),
	}).Create(&b).Error
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Append 在数据库里拼接，meta.bytes 随之更新；不存在时新建
func (s *Store) Append(ctx context.Context, key string, data []byte) error {
	res := s.DB.WithContext(ctx).Model(&Blob{}).Where("path = ?", key).Updates(map[string]any{
		"data":       gorm.Expr("data || ?", data),
		"meta":       gorm.Expr("jsonb_set(coalesce(meta, '{}'::jsonb), '{bytes}', to_jsonb(octet_length(data) + ?))", len(data)),
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return fmt.Errorf("append %s: %w", key, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	b := Blob{Path: key, Data: data, Meta: blobMeta("", len(data))}
	if err := s.DB.WithContext(ctx).Create(&b).Error; err != nil {
		return fmt.Errorf("append %s: %w", key, err)
	}
	return nil
}

func blobMeta(contentType string, size int) datatypes.JSONMap {
	meta := datatypes.JSONMap{"bytes": size}
	if contentType != "" {
		meta["content_type"] = contentType
	}
	return meta
}

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/LJTian/WeiboTrending/internal/digest"
	"github.com/LJTian/WeiboTrending/internal/storage"
)

// RecordLoader 读取某天的日榜
type RecordLoader interface {
	Load(ctx context.Context, date string) (storage.DailyRecord, error)
}

type Server struct {
	records RecordLoader
	blobs   storage.BlobStore
	logger  *zap.Logger
}

func NewServer(records RecordLoader, blobs storage.BlobStore, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{records: records, blobs: blobs, logger: logger}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/records/:date", s.getRecord)
		v1.GET("/digests/:date", s.getDigest)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getRecord(c *gin.Context) {
	date := c.Param("date")
	if !storage.ValidDate(date) {
		badDate(c, date)
		return
	}

	rec, err := s.records.Load(c.Request.Context(), date)
	if errors.Is(err, storage.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "not_found",
			"message": "no record for " + date,
		})
		return
	}
	if err != nil {
		s.logger.Error("load record failed", zap.String("date", date), zap.Error(err))
		internalError(c)
		return
	}
	if rec == nil {
		rec = storage.DailyRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    rec,
	})
}

func (s *Server) getDigest(c *gin.Context) {
	date := c.Param("date")
	if !storage.ValidDate(date) {
		badDate(c, date)
		return
	}

	data, err := s.blobs.Read(c.Request.Context(), digest.ArchiveKey(date))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "not_found",
			"message": "no digest for " + date,
		})
		return
	}
	if err != nil {
		s.logger.Error("read digest failed", zap.String("date", date), zap.Error(err))
		internalError(c)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", data)
}

func badDate(c *gin.Context, date string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    "bad_request",
		"message": "invalid date " + date + ", want YYYY-MM-DD",
	})
}

func internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "internal_error",
		"message": "internal server error",
	})
}

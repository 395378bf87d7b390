package service

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/steemit/agora/internal/errs"
	"github.com/steemit/agora/pkg/logging"
)

// Asset is a pinned upload
type Asset struct {
	CID  string `json:"cid"`
	URL  string `json:"url"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// UploadService pins user uploads to IPFS
type UploadService struct {
	pinner  Pinner
	maxSize int64
	logger  *zap.Logger
}

// NewUploadService creates an upload service
func NewUploadService(pinner Pinner, maxSize int64) *UploadService {
	if maxSize <= 0 {
		maxSize = 10 << 20
	}
	return &UploadService{pinner: pinner, maxSize: maxSize, logger: logging.WithComponent("uploads")}
}

// Upload pins the file and returns its gateway URL
func (s *UploadService) Upload(ctx context.Context, userID int64, filename string, size int64, r io.Reader) (*Asset, error) {
	if size <= 0 {
		return nil, errs.E(errs.Invalid, "file is empty")
	}
	if size > s.maxSize {
		return nil, errs.Ef(errs.Invalid, "file exceeds %d bytes", s.maxSize)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > 10 {
		ext = ""
	}
	name := uuid.NewString() + ext

	cid, err := s.pinner.Pin(ctx, name, io.LimitReader(r, s.maxSize))
	if err != nil {
		s.logger.Error("pin failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil, errs.Wrap(errs.Internal, err, "upload failed")
	}
	return &Asset{CID: cid, URL: s.pinner.URL(cid), Name: name, Size: size}, nil
}

// Package archive exports JSON snapshots of stored contact submissions to
// S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/folio-labs/portfolio-api/internal/contact"
	"github.com/folio-labs/portfolio-api/internal/contact/repository"
	"github.com/folio-labs/portfolio-api/pkg/logger"
)

// Uploader stores one object; *MinIOStorage implements it.
type Uploader interface {
	UploadFile(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// Snapshot is the archived document.
type Snapshot struct {
	ExportedAt  time.Time             `json:"exportedAt"`
	Count       int                   `json:"count"`
	Submissions []*contact.Submission `json:"submissions"`
}

type Archiver struct {
	up  Uploader
	now func() time.Time
}

func NewArchiver(up Uploader) *Archiver {
	return &Archiver{up: up, now: time.Now}
}

// WithClock replaces the snapshot timestamp source.
func (a *Archiver) WithClock(now func() time.Time) *Archiver {
	a.now = now
	return a
}

// Key is the object key for a snapshot taken at t.
func Key(t time.Time) string {
	return "contacts/" + t.UTC().Format("20060102T150405Z") + ".json"
}

// Snapshot writes every stored submission, newest first, and returns the
// object key and record count.
func (a *Archiver) Snapshot(ctx context.Context, store repository.Store) (string, int, error) {
	recs, err := store.Query(ctx, contact.ListFilter{}, repository.NewestFirst, 0, 0)
	if err != nil {
		return "", 0, fmt.Errorf("archive: load submissions: %w", err)
	}
	if recs == nil {
		recs = []*contact.Submission{}
	}
	now := a.now()
	body, err := json.MarshalIndent(Snapshot{ExportedAt: now.UTC(), Count: len(recs), Submissions: recs}, "", "  ")
	if err != nil {
		return "", 0, fmt.Errorf("archive: encode: %w", err)
	}
	key := Key(now)
	if err := a.up.UploadFile(ctx, key, bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return "", 0, fmt.Errorf("archive: upload %s: %w", key, err)
	}
	logger.Infof("archive: wrote %d submissions to %s", len(recs), key)
	return key, len(recs), nil
}

package storage

import (
	"context"
	"path"
	"time"
)

// ObjectStorage captures the minimal operations the metrics exporter
// needs against an S3-compatible service.
type ObjectStorage interface {
	UploadObject(ctx context.Context, key string, data []byte) error
}

// SnapshotKey builds the object key for a metrics snapshot taken at ts.
func SnapshotKey(prefix string, ts time.Time) string {
	return path.Join(prefix, ts.UTC().Format("20060102T150405Z")+".json")
}

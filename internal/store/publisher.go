package store

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/sirupsen/logrus"
	"github.com/sourceplane/foldbatch/internal/model"
)

// ObjectStore is the subset of *minio.Client used for publishing
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Publisher uploads the result directory of every successful job to
// <bucket>/<prefix>/<job id>/.
type Publisher struct {
	client ObjectStore
	bucket string
	prefix string
	log    logrus.FieldLogger
}

func NewPublisher(client ObjectStore, bucket, prefix string, log logrus.FieldLogger) *Publisher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Publisher{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		log:    log,
	}
}

// JobFinished implements runner.ResultHook
func (p *Publisher) JobFinished(ctx context.Context, batchID string, job *model.JobDescriptor, result model.JobResult) error {
	if !result.OK() || job.OutputPath == "" {
		return nil
	}

	uploaded := 0
	err := filepath.WalkDir(job.OutputPath, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(job.OutputPath, file)
		if err != nil {
			return err
		}

		key := path.Join(p.prefix, job.ID, filepath.ToSlash(rel))
		opts := minio.PutObjectOptions{
			ContentType:  contentType(file),
			UserMetadata: map[string]string{"batch-id": batchID, "job-name": job.Name},
		}
		if _, err := p.client.FPutObject(ctx, p.bucket, key, file, opts); err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
		uploaded++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish results of job %s: %w", job.Name, err)
	}

	p.log.WithFields(logrus.Fields{"job": job.Name, "objects": uploaded}).Info("published results")
	return nil
}

func contentType(file string) string {
	ext := strings.ToLower(filepath.Ext(file))
	switch ext {
	case ".cif":
		return "chemical/x-cif"
	case ".pdb":
		return "chemical/x-pdb"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

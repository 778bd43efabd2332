package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/sourceplane/foldbatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	buckets map[string]bool
	objects map[string]minio.PutObjectOptions
	failOn  string
}

func newFakeStore() *fakeStore {
	return &fakeStore{buckets: map[string]bool{}, objects: map[string]minio.PutObjectOptions{}}
}

func (f *fakeStore) BucketExists(_ context.Context, bucket string) (bool, error) {
	return f.buckets[bucket], nil
}

func (f *fakeStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.buckets[bucket] = true
	return nil
}

func (f *fakeStore) FPutObject(_ context.Context, bucket, object, _ string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if object == f.failOn {
		return minio.UploadInfo{}, errors.New("connection reset")
	}
	f.objects[bucket+"/"+object] = opts
	return minio.UploadInfo{Bucket: bucket, Key: object}, nil
}

func (f *fakeStore) keys() []string {
	out := make([]string, 0, len(f.objects))
	for k := range f.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func resultJob(t *testing.T) *model.JobDescriptor {
	t.Helper()
	out := filepath.Join(t.TempDir(), "lig_abc")
	require.NoError(t, os.MkdirAll(filepath.Join(out, "seed_101", "predictions"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "seed_101", "predictions", "lig_sample_0.cif"), []byte("data_"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(out, "summary.json"), []byte("{}"), 0644))
	return &model.JobDescriptor{ID: "abc", Name: "lig", OutputPath: out}
}

func TestPublisherUploadsSuccessfulJobs(t *testing.T) {
	fake := newFakeStore()
	log, _ := test.NewNullLogger()
	p := NewPublisher(fake, "results", "/runs/", log)

	job := resultJob(t)
	require.NoError(t, p.JobFinished(context.Background(), "batch-1", job, model.JobResult{JobID: job.ID}))

	assert.Equal(t, []string{
		"results/runs/abc/seed_101/predictions/lig_sample_0.cif",
		"results/runs/abc/summary.json",
	}, fake.keys())

	opts := fake.objects["results/runs/abc/seed_101/predictions/lig_sample_0.cif"]
	assert.Equal(t, "chemical/x-cif", opts.ContentType)
	assert.Equal(t, "batch-1", opts.UserMetadata["batch-id"])
}

func TestPublisherSkipsFailedJobs(t *testing.T) {
	fake := newFakeStore()
	p := NewPublisher(fake, "results", "", nil)

	job := resultJob(t)
	require.NoError(t, p.JobFinished(context.Background(), "b", job, model.JobResult{JobID: job.ID, Err: errors.New("boom")}))
	assert.Empty(t, fake.objects)
}

func TestPublisherUploadError(t *testing.T) {
	fake := newFakeStore()
	fake.failOn = "abc/summary.json"
	p := NewPublisher(fake, "results", "", nil)

	job := resultJob(t)
	err := p.JobFinished(context.Background(), "b", job, model.JobResult{JobID: job.ID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestEnsureBucket(t *testing.T) {
	fake := newFakeStore()
	require.NoError(t, EnsureBucket(context.Background(), fake, "results", "us-east-1"))
	assert.True(t, fake.buckets["results"])
	require.NoError(t, EnsureBucket(context.Background(), fake, "results", "us-east-1"))
}

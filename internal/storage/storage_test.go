package storage

import (
	"context"
	"testing"

	"resume-intake/config"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3PublicURLVariants(t *testing.T) {
	ctx := context.Background()

	withBase, err := NewS3Client(ctx, S3Config{
		Region: "us-east-1", Bucket: "resumes", AccessKey: "a", SecretKey: "b",
		PublicBase: "https://project.supabase.co/storage/v1/object/public/resumes",
	})
	require.NoError(t, err)
	assert.Equal(t,
		"https://project.supabase.co/storage/v1/object/public/resumes/resumes/abc.pdf",
		withBase.PublicURL("resumes/abc.pdf"))

	withEndpoint, err := NewS3Client(ctx, S3Config{
		Region: "auto", Bucket: "resumes", AccessKey: "a", SecretKey: "b",
		Endpoint: "http://localhost:9000/",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/resumes/resumes/abc.pdf", withEndpoint.PublicURL("resumes/abc.pdf"))

	plain, err := NewS3Client(ctx, S3Config{Region: "eu-west-1", Bucket: "cv", AccessKey: "a", SecretKey: "b"})
	require.NoError(t, err)
	assert.Equal(t, "https://cv.s3.eu-west-1.amazonaws.com/resumes/x.doc", plain.PublicURL("resumes/x.doc"))
	assert.Empty(t, plain.PublicURL(""))
}

func TestS3ClientRequiresRegionAndBucket(t *testing.T) {
	_, err := NewS3Client(context.Background(), S3Config{Region: "us-east-1"})
	require.Error(t, err)
}

func TestValidateACL(t *testing.T) {
	acl, err := ValidateACL("public-read")
	require.NoError(t, err)
	assert.Equal(t, types.ObjectCannedACLPublicRead, acl)

	acl, err = ValidateACL("")
	require.NoError(t, err)
	assert.Equal(t, types.ObjectCannedACL(""), acl)

	_, err = ValidateACL("bucket-owner-full-control")
	require.Error(t, err)
}

func TestMinioPublicURL(t *testing.T) {
	client, err := NewMinioClient(MinioConfig{
		Endpoint: "minio.local:9000", Bucket: "resumes", AccessKey: "a", SecretKey: "b",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://minio.local:9000/resumes/resumes/abc.docx", client.PublicURL("resumes/abc.docx"))

	secure, err := NewMinioClient(MinioConfig{
		Endpoint: "minio.local", Bucket: "resumes", AccessKey: "a", SecretKey: "b", UseSSL: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://minio.local/resumes/k", secure.PublicURL("k"))
}

func TestMemoryStoreCopiesPayload(t *testing.T) {
	store := NewMemoryStore("memory://resumes")
	data := []byte("hello")

	require.NoError(t, store.Put(context.Background(), "resumes/a.pdf", data, PutOptions{ContentType: "application/pdf"}))
	data[0] = 'j'

	obj, ok := store.Get("resumes/a.pdf")
	require.True(t, ok)
	assert.Equal(t, "hello", string(obj.Data))
	assert.Equal(t, "application/pdf", obj.Options.ContentType)
	assert.Equal(t, "memory://resumes/resumes/a.pdf", store.PublicURL("resumes/a.pdf"))
	assert.ErrorIs(t, store.Put(context.Background(), "", data, PutOptions{}), ErrEmptyKey)
}

func TestNewSelectsDriver(t *testing.T) {
	store, err := New(context.Background(), config.StorageConfig{Driver: config.StorageDriverMemory, Bucket: "resumes"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
	assert.Equal(t, "memory://resumes/k", store.PublicURL("k"))

	_, err = New(context.Background(), config.StorageConfig{Driver: "ftp"})
	require.Error(t, err)
}

package blob

import (
	"context"
	"testing"
)

func TestNewS3RequiresBucket(t *testing.T) {
	if _, err := NewS3(context.Background(), S3Config{}); err == nil {
		t.Fatal("missing bucket must fail")
	}
}

func TestOpenS3FromEnvRequiresBucket(t *testing.T) {
	t.Setenv("DORMCORE_BLOB_S3_BUCKET", "")
	if _, err := OpenS3FromEnv(context.Background()); err == nil {
		t.Fatal("missing bucket env must fail")
	}
}

func TestNewS3WithStaticCredentials(t *testing.T) {
	store, err := NewS3(context.Background(), S3Config{
		Bucket:          "dormcore-archive",
		Region:          "eu-west-1",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		PathStyle:       true,
	})
	if err != nil {
		t.Fatalf("new s3 store: %v", err)
	}
	if store.Driver() != DriverS3 {
		t.Fatalf("unexpected driver %s", store.Driver())
	}
}

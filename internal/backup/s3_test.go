package backup

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	bucket, key, contentType string
	body                     []byte
	err                      error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	f.contentType = aws.ToString(in.ContentType)
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestUpload(t *testing.T) {
	fake := &fakeS3{}
	u := &S3Uploader{Client: fake, Bucket: "mc-bases", Prefix: "bases"}

	if err := u.Upload(context.Background(), BalanceKey, []byte("xlsm"), "application/vnd.ms-excel.sheet.macroEnabled.12"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if fake.bucket != "mc-bases" || fake.key != "bases/Balanco_Energetico.xlsm" {
		t.Errorf("uploaded to %s/%s", fake.bucket, fake.key)
	}
	if string(fake.body) != "xlsm" {
		t.Errorf("body = %q", fake.body)
	}
	if fake.contentType == "" {
		t.Error("content type not set")
	}
}

func TestUploadError(t *testing.T) {
	u := &S3Uploader{Client: &fakeS3{err: errors.New("denied")}, Bucket: "b"}
	if err := u.Upload(context.Background(), "x", nil, ""); err == nil {
		t.Error("expected an error")
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		prefix, name, want string
	}{
		{"bases", "a.xlsx", "bases/a.xlsx"},
		{"", "a.xlsx", "a.xlsx"},
		{"/bases/", "a.xlsx", "bases/a.xlsx"},
	}
	for _, tt := range tests {
		u := &S3Uploader{Prefix: tt.prefix}
		if got := u.Key(tt.name); got != tt.want {
			t.Errorf("Key(%q, %q) = %q, want %q", tt.prefix, tt.name, got, tt.want)
		}
	}
}

package s3

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/consulto_backend/config"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(config.S3Config{
		Endpoint:        "https://storage.example.com",
		Region:          "us-east-1",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		Bucket:          "records",
		PresignTTLSec:   60,
	})
	require.NoError(t, err)
	return c
}

func TestNewValidates(t *testing.T) {
	_, err := New(config.S3Config{Region: "us-east-1"})
	assert.Error(t, err)
	_, err = New(config.S3Config{Bucket: "b"})
	assert.Error(t, err)
}

func TestPresignUpload(t *testing.T) {
	p, err := testClient(t).PresignUpload(context.Background(), "health-records/u/x.pdf", "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, p.Method)
	assert.True(t, strings.HasPrefix(p.URL, "https://storage.example.com/records/health-records/u/x.pdf?"), p.URL)
	assert.Contains(t, p.URL, "X-Amz-Expires=60")
	assert.Equal(t, "health-records/u/x.pdf", p.Key)
}

func TestPresignDownload(t *testing.T) {
	p, err := testClient(t).PresignDownload(context.Background(), "health-records/u/x.pdf")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, p.Method)
	assert.Contains(t, p.URL, "X-Amz-Signature=")
}

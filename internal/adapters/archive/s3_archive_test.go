package archive

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexmorales/GeoTolu/pkg/config"
	apperrors "github.com/alexmorales/GeoTolu/pkg/errors"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	data, _ := io.ReadAll(params.Body)
	f.body = string(data)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Archive_Put(t *testing.T) {
	client := &fakeS3{}
	archive := NewS3ArchiveWithClient(client, "tolu-stats", "/snapshots/")

	location, err := archive.Put(context.Background(), "2025/05/10/log.csv", []byte("timestamp\n"), "text/csv")
	require.NoError(t, err)

	assert.Equal(t, "s3://tolu-stats/snapshots/2025/05/10/log.csv", location)
	assert.Equal(t, "tolu-stats", *client.input.Bucket)
	assert.Equal(t, "snapshots/2025/05/10/log.csv", *client.input.Key)
	assert.Equal(t, "text/csv", *client.input.ContentType)
	assert.Equal(t, "timestamp\n", client.body)
}

func TestS3Archive_PutFailure(t *testing.T) {
	archive := NewS3ArchiveWithClient(&fakeS3{err: errors.New("AccessDenied")}, "b", "")

	_, err := archive.Put(context.Background(), "k.csv", nil, "text/csv")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestNewS3Archive_RequiresBucket(t *testing.T) {
	_, err := NewS3Archive(context.Background(), &config.ArchiveConfig{Region: "us-east-1"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestSnapshotKey(t *testing.T) {
	key := SnapshotKey(time.Date(2025, 5, 10, 8, 30, 0, 0, time.UTC))

	assert.True(t, strings.HasPrefix(key, "2025/05/10/estadisticas_busquedas-083000-"), key)
	assert.True(t, strings.HasSuffix(key, ".csv"))
}

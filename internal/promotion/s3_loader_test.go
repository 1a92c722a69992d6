package promotion

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLoader is a mock implementation of the Loader interface for testing.
type mockLoader struct {
	loadFunc func(ctx context.Context, path string) (*Table, error)
}

func (m *mockLoader) Load(ctx context.Context, path string) (*Table, error) {
	if m.loadFunc != nil {
		return m.loadFunc(ctx, path)
	}
	return nil, errors.New("not implemented")
}

// mockObjectGetter serves fixed object bodies keyed by object key.
type mockObjectGetter struct {
	objects map[string][]byte
	err     error
}

func (m *mockObjectGetter) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	body, ok := m.objects[*params.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func gzipLines(t *testing.T, lines ...string) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	for _, line := range lines {
		_, err := w.Write([]byte(line + "\n"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestS3Loader_Load(t *testing.T) {
	client := &mockObjectGetter{objects: map[string][]byte{
		"promotions/rules.gz": gzipLines(t, "S3CODE,fixed,15000"),
	}}
	loader := newS3Loader(client, "bucket", zerolog.Nop())

	table, err := loader.Load(context.Background(), "promotions/rules.gz")
	require.NoError(t, err)

	_, ok := table.Lookup("s3code")
	assert.True(t, ok)
}

func TestS3Loader_Load_GetObjectError(t *testing.T) {
	loader := newS3Loader(&mockObjectGetter{err: errors.New("access denied")}, "bucket", zerolog.Nop())

	table, err := loader.Load(context.Background(), "promotions/rules.gz")
	require.Error(t, err)
	assert.Nil(t, table)
	assert.Contains(t, err.Error(), "bucket=bucket")
}

func TestFallbackLoader_S3Success(t *testing.T) {
	s3Loader := &mockLoader{
		loadFunc: func(ctx context.Context, path string) (*Table, error) {
			assert.Equal(t, "promotions/test.gz", path, "S3 key should have prefix")
			return NewTable(Fixed("S3CODE", 1000)), nil
		},
	}
	fileLoader := &mockLoader{
		loadFunc: func(ctx context.Context, path string) (*Table, error) {
			t.Error("file loader should not be called when S3 succeeds")
			return nil, errors.New("should not be called")
		},
	}

	fallback := NewFallbackLoader(s3Loader, fileLoader, "promotions/", zerolog.Nop())

	table, err := fallback.Load(context.Background(), "test.gz")
	require.NoError(t, err)
	_, ok := table.Lookup("S3CODE")
	assert.True(t, ok)
}

func TestFallbackLoader_S3FailsFallsBackToLocal(t *testing.T) {
	s3Loader := &mockLoader{
		loadFunc: func(ctx context.Context, path string) (*Table, error) {
			return nil, errors.New("S3 connection failed")
		},
	}
	fileLoader := &mockLoader{
		loadFunc: func(ctx context.Context, path string) (*Table, error) {
			assert.Equal(t, "test.gz", path, "local file path should not have prefix")
			return NewTable(Fixed("LOCAL", 1000)), nil
		},
	}

	fallback := NewFallbackLoader(s3Loader, fileLoader, "promotions/", zerolog.Nop())

	table, err := fallback.Load(context.Background(), "test.gz")
	require.NoError(t, err)
	_, ok := table.Lookup("LOCAL")
	assert.True(t, ok)
}

func TestFallbackLoader_S3LoaderNil(t *testing.T) {
	fileLoader := &mockLoader{
		loadFunc: func(ctx context.Context, path string) (*Table, error) {
			return NewTable(Fixed("LOCAL", 1000)), nil
		},
	}

	fallback := NewFallbackLoader(nil, fileLoader, "promotions/", zerolog.Nop())

	table, err := fallback.Load(context.Background(), "test.gz")
	require.NoError(t, err)
	assert.Equal(t, 1, table.Size())
}

func TestFallbackLoader_BothFail(t *testing.T) {
	s3Loader := &mockLoader{
		loadFunc: func(ctx context.Context, path string) (*Table, error) {
			return nil, errors.New("S3 error")
		},
	}
	fileLoader := &mockLoader{
		loadFunc: func(ctx context.Context, path string) (*Table, error) {
			return nil, errors.New("file not found")
		},
	}

	fallback := NewFallbackLoader(s3Loader, fileLoader, "promotions/", zerolog.Nop())

	table, err := fallback.Load(context.Background(), "test.gz")
	assert.Error(t, err)
	assert.Nil(t, table)
	assert.Contains(t, err.Error(), "file not found")
}

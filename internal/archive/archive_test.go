package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithNoBucketReturnsNoOpArchiver(t *testing.T) {
	a, err := New(context.Background(), Config{}, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, a)

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "pmcc_scan_20260729_130000.json")
	csvPath := filepath.Join(dir, "pmcc_scan_20260729_130000.csv")
	require.NoError(t, os.WriteFile(jsonPath, []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(csvPath, []byte("a,b\n"), 0o644))

	warnings := a.UploadRun(context.Background(), jsonPath, csvPath)
	assert.Empty(t, warnings)
}

func TestConfigEnabledReflectsBucket(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{Bucket: "pmcc-exports"}.Enabled())
}

func TestUploadRunWarnsWithoutFailingOnMissingFile(t *testing.T) {
	a, err := New(context.Background(), Config{
		Bucket:          "pmcc-exports",
		Region:          "auto",
		Endpoint:        "http://127.0.0.1:1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	}, zerolog.Nop())
	require.NoError(t, err)

	warnings := a.UploadRun(context.Background(), "/nonexistent/run.json", "/nonexistent/run.csv")
	assert.Len(t, warnings, 2)
}

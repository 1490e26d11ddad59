package checks

import (
	"context"
	"errors"
	"testing"

	"treediff/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func objects(infos ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(infos))
	for _, info := range infos {
		ch <- info
	}
	close(ch)
	return ch
}

func TestCheckStorage(t *testing.T) {
	t.Run("Bucket Missing", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "diffs").Return(false, nil)

		report, err := CheckStorage(context.Background(), mockClient, "diffs", "runs")
		require.NoError(t, err)
		assert.False(t, report.Exists)
		assert.Equal(t, "missing", report.Status)
		mockClient.AssertNotCalled(t, "ListObjects", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Counts Archives", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "diffs").Return(true, nil)
		mockClient.On("ListObjects", mock.Anything, "diffs", minio.ListObjectsOptions{Prefix: "runs/", Recursive: true}).
			Return(objects(
				minio.ObjectInfo{Key: "runs/a.json"},
				minio.ObjectInfo{Key: "runs/b.json"},
				minio.ObjectInfo{Key: "runs/notes.txt"},
			))

		report, err := CheckStorage(context.Background(), mockClient, "diffs", "runs/")
		require.NoError(t, err)
		assert.True(t, report.Exists)
		assert.Equal(t, "ok", report.Status)
		assert.Equal(t, 2, report.Archives)
	})

	t.Run("No Prefix", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "diffs").Return(true, nil)

		report, err := CheckStorage(context.Background(), mockClient, "diffs", "")
		require.NoError(t, err)
		assert.Equal(t, 0, report.Archives)
		mockClient.AssertNotCalled(t, "ListObjects", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("List Error", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "diffs").Return(true, nil)
		mockClient.On("ListObjects", mock.Anything, "diffs", mock.Anything).
			Return(objects(minio.ObjectInfo{Err: errors.New("access denied")}))

		_, err := CheckStorage(context.Background(), mockClient, "diffs", "runs")
		assert.ErrorContains(t, err, "access denied")
	})

	t.Run("Bucket Error", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "diffs").Return(false, errors.New("timeout"))

		_, err := CheckStorage(context.Background(), mockClient, "diffs", "runs")
		assert.ErrorContains(t, err, "failed to check bucket existence")
	})
}

func TestFixStorage(t *testing.T) {
	mockClient := new(mocks.Client)
	mockClient.On("BucketExists", mock.Anything, "diffs").Return(false, nil)
	mockClient.On("MakeBucket", mock.Anything, "diffs", minio.MakeBucketOptions{Region: "eu-west-1"}).Return(nil)

	err := FixStorage(context.Background(), mockClient, "diffs", "eu-west-1")
	assert.NoError(t, err)
	mockClient.AssertExpectations(t)
}

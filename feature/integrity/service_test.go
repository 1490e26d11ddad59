package integrity

import (
	"context"
	"testing"

	"treediff/core/database"
	"treediff/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testTarget = Target{Bucket: "test-bucket", Region: "us-east-1", ArchivePrefix: "runs"}

func setupSQLite(t *testing.T) *gorm.DB {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	return db
}

func TestService_Storage(t *testing.T) {
	mockClient := new(mocks.Client)
	svc := NewService(mockClient, testTarget, nil, zap.NewNop())

	t.Run("CheckStorage", func(t *testing.T) {
		mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(true, nil).Once()
		mockClient.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).Return(nil).Once()

		report, err := svc.CheckStorage(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ok", report.Status)
		assert.Equal(t, "runs", report.Prefix)
	})

	t.Run("FixStorage", func(t *testing.T) {
		mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(false, nil).Once()
		mockClient.On("MakeBucket", mock.Anything, "test-bucket", minio.MakeBucketOptions{Region: "us-east-1"}).Return(nil).Once()

		assert.NoError(t, svc.FixStorage(context.Background()))
	})
}

func TestService_Schema(t *testing.T) {
	t.Run("NoDatabase", func(t *testing.T) {
		svc := NewService(new(mocks.Client), testTarget, nil, zap.NewNop())

		_, err := svc.CheckSchema(context.Background())
		assert.Error(t, err)
		assert.Error(t, svc.FixSchema(context.Background()))
	})

	t.Run("CheckAndFix", func(t *testing.T) {
		svc := NewService(new(mocks.Client), testTarget, setupSQLite(t), zap.NewNop())

		report, err := svc.CheckSchema(context.Background())
		require.NoError(t, err)
		assert.False(t, report.Matched)

		require.NoError(t, svc.FixSchema(context.Background()))

		report, err = svc.CheckSchema(context.Background())
		require.NoError(t, err)
		assert.True(t, report.Matched)
	})
}

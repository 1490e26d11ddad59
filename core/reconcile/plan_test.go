package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Insert(ctx context.Context, op Operation) error {
	return m.Called(ctx, op).Error(0)
}

func (m *mockSink) Update(ctx context.Context, op Operation) error {
	return m.Called(ctx, op).Error(0)
}

func (m *mockSink) Delete(ctx context.Context, op Operation) error {
	return m.Called(ctx, op).Error(0)
}

type mockBatchSink struct {
	mockSink
	batches [][]Operation
}

func (m *mockBatchSink) ApplyBatch(_ context.Context, ops []Operation) error {
	m.batches = append(m.batches, ops)
	return nil
}

var sampleOps = []Operation{
	{Type: OperationUpdate, EntityName: "Order", Keys: []KeyValue{{Name: "ID", Value: "1"}}, Changes: []FieldChange{{Name: "Total"}, {Name: "Note"}}},
	{Type: OperationInsert, EntityName: "Line", Keys: []KeyValue{{Name: "No", Value: "3"}}},
	{Type: OperationDelete, EntityName: "Line", Keys: []KeyValue{{Name: "No", Value: "1"}}},
	{Type: OperationDelete, EntityName: "Part", Keys: []KeyValue{{Name: "Code", Value: "a"}}},
}

func TestSummarize(t *testing.T) {
	summary := Summarize(sampleOps)

	assert.Equal(t, 1, summary.Inserts)
	assert.Equal(t, 1, summary.Updates)
	assert.Equal(t, 2, summary.Deletes)
	assert.Equal(t, 2, summary.FieldChanges)
	assert.Equal(t, 4, summary.Total())
	assert.Equal(t, EntitySummary{Inserts: 1, Deletes: 1}, summary.Entities["Line"])
	assert.Equal(t, EntitySummary{Updates: 1}, summary.Entities["Order"])

	empty := Summarize(nil)
	assert.Equal(t, 0, empty.Total())
	assert.NotNil(t, empty.Entities)
}

func TestApply_OneAtATime(t *testing.T) {
	ctx := context.Background()
	sink := new(mockSink)
	sink.On("Update", ctx, sampleOps[0]).Return(nil)
	sink.On("Insert", ctx, sampleOps[1]).Return(nil)
	sink.On("Delete", ctx, mock.Anything).Return(nil)

	executed, err := Apply(ctx, sink, sampleOps)
	require.NoError(t, err)
	assert.Equal(t, 4, executed)
	sink.AssertNumberOfCalls(t, "Delete", 2)
}

func TestApply_UsesBatch(t *testing.T) {
	sink := &mockBatchSink{}

	executed, err := Apply(context.Background(), sink, sampleOps)
	require.NoError(t, err)
	assert.Equal(t, 4, executed)
	require.Len(t, sink.batches, 1)
	assert.Equal(t, sampleOps, sink.batches[0])
	sink.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestApply_StopsOnError(t *testing.T) {
	ctx := context.Background()
	sink := new(mockSink)
	sink.On("Update", ctx, sampleOps[0]).Return(nil)
	sink.On("Insert", ctx, sampleOps[1]).Return(errors.New("constraint violation"))

	executed, err := Apply(ctx, sink, sampleOps)
	assert.Equal(t, 1, executed)
	assert.ErrorContains(t, err, "insert Line No=3")
	assert.ErrorContains(t, err, "constraint violation")
	sink.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestApply_Empty(t *testing.T) {
	executed, err := Apply(context.Background(), new(mockSink), nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, executed)
}

func TestOperationKeyString(t *testing.T) {
	op := Operation{Keys: []KeyValue{{Name: "ID", Value: "1"}, {Name: "Region", Value: "eu"}}}
	assert.Equal(t, "ID=1,Region=eu", op.KeyString())
}

func TestParseEqualityMode(t *testing.T) {
	mode, err := ParseEqualityMode("")
	require.NoError(t, err)
	assert.Equal(t, EqualityPrecompiled, mode)

	mode, err = ParseEqualityMode("reflect")
	require.NoError(t, err)
	assert.Equal(t, EqualityReflect, mode)

	_, err = ParseEqualityMode("jit")
	assert.Error(t, err)
}

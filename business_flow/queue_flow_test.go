package businessflow

import (
	"context"
	"testing"

	"github.com/amirphl/airwave/app/dto"
	"github.com/amirphl/airwave/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueueFixture() (*QueueFlowImpl, *fakeQueueRepo, *fakeNotifier) {
	inactive := song(4, "Retired", "pop", 200)
	inactive.IsActive = utils.ToPtr(false)
	contents := newFakeContentRepo(
		song(1, "Alpha", "pop", 180),
		song(2, "Bravo", "rock", 240),
		song(3, "Charlie", "jazz", 300),
		inactive,
	)
	queue := &fakeQueueRepo{}
	notifier := &fakeNotifier{}
	flow := NewQueueFlow(queue, contents, notifier).(*QueueFlowImpl)
	return flow, queue, notifier
}

func TestQueueFlow_AppendKeepsRequestOrder(t *testing.T) {
	flow, queue, notifier := newQueueFixture()
	ctx := context.Background()

	resp, err := flow.Append(ctx, &dto.AppendQueueRequest{ContentIDs: []uint{2, 1, 2}})
	require.NoError(t, err)

	assert.Equal(t, []string{"Bravo", "Alpha", "Bravo"}, queue.titles())
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, 240+180+240, resp.TotalDurationSeconds)
	for i, it := range resp.Items {
		assert.Equal(t, i, it.Position)
		assert.NotEmpty(t, it.ID)
	}
	assert.Equal(t, 1, notifier.queueEventCount())
}

func TestQueueFlow_RejectsUnknownAndInactiveContent(t *testing.T) {
	flow, queue, notifier := newQueueFixture()
	ctx := context.Background()

	_, err := flow.Append(ctx, &dto.AppendQueueRequest{ContentIDs: []uint{1, 99}})
	require.Error(t, err)
	assert.True(t, IsContentNotFound(err))

	_, err = flow.Append(ctx, &dto.AppendQueueRequest{ContentIDs: []uint{4}})
	require.Error(t, err)
	assert.True(t, IsContentInactive(err))

	assert.Empty(t, queue.titles())
	assert.Zero(t, notifier.queueEventCount())
}

func TestQueueFlow_InsertMoveRemoveClear(t *testing.T) {
	flow, queue, notifier := newQueueFixture()
	ctx := context.Background()

	_, err := flow.Append(ctx, &dto.AppendQueueRequest{ContentIDs: []uint{1, 2}})
	require.NoError(t, err)

	_, err = flow.Insert(ctx, &dto.InsertQueueRequest{Index: 1, ContentIDs: []uint{3}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Charlie", "Bravo"}, queue.titles())

	_, err = flow.Move(ctx, &dto.MoveQueueRequest{From: 2, To: 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bravo", "Alpha", "Charlie"}, queue.titles())

	resp, err := flow.Remove(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bravo", "Charlie"}, queue.titles())
	assert.Equal(t, 2, resp.Count)

	resp, err = flow.Clear(ctx)
	require.NoError(t, err)
	assert.Empty(t, queue.titles())
	assert.Zero(t, resp.Count)
	assert.NotNil(t, resp.Items)

	assert.Equal(t, 5, notifier.queueEventCount())
}

func TestQueueFlow_IndexOutOfRange(t *testing.T) {
	flow, _, notifier := newQueueFixture()
	ctx := context.Background()

	_, err := flow.Insert(ctx, &dto.InsertQueueRequest{Index: 3, ContentIDs: []uint{1}})
	require.Error(t, err)
	assert.True(t, IsQueueIndexOutOfRange(err))

	_, err = flow.Remove(ctx, 0)
	require.Error(t, err)
	assert.True(t, IsQueueIndexOutOfRange(err))

	_, err = flow.Move(ctx, &dto.MoveQueueRequest{From: 0, To: 0})
	require.Error(t, err)
	assert.True(t, IsQueueIndexOutOfRange(err))

	var be *BusinessError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "QUEUE_INDEX_OUT_OF_RANGE", be.Code)
	assert.Zero(t, notifier.queueEventCount())
}

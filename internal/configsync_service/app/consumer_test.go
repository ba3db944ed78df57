package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	businessdomain "github.com/replytics/dashboard-api/internal/business_service/domain"
)

type MockConfigSnapshotter struct {
	mock.Mock
}

func (m *MockConfigSnapshotter) Snapshot(ctx context.Context, businessID string) (*businessdomain.ConfigSnapshot, error) {
	args := m.Called(ctx, businessID)
	var snapshot *businessdomain.ConfigSnapshot
	if args.Get(0) != nil {
		snapshot = args.Get(0).(*businessdomain.ConfigSnapshot)
	}
	return snapshot, args.Error(1)
}

type MockConfigPusher struct {
	mock.Mock
}

func (m *MockConfigPusher) PushConfig(ctx context.Context, businessID string, snapshot any) error {
	args := m.Called(ctx, businessID, snapshot)
	return args.Error(0)
}

func setupConsumerTest(t *testing.T) (*Consumer, *MockConfigSnapshotter, *MockConfigPusher) {
	t.Helper()
	snapshots := new(MockConfigSnapshotter)
	pusher := new(MockConfigPusher)
	consumer := NewConsumer(snapshots, pusher, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return consumer, snapshots, pusher
}

func TestConsumer_HandleEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("LoadsSnapshotAndPushes", func(t *testing.T) {
		consumer, snapshots, pusher := setupConsumerTest(t)
		snapshot := &businessdomain.ConfigSnapshot{BusinessID: "biz-1"}
		snapshots.On("Snapshot", mock.Anything, "biz-1").Return(snapshot, nil).Once()
		pusher.On("PushConfig", mock.Anything, "biz-1", snapshot).Return(nil).Once()

		data, err := json.Marshal(businessdomain.ConfigUpdatedEvent{BusinessID: "biz-1", Section: "hours"})
		require.NoError(t, err)

		err = consumer.HandleEvent(ctx, data)

		require.NoError(t, err)
		snapshots.AssertExpectations(t)
		pusher.AssertExpectations(t)
	})

	t.Run("MalformedPayload", func(t *testing.T) {
		consumer, snapshots, _ := setupConsumerTest(t)

		err := consumer.HandleEvent(ctx, []byte("not json"))

		require.Error(t, err)
		snapshots.AssertNotCalled(t, "Snapshot", mock.Anything, mock.Anything)
	})

	t.Run("MissingBusinessID", func(t *testing.T) {
		consumer, snapshots, _ := setupConsumerTest(t)

		err := consumer.HandleEvent(ctx, []byte(`{"section":"hours"}`))

		require.Error(t, err)
		snapshots.AssertNotCalled(t, "Snapshot", mock.Anything, mock.Anything)
	})

	t.Run("SnapshotFailureSkipsPush", func(t *testing.T) {
		consumer, snapshots, pusher := setupConsumerTest(t)
		snapshots.On("Snapshot", mock.Anything, "biz-1").Return(nil, assert.AnError).Once()

		data, _ := json.Marshal(businessdomain.ConfigUpdatedEvent{BusinessID: "biz-1", Section: "profile"})
		err := consumer.HandleEvent(ctx, data)

		require.Error(t, err)
		pusher.AssertNotCalled(t, "PushConfig", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("PushFailureSurfaces", func(t *testing.T) {
		consumer, snapshots, pusher := setupConsumerTest(t)
		snapshot := &businessdomain.ConfigSnapshot{BusinessID: "biz-1"}
		snapshots.On("Snapshot", mock.Anything, "biz-1").Return(snapshot, nil).Once()
		pusher.On("PushConfig", mock.Anything, "biz-1", snapshot).Return(assert.AnError).Once()

		data, _ := json.Marshal(businessdomain.ConfigUpdatedEvent{BusinessID: "biz-1", Section: "voice_settings"})
		err := consumer.HandleEvent(ctx, data)

		require.ErrorIs(t, err, assert.AnError)
	})
}

package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockStatusSyncer はStatusSyncerのモック
type MockStatusSyncer struct {
	mock.Mock
}

func (m *MockStatusSyncer) SyncEventStatuses(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestNewEventStatusSyncer(t *testing.T) {
	mockService := new(MockStatusSyncer)
	interval := 1 * time.Minute

	syncer := NewEventStatusSyncer(mockService, interval)

	assert.NotNil(t, syncer)
	assert.Equal(t, interval, syncer.interval)
	assert.NotNil(t, syncer.stopCh)
	assert.NotNil(t, syncer.doneCh)
}

func TestEventStatusSyncer_StopChannels(t *testing.T) {
	mockService := new(MockStatusSyncer)
	syncer := NewEventStatusSyncer(mockService, 1*time.Second)

	assert.NotNil(t, syncer.stopCh)
	assert.NotNil(t, syncer.doneCh)

	select {
	case <-syncer.stopCh:
		t.Fatal("stopCh should not be closed initially")
	default:
		// 期待通り
	}
}

func TestEventStatusSyncer_Sync(t *testing.T) {
	t.Run("正常に同期が実行される", func(t *testing.T) {
		mockService := new(MockStatusSyncer)
		mockService.On("SyncEventStatuses", mock.Anything).Return(3, nil)

		syncer := NewEventStatusSyncer(mockService, 1*time.Minute)
		syncer.sync(context.Background())

		mockService.AssertExpectations(t)
	})

	t.Run("同期失敗でもワーカーは継続する", func(t *testing.T) {
		mockService := new(MockStatusSyncer)
		mockService.On("SyncEventStatuses", mock.Anything).Return(0, errors.New("db down"))

		syncer := NewEventStatusSyncer(mockService, 1*time.Minute)
		syncer.sync(context.Background())

		mockService.AssertExpectations(t)
	})
}

func TestEventStatusSyncer_StartStop(t *testing.T) {
	mockService := new(MockStatusSyncer)
	mockService.On("SyncEventStatuses", mock.Anything).Return(0, nil).Maybe()

	syncer := NewEventStatusSyncer(mockService, 10*time.Millisecond)

	go syncer.Start(context.Background())

	time.Sleep(50 * time.Millisecond)
	syncer.Stop()

	// Stop は doneCh の close を待つのでここに到達すれば終了済み
	select {
	case <-syncer.doneCh:
	default:
		t.Fatal("doneCh should be closed after Stop")
	}
}

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lorrc/user-directory/internal/core/domain"
	"github.com/lorrc/user-directory/internal/core/ports"
)

// MockPageFetcher is a mock implementation of ports.PageFetcher
type MockPageFetcher struct {
	mock.Mock
}

var _ ports.PageFetcher = (*MockPageFetcher)(nil)

func NewMockPageFetcher() *MockPageFetcher {
	return &MockPageFetcher{}
}

func (m *MockPageFetcher) FetchPage(ctx context.Context, page int) (*domain.Page, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Page), args.Error(1)
}

// MockDeletionIntent is a mock implementation of ports.DeletionIntent
type MockDeletionIntent struct {
	mock.Mock
}

var _ ports.DeletionIntent = (*MockDeletionIntent)(nil)

func NewMockDeletionIntent() *MockDeletionIntent {
	return &MockDeletionIntent{}
}

func (m *MockDeletionIntent) RequestDeletion(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockPageCacheInvalidator is a mock implementation of ports.PageCacheInvalidator
type MockPageCacheInvalidator struct {
	mock.Mock
}

func NewMockPageCacheInvalidator() *MockPageCacheInvalidator {
	return &MockPageCacheInvalidator{}
}

func (m *MockPageCacheInvalidator) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(event domain.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockMetricsRecorder is a mock implementation of ports.MetricsRecorder
type MockMetricsRecorder struct {
	mock.Mock
}

func NewMockMetricsRecorder() *MockMetricsRecorder {
	return &MockMetricsRecorder{}
}

func (m *MockMetricsRecorder) PageFetched(outcome string) {
	m.Called(outcome)
}

func (m *MockMetricsRecorder) DeletionSettled(outcome string) {
	m.Called(outcome)
}

// MockDeletionJournal is a mock implementation of ports.DeletionJournal
type MockDeletionJournal struct {
	mock.Mock
}

var _ ports.DeletionJournal = (*MockDeletionJournal)(nil)

func NewMockDeletionJournal() *MockDeletionJournal {
	return &MockDeletionJournal{}
}

func (m *MockDeletionJournal) List(ctx context.Context, limit int) ([]domain.DeletionRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DeletionRecord), args.Error(1)
}

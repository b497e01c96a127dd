package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/olusolaa/smartvault/internal/core/domain"
	"github.com/olusolaa/smartvault/internal/core/ports"
)

// MockLogger records calls with the variadic arguments collapsed into one
// slice, so expectations always take ctx, format and args.
type MockLogger struct {
	mock.Mock
}

// NewPermissiveLogger returns a MockLogger that accepts any log call.
func NewPermissiveLogger() *MockLogger {
	m := new(MockLogger)
	m.On("Debugf", mock.Anything, mock.Anything, mock.Anything).Maybe().Return()
	m.On("Infof", mock.Anything, mock.Anything, mock.Anything).Maybe().Return()
	m.On("Warnf", mock.Anything, mock.Anything, mock.Anything).Maybe().Return()
	m.On("Errorf", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Maybe().Return()
	m.On("WithFields", mock.Anything).Maybe().Return(m)
	return m
}

func (m *MockLogger) Debugf(ctx context.Context, format string, args ...any) {
	m.Called(ctx, format, args)
}

func (m *MockLogger) Infof(ctx context.Context, format string, args ...any) {
	m.Called(ctx, format, args)
}

func (m *MockLogger) Warnf(ctx context.Context, format string, args ...any) {
	m.Called(ctx, format, args)
}

func (m *MockLogger) Errorf(ctx context.Context, err error, format string, args ...any) {
	m.Called(ctx, err, format, args)
}

func (m *MockLogger) WithFields(fields map[string]any) ports.Logger {
	args := m.Called(fields)
	return args.Get(0).(ports.Logger)
}

// MockBackupPlatform is a mock implementation of ports.BackupPlatform
type MockBackupPlatform struct {
	mock.Mock
}

func (m *MockBackupPlatform) Type() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockBackupPlatform) Identity(ctx context.Context) (domain.AccountIdentity, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.AccountIdentity), args.Error(1)
}

func (m *MockBackupPlatform) ListInstances(ctx context.Context, filters map[string]string) ([]domain.Instance, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Instance), args.Error(1)
}

func (m *MockBackupPlatform) CreateSnapshot(ctx context.Context, req domain.SnapshotRequest) (domain.Snapshot, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Snapshot), args.Error(1)
}

func (m *MockBackupPlatform) TagSnapshot(ctx context.Context, snapshotID string, tags map[string]string) error {
	args := m.Called(ctx, snapshotID, tags)
	return args.Error(0)
}

func (m *MockBackupPlatform) ListSnapshots(ctx context.Context, tagKey string) ([]domain.Snapshot, error) {
	args := m.Called(ctx, tagKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Snapshot), args.Error(1)
}

func (m *MockBackupPlatform) DeleteSnapshot(ctx context.Context, snapshotID string) error {
	args := m.Called(ctx, snapshotID)
	return args.Error(0)
}

// MockNotifier is a mock implementation of ports.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Type() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockNotifier) Notify(ctx context.Context, n domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// MockReporter is a mock implementation of ports.Reporter
type MockReporter struct {
	mock.Mock
}

func (m *MockReporter) Report(ctx context.Context, summary domain.BackupSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

// MockBackupEngine is a mock implementation of ports.BackupEngine
type MockBackupEngine struct {
	mock.Mock
}

func (m *MockBackupEngine) Run(ctx context.Context) (domain.BackupSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.BackupSummary), args.Error(1)
}

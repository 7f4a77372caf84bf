package tools

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
)

type MockSparkHistoryClient struct {
	mock.Mock
}

func (m *MockSparkHistoryClient) Name() string {
	return "local"
}

func (m *MockSparkHistoryClient) ListApplications(ctx context.Context, filter sparkhistory.ApplicationListFilter) ([]sparkhistory.ApplicationInfo, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sparkhistory.ApplicationInfo), args.Error(1)
}

func (m *MockSparkHistoryClient) GetApplication(ctx context.Context, appID string) (*sparkhistory.ApplicationInfo, error) {
	args := m.Called(ctx, appID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sparkhistory.ApplicationInfo), args.Error(1)
}

func (m *MockSparkHistoryClient) ListJobs(ctx context.Context, appID string, status []string) ([]sparkhistory.JobData, error) {
	args := m.Called(ctx, appID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sparkhistory.JobData), args.Error(1)
}

func (m *MockSparkHistoryClient) ListStages(ctx context.Context, appID string, opts sparkhistory.StageListOptions) ([]sparkhistory.StageData, error) {
	args := m.Called(ctx, appID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sparkhistory.StageData), args.Error(1)
}

func (m *MockSparkHistoryClient) ListStageAttempts(ctx context.Context, appID string, stageID int, opts sparkhistory.StageListOptions) ([]sparkhistory.StageData, error) {
	args := m.Called(ctx, appID, stageID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sparkhistory.StageData), args.Error(1)
}

func (m *MockSparkHistoryClient) GetStageAttempt(ctx context.Context, appID string, stageID, attemptID int, opts sparkhistory.StageListOptions) (*sparkhistory.StageData, error) {
	args := m.Called(ctx, appID, stageID, attemptID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sparkhistory.StageData), args.Error(1)
}

func (m *MockSparkHistoryClient) GetStageTaskSummary(ctx context.Context, appID string, stageID, attemptID int, quantiles string) (*sparkhistory.TaskMetricDistributions, error) {
	args := m.Called(ctx, appID, stageID, attemptID, quantiles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sparkhistory.TaskMetricDistributions), args.Error(1)
}

func (m *MockSparkHistoryClient) ListExecutors(ctx context.Context, appID string) ([]sparkhistory.ExecutorSummary, error) {
	args := m.Called(ctx, appID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sparkhistory.ExecutorSummary), args.Error(1)
}

func (m *MockSparkHistoryClient) ListAllExecutors(ctx context.Context, appID string) ([]sparkhistory.ExecutorSummary, error) {
	args := m.Called(ctx, appID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sparkhistory.ExecutorSummary), args.Error(1)
}

func (m *MockSparkHistoryClient) GetEnvironment(ctx context.Context, appID string) (*sparkhistory.ApplicationEnvironmentInfo, error) {
	args := m.Called(ctx, appID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sparkhistory.ApplicationEnvironmentInfo), args.Error(1)
}

func (m *MockSparkHistoryClient) ListSQLExecutions(ctx context.Context, appID string, opts sparkhistory.SQLListOptions) ([]sparkhistory.ExecutionData, error) {
	args := m.Called(ctx, appID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sparkhistory.ExecutionData), args.Error(1)
}

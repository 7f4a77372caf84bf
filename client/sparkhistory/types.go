package sparkhistory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Spark reports wall clock times as "2023-01-01T10:00:00.000GMT".
const sparkTimeLayout = "2006-01-02T15:04:05-0700"

type SparkTime struct {
	time.Time
}

func NewSparkTime(t time.Time) SparkTime {
	return SparkTime{Time: t.UTC()}
}

func (t *SparkTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" || string(data) == `""` || len(data) == 0 {
		t.Time = time.Time{}
		return nil
	}

	// epoch milliseconds
	if data[0] != '"' {
		ms, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("invalid spark timestamp %s: %w", data, err)
		}
		t.Time = time.UnixMilli(int64(ms)).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseSparkTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t SparkTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// ParseSparkTime accepts the History Server GMT form and RFC 3339.
func ParseSparkTime(s string) (time.Time, error) {
	if strings.HasSuffix(s, "GMT") {
		parsed, err := time.Parse(sparkTimeLayout, strings.TrimSuffix(s, "GMT")+"+0000")
		if err == nil {
			return parsed.UTC(), nil
		}
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid spark timestamp %q: %w", s, err)
	}
	return parsed.UTC(), nil
}

const (
	JobRunning   = "RUNNING"
	JobSucceeded = "SUCCEEDED"
	JobFailed    = "FAILED"
	JobUnknown   = "UNKNOWN"

	StageActive   = "ACTIVE"
	StageComplete = "COMPLETE"
	StageFailed   = "FAILED"
	StagePending  = "PENDING"
	StageSkipped  = "SKIPPED"

	TaskRunning = "RUNNING"
	TaskKilled  = "KILLED"
	TaskFailed  = "FAILED"
	TaskSuccess = "SUCCESS"
	TaskUnknown = "UNKNOWN"

	AppCompleted = "COMPLETED"
	AppRunning   = "RUNNING"
)

type VersionInfo struct {
	Spark string `json:"spark"`
}

type ApplicationInfo struct {
	ID                  string                   `json:"id"`
	Name                string                   `json:"name"`
	CoresGranted        int                      `json:"coresGranted,omitempty"`
	MaxCores            int                      `json:"maxCores,omitempty"`
	CoresPerExecutor    int                      `json:"coresPerExecutor,omitempty"`
	MemoryPerExecutorMB int                      `json:"memoryPerExecutorMB,omitempty"`
	Attempts            []ApplicationAttemptInfo `json:"attempts"`
}

// LastAttempt returns the most recent attempt, if any.
func (a ApplicationInfo) LastAttempt() (ApplicationAttemptInfo, bool) {
	if len(a.Attempts) == 0 {
		return ApplicationAttemptInfo{}, false
	}
	return a.Attempts[len(a.Attempts)-1], true
}

// Completed reports whether every attempt of the application has finished.
func (a ApplicationInfo) Completed() bool {
	if len(a.Attempts) == 0 {
		return false
	}
	for _, at := range a.Attempts {
		if !at.Completed {
			return false
		}
	}
	return true
}

type ApplicationAttemptInfo struct {
	AttemptID       string    `json:"attemptId,omitempty"`
	StartTime       SparkTime `json:"startTime"`
	EndTime         SparkTime `json:"endTime"`
	LastUpdated     SparkTime `json:"lastUpdated"`
	Duration        int64     `json:"duration"`
	SparkUser       string    `json:"sparkUser"`
	Completed       bool      `json:"completed"`
	AppSparkVersion string    `json:"appSparkVersion"`
}

type ApplicationListFilter struct {
	Status     []string
	MinDate    string
	MaxDate    string
	MinEndDate string
	MaxEndDate string
	Limit      int
}

type JobData struct {
	JobID               int            `json:"jobId"`
	Name                string         `json:"name"`
	Description         string         `json:"description,omitempty"`
	SubmissionTime      SparkTime      `json:"submissionTime"`
	CompletionTime      SparkTime      `json:"completionTime"`
	StageIDs            []int          `json:"stageIds"`
	JobGroup            string         `json:"jobGroup,omitempty"`
	JobTags             []string       `json:"jobTags,omitempty"`
	Status              string         `json:"status"`
	NumTasks            int            `json:"numTasks"`
	NumActiveTasks      int            `json:"numActiveTasks"`
	NumCompletedTasks   int            `json:"numCompletedTasks"`
	NumSkippedTasks     int            `json:"numSkippedTasks"`
	NumFailedTasks      int            `json:"numFailedTasks"`
	NumKilledTasks      int            `json:"numKilledTasks"`
	NumCompletedIndices int            `json:"numCompletedIndices"`
	NumActiveStages     int            `json:"numActiveStages"`
	NumCompletedStages  int            `json:"numCompletedStages"`
	NumSkippedStages    int            `json:"numSkippedStages"`
	NumFailedStages     int            `json:"numFailedStages"`
	KilledTasksSummary  map[string]int `json:"killedTasksSummary,omitempty"`
}

// Duration is zero unless both submission and completion are known.
func (j JobData) Duration() time.Duration {
	if j.SubmissionTime.IsZero() || j.CompletionTime.IsZero() {
		return 0
	}
	return j.CompletionTime.Sub(j.SubmissionTime.Time)
}

type StageListOptions struct {
	Status        []string
	Details       bool
	WithSummaries bool
	Quantiles     string
	TaskStatus    []string
}

const DefaultQuantiles = "0.05,0.25,0.5,0.75,0.95"

type StageData struct {
	Status                       string                          `json:"status"`
	StageID                      int                             `json:"stageId"`
	AttemptID                    int                             `json:"attemptId"`
	NumTasks                     int                             `json:"numTasks"`
	NumActiveTasks               int                             `json:"numActiveTasks"`
	NumCompleteTasks             int                             `json:"numCompleteTasks"`
	NumFailedTasks               int                             `json:"numFailedTasks"`
	NumKilledTasks               int                             `json:"numKilledTasks"`
	NumCompletedIndices          int                             `json:"numCompletedIndices"`
	SubmissionTime               SparkTime                       `json:"submissionTime"`
	FirstTaskLaunchedTime        SparkTime                       `json:"firstTaskLaunchedTime"`
	CompletionTime               SparkTime                       `json:"completionTime"`
	FailureReason                string                          `json:"failureReason,omitempty"`
	ExecutorDeserializeTime      int64                           `json:"executorDeserializeTime"`
	ExecutorDeserializeCPUTime   int64                           `json:"executorDeserializeCpuTime"`
	ExecutorRunTime              int64                           `json:"executorRunTime"`
	ExecutorCPUTime              int64                           `json:"executorCpuTime"`
	ResultSize                   int64                           `json:"resultSize"`
	JVMGCTime                    int64                           `json:"jvmGcTime"`
	ResultSerializationTime      int64                           `json:"resultSerializationTime"`
	MemoryBytesSpilled           int64                           `json:"memoryBytesSpilled"`
	DiskBytesSpilled             int64                           `json:"diskBytesSpilled"`
	PeakExecutionMemory          int64                           `json:"peakExecutionMemory"`
	InputBytes                   int64                           `json:"inputBytes"`
	InputRecords                 int64                           `json:"inputRecords"`
	OutputBytes                  int64                           `json:"outputBytes"`
	OutputRecords                int64                           `json:"outputRecords"`
	ShuffleRemoteBlocksFetched   int64                           `json:"shuffleRemoteBlocksFetched"`
	ShuffleLocalBlocksFetched    int64                           `json:"shuffleLocalBlocksFetched"`
	ShuffleFetchWaitTime         int64                           `json:"shuffleFetchWaitTime"`
	ShuffleRemoteBytesRead       int64                           `json:"shuffleRemoteBytesRead"`
	ShuffleLocalBytesRead        int64                           `json:"shuffleLocalBytesRead"`
	ShuffleReadBytes             int64                           `json:"shuffleReadBytes"`
	ShuffleReadRecords           int64                           `json:"shuffleReadRecords"`
	ShuffleWriteBytes            int64                           `json:"shuffleWriteBytes"`
	ShuffleWriteTime             int64                           `json:"shuffleWriteTime"`
	ShuffleWriteRecords          int64                           `json:"shuffleWriteRecords"`
	Name                         string                          `json:"name"`
	Description                  string                          `json:"description,omitempty"`
	Details                      string                          `json:"details,omitempty"`
	SchedulingPool               string                          `json:"schedulingPool,omitempty"`
	RDDIDs                       []int                           `json:"rddIds,omitempty"`
	KilledTasksSummary           map[string]int                  `json:"killedTasksSummary,omitempty"`
	ResourceProfileID            int                             `json:"resourceProfileId"`
	ExecutorSummary              map[string]ExecutorStageSummary `json:"executorSummary,omitempty"`
	Tasks                        map[string]TaskData             `json:"tasks,omitempty"`
	TaskMetricsDistributions     *TaskMetricDistributions        `json:"taskMetricsDistributions,omitempty"`
	ExecutorMetricsDistributions *ExecutorMetricsDistributions   `json:"executorMetricsDistributions,omitempty"`
}

// Duration is zero unless both submission and completion are known.
func (s StageData) Duration() time.Duration {
	if s.SubmissionTime.IsZero() || s.CompletionTime.IsZero() {
		return 0
	}
	return s.CompletionTime.Sub(s.SubmissionTime.Time)
}

type ExecutorStageSummary struct {
	TaskTime            int64 `json:"taskTime"`
	FailedTasks         int   `json:"failedTasks"`
	SucceededTasks      int   `json:"succeededTasks"`
	KilledTasks         int   `json:"killedTasks"`
	InputBytes          int64 `json:"inputBytes"`
	InputRecords        int64 `json:"inputRecords"`
	OutputBytes         int64 `json:"outputBytes"`
	OutputRecords       int64 `json:"outputRecords"`
	ShuffleRead         int64 `json:"shuffleRead"`
	ShuffleReadRecords  int64 `json:"shuffleReadRecords"`
	ShuffleWrite        int64 `json:"shuffleWrite"`
	ShuffleWriteRecords int64 `json:"shuffleWriteRecords"`
	MemoryBytesSpilled  int64 `json:"memoryBytesSpilled"`
	DiskBytesSpilled    int64 `json:"diskBytesSpilled"`
	IsExcludedForStage  bool  `json:"isExcludedForStage"`
}

type TaskListOptions struct {
	Offset int
	Length int
	SortBy string
	Status []string
}

type TaskData struct {
	TaskID         int64             `json:"taskId"`
	Index          int               `json:"index"`
	Attempt        int               `json:"attempt"`
	PartitionID    int               `json:"partitionId"`
	LaunchTime     SparkTime         `json:"launchTime"`
	Duration       int64             `json:"duration"`
	ExecutorID     string            `json:"executorId"`
	Host           string            `json:"host"`
	Status         string            `json:"status"`
	TaskLocality   string            `json:"taskLocality"`
	Speculative    bool              `json:"speculative"`
	ErrorMessage   string            `json:"errorMessage,omitempty"`
	TaskMetrics    *TaskMetrics      `json:"taskMetrics,omitempty"`
	ExecutorLogs   map[string]string `json:"executorLogs,omitempty"`
	SchedulerDelay int64             `json:"schedulerDelay"`
}

type TaskMetrics struct {
	ExecutorDeserializeTime int64                `json:"executorDeserializeTime"`
	ExecutorRunTime         int64                `json:"executorRunTime"`
	ExecutorCPUTime         int64                `json:"executorCpuTime"`
	ResultSize              int64                `json:"resultSize"`
	JVMGCTime               int64                `json:"jvmGcTime"`
	MemoryBytesSpilled      int64                `json:"memoryBytesSpilled"`
	DiskBytesSpilled        int64                `json:"diskBytesSpilled"`
	PeakExecutionMemory     int64                `json:"peakExecutionMemory"`
	InputMetrics            *InputMetrics        `json:"inputMetrics,omitempty"`
	OutputMetrics           *OutputMetrics       `json:"outputMetrics,omitempty"`
	ShuffleReadMetrics      *ShuffleReadMetrics  `json:"shuffleReadMetrics,omitempty"`
	ShuffleWriteMetrics     *ShuffleWriteMetrics `json:"shuffleWriteMetrics,omitempty"`
}

type InputMetrics struct {
	BytesRead   int64 `json:"bytesRead"`
	RecordsRead int64 `json:"recordsRead"`
}

type OutputMetrics struct {
	BytesWritten   int64 `json:"bytesWritten"`
	RecordsWritten int64 `json:"recordsWritten"`
}

type ShuffleReadMetrics struct {
	RemoteBlocksFetched int64 `json:"remoteBlocksFetched"`
	LocalBlocksFetched  int64 `json:"localBlocksFetched"`
	FetchWaitTime       int64 `json:"fetchWaitTime"`
	RemoteBytesRead     int64 `json:"remoteBytesRead"`
	LocalBytesRead      int64 `json:"localBytesRead"`
	RecordsRead         int64 `json:"recordsRead"`
}

type ShuffleWriteMetrics struct {
	BytesWritten   int64 `json:"bytesWritten"`
	WriteTime      int64 `json:"writeTime"`
	RecordsWritten int64 `json:"recordsWritten"`
}

// TaskMetricDistributions holds one value per requested quantile for each metric.
type TaskMetricDistributions struct {
	Quantiles                  []float64                        `json:"quantiles"`
	Duration                   []float64                        `json:"duration,omitempty"`
	ExecutorDeserializeTime    []float64                        `json:"executorDeserializeTime,omitempty"`
	ExecutorDeserializeCPUTime []float64                        `json:"executorDeserializeCpuTime,omitempty"`
	ExecutorRunTime            []float64                        `json:"executorRunTime,omitempty"`
	ExecutorCPUTime            []float64                        `json:"executorCpuTime,omitempty"`
	ResultSize                 []float64                        `json:"resultSize,omitempty"`
	JVMGCTime                  []float64                        `json:"jvmGcTime,omitempty"`
	ResultSerializationTime    []float64                        `json:"resultSerializationTime,omitempty"`
	GettingResultTime          []float64                        `json:"gettingResultTime,omitempty"`
	SchedulerDelay             []float64                        `json:"schedulerDelay,omitempty"`
	PeakExecutionMemory        []float64                        `json:"peakExecutionMemory,omitempty"`
	MemoryBytesSpilled         []float64                        `json:"memoryBytesSpilled,omitempty"`
	DiskBytesSpilled           []float64                        `json:"diskBytesSpilled,omitempty"`
	InputMetrics               *InputMetricDistributions        `json:"inputMetrics,omitempty"`
	OutputMetrics              *OutputMetricDistributions       `json:"outputMetrics,omitempty"`
	ShuffleReadMetrics         *ShuffleReadMetricDistributions  `json:"shuffleReadMetrics,omitempty"`
	ShuffleWriteMetrics        *ShuffleWriteMetricDistributions `json:"shuffleWriteMetrics,omitempty"`
}

type InputMetricDistributions struct {
	BytesRead   []float64 `json:"bytesRead,omitempty"`
	RecordsRead []float64 `json:"recordsRead,omitempty"`
}

type OutputMetricDistributions struct {
	BytesWritten   []float64 `json:"bytesWritten,omitempty"`
	RecordsWritten []float64 `json:"recordsWritten,omitempty"`
}

type ShuffleReadMetricDistributions struct {
	ReadBytes           []float64 `json:"readBytes,omitempty"`
	ReadRecords         []float64 `json:"readRecords,omitempty"`
	RemoteBlocksFetched []float64 `json:"remoteBlocksFetched,omitempty"`
	LocalBlocksFetched  []float64 `json:"localBlocksFetched,omitempty"`
	FetchWaitTime       []float64 `json:"fetchWaitTime,omitempty"`
	RemoteBytesRead     []float64 `json:"remoteBytesRead,omitempty"`
	TotalBlocksFetched  []float64 `json:"totalBlocksFetched,omitempty"`
}

type ShuffleWriteMetricDistributions struct {
	WriteBytes   []float64 `json:"writeBytes,omitempty"`
	WriteRecords []float64 `json:"writeRecords,omitempty"`
	WriteTime    []float64 `json:"writeTime,omitempty"`
}

type ExecutorMetricsDistributions struct {
	Quantiles          []float64 `json:"quantiles"`
	TaskTime           []float64 `json:"taskTime,omitempty"`
	FailedTasks        []float64 `json:"failedTasks,omitempty"`
	SucceededTasks     []float64 `json:"succeededTasks,omitempty"`
	KilledTasks        []float64 `json:"killedTasks,omitempty"`
	InputBytes         []float64 `json:"inputBytes,omitempty"`
	OutputBytes        []float64 `json:"outputBytes,omitempty"`
	ShuffleRead        []float64 `json:"shuffleRead,omitempty"`
	ShuffleWrite       []float64 `json:"shuffleWrite,omitempty"`
	MemoryBytesSpilled []float64 `json:"memoryBytesSpilled,omitempty"`
	DiskBytesSpilled   []float64 `json:"diskBytesSpilled,omitempty"`
}

type ExecutorSummary struct {
	ID                string            `json:"id"`
	HostPort          string            `json:"hostPort"`
	IsActive          bool              `json:"isActive"`
	RDDBlocks         int               `json:"rddBlocks"`
	MemoryUsed        int64             `json:"memoryUsed"`
	DiskUsed          int64             `json:"diskUsed"`
	TotalCores        int               `json:"totalCores"`
	MaxTasks          int               `json:"maxTasks"`
	ActiveTasks       int               `json:"activeTasks"`
	FailedTasks       int               `json:"failedTasks"`
	CompletedTasks    int               `json:"completedTasks"`
	TotalTasks        int               `json:"totalTasks"`
	TotalDuration     int64             `json:"totalDuration"`
	TotalGCTime       int64             `json:"totalGCTime"`
	TotalInputBytes   int64             `json:"totalInputBytes"`
	TotalShuffleRead  int64             `json:"totalShuffleRead"`
	TotalShuffleWrite int64             `json:"totalShuffleWrite"`
	MaxMemory         int64             `json:"maxMemory"`
	AddTime           SparkTime         `json:"addTime"`
	RemoveTime        SparkTime         `json:"removeTime"`
	RemoveReason      string            `json:"removeReason,omitempty"`
	ExecutorLogs      map[string]string `json:"executorLogs,omitempty"`
	MemoryMetrics     *MemoryMetrics    `json:"memoryMetrics,omitempty"`
	ResourceProfileID int               `json:"resourceProfileId"`
	IsExcluded        bool              `json:"isExcluded"`
	ExcludedInStages  []int             `json:"excludedInStages,omitempty"`
	PeakMemoryMetrics map[string]int64  `json:"peakMemoryMetrics,omitempty"`
}

type MemoryMetrics struct {
	UsedOnHeapStorageMemory   int64 `json:"usedOnHeapStorageMemory"`
	UsedOffHeapStorageMemory  int64 `json:"usedOffHeapStorageMemory"`
	TotalOnHeapStorageMemory  int64 `json:"totalOnHeapStorageMemory"`
	TotalOffHeapStorageMemory int64 `json:"totalOffHeapStorageMemory"`
}

// Property is a [key, value] pair as returned by the environment endpoint.
type Property [2]string

func (p Property) Key() string   { return p[0] }
func (p Property) Value() string { return p[1] }

type ApplicationEnvironmentInfo struct {
	Runtime           RuntimeInfo           `json:"runtime"`
	SparkProperties   []Property            `json:"sparkProperties"`
	HadoopProperties  []Property            `json:"hadoopProperties"`
	SystemProperties  []Property            `json:"systemProperties"`
	MetricsProperties []Property            `json:"metricsProperties"`
	ClasspathEntries  []Property            `json:"classpathEntries"`
	ResourceProfiles  []ResourceProfileInfo `json:"resourceProfiles,omitempty"`
}

type RuntimeInfo struct {
	JavaVersion  string `json:"javaVersion"`
	JavaHome     string `json:"javaHome"`
	ScalaVersion string `json:"scalaVersion"`
}

type ResourceProfileInfo struct {
	ID                int            `json:"id"`
	ExecutorResources map[string]any `json:"executorResources,omitempty"`
	TaskResources     map[string]any `json:"taskResources,omitempty"`
}

type SQLListOptions struct {
	AttemptID       string
	Details         bool
	PlanDescription bool
	Offset          int
	Length          int
}

type ExecutionData struct {
	ID              int64         `json:"id"`
	Status          string        `json:"status"`
	Description     string        `json:"description"`
	PlanDescription string        `json:"planDescription"`
	SubmissionTime  SparkTime     `json:"submissionTime"`
	Duration        int64         `json:"duration"`
	RunningJobIDs   []int         `json:"runningJobIds"`
	SuccessJobIDs   []int         `json:"successJobIds"`
	FailedJobIDs    []int         `json:"failedJobIds"`
	Nodes           []SQLPlanNode `json:"nodes,omitempty"`
	Edges           []SQLPlanEdge `json:"edges,omitempty"`
}

type SQLPlanNode struct {
	NodeID              int64       `json:"nodeId"`
	NodeName            string      `json:"nodeName"`
	WholeStageCodegenID int64       `json:"wholeStageCodegenId,omitempty"`
	Metrics             []SQLMetric `json:"metrics"`
}

type SQLMetric struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type SQLPlanEdge struct {
	FromID int64 `json:"fromId"`
	ToID   int64 `json:"toId"`
}

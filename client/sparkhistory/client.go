package sparkhistory

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	rq "github.com/carlmjohnson/requests"
	"golang.org/x/time/rate"

	"github.com/drutigliano19/spark-history-mcp/internal/metrics"
)

const (
	DefaultTimeout = 30 * time.Second
	proxyAddress   = "localhost:8157"
)

var (
	appAttemptPattern = regexp.MustCompile(`(.*?/applications/[^/]+/)(.+)`)
	attemptPrefix     = regexp.MustCompile(`^\d+/`)
)

// Config describes how to reach one History Server.
type Config struct {
	URL       string
	Username  string
	Password  string
	Token     string
	VerifySSL bool
	UseProxy  bool
	Timeout   time.Duration
	// RateLimit is the maximum requests per second, 0 disables throttling.
	RateLimit float64
}

type Client struct {
	name       string
	baseURL    string
	conf       Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(name string, conf Config) (c *Client, err error) {
	_, err = url.ParseRequestURI(conf.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid history server url %q: %w", conf.URL, err)
	}
	if conf.Timeout <= 0 {
		conf.Timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: !conf.VerifySSL}
	if conf.UseProxy {
		transport.Proxy = http.ProxyURL(&url.URL{Scheme: "socks5", Host: proxyAddress})
	}

	c = new(Client)
	c.name = name
	c.conf = conf
	c.baseURL = strings.TrimSuffix(conf.URL, "/") + "/api/v1"
	c.httpClient = &http.Client{Transport: transport, Timeout: conf.Timeout}
	if conf.RateLimit > 0 {
		burst := int(conf.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(conf.RateLimit), burst)
	}
	return c, nil
}

// Name is the configured server name the client talks to.
func (c *Client) Name() string {
	return c.name
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) GetVersion(ctx context.Context) (*VersionInfo, error) {
	var res VersionInfo
	if err := c.get(ctx, "version", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListApplications lists applications known to the History Server.
func (c *Client) ListApplications(ctx context.Context, filter ApplicationListFilter) ([]ApplicationInfo, error) {
	params := url.Values{}
	for _, s := range filter.Status {
		params.Add("status", s)
	}
	setIfNotEmpty(params, "minDate", filter.MinDate)
	setIfNotEmpty(params, "maxDate", filter.MaxDate)
	setIfNotEmpty(params, "minEndDate", filter.MinEndDate)
	setIfNotEmpty(params, "maxEndDate", filter.MaxEndDate)
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}

	var res []ApplicationInfo
	if err := c.get(ctx, "applications", params, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) GetApplication(ctx context.Context, appID string) (*ApplicationInfo, error) {
	var res ApplicationInfo
	if err := c.get(ctx, fmt.Sprintf("applications/%s", url.PathEscape(appID)), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ListJobs(ctx context.Context, appID string, status []string) ([]JobData, error) {
	params := url.Values{}
	for _, s := range status {
		params.Add("status", s)
	}
	var res []JobData
	if err := c.get(ctx, fmt.Sprintf("applications/%s/jobs", url.PathEscape(appID)), params, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) GetJob(ctx context.Context, appID string, jobID int) (*JobData, error) {
	var res JobData
	if err := c.get(ctx, fmt.Sprintf("applications/%s/jobs/%d", url.PathEscape(appID), jobID), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListStages lists the stages of an application. Some History Server
// versions return summaries the decoder cannot read, in which case the call
// is repeated without them.
func (c *Client) ListStages(ctx context.Context, appID string, opts StageListOptions) ([]StageData, error) {
	endpoint := fmt.Sprintf("applications/%s/stages", url.PathEscape(appID))
	var res []StageData
	err := c.get(ctx, endpoint, stageParams(opts), &res)
	if err != nil && opts.WithSummaries && isDecodeErr(err) {
		slog.Debug("retrying stage listing without summaries", "app_id", appID, "error", err)
		opts.WithSummaries = false
		res = nil
		err = c.get(ctx, endpoint, stageParams(opts), &res)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) ListStageAttempts(ctx context.Context, appID string, stageID int, opts StageListOptions) ([]StageData, error) {
	var res []StageData
	err := c.get(ctx, fmt.Sprintf("applications/%s/stages/%d", url.PathEscape(appID), stageID), stageParams(opts), &res)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) GetStageAttempt(ctx context.Context, appID string, stageID, attemptID int, opts StageListOptions) (*StageData, error) {
	var res StageData
	err := c.get(ctx, fmt.Sprintf("applications/%s/stages/%d/%d", url.PathEscape(appID), stageID, attemptID), stageParams(opts), &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetStageTaskSummary(ctx context.Context, appID string, stageID, attemptID int, quantiles string) (*TaskMetricDistributions, error) {
	if quantiles == "" {
		quantiles = DefaultQuantiles
	}
	params := url.Values{"quantiles": {quantiles}}
	var res TaskMetricDistributions
	err := c.get(ctx, fmt.Sprintf("applications/%s/stages/%d/%d/taskSummary", url.PathEscape(appID), stageID, attemptID), params, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ListStageTasks(ctx context.Context, appID string, stageID, attemptID int, opts TaskListOptions) ([]TaskData, error) {
	if opts.Length <= 0 {
		opts.Length = 20
	}
	if opts.SortBy == "" {
		opts.SortBy = "ID"
	}
	params := url.Values{
		"offset": {strconv.Itoa(opts.Offset)},
		"length": {strconv.Itoa(opts.Length)},
		"sortBy": {opts.SortBy},
	}
	for _, s := range opts.Status {
		params.Add("status", s)
	}
	var res []TaskData
	err := c.get(ctx, fmt.Sprintf("applications/%s/stages/%d/%d/taskList", url.PathEscape(appID), stageID, attemptID), params, &res)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListExecutors returns the active executors only.
func (c *Client) ListExecutors(ctx context.Context, appID string) ([]ExecutorSummary, error) {
	var res []ExecutorSummary
	if err := c.get(ctx, fmt.Sprintf("applications/%s/executors", url.PathEscape(appID)), nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// ListAllExecutors returns active and removed executors.
func (c *Client) ListAllExecutors(ctx context.Context, appID string) ([]ExecutorSummary, error) {
	var res []ExecutorSummary
	if err := c.get(ctx, fmt.Sprintf("applications/%s/allexecutors", url.PathEscape(appID)), nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) GetEnvironment(ctx context.Context, appID string) (*ApplicationEnvironmentInfo, error) {
	var res ApplicationEnvironmentInfo
	if err := c.get(ctx, fmt.Sprintf("applications/%s/environment", url.PathEscape(appID)), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ListSQLExecutions(ctx context.Context, appID string, opts SQLListOptions) ([]ExecutionData, error) {
	if opts.Length <= 0 {
		opts.Length = 20
	}
	params := url.Values{
		"details":         {strconv.FormatBool(opts.Details)},
		"planDescription": {strconv.FormatBool(opts.PlanDescription)},
		"offset":          {strconv.Itoa(opts.Offset)},
		"length":          {strconv.Itoa(opts.Length)},
	}
	var res []ExecutionData
	if err := c.get(ctx, sqlEndpoint(appID, opts.AttemptID, ""), params, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) GetSQLExecution(ctx context.Context, appID string, executionID int64, opts SQLListOptions) (*ExecutionData, error) {
	params := url.Values{
		"details":         {strconv.FormatBool(opts.Details)},
		"planDescription": {strconv.FormatBool(opts.PlanDescription)},
	}
	var res ExecutionData
	err := c.get(ctx, sqlEndpoint(appID, opts.AttemptID, strconv.FormatInt(executionID, 10)), params, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func sqlEndpoint(appID, attemptID, executionID string) string {
	endpoint := fmt.Sprintf("applications/%s", url.PathEscape(appID))
	if attemptID != "" {
		endpoint += "/" + url.PathEscape(attemptID)
	}
	endpoint += "/sql"
	if executionID != "" {
		endpoint += "/" + url.PathEscape(executionID)
	}
	return endpoint
}

func stageParams(opts StageListOptions) url.Values {
	quantiles := opts.Quantiles
	if quantiles == "" {
		quantiles = DefaultQuantiles
	}
	params := url.Values{
		"details":       {strconv.FormatBool(opts.Details)},
		"withSummaries": {strconv.FormatBool(opts.WithSummaries)},
		"quantiles":     {quantiles},
	}
	for _, s := range opts.Status {
		params.Add("status", s)
	}
	// taskStatus is ignored by the server unless details are requested
	if opts.Details {
		for _, s := range opts.TaskStatus {
			params.Add("taskStatus", s)
		}
	}
	return params
}

func setIfNotEmpty(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}

// get fetches endpoint into v. A 404 on an application URL is retried once
// with attempt id 1, which YARN deployments require.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, v any) error {
	uri := c.baseURL + "/" + strings.TrimPrefix(endpoint, "/")

	err := c.fetch(ctx, uri, params, v)
	if err == nil {
		return nil
	}
	if !rq.HasStatusErr(err, http.StatusNotFound) || !strings.Contains(uri, "/applications/") {
		return err
	}

	modified := WithDefaultAttempt(uri)
	if modified == uri {
		return err
	}
	slog.Debug("retrying with default attempt id", "server", c.name, "url", modified)
	metrics.RecordFallback(c.name)
	if err2 := c.fetch(ctx, modified, params, v); err2 != nil {
		return fmt.Errorf("%w (after %w)", err2, err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, uri string, params url.Values, v any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	err := c.request(uri, params).
		ToJSON(v).
		Fetch(ctx)
	metrics.RecordHistoryRequest(c.name, requestStatus(err))
	return err
}

func (c *Client) request(uri string, params url.Values) *rq.Builder {
	b := rq.URL(uri).
		Client(c.httpClient).
		Accept("application/json")
	for key, values := range params {
		b.Param(key, values...)
	}
	if c.conf.Username != "" && c.conf.Password != "" {
		b.BasicAuth(c.conf.Username, c.conf.Password)
	}
	if c.conf.Token != "" {
		b.Bearer(c.conf.Token)
	}
	return b
}

// WithDefaultAttempt inserts attempt id 1 after applications/<id>/ unless
// the path already names an attempt.
func WithDefaultAttempt(uri string) string {
	m := appAttemptPattern.FindStringSubmatch(uri)
	if m == nil {
		return uri
	}
	prefix, suffix := m[1], m[2]
	if attemptPrefix.MatchString(suffix) {
		return uri
	}
	return prefix + "1/" + suffix
}

func requestStatus(err error) string {
	switch {
	case err == nil:
		return metrics.StatusSuccess
	case rq.HasStatusErr(err, http.StatusNotFound):
		return metrics.StatusNotFound
	default:
		return metrics.StatusError
	}
}

func isDecodeErr(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
)

func TestTruncatePlan(t *testing.T) {
	t.Run("short plan untouched", func(t *testing.T) {
		assert.Equal(t, "Scan parquet", TruncatePlan("Scan parquet", 100))
	})

	t.Run("cuts at late line break", func(t *testing.T) {
		plan := strings.Repeat("a", 90) + "\n" + strings.Repeat("b", 50)
		assert.Equal(t, strings.Repeat("a", 90)+truncatedMarker, TruncatePlan(plan, 100))
	})

	t.Run("ignores early line break", func(t *testing.T) {
		plan := strings.Repeat("a", 10) + "\n" + strings.Repeat("b", 200)
		got := TruncatePlan(plan, 100)
		assert.Equal(t, plan[:100]+truncatedMarker, got)
	})
}

func TestListSlowestSQLQueries(t *testing.T) {
	ctx := context.Background()
	execs := []sparkhistory.ExecutionData{
		{ID: 0, Status: "COMPLETED", Duration: 1000, Description: "select 1", PlanDescription: "== Physical Plan ==\nScan"},
		{ID: 1, Status: "COMPLETED", Duration: 9000, Description: "big join", PlanDescription: strings.Repeat("x", 50), SuccessJobIDs: []int{3, 4}},
		{ID: 2, Status: "RUNNING", Duration: 20000, Description: "still going"},
	}
	page := func(offset, length int) sparkhistory.SQLListOptions {
		return sparkhistory.SQLListOptions{Details: true, PlanDescription: true, Offset: offset, Length: length}
	}

	t.Run("pages until a short page", func(t *testing.T) {
		tools, m := newTestTool()
		m.On("ListSQLExecutions", ctx, "app-1", page(0, 2)).Return(execs[:2], nil).Once()
		m.On("ListSQLExecutions", ctx, "app-1", page(2, 2)).Return(execs[2:], nil).Once()

		result, _, err := tools.ListSlowestSQLQueries(ctx, nil, SlowestSQLParams{
			AppID:                    "app-1",
			PageSize:                 2,
			TopN:                     2,
			PlanDescriptionMaxLength: 20,
		})

		require.NoError(t, err)
		var queries []SQLQuerySummary
		require.NoError(t, json.Unmarshal([]byte(text(t, result)), &queries))
		require.Len(t, queries, 2)
		assert.Equal(t, int64(1), queries[0].ID)
		assert.Equal(t, strings.Repeat("x", 20)+truncatedMarker, queries[0].PlanDescription)
		assert.Equal(t, []int{3, 4}, queries[0].JobSummary.SuccessJobIDs)
		assert.Equal(t, int64(0), queries[1].ID)
		m.AssertExpectations(t)
	})

	t.Run("include running", func(t *testing.T) {
		tools, m := newTestTool()
		m.On("ListSQLExecutions", ctx, "app-1", page(0, 100)).Return(execs, nil).Once()

		result, _, err := tools.ListSlowestSQLQueries(ctx, nil, SlowestSQLParams{AppID: "app-1", IncludeRunning: true})

		require.NoError(t, err)
		var queries []SQLQuerySummary
		require.NoError(t, json.Unmarshal([]byte(text(t, result)), &queries))
		require.Len(t, queries, 1)
		assert.Equal(t, "still going", queries[0].Description)
	})

	t.Run("client error", func(t *testing.T) {
		tools, m := newTestTool()
		m.On("ListSQLExecutions", ctx, "app-1", page(0, 100)).Return(nil, assert.AnError).Once()

		_, _, err := tools.ListSlowestSQLQueries(ctx, nil, SlowestSQLParams{AppID: "app-1"})
		assert.ErrorIs(t, err, assert.AnError)
	})
}

package observability_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/canopy/pkg/command"
	"github.com/aretw0/canopy/pkg/hooks"
	"github.com/aretw0/canopy/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveCommand(t *testing.T) {
	m := observability.NewMetrics()
	engine := command.NewEngine()
	engine.Finally(m.ObserveCommand)
	engine.Register("fail", command.Func{
		Run: func(ctx context.Context, args command.Args) (any, error) {
			return nil, errors.New("boom")
		},
	})

	ctx := context.Background()
	_, err := engine.Run(ctx, "ping", nil)
	require.NoError(t, err)
	_, err = engine.Run(ctx, "ping", nil)
	require.NoError(t, err)
	_, err = engine.Run(ctx, "fail", nil)
	require.Error(t, err)

	expected := `
# HELP canopy_commands_total Total number of command executions by outcome
# TYPE canopy_commands_total counter
canopy_commands_total{command="fail",status="execution"} 1
canopy_commands_total{command="ping",status="success"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "canopy_commands_total"))
	assert.Equal(t, 2, seriesCount(t, m, "canopy_command_duration_seconds"))
}

func TestMetrics_ObserveAction(t *testing.T) {
	m := observability.NewMetrics()
	hm := hooks.NewManager(hooks.WithActionObserver(m.ObserveAction))

	ctx := context.Background()
	hm.DoAction(ctx, hooks.ActionElementCreated)
	hm.DoAction(ctx, hooks.ActionElementCreated)
	hm.DoAction(ctx, hooks.ActionDocumentSaved)

	expected := `
# HELP canopy_hook_actions_total Total number of action hook dispatches
# TYPE canopy_hook_actions_total counter
canopy_hook_actions_total{tag="editor:document:saved"} 1
canopy_hook_actions_total{tag="editor:element:created"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "canopy_hook_actions_total"))
}

func TestMetrics_HandlerAndQueue(t *testing.T) {
	m := observability.NewMetrics(observability.WithNamespace("test"))
	m.TrackQueue("test", func() int { return 3 })
	m.ObserveDrop("")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "test_command_queue_length 3")
	assert.Contains(t, body, `test_drop_resolutions_total{algorithm="none"} 1`)
}

func seriesCount(t *testing.T, m *observability.Metrics, name string) int {
	t.Helper()
	n, err := testutil.GatherAndCount(m.Registry(), name)
	require.NoError(t, err)
	return n
}

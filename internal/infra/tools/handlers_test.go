package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bazaarmcp/internal/domain"
	"bazaarmcp/internal/infra/bazaar"
	"bazaarmcp/internal/infra/snapshot"
	"bazaarmcp/internal/infra/telemetry"
)

type harness struct {
	session  *mcp.ClientSession
	store    domain.SnapshotStore
	registry *prometheus.Registry
}

func newHarness(t *testing.T, status int, body string) *harness {
	t.Helper()
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(api.Close)

	registry := prometheus.NewRegistry()
	metrics := telemetry.NewPrometheusMetrics(registry)

	client, err := bazaar.NewClient(domain.BazaarConfig{BaseURL: api.URL, APIKey: "secret", TimeoutSeconds: 5}, zap.NewNop(), bazaar.ClientOptions{Metrics: metrics})
	require.NoError(t, err)
	store, err := snapshot.NewFileStore(filepath.Join(t.TempDir(), "past_data"), zap.NewNop(), metrics)
	require.NoError(t, err)

	surface, err := NewSurface(Options{
		Fetcher:     client,
		Store:       store,
		SaveOnFetch: true,
		Clock:       func() time.Time { return time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC) },
		Logger:      zap.NewNop(),
		Metrics:     metrics,
	})
	require.NoError(t, err)

	ctx := context.Background()
	server := NewServer(surface, nil)
	ct, st := mcp.NewInMemoryTransports()
	_, err = server.Connect(ctx, st, nil)
	require.NoError(t, err)

	mcpClient := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "0.1.0"}, nil)
	session, err := mcpClient.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	return &harness{session: session, store: store, registry: registry}
}

func (h *harness) call(t *testing.T, name string, args map[string]any) (string, error) {
	t.Helper()
	params := &mcp.CallToolParams{Name: name}
	if args != nil {
		params.Arguments = args
	}
	res, err := h.session.CallTool(context.Background(), params)
	if err != nil {
		return "", err
	}
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	if res.IsError {
		return "", &toolError{text: text.Text}
	}
	return text.Text, nil
}

type toolError struct{ text string }

func (e *toolError) Error() string { return e.text }

const coalFeed = `{"success":true,"products":{"ENCHANTED_COAL":{"buyPrice":10}}}`

func TestTools_ListedWithSchemas(t *testing.T) {
	h := newHarness(t, http.StatusOK, coalFeed)

	res, err := h.session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{ToolBazaarAll, ToolBazaarItem, ToolLoadSnapshot, ToolListSnapshots}, names)
}

func TestTools_BazaarItemScenario(t *testing.T) {
	h := newHarness(t, http.StatusOK, coalFeed)

	text, err := h.call(t, ToolBazaarItem, map[string]any{"item_id": "ENCHANTED_COAL"})
	require.NoError(t, err)
	require.JSONEq(t, `{"buyPrice":10}`, text)

	text, err = h.call(t, ToolBazaarItem, map[string]any{"item_id": "NOT_REAL"})
	require.NoError(t, err)
	require.JSONEq(t, `{"error":"Item not found"}`, text)

	require.Equal(t, float64(1), counterValue(t, h.registry, "bazaarmcp_tool_calls_total", map[string]string{"tool": ToolBazaarItem, "status": "not_found"}))
	require.Equal(t, float64(1), counterValue(t, h.registry, "bazaarmcp_tool_calls_total", map[string]string{"tool": ToolBazaarItem, "status": "success"}))
}

func TestTools_BazaarAllThenLoadSnapshot(t *testing.T) {
	h := newHarness(t, http.StatusOK, coalFeed)

	all, err := h.call(t, ToolBazaarAll, nil)
	require.NoError(t, err)
	require.JSONEq(t, coalFeed, all)

	list, err := h.call(t, ToolListSnapshots, nil)
	require.NoError(t, err)
	require.JSONEq(t, `{"timestamps":["20240102030405"]}`, list)

	loaded, err := h.call(t, ToolLoadSnapshot, map[string]any{"timestamp": "20240102030405"})
	require.NoError(t, err)
	require.JSONEq(t, coalFeed, loaded)
}

func TestTools_LoadSnapshotMissing(t *testing.T) {
	h := newHarness(t, http.StatusOK, coalFeed)

	text, err := h.call(t, ToolLoadSnapshot, map[string]any{"timestamp": "nonexistent-key"})
	require.NoError(t, err)
	require.JSONEq(t, `{"error":"No data found for timestamp: nonexistent-key"}`, text)
}

func TestTools_ListSnapshotsEmpty(t *testing.T) {
	h := newHarness(t, http.StatusOK, coalFeed)

	text, err := h.call(t, ToolListSnapshots, nil)
	require.NoError(t, err)
	require.Equal(t, `{"timestamps":[]}`, text)
}

func TestTools_FetchErrorIsAFault(t *testing.T) {
	h := newHarness(t, http.StatusInternalServerError, `{"success":false}`)

	_, err := h.call(t, ToolBazaarAll, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "500")

	_, err = h.call(t, ToolBazaarItem, map[string]any{"item_id": "ENCHANTED_COAL"})
	require.Error(t, err)

	keys, err := h.store.ListKeys(context.Background())
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestTools_MissingArgument(t *testing.T) {
	h := newHarness(t, http.StatusOK, coalFeed)

	_, err := h.call(t, ToolBazaarItem, map[string]any{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "item_id")

	_, err = h.call(t, ToolLoadSnapshot, map[string]any{"timestamp": 20240102030405})
	require.Error(t, err)
	require.Contains(t, err.Error(), "timestamp")
}

func TestToolSchemas_ValidateArguments(t *testing.T) {
	item := BazaarItemTool()
	schema, ok := item.InputSchema.(*jsonschema.Schema)
	require.True(t, ok)
	resolved, err := schema.Resolve(nil)
	require.NoError(t, err)

	require.NoError(t, resolved.Validate(map[string]any{"item_id": "ENCHANTED_COAL"}))
	require.Error(t, resolved.Validate(map[string]any{}))
	require.Error(t, resolved.Validate(map[string]any{"item_id": 7.0}))

	raw, err := json.Marshal(LoadSnapshotTool().InputSchema)
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"object","properties":{"timestamp":{"type":"string","description":"Snapshot timestamp key, e.g. 20240102030405."}},"required":["timestamp"]}`, string(raw))
}

func counterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			got := make(map[string]string, len(metric.GetLabel()))
			for _, label := range metric.GetLabel() {
				got[label.GetName()] = label.GetValue()
			}
			if reflect.DeepEqual(got, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func TestStringArg(t *testing.T) {
	value, err := stringArg(json.RawMessage(`{"item_id":"ENCHANTED_COAL"}`), argItemID)
	require.NoError(t, err)
	require.Equal(t, "ENCHANTED_COAL", value)

	_, err = stringArg(nil, argItemID)
	require.ErrorIs(t, err, domain.ErrMissingArgument)
	code, ok := domain.CodeFrom(err)
	require.True(t, ok)
	require.Equal(t, domain.CodeInvalidArgument, code)

	_, err = stringArg(json.RawMessage(`[1,2]`), argItemID)
	code, ok = domain.CodeFrom(err)
	require.True(t, ok)
	require.Equal(t, domain.CodeInvalidArgument, code)
}

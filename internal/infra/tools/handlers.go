package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"bazaarmcp/internal/domain"
	"bazaarmcp/internal/infra/telemetry"
)

type toolFunc func(ctx context.Context, args json.RawMessage) (string, domain.CallStatus, error)

// NewServer returns an MCP server exposing the surface's tools.
func NewServer(surface *Surface, impl *mcp.Implementation) *mcp.Server {
	if impl == nil {
		impl = &mcp.Implementation{
			Name:    domain.DefaultServerName,
			Version: domain.DefaultServerVersion,
		}
	}
	server := mcp.NewServer(impl, &mcp.ServerOptions{HasTools: true})
	surface.Register(server)
	return server
}

// Register adds the four bazaar tools to server.
func (s *Surface) Register(server *mcp.Server) {
	all := BazaarAllTool()
	server.AddTool(&all, s.handler(ToolBazaarAll, s.bazaarAll))

	item := BazaarItemTool()
	server.AddTool(&item, s.handler(ToolBazaarItem, s.bazaarItem))

	load := LoadSnapshotTool()
	server.AddTool(&load, s.handler(ToolLoadSnapshot, s.loadSnapshot))

	list := ListSnapshotsTool()
	server.AddTool(&list, s.handler(ToolListSnapshots, s.listSnapshots))
}

func (s *Surface) bazaarAll(ctx context.Context, _ json.RawMessage) (string, domain.CallStatus, error) {
	text, err := s.BazaarAll(ctx)
	return text, domain.CallStatusSuccess, err
}

func (s *Surface) bazaarItem(ctx context.Context, args json.RawMessage) (string, domain.CallStatus, error) {
	itemID, err := stringArg(args, argItemID)
	if err != nil {
		return "", domain.CallStatusError, err
	}
	text, found, err := s.BazaarItem(ctx, itemID)
	return text, statusFor(found), err
}

func (s *Surface) loadSnapshot(ctx context.Context, args json.RawMessage) (string, domain.CallStatus, error) {
	key, err := stringArg(args, argTimestamp)
	if err != nil {
		return "", domain.CallStatusError, err
	}
	text, found, err := s.LoadSnapshot(ctx, key)
	return text, statusFor(found), err
}

func (s *Surface) listSnapshots(ctx context.Context, _ json.RawMessage) (string, domain.CallStatus, error) {
	text, err := s.ListSnapshots(ctx)
	return text, domain.CallStatusSuccess, err
}

func (s *Surface) handler(name string, fn toolFunc) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx = telemetry.WithRequestID(ctx, telemetry.NewRequestID())
		logger := telemetry.LoggerWithRequest(ctx, s.logger).With(zap.String(telemetry.FieldTool, name))

		var args json.RawMessage
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}

		start := time.Now()
		text, status, err := fn(ctx, args)
		duration := time.Since(start)
		if err != nil {
			status = domain.CallStatusError
		}
		s.metrics.ObserveToolCall(name, status, duration)

		if err != nil {
			code, _ := domain.CodeFrom(err)
			logger.Warn("tool call failed", zap.Error(err), zap.String("code", string(code)), telemetry.DurationField(duration))
			return nil, err
		}
		logger.Info("tool call completed", zap.String(telemetry.FieldStatus, string(status)), telemetry.DurationField(duration))
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil
	}
}

func statusFor(found bool) domain.CallStatus {
	if found {
		return domain.CallStatusSuccess
	}
	return domain.CallStatusNotFound
}

func stringArg(args json.RawMessage, name string) (string, error) {
	if len(args) == 0 {
		return "", missingArgument(name)
	}
	var decoded map[string]any
	if err := json.Unmarshal(args, &decoded); err != nil {
		return "", domain.E(domain.CodeInvalidArgument, "tools.arguments", "", err)
	}
	value, ok := decoded[name].(string)
	if !ok {
		return "", missingArgument(name)
	}
	return value, nil
}

func missingArgument(name string) error {
	return domain.E(domain.CodeInvalidArgument, "tools.arguments", "missing required argument "+name, domain.ErrMissingArgument)
}

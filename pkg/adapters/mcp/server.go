// Package mcp exposes a chart's instances as Model Context Protocol
// tools so agent runtimes can drive state machines directly.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/lanreath/strata"
	"github.com/lanreath/strata/internal/presentation/graph"
	"github.com/lanreath/strata/pkg/domain"
	"github.com/lanreath/strata/pkg/session"
)

// InstanceResponse describes one instance to the calling agent. The
// state name accompanies the raw id so agents can reason in chart
// vocabulary.
type InstanceResponse struct {
	InstanceID string `json:"instance_id" jsonschema_description:"Identifier of the engine instance"`
	Chart      string `json:"chart" jsonschema_description:"Chart the instance runs"`
	Current    uint16 `json:"current" jsonschema_description:"Active state id"`
	State      string `json:"state,omitempty" jsonschema_description:"Name of the active state"`
}

// DispatchResult reports how a dispatched event resolved.
type DispatchResult struct {
	Outcome string `json:"outcome" jsonschema_description:"handled or unhandled"`
	Current uint16 `json:"current" jsonschema_description:"Active state id after the dispatch"`
	State   string `json:"state,omitempty" jsonschema_description:"Name of the active state after the dispatch"`
}

// InstanceListResult carries the known instance ids.
type InstanceListResult struct {
	Instances []string `json:"instances" jsonschema_description:"Known instance ids"`
}

// Server wraps a session manager and exposes it as an MCP server.
type Server struct {
	manager   *session.Manager
	mcpServer *server.MCPServer
}

// NewServer creates the MCP server for one session manager.
func NewServer(manager *session.Manager) *Server {
	s := &Server{
		manager:   manager,
		mcpServer: server.NewMCPServer("strata-mcp", strings.TrimSpace(strata.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	createTool := mcp.NewTool("create_instance",
		mcp.WithDescription("Create a fresh chart instance positioned at the initial state."),
		mcp.WithOutputSchema[InstanceResponse](),
	)
	s.mcpServer.AddTool(createTool, mcp.NewStructuredToolHandler(s.handleCreate))

	dispatchTool := mcp.NewTool("dispatch_event",
		mcp.WithDescription("Dispatch one event against an instance and report how the hierarchy resolved it."),
		mcp.WithString("instance_id", mcp.Required(), mcp.Description("Target instance id")),
		mcp.WithNumber("event_id", mcp.Required(), mcp.Description("Numeric event id declared by the chart")),
		mcp.WithString("payload", mcp.Description("Opaque payload handed to state handlers as raw bytes (optional)")),
		mcp.WithOutputSchema[DispatchResult](),
	)
	s.mcpServer.AddTool(dispatchTool, mcp.NewStructuredToolHandler(s.handleDispatch))

	getTool := mcp.NewTool("get_current_state",
		mcp.WithDescription("Get the current snapshot of an instance."),
		mcp.WithString("instance_id", mcp.Required(), mcp.Description("Target instance id")),
		mcp.WithOutputSchema[InstanceResponse](),
	)
	s.mcpServer.AddTool(getTool, mcp.NewStructuredToolHandler(s.handleGet))

	listTool := mcp.NewTool("list_instances",
		mcp.WithDescription("List every known instance id."),
		mcp.WithOutputSchema[InstanceListResult](),
	)
	s.mcpServer.AddTool(listTool, mcp.NewStructuredToolHandler(s.handleList))

	s.mcpServer.AddTool(mcp.NewTool("delete_instance",
		mcp.WithDescription("Delete an instance and its persisted snapshot."),
		mcp.WithString("instance_id", mcp.Required(), mcp.Description("Target instance id")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetString("instance_id", "")
		if id == "" {
			return mcp.NewToolResultError("instance_id is required"), nil
		}
		if err := s.manager.Delete(ctx, id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("instance %s deleted", id)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("get_chart",
		mcp.WithDescription("Get the chart definition this server runs, for introspection."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(s.manager.Def())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("marshal chart: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleCreate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (InstanceResponse, error) {
	id, err := s.manager.Create(ctx)
	if err != nil {
		return InstanceResponse{}, fmt.Errorf("create failed: %w", err)
	}
	snap, err := s.manager.Get(ctx, id)
	if err != nil {
		return InstanceResponse{}, fmt.Errorf("create failed: %w", err)
	}
	return s.instanceResponse(snap), nil
}

func (s *Server) handleDispatch(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DispatchResult, error) {
	id, _ := args["instance_id"].(string)
	if id == "" {
		return DispatchResult{}, fmt.Errorf("instance_id is required")
	}
	eventID, ok := args["event_id"].(float64)
	if !ok {
		return DispatchResult{}, fmt.Errorf("event_id is required")
	}
	if eventID < 0 || eventID > 65535 {
		return DispatchResult{}, fmt.Errorf("event_id %v out of range [0, 65535]", eventID)
	}

	var payload []byte
	if text, ok := args["payload"].(string); ok && text != "" {
		payload = []byte(text)
	}

	ev := domain.NewEvent(domain.EventID(eventID), payload)
	out, err := s.manager.Dispatch(ctx, id, ev)
	if err != nil {
		return DispatchResult{}, fmt.Errorf("dispatch failed: %w", err)
	}

	snap, err := s.manager.Get(ctx, id)
	if err != nil {
		return DispatchResult{}, fmt.Errorf("dispatch failed: %w", err)
	}
	return DispatchResult{
		Outcome: out.String(),
		Current: uint16(snap.Current),
		State:   s.stateName(snap.Current),
	}, nil
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (InstanceResponse, error) {
	id, _ := args["instance_id"].(string)
	if id == "" {
		return InstanceResponse{}, fmt.Errorf("instance_id is required")
	}
	snap, err := s.manager.Get(ctx, id)
	if err != nil {
		return InstanceResponse{}, fmt.Errorf("get failed: %w", err)
	}
	return s.instanceResponse(snap), nil
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (InstanceListResult, error) {
	ids, err := s.manager.List(ctx)
	if err != nil {
		return InstanceListResult{}, fmt.Errorf("list failed: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return InstanceListResult{Instances: ids}, nil
}

func (s *Server) instanceResponse(snap *domain.Snapshot) InstanceResponse {
	return InstanceResponse{
		InstanceID: snap.InstanceID,
		Chart:      snap.Chart,
		Current:    uint16(snap.Current),
		State:      s.stateName(snap.Current),
	}
}

func (s *Server) stateName(id domain.StateID) string {
	if sd := s.manager.Def().State(id); sd != nil {
		return sd.Name
	}
	return ""
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("strata://chart", "Chart Definition",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.manager.Def())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal chart: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "strata://chart",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource("strata://chart/diagram", "Chart Diagram",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "strata://chart/diagram",
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(s.manager.Def(), nil),
			},
		}, nil
	})
}

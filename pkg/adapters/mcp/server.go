package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/collision"
	"github.com/aretw0/canopy/pkg/command"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/lifecycle"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	DocumentURI = "canopy://document"
	StatsURI    = "canopy://stats"
)

// CommandResponse is the structured result of run_command.
type CommandResponse struct {
	Command string `json:"command" jsonschema_description:"The command that ran"`
	Result  any    `json:"result,omitempty" jsonschema_description:"The command result; elements are returned as element data"`
}

// DropResponse is the structured result of detect_drop.
type DropResponse struct {
	Found  bool              `json:"found" jsonschema_description:"Whether any candidate qualified"`
	Result *collision.Result `json:"result,omitempty" jsonschema_description:"The chosen drop target"`
}

// Server exposes a Builder as an MCP server.
type Server struct {
	builder   ports.Builder
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(b ports.Builder, opts ...Option) *Server {
	s := &Server{
		builder:   b,
		mcpServer: server.NewMCPServer("canopy-mcp", canopy.Version),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
		return nil
	})

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
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
	// TOOL: run_command
	runTool := mcp.NewTool("run_command",
		mcp.WithDescription("Run a builder command such as elements/create, elements/move or editor/paste."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Registered command name")),
		mcp.WithString("args", mcp.Description("JSON object of command arguments (optional)")),
		mcp.WithString("silent", mcp.Description("\"true\" to swallow failures into a nil result")),
		mcp.WithOutputSchema[CommandResponse](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRunCommand))

	// TOOL: detect_drop
	dropTool := mcp.NewTool("detect_drop",
		mcp.WithDescription("Pick the drop target for a dragged rectangle among candidate rectangles."),
		mcp.WithString("dragged_id", mcp.Description("Id of the element being dragged")),
		mcp.WithString("active", mcp.Required(), mcp.Description("JSON rect {x,y,width,height} of the dragged element")),
		mcp.WithString("candidates", mcp.Required(), mcp.Description("JSON array of {id,rect,alive,isContainer,parentId}")),
		mcp.WithOutputSchema[DropResponse](),
	)
	s.mcpServer.AddTool(dropTool, mcp.NewStructuredToolHandler(s.handleDetectDrop))

	// TOOL: list_elements
	s.mcpServer.AddTool(mcp.NewTool("list_elements",
		mcp.WithDescription("List the element types that can be created."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(s.builder.AvailableElements(ctx))
	})

	// TOOL: get_element
	s.mcpServer.AddTool(mcp.NewTool("get_element",
		mcp.WithDescription("Get one live element and its subtree."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Element id")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		data, ok := s.builder.ElementData(id)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("element %s not found", id)), nil
		}
		return jsonResult(data)
	})

	// TOOL: get_history
	s.mcpServer.AddTool(mcp.NewTool("get_history",
		mcp.WithDescription("List recent command executions."),
		mcp.WithString("command", mcp.Description("Only this command")),
		mcp.WithNumber("limit", mcp.Description("Keep only the most recent N entries")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter := command.HistoryFilter{
			Command: request.GetString("command", ""),
			Limit:   request.GetInt("limit", 0),
		}
		return jsonResult(summarize(s.builder.History(filter)))
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// summarize reduces live element results to their id.
func summarize(history []command.Execution) []command.Execution {
	for i := range history {
		if c, ok := history[i].Result.(*domain.Container); ok && c != nil {
			history[i].Result = map[string]any{"id": c.ID()}
		}
	}
	return history
}

func (s *Server) handleRunCommand(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CommandResponse, error) {
	name, _ := args["name"].(string)
	if name == "" {
		return CommandResponse{}, errors.New("name is required")
	}

	cmdArgs := command.Args{}
	if raw, ok := args["args"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &cmdArgs); err != nil {
			return CommandResponse{}, fmt.Errorf("invalid args: %w", err)
		}
	}

	opts := []command.RunOption{command.Source("mcp")}
	if raw, ok := args["silent"].(string); ok {
		if silent, _ := strconv.ParseBool(raw); silent {
			opts = append(opts, command.Silent())
		}
	}

	result, err := s.builder.Run(ctx, name, cmdArgs, opts...)
	if err != nil {
		s.logger.Warn("MCP run_command failed", "command", name, "err", err)
		return CommandResponse{}, err
	}
	if c, ok := result.(*domain.Container); ok && c != nil {
		if data, ok := s.builder.ElementData(c.ID()); ok {
			result = data
		} else {
			result = map[string]any{"id": c.ID()}
		}
	}
	return CommandResponse{Command: name, Result: result}, nil
}

func (s *Server) handleDetectDrop(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DropResponse, error) {
	var active collision.Rect
	raw, _ := args["active"].(string)
	if err := json.Unmarshal([]byte(raw), &active); err != nil {
		return DropResponse{}, fmt.Errorf("invalid active rect: %w", err)
	}

	var candidates []collision.Candidate
	raw, _ = args["candidates"].(string)
	if err := json.Unmarshal([]byte(raw), &candidates); err != nil {
		return DropResponse{}, fmt.Errorf("invalid candidates: %w", err)
	}

	draggedID, _ := args["dragged_id"].(string)
	result := s.builder.ResolveDrop(draggedID, active, candidates)
	return DropResponse{Found: result != nil, Result: result}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: canopy://document
	s.mcpServer.AddResource(mcp.NewResource(DocumentURI, "Current Document",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return s.readJSON(DocumentURI, s.builder.Serialize())
	})

	// EXPOSE: canopy://stats
	s.mcpServer.AddResource(mcp.NewResource(StatsURI, "Command Statistics",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return s.readJSON(StatsURI, s.builder.Stats())
	})
}

func (s *Server) readJSON(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

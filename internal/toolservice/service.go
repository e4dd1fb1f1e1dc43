// Package toolservice exposes snippet execution as an MCP tool. A model
// calls execute_code with a snippet; the service runs it through the
// executor, classifies any produced files, persists the execution to
// history and returns a text reply the model can act on.
package toolservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/codefox-dev/codefox/internal/common/middleware"
	"github.com/codefox-dev/codefox/internal/config"
	"github.com/codefox-dev/codefox/internal/executor"
	"github.com/codefox-dev/codefox/internal/history"
)

// Version is the current version of the tool service.
const Version = "0.1.0"

const defaultSenderID = "mcp-client"

const executeCodeSchema = `{
	"type": "object",
	"properties": {
		"code": {
			"type": "string",
			"minLength": 1,
			"description": "JavaScript source to execute"
		},
		"description": {
			"type": "string",
			"description": "Short description of what the code does"
		},
		"sender_id": {
			"type": "string",
			"description": "Identifier of the user the execution is on behalf of"
		},
		"image_urls": {
			"type": "array",
			"items": {"type": "string"},
			"description": "Image URLs from the conversation, bound into the snippet as IMAGE_URLS"
		}
	},
	"required": ["code"],
	"additionalProperties": false
}`

var executeCodeSchemaCompiled *jsonschema.Schema

func init() {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("inline://execute_code", bytes.NewReader([]byte(executeCodeSchema))); err != nil {
		panic(err)
	}
	var err error
	executeCodeSchemaCompiled, err = compiler.Compile("inline://execute_code")
	if err != nil {
		panic(err)
	}
}

// executeCodeArgs is the decoded argument set of an execute_code call.
type executeCodeArgs struct {
	Code        string   `mapstructure:"code"`
	Description string   `mapstructure:"description"`
	SenderID    string   `mapstructure:"sender_id"`
	ImageURLs   []string `mapstructure:"image_urls"`
}

// HistoryStore is the persistence the tool service needs. It may be nil
// when no database is configured; executions then run without history.
type HistoryStore interface {
	Insert(ctx context.Context, rec *history.Record) (int64, error)
}

// Service is the MCP-facing tool server.
type Service struct {
	Router *chi.Mux

	mcpServer *server.MCPServer
	store     HistoryStore
}

// CreateNewService creates the tool service over the given history store.
func CreateNewService(store HistoryStore) (*Service, error) {
	s := &Service{
		Router: chi.NewRouter(),
		store:  store,
	}

	s.mcpServer = server.NewMCPServer(
		"codefox-mcp-server",
		Version,
		server.WithToolCapabilities(true),
	)
	s.mcpServer.AddTool(mcp.Tool{
		Name:           "execute_code",
		Description:    "Execute a JavaScript snippet. Output is captured and returned; files written to OUTPUT_DIR or pushed to FILES_TO_SEND are delivered.",
		RawInputSchema: json.RawMessage(executeCodeSchema),
	}, s.handleExecuteCode)

	s.mountHandlers()
	return s, nil
}

func (s *Service) mountHandlers() {
	s.Router.Use(middleware.RequestLogger)
	s.Router.Use(middleware.PanicHandler)
	s.Router.Post("/mcp", s.handleMCP)
}

// handleMCP decodes one JSON-RPC message and hands it to the MCP server.
func (s *Service) handleMCP(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, `{"error": "Invalid JSON"}`)
		return
	}
	resp := s.mcpServer.HandleMessage(r.Context(), raw)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleExecuteCode validates the call, runs the snippet and formats the
// reply. Execution failures are returned as tool errors with the diagnostic
// text, not as protocol errors.
func (s *Service) handleExecuteCode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawArgs, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return errorResult("invalid arguments: expected an object"), nil
	}
	if err := executeCodeSchemaCompiled.Validate(rawArgs); err != nil {
		return errorResult("invalid arguments: " + err.Error()), nil
	}

	args := executeCodeArgs{}
	if err := mapstructure.Decode(rawArgs, &args); err != nil {
		return errorResult("invalid arguments: " + err.Error()), nil
	}
	if args.SenderID == "" {
		args.SenderID = defaultSenderID
	}
	if args.ImageURLs == nil {
		args.ImageURLs = []string{}
	}

	log.Ctx(ctx).Info().
		Str("sender_id", args.SenderID).
		Str("description", args.Description).
		Int("code_len", len(args.Code)).
		Msg("execute_code call")

	cfg := config.Config()
	res := executor.Run(ctx, &executor.Request{
		Code:      args.Code,
		OutputDir: cfg.Executor.OutputDir,
		Aux: map[string]any{
			"IMAGE_URLS": args.ImageURLs,
		},
	}, executor.Options{Timeout: cfg.Executor.Timeout()})

	files := classifyFiles(res.Files)
	reply := formatReply(res, files, cfg.Executor.MaxOutputLength)

	s.persist(ctx, &args, res)

	return &mcp.CallToolResult{
		IsError: !res.Success,
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: reply,
			},
		},
	}, nil
}

// persist records the execution in history. Persistence failures are logged
// and never surfaced to the caller; the execution already happened.
func (s *Service) persist(ctx context.Context, args *executeCodeArgs, res *executor.Result) {
	if s.store == nil {
		return
	}
	_, err := s.store.Insert(ctx, &history.Record{
		SenderID:    args.SenderID,
		Code:        args.Code,
		Description: args.Description,
		Output:      res.Stdout,
		Success:     res.Success,
		ErrorText:   res.ErrorText,
		FilePaths:   res.Files,
		ElapsedMS:   res.Elapsed.Milliseconds(),
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to persist execution record")
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: msg,
			},
		},
	}
}

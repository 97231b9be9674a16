// Package mcptools exposes the MQ keywords as Model Context Protocol tools.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ava-labs/mqlibrary/pkg/keywords"
)

// ServerName identifies this MCP server to clients.
const ServerName = "mqlibrary"

// Server hosts the keyword tools.
type Server struct {
	reg       *keywords.Registry
	log       *zap.SugaredLogger
	mcpServer *server.MCPServer
	tools     []mcp.Tool
}

// Result is the JSON body of a successful tool call.
type Result struct {
	Keyword string `json:"keyword"`
	Return  any    `json:"return,omitempty"`
}

// New registers one tool per keyword of reg.
func New(reg *keywords.Registry, log *zap.SugaredLogger, version string) *Server {
	s := &Server{
		reg: reg,
		log: log,
		mcpServer: server.NewMCPServer(
			ServerName,
			version,
			server.WithToolCapabilities(false),
			server.WithInstructions(keywords.Intro),
		),
	}

	for _, kw := range reg.Keywords() {
		tool := newTool(kw)
		s.tools = append(s.tools, tool)
		s.mcpServer.AddTool(tool, s.handler(kw))
	}
	return s
}

// Tools returns the registered tool definitions in keyword order.
func (s *Server) Tools() []mcp.Tool {
	return s.tools
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Serve serves the tools on stdin/stdout until the input closes or the
// process is signalled.
func (s *Server) Serve() error {
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// ToolName turns a keyword name into a tool name: "Put MQ Message" becomes
// "put_mq_message".
func ToolName(keyword string) string {
	return strings.ToLower(strings.Join(strings.Fields(keyword), "_"))
}

func newTool(kw *keywords.Keyword) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(firstParagraph(kw.Doc)),
	}
	for _, arg := range kw.Args {
		opts = append(opts, argOption(arg))
	}
	return mcp.NewTool(ToolName(kw.Name), opts...)
}

func argOption(arg keywords.Arg) mcp.ToolOption {
	props := []mcp.PropertyOption{}
	if !arg.HasDefault {
		props = append(props, mcp.Required())
	}

	switch arg.Type {
	case keywords.TypeInt:
		props = append(props, mcp.Description(fmt.Sprintf("%s (integer)", arg.Name)))
		if n, ok := arg.Default.(int); ok {
			props = append(props, mcp.DefaultNumber(float64(n)))
		}
		return mcp.WithNumber(arg.Name, props...)
	case keywords.TypeBool:
		props = append(props, mcp.Description(arg.Name))
		if b, ok := arg.Default.(bool); ok {
			props = append(props, mcp.DefaultBool(b))
		}
		return mcp.WithBoolean(arg.Name, props...)
	case keywords.TypeTime:
		props = append(props, mcp.Description(fmt.Sprintf("%s as a time string such as \"5s\", \"1 min 30 s\" or seconds", arg.Name)))
	default:
		props = append(props, mcp.Description(arg.Name))
	}
	if s, ok := arg.Default.(string); ok {
		props = append(props, mcp.DefaultString(s))
	}
	return mcp.WithString(arg.Name, props...)
}

func firstParagraph(doc string) string {
	head, _, _ := strings.Cut(doc, "\n\n")
	return strings.Join(strings.Fields(head), " ")
}

func (s *Server) handler(kw *keywords.Keyword) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ret, err := s.reg.Run(ctx, kw.Name, nil, request.GetArguments())
		if err != nil {
			s.log.Debugw("tool call failed", "tool", request.Params.Name, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		data, err := json.Marshal(Result{Keyword: kw.Name, Return: ret})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

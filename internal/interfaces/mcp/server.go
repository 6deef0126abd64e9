// Package mcp 把课程检索和学习记忆暴露为 MCP 工具
// 外部 AI 客户端（编辑器、桌面助手）可经 SSE 接入
package mcp

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	appmemory "github.com/toheart/courseagent/internal/application/memory"
	apprag "github.com/toheart/courseagent/internal/application/rag"
	"github.com/toheart/courseagent/internal/infrastructure/workspace"
)

// MCPServer MCP 服务器
type MCPServer struct {
	server    *mcp.Server
	handler   http.Handler
	retriever *apprag.Retriever
	tracker   *appmemory.Tracker
	wsStore   *workspace.Store
}

// NewServer 创建 MCP 服务器
func NewServer(
	retriever *apprag.Retriever,
	tracker *appmemory.Tracker,
	wsStore *workspace.Store,
) *MCPServer {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "courseagent",
			Version: "0.1.0",
		},
		nil, // 使用默认能力
	)

	mcpServer := &MCPServer{
		server:    server,
		retriever: retriever,
		tracker:   tracker,
		wsStore:   wsStore,
	}

	// 注册工具：list_courses
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_courses",
		Description: "List all registered courses with document counts and index status. No parameters required.",
	}, mcpServer.listCoursesTool)

	// 注册工具：course_search
	mcp.AddTool(server, &mcp.Tool{
		Name: "course_search",
		Description: `Search course material by semantic similarity and return cited excerpts.
Parameters:
- course (string, required): Course name, must be a registered course
- query (string, required): Natural language query
- top_k (int, optional): Maximum excerpts to return (1-10, default 3)

Returns: excerpts with source document, page number, and similarity score.`,
	}, mcpServer.courseSearchTool)

	// 注册工具：memory_search
	mcp.AddTool(server, &mcp.Tool{
		Name: "memory_search",
		Description: `Search the learning memory of a course: past Q&A, graded practice, and mistakes.
Parameters:
- course (string, required): Course name
- query (string, required): What to look for
- top_k (int, optional): Maximum episodes to return, default 5

Returns: matching episodes ordered by importance and recency.`,
	}, mcpServer.memorySearchTool)

	// 注册工具：list_weak_points
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_weak_points",
		Description: "List the knowledge tags the student is currently weak at for a course. Parameters: course (string, required).",
	}, mcpServer.listWeakPointsTool)

	// 创建 SSE Handler
	handler := mcp.NewSSEHandler(
		func(r *http.Request) *mcp.Server {
			// 每个请求返回同一个服务器实例
			return server
		},
		nil, // SSEOptions，使用默认值
	)

	mcpServer.handler = handler
	return mcpServer
}

// GetHandler 获取 HTTP Handler（用于集成到 HTTP 服务器）
func (s *MCPServer) GetHandler() http.Handler {
	return s.handler
}

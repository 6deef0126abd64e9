package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListCoursesOutput 课程列表工具输出
type ListCoursesOutput struct {
	Courses []CourseInfo `json:"courses" jsonschema:"Registered courses"`
	Total   int          `json:"total" jsonschema:"Total course count"`
}

// CourseInfo 课程摘要
type CourseInfo struct {
	Name          string `json:"name" jsonschema:"Course name"`
	Subject       string `json:"subject,omitempty" jsonschema:"Subject tag"`
	DocumentCount int    `json:"document_count" jsonschema:"Number of uploaded documents"`
	Indexed       bool   `json:"indexed" jsonschema:"Whether the course index is built"`
	IndexStale    bool   `json:"index_stale,omitempty" jsonschema:"Documents changed since last index build"`
}

// listCoursesTool 课程列表工具实现
func (s *MCPServer) listCoursesTool(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, ListCoursesOutput, error) {
	output := ListCoursesOutput{Courses: []CourseInfo{}}

	for _, ws := range s.wsStore.List() {
		output.Courses = append(output.Courses, CourseInfo{
			Name:          ws.CourseName,
			Subject:       ws.Subject,
			DocumentCount: len(ws.Documents),
			Indexed:       s.retriever.HasIndex(ws.CourseName),
			IndexStale:    ws.IndexStale,
		})
	}
	output.Total = len(output.Courses)
	return nil, output, nil
}

// CourseSearchInput 教材检索工具输入
type CourseSearchInput struct {
	Course string `json:"course" jsonschema:"Course name (required)"`
	Query  string `json:"query" jsonschema:"Natural language query (required)"`
	TopK   int    `json:"top_k,omitempty" jsonschema:"Maximum excerpts to return, defaults to 3, max 10"`
}

// CourseSearchOutput 教材检索工具输出
type CourseSearchOutput struct {
	Excerpts []CourseExcerpt `json:"excerpts" jsonschema:"Cited material excerpts"`
	Total    int             `json:"total" jsonschema:"Number of excerpts returned"`
}

// CourseExcerpt 带出处的教材片段
type CourseExcerpt struct {
	Document string  `json:"document" jsonschema:"Source document name"`
	Page     int     `json:"page" jsonschema:"Page number in the source document"`
	Score    float64 `json:"score" jsonschema:"Similarity score in (0,1], higher is closer"`
	Text     string  `json:"text" jsonschema:"Excerpt text"`
}

// courseSearchTool 教材检索工具实现
func (s *MCPServer) courseSearchTool(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CourseSearchInput,
) (*mcp.CallToolResult, CourseSearchOutput, error) {
	output := CourseSearchOutput{Excerpts: []CourseExcerpt{}}

	if input.Course == "" {
		return nil, output, fmt.Errorf("course is required")
	}
	if input.Query == "" {
		return nil, output, fmt.Errorf("query is required")
	}

	topK := input.TopK
	if topK <= 0 {
		topK = 3
	}
	if topK > 10 {
		topK = 10
	}

	citations, err := s.retriever.Retrieve(ctx, input.Course, input.Query, topK)
	if err != nil {
		return nil, output, fmt.Errorf("search failed: %w", err)
	}

	for _, c := range citations {
		output.Excerpts = append(output.Excerpts, CourseExcerpt{
			Document: c.Document,
			Page:     c.Page,
			Score:    c.Score,
			Text:     c.Text,
		})
	}
	output.Total = len(output.Excerpts)
	return nil, output, nil
}

// MemorySearchInput 记忆检索工具输入
type MemorySearchInput struct {
	Course string `json:"course" jsonschema:"Course name (required)"`
	Query  string `json:"query" jsonschema:"What to look for (required)"`
	TopK   int    `json:"top_k,omitempty" jsonschema:"Maximum episodes to return, defaults to 5"`
}

// MemorySearchOutput 记忆检索工具输出
type MemorySearchOutput struct {
	Episodes []MemoryEpisode `json:"episodes" jsonschema:"Matching memory episodes"`
	Total    int             `json:"total" jsonschema:"Number of episodes returned"`
}

// MemoryEpisode 记忆片段
type MemoryEpisode struct {
	Type    string   `json:"type" jsonschema:"Episode type: qa/practice/exam/mistake"`
	Content string   `json:"content" jsonschema:"Episode content"`
	Tags    []string `json:"tags,omitempty" jsonschema:"Knowledge tags"`
	Score   float64  `json:"score" jsonschema:"Score 0-100, -1 for ungraded Q&A"`
	Date    string   `json:"date" jsonschema:"When it happened, YYYY-MM-DD"`
}

// memorySearchTool 记忆检索工具实现
func (s *MCPServer) memorySearchTool(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input MemorySearchInput,
) (*mcp.CallToolResult, MemorySearchOutput, error) {
	output := MemorySearchOutput{Episodes: []MemoryEpisode{}}

	if input.Course == "" {
		return nil, output, fmt.Errorf("course is required")
	}

	topK := input.TopK
	if topK <= 0 {
		topK = 5
	}

	episodes, err := s.tracker.Search(input.Course, input.Query, topK)
	if err != nil {
		return nil, output, fmt.Errorf("memory search failed: %w", err)
	}

	for _, ep := range episodes {
		output.Episodes = append(output.Episodes, MemoryEpisode{
			Type:    string(ep.Type),
			Content: ep.Content,
			Tags:    ep.Tags,
			Score:   ep.Score,
			Date:    ep.CreatedAt.Format("2006-01-02"),
		})
	}
	output.Total = len(output.Episodes)
	return nil, output, nil
}

// ListWeakPointsInput 薄弱点工具输入
type ListWeakPointsInput struct {
	Course string `json:"course" jsonschema:"Course name (required)"`
}

// ListWeakPointsOutput 薄弱点工具输出
type ListWeakPointsOutput struct {
	Tags  []string `json:"tags" jsonschema:"Knowledge tags the student is weak at"`
	Total int      `json:"total" jsonschema:"Number of weak tags"`
}

// listWeakPointsTool 薄弱点工具实现
func (s *MCPServer) listWeakPointsTool(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ListWeakPointsInput,
) (*mcp.CallToolResult, ListWeakPointsOutput, error) {
	output := ListWeakPointsOutput{Tags: []string{}}

	if input.Course == "" {
		return nil, output, fmt.Errorf("course is required")
	}

	tags, err := s.tracker.WeakTags(input.Course)
	if err != nil {
		return nil, output, fmt.Errorf("failed to list weak points: %w", err)
	}
	if tags != nil {
		output.Tags = tags
	}
	output.Total = len(output.Tags)
	return nil, output, nil
}

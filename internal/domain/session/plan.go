package session

// Plan 单轮执行计划
// 每轮重新计算，不持久化；最终生效的 Plan 必须经过策略表裁剪
type Plan struct {
	// RAGEnabled 本轮是否检索教材
	RAGEnabled bool `json:"rag_enabled"`
	// AllowedTools 工具白名单，已与策略表取交集
	AllowedTools []Tool `json:"allowed_tools"`
	// Style 输出风格
	Style Style `json:"style"`
}

// Allows 检查工具是否在白名单内
func (p *Plan) Allows(tool Tool) bool {
	for _, t := range p.AllowedTools {
		if t == tool {
			return true
		}
	}
	return false
}

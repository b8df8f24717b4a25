package schema

// RoleType 消息角色类型
type RoleType string

const (
	System    RoleType = "system"
	User      RoleType = "user"
	Assistant RoleType = "assistant"
)

// Message 表示对话消息
type Message struct {
	// Role 消息角色：system, user, assistant
	Role RoleType `json:"role"`
	// Content 文本内容
	Content string `json:"content,omitempty"`
	// Extra 扩展字段，用于存储额外信息
	Extra map[string]any `json:"extra,omitempty"`
}

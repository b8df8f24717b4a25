package chat

import (
	"fmt"
	"strings"

	"github.com/knowbase-ai/knowbase/pkg/schema"
)

const systemPrompt = "你是一个专业的AI助手，能够根据提供的相关文档准确回答用户问题。"

const answerRules = `请基于以下相关文档回答问题。请严格遵循以下规则：

1. 只使用相关文档中提供的信息来回答问题
2. 如果相关文档中没有足够的信息，请明确说明"抱歉，根据现有信息无法完整回答这个问题"
3. 不要添加、推测或编造任何相关文档中未提及的信息
4. 如果对某些细节不确定，请明确指出不确定的部分
5. 回答时要引用相关文档的编号，说明信息来源`

// noResultAnswer 所有知识库均无结果时的固定回复
const noResultAnswer = "抱歉，没有检索到与问题相关的资料，无法回答这个问题。"

// buildSystemContent 把检索结果拼成带编号和来源的系统提示
func buildSystemContent(candidates []*schema.Candidate) string {
	if len(candidates) == 0 {
		return systemPrompt
	}

	var sb strings.Builder
	sb.WriteString(systemPrompt)
	sb.WriteString("\n\n")
	sb.WriteString(answerRules)
	sb.WriteString("\n\n相关文档：\n")
	for i, c := range candidates {
		sb.WriteString(fmt.Sprintf("\n相关文档 %d:\n来源知识库: %s\n内容: %s\n相关度: %.2f\n",
			i+1, c.KnowledgeID, c.Content, c.Score))
	}
	return sb.String()
}

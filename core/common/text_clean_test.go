package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanForEmbedding(t *testing.T) {
	t.Run("清理NULL和控制字符", func(t *testing.T) {
		got, err := CleanForEmbedding("合同\x00审批\x01流程")
		require.NoError(t, err)
		assert.Equal(t, "合同审批流程", got)
	})

	t.Run("清理零宽字符和BOM", func(t *testing.T) {
		got, err := CleanForEmbedding("\uFEFF请假​流程")
		require.NoError(t, err)
		assert.Equal(t, "请假流程", got)
	})

	t.Run("NFC归一化", func(t *testing.T) {
		// e + 组合重音符 -> é
		got, err := CleanForEmbedding("résumé")
		require.NoError(t, err)
		assert.Equal(t, "résumé", got)
	})

	t.Run("标准化空白", func(t *testing.T) {
		got, err := CleanForEmbedding("  第一段\t\t内容\r\n\n\n\n第二段　内容  ")
		require.NoError(t, err)
		assert.Equal(t, "第一段 内容\n\n第二段 内容", got)
	})

	t.Run("非法UTF-8报错", func(t *testing.T) {
		_, err := CleanForEmbedding(string([]byte{0xff, 0xfe}))
		assert.Error(t, err)
	})
}

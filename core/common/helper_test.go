package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOf(t *testing.T) {
	p := Of(0.35)
	require.NotNil(t, p)
	assert.Equal(t, 0.35, *p)

	s := Of("kb1")
	assert.Equal(t, "kb1", *s)
}

func TestRemoveDuplicates(t *testing.T) {
	in := []string{"d1", "d2", "d1", "d3", "d2"}
	out := RemoveDuplicates(in, func(s string) string { return s })
	assert.Equal(t, []string{"d1", "d2", "d3"}, out)

	// 保留首次出现的元素
	type doc struct{ id, content string }
	docs := []doc{{"a", "first"}, {"a", "second"}, {"b", "third"}}
	dedup := RemoveDuplicates(docs, func(d doc) string { return d.id })
	require.Len(t, dedup, 2)
	assert.Equal(t, "first", dedup[0].content)
}

package common

// Milvus 集合字段名
const (
	FieldID            = "id"
	FieldContent       = "text"
	FieldContentVector = "vector"
	FieldMetadata      = "metadata"
)

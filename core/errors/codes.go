package errors

// ErrCode 业务错误码类型
type ErrCode int

const (
	// 通用错误 1000-1999
	ErrInvalidParameter ErrCode = 1001 // 参数错误
	ErrUnauthorized     ErrCode = 1002 // 未授权
	ErrInternalError    ErrCode = 1003 // 内部错误
	ErrNotFound         ErrCode = 1004 // 资源未找到
	ErrAlreadyExists    ErrCode = 1005 // 资源已存在
	ErrOperationFailed  ErrCode = 1006 // 操作失败
	ErrTimeout          ErrCode = 1007 // 超时

	// 模型相关 2000-2999
	ErrEmbeddingFailed ErrCode = 2001 // Embedding失败
	ErrLLMCallFailed   ErrCode = 2002 // LLM调用失败
	ErrRerankFailed    ErrCode = 2003 // Rerank失败

	// 知识库相关 3000-3999
	ErrKBNotFound ErrCode = 3001 // 知识库未找到

	// 向量数据库 5000-5999
	ErrVectorStoreInit ErrCode = 5001 // 向量库初始化失败
	ErrVectorSearch    ErrCode = 5002 // 向量搜索失败
	ErrVectorInsert    ErrCode = 5003 // 向量插入失败
	ErrVectorDelete    ErrCode = 5004 // 向量删除失败

	// 关键词索引 5500-5999
	ErrKeywordIndexInit ErrCode = 5501 // 关键词索引初始化失败
	ErrKeywordSearch    ErrCode = 5502 // 关键词搜索失败
	ErrKeywordInsert    ErrCode = 5503 // 关键词索引写入失败

	// 数据库相关 6000-6999
	ErrDatabaseQuery  ErrCode = 6001 // 数据库查询失败
	ErrDatabaseInsert ErrCode = 6002 // 数据库插入失败
	ErrDatabaseInit   ErrCode = 6003 // 数据库初始化失败

	// 对话相关 7000-7999
	ErrSessionNotFound ErrCode = 7001 // 会话未找到
	ErrChatFailed      ErrCode = 7002 // 聊天失败

	// 检索相关 9000-9999
	ErrRetrievalFailed ErrCode = 9001 // 检索失败
	ErrNoResults       ErrCode = 9002 // 所有知识库均无结果
)

// HTTPStatusCode 返回错误码对应的HTTP状态码
func (e ErrCode) HTTPStatusCode() int {
	switch e {
	case ErrInvalidParameter:
		return 400
	case ErrUnauthorized:
		return 401
	case ErrNotFound, ErrKBNotFound, ErrSessionNotFound, ErrNoResults:
		return 404
	case ErrAlreadyExists:
		return 409
	case ErrTimeout:
		return 504
	default:
		return 500
	}
}

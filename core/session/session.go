package session

import (
	"context"
	"sync"
	"time"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/google/uuid"
	"github.com/knowbase-ai/knowbase/core/errors"
	"github.com/knowbase-ai/knowbase/pkg/schema"
)

// Session 单个会话的对话上下文
type Session struct {
	mu       sync.Mutex
	id       string
	turns    []schema.ConversationTurn
	lastSeen time.Time
}

// Store 进程内会话存储。
// 每个会话保留最近 window 条轮次，空闲超过 idleTimeout 的会话在下次访问时被淘汰。
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	window      int
	idleTimeout time.Duration
	now         func() time.Time
}

// Option Store 可选参数
type Option func(*Store)

// WithClock 注入时钟，测试用
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore 创建会话存储
func NewStore(window int, idleTimeout time.Duration, opts ...Option) *Store {
	if window <= 0 {
		window = 10
	}
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Minute
	}
	s := &Store{
		sessions:    make(map[string]*Session),
		window:      window,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// evictIdleLocked 淘汰空闲会话，调用方需持有写锁
func (s *Store) evictIdleLocked(ctx context.Context) {
	deadline := s.now().Add(-s.idleTimeout)
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(deadline) {
			delete(s.sessions, id)
			g.Log().Debugf(ctx, "session %s evicted after idle timeout", id)
		}
	}
}

// GetOrCreate 获取会话，不存在则创建。sessionId 为空时自动生成。
// 返回会话ID。
func (s *Store) GetOrCreate(ctx context.Context, sessionId string) string {
	if sessionId == "" {
		sessionId = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictIdleLocked(ctx)

	if _, ok := s.sessions[sessionId]; !ok {
		s.sessions[sessionId] = &Session{
			id:       sessionId,
			lastSeen: s.now(),
		}
	}
	return sessionId
}

// History 返回会话历史轮次的副本，按时间先后排列。
// 读取也算一次访问：刷新活跃时间并触发空闲淘汰。
// 会话不存在时返回空历史，不报错。
func (s *Store) History(ctx context.Context, sessionId string) []schema.ConversationTurn {
	s.mu.Lock()
	s.evictIdleLocked(ctx)
	sess, ok := s.sessions[sessionId]
	if ok {
		sess.lastSeen = s.now()
	}
	s.mu.Unlock()
	if !ok {
		return []schema.ConversationTurn{}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]schema.ConversationTurn, len(sess.turns))
	copy(out, sess.turns)
	return out
}

// Append 追加一条轮次，超过窗口时淘汰最旧的轮次。
// 窗口以单条轮次计数，user 和 assistant 各占一条。
func (s *Store) Append(ctx context.Context, sessionId string, turn schema.ConversationTurn) error {
	if sessionId == "" {
		return errors.New(errors.ErrInvalidParameter, "sessionId is required")
	}

	s.mu.Lock()
	s.evictIdleLocked(ctx)
	sess, ok := s.sessions[sessionId]
	if !ok {
		sess = &Session{id: sessionId}
		s.sessions[sessionId] = sess
	}
	sess.lastSeen = s.now()
	s.mu.Unlock()

	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = s.now()
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.turns = append(sess.turns, turn)
	if len(sess.turns) > s.window {
		sess.turns = sess.turns[len(sess.turns)-s.window:]
	}
	return nil
}

// Clear 清空会话历史但保留会话本身，幂等。
func (s *Store) Clear(ctx context.Context, sessionId string) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionId]
	if ok {
		sess.lastSeen = s.now()
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	sess.mu.Lock()
	sess.turns = nil
	sess.mu.Unlock()
}

// Touch 刷新会话活跃时间
func (s *Store) Touch(ctx context.Context, sessionId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionId]; ok {
		sess.lastSeen = s.now()
	}
}

// Len 当前会话数
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

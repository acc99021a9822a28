package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"text2sql-chat/internal/domain"
)

const defaultNoticeBuffer = 32

const (
	noticeWaitForReply  = "Please wait for the previous reply."
	noticeEmptyMessage  = "Type a question before sending."
	noticeSendFailed    = "Failed to send the message, please try again."
	noticeFeedbackFails = "Failed to send feedback, please try again."
)

// Notifier receives transient user-visible notices.
type Notifier interface {
	Notify(n domain.Notice)
}

// NoticeQueue buffers notices until the UI drains them. When full, the oldest
// notice is dropped.
type NoticeQueue struct {
	mu      sync.Mutex
	limit   int
	notices []domain.Notice
}

// NewNoticeQueue creates a queue holding at most limit notices. A
// non-positive limit falls back to the default of 32.
func NewNoticeQueue(limit int) *NoticeQueue {
	if limit <= 0 {
		limit = defaultNoticeBuffer
	}
	return &NoticeQueue{limit: limit}
}

func (q *NoticeQueue) Notify(n domain.Notice) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.notices) >= q.limit {
		q.notices = q.notices[1:]
	}
	q.notices = append(q.notices, n)
}

// Drain returns pending notices in arrival order and empties the queue.
func (q *NoticeQueue) Drain() []domain.Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.notices
	q.notices = nil
	if out == nil {
		return []domain.Notice{}
	}
	return out
}

// LogNotifier writes notices to a slog logger. It is the fallback when no UI
// is attached.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(n domain.Notice) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if n.Level == domain.NoticeError {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, "notice", "level", string(n.Level), "message", n.Message)
}

func newNotice(level domain.NoticeLevel, msg string, now time.Time) domain.Notice {
	return domain.Notice{Level: level, Message: msg, At: now}
}

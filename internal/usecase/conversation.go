package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"text2sql-chat/internal/domain"
)

// Transport is the backend boundary the conversation dispatches to.
type Transport interface {
	SendMessage(ctx context.Context, text string) (domain.Message, error)
	SendFeedback(ctx context.Context, messageID string, feedback domain.Feedback) (bool, error)
}

// Conversation owns a single chat thread: the ordered messages and the
// pending-response flag. The mutex stands in for a UI event loop; it is never
// held across a transport call.
type Conversation struct {
	transport Transport
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
	examples  []string

	mu         sync.Mutex
	messages   []domain.Message
	pending    bool
	generation uint64
}

// ConversationOption configures a Conversation.
type ConversationOption func(*Conversation)

// WithNotifier routes user-visible notices to n instead of the logger.
func WithNotifier(n Notifier) ConversationOption {
	return func(c *Conversation) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithLogger sets the logger for transport failures. Defaults to slog.Default().
func WithLogger(l *slog.Logger) ConversationOption {
	return func(c *Conversation) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock sets the clock used to stamp notices.
func WithClock(now func() time.Time) ConversationOption {
	return func(c *Conversation) {
		if now != nil {
			c.now = now
		}
	}
}

// WithExamples replaces the example questions offered before the first
// submit. An empty list disables them.
func WithExamples(examples ...string) ConversationOption {
	return func(c *Conversation) {
		c.examples = append([]string(nil), examples...)
	}
}

// NewConversation creates an empty Conversation that dispatches to t. Notices
// are logged unless WithNotifier is given.
func NewConversation(t Transport, opts ...ConversationOption) (*Conversation, error) {
	if t == nil {
		return nil, errors.New("usecase: transport must not be nil")
	}
	c := &Conversation{
		transport: t,
		logger:    slog.Default(),
		now:       time.Now,
		examples:  append([]string(nil), defaultExamples...),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.notifier == nil {
		c.notifier = LogNotifier{Logger: c.logger}
	}
	return c, nil
}

// Submit appends the user's question, waits for the backend's answer and
// appends it. Only one submit may be in flight; a second one is rejected
// without touching the message list or the transport.
//
// Cancellation of ctx is not propagated: once issued, the send runs to
// completion or failure.
func (c *Conversation) Submit(ctx context.Context, text string) (domain.Message, error) {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		c.notify(domain.NoticeInfo, noticeWaitForReply)
		return domain.Message{}, newError(ErrorBusy, "response_pending", nil)
	}
	if text == "" {
		c.mu.Unlock()
		c.notify(domain.NoticeInfo, noticeEmptyMessage)
		return domain.Message{}, newError(ErrorInvalidInput, "empty_message", nil)
	}
	c.messages = append(c.messages, domain.Message{
		ID:      newQuestionID(),
		Content: text,
	})
	c.pending = true
	gen := c.generation
	c.mu.Unlock()

	answer, err := c.transport.SendMessage(context.WithoutCancel(ctx), text)

	c.mu.Lock()
	stale := gen != c.generation
	if !stale {
		c.pending = false
		if err == nil {
			c.messages = append(c.messages, answer.Clone())
		}
	}
	c.mu.Unlock()

	if stale {
		// The question is gone, so neither the answer nor a failure concerns the user.
		c.logger.Info("discarding reply for a reset conversation", "answerId", answer.ID, "err", err)
		return domain.Message{}, newError(ErrorReset, "conversation_reset", err)
	}
	if err != nil {
		c.logger.Warn("send message failed", "err", err)
		c.notify(domain.NoticeError, noticeSendFailed)
		return domain.Message{}, newError(ErrorTransport, "send_message_failed", err)
	}
	return answer, nil
}

// Examples returns the built-in example questions.
func (c *Conversation) Examples() []string {
	return append([]string(nil), c.examples...)
}

// SubmitExample submits the example question at index, exactly as if the user
// had typed it.
func (c *Conversation) SubmitExample(ctx context.Context, index int) (domain.Message, error) {
	if index < 0 || index >= len(c.examples) {
		return domain.Message{}, newError(ErrorNotFound, "example_not_found", nil)
	}
	return c.Submit(ctx, c.examples[index])
}

// ToggleFeedback sets rating on the answer identified by messageID, or clears
// it when the answer already carries that rating. The resulting state is sent
// to the backend; a failed send is reported but the local rating is kept.
//
// An unknown id fails silently with ErrorNotFound and no notice.
func (c *Conversation) ToggleFeedback(ctx context.Context, messageID string, rating domain.Rating) (domain.Message, error) {
	if rating != domain.RatingLike && rating != domain.RatingDislike {
		return domain.Message{}, newError(ErrorInvalidInput, "invalid_rating", nil)
	}

	c.mu.Lock()
	idx := c.indexOf(messageID)
	if idx < 0 || !c.messages[idx].IsAnswer {
		c.mu.Unlock()
		return domain.Message{}, newError(ErrorNotFound, "message_not_found", nil)
	}
	next := domain.Feedback{Rating: rating}
	if c.messages[idx].Rating() == rating {
		next = domain.Feedback{}
	}
	c.messages[idx].Feedback = &next
	updated := c.messages[idx].Clone()
	c.mu.Unlock()

	if _, err := c.transport.SendFeedback(context.WithoutCancel(ctx), messageID, next); err != nil {
		c.logger.Warn("send feedback failed", "messageId", messageID, "err", err)
		c.notify(domain.NoticeError, noticeFeedbackFails)
		return updated, newError(ErrorTransport, "send_feedback_failed", err)
	}
	return updated, nil
}

// Reset drops every message and clears the pending flag. An answer still in
// flight when Reset is called is discarded when it arrives.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
	c.pending = false
	c.generation++
}

// Messages returns a copy of the conversation in display order.
func (c *Conversation) Messages() []domain.Message {
	msgs, _ := c.Snapshot()
	return msgs
}

// Started reports whether a question has been asked since creation or the
// last Reset.
func (c *Conversation) Started() bool {
	return c.Len() > 0
}

func (c *Conversation) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Snapshot returns the messages and pending flag observed together.
func (c *Conversation) Snapshot() ([]domain.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.Clone()
	}
	return out, c.pending
}

// indexOf must be called with mu held.
func (c *Conversation) indexOf(id string) int {
	for i := range c.messages {
		if c.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Conversation) notify(level domain.NoticeLevel, msg string) {
	c.notifier.Notify(newNotice(level, msg, c.now()))
}

var newQuestionID = func() string {
	return "question-" + uuid.NewString()
}

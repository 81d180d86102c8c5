package dialogue

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"

	"guided-dialogue-be/internal/pkg/logger"
	"guided-dialogue-be/pkg/dialogue/parser"
	"guided-dialogue-be/pkg/llm"
)

const defaultTitleRunes = 30

// Config bounds the model calls the engine issues.
type Config struct {
	TurnMaxTokens   int // per-turn replies
	AnswerMaxTokens int // the one-shot resolution document
}

func (c Config) withDefaults() Config {
	if c.TurnMaxTokens <= 0 {
		c.TurnMaxTokens = 1024
	}
	if c.AnswerMaxTokens <= 0 {
		c.AnswerMaxTokens = 2048
	}
	return c
}

// Engine owns the session state machine: step counting, resolution detection,
// mode-conditional transitions, and orchestration of the store, the quota
// tracker and the model. It holds no per-request state of its own beyond the
// runtime flags, so one Engine serves all sessions concurrently; the only
// serialization it imposes is one outstanding model call per session.
type Engine struct {
	store    SessionStore
	quota    QuotaTracker
	provider llm.Provider
	runtime  *runtimeStore
	logger   logger.ILogger
	cfg      Config
}

func NewEngine(store SessionStore, quota QuotaTracker, provider llm.Provider, log logger.ILogger, cfg Config) *Engine {
	return &Engine{
		store:    store,
		quota:    quota,
		provider: provider,
		runtime:  newRuntimeStore(),
		logger:   log,
		cfg:      cfg.withDefaults(),
	}
}

// State derives the lifecycle position of a session. Early-Complete is
// evaluated before depth exhaustion: when both hold, Early-Complete wins.
func (e *Engine) State(session *Session) State {
	if session.IsResolved {
		return StateResolved
	}
	if e.runtime.get(session.ID).EarlyComplete {
		return StateEarlyComplete
	}
	if session.CurrentStep >= session.Depth {
		return StateDepthExhausted
	}
	// The persisted flag keeps listings correct: List carries no message
	// bodies, so the marker in the first reply cannot be re-derived there.
	if session.NeedsVerification && session.CurrentStep == 0 {
		return StateNeedsVerification
	}
	return StateActive
}

// CreateSession runs the full creation transition: quota gate, store create,
// initial model call, title extraction, first assistant message. Any failure
// after the session row exists deletes it again so no message-less session
// survives. In direct mode the problem itself is the one user turn and the
// session resolves immediately after the reply.
func (e *Engine) CreateSession(ctx context.Context, uc UserContext, form CreateForm, depth int, mode ChatMode) (*Session, error) {
	if strings.TrimSpace(form.Problem) == "" {
		return nil, ErrEmptyProblem
	}
	if !form.Category.Valid() {
		return nil, ErrInvalidCategory
	}
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}
	if depth < MinDepth || depth > MaxDepth {
		return nil, ErrInvalidDepth
	}

	sessionID := uuid.New()

	ok, err := e.quota.CheckAndConsume(ctx, uc.UserID, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrQuotaExceeded
	}

	session := &Session{
		ID:             sessionID,
		UserID:         uc.UserID,
		Title:          defaultTitle(form.Problem),
		Category:       form.Category,
		Problem:        form.Problem,
		Attempts:       form.Attempts,
		Goal:           form.Goal,
		Depth:          depth,
		ChatMode:       mode,
		HasAttachments: len(form.Files) > 0,
	}

	if err := e.store.Create(ctx, session); err != nil {
		return nil, &StoreError{Op: "create", Err: err}
	}

	system := SystemInstruction(form.Category, mode, depth, uc.Language)
	initial := userMessage(InitialTurn(form, mode), form.Files)

	reply, err := e.provider.Chat(ctx, system, []llm.Message{initial}, llm.WithMaxTokens(e.cfg.TurnMaxTokens))
	if err != nil {
		e.cleanupSession(ctx, sessionID)
		return nil, &LLMError{Err: err}
	}

	content := reply
	if res := parser.SplitTitle(reply); res.Found {
		if err := e.store.UpdateTitle(ctx, sessionID, res.Title); err != nil {
			// The default title is still usable; keep going.
			e.logger.Warn("ENGINE", "Failed to persist parsed title", map[string]interface{}{
				"session_id": sessionID, "error": err.Error(),
			})
		} else {
			session.Title = res.Title
		}
		content = res.Content
	}

	now := time.Now()
	assistant := &Message{ID: uuid.New(), Role: RoleAssistant, Content: content, CreatedAt: now}

	if mode == ModeDirect {
		user := &Message{ID: uuid.New(), Role: RoleUser, Content: form.Problem, Files: form.Files, CreatedAt: now}
		if err := e.store.AppendTurn(ctx, sessionID, user, assistant); err != nil {
			e.cleanupSession(ctx, sessionID)
			return nil, &StoreError{Op: "append", Err: err}
		}
		if err := e.store.Resolve(ctx, sessionID, content); err != nil {
			e.cleanupSession(ctx, sessionID)
			return nil, &StoreError{Op: "resolve", Err: err}
		}
		session.CurrentStep = 1
		session.IsResolved = true
		session.FinalAnswer = content
		session.Messages = []Message{*user, *assistant}
	} else {
		if err := e.store.AppendAssistant(ctx, sessionID, assistant); err != nil {
			e.cleanupSession(ctx, sessionID)
			return nil, &StoreError{Op: "append", Err: err}
		}
		session.Messages = []Message{*assistant}

		if session.HasAttachments && parser.NeedsVerification(content) {
			if err := e.store.MarkNeedsVerification(ctx, sessionID); err != nil {
				// Unflagged, the session just starts as a plain active one.
				e.logger.Warn("ENGINE", "Failed to persist verification flag", map[string]interface{}{
					"session_id": sessionID, "error": err.Error(),
				})
			} else {
				session.NeedsVerification = true
			}
		}
	}

	e.logger.Info("ENGINE", "Session created", map[string]interface{}{
		"session_id": sessionID, "user_id": uc.UserID, "mode": mode, "depth": depth,
	})

	return session, nil
}

// SubmitTurn handles one user step. The user message, the assistant reply and
// the step increment commit in a single store transaction: a failed model
// call leaves no trace.
func (e *Engine) SubmitTurn(ctx context.Context, uc UserContext, sessionID uuid.UUID, text string, files []Attachment) (*Session, error) {
	return e.submit(ctx, uc, sessionID, ContinuationTurn(text), files, false)
}

// ConfirmProblem sends the canned affirmative turn that ends the verification
// sub-state. It counts as a genuine user step.
func (e *Engine) ConfirmProblem(ctx context.Context, uc UserContext, sessionID uuid.UUID) (*Session, error) {
	return e.submit(ctx, uc, sessionID, ConfirmationTurn(uc.Language), nil, true)
}

// EditProblem replaces the extracted problem statement during verification.
// The revision goes to the model wrapped with the edit marker and the stored
// problem field follows on success.
func (e *Engine) EditProblem(ctx context.Context, uc UserContext, sessionID uuid.UUID, revised string) (*Session, error) {
	if strings.TrimSpace(revised) == "" {
		return nil, ErrEmptyProblem
	}
	session, err := e.submit(ctx, uc, sessionID, EditedProblemTurn(revised), nil, true)
	if err != nil {
		return nil, err
	}
	if err := e.store.UpdateProblem(ctx, sessionID, revised); err != nil {
		e.logger.Warn("ENGINE", "Failed to persist edited problem", map[string]interface{}{
			"session_id": sessionID, "error": err.Error(),
		})
	} else {
		session.Problem = revised
	}
	return session, nil
}

func (e *Engine) submit(ctx context.Context, uc UserContext, sessionID uuid.UUID, text string, files []Attachment, verificationOnly bool) (*Session, error) {
	if !e.runtime.acquire(sessionID) {
		return nil, ErrTurnInFlight
	}
	defer e.runtime.release(sessionID)

	session, err := e.getOwned(ctx, uc, sessionID)
	if err != nil {
		return nil, err
	}

	switch state := e.State(session); state {
	case StateActive:
		if verificationOnly {
			return nil, ErrTurnNotAllowed
		}
	case StateNeedsVerification:
		// confirm/edit and ordinary turns are all acceptable here
	case StateResolved:
		return nil, ErrSessionResolved
	default:
		return nil, ErrTurnNotAllowed
	}

	system := SystemInstruction(session.Category, session.ChatMode, session.Depth, uc.Language)
	history := historyMessages(session.Messages)
	history = append(history, userMessage(text, files))

	reply, err := e.provider.Chat(ctx, system, history, llm.WithMaxTokens(e.cfg.TurnMaxTokens))
	if err != nil {
		return nil, &LLMError{Err: err}
	}

	content, answerFound := parser.StripAnswerFound(reply)

	now := time.Now()
	user := &Message{ID: uuid.New(), Role: RoleUser, Content: text, Files: files, CreatedAt: now}
	assistant := &Message{ID: uuid.New(), Role: RoleAssistant, Content: content, CreatedAt: now}

	if err := e.store.AppendTurn(ctx, sessionID, user, assistant); err != nil {
		return nil, &StoreError{Op: "append", Err: err}
	}

	session.CurrentStep++
	session.UpdatedAt = now
	session.Messages = append(session.Messages, *user, *assistant)

	if answerFound {
		e.runtime.save(sessionID, runtimeState{EarlyComplete: true})
		e.logger.Info("ENGINE", "Early completion signalled", map[string]interface{}{
			"session_id": sessionID, "step": session.CurrentStep,
		})
	}

	return session, nil
}

// ViewFinalAnswer produces the structured resolution document. The first
// successful call resolves the session and caches the document; later calls
// return the cache without touching the model. The transition is all or
// nothing: a failed model call or store write leaves the session exactly
// where it was.
func (e *Engine) ViewFinalAnswer(ctx context.Context, uc UserContext, sessionID uuid.UUID) (string, error) {
	session, err := e.getOwned(ctx, uc, sessionID)
	if err != nil {
		return "", err
	}

	if session.IsResolved {
		return session.FinalAnswer, nil
	}

	switch e.State(session) {
	case StateEarlyComplete, StateDepthExhausted:
	default:
		return "", ErrTurnNotAllowed
	}

	if !e.runtime.acquire(sessionID) {
		return "", ErrTurnInFlight
	}
	defer e.runtime.release(sessionID)

	answer, err := e.provider.Generate(ctx, ResolutionPrompt(session, uc.Language), llm.WithMaxTokens(e.cfg.AnswerMaxTokens))
	if err != nil {
		return "", &LLMError{Err: err}
	}

	if err := e.store.Resolve(ctx, sessionID, answer); err != nil {
		return "", &StoreError{Op: "resolve", Err: err}
	}

	e.runtime.delete(sessionID)
	e.logger.Info("ENGINE", "Session resolved", map[string]interface{}{
		"session_id": sessionID, "step": session.CurrentStep,
	})

	return answer, nil
}

// DismissEarlyComplete returns an Early-Complete session to Active. Depth is
// untouched; only the runtime flag changes.
func (e *Engine) DismissEarlyComplete(ctx context.Context, uc UserContext, sessionID uuid.UUID) error {
	session, err := e.getOwned(ctx, uc, sessionID)
	if err != nil {
		return err
	}
	if e.State(session) != StateEarlyComplete {
		return ErrTurnNotAllowed
	}
	e.runtime.save(sessionID, runtimeState{EarlyComplete: false})
	return nil
}

func (e *Engine) GetSession(ctx context.Context, uc UserContext, sessionID uuid.UUID) (*Session, error) {
	return e.getOwned(ctx, uc, sessionID)
}

func (e *Engine) ListSessions(ctx context.Context, uc UserContext) ([]*Session, error) {
	sessions, err := e.store.List(ctx, uc.UserID)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	return sessions, nil
}

func (e *Engine) DeleteSession(ctx context.Context, uc UserContext, sessionID uuid.UUID) error {
	if _, err := e.getOwned(ctx, uc, sessionID); err != nil {
		return err
	}
	if err := e.store.Delete(ctx, sessionID); err != nil {
		return &StoreError{Op: "delete", Err: err}
	}
	e.runtime.delete(sessionID)
	return nil
}

func (e *Engine) Remaining(ctx context.Context, uc UserContext) (int, error) {
	return e.quota.Remaining(ctx, uc.UserID)
}

func (e *Engine) getOwned(ctx context.Context, uc UserContext, sessionID uuid.UUID) (*Session, error) {
	session, err := e.store.Get(ctx, uc.UserID, sessionID)
	if err != nil {
		return nil, &StoreError{Op: "get", Err: err}
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (e *Engine) cleanupSession(ctx context.Context, sessionID uuid.UUID) {
	if err := e.store.Delete(ctx, sessionID); err != nil {
		e.logger.Error("ENGINE", "Failed to clean up orphaned session", map[string]interface{}{
			"session_id": sessionID, "error": err.Error(),
		})
	}
	e.runtime.delete(sessionID)
}

func defaultTitle(problem string) string {
	runes := []rune(problem)
	if len(runes) <= defaultTitleRunes {
		return problem
	}
	return string(runes[:defaultTitleRunes]) + "..."
}

func historyMessages(messages []Message) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, msg := range messages {
		out = append(out, userMessage(msg.Content, msg.Files))
		out[len(out)-1].Role = msg.Role
	}
	return out
}

func userMessage(text string, files []Attachment) llm.Message {
	blocks := []llm.Block{{Type: llm.BlockTypeText, Text: text}}
	for _, f := range files {
		if len(f.Data) == 0 {
			continue
		}
		blockType := llm.BlockTypeDocument
		if strings.HasPrefix(f.MediaType, "image/") {
			blockType = llm.BlockTypeImage
		}
		blocks = append(blocks, llm.Block{
			Type:      blockType,
			MediaType: f.MediaType,
			Data:      base64.StdEncoding.EncodeToString(f.Data),
		})
	}
	return llm.Message{Role: RoleUser, Blocks: blocks}
}

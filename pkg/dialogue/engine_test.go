package dialogue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guided-dialogue-be/pkg/llm"
)

// ---- fakes ----

type fakeStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session

	createCalls int
	failAppend  error
	failResolve error
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[uuid.UUID]*Session)}
}

func (s *fakeStore) Create(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	cp := *session
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	s.sessions[session.ID] = &cp
	return nil
}

func (s *fakeStore) Get(_ context.Context, userID, sessionID uuid.UUID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.UserID != userID {
		return nil, nil
	}
	cp := *sess
	cp.Messages = append([]Message(nil), sess.Messages...)
	return &cp, nil
}

func (s *fakeStore) List(_ context.Context, userID uuid.UUID) ([]*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Session
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			cp := *sess
			cp.Messages = nil
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *fakeStore) AppendAssistant(_ context.Context, sessionID uuid.UUID, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAppend != nil {
		return s.failAppend
	}
	sess, ok := s.sessions[sessionID]
	if !ok {
		return errors.New("session gone")
	}
	sess.Messages = append(sess.Messages, *msg)
	sess.UpdatedAt = time.Now()
	return nil
}

func (s *fakeStore) AppendTurn(_ context.Context, sessionID uuid.UUID, user, assistant *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAppend != nil {
		return s.failAppend
	}
	sess, ok := s.sessions[sessionID]
	if !ok {
		return errors.New("session gone")
	}
	sess.Messages = append(sess.Messages, *user, *assistant)
	sess.CurrentStep++
	sess.UpdatedAt = time.Now()
	return nil
}

func (s *fakeStore) UpdateTitle(_ context.Context, sessionID uuid.UUID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		sess.Title = title
	}
	return nil
}

func (s *fakeStore) UpdateProblem(_ context.Context, sessionID uuid.UUID, problem string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		sess.Problem = problem
	}
	return nil
}

func (s *fakeStore) MarkNeedsVerification(_ context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		sess.NeedsVerification = true
	}
	return nil
}

func (s *fakeStore) Resolve(_ context.Context, sessionID uuid.UUID, finalAnswer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failResolve != nil {
		return s.failResolve
	}
	sess, ok := s.sessions[sessionID]
	if !ok {
		return errors.New("session gone")
	}
	if sess.IsResolved {
		return nil
	}
	sess.IsResolved = true
	sess.FinalAnswer = finalAnswer
	return nil
}

func (s *fakeStore) Delete(_ context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

type fakeQuota struct {
	mu    sync.Mutex
	limit int
	used  int
	err   error
}

func (q *fakeQuota) CheckAndConsume(_ context.Context, _, _ uuid.UUID) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return false, q.err
	}
	if q.used >= q.limit {
		return false, nil
	}
	q.used++
	return true, nil
}

func (q *fakeQuota) Remaining(_ context.Context, _ uuid.UUID) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return 0, q.err
	}
	return q.limit - q.used, nil
}

type scriptedProvider struct {
	mu      sync.Mutex
	replies []string
	err     error

	// When set, Chat signals chatStarted and then waits on chatRelease, so a
	// test can hold a model call open while issuing another request.
	chatStarted chan struct{}
	chatRelease chan struct{}

	chatCalls     int
	generateCalls int
	lastSystem    string
	lastHistory   []llm.Message
}

func (p *scriptedProvider) next() string {
	if len(p.replies) == 0 {
		return "What makes you think that?"
	}
	reply := p.replies[0]
	p.replies = p.replies[1:]
	return reply
}

func (p *scriptedProvider) Chat(_ context.Context, system string, history []llm.Message, _ ...llm.Option) (string, error) {
	if p.chatStarted != nil {
		p.chatStarted <- struct{}{}
		<-p.chatRelease
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chatCalls++
	p.lastSystem = system
	p.lastHistory = history
	if p.err != nil {
		return "", p.err
	}
	return p.next(), nil
}

func (p *scriptedProvider) Generate(_ context.Context, _ string, _ ...llm.Option) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generateCalls++
	if p.err != nil {
		return "", p.err
	}
	return p.next(), nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}

type engineFixture struct {
	engine   *Engine
	store    *fakeStore
	quota    *fakeQuota
	provider *scriptedProvider
	user     UserContext
}

func newFixture(replies ...string) *engineFixture {
	store := newFakeStore()
	quota := &fakeQuota{limit: 2}
	provider := &scriptedProvider{replies: replies}
	return &engineFixture{
		engine:   NewEngine(store, quota, provider, nopLogger{}, Config{}),
		store:    store,
		quota:    quota,
		provider: provider,
		user:     UserContext{UserID: uuid.New(), Language: LanguageEnglish},
	}
}

func (f *engineFixture) create(t *testing.T, depth int, mode ChatMode) *Session {
	t.Helper()
	session, err := f.engine.CreateSession(context.Background(), f.user, CreateForm{
		Category: CategoryCoding,
		Problem:  "my nested loops feel slow",
		Attempts: "counted iterations by hand",
		Goal:     "understand the complexity",
	}, depth, mode)
	require.NoError(t, err)
	return session
}

// ---- creation ----

func TestCreateSessionSocratic(t *testing.T) {
	f := newFixture("TITLE: Loop complexity\n\nWhat happens when n doubles?")

	session := f.create(t, 5, ModeSocratic)

	assert.Equal(t, "Loop complexity", session.Title)
	assert.Equal(t, 0, session.CurrentStep)
	assert.False(t, session.IsResolved)
	require.Len(t, session.Messages, 1)
	assert.Equal(t, RoleAssistant, session.Messages[0].Role)
	assert.Equal(t, "What happens when n doubles?", session.Messages[0].Content)
	assert.Equal(t, StateActive, f.engine.State(session))
}

func TestCreateSessionDefaultTitleWhenNoMarker(t *testing.T) {
	f := newFixture("Just a reply with no title line.")

	session, err := f.engine.CreateSession(context.Background(), f.user, CreateForm{
		Category: CategoryCoding,
		Problem:  "a problem statement that runs well past thirty characters total",
	}, 5, ModeSocratic)
	require.NoError(t, err)

	assert.Equal(t, "a problem statement that runs ...", session.Title)
	assert.Len(t, []rune(strings.TrimSuffix(session.Title, "...")), 30)
}

func TestCreateSessionDirectResolvesImmediately(t *testing.T) {
	f := newFixture("TITLE: Quick answer\n\nUse a hash map; here is why.")

	session := f.create(t, 5, ModeDirect)

	assert.True(t, session.IsResolved)
	assert.Equal(t, StateResolved, f.engine.State(session))
	require.Len(t, session.Messages, 2)
	assert.Equal(t, RoleUser, session.Messages[0].Role)
	assert.Equal(t, RoleAssistant, session.Messages[1].Role)

	// The reply is cached as the final answer; viewing it is free.
	answer, err := f.engine.ViewFinalAnswer(context.Background(), f.user, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "Use a hash map; here is why.", answer)
	assert.Equal(t, 0, f.provider.generateCalls)
}

func TestCreateSessionValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.engine.CreateSession(ctx, f.user, CreateForm{Category: CategoryCoding, Problem: "  "}, 5, ModeSocratic)
	assert.ErrorIs(t, err, ErrEmptyProblem)

	_, err = f.engine.CreateSession(ctx, f.user, CreateForm{Category: "astrology", Problem: "p"}, 5, ModeSocratic)
	assert.ErrorIs(t, err, ErrInvalidCategory)

	_, err = f.engine.CreateSession(ctx, f.user, CreateForm{Category: CategoryCoding, Problem: "p"}, 2, ModeSocratic)
	assert.ErrorIs(t, err, ErrInvalidDepth)

	_, err = f.engine.CreateSession(ctx, f.user, CreateForm{Category: CategoryCoding, Problem: "p"}, 11, ModeSocratic)
	assert.ErrorIs(t, err, ErrInvalidDepth)

	_, err = f.engine.CreateSession(ctx, f.user, CreateForm{Category: CategoryCoding, Problem: "p"}, 5, "telepathic")
	assert.ErrorIs(t, err, ErrInvalidMode)

	// Nothing reached the store or the quota.
	assert.Equal(t, 0, f.store.createCalls)
	assert.Equal(t, 0, f.quota.used)
}

func TestCreateSessionQuotaExhausted(t *testing.T) {
	f := newFixture()

	f.create(t, 5, ModeSocratic)
	f.create(t, 5, ModeSocratic)

	_, err := f.engine.CreateSession(context.Background(), f.user, CreateForm{
		Category: CategoryCoding, Problem: "one more",
	}, 5, ModeSocratic)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, 2, f.store.createCalls)

	remaining, err := f.engine.Remaining(context.Background(), f.user)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestCreateSessionQuotaFailsClosed(t *testing.T) {
	f := newFixture()
	f.quota.err = errors.New("usage store down")

	_, err := f.engine.CreateSession(context.Background(), f.user, CreateForm{
		Category: CategoryCoding, Problem: "p",
	}, 5, ModeSocratic)
	require.Error(t, err)
	assert.Equal(t, 0, f.store.createCalls)
	assert.Equal(t, 0, f.provider.chatCalls)
}

func TestCreateSessionModelFailureLeavesNothing(t *testing.T) {
	f := newFixture()
	f.provider.err = errors.New("upstream 529")

	_, err := f.engine.CreateSession(context.Background(), f.user, CreateForm{
		Category: CategoryCoding, Problem: "p",
	}, 5, ModeSocratic)

	var llmErr *LLMError
	require.ErrorAs(t, err, &llmErr)
	assert.Empty(t, f.store.sessions)
	// The quota use is not refunded.
	assert.Equal(t, 1, f.quota.used)
}

// ---- the stepwise loop ----

func TestSubmitTurnIncrementsStep(t *testing.T) {
	f := newFixture("TITLE: T\n\nFirst question?", "Second question?")
	session := f.create(t, 5, ModeSocratic)

	updated, err := f.engine.SubmitTurn(context.Background(), f.user, session.ID, "I think it is quadratic", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, updated.CurrentStep)
	require.Len(t, updated.Messages, 3)
	assert.Equal(t, "I think it is quadratic", updated.Messages[1].Content)
	assert.Equal(t, "Second question?", updated.Messages[2].Content)
	assert.Equal(t, StateActive, f.engine.State(updated))
}

func TestSubmitTurnSendsFullHistory(t *testing.T) {
	f := newFixture("TITLE: T\n\nQ1?", "Q2?", "Q3?")
	session := f.create(t, 5, ModeSocratic)

	_, err := f.engine.SubmitTurn(context.Background(), f.user, session.ID, "answer one", nil)
	require.NoError(t, err)
	_, err = f.engine.SubmitTurn(context.Background(), f.user, session.ID, "answer two", nil)
	require.NoError(t, err)

	// History for the third call: Q1, answer one, Q2, plus the new turn.
	require.Len(t, f.provider.lastHistory, 4)
	assert.Equal(t, RoleAssistant, f.provider.lastHistory[0].Role)
	assert.Equal(t, "answer two", f.provider.lastHistory[3].Blocks[0].Text)
	assert.Contains(t, f.provider.lastSystem, "Socratic")
}

func TestSubmitTurnDepthExhaustion(t *testing.T) {
	f := newFixture("TITLE: T\n\nQ1?")
	session := f.create(t, 3, ModeSocratic)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		var err error
		session, err = f.engine.SubmitTurn(ctx, f.user, session.ID, fmt.Sprintf("thought %d", i+1), nil)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, session.CurrentStep)
	assert.Equal(t, StateDepthExhausted, f.engine.State(session))

	_, err := f.engine.SubmitTurn(ctx, f.user, session.ID, "one more", nil)
	assert.ErrorIs(t, err, ErrTurnNotAllowed)
}

func TestSubmitTurnModelFailureLeavesSessionUntouched(t *testing.T) {
	f := newFixture("TITLE: T\n\nQ1?")
	session := f.create(t, 5, ModeSocratic)
	f.provider.err = errors.New("timeout")

	_, err := f.engine.SubmitTurn(context.Background(), f.user, session.ID, "my answer", nil)
	var llmErr *LLMError
	require.ErrorAs(t, err, &llmErr)

	stored, err := f.engine.GetSession(context.Background(), f.user, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CurrentStep)
	assert.Len(t, stored.Messages, 1)
}

func TestSubmitTurnRejectsOverlappingTurn(t *testing.T) {
	f := newFixture("TITLE: T\n\nQ1?", "Q2?")
	session := f.create(t, 5, ModeSocratic)

	f.provider.chatStarted = make(chan struct{}, 1)
	f.provider.chatRelease = make(chan struct{})

	ctx := context.Background()
	done := make(chan error, 1)
	go func() {
		_, err := f.engine.SubmitTurn(ctx, f.user, session.ID, "first thought", nil)
		done <- err
	}()

	// The first turn is inside its model call; a second submit for the same
	// session must bounce instead of queueing.
	<-f.provider.chatStarted
	_, err := f.engine.SubmitTurn(ctx, f.user, session.ID, "impatient second thought", nil)
	assert.ErrorIs(t, err, ErrTurnInFlight)

	close(f.provider.chatRelease)
	require.NoError(t, <-done)

	stored, err := f.engine.GetSession(ctx, f.user, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentStep)
	assert.Len(t, stored.Messages, 3)
}

func TestSubmitTurnUnknownSession(t *testing.T) {
	f := newFixture()
	_, err := f.engine.SubmitTurn(context.Background(), f.user, uuid.New(), "hello", nil)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSubmitTurnOtherUsersSession(t *testing.T) {
	f := newFixture("TITLE: T\n\nQ1?")
	session := f.create(t, 5, ModeSocratic)

	stranger := UserContext{UserID: uuid.New(), Language: LanguageEnglish}
	_, err := f.engine.SubmitTurn(context.Background(), stranger, session.ID, "mine now", nil)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

// ---- early completion ----

func TestAnswerFoundEntersEarlyComplete(t *testing.T) {
	f := newFixture("TITLE: T\n\nQ1?", "[ANSWER_FOUND] Exactly right, well done!")
	session := f.create(t, 5, ModeSocratic)

	updated, err := f.engine.SubmitTurn(context.Background(), f.user, session.ID, "it is O(n^2) because of the nested loop", nil)
	require.NoError(t, err)

	assert.Equal(t, StateEarlyComplete, f.engine.State(updated))
	// The marker is stripped before storage.
	last := updated.Messages[len(updated.Messages)-1]
	assert.Equal(t, "Exactly right, well done!", last.Content)

	_, err = f.engine.SubmitTurn(context.Background(), f.user, session.ID, "but wait", nil)
	assert.ErrorIs(t, err, ErrTurnNotAllowed)
}

func TestEarlyCompleteWinsOverDepthExhaustion(t *testing.T) {
	f := newFixture("TITLE: T\n\nQ1?", "Q2?", "Q3?", "[ANSWER_FOUND] You got it on the last step.")
	session := f.create(t, 3, ModeSocratic)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		var err error
		session, err = f.engine.SubmitTurn(ctx, f.user, session.ID, fmt.Sprintf("thought %d", i+1), nil)
		require.NoError(t, err)
	}

	// Both conditions hold; early completion is reported.
	assert.Equal(t, 3, session.CurrentStep)
	assert.Equal(t, StateEarlyComplete, f.engine.State(session))
}

func TestDismissEarlyComplete(t *testing.T) {
	f := newFixture("TITLE: T\n\nQ1?", "[ANSWER_FOUND] Correct!", "Q2?")
	session := f.create(t, 5, ModeSocratic)

	ctx := context.Background()
	updated, err := f.engine.SubmitTurn(ctx, f.user, session.ID, "got it", nil)
	require.NoError(t, err)
	require.Equal(t, StateEarlyComplete, f.engine.State(updated))

	require.NoError(t, f.engine.DismissEarlyComplete(ctx, f.user, session.ID))

	updated, err = f.engine.SubmitTurn(ctx, f.user, session.ID, "let me dig deeper", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.CurrentStep)
	assert.Equal(t, StateActive, f.engine.State(updated))
}

func TestDismissOutsideEarlyComplete(t *testing.T) {
	f := newFixture("TITLE: T\n\nQ1?")
	session := f.create(t, 5, ModeSocratic)

	err := f.engine.DismissEarlyComplete(context.Background(), f.user, session.ID)
	assert.ErrorIs(t, err, ErrTurnNotAllowed)
}

// ---- resolution ----

func TestViewFinalAnswerAfterEarlyComplete(t *testing.T) {
	f := newFixture("TITLE: T\n\nQ1?", "[ANSWER_FOUND] Correct!", "1. Key insight: ...")
	session := f.create(t, 5, ModeSocratic)

	ctx := context.Background()
	_, err := f.engine.SubmitTurn(ctx, f.user, session.ID, "the answer is X", nil)
	require.NoError(t, err)

	answer, err := f.engine.ViewFinalAnswer(ctx, f.user, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "1. Key insight: ...", answer)
	assert.Equal(t, 1, f.provider.generateCalls)

	stored, err := f.engine.GetSession(ctx, f.user, session.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsResolved)
	assert.Equal(t, StateResolved, f.engine.State(stored))
}

func TestViewFinalAnswerIsCachedAfterFirstCall(t *testing.T) {
	f := newFixture("TITLE: T\n\nQ1?", "[ANSWER_FOUND] Correct!", "the one and only answer")
	session := f.create(t, 5, ModeSocratic)

	ctx := context.Background()
	_, err := f.engine.SubmitTurn(ctx, f.user, session.ID, "done", nil)
	require.NoError(t, err)

	first, err := f.engine.ViewFinalAnswer(ctx, f.user, session.ID)
	require.NoError(t, err)
	second, err := f.engine.ViewFinalAnswer(ctx, f.user, session.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.provider.generateCalls)
}

func TestViewFinalAnswerRequiresTerminalState(t *testing.T) {
	f := newFixture("TITLE: T\n\nQ1?")
	session := f.create(t, 5, ModeSocratic)

	_, err := f.engine.ViewFinalAnswer(context.Background(), f.user, session.ID)
	assert.ErrorIs(t, err, ErrTurnNotAllowed)
	assert.Equal(t, 0, f.provider.generateCalls)
}

func TestViewFinalAnswerModelFailureKeepsStateIntact(t *testing.T) {
	f := newFixture("TITLE: T\n\nQ1?", "[ANSWER_FOUND] Correct!")
	session := f.create(t, 5, ModeSocratic)

	ctx := context.Background()
	_, err := f.engine.SubmitTurn(ctx, f.user, session.ID, "done", nil)
	require.NoError(t, err)

	f.provider.err = errors.New("overloaded")
	_, err = f.engine.ViewFinalAnswer(ctx, f.user, session.ID)
	var llmErr *LLMError
	require.ErrorAs(t, err, &llmErr)

	stored, err := f.engine.GetSession(ctx, f.user, session.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsResolved)
	assert.Equal(t, StateEarlyComplete, f.engine.State(stored))

	// Retry succeeds once the model recovers.
	f.provider.err = nil
	f.provider.replies = []string{"recovered answer"}
	answer, err := f.engine.ViewFinalAnswer(ctx, f.user, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "recovered answer", answer)
}

// ---- verification flow ----

func attachedForm() CreateForm {
	return CreateForm{
		Category: CategoryMathScience,
		Problem:  "see the attached worksheet",
		Files: []Attachment{{
			Name: "sheet.png", MediaType: "image/png", Data: []byte{0x89, 0x50},
		}},
	}
}

func TestAttachmentSessionNeedsVerification(t *testing.T) {
	f := newFixture("TITLE: Worksheet\n\n[VERIFICATION_NEEDED] I read this as a quadratic equation problem. Is that right?")

	session, err := f.engine.CreateSession(context.Background(), f.user, attachedForm(), 5, ModeSocratic)
	require.NoError(t, err)

	assert.True(t, session.HasAttachments)
	assert.Equal(t, StateNeedsVerification, f.engine.State(session))

	// The attachment bytes went to the model as an image block.
	require.Len(t, f.provider.lastHistory, 1)
	blocks := f.provider.lastHistory[0].Blocks
	require.Len(t, blocks, 2)
	assert.Equal(t, llm.BlockTypeImage, blocks[1].Type)
	assert.Equal(t, "image/png", blocks[1].MediaType)
}

func TestListReportsNeedsVerification(t *testing.T) {
	f := newFixture(
		"TITLE: Worksheet\n\n[VERIFICATION_NEEDED] Is this right?",
		"Great. First question?",
	)

	ctx := context.Background()
	session, err := f.engine.CreateSession(ctx, f.user, attachedForm(), 5, ModeSocratic)
	require.NoError(t, err)
	require.Equal(t, StateNeedsVerification, f.engine.State(session))

	// Listings carry no message bodies; the state must still match the
	// detail view.
	listed, err := f.engine.ListSessions(ctx, f.user)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Empty(t, listed[0].Messages)
	assert.Equal(t, StateNeedsVerification, f.engine.State(listed[0]))

	_, err = f.engine.ConfirmProblem(ctx, f.user, session.ID)
	require.NoError(t, err)

	listed, err = f.engine.ListSessions(ctx, f.user)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, StateActive, f.engine.State(listed[0]))
}

func TestConfirmProblemStartsDialogue(t *testing.T) {
	f := newFixture(
		"TITLE: Worksheet\n\n[VERIFICATION_NEEDED] Is this right?",
		"Great. What do you already know about the discriminant?",
	)

	ctx := context.Background()
	session, err := f.engine.CreateSession(ctx, f.user, attachedForm(), 5, ModeSocratic)
	require.NoError(t, err)

	updated, err := f.engine.ConfirmProblem(ctx, f.user, session.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, updated.CurrentStep)
	assert.Equal(t, StateActive, f.engine.State(updated))
	assert.Equal(t, "Yes, correct. Please proceed.", updated.Messages[1].Content)
}

func TestEditProblemUpdatesStatement(t *testing.T) {
	f := newFixture(
		"TITLE: Worksheet\n\n[VERIFICATION_NEEDED] Is this right?",
		"Understood. Let's work with the corrected problem.",
	)

	ctx := context.Background()
	session, err := f.engine.CreateSession(ctx, f.user, attachedForm(), 5, ModeSocratic)
	require.NoError(t, err)

	updated, err := f.engine.EditProblem(ctx, f.user, session.ID, "it is actually a cubic equation")
	require.NoError(t, err)

	assert.Equal(t, "it is actually a cubic equation", updated.Problem)
	assert.Equal(t, StateActive, f.engine.State(updated))
	assert.Contains(t, updated.Messages[1].Content, "[EDITED_PROBLEM]")
}

func TestConfirmProblemOutsideVerification(t *testing.T) {
	f := newFixture("TITLE: T\n\nQ1?")
	session := f.create(t, 5, ModeSocratic)

	_, err := f.engine.ConfirmProblem(context.Background(), f.user, session.ID)
	assert.ErrorIs(t, err, ErrTurnNotAllowed)
}

func TestDirectModeWithAttachmentsAnswersImmediately(t *testing.T) {
	f := newFixture("TITLE: Worksheet\n\nThe equation factors as (x-2)(x+3).")

	session, err := f.engine.CreateSession(context.Background(), f.user, attachedForm(), 5, ModeDirect)
	require.NoError(t, err)

	assert.True(t, session.IsResolved)
	assert.Equal(t, StateResolved, f.engine.State(session))
	assert.Equal(t, "The equation factors as (x-2)(x+3).", session.FinalAnswer)

	// The initial turn must not carry the verification instructions: the one
	// reply is the answer, not a question to confirm.
	require.Len(t, f.provider.lastHistory, 1)
	assert.NotContains(t, f.provider.lastHistory[0].Blocks[0].Text, "[VERIFICATION_NEEDED]")
}

func TestTextOnlySessionSkipsVerification(t *testing.T) {
	// A text-only reply containing the marker by coincidence must not gate
	// the session: verification is tied to attachments.
	f := newFixture("TITLE: T\n\nQ1 about [VERIFICATION_NEEDED] markers?")
	session := f.create(t, 5, ModeSocratic)
	assert.Equal(t, StateActive, f.engine.State(session))
}

// ---- housekeeping ----

func TestDeleteSession(t *testing.T) {
	f := newFixture("TITLE: T\n\nQ1?")
	session := f.create(t, 5, ModeSocratic)

	ctx := context.Background()
	require.NoError(t, f.engine.DeleteSession(ctx, f.user, session.ID))

	_, err := f.engine.GetSession(ctx, f.user, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestListSessions(t *testing.T) {
	f := newFixture("TITLE: A\n\nQ?", "TITLE: B\n\nQ?")
	f.create(t, 5, ModeSocratic)
	f.create(t, 5, ModeSocratic)

	sessions, err := f.engine.ListSessions(context.Background(), f.user)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	other, err := f.engine.ListSessions(context.Background(), UserContext{UserID: uuid.New()})
	require.NoError(t, err)
	assert.Empty(t, other)
}

package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"vtopassist-backend/lib/llm"
	"vtopassist-backend/lib/scrapers/vtop"
	"vtopassist-backend/lib/telemetry"
	"vtopassist-backend/lib/timezone"
	"vtopassist-backend/services/chat/db"

	"go.opentelemetry.io/otel/codes"

	_ "modernc.org/sqlite"
)

var tracer = telemetry.Tracer("vtopassist.services.chat")

type Options struct {
	// Solver answers portal captchas during login.
	Solver vtop.Solver
	// VtopBaseUrl overrides the portal URL for every session's client,
	// tests point this at a local double.
	VtopBaseUrl string
	// Demo is the shared demo account handed out when a login request
	// asks for demo mode.
	Demo Credentials
	// SessionIdleTTL evicts sessions nobody has touched. Zero means an
	// hour.
	SessionIdleTTL time.Duration
}

type Service struct {
	db        *sql.DB
	qry       *db.Queries
	store     *SessionStore
	llm       *llm.Client
	scheduler *llm.Scheduler
	config    Options
}

func NewService(database *sql.DB, llmClient *llm.Client, scheduler *llm.Scheduler, options Options) Service {
	idleTTL := options.SessionIdleTTL
	if idleTTL == 0 {
		idleTTL = time.Hour
	}
	return Service{
		db:        database,
		qry:       db.New(database),
		store:     NewSessionStore(idleTTL),
		llm:       llmClient,
		scheduler: scheduler,
		config:    options,
	}
}

type LoginRequest struct {
	Username string
	Password string
	Campus   vtop.Campus
	UseDemo  bool
}

type LoginResult struct {
	SessionId string
	IsDemo    bool
}

// Login authenticates against the portal and installs a fresh session,
// discarding any state a previous login under the same id left behind.
func (s Service) Login(ctx context.Context, sessionId string, req LoginRequest) (LoginResult, error) {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	fail := func(err error) (LoginResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return LoginResult{}, err
	}

	if sessionId == "" {
		var err error
		sessionId, err = NewSessionId()
		if err != nil {
			return fail(err)
		}
	}

	creds := Credentials{
		Username: req.Username,
		Password: req.Password,
		Campus:   req.Campus,
	}
	if req.UseDemo {
		creds = s.config.Demo
		creds.IsDemo = true
	}

	client, err := vtop.NewClient(vtop.ClientOptions{
		Campus:  creds.Campus,
		Solver:  s.config.Solver,
		BaseUrl: s.config.VtopBaseUrl,
	})
	if err != nil {
		return fail(err)
	}
	err = client.Login(ctx, vtop.Credentials{
		Username: creds.Username,
		Password: creds.Password,
	})
	if err != nil {
		return fail(err)
	}

	session := s.store.Reset(sessionId)
	session.SetLoggedIn(client, creds)

	go s.recordLogin(context.WithoutCancel(ctx), session)

	return LoginResult{SessionId: sessionId, IsDemo: creds.IsDemo}, nil
}

// recordLogin writes the login event. Failures are logged, never
// surfaced; the user is already in.
func (s Service) recordLogin(ctx context.Context, session *Session) {
	auth, err := session.Client().AuthData(ctx)
	if err != nil {
		slog.WarnContext(ctx, "resolve auth id for login log", "err", err)
		return
	}
	now := timezone.Now().Unix()
	err = s.qry.UpsertUserSeen(ctx, db.UpsertUserSeenParams{
		AuthID: auth.AuthorizedID,
		SeenAt: now,
	})
	if err != nil {
		slog.WarnContext(ctx, "upsert user", "err", err)
		return
	}
	err = s.qry.InsertLoginLog(ctx, db.InsertLoginLogParams{
		AuthID:    auth.AuthorizedID,
		SessionID: session.Id,
		Campus:    string(session.Credentials().Campus),
		LoginTime: now,
	})
	if err != nil {
		slog.WarnContext(ctx, "insert login log", "err", err)
	}
}

type SessionInfo struct {
	IsLoggedIn     bool `json:"isLoggedIn"`
	IsDemo         bool `json:"isDemo"`
	HasCredentials bool `json:"hasCredentials"`
}

func (s Service) SessionInfo(sessionId string) SessionInfo {
	session, ok := s.store.Get(sessionId)
	if !ok {
		return SessionInfo{}
	}
	creds := session.Credentials()
	return SessionInfo{
		IsLoggedIn:     session.LoggedIn(),
		IsDemo:         creds.IsDemo,
		HasCredentials: creds.Username != "",
	}
}

func (s Service) Logout(sessionId string) {
	s.store.Remove(sessionId)
}

// Chat answers one user message. Degraded conditions come back as
// canned replies rather than errors so the conversation never breaks.
func (s Service) Chat(ctx context.Context, sessionId, message string) (string, error) {
	ctx, span := tracer.Start(ctx, "Chat")
	defer span.End()

	session, ok := s.store.Get(sessionId)
	if !ok || !session.LoggedIn() {
		return notConnectedMessage, nil
	}

	session.AppendHistory("user", message)

	intents := s.recognizeIntents(ctx, session, message)
	slog.InfoContext(ctx, "recognized intents", "session", sessionId, "intents", intents)

	var reply string
	if len(intents) > 1 && !containsIntent(intents, IntentGeneral) {
		reply = s.answerMulti(ctx, session, message, intents)
	} else {
		reply = s.answerSingle(ctx, session, message, intents[0])
	}

	session.AppendHistory("model", reply)
	return reply, nil
}

// recognizeIntents asks the classifier which data the message needs.
// A classifier failure degrades to the general intent.
func (s Service) recognizeIntents(ctx context.Context, session *Session, message string) []Intent {
	ctx, span := tracer.Start(ctx, "recognizeIntents")
	defer span.End()

	raw, err := llm.CallWithRetry(ctx, s.scheduler, func(ctx context.Context, sel llm.Selection) (string, error) {
		return s.llm.GenerateContent(ctx, sel.Key, sel.Model, llm.GenerateRequest{
			History: session.History(),
			Prompt:  ClassifierPrompt(message),
		})
	})
	if err != nil {
		span.RecordError(err)
		slog.WarnContext(ctx, "intent classification failed", "err", err)
		return []Intent{IntentGeneral}
	}
	return ParseIntents(raw)
}

// answerMulti fetches every requested category concurrently and builds
// one combined reply. A category that fails to fetch is dropped from
// the reply instead of sinking the whole request.
func (s Service) answerMulti(ctx context.Context, session *Session, message string, intents []Intent) string {
	ctx, span := tracer.Start(ctx, "answerMulti")
	defer span.End()

	var mu sync.Mutex
	data := map[Intent]string{}

	var wg sync.WaitGroup
	for _, intent := range intents {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payload, err := s.fetchCategory(ctx, session, intent)
			if err != nil {
				slog.WarnContext(ctx, "fetch category", "intent", intent, "err", err)
				return
			}
			mu.Lock()
			data[intent] = payload
			mu.Unlock()
		}()
	}
	wg.Wait()

	return s.generate(ctx, session, ResponsePrompt(message, intents, data))
}

func (s Service) answerSingle(ctx context.Context, session *Session, message string, intent Intent) string {
	ctx, span := tracer.Start(ctx, "answerSingle")
	defer span.End()

	if intent == IntentGeneral {
		return s.generate(ctx, session, GeneralPrompt(message))
	}

	payload, err := s.fetchCategory(ctx, session, intent)
	if err != nil {
		span.RecordError(err)
		slog.WarnContext(ctx, "fetch category", "intent", intent, "err", err)
		return fetchApologies[intent]
	}
	prompt := ResponsePrompt(message, []Intent{intent}, map[Intent]string{intent: payload})
	return s.generate(ctx, session, prompt)
}

// generate runs the response model over the scheduler's rotation and
// maps scheduler exhaustion onto user-facing degraded messages.
func (s Service) generate(ctx context.Context, session *Session, prompt string) string {
	reply, err := llm.CallWithRetry(ctx, s.scheduler, func(ctx context.Context, sel llm.Selection) (string, error) {
		return s.llm.GenerateContent(ctx, sel.Key, sel.Model, llm.GenerateRequest{
			SystemInstruction: systemInstruction,
			History:           session.History(),
			Prompt:            prompt,
		})
	})
	switch {
	case err == nil:
		return reply
	case errors.Is(err, llm.ErrNoCredentials):
		return keysExhaustedMessage
	case errors.Is(err, llm.ErrDailyLimited):
		return dailyLimitMessage
	case errors.Is(err, llm.ErrOverloaded):
		return overloadedMessage
	default:
		slog.ErrorContext(ctx, "generate response", "err", err)
		return generateFailMessage
	}
}

// fetchCategory pulls one data category through the session's portal
// client and serializes it for the model.
func (s Service) fetchCategory(ctx context.Context, session *Session, intent Intent) (string, error) {
	client := session.Client()
	semesterId := session.Credentials().Campus.DefaultSemesterId()

	var value any
	var err error
	switch intent {
	case IntentCgpa:
		value, err = client.Cgpa(ctx)
	case IntentAttendance:
		value, err = client.Attendance(ctx, semesterId)
	case IntentMarks:
		value, err = client.Marks(ctx, semesterId)
	case IntentAssignments:
		value, err = client.Assignments(ctx, semesterId)
	case IntentExamSchedule:
		value, err = client.ExamSchedule(ctx, semesterId)
	case IntentTimetable:
		value, err = client.Timetable(ctx, semesterId)
	case IntentGrades:
		value, err = client.Grades(ctx, semesterId)
	case IntentProctor:
		value, err = client.Proctor(ctx)
	default:
		return "", fmt.Errorf("no data source for intent %q", intent)
	}
	if err != nil {
		return "", err
	}

	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// DirectData serves one category as raw JSON with no model involved.
func (s Service) DirectData(ctx context.Context, sessionId string, functionId string) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "DirectData")
	defer span.End()

	fail := func(err error) (json.RawMessage, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "direct data failed")
		return nil, err
	}

	session, ok := s.store.Get(sessionId)
	if !ok || !session.LoggedIn() {
		return fail(errors.New("not logged in"))
	}

	// the chat classifier names functions getcgpa, getattendance, ...
	// while the frontend's direct calls send bare category ids like
	// cgpa; accept both spellings
	id := strings.ToLower(functionId)
	intent := Intent(id)
	if _, ok := knownIntents[intent]; !ok {
		intent = Intent("get" + id)
	}
	if _, ok := knownIntents[intent]; !ok || intent == IntentGeneral {
		return fail(fmt.Errorf("unknown function %q", functionId))
	}

	payload, err := s.fetchCategory(ctx, session, intent)
	if err != nil {
		return fail(err)
	}
	return json.RawMessage(payload), nil
}

// LoginHistory returns the recorded login events for the session's
// account, most recent first.
func (s Service) LoginHistory(ctx context.Context, sessionId string, limit int64) ([]db.LoginLog, error) {
	session, ok := s.store.Get(sessionId)
	if !ok || !session.LoggedIn() {
		return nil, errors.New("not logged in")
	}
	auth, err := session.Client().AuthData(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	return s.qry.GetLoginLogs(ctx, auth.AuthorizedID, limit)
}

func containsIntent(intents []Intent, target Intent) bool {
	for _, intent := range intents {
		if intent == target {
			return true
		}
	}
	return false
}

package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindhaven/internal/bootstrap"
	"mindhaven/internal/config"
	"mindhaven/internal/model"
	"mindhaven/internal/observability"
	"mindhaven/internal/testutil"
	httptransport "mindhaven/internal/transport/http"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	app     *bootstrap.App
}

func newTestServer(t *testing.T, withRedis bool) *testServer {
	t.Helper()

	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Stream bool `json:"stream"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Stream {
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"I hear \"}}]}\n\n")
			fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"you.\"}}]}\n\n")
			fmt.Fprint(w, "data: [DONE]\n\n")
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"I hear you."}}]}`))
	}))
	t.Cleanup(llm.Close)

	predictor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"prediction":1,"label":"At risk"}`))
	}))
	t.Cleanup(predictor.Close)

	cfg := &config.Config{
		App:       config.AppConfig{Name: "mindhaven", Env: "test", GinMode: "test", Port: 8000},
		Auth:      config.AuthConfig{JWTSecret: "router-secret", JWTExpireHour: 360},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
		LLM:       config.LLMConfig{BaseURL: llm.URL, Model: "test", MaxContextMessage: 10, TimeoutSeconds: 5},
		Predictor: config.PredictorConfig{URL: predictor.URL, TimeoutSeconds: 5},
		RabbitMQ:  config.RabbitMQConfig{TherapyMessageQueue: "therapy.message.persist"},
	}

	app := &bootstrap.App{
		Config:    cfg,
		Log:       observability.NewLoggerTo(io.Discard, "error"),
		MySQL:     testutil.NewDB(t),
		StartedAt: time.Now(),
	}
	if withRedis {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		t.Cleanup(mr.Close)
		app.Redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = app.Redis.Close() })
	}

	return &testServer{t: t, handler: httptransport.NewRouter(app), app: app}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type authBody struct {
	ID             uint   `json:"id"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture"`
	Token          string `json:"token"`
	Password       string `json:"password"`
	PasswordHash   string `json:"passwordHash"`
}

func (s *testServer) signup(email, gender string) authBody {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/user/signup", "", map[string]any{
		"name": "A", "email": email, "password": "pw123456", "gender": gender, "age": 20,
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	var out authBody
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestSignupLoginScenario(t *testing.T) {
	s := newTestServer(t, false)

	created := s.signup("a@x.com", "Male")
	assert.NotEmpty(t, created.Token)
	assert.Empty(t, created.Password)
	assert.Empty(t, created.PasswordHash)
	assert.Contains(t, created.ProfilePicture, "/public/boy?username=a%40x.com")

	rec := s.do(http.MethodPost, "/user/login", "", map[string]string{"email": "a@x.com", "password": "pw123456"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[authBody](t, rec)
	assert.Equal(t, created.ID, login.ID)
	assert.NotEmpty(t, login.Token)

	rec = s.do(http.MethodPost, "/user/login", "", map[string]string{"email": "a@x.com", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid email or password","code":40101}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/user/signup", "", map[string]any{
		"name": "B", "email": "a@x.com", "password": "pw123456", "gender": "Female", "age": 30,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Email already exists","code":40002}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/user/logout", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Logged out successfully"}`, rec.Body.String())
}

func TestSignupBindingErrors(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(http.MethodPost, "/user/signup", "", map[string]any{
		"name": "A", "email": "a@x.com", "password": "pw123456", "gender": "robot", "age": 20,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "gender must be one of")

	rec = s.do(http.MethodPost, "/user/signup", "", map[string]any{
		"name": "A", "email": "a@x.com", "password": "pw123456", "gender": "Male",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "age is required")
}

func TestPostLifecycle(t *testing.T) {
	s := newTestServer(t, true)
	owner := s.signup("owner@x.com", "Female")
	other := s.signup("other@x.com", "Non Binary")

	rec := s.do(http.MethodPost, "/posts/createPost", "", map[string]any{"title": "t", "article": "a"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/posts/createPost", owner.Token, map[string]any{
		"title": "Hard week", "article": "It got better.", "options": "sad", "tags": []string{"work"}, "createdBy": other.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	post := decode[model.Post](t, rec)
	assert.Equal(t, owner.ID, post.CreatedBy, "creator comes from the token")

	rec = s.do(http.MethodGet, fmt.Sprintf("/posts/getPost/%d", post.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[model.Post](t, rec)
	assert.Equal(t, "Hard week", got.Title)
	assert.Equal(t, "sad", got.Category)
	assert.Equal(t, []string{"work"}, got.Tags)
	assert.Contains(t, rec.Body.String(), `"options":"sad"`)

	rec = s.do(http.MethodDelete, fmt.Sprintf("/posts/deletePosts/%d", post.ID), other.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, fmt.Sprintf("/posts/getPost/%d", post.ID), "", nil).Code)

	rec = s.do(http.MethodPut, fmt.Sprintf("/posts/editPosts/%d", post.ID), other.Token, map[string]any{"title": "", "article": ""})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPut, fmt.Sprintf("/posts/editPosts/%d", post.ID), owner.Token, map[string]any{"title": "", "article": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, fmt.Sprintf("/posts/editPosts/%d", post.ID), owner.Token, map[string]any{
		"title": "Better week", "article": "Much better.", "createdBy": other.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[model.Post](t, rec)
	assert.Equal(t, "Better week", updated.Title)
	assert.Empty(t, updated.Category)
	assert.Empty(t, updated.Tags)
	assert.Equal(t, owner.ID, updated.CreatedBy)

	rec = s.do(http.MethodGet, "/posts/getAllPosts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[[]model.Post](t, rec)
	require.Len(t, all, 1)
	assert.Equal(t, "Better week", all[0].Title)

	rec = s.do(http.MethodGet, fmt.Sprintf("/user/%d/posts", owner.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Post](t, rec), 1)

	rec = s.do(http.MethodDelete, fmt.Sprintf("/posts/deletePosts/%d", post.ID), owner.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Post deleted"}`, rec.Body.String())

	rec = s.do(http.MethodGet, fmt.Sprintf("/posts/getPost/%d", post.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Post not found","code":40400}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/posts/getAllPosts", "", nil)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestCreatePostEmptyTitle(t *testing.T) {
	s := newTestServer(t, false)
	u := s.signup("u@x.com", "Male")

	rec := s.do(http.MethodPost, "/posts/createPost", u.Token, map[string]any{"title": "", "article": "body"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":40000`)

	var count int64
	require.NoError(t, s.app.MySQL.Model(&model.Post{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestNonNumericIDIsNotFound(t *testing.T) {
	s := newTestServer(t, false)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/posts/getPost/abc", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/user/abc", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/user/77/posts", "", nil).Code)
}

func TestUserProfile(t *testing.T) {
	s := newTestServer(t, false)
	me := s.signup("me@x.com", "Female")
	other := s.signup("them@x.com", "Male")

	rec := s.do(http.MethodGet, fmt.Sprintf("/user/%d", me.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	path := fmt.Sprintf("/user/%d", me.ID)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPut, path, "", map[string]any{"bio": "x"}).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPut, path, other.Token, map[string]any{"bio": "x"}).Code)

	rec = s.do(http.MethodPut, path, me.Token, map[string]any{"bio": "hello", "gender": "Non Binary"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "hello", body["bio"])
	assert.Equal(t, "A", body["name"])
	assert.Equal(t, "https://avatar.iran.liara.run/public?username=me%40x.com", body["profilePicture"])

	rec = s.do(http.MethodPut, path, me.Token, map[string]any{"age": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTherapyChat(t *testing.T) {
	s := newTestServer(t, true)
	u := s.signup("chat@x.com", "Female")

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/chat/messages", "", map[string]any{"message": "hi"}).Code)

	rec := s.do(http.MethodPost, "/chat/messages", u.Token, map[string]any{
		"message":     "I feel stuck",
		"quizAnswers": map[string]string{"1": "Often"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "I hear you.", decode[map[string]any](t, rec)["reply"])

	rec = s.do(http.MethodPost, "/chat/messages", u.Token, map[string]any{"message": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/chat/stream", u.Token, map[string]any{"message": "again"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "data: I hear \n\n")
	assert.Contains(t, rec.Body.String(), "event: done\ndata: I hear you.\n\n")

	rec = s.do(http.MethodGet, "/chat/history?limit=10", u.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.TherapyMessage](t, rec), 4)

	rec = s.do(http.MethodDelete, "/chat/history", u.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, "/chat/history", u.Token, nil)
	assert.Empty(t, decode[[]model.TherapyMessage](t, rec))
}

func TestQuizAndPrediction(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(http.MethodGet, "/quiz/questions", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 10)

	features := map[string]float64{
		"Gender": 0, "Age": 22, "Academic Pressure": 5, "Study Satisfaction": 2, "Sleep Duration": 1,
		"Dietary Habits": 1, "Have you ever had suicidal thoughts ?": 0, "Study Hours": 6,
		"Financial Stress": 3, "Family History of Mental Illness": 1,
	}
	rec = s.do(http.MethodPost, "/model/predict-mental-health", "", features)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"prediction":1,"label":"At risk"}`, rec.Body.String())

	delete(features, "Age")
	rec = s.do(http.MethodPost, "/model/predict-mental-health", "", features)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "up", deps["mysql"].(map[string]any)["status"])
	assert.Equal(t, "skipped", deps["redis"].(map[string]any)["status"])
	assert.Equal(t, "skipped", deps["rabbitmq"].(map[string]any)["status"])

	rec = s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

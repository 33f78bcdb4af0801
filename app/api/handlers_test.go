package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/engineed/engineed/app/database"
	"github.com/engineed/engineed/app/scrape"
	"github.com/engineed/engineed/app/tasks"
	"github.com/engineed/engineed/app/vocab"
)

type stubTask struct {
	tasks.Task
}

func (t *stubTask) Execute(_ context.Context) error { return nil }

type stubScheduler struct {
	triggered []string
}

func (s *stubScheduler) Start() {}
func (s *stubScheduler) Stop()  {}

func (s *stubScheduler) EnqueueTask(_ tasks.TaskInterface) error { return nil }

func (s *stubScheduler) TriggerSource(name string) (tasks.TaskInterface, error) {
	s.triggered = append(s.triggered, name)
	return &stubTask{Task: tasks.NewTask(tasks.TaskTypeCrawlSource, name)}, nil
}

type testEnv struct {
	router      *gin.Engine
	articleRepo database.ArticleRepository
	tagRepo     database.TagRepository
	scheduler   *stubScheduler
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.NewConnection(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	sourcesDir := t.TempDir()
	configYAML := "adapter: qiita\nsettings:\n  enabled: true\n  refresh_interval: 3600\n"
	if err := os.WriteFile(filepath.Join(sourcesDir, "qiita.yml"), []byte(configYAML), 0644); err != nil {
		t.Fatalf("Failed to write source config: %v", err)
	}
	configCache := scrape.NewConfigCache(sourcesDir)
	if err := configCache.Run(); err != nil {
		t.Fatalf("Failed to load source configs: %v", err)
	}

	vocabStore := vocab.NewStore(filepath.Join(t.TempDir(), "tech_keywords.yml"))
	if err := vocabStore.Load(); err != nil {
		t.Fatalf("Failed to load vocabulary: %v", err)
	}

	articleRepo := database.NewArticleRepository(db)
	tagRepo := database.NewTagRepository(db)
	jobRepo := database.NewJobRepository(db)
	scheduler := &stubScheduler{}

	handler := NewHandler(configCache, articleRepo, tagRepo, jobRepo, vocabStore, scheduler)
	return &testEnv{
		router:      NewServer(handler, "test-key"),
		articleRepo: articleRepo,
		tagRepo:     tagRepo,
		scheduler:   scheduler,
	}
}

func seedArticle(t *testing.T, repo database.ArticleRepository, url, source string, tags []string) int64 {
	t.Helper()

	id, err := repo.SaveArticle(context.Background(), database.ArticleRecord{
		URL:             url,
		Title:           "テスト記事 " + url,
		Content:         strings.Repeat("本文。", 100),
		Source:          source,
		Language:        "ja",
		DifficultyLevel: 2,
		ReadingTime:     1,
		Tags:            tags,
	})
	if err != nil {
		t.Fatalf("Failed to seed article: %v", err)
	}
	return id
}

func doRequest(env *testEnv, method, path, body, apiKey string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestGetHealth(t *testing.T) {
	env := setupTestServer(t)

	w := doRequest(env, http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["loaded_configurations"] != float64(1) {
		t.Errorf("Expected 1 loaded configuration, got %v", body["loaded_configurations"])
	}
}

func TestListArticlesWithFilters(t *testing.T) {
	env := setupTestServer(t)
	seedArticle(t, env.articleRepo, "https://qiita.com/items/1", "qiita", []string{"go"})
	seedArticle(t, env.articleRepo, "https://zenn.dev/articles/2", "zenn", []string{"react"})

	w := doRequest(env, http.MethodGet, "/api/articles", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Articles []articleResponse `json:"articles"`
		Total    int               `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Total != 2 {
		t.Errorf("Expected 2 articles, got %d", body.Total)
	}
	for _, article := range body.Articles {
		if article.Content != "" {
			t.Error("Expected list responses to omit article content")
		}
	}

	w = doRequest(env, http.MethodGet, "/api/articles?source=zenn", "", "")
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Total != 1 || body.Articles[0].Source != "zenn" {
		t.Errorf("Expected only the zenn article, got %+v", body.Articles)
	}

	w = doRequest(env, http.MethodGet, "/api/articles?tag=go", "", "")
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Total != 1 || body.Articles[0].Source != "qiita" {
		t.Errorf("Expected only the tagged qiita article, got %+v", body.Articles)
	}

	w = doRequest(env, http.MethodGet, "/api/articles?difficulty=9", "", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for out-of-range difficulty, got %d", w.Code)
	}
}

func TestGetArticleByID(t *testing.T) {
	env := setupTestServer(t)
	id := seedArticle(t, env.articleRepo, "https://qiita.com/items/1", "qiita", nil)

	w := doRequest(env, http.MethodGet, fmt.Sprintf("/api/articles/%d", id), "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var article articleResponse
	if err := json.Unmarshal(w.Body.Bytes(), &article); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if article.Content == "" {
		t.Error("Expected detail response to include content")
	}

	w = doRequest(env, http.MethodGet, "/api/articles/99999", "", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown article, got %d", w.Code)
	}
}

func TestTriggerScrapeRequiresAuth(t *testing.T) {
	env := setupTestServer(t)

	w := doRequest(env, http.MethodPost, "/api/scrape/qiita", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without API key, got %d", w.Code)
	}

	w = doRequest(env, http.MethodPost, "/api/scrape/qiita", "", "wrong-key")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 with wrong API key, got %d", w.Code)
	}

	w = doRequest(env, http.MethodPost, "/api/scrape/qiita", "", "test-key")
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if len(env.scheduler.triggered) != 1 || env.scheduler.triggered[0] != "qiita" {
		t.Errorf("Expected scheduler triggered for qiita, got %v", env.scheduler.triggered)
	}

	w = doRequest(env, http.MethodPost, "/api/scrape/unknown", "", "test-key")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown source, got %d", w.Code)
	}
}

func TestSetTagParent(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	parent, err := env.tagRepo.GetOrCreateTag(ctx, "web", "concept")
	if err != nil {
		t.Fatalf("Failed to create tag: %v", err)
	}
	child, err := env.tagRepo.GetOrCreateTag(ctx, "react", "framework")
	if err != nil {
		t.Fatalf("Failed to create tag: %v", err)
	}

	body := fmt.Sprintf(`{"parent_id": %d}`, parent.ID)
	w := doRequest(env, http.MethodPut, fmt.Sprintf("/api/tags/%d/parent", child.ID), body, "test-key")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Linking the parent under its own descendant must be rejected
	body = fmt.Sprintf(`{"parent_id": %d}`, child.ID)
	w = doRequest(env, http.MethodPut, fmt.Sprintf("/api/tags/%d/parent", parent.ID), body, "test-key")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for cycle, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAddVocabTerm(t *testing.T) {
	env := setupTestServer(t)

	w := doRequest(env, http.MethodPost, "/api/vocab", `{"category": "languages", "term": "gleam"}`, "test-key")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(env, http.MethodPost, "/api/vocab", `{"category": "languages"}`, "test-key")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing term, got %d", w.Code)
	}
}

package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/engineed/engineed/app/cfg"
	"github.com/engineed/engineed/app/database"
	"github.com/engineed/engineed/app/scrape"
	"github.com/engineed/engineed/app/tasks"
	"github.com/engineed/engineed/app/vocab"
)

func NewHandler(configCache *scrape.ConfigCache, articleRepo database.ArticleRepository,
	tagRepo database.TagRepository, jobRepo database.JobRepository,
	vocabStore *vocab.Store, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		configCache: configCache,
		articleRepo: articleRepo,
		tagRepo:     tagRepo,
		jobRepo:     jobRepo,
		vocabStore:  vocabStore,
		scheduler:   scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   cfg.GetVersion(),
	}

	if articleCount, err := h.articleRepo.GetArticleCount(c.Request.Context()); err == nil {
		health["articles"] = articleCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	stats := map[string]interface{}{}

	articleCount, err := h.articleRepo.GetArticleCount(ctx)
	if err != nil {
		slog.Error("Database error", "operation", "get_article_count", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	stats["articles"] = articleCount

	if sourceCounts, err := h.articleRepo.GetSourceCounts(ctx); err == nil {
		stats["by_source"] = sourceCounts
	}

	if tagCount, err := h.tagRepo.GetTagCount(ctx); err == nil {
		stats["tags"] = tagCount
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ListArticles(c *gin.Context) {
	opts := database.ArticleListOptions{
		Source: c.Query("source"),
		Tag:    c.Query("tag"),
		Search: c.Query("search"),
	}

	if raw := c.Query("difficulty"); raw != "" {
		difficulty, err := strconv.Atoi(raw)
		if err != nil || difficulty < 1 || difficulty > 5 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid difficulty, expected 1-5"})
			return
		}
		opts.Difficulty = difficulty
	}

	if raw := c.Query("tutorial"); raw != "" {
		tutorial, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tutorial flag"})
			return
		}
		opts.Tutorial = &tutorial
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit, expected 1-200"})
			return
		}
		opts.Limit = limit
	}

	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset"})
			return
		}
		opts.Offset = offset
	}

	articles, err := h.articleRepo.GetArticles(c.Request.Context(), opts)
	if err != nil {
		slog.Error("Database error", "operation", "get_articles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	responses := make([]articleResponse, 0, len(articles))
	for i := range articles {
		responses = append(responses, toArticleResponse(&articles[i], false))
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": responses,
		"total":    len(responses),
	})
}

func (h *Handler) GetArticle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid article ID"})
		return
	}

	article, err := h.articleRepo.GetArticleByID(c.Request.Context(), id)
	if err != nil {
		slog.Error("Database error", "operation", "get_article", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	c.JSON(http.StatusOK, toArticleResponse(article, true))
}

func (h *Handler) ListTags(c *gin.Context) {
	tags, err := h.tagRepo.GetTags(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "get_tags", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	responses := make([]tagResponse, 0, len(tags))
	for _, tag := range tags {
		responses = append(responses, toTagResponse(tag))
	}

	c.JSON(http.StatusOK, gin.H{
		"tags":  responses,
		"total": len(responses),
	})
}

func (h *Handler) ListJobs(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit, expected 1-200"})
			return
		}
		limit = parsed
	}

	jobs, err := h.jobRepo.GetJobs(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_jobs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	responses := make([]jobResponse, 0, len(jobs))
	for _, job := range jobs {
		responses = append(responses, toJobResponse(job))
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":  responses,
		"total": len(responses),
	})
}

func (h *Handler) APITriggerScrape(c *gin.Context) {
	name := c.Param("source")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source name parameter"})
		return
	}

	if _, err := h.configCache.GetConfig(name); err != nil {
		slog.Error("Source configuration not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}

	task, err := h.scheduler.TriggerSource(name)
	if err != nil {
		slog.Error("Error enqueueing crawl task", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue crawl task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Crawl task enqueued successfully",
		"task": gin.H{
			"id":     task.GetID(),
			"type":   task.GetType(),
			"source": task.GetSourceName(),
		},
	})
}

func (h *Handler) APIAddVocabTerm(c *gin.Context) {
	var req struct {
		Category string `json:"category" binding:"required"`
		Term     string `json:"term" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.vocabStore.Add(req.Category, req.Term); err != nil {
		slog.Error("Failed to add vocabulary term", "category", req.Category, "term", req.Term, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add vocabulary term"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"category": req.Category,
		"term":     req.Term,
	})
}

func (h *Handler) APISetTagParent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tag ID"})
		return
	}

	var req struct {
		ParentID *int64 `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.tagRepo.SetParent(c.Request.Context(), id, req.ParentID); err != nil {
		slog.Error("Failed to set tag parent", "tag_id", id, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to set tag parent",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

package api

import (
	"time"

	"github.com/engineed/engineed/app/database"
	"github.com/engineed/engineed/app/scrape"
	"github.com/engineed/engineed/app/tasks"
	"github.com/engineed/engineed/app/vocab"
)

type Handler struct {
	configCache *scrape.ConfigCache
	articleRepo database.ArticleRepository
	tagRepo     database.TagRepository
	jobRepo     database.JobRepository
	vocabStore  *vocab.Store
	scheduler   tasks.TaskSchedulerInterface
}

type articleResponse struct {
	ID              int64         `json:"id"`
	URL             string        `json:"url"`
	Title           string        `json:"title"`
	Summary         *string       `json:"summary"`
	Source          string        `json:"source"`
	Author          string        `json:"author,omitempty"`
	Language        string        `json:"language"`
	PublishedAt     *time.Time    `json:"published_at"`
	ScrapedAt       time.Time     `json:"scraped_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	LikesCount      int           `json:"likes_count"`
	ViewCount       int           `json:"view_count"`
	CommentCount    int           `json:"comment_count"`
	Score           float64       `json:"score"`
	DifficultyLevel int           `json:"difficulty_level"`
	ReadingTime     int           `json:"reading_time"`
	IsTutorial      bool          `json:"is_tutorial"`
	IsOfficialDoc   bool          `json:"is_official_doc"`
	Tags            []tagResponse `json:"tags"`
	Content         string        `json:"content,omitempty"`
}

type tagResponse struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	ParentID        *int64  `json:"parent_id,omitempty"`
	PopularityScore float64 `json:"popularity_score"`
	TrendScore      float64 `json:"trend_score"`
}

type jobResponse struct {
	ID              int64      `json:"id"`
	Source          string     `json:"source"`
	Status          string     `json:"status"`
	StartedAt       *time.Time `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	ArticlesScraped int        `json:"articles_scraped"`
	ErrorsCount     int        `json:"errors_count"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// includeContent controls whether the full article body is serialized; list
// endpoints leave it out.
func toArticleResponse(article *database.Article, includeContent bool) articleResponse {
	resp := articleResponse{
		ID:              article.ID,
		URL:             article.URL,
		Title:           article.Title,
		Summary:         article.Summary,
		Source:          article.Source,
		Author:          article.Author,
		Language:        article.Language,
		PublishedAt:     article.PublishedAt,
		ScrapedAt:       article.ScrapedAt,
		UpdatedAt:       article.UpdatedAt,
		LikesCount:      article.LikesCount,
		ViewCount:       article.ViewCount,
		CommentCount:    article.CommentCount,
		Score:           article.Score,
		DifficultyLevel: article.DifficultyLevel,
		ReadingTime:     article.ReadingTime,
		IsTutorial:      article.IsTutorial,
		IsOfficialDoc:   article.IsOfficialDoc,
		Tags:            make([]tagResponse, 0, len(article.Tags)),
	}
	if includeContent {
		resp.Content = article.Content
	}
	for _, tag := range article.Tags {
		resp.Tags = append(resp.Tags, toTagResponse(tag))
	}
	return resp
}

func toTagResponse(tag database.TechTag) tagResponse {
	return tagResponse{
		ID:              tag.ID,
		Name:            tag.Name,
		Category:        tag.Category,
		ParentID:        tag.ParentID,
		PopularityScore: tag.PopularityScore,
		TrendScore:      tag.TrendScore,
	}
}

func toJobResponse(job database.ScrapingJob) jobResponse {
	return jobResponse{
		ID:              job.ID,
		Source:          job.Source,
		Status:          job.Status,
		StartedAt:       job.StartedAt,
		CompletedAt:     job.CompletedAt,
		ArticlesScraped: job.ArticlesScraped,
		ErrorsCount:     job.ErrorsCount,
		ErrorMessage:    job.ErrorMessage,
		CreatedAt:       job.CreatedAt,
	}
}

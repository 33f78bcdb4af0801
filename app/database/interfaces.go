package database

import (
	"context"
	"time"
)

// ArticleRecord is the persistence input produced by the ingestion pipeline.
// Tags carry normalized display names; the repository resolves them against
// tech_tags and links them inside the same transaction as the article upsert.
type ArticleRecord struct {
	URL             string
	Title           string
	Content         string
	Summary         *string
	Source          string
	Author          string
	Language        string
	PublishedAt     *time.Time
	LikesCount      int
	ViewCount       int
	CommentCount    int
	Score           float64
	DifficultyLevel int
	ReadingTime     int
	IsTutorial      bool
	IsOfficialDoc   bool
	Tags            []string
}

// ArticleListOptions narrows GetArticles results. Zero values mean no filter.
type ArticleListOptions struct {
	Source     string
	Tag        string
	Difficulty int
	Tutorial   *bool
	Search     string
	Limit      int
	Offset     int
}

type ArticleRepository interface {
	SaveArticle(ctx context.Context, record ArticleRecord) (int64, error)
	GetArticleByID(ctx context.Context, id int64) (*Article, error)
	GetArticleByURL(ctx context.Context, url string) (*Article, error)
	GetArticles(ctx context.Context, opts ArticleListOptions) ([]Article, error)
	GetArticleCount(ctx context.Context) (int, error)
	GetSourceCounts(ctx context.Context) (map[string]int, error)
}

type TagRepository interface {
	GetOrCreateTag(ctx context.Context, name, category string) (*TechTag, error)
	GetTagByName(ctx context.Context, name string) (*TechTag, error)
	GetTags(ctx context.Context) ([]TechTag, error)
	GetTagCount(ctx context.Context) (int, error)
	SetParent(ctx context.Context, tagID int64, parentID *int64) error
}

type JobRepository interface {
	CreateJob(ctx context.Context, source string) (int64, error)
	MarkRunning(ctx context.Context, jobID int64) error
	MarkCompleted(ctx context.Context, jobID int64, scraped, errors int) error
	MarkFailed(ctx context.Context, jobID int64, scraped, errors int, message string) error
	GetJobs(ctx context.Context, limit int) ([]ScrapingJob, error)
	GetJobByID(ctx context.Context, id int64) (*ScrapingJob, error)
}

package database

import (
	"time"
)

type Article struct {
	ID              int64
	URL             string
	Title           string
	Content         string
	Summary         *string // NULL when content was too short to summarize
	Source          string
	Author          string
	Language        string
	PublishedAt     *time.Time
	ScrapedAt       time.Time // First-seen time, preserved across re-ingestion
	UpdatedAt       time.Time
	LikesCount      int
	ViewCount       int
	CommentCount    int
	Score           float64
	DifficultyLevel int
	ReadingTime     int
	IsTutorial      bool
	IsOfficialDoc   bool
	Tags            []TechTag
}

type TechTag struct {
	ID              int64
	Name            string
	Category        string // language, framework, tool, database, cloud, concept
	ParentID        *int64
	PopularityScore float64
	TrendScore      float64
	CreatedAt       time.Time
}

type ScrapingJob struct {
	ID              int64
	Source          string
	Status          string // pending, running, completed, failed
	StartedAt       *time.Time
	CompletedAt     *time.Time
	ArticlesScraped int
	ErrorsCount     int
	ErrorMessage    string
	CreatedAt       time.Time
}

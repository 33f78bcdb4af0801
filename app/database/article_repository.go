package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

var _ ArticleRepository = (*ArticleRepositoryImpl)(nil)

type ArticleRepositoryImpl struct {
	db *DB
}

func NewArticleRepository(db *DB) *ArticleRepositoryImpl {
	return &ArticleRepositoryImpl{db: db}
}

// SaveArticle inserts or updates an article and associates its tags inside
// a single transaction. On update the first-seen scraped_at is preserved,
// only mutable fields change, and previously associated tags stay linked.
// Returns the article row ID.
func (r *ArticleRepositoryImpl) SaveArticle(ctx context.Context, record ArticleRecord) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	var articleID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM articles WHERE url = ?`, record.URL).Scan(&articleID)
	switch {
	case err == sql.ErrNoRows:
		result, insertErr := tx.ExecContext(ctx, `
			INSERT INTO articles (url, title, content, summary, source, author, language,
			                      published_at, scraped_at, updated_at, likes_count,
			                      view_count, comment_count, score, difficulty_level,
			                      reading_time, is_tutorial, is_official_doc)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, record.URL, record.Title, record.Content, record.Summary, record.Source,
			record.Author, record.Language, record.PublishedAt, now, now,
			record.LikesCount, record.ViewCount, record.CommentCount, record.Score,
			record.DifficultyLevel, record.ReadingTime, record.IsTutorial, record.IsOfficialDoc)
		if insertErr != nil {
			return 0, fmt.Errorf("failed to insert article: %w", insertErr)
		}
		articleID, insertErr = result.LastInsertId()
		if insertErr != nil {
			return 0, fmt.Errorf("failed to get inserted article ID: %w", insertErr)
		}
	case err != nil:
		return 0, fmt.Errorf("failed to check existing article: %w", err)
	default:
		_, updateErr := tx.ExecContext(ctx, `
			UPDATE articles
			SET title = ?, content = ?, summary = ?, source = ?, author = ?, language = ?,
			    published_at = ?, updated_at = ?, likes_count = ?, view_count = ?,
			    comment_count = ?, score = ?, difficulty_level = ?, reading_time = ?,
			    is_tutorial = ?, is_official_doc = ?
			WHERE id = ?
		`, record.Title, record.Content, record.Summary, record.Source, record.Author,
			record.Language, record.PublishedAt, now, record.LikesCount, record.ViewCount,
			record.CommentCount, record.Score, record.DifficultyLevel, record.ReadingTime,
			record.IsTutorial, record.IsOfficialDoc, articleID)
		if updateErr != nil {
			return 0, fmt.Errorf("failed to update article: %w", updateErr)
		}
	}

	for _, name := range record.Tags {
		name = normalizeTagName(name)
		if name == "" {
			continue
		}
		tagID, tagErr := getOrCreateTagTx(ctx, tx, name, categorizeTag(name), now)
		if tagErr != nil {
			return 0, tagErr
		}
		if _, tagErr = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO article_tags (article_id, tag_id) VALUES (?, ?)
		`, articleID, tagID); tagErr != nil {
			return 0, fmt.Errorf("failed to link tag %q: %w", name, tagErr)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit article transaction: %w", err)
	}

	return articleID, nil
}

func (r *ArticleRepositoryImpl) GetArticleByID(ctx context.Context, id int64) (*Article, error) {
	return r.getArticle(ctx, `WHERE id = ?`, id)
}

func (r *ArticleRepositoryImpl) GetArticleByURL(ctx context.Context, url string) (*Article, error) {
	return r.getArticle(ctx, `WHERE url = ?`, url)
}

func (r *ArticleRepositoryImpl) getArticle(ctx context.Context, where string, arg interface{}) (*Article, error) {
	var a Article
	err := r.db.QueryRowContext(ctx, `
		SELECT id, url, title, content, summary, source, author, language,
		       published_at, scraped_at, updated_at, likes_count, view_count,
		       comment_count, score, difficulty_level, reading_time,
		       is_tutorial, is_official_doc
		FROM articles `+where, arg).Scan(
		&a.ID, &a.URL, &a.Title, &a.Content, &a.Summary, &a.Source, &a.Author,
		&a.Language, &a.PublishedAt, &a.ScrapedAt, &a.UpdatedAt, &a.LikesCount,
		&a.ViewCount, &a.CommentCount, &a.Score, &a.DifficultyLevel,
		&a.ReadingTime, &a.IsTutorial, &a.IsOfficialDoc,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	tags, err := r.loadTags(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	a.Tags = tags

	return &a, nil
}

// GetArticles returns articles ordered by scraped_at descending, applying the
// optional filters in opts.
func (r *ArticleRepositoryImpl) GetArticles(ctx context.Context, opts ArticleListOptions) ([]Article, error) {
	query := `
		SELECT DISTINCT a.id, a.url, a.title, a.content, a.summary, a.source, a.author,
		       a.language, a.published_at, a.scraped_at, a.updated_at, a.likes_count,
		       a.view_count, a.comment_count, a.score, a.difficulty_level,
		       a.reading_time, a.is_tutorial, a.is_official_doc
		FROM articles a`
	var conditions []string
	var args []interface{}

	if opts.Tag != "" {
		query += `
		JOIN article_tags at ON at.article_id = a.id
		JOIN tech_tags t ON t.id = at.tag_id`
		conditions = append(conditions, "t.name = ?")
		args = append(args, normalizeTagName(opts.Tag))
	}
	if opts.Source != "" {
		conditions = append(conditions, "a.source = ?")
		args = append(args, opts.Source)
	}
	if opts.Difficulty > 0 {
		conditions = append(conditions, "a.difficulty_level = ?")
		args = append(args, opts.Difficulty)
	}
	if opts.Tutorial != nil {
		conditions = append(conditions, "a.is_tutorial = ?")
		args = append(args, *opts.Tutorial)
	}
	if opts.Search != "" {
		conditions = append(conditions, "(a.title LIKE ? OR a.content LIKE ?)")
		pattern := "%" + opts.Search + "%"
		args = append(args, pattern, pattern)
	}

	if len(conditions) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conditions, " AND ")
	}
	query += "\n\t\tORDER BY a.scraped_at DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	query += "\n\t\tLIMIT ? OFFSET ?"
	args = append(args, limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var a Article
		err := rows.Scan(
			&a.ID, &a.URL, &a.Title, &a.Content, &a.Summary, &a.Source, &a.Author,
			&a.Language, &a.PublishedAt, &a.ScrapedAt, &a.UpdatedAt, &a.LikesCount,
			&a.ViewCount, &a.CommentCount, &a.Score, &a.DifficultyLevel,
			&a.ReadingTime, &a.IsTutorial, &a.IsOfficialDoc,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	for i := range articles {
		tags, err := r.loadTags(ctx, articles[i].ID)
		if err != nil {
			return nil, err
		}
		articles[i].Tags = tags
	}

	return articles, nil
}

func (r *ArticleRepositoryImpl) GetArticleCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}

func (r *ArticleRepositoryImpl) GetSourceCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT source, COUNT(*) FROM articles GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("failed to get source counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan source count row: %w", err)
		}
		counts[source] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source count rows: %w", err)
	}

	return counts, nil
}

func (r *ArticleRepositoryImpl) loadTags(ctx context.Context, articleID int64) ([]TechTag, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.category, t.parent_id, t.popularity_score, t.trend_score, t.created_at
		FROM tech_tags t
		JOIN article_tags at ON at.tag_id = t.id
		WHERE at.article_id = ?
		ORDER BY t.name
	`, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load article tags: %w", err)
	}
	defer rows.Close()

	var tags []TechTag
	for rows.Next() {
		var t TechTag
		if err := rows.Scan(&t.ID, &t.Name, &t.Category, &t.ParentID, &t.PopularityScore, &t.TrendScore, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tag rows: %w", err)
	}

	return tags, nil
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

var _ TagRepository = (*TagRepositoryImpl)(nil)

type TagRepositoryImpl struct {
	db *DB
}

func NewTagRepository(db *DB) *TagRepositoryImpl {
	return &TagRepositoryImpl{db: db}
}

// Tag names are stored trimmed and lowercased so that casing and whitespace
// variants of the same technology collapse into one row.
func normalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

var tagCategories = map[string][]string{
	"language": {
		"python", "javascript", "typescript", "go", "golang", "rust", "java",
		"kotlin", "swift", "ruby", "php", "c++", "c#", "scala", "elixir", "dart",
	},
	"framework": {
		"react", "vue", "angular", "svelte", "next.js", "nuxt", "django",
		"flask", "fastapi", "rails", "laravel", "spring", "express", "gin",
	},
	"tool": {
		"docker", "kubernetes", "terraform", "ansible", "git", "github",
		"gitlab", "jenkins", "webpack", "vite", "vim", "vscode",
	},
	"database": {
		"mysql", "postgresql", "postgres", "sqlite", "mongodb", "redis",
		"elasticsearch", "dynamodb", "cassandra",
	},
	"cloud": {
		"aws", "gcp", "azure", "lambda", "ec2", "s3", "cloudflare",
		"firebase", "vercel", "heroku",
	},
}

// categorizeTag guesses a category for a new tag from fixed keyword lists,
// defaulting to "concept".
func categorizeTag(name string) string {
	name = normalizeTagName(name)
	for category, terms := range tagCategories {
		for _, term := range terms {
			if name == term || strings.Contains(name, term) {
				return category
			}
		}
	}
	return "concept"
}

// getOrCreateTagTx resolves a tag by normalized name within an open
// transaction, creating it with the given category if missing.
func getOrCreateTagTx(ctx context.Context, tx *sql.Tx, name, category string, now time.Time) (int64, error) {
	var tagID int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM tech_tags WHERE name = ?`, name).Scan(&tagID)
	if err == sql.ErrNoRows {
		result, insertErr := tx.ExecContext(ctx, `
			INSERT INTO tech_tags (name, category, created_at) VALUES (?, ?, ?)
		`, name, category, now)
		if insertErr != nil {
			return 0, fmt.Errorf("failed to create tag %q: %w", name, insertErr)
		}
		return result.LastInsertId()
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up tag %q: %w", name, err)
	}
	return tagID, nil
}

func (r *TagRepositoryImpl) GetOrCreateTag(ctx context.Context, name, category string) (*TechTag, error) {
	name = normalizeTagName(name)
	if name == "" {
		return nil, fmt.Errorf("tag name is empty")
	}
	if category == "" {
		category = categorizeTag(name)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	tagID, err := getOrCreateTagTx(ctx, tx, name, category, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit tag transaction: %w", err)
	}

	return r.getTagByID(ctx, tagID)
}

func (r *TagRepositoryImpl) GetTagByName(ctx context.Context, name string) (*TechTag, error) {
	var t TechTag
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, category, parent_id, popularity_score, trend_score, created_at
		FROM tech_tags
		WHERE name = ?
	`, normalizeTagName(name)).Scan(&t.ID, &t.Name, &t.Category, &t.ParentID, &t.PopularityScore, &t.TrendScore, &t.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag by name: %w", err)
	}

	return &t, nil
}

func (r *TagRepositoryImpl) getTagByID(ctx context.Context, id int64) (*TechTag, error) {
	var t TechTag
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, category, parent_id, popularity_score, trend_score, created_at
		FROM tech_tags
		WHERE id = ?
	`, id).Scan(&t.ID, &t.Name, &t.Category, &t.ParentID, &t.PopularityScore, &t.TrendScore, &t.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag by ID: %w", err)
	}

	return &t, nil
}

func (r *TagRepositoryImpl) GetTags(ctx context.Context) ([]TechTag, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, category, parent_id, popularity_score, trend_score, created_at
		FROM tech_tags
		ORDER BY category, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
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

func (r *TagRepositoryImpl) GetTagCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tech_tags`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get tag count: %w", err)
	}
	return count, nil
}

// SetParent assigns or clears a tag's parent. The assignment is rejected when
// the parent's ancestor chain already contains the tag, which would make the
// hierarchy cyclic.
func (r *TagRepositoryImpl) SetParent(ctx context.Context, tagID int64, parentID *int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM tech_tags WHERE id = ?`, tagID).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("tag %d not found", tagID)
		}
		return fmt.Errorf("failed to check tag: %w", err)
	}

	if parentID != nil {
		if *parentID == tagID {
			return fmt.Errorf("tag %d cannot be its own parent", tagID)
		}

		ancestor := *parentID
		for {
			var next sql.NullInt64
			err := tx.QueryRowContext(ctx, `SELECT parent_id FROM tech_tags WHERE id = ?`, ancestor).Scan(&next)
			if err == sql.ErrNoRows {
				return fmt.Errorf("parent tag %d not found", ancestor)
			}
			if err != nil {
				return fmt.Errorf("failed to walk tag ancestors: %w", err)
			}
			if !next.Valid {
				break
			}
			if next.Int64 == tagID {
				return fmt.Errorf("setting parent %d on tag %d would create a cycle", *parentID, tagID)
			}
			ancestor = next.Int64
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE tech_tags SET parent_id = ? WHERE id = ?`, parentID, tagID); err != nil {
		return fmt.Errorf("failed to set tag parent: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tag parent transaction: %w", err)
	}

	return nil
}

// Package vocab manages the technical-term vocabulary used by keyword
// extraction and tag categorization. The vocabulary lives in a YAML file
// mapping categories to ordered term lists; a default file is created on
// first load.
package vocab

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

type Store struct {
	path  string
	mu    sync.RWMutex
	terms map[string][]string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the vocabulary file, writing the default vocabulary first when
// the file does not exist yet.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.terms = defaultVocabulary()
		return s.saveLocked()
	}
	if err != nil {
		return fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	var terms map[string][]string
	if err := yaml.Unmarshal(data, &terms); err != nil {
		return fmt.Errorf("failed to parse vocabulary file %s: %w", s.path, err)
	}

	s.terms = terms
	return nil
}

// Add appends a term to a category and persists the vocabulary. Adding an
// already-known term is a no-op.
func (s *Store) Add(category, term string) error {
	if category == "" || term == "" {
		return fmt.Errorf("category and term must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.terms[category] {
		if existing == term {
			return nil
		}
	}

	if s.terms == nil {
		s.terms = make(map[string][]string)
	}
	s.terms[category] = append(s.terms[category], term)

	return s.saveLocked()
}

// Categories returns the category names in sorted order.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]string, 0, len(s.terms))
	for category := range s.terms {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

// TermsFor returns a copy of the terms in a category.
func (s *Store) TermsFor(category string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := s.terms[category]
	out := make([]string, len(terms))
	copy(out, terms)
	return out
}

// AllTerms returns every term across all categories. Categories are visited
// in sorted order so the result is deterministic.
func (s *Store) AllTerms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]string, 0, len(s.terms))
	for category := range s.terms {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var all []string
	for _, category := range categories {
		all = append(all, s.terms[category]...)
	}
	return all
}

func (s *Store) saveLocked() error {
	data, err := yaml.Marshal(s.terms)
	if err != nil {
		return fmt.Errorf("failed to marshal vocabulary: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create vocabulary directory: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write vocabulary file: %w", err)
	}

	return nil
}

func defaultVocabulary() map[string][]string {
	return map[string][]string{
		"languages": {
			"Python", "JavaScript", "TypeScript", "Java", "Go", "Rust",
			"C++", "C#", "PHP", "Ruby", "Swift", "Kotlin", "Dart",
			"HTML", "CSS", "SQL", "Shell", "PowerShell",
		},
		"frameworks": {
			"React", "Vue.js", "Angular", "Next.js", "Nuxt.js", "Svelte",
			"Django", "Flask", "FastAPI", "Express.js", "Node.js",
			"Spring", "Laravel", "Rails", "ASP.NET", "Flutter",
			"React Native", "Electron",
		},
		"tools": {
			"Docker", "Kubernetes", "Git", "GitHub", "GitLab",
			"Jenkins", "CircleCI", "GitHub Actions", "Terraform",
			"Ansible", "Chef", "Puppet", "Vagrant", "VS Code",
			"Vim", "Emacs", "IntelliJ", "Eclipse",
		},
		"databases": {
			"MySQL", "PostgreSQL", "SQLite", "MongoDB", "Redis",
			"Elasticsearch", "Cassandra", "DynamoDB", "Firebase",
			"Supabase", "PlanetScale", "Prisma", "TypeORM", "Sequelize",
		},
		"cloud": {
			"AWS", "Azure", "GCP", "Google Cloud", "Heroku", "Vercel",
			"Netlify", "DigitalOcean", "Linode", "Cloudflare",
			"Railway", "Render",
		},
		"concepts": {
			"Machine Learning", "AI", "Deep Learning", "Neural Network",
			"API", "REST", "GraphQL", "Microservices", "Serverless",
			"DevOps", "CI/CD", "Agile", "Scrum", "TDD", "Clean Code",
			"Design Patterns", "SOLID", "DDD", "Event Sourcing",
			"CQRS", "WebAssembly", "PWA", "SPA", "JAMstack",
		},
		"trending": {
			"ChatGPT", "OpenAI", "LLM", "Generative AI", "Stable Diffusion",
			"WebGPU", "Deno", "Bun", "Tauri", "SvelteKit", "Remix",
			"Astro", "Vite", "esbuild", "Turbopack", "pnpm", "Yarn",
			"Edge Computing", "Web3", "Blockchain",
		},
	}
}

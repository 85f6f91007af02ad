package summarize

import (
	"regexp"
	"sort"
	"strings"
)

// Tagger maps free text to a set of tags. Implementations must be pure.
type Tagger interface {
	Tag(text string) []string
}

// TaggerFunc adapts a function to Tagger.
type TaggerFunc func(text string) []string

func (f TaggerFunc) Tag(text string) []string { return f(text) }

// DefaultVocabulary is the stock set of domain terms recognized as topics.
var DefaultVocabulary = []string{
	"authentication", "auth", "login", "oauth", "jwt", "session",
	"database", "sql", "postgres", "mysql", "sqlite", "mongodb",
	"api", "rest", "graphql", "endpoint", "route", "http",
	"hooks", "automation", "script", "cron",
	"chunking", "context", "memory", "persistence",
	"skills", "skill", "learning", "pattern",
	"testing", "test", "jest", "pytest",
	"deployment", "deploy", "docker", "kubernetes",
	"error", "bug", "fix", "debug",
	"refactor", "optimize", "performance",
	"ui", "frontend", "react", "vue",
	"backend", "server", "node", "python", "golang",
}

// VocabularyTagger reports every vocabulary term contained in the
// lowercased text. Matching is by substring, so "auth" also fires on
// "authentication".
type VocabularyTagger struct {
	terms []string
}

// NewVocabularyTagger builds a tagger over the given terms plus extra.
func NewVocabularyTagger(terms []string, extra ...string) *VocabularyTagger {
	seen := make(map[string]bool)
	var all []string
	for _, t := range append(append([]string{}, terms...), extra...) {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		all = append(all, t)
	}
	sort.Strings(all)
	return &VocabularyTagger{terms: all}
}

func (v *VocabularyTagger) Tag(text string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	var out []string
	for _, t := range v.terms {
		if strings.Contains(lower, t) {
			out = append(out, t)
		}
	}
	return out
}

// DefaultExtensions are the file extensions PathTagger recognizes.
var DefaultExtensions = []string{
	"py", "ts", "js", "md", "json", "tsx", "jsx",
	"go", "yaml", "yml", "css", "html", "sh", "toml",
}

// PathTagger extracts quoted or backticked path-like tokens that end in
// one of a fixed set of extensions.
type PathTagger struct {
	patterns []*regexp.Regexp
}

// NewPathTagger builds a tagger for the given extensions.
func NewPathTagger(exts []string) *PathTagger {
	quoted := make([]string, len(exts))
	for i, e := range exts {
		quoted[i] = regexp.QuoteMeta(strings.TrimPrefix(e, "."))
	}
	alt := strings.Join(quoted, "|")
	return &PathTagger{patterns: []*regexp.Regexp{
		regexp.MustCompile(`["']([^"'\s]+\.(?:` + alt + `))["']`),
		regexp.MustCompile("`([^`\\s]+\\.(?:" + alt + "))`"),
	}}
}

func (p *PathTagger) Tag(text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, re := range p.patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			out = append(out, m[1])
		}
	}
	return out
}

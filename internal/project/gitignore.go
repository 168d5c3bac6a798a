package project

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Gitignore matches root-relative paths against the patterns of a .gitignore
// file. The last matching pattern decides, so negations re-include.
type Gitignore struct {
	patterns []ignorePattern
}

type ignorePattern struct {
	glob      string
	negate    bool
	directory bool // Trailing slash: only matches directories
	anchored  bool // Contains a slash: matched against the whole relative path
}

// LoadGitignore reads root/.gitignore. A missing file yields an empty matcher.
func LoadGitignore(root string) (*Gitignore, error) {
	g := &Gitignore{}

	file, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return g, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		g.AddPattern(scanner.Text())
	}
	return g, scanner.Err()
}

// AddPattern adds one .gitignore line; blank lines and comments are ignored
func (g *Gitignore) AddPattern(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}

	p := ignorePattern{}
	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.anchored = true
		line = line[1:]
	}
	if strings.Contains(line, "/") {
		p.anchored = true
	}
	if line == "" || !doublestar.ValidatePattern(line) {
		return
	}

	p.glob = line
	g.patterns = append(g.patterns, p)
}

// Len returns the number of usable patterns
func (g *Gitignore) Len() int {
	if g == nil {
		return 0
	}
	return len(g.patterns)
}

// Ignored reports whether rel, a slash separated path relative to the
// project root, is ignored
func (g *Gitignore) Ignored(rel string, isDir bool) bool {
	if g == nil {
		return false
	}

	base := rel
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		base = rel[i+1:]
	}

	ignored := false
	for _, p := range g.patterns {
		if p.directory && !isDir {
			continue
		}
		subject := base
		if p.anchored {
			subject = rel
		}
		if ok, _ := doublestar.Match(p.glob, subject); ok {
			ignored = !p.negate
		}
	}
	return ignored
}

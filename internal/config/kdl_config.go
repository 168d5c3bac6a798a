package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	fiferrors "github.com/standardbeagle/fif/internal/errors"
)

// ApplyKDLFile applies dir/.fif.kdl to cfg. A missing file leaves cfg as is.
// A relative project root is resolved against dir.
func ApplyKDLFile(cfg *Config, dir string) error {
	kdlPath := filepath.Join(dir, FileName)

	content, err := os.ReadFile(kdlPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fiferrors.NewFileError("read", kdlPath, err)
	}

	rootBefore := cfg.Project.Root
	if err := applyKDL(cfg, string(content)); err != nil {
		return fiferrors.NewParseError(kdlPath, 0, 0, err)
	}

	if cfg.Project.Root != rootBefore && !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Clean(filepath.Join(dir, cfg.Project.Root))
	}
	return nil
}

// applyKDL overrides the settings present in content
func applyKDL(cfg *Config, content string) error {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return err
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children { // project { root "." name "foo" }
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "search":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "context_lines":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.ContextLines = v
					}
				case "begin_marker":
					if s, ok := firstStringArg(cn); ok {
						cfg.Search.BeginMarker = s
					}
				case "end_marker":
					if s, ok := firstStringArg(cn); ok {
						cfg.Search.EndMarker = s
					}
				case "probe_budget_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.ProbeBudgetMs = v
					}
				case "python_docstrings":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Search.PythonDocstrings = b
					}
				default:
					log.Printf("WARNING: unknown key 'search.%s' in KDL config", nodeName(cn))
				}
			}
		case "project_files":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "respect_gitignore":
					if b, ok := firstBoolArg(cn); ok {
						cfg.ProjectFiles.RespectGitignore = b
					}
				case "watch_debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.ProjectFiles.WatchDebounceMs = v
					}
				}
			}
		case "history":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_entries":
					if v, ok := firstIntArg(cn); ok {
						cfg.History.MaxEntries = v
					}
				case "file":
					if s, ok := firstStringArg(cn); ok {
						cfg.History.File = s
					}
				}
			}
		case "exclude":
			cfg.Exclude = append(cfg.Exclude, collectStringArgs(n)...)
		}
	}

	return nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		log.Printf("WARNING: invalid integer value for '%s' in KDL config, got %T", nodeName(n), n.Arguments[0].Value)
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

// collectStringArgs accepts both the inline form (exclude "a" "b") and the
// block form where each child node names one pattern
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

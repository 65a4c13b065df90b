package curriculum

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Loader loads and caches curriculum trees exported by the admin tool as
// YAML, one file per course.
type Loader struct {
	rootDir string
	trees   map[string]*Tree
	mu      sync.RWMutex
}

// courseFile is the on-disk shape of one exported course.
type courseFile struct {
	CourseID string `yaml:"course_id"`
	Nodes    []Node `yaml:"nodes"`
}

// NewLoader creates a curriculum loader and loads all course files under
// rootDir.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{
		rootDir: rootDir,
		trees:   make(map[string]*Tree),
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading curriculum: %w", err)
	}

	slog.Info("curriculum loaded", "courses", len(l.trees))
	return l, nil
}

// Tree returns the curriculum tree for a course ID.
func (l *Loader) Tree(courseID string) (*Tree, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.trees[courseID]
	return t, ok
}

// CourseIDs returns all loaded course IDs.
func (l *Loader) CourseIDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.trees))
	for id := range l.trees {
		ids = append(ids, id)
	}
	return ids
}

func (l *Loader) loadAll() error {
	return filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}
		return l.loadCourse(path)
	})
}

func (l *Loader) loadCourse(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var course courseFile
	if err := yaml.Unmarshal(data, &course); err != nil {
		slog.Warn("skipping invalid course YAML", "path", path, "error", err)
		return nil
	}

	if course.CourseID == "" {
		return nil // Not a course file
	}

	tree := NewTree(course.Nodes)

	l.mu.Lock()
	l.trees[course.CourseID] = tree
	l.mu.Unlock()

	return nil
}

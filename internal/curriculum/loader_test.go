package curriculum_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prepdesk/progress-engine/internal/curriculum"
)

func TestLoader_LoadCourses(t *testing.T) {
	dir := setupTestCurriculum(t)

	loader, err := curriculum.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	tree, found := loader.Tree("trf-analyst-2025")
	if !found {
		t.Fatal("Tree(trf-analyst-2025) not found")
	}
	if tree.Len() != 3 {
		t.Errorf("tree has %d nodes, want 3", tree.Len())
	}

	node, ok := tree.Node("budget")
	if !ok {
		t.Fatal("Node(budget) not found")
	}
	if len(node.FilterGroups) != 1 {
		t.Fatalf("budget node has %d filter groups, want 1", len(node.FilterGroups))
	}
	if got := node.FilterGroups[0].Subjects; len(got) != 1 || got[0] != "Public Budget Concepts" {
		t.Errorf("budget subjects = %v", got)
	}
}

func TestLoader_SkipsInvalidYAML(t *testing.T) {
	dir := setupTestCurriculum(t)
	os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("course_id: [unclosed"), 0o644)

	loader, err := curriculum.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader() error = %v, invalid files should be skipped", err)
	}

	if got := loader.CourseIDs(); len(got) != 1 {
		t.Errorf("CourseIDs() = %v, want 1 course", got)
	}
}

func TestLoader_SkipsNonCourseYAML(t *testing.T) {
	dir := setupTestCurriculum(t)
	os.WriteFile(filepath.Join(dir, "notes.yaml"), []byte("title: just notes\n"), 0o644)

	loader, err := curriculum.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	if got := loader.CourseIDs(); len(got) != 1 {
		t.Errorf("CourseIDs() = %v, want 1 course", got)
	}
}

func TestLoader_EmptyDir(t *testing.T) {
	loader, err := curriculum.NewLoader(t.TempDir())
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	if got := loader.CourseIDs(); len(got) != 0 {
		t.Errorf("CourseIDs() = %v, want none for empty dir", got)
	}
}

func setupTestCurriculum(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	os.WriteFile(filepath.Join(dir, "trf-analyst-2025.yaml"), []byte(`
course_id: trf-analyst-2025
nodes:
  - id: law
    title: Law
  - id: budget
    title: Budget Law
    parent_id: law
    filter_groups:
      - subjects: ["Public Budget Concepts"]
        topics: ["Traditional Budgeting"]
  - id: admin
    title: Administrative Law
    parent_id: law
    filter_groups:
      - boards: ["CESPE"]
        topics: ["Administrative Acts"]
      - boards: ["FCC"]
        topics: ["Public Servants"]
`), 0o644)

	return dir
}

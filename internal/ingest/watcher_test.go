package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outorga-facil/filing-pipeline/constants"
	"github.com/outorga-facil/filing-pipeline/internal/common"
	"github.com/outorga-facil/filing-pipeline/internal/entity"
)

type recordedAdd struct {
	project string
	cat     constants.Category
	path    string
}

type fakeRegistrar struct {
	projects map[string]bool
	added    []recordedAdd
	addErr   error
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{projects: map[string]bool{}}
}

func (f *fakeRegistrar) AddFile(ctx context.Context, project string, cat constants.Category, path string) (*entity.FileRef, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.added = append(f.added, recordedAdd{project, cat, path})
	return &entity.FileRef{ID: "ref-1", Path: path}, nil
}

func (f *fakeRegistrar) CreateProject(ctx context.Context, name string) (*entity.Project, error) {
	f.projects[name] = true
	return entity.NewProject(name, time.Now()), nil
}

func (f *fakeRegistrar) LoadProject(ctx context.Context, name string) (*entity.Project, error) {
	if !f.projects[name] {
		return nil, common.NewAppError("NOT_FOUND", "no such project", common.ErrNotFound)
	}
	return entity.NewProject(name, time.Now()), nil
}

func dropFile(t *testing.T, root string, parts ...string) string {
	t.Helper()
	path := filepath.Join(append([]string{root}, parts...)...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))
	return path
}

func TestRegisterCreatesProjectOnFirstSight(t *testing.T) {
	root := t.TempDir()
	reg := newFakeRegistrar()
	w := NewWatcher(reg, root, 0, nil)

	path := dropFile(t, root, "radio-aurora", "estatuto", "doc.pdf")
	w.register(context.Background(), path)

	assert.True(t, reg.projects["radio-aurora"])
	require.Len(t, reg.added, 1)
	assert.Equal(t, constants.Statute, reg.added[0].cat)
	assert.Equal(t, path, reg.added[0].path)
}

func TestRegisterReusesExistingProject(t *testing.T) {
	root := t.TempDir()
	reg := newFakeRegistrar()
	reg.projects["radio-aurora"] = true
	w := NewWatcher(reg, root, 0, nil)

	w.register(context.Background(), dropFile(t, root, "radio-aurora", "ata", "ata.pdf"))

	require.Len(t, reg.added, 1)
	assert.Equal(t, constants.Minutes, reg.added[0].cat)
}

func TestRegisterSkipsUnknownCategoryDir(t *testing.T) {
	root := t.TempDir()
	reg := newFakeRegistrar()
	w := NewWatcher(reg, root, 0, nil)

	w.register(context.Background(), dropFile(t, root, "radio-aurora", "misc", "doc.pdf"))

	assert.Empty(t, reg.added)
	assert.Empty(t, reg.projects)
}

func TestRegisterSkipsFilesOutsideLayout(t *testing.T) {
	root := t.TempDir()
	reg := newFakeRegistrar()
	w := NewWatcher(reg, root, 0, nil)

	// A file sitting directly under the project dir has no category level.
	w.register(context.Background(), dropFile(t, root, "radio-aurora", "stray.pdf"))

	assert.Empty(t, reg.added)
}

func TestRegisterSkipsUnsupportedExtension(t *testing.T) {
	root := t.TempDir()
	reg := newFakeRegistrar()
	w := NewWatcher(reg, root, 0, nil)

	w.register(context.Background(), dropFile(t, root, "radio-aurora", "estatuto", "doc.exe"))

	assert.Empty(t, reg.added)
	assert.Empty(t, reg.projects, "project is not created for a rejected file")
}

func TestRegisterToleratesDuplicateFile(t *testing.T) {
	root := t.TempDir()
	reg := newFakeRegistrar()
	reg.projects["radio-aurora"] = true
	reg.addErr = common.NewAppError("DUPLICATE_FILE", "already registered", common.ErrInvalidInput)
	w := NewWatcher(reg, root, 0, nil)

	// Must not panic or retry; rewrites of known files are routine.
	w.register(context.Background(), dropFile(t, root, "radio-aurora", "estatuto", "doc.pdf"))

	assert.Empty(t, reg.added)
}

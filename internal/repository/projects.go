package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/marks/internal/codec"
	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/store"
)

// errUnchanged lets a mutation report success without touching the store.
var errUnchanged = errors.New("unchanged")

// ProjectRepository manages the project collection.
type ProjectRepository struct {
	mu    sync.RWMutex
	items []domain.Project
	doc   *store.Document[[]domain.Project]
	log   logger.Logger
	opts  options
}

// NewProjectRepository loads the collection stored under key.
func NewProjectRepository(ctx context.Context, kv store.KV, key string, log logger.Logger, opts ...Option) *ProjectRepository {
	o := buildOptions(opts)
	log = log.With(logger.Component("projects"))

	defaults := func() []domain.Project {
		if o.seed {
			return domain.DefaultProjects(o.now())
		}
		return []domain.Project{}
	}

	r := &ProjectRepository{
		doc:  store.NewDocument(kv, key, log, defaults, o.seed),
		log:  log,
		opts: o,
	}
	r.items = r.doc.Load(ctx)
	for i := range r.items {
		r.items[i].Normalize()
	}

	log.Info("projects loaded", logger.Int("count", len(r.items)))
	return r
}

func (r *ProjectRepository) commit(ctx context.Context, next []domain.Project) {
	r.items = next
	if err := r.doc.Save(ctx, next); err != nil {
		r.log.Warn("keeping unsaved project changes in memory", logger.Error(err))
	}
}

func (r *ProjectRepository) indexOf(id string) int {
	return slices.IndexFunc(r.items, func(p domain.Project) bool { return p.ID == id })
}

// mutate runs fn on a copy of project id, refreshes updatedAt and persists.
// fn returning errUnchanged skips the write.
func (r *ProjectRepository) mutate(ctx context.Context, id string, fn func(p *domain.Project) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return notFound("project", id)
	}

	p := r.items[i].Clone()
	if err := fn(&p); err != nil {
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}
	p.UpdatedAt = r.opts.now()

	next := slices.Clone(r.items)
	next[i] = p
	r.commit(ctx, next)
	return nil
}

// Create adds an empty project and returns its id.
func (r *ProjectRepository) Create(ctx context.Context, in domain.ProjectInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p := domain.NewProject(r.opts.newID(), in, r.opts.now())
	r.commit(ctx, append(slices.Clone(r.items), p))

	r.log.Debug("project created", logger.String("id", p.ID), logger.String("name", p.Name))
	return p.ID, nil
}

// Update applies patch to the descriptive fields of project id.
func (r *ProjectRepository) Update(ctx context.Context, id string, patch domain.ProjectPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	return r.mutate(ctx, id, func(p *domain.Project) error {
		patch.Apply(p)
		return nil
	})
}

// Delete removes project id. Referenced bookmarks are not touched.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return notFound("project", id)
	}
	r.commit(ctx, slices.Delete(slices.Clone(r.items), i, i+1))
	return nil
}

// AddBookmarkRef links bookmarkID to the project. Linking twice is a no-op.
func (r *ProjectRepository) AddBookmarkRef(ctx context.Context, projectID, bookmarkID string) error {
	return r.mutate(ctx, projectID, func(p *domain.Project) error {
		if p.HasBookmark(bookmarkID) {
			return errUnchanged
		}
		p.Bookmarks = append(p.Bookmarks, bookmarkID)
		return nil
	})
}

// RemoveBookmarkRef unlinks bookmarkID from the project.
func (r *ProjectRepository) RemoveBookmarkRef(ctx context.Context, projectID, bookmarkID string) error {
	return r.mutate(ctx, projectID, func(p *domain.Project) error {
		i := slices.Index(p.Bookmarks, bookmarkID)
		if i < 0 {
			return errUnchanged
		}
		p.Bookmarks = slices.Delete(p.Bookmarks, i, i+1)
		return nil
	})
}

// RemoveBookmarkRefs unlinks the given bookmark ids from every project in
// one batch and returns the number of references removed.
func (r *ProjectRepository) RemoveBookmarkRefs(ctx context.Context, bookmarkIDs ...string) int {
	if len(bookmarkIDs) == 0 {
		return 0
	}
	drop := make(map[string]struct{}, len(bookmarkIDs))
	for _, id := range bookmarkIDs {
		drop[id] = struct{}{}
	}
	return r.pruneRefs(ctx, func(id string) bool {
		_, ok := drop[id]
		return ok
	})
}

// RetainBookmarkRefs removes every reference for which keep is false and
// returns the number removed.
func (r *ProjectRepository) RetainBookmarkRefs(ctx context.Context, keep func(bookmarkID string) bool) int {
	return r.pruneRefs(ctx, func(id string) bool { return !keep(id) })
}

func (r *ProjectRepository) pruneRefs(ctx context.Context, drop func(string) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.opts.now()
	next := slices.Clone(r.items)
	removed := 0
	for i := range next {
		refs := slices.DeleteFunc(slices.Clone(next[i].Bookmarks), drop)
		if n := len(next[i].Bookmarks) - len(refs); n > 0 {
			next[i].Bookmarks = refs
			next[i].UpdatedAt = now
			removed += n
		}
	}
	if removed > 0 {
		r.commit(ctx, next)
	}
	return removed
}

// AddNote appends a note and returns its id.
func (r *ProjectRepository) AddNote(ctx context.Context, projectID, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: note content is required", domain.ErrValidation)
	}
	id := r.opts.newID()
	err := r.mutate(ctx, projectID, func(p *domain.Project) error {
		p.Notes = append(p.Notes, domain.Note{ID: id, Content: content, CreatedAt: r.opts.now()})
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateNote replaces the content of a note.
func (r *ProjectRepository) UpdateNote(ctx context.Context, projectID, noteID, content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: note content is required", domain.ErrValidation)
	}
	return r.mutate(ctx, projectID, func(p *domain.Project) error {
		i := slices.IndexFunc(p.Notes, func(n domain.Note) bool { return n.ID == noteID })
		if i < 0 {
			return notFound("note", noteID)
		}
		now := r.opts.now()
		p.Notes[i].Content = content
		p.Notes[i].UpdatedAt = &now
		return nil
	})
}

// DeleteNote removes a note.
func (r *ProjectRepository) DeleteNote(ctx context.Context, projectID, noteID string) error {
	return r.mutate(ctx, projectID, func(p *domain.Project) error {
		i := slices.IndexFunc(p.Notes, func(n domain.Note) bool { return n.ID == noteID })
		if i < 0 {
			return notFound("note", noteID)
		}
		p.Notes = slices.Delete(p.Notes, i, i+1)
		return nil
	})
}

// AddTask appends an open task and returns its id.
func (r *ProjectRepository) AddTask(ctx context.Context, projectID, title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("%w: task title is required", domain.ErrValidation)
	}
	id := r.opts.newID()
	err := r.mutate(ctx, projectID, func(p *domain.Project) error {
		p.Tasks = append(p.Tasks, domain.Task{ID: id, Title: title, CreatedAt: r.opts.now()})
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateTask applies patch to a task.
func (r *ProjectRepository) UpdateTask(ctx context.Context, projectID, taskID string, patch domain.TaskPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	return r.updateTask(ctx, projectID, taskID, patch.Apply)
}

// ToggleTask flips the completion state of a task.
func (r *ProjectRepository) ToggleTask(ctx context.Context, projectID, taskID string) error {
	return r.updateTask(ctx, projectID, taskID, func(t *domain.Task) {
		t.Completed = !t.Completed
	})
}

func (r *ProjectRepository) updateTask(ctx context.Context, projectID, taskID string, fn func(*domain.Task)) error {
	return r.mutate(ctx, projectID, func(p *domain.Project) error {
		i := slices.IndexFunc(p.Tasks, func(t domain.Task) bool { return t.ID == taskID })
		if i < 0 {
			return notFound("task", taskID)
		}
		now := r.opts.now()
		fn(&p.Tasks[i])
		p.Tasks[i].UpdatedAt = &now
		return nil
	})
}

// DeleteTask removes a task.
func (r *ProjectRepository) DeleteTask(ctx context.Context, projectID, taskID string) error {
	return r.mutate(ctx, projectID, func(p *domain.Project) error {
		i := slices.IndexFunc(p.Tasks, func(t domain.Task) bool { return t.ID == taskID })
		if i < 0 {
			return notFound("task", taskID)
		}
		p.Tasks = slices.Delete(p.Tasks, i, i+1)
		return nil
	})
}

// Duplicate deep-copies project id under a new id. Notes and tasks get
// fresh ids and every task starts open again.
func (r *ProjectRepository) Duplicate(ctx context.Context, id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return "", notFound("project", id)
	}

	now := r.opts.now()
	cp := r.items[i].Clone()
	cp.ID = r.opts.newID()
	cp.Name += " (Copy)"
	cp.CreatedAt = now
	cp.UpdatedAt = now
	for n := range cp.Notes {
		cp.Notes[n].ID = r.opts.newID()
		cp.Notes[n].CreatedAt = now
		cp.Notes[n].UpdatedAt = nil
	}
	for t := range cp.Tasks {
		cp.Tasks[t].ID = r.opts.newID()
		cp.Tasks[t].Completed = false
		cp.Tasks[t].CreatedAt = now
		cp.Tasks[t].UpdatedAt = nil
	}

	r.commit(ctx, append(slices.Clone(r.items), cp))
	return cp.ID, nil
}

// Archive hides project id from the active list.
func (r *ProjectRepository) Archive(ctx context.Context, id string) error {
	return r.mutate(ctx, id, func(p *domain.Project) error {
		now := r.opts.now()
		p.Archived = true
		p.ArchivedAt = &now
		return nil
	})
}

// Unarchive clears both archive fields of project id.
func (r *ProjectRepository) Unarchive(ctx context.Context, id string) error {
	return r.mutate(ctx, id, func(p *domain.Project) error {
		p.Archived = false
		p.ArchivedAt = nil
		return nil
	})
}

// Stats derives the counters of project id.
func (r *ProjectRepository) Stats(id string) (domain.ProjectStats, error) {
	p, err := r.Get(id)
	if err != nil {
		return domain.ProjectStats{}, err
	}
	return p.Stats(), nil
}

// Export writes project id as a project document.
func (r *ProjectRepository) Export(id string, w io.Writer) error {
	p, err := r.Get(id)
	if err != nil {
		return err
	}
	return codec.EncodeProject(w, p, r.opts.now())
}

// ExportFilename returns the download name of project id.
func (r *ProjectRepository) ExportFilename(id string) (string, error) {
	p, err := r.Get(id)
	if err != nil {
		return "", err
	}
	return codec.ProjectFilename(p.Name), nil
}

// Import appends a project read from a project document and returns its
// new id. The name gets an " (Imported)" suffix.
func (r *ProjectRepository) Import(ctx context.Context, src io.Reader) (string, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("failed to read project file: %w", err)
	}
	p, err := codec.DecodeProject(data)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.opts.now()
	p.ID = r.opts.newID()
	p.Name += " (Imported)"
	p.CreatedAt = now
	p.UpdatedAt = now
	p.ImportedAt = &now
	if p.Color == "" {
		p.Color = domain.DefaultProjectColor
	}

	r.commit(ctx, append(slices.Clone(r.items), p))
	r.log.Info("project imported", logger.String("id", p.ID), logger.String("name", p.Name))
	return p.ID, nil
}

// Get returns a copy of project id.
func (r *ProjectRepository) Get(id string) (domain.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return domain.Project{}, notFound("project", id)
	}
	return r.items[i].Clone(), nil
}

// All returns a deep copy of the collection.
func (r *ProjectRepository) All() []domain.Project {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Project, len(r.items))
	for i, p := range r.items {
		out[i] = p.Clone()
	}
	return out
}

// Active returns the projects that are not archived.
func (r *ProjectRepository) Active() []domain.Project {
	return domain.ProjectsByStatus(r.All(), domain.ProjectStatusActive)
}

// Search matches q against names, descriptions, notes and tasks.
func (r *ProjectRepository) Search(q string) []domain.Project {
	return domain.SearchProjects(r.All(), q)
}

// ByStatus filters the collection by status.
func (r *ProjectRepository) ByStatus(status domain.ProjectStatus) []domain.Project {
	return domain.ProjectsByStatus(r.All(), status)
}

package devserver

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kelp-ai/teaserctl/internal/project"
)

// memStore is the in-memory state behind the contract double: accounts,
// issued tokens, and projects. Everything is lost on restart, which is the
// point.
type memStore struct {
	mu         sync.Mutex
	passwords  map[string]string // email -> password
	tokens     map[string]string // bearer token -> email
	nextID     int64
	projects   map[int64]*project.Project
	owners     map[int64]string    // project id -> email
	generating map[int64]time.Time // project id -> when generate was requested
	failNext   map[int64]bool      // project id -> force the next generation to fail
}

func newMemStore() *memStore {
	return &memStore{
		passwords:  make(map[string]string),
		tokens:     make(map[string]string),
		projects:   make(map[int64]*project.Project),
		owners:     make(map[int64]string),
		generating: make(map[int64]time.Time),
		failNext:   make(map[int64]bool),
	}
}

func (s *memStore) addUser(email, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.passwords[email]; exists {
		return fmt.Errorf("email already registered")
	}
	s.passwords[email] = password
	return nil
}

func (s *memStore) authenticate(email, password string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.passwords[email]
	return ok && stored == password
}

func (s *memStore) issueToken(token, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = email
}

func (s *memStore) emailForToken(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.tokens[token]
	return email, ok
}

func (s *memStore) revokeAllTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
}

func (s *memStore) createProject(owner, name, companyName, website string) project.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p := &project.Project{
		ID:          s.nextID,
		Name:        name,
		CompanyName: companyName,
		Website:     website,
		Status:      project.StatusPending,
		CreatedAt:   time.Now().UTC(),
		Files:       []project.File{},
		Artifacts:   []project.Artifact{},
	}
	s.projects[p.ID] = p
	s.owners[p.ID] = owner
	return *p
}

func (s *memStore) listProjects(owner string) []project.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]project.Project, 0)
	for id, p := range s.projects {
		if s.owners[id] == owner {
			out = append(out, clone(p))
		}
	}
	// Map iteration order is random; the real backend returns rows in id
	// order, so the dashboard must not reshuffle between polls.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) getProject(owner string, id int64) (project.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || s.owners[id] != owner {
		return project.Project{}, false
	}
	return clone(p), true
}

func (s *memStore) deleteProject(owner string, id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok || s.owners[id] != owner {
		return false
	}
	delete(s.projects, id)
	delete(s.owners, id)
	delete(s.generating, id)
	return true
}

func (s *memStore) addFile(owner string, id int64, filename, fileType string) (project.File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || s.owners[id] != owner {
		return project.File{}, false
	}
	f := project.File{
		ID:       int64(len(p.Files) + 1),
		Filename: filename,
		FileType: fileType,
	}
	p.Files = append(p.Files, f)
	return f, true
}

func (s *memStore) startGeneration(owner string, id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || s.owners[id] != owner {
		return false
	}
	p.Status = project.StatusProcessing
	p.Metrics = nil
	p.Artifacts = []project.Artifact{}
	s.generating[id] = time.Now()
	return true
}

// FailNextGeneration makes the next generate on the project end in failed
// instead of completed. Lets tests and demos exercise the retry path.
func (s *memStore) failNextGeneration(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[id] = true
}

// finishDue completes (or fails) every generation that has been running for
// at least delay.
func (s *memStore) finishDue(delay time.Duration) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var finished []int64
	now := time.Now()
	for id, started := range s.generating {
		if now.Sub(started) < delay {
			continue
		}
		p, ok := s.projects[id]
		if !ok {
			delete(s.generating, id)
			continue
		}
		if s.failNext[id] {
			delete(s.failNext, id)
			p.Status = project.StatusFailed
		} else {
			p.Status = project.StatusCompleted
			p.Sector = "Industrials"
			p.Metrics = &project.Metrics{Revenue: 42.7, EBITDAMargin: 0.23, Year: time.Now().Year() - 1}
			p.Artifacts = []project.Artifact{
				{ID: 1, Type: project.ArtifactTeaser, CreatedAt: now.UTC()},
				{ID: 2, Type: project.ArtifactCitations, CreatedAt: now.UTC()},
			}
		}
		delete(s.generating, id)
		finished = append(finished, id)
	}
	return finished
}

func clone(p *project.Project) project.Project {
	out := *p
	out.Files = append([]project.File(nil), p.Files...)
	out.Artifacts = append([]project.Artifact(nil), p.Artifacts...)
	if p.Metrics != nil {
		m := *p.Metrics
		out.Metrics = &m
	}
	return out
}

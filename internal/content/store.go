package content

import "sync"

// Store keeps content in process memory in insertion order.
// Data is lost on restart.
//
// Update and delete take a callback that runs under the write lock, so an
// authorization check and the change it guards cannot interleave with
// another writer.
type Store struct {
	mu       sync.RWMutex
	tasks    []Task
	posts    []Post
	comments []Comment
}

func NewStore() *Store { return &Store{} }

/* ===================== TASKS ===================== */

func (s *Store) Tasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Task{}, s.tasks...)
}

func (s *Store) AddTask(t Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, t)
}

func (s *Store) UpdateTask(id string, fn func(*Task) error) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.taskIndex(id)
	if i < 0 {
		return Task{}, ErrTaskNotFound
	}
	next := s.tasks[i]
	if err := fn(&next); err != nil {
		return Task{}, err
	}
	s.tasks[i] = next
	return next, nil
}

func (s *Store) DeleteTask(id string, check func(Task) error) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.taskIndex(id)
	if i < 0 {
		return Task{}, ErrTaskNotFound
	}
	t := s.tasks[i]
	if err := check(t); err != nil {
		return Task{}, err
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return t, nil
}

/* ===================== POSTS ===================== */

func (s *Store) Posts() []Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Post{}, s.posts...)
}

func (s *Store) Post(id string) (Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.postIndex(id); i >= 0 {
		return s.posts[i], nil
	}
	return Post{}, ErrPostNotFound
}

func (s *Store) AddPost(p Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append(s.posts, p)
}

func (s *Store) UpdatePost(id string, fn func(*Post) error) (Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.postIndex(id)
	if i < 0 {
		return Post{}, ErrPostNotFound
	}
	next := s.posts[i]
	if err := fn(&next); err != nil {
		return Post{}, err
	}
	s.posts[i] = next
	return next, nil
}

// DeletePost removes the post and its comments together.
func (s *Store) DeletePost(id string, check func(Post) error) (Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.postIndex(id)
	if i < 0 {
		return Post{}, ErrPostNotFound
	}
	p := s.posts[i]
	if err := check(p); err != nil {
		return Post{}, err
	}
	s.posts = append(s.posts[:i], s.posts[i+1:]...)

	kept := make([]Comment, 0, len(s.comments))
	for _, c := range s.comments {
		if c.PostID != id {
			kept = append(kept, c)
		}
	}
	s.comments = kept
	return p, nil
}

/* ===================== COMMENTS ===================== */

func (s *Store) Comments(postID string) []Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Comment{}
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out
}

// AddComment fails with ErrPostNotFound when the post does not exist.
func (s *Store) AddComment(c Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.postIndex(c.PostID) < 0 {
		return ErrPostNotFound
	}
	s.comments = append(s.comments, c)
	return nil
}

func (s *Store) DeleteComment(id string, check func(Comment) error) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.comments {
		if c.ID != id {
			continue
		}
		if err := check(c); err != nil {
			return Comment{}, err
		}
		s.comments = append(s.comments[:i], s.comments[i+1:]...)
		return c, nil
	}
	return Comment{}, ErrCommentNotFound
}

// index helpers must be called with mu held.

func (s *Store) taskIndex(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) postIndex(id string) int {
	for i, p := range s.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

package blocks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type document struct {
	Blocks []Block `yaml:"blocks"`
}

// FileStore keeps blocks in a YAML document. With Watch it reloads when the
// file is edited by something else.
type FileStore struct {
	path string

	mu       sync.RWMutex
	blocks   []Block
	onChange func()

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// OpenFile loads path, creating an empty document if it does not exist.
func OpenFile(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("document path not configured")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating document directory: %w", err)
	}

	s := &FileStore{path: path}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := s.writeLocked(); err != nil {
			return nil, err
		}
		return s, nil
	}

	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the document file.
func (s *FileStore) Path() string {
	return s.path
}

// OnChange registers a callback run after an external edit is reloaded.
func (s *FileStore) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *FileStore) List(_ context.Context) ([]Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Block(nil), s.blocks...), nil
}

func (s *FileStore) Get(_ context.Context, id string) (Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.blocks {
		if b.ID == id {
			return b, nil
		}
	}
	return Block{}, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
}

func (s *FileStore) Add(_ context.Context, content string, props Props) (Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := Block{
		ID:        uuid.NewString(),
		Type:      "text",
		Content:   content,
		Props:     props,
		Position:  nextPosition(s.blocks),
		UpdatedAt: time.Now().UTC(),
	}
	s.blocks = append(s.blocks, b)
	if err := s.writeLocked(); err != nil {
		s.blocks = s.blocks[:len(s.blocks)-1]
		return Block{}, err
	}
	return b, nil
}

func (s *FileStore) SetProps(_ context.Context, id string, props Props) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.blocks {
		if s.blocks[i].ID != id {
			continue
		}
		s.blocks[i].Props = props
		s.blocks[i].UpdatedAt = time.Now().UTC()
		return s.writeLocked()
	}
	return fmt.Errorf("%w: %s", ErrBlockNotFound, id)
}

// Watch starts reloading the document on external writes.
func (s *FileStore) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	log.Debug("fsnotify watching dir", "dir", dir)

	s.watcher = w
	s.done = make(chan struct{})
	go s.watch()
	return nil
}

func (s *FileStore) watch() {
	defer close(s.done)
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			if err := s.reload(); err != nil {
				log.Warn("reloading document failed", "path", s.path, "error", err)
				continue
			}

			s.mu.RLock()
			fn := s.onChange
			s.mu.RUnlock()
			if fn != nil {
				fn()
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Debug("fsnotify error", "path", s.path, "error", err)
		}
	}
}

func (s *FileStore) Close() error {
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	<-s.done
	s.watcher = nil
	return err
}

func (s *FileStore) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing %s: %w", s.path, err)
	}
	sort.SliceStable(doc.Blocks, func(i, j int) bool {
		return doc.Blocks[i].Position < doc.Blocks[j].Position
	})

	s.mu.Lock()
	s.blocks = doc.Blocks
	s.mu.Unlock()
	return nil
}

// writeLocked replaces the file via a temp file and rename.
func (s *FileStore) writeLocked() error {
	data, err := yaml.Marshal(document{Blocks: s.blocks})
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".speakblock-*.yml")
	if err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing document: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}

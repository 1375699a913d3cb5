package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// reloadDebounce coalesces the burst of events editors emit per save.
const reloadDebounce = 500 * time.Millisecond

// Load reads and validates a profile YAML file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	if p.PersonalInfo.Name == "" {
		return nil, fmt.Errorf("profile %s has no personal_info.name", path)
	}
	return &p, nil
}

// Store serves the current profile and hot-reloads it when the file changes
// on disk. A broken edit keeps the last good profile in place.
type Store struct {
	path    string
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}

	mu      sync.RWMutex
	current *Profile
}

// NewStore loads the profile and begins watching its directory.
func NewStore(path string) (*Store, error) {
	p, err := Load(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory, not the file: editors that write via rename
	// replace the inode and would silently detach a file watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch profile dir: %w", err)
	}

	s := &Store{
		path:    path,
		watcher: watcher,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		current: p,
	}
	go s.run()
	return s, nil
}

// Get returns the current profile. The returned value is shared; callers
// must not mutate it.
func (s *Store) Get() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Close stops the watcher.
func (s *Store) Close() error {
	close(s.stopCh)
	err := s.watcher.Close()
	<-s.doneCh
	return err
}

func (s *Store) run() {
	defer close(s.doneCh)

	var lastReload time.Time
	for {
		select {
		case <-s.stopCh:
			return
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
			if time.Since(lastReload) < reloadDebounce {
				continue
			}
			lastReload = time.Now()
			s.reload()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("profile watcher error")
		}
	}
}

func (s *Store) reload() {
	p, err := Load(s.path)
	if err != nil {
		log.Error().Err(err).Str("path", s.path).
			Msg("profile reload failed, keeping previous version")
		return
	}

	s.mu.Lock()
	s.current = p
	s.mu.Unlock()
	log.Info().Str("path", s.path).Msg("profile reloaded")
}

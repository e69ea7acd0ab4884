// Package config loads provider settings from a file, binds environment
// overrides, and hot-reloads on change so long-lived processes can rotate
// keys or switch models without restarting.
package config

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Store holds a typed configuration value kept in sync with its file.
type Store[T any] struct {
	v        *viper.Viper
	value    *T
	mu       sync.RWMutex
	watchers []func(old, new T)
}

type Option[T any] func(*Store[T])

// WithDefaults seeds values used when the file omits a key.
func WithDefaults[T any](defaults map[string]any) Option[T] {
	return func(s *Store[T]) {
		for k, v := range defaults {
			s.v.SetDefault(k, v)
		}
	}
}

// WithEnv binds environment variables under prefix; dots in config keys map
// to underscores, so providers.openai.api_key reads
// PREFIX_PROVIDERS_OPENAI_API_KEY.
func WithEnv[T any](prefix string) Option[T] {
	return func(s *Store[T]) {
		s.v.SetEnvPrefix(prefix)
		s.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		s.v.AutomaticEnv()
	}
}

// Load reads the file at path and starts watching it for changes.
func Load[T any](path string, opts ...Option[T]) (*Store[T], error) {
	v := viper.New()
	v.SetConfigFile(path)

	s := &Store[T]{v: v}
	for _, opt := range opts {
		opt(s)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var val T
	if err := v.Unmarshal(&val); err != nil {
		return nil, err
	}
	s.value = &val

	s.watch()
	return s, nil
}

// Get returns a deep copy of the current value, safe to use concurrently
// with reloads.
func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return deepCopy(*s.value)
}

// OnChange registers a callback invoked after a successful reload that
// produced a different value.
func (s *Store[T]) OnChange(callback func(old, new T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, callback)
}

func deepCopy[T any](src T) T {
	var dst T
	data, _ := json.Marshal(src)
	_ = json.Unmarshal(data, &dst)
	return dst
}

// watch debounces filesystem events; editors often write a file several
// times in quick succession.
func (s *Store[T]) watch() {
	debounceTimer := &timerGuard{}

	s.v.OnConfigChange(func(_ fsnotify.Event) {
		debounceTimer.reset(100*time.Millisecond, s.handleChange)
	})
	s.v.WatchConfig()
}

type timerGuard struct {
	mu    sync.Mutex
	timer *time.Timer
}

func (g *timerGuard) reset(d time.Duration, fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
	}
	g.timer = time.AfterFunc(d, fn)
}

func (s *Store[T]) handleChange() {
	old := s.Get()

	next, watchers, ok := s.reload()
	if !ok {
		return
	}
	if reflect.DeepEqual(old, next) {
		return
	}

	for _, cb := range watchers {
		func() {
			defer func() { _ = recover() }()
			cb(old, next)
		}()
	}
}

// reload re-reads the file; a malformed file keeps the previous value.
func (s *Store[T]) reload() (T, []func(old, new T), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if err := s.v.ReadInConfig(); err != nil {
		return zero, nil, false
	}
	var val T
	if err := s.v.Unmarshal(&val); err != nil {
		return zero, nil, false
	}
	s.value = &val

	watchers := make([]func(old, new T), len(s.watchers))
	copy(watchers, s.watchers)
	return deepCopy(val), watchers, true
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package theme

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/novagem/internal/logging"
	"github.com/jeranaias/novagem/internal/observable"
	"github.com/jeranaias/novagem/internal/storage"
)

// ErrInvalidPreference is returned for a value other than light, dark or
// system.
var ErrInvalidPreference = errors.New("invalid theme preference")

// =============================================================================
// PREFERENCE
// =============================================================================

// Preference is the user's stored choice.
type Preference string

const (
	Light  Preference = "light"
	Dark   Preference = "dark"
	System Preference = "system"
)

// Preferences lists the valid choices in toggle order.
func Preferences() []Preference {
	return []Preference{Light, Dark, System}
}

// ParsePreference validates s.
func ParsePreference(s string) (Preference, error) {
	switch p := Preference(strings.ToLower(strings.TrimSpace(s))); p {
	case Light, Dark, System:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q (want light, dark or system)", ErrInvalidPreference, s)
	}
}

// Next returns the preference after p in toggle order.
func (p Preference) Next() Preference {
	switch p {
	case Light:
		return Dark
	case Dark:
		return System
	default:
		return Light
	}
}

// Label returns the display label.
func (p Preference) Label() string {
	switch p {
	case Light:
		return "Light"
	case Dark:
		return "Dark"
	case System:
		return "System"
	default:
		return string(p)
	}
}

// Effective is the resolved binary theme.
type Effective string

const (
	EffectiveLight Effective = "light"
	EffectiveDark  Effective = "dark"
)

// IsDark reports whether e is dark.
func (e Effective) IsDark() bool { return e == EffectiveDark }

// Resolve maps p to an effective theme given the OS signal.
func Resolve(p Preference, osPrefersDark bool) Effective {
	switch p {
	case Dark:
		return EffectiveDark
	case Light:
		return EffectiveLight
	default:
		if osPrefersDark {
			return EffectiveDark
		}
		return EffectiveLight
	}
}

// =============================================================================
// STORE
// =============================================================================

// Store persists the theme preference and applies the effective theme.
type Store struct {
	kv     storage.KV
	env    Environment
	logger *zap.Logger

	mu         sync.Mutex
	preference *observable.Value[Preference]
	effective  *observable.Value[Effective]
}

// NewStore reads the persisted preference, defaulting to System (and
// persisting that default) when nothing valid is stored, then applies it.
// A nil env uses the terminal.
func NewStore(kv storage.KV, env Environment, logger *zap.Logger) *Store {
	logger = logging.OrNop(logger)
	if env == nil {
		env = NewTerminalEnvironment(nil)
	}

	s := &Store{
		kv:     kv,
		env:    env,
		logger: logger.Named("theme"),
	}

	pref, ok := s.load()
	if !ok {
		pref = System
		s.persist(pref)
	}

	s.preference = observable.NewDistinct(pref)
	s.effective = observable.NewDistinct(s.apply(pref))
	return s
}

// SetPreference persists p and applies the resulting theme.
func (s *Store) SetPreference(p Preference) error {
	if _, err := ParsePreference(string(p)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.persist(p)
	eff := s.apply(p)
	s.preference.Set(p)
	s.effective.Set(eff)

	s.logger.Debug("theme preference set",
		zap.String("preference", string(p)),
		zap.String("effective", string(eff)))
	return nil
}

// Toggle moves to the next preference and returns it.
func (s *Store) Toggle() Preference {
	next := s.Current().Next()
	_ = s.SetPreference(next)
	return next
}

// Refresh re-reads the OS signal and reapplies the current preference. It
// matters only for System.
func (s *Store) Refresh() Effective {
	s.mu.Lock()
	defer s.mu.Unlock()

	eff := s.apply(s.preference.Get())
	s.effective.Set(eff)
	return eff
}

// Preference returns the observable preference. It reports what the user
// chose, not the resolved theme.
func (s *Store) Preference() *observable.Value[Preference] {
	return s.preference
}

// Current returns the current preference.
func (s *Store) Current() Preference {
	return s.preference.Get()
}

// Effective returns the resolved theme.
func (s *Store) Effective() Effective {
	return s.effective.Get()
}

// EffectiveChanges returns the observable resolved theme.
func (s *Store) EffectiveChanges() *observable.Value[Effective] {
	return s.effective
}

// =============================================================================
// INTERNAL
// =============================================================================

func (s *Store) load() (Preference, bool) {
	if s.kv == nil {
		return "", false
	}
	raw, ok, err := s.kv.Get(storage.ThemeKey)
	if err != nil {
		s.logger.Warn("load theme preference failed", zap.Error(err))
		return "", false
	}
	if !ok {
		return "", false
	}
	p, err := ParsePreference(raw)
	if err != nil {
		s.logger.Warn("stored theme preference invalid, using system", zap.String("value", raw))
		return "", false
	}
	return p, true
}

func (s *Store) persist(p Preference) {
	if s.kv == nil {
		return
	}
	if err := s.kv.Set(storage.ThemeKey, string(p)); err != nil {
		s.logger.Warn("save theme preference failed", zap.Error(err))
	}
}

// apply resolves p and sets the dark marker. Non-interactive output never
// gets a marker.
func (s *Store) apply(p Preference) Effective {
	eff := Resolve(p, p == System && s.env.PrefersDark())
	if s.env.Interactive() {
		s.env.SetDark(eff.IsDark())
	}
	return eff
}

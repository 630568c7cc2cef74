// Package credential хранит API ключи провайдеров в системной связке ключей.
package credential

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/zalando/go-keyring"

	"murmur/internal/provider"
)

// Service - имя сервиса в связке ключей.
const Service = "murmur"

// Store сохраняет ключи в keyring. Ключи из окружения используются,
// когда в keyring ничего нет, и не сохраняются. После Delete ключ из
// окружения для этого провайдера скрыт до следующего Save.
type Store struct {
	service  string
	log      zerolog.Logger
	fallback map[provider.Kind]string

	mu      sync.RWMutex
	deleted map[provider.Kind]bool
}

// New создаёт хранилище. fallback - ключи из переменных окружения, может быть nil.
func New(service string, fallback map[provider.Kind]string, log zerolog.Logger) *Store {
	if service == "" {
		service = Service
	}
	fb := make(map[provider.Kind]string, len(fallback))
	for k, v := range fallback {
		if v != "" {
			fb[k] = v
		}
	}
	return &Store{service: service, fallback: fb, log: log, deleted: map[provider.Kind]bool{}}
}

// Save сохраняет ключ. Возвращает false при ошибке keyring.
func (s *Store) Save(kind provider.Kind, secret string) bool {
	if err := keyring.Set(s.service, string(kind), secret); err != nil {
		s.log.Error().Err(err).Str("provider", string(kind)).Msg("failed to save credential")
		return false
	}
	s.mu.Lock()
	delete(s.deleted, kind)
	s.mu.Unlock()
	return true
}

// Get возвращает ключ провайдера.
func (s *Store) Get(kind provider.Kind) (string, bool) {
	secret, err := keyring.Get(s.service, string(kind))
	if err == nil && secret != "" {
		return secret, true
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		s.log.Warn().Err(err).Str("provider", string(kind)).Msg("keyring lookup failed")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deleted[kind] {
		return "", false
	}
	v, ok := s.fallback[kind]
	return v, ok
}

// Delete удаляет ключ. Отсутствующий ключ считается успешно удалённым.
func (s *Store) Delete(kind provider.Kind) bool {
	err := keyring.Delete(s.service, string(kind))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		s.log.Error().Err(err).Str("provider", string(kind)).Msg("failed to delete credential")
		return false
	}
	s.mu.Lock()
	s.deleted[kind] = true
	s.mu.Unlock()
	return true
}

// Has возвращает true если для провайдера есть ключ.
func (s *Store) Has(kind provider.Kind) bool {
	_, ok := s.Get(kind)
	return ok
}

// Package usage считает статистику диктовки и отдаёт её в Prometheus.
package usage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"murmur/internal/provider"
)

// Entry - одна завершённая диктовка.
type Entry struct {
	Words        int
	Chars        int
	Seconds      float64
	Provider     provider.Kind
	InputTokens  int
	OutputTokens int
}

// Snapshot - накопленная статистика.
type Snapshot struct {
	Words            int                   `json:"words"`
	Chars            int                   `json:"chars"`
	Transcriptions   int                   `json:"transcriptions"`
	RecordingSeconds float64               `json:"recording_seconds"`
	TotalTokens      int                   `json:"total_tokens"`
	ProviderTokens   map[provider.Kind]int `json:"provider_tokens"`
	LastReset        time.Time             `json:"last_reset"`
}

// WordsPerMinute возвращает среднюю скорость диктовки.
func (s Snapshot) WordsPerMinute() float64 {
	if s.RecordingSeconds <= 0 {
		return 0
	}
	return float64(s.Words) / (s.RecordingSeconds / 60)
}

func (s Snapshot) clone() Snapshot {
	c := s
	c.ProviderTokens = make(map[provider.Kind]int, len(s.ProviderTokens))
	for k, v := range s.ProviderTokens {
		c.ProviderTokens[k] = v
	}
	return c
}

type metrics struct {
	words          prometheus.Counter
	chars          prometheus.Counter
	transcriptions prometheus.Counter
	seconds        prometheus.Counter
	tokens         *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		words: f.NewCounter(prometheus.CounterOpts{
			Namespace: "murmur", Name: "words_total", Help: "Words typed.",
		}),
		chars: f.NewCounter(prometheus.CounterOpts{
			Namespace: "murmur", Name: "characters_total", Help: "Characters typed.",
		}),
		transcriptions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "murmur", Name: "transcriptions_total", Help: "Completed dictations.",
		}),
		seconds: f.NewCounter(prometheus.CounterOpts{
			Namespace: "murmur", Name: "recording_seconds_total", Help: "Seconds of recorded audio.",
		}),
		tokens: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "murmur", Name: "tokens_total", Help: "Tokens consumed by cleanup providers.",
		}, []string{"provider", "direction"}),
	}
}

// Store хранит статистику в JSON файле.
type Store struct {
	mu      sync.Mutex
	path    string
	total   Snapshot
	session Snapshot
	now     func() time.Time
	log     zerolog.Logger

	registry *prometheus.Registry
	metrics  *metrics
}

// New создаёт хранилище. Пустой path - только в памяти.
func New(path string, log zerolog.Logger) *Store {
	reg := prometheus.NewRegistry()
	s := &Store{
		path:     path,
		now:      time.Now,
		log:      log,
		registry: reg,
		metrics:  newMetrics(reg),
	}
	s.total = Snapshot{ProviderTokens: map[provider.Kind]int{}, LastReset: s.now()}
	s.session = Snapshot{ProviderTokens: map[provider.Kind]int{}, LastReset: s.now()}
	s.load()
	return s
}

func (s *Store) load() {
	if s.path == "" {
		return
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("ignoring corrupt usage file")
		return
	}
	if snap.ProviderTokens == nil {
		snap.ProviderTokens = map[provider.Kind]int{}
	}
	s.total = snap
}

// save вызывается под s.mu.
func (s *Store) save() {
	if s.path == "" {
		return
	}
	data, err := json.MarshalIndent(s.total, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		s.log.Warn().Err(err).Msg("failed to save usage")
	}
}

// Record учитывает завершённую диктовку.
func (s *Store) Record(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, snap := range []*Snapshot{&s.total, &s.session} {
		snap.Words += e.Words
		snap.Chars += e.Chars
		snap.Transcriptions++
		snap.RecordingSeconds += e.Seconds
		if tokens := e.InputTokens + e.OutputTokens; tokens > 0 {
			snap.TotalTokens += tokens
			snap.ProviderTokens[e.Provider] += tokens
		}
	}
	s.save()

	s.metrics.words.Add(float64(e.Words))
	s.metrics.chars.Add(float64(e.Chars))
	s.metrics.transcriptions.Inc()
	s.metrics.seconds.Add(e.Seconds)
	if e.Provider != "" {
		s.metrics.tokens.WithLabelValues(string(e.Provider), "input").Add(float64(e.InputTokens))
		s.metrics.tokens.WithLabelValues(string(e.Provider), "output").Add(float64(e.OutputTokens))
	}
}

// Snapshot возвращает копию накопленной статистики.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total.clone()
}

// Session возвращает статистику с момента запуска.
func (s *Store) Session() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.clone()
}

// Reset обнуляет накопленную статистику. Метрики Prometheus не сбрасываются.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = Snapshot{ProviderTokens: map[provider.Kind]int{}, LastReset: s.now()}
	s.save()
}

// Registry возвращает реестр метрик.
func (s *Store) Registry() *prometheus.Registry {
	return s.registry
}

// Handler отдаёт метрики в формате Prometheus.
func (s *Store) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// Serve запускает HTTP сервер метрик до отмены ctx.
func (s *Store) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info().Str("addr", addr).Msg("metrics server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

package dictation

import (
	"context"
	"fmt"
	"strings"

	"github.com/rivo/uniseg"

	"murmur/internal/cleanup"
	"murmur/internal/usage"
)

func (c *Controller) press() {
	if c.engine == nil {
		c.log.Debug().Err(ErrEngineUninitialized).Msg("press ignored")
		// Нажатие после неудачной загрузки запускает её заново.
		c.retryEngine()
		return
	}
	if c.state != Idle {
		c.log.Debug().Str("state", c.state.String()).Msg("press ignored, session in progress")
		return
	}

	c.nextID++
	s := &session{id: c.nextID, startedAt: c.now()}
	if c.deps.Focus != nil {
		s.window = c.deps.Focus.Capture()
	}
	c.session = s

	if err := c.deps.Recorder.Start(); err != nil {
		c.fail(fmt.Sprintf("microphone unavailable: %v", err))
		return
	}
	c.setState(Recording, "", "")
}

func (c *Controller) release() {
	s := c.session
	if c.state != Recording || s == nil {
		return
	}

	rec := c.deps.Recorder.Stop()
	s.duration = rec.Duration
	if len(rec.Samples) == 0 || rec.Duration < c.opts.MinDuration {
		c.log.Debug().Dur("duration", rec.Duration).Int("samples", len(rec.Samples)).Msg("recording too short")
		c.rest()
		return
	}

	ctx, cancel := context.WithCancel(c.ctx)
	s.cancel = cancel
	c.setState(Processing, "", "")
	go c.pipeline(ctx, s.id, c.engine, rec.Samples)

	if c.opts.ProcessingTimeout > 0 {
		c.schedule(c.opts.ProcessingTimeout, func() {
			if c.session == s && c.state == Processing {
				c.fail("processing timed out")
			}
		})
	}
}

// result - итог конвейера одной сессии.
type result struct {
	id      uint64
	raw     string
	text    string
	outcome cleanup.Outcome
	err     error
}

// pipeline выполняется вне горутины Run и возвращает результат через post.
func (c *Controller) pipeline(ctx context.Context, id uint64, eng Engine, samples []float32) {
	res := result{id: id}
	defer func() {
		if r := recover(); r != nil {
			res = result{id: id, err: fmt.Errorf("pipeline panic: %v", r)}
		}
		c.post(func() { c.finish(res) })
	}()

	if c.deps.Sink != nil {
		if path, err := c.deps.Sink.Dump(samples); err != nil {
			c.log.Warn().Err(err).Msg("audio dump failed")
		} else {
			c.log.Debug().Str("path", path).Msg("audio dumped")
		}
	}

	raw, err := eng.Transcribe(samples, c.opts.Language)
	if err != nil {
		res.err = fmt.Errorf("recognition failed: %w", err)
		return
	}
	res.raw = strings.TrimSpace(raw)
	res.text = res.raw
	if res.raw == "" || c.deps.Cleaner == nil || !c.deps.Cleaner.Configured() {
		return
	}
	if ctx.Err() != nil {
		return
	}

	out, err := c.deps.Cleaner.Clean(ctx, res.raw)
	if err != nil {
		c.log.Warn().Err(err).Uint64("session", id).Msg("cleanup failed, using raw transcript")
		return
	}
	res.outcome = out
	if t := strings.TrimSpace(out.Text); t != "" {
		res.text = t
	}
}

func (c *Controller) finish(res result) {
	s := c.session
	if s == nil || s.id != res.id || c.state != Processing {
		c.log.Debug().Err(ErrCancelled).Uint64("session", res.id).Msg("result dropped")
		return
	}
	s.cancel()

	if res.err != nil {
		c.fail(res.err.Error())
		return
	}
	if res.text == "" {
		c.log.Info().Uint64("session", s.id).Msg("empty transcript")
		c.rest()
		return
	}

	s.recognized = res.raw
	s.cleaned = res.text
	s.outcome = res.outcome

	if c.deps.Focus != nil {
		c.deps.Focus.Restore(s.window)
	}
	c.setState(Done, "", s.cleaned)
	c.schedule(c.opts.TypeDelay, func() { c.emit(s) })
}

// emit печатает текст вне горутины Run, чтобы длинный ввод не задерживал события.
func (c *Controller) emit(s *session) {
	text := s.cleaned
	go func() {
		c.deps.Typer.Type(text)
		c.post(func() { c.typed(s) })
	}()
}

func (c *Controller) typed(s *session) {
	if c.session != s || c.state != Done {
		return
	}

	entry := usage.Entry{
		Words:        len(strings.Fields(s.cleaned)),
		Chars:        uniseg.GraphemeClusterCount(s.cleaned),
		Seconds:      s.duration.Seconds(),
		Provider:     s.outcome.Provider,
		InputTokens:  s.outcome.InputTokens,
		OutputTokens: s.outcome.OutputTokens,
	}
	if c.deps.Stats != nil {
		c.deps.Stats.Record(entry)
	}
	c.log.Info().
		Uint64("session", s.id).
		Int("words", entry.Words).
		Int("tokens", s.outcome.TotalTokens()).
		Bool("cleaned", s.cleaned != s.recognized).
		Msg("text typed")

	c.schedule(c.opts.DoneDelay, c.rest)
}

func (c *Controller) cancel() {
	s := c.session
	if s == nil {
		return
	}
	switch c.state {
	case Recording:
		c.deps.Recorder.Stop()
	case Processing:
		s.cancel()
	default:
		return
	}
	c.log.Info().Uint64("session", s.id).Msg("session cancelled")
	c.rest()
}

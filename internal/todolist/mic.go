package todolist

import (
	"context"
	"errors"

	"github.com/dori/todo/internal/speech"
)

// ToggleMic starts or stops speech capture.
//
// While capturing, partial transcripts overwrite the draft. A final
// transcript is added as a todo unless blank, and capture then ends.
// A toggle while capture is still starting is ignored.
func (c *Controller) ToggleMic(ctx context.Context) error {
	c.mu.Lock()
	if stop := c.micStop; stop != nil {
		c.micStop = nil
		c.state.MicActive = false
		c.unlockAndNotify()
		close(stop)
		return c.rec.Stop()
	}
	if c.micStarting {
		c.mu.Unlock()
		return nil
	}
	if !c.rec.Supported() {
		c.showNoticeLocked()
		c.unlockAndNotify()
		return nil
	}
	c.micStarting = true
	c.mu.Unlock()

	c.rec.Reset()
	err := c.rec.Start(ctx, speech.Options{Locale: c.locale, Continuous: true})

	c.mu.Lock()
	c.micStarting = false
	switch {
	case errors.Is(err, speech.ErrUnsupported):
		c.showNoticeLocked()
		c.unlockAndNotify()
		return nil
	case err != nil:
		c.mu.Unlock()
		c.fail(ctx, "start speech capture", err)
		return err
	case c.ctx.Err() != nil:
		// Closed while starting.
		c.mu.Unlock()
		return c.rec.Stop()
	}

	stop := make(chan struct{})
	c.micStop = stop
	c.state.MicActive = true
	c.unlockAndNotify()
	c.log.Debug(ctx, "speech capture started", "locale", c.locale)

	go c.pumpTranscripts(stop)
	return nil
}

func (c *Controller) pumpTranscripts(stop chan struct{}) {
	events := c.rec.Events()
	for {
		select {
		case <-stop:
			return
		case <-c.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				c.endCapture(stop)
				return
			}
			switch ev.Kind {
			case speech.Partial:
				c.setCaptureDraft(stop, ev.Text)
			case speech.End:
				c.log.Debug(c.ctx, "speech capture ended without a final transcript")
				if err := c.rec.Stop(); err != nil {
					c.log.Warn(c.ctx, "stopping speech capture", "error", err)
				}
				c.endCapture(stop)
				return
			case speech.Final:
				if c.captureActive(stop) {
					_ = c.Add(c.ctx, ev.Text)
				}
				c.rec.Reset()
				if err := c.rec.Stop(); err != nil {
					c.log.Warn(c.ctx, "stopping speech capture", "error", err)
				}
				c.endCapture(stop)
				return
			}
		}
	}
}

func (c *Controller) captureActive(stop chan struct{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.micStop == stop
}

// setCaptureDraft writes a partial transcript unless capture was toggled off.
func (c *Controller) setCaptureDraft(stop chan struct{}, text string) {
	c.mu.Lock()
	if c.micStop != stop {
		c.mu.Unlock()
		return
	}
	c.state.Draft = text
	c.unlockAndNotify()
}

func (c *Controller) endCapture(stop chan struct{}) {
	c.mu.Lock()
	if c.micStop != stop {
		c.mu.Unlock()
		return
	}
	c.micStop = nil
	c.state.MicActive = false
	c.unlockAndNotify()
}

// showNoticeLocked raises the unsupported notice and schedules its dismissal.
func (c *Controller) showNoticeLocked() {
	c.state.UnsupportedNotice = true
	c.noticeGen++
	gen := c.noticeGen
	if c.noticeStop != nil {
		c.noticeStop()
	}
	c.noticeStop = c.afterFunc(c.noticeDuration, func() {
		c.mu.Lock()
		if gen != c.noticeGen {
			c.mu.Unlock()
			return
		}
		c.noticeStop = nil
		c.state.UnsupportedNotice = false
		c.unlockAndNotify()
	})
}

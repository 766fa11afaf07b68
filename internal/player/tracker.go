package player

import "github.com/desertthunder/ncmx/internal/playback"

// syncTicker runs the position ticker only while Playing.
func (c *Coordinator) syncTicker() {
	want := c.machine.Status() == playback.Playing
	switch {
	case want && !c.ticking:
		c.ticker.Reset(c.opts.PollInterval)
	case !want && c.ticking:
		c.ticker.Stop()
	}
	c.ticking = want
}

// poll samples the backend clock and detects end of stream.
//
// The first sample after a seek keeps the optimistic position unless the backend disagrees by more than
// the seek tolerance. End of stream fires once per load generation.
func (c *Coordinator) poll() {
	m := c.machine
	if m.Status() != playback.Playing {
		return
	}

	pos := c.backend.Position()
	if c.seeked {
		c.seeked = false
		if diff := pos - m.Position(); diff > c.opts.SeekTolerance || diff < -c.opts.SeekTolerance {
			c.logger.Debug("seek reconciled", "optimistic", m.Position(), "backend", pos)
			m.SetPosition(pos)
		}
	} else {
		m.SetPosition(pos)
	}

	if c.backend.EndOfStream() && c.endGen != c.gen {
		c.endGen = c.gen
		t, _ := m.CurrentTrack()
		c.logger.Debug("end of track", "track", t.ID, "generation", c.gen)
		c.failures = 0
		c.advance(m.TrackEnded())
	}
}

// Package clock provides the wall-clock collaborator the session core
// depends on, trimmed down from the teacher's full NTP router-timestamper
// to just what a handshake or keepalive timestamp needs: the current time,
// optionally corrected by an NTP offset.
package clock

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/beevik/ntp"
	"github.com/go-i2p/logger"
)

var log = logger.GetGoI2PLogger()

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reports time.Now() unmodified.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// NTPClock periodically queries a pool of NTP servers and reports
// time.Now() corrected by the most recently observed offset.
type NTPClock struct {
	servers []string
	timeout time.Duration

	offset atomic.Int64 // nanoseconds, signed

	stopOnce sync.Once
	stopChan chan struct{}
}

// NewNTPClock starts a clock that refreshes its offset against servers
// every refreshInterval until Stop is called.
func NewNTPClock(servers []string, refreshInterval, timeout time.Duration) *NTPClock {
	c := &NTPClock{
		servers:  servers,
		timeout:  timeout,
		stopChan: make(chan struct{}),
	}
	c.refresh()
	go c.loop(refreshInterval)
	return c
}

func (c *NTPClock) loop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.refresh()
		case <-c.stopChan:
			return
		}
	}
}

func (c *NTPClock) refresh() {
	for _, server := range c.servers {
		resp, err := ntp.QueryWithOptions(server, ntp.QueryOptions{Timeout: c.timeout})
		if err != nil {
			log.WithError(err).WithField("server", server).Debug("ntp query failed")
			continue
		}
		if err := resp.Validate(); err != nil {
			log.WithError(err).WithField("server", server).Debug("ntp response invalid")
			continue
		}
		c.offset.Store(int64(resp.ClockOffset))
		return
	}
	log.Warn("ntp clock failed to sync against any configured server")
}

// Now returns the system clock corrected by the last observed NTP offset.
func (c *NTPClock) Now() time.Time {
	return time.Now().Add(time.Duration(c.offset.Load()))
}

// Stop halts the background refresh loop.
func (c *NTPClock) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

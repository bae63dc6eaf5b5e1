package reseed

import (
	"context"
	"crypto/rand"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/go-i2p/logger"
	"github.com/go-i2p/ntcp1/lib/config"
	"github.com/samber/oops"
	"golang.org/x/time/rate"
)

// HTTPClientFetcher is the default HTTPFetcher, backed by a real net/http
// client.
type HTTPClientFetcher struct {
	Client *http.Client
}

func NewHTTPClientFetcher(timeout time.Duration) *HTTPClientFetcher {
	return &HTTPClientFetcher{Client: &http.Client{Timeout: timeout}}
}

func (f *HTTPClientFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, oops.Errorf("reseed: failed to build request: %w", err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, oops.Errorf("reseed: fetch failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, oops.Errorf("reseed: fetch returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, oops.Errorf("reseed: failed to read response body: %w", err)
	}
	return body, nil
}

// Loader drives one SU3 fetch-and-ingest cycle against a configured list
// of reseed hosts.
type Loader struct {
	hosts   []*config.ReseedConfig
	fetcher HTTPFetcher
	netdb   NetDB
	limiter *rate.Limiter
}

// NewLoader builds a Loader against the given host list, rate-limited per
// cfg.RequestsPerSecond. A nil or empty hosts list falls back to
// config.KnownReseedServers, the same way an embedding program that hasn't
// configured its own reseed hosts yet still has somewhere to bootstrap from.
func NewLoader(hosts []*config.ReseedConfig, fetcher HTTPFetcher, netdb NetDB, cfg config.ReseedLoaderConfig) *Loader {
	if len(hosts) == 0 {
		hosts = config.KnownReseedServers
	}
	return &Loader{
		hosts:   hosts,
		fetcher: fetcher,
		netdb:   netdb,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// Reseed picks a random host, fetches its SU3 archive, and ingests every
// descriptor it contains, returning the count ingested.
func (l *Loader) Reseed(ctx context.Context) (int, error) {
	host := l.pickHost()
	if host == nil {
		return 0, oops.Errorf("reseed: no reseed hosts configured")
	}

	if err := l.limiter.Wait(ctx); err != nil {
		return 0, oops.Errorf("reseed: rate limiter wait failed: %w", err)
	}

	log.WithFields(logger.Fields{
		"at":   "(Loader) Reseed",
		"host": host.URL,
	}).Info("fetching reseed archive")

	raw, err := l.fetcher.Fetch(ctx, host.URL+"i2pseeds.su3")
	if err != nil {
		return 0, oops.Errorf("reseed: fetch from %s failed: %w", host.URL, err)
	}

	return l.ingest(raw)
}

// ingest parses an SU3 archive already fetched into memory and hands each
// embedded router descriptor to netdb. A malformed or truncated archive
// does not lose descriptors already recovered before the failure: the
// count ingested so far is returned alongside the error rather than
// discarded, matching the original reseed client's behavior of reporting
// partial progress instead of throwing on a bad archive.
func (l *Loader) ingest(raw []byte) (int, error) {
	su3, err := ParseSU3(raw)
	if err != nil {
		return 0, oops.Errorf("reseed: failed to parse su3 header: %w", err)
	}

	entries, walkErr := WalkZIP(su3.Content)

	count := 0
	for _, entry := range entries {
		if err := l.netdb.AddRouterInfo(entry.Data); err != nil {
			log.WithFields(logger.Fields{
				"at":     "(Loader) ingest",
				"entry":  entry.Name,
				"reason": err,
			}).Warn("failed to add router info from reseed archive")
			continue
		}
		count++
	}

	if walkErr != nil {
		log.WithFields(logger.Fields{
			"at":       "(Loader) ingest",
			"ingested": count,
			"reason":   walkErr,
		}).Warn("reseed archive malformed, reporting partial progress")
		return count, oops.Errorf("reseed: failed to walk su3 zip content: %w", walkErr)
	}

	log.WithFields(logger.Fields{
		"at":          "(Loader) ingest",
		"entry_count": len(entries),
		"ingested":    count,
	}).Info("reseed archive ingested")
	return count, nil
}

func (l *Loader) pickHost() *config.ReseedConfig {
	if len(l.hosts) == 0 {
		return nil
	}
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(l.hosts))))
	if err != nil {
		return l.hosts[0]
	}
	return l.hosts[idx.Int64()]
}

// Package reseed drives the bootstrap fetch of a signed SU3 archive of
// router descriptors over HTTP(S), parses the archive's header, walks its
// embedded ZIP local-file records, and hands each descriptor to netdb.
package reseed

import "context"

// NetDB is the subset of the network database the loader populates.
type NetDB interface {
	AddRouterInfo(raw []byte) error
}

// HTTPFetcher retrieves a URL's body, abstracted so tests can substitute a
// fixture without a real network round trip.
type HTTPFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Package proxy provides an HTTP forward proxy that transparently
// upgrades requests to HTTPS according to stored HSTS policy.
package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/martian/v3"

	"github.com/seslattery/hstsward/internal/hsts"
	"github.com/seslattery/hstsward/internal/policy"
)

// Proxy is a forward HTTP proxy enforcing HSTS policy from a shared
// known-hosts store. Plain-HTTP requests covered by a live policy are
// rewritten to HTTPS before the upstream dial; responses fetched over
// HTTPS feed newly advertised policy back into the store.
type Proxy struct {
	store      *hsts.Store
	exclusions *policy.Exclusions
	listener   net.Listener
	proxy      *martian.Proxy
	logger     *slog.Logger
}

// New creates a Proxy listening on addr. Use "127.0.0.1:0" for an
// ephemeral port.
func New(addr string, store *hsts.Store, excl *policy.Exclusions, logger *slog.Logger) (*Proxy, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	p := &Proxy{
		store:      store,
		exclusions: excl,
		listener:   listener,
		proxy:      martian.NewProxy(),
		logger:     logger,
	}
	p.proxy.SetRequestModifier(p)
	p.proxy.SetResponseModifier(p)

	return p, nil
}

// Port returns the proxy's listening port.
func (p *Proxy) Port() int {
	return p.listener.Addr().(*net.TCPAddr).Port
}

// Addr returns the proxy's address (e.g., "127.0.0.1:12345").
func (p *Proxy) Addr() string {
	return p.listener.Addr().String()
}

// Start starts the proxy server. Blocks until context is cancelled.
func (p *Proxy) Start(ctx context.Context) error {
	// Handle shutdown
	go func() {
		<-ctx.Done()
		p.proxy.Close()
		p.listener.Close()
	}()

	p.logger.Info("proxy started", "addr", p.Addr())
	return p.proxy.Serve(p.listener)
}

// ModifyRequest upgrades plain-HTTP requests covered by a live HSTS
// policy. CONNECT tunnels are opaque and pass through untouched.
func (p *Proxy) ModifyRequest(req *http.Request) error {
	if req.Method == http.MethodConnect {
		return nil
	}
	host := req.URL.Hostname()
	if p.exclusions.Excluded(host) {
		p.logger.Debug("excluded from enforcement", "host", host)
		return nil
	}
	if p.store.Match(req.URL) {
		req.Host = req.URL.Host
		p.logger.Info("upgraded to https", "host", host)
	}
	return nil
}

// ModifyResponse learns HSTS policy from Strict-Transport-Security
// headers. Only responses obtained over HTTPS are trusted.
func (p *Proxy) ModifyResponse(res *http.Response) error {
	req := res.Request
	if req == nil || !strings.EqualFold(req.URL.Scheme, "https") {
		return nil
	}
	value := res.Header.Get("Strict-Transport-Security")
	if value == "" {
		return nil
	}
	host := req.URL.Hostname()
	if p.exclusions.Excluded(host) {
		return nil
	}
	maxAge, includeSubdomains, ok := hsts.ParseHeader(value)
	if !ok {
		p.logger.Debug("unparseable sts header", "host", host, "value", value)
		return nil
	}

	port := 443
	if ps := req.URL.Port(); ps != "" {
		n, err := strconv.Atoi(ps)
		if err != nil {
			return nil
		}
		port = n
	}
	if p.store.StoreEntry("https", host, port, maxAge, includeSubdomains) {
		p.logger.Info("learned hsts policy",
			"host", host,
			"max_age", maxAge,
			"include_subdomains", includeSubdomains)
	}
	return nil
}

// Close shuts down the proxy.
func (p *Proxy) Close() error {
	p.proxy.Close()
	return p.listener.Close()
}

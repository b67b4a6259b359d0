package permission

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/soocke/image-picker-go/domain/provider"
)

// Policy selects how permission-requiring paths are decided.
type Policy int

const (
	PolicyPrompt Policy = iota
	PolicyAllow
	PolicyDeny
)

func (p Policy) String() string {
	switch p {
	case PolicyAllow:
		return "allow"
	case PolicyDeny:
		return "deny"
	default:
		return "prompt"
	}
}

// ParsePolicy reads prompt, allow or deny. Empty means prompt.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "prompt", "ask":
		return PolicyPrompt, nil
	case "allow", "grant":
		return PolicyAllow, nil
	case "deny":
		return PolicyDeny, nil
	default:
		return PolicyPrompt, fmt.Errorf("permission: unknown policy %q", s)
	}
}

// Static answers every query with the same decision.
type Static bool

func (s Static) Check(_ context.Context, _ provider.Path, decide func(bool, error)) {
	decide(bool(s), nil)
}

// Prompt asks the user about path and calls answer once. It must not block
// the caller.
type Prompt func(ctx context.Context, path provider.Path, answer func(granted bool, err error))

// Prompting asks through a Prompt and optionally remembers grants for the
// lifetime of the checker. Denials are never remembered.
type Prompting struct {
	logger   *slog.Logger
	prompt   Prompt
	remember bool

	mu      sync.Mutex
	granted map[provider.Path]bool
}

func NewPrompting(logger *slog.Logger, prompt Prompt, remember bool) *Prompting {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prompting{logger: logger, prompt: prompt, remember: remember, granted: make(map[provider.Path]bool)}
}

func (p *Prompting) Check(ctx context.Context, path provider.Path, decide func(bool, error)) {
	if !path.RequiresPermission() {
		decide(true, nil)
		return
	}
	if p.Remembered(path) {
		p.logger.Debug("permission remembered", "path", path.String())
		decide(true, nil)
		return
	}
	if p.prompt == nil {
		decide(false, fmt.Errorf("permission: no prompt for %s", path))
		return
	}
	p.prompt(ctx, path, func(granted bool, err error) {
		if err == nil && granted && p.remember {
			p.mu.Lock()
			p.granted[path] = true
			p.mu.Unlock()
		}
		p.logger.Info("permission decided", "path", path.String(), "granted", granted, "error", err)
		decide(granted, err)
	})
}

// Remembered reports whether a grant for path is cached.
func (p *Prompting) Remembered(path provider.Path) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.granted[path]
}

// Forget drops every remembered grant.
func (p *Prompting) Forget() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.granted)
}

// Checker is satisfied by Static and *Prompting.
type Checker interface {
	Check(ctx context.Context, path provider.Path, decide func(granted bool, err error))
}

// FromPolicy builds the checker for policy.
func FromPolicy(logger *slog.Logger, policy Policy, prompt Prompt, remember bool) Checker {
	switch policy {
	case PolicyAllow:
		return Static(true)
	case PolicyDeny:
		return Static(false)
	default:
		return NewPrompting(logger, prompt, remember)
	}
}

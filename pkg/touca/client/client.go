// Package client is the capture SDK facade: it wires configuration,
// the test case store, and the platform transport together behind the
// per-process/per-caller operations a test runner calls (spec §4.3,
// §6, "capture entry points" carved out of the reference's global
// convenience functions).
package client

import (
	"context"
	"fmt"

	"github.com/trytouca/touca-go/pkg/touca/codec"
	"github.com/trytouca/touca-go/pkg/touca/platform"
	"github.com/trytouca/touca-go/pkg/touca/store"
	"github.com/trytouca/touca-go/pkg/touca/testcase"
	"github.com/trytouca/touca-go/pkg/touca/transport"
	"github.com/trytouca/touca-go/pkg/touca/types"
)

// Client is an explicit handle replacing the reference SDK's global
// singleton and thread-local "current test case" (spec §9, Redesign
// Flag "Global mutable state").
type Client struct {
	cfg      resolved
	store    *store.Store
	platform *platform.Platform
}

// Configure constructs a Client from cfg, validating and reconciling it
// first. It does not contact the platform; call Authenticate (or let
// Seal/Post fail) to discover connectivity problems.
func Configure(cfg Config) (*Client, error) {
	r, err := Resolve(cfg)
	if err != nil {
		return nil, err
	}

	policy := store.Shared
	if !r.concurrencyEnabled() {
		policy = store.PerCaller
	}

	c := &Client{cfg: r, store: store.New(policy)}

	if !r.offlineEnabled() && r.APIURL != "" {
		t := transport.New(r.Address.Root)
		c.platform = platform.New(t, r.Team)
	}

	return c, nil
}

// NewCaller returns a selection handle for one logical caller, scoped
// to this client's configured selection policy.
func (c *Client) NewCaller() *store.Selector {
	return c.store.NewSelector()
}

// Authenticate performs the platform handshake and signs in with the
// configured API key. A no-op when the client is offline.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.platform == nil {
		return nil
	}
	if err := c.platform.Handshake(ctx); err != nil {
		return err
	}
	return c.platform.Auth(ctx, c.cfg.APIKey)
}

// DeclareTestCase declares (creating if new) the test case named name
// under sel's selection.
func (c *Client) DeclareTestCase(sel *store.Selector, name string) *testcase.TestCase {
	return c.store.DeclareTestCase(sel, testcase.Metadata{
		TeamSlug:  c.cfg.Team,
		SuiteSlug: c.cfg.Suite,
		Version:   c.cfg.Version,
		CaseSlug:  name,
	})
}

// ForgetTestCase drops all data for name.
func (c *Client) ForgetTestCase(name string) error {
	return c.store.ForgetTestCase(name)
}

// current resolves sel's current test case, failing with a config_error
// if no test case has been declared yet — a capture operation cannot
// address anything until declare_testcase is called (spec §4.3).
func (c *Client) current(sel *store.Selector) (*testcase.TestCase, error) {
	tc, ok := c.store.Current(sel)
	if !ok {
		return nil, fmt.Errorf("%w: no test case declared for this selection", platform.ErrConfig)
	}
	return tc, nil
}

// Check captures a regression-scored result under sel's current test
// case.
func (c *Client) Check(sel *store.Selector, key string, value types.Node) error {
	tc, err := c.current(sel)
	if err != nil {
		return err
	}
	tc.Check(key, value)
	return nil
}

// Assume captures an invariant-assertion result under sel's current
// test case.
func (c *Client) Assume(sel *store.Selector, key string, value types.Node) error {
	tc, err := c.current(sel)
	if err != nil {
		return err
	}
	tc.Assume(key, value)
	return nil
}

// AddArrayElement appends value to the array at key under sel's
// current test case.
func (c *Client) AddArrayElement(sel *store.Selector, key string, value types.Node) error {
	tc, err := c.current(sel)
	if err != nil {
		return err
	}
	return tc.AddArrayElement(key, value)
}

// AddHitCount increments the hit counter at key under sel's current
// test case.
func (c *Client) AddHitCount(sel *store.Selector, key string) error {
	tc, err := c.current(sel)
	if err != nil {
		return err
	}
	return tc.AddHitCount(key)
}

// AddMetric records a direct duration under sel's current test case.
func (c *Client) AddMetric(sel *store.Selector, key string, durationMs int64) error {
	tc, err := c.current(sel)
	if err != nil {
		return err
	}
	tc.AddMetric(key, durationMs)
	return nil
}

// StartTimer begins a scoped metric under sel's current test case.
func (c *Client) StartTimer(sel *store.Selector, key string) (*testcase.Timer, error) {
	tc, err := c.current(sel)
	if err != nil {
		return nil, err
	}
	return tc.Scope(key), nil
}

// Post encodes every declared test case and submits the batch to the
// platform, returning the accumulated error descriptions (empty slice
// on success). A no-op success when offline.
func (c *Client) Post(ctx context.Context) []string {
	if c.platform == nil {
		return nil
	}

	var messages codec.Messages
	for _, tc := range c.store.All() {
		messages.Messages = append(messages.Messages, tc.ToMessage())
	}

	payload := codec.EncodeMessages(messages)
	errs := c.platform.Submit(ctx, c.cfg.Suite, c.cfg.Version, payload)
	if len(errs) == 0 {
		for _, tc := range c.store.All() {
			tc.MarkPosted()
		}
	}
	return errs
}

// Seal finalizes the current {team, suite, version} on the platform.
// A no-op when offline.
func (c *Client) Seal(ctx context.Context) error {
	if c.platform == nil {
		return nil
	}
	return c.platform.Seal(ctx, c.cfg.Suite, c.cfg.Version)
}

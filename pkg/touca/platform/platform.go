// Package platform layers the Touca server's API contract atop the raw
// HTTP capability in transport: handshake, auth, element listing,
// batch submission, sealing, and the comparator-side job endpoints
// (spec §4.6).
package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/trytouca/touca-go/pkg/touca/transport"
)

// postMaxRetries bounds Submit's retry loop (spec §4.6, "up to
// post_max_retries attempts").
const postMaxRetries = 3

// Platform wraps a Transport with the Touca server's endpoint
// semantics for one {team, suite} scope.
type Platform struct {
	t    *transport.Transport
	Team string
}

// New constructs a Platform atop an already-configured Transport.
func New(t *transport.Transport, team string) *Platform {
	return &Platform{t: t, Team: team}
}

// Handshake succeeds iff the platform reports {"ready": true}.
func (p *Platform) Handshake(ctx context.Context) error {
	resp, err := p.t.Get(ctx, "/platform")
	if err != nil {
		return fmt.Errorf("%w: handshake: %v", ErrTransport, err)
	}
	if resp.Status != 200 {
		return fmt.Errorf("%w: handshake returned status %d", ErrTransport, resp.Status)
	}
	var body struct {
		Ready bool `json:"ready"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return fmt.Errorf("%w: handshake: malformed response: %v", ErrServer, err)
	}
	if !body.Ready {
		return fmt.Errorf("%w: platform reports not ready", ErrServer)
	}
	return nil
}

// Auth exchanges apiKey for a bearer token and caches it on the
// underlying Transport.
func (p *Platform) Auth(ctx context.Context, apiKey string) error {
	reqBody, err := json.Marshal(struct {
		Key string `json:"key"`
	}{Key: apiKey})
	if err != nil {
		return fmt.Errorf("%w: encoding auth request: %v", ErrConfig, err)
	}

	resp, err := p.t.Post(ctx, "/client/signin", reqBody)
	if err != nil {
		return fmt.Errorf("%w: auth: %v", ErrTransport, err)
	}
	if resp.Status != 200 {
		return fmt.Errorf("%w: auth returned status %d", ErrTransport, resp.Status)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil || body.Token == "" {
		return fmt.Errorf("%w: auth: malformed response", ErrServer)
	}

	p.t.SetToken(&oauth2.Token{AccessToken: body.Token})
	return nil
}

// Elements lists the baseline case names declared for {team, suite}.
func (p *Platform) Elements(ctx context.Context, suite string) ([]string, error) {
	resp, err := p.t.Get(ctx, fmt.Sprintf("/element/%s/%s", p.Team, suite))
	if err != nil {
		return nil, fmt.Errorf("%w: elements: %v", ErrTransport, err)
	}
	if resp.Status != 200 {
		return nil, fmt.Errorf("%w: elements returned status %d", ErrTransport, resp.Status)
	}
	var names []string
	if err := json.Unmarshal(resp.Body, &names); err != nil {
		return nil, fmt.Errorf("%w: elements: malformed response: %v", ErrServer, err)
	}
	return names, nil
}

// Submit posts an already-encoded batch payload, making up to
// postMaxRetries attempts in total. It returns the accumulated list of error
// descriptions across attempts; an empty slice is success (spec §4.6).
func (p *Platform) Submit(ctx context.Context, suite, version string, payload []byte) []string {
	var errs []string
	path := fmt.Sprintf("/client/submit/%s/%s/%s", p.Team, suite, version)

	for attempt := 1; attempt <= postMaxRetries; attempt++ {
		resp, err := p.t.BinaryPost(ctx, path, payload)
		if err != nil {
			errs = append(errs, fmt.Sprintf("attempt %d: %v", attempt, err))
			continue
		}
		if resp.Status == 200 {
			return nil
		}
		errs = append(errs, fmt.Sprintf("attempt %d: server returned status %d", attempt, resp.Status))

		select {
		case <-ctx.Done():
			errs = append(errs, ctx.Err().Error())
			return errs
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return errs
}

// Seal finalizes the current {team, suite, version}.
func (p *Platform) Seal(ctx context.Context, suite, version string) error {
	resp, err := p.t.Post(ctx, fmt.Sprintf("/batch/%s/%s/%s/seal", p.Team, suite, version), nil)
	if err != nil {
		return fmt.Errorf("%w: seal: %v", ErrTransport, err)
	}
	if resp.Status != 200 {
		return fmt.Errorf("%w: seal returned status %d", ErrTransport, resp.Status)
	}
	return nil
}

// CmpJobs fetches the comparator service's pending job list body.
func (p *Platform) CmpJobs(ctx context.Context) ([]byte, error) {
	resp, err := p.t.Get(ctx, "/comparison/jobs")
	if err != nil {
		return nil, fmt.Errorf("%w: cmp_jobs: %v", ErrTransport, err)
	}
	if resp.Status != 200 {
		return nil, fmt.Errorf("%w: cmp_jobs returned status %d", ErrTransport, resp.Status)
	}
	return resp.Body, nil
}

// CmpSubmit posts a completed comparison result to url.
func (p *Platform) CmpSubmit(ctx context.Context, url string, body []byte) error {
	resp, err := p.t.Post(ctx, url, body)
	if err != nil {
		return fmt.Errorf("%w: cmp_submit: %v", ErrTransport, err)
	}
	if resp.Status != 200 {
		return fmt.Errorf("%w: cmp_submit returned status %d", ErrTransport, resp.Status)
	}
	return nil
}

// CmpStats posts comparator-service health statistics.
func (p *Platform) CmpStats(ctx context.Context, body []byte) error {
	resp, err := p.t.Patch(ctx, "/comparison/stats", body)
	if err != nil {
		return fmt.Errorf("%w: cmp_stats: %v", ErrTransport, err)
	}
	if resp.Status != 200 {
		return fmt.Errorf("%w: cmp_stats returned status %d", ErrTransport, resp.Status)
	}
	return nil
}

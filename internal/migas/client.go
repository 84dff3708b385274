// Package migas sends usage breadcrumbs to a migas server and asks it about
// project versions.
//
// Every operation is gated on the configured telemetry flag and never
// returns an error: failures degrade to the operation's fallback response.
package migas

import (
	"context"
	"sync"

	"github.com/jamesprial/migas-go/internal/config"
	"github.com/jamesprial/migas-go/internal/graphql"
	"github.com/jamesprial/migas-go/internal/logging"
	"github.com/jamesprial/migas-go/internal/query"
)

// DisabledMessage is reported by every operation while telemetry is off.
const DisabledMessage = "[migas-go] Telemetry is disabled."

// Disabled returns the result of an operation skipped by the telemetry gate.
func Disabled() map[string]any {
	return map[string]any{"success": false, "message": DisabledMessage}
}

// Client runs migas operations against the configured endpoint.
type Client struct {
	cfg       *config.Config
	transport graphql.Transport
	probe     config.Probe

	fpOnce      sync.Once
	fingerprint query.Values
	deprecation sync.Once
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the default HTTP transport.
func WithTransport(t graphql.Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithFingerprint fixes the auto-detected context instead of probing the
// environment.
func WithFingerprint(fp query.Values) Option {
	return func(c *Client) {
		c.fpOnce.Do(func() { c.fingerprint = fp })
	}
}

// WithProbe sets the environment probe used for fingerprint detection.
func WithProbe(p config.Probe) Option {
	return func(c *Client) { c.probe = p }
}

// New returns a Client for cfg. A nil cfg means config.DefaultConfig.
func New(cfg *config.Config, opts ...Option) *Client {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	c := &Client{cfg: cfg, probe: config.SystemProbe()}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = graphql.NewHTTPClient(cfg)
	}
	return c
}

// Enabled reports whether telemetry is switched on.
func (c *Client) Enabled() bool {
	return c.cfg.Telemetry
}

// Fingerprint returns the auto-detected context, probing the environment on
// first use.
func (c *Client) Fingerprint() query.Values {
	c.fpOnce.Do(func() {
		c.fingerprint = query.Values(config.Detect(c.cfg, c.probe))
	})
	return c.fingerprint
}

// Build returns the request text op would send for values, including the
// fingerprint when op uses one. While telemetry is off no user id is
// generated or persisted for it.
func (c *Client) Build(op query.Operation, values query.Values) string {
	var fp query.Values
	switch {
	case !op.Fingerprint:
	case c.Enabled():
		fp = c.Fingerprint()
	default:
		fp = query.Values(config.Preview(c.cfg, c.probe))
	}
	return op.Generate(values, fp)
}

// AddBreadcrumb sends one usage record for project at projectVersion.
// Optional extra values: language, language_version, status, status_desc,
// error_type, error_desc, user_id, session_id, user_type, platform,
// container, is_ci. The result carries "success".
func (c *Client) AddBreadcrumb(ctx context.Context, project, projectVersion string, extra query.Values) map[string]any {
	return c.Run(ctx, query.AddBreadcrumb, withRequired(extra, "project", project, "project_version", projectVersion))
}

// CheckProject compares projectVersion with the latest known release. The
// result carries success, flagged, latest and message.
func (c *Client) CheckProject(ctx context.Context, project, projectVersion string, extra query.Values) map[string]any {
	return c.Run(ctx, query.CheckProject, withRequired(extra, "project", project, "project_version", projectVersion))
}

// GetUsage reports usage of project since start (and until "end" when given
// in extra). Set "unique" to count distinct users only.
func (c *Client) GetUsage(ctx context.Context, project, start string, extra query.Values) map[string]any {
	return c.Run(ctx, query.GetUsage, withRequired(extra, "project", project, "start", start))
}

// AddProject sends usage and asks for the latest version in one call.
//
// Deprecated: use AddBreadcrumb and CheckProject.
func (c *Client) AddProject(ctx context.Context, project, projectVersion string, extra query.Values) map[string]any {
	c.deprecation.Do(func() {
		logging.Logger().Warn().Msg("add_project is deprecated; use add_breadcrumb and check_project")
	})
	return c.Run(ctx, query.AddProject, withRequired(extra, "project", project, "project_version", projectVersion))
}

// Run performs op with values: gate, build, send, filter.
func (c *Client) Run(ctx context.Context, op query.Operation, values query.Values) map[string]any {
	log := logging.Logger().With().Str("operation", op.Name).Logger()

	if !c.Enabled() {
		requestsTotal.WithLabelValues(op.Name, OutcomeDisabled).Inc()
		log.Debug().Msg("telemetry disabled, skipping")
		return Disabled()
	}

	req := c.Build(op, values)
	log.Debug().Str("query", req).Msg("sending request")

	status, payload, err := c.transport.Do(ctx, c.cfg.Endpoint, req)
	if err != nil {
		transportErrorsTotal.WithLabelValues(op.Name).Inc()
		log.Warn().Err(err).Msg("request failed")
		payload = err.Error()
	}

	res, ok := query.Result(payload, op.Name, op.Fallback)
	outcome := OutcomeFallback
	if ok {
		outcome = OutcomeSuccess
	}
	requestsTotal.WithLabelValues(op.Name, outcome).Inc()
	log.Debug().Int("status", status).Str("outcome", outcome).Msg("request finished")
	return res
}

// withRequired layers the positional arguments of an operation over extra.
func withRequired(extra query.Values, kv ...string) query.Values {
	req := make(query.Values, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		req[kv[i]] = kv[i+1]
	}
	return query.Merge(extra, req)
}

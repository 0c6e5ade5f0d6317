// Package stackdriver reports application errors to the Google Cloud Error
// Reporting events:report API.
//
// Reporting is best effort. Report and ReportMessage never fail and never wait
// for the network: each call builds a payload and hands it to a detached
// goroutine. Delivery failures are only written to the reporter's logger.
package stackdriver

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/sthembisoo/stackdriver-reporter/stackdriver/types"
)

const (
	baseAPIURL       = "https://clouderrorreporting.googleapis.com/v1beta1/projects/"
	defaultService   = "web"
	stackSeparator   = ". Stacktrace: "
	redactedQueryVal = "xxx"
)

// Config holds the settings of a Reporter. APIKey and ProjectID are required.
type Config struct {
	APIKey    string
	ProjectID string
	// Service defaults to "web"
	Service string
	Version string
	// TargetURL replaces the default events:report endpoint when set
	TargetURL string
	// Context seeds the error context sent with every event
	Context *types.ErrorContext
}

type Option func(*Reporter)

// WithLogger sets where delivery failures are logged. The default is the
// global zerolog logger at the time New is called.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Reporter) {
		r.logger = logger
	}
}

type Reporter struct {
	apiKey         string
	projectID      string
	targetURL      string
	serviceContext types.ServiceContext
	transport      Transport
	logger         zerolog.Logger

	mu      sync.RWMutex
	context types.ErrorContext

	inflight sync.WaitGroup
}

func New(cfg Config, transport Transport, opts ...Option) (*Reporter, error) {
	if cfg.APIKey == "" {
		return nil, errors.WithStack(&ConfigurationError{Field: "apiKey", Reason: "no API key or target url provided"})
	}
	if cfg.ProjectID == "" {
		return nil, errors.WithStack(&ConfigurationError{Field: "projectId", Reason: "no project ID or target url provided"})
	}
	if transport == nil {
		return nil, errors.WithStack(&ConfigurationError{Field: "transport", Reason: "no transport provided"})
	}

	r := &Reporter{
		apiKey:    cfg.APIKey,
		projectID: cfg.ProjectID,
		targetURL: cfg.TargetURL,
		serviceContext: types.ServiceContext{
			Service: lo.CoalesceOrEmpty(cfg.Service, defaultService),
			Version: cfg.Version,
		},
		transport: transport,
		logger:    log.Logger,
	}
	if cfg.Context != nil {
		r.context = *cfg.Context
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// SetUser changes the user attached to subsequent reports.
func (r *Reporter) SetUser(user string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.context.User = user
}

func (r *Reporter) User() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.context.User
}

// Report sends err to the error reporting API. A nil error is ignored. When
// no error in err's chain carries a stack trace, the stack of the caller is
// attached.
func (r *Reporter) Report(err error) {
	if err == nil {
		return
	}
	if StackTrace(err) == "" {
		err = errors.WithStack(err)
	}
	r.report(err)
}

// ReportMessage reports msg as an error whose stack trace starts at the
// caller. An empty message is ignored.
func (r *Reporter) ReportMessage(msg string) {
	if msg == "" {
		return
	}
	r.report(errors.New(msg))
}

func (r *Reporter) report(err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().Str("method", "Report").Interface("panic", rec).Msg("Error when sending error report")
		}
	}()

	payload := &types.ReportedErrorEvent{
		ServiceContext: r.serviceContext,
		Context:        r.currentContext(),
		Message:        err.Error() + stackSeparator + StackTrace(err),
	}
	r.SendErrorPayload(payload)
}

func (r *Reporter) currentContext() types.ErrorContext {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.context
}

// URL returns the endpoint error events are posted to.
func (r *Reporter) URL() string {
	if r.targetURL != "" {
		return r.targetURL
	}
	return baseAPIURL + url.PathEscape(r.projectID) + "/events:report?key=" + url.QueryEscape(r.apiKey)
}

// SendErrorPayload posts payload on a new goroutine and returns immediately.
// The outcome is never reported back; failures are logged.
func (r *Reporter) SendErrorPayload(payload *types.ReportedErrorEvent) {
	endpoint := r.URL()
	headers := map[string]string{"Content-Type": "application/json"}

	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error().Str("method", "SendErrorPayload").Str("url", redactURL(endpoint)).Interface("panic", rec).Msg("Error when sending error report")
			}
		}()

		r.logger.Debug().Str("method", "SendErrorPayload").Str("url", redactURL(endpoint)).Msg("Sending error report")
		if err := r.transport.Post(context.Background(), endpoint, payload, headers); err != nil {
			r.logger.Error().Err(err).Str("method", "SendErrorPayload").Str("url", redactURL(endpoint)).Msg("Error when sending error report")
		}
	}()
}

// Flush waits up to timeout for reports that are still being sent and
// reports whether all of them finished. Reports started after Flush is
// called may not be waited for.
func (r *Reporter) Flush(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		r.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// redactURL hides the API key so endpoints can be logged.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	query := u.Query()
	if query.Has("key") {
		query.Set("key", redactedQueryVal)
		u.RawQuery = query.Encode()
	}
	return u.String()
}

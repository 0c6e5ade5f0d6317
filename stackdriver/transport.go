package stackdriver

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// Transport posts a JSON body to url. Implementations own connection
// handling, TLS and timeouts.
type Transport interface {
	Post(ctx context.Context, url string, body any, headers map[string]string) error
}

// TransportFunc adapts a function to Transport
type TransportFunc func(ctx context.Context, url string, body any, headers map[string]string) error

func (f TransportFunc) Post(ctx context.Context, url string, body any, headers map[string]string) error {
	return f(ctx, url, body, headers)
}

// RestyTransport sends error reports with a resty client
type RestyTransport struct {
	client *resty.Client
}

func NewRestyTransport(client *resty.Client) *RestyTransport {
	if client == nil {
		client = resty.New()
	}
	return &RestyTransport{client: client}
}

// NewDefaultTransport returns a RestyTransport whose requests give up after timeout
func NewDefaultTransport(timeout time.Duration) *RestyTransport {
	return NewRestyTransport(resty.New().SetTimeout(timeout))
}

func (t *RestyTransport) Post(ctx context.Context, url string, body any, headers map[string]string) error {
	response, err := t.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(body).
		Post(url)
	if err != nil {
		return errors.Wrap(err, "failed to post error report")
	}

	if !response.IsSuccess() {
		return errors.Errorf("error reporting API returned status %d: %s", response.StatusCode(), string(response.Body()))
	}

	return nil
}

package stackdriver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sthembisoo/stackdriver-reporter/stackdriver/types"
)

type receivedRequest struct {
	method      string
	contentType string
	query       string
	body        []byte
}

func newReportServer(t *testing.T, status int) (*httptest.Server, chan receivedRequest) {
	t.Helper()
	received := make(chan receivedRequest, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- receivedRequest{
			method:      r.Method,
			contentType: r.Header.Get("Content-Type"),
			query:       r.URL.RawQuery,
			body:        body,
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte("{}"))
	}))
	t.Cleanup(server.Close)
	return server, received
}

func TestRestyTransport_Post(t *testing.T) {
	server, received := newReportServer(t, http.StatusOK)
	transport := NewDefaultTransport(5 * time.Second)
	payload := &types.ReportedErrorEvent{
		ServiceContext: types.ServiceContext{Service: "web"},
		Message:        "boom",
		Context:        types.ErrorContext{User: "alice"},
	}

	err := transport.Post(context.Background(), server.URL+"/report?key=abc", payload, map[string]string{"Content-Type": "application/json"})

	require.NoError(t, err)
	request := <-received
	assert.Equal(t, http.MethodPost, request.method)
	assert.Equal(t, "application/json", request.contentType)
	assert.Equal(t, "key=abc", request.query)
	assert.JSONEq(t, `{"serviceContext":{"service":"web"},"message":"boom","context":{"user":"alice"}}`, string(request.body))
}

func TestRestyTransport_ErrorStatus(t *testing.T) {
	server, _ := newReportServer(t, http.StatusForbidden)
	transport := NewRestyTransport(nil)

	err := transport.Post(context.Background(), server.URL, &types.ReportedErrorEvent{}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestRestyTransport_ConnectionFailure(t *testing.T) {
	server, _ := newReportServer(t, http.StatusOK)
	server.Close()
	transport := NewDefaultTransport(time.Second)

	err := transport.Post(context.Background(), server.URL, &types.ReportedErrorEvent{}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to post error report")
}

func TestReporter_SendsThroughResty(t *testing.T) {
	server, received := newReportServer(t, http.StatusOK)
	cfg := testConfig()
	cfg.TargetURL = server.URL + "/v1beta1/projects/test-project/events:report"
	reporter, logs := newTestReporter(t, cfg, NewDefaultTransport(5*time.Second))

	reporter.SetUser("alice")
	reporter.ReportMessage("boom")
	require.True(t, reporter.Flush(5*time.Second))

	request := <-received
	var event types.ReportedErrorEvent
	require.NoError(t, json.Unmarshal(request.body, &event))
	assert.Equal(t, "alice", event.Context.User)
	assert.Equal(t, types.ServiceContext{Service: "web", Version: "1.2.3"}, event.ServiceContext)
	assert.Contains(t, event.Message, "boom. Stacktrace: ")
	assert.NotContains(t, logs.String(), "Error when sending error report")
}

package idcloudhost

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

// fakeAPI implements Doer against canned responses and records every
// call so tests can assert on the exact request sequence.
type fakeAPI struct {
	t        *testing.T
	calls    []recordedCall
	handlers map[string]func(call recordedCall) (int, string)
}

type recordedCall struct {
	Method string
	Path   string
	Query  url.Values
	Form   url.Values
	Body   string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	return &fakeAPI{
		t:        t,
		handlers: map[string]func(recordedCall) (int, string){},
	}
}

func (f *fakeAPI) handle(key string, fn func(recordedCall) (int, string)) {
	f.handlers[key] = fn
}

// respond registers a fixed status/body for "METHOD path".
func (f *fakeAPI) respond(key string, status int, body string) {
	f.handle(key, func(recordedCall) (int, string) { return status, body })
}

func (f *fakeAPI) Do(req *http.Request) (*http.Response, error) {
	path := strings.TrimPrefix(req.URL.Path, "/v1/jkt01/")

	call := recordedCall{
		Method: req.Method,
		Path:   path,
		Query:  req.URL.Query(),
	}
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		call.Body = string(b)
		if strings.HasPrefix(req.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			form, _ := url.ParseQuery(call.Body)
			call.Form = form
		}
	}
	f.calls = append(f.calls, call)

	fn, ok := f.handlers[req.Method+" "+path]
	if !ok {
		f.t.Logf("fakeAPI: no handler for %s %s", req.Method, path)
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(strings.NewReader(`{"error":"no handler"}`)),
			Header:     http.Header{},
		}, nil
	}

	status, body := fn(call)
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}, nil
}

// mutating returns "METHOD path" for every non-GET call, in order.
func (f *fakeAPI) mutating() []string {
	var out []string
	for _, call := range f.calls {
		if call.Method != http.MethodGet {
			out = append(out, call.Method+" "+call.Path)
		}
	}
	return out
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL:    "https://api.test/v1",
		APIKey:     "test-key",
		Location:   "jkt01",
		HTTPClient: api,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func networkBody(uuid, name, subnet string, isDefault bool) string {
	return fmt.Sprintf(`{"uuid":%q,"name":%q,"subnet":%q,"is_default":%t}`, uuid, name, subnet, isDefault)
}

func ipBody(uuid, name, address, assignedTo, assignedToPrivateIP string) string {
	return fmt.Sprintf(`{"uuid":%q,"name":%q,"address":%q,"assigned_to":%q,"assigned_to_private_ip":%q,"enabled":true}`,
		uuid, name, address, assignedTo, assignedToPrivateIP)
}

func vmBody(uuid, name, status string, vcpu, ram int, storage string) string {
	return fmt.Sprintf(`{"uuid":%q,"name":%q,"hostname":%q,"vcpu":%d,"memory":%d,"private_ipv4":"10.0.0.5","billing_account":1200,"status":%q,"storage":[%s]}`,
		uuid, name, name, vcpu, ram, status, storage)
}

func storageBody(uuid, name string, size int, primary bool) string {
	return fmt.Sprintf(`{"uuid":%q,"name":%q,"size":%d,"primary":%t}`, uuid, name, size, primary)
}

func list(items ...string) string {
	return "[" + strings.Join(items, ",") + "]"
}

package mockapi

import (
	"net/http"
	"net/http/httptest"
)

// Transport answers requests by serving them against Handler in the
// calling goroutine. No listener or socket is involved.
type Transport struct {
	Handler http.Handler
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		defer req.Body.Close()
	}
	if err := req.Context().Err(); err != nil {
		return nil, err
	}

	in := req.Clone(req.Context())
	if in.Body == nil {
		in.Body = http.NoBody
	}
	in.RequestURI = req.URL.RequestURI()
	if in.RemoteAddr == "" {
		in.RemoteAddr = "127.0.0.1:0"
	}

	rec := httptest.NewRecorder()
	t.Handler.ServeHTTP(rec, in)

	// Latency middleware returns without writing when the caller gives up.
	if err := req.Context().Err(); err != nil {
		return nil, err
	}

	resp := rec.Result()
	resp.Request = req
	return resp, nil
}

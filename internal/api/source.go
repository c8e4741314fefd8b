package api

// Source yields the current API client. The app rebuilds the client when the
// user saves new connection settings, so long-lived services resolve it
// through a Source instead of holding a stale pointer.
type Source interface {
	Client() *Client
}

// StaticSource wraps a fixed client, mainly for tests.
type StaticSource struct {
	C *Client
}

func (s StaticSource) Client() *Client {
	return s.C
}

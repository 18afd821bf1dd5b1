package etcd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeDiscoverer struct {
	addrs []string
	err   error
}

func (f fakeDiscoverer) Discover(context.Context, string) ([]string, error) {
	return f.addrs, f.err
}

func TestKey(t *testing.T) {
	assert.Equal(t, "/services/eda-api/http://10.0.0.1:8000", Key(APIServiceName, "http://10.0.0.1:8000"))
}

func TestResolveURL(t *testing.T) {
	ctx := context.Background()
	fallback := "http://127.0.0.1:8000"

	assert.Equal(t, fallback, ResolveURL(ctx, nil, APIServiceName, fallback))
	assert.Equal(t, fallback, ResolveURL(ctx, fakeDiscoverer{}, APIServiceName, fallback))
	assert.Equal(t, fallback, ResolveURL(ctx, fakeDiscoverer{err: errors.New("down")}, APIServiceName, fallback))
	assert.Equal(t, "http://a:8000", ResolveURL(ctx, fakeDiscoverer{addrs: []string{"http://a:8000", "http://b:8000"}}, APIServiceName, fallback))
}

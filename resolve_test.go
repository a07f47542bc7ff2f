package teer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolvePrecedence(t *testing.T) {
	library := RequestConfig{Timeout: Duration(10 * time.Second)}
	client := RequestConfig{Timeout: Duration(8 * time.Second)}

	eff := Resolve(library, client, RequestConfig{Timeout: Duration(3 * time.Second)})
	assert.Equal(t, 3*time.Second, eff.Timeout)

	eff = Resolve(library, client, RequestConfig{})
	assert.Equal(t, 8*time.Second, eff.Timeout)

	eff = Resolve(library, RequestConfig{}, RequestConfig{})
	assert.Equal(t, 10*time.Second, eff.Timeout)
}

func TestResolvePerField(t *testing.T) {
	library := LibraryDefaults()
	client := RequestConfig{
		BaseURL:    String("https://client.test"),
		MaxRetries: Int(5),
	}
	call := RequestConfig{
		RetryDelay: Duration(time.Second),
	}

	eff := Resolve(library, client, call)

	assert.Equal(t, "https://client.test", eff.BaseURL)
	assert.Equal(t, DefaultTimeout, eff.Timeout)
	assert.Equal(t, 5, eff.MaxRetries)
	assert.Equal(t, time.Second, eff.RetryDelay)
	assert.Equal(t, defaultTransport, eff.Transport)
}

func TestResolveExplicitZeroIsAnOverride(t *testing.T) {
	eff := Resolve(LibraryDefaults(), RequestConfig{MaxRetries: Int(2)}, RequestConfig{
		MaxRetries: Int(0),
		RetryDelay: Duration(0),
		BaseURL:    String(""),
	})

	assert.Equal(t, 0, eff.MaxRetries)
	assert.Equal(t, time.Duration(0), eff.RetryDelay)
	assert.Equal(t, "", eff.BaseURL)
}

func TestResolveEmptyLayersUsePackageDefaults(t *testing.T) {
	eff := Resolve(RequestConfig{}, RequestConfig{}, RequestConfig{})

	assert.Equal(t, DefaultBaseURL, eff.BaseURL)
	assert.Equal(t, DefaultTimeout, eff.Timeout)
	assert.Equal(t, DefaultMaxRetries, eff.MaxRetries)
	assert.Equal(t, DefaultRetryDelay, eff.RetryDelay)
	assert.NotNil(t, eff.Transport)
}

func TestResolveTransportPrecedence(t *testing.T) {
	clientTr := TransportFunc(func(context.Context, string, *TransportRequest) (*TransportResponse, error) {
		return nil, nil
	})
	callTr := script(jsonResponse(200, `{}`))

	eff := Resolve(LibraryDefaults(), RequestConfig{Transport: clientTr}, RequestConfig{Transport: callTr})
	assert.Same(t, callTr, eff.Transport)

	eff = Resolve(LibraryDefaults(), RequestConfig{Transport: callTr}, RequestConfig{})
	assert.Same(t, callTr, eff.Transport)
}

func TestResolveClampsNegativeRetries(t *testing.T) {
	eff := Resolve(LibraryDefaults(), RequestConfig{}, RequestConfig{MaxRetries: Int(-3)})
	assert.Equal(t, 0, eff.MaxRetries)
}

func TestResolveDoesNotAliasLayers(t *testing.T) {
	call := RequestConfig{Timeout: Duration(time.Second)}
	eff := Resolve(LibraryDefaults(), RequestConfig{}, call)

	*call.Timeout = time.Minute
	assert.Equal(t, time.Second, eff.Timeout)
}

func TestMerge(t *testing.T) {
	base := RequestConfig{
		BaseURL:    String("https://base.test"),
		Timeout:    Duration(time.Second),
		MaxRetries: Int(1),
	}
	top := RequestConfig{
		Timeout:    Duration(2 * time.Second),
		RetryDelay: Duration(time.Millisecond),
	}

	merged := Merge(base, top)

	assert.Equal(t, "https://base.test", *merged.BaseURL)
	assert.Equal(t, 2*time.Second, *merged.Timeout)
	assert.Equal(t, 1, *merged.MaxRetries)
	assert.Equal(t, time.Millisecond, *merged.RetryDelay)

	// Inputs are untouched.
	assert.Equal(t, time.Second, *base.Timeout)
	assert.Nil(t, base.RetryDelay)
}

func TestRequestConfigClone(t *testing.T) {
	orig := RequestConfig{
		BaseURL:    String("https://a.test"),
		Timeout:    Duration(time.Second),
		MaxRetries: Int(2),
		RetryDelay: Duration(time.Millisecond),
	}
	cp := orig.clone()

	*cp.BaseURL = "https://b.test"
	*cp.Timeout = time.Hour
	*cp.MaxRetries = 9
	*cp.RetryDelay = time.Hour

	assert.Equal(t, "https://a.test", *orig.BaseURL)
	assert.Equal(t, time.Second, *orig.Timeout)
	assert.Equal(t, 2, *orig.MaxRetries)
	assert.Equal(t, time.Millisecond, *orig.RetryDelay)
}

package teer

// LibraryDefaults returns the lowest-precedence configuration layer.
func LibraryDefaults() RequestConfig {
	return RequestConfig{
		BaseURL:    String(DefaultBaseURL),
		Timeout:    Duration(DefaultTimeout),
		MaxRetries: Int(DefaultMaxRetries),
		RetryDelay: Duration(DefaultRetryDelay),
		Transport:  defaultTransport,
	}
}

// Resolve overlays the call layer onto the client layer onto the library layer.
// For every field the first non-nil value wins; an explicit zero is an override.
// Fields missing from all three layers take the package defaults.
func Resolve(library, client, call RequestConfig) EffectiveConfig {
	eff := EffectiveConfig{
		BaseURL:    DefaultBaseURL,
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
	}

	if v := firstSet(call.BaseURL, client.BaseURL, library.BaseURL); v != nil {
		eff.BaseURL = *v
	}
	if v := firstSet(call.Timeout, client.Timeout, library.Timeout); v != nil {
		eff.Timeout = *v
	}
	if v := firstSet(call.MaxRetries, client.MaxRetries, library.MaxRetries); v != nil {
		eff.MaxRetries = *v
	}
	if v := firstSet(call.RetryDelay, client.RetryDelay, library.RetryDelay); v != nil {
		eff.RetryDelay = *v
	}

	switch {
	case call.Transport != nil:
		eff.Transport = call.Transport
	case client.Transport != nil:
		eff.Transport = client.Transport
	case library.Transport != nil:
		eff.Transport = library.Transport
	default:
		eff.Transport = defaultTransport
	}

	if eff.MaxRetries < 0 {
		eff.MaxRetries = 0
	}
	return eff
}

// Merge overlays the non-nil fields of top onto base and returns the result.
// Neither argument is modified.
func Merge(base, top RequestConfig) RequestConfig {
	out := base
	if top.BaseURL != nil {
		out.BaseURL = top.BaseURL
	}
	if top.Timeout != nil {
		out.Timeout = top.Timeout
	}
	if top.MaxRetries != nil {
		out.MaxRetries = top.MaxRetries
	}
	if top.RetryDelay != nil {
		out.RetryDelay = top.RetryDelay
	}
	if top.Transport != nil {
		out.Transport = top.Transport
	}
	return out
}

func firstSet[T any](layers ...*T) *T {
	for _, v := range layers {
		if v != nil {
			return v
		}
	}
	return nil
}

// clone copies the pointed-to values so callers cannot mutate a stored layer.
func (rc RequestConfig) clone() RequestConfig {
	out := RequestConfig{Transport: rc.Transport}
	if rc.BaseURL != nil {
		out.BaseURL = String(*rc.BaseURL)
	}
	if rc.Timeout != nil {
		out.Timeout = Duration(*rc.Timeout)
	}
	if rc.MaxRetries != nil {
		out.MaxRetries = Int(*rc.MaxRetries)
	}
	if rc.RetryDelay != nil {
		out.RetryDelay = Duration(*rc.RetryDelay)
	}
	return out
}

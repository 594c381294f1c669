package provider

import (
	"net/url"
)

// CallbackParams is the flattened key/value mapping delivered to a callback,
// assembled from a URL's query and fragment components. Providers do not
// emit the same key in both places in practice, so collision order between
// the two sources is not guaranteed.
type CallbackParams map[string]string

// Get returns the value for key, or "" when absent.
func (p CallbackParams) Get(key string) string {
	return p[key]
}

// Has reports whether key is present.
func (p CallbackParams) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// ParamsFromValues flattens url.Values into CallbackParams, keeping the
// first value for repeated keys.
func ParamsFromValues(values url.Values) CallbackParams {
	params := make(CallbackParams, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			params[key] = vals[0]
		}
	}
	return params
}

// ParseCallbackURL assembles CallbackParams from a full callback URL,
// merging the query component with the fragment component. Fragment entries
// are applied after query entries.
func ParseCallbackURL(raw string) (CallbackParams, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}

	params := ParamsFromValues(u.Query())

	if u.Fragment != "" {
		fragValues, err := url.ParseQuery(u.Fragment)
		if err == nil {
			for key, vals := range fragValues {
				if len(vals) > 0 {
					params[key] = vals[0]
				}
			}
		}
	}

	return params, nil
}

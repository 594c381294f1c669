// Package deeplink builds the scheme-qualified URLs used to hand control
// back to the native shell. The shell parses these itself; no decode side is
// needed here.
package deeplink

import (
	"fmt"
	"net/url"
	"strings"
)

// Build assembles a deeplink of the form {scheme}://oauth/{path}?{params}.
// A single leading slash on path is stripped; params are query-encoded with
// sorted keys. The function is total: every input produces a well-formed URL.
func Build(path string, params map[string]string, scheme string) string {
	path = strings.TrimPrefix(path, "/")

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}

	return fmt.Sprintf("%s://oauth/%s?%s", scheme, path, values.Encode())
}

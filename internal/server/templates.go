package server

import (
	_ "embed"
	"html/template"
)

//go:embed templates/callback.html
var callbackPageHTML string

var callbackPageTemplate = template.Must(template.New("callback").Parse(callbackPageHTML))

// CallbackPageData feeds the callback landing page. The page also carries
// the fragment-forwarding script: fragment parameters never reach the
// server, so the first render folds location.hash into the query string and
// re-navigates once.
type CallbackPageData struct {
	SignedIn bool
	Email    string
	Error    string
}

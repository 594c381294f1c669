package demoidp

import (
	_ "embed"
	"html/template"
)

//go:embed templates/authorize.html
var authorizePageHTML string

var authorizePageTemplate = template.Must(template.New("authorize").Parse(authorizePageHTML))

// AuthorizePageData feeds the consent form
type AuthorizePageData struct {
	ClientID  string
	RequestID string
	Scope     string
	Email     string
	Name      string
}

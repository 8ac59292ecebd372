package subscription

import (
	"embed"
	"fmt"
	"sync"

	"github.com/osteele/liquid"
)

//go:embed templates/*.liquid
var templateFS embed.FS

// TemplateName identifies one of the embedded email bodies.
type TemplateName string

const (
	// TemplateInternalAlert is the body of the team notification.
	TemplateInternalAlert TemplateName = "internal_alert"
	// TemplateConfirmation is the body sent to the subscriber.
	TemplateConfirmation TemplateName = "confirmation"
)

// TemplateNames lists every embedded template.
var TemplateNames = []TemplateName{TemplateInternalAlert, TemplateConfirmation} //nolint: gochecknoglobals

// Vars are the values interpolated into the email bodies. Values that come
// from the request are escaped by the templates themselves.
type Vars struct {
	Email        string
	Source       string
	SubmittedAt  string
	ContactEmail string
}

func (v Vars) bindings() liquid.Bindings {
	return liquid.Bindings{
		"email":         v.Email,
		"source":        v.Source,
		"submitted_at":  v.SubmittedAt,
		"contact_email": v.ContactEmail,
	}
}

// Templates holds the parsed Liquid templates. It is safe for concurrent use.
type Templates struct {
	parsed map[TemplateName]*liquid.Template
}

// ParseTemplates parses every embedded template.
func ParseTemplates() (*Templates, error) {
	engine := liquid.NewEngine()
	t := &Templates{parsed: make(map[TemplateName]*liquid.Template, len(TemplateNames))}
	for _, name := range TemplateNames {
		src, err := templateFS.ReadFile("templates/" + string(name) + ".liquid")
		if err != nil {
			return nil, fmt.Errorf("could not read template %s: %w", name, err)
		}
		tpl, perr := engine.ParseTemplate(src)
		if perr != nil {
			return nil, fmt.Errorf("could not parse template %s: %w", name, perr)
		}
		t.parsed[name] = tpl
	}

	return t, nil
}

// DefaultTemplates parses the embedded templates once per process.
var DefaultTemplates = sync.OnceValues(ParseTemplates) //nolint: gochecknoglobals

// Render executes the named template with vars.
func (t *Templates) Render(name TemplateName, vars Vars) (string, error) {
	tpl, ok := t.parsed[name]
	if !ok {
		return "", fmt.Errorf("unknown template %q", name)
	}
	out, err := tpl.RenderString(vars.bindings())
	if err != nil {
		return "", fmt.Errorf("could not render template %s: %w", name, err)
	}

	return out, nil
}

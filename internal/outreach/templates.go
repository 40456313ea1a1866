// Package outreach renders per-channel message templates for qualified leads.
package outreach

import (
	"bytes"
	"os"
	"text/template"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/palmgate/leadgen-cli/internal/model"
)

// Defaults used when no template file is configured or a channel has no
// entry. Kept deliberately neutral; agencies override them per market.
const (
	defaultWhatsApp = "Hi {{.Name}}! We found {{.PropertyType}} options in {{.Area}} matching your budget. Reply to connect with an agent."
	defaultEmail    = "Dear {{.Name}},\n\nThank you for your interest in {{.Area}}. Based on your budget of AED {{.Budget}}, we have shortlisted several {{.PropertyType}} listings for you.\n\nBest regards,\nThe Palmgate Team"
	defaultWebhook  = "New qualified lead: {{.Name}} ({{.Area}}, {{.PropertyType}}, AED {{.Budget}})"
)

// templateFile is the on-disk YAML shape.
type templateFile struct {
	WhatsApp string `yaml:"whatsapp"`
	Email    string `yaml:"email"`
	Webhook  string `yaml:"webhook"`
}

// leadData is what templates can reference. Missing attributes render as
// "there"/"your area" style fallbacks so messages never contain blanks.
type leadData struct {
	Name         string
	Area         string
	PropertyType string
	Budget       string
	Bedrooms     string
}

// Set holds parsed templates keyed by channel name.
type Set struct {
	templates map[string]*template.Template
}

// Load reads templates from a YAML file. A missing file is not an error;
// built-in defaults are used for any channel without an entry.
func Load(path string) (*Set, error) {
	texts := map[string]string{
		"whatsapp": defaultWhatsApp,
		"email":    defaultEmail,
		"webhook":  defaultWebhook,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to defaults
		case err != nil:
			return nil, eris.Wrap(err, "outreach: read templates")
		default:
			var file templateFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return nil, eris.Wrap(err, "outreach: parse templates")
			}
			if file.WhatsApp != "" {
				texts["whatsapp"] = file.WhatsApp
			}
			if file.Email != "" {
				texts["email"] = file.Email
			}
			if file.Webhook != "" {
				texts["webhook"] = file.Webhook
			}
		}
	}

	set := &Set{templates: make(map[string]*template.Template, len(texts))}
	for channel, text := range texts {
		tmpl, err := template.New(channel).Parse(text)
		if err != nil {
			return nil, eris.Wrapf(err, "outreach: parse %s template", channel)
		}
		set.templates[channel] = tmpl
	}
	return set, nil
}

// Render produces the outreach message for one channel and lead.
func (s *Set) Render(channel string, lead model.Lead) (string, error) {
	tmpl, ok := s.templates[channel]
	if !ok {
		return "", eris.Errorf("outreach: no template for channel %q", channel)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, dataFor(lead)); err != nil {
		return "", eris.Wrapf(err, "outreach: render %s", channel)
	}
	return buf.String(), nil
}

func dataFor(lead model.Lead) leadData {
	d := leadData{
		Name:         lead.Attr(model.AttrName),
		Area:         lead.Attr(model.AttrArea),
		PropertyType: lead.Attr(model.AttrPropertyType),
		Budget:       lead.Attr(model.AttrBudget),
		Bedrooms:     lead.Attr(model.AttrBedrooms),
	}
	if d.Name == "" {
		d.Name = "there"
	}
	if d.Area == "" {
		d.Area = "Dubai"
	}
	if d.PropertyType == "" {
		d.PropertyType = "property"
	}
	if d.Budget == "" {
		d.Budget = "your budget"
	}
	return d
}

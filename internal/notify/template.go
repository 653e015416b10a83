package notify

import (
	"sort"
	"sync"
)

// TemplateField is one field slot of a template. Name and Value may both
// contain {placeholder} tokens.
type TemplateField struct {
	Name   string
	Value  string
	Inline bool
}

// Template is the named schema controlling a notification's shape.
// Immutable once registered; re-registering a name replaces it.
type Template struct {
	Name   string
	Title  string
	Color  int
	Fields []TemplateField
	Footer string
}

// Registry holds templates by name. Placeholder syntax is not validated
// at registration time; malformed tokens simply fail to substitute and
// stay literal in the rendered output.
type Registry struct {
	mu   sync.RWMutex
	tpls map[string]Template
}

func NewRegistry() *Registry {
	return &Registry{tpls: map[string]Template{}}
}

func (r *Registry) Register(name string, tpl Template) {
	if name == "" {
		return
	}
	tpl.Name = name
	r.mu.Lock()
	r.tpls[name] = tpl
	r.mu.Unlock()
}

func (r *Registry) Get(name string) (Template, bool) {
	r.mu.RLock()
	tpl, ok := r.tpls[name]
	r.mu.RUnlock()
	return tpl, ok
}

func (r *Registry) List() []Template {
	r.mu.RLock()
	out := make([]Template, 0, len(r.tpls))
	for _, t := range r.tpls {
		out = append(out, t)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Well-known business event types with built-in templates.
const (
	TypeMaintenance = "maintenance"
	TypeFeature     = "feature"
	TypeSecurity    = "security"
	TypeVersion     = "version"
	TypeEvent       = "event"
	TypePromotion   = "promotion"
)

func registerBuiltins(r *Registry) {
	r.Register(TypeMaintenance, Template{
		Title: "🔧 Scheduled Maintenance",
		Color: 0xE67E22,
		Fields: []TemplateField{
			{Name: "Start", Value: "{startTime}", Inline: true},
			{Name: "End", Value: "{endTime}", Inline: true},
			{Name: "Reason", Value: "{reason}"},
			{Name: "Impact", Value: "{impact}"},
		},
		Footer: "Thanks for your patience",
	})
	r.Register(TypeFeature, Template{
		Title: "✨ New Feature: {name}",
		Color: 0x2ECC71,
		Fields: []TemplateField{
			{Name: "Description", Value: "{description}"},
			{Name: "Version", Value: "{version}", Inline: true},
		},
	})
	r.Register(TypeSecurity, Template{
		Title: "🛡️ Security Alert",
		Color: 0xE74C3C,
		Fields: []TemplateField{
			{Name: "Severity", Value: "{severity}", Inline: true},
			{Name: "Details", Value: "{description}"},
			{Name: "Required Action", Value: "{action}"},
		},
		Footer: "Please act promptly",
	})
	r.Register(TypeVersion, Template{
		Title: "🚀 Version {version} released",
		Color: 0x3498DB,
		Fields: []TemplateField{
			{Name: "Changelog", Value: "{changelog}"},
		},
	})
	r.Register(TypeEvent, Template{
		Title: "🎉 {name}",
		Color: 0x9B59B6,
		Fields: []TemplateField{
			{Name: "Starts", Value: "{startTime}", Inline: true},
			{Name: "Details", Value: "{description}"},
			{Name: "Reward", Value: "{reward}"},
		},
	})
	r.Register(TypePromotion, Template{
		Title: "🏷️ {title}",
		Color: 0xF1C40F,
		Fields: []TemplateField{
			{Name: "Discount", Value: "{discount}", Inline: true},
			{Name: "Valid Until", Value: "{validUntil}", Inline: true},
			{Name: "Details", Value: "{description}"},
		},
	})
}

package notification

import (
	"fmt"
	"strings"
	"sync"
	"text/template"
)

// TemplateData is what subject and body templates are executed against.
type TemplateData struct {
	Name string
	Event
}

type messageTemplate struct {
	subject *template.Template
	body    *template.Template
}

// TemplateStore compiles and renders the subject and body for each event kind.
type TemplateStore struct {
	mu        sync.RWMutex
	templates map[Kind]messageTemplate
}

// NewTemplateStore seeds the store with the default templates.
func NewTemplateStore() *TemplateStore {
	s := &TemplateStore{templates: make(map[Kind]messageTemplate)}
	for kind, t := range defaultTemplates {
		if err := s.Register(kind, t[0], t[1]); err != nil {
			panic(err)
		}
	}
	return s
}

var defaultTemplates = map[Kind][2]string{
	KindTaskPublished: {
		"New task available: {{.TaskTitle}}",
		"Hi {{.Name}},\n\nA new task \"{{.TaskTitle}}\" with a budget of {{.Amount.StringFixed 2}} is open for bids.",
	},
	KindTaskAssigned: {
		"Task assigned: {{.TaskTitle}}",
		"Hi {{.Name}},\n\n\"{{.TaskTitle}}\" has been assigned for {{.Amount.StringFixed 2}}.",
	},
	KindBidPlaced: {
		"New bid on {{.TaskTitle}}",
		"Hi {{.Name}},\n\nA writer bid {{.Amount.StringFixed 2}} on \"{{.TaskTitle}}\".",
	},
	KindBidApproved: {
		"Your bid was approved: {{.TaskTitle}}",
		"Hi {{.Name}},\n\nYour bid of {{.Amount.StringFixed 2}} on \"{{.TaskTitle}}\" was approved. The task is now assigned to you.",
	},
	KindBidRejected: {
		"Update on your bid: {{.TaskTitle}}",
		"Hi {{.Name}},\n\nYour bid on \"{{.TaskTitle}}\" was not selected.",
	},
	KindSubmissionReceived: {
		"New submission for {{.TaskTitle}}",
		"Hi {{.Name}},\n\nWork has been submitted for \"{{.TaskTitle}}\" and is waiting for review.",
	},
	KindSubmissionApproved: {
		"Submission approved: {{.TaskTitle}}",
		"Hi {{.Name}},\n\nYour submission for \"{{.TaskTitle}}\" was approved and {{.Amount.StringFixed 2}} was added to your wallet.",
	},
	KindSubmissionRejected: {
		"Revision requested: {{.TaskTitle}}",
		"Hi {{.Name}},\n\nYour submission for \"{{.TaskTitle}}\" needs revision. Please submit an updated version.",
	},
}

// Register adds or replaces the templates for kind.
func (s *TemplateStore) Register(kind Kind, subject, body string) error {
	st, err := template.New(string(kind) + ".subject").Parse(subject)
	if err != nil {
		return fmt.Errorf("parse subject template %s: %w", kind, err)
	}
	bt, err := template.New(string(kind) + ".body").Parse(body)
	if err != nil {
		return fmt.Errorf("parse body template %s: %w", kind, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[kind] = messageTemplate{subject: st, body: bt}
	return nil
}

// Render executes the templates for the event's kind.
func (s *TemplateStore) Render(data TemplateData) (subject, body string, err error) {
	s.mu.RLock()
	t, ok := s.templates[data.Kind]
	s.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %s not found", data.Kind)
	}
	var sb, bb strings.Builder
	if err := t.subject.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("render subject %s: %w", data.Kind, err)
	}
	if err := t.body.Execute(&bb, data); err != nil {
		return "", "", fmt.Errorf("render body %s: %w", data.Kind, err)
	}
	return sb.String(), bb.String(), nil
}

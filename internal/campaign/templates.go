package campaign

import (
	"errors"
	"strings"
)

// ErrTemplateNotFound is returned by Render for an unregistered campaign id.
var ErrTemplateNotFound = errors.New("campaign template not found")

// DefaultCampaignID is the campaign used when none is specified.
const DefaultCampaignID = "shorts_generator"

// namePlaceholder is substituted with the recipient name in both subject
// and body.
const namePlaceholder = "{name}"

// Template is one campaign email definition.
type Template struct {
	Subject string
	Body    string
}

var builtinTemplates = map[string]Template{
	"shorts_generator": {
		Subject: "Hi {name} - Transform Your Content Creation with AI",
		Body: `Hi {name},

I hope this email finds you well! I wanted to reach out because I've been working on something that could really help content creators like yourself.

Have you ever wished you could create engaging YouTube Shorts faster? Shorts Auto Generator is an AI-powered tool that helps you:

- Generate short videos in minutes
- Optimize content for maximum engagement
- Create eye-catching thumbnails automatically
- Analyze trends to stay ahead of the curve
- Save hours of editing time

It's designed to keep your unique style while boosting your productivity.

I'd love to show you how it works. Would you be interested in a quick 15-minute Zoom demo?

Looking forward to hearing your thoughts!`,
	},
}

// Registry holds the known campaign templates.
type Registry struct {
	templates map[string]Template
}

// NewRegistry creates a registry preloaded with the built-in campaigns.
func NewRegistry() *Registry {
	templates := make(map[string]Template, len(builtinTemplates))
	for id, t := range builtinTemplates {
		templates[id] = t
	}
	return &Registry{templates: templates}
}

// Register adds or replaces a campaign template.
func (r *Registry) Register(campaignID string, t Template) {
	r.templates[campaignID] = t
}

// Render personalizes the campaign template for one recipient. Fails with
// ErrTemplateNotFound for an unregistered campaign id.
func (r *Registry) Render(campaignID, recipientName string) (subject, body string, err error) {
	t, ok := r.templates[campaignID]
	if !ok {
		return "", "", ErrTemplateNotFound
	}
	subject = strings.ReplaceAll(t.Subject, namePlaceholder, recipientName)
	body = strings.ReplaceAll(t.Body, namePlaceholder, recipientName)
	return subject, body, nil
}

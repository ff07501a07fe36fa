package templates

import (
	"bytes"
	"embed"
	"fmt"
	htmpl "html/template"
	texttpl "text/template"
)

//go:embed *.tmpl
var FS embed.FS

// Template names understood by the email worker.
const (
	Invite = "invite"
)

// Subjects maps template names to mail subjects.
func Subject(name string) string {
	switch name {
	case Invite:
		return "Invitation for registration on Tabbli"
	default:
		return "Notification"
	}
}

// Render produces the text and HTML bodies for a named template.
func Render(name string, data map[string]any) (text, html string, err error) {
	tb, err := FS.ReadFile(name + ".txt.tmpl")
	if err != nil {
		return "", "", fmt.Errorf("read %s.txt.tmpl: %w", name, err)
	}
	tt, err := texttpl.New(name).Parse(string(tb))
	if err != nil {
		return "", "", err
	}
	var tbuf bytes.Buffer
	if err := tt.Execute(&tbuf, data); err != nil {
		return "", "", err
	}

	hb, err := FS.ReadFile(name + ".html.tmpl")
	if err != nil {
		return "", "", fmt.Errorf("read %s.html.tmpl: %w", name, err)
	}
	ht, err := htmpl.New(name).Parse(string(hb))
	if err != nil {
		return "", "", err
	}
	var hbuf bytes.Buffer
	if err := ht.Execute(&hbuf, data); err != nil {
		return "", "", err
	}

	return tbuf.String(), hbuf.String(), nil
}

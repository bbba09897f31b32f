// Package batch renders a job spec into a self-contained sbatch script.
package batch

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	shellquote "github.com/kballard/go-shellquote"

	"trainjob/internal/pkg/jobspec"
)

// ContentType is the media type served for rendered scripts.
const ContentType = "text/x-shellscript; charset=utf-8"

var scriptTmpl = template.Must(template.New("sbatch").Parse(`#!/bin/bash
{{- range .Directives }}
{{ . }}
{{- end }}

set -e

{{- range .Setup }}
{{ . }}
{{- end }}

exec {{ .Command }}
`))

type scriptData struct {
	Directives []jobspec.Directive
	Setup      []string
	Command    string
}

// SetupCommands returns the shell commands that prepare the environment, in
// order: module loads, runtime activation, then one install of all pins.
func SetupCommands(env jobspec.Environment) []string {
	cmds := make([]string, 0, len(env.Modules)+2)
	for _, m := range env.Modules {
		cmds = append(cmds, "module load "+shellquote.Join(m))
	}
	if env.Activate != "" {
		cmds = append(cmds, env.ActivateCommand+" "+shellquote.Join(env.Activate))
	}
	if len(env.Pins) > 0 {
		pins := make([]string, len(env.Pins))
		for i, p := range env.Pins {
			pins[i] = p.String()
		}
		cmds = append(cmds, env.PinCommand+" "+shellquote.Join(pins...))
	}
	return cmds
}

// SetupScript joins the setup commands into a script that stops at the first
// failing command.
func SetupScript(env jobspec.Environment) string {
	return "set -e\n" + strings.Join(SetupCommands(env), "\n") + "\n"
}

// Render returns the batch script for spec. The output only depends on spec.
func Render(spec jobspec.Spec) ([]byte, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	data := scriptData{
		Directives: spec.Resources.Directives(),
		Setup:      SetupCommands(spec.Environment),
		Command:    shellquote.Join(spec.Invocation.Command()...),
	}
	var buf bytes.Buffer
	if err := scriptTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render batch script: %w", err)
	}
	return buf.Bytes(), nil
}

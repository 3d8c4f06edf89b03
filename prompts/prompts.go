package prompts

import (
	"bytes"
	"embed"
	"text/template"
)

//go:embed templates/*
var templatesFS embed.FS

// SymptomAnalysisData carries everything the analysis prompt needs.
// Severity of "" means the patient reported none. Conversation history
// is not part of the prompt body; it travels as chat messages.
type SymptomAnalysisData struct {
	Message     string
	Duration    string
	Severity    string
	History     string
	Medications string
	Allergies   string
	Knowledge   string
}

// RenderSymptomAnalysisPrompt renders the symptom analysis prompt using embedded Go templates
func RenderSymptomAnalysisPrompt(data SymptomAnalysisData) (systemPrompt, userPrompt string, err error) {
	// Load and parse system prompt template from embedded file
	systemTemplateContent, err := templatesFS.ReadFile("templates/symptom_analysis_system.md")
	if err != nil {
		return "", "", err
	}

	systemTmpl, err := template.New("symptom_analysis_system").Parse(string(systemTemplateContent))
	if err != nil {
		return "", "", err
	}

	var systemBuf bytes.Buffer
	if err := systemTmpl.Execute(&systemBuf, data); err != nil {
		return "", "", err
	}

	// Load and parse user prompt template from embedded file
	userTemplateContent, err := templatesFS.ReadFile("templates/symptom_analysis_user.md")
	if err != nil {
		return "", "", err
	}

	userTmpl, err := template.New("symptom_analysis_user").Parse(string(userTemplateContent))
	if err != nil {
		return "", "", err
	}

	var userBuf bytes.Buffer
	if err := userTmpl.Execute(&userBuf, data); err != nil {
		return "", "", err
	}

	return systemBuf.String(), userBuf.String(), nil
}

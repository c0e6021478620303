package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hostmaster/internal/models"
	"net/http"
	"strings"
	"time"
)

// Canned responses used when the assistant cannot reach the model.
const (
	msgNoAPIKey    = "AI Features Disabled: No API Key found in environment."
	msgUnavailable = "The AI service is currently unavailable."
	msgEmptyReply  = "I couldn't generate a response."
)

// AssistantService answers data questions and drafts renewal emails via a
// hosted text-generation API. Every failure degrades to a canned string;
// callers never see an error.
type AssistantService struct {
	APIURL  string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewAssistantService creates a new assistant service
func NewAssistantService(apiURL, apiKey, model string, timeout time.Duration) *AssistantService {
	return &AssistantService{
		APIURL:  apiURL,
		APIKey:  apiKey,
		Model:   model,
		Timeout: timeout,
	}
}

// AnalyzeHostingData answers a free-form query about the current records.
func (s *AssistantService) AnalyzeHostingData(query string, records []models.HostingRecord) string {
	if s.APIKey == "" {
		return msgNoAPIKey
	}

	// Cap the context at 50 records to keep the prompt bounded
	sample := records
	if len(sample) > 50 {
		sample = sample[:50]
	}
	data, err := json.Marshal(sample)
	if err != nil {
		return msgUnavailable
	}

	prompt := fmt.Sprintf(`You are an intelligent assistant for HostMaster.
Context:
- Current Records: %s
- Current Date: %s

User Query: %s

Instructions: Analyze data accurately. Use financial amounts. Identify renewals. Concise markdown.`,
		string(data), time.Now().Format("2006-01-02"), query)

	text, err := s.generate(prompt)
	if err != nil {
		return msgUnavailable
	}
	if text == "" {
		return msgEmptyReply
	}
	return text
}

// DraftInvoiceEmail produces a renewal email for one record. The result
// may begin with a "Subject: ..." line; use SplitSubject to separate it.
func (s *AssistantService) DraftInvoiceEmail(record *models.HostingRecord, settings *models.AppSettings) string {
	if s.APIKey == "" {
		return templateDraft(record, settings)
	}

	prompt := fmt.Sprintf(`Draft a professional hosting renewal email.
Client: %s | Site: %s | Due: %s | Total: %s
Company: %s`,
		record.ClientName, record.Website, record.ValidationDate,
		FormatAmount(settings.Currency, record.Amount), settings.CompanyName)

	text, err := s.generate(prompt)
	if err != nil || text == "" {
		return templateDraft(record, settings)
	}
	return text
}

// templateDraft is the standard renewal email used when no model is
// reachable.
func templateDraft(record *models.HostingRecord, settings *models.AppSettings) string {
	return fmt.Sprintf(`Subject: Invoice %s - %s

Dear %s,

Your hosting renewal for %s is due on %s.
Total: %s.

Regards,
%s`,
		draftLabel(record), record.Website,
		record.ClientName,
		record.Website, record.ValidationDate,
		FormatAmount(settings.Currency, record.Amount),
		settings.CompanyName)
}

func draftLabel(record *models.HostingRecord) string {
	if record.InvoiceNumber == "" {
		return "Draft"
	}
	return record.InvoiceNumber
}

// SplitSubject separates an optional leading "Subject:" line from the
// body of a drafted email. When absent, the fallback subject is returned.
func SplitSubject(draft, fallback string) (subject, body string) {
	subject = fallback
	body = draft

	lines := strings.Split(draft, "\n")
	if len(lines) > 0 && strings.HasPrefix(strings.ToLower(lines[0]), "subject:") {
		subject = strings.TrimSpace(lines[0][len("subject:"):])
		body = strings.TrimSpace(strings.Join(lines[1:], "\n"))
	}
	return subject, body
}

// generateContent request/response shapes for the Gemini REST API.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// generate sends one prompt and returns the first candidate's text.
func (s *AssistantService) generate(prompt string) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.APIURL, s.Model, s.APIKey)

	payload := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	client := &http.Client{
		Timeout: s.Timeout,
	}

	resp, err := client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to query model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model API returned status %d", resp.StatusCode)
	}

	var apiResponse generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", fmt.Errorf("failed to parse model response: %w", err)
	}

	if apiResponse.Error != nil {
		return "", fmt.Errorf("model API error: %s", apiResponse.Error.Message)
	}

	if len(apiResponse.Candidates) == 0 || len(apiResponse.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}

	return apiResponse.Candidates[0].Content.Parts[0].Text, nil
}

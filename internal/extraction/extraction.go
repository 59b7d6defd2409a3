// Package extraction calls the Gemini API to pull vital signs and a text
// summary out of an uploaded report. The model is an untrusted,
// best-effort oracle: callers must treat any failure as "no vitals, no
// summary" and carry on.
package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"medivault/internal/config"
	"medivault/internal/models"
)

const vitalsPrompt = `You are a medical report analyzer. Extract all vital signs from this health report.
Look for the following vitals:
- Blood Pressure (systolic/diastolic in mmHg)
- Heart Rate (in bpm)
- SpO2 (in %)
- Blood Sugar (in mg/dL)
- Hemoglobin (in g/dL)
- Cholesterol (total cholesterol in mg/dL)

Return ONLY a valid JSON array with this exact format:
[
  {
    "vitalType": "heart_rate",
    "value": 72,
    "unit": "bpm"
  }
]

Valid vitalType values are: blood_pressure, heart_rate, spo2, blood_sugar, hemoglobin, cholesterol
For blood pressure, store as a single decimal number like 120.80 (systolic.diastolic)

If no vitals are found, return an empty array: []
Do not include any explanation or markdown, only the JSON array.`

const summaryPrompt = `You are a medical report analyzer. Write a short plain-language summary (2-3 sentences) of this health report for the patient. Do not include any markdown, only plain text.`

// ExtractedVital is one measurement reported by the model.
type ExtractedVital struct {
	VitalType string  `json:"vitalType"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
}

// Result holds whatever the model produced. Either field may be empty.
type Result struct {
	Vitals  []ExtractedVital
	Summary string
}

// Client talks to the Gemini generateContent endpoint.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// New creates an extraction client. With no API key configured the client
// is disabled and Extract returns an empty result.
func New(cfg *config.Config) *Client {
	return &Client{
		apiKey:  cfg.GeminiAPIKey,
		model:   cfg.GeminiModel,
		baseURL: strings.TrimSuffix(cfg.GeminiBaseURL, "/"),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Extract fetches the report file and asks the model for vitals and a
// summary. Unknown vital types and non-positive values are discarded; a
// missing unit falls back to the canonical unit for the type. The summary
// request degrades independently of the vitals request.
func (c *Client) Extract(ctx context.Context, fileURL, fileType string) (*Result, error) {
	if !c.Enabled() {
		return &Result{}, nil
	}

	data, mimeType, err := c.fetchFile(ctx, fileURL, fileType)
	if err != nil {
		return nil, fmt.Errorf("fetching report file: %w", err)
	}

	result := &Result{}

	raw, err := c.generate(ctx, data, mimeType, vitalsPrompt)
	if err != nil {
		return nil, fmt.Errorf("extracting vitals: %w", err)
	}
	result.Vitals = parseVitals(raw)

	// A failed summary is not worth failing the whole extraction over.
	summary, err := c.generate(ctx, data, mimeType, summaryPrompt)
	if err == nil {
		result.Summary = strings.TrimSpace(summary)
	}

	return result, nil
}

func (c *Client) fetchFile(ctx context.Context, fileURL, fileType string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, models.MaxFileSize+1))
	if err != nil {
		return "", "", err
	}
	if len(body) > models.MaxFileSize {
		return "", "", errors.New("report file too large")
	}

	mimeType := "application/pdf"
	if fileType != models.FileTypePDF {
		mimeType = resp.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
	}

	return base64.StdEncoding.EncodeToString(body), mimeType, nil
}

// Gemini generateContent request/response shapes, reduced to what we use.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *Client) generate(ctx context.Context, data, mimeType, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &inlineData{MimeType: mimeType, Data: data}},
				{Text: prompt},
			},
		}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("model returned status %d: %s", resp.StatusCode, body)
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("model returned no content")
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// parseVitals decodes the model's JSON array, tolerating markdown fences,
// and keeps only measurements that pass validation.
func parseVitals(text string) []ExtractedVital {
	cleaned := stripFences(strings.TrimSpace(text))

	var raw []ExtractedVital
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil
	}

	var vitals []ExtractedVital
	for _, v := range raw {
		if !models.IsValidVitalType(v.VitalType) || v.Value <= 0 {
			continue
		}
		if v.Unit == "" {
			v.Unit = models.VitalUnits[v.VitalType]
		}
		vitals = append(vitals, v)
	}
	return vitals
}

func stripFences(text string) string {
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

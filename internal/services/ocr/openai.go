package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"
)

const visionPrompt = `Analyze this magazine page and extract ALL visible text with approximate positions.

For each piece of text you find, provide:
1. The exact text content
2. Approximate position as percentage from top-left (0-100% for both x and y)
3. Approximate size (small/medium/large)
4. Text type (masthead/headline/caption/speech_bubble/price/date/other)

Format your response as a JSON array like this:
[
  {
    "text": "PRIVATE EYE",
    "x_percent": 50,
    "y_percent": 15,
    "size": "large",
    "type": "masthead"
  }
]

Be thorough - extract ALL text including titles, headlines, speech bubbles, prices, dates.`

// OpenAIProvider extracts semantically typed text elements using an OpenAI
// vision model over the chat completions API.
type OpenAIProvider struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

func NewOpenAI(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIProvider{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: "https://api.openai.com/v1/chat/completions",
		Client:  http.DefaultClient,
	}
}

func (o *OpenAIProvider) Name() string { return "openai_vision" }

type openAIRequest struct {
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string    `json:"role"`
	Content []content `json:"content"`
}

type content struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *OpenAIProvider) DetectElements(ctx context.Context, imagePath string) ([]Element, error) {
	if o.APIKey == "" {
		return nil, failure(o.Name(), fmt.Errorf("OPENAI_API_KEY not set"))
	}

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, failure(o.Name(), err)
	}
	imageBase64 := base64.StdEncoding.EncodeToString(imageData)

	request := openAIRequest{
		Model:       o.Model,
		Temperature: 0.0,
		MaxTokens:   1500,
		Messages: []message{
			{
				Role: "user",
				Content: []content{
					{Type: "text", Text: visionPrompt},
					{
						Type: "image_url",
						ImageURL: &imageURL{
							URL:    fmt.Sprintf("data:image/png;base64,%s", imageBase64),
							Detail: "high",
						},
					},
				},
			},
		},
	}

	reply, err := o.call(ctx, request)
	if err != nil {
		return nil, err
	}

	elements, err := ExtractElements(reply)
	if err != nil {
		return nil, failure(o.Name(), err)
	}

	slog.Info("OpenAI vision extraction complete", "image", imagePath, "elements", len(elements))
	return elements, nil
}

func (o *OpenAIProvider) call(ctx context.Context, request openAIRequest) (string, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return "", failure(o.Name(), fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.BaseURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", failure(o.Name(), fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.APIKey)

	resp, err := o.Client.Do(req)
	if err != nil {
		return "", failure(o.Name(), fmt.Errorf("failed to make request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", failure(o.Name(), fmt.Errorf("OpenAI API returned status %d: %s", resp.StatusCode, string(body)))
	}

	var response openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", failure(o.Name(), fmt.Errorf("failed to decode response: %w", err))
	}
	if len(response.Choices) == 0 {
		return "", failure(o.Name(), fmt.Errorf("no response from OpenAI"))
	}

	return response.Choices[0].Message.Content, nil
}

var jsonArrayRe = regexp.MustCompile(`(?s)\[.*\]`)

// ExtractElements pulls the JSON element array out of a model reply. The
// model often wraps the array in prose or a code fence, so the first
// bracketed span is tried before the raw reply. When neither decodes, quoted
// strings are salvaged as untyped elements stacked down the page.
func ExtractElements(reply string) ([]Element, error) {
	var elements []Element

	candidate := reply
	if match := jsonArrayRe.FindString(reply); match != "" {
		candidate = match
	}
	if err := json.Unmarshal([]byte(candidate), &elements); err == nil {
		return elements, nil
	}

	elements = salvageQuoted(reply)
	if len(elements) == 0 {
		return nil, fmt.Errorf("could not parse reply as element array")
	}
	slog.Warn("Vision reply was not valid JSON, salvaged quoted strings", "elements", len(elements))
	return elements, nil
}

var quotedRe = regexp.MustCompile(`"([^"]+)"`)

func salvageQuoted(reply string) []Element {
	var elements []Element
	for _, line := range strings.Split(reply, "\n") {
		for _, m := range quotedRe.FindAllStringSubmatch(line, -1) {
			if len(m[1]) <= 2 {
				continue
			}
			elements = append(elements, Element{
				Text:     m[1],
				XPercent: 50,
				YPercent: float64(30 + len(elements)*15),
				Size:     "medium",
				Type:     "other",
			})
		}
	}
	return elements
}

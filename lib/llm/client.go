package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("llm")

// Model names for the two quality tiers: lite is preferred for cost,
// flash is the fallback once every key's lite quota is burned.
const (
	ModelLite  = "gemini-2.5-flash-lite"
	ModelFlash = "gemini-2.5-flash"
)

const defaultBaseUrl = "https://generativelanguage.googleapis.com"

// Message is one turn of conversation history. Role is "user" or
// "model", matching the wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest is everything one completion needs besides the
// credential.
type GenerateRequest struct {
	SystemInstruction string
	History           []Message
	Prompt            string
}

// StatusError is an API-level failure carrying the HTTP status code,
// used to classify quota exhaustion against transient overload.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm api returned %d: %s", e.Code, e.Message)
}

// Client talks to a Gemini-style generateContent REST API.
type Client struct {
	BaseUrl string
	http    *resty.Client
}

type ClientOptions struct {
	// BaseUrl overrides the API origin, tests point this at a local
	// double
	BaseUrl string
}

func NewClient(opts ClientOptions) *Client {
	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = defaultBaseUrl
	}

	client := resty.New()
	client.SetTimeout(time.Second * 60)

	return &Client{
		BaseUrl: baseUrl,
		http:    client,
	}
}

type wirePart struct {
	Text string `json:"text"`
}

type wireContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []wirePart `json:"parts"`
}

type wireRequest struct {
	SystemInstruction *wireContent  `json:"system_instruction,omitempty"`
	Contents          []wireContent `json:"contents"`
}

type wireResponse struct {
	Candidates []struct {
		Content wireContent `json:"content"`
	} `json:"candidates"`
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GenerateContent runs one completion under the given credential and
// model, sending the history ahead of the prompt.
func (c *Client) GenerateContent(ctx context.Context, key, model string, req GenerateRequest) (string, error) {
	ctx, span := tracer.Start(ctx, "llm.GenerateContent")
	defer span.End()
	span.SetAttributes(attribute.String("model", model))

	fail := func(err error) (string, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	body := wireRequest{}
	if req.SystemInstruction != "" {
		body.SystemInstruction = &wireContent{
			Parts: []wirePart{{Text: req.SystemInstruction}},
		}
	}
	for _, msg := range req.History {
		body.Contents = append(body.Contents, wireContent{
			Role:  msg.Role,
			Parts: []wirePart{{Text: msg.Content}},
		})
	}
	body.Contents = append(body.Contents, wireContent{
		Role:  "user",
		Parts: []wirePart{{Text: req.Prompt}},
	})

	var result wireResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", key).
		SetBody(body).
		SetResult(&result).
		SetError(&result).
		Post(fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.BaseUrl, model))
	if err != nil {
		return fail(err)
	}

	if res.IsError() {
		message := result.Error.Message
		if message == "" {
			message = res.Status()
		}
		return fail(&StatusError{Code: res.StatusCode(), Message: message})
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return fail(fmt.Errorf("llm api returned no candidates"))
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

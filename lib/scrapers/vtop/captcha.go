package vtop

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// Solver turns a base64-encoded captcha image into the text it shows.
// The image arrives exactly as the portal embeds it, including the
// "data:image/jpeg;base64," prefix.
type Solver interface {
	SolveCaptcha(ctx context.Context, imageDataUrl string) (string, error)
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(ctx context.Context, imageDataUrl string) (string, error)

func (f SolverFunc) SolveCaptcha(ctx context.Context, imageDataUrl string) (string, error) {
	return f(ctx, imageDataUrl)
}

// HttpSolver posts the captcha image to an external solving service and
// reads the answer back as JSON.
type HttpSolver struct {
	Endpoint string
	http     *resty.Client
}

func NewHttpSolver(endpoint string) *HttpSolver {
	return &HttpSolver{
		Endpoint: endpoint,
		http:     resty.New(),
	}
}

func (s *HttpSolver) SolveCaptcha(ctx context.Context, imageDataUrl string) (string, error) {
	var result struct {
		Captcha string `json:"captcha"`
		Error   string `json:"error"`
	}
	res, err := s.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"image": imageDataUrl}).
		SetResult(&result).
		Post(s.Endpoint)
	if err != nil {
		return "", err
	}
	if res.IsError() {
		return "", fmt.Errorf("captcha service returned %s", res.Status())
	}
	if result.Error != "" {
		return "", fmt.Errorf("captcha service: %s", result.Error)
	}
	if result.Captcha == "" {
		return "", fmt.Errorf("captcha service returned an empty solution")
	}
	return result.Captcha, nil
}

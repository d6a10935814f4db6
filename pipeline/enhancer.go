package pipeline

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/yifanzhou/storyshare/apperr"
)

// EnhancerClient calls the external prompt enhancement service, which turns
// raw story text into a richer image description.
type EnhancerClient struct {
	Endpoint string
	Client   *http.Client
}

type enhanceRequest struct {
	Prompt string `json:"prompt"`
}

type enhanceResponse struct {
	Success          bool   `json:"success"`
	ImageDescription string `json:"imageDescription"`
	Error            string `json:"error"`
}

func NewEnhancerClient(endpoint string) *EnhancerClient {
	return &EnhancerClient{
		Endpoint: endpoint,
		Client:   http.DefaultClient,
	}
}

// Enhance posts the raw content and returns the enhanced description. Any
// non-2xx status, transport failure or success=false body is surfaced as
// apperr.ErrEnhancement.
func (c *EnhancerClient) Enhance(prompt string) (string, error) {
	body, err := json.Marshal(enhanceRequest{Prompt: prompt})
	if err != nil {
		return "", errors.Wrap(apperr.ErrEnhancement, err.Error())
	}

	resp, err := c.Client.Post(c.Endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(apperr.ErrEnhancement, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", errors.Wrapf(apperr.ErrEnhancement, "enhancer returned status %d", resp.StatusCode)
	}

	var parsed enhanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", errors.Wrap(apperr.ErrEnhancement, err.Error())
	}
	if !parsed.Success {
		return "", errors.Wrap(apperr.ErrEnhancement, parsed.Error)
	}
	return parsed.ImageDescription, nil
}

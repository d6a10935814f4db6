package pipeline

import (
	"fmt"
	"io/ioutil"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/yifanzhou/storyshare/apperr"
)

// styleSuffix is appended to every enhanced prompt so stories come out with a
// consistent look.
const styleSuffix = ", highly detailed, vibrant colors, cinematic lighting, 4k"

func init() {
	// The cache-busting seed must differ across process restarts.
	rand.Seed(time.Now().UnixNano())
}

// ImageClient fetches a rendered image for a prompt from the external image
// generation service. This is the only external call in the system with an
// explicit timeout.
type ImageClient struct {
	Endpoint string
	Width    int
	Height   int
	Model    string
	Timeout  time.Duration
}

func NewImageClient(endpoint string, width, height int, model string, timeout time.Duration) *ImageClient {
	return &ImageClient{
		Endpoint: endpoint,
		Width:    width,
		Height:   height,
		Model:    model,
		Timeout:  timeout,
	}
}

// RequestURL builds the GET url: path-escaped prompt plus style suffix, the
// fixed resolution/model parameters and a cache-busting random seed.
func (c *ImageClient) RequestURL(prompt string) string {
	query := url.Values{}
	query.Set("width", fmt.Sprint(c.Width))
	query.Set("height", fmt.Sprint(c.Height))
	query.Set("model", c.Model)
	query.Set("enhance", "true")
	query.Set("nologo", "true")
	query.Set("seed", fmt.Sprint(rand.Intn(1000000)))
	return fmt.Sprintf("%s/%s?%s", c.Endpoint, url.PathEscape(prompt+styleSuffix), query.Encode())
}

// Fetch downloads the image payload within the configured bound. A fetch
// that exceeds the bound is apperr.ErrTimeout; every other failure, a non-2xx
// status and an empty payload are apperr.ErrImageFetch.
func (c *ImageClient) Fetch(prompt string) ([]byte, error) {
	client := &http.Client{Timeout: c.Timeout}
	resp, err := client.Get(c.RequestURL(prompt))
	if err != nil {
		if isTimeout(err) {
			return nil, errors.Wrap(apperr.ErrTimeout, err.Error())
		}
		return nil, errors.Wrap(apperr.ErrImageFetch, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, errors.Wrapf(apperr.ErrImageFetch, "image service returned status %d", resp.StatusCode)
	}

	payload, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, errors.Wrap(apperr.ErrTimeout, err.Error())
		}
		return nil, errors.Wrap(apperr.ErrImageFetch, err.Error())
	}
	if len(payload) == 0 {
		return nil, errors.Wrap(apperr.ErrImageFetch, "empty image payload")
	}
	return payload, nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

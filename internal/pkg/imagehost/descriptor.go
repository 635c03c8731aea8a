package imagehost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/jewelry/jewelry-api/internal/pkg/errorhandler"
)

// maxResponseBytes caps how much of a provider response is read.
const maxResponseBytes = 1 << 20

// Extractor pulls the hosted URL out of a provider response body.
// It returns ErrUnexpectedResponse when the body has no usable URL.
type Extractor func(body []byte) (string, error)

// Descriptor describes one multipart hosting API as data.
type Descriptor struct {
	Name      string
	Endpoint  string
	FileField string
	Fields    map[string]string // extra form fields
	Query     map[string]string // e.g. API keys
	Header    map[string]string // e.g. Authorization
	Extract   Extractor
}

// HTTPProvider uploads an asset to the API described by its Descriptor.
type HTTPProvider struct {
	desc   Descriptor
	client *http.Client
}

func NewHTTPProvider(desc Descriptor, client *http.Client) *HTTPProvider {
	if client == nil {
		client = NewHTTPClient(0)
	}
	return &HTTPProvider{desc: desc, client: client}
}

func (p *HTTPProvider) Name() string { return p.desc.Name }

// Upload sends the asset as a multipart form and extracts the hosted URL.
func (p *HTTPProvider) Upload(ctx context.Context, asset *Asset) (string, error) {
	body, contentType, err := p.form(asset)
	if err != nil {
		return "", &ProviderError{Provider: p.desc.Name, Kind: KindRequest, Err: err}
	}

	endpoint, err := p.endpoint()
	if err != nil {
		return "", &ProviderError{Provider: p.desc.Name, Kind: KindRequest, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", &ProviderError{Provider: p.desc.Name, Kind: KindRequest, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	for k, v := range p.desc.Header {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", classifyRequestError(ctx, p.desc.Name, p.redact(err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", classifyRequestError(ctx, p.desc.Name, p.redact(err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errorhandler.LogExternalServiceError(ctx, p.desc.Name, p.desc.Endpoint, resp.StatusCode, ErrUnexpectedResponse, string(payload))
		return "", &ProviderError{
			Provider:   p.desc.Name,
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("body=%s", truncate(payload, 256)),
		}
	}

	hosted, err := p.desc.Extract(payload)
	if err != nil {
		return "", &ProviderError{
			Provider:   p.desc.Name,
			Kind:       KindResponse,
			StatusCode: resp.StatusCode,
			Err:        err,
		}
	}
	return hosted, nil
}

func (p *HTTPProvider) endpoint() (string, error) {
	u, err := url.Parse(p.desc.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint: %w", err)
	}
	if len(p.desc.Query) > 0 {
		q := u.Query()
		for k, v := range p.desc.Query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (p *HTTPProvider) form(asset *Asset) (io.Reader, string, error) {
	data, err := asset.Bytes()
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range p.desc.Fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(p.desc.FileField), escapeQuotes(asset.Filename)))
	ct := asset.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}

// redact swaps the request URL in a transport error for the bare endpoint,
// so API keys sent as query parameters never reach logs.
func (p *HTTPProvider) redact(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	return &url.Error{Op: urlErr.Op, URL: p.desc.Endpoint, Err: urlErr.Err}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

package imagehost

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// truthy reports whether a JSON value would pass a loose boolean check:
// anything except null, false, 0 and "".
func truthy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	switch string(v) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return nil
}

func missing(field string) error {
	return fmt.Errorf("%w: %s missing", ErrUnexpectedResponse, field)
}

// ExtractFreeImage accepts {"success": <truthy>, "image": {"url": "..."}}.
func ExtractFreeImage(body []byte) (string, error) {
	var resp struct {
		Success json.RawMessage `json:"success"`
		Image   *struct {
			URL string `json:"url"`
		} `json:"image"`
	}
	if err := decode(body, &resp); err != nil {
		return "", err
	}
	if !truthy(resp.Success) {
		return "", missing("success")
	}
	if resp.Image == nil || resp.Image.URL == "" {
		return "", missing("image.url")
	}
	return resp.Image.URL, nil
}

// ExtractPostImage accepts {"status": "OK", "url": "..."}.
func ExtractPostImage(body []byte) (string, error) {
	var resp struct {
		Status string `json:"status"`
		URL    string `json:"url"`
	}
	if err := decode(body, &resp); err != nil {
		return "", err
	}
	if resp.Status != "OK" {
		return "", fmt.Errorf("%w: status %q", ErrUnexpectedResponse, resp.Status)
	}
	if resp.URL == "" {
		return "", missing("url")
	}
	return resp.URL, nil
}

// ExtractImgBB accepts {"success": <truthy>, "data": {"url": "..."}}.
func ExtractImgBB(body []byte) (string, error) {
	var resp struct {
		Success json.RawMessage `json:"success"`
		Data    *struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := decode(body, &resp); err != nil {
		return "", err
	}
	if !truthy(resp.Success) {
		return "", missing("success")
	}
	if resp.Data == nil || resp.Data.URL == "" {
		return "", missing("data.url")
	}
	return resp.Data.URL, nil
}

// ExtractImgur accepts {"success": <truthy>, "data": {"link": "..."}}.
func ExtractImgur(body []byte) (string, error) {
	var resp struct {
		Success json.RawMessage `json:"success"`
		Data    *struct {
			Link string `json:"link"`
		} `json:"data"`
	}
	if err := decode(body, &resp); err != nil {
		return "", err
	}
	if !truthy(resp.Success) {
		return "", missing("success")
	}
	if resp.Data == nil || resp.Data.Link == "" {
		return "", missing("data.link")
	}
	return resp.Data.Link, nil
}

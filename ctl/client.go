// Copyright (c) 2025 BVK Chaitanya

package ctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Client talks to the control server of a live strategy process.
type Client struct {
	httpClient *http.Client
}

// Dial connects to the control socket. Fails when no live process is
// serving it.
func Dial(sockPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", sockPath, time.Second)
	if err != nil {
		return nil, err
	}
	conn.Close()

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, address string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", sockPath)
		},
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}, nil
}

func (c *Client) Cancel(ctx context.Context, req *CancelRequest) (*CancelResponse, error) {
	return post[CancelResponse](ctx, c, CancelPath, req)
}

func (c *Client) List(ctx context.Context) (*ListResponse, error) {
	return post[ListResponse](ctx, c, ListPath, &ListRequest{})
}

func post[RESP, REQ any](ctx context.Context, c *Client, subpath string, req *REQ) (*RESP, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	u := url.URL{
		Scheme: "http",
		Host:   "algobot",
		Path:   subpath,
	}
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	r.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("http status code %d: %s", resp.StatusCode, data)
	}
	response := new(RESP)
	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return nil, err
	}
	return response, nil
}

package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"
)

type httpTransport struct {
	client *http.Client
}

func newHTTPTransport(timeout time.Duration) *httpTransport {
	return &httpTransport{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
			},
		},
	}
}

func (t *httpTransport) send(ctx context.Context, d *delivery) error {
	byts, err := json.Marshal(d.evt)
	if err != nil {
		return err
	}

	u := "http://" + net.JoinHostPort(d.address, strconv.FormatInt(int64(d.port), 10)) + "/"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(byts))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", d.id)

	res, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	io.Copy(io.Discard, res.Body) //nolint:errcheck

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("bad status code: %d", res.StatusCode)
	}

	return nil
}

func (t *httpTransport) close() {
	t.client.CloseIdleConnections()
}

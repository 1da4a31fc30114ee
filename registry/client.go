package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// Oracle decides whether an address may create proposals and vote.
type Oracle interface {
	IsRegistered(ctx context.Context, address string) (bool, error)
}

var _ Oracle = &HTTPOracle{}
var _ Oracle = &MockOracle{}

type HTTPOracle struct {
	Url    string
	client *http.Client
	logger cmtlog.Logger
}

func NewHTTPOracle(rawUrl string, timeout time.Duration, logger cmtlog.Logger) (*HTTPOracle, error) {
	if _, err := url.Parse(rawUrl); err != nil {
		return nil, fmt.Errorf("invalid registry url %q: %w", rawUrl, err)
	}
	return &HTTPOracle{
		Url:    rawUrl,
		client: &http.Client{Timeout: timeout},
		logger: logger.With("module", "registry"),
	}, nil
}

func (o *HTTPOracle) IsRegistered(ctx context.Context, address string) (bool, error) {
	reqUrl, err := url.JoinPath(o.Url, "registered", address)
	if err != nil {
		o.logger.Error("join url fail", "err", err)
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqUrl, nil)
	if err != nil {
		return false, err
	}
	res, err := o.client.Do(req)
	if err != nil {
		o.logger.Error("get registry url fail", "err", err)
		return false, err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if res.StatusCode != http.StatusOK {
		return false, fmt.Errorf("registry returned status %d", res.StatusCode)
	}
	buf, err := io.ReadAll(res.Body)
	if err != nil {
		o.logger.Error("read response body fail", "err", err)
		return false, err
	}
	var body struct {
		Registered bool `json:"registered"`
	}
	if err = json.Unmarshal(buf, &body); err != nil {
		o.logger.Error("unmarshal response body fail", "err", err)
		return false, err
	}
	return body.Registered, nil
}

// MockOracle registers everyone except the addresses in Denied.
type MockOracle struct {
	Denied map[string]bool
}

func NewMockOracle(denied ...string) *MockOracle {
	m := &MockOracle{Denied: make(map[string]bool)}
	for _, addr := range denied {
		m.Denied[addr] = true
	}
	return m
}

func (m *MockOracle) IsRegistered(ctx context.Context, address string) (bool, error) {
	return !m.Denied[address], nil
}

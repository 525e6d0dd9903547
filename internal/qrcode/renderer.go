package qrcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	goqrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

var ErrEmptyPayload = errors.New("empty qr payload")

// Renderer turns a payload into a PNG image of the given pixel size.
type Renderer interface {
	Name() string
	Render(ctx context.Context, payload string, size int) ([]byte, error)
}

// Chain tries each renderer in order and returns the first image produced.
type Chain struct {
	renderers []Renderer
	log       *zap.Logger
}

func NewChain(log *zap.Logger, renderers ...Renderer) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chain{renderers: renderers, log: log}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Render(ctx context.Context, payload string, size int) ([]byte, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	var errs []error
	for _, r := range c.renderers {
		img, err := r.Render(ctx, payload, size)
		if err == nil {
			return img, nil
		}
		c.log.Warn("qr renderer failed", zap.String("renderer", r.Name()), zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return nil, errors.New("render qr: no renderer configured")
	}
	return nil, fmt.Errorf("render qr: %w", errors.Join(errs...))
}

type skip2Renderer struct{}

// NewSkip2Renderer renders locally with medium error correction.
func NewSkip2Renderer() Renderer { return skip2Renderer{} }

func (skip2Renderer) Name() string { return "go-qrcode" }

func (skip2Renderer) Render(_ context.Context, payload string, size int) ([]byte, error) {
	return goqrcode.Encode(payload, goqrcode.Medium, size)
}

type barcodeRenderer struct{}

func NewBarcodeRenderer() Renderer { return barcodeRenderer{} }

func (barcodeRenderer) Name() string { return "barcode" }

func (barcodeRenderer) Render(_ context.Context, payload string, size int) ([]byte, error) {
	code, err := qr.Encode(payload, qr.M, qr.Auto)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type remoteRenderer struct {
	baseURL string
	client  *http.Client
}

// NewRemoteRenderer fetches images from a qrserver-compatible endpoint
// taking size=WxH and data query parameters.
func NewRemoteRenderer(baseURL string, timeout time.Duration) Renderer {
	return &remoteRenderer{baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

func (r *remoteRenderer) Name() string { return "remote" }

func (r *remoteRenderer) Render(ctx context.Context, payload string, size int) ([]byte, error) {
	u, err := url.Parse(r.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse qr url: %w", err)
	}
	dim := strconv.Itoa(size)
	q := u.Query()
	q.Set("size", dim+"x"+dim)
	q.Set("data", payload)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

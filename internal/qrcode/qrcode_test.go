package qrcode

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameFragment(t *testing.T) {
	cases := map[string]string{
		"Mil souna":          "MILSOU",
		"Arachide décortiquée": "ARACHI",
		"Thé Kinkéliba":      "THEKIN",
		"Œuf":                "UF",
		"riz":                "RIZ",
		"!!!":                "PRD",
		"":                   "PRD",
		"  a-b c 12 ":        "ABC12",
	}
	for in, want := range cases {
		assert.Equal(t, want, NameFragment(in), in)
	}
}

func TestTraceabilityID_Format(t *testing.T) {
	g := NewGenerator()
	id := g.TraceabilityID("Mangue Kent")
	assert.Regexp(t, regexp.MustCompile(`^AGRI-[A-Z0-9]{1,6}-\d+-[A-Z0-9]{4}$`), id)
}

func TestTraceabilityID_Deterministic(t *testing.T) {
	i := 0
	g := &Generator{
		Now:  func() time.Time { return time.UnixMilli(1700000000123) },
		Rand: func(n int) int { i++; return (i * 11) % n },
	}
	assert.Equal(t, "AGRI-OIGNON-1700000000123-LW7I", g.TraceabilityID("Oignon de Galmi"))
}

type stubRenderer struct {
	name  string
	img   []byte
	err   error
	calls int
}

func (s *stubRenderer) Name() string { return s.name }

func (s *stubRenderer) Render(context.Context, string, int) ([]byte, error) {
	s.calls++
	return s.img, s.err
}

func TestChain_FirstSuccessWins(t *testing.T) {
	failing := &stubRenderer{name: "a", err: errors.New("boom")}
	ok := &stubRenderer{name: "b", img: []byte("png")}
	never := &stubRenderer{name: "c", img: []byte("other")}

	img, err := NewChain(nil, failing, ok, never).Render(context.Background(), "AGRI-X", 128)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), img)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 0, never.calls)
}

func TestChain_AllFail(t *testing.T) {
	errA, errB := errors.New("a down"), errors.New("b down")
	chain := NewChain(nil, &stubRenderer{name: "a", err: errA}, &stubRenderer{name: "b", err: errB})

	_, err := chain.Render(context.Background(), "AGRI-X", 128)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestChain_EmptyPayload(t *testing.T) {
	_, err := NewChain(nil, NewSkip2Renderer()).Render(context.Background(), "", 128)
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestLocalRenderers_ProducePNG(t *testing.T) {
	for _, r := range []Renderer{NewSkip2Renderer(), NewBarcodeRenderer()} {
		t.Run(r.Name(), func(t *testing.T) {
			img, err := r.Render(context.Background(), "AGRI-MILSOU-1700000000123-AB12", 200)
			require.NoError(t, err)
			cfg, err := png.DecodeConfig(bytes.NewReader(img))
			require.NoError(t, err)
			assert.Equal(t, 200, cfg.Width)
		})
	}
}

func TestRemoteRenderer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "150x150", r.URL.Query().Get("size"))
		assert.Equal(t, "AGRI-X", r.URL.Query().Get("data"))
		_, _ = w.Write([]byte("remote-png"))
	}))
	defer srv.Close()

	img, err := NewRemoteRenderer(srv.URL+"/v1/create-qr-code/", time.Second).Render(context.Background(), "AGRI-X", 150)
	require.NoError(t, err)
	assert.Equal(t, []byte("remote-png"), img)
}

func TestRemoteRenderer_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewRemoteRenderer(srv.URL, time.Second).Render(context.Background(), "AGRI-X", 150)
	assert.Error(t, err)
}

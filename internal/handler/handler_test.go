package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/agri-backoffice/internal/model"
	"github.com/flicky/agri-backoffice/internal/qrcode"
	"github.com/flicky/agri-backoffice/internal/repository"
	"github.com/flicky/agri-backoffice/internal/service"
	"github.com/flicky/agri-backoffice/internal/storage"
)

func init() { gin.SetMode(gin.TestMode) }

// --- fakes ---

type fakeOrderRepo struct {
	orders map[string]*model.Order
	writes int
}

func (r *fakeOrderRepo) List(context.Context) ([]model.Order, error) {
	out := make([]model.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (r *fakeOrderRepo) ListByStatuses(_ context.Context, statuses []model.OrderStatus) ([]model.Order, error) {
	var out []model.Order
	for _, o := range r.orders {
		for _, s := range statuses {
			if o.Status == s {
				out = append(out, *o)
			}
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) Recent(ctx context.Context, _ int64) ([]model.Order, error) {
	return r.List(ctx)
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id string) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id string, status model.OrderStatus, updatedAt time.Time) error {
	o, ok := r.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.writes++
	o.Status, o.UpdatedAt = status, updatedAt
	return nil
}

func (r *fakeOrderRepo) Count(context.Context) (int64, error) { return int64(len(r.orders)), nil }

type fakeProductRepo struct {
	products map[string]*model.Product
}

func (r *fakeProductRepo) List(context.Context) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id string) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) Create(_ context.Context, p *model.Product) error {
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *model.Product) error {
	if _, ok := r.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) Count(context.Context) (int64, error) { return int64(len(r.products)), nil }

type memStorage struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *memStorage) Upload(_ context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	objectPath = storage.CleanPath(objectPath)
	s.objects[objectPath] = b
	s.types[objectPath] = contentType
	return storage.PublicURL("http://media.test", objectPath), nil
}

func (s *memStorage) Open(_ context.Context, objectPath string) (*storage.Object, error) {
	b, ok := s.objects[objectPath]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.Object{ReadCloser: io.NopCloser(bytes.NewReader(b)), ContentType: s.types[objectPath], Size: int64(len(b))}, nil
}

type pngRenderer struct{}

func (pngRenderer) Name() string { return "png" }

func (pngRenderer) Render(_ context.Context, payload string, _ int) ([]byte, error) {
	return []byte("PNG:" + payload), nil
}

// --- error mapping ---

func TestRespondError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &service.ValidationError{Field: "name", Message: "is required"}, http.StatusBadRequest},
		{"reason", service.ErrReasonRequired, http.StatusBadRequest},
		{"confirm", service.ErrConfirmationRequired, http.StatusBadRequest},
		{"wrong password", &service.AuthError{Code: service.CodeWrongPassword}, http.StatusUnauthorized},
		{"throttled", &service.AuthError{Code: service.CodeTooManyRequests}, http.StatusTooManyRequests},
		{"unauthenticated", service.ErrUnauthenticated, http.StatusUnauthorized},
		{"denied", service.ErrAccessDenied, http.StatusForbidden},
		{"not found", fmt.Errorf("load: %w", service.ErrVendorNotFound), http.StatusNotFound},
		{"transition", &model.TransitionError{Entity: "order", From: "delivered", To: "pending"}, http.StatusConflict},
		{"decided", service.ErrVendorDecided, http.StatusConflict},
		{"other", errors.New("mongo down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, tt.err)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRespondError_HidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, errors.New("connection refused 10.0.0.3"))
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	assert.Len(t, c.Errors, 1)
}

func TestRespondError_AuthMessage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, &service.AuthError{Code: service.CodeUserNotFound})
	assert.JSONEq(t, `{"error":"Utilisateur non trouvé","code":"auth/user-not-found"}`, w.Body.String())
}

// --- orders ---

func newOrderRouter(repo *fakeOrderRepo) *gin.Engine {
	h := NewOrderHandler(service.NewOrderService(repo, nil))
	r := gin.New()
	r.GET("/orders/active", h.ListActive)
	r.GET("/orders/stats", h.Stats)
	r.GET("/orders/:id", h.Get)
	r.PUT("/orders/:id/status", h.UpdateStatus)
	return r
}

func seedOrders() *fakeOrderRepo {
	created := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	return &fakeOrderRepo{orders: map[string]*model.Order{
		"o1": {ID: "o1", Status: model.OrderStatusPending, TotalAmount: decimal.NewFromInt(5000), CreatedAt: created, UpdatedAt: created},
		"o2": {ID: "o2", Status: model.OrderStatusShipping, CreatedAt: created, UpdatedAt: created},
		"o3": {ID: "o3", Status: model.OrderStatusDelivered, CreatedAt: created, UpdatedAt: created},
	}}
}

func TestOrderHandler_UpdateStatus(t *testing.T) {
	repo := seedOrders()
	r := newOrderRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/orders/o1/status", strings.NewReader(`{"status":"confirmed"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "confirmed", body["status"])
	assert.Equal(t, model.OrderStatusConfirmed, repo.orders["o1"].Status)
}

func TestOrderHandler_UpdateStatusErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"backwards", "/orders/o3/status", `{"status":"pending"}`, http.StatusConflict},
		{"unknown status", "/orders/o1/status", `{"status":"lost"}`, http.StatusBadRequest},
		{"missing status", "/orders/o1/status", `{}`, http.StatusBadRequest},
		{"missing order", "/orders/nope/status", `{"status":"confirmed"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := seedOrders()
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			newOrderRouter(repo).ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			assert.Zero(t, repo.writes)
		})
	}
}

func TestOrderHandler_ActiveAndStats(t *testing.T) {
	r := newOrderRouter(seedOrders())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/active", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"pending":1,"confirmed":0,"processing":0,"shipping":1,"delivered":1,"cancelled":0,"total":3}`, w.Body.String())
}

// --- products ---

func newProductRouter(repo *fakeProductRepo, images *memStorage) *gin.Engine {
	catalog := service.NewCatalogService(repo, images, pngRenderer{}, qrcode.NewGenerator(), nil, nil, 200, nil)
	h := NewProductHandler(catalog)
	r := gin.New()
	r.POST("/products", h.Create)
	r.PUT("/products/:id", h.Update)
	r.DELETE("/products/:id", h.Delete)
	r.GET("/products/:id/qr", h.QRCode)
	return r
}

func productForm(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="image"; filename="photo oignon.png"`)
		h.Set("Content-Type", "image/png")
		fw, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestProductHandler_CreateWithImage(t *testing.T) {
	repo := &fakeProductRepo{products: map[string]*model.Product{}}
	images := newMemStorage()
	body, ct := productForm(t, map[string]string{
		"name": "Oignon", "category": "Légumes", "price": "1500", "stock": "12", "is_available": "true",
	}, []byte("img"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", ct)
	newProductRouter(repo, images).ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, repo.products, 1)
	require.Len(t, images.objects, 1)
	for _, p := range repo.products {
		assert.True(t, strings.HasPrefix(p.QRCode, "AGRI-OIGNON-"))
		require.NotNil(t, p.ImageURL)
		assert.Contains(t, *p.ImageURL, "http://media.test/products/")
		assert.True(t, p.IsAvailable)
	}
}

func TestProductHandler_CreateValidation(t *testing.T) {
	body, ct := productForm(t, map[string]string{"category": "Légumes", "price": "1500"}, nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", ct)
	newProductRouter(&fakeProductRepo{products: map[string]*model.Product{}}, newMemStorage()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"name"`)
}

func TestProductHandler_DeleteNeedsConfirmation(t *testing.T) {
	repo := &fakeProductRepo{products: map[string]*model.Product{"p1": {ID: "p1", Name: "Mil"}}}
	r := newProductRouter(repo, newMemStorage())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/products/p1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, repo.products, 1)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/products/p1?confirm=true", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, repo.products)
}

func TestProductHandler_QRCode(t *testing.T) {
	repo := &fakeProductRepo{products: map[string]*model.Product{
		"p1": {ID: "p1", Name: "Mil", QRCode: "AGRI-MIL-1-AAAA"},
		"p2": {ID: "p2", Name: "Riz"},
	}}
	r := newProductRouter(repo, newMemStorage())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/p1/qr", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "PNG:AGRI-MIL-1-AAAA", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/p2/qr", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- media ---

func TestMediaHandler(t *testing.T) {
	images := newMemStorage()
	images.objects["products/1_a.png"] = []byte("png-bytes")
	images.types["products/1_a.png"] = "image/png"

	r := gin.New()
	r.GET("/media/*path", NewMediaHandler(images).Serve)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/products/1_a.png", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "png-bytes", w.Body.String())
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/products/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMediaHandler_NeverServesMarkup(t *testing.T) {
	images := newMemStorage()
	for name, ct := range map[string]string{
		"products/1_a.html": "text/html; charset=utf-8",
		"products/2_b.svg":  "image/svg+xml",
		"products/3_c":      "",
	} {
		images.objects[name] = []byte("<script>alert(1)</script>")
		images.types[name] = ct
	}
	r := gin.New()
	r.GET("/media/*path", NewMediaHandler(images).Serve)

	for name := range images.objects {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/"+name, nil))
		require.Equal(t, http.StatusOK, w.Code, name)
		assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"), name)
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"), name)
	}
}

func TestProductHandler_RejectsHTMLUpload(t *testing.T) {
	repo := &fakeProductRepo{products: map[string]*model.Product{}}
	images := newMemStorage()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Oignon"))
	require.NoError(t, mw.WriteField("category", "Légumes"))
	require.NoError(t, mw.WriteField("price", "1500"))
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="image"; filename="x.html"`)
	h.Set("Content-Type", "text/html")
	fw, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = fw.Write([]byte("<script>"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/products", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	newProductRouter(repo, images).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, repo.products)
	assert.Empty(t, images.objects)
}

// --- static ---

func newStaticRouter() *gin.Engine {
	files := fstest.MapFS{
		"index.html":   {Data: []byte("<html>admin</html>")},
		"js/app.js":    {Data: []byte("console.log(1)")},
		"img/logo.PNG": {Data: []byte("png")},
		"data.bin":     {Data: []byte{0, 1}},
		"assets/a.css": {Data: []byte("body{}")},
	}
	r := gin.New()
	r.NoRoute(NewStaticHandlerFS(files, "index.html").Serve)
	return r
}

func TestStaticHandler(t *testing.T) {
	tests := []struct {
		path   string
		status int
		ct     string
		body   string
	}{
		{"/", http.StatusOK, "text/html", "<html>admin</html>"},
		{"/js/app.js", http.StatusOK, "application/javascript", "console.log(1)"},
		{"/img/logo.PNG", http.StatusOK, "image/png", "png"},
		{"/data.bin", http.StatusOK, "application/octet-stream", ""},
		{"/missing.html", http.StatusNotFound, "text/html", ""},
		{"/../secret.txt", http.StatusNotFound, "", ""},
		{"/assets", http.StatusInternalServerError, "", ""},
	}
	r := newStaticRouter()
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
			if tt.ct != "" {
				assert.Equal(t, tt.ct, w.Header().Get("Content-Type"))
			}
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentTypeFor("a.jpg"))
	assert.Equal(t, "image/svg+xml", ContentTypeFor("icons/x.svg"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("README"))
}

// --- health ---

func TestHealthHandler_ReadyzReportsEveryBackend(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: refused") }

	serve := func(h *HealthHandler) (int, map[string]string) {
		r := gin.New()
		r.GET("/readyz", h.Readyz)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return w.Code, body
	}

	code, body := serve(newHealthHandler(
		backendCheck{"mongo", up},
		backendCheck{"postgres", up},
		backendCheck{"redis", up},
		backendCheck{"rabbitmq", up},
	))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]string{
		"status": "ok", "mongo": "connected", "postgres": "connected", "redis": "connected", "rabbitmq": "connected",
	}, body)

	code, body = serve(newHealthHandler(
		backendCheck{"mongo", down},
		backendCheck{"postgres", up},
		backendCheck{"redis", down},
		backendCheck{"rabbitmq", up},
	))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, map[string]string{
		"status": "error", "mongo": "unavailable", "postgres": "connected", "redis": "unavailable", "rabbitmq": "connected",
	}, body)
}

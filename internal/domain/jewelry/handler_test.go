package jewelry

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jewelry/jewelry-api/internal/pkg/realtime"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta *struct {
		Total int `json:"total"`
	} `json:"meta"`
}

func newTestRouter(repo *repoStub, uploader *uploaderStub) http.Handler {
	svc := NewService(repo, uploader, nil)
	h := NewHandler(svc, realtime.NewStreamer(nil), 1<<20)

	r := chi.NewRouter()
	r.Mount("/jewelry", h.Routes())
	r.Mount("/categories", h.CategoryRoutes())
	return r
}

func serve(t *testing.T, handler http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var env envelope
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
			t.Fatalf("unmarshal %q: %v", rr.Body.String(), err)
		}
	}
	return rr, env
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, G: 180, B: 40, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestCreateJSON(t *testing.T) {
	repo := newRepoStub()
	router := newTestRouter(repo, &uploaderStub{})

	body := `{"name":"Naszyjnik z perłą","price":249.5,"category":"necklace","image_url":"https://img.example/p.jpg"}`
	req := httptest.NewRequest(http.MethodPost, "/jewelry", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr, env := serve(t, router, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	var out SaveResponse
	_ = json.Unmarshal(env.Data, &out)
	if out.Name != "Naszyjnik z perłą" || !out.InStock || out.Image != nil {
		t.Fatalf("unexpected response %+v", out)
	}
	if len(repo.items) != 1 {
		t.Fatalf("expected one stored item, got %d", len(repo.items))
	}
}

func TestCreateJSONValidation(t *testing.T) {
	router := newTestRouter(newRepoStub(), &uploaderStub{})

	body := `{"name":"","price":0,"category":"watch"}`
	req := httptest.NewRequest(http.MethodPost, "/jewelry", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr, env := serve(t, router, req)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	for _, field := range []string{"name", "price", "category", "image_url"} {
		if _, ok := env.Error.Details[field]; !ok {
			t.Errorf("expected error for %s, got %v", field, env.Error.Details)
		}
	}
}

func TestCreateRejectsOutOfRangePrice(t *testing.T) {
	router := newTestRouter(newRepoStub(), &uploaderStub{})

	body := `{"name":"Kolia","price":1e12,"category":"necklace","image_url":"https://img.example/a.jpg"}`
	req := httptest.NewRequest(http.MethodPost, "/jewelry", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr, env := serve(t, router, req)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	if _, ok := env.Error.Details["price"]; !ok {
		t.Fatalf("expected price error, got %v", env.Error.Details)
	}

	for _, price := range []string{"Inf", "-Inf", "NaN", "1e12"} {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		_ = mw.WriteField("name", "Kolia")
		_ = mw.WriteField("price", price)
		_ = mw.WriteField("category", "necklace")
		_ = mw.WriteField("image_url", "https://img.example/a.jpg")
		_ = mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/jewelry", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())

		rr, env := serve(t, router, req)
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("price %s: expected 422, got %d", price, rr.Code)
		}
		if _, ok := env.Error.Details["price"]; !ok {
			t.Fatalf("price %s: expected price error, got %v", price, env.Error.Details)
		}
	}
}

func TestCreateMultipartUploadsImage(t *testing.T) {
	repo := newRepoStub()
	uploader := &uploaderStub{}
	router := newTestRouter(repo, uploader)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("name", "Pierścionek")
	_ = mw.WriteField("price", "99,90")
	_ = mw.WriteField("category", "ring")
	_ = mw.WriteField("in_stock", "false")
	part, _ := mw.CreateFormFile("image", "ring.png")
	_, _ = part.Write(pngBytes(t, 20, 10))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/jewelry", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr, env := serve(t, router, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	var out SaveResponse
	_ = json.Unmarshal(env.Data, &out)
	if out.Price != 99.90 || out.InStock {
		t.Fatalf("form values not bound: %+v", out)
	}
	if out.ImageURL != "https://img.example/ring.png" || out.Image == nil || out.Image.Provider != "freeimage" {
		t.Fatalf("expected uploaded image, got %+v", out)
	}
	if uploader.calls != 1 {
		t.Fatalf("expected one upload, got %d", uploader.calls)
	}
}

func TestCreateMultipartRejectsNonImage(t *testing.T) {
	uploader := &uploaderStub{}
	router := newTestRouter(newRepoStub(), uploader)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("name", "Kolczyki")
	_ = mw.WriteField("price", "10")
	_ = mw.WriteField("category", "earrings")
	part, _ := mw.CreateFormFile("image", "notes.txt")
	_, _ = part.Write([]byte("just some text, not a picture"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/jewelry", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr, _ := serve(t, router, req)
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rr.Code)
	}
	if uploader.calls != 0 {
		t.Fatal("pipeline must not run for rejected files")
	}
}

func TestListReturnsTotal(t *testing.T) {
	repo := newRepoStub(
		&Jewelry{ID: uuid.New(), Name: "A", Price: 1, Category: CategoryRing},
		&Jewelry{ID: uuid.New(), Name: "B", Price: 2, Category: CategoryBracelet},
	)
	router := newTestRouter(repo, &uploaderStub{})

	rr, env := serve(t, router, httptest.NewRequest(http.MethodGet, "/jewelry?category=ring", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if env.Meta == nil || env.Meta.Total != 1 {
		t.Fatalf("expected total 1, got %+v", env.Meta)
	}

	rr, _ = serve(t, router, httptest.NewRequest(http.MethodGet, "/jewelry?category=watch", nil))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown category, got %d", rr.Code)
	}
}

func TestGetByID(t *testing.T) {
	item := &Jewelry{ID: uuid.New(), Name: "A", Price: 1, Category: CategoryRing}
	router := newTestRouter(newRepoStub(item), &uploaderStub{})

	rr, _ := serve(t, router, httptest.NewRequest(http.MethodGet, "/jewelry/"+item.ID.String(), nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr, _ = serve(t, router, httptest.NewRequest(http.MethodGet, "/jewelry/"+uuid.NewString(), nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	rr, _ = serve(t, router, httptest.NewRequest(http.MethodGet, "/jewelry/not-a-uuid", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestPatchStock(t *testing.T) {
	item := &Jewelry{ID: uuid.New(), Name: "A", Price: 1, Category: CategoryRing, InStock: true}
	router := newTestRouter(newRepoStub(item), &uploaderStub{})

	req := httptest.NewRequest(http.MethodPatch, "/jewelry/"+item.ID.String()+"/stock", strings.NewReader(`{"in_stock":false}`))
	req.Header.Set("Content-Type", "application/json")
	rr, env := serve(t, router, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var out JewelryResponse
	_ = json.Unmarshal(env.Data, &out)
	if out.InStock {
		t.Fatal("expected in_stock=false")
	}

	req = httptest.NewRequest(http.MethodPatch, "/jewelry/"+item.ID.String()+"/stock", strings.NewReader(`{}`))
	rr, _ = serve(t, router, req)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without in_stock, got %d", rr.Code)
	}
}

func TestDeleteThenMissing(t *testing.T) {
	item := &Jewelry{ID: uuid.New(), Name: "A", Price: 1, Category: CategoryRing}
	router := newTestRouter(newRepoStub(item), &uploaderStub{})

	rr, _ := serve(t, router, httptest.NewRequest(http.MethodDelete, "/jewelry/"+item.ID.String(), nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	rr, _ = serve(t, router, httptest.NewRequest(http.MethodDelete, "/jewelry/"+item.ID.String(), nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestCategoryRoutes(t *testing.T) {
	router := newTestRouter(newRepoStub(), &uploaderStub{})

	rr, env := serve(t, router, httptest.NewRequest(http.MethodGet, "/categories", nil))
	if rr.Code != http.StatusOK || env.Meta == nil || env.Meta.Total != 4 {
		t.Fatalf("expected 4 categories, got %d %+v", rr.Code, env.Meta)
	}

	rr, env = serve(t, router, httptest.NewRequest(http.MethodGet, "/categories/earrings", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var page CategoryPageResponse
	_ = json.Unmarshal(env.Data, &page)
	if page.Category.Name != "Kolczyki" || page.Category.Icon != "auto_awesome" || page.Items == nil {
		t.Fatalf("unexpected page %+v", page)
	}
}

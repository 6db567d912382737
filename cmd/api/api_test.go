package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/africanuspanga/africa-stickers-website/internal/domain/products"
	"github.com/africanuspanga/africa-stickers-website/internal/ratelimiter"
	"github.com/africanuspanga/africa-stickers-website/internal/store"

	"github.com/speps/go-hashids/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubProductStore overrides only the methods a test exercises; calling
// anything else panics on the embedded nil interface, which is what we want.
type stubProductStore struct {
	products.Store

	adjustLikes func(ctx context.Context, id int64, delta, seed int) (int, error)
	getDetail   func(ctx context.Context, slug string) (*products.ProductDetail, error)
	getByID     func(ctx context.Context, id int64) (*products.Product, error)
	countsByCat func(ctx context.Context) ([]*products.CategoryCount, error)
}

func (s *stubProductStore) AdjustLikes(ctx context.Context, id int64, delta, seed int) (int, error) {
	return s.adjustLikes(ctx, id, delta, seed)
}

func (s *stubProductStore) GetProductDetailBySlug(ctx context.Context, slug string) (*products.ProductDetail, error) {
	return s.getDetail(ctx, slug)
}

func (s *stubProductStore) GetProductByID(ctx context.Context, id int64) (*products.Product, error) {
	return s.getByID(ctx, id)
}

func (s *stubProductStore) CountByCategory(ctx context.Context) ([]*products.CategoryCount, error) {
	return s.countsByCat(ctx)
}

func newTestApp(t *testing.T, stub *stubProductStore) *application {
	t.Helper()

	hd := hashids.NewData()
	hd.Salt = "test-salt"
	hd.MinLength = 8
	shareCodes, err := hashids.NewWithData(hd)
	require.NoError(t, err)

	return &application{
		config: config{
			env:         "test",
			frontendURL: "https://africastickers.example",
			rateLimiter: ratelimiter.Config{Enabled: false},
		},
		logger:     zap.NewNop().Sugar(),
		store:      store.Storage{Products: stub},
		shareCodes: shareCodes,
	}
}

func doRequest(t *testing.T, app *application, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	app.mount().ServeHTTP(rr, req)
	return rr
}

func TestLikeProductHandler(t *testing.T) {
	t.Run("like increments and returns the counter", func(t *testing.T) {
		var gotDelta, gotSeed int
		stub := &stubProductStore{
			adjustLikes: func(_ context.Context, id int64, delta, seed int) (int, error) {
				gotDelta, gotSeed = delta, seed
				return 13, nil
			},
		}
		app := newTestApp(t, stub)

		rr := doRequest(t, app, http.MethodPost, "/v1/products/7/like", map[string]string{"action": "like"})

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 1, gotDelta)
		assert.GreaterOrEqual(t, gotSeed, 10)
		assert.LessOrEqual(t, gotSeed, 25)

		var resp struct {
			Data struct {
				ProductID  int64 `json:"product_id"`
				LikesCount int   `json:"likes_count"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, int64(7), resp.Data.ProductID)
		assert.Equal(t, 13, resp.Data.LikesCount)
	})

	t.Run("unlike passes a negative delta", func(t *testing.T) {
		var gotDelta int
		stub := &stubProductStore{
			adjustLikes: func(_ context.Context, _ int64, delta, _ int) (int, error) {
				gotDelta = delta
				return 0, nil
			},
		}
		app := newTestApp(t, stub)

		rr := doRequest(t, app, http.MethodPost, "/v1/products/7/like", map[string]string{"action": "unlike"})

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, -1, gotDelta)
	})

	t.Run("unknown action is rejected", func(t *testing.T) {
		app := newTestApp(t, &stubProductStore{})

		rr := doRequest(t, app, http.MethodPost, "/v1/products/7/like", map[string]string{"action": "boost"})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing product maps to 404", func(t *testing.T) {
		stub := &stubProductStore{
			adjustLikes: func(_ context.Context, _ int64, _, _ int) (int, error) {
				return 0, products.ErrProductNotFound
			},
		}
		app := newTestApp(t, stub)

		rr := doRequest(t, app, http.MethodPost, "/v1/products/999/like", map[string]string{"action": "like"})

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("zero product id is rejected", func(t *testing.T) {
		app := newTestApp(t, &stubProductStore{})

		rr := doRequest(t, app, http.MethodPost, "/v1/products/0/like", map[string]string{"action": "like"})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetProductDetailHandler(t *testing.T) {
	active := func(specifications string) *products.ProductDetail {
		return &products.ProductDetail{
			Product: &products.Product{
				ID:             1,
				Name:           "Matte Vinyl Roll",
				Slug:           "matte-vinyl-roll",
				Category:       "vinyl",
				IsActive:       true,
				Specifications: json.RawMessage(specifications),
			},
			Variants: []*products.ProductVariant{},
		}
	}

	t.Run("specifications resolve into label/value rows", func(t *testing.T) {
		stub := &stubProductStore{
			getDetail: func(_ context.Context, slug string) (*products.ProductDetail, error) {
				require.Equal(t, "matte-vinyl-roll", slug)
				return active(`{"items":[{"label":"Material","value":"Vinyl","label_sw":"Nyenzo"}]}`), nil
			},
		}
		app := newTestApp(t, stub)

		rr := doRequest(t, app, http.MethodGet, "/v1/products/matte-vinyl-roll", nil)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp struct {
			Data struct {
				Specifications []struct {
					Label   string `json:"label"`
					Value   string `json:"value"`
					LabelSw string `json:"label_sw"`
				} `json:"specifications"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Data.Specifications, 1)
		assert.Equal(t, "Material", resp.Data.Specifications[0].Label)
		assert.Equal(t, "Vinyl", resp.Data.Specifications[0].Value)
		assert.Equal(t, "Nyenzo", resp.Data.Specifications[0].LabelSw)
	})

	t.Run("language-map specifications are merged", func(t *testing.T) {
		stub := &stubProductStore{
			getDetail: func(_ context.Context, _ string) (*products.ProductDetail, error) {
				return active(`{"en":{"material":"Vinyl"},"sw":{"material":{"value":"Vinyl ya plastiki"}}}`), nil
			},
		}
		app := newTestApp(t, stub)

		rr := doRequest(t, app, http.MethodGet, "/v1/products/matte-vinyl-roll", nil)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp struct {
			Data struct {
				Specifications []struct {
					Label   string `json:"label"`
					Value   string `json:"value"`
					ValueSw string `json:"value_sw"`
				} `json:"specifications"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Data.Specifications, 1)
		assert.Equal(t, "material", resp.Data.Specifications[0].Label)
		assert.Equal(t, "Vinyl", resp.Data.Specifications[0].Value)
		assert.Equal(t, "Vinyl ya plastiki", resp.Data.Specifications[0].ValueSw)
	})

	t.Run("inactive product is hidden", func(t *testing.T) {
		stub := &stubProductStore{
			getDetail: func(_ context.Context, _ string) (*products.ProductDetail, error) {
				d := active(`{}`)
				d.Product.IsActive = false
				return d, nil
			},
		}
		app := newTestApp(t, stub)

		rr := doRequest(t, app, http.MethodGet, "/v1/products/matte-vinyl-roll", nil)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("unknown slug maps to 404", func(t *testing.T) {
		stub := &stubProductStore{
			getDetail: func(_ context.Context, _ string) (*products.ProductDetail, error) {
				return nil, products.ErrProductNotFound
			},
		}
		app := newTestApp(t, stub)

		rr := doRequest(t, app, http.MethodGet, "/v1/products/nope", nil)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestShareCodeRoundTrip(t *testing.T) {
	stub := &stubProductStore{
		getByID: func(_ context.Context, id int64) (*products.Product, error) {
			if id != 42 {
				return nil, products.ErrProductNotFound
			}
			return &products.Product{ID: 42, Slug: "chrome-letters", IsActive: true}, nil
		},
	}
	app := newTestApp(t, stub)

	rr := doRequest(t, app, http.MethodGet, "/v1/products/42/share", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var shareResp struct {
		Data struct {
			Code string `json:"code"`
			URL  string `json:"url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &shareResp))
	require.NotEmpty(t, shareResp.Data.Code)
	assert.Equal(t, "https://africastickers.example/p/"+shareResp.Data.Code, shareResp.Data.URL)

	rr = doRequest(t, app, http.MethodGet, "/v1/share/"+shareResp.Data.Code, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resolveResp struct {
		Data struct {
			ProductID int64  `json:"product_id"`
			Slug      string `json:"slug"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resolveResp))
	assert.Equal(t, int64(42), resolveResp.Data.ProductID)
	assert.Equal(t, "chrome-letters", resolveResp.Data.Slug)
}

func TestResolveShareCodeUnknown(t *testing.T) {
	app := newTestApp(t, &stubProductStore{})

	rr := doRequest(t, app, http.MethodGet, "/v1/share/not-a-code", nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListCategoriesHandler(t *testing.T) {
	stub := &stubProductStore{
		countsByCat: func(_ context.Context) ([]*products.CategoryCount, error) {
			return []*products.CategoryCount{
				{ID: "vinyl", Name: "Vinyl Stickers", Count: 12},
				{ID: "reflective", Name: "Reflective Tapes", Count: 4},
			}, nil
		},
	}
	app := newTestApp(t, stub)

	rr := doRequest(t, app, http.MethodGet, "/v1/products/categories", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data struct {
			Categories []struct {
				ID    string `json:"id"`
				Name  string `json:"name"`
				Count int    `json:"count"`
			} `json:"categories"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Categories, 2)
	assert.Equal(t, "Vinyl Stickers", resp.Data.Categories[0].Name)
}

func TestAdminSessionRequired(t *testing.T) {
	app := newTestApp(t, &stubProductStore{})

	rr := doRequest(t, app, http.MethodGet, "/v1/admin/products", nil)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGenerateSlug(t *testing.T) {
	assert.Equal(t, "matte-vinyl-roll", generateSlug("Matte Vinyl Roll"))
	assert.Equal(t, "a4-sticker-sheet", generateSlug("A4 Sticker  Sheet!"))
	assert.Equal(t, "chrome", generateSlug("--Chrome--"))
}

func TestExtractPublicIDFromURL(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{
			url:  "https://res.cloudinary.com/demo/image/upload/v1712345678/africa-stickers/product_1_image_abc.webp",
			want: "africa-stickers/product_1_image_abc",
		},
		{
			url:  "https://res.cloudinary.com/demo/image/upload/africa-stickers/product_2.png",
			want: "africa-stickers/product_2",
		},
		{
			url:     "https://example.com/no/upload-segment.png",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		got, err := extractPublicIDFromURL(tc.url)
		if tc.wantErr {
			assert.Error(t, err, tc.url)
			continue
		}
		require.NoError(t, err, tc.url)
		assert.Equal(t, tc.want, got, tc.url)
	}
}

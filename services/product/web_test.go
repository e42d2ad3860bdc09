package product

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/MarcGrol/checkoutbackend/lib/myhttp"
	"github.com/MarcGrol/checkoutbackend/lib/mystore"
)

var (
	ring     = Product{UID: "p1", Name: "Silver ring", ImageURL: "https://img/p1.png", PriceInPence: 1250, Currency: "GBP"}
	necklace = Product{UID: "p2", Name: "Pearl necklace", ImageURL: "https://img/p2.png", PriceInPence: 4999, Currency: "GBP"}
	brooch   = Product{UID: "p3", Name: "Brooch", ImageURL: "", PriceInPence: 800, Currency: "GBP"}
	bracelet = Product{UID: "p4", Name: "Bracelet", ImageURL: "https://img/p4.png", PriceInPence: 2100, Currency: "GBP"}
	earrings = Product{UID: "p5", Name: "Earrings", ImageURL: "https://img/p5.png", PriceInPence: 1500, Currency: "GBP"}
)

func TestProductService(t *testing.T) {

	t.Run("List products", func(t *testing.T) {
		// setup
		ctx, router, store, _ := setup(t)

		// given
		store.Put(ctx, ring.UID, ring)
		store.Put(ctx, necklace.UID, necklace)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/product", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		resp := struct {
			Data []Product `json:"data"`
		}{}
		err = json.Unmarshal(response.Body.Bytes(), &resp)
		assert.NoError(t, err)
		assert.Equal(t, []Product{ring, necklace}, resp.Data)
	})

	t.Run("Get product not exists", func(t *testing.T) {
		// setup
		_, router, _, _ := setup(t)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/product/p9", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 404, response.Code)
		errResp := myhttp.ErrorResponse{}
		json.Unmarshal(response.Body.Bytes(), &errResp)
		assert.Equal(t, "product p9 not found", errResp.Error)
	})

	t.Run("Put product", func(t *testing.T) {
		// setup
		ctx, router, store, _ := setup(t)

		// when
		request, err := http.NewRequest(http.MethodPut, "/api/product/p1", strings.NewReader(`{"name":"Silver ring","image_url":"https://img/p1.png","price_in_pence":1250}`))
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		stored, found, _ := store.Get(ctx, "p1")
		assert.True(t, found)
		assert.Equal(t, ring, stored)
	})

	t.Run("Put product invalid", func(t *testing.T) {
		// setup
		_, router, _, _ := setup(t)

		// when
		request, err := http.NewRequest(http.MethodPut, "/api/product/p1", strings.NewReader(`{"price_in_pence":-1}`))
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 400, response.Code)
	})

	t.Run("Get products preserves order and skips unknown", func(t *testing.T) {
		// setup
		ctx, _, store, sut := setup(t)

		// given
		store.Put(ctx, ring.UID, ring)
		store.Put(ctx, necklace.UID, necklace)

		// when
		products, err := sut.GetProducts(ctx, []string{"p2", "unknown", "p1", "p2"})

		// then
		assert.NoError(t, err)
		assert.Equal(t, []Product{necklace, ring}, products)
	})

	t.Run("Related products exclude cart and require image", func(t *testing.T) {
		// setup
		ctx, _, store, sut := setup(t)

		// given
		for _, p := range []Product{ring, necklace, brooch, bracelet, earrings} {
			store.Put(ctx, p.UID, p)
		}

		for i := 0; i < 10; i++ {
			// when
			related, err := sut.RelatedProducts(ctx, []string{"p1", "p2"}, 3)

			// then
			assert.NoError(t, err)
			assert.ElementsMatch(t, []Product{bracelet, earrings}, related)
		}
	})

	t.Run("Related products limited", func(t *testing.T) {
		// setup
		ctx, _, store, sut := setup(t)

		// given
		for _, p := range []Product{ring, necklace, bracelet, earrings} {
			store.Put(ctx, p.UID, p)
		}

		// when
		related, err := sut.RelatedProducts(ctx, []string{}, 3)

		// then
		assert.NoError(t, err)
		assert.Len(t, related, 3)
	})

	t.Run("Format price", func(t *testing.T) {
		assert.Equal(t, "£12.50", ring.FormattedPrice())
		assert.Equal(t, "£0.05", FormatPence(5))
		assert.Equal(t, "-£4.99", FormatPence(-499))
	})
}

func setup(t *testing.T) (context.Context, *mux.Router, mystore.Store[Product], *webService) {
	c := context.TODO()
	store, _, _ := mystore.NewInMemoryStore[Product](c)

	sut := NewWebService(store)
	router := mux.NewRouter()
	sut.RegisterEndpoints(c, router)

	return c, router, store, sut
}

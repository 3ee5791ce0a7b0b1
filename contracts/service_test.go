package contracts_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/contract-desk/apiclient"
	"github.com/jrsteele09/contract-desk/contracts"
	deskerrors "github.com/jrsteele09/contract-desk/internal/errors"
	"github.com/jrsteele09/contract-desk/internal/utils"
	"github.com/jrsteele09/contract-desk/token"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	mux     *http.ServeMux
	service *contracts.Service
}

func setupServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := apiclient.New(server.URL+"/api", token.NewHolder())
	require.NoError(t, err)
	service, err := contracts.NewService(client)
	require.NoError(t, err)

	return &serviceFixture{mux: mux, service: service}
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestServiceList(t *testing.T) {
	f := setupServiceFixture(t)
	f.mux.HandleFunc("GET /api/contracts", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "2", q.Get("page"))
		require.Equal(t, "100", q.Get("per_page"))
		require.Equal(t, "강남", q.Get("q"))
		require.Equal(t, "WOLSE", q.Get("type"))
		respond(w, http.StatusOK, map[string]any{
			"contracts": []map[string]any{{"id": 3, "type": "WOLSE", "deposit": 1000, "monthly_rent": 50}},
			"page":      2, "pages": 2, "total": 21,
		})
	})

	page, err := f.service.List(context.Background(), contracts.ListParams{Page: 2, PerPage: 500, Query: " 강남 ", Type: contracts.TypeWolse})
	require.NoError(t, err)
	require.Equal(t, 21, page.Total)
	require.Len(t, page.Contracts, 1)
	require.Equal(t, int64(50), page.Contracts[0].MonthlyRent)
}

func TestServiceGetAndNotFound(t *testing.T) {
	f := setupServiceFixture(t)
	f.mux.HandleFunc("GET /api/contracts/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "9" {
			respond(w, http.StatusNotFound, map[string]string{"error": "Contract not found"})
			return
		}
		respond(w, http.StatusOK, map[string]any{"contract": map[string]any{
			"id": 9, "type": "SALE", "doc_no": "CONTRACT_20240101_ABCDEF",
			"signatures": []map[string]any{{"id": 1, "role": "SELLER"}},
		}})
	})

	c, err := f.service.Get(context.Background(), 9)
	require.NoError(t, err)
	require.Equal(t, "CONTRACT_20240101_ABCDEF", c.DocNo)
	require.Equal(t, contracts.RoleSeller, c.Signatures[0].Role)

	_, err = f.service.Get(context.Background(), 10)
	require.ErrorIs(t, err, deskerrors.ErrNotFound)
	require.Contains(t, err.Error(), "[contracts.Get] 10")
	require.Equal(t, "Contract not found", apiclient.Message(err))
	var httpErr *apiclient.HTTPError
	require.True(t, errors.As(errors.Cause(err), &httpErr), "the API error is the root cause")
	require.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestServiceCreate(t *testing.T) {
	f := setupServiceFixture(t)
	var got map[string]any
	f.mux.HandleFunc("POST /api/contracts", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		respond(w, http.StatusCreated, map[string]any{"id": 42})
	})

	id, err := f.service.Create(context.Background(), &contracts.CreateRequest{
		Type:      contracts.TypeSale,
		Address:   "서울시 마포구",
		Parties:   validParties(),
		SalePrice: utils.Ptr[int64](900000000),
	})
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
	require.Equal(t, "서울시 마포구", got["property_address_full"])
	require.NotContains(t, got, "deposit")
}

func TestServiceCreateRejectsLocallyInvalid(t *testing.T) {
	f := setupServiceFixture(t)
	called := false
	f.mux.HandleFunc("POST /api/contracts", func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := f.service.Create(context.Background(), &contracts.CreateRequest{Type: contracts.TypeSale})
	var verr contracts.ValidationError
	require.ErrorAs(t, err, &verr)
	require.False(t, called)
}

func TestServiceCreateSurfacesServerValidation(t *testing.T) {
	f := setupServiceFixture(t)
	f.mux.HandleFunc("POST /api/contracts", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusBadRequest, map[string]any{
			"error":   "VALIDATION_ERROR",
			"details": map[string]string{"property_address_full": "부동산 주소는 필수입니다"},
		})
	})

	_, err := f.service.Create(context.Background(), &contracts.CreateRequest{
		Type: contracts.TypeJeonse, Address: "x", Parties: validParties(), Deposit: utils.Ptr[int64](1),
	})
	var verr contracts.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "부동산 주소는 필수입니다", verr["property_address_full"])
}

func TestServiceDelete(t *testing.T) {
	f := setupServiceFixture(t)
	f.mux.HandleFunc("DELETE /api/contracts/{id}", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, map[string]any{"message": "deleted", "deleted_id": 5})
	})
	require.NoError(t, f.service.Delete(context.Background(), 5))
}

func TestServicePDF(t *testing.T) {
	f := setupServiceFixture(t)
	f.mux.HandleFunc("GET /api/contracts/{id}/pdf", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/pdf", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 final"))
	})
	f.mux.HandleFunc("GET /api/contracts/{id}/pdf/preview", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 preview " + r.URL.Query().Get("include")))
	})
	f.mux.HandleFunc("GET /api/contracts/{id}/pdf/info", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, map[string]any{"contract_id": 1, "doc_no": "D", "pdf_hash": "abc", "form_version": "v1"})
	})

	pdf, err := f.service.PDF(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4 final", string(pdf))

	pdf, err = f.service.PDFPreview(context.Background(), 1, true, true)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4 preview signatures,stamps", string(pdf))

	info, err := f.service.PDFInfo(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "abc", info.PDFHash)
}

func TestServiceUploadSignature(t *testing.T) {
	f := setupServiceFixture(t)
	var role string
	f.mux.HandleFunc("PUT /api/contracts/{id}/signatures/{role}", func(w http.ResponseWriter, r *http.Request) {
		role = r.PathValue("role")
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Contains(t, body["image"], "data:image/png;base64,")
		respond(w, http.StatusOK, map[string]any{"ok": true, "signature": map[string]any{"id": 4, "role": role, "signed_at": "2024-06-01T00:00:00"}})
	})

	dataURL := contracts.EncodeDataURL("image/png", []byte("signature-bytes"))
	sig, err := f.service.UploadSignature(context.Background(), 1, contracts.TypeSale, contracts.RoleBroker, dataURL)
	require.NoError(t, err)
	require.Equal(t, "AGENT", role)
	require.Equal(t, int64(4), sig.ID)

	_, err = f.service.UploadSignature(context.Background(), 1, contracts.TypeSale, contracts.RoleSeller, "not a data url")
	require.ErrorIs(t, err, contracts.ErrInvalidDataURL)
}

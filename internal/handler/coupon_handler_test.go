package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puppymart/rewards-service/internal/model"
	"github.com/puppymart/rewards-service/internal/service"
	"github.com/puppymart/rewards-service/internal/validator"
)

// mockCouponService is a mock implementation of CouponServiceInterface.
type mockCouponService struct {
	createFn    func(ctx context.Context, req *model.CreateCouponRequest) error
	getByCodeFn func(ctx context.Context, rawCode string) (*model.Coupon, error)
	validateFn  func(ctx context.Context, rawCode string) (*model.ValidateCouponResponse, error)
}

func (m *mockCouponService) Create(ctx context.Context, req *model.CreateCouponRequest) error {
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return nil
}

func (m *mockCouponService) GetByCode(ctx context.Context, rawCode string) (*model.Coupon, error) {
	if m.getByCodeFn != nil {
		return m.getByCodeFn(ctx, rawCode)
	}
	return nil, nil
}

func (m *mockCouponService) Validate(ctx context.Context, rawCode string) (*model.ValidateCouponResponse, error) {
	if m.validateFn != nil {
		return m.validateFn(ctx, rawCode)
	}
	return &model.ValidateCouponResponse{Valid: true}, nil
}

func setupCouponApp(mockSvc *mockCouponService) *fiber.App {
	app := fiber.New()
	h := NewCouponHandler(mockSvc, validator.New())
	app.Post("/api/coupons", h.CreateCoupon)
	app.Get("/api/coupons/:code", h.GetCoupon)
	app.Post("/api/coupons/validate", h.ValidateCoupon)
	return app
}

func jsonBody(s string) *bytes.Buffer {
	return bytes.NewBufferString(s)
}

func postJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, dst))
}

func TestCreateCoupon_Success(t *testing.T) {
	mockSvc := &mockCouponService{
		createFn: func(ctx context.Context, req *model.CreateCouponRequest) error {
			return nil
		},
	}
	app := setupCouponApp(mockSvc)

	resp := postJSON(t, app, "/api/coupons", `{"code": "L-L1-2254-ABD4X", "orbit_value": 25}`)

	assert.Equal(t, fiber.StatusCreated, resp.StatusCode, "Expected 201 Created")

	respBody, _ := io.ReadAll(resp.Body)
	assert.Empty(t, respBody, "Response body should be empty on success")
}

func TestCreateCoupon_MissingCode(t *testing.T) {
	app := setupCouponApp(&mockCouponService{})

	resp := postJSON(t, app, "/api/coupons", `{"orbit_value": 25}`)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "invalid request: code is required", body["error"])
}

func TestCreateCoupon_PartialCode(t *testing.T) {
	app := setupCouponApp(&mockCouponService{})

	resp := postJSON(t, app, "/api/coupons", `{"code": "L-L1-2254", "orbit_value": 25}`)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "invalid request: code is not a full coupon code", body["error"])
}

func TestCreateCoupon_Duplicate(t *testing.T) {
	mockSvc := &mockCouponService{
		createFn: func(ctx context.Context, req *model.CreateCouponRequest) error {
			return service.ErrCouponExists
		},
	}
	app := setupCouponApp(mockSvc)

	resp := postJSON(t, app, "/api/coupons", `{"code": "L-L1-2254-ABD4X", "orbit_value": 25}`)

	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestGetCoupon_Success(t *testing.T) {
	mockSvc := &mockCouponService{
		getByCodeFn: func(ctx context.Context, rawCode string) (*model.Coupon, error) {
			return &model.Coupon{Code: "LL12254ABD4X", OrbitValue: 25, Status: model.CouponStatusActive}, nil
		},
	}
	app := setupCouponApp(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/coupons/LL12254ABD4X", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var coupon model.Coupon
	decodeBody(t, resp, &coupon)
	assert.Equal(t, "LL12254ABD4X", coupon.Code)
	assert.Equal(t, 25, coupon.OrbitValue)
}

func TestGetCoupon_NotFound(t *testing.T) {
	mockSvc := &mockCouponService{
		getByCodeFn: func(ctx context.Context, rawCode string) (*model.Coupon, error) {
			return nil, service.ErrCouponNotFound
		},
	}
	app := setupCouponApp(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/coupons/UNKNOWN99999", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestValidateCoupon_ValidVerdict(t *testing.T) {
	mockSvc := &mockCouponService{
		validateFn: func(ctx context.Context, rawCode string) (*model.ValidateCouponResponse, error) {
			assert.Equal(t, "L-L1-2254-ABD4X", rawCode, "handler passes the masked input through")
			return &model.ValidateCouponResponse{Valid: true}, nil
		},
	}
	app := setupCouponApp(mockSvc)

	resp := postJSON(t, app, "/api/coupons/validate", `{"code": "L-L1-2254-ABD4X"}`)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var verdict model.ValidateCouponResponse
	decodeBody(t, resp, &verdict)
	assert.True(t, verdict.Valid)
}

func TestValidateCoupon_InvalidVerdictIsStill200(t *testing.T) {
	mockSvc := &mockCouponService{
		validateFn: func(ctx context.Context, rawCode string) (*model.ValidateCouponResponse, error) {
			return &model.ValidateCouponResponse{Valid: false, Message: "coupon not found"}, nil
		},
	}
	app := setupCouponApp(mockSvc)

	resp := postJSON(t, app, "/api/coupons/validate", `{"code": "ZZ99999999ZZ"}`)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "a negative verdict is not a transport error")

	var verdict model.ValidateCouponResponse
	decodeBody(t, resp, &verdict)
	assert.False(t, verdict.Valid)
	assert.Equal(t, "coupon not found", verdict.Message)
}

func TestValidateCoupon_ServiceError(t *testing.T) {
	mockSvc := &mockCouponService{
		validateFn: func(ctx context.Context, rawCode string) (*model.ValidateCouponResponse, error) {
			return nil, errors.New("database connection failed")
		},
	}
	app := setupCouponApp(mockSvc)

	resp := postJSON(t, app, "/api/coupons/validate", `{"code": "L-L1-2254-ABD4X"}`)

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "failed to validate, try again", body["error"])
}

func TestValidateCoupon_BlankCode(t *testing.T) {
	app := setupCouponApp(&mockCouponService{})

	resp := postJSON(t, app, "/api/coupons/validate", `{"code": "   "}`)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

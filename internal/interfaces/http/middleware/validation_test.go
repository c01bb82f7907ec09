package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/schoolerp/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleValidationError(t *testing.T) {
	type chalanQuery struct {
		StudentID string `json:"studentId" binding:"required"`
		DueDate   string `json:"dueDate" binding:"required,datetime=2006-01-02"`
		Format    string `json:"format" binding:"omitempty,oneof=html pdf"`
	}

	SetupValidator()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req chalanQuery
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req))
	})

	t.Run("reports each failing field by json name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"dueDate":"20-03-2024","format":"doc"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(RequestIDKey, "req-42")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "req-42", resp.Error.RequestID)

		byField := map[string]string{}
		for _, d := range resp.Error.Details {
			byField[d.Field] = d.Message
		}
		assert.Equal(t, map[string]string{
			"studentId": "This field is required",
			"dueDate":   "Must be a date in 2006-01-02 format",
			"format":    "Must be one of: html pdf",
		}, byField)
	})

	t.Run("passes valid input through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"studentId":"s1","dueDate":"2024-03-20"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("malformed json yields no details", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NotContains(t, w.Body.String(), `"details"`)
	})
}

func TestValidationMessage(t *testing.T) {
	type sample struct {
		Name  string `validate:"min=5"`
		Short string `validate:"max=3"`
		Count int    `validate:"gte=10"`
		Kind  string `validate:"oneof=income expense"`
	}

	err := validator.New().Struct(sample{Name: "ab", Short: "long", Count: 1, Kind: "gift"})
	require.Error(t, err)

	got := map[string]string{}
	for _, e := range err.(validator.ValidationErrors) {
		got[e.Field()] = ValidationMessage(e)
	}
	assert.Equal(t, "Must be at least 5 characters", got["Name"])
	assert.Equal(t, "Must be at most 3 characters", got["Short"])
	assert.Equal(t, "Must be greater than or equal to 10", got["Count"])
	assert.Equal(t, "Must be one of: income expense", got["Kind"])
}

func TestValidationDetails_NonValidatorError(t *testing.T) {
	assert.Nil(t, ValidationDetails(assert.AnError))
}

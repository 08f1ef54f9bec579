package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestStaffHandlerListUnknownRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewStaffHandler(nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/staff?role=JANITOR", nil)
	c.Request = req

	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStaffHandlerGetByLoginMissingParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewStaffHandler(nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/staff/by-login", nil)
	c.Request = req

	handler.GetByLogin(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStaffHandlerUpdateWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewStaffHandler(nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/staff/ENS20261234", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "code", Value: "ENS20261234"}}

	handler.Update(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

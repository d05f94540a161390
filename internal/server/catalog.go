package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	citydomain "github.com/smallbiznis/shipdesk/internal/city/domain"
	currencydomain "github.com/smallbiznis/shipdesk/internal/currency/domain"
	paymentmethoddomain "github.com/smallbiznis/shipdesk/internal/paymentmethod/domain"
	shippingcompanydomain "github.com/smallbiznis/shipdesk/internal/shippingcompany/domain"
	storedomain "github.com/smallbiznis/shipdesk/internal/store/domain"
)

// -------- Payment methods --------

func (s *Server) ListPaymentMethods(c *gin.Context) {
	active, err := queryFlag("active", c.Query("active"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.paymentMethodSvc.List(c.Request.Context(), active)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreatePaymentMethod(c *gin.Context) {
	var req paymentmethoddomain.CreatePaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.paymentMethodSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetPaymentMethod(c *gin.Context) {
	resp, err := s.paymentMethodSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdatePaymentMethod(c *gin.Context) {
	var req paymentmethoddomain.UpdatePaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.paymentMethodSvc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PatchPaymentMethod(c *gin.Context) {
	fields, ok := bindPatch(c)
	if !ok {
		return
	}
	resp, err := s.paymentMethodSvc.Patch(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeletePaymentMethod(c *gin.Context) {
	if err := s.paymentMethodSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// -------- Currencies --------

func (s *Server) ListCurrencies(c *gin.Context) {
	active, err := queryFlag("active", c.Query("active"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.currencySvc.List(c.Request.Context(), active)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateCurrency(c *gin.Context) {
	var req currencydomain.CreateCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.currencySvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetCurrency(c *gin.Context) {
	resp, err := s.currencySvc.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateCurrency(c *gin.Context) {
	var req currencydomain.UpdateCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.currencySvc.Update(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PatchCurrency(c *gin.Context) {
	fields, ok := bindPatch(c)
	if !ok {
		return
	}
	resp, err := s.currencySvc.Patch(c.Request.Context(), c.Param("code"), fields)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteCurrency(c *gin.Context) {
	if err := s.currencySvc.Delete(c.Request.Context(), c.Param("code")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) SetDefaultCurrency(c *gin.Context) {
	resp, err := s.currencySvc.SetDefault(c.Request.Context(), c.Param("code"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ConvertCurrency(c *gin.Context) {
	amount, err := decimal.NewFromString(strings.TrimSpace(c.Query("amount")))
	if err != nil {
		AbortWithError(c, newValidationError("amount", "invalid_amount", "invalid amount"))
		return
	}
	resp, err := s.currencySvc.Convert(c.Request.Context(), currencydomain.ConvertRequest{
		Amount: amount,
		From:   c.Query("from"),
		To:     c.Query("to"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// -------- Cities --------

func (s *Server) ListCities(c *gin.Context) {
	active, err := queryFlag("active", c.Query("active"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.citySvc.List(c.Request.Context(), citydomain.ListCityRequest{
		Search:     strings.TrimSpace(c.Query("search")),
		ActiveOnly: active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateCity(c *gin.Context) {
	var req citydomain.CreateCityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.citySvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetCity(c *gin.Context) {
	resp, err := s.citySvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateCity(c *gin.Context) {
	var req citydomain.UpdateCityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.citySvc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PatchCity(c *gin.Context) {
	fields, ok := bindPatch(c)
	if !ok {
		return
	}
	resp, err := s.citySvc.Patch(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteCity(c *gin.Context) {
	if err := s.citySvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// -------- Stores --------

func (s *Server) ListStores(c *gin.Context) {
	active, err := queryFlag("active", c.Query("active"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.storeSvc.List(c.Request.Context(), active)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateStore(c *gin.Context) {
	var req storedomain.CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.storeSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetStore(c *gin.Context) {
	resp, err := s.storeSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateStore(c *gin.Context) {
	var req storedomain.UpdateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.storeSvc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PatchStore(c *gin.Context) {
	fields, ok := bindPatch(c)
	if !ok {
		return
	}
	resp, err := s.storeSvc.Patch(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteStore(c *gin.Context) {
	if err := s.storeSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// -------- Shipping companies --------

func (s *Server) ListShippingCompanies(c *gin.Context) {
	active, err := queryFlag("active", c.Query("active"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.shippingCompanySvc.List(c.Request.Context(), active)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateShippingCompany(c *gin.Context) {
	var req shippingcompanydomain.CreateShippingCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.shippingCompanySvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetShippingCompany(c *gin.Context) {
	resp, err := s.shippingCompanySvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateShippingCompany(c *gin.Context) {
	var req shippingcompanydomain.UpdateShippingCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.shippingCompanySvc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PatchShippingCompany(c *gin.Context) {
	fields, ok := bindPatch(c)
	if !ok {
		return
	}
	resp, err := s.shippingCompanySvc.Patch(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteShippingCompany(c *gin.Context) {
	if err := s.shippingCompanySvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

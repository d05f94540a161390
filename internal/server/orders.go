package server

import (
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/smallbiznis/shipdesk/internal/order/domain"
	"github.com/smallbiznis/shipdesk/pkg/db/pagination"
)

type listOrdersQuery struct {
	pagination.Pagination
	Status   string `form:"status"`
	StoreID  string `form:"store_id"`
	ClientID string `form:"client_id"`
	Search   string `form:"search"`
	From     string `form:"from"`
	To       string `form:"to"`
	Demo     string `form:"demo"`
}

func (s *Server) ListOrders(c *gin.Context) {
	var query listOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	from, to, err := dateRange("from", query.From, "to", query.To)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	demo, err := queryFlag("demo", query.Demo)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.orderSvc.List(c.Request.Context(), orderdomain.ListOrderRequest{
		Pagination: query.Pagination,
		Status:     strings.TrimSpace(query.Status),
		StoreID:    strings.TrimSpace(query.StoreID),
		ClientID:   strings.TrimSpace(query.ClientID),
		Search:     strings.TrimSpace(query.Search),
		From:       from,
		To:         to,
		DemoOnly:   demo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp.Orders, "page_info": resp.PageInfo})
}

func (s *Server) CreateOrder(c *gin.Context) {
	var req orderdomain.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.orderSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetOrder(c *gin.Context) {
	resp, err := s.orderSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateOrderStatus(c *gin.Context) {
	var req orderdomain.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.orderSvc.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteOrder(c *gin.Context) {
	if err := s.orderSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// OrderWhatsApp renders the status message for an order in the requested
// language together with a click-to-chat link.
func (s *Server) OrderWhatsApp(c *gin.Context) {
	ctx := c.Request.Context()
	order, err := s.orderSvc.Get(ctx, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	message, err := s.settingsSvc.RenderWhatsApp(ctx, order, c.Query("lang"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"message": message,
		"url":     whatsAppLink(order.ClientPhone, message),
	}})
}

func whatsAppLink(phone, message string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(message)
}

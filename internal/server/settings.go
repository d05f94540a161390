package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	appsettingsdomain "github.com/smallbiznis/shipdesk/internal/appsettings/domain"
	companydomain "github.com/smallbiznis/shipdesk/internal/company/domain"
)

// maxUploadBytes bounds logo and spreadsheet uploads read into memory.
const maxUploadBytes = 20 << 20

func (s *Server) GetCompany(c *gin.Context) {
	resp, err := s.companySvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SaveCompany(c *gin.Context) {
	var req companydomain.SaveCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.companySvc.Save(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PatchCompany(c *gin.Context) {
	fields, ok := bindPatch(c)
	if !ok {
		return
	}
	resp, err := s.companySvc.Patch(c.Request.Context(), fields)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UploadLogo(c *gin.Context) {
	_, data, ok := readUpload(c, "file")
	if !ok {
		return
	}
	resp, err := s.companySvc.UploadLogo(c.Request.Context(), data)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RemoveLogo(c *gin.Context) {
	resp, err := s.companySvc.RemoveLogo(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetAppSettings(c *gin.Context) {
	resp, err := s.settingsSvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SaveAppSettings(c *gin.Context) {
	var req appsettingsdomain.SaveAppSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.settingsSvc.Save(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PatchAppSettings(c *gin.Context) {
	fields, ok := bindPatch(c)
	if !ok {
		return
	}
	resp, err := s.settingsSvc.Patch(c.Request.Context(), fields)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListZones(c *gin.Context) {
	resp, err := s.settingsSvc.Zones(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AddZone(c *gin.Context) {
	var req appsettingsdomain.ShippingZone
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.settingsSvc.AddZone(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateZone(c *gin.Context) {
	var req appsettingsdomain.ShippingZone
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.settingsSvc.UpdateZone(c.Request.Context(), c.Param("name"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteZone(c *gin.Context) {
	if err := s.settingsSvc.DeleteZone(c.Request.Context(), c.Param("name")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) QuoteShipping(c *gin.Context) {
	city := strings.TrimSpace(c.Query("city"))
	if city == "" {
		AbortWithError(c, newValidationError("city", "required", "city is required"))
		return
	}
	resp, err := s.settingsSvc.QuoteShipping(c.Request.Context(), city)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTemplates(c *gin.Context) {
	resp, err := s.settingsSvc.Templates(c.Request.Context(), c.Param("lang"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetTemplates(c *gin.Context) {
	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.settingsSvc.SetTemplates(c.Request.Context(), c.Param("lang"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// bindPatch decodes a partial update keyed by app-side field names.
func bindPatch(c *gin.Context) (map[string]any, bool) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil || len(fields) == 0 {
		AbortWithError(c, invalidRequestError())
		return nil, false
	}
	return fields, true
}

func readUpload(c *gin.Context, field string) (string, []byte, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		AbortWithError(c, newValidationError(field, "required", field+" is required"))
		return "", nil, false
	}
	if header.Size > maxUploadBytes {
		AbortWithError(c, newValidationError(field, "too_large", "file is too large"))
		return "", nil, false
	}
	f, err := header.Open()
	if err != nil {
		AbortWithError(c, err)
		return "", nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		AbortWithError(c, err)
		return "", nil, false
	}
	return header.Filename, data, true
}

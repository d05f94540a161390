package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/shipdesk/internal/spreadsheet"
)

type exportQuery struct {
	Format string `form:"format"`
	Status string `form:"status"`
	From   string `form:"from"`
	To     string `form:"to"`
	Demo   string `form:"demo"`
}

func (s *Server) Export(c *gin.Context) {
	var query exportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	format, err := spreadsheet.ParseFormat(query.Format)
	if err != nil {
		AbortWithError(c, err)
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

	file, err := s.sheets.Export(c.Request.Context(), spreadsheet.ExportRequest{
		Entity:   c.Param("entity"),
		Format:   format,
		Status:   strings.TrimSpace(query.Status),
		From:     from,
		To:       to,
		DemoOnly: demo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func (s *Server) Import(c *gin.Context) {
	filename, data, ok := readUpload(c, "file")
	if !ok {
		return
	}

	result, err := s.sheets.Import(c.Request.Context(), spreadsheet.ImportRequest{
		Entity:   c.Param("entity"),
		Filename: filename,
		Data:     data,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

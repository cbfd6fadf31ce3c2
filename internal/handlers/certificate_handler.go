package handlers

import (
	"fmt"
	"net/http"

	"assessment-service/internal/dto"
	"assessment-service/internal/service"

	"github.com/gin-gonic/gin"
)

type CertificateHandler struct {
	certificateService service.CertificateService
}

func NewCertificateHandler(certificateService service.CertificateService) *CertificateHandler {
	return &CertificateHandler{
		certificateService: certificateService,
	}
}

func (h *CertificateHandler) List(c *gin.Context) {
	userID := c.GetString("user_id")

	certs, err := h.certificateService.ListMine(c.Request.Context(), userID)
	if err != nil {
		dto.FromError(c, err)
		return
	}

	resp := make([]dto.CertificateResponse, len(certs))
	for i, cert := range certs {
		resp[i] = dto.NewCertificateResponse(cert)
	}

	dto.JsonSuccess(c, http.StatusOK, resp)
}

// Download streams the certificate PDF, rendering it on first access.
func (h *CertificateHandler) Download(c *gin.Context) {
	userID := c.GetString("user_id")
	certificateID := c.Param("certificateId")

	pdfBytes, err := h.certificateService.Download(c.Request.Context(), userID, certificateID)
	if err != nil {
		dto.FromError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=certificate-%s.pdf", certificateID))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

package public

import (
	"errors"
	"io"
	"net/http"

	"github.com/bluepay/internal/http/response"
	"github.com/bluepay/internal/storage"

	"github.com/gin-gonic/gin"
)

// GetProof 通过限时链接读取付款凭证
func (h *Handler) GetProof(c *gin.Context) {
	rc, contentType, err := h.ProofService.Open(c.Request.Context(), c.Param("token"))
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrLinkExpired):
			respondError(c, response.CodeForbidden, "error.proof_link_expired", nil)
		case errors.Is(err, storage.ErrLinkInvalid), errors.Is(err, storage.ErrInvalidKey):
			respondError(c, response.CodeForbidden, "error.proof_link_invalid", nil)
		case errors.Is(err, storage.ErrBlobNotFound):
			respondError(c, response.CodeNotFound, "error.proof_not_found", nil)
		default:
			respondError(c, response.CodeInternal, "error.proof_storage_failed", err)
		}
		return
	}
	defer rc.Close()

	c.Header("Cache-Control", "private, max-age=300")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)
	c.Header("Content-Type", contentType)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		requestLog(c).Warnw("proof_stream_failed", "error", err)
	}
}

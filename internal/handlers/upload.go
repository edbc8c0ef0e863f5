package handlers

import (
	"net/http"

	"github.com/rockquest/rockquest-backend/internal/apierror"
)

// UploadImage uploads a post or rock image ahead of creation and returns the
// hosted URL to reference in the follow-up request.
func UploadImage(w http.ResponseWriter, r *http.Request) {
	if cloudinaryService == nil {
		apierror.Write(w, apierror.New(apierror.KindInternal, "uploads are not configured"))
		return
	}

	if err := r.ParseMultipartForm(maxScanImageBytes); err != nil {
		apierror.Write(w, apierror.Validation("failed to parse multipart form"))
		return
	}
	_, fileHeader, err := r.FormFile("file")
	if err != nil {
		apierror.Write(w, apierror.Validation("no file provided"))
		return
	}

	url, err := cloudinaryService.UploadFileFromHeader(r.Context(), fileHeader, uploadFolder)
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "upload failed", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"url":     url,
	})
}

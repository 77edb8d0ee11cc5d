package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// maxUploadBytes caps blog image uploads at 5MB.
const maxUploadBytes = 5 << 20

// UploadHandler stores blog images under Dir and hands back the public
// URL. Only image MIME types are accepted; the type is sniffed from the
// file contents, not taken from the client.
type UploadHandler struct {
	Dir string
}

func NewUploadHandler(dir string) *UploadHandler {
	return &UploadHandler{Dir: dir}
}

func (h *UploadHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		fail(c, http.StatusBadRequest, "Please choose an image file")
		return
	}

	if fileHeader.Size > maxUploadBytes {
		fail(c, http.StatusBadRequest, "File is too large. Maximum size is 5MB.")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		log.Error().Err(err).Msg("opening upload failed")
		fail(c, http.StatusInternalServerError, serverErrorMessage)
		return
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil || !strings.HasPrefix(mtype.String(), "image/") {
		fail(c, http.StatusBadRequest, "Only image files can be uploaded")
		return
	}

	name := uuid.NewString() + mtype.Extension()
	if err := c.SaveUploadedFile(fileHeader, filepath.Join(h.Dir, name)); err != nil {
		log.Error().Err(err).Str("file", name).Msg("saving upload failed")
		fail(c, http.StatusInternalServerError, serverErrorMessage)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"imageUrl": "/uploads/" + name,
	})
}

package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kenshuhub/kenshuhub-backend/internal/http/response"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/services"
)

type VideoHandler struct {
	videoService services.VideoService
}

func NewVideoHandler(videoService services.VideoService) *VideoHandler {
	return &VideoHandler{videoService: videoService}
}

func (vh *VideoHandler) Upload(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())

	file, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	input := services.UploadVideoInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Summary:     c.PostForm("summary"),
	}
	if raw := strings.TrimSpace(c.PostForm("category_id")); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_category_id", err)
			return
		}
		input.CategoryID = &categoryID
	}
	if raw := strings.TrimSpace(c.PostForm("transcribe")); raw != "" {
		input.Transcribe, _ = strconv.ParseBool(raw)
	}

	video, err := vh.videoService.Upload(c.Request.Context(), rc, input, file)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, video)
}

func (vh *VideoHandler) Update(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var input services.UpdateVideoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	video, err := vh.videoService.Update(c.Request.Context(), rc, id, input)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, video)
}

func (vh *VideoHandler) Delete(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := vh.videoService.Delete(c.Request.Context(), rc, id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (vh *VideoHandler) List(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	videos, err := vh.videoService.List(c.Request.Context(), rc)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"videos": videos})
}

// Stream writes the raw file. Range requests are not honored; browsers
// buffer progressive MP4 without them.
func (vh *VideoHandler) Stream(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	rd, video, err := vh.videoService.OpenStream(c.Request.Context(), rc, id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	defer rd.Close()

	c.Header("Content-Type", contentTypeFor(video.Filename))
	c.Header("Cache-Control", "private, max-age=3600")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rd); err != nil {
		// Client disconnects are routine here; nothing useful to send back.
		return
	}
}

func (vh *VideoHandler) Transcripts(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	transcripts, err := vh.videoService.Transcripts(c.Request.Context(), rc, id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"transcripts": transcripts})
}

func contentTypeFor(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".webm"):
		return "video/webm"
	case strings.HasSuffix(filename, ".mov"):
		return "video/quicktime"
	case strings.HasSuffix(filename, ".mkv"):
		return "video/x-matroska"
	case strings.HasSuffix(filename, ".avi"):
		return "video/x-msvideo"
	default:
		return "video/mp4"
	}
}

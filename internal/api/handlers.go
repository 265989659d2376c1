package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"quantumelodic/internal/contacts"
	"quantumelodic/internal/kv"
	"quantumelodic/internal/queue"
	"quantumelodic/internal/storage"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type subscribeRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (s *Server) handleSubscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failJSON(c, http.StatusBadRequest, "Valid email is required")
		return
	}
	key, err := s.contacts.Record(c.Request.Context(), req.Email, req.Name, req.Message)
	if err != nil {
		if errors.Is(err, contacts.ErrInvalidEmail) {
			failJSON(c, http.StatusBadRequest, "Valid email is required")
			return
		}
		s.log.Error("contact store failed", "email", req.Email, "error", err)
		failJSON(c, http.StatusInternalServerError, "Failed to process subscription")
		return
	}
	s.log.Info("new contact submission", "email", req.Email, "key", key)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Successfully subscribed to the contact list",
	})
}

func (s *Server) handleContacts(c *gin.Context) {
	records, err := s.contacts.All(c.Request.Context())
	if err != nil {
		s.log.Error("contact listing failed", "error", err)
		failJSON(c, http.StatusInternalServerError, "Failed to fetch contacts")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"count":    len(records),
		"contacts": records,
	})
}

// ---- audio ----

func (s *Server) handleAudioUpload(c *gin.Context) {
	s.handleUpload(c, storage.CategoryAudio, "audio")
}

func (s *Server) handleAudioList(c *gin.Context) {
	s.handleList(c, storage.CategoryAudio, "audio")
}

func (s *Server) handleAudioURL(c *gin.Context) {
	fileName := c.Param("fileName")
	grant, err := s.resolver.ResolveAudio(c.Request.Context(), fileName)
	if err != nil {
		s.respondResolveError(c, fileName, "audio", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "url": grant.URL})
}

func (s *Server) handleAudioAnalysis(c *gin.Context) {
	fileName := c.Param("fileName")
	value, err := s.store.Get(c.Request.Context(), queue.AnalysisKey(fileName))
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			failJSON(c, http.StatusNotFound, "No analysis available")
			return
		}
		s.log.Error("analysis lookup failed", "file", fileName, "error", err)
		failJSON(c, http.StatusInternalServerError, "Failed to fetch analysis")
		return
	}
	c.Data(http.StatusOK, "application/json",
		[]byte(fmt.Sprintf(`{"success":true,"analysis":%s}`, value)))
}

func (s *Server) handleAudioDelete(c *gin.Context) {
	fileName := c.Param("fileName")
	if err := s.gateway.Delete(c.Request.Context(), storage.CategoryAudio, fileName); err != nil {
		s.log.Error("audio delete failed", "file", fileName, "error", err)
		failJSON(c, http.StatusInternalServerError, "Failed to delete audio file")
		return
	}
	// The analysis sidecar goes with the object. Best effort.
	if err := s.store.Delete(c.Request.Context(), queue.AnalysisKey(fileName)); err != nil {
		s.log.Error("analysis cleanup failed", "file", fileName, "error", err)
	}
	s.log.Info("audio deleted", "file", fileName)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Audio file deleted successfully"})
}

// ---- images ----

func (s *Server) handleImageUpload(c *gin.Context) {
	s.handleUpload(c, storage.CategoryImage, "image")
}

func (s *Server) handleImageList(c *gin.Context) {
	s.handleList(c, storage.CategoryImage, "image")
}

func (s *Server) handleImageURL(c *gin.Context) {
	fileName := c.Param("fileName")
	grant, err := s.resolver.ResolveImage(c.Request.Context(), fileName)
	if err != nil {
		s.respondResolveError(c, fileName, "image", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "url": grant.URL})
}

func (s *Server) handleImageDelete(c *gin.Context) {
	fileName := c.Param("fileName")
	if err := s.gateway.Delete(c.Request.Context(), storage.CategoryImage, fileName); err != nil {
		s.log.Error("image delete failed", "file", fileName, "error", err)
		failJSON(c, http.StatusInternalServerError, "Failed to delete image file")
		return
	}
	s.log.Info("image deleted", "file", fileName)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Image file deleted successfully"})
}

// ---- shared plumbing ----

func (s *Server) handleUpload(c *gin.Context, cat storage.Category, kind string) {
	file, err := c.FormFile("file")
	if err != nil {
		failJSON(c, http.StatusBadRequest, "No file provided")
		return
	}
	fileName := c.PostForm("fileName")
	if fileName == "" {
		fileName = file.Filename
	}
	declaredType := file.Header.Get("Content-Type")

	src, err := file.Open()
	if err != nil {
		failJSON(c, http.StatusBadRequest, "No file provided")
		return
	}
	defer src.Close()

	path, err := s.gateway.Upload(c.Request.Context(), cat, fileName, src, file.Size, declaredType)
	if err != nil {
		s.respondUploadError(c, cat, kind, file.Size, err)
		return
	}
	s.log.Info("upload complete", "kind", kind, "file", fileName, "size", file.Size)

	if cat == storage.CategoryAudio && s.tasks != nil {
		payload := queue.AnalyzePayload{FileName: fileName}
		if err := queue.EnqueueAnalyze(c.Request.Context(), s.tasks, payload); err != nil {
			// The upload already succeeded; analysis is a nice-to-have.
			s.log.Error("analysis enqueue failed", "file", fileName, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"path":    path,
		"message": fmt.Sprintf("%s file uploaded successfully", titleKind(kind)),
	})
}

func (s *Server) handleList(c *gin.Context, cat storage.Category, kind string) {
	objects, err := s.gateway.List(c.Request.Context(), cat)
	if err != nil {
		s.log.Error("listing failed", "kind", kind, "error", err)
		failJSON(c, http.StatusInternalServerError, fmt.Sprintf("Failed to list %s files", kind))
		return
	}
	if objects == nil {
		objects = []storage.ObjectInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "files": objects})
}

func (s *Server) respondUploadError(c *gin.Context, cat storage.Category, kind string, size int64, err error) {
	policy := s.gateway.Policy(cat)
	switch {
	case errors.Is(err, storage.ErrInvalidMediaType):
		failJSON(c, http.StatusBadRequest, fmt.Sprintf("File must be an %s file", kind))
	case errors.Is(err, storage.ErrPayloadTooLarge):
		failJSON(c, http.StatusRequestEntityTooLarge, fmt.Sprintf(
			"File size exceeds maximum allowed size of %dMB. Your file is %.2fMB.",
			policy.MaxSizeBytes>>20, float64(size)/1024/1024))
	default:
		s.log.Error("upload failed", "kind", kind, "error", err)
		failJSON(c, http.StatusInternalServerError, fmt.Sprintf("Failed to upload %s: %v", kind, err))
	}
}

func (s *Server) respondResolveError(c *gin.Context, fileName, kind string, err error) {
	if errors.Is(err, storage.ErrObjectNotFound) {
		adminPath := "/admin/audio"
		if kind == "image" {
			adminPath = "/admin/images"
		}
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "File not found",
			"message": fmt.Sprintf("Upload %s via %s", fileName, adminPath),
		})
		return
	}
	s.log.Error("resolve failed", "kind", kind, "file", fileName, "error", err)
	failJSON(c, http.StatusInternalServerError, fmt.Sprintf("Failed to get %s URL", kind))
}

func failJSON(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

func titleKind(kind string) string {
	switch kind {
	case "audio":
		return "Audio"
	case "image":
		return "Image"
	default:
		return kind
	}
}

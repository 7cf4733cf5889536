package server

import (
	"io"
	"mime/multipart"

	"virtuefeed/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ImageUploadResponse is the API response after uploading an image.
type ImageUploadResponse struct {
	ImageURL string `json:"imageUrl"`
}

// UploadImage handles POST /api/uploads/image
// @Summary Upload an image for a later post
// @Tags uploads
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param image formData file true "JPEG, PNG, GIF or WebP image"
// @Success 201 {object} ImageUploadResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /uploads/image [post]
func (s *Server) UploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return respondError(c, models.NewValidationError("No file uploaded"))
	}

	url, err := s.storeFormFile(c, file)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ImageUploadResponse{ImageURL: url})
}

// storeFormFile validates and stores one multipart file, returning its public URL.
func (s *Server) storeFormFile(c *fiber.Ctx, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", models.NewValidationError("Unable to read uploaded file")
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return "", models.NewValidationError("Unable to read uploaded file")
	}

	return s.uploader.Upload(c.UserContext(), content, file.Header.Get(fiber.HeaderContentType))
}

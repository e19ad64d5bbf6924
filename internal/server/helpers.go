package server

import (
	"io"
	"mime/multipart"

	"bitsconnect/internal/app"
	"bitsconnect/internal/media"
	"bitsconnect/internal/models"

	"github.com/gofiber/fiber/v2"
)

const maxPostUploads = models.MaxPostMedia

// respond writes err with the status its code maps to.
func respond(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}

func badRequest(c *fiber.Ctx, message string) error {
	return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(message))
}

func (s *Server) session(c *fiber.Ctx) *app.Session {
	return s.sessions.Session(currentUserID(c))
}

// readUpload reads a multipart file header into an Upload.
func readUpload(fh *multipart.FileHeader) (media.Upload, error) {
	src, err := fh.Open()
	if err != nil {
		return media.Upload{}, models.NewValidationError("Unable to read uploaded file")
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return media.Upload{}, models.NewValidationError("Unable to read uploaded file")
	}
	return media.Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

// formUploads collects the files sent under field. A request that is not
// multipart has none.
func formUploads(c *fiber.Ctx, field string) ([]media.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}
	var out []media.Upload
	for _, fh := range form.File[field] {
		u, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

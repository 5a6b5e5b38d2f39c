package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"resume-intake/internal/services"
	"resume-intake/internal/transport/httpdto"
	intake_errors "resume-intake/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const (
	CodeValidation = "VALIDATION_ERROR"
	CodeTooLarge   = "PAYLOAD_TOO_LARGE"
	CodeStorage    = "STORAGE_ERROR"
	CodeDatabase   = "DATABASE_ERROR"
	CodeListing    = "LISTING_ERROR"
	CodeTimeout    = "TIMEOUT"
	CodeUnexpected = "UNEXPECTED_ERROR"
)

const (
	resumeField = "resume"
	// Parts beyond this are spilled to temp files by net/http.
	multipartMemory = 8 << 20
)

type SubmissionHandler struct {
	service *services.SubmissionService
}

func NewSubmissionHandler(service *services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{service: service}
}

func (h *SubmissionHandler) Upload(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, httpdto.NewErrorResponse(h.service.TooLargeMessage(), CodeTooLarge))
			return
		}
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("Malformed upload request", CodeValidation))
		return
	}

	var form httpdto.UploadForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("Malformed upload request", CodeValidation))
		return
	}

	file, err := readResume(c)
	if err != nil {
		writeError(c, fmt.Errorf("read resume part: %w", err))
		return
	}

	result, err := h.service.HandleUpload(c.Request.Context(), services.UploadInput{
		Name:         form.Name,
		MobileNumber: form.MobileNumber,
		File:         file,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessMessageResponse(services.MsgUploadSuccessful, httpdto.UploadResultDTO{
		Name:           result.Name,
		MobileNumber:   result.MobileNumber,
		ResumeFilename: result.ResumeFilename,
		ResumePath:     result.ResumePath,
		ResumeURL:      result.ResumeURL,
		CreatedAt:      result.CreatedAt.UTC().Format(time.RFC3339),
		OriginalSize:   result.Store.OriginalSize,
		UploadedSize:   result.Store.UploadedSize,
		Compressed:     result.Store.Compressed,
	}))
}

func (h *SubmissionHandler) List(c *gin.Context) {
	records, err := h.service.ListSubmissions(c.Request.Context())
	if err != nil {
		c.Error(err)
		status, code := statusFor(err)
		c.JSON(status, httpdto.NewErrorResponseWithData(intake_errors.MessageOf(err), code, httpdto.NewSubmissionDTOs(records)))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewSubmissionDTOs(records)))
}

// readResume returns nil when no resume part was sent. A part sent with an
// empty filename comes back with Filename "" so the service can tell the two
// apart.
func readResume(c *gin.Context) (*services.UploadedFile, error) {
	header, err := c.FormFile(resumeField)
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if errors.Is(err, http.ErrMissingFile) {
		// net/http files parts without a filename under form values.
		if form := c.Request.MultipartForm; form != nil {
			if values, ok := form.Value[resumeField]; ok && len(values) > 0 {
				return &services.UploadedFile{Data: []byte(values[0])}, nil
			}
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	data, err := readHeader(header)
	if err != nil {
		return nil, err
	}
	return &services.UploadedFile{Filename: header.Filename, Data: data}, nil
}

func readHeader(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func writeError(c *gin.Context, err error) {
	c.Error(err)
	status, code := statusFor(err)
	c.JSON(status, httpdto.NewErrorResponse(intake_errors.MessageOf(err), code))
}

func statusFor(err error) (int, string) {
	switch intake_errors.KindOf(err) {
	case intake_errors.KindValidation:
		if errors.Is(err, intake_errors.ErrTooLarge) {
			return http.StatusRequestEntityTooLarge, CodeTooLarge
		}
		return http.StatusBadRequest, CodeValidation
	case intake_errors.KindStorage:
		return http.StatusBadGateway, CodeStorage
	case intake_errors.KindMetadata:
		return http.StatusInternalServerError, CodeDatabase
	case intake_errors.KindListing:
		return http.StatusInternalServerError, CodeListing
	case intake_errors.KindTimeout:
		return http.StatusGatewayTimeout, CodeTimeout
	default:
		return http.StatusInternalServerError, CodeUnexpected
	}
}

package api

import (
	"io"
	"mime/multipart"
	"net/http"
	"slices"
	"strings"

	"github.com/aarondl/opt/omitnull"
	"github.com/labstack/echo/v4"
	"github.com/yakoovad/hackathon-portal/internal/model"
	"github.com/yakoovad/hackathon-portal/internal/service"
	"github.com/yakoovad/hackathon-portal/pkg/logger"
	"go.uber.org/zap"
)

var fileFields = []struct {
	field string
	kind  model.FileKind
}{
	{field: "slides", kind: model.FileKindSlide},
	{field: "videos", kind: model.FileKindVideo},
	{field: "images", kind: model.FileKindImage},
}

func (h *Handler) OpenSubmission(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	email := e.QueryParam("email")
	if email == "" {
		return h.transportError(e, service.NewError(service.ErrorCodeInvalidBody, "email is required"))
	}

	res, err := h.submission.OpenSubmission(e.Request().Context(), email)
	if err != nil {
		l.Error("failed to open submission", zap.String("email", email), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, res)
}

// SubmitProject takes a multipart form. An absent or blank github_url or
// deployed_url keeps the stored value. Naming the field in clear removes it,
// e.g. clear=deployed_url.
func (h *Handler) SubmitProject(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	form, ferr := e.MultipartForm()
	if ferr != nil {
		l.Error("invalid multipart form", zap.Error(ferr))
		return h.transportError(e, service.NewError(service.ErrorCodeInvalidBody, "expected a multipart form"))
	}
	defer form.RemoveAll()

	email := formValue(form, "email")
	if email == "" {
		return h.transportError(e, service.NewError(service.ErrorCodeInvalidBody, "email is required"))
	}

	in := &model.SubmissionInput{
		ProjectName:        formValue(form, "project_name"),
		ProjectDescription: formValue(form, "project_description"),
		GithubURL:          optionalFormValue(form, "github_url"),
		DeployedURL:        optionalFormValue(form, "deployed_url"),
	}
	uploads := formUploads(form)

	l.Info("submitting project", zap.String("email", email), zap.Int("files", len(uploads)))

	sub, err := h.submission.SubmitProject(e.Request().Context(), email, in, uploads)
	if err != nil {
		l.Error("failed to submit project", zap.String("email", email), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, sub)
}

func formValue(form *multipart.Form, key string) string {
	if vals := form.Value[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

const clearField = "clear"

func optionalFormValue(form *multipart.Form, key string) omitnull.Val[string] {
	if slices.Contains(form.Value[clearField], key) {
		return omitnull.FromPtr[string](nil)
	}
	v := strings.TrimSpace(formValue(form, key))
	if v == "" {
		return omitnull.Val[string]{}
	}
	return omitnull.From(v)
}

func formUploads(form *multipart.Form) []*service.Upload {
	var uploads []*service.Upload
	for _, ff := range fileFields {
		for _, fh := range form.File[ff.field] {
			uploads = append(uploads, &service.Upload{
				Kind:        ff.kind,
				FileName:    fh.Filename,
				ContentType: fh.Header.Get(echo.HeaderContentType),
				Open:        func() (io.ReadCloser, error) { return fh.Open() },
			})
		}
	}
	return uploads
}

package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"profilehub/api/middleware"
	"profilehub/internal/dto"
	"profilehub/internal/entity"
	"profilehub/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxPhotoSize = 10 << 20
	photoField          = "photo"
	multipartMemory     = 32 << 20
)

var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

type ProfileHandler struct {
	Service      *service.ProfileService
	Validate     *validator.Validate
	Logger       logrus.FieldLogger
	MaxPhotoSize int64
}

func NewProfileHandler(svc *service.ProfileService, validate *validator.Validate) *ProfileHandler {
	return &ProfileHandler{
		Service:      svc,
		Validate:     validate,
		MaxPhotoSize: DefaultMaxPhotoSize,
	}
}

// UploadLimit caps request bodies well above the photo limit, so an oversized
// photo still reaches validation and gets a field error.
func (h *ProfileHandler) UploadLimit() echo.MiddlewareFunc {
	megabytes := 4*h.maxPhotoSize()>>20 + 1
	return echoMiddleware.BodyLimit(fmt.Sprintf("%dM", megabytes))
}

func (h *ProfileHandler) Register(c echo.Context) error {
	req := dto.RegisterRequest{
		FirstName: c.FormValue("firstName"),
		LastName:  c.FormValue("lastName"),
		Sex:       c.FormValue("sex"),
		Email:     c.FormValue("email"),
		Password:  c.FormValue("password"),
	}
	fieldErrors := validationErrors(h.Validate, req)
	photo, photoErrors := h.readPhoto(c, true)
	fieldErrors = append(fieldErrors, photoErrors...)
	if photo != nil {
		defer photo.Close()
	}
	if len(fieldErrors) > 0 {
		return writeFieldErrors(c, fieldErrors)
	}

	id, err := h.Service.Register(c.Request().Context(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Sex:       entity.Sex(req.Sex),
		Email:     req.Email,
		Password:  req.Password,
	}, photo.input())
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return c.JSON(http.StatusCreated, dto.CreatedResponse{ID: id.String()})
}

func (h *ProfileHandler) List(c echo.Context) error {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}
	result, err := h.Service.ListProfiles(c.Request().Context(), page)
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	items := make([]dto.ProfileView, 0, len(result.Items))
	for i := range result.Items {
		view, err := h.view(c, &result.Items[i])
		if err != nil {
			return writeServiceError(c, h.Logger, err)
		}
		items = append(items, view)
	}
	return c.JSON(http.StatusOK, dto.ProfilePageResponse{
		PagesCount: result.PagesCount,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalCount: result.TotalCount,
		Items:      items,
	})
}

func (h *ProfileHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeServiceError(c, h.Logger, service.ErrProfileNotFound)
	}
	profile, err := h.Service.GetProfile(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	view, err := h.view(c, profile)
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Update accepts JSON or multipart bodies. Fields the caller may not change
// are dropped before validation.
func (h *ProfileHandler) Update(c echo.Context) error {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeServiceError(c, h.Logger, service.ErrProfileNotFound)
	}

	var (
		req         dto.UpdateProfileRequest
		photo       *uploadedPhoto
		fieldErrors []dto.FieldError
	)
	if isMultipart(c) {
		req, fieldErrors, err = h.bindUpdateForm(c)
		if err != nil {
			return writeError(c, http.StatusBadRequest, err)
		}
		var photoErrors []dto.FieldError
		photo, photoErrors = h.readPhoto(c, false)
		fieldErrors = append(fieldErrors, photoErrors...)
		if photo != nil {
			defer photo.Close()
		}
	} else if err := decodeOptionalJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}

	if !caller.IsSuper {
		req = req.WithoutElevated()
	}
	fieldErrors = append(fieldErrors, validationErrors(h.Validate, req)...)
	if len(fieldErrors) > 0 {
		return writeFieldErrors(c, fieldErrors)
	}

	changes, err := toProfileChanges(req)
	if err != nil {
		return writeFieldErrors(c, []dto.FieldError{{Message: err.Error(), Field: "regDate"}})
	}
	if photo != nil {
		input := photo.input()
		changes.Photo = &input
	}
	if err := h.Service.UpdateProfile(c.Request().Context(), caller, id, changes); err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProfileHandler) view(c echo.Context, profile *entity.Profile) (dto.ProfileView, error) {
	url, err := h.Service.PhotoURL(c.Request().Context(), profile.PhotoName)
	if err != nil {
		return dto.ProfileView{}, err
	}
	return dto.ProfileViewFromEntity(profile, absoluteURL(c, url)), nil
}

func (h *ProfileHandler) bindUpdateForm(c echo.Context) (dto.UpdateProfileRequest, []dto.FieldError, error) {
	var req dto.UpdateProfileRequest
	if err := c.Request().ParseMultipartForm(multipartMemory); err != nil {
		return req, nil, err
	}
	values := c.Request().MultipartForm.Value
	formValue := func(key string) *string {
		if v, ok := values[key]; ok && len(v) > 0 {
			value := v[0]
			return &value
		}
		return nil
	}
	req.FirstName = formValue("firstName")
	req.LastName = formValue("lastName")
	req.Sex = formValue("sex")
	req.Email = formValue("email")
	req.PasswordHash = formValue("passwordHash")
	req.RegDate = formValue("regDate")

	var fieldErrors []dto.FieldError
	if raw := formValue("isSuper"); raw != nil {
		flag, err := strconv.ParseBool(*raw)
		if err != nil {
			fieldErrors = append(fieldErrors, dto.FieldError{Message: "isSuper must be a boolean", Field: "isSuper"})
		} else {
			req.IsSuper = &flag
		}
	}
	return req, fieldErrors, nil
}

type uploadedPhoto struct {
	file        multipart.File
	contentType string
	size        int64
}

func (p *uploadedPhoto) input() service.PhotoInput {
	if p == nil {
		return service.PhotoInput{}
	}
	return service.PhotoInput{ContentType: p.contentType, Size: p.size, Body: p.file}
}

func (p *uploadedPhoto) Close() error {
	return p.file.Close()
}

// readPhoto checks presence, size and sniffed type of the uploaded photo.
// Nothing is stored here.
func (h *ProfileHandler) readPhoto(c echo.Context, required bool) (*uploadedPhoto, []dto.FieldError) {
	header, err := c.FormFile(photoField)
	if errors.Is(err, http.ErrMissingFile) || (err == nil && header == nil) {
		if required {
			return nil, []dto.FieldError{{Message: "photo is required", Field: photoField}}
		}
		return nil, nil
	}
	if err != nil {
		return nil, []dto.FieldError{{Message: "photo could not be read", Field: photoField}}
	}
	if header.Size > h.maxPhotoSize() {
		return nil, []dto.FieldError{{
			Message: fmt.Sprintf("photo must not exceed %d MB", h.maxPhotoSize()>>20),
			Field:   photoField,
		}}
	}

	file, err := header.Open()
	if err != nil {
		return nil, []dto.FieldError{{Message: "photo could not be read", Field: photoField}}
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		file.Close()
		return nil, []dto.FieldError{{Message: "photo could not be read", Field: photoField}}
	}
	contentType := http.DetectContentType(head[:n])
	if !allowedPhotoTypes[contentType] {
		file.Close()
		return nil, []dto.FieldError{{Message: "photo must be a .jpg or .png image", Field: photoField}}
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, []dto.FieldError{{Message: "photo could not be read", Field: photoField}}
	}
	return &uploadedPhoto{file: file, contentType: contentType, size: header.Size}, nil
}

func (h *ProfileHandler) maxPhotoSize() int64 {
	if h.MaxPhotoSize > 0 {
		return h.MaxPhotoSize
	}
	return DefaultMaxPhotoSize
}

func toProfileChanges(req dto.UpdateProfileRequest) (service.ProfileChanges, error) {
	changes := service.ProfileChanges{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: req.PasswordHash,
		IsSuper:      req.IsSuper,
	}
	if req.Sex != nil {
		sex := entity.Sex(*req.Sex)
		changes.Sex = &sex
	}
	if req.RegDate != nil {
		regDate, err := time.Parse(time.RFC3339, *req.RegDate)
		if err != nil {
			return changes, errors.New("regDate must be an RFC 3339 timestamp")
		}
		regDate = regDate.UTC()
		changes.RegisteredAt = &regDate
	}
	return changes, nil
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

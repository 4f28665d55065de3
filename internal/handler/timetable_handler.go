package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type timetablePreviewResponse struct {
	Mode     string                 `json:"mode"`
	Proposal *dto.TimetableProposal `json:"proposal"`
}

type timetableOperator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetableProposal, error)
	Save(ctx context.Context, req dto.SaveTimetableRequest) (*models.Timetable, error)
	Get(ctx context.Context, departmentID, year, section string) (*models.Timetable, error)
	List(ctx context.Context, query dto.TimetableQuery) ([]models.Timetable, error)
	ValidateConflicts(ctx context.Context, req dto.ValidateConflictsRequest) (*dto.ConflictReport, error)
	ValidateLabPlacement(ctx context.Context, req dto.ValidateLabsRequest) (*dto.LabPlacementReport, error)
	Export(ctx context.Context, departmentID, year, section, format string) (*service.ExportedFile, error)
}

type batchOperator interface {
	Enqueue(ctx context.Context, req dto.BatchGenerateRequest) (*dto.BatchJobStatus, error)
	Status(ctx context.Context, id string) (*dto.BatchJobStatus, error)
}

// TimetableHandler exposes timetable generation endpoints.
type TimetableHandler struct {
	service timetableOperator
	batch   batchOperator
}

// NewTimetableHandler constructs the handler. batch may be nil when batch jobs are disabled.
func NewTimetableHandler(svc *service.TimetableService, batch *service.TimetableBatchService) *TimetableHandler {
	h := &TimetableHandler{service: svc}
	if batch != nil {
		h.batch = batch
	}
	return h
}

// Generate godoc
// @Summary Generate a timetable proposal for one class
// @Description Runs the placement engine and returns an unsaved preview with conflict and lab reports.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generate timetable payload"
// @Success 200 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid generate payload"))
		return
	}
	if !h.authorize(c, req.DepartmentID) {
		return
	}
	proposal, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetablePreviewResponse{Mode: "preview", Proposal: proposal}, nil)
}

// Save godoc
// @Summary Persist a timetable proposal
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.SaveTimetableRequest true "Save timetable payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetables/save [post]
func (h *TimetableHandler) Save(c *gin.Context) {
	var req dto.SaveTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid save payload"))
		return
	}
	timetable, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, timetable)
}

// List godoc
// @Summary List stored timetables of a department
// @Tags Timetables
// @Produce json
// @Param departmentId query string true "Department ID"
// @Param year query string false "Year"
// @Success 200 {object} response.Envelope
// @Router /timetables [get]
func (h *TimetableHandler) List(c *gin.Context) {
	var query dto.TimetableQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid query"))
		return
	}
	timetables, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	total := len(timetables)
	response.JSON(c, http.StatusOK, timetables, &models.Pagination{Page: 1, PageSize: total, TotalCount: total})
}

// Get godoc
// @Summary Get the stored timetable of a class
// @Tags Timetables
// @Produce json
// @Param departmentId path string true "Department ID"
// @Param year path string true "Year"
// @Param section path string true "Section"
// @Success 200 {object} response.Envelope
// @Router /timetables/{departmentId}/{year}/{section} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	timetable, err := h.service.Get(c.Request.Context(), c.Param("departmentId"), c.Param("year"), c.Param("section"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// Export godoc
// @Summary Download a stored timetable
// @Tags Timetables
// @Produce text/csv
// @Produce application/pdf
// @Param departmentId path string true "Department ID"
// @Param year path string true "Year"
// @Param section path string true "Section"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /timetables/{departmentId}/{year}/{section}/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), c.Param("departmentId"), c.Param("year"), c.Param("section"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Content)
}

// ValidateConflicts godoc
// @Summary Check a grid for faculty conflicts against stored timetables
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.ValidateConflictsRequest true "Grid to validate"
// @Success 200 {object} response.Envelope
// @Router /timetables/validate/conflicts [post]
func (h *TimetableHandler) ValidateConflicts(c *gin.Context) {
	var req dto.ValidateConflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid conflict validation payload"))
		return
	}
	if !h.authorize(c, req.DepartmentID) {
		return
	}
	report, err := h.service.ValidateConflicts(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ValidateLabs godoc
// @Summary Inspect lab placement of a grid
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.ValidateLabsRequest true "Grid to inspect"
// @Success 200 {object} response.Envelope
// @Router /timetables/validate/labs [post]
func (h *TimetableHandler) ValidateLabs(c *gin.Context) {
	var req dto.ValidateLabsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid lab validation payload"))
		return
	}
	report, err := h.service.ValidateLabPlacement(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// EnqueueBatch godoc
// @Summary Regenerate several sections of a department year in the background
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.BatchGenerateRequest true "Batch payload"
// @Success 202 {object} response.Envelope
// @Router /timetables/batch [post]
func (h *TimetableHandler) EnqueueBatch(c *gin.Context) {
	if h.batch == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrServiceDisabled, "batch generation is disabled"))
		return
	}
	var req dto.BatchGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid batch payload"))
		return
	}
	if !h.authorize(c, req.DepartmentID) {
		return
	}
	status, err := h.batch.Enqueue(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, status, nil)
}

// BatchStatus godoc
// @Summary Report progress of a batch job
// @Tags Timetables
// @Produce json
// @Param id path string true "Batch job ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/batch/{id} [get]
func (h *TimetableHandler) BatchStatus(c *gin.Context) {
	if h.batch == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrServiceDisabled, "batch generation is disabled"))
		return
	}
	status, err := h.batch.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !h.authorize(c, status.DepartmentID) {
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// authorize applies department scoping to body payloads. Routes without JWT claims pass.
func (h *TimetableHandler) authorize(c *gin.Context, departmentID string) bool {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil || middleware.CanAccessDepartment(claims, departmentID) {
		return true
	}
	response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "token is not scoped to this department"))
	return false
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hatchery-inc/hatchery/internal/application/instance/usecases"
	"github.com/hatchery-inc/hatchery/internal/shared/constants"
	"github.com/hatchery-inc/hatchery/internal/shared/errors"
	"github.com/hatchery-inc/hatchery/internal/shared/id"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
	"github.com/hatchery-inc/hatchery/internal/shared/utils"
)

type InstanceHandler struct {
	getInstanceUC     getInstanceUseCase
	redeployUC        redeployInstanceUseCase
	deleteUC          deleteInstanceUseCase
	updateVariablesUC updateInstanceVariablesUseCase
	stopUC            stopInstanceUseCase
	logger            logger.Interface
}

func NewInstanceHandler(
	getInstanceUC getInstanceUseCase,
	redeployUC redeployInstanceUseCase,
	deleteUC deleteInstanceUseCase,
	updateVariablesUC updateInstanceVariablesUseCase,
	stopUC stopInstanceUseCase,
	log logger.Interface,
) *InstanceHandler {
	return &InstanceHandler{
		getInstanceUC:     getInstanceUC,
		redeployUC:        redeployUC,
		deleteUC:          deleteUC,
		updateVariablesUC: updateVariablesUC,
		stopUC:            stopUC,
		logger:            log,
	}
}

type UpdateVariablesRequest struct {
	Variables map[string]string `json:"variables" binding:"required"`
	Redeploy  bool              `json:"redeploy"`
}

type DeleteInstanceResponse struct {
	ServiceDeleted bool `json:"service_deleted"`
	ProjectDeleted bool `json:"project_deleted"`
}

func parseInstanceSID(c *gin.Context) (string, error) {
	return utils.ParseSIDParam(c, "sid", id.PrefixInstance, "instance")
}

func (h *InstanceHandler) GetInstance(c *gin.Context) {
	sid, err := parseInstanceSID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.getInstanceUC.Execute(c.Request.Context(), sid)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func (h *InstanceHandler) GetProgress(c *gin.Context) {
	sid, err := parseInstanceSID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.getInstanceUC.Progress(c.Request.Context(), sid)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func (h *InstanceHandler) GetHealth(c *gin.Context) {
	sid, err := parseInstanceSID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.getInstanceUC.Health(c.Request.Context(), sid)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func (h *InstanceHandler) GetLogs(c *gin.Context) {
	sid, err := parseInstanceSID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	limit, err := utils.ParseLimitQuery(c, "limit", constants.DefaultLogLimit, constants.MaxLogLimit)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.getInstanceUC.Logs(c.Request.Context(), sid, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func (h *InstanceHandler) Redeploy(c *gin.Context) {
	sid, err := parseInstanceSID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.redeployUC.Execute(c.Request.Context(), sid)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, http.StatusAccepted, "Redeploy triggered", result)
}

func (h *InstanceHandler) DeleteInstance(c *gin.Context) {
	sid, err := parseInstanceSID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.deleteUC.Execute(c.Request.Context(), sid)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Instance deleted", DeleteInstanceResponse{
		ServiceDeleted: result.ServiceDeleted,
		ProjectDeleted: result.ProjectDeleted,
	})
}

func (h *InstanceHandler) UpdateVariables(c *gin.Context) {
	sid, err := parseInstanceSID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req UpdateVariablesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for update variables", "instance_id", sid, "error", err)
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid request body", err.Error()))
		return
	}

	result, err := h.updateVariablesUC.Execute(c.Request.Context(), usecases.UpdateInstanceVariablesCommand{
		SID:       sid,
		Variables: req.Variables,
		Redeploy:  req.Redeploy,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Variables updated", result)
}

func (h *InstanceHandler) StopInstance(c *gin.Context) {
	sid, err := parseInstanceSID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.stopUC.Execute(c.Request.Context(), sid)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Instance stopped", result)
}

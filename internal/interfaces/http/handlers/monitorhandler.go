package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hatchery-inc/hatchery/internal/application/instance/dto"
	"github.com/hatchery-inc/hatchery/internal/shared/errors"
	"github.com/hatchery-inc/hatchery/internal/shared/id"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
	"github.com/hatchery-inc/hatchery/internal/shared/mapper"
	"github.com/hatchery-inc/hatchery/internal/shared/utils"
)

// MonitorHandler exposes the deployment monitor to operators.
type MonitorHandler struct {
	monitor deploymentMonitor
	logger  logger.Interface
}

func NewMonitorHandler(monitor deploymentMonitor, log logger.Interface) *MonitorHandler {
	return &MonitorHandler{
		monitor: monitor,
		logger:  log,
	}
}

type StopMonitoringResponse struct {
	Stopped bool `json:"stopped"`
}

func (h *MonitorHandler) GetStats(c *gin.Context) {
	stats, err := h.monitor.GetStats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dto.ToMonitorStatsDTO(stats))
}

func (h *MonitorHandler) ListInstances(c *gin.Context) {
	instances, err := h.monitor.ListMonitored(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", mapper.MapSlice(instances, dto.ToHealthDTO))
}

// Check runs a full sweep, or checks one instance when ?instance= is given.
func (h *MonitorHandler) Check(c *gin.Context) {
	sid := c.Query("instance")
	if sid != "" {
		if err := id.ValidatePrefix(sid, id.PrefixInstance); err != nil {
			utils.ErrorResponseWithError(c, errors.NewValidationError("invalid instance ID format, expected inst_xxxxx"))
			return
		}
	}

	sweep, check, err := h.monitor.ManualCheck(c.Request.Context(), sid)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if check != nil {
		utils.SuccessResponse(c, http.StatusOK, "Instance checked", dto.ToCheckResultDTO(check))
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Sweep completed", dto.ToSweepResultDTO(sweep))
}

func (h *MonitorHandler) StopMonitoring(c *gin.Context) {
	sid, err := parseInstanceSID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	stopped, err := h.monitor.StopMonitoringBySID(c.Request.Context(), sid)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", StopMonitoringResponse{Stopped: stopped})
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"kioskpanel/internal/log"
	"kioskpanel/internal/service"
)

type PanelHandler struct {
	control *service.ControlService
	status  *service.StatusService
	logger  log.Logger
}

func NewPanelHandler(control *service.ControlService, status *service.StatusService, logger log.Logger) *PanelHandler {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &PanelHandler{control: control, status: status, logger: logger.WithName("handlers")}
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type SuccessResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type LogsResponse struct {
	Status string   `json:"status"`
	Logs   []string `json:"logs"`
}

type switchRequest struct {
	URL string `json:"url"`
}

type rebootRequest struct {
	Confirmed bool `json:"confirmed"`
}

func (h *PanelHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error(err, "encode json response")
	}
}

func (h *PanelHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, ErrorResponse{Status: "error", Message: message})
}

// writeActionError maps service errors to HTTP. A failed remote command is a
// 500 carrying the raw stderr.
func (h *PanelHandler) writeActionError(w http.ResponseWriter, err error) {
	var cmdErr *service.CommandError
	switch {
	case errors.As(err, &cmdErr):
		h.writeError(w, http.StatusInternalServerError, cmdErr.Result.Stderr)
	case errors.Is(err, service.ErrInvalidURL):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnknownAction):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *PanelHandler) perform(w http.ResponseWriter, action func() (string, error)) {
	msg, err := action()
	if err != nil {
		h.writeActionError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, SuccessResponse{Status: "ok", Message: msg})
}

func (h *PanelHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.perform(w, h.control.Refresh)
}

func (h *PanelHandler) HardRefresh(w http.ResponseWriter, r *http.Request) {
	h.perform(w, h.control.HardRefresh)
}

func (h *PanelHandler) RestartFirefox(w http.ResponseWriter, r *http.Request) {
	h.perform(w, h.control.RestartFirefox)
}

func (h *PanelHandler) RestartK3s(w http.ResponseWriter, r *http.Request) {
	h.perform(w, h.control.RestartK3s)
}

// SwitchDashboard accepts an optional {"url": ...} body. An empty body
// switches back to the configured dashboard.
func (h *PanelHandler) SwitchDashboard(w http.ResponseWriter, r *http.Request) {
	var req switchRequest
	if err := decodeOptional(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	h.perform(w, func() (string, error) {
		return h.control.SwitchDashboard(req.URL)
	})
}

// Reboot only proceeds on {"confirmed": true}.
func (h *PanelHandler) Reboot(w http.ResponseWriter, r *http.Request) {
	var req rebootRequest
	if err := decodeOptional(r, &req); err != nil || !req.Confirmed {
		h.writeError(w, http.StatusBadRequest, "Reboot requires confirmation")
		return
	}
	h.perform(w, h.control.Reboot)
}

func (h *PanelHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.status.Collect())
}

func (h *PanelHandler) LastAction(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.control.LastAction())
}

func (h *PanelHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", service.DefaultHistorySize)
	h.writeJSON(w, http.StatusOK, h.control.History(limit))
}

func (h *PanelHandler) Logs(w http.ResponseWriter, r *http.Request) {
	lines, err := h.control.Logs(queryInt(r, "lines", service.DefaultLogLines))
	if err != nil {
		h.writeActionError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, LogsResponse{Status: "ok", Logs: lines})
}

// decodeOptional decodes a JSON body into v. An empty body leaves v untouched.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

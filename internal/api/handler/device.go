package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sangamlabs/sangam/internal/api/models"
	"github.com/sangamlabs/sangam/internal/api/response"
	"github.com/sangamlabs/sangam/internal/device"
)

// DeviceHandler handles device registration endpoints.
type DeviceHandler struct {
	devices *device.Service
}

// NewDeviceHandler creates a new DeviceHandler.
func NewDeviceHandler(devices *device.Service) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

func toDeviceModel(reg *device.Registration) models.Device {
	return models.Device{
		ID:          reg.ID,
		Platform:    string(reg.Platform),
		TokenLast4:  reg.TokenLast4(),
		DeviceLabel: reg.DeviceLabel,
		IsActive:    reg.IsActive,
		CreatedAt:   models.Timestamp(reg.CreatedAt),
		UpdatedAt:   models.Timestamp(reg.UpdatedAt),
	}
}

// RegisterDevice handles POST /v1/devices - register or refresh a device.
func (h *DeviceHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	memberID := GetMemberID(r.Context())

	var input models.DeviceRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	reg, created, err := h.devices.Register(r.Context(), device.RegisterInput{
		MemberID:    memberID,
		Platform:    device.Platform(input.Platform),
		PushToken:   input.Token,
		DeviceLabel: input.DeviceLabel,
		IP:          r.RemoteAddr,
	})
	if err != nil {
		switch {
		case errors.Is(err, device.ErrTokenRequired):
			response.BadRequest(w, r, "token is required", []models.FieldError{
				{Field: "token", Message: "required", Code: "REQUIRED"},
			})
		case errors.Is(err, device.ErrInvalidPlatform):
			response.BadRequest(w, r, "platform must be mobile or web", []models.FieldError{
				{Field: "platform", Message: "must be mobile or web", Code: "INVALID_VALUE"},
			})
		default:
			response.InternalError(w, r, "failed to register device")
		}
		return
	}

	body := toDeviceModel(reg)
	if created {
		location := fmt.Sprintf("/v1/devices/%s", reg.ID)
		response.Created(w, r, location, body)
		return
	}
	response.JSON(w, r, http.StatusOK, body)
}

// ListDevices handles GET /v1/devices - list my registered devices.
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	memberID := GetMemberID(r.Context())

	regs, err := h.devices.ListForMember(r.Context(), memberID)
	if err != nil {
		response.InternalError(w, r, "failed to list devices")
		return
	}

	items := make([]models.Device, 0, len(regs))
	for _, reg := range regs {
		items = append(items, toDeviceModel(reg))
	}
	response.JSON(w, r, http.StatusOK, models.Devices{Items: items})
}

// UnregisterDevice handles DELETE /v1/devices/{deviceId} - deactivate my
// registration. Unknown or foreign IDs 404.
func (h *DeviceHandler) UnregisterDevice(w http.ResponseWriter, r *http.Request) {
	memberID := GetMemberID(r.Context())

	deviceID := chi.URLParam(r, "deviceId")
	if deviceID == "" {
		response.BadRequest(w, r, "deviceId is required", nil)
		return
	}

	found, err := h.devices.Unregister(r.Context(), deviceID, memberID)
	if err != nil {
		response.InternalError(w, r, "failed to unregister device")
		return
	}
	if !found {
		response.NotFound(w, r, "device not found")
		return
	}

	response.NoContent(w, r)
}

package ws

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/avdeyev/radar/internal/domain"
)

// handleMessage routes one inbound frame. A malformed or invalid
// message is discarded whole; the connection stays open.
func (ctl *Controller) handleMessage(id domain.ConnID, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "ws").Msg("bad json")
		return
	}

	switch env.Type {
	case "location":
		ctl.handleLocation(id, data)
	case "label":
		ctl.handleLabel(id, data)
	case "join":
		ctl.handleJoin(id, data)
	case "switch":
		ctl.handleSwitch(id, data)
	default:
		log.Warn().Str("module", "ws").Str("type", env.Type).Msg("unknown message type")
	}
}

// Lat/Lon are pointers so a partial payload fails required instead of
// decoding to a valid-looking (0,0).
type locationPayload struct {
	Type  string   `json:"type"`
	Lat   *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lon   *float64 `json:"lon" validate:"required,min=-180,max=180"`
	Label string   `json:"label,omitempty" validate:"omitempty,max=36"`
}

func (ctl *Controller) handleLocation(id domain.ConnID, data []byte) {
	var p locationPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("conn", string(id)).Msg("bad location payload")
		return
	}
	if err := ctl.validate.Struct(&p); err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("conn", string(id)).Msg("invalid location payload")
		return
	}
	if err := ctl.Orch.OnLocation(id, *p.Lat, *p.Lon, p.Label); err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("conn", string(id)).Msg("location rejected")
	}
}

type labelPayload struct {
	Type  string `json:"type"`
	Label string `json:"label" validate:"required,max=36"`
}

func (ctl *Controller) handleLabel(id domain.ConnID, data []byte) {
	var p labelPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("conn", string(id)).Msg("bad label payload")
		return
	}
	if err := ctl.validate.Struct(&p); err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("conn", string(id)).Msg("invalid label payload")
		return
	}
	ctl.Orch.OnSetLabel(id, p.Label)
}

type roomPayload struct {
	Type       string `json:"type"`
	SiteID     string `json:"siteId" validate:"required"`
	GridMeters int    `json:"gridMeters" validate:"required,gt=0"`
	CellID     string `json:"cellId" validate:"required"`
}

func (ctl *Controller) handleJoin(id domain.ConnID, data []byte) {
	p, ok := ctl.roomPayload(id, data)
	if !ok {
		return
	}
	if err := ctl.Orch.OnJoinRoom(id, p.SiteID, p.GridMeters, p.CellID); err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("conn", string(id)).Msg("join rejected")
	}
}

func (ctl *Controller) handleSwitch(id domain.ConnID, data []byte) {
	p, ok := ctl.roomPayload(id, data)
	if !ok {
		return
	}
	if err := ctl.Orch.OnSwitchRoom(id, p.SiteID, p.GridMeters, p.CellID); err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("conn", string(id)).Msg("switch rejected")
	}
}

func (ctl *Controller) roomPayload(id domain.ConnID, data []byte) (roomPayload, bool) {
	var p roomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("conn", string(id)).Msg("bad room payload")
		return p, false
	}
	if err := ctl.validate.Struct(&p); err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("conn", string(id)).Msg("invalid room payload")
		return p, false
	}
	return p, true
}

package dashboard

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rpattn/adminpanel/internal/auth"
	"github.com/rpattn/adminpanel/internal/i18n"
)

// Tile is one navigation entry.
type Tile struct {
	Entity string `json:"entity"`
	Label  string `json:"label"`
	Href   string `json:"href"`
	Icon   string `json:"icon"`
	TestID string `json:"testId"`
}

type tileDef struct {
	entity   string
	labelKey string
	icon     string
}

var tiles = []tileDef{
	{entity: "role", labelKey: i18n.SideMenuRole, icon: "shield"},
	{entity: "product", labelKey: i18n.SideMenuProduct, icon: "box"},
	{entity: "user", labelKey: i18n.SideMenuUser, icon: "users"},
	{entity: "brand", labelKey: i18n.SideMenuBrand, icon: "tag"},
}

// Tiles returns the tiles whose view-<entity> capability the principal on
// ctx holds, in menu order.
func Tiles(ctx context.Context, gate auth.Gate) []Tile {
	loc := i18n.FromContext(ctx)
	out := make([]Tile, 0, len(tiles))
	for _, def := range tiles {
		if !gate.Allows(ctx, auth.Capability("view", def.entity)) {
			continue
		}
		out = append(out, Tile{
			Entity: def.entity,
			Label:  i18n.T(loc, def.labelKey),
			Href:   "/" + def.entity,
			Icon:   def.icon,
			TestID: def.entity + "_tile",
		})
	}
	return out
}

type Handler struct {
	gate auth.Gate
}

func NewHTTPHandler(gate auth.Gate) *Handler {
	return &Handler{gate: gate}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /dashboard", h.handleDashboard)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"tiles": Tiles(r.Context(), h.gate)})
}

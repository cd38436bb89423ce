package dto

// OptimizeRouteRequest selects orders to route. An empty list routes every
// routable delivery order of the session.
type OptimizeRouteRequest struct {
	OrderIDs []string `json:"orderIds" validate:"omitempty,max=500,dive,notblank"`
}

type TrackLoadingRequest struct {
	OrderID string `json:"orderId" validate:"notblank,max=64"`
	Section string `json:"section" validate:"omitempty,oneof=fridge freezer"`
	Action  string `json:"action" validate:"required,oneof=load unload toggle"`
}

type ScanRequest struct {
	Code string `json:"code" validate:"notblank,max=128"`
}

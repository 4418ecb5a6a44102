package dto

type RouteErrorResponse struct {
	RouteLabel string `json:"route_label"`
	Message    string `json:"message"`
}

type ImportSummaryResponse struct {
	SuccessCount int                  `json:"success_count"`
	RouteIDs     []string             `json:"route_ids"`
	Errors       []RouteErrorResponse `json:"errors"`
}

package dto

type CheckoutRequest struct {
	CourseID int64 `json:"course_id"`
}

type CheckoutResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
	Amount           int64  `json:"amount"`
}

type SettleResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	CourseID  int64  `json:"course_id"`
	Enrolled  bool   `json:"enrolled"`
}

type PurchaseResponse struct {
	Reference string `json:"reference"`
	CourseID  int64  `json:"course_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

type WebhookAckResponse struct {
	OK bool `json:"ok"`
}

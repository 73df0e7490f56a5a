package enums

type PurchaseStatus string

const (
	PurchaseStatusPending PurchaseStatus = "pending"
	PurchaseStatusSuccess PurchaseStatus = "success"
)

package managerio

// Form payloads mirror the exact field names the Manager.io form endpoints
// expect, PascalCase included.

type CustomerForm struct {
	Name          string                 `json:"Name"`
	CustomFields2 map[string]interface{} `json:"CustomFields2"`
}

type SalesOrderLine struct {
	Item            string  `json:"Item"`
	LineDescription string  `json:"LineDescription"`
	Qty             float64 `json:"Qty"`
	SalesUnitPrice  float64 `json:"SalesUnitPrice"`
}

type SalesOrderForm struct {
	Date        string           `json:"Date"`
	Reference   string           `json:"Reference"`
	Customer    string           `json:"Customer"`
	Description string           `json:"Description"`
	Lines       []SalesOrderLine `json:"Lines"`
}

type BillOfMaterialsLine struct {
	BillOfMaterials string  `json:"BillOfMaterials"`
	Qty             float64 `json:"Qty"`
}

type ProductionOrderForm struct {
	Date                  string                `json:"Date"`
	FinishedInventoryItem string                `json:"FinishedInventoryItem"`
	Qty                   float64               `json:"Qty"`
	BillOfMaterials       []BillOfMaterialsLine `json:"BillOfMaterials"`
}

package main

import "encoding/json"

// Projections are recomputed from the payload on every call. Each one
// accepts a nil payload and returns an empty, non-nil value for anything
// missing.

type OppRow struct {
	ID          int    `json:"id"`
	ProductType string `json:"productType"`
	Product     string `json:"product"`
	EnrollDate  string `json:"enrollDate"`
	ExpDate     string `json:"expDate"`
	Enrolled    bool   `json:"enrolled"`
}

type Column struct {
	Label          string            `json:"label"`
	FieldName      string            `json:"fieldName"`
	Type           string            `json:"type,omitempty"`
	TypeAttributes map[string]string `json:"typeAttributes,omitempty"`
}

var dateAttributes = map[string]string{"month": "2-digit", "day": "2-digit", "year": "numeric"}

var OppsColumns = []Column{
	{Label: "Product Type", FieldName: "productType"},
	{Label: "Product", FieldName: "product"},
	{Label: "Enroll/Close Date", FieldName: "enrollDate", Type: "date", TypeAttributes: dateAttributes},
	{Label: "Product Expiration Date", FieldName: "expDate", Type: "date", TypeAttributes: dateAttributes},
	{Label: "Enrolled Indicator", FieldName: "enrolled", Type: "boolean"},
}

var ContactColumns = []Column{
	{Label: "Name", FieldName: "Name__c"},
	{Label: "Contact Role", FieldName: "Contact_Title_c__c"},
	{Label: "Email", FieldName: "Email__c"},
	{Label: "Phone Number", FieldName: "Phone__c"},
}

func BACOptions(p *DashboardPayload) []BACOption {
	if p == nil {
		return []BACOption{}
	}
	options := make([]BACOption, 0, len(p.BACOptions))
	for _, o := range p.BACOptions {
		options = append(options, BACOption{Label: o.Label, Value: o.Value})
	}
	return options
}

func MonthLabels(p *DashboardPayload) []string {
	if p == nil || p.MonthLabels == nil {
		return []string{}
	}
	return p.MonthLabels
}

func FISections(p *DashboardPayload) []json.RawMessage {
	if p == nil || p.FISections == nil {
		return []json.RawMessage{}
	}
	return p.FISections
}

func Contacts(p *DashboardPayload) []Contact {
	if p == nil || p.Contacts == nil {
		return []Contact{}
	}
	return p.Contacts
}

// OppsTable numbers rows by their position in the current payload. The IDs
// are not stable across payload replacements.
func OppsTable(p *DashboardPayload) []OppRow {
	if p == nil {
		return []OppRow{}
	}
	rows := make([]OppRow, 0, len(p.Opportunities))
	for idx, o := range p.Opportunities {
		rows = append(rows, OppRow{
			ID:          idx + 1,
			ProductType: o.ProductType,
			Product:     o.Product,
			EnrollDate:  o.EnrollDate,
			ExpDate:     o.ExpDate,
			Enrolled:    o.Enrolled,
		})
	}
	return rows
}

func EmployeeNumber(p *DashboardPayload) string {
	if p == nil {
		return ""
	}
	return p.UserEmployeeNumber
}

func AuctionID(p *DashboardPayload) string {
	if p == nil || p.Account == nil {
		return ""
	}
	return p.Account.SmartAuctionID
}

// DashboardView is every projection of one payload, in the shape served by
// the view endpoint and printed by the json report.
type DashboardView struct {
	SelectedBAC    string            `json:"selectedBAC"`
	BACOptions     []BACOption       `json:"bacOptions"`
	MonthLabels    []string          `json:"monthLabels"`
	FISections     []json.RawMessage `json:"fiSections"`
	Contacts       []Contact         `json:"contacts"`
	ContactColumns []Column          `json:"contactColumns"`
	OppsTable      []OppRow          `json:"oppsTable"`
	OppsColumns    []Column          `json:"oppsColumns"`
	ScorecardLink  string            `json:"scorecardLink"`
	SummaryLink    string            `json:"summaryLink"`
}

func buildView(p *DashboardPayload, selected string, links LinkConfig) DashboardView {
	return DashboardView{
		SelectedBAC:    selected,
		BACOptions:     BACOptions(p),
		MonthLabels:    MonthLabels(p),
		FISections:     FISections(p),
		Contacts:       Contacts(p),
		ContactColumns: ContactColumns,
		OppsTable:      OppsTable(p),
		OppsColumns:    OppsColumns,
		ScorecardLink:  ScorecardLink(links.ScorecardBase, p),
		SummaryLink:    SummaryLink(links.SummaryBase, p),
	}
}

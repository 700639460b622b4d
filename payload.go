package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type BACOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Contact struct {
	Name         string `json:"Name__c"`
	ContactTitle string `json:"Contact_Title_c__c"`
	Email        string `json:"Email__c"`
	Phone        string `json:"Phone__c"`
}

type Opportunity struct {
	ProductType string `json:"productType"`
	Product     string `json:"product"`
	EnrollDate  string `json:"enrollDate"`
	ExpDate     string `json:"expDate"`
	Enrolled    bool   `json:"enrolled"`
}

type Account struct {
	SmartAuctionID string `json:"Smart_Auction_Id__c"`
}

// DashboardPayload is the complete response of the data service for one
// record and scope. Sections the dashboard does not interpret (fiSections)
// are kept as raw JSON.
type DashboardPayload struct {
	BACOptions         []BACOption       `json:"bacOptions"`
	SelectedBAC        string            `json:"selectedBAC"`
	MonthLabels        []string          `json:"monthLabels"`
	FISections         []json.RawMessage `json:"fiSections"`
	Contacts           []Contact         `json:"contacts"`
	Opportunities      []Opportunity     `json:"opportunities"`
	UserEmployeeNumber string            `json:"userEmployeeNumber"`
	Account            *Account          `json:"account"`
}

func decodePayload(content []byte) (*DashboardPayload, error) {
	var payload DashboardPayload
	if err := json.Unmarshal(content, &payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &payload, nil
}

// UnmarshalJSON requires an object but reads each field leniently: a field
// of the wrong JSON type becomes its zero value instead of failing the load.
func (p *DashboardPayload) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return errors.New("payload is not an object")
	}

	*p = DashboardPayload{
		BACOptions:         objectList[BACOption](fields["bacOptions"]),
		SelectedBAC:        looseString(fields["selectedBAC"]),
		MonthLabels:        stringList(fields["monthLabels"]),
		FISections:         rawList(fields["fiSections"]),
		Contacts:           objectList[Contact](fields["contacts"]),
		Opportunities:      objectList[Opportunity](fields["opportunities"]),
		UserEmployeeNumber: looseString(fields["userEmployeeNumber"]),
	}
	if account := objectFields(fields["account"]); account != nil {
		p.Account = &Account{SmartAuctionID: looseString(account["Smart_Auction_Id__c"])}
	}
	return nil
}

func (o *BACOption) UnmarshalJSON(data []byte) error {
	f := objectFields(data)
	*o = BACOption{
		Label: looseString(f["label"]),
		Value: looseString(f["value"]),
	}
	return nil
}

func (c *Contact) UnmarshalJSON(data []byte) error {
	f := objectFields(data)
	*c = Contact{
		Name:         looseString(f["Name__c"]),
		ContactTitle: looseString(f["Contact_Title_c__c"]),
		Email:        looseString(f["Email__c"]),
		Phone:        looseString(f["Phone__c"]),
	}
	return nil
}

func (o *Opportunity) UnmarshalJSON(data []byte) error {
	f := objectFields(data)
	*o = Opportunity{
		ProductType: looseString(f["productType"]),
		Product:     looseString(f["product"]),
		EnrollDate:  looseString(f["enrollDate"]),
		ExpDate:     looseString(f["expDate"]),
		Enrolled:    looseBool(f["enrolled"]),
	}
	return nil
}

// objectFields returns nil for anything that is not a JSON object.
func objectFields(raw json.RawMessage) map[string]json.RawMessage {
	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) != nil {
		return nil
	}
	return fields
}

// looseString reads strings as is and numbers and booleans by their literal
// text, the way they would be concatenated into a link. Anything else is "".
func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch c := raw[0]; {
	case c == '"':
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
	case c == '-' || (c >= '0' && c <= '9'), string(raw) == "true", string(raw) == "false":
		return string(raw)
	}
	return ""
}

// looseBool is true only for a JSON true or the string "true".
func looseBool(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "true", `"true"`:
		return true
	}
	return false
}

func rawList(raw json.RawMessage) []json.RawMessage {
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}
	return items
}

func stringList(raw json.RawMessage) []string {
	items := rawList(raw)
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, looseString(item))
	}
	return out
}

// objectList keeps one element per array entry so row positions survive a
// malformed entry; such entries decode to the zero value.
func objectList[T any, PT interface {
	*T
	json.Unmarshaler
}](raw json.RawMessage) []T {
	items := rawList(raw)
	if items == nil {
		return nil
	}
	out := make([]T, len(items))
	for i, item := range items {
		_ = PT(&out[i]).UnmarshalJSON(item)
	}
	return out
}

func encodePayload(p *DashboardPayload) ([]byte, error) {
	content, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return content, nil
}

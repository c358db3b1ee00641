package refund

// ReasonGroup is one of the mutually exclusive reason sections
type ReasonGroup string

const (
	GroupChangedMind     ReasonGroup = "changed-mind"
	GroupItemProblem     ReasonGroup = "item-problem"
	GroupDeliveryProblem ReasonGroup = "delivery-problem"
)

// Reason is a selectable refund reason. Title is what the backend stores as
// the problem title.
type Reason struct {
	Code  string
	Group ReasonGroup
	Title string
}

// Reasons lists every reason in display order
var Reasons = []Reason{
	{Code: "quality", Group: GroupChangedMind, Title: "Not satisfied with quality"},
	{Code: "not-needed", Group: GroupChangedMind, Title: "No longer needed"},
	{Code: "other", Group: GroupChangedMind, Title: "Other issue"},
	{Code: "missing-parts", Group: GroupItemProblem, Title: "Parts or accessories missing"},
	{Code: "not-as-described", Group: GroupItemProblem, Title: "Item differs from description"},
	{Code: "wrong-item", Group: GroupItemProblem, Title: "A different item was delivered"},
	{Code: "damaged", Group: GroupItemProblem, Title: "Item damaged or malfunctioning"},
	{Code: "box-lost", Group: GroupDeliveryProblem, Title: "Box lost at the delivery place"},
	{Code: "wrong-address", Group: GroupDeliveryProblem, Title: "Delivered to a different address"},
}

// ReasonByCode looks a reason up
func ReasonByCode(code string) (Reason, bool) {
	for _, r := range Reasons {
		if r.Code == code {
			return r, true
		}
	}
	return Reason{}, false
}

// RecallPlace is where the courier picks the item up
type RecallPlace string

const (
	RecallFrontDoor      RecallPlace = "Front door"
	RecallAfterCall      RecallPlace = "Front door after the courier calls"
	RecallSecurityOffice RecallPlace = "Security office"
	RecallOther          RecallPlace = "Other place"
)

// RecallPlaces lists the pickup places in display order
var RecallPlaces = []RecallPlace{RecallFrontDoor, RecallAfterCall, RecallSecurityOffice, RecallOther}

// Valid reports whether p is a known place
func (p RecallPlace) Valid() bool {
	for _, known := range RecallPlaces {
		if p == known {
			return true
		}
	}
	return false
}

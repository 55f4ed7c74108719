package models

// Preference is the customization a member last chose for a dish, used to
// pre-fill a new order line.
type Preference struct {
	Taste         string `json:"taste,omitempty"`
	PreferredTime string `json:"preferred_time,omitempty"`
	Location      string `json:"location,omitempty"`
	Ingredients   string `json:"ingredients,omitempty"`
	Remarks       string `json:"remarks,omitempty"`
}

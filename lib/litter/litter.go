// Package litter holds the record type shared by the extractors, the
// change detection store and the notifiers.
package litter

// Litter is one expected-litter announcement as observed on a club
// site. Extraction is best effort, any field other than the defining
// ones may be empty.
type Litter struct {
	KennelName   string `json:"kennel_name,omitempty"`
	Breeder      string `json:"breeder,omitempty"`
	Location     string `json:"location,omitempty"`
	MatingDate   string `json:"mating_date,omitempty"`
	ExpectedDate string `json:"expected_date,omitempty"`
	MaleDog      string `json:"male_dog,omitempty"`
	FemaleDog    string `json:"female_dog,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	Website      string `json:"website,omitempty"`
	RawText      string `json:"raw_text,omitempty"`

	// set by Tag after extraction
	Source    string `json:"source,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
	ID        string `json:"id,omitempty"`
}

package analysis

// Status discriminates the two shapes of an analysis response.
type Status string

const (
	StatusReal Status = "Real"
	StatusFake Status = "Fake"
)

// Image is an uploaded file held in memory.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// Response is the JSON body returned by POST {endpoint}/analyze.
//
// Scores arrive on a 0-100 scale. Optional numbers are pointers so that a
// missing field can be told apart from an explicit zero.
type Response struct {
	Status Status `json:"status"`

	// Real
	Confidence *float64 `json:"confidence,omitempty"`
	Message    string   `json:"message,omitempty"`

	// Fake
	FakeConfidence   *float64 `json:"fake_confidence,omitempty"`
	ManipulationType string   `json:"manipulation_type,omitempty"`
	TypeConfidence   *float64 `json:"type_confidence,omitempty"`
	Mask             string   `json:"mask,omitempty"`
	Overlay          string   `json:"overlay,omitempty"`
	MaskedImage      string   `json:"masked_image,omitempty"`

	Error string `json:"error,omitempty"`
}

// Authentic reports whether the service judged the image real. Any other
// status is handled as a manipulation verdict.
func (r *Response) Authentic() bool {
	return r != nil && r.Status == StatusReal
}

// HasSegmentation reports whether both mask payloads are present.
func (r *Response) HasSegmentation() bool {
	return r != nil && r.Mask != "" && r.MaskedImage != ""
}

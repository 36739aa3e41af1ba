// Package knowledge models the structured answer of a knowledge-engine query.
package knowledge

// Image is a rendered result image
type Image struct {
	Src    string `json:"src"`
	Alt    string `json:"alt"`
	Title  string `json:"title,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Subpod is one answer fragment inside a pod
type Subpod struct {
	Title     string `json:"title"`
	Plaintext string `json:"plaintext"`
	Image     *Image `json:"img,omitempty"`
}

// Pod groups related subpods under a heading
type Pod struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Primary bool     `json:"primary"`
	Subpods []Subpod `json:"subpods"`
}

// Result is the parsed query response. Raw keeps the untouched payload.
type Result struct {
	Input   string `json:"input"`
	Success bool   `json:"success"`
	Error   bool   `json:"error"`
	Pods    []Pod  `json:"pods"`
	Raw     []byte `json:"-"`
}

// Images returns every subpod image in pod order
func (r *Result) Images() []Image {
	if r == nil {
		return nil
	}
	var out []Image
	for _, pod := range r.Pods {
		for _, sub := range pod.Subpods {
			if sub.Image != nil && sub.Image.Src != "" {
				out = append(out, *sub.Image)
			}
		}
	}
	return out
}

// PrimaryText returns the plaintext of the primary pod, or of the first pod
// with any text when none is flagged primary.
func (r *Result) PrimaryText() string {
	if r == nil {
		return ""
	}
	fallback := ""
	for _, pod := range r.Pods {
		for _, sub := range pod.Subpods {
			if sub.Plaintext == "" {
				continue
			}
			if pod.Primary {
				return sub.Plaintext
			}
			if fallback == "" {
				fallback = sub.Plaintext
			}
		}
	}
	return fallback
}

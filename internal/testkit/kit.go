// Package testkit provides fixtures and in-memory fakes for the ports so
// library code can be exercised without files, networks or a display.
package testkit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"physlab/domain/knowledge"
	"physlab/domain/plot"
	"physlab/domain/table"
	"physlab/ports"
)

// TableFromSeries builds a two-column table as a spreadsheet would hold it
func TableFromSeries(s Series, headers ...string) *table.Table {
	if len(headers) < 2 {
		headers = []string{"x", "y"}
	}
	rows := make([][]string, len(s.X))
	for i := range s.X {
		rows[i] = []string{
			strconv.FormatFloat(s.X[i], 'g', -1, 64),
			strconv.FormatFloat(s.Y[i], 'g', -1, 64),
		}
	}
	return &table.Table{Source: "memory", Sheet: "Sheet1", Headers: headers, Rows: rows}
}

// FakeSheetReader serves tables from memory. Successive calls walk through
// Tables and then keep returning the last one, imitating a file that is
// being appended to.
type FakeSheetReader struct {
	mu     sync.Mutex
	Tables []*table.Table
	Err    error
	calls  int
	sheets []string
}

// NewFakeSheetReader creates a reader over the given snapshots
func NewFakeSheetReader(tables ...*table.Table) *FakeSheetReader {
	return &FakeSheetReader{Tables: tables}
}

var _ ports.SheetReaderPort = (*FakeSheetReader)(nil)

// ReadTable returns the next snapshot
func (r *FakeSheetReader) ReadTable(ctx context.Context, path, sheet string) (*table.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.sheets = append(r.sheets, sheet)
	if r.Err != nil {
		return nil, r.Err
	}
	if len(r.Tables) == 0 {
		return nil, fmt.Errorf("no table for %s", path)
	}
	idx := r.calls - 1
	if idx >= len(r.Tables) {
		idx = len(r.Tables) - 1
	}
	return r.Tables[idx], nil
}

// Calls returns how many reads happened
func (r *FakeSheetReader) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// Sheets returns the sheet name of every read
func (r *FakeSheetReader) Sheets() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sheets...)
}

// RecordingSink keeps every published frame. When Limit is positive the
// context's cancel function is called after that many frames, which lets
// tests stop a live loop deterministically.
type RecordingSink struct {
	mu     sync.Mutex
	frames []plot.Frame
	Limit  int
	Cancel context.CancelFunc
	Err    error
}

var _ ports.FrameSinkPort = (*RecordingSink)(nil)

// Publish records the frame
func (s *RecordingSink) Publish(ctx context.Context, frame plot.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.frames = append(s.frames, frame)
	if s.Limit > 0 && len(s.frames) >= s.Limit && s.Cancel != nil {
		s.Cancel()
	}
	return nil
}

// Frames returns a copy of the recorded frames
func (s *RecordingSink) Frames() []plot.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]plot.Frame(nil), s.frames...)
}

// FakeKnowledgeEngine answers every query with a fixed result or error
type FakeKnowledgeEngine struct {
	Result  *knowledge.Result
	Err     error
	Queries []string
}

var _ ports.KnowledgeEnginePort = (*FakeKnowledgeEngine)(nil)

// Query records the input and returns the canned answer
func (k *FakeKnowledgeEngine) Query(ctx context.Context, input string) (*knowledge.Result, error) {
	k.Queries = append(k.Queries, input)
	if k.Err != nil {
		return nil, k.Err
	}
	return k.Result, nil
}

// FakeRenderer writes a fixed payload per figure and counts calls
type FakeRenderer struct {
	mu      sync.Mutex
	Payload []byte
	Err     error
	figures []*plot.Figure
}

var _ ports.ChartRendererPort = (*FakeRenderer)(nil)

// Render records the figure and writes the payload, suffixed with the
// figure title so different figures produce different bytes
func (r *FakeRenderer) Render(w io.Writer, fig *plot.Figure, format plot.Format) error {
	r.mu.Lock()
	r.figures = append(r.figures, fig)
	r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	payload := r.Payload
	if payload == nil {
		payload = []byte("frame")
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	_, err := w.Write([]byte(fmt.Sprintf(":%s:%d", fig.Title, len(fig.Scatters))))
	return err
}

// Figures returns every rendered figure
func (r *FakeRenderer) Figures() []*plot.Figure {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*plot.Figure(nil), r.figures...)
}

// WolframStub is an httptest server answering like the knowledge engine
type WolframStub struct {
	*httptest.Server
	mu      sync.Mutex
	queries []string
	appIDs  []string
}

// NewWolframStub serves body with the given status for every request
func NewWolframStub(status int, body string) *WolframStub {
	stub := &WolframStub{}
	stub.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.mu.Lock()
		stub.queries = append(stub.queries, r.URL.Query().Get("input"))
		stub.appIDs = append(stub.appIDs, r.URL.Query().Get("appid"))
		stub.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	return stub
}

// Queries returns the input parameter of every request
func (s *WolframStub) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// AppIDs returns the appid parameter of every request
func (s *WolframStub) AppIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.appIDs...)
}

// WolframSuccessJSON is a trimmed real response with one single-subpod pod
// given as an object and one pod with a subpod array
const WolframSuccessJSON = `{
  "queryresult": {
    "success": true,
    "error": false,
    "numpods": 2,
    "pods": [
      {
        "title": "Input",
        "id": "Input",
        "primary": false,
        "subpods": {
          "title": "",
          "plaintext": "integral x^2 dx",
          "img": {"src": "https://example.test/input.gif", "alt": "integral x^2 dx", "width": "120", "height": 30}
        }
      },
      {
        "title": "Indefinite integral",
        "id": "IndefiniteIntegral",
        "primary": true,
        "subpods": [
          {
            "title": "",
            "plaintext": "integral x^2 dx = x^3/3 + constant",
            "img": {"src": "https://example.test/result.gif", "alt": "x^3/3", "width": 200, "height": 40}
          },
          {
            "title": "Plot",
            "plaintext": "",
            "img": {"src": "https://example.test/plot.gif", "alt": "plot", "width": 300, "height": 150}
          }
        ]
      }
    ]
  }
}`

// WolframFailureJSON is a response for a query the engine did not understand
const WolframFailureJSON = `{"queryresult": {"success": false, "error": false, "numpods": 0}}`

// WolframErrorJSON is a response for a rejected app id
const WolframErrorJSON = `{"queryresult": {"success": false, "error": {"code": "1", "msg": "Invalid appid"}}}`

// SampleKnowledgeResult is the parsed form of WolframSuccessJSON
func SampleKnowledgeResult() *knowledge.Result {
	return &knowledge.Result{
		Input:   "integrate x^2",
		Success: true,
		Pods: []knowledge.Pod{
			{ID: "Input", Title: "Input", Subpods: []knowledge.Subpod{
				{Plaintext: "integral x^2 dx", Image: &knowledge.Image{Src: "https://example.test/input.gif", Alt: "integral x^2 dx", Width: 120, Height: 30}},
			}},
			{ID: "IndefiniteIntegral", Title: "Indefinite integral", Primary: true, Subpods: []knowledge.Subpod{
				{Plaintext: "integral x^2 dx = x^3/3 + constant", Image: &knowledge.Image{Src: "https://example.test/result.gif", Alt: "x^3/3", Width: 200, Height: 40}},
				{Title: "Plot", Image: &knowledge.Image{Src: "https://example.test/plot.gif", Alt: "plot", Width: 300, Height: 150}},
			}},
		},
	}
}

// Package phase defines the closed set of job phases and the lookup tables
// (order, labels, icons, colors) derived from them.
package phase

// Phase is a job status as reported by the job service.
type Phase string

const (
	Queued          Phase = "queued"
	Processing      Phase = "processing"
	ProcessingAudio Phase = "processing_audio"
	Transcribing    Phase = "transcribing"
	AwaitingReview  Phase = "awaiting_review"
	Reviewing       Phase = "reviewing"
	Rendering       Phase = "rendering"
	Complete        Phase = "complete"
	Error           Phase = "error"
)

// Canonical is the fixed lifecycle order. It is authoritative for segment
// ordering and next/upcoming decisions; arrival order in a raw timeline is
// never used.
var Canonical = []Phase{Queued, Processing, AwaitingReview, Reviewing, Rendering, Complete}

// All lists every phase the tables know about.
var All = []Phase{
	Queued, Processing, ProcessingAudio, Transcribing,
	AwaitingReview, Reviewing, Rendering, Complete, Error,
}

// Info is the presentation metadata for one phase.
type Info struct {
	Label         string // long label used in tooltips and tables
	ShortLabel    string // label that fits inside a progress segment
	Display       string // human status name
	Icon          string
	Color         string
	UpcomingColor string
}

var table = map[Phase]Info{
	Queued:          {Label: "Queued", ShortLabel: "Queue", Display: "Queued", Icon: "⏳", Color: "#6c757d", UpcomingColor: "#adb5bd"},
	Processing:      {Label: "Processing", ShortLabel: "Process", Display: "Processing", Icon: "⚙️", Color: "#007bff", UpcomingColor: "#66a3ff"},
	ProcessingAudio: {Label: "Processing Audio", ShortLabel: "Audio", Display: "Processing Audio", Icon: "⚙️", Color: "#007bff", UpcomingColor: "#66a3ff"},
	Transcribing:    {Label: "Transcribing", ShortLabel: "Lyrics", Display: "Transcribing Lyrics", Icon: "⚙️", Color: "#007bff", UpcomingColor: "#66a3ff"},
	AwaitingReview:  {Label: "Review", ShortLabel: "Review", Display: "Awaiting Review", Icon: "⏸️", Color: "#ffc107", UpcomingColor: "#ffdf88"},
	Reviewing:       {Label: "Reviewing", ShortLabel: "Review", Display: "Reviewing", Icon: "👁️", Color: "#fd7e14", UpcomingColor: "#ff9f5c"},
	Rendering:       {Label: "Rendering", ShortLabel: "Render", Display: "Rendering Video", Icon: "🎬", Color: "#28a745", UpcomingColor: "#66d9a3"},
	Complete:        {Label: "Complete", ShortLabel: "Done", Display: "Complete", Icon: "✅", Color: "#28a745", UpcomingColor: "#66d9a3"},
	Error:           {Label: "Error", ShortLabel: "Error", Display: "Error", Icon: "❌", Color: "#dc3545", UpcomingColor: "#ff8a9a"},
}

// Fallback colors for statuses outside the table.
const (
	DefaultColor   = "#6c757d"
	NeutralColor   = "#e9ecef"
	DefaultIcon    = "📋"
	RemainingLabel = "Remaining"
)

// Lookup returns the metadata for p. Unknown phases get a generic entry
// labelled with the raw status.
func Lookup(p Phase) Info {
	if info, ok := table[p]; ok {
		return info
	}
	name := string(p)
	if name == "" {
		name = "unknown"
	}
	return Info{
		Label:         name,
		ShortLabel:    name,
		Display:       name,
		Icon:          DefaultIcon,
		Color:         DefaultColor,
		UpcomingColor: NeutralColor,
	}
}

// Known reports whether p has a table entry.
func Known(p Phase) bool {
	_, ok := table[p]
	return ok
}

// Display returns the human status name for p.
func Display(p Phase) string { return Lookup(p).Display }

// Color returns the segment color for p, or its lighter variant for
// placeholder segments.
func Color(p Phase, upcoming bool) string {
	info := Lookup(p)
	if upcoming {
		return info.UpcomingColor
	}
	return info.Color
}

// Index returns the position of p in Canonical, or -1.
func Index(p Phase) int {
	for i, c := range Canonical {
		if c == p {
			return i
		}
	}
	return -1
}

// ShouldShow reports whether p is still ahead of current and should get a
// placeholder segment. Complete never gets a placeholder.
func ShouldShow(p, current Phase) bool {
	return Index(p) > Index(current) && p != Complete
}

// IsNext reports whether p immediately follows current in canonical order.
func IsNext(p, current Phase) bool {
	idx := Index(p)
	return idx >= 0 && idx == Index(current)+1
}

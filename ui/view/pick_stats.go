package view

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/soocke/image-picker-go/ui/model"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

// PickStats displays pick counters and session durations.
type PickStats interface {
	Set(s model.PickStats)
}

type pickStats struct {
	pickedLbl  *LabelWidget
	cancelLbl  *LabelWidget
	sessionLbl *LabelWidget
	totalLbl   *LabelWidget
	lastLbl    *LabelWidget
}

// NewPickStats creates the stat labels in one grid row inside parent,
// starting at startCol.
func NewPickStats(parent *FrameWidget, row, startCol int) PickStats {
	s := &pickStats{
		pickedLbl:  Label(Width(22), Anchor("w")),
		cancelLbl:  Label(Width(14), Anchor("w")),
		sessionLbl: Label(Width(14), Anchor("w")),
		totalLbl:   Label(Width(14), Anchor("w")),
		lastLbl:    Label(Width(22), Anchor("w")),
	}
	for i, l := range []*LabelWidget{s.pickedLbl, s.cancelLbl, s.sessionLbl, s.totalLbl, s.lastLbl} {
		if parent != nil {
			Grid(l, In(parent), Row(row), Column(startCol+i), Sticky("w"), Padx("0.2m"))
		} else {
			Grid(l, Row(row), Column(startCol+i), Sticky("w"), Padx("0.2m"))
		}
	}
	s.Set(model.PickStats{})
	return s
}

func (s *pickStats) Set(st model.PickStats) {
	if s == nil || s.pickedLbl == nil {
		return
	}
	s.pickedLbl.Configure(Txt(fmt.Sprintf("Picked: %d (%d gallery / %d camera)", st.Delivered, st.Library, st.Camera)))
	s.cancelLbl.Configure(Txt(fmt.Sprintf("Cancelled: %d", st.Cancelled)))
	s.sessionLbl.Configure(Txt("Session: " + clock(st.Session)))
	s.totalLbl.Configure(Txt("Total: " + clock(st.Total)))
	last := "never"
	if !st.LastPick.IsZero() {
		last = humanize.Time(st.LastPick)
	}
	s.lastLbl.Configure(Txt("Last pick: " + last))
}

func clock(d time.Duration) string {
	seconds := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

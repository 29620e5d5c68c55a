package broadcast

import "github.com/asciinema/asciinema-go/internal/alis"

// EncodeInitFrame renders the magic preamble followed by an Init
// message, the first bytes any ALiS consumer (local server subscriber
// or upstream forwarder) must send.
func EncodeInitFrame(init Init) []byte {
	dst := []byte(alis.Magic)
	return alis.EncodeInit(dst, alis.Init{
		LastID: init.LastID,
		TimeUS: init.TimeUS,
		Cols:   init.Cols,
		Rows:   init.Rows,
		Theme:  init.Theme,
		Dump:   init.Dump,
	})
}

// EncodeEventFrame renders a single event message, delta-encoding its
// time against prevTimeUS (the previous event's absolute TimeUS, or the
// Init snapshot's TimeUS for the first event after subscribing).
func EncodeEventFrame(ev Event, prevTimeUS uint64) []byte {
	delta := ev.TimeUS - prevTimeUS
	var dst []byte

	switch ev.Tag {
	case alis.TagOutput:
		dst = alis.EncodeOutput(dst, ev.ID, delta, ev.Data)
	case alis.TagInput:
		dst = alis.EncodeInput(dst, ev.ID, delta, ev.Data)
	case alis.TagMarker:
		dst = alis.EncodeMarker(dst, ev.ID, delta, ev.Data)
	case alis.TagResize:
		dst = alis.EncodeResize(dst, ev.ID, delta, ev.Cols, ev.Rows)
	case alis.TagExit:
		dst = alis.EncodeExit(dst, ev.ID, delta, ev.Status)
	}
	return dst
}

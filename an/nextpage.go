package an

import (
	"xcvrswitch.dev/porttable"
	"xcvrswitch.dev/xcvrerr"
)

// MaxNextPages bounds the tracked outgoing next-page sequence. Exceeding it
// propagates NoMem to the configuration API (spec §7: "NoMem from the
// next-page buffer allocation is propagated to the configuration API").
const MaxNextPages = 32

// AddNextPage implements an_add_next_page (spec §6): appends page to ext's
// outgoing next-page sequence and re-derives the next-page-bit on every
// word (spec §3 invariant: "every page but the last has the NP bit set").
func AddNextPage(ext *porttable.ANPortExt, page uint64) error {
	if len(ext.NextPages) >= MaxNextPages {
		return xcvrerr.ErrNoMem
	}
	pages := append(append([]uint64(nil), ext.NextPages...), page)
	ext.SetNextPages(pages)
	return nil
}

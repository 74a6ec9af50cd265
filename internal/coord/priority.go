package coord

// prioritize orders the channels to refresh: the live channel, then the
// focused channel, then the visible rows widened by buffer on each side.
// Each channel appears once; ids not in the lineup are ignored.
func prioritize(lineup []Channel, r Range, live LiveState, focus string, buffer int) []Channel {
	pos := make(map[string]int, len(lineup))
	for i, ch := range lineup {
		pos[ch.ID] = i
	}

	seen := make(map[string]bool)
	var out []Channel
	add := func(i int) {
		ch := lineup[i]
		if seen[ch.ID] {
			return
		}
		seen[ch.ID] = true
		out = append(out, ch)
	}

	if live.Active {
		if i, ok := pos[live.ChannelID]; ok {
			add(i)
		}
	}
	if focus != "" {
		if i, ok := pos[focus]; ok {
			add(i)
		}
	}

	if buffer < 0 {
		buffer = 0
	}
	lo := max(r.ChannelStart-buffer, 0)
	hi := min(r.ChannelEnd+buffer, len(lineup))
	for i := lo; i < hi; i++ {
		add(i)
	}
	return out
}

package compositor

// FrameStats summarizes one Tick.
type FrameStats struct {
	Reaped    int
	Windows   int
	Surfaces  int
	Refreshed int
	Presented int
}

// Tick runs one frame: poll host events, reap windows marked closing,
// composite every remaining window and optionally present it. Failures are
// logged, never returned.
func (s *System) Tick() FrameStats {
	var stats FrameStats

	s.host.PollEvents(hostSink{s: s})

	for _, r := range s.windows.refs() {
		w, ok := s.windows.get(r)
		if !ok || !w.closing {
			continue
		}
		if err := s.DeleteWindow(WindowID(r)); err != nil {
			s.logger.Warn("reap failed", "window", WindowID(r), "error", err)
			continue
		}
		stats.Reaped++
	}

	for _, r := range s.windows.refs() {
		w, ok := s.windows.get(r)
		if !ok {
			continue
		}
		s.backend.Viewport(0, 0, w.width, w.height)
		s.backend.Clear()

		for _, sid := range w.surfaces {
			surf, ok := s.surfaces.get(sid.slot)
			if !ok {
				continue
			}
			if disp := s.backend.DisplayForTexture(surf.textureID); disp != nil {
				s.backend.Refresh(disp)
				stats.Refreshed++
			}
			s.backend.DrawTexture(surf.textureID, surf.area, surf.opa, w.width, w.height)
			stats.Surfaces++
		}
		stats.Windows++

		if s.opts.Present {
			if err := s.host.Present(w.handle, s.backend.Frame()); err != nil {
				s.logger.Warn("present failed", "window", WindowID(r), "error", err)
				continue
			}
			stats.Presented++
		}
	}
	return stats
}

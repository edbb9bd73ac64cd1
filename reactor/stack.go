package reactor

type frame struct {
	effect *Effect
	// reads under a paused frame are not attributed to effect
	paused bool
}

// activeStack is the chain of currently running effects. Pausing pushes a
// frame that keeps the running effect but stops attribution, so writes made
// while paused still know which effect not to re-enter.
type activeStack struct {
	frames []frame
}

// push makes e current and returns the matching restore. Restoring truncates
// to the depth seen at push time, which also drops frames an inner body left
// behind by panicking or by pausing without resuming.
func (s *activeStack) push(e *Effect) (restore func()) {
	depth := len(s.frames)
	s.frames = append(s.frames, frame{effect: e})
	return func() {
		if depth > len(s.frames) {
			return
		}
		clear(s.frames[depth:])
		s.frames = s.frames[:depth]
	}
}

func (s *activeStack) pause() {
	s.frames = append(s.frames, frame{effect: s.running(), paused: true})
}

// resume pops the innermost frame if it is a paused one.
func (s *activeStack) resume() {
	last := len(s.frames) - 1
	if last < 0 || !s.frames[last].paused {
		return
	}
	s.frames[last] = frame{}
	s.frames = s.frames[:last]
}

// running is the innermost effect whose body is executing, paused or not.
func (s *activeStack) running() *Effect {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1].effect
}

// tracking is the effect reads are attributed to, nil while paused.
func (s *activeStack) tracking() *Effect {
	if len(s.frames) == 0 {
		return nil
	}
	top := s.frames[len(s.frames)-1]
	if top.paused {
		return nil
	}
	return top.effect
}

func (s *activeStack) depth() int {
	return len(s.frames)
}
